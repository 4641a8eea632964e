package domain

import "github.com/shopspring/decimal"

// AgingBucket labels how overdue an invoice is relative to a reference date.
type AgingBucket string

const (
	Bucket90Plus AgingBucket = "90+ days overdue"
	Bucket61To90 AgingBucket = "61-90 days overdue"
	Bucket31To60 AgingBucket = "31-60 days overdue"
	Bucket0To30  AgingBucket = "0-30 days overdue"
	BucketOnTime AgingBucket = "On Time"
)

// AgingBuckets lists every bucket from the least to the most overdue.
func AgingBuckets() []AgingBucket {
	return []AgingBucket{BucketOnTime, Bucket0To30, Bucket31To60, Bucket61To90, Bucket90Plus}
}

// InvoiceRow is one invoice as returned by the data access layer,
// with its payments already summed.
type InvoiceRow struct {
	InvoiceID    int64           `json:"invoice_id"`
	CustomerName string          `json:"customer_name"`
	Amount       decimal.Decimal `json:"amount"`
	InvoiceDate  Date            `json:"invoice_date"`
	DueDate      Date            `json:"due_date"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
}

// Outstanding may be negative when the invoice is overpaid.
func (r InvoiceRow) Outstanding() decimal.Decimal {
	return r.Amount.Sub(r.TotalPaid)
}

type InvoiceRecord struct {
	InvoiceID    int64           `json:"invoice_id"`
	CustomerName string          `json:"customer_name"`
	Amount       decimal.Decimal `json:"amount"`
	InvoiceDate  Date            `json:"invoice_date"`
	DueDate      Date            `json:"due_date"`
	TotalPaid    decimal.Decimal `json:"total_paid"`
	Outstanding  decimal.Decimal `json:"outstanding"`
	AgingBucket  AgingBucket     `json:"aging_bucket"`
}

// BucketSummary aggregates the invoices falling into one aging bucket.
type BucketSummary struct {
	AgingBucket  AgingBucket     `json:"aging_bucket"`
	InvoiceCount int             `json:"invoice_count"`
	Outstanding  decimal.Decimal `json:"outstanding"`
}
