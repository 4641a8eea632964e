package domain

import "github.com/shopspring/decimal"

// KPISummary is a portfolio snapshot as of one reference date.
type KPISummary struct {
	TotalInvoiced    decimal.Decimal `json:"total_invoiced"`
	TotalReceived    decimal.Decimal `json:"total_received"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
	PercentOverdue   float64         `json:"percent_overdue"`
	InvoiceCount     int             `json:"invoice_count"`
	OverdueCount     int             `json:"overdue_count"`
}
