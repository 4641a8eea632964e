package domain

import "github.com/shopspring/decimal"

type Payment struct {
	PaymentID   int64           `json:"payment_id"`
	InvoiceID   int64           `json:"invoice_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate Date            `json:"payment_date"`
}

// PaymentInput is a payment to be recorded. A nil PaymentDate means "today",
// which the caller supplies explicitly when recording.
type PaymentInput struct {
	InvoiceID   int64
	Amount      decimal.Decimal
	PaymentDate *Date
}
