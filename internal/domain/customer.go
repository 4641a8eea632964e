package domain

import "github.com/shopspring/decimal"

type CustomerOutstandingSummary struct {
	CustomerName     string          `json:"customer_name"`
	TotalOutstanding decimal.Decimal `json:"total_outstanding"`
}
