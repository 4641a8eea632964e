package aging

import (
	"fmt"
	"sort"

	"invoice-dashboard/internal/domain"
)

// DefaultTopCustomers is the size of the dashboard's customer chart.
const DefaultTopCustomers = 5

// RankTopCustomers returns at most n customers by descending total outstanding.
// The sort is stable, so customers with equal totals keep their input order.
func RankTopCustomers(totals []domain.CustomerOutstandingSummary, n int) ([]domain.CustomerOutstandingSummary, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: top customers limit must not be negative, got %d", domain.ErrInvalidArgument, n)
	}
	ranked := make([]domain.CustomerOutstandingSummary, len(totals))
	copy(ranked, totals)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].TotalOutstanding.GreaterThan(ranked[j].TotalOutstanding)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// SummarizeCustomers groups rows by customer name and sums their outstanding balances,
// including invoices with nothing left to pay. Customers are ordered by name, so a
// stable ranking breaks ties the same way the database query does.
func SummarizeCustomers(rows []domain.InvoiceRow) []domain.CustomerOutstandingSummary {
	index := make(map[string]int)
	out := make([]domain.CustomerOutstandingSummary, 0)
	for _, row := range rows {
		i, ok := index[row.CustomerName]
		if !ok {
			i = len(out)
			index[row.CustomerName] = i
			out = append(out, domain.CustomerOutstandingSummary{CustomerName: row.CustomerName})
		}
		out[i].TotalOutstanding = out[i].TotalOutstanding.Add(row.Outstanding())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CustomerName < out[j].CustomerName
	})
	return out
}
