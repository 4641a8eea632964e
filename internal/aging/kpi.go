package aging

import "invoice-dashboard/internal/domain"

// ComputeKPIs aggregates one snapshot of invoice rows.
//
// total_outstanding is the signed sum of amount - total_paid, so overpaid invoices
// lower it. An invoice is overdue when its due date is strictly before the reference
// date, whatever its payment status.
func ComputeKPIs(rows []domain.InvoiceRow, reference domain.Date) domain.KPISummary {
	var s domain.KPISummary
	for _, row := range rows {
		s.TotalInvoiced = s.TotalInvoiced.Add(row.Amount)
		s.TotalReceived = s.TotalReceived.Add(row.TotalPaid)
		s.TotalOutstanding = s.TotalOutstanding.Add(row.Outstanding())
		if row.DueDate.Before(reference) {
			s.OverdueCount++
		}
	}
	s.InvoiceCount = len(rows)
	if s.InvoiceCount > 0 {
		s.PercentOverdue = 100 * float64(s.OverdueCount) / float64(s.InvoiceCount)
	}
	return s
}
