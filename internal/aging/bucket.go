// Package aging turns invoice rows into the derived fields shown on the dashboard:
// outstanding balances, aging buckets, portfolio KPIs and customer rankings.
//
// Every function is pure. The reference date is always an argument; nothing in this
// package reads the clock.
package aging

import "invoice-dashboard/internal/domain"

// ComputeAgingBucket classifies an invoice by D = reference - due in whole days.
// Thresholds are exclusive below and inclusive above: D=90 is "61-90", D=91 is "90+".
func ComputeAgingBucket(due, reference domain.Date) domain.AgingBucket {
	days := domain.DaysBetween(due, reference)
	switch {
	case days > 90:
		return domain.Bucket90Plus
	case days > 60:
		return domain.Bucket61To90
	case days > 30:
		return domain.Bucket31To60
	case days > 0:
		return domain.Bucket0To30
	default:
		return domain.BucketOnTime
	}
}

// EnrichInvoices attaches outstanding and aging bucket to each row, keeping input order.
func EnrichInvoices(rows []domain.InvoiceRow, reference domain.Date) []domain.InvoiceRecord {
	out := make([]domain.InvoiceRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.InvoiceRecord{
			InvoiceID:    row.InvoiceID,
			CustomerName: row.CustomerName,
			Amount:       row.Amount,
			InvoiceDate:  row.InvoiceDate,
			DueDate:      row.DueDate,
			TotalPaid:    row.TotalPaid,
			Outstanding:  row.Outstanding(),
			AgingBucket:  ComputeAgingBucket(row.DueDate, reference),
		})
	}
	return out
}

// SummarizeBuckets counts invoices and sums outstanding per bucket.
// All buckets are present, least overdue first, even when empty.
func SummarizeBuckets(records []domain.InvoiceRecord) []domain.BucketSummary {
	buckets := domain.AgingBuckets()
	index := make(map[domain.AgingBucket]int, len(buckets))
	out := make([]domain.BucketSummary, len(buckets))
	for i, b := range buckets {
		index[b] = i
		out[i].AgingBucket = b
	}
	for _, r := range records {
		i, ok := index[r.AgingBucket]
		if !ok {
			continue
		}
		out[i].InvoiceCount++
		out[i].Outstanding = out[i].Outstanding.Add(r.Outstanding)
	}
	return out
}
