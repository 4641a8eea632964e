package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceQueries_AggregatePaymentsBeforeJoin(t *testing.T) {
	for name, query := range map[string]string{
		"list invoice rows": listInvoiceRowsQuery,
		"customer totals":   customerTotalsQuery,
	} {
		t.Run(name, func(t *testing.T) {
			normalized := strings.Join(strings.Fields(query), " ")

			assert.Contains(t, normalized, "LEFT JOIN ( SELECT invoice_id, SUM(amount) AS total_paid FROM payments GROUP BY invoice_id) p ON p.invoice_id = i.invoice_id")
			assert.Contains(t, normalized, "COALESCE(p.total_paid, 0)")
			assert.NotContains(t, normalized, "JOIN payments", "payments must be summed per invoice before joining")
			assert.Equal(t, 1, strings.Count(normalized, "FROM payments"))
		})
	}
}

func TestInvoiceQueries_Ordering(t *testing.T) {
	assert.True(t, strings.HasSuffix(strings.TrimSpace(listInvoiceRowsQuery), "ORDER BY i.due_date DESC, i.invoice_id DESC"))
	assert.True(t, strings.HasSuffix(strings.TrimSpace(customerTotalsQuery), "ORDER BY total_outstanding DESC, c.name ASC"))
}
