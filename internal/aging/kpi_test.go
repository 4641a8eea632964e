package aging

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"invoice-dashboard/internal/domain"
)

func TestComputeKPIs_Empty(t *testing.T) {
	got := ComputeKPIs(nil, ref)
	if !got.TotalInvoiced.IsZero() || !got.TotalReceived.IsZero() || !got.TotalOutstanding.IsZero() ||
		got.InvoiceCount != 0 || got.OverdueCount != 0 || got.PercentOverdue != 0 {
		t.Fatalf("expected zero summary, got %+v", got)
	}
	if math.IsNaN(got.PercentOverdue) {
		t.Fatal("percent overdue must not be NaN")
	}
}

func TestComputeKPIs_NegativeOutstandingIsNotClamped(t *testing.T) {
	rows := []domain.InvoiceRow{
		{InvoiceID: 1, Amount: amt("100.00"), TotalPaid: amt("150.00"), DueDate: ref.AddDays(10)},
		{InvoiceID: 2, Amount: amt("200.00"), TotalPaid: amt("50.00"), DueDate: ref.AddDays(10)},
	}
	got := ComputeKPIs(rows, ref)

	want := decimal.Zero
	for _, r := range rows {
		want = want.Add(r.Amount.Sub(r.TotalPaid))
	}
	if !got.TotalOutstanding.Equal(want) || !want.Equal(amt("100")) {
		t.Fatalf("total outstanding %s, want %s", got.TotalOutstanding, want)
	}
	if !got.TotalInvoiced.Equal(amt("300")) || !got.TotalReceived.Equal(amt("200")) {
		t.Fatalf("unexpected totals %+v", got)
	}
}

func TestComputeKPIs_PercentOverdue(t *testing.T) {
	rows := make([]domain.InvoiceRow, 0, 10)
	for i := 0; i < 10; i++ {
		due := ref.AddDays(i + 1)
		if i < 3 {
			due = ref.AddDays(-(i + 1))
		}
		rows = append(rows, domain.InvoiceRow{InvoiceID: int64(i + 1), Amount: amt("1.00"), DueDate: due})
	}
	got := ComputeKPIs(rows, ref)
	if got.PercentOverdue != 30.0 {
		t.Fatalf("percent overdue %v, want 30", got.PercentOverdue)
	}
	if got.OverdueCount != 3 || got.InvoiceCount != 10 {
		t.Fatalf("counts %d/%d", got.OverdueCount, got.InvoiceCount)
	}
}

func TestComputeKPIs_DueTodayIsNotOverdue(t *testing.T) {
	rows := []domain.InvoiceRow{
		{InvoiceID: 1, Amount: amt("1.00"), DueDate: ref},
		{InvoiceID: 2, Amount: amt("1.00"), DueDate: ref.AddDays(-1), TotalPaid: amt("1.00")},
	}
	got := ComputeKPIs(rows, ref)
	if got.OverdueCount != 1 || got.PercentOverdue != 50 {
		t.Fatalf("got %+v", got)
	}
}

func TestComputeKPIs_KeepsSubCentPrecision(t *testing.T) {
	rows := make([]domain.InvoiceRow, 0, 3)
	for i := 0; i < 3; i++ {
		rows = append(rows, domain.InvoiceRow{
			InvoiceID: int64(i + 1),
			Amount:    amt("100.004"),
			TotalPaid: amt("0.004"),
			DueDate:   ref,
		})
	}
	got := ComputeKPIs(rows, ref)
	if !got.TotalInvoiced.Equal(amt("300.012")) || !got.TotalReceived.Equal(amt("0.012")) {
		t.Fatalf("totals %s/%s", got.TotalInvoiced, got.TotalReceived)
	}
	if !got.TotalOutstanding.Equal(amt("300")) {
		t.Fatalf("total outstanding %s", got.TotalOutstanding)
	}
}

func TestComputeKPIs_LargeAmounts(t *testing.T) {
	rows := []domain.InvoiceRow{
		{InvoiceID: 1, Amount: amt("99999999999999999.00"), DueDate: ref},
		{InvoiceID: 2, Amount: amt("1.00"), DueDate: ref},
	}
	got := ComputeKPIs(rows, ref)
	if got.TotalInvoiced.String() != "100000000000000000" {
		t.Fatalf("total invoiced %s", got.TotalInvoiced)
	}
}
