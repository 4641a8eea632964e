package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"invoice-dashboard/internal/clients"
	"invoice-dashboard/internal/domain"
)

const testRedisPrefix = "test_"

func newTestRedis(t *testing.T) (*clients.RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := clients.NewRedisClient(context.Background(), clients.RedisConfig{Addr: mr.Addr(), Timeout: time.Second, Prefix: testRedisPrefix})
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client, mr
}

func day(y int, m time.Month, d int) domain.Date { return domain.NewDate(y, m, d) }

func amt(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeInvoices struct {
	mu        sync.Mutex
	rows      []domain.InvoiceRow
	totals    []domain.CustomerOutstandingSummary
	err       error
	rowCalls  int
	totalCall int
}

func (f *fakeInvoices) ListInvoiceRows(context.Context) ([]domain.InvoiceRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rowCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func (f *fakeInvoices) CustomerTotals(context.Context) ([]domain.CustomerOutstandingSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totalCall++
	if f.err != nil {
		return nil, f.err
	}
	return f.totals, nil
}

func (f *fakeInvoices) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rowCalls
}

type fakePayments struct {
	created []domain.Payment
	err     error
	nextID  int64
}

func (f *fakePayments) Create(_ context.Context, p domain.Payment) (domain.Payment, error) {
	if f.err != nil {
		return domain.Payment{}, f.err
	}
	f.nextID++
	p.PaymentID = f.nextID
	f.created = append(f.created, p)
	return p, nil
}

func (f *fakePayments) ListByInvoice(_ context.Context, invoiceID int64) ([]domain.Payment, error) {
	out := []domain.Payment{}
	for _, p := range f.created {
		if p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	return out, f.err
}

type fakeNotifier struct {
	mu       sync.Mutex
	payments []domain.Payment
	events   []string
	err      error
}

func (f *fakeNotifier) NotifyPaymentRecorded(_ context.Context, p domain.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments = append(f.payments, p)
	return f.err
}

func (f *fakeNotifier) NotifyExportProgress(_ context.Context, _ string, _ float64, stage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "progress:"+stage)
	return nil
}

func (f *fakeNotifier) NotifyExportComplete(context.Context, string, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "complete")
	return nil
}

func (f *fakeNotifier) NotifyExportFailed(context.Context, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, "failed")
	return nil
}

type recordingMetrics struct {
	mu       sync.Mutex
	cache    map[string]int
	payments int
	exports  map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{cache: map[string]int{}, exports: map[string]int{}}
}

func (m *recordingMetrics) CacheResult(name, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[name+":"+result]++
}

func (m *recordingMetrics) PaymentRecorded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments++
}

func (m *recordingMetrics) ExportFinished(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exports[status]++
}

func sampleRows() []domain.InvoiceRow {
	return []domain.InvoiceRow{
		{InvoiceID: 3, CustomerName: "Globex", Amount: amt("300.00"), InvoiceDate: day(2024, time.February, 1), DueDate: day(2024, time.March, 2)},
		{InvoiceID: 2, CustomerName: "Acme", Amount: amt("200.00"), InvoiceDate: day(2024, time.January, 15), DueDate: day(2024, time.February, 14), TotalPaid: amt("50.00")},
		{InvoiceID: 1, CustomerName: "Acme", Amount: amt("100.00"), InvoiceDate: day(2023, time.November, 1), DueDate: day(2023, time.December, 1), TotalPaid: amt("100.00")},
	}
}
