package service

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"invoice-dashboard/internal/domain"
)

type memoryStore struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func (m *memoryStore) Save(_ context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[name] = data
	return name, nil
}

func (m *memoryStore) URL(_ context.Context, key string) (string, error) {
	return "http://files.test/" + key, nil
}

func (m *memoryStore) only(t *testing.T) (string, []byte) {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.Len(t, m.files, 1)
	for name, data := range m.files {
		return name, data
	}
	return "", nil
}

func newExportService(t *testing.T, repo *fakeInvoices, store *memoryStore) (*ExportService, *fakeNotifier, *recordingMetrics) {
	t.Helper()
	rdb, _ := newTestRedis(t)
	metrics := newRecordingMetrics()
	notifier := &fakeNotifier{}
	dashboard := NewDashboardService(repo, &fakePayments{}, nil, nil, nil)
	svc := NewExportService(dashboard, rdb, store, notifier, metrics)
	return svc, notifier, metrics
}

func TestExportService_InvoiceWorkbook(t *testing.T) {
	store := &memoryStore{}
	svc, notifier, metrics := newExportService(t, &fakeInvoices{rows: sampleRows()}, store)
	ctx := context.Background()

	id, err := svc.StartInvoiceExport(ctx, []string{"invoice_id", "outstanding", "aging_bucket"}, day(2024, time.March, 1))
	require.NoError(t, err)
	assert.Contains(t, id, "exports:")
	svc.Wait()

	name, data := store.only(t)
	assert.Equal(t, "invoices_20240301_", name[:len("invoices_20240301_")])

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Invoices", "Customers", "KPIs"}, f.GetSheetList())

	rows, err := f.GetRows("Invoices")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Invoice ID", "Outstanding", "Aging"}, rows[0])
	assert.Equal(t, []string{"3", "300", "On Time"}, rows[1])
	assert.Equal(t, []string{"1", "0", "90+ days overdue"}, rows[3])

	customers, err := f.GetRows("Customers")
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme", "150"}, customers[1])
	assert.Equal(t, []string{"Globex", "300"}, customers[2])

	total, err := f.GetCellValue("KPIs", "B4")
	require.NoError(t, err)
	assert.Equal(t, "450", total)

	status, err := svc.GetExport(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 100.0, status.Progress)
	require.NotNil(t, status.FileURL)
	assert.Equal(t, "http://files.test/"+name, *status.FileURL)
	assert.Nil(t, status.Error)

	assert.Contains(t, notifier.events, "complete")
	assert.Equal(t, 1, metrics.exports["completed"])
}

func TestExportService_DefaultFields(t *testing.T) {
	store := &memoryStore{}
	svc, _, _ := newExportService(t, &fakeInvoices{rows: sampleRows()}, store)

	_, err := svc.StartInvoiceExport(context.Background(), nil, day(2024, time.March, 1))
	require.NoError(t, err)
	svc.Wait()

	_, data := store.only(t)
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Invoices")
	require.NoError(t, err)
	assert.Len(t, rows[0], len(DefaultInvoiceFields))
	assert.Equal(t, "Invoice ID", rows[0][0])
	assert.Equal(t, "2024-03-02", rows[1][4])
}

func TestExportService_RejectsUnknownField(t *testing.T) {
	svc, _, _ := newExportService(t, &fakeInvoices{}, &memoryStore{})

	_, err := svc.StartInvoiceExport(context.Background(), []string{"invoice_id", "password"}, day(2024, time.March, 1))
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	list, err := svc.ListExports(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestExportService_FailureIsRecorded(t *testing.T) {
	store := &memoryStore{err: errors.New("disk full")}
	svc, notifier, metrics := newExportService(t, &fakeInvoices{rows: sampleRows()}, store)
	ctx := context.Background()

	id, err := svc.StartInvoiceExport(ctx, nil, day(2024, time.March, 1))
	require.NoError(t, err)
	svc.Wait()

	status, err := svc.GetExport(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, status.Error)
	assert.Contains(t, *status.Error, "disk full")
	assert.Nil(t, status.FileURL)
	assert.Contains(t, notifier.events, "failed")
	assert.Equal(t, 1, metrics.exports["failed"])
}

func TestExportService_DataUnavailableFailsExport(t *testing.T) {
	repo := &fakeInvoices{err: domain.ErrDataUnavailable}
	svc, _, _ := newExportService(t, repo, &memoryStore{})
	ctx := context.Background()

	id, err := svc.StartInvoiceExport(ctx, nil, day(2024, time.March, 1))
	require.NoError(t, err)
	svc.Wait()

	status, err := svc.GetExport(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, status.Error)
	assert.Contains(t, *status.Error, "load dashboard failed")
}

func TestExportService_ListExportsNewestFirst(t *testing.T) {
	svc, _, _ := newExportService(t, &fakeInvoices{rows: sampleRows()}, &memoryStore{})
	ctx := context.Background()

	base := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	first, err := svc.StartInvoiceExport(ctx, nil, day(2024, time.March, 1))
	require.NoError(t, err)
	svc.Wait()

	svc.now = func() time.Time { return base.Add(time.Minute) }
	second, err := svc.StartInvoiceExport(ctx, nil, day(2024, time.March, 1))
	require.NoError(t, err)
	svc.Wait()

	list, err := svc.ListExports(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].Key)
	assert.Equal(t, first, list[1].Key)
}

func TestExportService_GetExportNotFound(t *testing.T) {
	svc, _, _ := newExportService(t, &fakeInvoices{}, &memoryStore{})

	_, err := svc.GetExport(context.Background(), "exports:missing")
	assert.ErrorIs(t, err, domain.ErrExportNotFound)
}
