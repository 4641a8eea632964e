package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"invoice-dashboard/internal/clients"
	"invoice-dashboard/internal/domain"
	"invoice-dashboard/internal/logger"
)

const (
	exportSetKey = "export_ids"
	exportTTL    = 20 * time.Minute

	progressChunk = 1000
)

// FileStore persists generated workbooks and hands out download links.
type FileStore interface {
	Save(ctx context.Context, fileName string, data []byte) (string, error)
	URL(ctx context.Context, key string) (string, error)
}

type ExportNotifier interface {
	NotifyExportProgress(ctx context.Context, exportID string, progress float64, stage string) error
	NotifyExportComplete(ctx context.Context, exportID string, url string, filename string) error
	NotifyExportFailed(ctx context.Context, exportID string, errMsg string) error
}

type ExportStatus struct {
	Key           string      `json:"key"`
	Type          string      `json:"type"`
	Fields        []string    `json:"fields"`
	ReferenceDate domain.Date `json:"reference_date"`
	Progress      float64     `json:"progress"`
	FileURL       *string     `json:"file_url"`
	Error         *string     `json:"error,omitempty"`
	Created       time.Time   `json:"created_at"`
}

type InvoiceColumn struct {
	Header string
	Value  func(r domain.InvoiceRecord) any
}

var invoiceColumns = map[string]InvoiceColumn{
	"invoice_id":    {Header: "Invoice ID", Value: func(r domain.InvoiceRecord) any { return r.InvoiceID }},
	"customer_name": {Header: "Customer", Value: func(r domain.InvoiceRecord) any { return r.CustomerName }},
	"amount":        {Header: "Amount", Value: func(r domain.InvoiceRecord) any { return r.Amount.InexactFloat64() }},
	"invoice_date":  {Header: "Invoice Date", Value: func(r domain.InvoiceRecord) any { return r.InvoiceDate.String() }},
	"due_date":      {Header: "Due Date", Value: func(r domain.InvoiceRecord) any { return r.DueDate.String() }},
	"total_paid":    {Header: "Total Paid", Value: func(r domain.InvoiceRecord) any { return r.TotalPaid.InexactFloat64() }},
	"outstanding":   {Header: "Outstanding", Value: func(r domain.InvoiceRecord) any { return r.Outstanding.InexactFloat64() }},
	"aging_bucket":  {Header: "Aging", Value: func(r domain.InvoiceRecord) any { return string(r.AgingBucket) }},
}

// DefaultInvoiceFields is the column order used when a request selects none.
var DefaultInvoiceFields = []string{
	"invoice_id", "customer_name", "amount", "invoice_date", "due_date", "total_paid", "outstanding", "aging_bucket",
}

type ExportService struct {
	dashboard *DashboardService
	redis     *clients.RedisClient
	store     FileStore
	ws        ExportNotifier
	metrics   Metrics
	now       func() time.Time

	wg sync.WaitGroup
}

func NewExportService(dashboard *DashboardService, redis *clients.RedisClient, store FileStore, ws ExportNotifier, metrics Metrics) *ExportService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &ExportService{
		dashboard: dashboard,
		redis:     redis,
		store:     store,
		ws:        ws,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Wait blocks until every running export has finished.
func (s *ExportService) Wait() {
	s.wg.Wait()
}

func (s *ExportService) saveExportStatus(ctx context.Context, st *ExportStatus) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, st.Key, string(data), exportTTL); err != nil {
		return err
	}
	return s.redis.SAdd(ctx, exportSetKey, st.Key)
}

// StartInvoiceExport queues a workbook of the invoices as of reference and
// returns its export id. The workbook is built in the background.
func (s *ExportService) StartInvoiceExport(ctx context.Context, fields []string, reference domain.Date) (string, error) {
	if s.redis == nil || s.store == nil {
		return "", fmt.Errorf("%w: export storage not configured", domain.ErrDataUnavailable)
	}
	if reference.IsZero() {
		return "", fmt.Errorf("%w: reference date required", domain.ErrInvalidArgument)
	}
	if len(fields) == 0 {
		fields = DefaultInvoiceFields
	}
	for _, f := range fields {
		if _, ok := invoiceColumns[f]; !ok {
			return "", fmt.Errorf("%w: unknown export field %q", domain.ErrInvalidArgument, f)
		}
	}

	status := &ExportStatus{
		Key:           fmt.Sprintf("exports:%s", uuid.NewString()),
		Type:          "invoices",
		Fields:        fields,
		ReferenceDate: reference,
		Created:       s.now().UTC(),
	}
	if err := s.saveExportStatus(ctx, status); err != nil {
		return "", fmt.Errorf("%w: save export status: %w", domain.ErrDataUnavailable, err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runInvoiceExport(context.Background(), status)
	}()

	return status.Key, nil
}

func (s *ExportService) runInvoiceExport(ctx context.Context, status *ExportStatus) {
	l := logger.WithComponent("export")
	l.Info().Str("export_id", status.Key).Str("reference_date", status.ReferenceDate.String()).Msg("export started")

	snapshot, err := s.dashboard.Snapshot(ctx, status.ReferenceDate)
	if err != nil {
		s.fail(ctx, status, fmt.Sprintf("load dashboard failed: %v", err))
		return
	}

	data, err := s.buildWorkbook(ctx, status, snapshot)
	if err != nil {
		s.fail(ctx, status, fmt.Sprintf("build workbook failed: %v", err))
		return
	}

	fileName := fmt.Sprintf("invoices_%s_%s.xlsx",
		status.ReferenceDate.Time().Format("20060102"),
		s.now().UTC().Format("150405"))

	s.progress(ctx, status, 95, "uploading")

	stored, err := s.store.Save(ctx, fileName, data)
	if err != nil {
		s.fail(ctx, status, fmt.Sprintf("save export failed: %v", err))
		return
	}
	url, err := s.store.URL(ctx, stored)
	if err != nil {
		s.fail(ctx, status, fmt.Sprintf("sign export url failed: %v", err))
		return
	}

	status.FileURL = &url
	status.Progress = 100
	if err := s.saveExportStatus(ctx, status); err != nil {
		l.Warn().Err(err).Str("export_id", status.Key).Msg("save export status failed")
	}
	if s.ws != nil {
		_ = s.ws.NotifyExportProgress(ctx, status.Key, 100, "ready")
		_ = s.ws.NotifyExportComplete(ctx, status.Key, url, fileName)
	}
	s.metrics.ExportFinished("completed")
	l.Info().Str("export_id", status.Key).Str("file", stored).Msg("export complete")
}

func (s *ExportService) progress(ctx context.Context, status *ExportStatus, progress float64, stage string) {
	status.Progress = progress
	_ = s.saveExportStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportProgress(ctx, status.Key, progress, stage)
	}
}

func (s *ExportService) fail(ctx context.Context, status *ExportStatus, errStr string) {
	l := logger.WithComponent("export")
	l.Error().Str("export_id", status.Key).Msg(errStr)

	status.Error = &errStr
	status.Progress = 100
	_ = s.saveExportStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyExportFailed(ctx, status.Key, errStr)
	}
	s.metrics.ExportFinished("failed")
}

func (s *ExportService) buildWorkbook(ctx context.Context, status *ExportStatus, d Dashboard) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Invoices"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}
	_ = f.SetDocProps(&excelize.DocProperties{
		Creator: "invoice-dashboard",
		Title:   "Invoices as of " + d.ReferenceDate.String(),
	})

	cols := make([]InvoiceColumn, 0, len(status.Fields))
	for _, key := range status.Fields {
		cols = append(cols, invoiceColumns[key])
	}
	for i, col := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, col.Header); err != nil {
			return nil, err
		}
	}

	total := len(d.Invoices)
	for i, rec := range d.Invoices {
		for colIdx, col := range cols {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, i+2)
			if err := f.SetCellValue(sheet, cell, col.Value(rec)); err != nil {
				return nil, err
			}
		}

		if (i+1)%progressChunk == 0 || i == total-1 {
			progress := math.Round(float64(i+1) / float64(total) * 90)
			s.progress(ctx, status, progress, "generating")
		}
	}

	if err := writeCustomersSheet(f, d); err != nil {
		return nil, err
	}
	if err := writeKPISheet(f, d); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCustomersSheet(f *excelize.File, d Dashboard) error {
	const sheet = "Customers"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]any{{"Customer", "Outstanding"}}
	for _, c := range d.Customers {
		rows = append(rows, []any{c.CustomerName, c.TotalOutstanding.InexactFloat64()})
	}
	return writeRows(f, sheet, rows)
}

func writeKPISheet(f *excelize.File, d Dashboard) error {
	const sheet = "KPIs"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]any{
		{"Reference Date", d.ReferenceDate.String()},
		{"Total Invoiced", d.KPIs.TotalInvoiced.InexactFloat64()},
		{"Total Received", d.KPIs.TotalReceived.InexactFloat64()},
		{"Total Outstanding", d.KPIs.TotalOutstanding.InexactFloat64()},
		{"Percent Overdue", d.KPIs.PercentOverdue},
		{"Invoices", d.KPIs.InvoiceCount},
		{"Overdue Invoices", d.KPIs.OverdueCount},
		{},
		{"Aging Bucket", "Invoices", "Outstanding"},
	}
	for _, b := range d.Aging {
		rows = append(rows, []any{string(b.AgingBucket), b.InvoiceCount, b.Outstanding.InexactFloat64()})
	}
	return writeRows(f, sheet, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// ListExports returns every live export, newest first.
func (s *ExportService) ListExports(ctx context.Context) ([]ExportStatus, error) {
	if s.redis == nil {
		return nil, fmt.Errorf("%w: redis client not configured", domain.ErrDataUnavailable)
	}

	keys, err := s.redis.SMembers(ctx, exportSetKey)
	if err != nil {
		return nil, fmt.Errorf("%w: list export keys: %w", domain.ErrDataUnavailable, err)
	}

	statuses := make([]ExportStatus, 0, len(keys))
	for _, key := range keys {
		status, err := s.GetExport(ctx, key)
		if errors.Is(err, domain.ErrExportNotFound) {
			// expired
			_ = s.redis.SRem(ctx, exportSetKey, key)
			continue
		}
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}

	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Created.After(statuses[j].Created)
	})
	return statuses, nil
}

func (s *ExportService) GetExport(ctx context.Context, exportID string) (ExportStatus, error) {
	if s.redis == nil {
		return ExportStatus{}, fmt.Errorf("%w: redis client not configured", domain.ErrDataUnavailable)
	}

	data, err := s.redis.Get(ctx, exportID)
	if clients.IsMiss(err) {
		return ExportStatus{}, domain.ErrExportNotFound
	}
	if err != nil {
		return ExportStatus{}, fmt.Errorf("%w: get export: %w", domain.ErrDataUnavailable, err)
	}

	var status ExportStatus
	if err := json.Unmarshal([]byte(data), &status); err != nil {
		return ExportStatus{}, fmt.Errorf("failed to parse export status: %w", err)
	}
	return status, nil
}
