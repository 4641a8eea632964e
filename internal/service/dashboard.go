package service

import (
	"context"
	"fmt"

	"invoice-dashboard/internal/aging"
	"invoice-dashboard/internal/domain"
	"invoice-dashboard/internal/logger"
)

type InvoiceRepository interface {
	ListInvoiceRows(ctx context.Context) ([]domain.InvoiceRow, error)
	CustomerTotals(ctx context.Context) ([]domain.CustomerOutstandingSummary, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, p domain.Payment) (domain.Payment, error)
	ListByInvoice(ctx context.Context, invoiceID int64) ([]domain.Payment, error)
}

type PaymentNotifier interface {
	NotifyPaymentRecorded(ctx context.Context, payment domain.Payment) error
}

// Dashboard is every figure of the dashboard derived from a single read.
type Dashboard struct {
	ReferenceDate domain.Date                         `json:"reference_date"`
	KPIs          domain.KPISummary                   `json:"kpis"`
	Aging         []domain.BucketSummary              `json:"aging"`
	TopCustomers  []domain.CustomerOutstandingSummary `json:"top_customers"`
	Customers     []domain.CustomerOutstandingSummary `json:"customers"`
	Invoices      []domain.InvoiceRecord              `json:"invoices"`
}

type DashboardService struct {
	invoices InvoiceRepository
	payments PaymentRepository
	cache    *Cache
	notifier PaymentNotifier
	metrics  Metrics
	topN     int
}

// NewDashboardService wires the dashboard. cache, notifier and metrics may be nil.
func NewDashboardService(
	invoices InvoiceRepository,
	payments PaymentRepository,
	cache *Cache,
	notifier PaymentNotifier,
	metrics Metrics,
) *DashboardService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &DashboardService{
		invoices: invoices,
		payments: payments,
		cache:    cache,
		notifier: notifier,
		metrics:  metrics,
		topN:     aging.DefaultTopCustomers,
	}
}

// WithTopCustomers sets how many customers Snapshot ranks.
func (s *DashboardService) WithTopCustomers(n int) *DashboardService {
	s.topN = n
	return s
}

func (s *DashboardService) TopN() int { return s.topN }

func (s *DashboardService) invoiceRows(ctx context.Context) ([]domain.InvoiceRow, error) {
	var rows []domain.InvoiceRow
	err := s.cache.FetchJSON(ctx, "invoice_rows", &rows, func(ctx context.Context) (any, error) {
		return s.invoices.ListInvoiceRows(ctx)
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.InvoiceRow{}
	}
	return rows, nil
}

func (s *DashboardService) customerTotals(ctx context.Context) ([]domain.CustomerOutstandingSummary, error) {
	var totals []domain.CustomerOutstandingSummary
	err := s.cache.FetchJSON(ctx, "customer_totals", &totals, func(ctx context.Context) (any, error) {
		return s.invoices.CustomerTotals(ctx)
	})
	if err != nil {
		return nil, err
	}
	return totals, nil
}

// Snapshot computes every dashboard section against reference from one row set,
// so the KPIs, the aging tile and the customer ranking always agree.
func (s *DashboardService) Snapshot(ctx context.Context, reference domain.Date) (Dashboard, error) {
	rows, err := s.invoiceRows(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	records := aging.EnrichInvoices(rows, reference)
	customers := aging.SummarizeCustomers(rows)
	top, err := aging.RankTopCustomers(customers, s.topN)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		ReferenceDate: reference,
		KPIs:          aging.ComputeKPIs(rows, reference),
		Aging:         aging.SummarizeBuckets(records),
		TopCustomers:  top,
		Customers:     customers,
		Invoices:      records,
	}, nil
}

func (s *DashboardService) ListInvoices(ctx context.Context, reference domain.Date) ([]domain.InvoiceRecord, error) {
	rows, err := s.invoiceRows(ctx)
	if err != nil {
		return nil, err
	}
	return aging.EnrichInvoices(rows, reference), nil
}

func (s *DashboardService) KPIs(ctx context.Context, reference domain.Date) (domain.KPISummary, error) {
	rows, err := s.invoiceRows(ctx)
	if err != nil {
		return domain.KPISummary{}, err
	}
	return aging.ComputeKPIs(rows, reference), nil
}

func (s *DashboardService) Aging(ctx context.Context, reference domain.Date) ([]domain.BucketSummary, error) {
	rows, err := s.invoiceRows(ctx)
	if err != nil {
		return nil, err
	}
	return aging.SummarizeBuckets(aging.EnrichInvoices(rows, reference)), nil
}

// TopCustomers ranks the n customers with the largest outstanding balance.
func (s *DashboardService) TopCustomers(ctx context.Context, n int) ([]domain.CustomerOutstandingSummary, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: top customers limit %d is negative", domain.ErrInvalidArgument, n)
	}
	totals, err := s.customerTotals(ctx)
	if err != nil {
		return nil, err
	}
	return aging.RankTopCustomers(totals, n)
}

// RecordPayment stores a payment dated today unless the input carries a date.
// Cache invalidation and subscriber notification are best effort.
func (s *DashboardService) RecordPayment(ctx context.Context, in domain.PaymentInput, today domain.Date) (domain.Payment, error) {
	if in.InvoiceID <= 0 {
		return domain.Payment{}, fmt.Errorf("%w: invoice_id must be positive", domain.ErrInvalidArgument)
	}
	if !in.Amount.IsPositive() {
		return domain.Payment{}, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidArgument)
	}

	date := today
	if in.PaymentDate != nil && !in.PaymentDate.IsZero() {
		date = *in.PaymentDate
	}

	payment, err := s.payments.Create(ctx, domain.Payment{
		InvoiceID:   in.InvoiceID,
		Amount:      in.Amount,
		PaymentDate: date,
	})
	if err != nil {
		return domain.Payment{}, err
	}
	s.metrics.PaymentRecorded()

	l := logger.WithComponent("dashboard")
	if err := s.cache.Bump(ctx); err != nil {
		l.Warn().Err(err).Int64("payment_id", payment.PaymentID).Msg("cache invalidation failed")
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyPaymentRecorded(ctx, payment); err != nil {
			l.Warn().Err(err).Int64("payment_id", payment.PaymentID).Msg("payment notification failed")
		}
	}

	l.Info().
		Int64("payment_id", payment.PaymentID).
		Int64("invoice_id", payment.InvoiceID).
		Str("amount", payment.Amount.String()).
		Msg("payment recorded")
	return payment, nil
}

func (s *DashboardService) InvoicePayments(ctx context.Context, invoiceID int64) ([]domain.Payment, error) {
	if invoiceID <= 0 {
		return nil, fmt.Errorf("%w: invoice_id must be positive", domain.ErrInvalidArgument)
	}
	return s.payments.ListByInvoice(ctx, invoiceID)
}
