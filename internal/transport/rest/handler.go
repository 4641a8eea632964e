package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"invoice-dashboard/internal/domain"
	"invoice-dashboard/internal/logger"
	"invoice-dashboard/internal/service"
)

type DashboardService interface {
	Snapshot(ctx context.Context, reference domain.Date) (service.Dashboard, error)
	ListInvoices(ctx context.Context, reference domain.Date) ([]domain.InvoiceRecord, error)
	KPIs(ctx context.Context, reference domain.Date) (domain.KPISummary, error)
	Aging(ctx context.Context, reference domain.Date) ([]domain.BucketSummary, error)
	TopCustomers(ctx context.Context, n int) ([]domain.CustomerOutstandingSummary, error)
	RecordPayment(ctx context.Context, in domain.PaymentInput, today domain.Date) (domain.Payment, error)
	InvoicePayments(ctx context.Context, invoiceID int64) ([]domain.Payment, error)
	TopN() int
}

type ExportService interface {
	StartInvoiceExport(ctx context.Context, fields []string, reference domain.Date) (string, error)
	ListExports(ctx context.Context) ([]service.ExportStatus, error)
	GetExport(ctx context.Context, exportID string) (service.ExportStatus, error)
}

// MetricsMiddleware instruments requests and serves the exposition endpoint.
type MetricsMiddleware interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

type Handler struct {
	dashboard DashboardService
	exports   ExportService
	now       func() time.Time
}

// NewHandler builds the API handler. now is read on every request that has
// no explicit as_of, so long running servers never serve a stale day.
func NewHandler(dashboard DashboardService, exports ExportService, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{
		dashboard: dashboard,
		exports:   exports,
		now:       now,
	}
}

type RouterOptions struct {
	Metrics             MetricsMiddleware
	WriteLimitPerMinute int
	Production          bool
}

func (h *Handler) InitRouter(opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        opts.Production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !opts.Production,
	})

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		logger.Middleware,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
		secureMiddleware.Handler,
	)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	limit := opts.WriteLimitPerMinute
	if limit <= 0 {
		limit = 60
	}
	writeLimiter := httprate.Limit(limit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", h.getDashboard)
		r.Get("/invoices", h.listInvoices)
		r.Get("/invoices/{invoice_id}/payments", h.invoicePayments)
		r.Get("/kpis", h.getKPIs)
		r.Get("/aging", h.getAging)
		r.Get("/chart-data", h.getChartData)

		r.With(writeLimiter).Post("/record-payment", h.recordPayment)

		r.Route("/exports", func(r chi.Router) {
			r.Get("/", h.listExports)
			r.Get("/{export_id}", h.getExport)
			r.With(writeLimiter).Post("/invoices", h.exportInvoices)
		})
	})

	return r
}
