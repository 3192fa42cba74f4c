package analytichttp

import (
	"bytes"
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/velodash/velodash/internal/analytics"
	"github.com/velodash/velodash/internal/analytics/export"
	"github.com/velodash/velodash/internal/analytics/ui"
	"github.com/velodash/velodash/internal/platform/httpx"
	"github.com/velodash/velodash/internal/rentals"
	"github.com/velodash/velodash/internal/view"
)

const requestTimeout = 2 * time.Second

// AnalyticsService defines the dashboard data contract used by the handler.
type AnalyticsService interface {
	Snapshot(ctx context.Context) (rentals.Snapshot, error)
	GetComparison(ctx context.Context, date time.Time) (analytics.Comparison, error)
	GetTrend(ctx context.Context, days int) ([]analytics.DailyTotal, error)
	GetOverview(ctx context.Context, f analytics.Filter) (analytics.Overview, error)
	FilteredRecords(ctx context.Context, f analytics.Filter) ([]rentals.DailyRecord, error)
	Refresh(ctx context.Context) (analytics.RefreshResult, error)
}

// PDFService renders dashboard content to PDF bytes.
type PDFService interface {
	RenderDashboard(ctx context.Context, payload export.Payload) ([]byte, error)
}

// Handler coordinates HTTP requests for the rental dashboard.
type Handler struct {
	logger     *slog.Logger
	service    AnalyticsService
	templates  *view.Engine
	charts     ui.ChartRenderer
	pdf        PDFService
	validate   *validator.Validate
	adminToken string
	bufPool    sync.Pool
	timeout    time.Duration
	now        func() time.Time
}

// NewHandler constructs the dashboard HTTP handler. A nil pdf disables the
// PDF export and an empty adminToken disables the reload endpoint.
func NewHandler(logger *slog.Logger, service AnalyticsService, templates *view.Engine, charts ui.ChartRenderer, pdf PDFService, adminToken string) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if charts == nil {
		charts = ui.SVGRenderer{}
	}
	h := &Handler{
		logger:     logger,
		service:    service,
		templates:  templates,
		charts:     charts,
		pdf:        pdf,
		validate:   newValidator(),
		adminToken: adminToken,
		timeout:    requestTimeout,
		now:        time.Now,
	}
	h.bufPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// WithTimeout overrides the per-request data timeout.
func (h *Handler) WithTimeout(d time.Duration) {
	if d > 0 {
		h.timeout = d
	}
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sel, err := h.resolveSelection(ctx, r.URL.Query())
	if err != nil {
		h.handleFilterError(w, err)
		return
	}

	data, err := h.loadDashboardData(ctx, sel, true)
	if err != nil {
		h.handleServerError(w, "load dashboard", err)
		return
	}

	vm, err := h.buildViewModel(r, sel, data)
	if err != nil {
		h.handleServerError(w, "render charts", err)
		return
	}

	viewData := view.TemplateData{
		Title:       "Bike Rental Dashboard",
		CurrentPath: r.URL.Path,
		RequestID:   middleware.GetReqID(r.Context()),
		Data:        vm,
	}
	if err := h.templates.Render(w, "pages/dashboard.html", viewData); err != nil {
		h.logError("render template", err)
	}
}

func (h *Handler) handleComparisonAPI(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	date, err := h.parseReferenceDate(r.URL.Query().Get("date"))
	if err != nil {
		h.respondAPIError(w, "parse date", err)
		return
	}
	cmp, err := h.service.GetComparison(ctx, date)
	if err != nil {
		h.respondAPIError(w, "comparison", err)
		return
	}
	httpx.JSON(w, http.StatusOK, cmp)
}

func (h *Handler) handleOverviewAPI(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sel, err := h.resolveSelection(ctx, r.URL.Query())
	if err != nil {
		h.respondAPIError(w, "parse filters", err)
		return
	}
	ov, err := h.service.GetOverview(ctx, sel.filter)
	if err != nil {
		h.respondAPIError(w, "overview", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ov)
}

func (h *Handler) handleTrendAPI(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	days := analytics.TrendWindowDays
	if raw := strings.TrimSpace(r.URL.Query().Get("days")); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 || value > 366 {
			h.respondAPIError(w, "parse days", validationError{field: "days"})
			return
		}
		days = value
	}
	trend, err := h.service.GetTrend(ctx, days)
	if err != nil {
		h.respondAPIError(w, "trend", err)
		return
	}
	httpx.JSON(w, http.StatusOK, trend)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.exportPayload(w, r)
	if !ok {
		return
	}
	buf := h.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.bufPool.Put(buf)
	}()

	if err := export.WriteDashboardCSV(buf, payload); err != nil {
		h.handleServerError(w, "write csv", err)
		return
	}
	h.sendFile(w, "text/csv; charset=utf-8", payload.FilenameBase()+".csv", buf.Bytes())
}

func (h *Handler) handleXLSX(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.exportPayload(w, r)
	if !ok {
		return
	}
	buf := h.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.bufPool.Put(buf)
	}()

	if err := export.WriteXLSX(buf, payload); err != nil {
		h.handleServerError(w, "write xlsx", err)
		return
	}
	h.sendFile(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", payload.FilenameBase()+".xlsx", buf.Bytes())
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	if h.pdf == nil {
		http.Error(w, "PDF export is not configured", http.StatusNotImplemented)
		return
	}
	payload, ok := h.exportPayload(w, r)
	if !ok {
		return
	}
	// PDF rendering goes through an external service and gets a longer budget.
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()
	pdfBytes, err := h.pdf.RenderDashboard(ctx, payload)
	if err != nil {
		h.logError("render pdf", err)
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	h.sendFile(w, "application/pdf", payload.FilenameBase()+".pdf", pdfBytes)
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	if !h.authorizeAdmin(r) {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "admin token required")
		return
	}
	// Reload reads the whole dataset, so it is not bound to the page timeout.
	result, err := h.service.Refresh(r.Context())
	if err != nil {
		h.respondAPIError(w, "reload dataset", err)
		return
	}
	h.logger.Info("dataset reloaded via admin endpoint",
		slog.String("snapshot", result.Current.String()),
		slog.Bool("changed", result.Changed),
		slog.Int("records", result.Records),
	)
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) authorizeAdmin(r *http.Request) bool {
	if h.adminToken == "" {
		return false
	}
	token := strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	if token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.adminToken)) == 1
}

// exportPayload resolves the selection and loads the filtered data. It writes
// the error response itself and reports false on failure.
func (h *Handler) exportPayload(w http.ResponseWriter, r *http.Request) (export.Payload, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sel, err := h.resolveSelection(ctx, r.URL.Query())
	if err != nil {
		h.handleFilterError(w, err)
		return export.Payload{}, false
	}
	data, err := h.loadDashboardData(ctx, sel, false)
	if err != nil {
		h.handleServerError(w, "load export", err)
		return export.Payload{}, false
	}
	records, err := h.service.FilteredRecords(ctx, sel.filter)
	if err != nil {
		h.handleServerError(w, "load records", err)
		return export.Payload{}, false
	}
	return export.Payload{
		GeneratedAt: h.now().UTC(),
		Comparison:  data.comparison,
		Overview:    data.overview,
		Records:     records,
	}, true
}

func (h *Handler) sendFile(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	if _, err := w.Write(body); err != nil {
		h.logError("stream "+filename, err)
	}
}

type dashboardData struct {
	comparison analytics.Comparison
	trend      []analytics.DailyTotal
	overview   analytics.Overview
}

func (h *Handler) loadDashboardData(ctx context.Context, sel selection, withTrend bool) (dashboardData, error) {
	var data dashboardData
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cmp, err := h.service.GetComparison(ctx, sel.date)
		if err != nil {
			return err
		}
		data.comparison = cmp
		return nil
	})

	if withTrend {
		g.Go(func() error {
			trend, err := h.service.GetTrend(ctx, analytics.TrendWindowDays)
			if err != nil {
				return err
			}
			data.trend = trend
			return nil
		})
	}

	g.Go(func() error {
		ov, err := h.service.GetOverview(ctx, sel.filter)
		if err != nil {
			return err
		}
		data.overview = ov
		return nil
	})

	if err := g.Wait(); err != nil {
		return dashboardData{}, err
	}
	return data, nil
}

func (h *Handler) buildViewModel(r *http.Request, sel selection, data dashboardData) (ui.DashboardViewModel, error) {
	charts, err := ui.BuildCharts(h.charts, data.trend, data.overview)
	if err != nil {
		return ui.DashboardViewModel{}, err
	}
	query := exportQuery(r.URL.Query())
	vm := ui.DashboardViewModel{
		Filters:    ui.ToFilterView(sel.filter, data.comparison.Date, sel.first, sel.latest),
		ReportDate: data.comparison.Date,
		Report:     ui.ToMetricCards(data.comparison),
		Days:       data.overview.Days,
		Totals:     data.overview.Totals,
		Seasons:    data.overview.Seasons,
		Charts:     charts,
		Exports: ui.ExportLinks{
			CSV:  "/export.csv" + query,
			XLSX: "/export.xlsx" + query,
		},
	}
	if h.pdf != nil {
		vm.Exports.PDF = "/export.pdf" + query
	}
	return vm, nil
}

func exportQuery(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}

func (h *Handler) handleFilterError(w http.ResponseWriter, err error) {
	var vErr validationError
	if errors.As(err, &vErr) {
		http.Error(w, "Invalid parameter: "+vErr.field, http.StatusBadRequest)
		return
	}
	h.handleServerError(w, "parse filters", err)
}

func (h *Handler) respondAPIError(w http.ResponseWriter, context string, err error) {
	var vErr validationError
	if errors.As(err, &vErr) {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrValidation, vErr.Error()))
		return
	}
	if errors.Is(err, analytics.ErrNoData) {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrNotFound, err.Error()))
		return
	}
	h.logError(context, err)
	httpx.RespondError(w, err)
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}

// HandleDashboardForTest exposes the dashboard handler for tests.
func (h *Handler) HandleDashboardForTest(w http.ResponseWriter, r *http.Request) {
	h.handleDashboard(w, r)
}
