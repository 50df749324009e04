package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/vitrine-labs/vitrine/internal/pipeline"
	"github.com/vitrine-labs/vitrine/internal/ui/features/common"
	"github.com/vitrine-labs/vitrine/internal/ui/notifier"
	"github.com/vitrine-labs/vitrine/internal/ui/views"
	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

const (
	monthWindow   = 12
	categoryLimit = 10
	stateLimit    = 10
)

// Handlers provides HTTP handlers for the analytics dashboard.
type Handlers struct {
	driver   *pipeline.Driver
	store    warehouse.Store
	notifier *notifier.Notifier
	log      *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(driver *pipeline.Driver, store warehouse.Store, notify *notifier.Notifier, log *slog.Logger) *Handlers {
	return &Handlers{
		driver:   driver,
		store:    store,
		notifier: notify,
		log:      log,
	}
}

// DashboardPage renders the analytics page. Until the marts are built
// there is nothing to chart, so the browser is sent back to the overview.
func (h *Handlers) DashboardPage(w http.ResponseWriter, r *http.Request) {
	if !h.driver.Status().Ready() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data, err := h.buildDashboardData(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if err := views.Dashboard(data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// DashboardUpdates pushes a fresh dashboard body when warehouse contents
// change.
func (h *Handlers) DashboardUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-updates:
			if ev != notifier.DataChanged {
				continue
			}
			if !h.driver.Status().Ready() {
				continue
			}
			data, err := h.buildDashboardData(ctx)
			if err != nil {
				_ = sse.ConsoleError(err)
				continue
			}
			if err := sse.PatchElementTempl(views.DashboardContent(data)); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

func (h *Handlers) buildDashboardData(ctx context.Context) (views.DashboardData, error) {
	data := views.DashboardData{
		Shell: views.Shell{Title: "Dashboard", Active: "dashboard"},
	}

	sess, err := h.store.ConnectReadOnly(ctx)
	if err != nil {
		return data, fmt.Errorf("failed to open warehouse: %w", err)
	}
	defer func() { _ = sess.Close() }()

	m, err := loadMetrics(ctx, sess)
	if err != nil {
		return data, err
	}
	data.Metrics = []views.Metric{
		{Label: "Orders", Value: common.FormatCount(m.Orders)},
		{Label: "Customers", Value: common.FormatCount(m.Customers)},
		{Label: "Revenue", Value: common.FormatBRL(m.Revenue)},
		{Label: "Avg order", Value: common.FormatBRL(m.AvgOrder)},
		{Label: "Avg review", Value: fmt.Sprintf("%.2f / 5", m.AvgReview)},
	}

	monthly, err := loadMonthlyRevenue(ctx, sess, monthWindow)
	if err != nil {
		return data, err
	}
	reverse(monthly)
	data.Monthly = moneyBars(monthly)

	categories, err := loadTopCategories(ctx, sess, categoryLimit)
	if err != nil {
		return data, err
	}
	data.Categories = moneyBars(categories)

	states, err := loadOrdersByState(ctx, sess, stateLimit)
	if err != nil {
		return data, err
	}
	data.States = countBars(states)

	segments, err := loadSegments(ctx, sess)
	if err != nil {
		return data, err
	}
	for _, s := range segments {
		data.Segments = append(data.Segments, views.SegmentCount{
			Segment:   s.Segment,
			Customers: common.FormatCount(s.Customers),
			Revenue:   common.FormatBRL(s.Revenue),
		})
	}

	return data, nil
}

func moneyBars(vals []labeledValue) []views.Bar {
	return bars(vals, common.FormatBRL)
}

func countBars(vals []labeledValue) []views.Bar {
	return bars(vals, func(v float64) string {
		return common.FormatCount(int64(v))
	})
}

// bars scales values against the largest so every list fills its track.
func bars(vals []labeledValue, format func(float64) string) []views.Bar {
	var max float64
	for _, v := range vals {
		if v.Value > max {
			max = v.Value
		}
	}

	out := make([]views.Bar, 0, len(vals))
	for _, v := range vals {
		pct := 0
		if max > 0 {
			pct = int(v.Value / max * 100)
		}
		out = append(out, views.Bar{
			Label: v.Label,
			Value: format(v.Value),
			Pct:   pct,
		})
	}
	return out
}

func reverse(vals []labeledValue) {
	for i, j := 0, len(vals)-1; i < j; i, j = i+1, j-1 {
		vals[i], vals[j] = vals[j], vals[i]
	}
}
