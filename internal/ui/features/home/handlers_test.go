package home

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vitrine-labs/vitrine/internal/pipeline"
	"github.com/vitrine-labs/vitrine/internal/testutil"
	"github.com/vitrine-labs/vitrine/internal/ui/features"
	"github.com/vitrine-labs/vitrine/internal/ui/notifier"
)

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()

	fixture := features.SetupTestFixture(t)
	handlers := NewHandlers(
		fixture.Driver,
		fixture.Warehouse,
		fixture.History,
		fixture.SessionStore,
		fixture.Notifier,
		"olistbr/brazilian-ecommerce",
		testutil.NewTestLogger(t),
	)
	return handlers, fixture
}

func TestHomePage_EmptyWarehouse(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	h.HomePage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "<!doctype html>")
	assert.Contains(t, body, "<title>Overview - vitrine</title>")
	assert.Contains(t, body, "No data loaded")
	assert.Contains(t, body, "olistbr/brazilian-ecommerce")
	assert.Contains(t, body, "/pipeline/download")
	assert.Contains(t, body, "/updates")
	assert.Contains(t, body, "No schemas yet")
}

func TestHomePage_WithMarts(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	fixture.SeedMarts()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	h.HomePage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, "Analytics ready")
	assert.Contains(t, body, "/pipeline/transform")
	assert.Contains(t, body, "/pipeline/refresh")
	assert.Contains(t, body, "/pipeline/test")
	assert.Contains(t, body, "marts")
}

func TestHomePageUpdates_SendsUpdateOnBroadcast(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/updates", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 300*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.HomePageUpdates(rec, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	fixture.Notifier.Broadcast(notifier.StatusChanged)

	<-done

	body := rec.Body.String()
	eventCount := strings.Count(body, "event:")
	assert.GreaterOrEqual(t, eventCount, 1, "should have at least 1 SSE event from broadcast")
	assert.Contains(t, body, "page-content", "update should carry the page body")
}

func TestHomePageUpdates_NoInitialState(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/updates", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 50*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	h.HomePageUpdates(rec, req)

	body := rec.Body.String()
	assert.Equal(t, 0, strings.Count(body, "event:"), "should have no SSE events without broadcast")
}

func TestBuildStatusView_NotStarted(t *testing.T) {
	view := BuildStatusView(pipeline.StatusNotStarted, false)

	assert.Equal(t, "No data loaded", view.Label)
	assert.False(t, view.Running)

	endpoints := make([]string, 0, len(view.Actions))
	for _, a := range view.Actions {
		endpoints = append(endpoints, a.Endpoint)
	}
	assert.Equal(t, []string{"/pipeline/download", "/pipeline/refresh"}, endpoints)
}

func TestBuildStatusView_RunningHidesActions(t *testing.T) {
	view := BuildStatusView(pipeline.StatusDbtBuilt, true)

	assert.True(t, view.Running)
	assert.Empty(t, view.Actions)
}

func TestBuildStatusView_LoadingIsRunning(t *testing.T) {
	view := BuildStatusView(pipeline.StatusLoading, false)

	assert.True(t, view.Running)
	assert.Empty(t, view.Actions)
}

func TestActionButtonFor(t *testing.T) {
	refresh := ActionButtonFor(pipeline.ActionRefresh)
	assert.Equal(t, "/pipeline/refresh", refresh.Endpoint)
	assert.NotEmpty(t, refresh.Confirm, "refresh is destructive and needs a confirm")

	download := ActionButtonFor(pipeline.ActionDownload)
	assert.Equal(t, "primary", download.Style)
	assert.Empty(t, download.Confirm)
}
