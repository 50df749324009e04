package console

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/vitrine-labs/vitrine/internal/ui/features/common"
	"github.com/vitrine-labs/vitrine/internal/ui/views"
	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

const (
	maxRows      = 500
	queryTimeout = 30 * time.Second
)

// QuerySignals represents the signals sent from the frontend.
type QuerySignals struct {
	SQL string `json:"sql"`
}

// Handlers provides HTTP handlers for the SQL console. Every query runs
// on a read-only warehouse session, so the console can never mutate what
// the pipeline owns.
type Handlers struct {
	store warehouse.Store
	log   *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store warehouse.Store, log *slog.Logger) *Handlers {
	return &Handlers{store: store, log: log}
}

// ConsolePage renders the console shell with the table list.
func (h *Handlers) ConsolePage(w http.ResponseWriter, r *http.Request) {
	data := views.ConsoleData{
		Shell:  views.Shell{Title: "Console", Active: "console"},
		Tables: h.listTables(r.Context()),
	}

	if err := views.Console(data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ExecuteQuery runs one SQL statement and patches the results panel.
func (h *Handlers) ExecuteQuery(w http.ResponseWriter, r *http.Request) {
	// Read signals before creating the SSE stream; it consumes the body.
	var signals QuerySignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		h.patchResult(sse, views.ConsoleResult{Error: "Failed to read signals: " + err.Error()})
		return
	}

	sse := datastar.NewSSE(w, r)

	query := strings.TrimSpace(signals.SQL)
	if query == "" {
		h.patchResult(sse, views.ConsoleResult{Error: "Query cannot be empty"})
		return
	}

	sess, err := h.store.ConnectReadOnly(r.Context())
	if err != nil {
		h.patchResult(sse, views.ConsoleResult{Error: err.Error()})
		return
	}
	defer func() { _ = sess.Close() }()

	ctx, cancel := context.WithTimeout(r.Context(), queryTimeout)
	defer cancel()

	start := time.Now()
	rows, err := sess.Query(ctx, query)
	if err != nil {
		h.patchResult(sse, views.ConsoleResult{Error: err.Error()})
		return
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		h.patchResult(sse, views.ConsoleResult{Error: err.Error()})
		return
	}

	var results [][]string
	for rows.Next() && len(results) < maxRows {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			continue
		}

		row := make([]string, len(cols))
		for i, val := range values {
			row[i] = common.FormatCell(val)
		}
		results = append(results, row)
	}

	h.patchResult(sse, views.ConsoleResult{
		Columns:   cols,
		Rows:      results,
		RowCount:  len(results),
		Truncated: len(results) == maxRows,
		QueryMS:   time.Since(start).Milliseconds(),
	})
}

func (h *Handlers) patchResult(sse *datastar.ServerSentEventGenerator, result views.ConsoleResult) {
	if err := sse.PatchElementTempl(views.ConsoleResults(result)); err != nil {
		_ = sse.ConsoleError(err)
	}
}

func (h *Handlers) listTables(ctx context.Context) []views.ConsoleTable {
	sess, err := h.store.ConnectReadOnly(ctx)
	if err != nil {
		return nil
	}
	defer func() { _ = sess.Close() }()

	groups, err := common.BuildSchemaTree(ctx, sess, "", "")
	if err != nil {
		h.log.Warn("failed to list console tables", slog.String("error", err.Error()))
		return nil
	}

	var tables []views.ConsoleTable
	for _, g := range groups {
		for _, t := range g.Tables {
			tables = append(tables, views.ConsoleTable{Qualified: g.Name + "." + t.Name})
		}
	}
	return tables
}
