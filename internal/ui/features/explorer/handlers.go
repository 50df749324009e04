package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/vitrine-labs/vitrine/internal/ui/features/common"
	"github.com/vitrine-labs/vitrine/internal/ui/notifier"
	"github.com/vitrine-labs/vitrine/internal/ui/views"
	"github.com/vitrine-labs/vitrine/internal/warehouse"
)

// Handlers provides HTTP handlers for the warehouse browser.
type Handlers struct {
	store        warehouse.Store
	notifier     *notifier.Notifier
	previewLimit int
	log          *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(store warehouse.Store, notify *notifier.Notifier, previewLimit int, log *slog.Logger) *Handlers {
	return &Handlers{
		store:        store,
		notifier:     notify,
		previewLimit: previewLimit,
		log:          log,
	}
}

// ExplorerPage renders the schema overview.
func (h *Handlers) ExplorerPage(w http.ResponseWriter, r *http.Request) {
	data, err := h.buildExplorerData(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := views.Explorer(data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// TablePage renders one table's columns and preview rows.
func (h *Handlers) TablePage(w http.ResponseWriter, r *http.Request) {
	schema := chi.URLParam(r, "schema")
	table := chi.URLParam(r, "table")

	data, err := h.buildTableData(r.Context(), schema, table)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err := views.Table(data).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ExplorerUpdates pushes a fresh browser body when warehouse contents
// change. The optional schema and table query parameters pin the stream
// to a detail page so the patch re-renders the view the browser is on.
func (h *Handlers) ExplorerUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	schema := r.URL.Query().Get("schema")
	table := r.URL.Query().Get("table")

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
			component, err := h.buildView(ctx, schema, table)
			if err != nil {
				_ = sse.ConsoleError(err)
				continue
			}
			if err := sse.PatchElementTempl(component); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}

func (h *Handlers) buildView(ctx context.Context, schema, table string) (templ.Component, error) {
	if schema != "" && table != "" {
		data, err := h.buildTableData(ctx, schema, table)
		if err == nil {
			return views.TableContent(data), nil
		}
		// The table may have been dropped by a refresh; fall back to
		// the overview so the page does not wedge on a dead object.
	}
	data, err := h.buildExplorerData(ctx)
	if err != nil {
		return nil, err
	}
	return views.ExplorerContent(data), nil
}

func (h *Handlers) buildExplorerData(ctx context.Context) (views.ExplorerData, error) {
	data := views.ExplorerData{
		Shell: views.Shell{Title: "Explorer", Active: "explorer"},
	}

	groups, err := h.schemaTree(ctx, "", "")
	if err != nil {
		h.log.Warn("failed to read schema tree", slog.String("error", err.Error()))
	}
	data.Groups = groups
	data.Empty = len(groups) == 0
	return data, nil
}

func (h *Handlers) buildTableData(ctx context.Context, schema, table string) (views.TableData, error) {
	data := views.TableData{
		Shell:        views.Shell{Title: schema + "." + table, Active: "explorer"},
		Schema:       schema,
		Name:         table,
		PreviewLimit: h.previewLimit,
	}

	sess, err := h.store.ConnectReadOnly(ctx)
	if err != nil {
		return data, fmt.Errorf("failed to open warehouse: %w", err)
	}
	defer func() { _ = sess.Close() }()

	meta, err := sess.TableMetadata(ctx, schema, table)
	if err != nil {
		return data, err
	}

	data.RowCount = common.FormatCount(meta.RowCount)
	data.Columns = make([]views.ColumnView, 0, len(meta.Columns))
	for _, col := range meta.Columns {
		nullable := "NO"
		if col.Nullable {
			nullable = "YES"
		}
		data.Columns = append(data.Columns, views.ColumnView{
			Name:     col.Name,
			Type:     col.Type,
			Nullable: nullable,
		})
	}

	preview, err := h.previewRows(ctx, sess, schema, table)
	if err != nil {
		return data, err
	}
	data.Preview = preview

	groups, err := common.BuildSchemaTree(ctx, sess, schema, table)
	if err != nil {
		return data, err
	}
	data.Groups = groups

	return data, nil
}

// previewRows samples the table's head. Identifiers are quoted rather
// than parameterized; both names were just resolved against the catalog.
func (h *Handlers) previewRows(ctx context.Context, sess warehouse.Session, schema, table string) (views.Grid, error) {
	var grid views.Grid

	query := fmt.Sprintf(`SELECT * FROM %q.%q LIMIT %d`, schema, table, h.previewLimit)
	rows, err := sess.Query(ctx, query)
	if err != nil {
		return grid, fmt.Errorf("failed to preview %s.%s: %w", schema, table, err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return grid, err
	}
	grid.Columns = cols

	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return grid, err
		}

		row := make([]string, len(cols))
		for i, val := range values {
			row[i] = common.FormatCell(val)
		}
		grid.Rows = append(grid.Rows, row)
	}
	return grid, rows.Err()
}

func (h *Handlers) schemaTree(ctx context.Context, activeSchema, activeTable string) ([]common.SchemaGroup, error) {
	sess, err := h.store.ConnectReadOnly(ctx)
	if err != nil {
		// No warehouse file yet reads as an empty tree.
		return nil, nil
	}
	defer func() { _ = sess.Close() }()

	return common.BuildSchemaTree(ctx, sess, activeSchema, activeTable)
}
