// Package views renders the dashboard's HTML. Pages are standard library
// templates compiled once at startup and exposed as templ components so
// full-page renders and SSE patches share one rendering path.
package views

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/vitrine-labs/vitrine/internal/ui/features/common"
)

//go:embed templates/*.html
var templateFS embed.FS

// Each page gets its own template set so every page file can define
// "content" without colliding.
var pageFiles = []string{
	"home.html",
	"dashboard.html",
	"explorer.html",
	"table.html",
	"console.html",
	"runs.html",
	"run.html",
}

var pages = func() map[string]*template.Template {
	sets := make(map[string]*template.Template, len(pageFiles))
	for _, name := range pageFiles {
		sets[name] = template.Must(template.New("layout").Funcs(funcs).ParseFS(
			templateFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name,
		))
	}
	return sets
}()

var funcs = template.FuncMap{
	"timeago":  common.FormatTimeAgo,
	"num":      common.FormatCount,
	"brl":      common.FormatBRL,
	"runbadge": common.RunStatusBadgeClass,
	"navclass": navClass,
}

func navClass(active, name string) string {
	if active == name {
		return "nav-link nav-link--active"
	}
	return "nav-link"
}

func render(page, name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		set, ok := pages[page]
		if !ok {
			return fmt.Errorf("unknown page %q", page)
		}
		return set.ExecuteTemplate(w, name, data)
	})
}

// Full pages.

func Home(d HomeData) templ.Component           { return render("home.html", "layout", d) }
func Dashboard(d DashboardData) templ.Component { return render("dashboard.html", "layout", d) }
func Explorer(d ExplorerData) templ.Component   { return render("explorer.html", "layout", d) }
func Table(d TableData) templ.Component         { return render("table.html", "layout", d) }
func Console(d ConsoleData) templ.Component     { return render("console.html", "layout", d) }
func Runs(d RunsData) templ.Component           { return render("runs.html", "layout", d) }
func RunDetail(d RunDetailData) templ.Component { return render("run.html", "layout", d) }

// Content partials, patched over SSE. Each renders the page's
// #page-content element so a morph swaps the page in place.

func HomeContent(d HomeData) templ.Component           { return render("home.html", "content", d) }
func DashboardContent(d DashboardData) templ.Component { return render("dashboard.html", "content", d) }
func ExplorerContent(d ExplorerData) templ.Component   { return render("explorer.html", "content", d) }
func TableContent(d TableData) templ.Component         { return render("table.html", "content", d) }
func RunsContent(d RunsData) templ.Component           { return render("runs.html", "content", d) }

// ConsoleResults renders the #console-results element.
func ConsoleResults(r ConsoleResult) templ.Component {
	return render("console.html", "console-results", r)
}

// FlashMessage renders the #flash element.
func FlashMessage(f *common.Flash) templ.Component {
	return render("home.html", "flash", f)
}
