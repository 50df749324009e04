// Package main snapshots the running vitrine dashboard as markdown.
//
// Each page's <main> content is converted to a markdown file so the
// pipeline state or the monthly numbers can be pasted into a ticket or
// a wiki without screenshots. The dashboard must be running.
//
// Usage:
//
//	go run ./scripts/genreport [-addr http://localhost:8780] [-out reports]
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// Page is one dashboard page to capture.
type Page struct {
	Path  string
	Slug  string
	Title string
}

var pages = []Page{
	{Path: "/", Slug: "overview", Title: "Pipeline overview"},
	{Path: "/dashboard", Slug: "dashboard", Title: "Sales dashboard"},
	{Path: "/runs", Slug: "runs", Title: "Run history"},
}

// Elements that carry no meaning in a report.
var strippedTags = map[string]bool{
	"script":   true,
	"button":   true,
	"textarea": true,
	"svg":      true,
}

var (
	reExcessiveNewlines = regexp.MustCompile(`\n{3,}`)
	reTrailingSpace     = regexp.MustCompile(`(?m)[ \t]+$`)
)

func main() {
	addr := flag.String("addr", "http://localhost:8780", "address of the running dashboard")
	outDir := flag.String("out", "reports", "output directory")
	flag.Parse()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	saved := 0
	for _, page := range pages {
		md, err := capturePage(*addr, page)
		if err != nil {
			log.Printf("   Skipping %s: %v", page.Path, err)
			continue
		}

		fpath := filepath.Join(*outDir, page.Slug+".md")
		if err := os.WriteFile(fpath, []byte(md), 0o644); err != nil {
			log.Printf("   Failed to save %s: %v", fpath, err)
			continue
		}
		log.Printf("   Saved: %s", fpath)
		saved++
	}

	log.Printf("Captured %d of %d pages to %s", saved, len(pages), *outDir)
}

// capturePage fetches one dashboard page and converts its main content
// to markdown.
func capturePage(addr string, page Page) (string, error) {
	htmlContent, finalPath, err := fetchPage(addr + page.Path)
	if err != nil {
		return "", err
	}
	if finalPath != page.Path {
		// The dashboard redirects to the overview until marts are built.
		return "", fmt.Errorf("redirected to %s, pipeline not built yet", finalPath)
	}

	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	main := findElement(doc, "main")
	if main == nil {
		return "", fmt.Errorf("no <main> element found")
	}
	stripElements(main)

	md, err := htmltomarkdown.ConvertString(renderNode(main))
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", page.Title)
	fmt.Fprintf(&sb, "Captured %s from %s%s\n\n", time.Now().Format("2006-01-02 15:04"), addr, page.Path)
	sb.WriteString(cleanMarkdown(md))
	sb.WriteString("\n")
	return sb.String(), nil
}

// fetchPage fetches a URL and reports the path it finally landed on.
func fetchPage(pageURL string) (string, string, error) {
	client := &http.Client{Timeout: 30 * time.Second}

	resp, err := client.Get(pageURL) //nolint:noctx // short-lived script
	if err != nil {
		return "", "", fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("read body: %w", err)
	}

	return string(body), resp.Request.URL.Path, nil
}

// findElement finds the first element with the given tag name.
func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// stripElements removes tags that carry no meaning in a report.
func stripElements(n *html.Node) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == html.ElementNode && strippedTags[c.Data] {
			n.RemoveChild(c)
			continue
		}
		stripElements(c)
	}
}

// renderNode renders an HTML node back to string.
func renderNode(n *html.Node) string {
	var sb strings.Builder
	if err := html.Render(&sb, n); err != nil {
		return ""
	}
	return sb.String()
}

// cleanMarkdown tightens up the converted output.
func cleanMarkdown(content string) string {
	content = reTrailingSpace.ReplaceAllString(content, "")
	content = reExcessiveNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
