// Package common provides shared types and utilities for UI features.
package common

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	countPrinter = message.NewPrinter(language.English)
	brlPrinter   = message.NewPrinter(language.BrazilianPortuguese)
)

// FormatCount renders an integer with thousands separators.
func FormatCount(n int64) string {
	return countPrinter.Sprintf("%d", n)
}

// FormatBRL renders a monetary value in Brazilian reais, the currency
// of the Olist dataset.
func FormatBRL(v float64) string {
	return brlPrinter.Sprintf("R$ %.2f", v)
}

// FormatTimeAgo renders how long ago t was, coarsely.
func FormatTimeAgo(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

// FormatDuration renders a duration at a precision readers can scan:
// milliseconds under a second, tenths of seconds under a minute,
// minutes and seconds beyond.
func FormatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	secs := float64(ms) / 1000
	if secs < 60 {
		return fmt.Sprintf("%.1fs", secs)
	}
	return fmt.Sprintf("%dm%ds", int(secs)/60, int(secs)%60)
}

// TruncateID shortens a run ID for display.
func TruncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// RunStatusBadgeClass returns the CSS modifier class for a run status.
func RunStatusBadgeClass(status string) string {
	switch status {
	case "completed":
		return "badge--completed"
	case "running":
		return "badge--running"
	case "failed":
		return "badge--failed"
	default:
		return ""
	}
}
