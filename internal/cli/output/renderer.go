package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
)

// Renderer writes formatted command output. The zero mode behaves like
// ModeAuto.
type Renderer struct {
	Out    io.Writer
	ErrOut io.Writer

	mode   Mode
	styles *Styles
}

// NewRenderer creates a renderer for the given writers and mode. Styling is
// enabled only when Out is a terminal; the color depth comes from the
// environment.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	profile := termenv.Ascii
	if f, ok := out.(*os.File); ok && isTerminal(f) {
		profile = termenv.EnvColorProfile()
	}

	return &Renderer{
		Out:    out,
		ErrOut: errOut,
		mode:   mode,
		styles: NewStyles(profile),
	}
}

// EffectiveMode resolves ModeAuto to a concrete mode: text on a terminal,
// markdown otherwise.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != "" && r.mode != ModeAuto {
		return r.mode
	}
	if f, ok := r.Out.(*os.File); ok && isTerminal(f) {
		return ModeText
	}
	return ModeMarkdown
}

// Styles returns the active style set.
func (r *Renderer) Styles() *Styles {
	return r.styles
}

// Writer returns the output writer.
func (r *Renderer) Writer() io.Writer {
	return r.Out
}

// Println writes a line to the output writer.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.Out, a...)
}

// Printf writes formatted text to the output writer.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.Out, format, a...)
}

// Header writes a styled section header. Level 1 is a title, deeper levels
// are section headings.
func (r *Renderer) Header(level int, title string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatHeader(level, title))
		return
	}
	if level <= 1 {
		r.Println(r.styles.Title.Render(title))
	} else {
		r.Println(r.styles.Header.Render(title))
	}
}

// Success writes a success message.
func (r *Renderer) Success(msg string) {
	r.Println(r.styles.Success.Render("✓ " + msg))
}

// Warning writes a warning message.
func (r *Renderer) Warning(msg string) {
	r.Println(r.styles.Warning.Render("! " + msg))
}

// Error writes an error message to the error writer.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.ErrOut, r.styles.Error.Render("✗ "+msg))
}

// Muted writes a de-emphasized message.
func (r *Renderer) Muted(msg string) {
	r.Println(r.styles.Muted.Render(msg))
}

// StatusLine writes one "name: status" line with a status-colored marker
// and an optional detail suffix.
func (r *Renderer) StatusLine(name, status, detail string) {
	var marker string
	switch status {
	case "success", "completed", "ok":
		marker = r.styles.Success.Render("✓")
	case "failed", "error":
		marker = r.styles.Error.Render("✗")
	case "warning":
		marker = r.styles.Warning.Render("!")
	case "running":
		marker = r.styles.Info.Render("●")
	default:
		marker = r.styles.Muted.Render("•")
	}

	line := fmt.Sprintf("  %s %s", marker, name)
	if detail != "" {
		line += " " + r.styles.Muted.Render("("+detail+")")
	}
	r.Println(line)
}

// KeyValue writes one aligned "Key: value" line.
func (r *Renderer) KeyValue(key, value string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatKeyValue(key, value))
		return
	}
	r.Printf("%s %s\n", r.styles.Key.Render(key+":"), value)
}

// JSON encodes v to the output writer with indentation.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
