package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer wraps a glamour terminal renderer with lazy
// reconstruction on width changes. The zero-width renderer falls back to
// raw text, which keeps tests and non-TTY runs deterministic.
type MarkdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
}

// NewMarkdownRenderer creates a renderer wrapping at the given width.
func NewMarkdownRenderer(width int) *MarkdownRenderer {
	r := &MarkdownRenderer{}
	r.SetWidth(width)
	return r
}

// SetWidth rebuilds the underlying renderer for a new wrap width.
// No-op when the width hasn't changed.
func (r *MarkdownRenderer) SetWidth(width int) {
	if width <= 0 || width == r.width {
		return
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return // keep the previous renderer, raw fallback otherwise
	}
	r.renderer = renderer
	r.width = width
}

// Render renders markdown for the terminal, falling back to the raw text
// when glamour is unavailable or fails.
func (r *MarkdownRenderer) Render(md string) string {
	if r == nil || r.renderer == nil {
		return md
	}
	out, err := r.renderer.Render(md)
	if err != nil {
		return md
	}
	// Strip the excess trailing whitespace glamour adds
	return strings.TrimRight(out, "\n") + "\n"
}
