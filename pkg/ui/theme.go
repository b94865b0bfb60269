package ui

import (
	"os"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// ThemeBg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals use the
// terminal's own background instead of a down-converted approximation
// that may clash with palettes like Solarized.
func ThemeBg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// ThemeFg returns the given hex color for ANSI256+ terminals and a safe
// ANSI white (color 7) for 16-color or lower terminals.
func ThemeFg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

type Theme struct {
	Renderer *lipgloss.Renderer

	// Colors
	Primary   lipgloss.AdaptiveColor
	Secondary lipgloss.AdaptiveColor
	Subtext   lipgloss.AdaptiveColor

	// Selection states
	Checked   lipgloss.AdaptiveColor
	Partial   lipgloss.AdaptiveColor
	Unchecked lipgloss.AdaptiveColor
	Disabled  lipgloss.AdaptiveColor

	// UI Elements
	Border    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Muted     lipgloss.AdaptiveColor

	// Styles
	Base    lipgloss.Style
	Focused lipgloss.Style
	Header  lipgloss.Style

	// Pre-computed row styles, created once at startup instead of
	// per-frame
	GuideText     lipgloss.Style
	ExpanderText  lipgloss.Style
	CheckedBox    lipgloss.Style
	PartialBox    lipgloss.Style
	UncheckedBox  lipgloss.Style
	DisabledText  lipgloss.Style
	MutedText     lipgloss.Style
	SecondaryText lipgloss.Style
	PrimaryBold   lipgloss.Style
	NotesMark     lipgloss.Style
}

// DefaultTheme returns the standard Dracula-inspired theme (adaptive).
// Light mode colors tuned for WCAG AA contrast.
func DefaultTheme(r *lipgloss.Renderer) Theme {
	t := Theme{
		Renderer: r,

		Primary:   lipgloss.AdaptiveColor{Light: "#6B47D9", Dark: "#BD93F9"}, // Purple
		Secondary: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Subtext:   lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BFBFBF"}, // Dim

		Checked:   lipgloss.AdaptiveColor{Light: "#007700", Dark: "#50FA7B"}, // Green - fully selected
		Partial:   lipgloss.AdaptiveColor{Light: "#B06800", Dark: "#FFB86C"}, // Orange - some descendants
		Unchecked: lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"}, // Gray
		Disabled:  lipgloss.AdaptiveColor{Light: "#888888", Dark: "#44475A"}, // Muted gray

		Border:    lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#44475A"},
		Highlight: lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#44475A"},
		Muted:     lipgloss.AdaptiveColor{Light: "#555555", Dark: "#6272A4"},
	}

	t.Base = r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#F8F8F2"})

	t.Focused = r.NewStyle().
		Background(t.Highlight).
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(t.Primary).
		PaddingLeft(1).
		Bold(true)

	t.Header = r.NewStyle().
		Background(t.Primary).
		Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#282A36"}).
		Bold(true).
		Padding(0, 1)

	t.GuideText = r.NewStyle().Foreground(t.Border)
	t.ExpanderText = r.NewStyle().Foreground(t.Secondary)
	t.CheckedBox = r.NewStyle().Foreground(t.Checked).Bold(true)
	t.PartialBox = r.NewStyle().Foreground(t.Partial).Bold(true)
	t.UncheckedBox = r.NewStyle().Foreground(t.Unchecked)
	t.DisabledText = r.NewStyle().Foreground(t.Disabled).Faint(true)
	t.MutedText = r.NewStyle().Foreground(ColorMuted)
	t.SecondaryText = r.NewStyle().Foreground(t.Secondary)
	t.PrimaryBold = r.NewStyle().Foreground(t.Primary).Bold(true)
	t.NotesMark = r.NewStyle().Foreground(ThemeFg("#8BE9FD"))

	return t
}

// CheckboxStyle returns the style for a tri-state checkbox glyph.
func (t Theme) CheckboxStyle(selected, half bool) lipgloss.Style {
	switch {
	case selected:
		return t.CheckedBox
	case half:
		return t.PartialBox
	default:
		return t.UncheckedBox
	}
}

// TestTheme returns a theme suitable for use in tests (stdout renderer).
func TestTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(os.Stdout))
}
