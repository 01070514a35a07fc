package scenario

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/rlch/inlay"
)

// Styles holds the lipgloss styles of rendered reports and the replay progress view.
type Styles struct {
	Pass    lipgloss.Style
	Fail    lipgloss.Style
	Pending lipgloss.Style
	Dim     lipgloss.Style
	Bold    lipgloss.Style
	Path    lipgloss.Style
	Remove  lipgloss.Style

	// Insert lines are colored by hint kind. Kinds without an entry use Dim.
	Kinds map[inlay.Kind]lipgloss.Style

	SymbolPass    string
	SymbolFail    string
	SymbolPending string

	TreeMiddle string
	TreeEnd    string
}

// NewStyles builds colored styles bound to r, so color support follows r's output.
func NewStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Pass:    r.NewStyle().Foreground(lipgloss.Color("#10b981")).Bold(true),
		Fail:    r.NewStyle().Foreground(lipgloss.Color("#ef4444")).Bold(true),
		Pending: r.NewStyle().Foreground(lipgloss.Color("#6b7280")),
		Dim:     r.NewStyle().Foreground(lipgloss.Color("#6b7280")),
		Bold:    r.NewStyle().Bold(true),
		Path:    r.NewStyle().Foreground(lipgloss.Color("#3b82f6")),
		Remove:  r.NewStyle().Foreground(lipgloss.Color("#f59e0b")).Strikethrough(true),

		Kinds: map[inlay.Kind]lipgloss.Style{
			inlay.KindType:      r.NewStyle().Foreground(lipgloss.Color("#06b6d4")),
			inlay.KindParameter: r.NewStyle().Foreground(lipgloss.Color("#a855f7")).Italic(true),
			inlay.KindOther:     r.NewStyle().Foreground(lipgloss.Color("#9ca3af")),
		},

		SymbolPass:    "✓",
		SymbolFail:    "✗",
		SymbolPending: "·",

		TreeMiddle: "├─",
		TreeEnd:    "╰─",
	}
}

// DefaultStyles returns styles for the process's standard output.
func DefaultStyles() *Styles {
	return NewStyles(lipgloss.DefaultRenderer())
}

// PlainStyles returns styles that render text unchanged, with ASCII symbols.
func PlainStyles() *Styles {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)

	styles := NewStyles(r)
	styles.SymbolPass = "ok"
	styles.SymbolFail = "FAIL"
	styles.SymbolPending = "--"
	styles.TreeMiddle = "|-"
	styles.TreeEnd = "`-"

	return styles
}

// Kind returns the style of hints of kind k.
func (s *Styles) Kind(k inlay.Kind) lipgloss.Style {
	if style, ok := s.Kinds[k]; ok {
		return style
	}

	return s.Dim
}
