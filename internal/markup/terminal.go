package markup

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TerminalTheme holds the styles used by RenderTerminal
type TerminalTheme struct {
	Strong   lipgloss.Style
	Emphasis lipgloss.Style
	Bullet   lipgloss.Style
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Border   lipgloss.Style
}

// DefaultTerminalTheme returns the CLI styles
func DefaultTerminalTheme() TerminalTheme {
	return TerminalTheme{
		Strong:   lipgloss.NewStyle().Bold(true),
		Emphasis: lipgloss.NewStyle().Italic(true),
		Bullet:   lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		Header:   lipgloss.NewStyle().Bold(true).Padding(0, 1),
		Cell:     lipgloss.NewStyle().Padding(0, 1),
		Border:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// RenderTerminal renders text for a terminal using the default theme
func RenderTerminal(text string) string {
	return Parse(text).Terminal(DefaultTerminalTheme())
}

// Terminal renders the document with the given theme. Blocks are separated
// by a blank line.
func (d *Document) Terminal(theme TerminalTheme) string {
	out := make([]string, 0, len(d.Blocks))
	for _, blk := range d.Blocks {
		switch v := blk.(type) {
		case Paragraph:
			out = append(out, inlineTerminal(theme, v.Inlines))
		case List:
			items := make([]string, 0, len(v.Items))
			for _, item := range v.Items {
				items = append(items, theme.Bullet.Render("•")+" "+inlineTerminal(theme, item))
			}
			out = append(out, strings.Join(items, "\n"))
		case Table:
			out = append(out, tableTerminal(theme, v))
		}
	}
	return strings.Join(out, "\n\n")
}

func tableTerminal(theme TerminalTheme, v Table) string {
	headers := make([]string, 0, len(v.Headers))
	for _, h := range v.Headers {
		headers = append(headers, inlineTerminal(theme, h))
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(theme.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return theme.Header
			}
			return theme.Cell
		}).
		Headers(headers...)
	for _, row := range v.Rows {
		cells := make([]string, 0, len(row))
		for _, c := range row {
			cells = append(cells, inlineTerminal(theme, c))
		}
		t = t.Row(cells...)
	}
	return t.String()
}

func inlineTerminal(theme TerminalTheme, spans []Inline) string {
	var b strings.Builder
	for _, s := range spans {
		switch v := s.(type) {
		case Text:
			b.WriteString(v.Value)
		case Strong:
			b.WriteString(theme.Strong.Render(PlainText(v.Children)))
		case Emphasis:
			b.WriteString(theme.Emphasis.Render(PlainText(v.Children)))
		case LineBreak:
			b.WriteString("\n")
		}
	}
	return b.String()
}
