// Package markup parses the small markdown subset the assistant writes
// (bold, italic, bullet lists, pipe tables and paragraphs) into a display
// tree, and renders that tree as HTML or as styled terminal text.
package markup

import (
	"regexp"
	"strings"
)

// Inline is a leaf-level span
type Inline interface {
	isInline()
}

// Text is literal text
type Text struct {
	Value string
}

// Strong is bold text
type Strong struct {
	Children []Inline
}

// Emphasis is italic text
type Emphasis struct {
	Children []Inline
}

// LineBreak is a hard break inside a paragraph
type LineBreak struct{}

func (Text) isInline()      {}
func (Strong) isInline()    {}
func (Emphasis) isInline()  {}
func (LineBreak) isInline() {}

// Block is a structural element
type Block interface {
	isBlock()
}

// Paragraph is a run of inline spans
type Paragraph struct {
	Inlines []Inline
}

// List is a bullet list
type List struct {
	Items [][]Inline
}

// Table is a pipe table. Rows may have a different cell count than Headers.
type Table struct {
	Headers [][]Inline
	Rows    [][][]Inline
}

func (Paragraph) isBlock() {}
func (List) isBlock()      {}
func (Table) isBlock()     {}

// Document is a parsed text
type Document struct {
	Blocks []Block
}

var (
	blockSeparator = regexp.MustCompile(`\n\s*\n`)
	listMarker     = regexp.MustCompile(`^\s*\*\s`)
	boldPattern    = regexp.MustCompile(`(?s)\*\*(.*?)\*\*`)
	italicPattern  = regexp.MustCompile(`(?s)\*(.*?)\*`)
)

// Parse splits text into blank-line separated blocks and classifies each one
// as a table, a bullet list or a paragraph, in that order. Inline formatting
// is applied to leaf text only after the structure is known.
func Parse(text string) *Document {
	doc := &Document{}
	if text == "" {
		return doc
	}
	for _, raw := range blockSeparator.Split(text, -1) {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		doc.Blocks = append(doc.Blocks, parseBlock(raw))
	}
	return doc
}

func parseBlock(raw string) Block {
	if strings.Contains(raw, "|") && strings.Contains(raw, "---") {
		if tbl, ok := parseTable(raw); ok {
			return tbl
		}
	}
	if strings.HasPrefix(strings.TrimSpace(raw), "* ") {
		return parseList(raw)
	}
	return Paragraph{Inlines: parseInline(raw)}
}

// parseTable reads a header line, a separator line containing "---" and any
// number of rows. Cells are split on pipes and the outer cells dropped.
func parseTable(raw string) (Table, bool) {
	lines := strings.Split(strings.TrimSpace(raw), "\n")
	if len(lines) < 2 || !strings.Contains(lines[1], "---") {
		return Table{}, false
	}
	headers := splitRow(lines[0])
	if len(headers) == 0 {
		return Table{}, false
	}
	tbl := Table{Headers: make([][]Inline, 0, len(headers))}
	for _, h := range headers {
		tbl.Headers = append(tbl.Headers, parseInline(h))
	}
	for _, line := range lines[2:] {
		cells := splitRow(line)
		row := make([][]Inline, 0, len(cells))
		for _, c := range cells {
			row = append(row, parseInline(c))
		}
		tbl.Rows = append(tbl.Rows, row)
	}
	return tbl, true
}

func splitRow(line string) []string {
	parts := strings.Split(line, "|")
	if len(parts) < 2 {
		return nil
	}
	inner := parts[1 : len(parts)-1]
	cells := make([]string, 0, len(inner))
	for _, p := range inner {
		cells = append(cells, strings.TrimSpace(p))
	}
	return cells
}

func parseList(raw string) List {
	var list List
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		list.Items = append(list.Items, parseInline(listMarker.ReplaceAllString(line, "")))
	}
	return list
}

// parseInline applies **bold** and then *italic*, non-greedy, to s.
// Newlines become line breaks.
func parseInline(s string) []Inline {
	var out []Inline
	last := 0
	for _, m := range boldPattern.FindAllStringSubmatchIndex(s, -1) {
		out = append(out, parseItalic(s[last:m[0]])...)
		out = append(out, Strong{Children: parseItalic(s[m[2]:m[3]])})
		last = m[1]
	}
	return append(out, parseItalic(s[last:])...)
}

func parseItalic(s string) []Inline {
	var out []Inline
	last := 0
	for _, m := range italicPattern.FindAllStringSubmatchIndex(s, -1) {
		out = append(out, textSpans(s[last:m[0]])...)
		out = append(out, Emphasis{Children: textSpans(s[m[2]:m[3]])})
		last = m[1]
	}
	return append(out, textSpans(s[last:])...)
}

func textSpans(s string) []Inline {
	if s == "" {
		return nil
	}
	var out []Inline
	for i, part := range strings.Split(s, "\n") {
		if i > 0 {
			out = append(out, LineBreak{})
		}
		if part != "" {
			out = append(out, Text{Value: part})
		}
	}
	return out
}

// PlainText flattens inline spans without any formatting
func PlainText(spans []Inline) string {
	var b strings.Builder
	writePlain(&b, spans)
	return b.String()
}

func writePlain(b *strings.Builder, spans []Inline) {
	for _, s := range spans {
		switch v := s.(type) {
		case Text:
			b.WriteString(v.Value)
		case Strong:
			writePlain(b, v.Children)
		case Emphasis:
			writePlain(b, v.Children)
		case LineBreak:
			b.WriteString("\n")
		}
	}
}
