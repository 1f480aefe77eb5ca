package markup

import "strings"

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Escape replaces &, < and > with their entities
func Escape(s string) string {
	return htmlEscaper.Replace(s)
}

// RenderHTML renders text as safe HTML. All literal text is escaped, so
// model output cannot inject markup.
func RenderHTML(text string) string {
	return Parse(text).HTML()
}

// HTML renders the document
func (d *Document) HTML() string {
	var b strings.Builder
	for _, blk := range d.Blocks {
		switch v := blk.(type) {
		case Paragraph:
			b.WriteString("<p>")
			writeInlineHTML(&b, v.Inlines)
			b.WriteString("</p>")
		case List:
			b.WriteString("<ul>")
			for _, item := range v.Items {
				b.WriteString("<li>")
				writeInlineHTML(&b, item)
				b.WriteString("</li>")
			}
			b.WriteString("</ul>")
		case Table:
			b.WriteString("<table><thead><tr>")
			for _, h := range v.Headers {
				b.WriteString("<th>")
				writeInlineHTML(&b, h)
				b.WriteString("</th>")
			}
			b.WriteString("</tr></thead><tbody>")
			for _, row := range v.Rows {
				b.WriteString("<tr>")
				for _, cell := range row {
					b.WriteString("<td>")
					writeInlineHTML(&b, cell)
					b.WriteString("</td>")
				}
				b.WriteString("</tr>")
			}
			b.WriteString("</tbody></table>")
		}
	}
	return b.String()
}

func writeInlineHTML(b *strings.Builder, spans []Inline) {
	for _, s := range spans {
		switch v := s.(type) {
		case Text:
			b.WriteString(Escape(v.Value))
		case Strong:
			b.WriteString("<strong>")
			writeInlineHTML(b, v.Children)
			b.WriteString("</strong>")
		case Emphasis:
			b.WriteString("<em>")
			writeInlineHTML(b, v.Children)
			b.WriteString("</em>")
		case LineBreak:
			b.WriteString("<br/>")
		}
	}
}
