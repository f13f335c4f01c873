package codec

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/JonMunkholm/formatbridge/internal/document"
	"github.com/JonMunkholm/formatbridge/internal/format"
)

func init() { Register(htmlCodec{}) }

var (
	htmlPolicyOnce sync.Once
	htmlPolicy     *bluemonday.Policy
)

// htmlSanitizer allows user-generated-content markup: tables, lists,
// definition lists and inline formatting. Scripts, styles, event handlers
// and unsafe URLs are removed.
func htmlSanitizer() *bluemonday.Policy {
	htmlPolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowAttrs("colspan", "rowspan", "scope").OnElements("th", "td")
		policy.AllowAttrs("align").OnElements("th", "td")
		htmlPolicy = policy
	})
	return htmlPolicy
}

// SanitizeHTML removes unsafe markup from s.
func SanitizeHTML(s string) string {
	return htmlSanitizer().Sanitize(s)
}

// htmlCodec writes records as <table>, mappings as <dl> and sequences as
// <ul>. Reading takes the first table, else the first definition list, else
// the first list, else the text content.
type htmlCodec struct{}

func (htmlCodec) Format() format.ID { return format.HTML }

func (htmlCodec) Decode(input string, _ Options) (*document.Node, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(SanitizeHTML(input)))
	if err != nil {
		return nil, syntaxError(format.HTML, 0, err)
	}

	if table := doc.Find("table").First(); table.Length() > 0 {
		return htmlTableRecords(table), nil
	}
	if dl := doc.Find("dl").First(); dl.Length() > 0 {
		return htmlDefinitionList(dl), nil
	}
	if list := doc.Find("ul, ol").First(); list.Length() > 0 {
		seq := document.NewSequence()
		list.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
			seq.Append(document.Infer(collapseSpace(li.Text())))
		})
		return seq, nil
	}

	return document.NewString(collapseSpace(doc.Text())), nil
}

func htmlTableRecords(table *goquery.Selection) *document.Node {
	var header []string
	records := document.NewSequence()

	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		// Skip rows of nested tables.
		if tr.Closest("table").Get(0) != table.Get(0) {
			return
		}

		var cells []string
		tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
			cells = append(cells, collapseSpace(cell.Text()))
		})
		if len(cells) == 0 {
			return
		}

		if header == nil {
			header = uniqueHeaders(cells)
			return
		}

		rec := document.NewMapping()
		for i, name := range header {
			if i < len(cells) {
				rec.Set(name, document.Infer(cells[i]))
			} else {
				rec.Set(name, document.NewNull())
			}
		}
		records.Append(rec)
	})

	return records
}

func htmlDefinitionList(dl *goquery.Selection) *document.Node {
	m := document.NewMapping()
	var key string
	dl.Children().Each(func(_ int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "dt":
			key = collapseSpace(s.Text())
		case "dd":
			if key != "" {
				m.Set(key, document.Infer(collapseSpace(s.Text())))
			}
		}
	})
	return m
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (htmlCodec) Encode(n *document.Node, opts Options) (string, []Warning, error) {
	w := &htmlWriter{indent: strings.Repeat(" ", opts.IndentOrDefault())}
	w.node(n, 0)
	return w.b.String(), w.warnings, nil
}

type htmlWriter struct {
	b        strings.Builder
	indent   string
	warnings []Warning
}

func (w *htmlWriter) line(depth int, layout string, args ...any) {
	w.b.WriteString(strings.Repeat(w.indent, depth))
	fmt.Fprintf(&w.b, layout, args...)
	w.b.WriteByte('\n')
}

func (w *htmlWriter) node(n *document.Node, depth int) {
	switch {
	case n.IsScalar():
		w.line(depth, "<p>%s</p>", html.EscapeString(n.ScalarText()))

	case n.IsRecords():
		w.table(n, depth)

	case n.Kind == document.Sequence:
		w.line(depth, "<ul>")
		for _, item := range n.Items {
			if item.IsScalar() {
				w.line(depth+1, "<li>%s</li>", html.EscapeString(item.ScalarText()))
				continue
			}
			w.line(depth+1, "<li>")
			w.node(item, depth+2)
			w.line(depth+1, "</li>")
		}
		w.line(depth, "</ul>")

	case n.Kind == document.Mapping:
		w.line(depth, "<dl>")
		for _, e := range n.Entries {
			w.line(depth+1, "<dt>%s</dt>", html.EscapeString(e.Key))
			if e.Value.IsScalar() {
				w.line(depth+1, "<dd>%s</dd>", html.EscapeString(e.Value.ScalarText()))
				continue
			}
			w.line(depth+1, "<dd>")
			w.node(e.Value, depth+2)
			w.line(depth+1, "</dd>")
		}
		w.line(depth, "</dl>")
	}
}

func (w *htmlWriter) table(n *document.Node, depth int) {
	rows, flattened := document.Records(n)
	if flattened {
		w.warnings = append(w.warnings, warn(WarnFlattened, "nested values were flattened into dot-path table columns"))
	}
	cells := tableCells(rows)
	if len(cells) == 0 {
		w.line(depth, "<table></table>")
		return
	}

	w.line(depth, "<table>")
	w.line(depth+1, "<thead>")
	w.line(depth+2, "<tr>%s</tr>", htmlCells("th", cells[0]))
	w.line(depth+1, "</thead>")
	w.line(depth+1, "<tbody>")
	for _, row := range cells[1:] {
		w.line(depth+2, "<tr>%s</tr>", htmlCells("td", row))
	}
	w.line(depth+1, "</tbody>")
	w.line(depth, "</table>")
}

func htmlCells(tag string, values []string) string {
	var b strings.Builder
	for _, v := range values {
		fmt.Fprintf(&b, "<%s>%s</%s>", tag, html.EscapeString(v), tag)
	}
	return b.String()
}
