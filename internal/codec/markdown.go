package codec

import (
	"fmt"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"

	"github.com/JonMunkholm/formatbridge/internal/document"
	"github.com/JonMunkholm/formatbridge/internal/format"
)

func init() { Register(markdownCodec{}) }

const maxHeadingLevel = 6

// markdownCodec writes records as GFM tables and mappings as headings and
// "key: value" bullets. Reading takes the first table, else the key/value
// bullets, else the whole text as one string.
type markdownCodec struct{}

func (markdownCodec) Format() format.ID { return format.Markdown }

func newMarkdownParser() *parser.Parser {
	return parser.NewWithExtensions(parser.CommonExtensions)
}

func (markdownCodec) Decode(input string, _ Options) (*document.Node, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	root := markdown.Parse([]byte(input), newMarkdownParser())

	if table := findMarkdownNode[*ast.Table](root); table != nil {
		return markdownTableRecords(table), nil
	}

	if m, ok := markdownKeyValues(root); ok {
		return m, nil
	}

	return document.NewString(strings.TrimSpace(input)), nil
}

func findMarkdownNode[T ast.Node](root ast.Node) T {
	var found T
	ast.WalkFunc(root, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		if n, ok := node.(T); ok {
			found = n
			return ast.Terminate
		}
		return ast.GoToNext
	})
	return found
}

// markdownText concatenates the literal text below node.
func markdownText(node ast.Node) string {
	var b strings.Builder
	ast.WalkFunc(node, func(n ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch n := n.(type) {
		case *ast.Softbreak, *ast.Hardbreak:
			b.WriteByte('\n')
		case *ast.HTMLSpan:
			if strings.EqualFold(strings.TrimSpace(string(n.Literal)), "<br>") {
				b.WriteByte('\n')
			}
		default:
			if leaf := n.AsLeaf(); leaf != nil {
				b.Write(leaf.Literal)
			}
		}
		return ast.GoToNext
	})
	return strings.TrimSpace(b.String())
}

func markdownTableRecords(table *ast.Table) *document.Node {
	var header []string
	records := document.NewSequence()

	ast.WalkFunc(table, func(node ast.Node, entering bool) ast.WalkStatus {
		row, ok := node.(*ast.TableRow)
		if !entering || !ok {
			return ast.GoToNext
		}

		var cells []string
		for _, child := range row.GetChildren() {
			if cell, ok := child.(*ast.TableCell); ok {
				cells = append(cells, markdownText(cell))
			}
		}

		if header == nil {
			header = uniqueHeaders(cells)
			return ast.SkipChildren
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
		return ast.SkipChildren
	})

	return records
}

// markdownKeyValues collects "key: value" list items. It succeeds only when
// every list item in the document has that shape.
func markdownKeyValues(root ast.Node) (*document.Node, bool) {
	m := document.NewMapping()
	ok := true
	ast.WalkFunc(root, func(node ast.Node, entering bool) ast.WalkStatus {
		item, isItem := node.(*ast.ListItem)
		if !entering || !isItem {
			return ast.GoToNext
		}
		key, value, found := strings.Cut(markdownText(item), ":")
		key = strings.TrimSpace(key)
		if !found || key == "" || strings.Contains(key, "\n") {
			ok = false
			return ast.Terminate
		}
		m.Set(key, document.Infer(strings.TrimSpace(value)))
		return ast.SkipChildren
	})
	return m, ok && m.Len() > 0
}

func (markdownCodec) Encode(n *document.Node, _ Options) (string, []Warning, error) {
	w := &markdownWriter{}
	w.node(n, 1)
	out := strings.TrimRight(w.b.String(), "\n")
	if out == "" {
		return "", w.warnings, nil
	}
	return out + "\n", w.warnings, nil
}

type markdownWriter struct {
	b        strings.Builder
	warnings []Warning
}

func (w *markdownWriter) node(n *document.Node, level int) {
	switch {
	case n.IsScalar():
		fmt.Fprintf(&w.b, "%s\n\n", n.ScalarText())

	case n.IsRecords():
		w.table(n)

	case n.Kind == document.Sequence:
		w.list(n, level)

	case n.Kind == document.Mapping:
		w.mapping(n, level)
	}
}

func (w *markdownWriter) table(n *document.Node) {
	rows, flattened := document.Records(n)
	if flattened {
		w.warnings = append(w.warnings, warn(WarnFlattened, "nested values were flattened into dot-path table columns"))
	}
	w.b.WriteString(RenderMarkdownTable(tableCells(rows)))
	w.b.WriteByte('\n')
}

func (w *markdownWriter) list(n *document.Node, level int) {
	var nested []*document.Node
	for _, item := range n.Items {
		if item.IsScalar() {
			fmt.Fprintf(&w.b, "- %s\n", inlineMarkdown(item.ScalarText()))
			continue
		}
		nested = append(nested, item)
	}
	if len(nested) < len(n.Items) {
		w.b.WriteByte('\n')
	}
	for i, item := range nested {
		if i > 0 {
			w.b.WriteString("---\n\n")
		}
		w.node(item, level)
	}
}

// mapping writes scalar entries as a bullet list, then each nested entry
// under its own heading.
func (w *markdownWriter) mapping(n *document.Node, level int) {
	var scalars, nested []document.Entry
	for _, e := range n.Entries {
		if e.Value.IsScalar() {
			scalars = append(scalars, e)
		} else {
			nested = append(nested, e)
		}
	}

	for _, e := range scalars {
		fmt.Fprintf(&w.b, "- %s: %s\n", inlineMarkdown(e.Key), inlineMarkdown(e.Value.ScalarText()))
	}
	if len(scalars) > 0 {
		w.b.WriteByte('\n')
	}

	h := level
	if h > maxHeadingLevel {
		h = maxHeadingLevel
	}
	for _, e := range nested {
		fmt.Fprintf(&w.b, "%s %s\n\n", strings.Repeat("#", h), inlineMarkdown(e.Key))
		w.node(e.Value, level+1)
	}
}

// inlineMarkdown keeps a value on a single line and escapes its markup.
func inlineMarkdown(s string) string {
	return escapeMarkdown(strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", " "), "\n", " "))
}
