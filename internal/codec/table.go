package codec

// table.go renders rows of cells as a GitHub-Flavored Markdown table. It is
// shared by the Markdown codec and the spreadsheet export tool.

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/formatbridge/internal/document"
)

const minColWidth = 3 // minimum separator width for a valid Markdown table (---)

// RenderMarkdownTable converts rows into a GitHub-Flavored Markdown table.
// The first row is the header. Each column is padded to the width of its
// widest cell (minimum minColWidth).
func RenderMarkdownTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	maxCols := 0
	for _, row := range rows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}
	if maxCols == 0 {
		return ""
	}

	widths := make([]int, maxCols)
	for i := range widths {
		widths[i] = minColWidth
	}
	for _, row := range rows {
		for i, raw := range row {
			if w := utf8.RuneCountInString(escapeCell(raw)); w > widths[i] {
				widths[i] = w
			}
		}
	}

	cell := func(row []string, col int) string {
		if col < len(row) {
			return escapeCell(row[col])
		}
		return ""
	}
	pad := func(s string, w int) string {
		n := utf8.RuneCountInString(s)
		if n >= w {
			return s
		}
		return s + strings.Repeat(" ", w-n)
	}

	var sb strings.Builder

	sb.WriteString("|")
	for i := 0; i < maxCols; i++ {
		sb.WriteString(" " + pad(cell(rows[0], i), widths[i]) + " |")
	}
	sb.WriteByte('\n')

	sb.WriteString("|")
	for i := 0; i < maxCols; i++ {
		sb.WriteString(" " + strings.Repeat("-", widths[i]) + " |")
	}
	sb.WriteByte('\n')

	for _, row := range rows[1:] {
		sb.WriteString("|")
		for i := 0; i < maxCols; i++ {
			sb.WriteString(" " + pad(cell(row, i), widths[i]) + " |")
		}
		sb.WriteByte('\n')
	}

	return sb.String()
}

// escapeCell keeps a value on one table line: markup is escaped and line
// breaks become <br>.
func escapeCell(s string) string {
	s = escapeMarkdown(s)
	s = strings.ReplaceAll(s, "\r\n", "<br>")
	return strings.ReplaceAll(s, "\n", "<br>")
}

// markdownSpecials are the characters that start inline markup, raw HTML,
// entities, math or table cells when they appear in text.
const markdownSpecials = "\\`*_[]<>|&$~"

// escapeMarkdown backslash-escapes s so that it parses back as the same
// literal text, both inline and at the start of a list item.
func escapeMarkdown(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(markdownSpecials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return escapeBlockStart(b.String())
}

// escapeBlockStart escapes a leading marker that would turn the text into
// a heading, list item or thematic break.
func escapeBlockStart(s string) string {
	if s == "" {
		return s
	}
	switch c := s[0]; {
	case c == '#':
		return `\` + s
	case c == '-' || c == '+':
		if len(s) == 1 || s[1] == ' ' || s[1] == c {
			return `\` + s
		}
	case c >= '0' && c <= '9':
		i := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i < len(s) && (s[i] == '.' || s[i] == ')') && (i+1 == len(s) || s[i+1] == ' ') {
			return s[:i] + `\` + s[i:]
		}
	}
	return s
}

// tableCells converts flat records into a header row plus one row per record.
func tableCells(records []*document.Node) [][]string {
	cols := document.Columns(records)
	if len(cols) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, cols)
	for _, r := range records {
		row := make([]string, len(cols))
		for i, col := range cols {
			v, _ := r.Get(col)
			row[i] = v.ScalarText()
		}
		rows = append(rows, row)
	}
	return rows
}

// TableRecords builds records from a header row and data rows. Cell types
// are inferred and blank rows are skipped. Short rows are padded with nulls;
// cells past the header get column_N names. Dotted header names such as
// "address.city" are rebuilt into nested values.
func TableRecords(header []string, rows [][]string) *document.Node {
	header = uniqueHeaders(header)

	nested := false
	for _, h := range header {
		if strings.Contains(h, document.PathSeparator) {
			nested = true
			break
		}
	}

	records := document.NewSequence()
	for _, record := range rows {
		if isEmptyRow(record) {
			continue
		}

		for len(header) < len(record) {
			header = append(header, "column_"+strconv.Itoa(len(header)+1))
		}

		row := document.NewMapping()
		for i, name := range header {
			if i < len(record) {
				row.Set(name, document.Infer(record[i]))
			} else {
				row.Set(name, document.NewNull())
			}
		}
		if nested {
			row = document.Unflatten(row)
		}
		records.Append(row)
	}
	return records
}
