package codec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/formatbridge/internal/document"
	"github.com/JonMunkholm/formatbridge/internal/format"
)

func init() { Register(csvCodec{}) }

// candidateDelimiters are tried, in order, when no delimiter is configured.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// csvCodec reads a header row plus records and writes records flattened to
// dot-path columns. Cell types are inferred on decode; header names that
// contain dots are rebuilt into nested values.
type csvCodec struct{}

func (csvCodec) Format() format.ID { return format.CSV }

func (csvCodec) Decode(input string, opts Options) (*document.Node, error) {
	input = StripBOM(input)
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	delim, err := resolveDelimiter(opts.Delimiter, input)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(strings.NewReader(input))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, csvSyntaxError(err)
	}

	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvSyntaxError(err)
		}
		rows = append(rows, record)
	}

	return TableRecords(header, rows), nil
}

func csvSyntaxError(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return syntaxError(format.CSV, pe.Line, pe.Err)
	}
	if errors.Is(err, io.EOF) {
		return ErrEmptyInput
	}
	return syntaxError(format.CSV, 0, err)
}

// resolveDelimiter parses the configured delimiter or detects one from the
// first line of input.
func resolveDelimiter(configured, input string) (rune, error) {
	switch strings.ToLower(configured) {
	case "":
		return detectDelimiter(input), nil
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(configured)
	if size != len(configured) || r == '"' || r == '\n' || r == '\r' || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid csv delimiter %q", configured)
	}
	return r, nil
}

// detectDelimiter picks the candidate that occurs most often outside quotes
// on the first line, defaulting to a comma.
func detectDelimiter(input string) rune {
	line, _, _ := strings.Cut(input, "\n")

	counts := make(map[rune]int)
	inQuotes := false
	for _, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}

	best, bestCount := ',', 0
	for _, c := range candidateDelimiters {
		if counts[c] > bestCount {
			best, bestCount = c, counts[c]
		}
	}
	return best
}

// uniqueHeaders trims header names, names blank columns and suffixes
// duplicates so every column maps to a distinct key.
func uniqueHeaders(header []string) []string {
	out := make([]string, len(header))
	seen := make(map[string]int)
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "column_" + strconv.Itoa(i+1)
		}
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = name + "_" + strconv.Itoa(n+1)
		}
		seen[name]++
		out[i] = name
	}
	return out
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (csvCodec) Encode(n *document.Node, opts Options) (string, []Warning, error) {
	delim, err := resolveDelimiter(opts.Delimiter, "")
	if err != nil {
		return "", nil, err
	}

	rows, flattened := document.Records(n)
	var warnings []Warning
	if flattened {
		warnings = append(warnings, warn(WarnFlattened, "nested values were flattened into dot-path columns"))
	}

	cols := document.Columns(rows)
	if len(cols) == 0 {
		return "", warnings, nil
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = delim

	if err := w.Write(cols); err != nil {
		return "", nil, fmt.Errorf("write csv header: %w", err)
	}
	record := make([]string, len(cols))
	for _, row := range rows {
		for i, col := range cols {
			v, _ := row.Get(col)
			record[i] = v.ScalarText()
		}
		if err := w.Write(record); err != nil {
			return "", nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", nil, fmt.Errorf("write csv: %w", err)
	}

	return buf.String(), warnings, nil
}
