package codec

import (
	"errors"
	"regexp"
	"strings"

	"github.com/JonMunkholm/formatbridge/internal/format"
)

// ErrUndetectable is returned when no format matches the input.
var ErrUndetectable = errors.New("could not detect input format")

// detectSampleLines bounds how many lines are inspected for CSV consistency.
const detectSampleLines = 20

var (
	htmlMarkers = []string{"<!doctype html", "<html", "<head", "<body", "<table", "<div", "<p>", "<p ", "<ul", "<ol", "<dl", "<h1", "<h2", "<h3", "<span", "<br"}

	sqlPrefix        = regexp.MustCompile(`(?i)^(insert\s+into|create\s+(temp\w*\s+|unlogged\s+)?table|begin\s*;|set\s+\w+)`)
	markdownTableSep = regexp.MustCompile(`^\s*\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)*\|?\s*$`)
	markdownHeading  = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)
	markdownList     = regexp.MustCompile(`(?m)^\s*([-*+]|\d+\.)\s+\S`)
	yamlStart        = regexp.MustCompile(`^(---|- |[\w"'.-]+\s*:(\s|$))`)
)

// Detect guesses the format of input. Checks run from the most to the least
// distinctive syntax, ending with anything YAML can parse into a collection.
func Detect(input string) (format.ID, error) {
	trimmed := strings.TrimSpace(StripBOM(input))
	if trimmed == "" {
		return "", ErrEmptyInput
	}
	lower := strings.ToLower(trimmed)

	if trimmed[0] == '{' || trimmed[0] == '[' {
		if _, err := mustCodec(format.JSON).Decode(trimmed, Options{}); err == nil {
			return format.JSON, nil
		}
	}

	if trimmed[0] == '<' {
		if strings.HasPrefix(lower, "<?xml") {
			return format.XML, nil
		}
		if looksLikeHTML(lower) {
			return format.HTML, nil
		}
		if _, err := mustCodec(format.XML).Decode(trimmed, Options{}); err == nil {
			return format.XML, nil
		}
		return format.HTML, nil
	}

	if sqlPrefix.MatchString(stripSQLComments(trimmed)) {
		return format.SQL, nil
	}

	if hasMarkdownTable(trimmed) {
		return format.Markdown, nil
	}

	// "# ..." is a YAML comment as well as a Markdown heading, so YAML-shaped
	// content wins over headings.
	if yamlStart.MatchString(firstContentLine(trimmed)) {
		if n, err := mustCodec(format.YAML).Decode(trimmed, Options{}); err == nil && !n.IsScalar() {
			return format.YAML, nil
		}
	}

	if markdownHeading.MatchString(trimmed) {
		return format.Markdown, nil
	}

	if isCSV(trimmed) {
		return format.CSV, nil
	}

	if n, err := mustCodec(format.YAML).Decode(trimmed, Options{}); err == nil && !n.IsScalar() {
		return format.YAML, nil
	}

	if markdownList.MatchString(trimmed) {
		return format.Markdown, nil
	}

	return "", ErrUndetectable
}

func mustCodec(id format.ID) Codec {
	c, ok := Get(id)
	if !ok {
		panic("codec not registered: " + string(id))
	}
	return c
}

func looksLikeHTML(lower string) bool {
	for _, m := range htmlMarkers {
		if strings.HasPrefix(lower, m) {
			return true
		}
	}
	return false
}

// stripSQLComments removes leading "--" and "/* */" comments.
func stripSQLComments(s string) string {
	for {
		s = strings.TrimSpace(s)
		switch {
		case strings.HasPrefix(s, "--"):
			_, rest, found := strings.Cut(s, "\n")
			if !found {
				return ""
			}
			s = rest
		case strings.HasPrefix(s, "/*"):
			_, rest, found := strings.Cut(s, "*/")
			if !found {
				return ""
			}
			s = rest
		default:
			return s
		}
	}
}

// hasMarkdownTable reports whether a pipe row is followed by a separator row
// such as "| --- | :-: |".
func hasMarkdownTable(s string) bool {
	lines := strings.Split(s, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.Contains(lines[i], "|") && strings.Contains(lines[i-1], "|") && markdownTableSep.MatchString(lines[i]) {
			return true
		}
	}
	return false
}

func firstContentLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			return line
		}
	}
	return ""
}

// isCSV reports whether the first lines share a consistent, non-zero
// delimiter count.
func isCSV(s string) bool {
	lines := strings.Split(s, "\n")
	var sample []string
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			sample = append(sample, l)
		}
		if len(sample) == detectSampleLines {
			break
		}
	}
	if len(sample) < 2 {
		return false
	}

	delim := detectDelimiter(sample[0])
	want := countOutsideQuotes(sample[0], delim)
	if want == 0 {
		return false
	}
	for _, l := range sample[1:] {
		if countOutsideQuotes(l, delim) != want {
			return false
		}
	}
	return true
}

func countOutsideQuotes(line string, delim rune) int {
	n := 0
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			n++
		}
	}
	return n
}
