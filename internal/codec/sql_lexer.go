package codec

import (
	"strings"
	"unicode"

	"github.com/JonMunkholm/formatbridge/internal/format"
)

type sqlTokenKind int

const (
	tokEOF sqlTokenKind = iota
	tokIdent
	tokString
	tokNumber
	tokPunct
)

type sqlToken struct {
	kind   sqlTokenKind
	text   string
	quoted bool // identifier was quoted; never a keyword
	line   int
}

func (t sqlToken) isKeyword(kw string) bool {
	return t.kind == tokIdent && !t.quoted && strings.EqualFold(t.text, kw)
}

// tokenizeSQL splits input into identifiers, string and number literals and
// punctuation. Comments and whitespace are dropped. Identifiers may be quoted
// with double quotes, backticks or brackets; strings use single quotes with
// '' as the escape for a quote, or E'...' with backslash escapes.
func tokenizeSQL(input string) ([]sqlToken, error) {
	var (
		toks []sqlToken
		line = 1
		rs   = []rune(input)
	)

	fail := func(msg string) error {
		return &SyntaxError{Format: format.SQL, Line: line, Msg: msg}
	}

	for i := 0; i < len(rs); {
		c := rs[i]
		switch {
		case c == '\n':
			line++
			i++

		case unicode.IsSpace(c):
			i++

		case c == '-' && i+1 < len(rs) && rs[i+1] == '-':
			for i < len(rs) && rs[i] != '\n' {
				i++
			}

		case c == '/' && i+1 < len(rs) && rs[i+1] == '*':
			i += 2
			for {
				if i+1 >= len(rs) {
					return nil, fail("unterminated block comment")
				}
				if rs[i] == '\n' {
					line++
				}
				if rs[i] == '*' && rs[i+1] == '/' {
					i += 2
					break
				}
				i++
			}

		case (c == 'E' || c == 'e') && i+1 < len(rs) && rs[i+1] == '\'':
			start := line
			s, next, lines, ok := scanEscapedString(rs, i+2)
			if !ok {
				return nil, fail("unterminated string literal")
			}
			toks = append(toks, sqlToken{kind: tokString, text: s, line: start})
			line += lines
			i = next

		case c == '\'':
			start := line
			s, next, lines, ok := scanQuoted(rs, i+1, '\'')
			if !ok {
				return nil, fail("unterminated string literal")
			}
			toks = append(toks, sqlToken{kind: tokString, text: s, line: start})
			line += lines
			i = next

		case c == '"' || c == '`':
			s, next, lines, ok := scanQuoted(rs, i+1, c)
			if !ok {
				return nil, fail("unterminated quoted identifier")
			}
			toks = append(toks, sqlToken{kind: tokIdent, text: s, quoted: true, line: line})
			line += lines
			i = next

		case c == '[':
			end := i + 1
			for end < len(rs) && rs[end] != ']' {
				end++
			}
			if end >= len(rs) {
				return nil, fail("unterminated bracketed identifier")
			}
			toks = append(toks, sqlToken{kind: tokIdent, text: string(rs[i+1 : end]), quoted: true, line: line})
			i = end + 1

		case unicode.IsDigit(c) || (c == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			start := i
			for i < len(rs) && (unicode.IsDigit(rs[i]) || rs[i] == '.') {
				i++
			}
			if i < len(rs) && (rs[i] == 'e' || rs[i] == 'E') {
				j := i + 1
				if j < len(rs) && (rs[j] == '+' || rs[j] == '-') {
					j++
				}
				if j < len(rs) && unicode.IsDigit(rs[j]) {
					i = j
					for i < len(rs) && unicode.IsDigit(rs[i]) {
						i++
					}
				}
			}
			toks = append(toks, sqlToken{kind: tokNumber, text: normalizeSQLNumber(string(rs[start:i])), line: line})

		case c == '_' || unicode.IsLetter(c):
			start := i
			for i < len(rs) && (rs[i] == '_' || rs[i] == '$' || unicode.IsLetter(rs[i]) || unicode.IsDigit(rs[i])) {
				i++
			}
			toks = append(toks, sqlToken{kind: tokIdent, text: string(rs[start:i]), line: line})

		case c == ':' && i+1 < len(rs) && rs[i+1] == ':':
			toks = append(toks, sqlToken{kind: tokPunct, text: "::", line: line})
			i += 2

		default:
			toks = append(toks, sqlToken{kind: tokPunct, text: string(c), line: line})
			i++
		}
	}

	return toks, nil
}

// scanQuoted reads up to the closing quote, treating a doubled quote as an
// escaped one. It returns the unescaped text, the index after the closing
// quote and the number of newlines consumed.
func scanQuoted(rs []rune, i int, quote rune) (string, int, int, bool) {
	var b strings.Builder
	lines := 0
	for i < len(rs) {
		c := rs[i]
		if c == quote {
			if i+1 < len(rs) && rs[i+1] == quote {
				b.WriteRune(quote)
				i += 2
				continue
			}
			return b.String(), i + 1, lines, true
		}
		if c == '\n' {
			lines++
		}
		b.WriteRune(c)
		i++
	}
	return "", i, lines, false
}

func scanEscapedString(rs []rune, i int) (string, int, int, bool) {
	var b strings.Builder
	lines := 0
	for i < len(rs) {
		c := rs[i]
		switch {
		case c == '\\' && i+1 < len(rs):
			switch rs[i+1] {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case 'r':
				b.WriteRune('\r')
			default:
				b.WriteRune(rs[i+1])
			}
			i += 2
			continue
		case c == '\'' && i+1 < len(rs) && rs[i+1] == '\'':
			b.WriteRune('\'')
			i += 2
			continue
		case c == '\'':
			return b.String(), i + 1, lines, true
		case c == '\n':
			lines++
		}
		b.WriteRune(c)
		i++
	}
	return "", i, lines, false
}

// normalizeSQLNumber rewrites literals such as ".5" and "5." into the JSON
// number grammar.
func normalizeSQLNumber(lit string) string {
	if strings.HasPrefix(lit, ".") {
		lit = "0" + lit
	}
	mantissa, exp, hasExp := strings.Cut(strings.ToLower(lit), "e")
	if strings.HasSuffix(mantissa, ".") {
		mantissa = strings.TrimSuffix(mantissa, ".")
	}
	if hasExp {
		return mantissa + "e" + exp
	}
	return mantissa
}
