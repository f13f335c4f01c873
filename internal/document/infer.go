package document

import (
	"regexp"
	"strings"
)

// numberGrammar matches the JSON number grammar.
var numberGrammar = regexp.MustCompile(`^-?(0|[1-9]\d*)(\.\d+)?([eE][+-]?\d+)?$`)

// ParseNumber returns a number node when literal satisfies the JSON number
// grammar.
func ParseNumber(literal string) (*Node, bool) {
	if !numberGrammar.MatchString(literal) {
		return nil, false
	}
	return &Node{Kind: Number, Text: literal}, true
}

// Infer converts untyped text (CSV cells, XML text, HTML table cells) into a
// scalar:
//   - "" becomes null
//   - true/false in any case become bools
//   - JSON-grammar numbers become numbers; "007" does not match the grammar
//     and stays a string
//   - everything else stays a string with its original text
//
// Surrounding whitespace is ignored for type detection.
func Infer(text string) *Node {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return NewNull()
	}

	switch strings.ToLower(trimmed) {
	case "true":
		return NewBool(true)
	case "false":
		return NewBool(false)
	}

	if n, ok := ParseNumber(trimmed); ok {
		return n
	}

	return NewString(text)
}
