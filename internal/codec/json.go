package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/formatbridge/internal/document"
	"github.com/JonMunkholm/formatbridge/internal/format"
)

func init() { Register(jsonCodec{}) }

// jsonCodec keeps object key order by walking the token stream instead of
// unmarshalling into maps.
type jsonCodec struct{}

func (jsonCodec) Format() format.ID { return format.JSON }

func (jsonCodec) Decode(input string, _ Options) (*document.Node, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	dec := json.NewDecoder(strings.NewReader(input))
	dec.UseNumber()

	n, err := decodeJSONValue(dec, 0)
	if err != nil {
		return nil, jsonSyntaxError(input, dec, err)
	}

	if _, err := dec.Token(); err != io.EOF {
		return nil, &SyntaxError{
			Format: format.JSON,
			Line:   lineAt(input, int(dec.InputOffset())),
			Msg:    "unexpected data after top-level value",
		}
	}

	return n, nil
}

// nextToken reads a token inside a value, where EOF means truncated input.
func nextToken(dec *json.Decoder) (json.Token, error) {
	tok, err := dec.Token()
	if err == io.EOF {
		return nil, io.ErrUnexpectedEOF
	}
	return tok, err
}

func decodeJSONValue(dec *json.Decoder, depth int) (*document.Node, error) {
	if depth > MaxDepth {
		return nil, errTooDeep()
	}
	tok, err := nextToken(dec)
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{':
			m := document.NewMapping()
			for dec.More() {
				keyTok, err := nextToken(dec)
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("expected object key, got %v", keyTok)
				}
				val, err := decodeJSONValue(dec, depth+1)
				if err != nil {
					return nil, err
				}
				m.Set(key, val)
			}
			if _, err := nextToken(dec); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			seq := document.NewSequence()
			for dec.More() {
				item, err := decodeJSONValue(dec, depth+1)
				if err != nil {
					return nil, err
				}
				seq.Append(item)
			}
			if _, err := nextToken(dec); err != nil {
				return nil, err
			}
			return seq, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", rune(v))
		}
	case json.Number:
		return document.NewNumber(v.String()), nil
	case string:
		return document.NewString(v), nil
	case bool:
		return document.NewBool(v), nil
	case nil:
		return document.NewNull(), nil
	default:
		return nil, fmt.Errorf("unexpected token %v", tok)
	}
}

func jsonSyntaxError(input string, dec *json.Decoder, err error) error {
	offset := int(dec.InputOffset())
	var se *json.SyntaxError
	if errors.As(err, &se) {
		offset = int(se.Offset)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return &SyntaxError{Format: format.JSON, Line: lineAt(input, len(input)), Msg: "unexpected end of input", Err: err}
	}
	return syntaxError(format.JSON, lineAt(input, offset), err)
}

// lineAt returns the 1-based line containing byte offset.
func lineAt(input string, offset int) int {
	if offset > len(input) {
		offset = len(input)
	}
	if offset < 0 {
		offset = 0
	}
	return strings.Count(input[:offset], "\n") + 1
}

func (jsonCodec) Encode(n *document.Node, opts Options) (string, []Warning, error) {
	var buf bytes.Buffer
	indent := strings.Repeat(" ", opts.IndentOrDefault())
	if err := writeJSON(&buf, n, indent, 0); err != nil {
		return "", nil, err
	}
	buf.WriteByte('\n')
	return buf.String(), nil, nil
}

func writeJSON(buf *bytes.Buffer, n *document.Node, indent string, depth int) error {
	if n == nil {
		buf.WriteString("null")
		return nil
	}

	switch n.Kind {
	case document.Null:
		buf.WriteString("null")
	case document.Bool:
		if n.Bool {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case document.Number:
		if _, ok := document.ParseNumber(n.Text); ok {
			buf.WriteString(n.Text)
		} else {
			writeJSONString(buf, n.Text)
		}
	case document.String:
		writeJSONString(buf, n.Text)
	case document.Sequence:
		if len(n.Items) == 0 {
			buf.WriteString("[]")
			return nil
		}
		buf.WriteByte('[')
		for i, item := range n.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			newline(buf, indent, depth+1)
			if err := writeJSON(buf, item, indent, depth+1); err != nil {
				return err
			}
		}
		newline(buf, indent, depth)
		buf.WriteByte(']')
	case document.Mapping:
		if len(n.Entries) == 0 {
			buf.WriteString("{}")
			return nil
		}
		buf.WriteByte('{')
		for i, e := range n.Entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			newline(buf, indent, depth+1)
			writeJSONString(buf, e.Key)
			buf.WriteByte(':')
			if indent != "" {
				buf.WriteByte(' ')
			}
			if err := writeJSON(buf, e.Value, indent, depth+1); err != nil {
				return err
			}
		}
		newline(buf, indent, depth)
		buf.WriteByte('}')
	default:
		return fmt.Errorf("json: unsupported node kind %s", n.Kind)
	}
	return nil
}

// newline starts a new indented line. An empty indent writes compact output.
func newline(buf *bytes.Buffer, indent string, depth int) {
	if indent == "" {
		return
	}
	buf.WriteByte('\n')
	buf.WriteString(strings.Repeat(indent, depth))
}

// writeJSONString writes s as a JSON string without HTML escaping.
func writeJSONString(buf *bytes.Buffer, s string) {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
}

// compactJSON renders n as single-line JSON, used where nested values have to
// be stored as text (SQL cells, HTML cells).
func compactJSON(n *document.Node) string {
	var buf bytes.Buffer
	_ = writeJSON(&buf, n, "", 0)
	return buf.String()
}
