// Package codec decodes each supported format into the document tree and
// encodes document trees back into text.
//
// Codecs register themselves in init. Each one documents the lossy steps it
// takes and reports them as warnings from Encode, so callers can show the
// user what did not survive the conversion.
package codec

import (
	"errors"
	"fmt"
	"sync"

	"github.com/JonMunkholm/formatbridge/internal/document"
	"github.com/JonMunkholm/formatbridge/internal/format"
)

// Codec reads and writes one format.
type Codec interface {
	Format() format.ID
	Decode(input string, opts Options) (*document.Node, error)
	Encode(n *document.Node, opts Options) (string, []Warning, error)
}

// Options tune individual codecs. Zero values select the defaults; Indent is
// a pointer so an explicit 0 (compact JSON) differs from unset.
type Options struct {
	Indent    *int   `json:"indent,omitempty" yaml:"indent,omitempty"`
	TableName string `json:"table_name,omitempty" yaml:"table_name,omitempty"`
	Delimiter string `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
	RootName  string `json:"root_name,omitempty" yaml:"root_name,omitempty"`
}

const (
	DefaultIndent    = 2
	DefaultTableName = "data"
	DefaultRootName  = "root"
)

// Indent returns a pointer to n for use in Options.
func Indent(n int) *int {
	return &n
}

// IndentOrDefault returns the configured indent clamped to 0..8, or
// DefaultIndent when unset.
func (o Options) IndentOrDefault() int {
	if o.Indent == nil {
		return DefaultIndent
	}
	return min(max(*o.Indent, 0), 8)
}

// TableNameOrDefault returns the SQL table name to use.
func (o Options) TableNameOrDefault() string {
	if o.TableName == "" {
		return DefaultTableName
	}
	return o.TableName
}

// RootNameOrDefault returns the XML root element name to use.
func (o Options) RootNameOrDefault() string {
	if o.RootName == "" {
		return DefaultRootName
	}
	return o.RootName
}

// WarningType categorizes a lossy conversion step.
type WarningType string

const (
	WarnFlattened     WarningType = "flattened"      // nested values written as dot-path columns
	WarnStringified   WarningType = "stringified"    // nested values written as JSON text
	WarnTypeCoerced   WarningType = "type_coerced"   // value type changed to fit the target
	WarnDroppedData   WarningType = "dropped_data"   // part of the input has no place in the target
	WarnRenamed       WarningType = "renamed"        // key changed to satisfy target naming rules
	WarnProseFallback WarningType = "prose_fallback" // content treated as free text
)

// Warning describes one lossy step taken while encoding.
type Warning struct {
	Type    WarningType `json:"type"`
	Message string      `json:"message"`
}

func warn(t WarningType, format string, args ...any) Warning {
	return Warning{Type: t, Message: fmt.Sprintf(format, args...)}
}

// ErrEmptyInput is returned by Decode for blank input.
var ErrEmptyInput = errors.New("empty input")

// MaxDepth caps nesting in the recursive decoders, the same limit yaml.v3
// applies to YAML input.
const MaxDepth = 10000

func errTooDeep() error {
	return fmt.Errorf("exceeded max depth of %d", MaxDepth)
}

// SyntaxError reports malformed input. Line is 1-based; 0 means unknown.
type SyntaxError struct {
	Format format.ID
	Line   int
	Msg    string
	Err    error
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s syntax error on line %d: %s", e.Format, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s syntax error: %s", e.Format, e.Msg)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

func syntaxError(id format.ID, line int, err error) *SyntaxError {
	return &SyntaxError{Format: id, Line: line, Msg: err.Error(), Err: err}
}

var (
	registry   = make(map[format.ID]Codec)
	registryMu sync.RWMutex
)

// Register adds a codec to the registry.
// Panics if a codec for the same format is already registered.
func Register(c Codec) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[c.Format()]; exists {
		panic(fmt.Sprintf("codec already registered: %s", c.Format()))
	}
	registry[c.Format()] = c
}

// Get returns the codec for a format.
func Get(id format.ID) (Codec, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	c, ok := registry[id]
	return c, ok
}

