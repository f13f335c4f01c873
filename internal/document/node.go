// Package document defines the format-agnostic tree every codec decodes into
// and encodes from.
//
// A Node is a scalar (null, bool, number, string), a sequence of nodes, or a
// mapping with ordered, unique string keys. Numbers keep their literal text so
// that values such as "1.0" or 20-digit integers survive a round trip through
// formats that would otherwise widen them to float64.
package document

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the type of a Node.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Sequence
	Mapping
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Node is one value in the intermediate representation.
// Only the fields relevant to Kind are set.
type Node struct {
	Kind    Kind
	Bool    bool
	Text    string // number literal or string value
	Items   []*Node
	Entries []Entry
}

// Entry is one key/value pair of a mapping.
type Entry struct {
	Key   string
	Value *Node
}

// NewNull returns a null scalar.
func NewNull() *Node { return &Node{Kind: Null} }

// NewBool returns a bool scalar.
func NewBool(b bool) *Node { return &Node{Kind: Bool, Bool: b} }

// NewString returns a string scalar.
func NewString(s string) *Node { return &Node{Kind: String, Text: s} }

// NewNumber returns a number scalar for a literal that satisfies the JSON
// number grammar. Other literals are stored as strings; use ParseNumber to
// find out which one you got.
func NewNumber(literal string) *Node {
	if n, ok := ParseNumber(literal); ok {
		return n
	}
	return NewString(literal)
}

// NewInt returns a number scalar for i.
func NewInt(i int64) *Node {
	return &Node{Kind: Number, Text: strconv.FormatInt(i, 10)}
}

// NewFloat returns a number scalar for f. NaN and infinities have no number
// literal in the supported formats and become strings.
func NewFloat(f float64) *Node {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return NewString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return &Node{Kind: Number, Text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// NewSequence returns a sequence holding items.
func NewSequence(items ...*Node) *Node {
	if items == nil {
		items = []*Node{}
	}
	return &Node{Kind: Sequence, Items: items}
}

// NewMapping returns an empty mapping.
func NewMapping() *Node {
	return &Node{Kind: Mapping, Entries: []Entry{}}
}

// IsScalar reports whether n is null, bool, number or string.
func (n *Node) IsScalar() bool {
	return n == nil || n.Kind <= String
}

// IsNull reports whether n is nil or a null scalar.
func (n *Node) IsNull() bool {
	return n == nil || n.Kind == Null
}

// Len returns the number of items or entries. Scalars have length 0.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.Kind {
	case Sequence:
		return len(n.Items)
	case Mapping:
		return len(n.Entries)
	default:
		return 0
	}
}

// Set stores value under key. An existing key keeps its position and has its
// value replaced; a new key is appended.
func (n *Node) Set(key string, value *Node) {
	if value == nil {
		value = NewNull()
	}
	for i := range n.Entries {
		if n.Entries[i].Key == key {
			n.Entries[i].Value = value
			return
		}
	}
	n.Entries = append(n.Entries, Entry{Key: key, Value: value})
}

// Get returns the value stored under key.
func (n *Node) Get(key string) (*Node, bool) {
	if n == nil || n.Kind != Mapping {
		return nil, false
	}
	for _, e := range n.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns mapping keys in order.
func (n *Node) Keys() []string {
	if n == nil || n.Kind != Mapping {
		return nil
	}
	keys := make([]string, len(n.Entries))
	for i, e := range n.Entries {
		keys[i] = e.Key
	}
	return keys
}

// Append adds items to a sequence.
func (n *Node) Append(items ...*Node) {
	n.Items = append(n.Items, items...)
}

// Float returns the numeric value of a number scalar.
func (n *Node) Float() (float64, bool) {
	if n == nil || n.Kind != Number {
		return 0, false
	}
	f, err := strconv.ParseFloat(n.Text, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Int returns the value of an integral number scalar that fits in int64.
func (n *Node) Int() (int64, bool) {
	if n == nil || n.Kind != Number {
		return 0, false
	}
	i, err := strconv.ParseInt(n.Text, 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// ScalarText renders a scalar as plain text: null is empty, bools are
// "true"/"false", numbers keep their literal. Containers return "".
func (n *Node) ScalarText() string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case Bool:
		return strconv.FormatBool(n.Bool)
	case Number, String:
		return n.Text
	default:
		return ""
	}
}

// IsRecords reports whether n is a non-empty sequence whose items are all
// mappings. Records are the tabular shape CSV, SQL and tables work with.
func (n *Node) IsRecords() bool {
	if n == nil || n.Kind != Sequence || len(n.Items) == 0 {
		return false
	}
	for _, item := range n.Items {
		if item == nil || item.Kind != Mapping {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Kind: n.Kind, Bool: n.Bool, Text: n.Text}
	if n.Items != nil {
		c.Items = make([]*Node, len(n.Items))
		for i, item := range n.Items {
			c.Items[i] = item.Clone()
		}
	}
	if n.Entries != nil {
		c.Entries = make([]Entry, len(n.Entries))
		for i, e := range n.Entries {
			c.Entries[i] = Entry{Key: e.Key, Value: e.Value.Clone()}
		}
	}
	return c
}
