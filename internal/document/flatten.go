package document

import (
	"strconv"
	"strings"
)

// PathSeparator joins nested keys in flattened column names.
const PathSeparator = "."

// Flatten turns a node into an ordered mapping of dot paths to scalars.
// Mapping keys and sequence indexes become path segments, so
// {"a": {"b": [1, 2]}} flattens to a.b.0 = 1, a.b.1 = 2. A scalar at the
// top level is stored under "value". Empty containers flatten to a single
// null cell so the column is not lost.
func Flatten(n *Node) *Node {
	out := NewMapping()
	if n.IsScalar() {
		out.Set("value", scalarOrNull(n))
		return out
	}
	flattenInto(out, "", n)
	return out
}

func flattenInto(out *Node, prefix string, n *Node) {
	switch {
	case n.IsScalar():
		out.Set(prefix, scalarOrNull(n))
	case n.Len() == 0:
		if prefix != "" {
			out.Set(prefix, NewNull())
		}
	case n.Kind == Sequence:
		for i, item := range n.Items {
			flattenInto(out, joinPath(prefix, strconv.Itoa(i)), item)
		}
	case n.Kind == Mapping:
		for _, e := range n.Entries {
			flattenInto(out, joinPath(prefix, e.Key), e.Value)
		}
	}
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + PathSeparator + key
}

func scalarOrNull(n *Node) *Node {
	if n == nil {
		return NewNull()
	}
	return n
}

// Unflatten rebuilds nested structure from a flat mapping of dot paths.
// Levels whose keys are exactly 0..n-1 become sequences. Paths that conflict
// with a scalar already stored at a prefix keep the full path as a literal key.
func Unflatten(flat *Node) *Node {
	root := NewMapping()
	if flat == nil || flat.Kind != Mapping {
		return root
	}

	for _, e := range flat.Entries {
		segments := strings.Split(e.Key, PathSeparator)
		if !insertPath(root, segments, e.Value) {
			root.Set(e.Key, e.Value)
		}
	}

	return sequencesFromIndexes(root)
}

func insertPath(root *Node, segments []string, value *Node) bool {
	for _, seg := range segments {
		if seg == "" {
			return false
		}
	}
	cur := root
	for i, seg := range segments {
		last := i == len(segments)-1
		existing, ok := cur.Get(seg)
		if last {
			if ok && !existing.IsScalar() {
				return false
			}
			cur.Set(seg, value)
			return true
		}
		if !ok {
			child := NewMapping()
			cur.Set(seg, child)
			cur = child
			continue
		}
		if existing.Kind != Mapping {
			return false
		}
		cur = existing
	}
	return true
}

func sequencesFromIndexes(n *Node) *Node {
	if n == nil || n.Kind != Mapping {
		return n
	}
	for i := range n.Entries {
		n.Entries[i].Value = sequencesFromIndexes(n.Entries[i].Value)
	}
	if !hasIndexKeys(n) {
		return n
	}
	items := make([]*Node, len(n.Entries))
	for _, e := range n.Entries {
		idx, _ := strconv.Atoi(e.Key)
		items[idx] = e.Value
	}
	return NewSequence(items...)
}

// hasIndexKeys reports whether the keys of m are exactly "0".."len-1".
func hasIndexKeys(m *Node) bool {
	if len(m.Entries) == 0 {
		return false
	}
	seen := make([]bool, len(m.Entries))
	for _, e := range m.Entries {
		idx, err := strconv.Atoi(e.Key)
		if err != nil || idx < 0 || idx >= len(seen) || strconv.Itoa(idx) != e.Key || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

// Columns returns the union of keys across records in first-seen order.
func Columns(records []*Node) []string {
	var cols []string
	seen := make(map[string]bool)
	for _, r := range records {
		for _, k := range r.Keys() {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}

// Records returns n as a list of flat rows for tabular formats, and whether
// any nested value had to be flattened.
//
//   - a sequence of mappings yields one row per mapping
//   - a single mapping yields one row
//   - a sequence of scalars yields one "value" row per item
//   - anything else yields one row from Flatten
func Records(n *Node) (rows []*Node, flattened bool) {
	switch {
	case n.IsRecords():
		rows = make([]*Node, len(n.Items))
		for i, item := range n.Items {
			rows[i], flattened = flattenRow(item, flattened)
		}
		return rows, flattened
	case n != nil && n.Kind == Mapping:
		row, f := flattenRow(n, false)
		return []*Node{row}, f
	case n != nil && n.Kind == Sequence && allScalars(n.Items):
		rows = make([]*Node, len(n.Items))
		for i, item := range n.Items {
			row := NewMapping()
			row.Set("value", scalarOrNull(item))
			rows[i] = row
		}
		return rows, false
	case n.IsScalar():
		return []*Node{Flatten(n)}, false
	default:
		return []*Node{Flatten(n)}, true
	}
}

func flattenRow(m *Node, flattened bool) (*Node, bool) {
	for _, e := range m.Entries {
		if !e.Value.IsScalar() {
			return Flatten(m), true
		}
	}
	return m, flattened
}

func allScalars(items []*Node) bool {
	for _, item := range items {
		if !item.IsScalar() {
			return false
		}
	}
	return true
}
