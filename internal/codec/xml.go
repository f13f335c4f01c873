package codec

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/JonMunkholm/formatbridge/internal/document"
	"github.com/JonMunkholm/formatbridge/internal/format"
)

func init() { Register(xmlCodec{}) }

const (
	xmlAttrPrefix = "@"
	xmlTextKey    = "#text"
	xmlItemName   = "item"
	xmlHeader     = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"
)

var (
	xmlNamePattern    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._:-]*$`)
	xmlInvalidNameRun = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

// xmlCodec maps elements to mappings: attributes become "@name" keys, text
// next to attributes or children becomes "#text", and repeated sibling
// elements become sequences. The root element name is the single top-level
// key.
type xmlCodec struct{}

func (xmlCodec) Format() format.ID { return format.XML }

type xmlElement struct {
	name     string
	attrs    []xml.Attr
	children []*xmlElement
	text     strings.Builder
}

func (xmlCodec) Decode(input string, _ Options) (*document.Node, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	dec := xml.NewDecoder(strings.NewReader(input))
	var (
		root  *xmlElement
		stack []*xmlElement
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line, _ := dec.InputPos()
			return nil, syntaxError(format.XML, line, unwrapXMLError(err))
		}

		switch t := tok.(type) {
		case xml.StartElement:
			el := &xmlElement{name: t.Name.Local, attrs: t.Attr}
			if len(stack) == 0 {
				if root != nil {
					line, _ := dec.InputPos()
					return nil, &SyntaxError{Format: format.XML, Line: line, Msg: "multiple root elements"}
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
			if len(stack) > MaxDepth {
				line, _ := dec.InputPos()
				return nil, syntaxError(format.XML, line, errTooDeep())
			}
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if len(bytes.TrimSpace(t)) > 0 {
					line, _ := dec.InputPos()
					return nil, &SyntaxError{Format: format.XML, Line: line, Msg: "text outside root element"}
				}
				continue
			}
			stack[len(stack)-1].text.Write(t)
		}
	}

	if root == nil {
		return nil, &SyntaxError{Format: format.XML, Msg: "no root element"}
	}

	out := document.NewMapping()
	out.Set(root.name, xmlElementNode(root))
	return out, nil
}

func unwrapXMLError(err error) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) {
		return errors.New(se.Msg)
	}
	return err
}

func xmlElementNode(el *xmlElement) *document.Node {
	text := strings.TrimSpace(el.text.String())
	if len(el.attrs) == 0 && len(el.children) == 0 {
		return document.Infer(text)
	}

	m := document.NewMapping()
	for _, a := range el.attrs {
		m.Set(xmlAttrPrefix+xmlAttrName(a.Name), document.Infer(a.Value))
	}

	// Group children by name in first-seen order; repeated names become sequences.
	var order []string
	groups := make(map[string][]*document.Node)
	for _, child := range el.children {
		if _, seen := groups[child.name]; !seen {
			order = append(order, child.name)
		}
		groups[child.name] = append(groups[child.name], xmlElementNode(child))
	}
	for _, name := range order {
		nodes := groups[name]
		if len(nodes) == 1 {
			m.Set(name, nodes[0])
		} else {
			m.Set(name, document.NewSequence(nodes...))
		}
	}

	if text != "" {
		m.Set(xmlTextKey, document.Infer(text))
	}
	return m
}

func xmlAttrName(n xml.Name) string {
	switch {
	case n.Space == "xmlns":
		return "xmlns:" + n.Local
	default:
		return n.Local
	}
}

func (xmlCodec) Encode(n *document.Node, opts Options) (string, []Warning, error) {
	w := &xmlWriter{
		indent:  strings.Repeat(" ", opts.IndentOrDefault()),
		renamed: make(map[string]bool),
	}
	w.buf.WriteString(xmlHeader)

	rootName := opts.RootNameOrDefault()
	value := n
	if n != nil && n.Kind == document.Mapping && len(n.Entries) == 1 && opts.RootName == "" {
		only := n.Entries[0]
		if only.Value.IsNull() || only.Value.Kind != document.Sequence {
			rootName, value = only.Key, only.Value
		}
	}

	w.element(rootName, value, 0)
	return w.buf.String(), w.warnings, nil
}

type xmlWriter struct {
	buf      bytes.Buffer
	indent   string
	warnings []Warning
	renamed  map[string]bool
}

func (w *xmlWriter) name(key string) string {
	if xmlNamePattern.MatchString(key) {
		return key
	}
	safe := xmlInvalidNameRun.ReplaceAllString(key, "_")
	if safe == "" || !xmlNamePattern.MatchString(safe) {
		safe = "_" + safe
	}
	if !w.renamed[key] {
		w.renamed[key] = true
		w.warnings = append(w.warnings, warn(WarnRenamed, "key %q is not a valid XML name; written as <%s>", key, safe))
	}
	return safe
}

func (w *xmlWriter) pad(depth int) {
	w.buf.WriteString(strings.Repeat(w.indent, depth))
}

func (w *xmlWriter) text(s string) {
	_ = xml.EscapeText(&w.buf, []byte(s))
}

func (w *xmlWriter) element(key string, n *document.Node, depth int) {
	name := w.name(key)
	w.pad(depth)

	if n.IsScalar() {
		if n.IsNull() {
			fmt.Fprintf(&w.buf, "<%s/>\n", name)
			return
		}
		fmt.Fprintf(&w.buf, "<%s>", name)
		w.text(n.ScalarText())
		fmt.Fprintf(&w.buf, "</%s>\n", name)
		return
	}

	if n.Kind == document.Sequence {
		if len(n.Items) == 0 {
			fmt.Fprintf(&w.buf, "<%s/>\n", name)
			return
		}
		fmt.Fprintf(&w.buf, "<%s>\n", name)
		for _, item := range n.Items {
			w.element(xmlItemName, item, depth+1)
		}
		w.pad(depth)
		fmt.Fprintf(&w.buf, "</%s>\n", name)
		return
	}

	// Mapping: split attributes, text and child elements.
	var (
		text     *document.Node
		children []document.Entry
	)
	fmt.Fprintf(&w.buf, "<%s", name)
	for _, e := range n.Entries {
		switch {
		case e.Key == xmlTextKey:
			text = e.Value
		case strings.HasPrefix(e.Key, xmlAttrPrefix) && len(e.Key) > 1:
			w.attr(e.Key[1:], e.Value)
		default:
			children = append(children, e)
		}
	}

	if len(children) == 0 {
		if text.IsNull() {
			w.buf.WriteString("/>\n")
			return
		}
		w.buf.WriteByte('>')
		w.text(w.scalarOrJSON(xmlTextKey, text))
		fmt.Fprintf(&w.buf, "</%s>\n", name)
		return
	}

	w.buf.WriteString(">\n")
	if !text.IsNull() {
		w.pad(depth + 1)
		w.text(w.scalarOrJSON(xmlTextKey, text))
		w.buf.WriteByte('\n')
	}
	for _, e := range children {
		if e.Value != nil && e.Value.Kind == document.Sequence && len(e.Value.Items) > 0 {
			for _, item := range e.Value.Items {
				w.element(e.Key, item, depth+1)
			}
			continue
		}
		w.element(e.Key, e.Value, depth+1)
	}
	w.pad(depth)
	fmt.Fprintf(&w.buf, "</%s>\n", name)
}

func (w *xmlWriter) attr(key string, v *document.Node) {
	fmt.Fprintf(&w.buf, " %s=\"", w.name(key))
	w.text(w.scalarOrJSON(xmlAttrPrefix+key, v))
	w.buf.WriteByte('"')
}

func (w *xmlWriter) scalarOrJSON(key string, v *document.Node) string {
	if v.IsScalar() {
		return v.ScalarText()
	}
	w.warnings = append(w.warnings, warn(WarnStringified, "%s holds nested data; written as JSON text", key))
	return compactJSON(v)
}
