package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/formatbridge/internal/document"
	"github.com/JonMunkholm/formatbridge/internal/format"
)

func init() { Register(yamlCodec{}) }

// maxAliasExpansion bounds the number of nodes produced by alias expansion.
const maxAliasExpansion = 10000

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

type yamlCodec struct{}

func (yamlCodec) Format() format.ID { return format.YAML }

// Decode reads one or more YAML documents. A single document yields its
// value; several documents yield a sequence of their values.
func (yamlCodec) Decode(input string, _ Options) (*document.Node, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}

	dec := yaml.NewDecoder(strings.NewReader(input))
	var docs []*document.Node
	for {
		var root yaml.Node
		err := dec.Decode(&root)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, yamlSyntaxError(err)
		}

		conv := yamlConverter{}
		n, err := conv.convert(&root)
		if err != nil {
			return nil, syntaxError(format.YAML, root.Line, err)
		}
		docs = append(docs, n)
	}

	switch len(docs) {
	case 0:
		return document.NewNull(), nil
	case 1:
		return docs[0], nil
	default:
		return document.NewSequence(docs...), nil
	}
}

func yamlSyntaxError(err error) error {
	line := 0
	if m := yamlLinePattern.FindStringSubmatch(err.Error()); m != nil {
		line, _ = strconv.Atoi(m[1])
	}
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	return &SyntaxError{Format: format.YAML, Line: line, Msg: msg, Err: err}
}

type yamlConverter struct {
	expanded int
}

func (c *yamlConverter) convert(y *yaml.Node) (*document.Node, error) {
	switch y.Kind {
	case yaml.DocumentNode:
		if len(y.Content) == 0 {
			return document.NewNull(), nil
		}
		return c.convert(y.Content[0])

	case yaml.AliasNode:
		c.expanded++
		if c.expanded > maxAliasExpansion {
			return nil, fmt.Errorf("too many alias expansions")
		}
		if y.Alias == nil {
			return document.NewNull(), nil
		}
		return c.convert(y.Alias)

	case yaml.SequenceNode:
		seq := document.NewSequence()
		for _, item := range y.Content {
			n, err := c.convert(item)
			if err != nil {
				return nil, err
			}
			seq.Append(n)
		}
		return seq, nil

	case yaml.MappingNode:
		m := document.NewMapping()
		for i := 0; i+1 < len(y.Content); i += 2 {
			key, val := y.Content[i], y.Content[i+1]
			if key.Tag == "!!merge" {
				if err := c.merge(m, val); err != nil {
					return nil, err
				}
				continue
			}
			n, err := c.convert(val)
			if err != nil {
				return nil, err
			}
			m.Set(c.keyText(key), n)
		}
		return m, nil

	case yaml.ScalarNode:
		return yamlScalar(y), nil

	default:
		return nil, fmt.Errorf("unsupported yaml node kind %d", y.Kind)
	}
}

// merge applies a "<<" merge key. Keys already present win.
func (c *yamlConverter) merge(m *document.Node, val *yaml.Node) error {
	sources := []*yaml.Node{val}
	if val.Kind == yaml.SequenceNode {
		sources = val.Content
	}
	for _, src := range sources {
		n, err := c.convert(src)
		if err != nil {
			return err
		}
		if n.Kind != document.Mapping {
			return fmt.Errorf("merge value must be a mapping")
		}
		for _, e := range n.Entries {
			if _, exists := m.Get(e.Key); !exists {
				m.Set(e.Key, e.Value)
			}
		}
	}
	return nil
}

func (c *yamlConverter) keyText(key *yaml.Node) string {
	if key.Kind == yaml.ScalarNode {
		return key.Value
	}
	n, err := c.convert(key)
	if err != nil {
		return key.Value
	}
	return compactJSON(n)
}

func yamlScalar(y *yaml.Node) *document.Node {
	switch y.ShortTag() {
	case "!!null":
		return document.NewNull()
	case "!!bool":
		var b bool
		if err := y.Decode(&b); err == nil {
			return document.NewBool(b)
		}
	case "!!int":
		if n, ok := document.ParseNumber(y.Value); ok {
			return n
		}
		var i int64
		if err := y.Decode(&i); err == nil {
			return document.NewInt(i)
		}
	case "!!float":
		if n, ok := document.ParseNumber(y.Value); ok {
			return n
		}
		var f float64
		if err := y.Decode(&f); err == nil {
			return document.NewFloat(f)
		}
	}
	return document.NewString(y.Value)
}

func (yamlCodec) Encode(n *document.Node, opts Options) (string, []Warning, error) {
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{toYAMLNode(n)}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(opts.IndentOrDefault())
	if err := enc.Encode(doc); err != nil {
		return "", nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.String(), nil, nil
}

func toYAMLNode(n *document.Node) *yaml.Node {
	if n == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}

	switch n.Kind {
	case document.Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case document.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(n.Bool)}
	case document.Number:
		tag := "!!float"
		if _, ok := n.Int(); ok {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: n.Text}
	case document.String:
		y := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n.Text}
		if strings.Contains(strings.TrimRight(n.Text, "\n"), "\n") {
			y.Style = yaml.LiteralStyle
		}
		return y
	case document.Sequence:
		y := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if len(n.Items) == 0 {
			y.Style = yaml.FlowStyle
		}
		for _, item := range n.Items {
			y.Content = append(y.Content, toYAMLNode(item))
		}
		return y
	case document.Mapping:
		y := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		if len(n.Entries) == 0 {
			y.Style = yaml.FlowStyle
		}
		for _, e := range n.Entries {
			y.Content = append(y.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key},
				toYAMLNode(e.Value),
			)
		}
		return y
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
