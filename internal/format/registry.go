package format

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownFormat is returned when an identifier matches no registered format.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrIdentityPair is returned for a pair whose source equals its target.
	ErrIdentityPair = errors.New("unsupported conversion: source and target are the same format")

	// ErrMalformedSlug is returned when a slug is not of the form "source-to-target".
	ErrMalformedSlug = errors.New("malformed conversion slug")
)

// slugSeparator joins source and target in a conversion slug.
const slugSeparator = "-to-"

// descriptors is the canonical, ordered format table.
var descriptors = []Descriptor{
	{
		ID:          JSON,
		Label:       "JSON",
		Extension:   "json",
		MIMEType:    "application/json",
		Placeholder: "[\n  {\"id\": 1, \"name\": \"Ada\", \"tags\": [\"math\"]},\n  {\"id\": 2, \"name\": \"Linus\", \"tags\": [\"kernel\"]}\n]",
		Color:       "#f7df1e",
	},
	{
		ID:          CSV,
		Label:       "CSV",
		Extension:   "csv",
		MIMEType:    "text/csv",
		Placeholder: "id,name,email\n1,Ada,ada@example.com\n2,Linus,linus@example.com",
		Color:       "#22a06b",
	},
	{
		ID:          XML,
		Label:       "XML",
		Extension:   "xml",
		MIMEType:    "application/xml",
		Placeholder: "<?xml version=\"1.0\"?>\n<people>\n  <person id=\"1\"><name>Ada</name></person>\n  <person id=\"2\"><name>Linus</name></person>\n</people>",
		Color:       "#e44d26",
	},
	{
		ID:          YAML,
		Label:       "YAML",
		Extension:   "yaml",
		MIMEType:    "application/yaml",
		Placeholder: "people:\n  - id: 1\n    name: Ada\n  - id: 2\n    name: Linus",
		Color:       "#cb171e",
		Aliases:     []string{"yml"},
	},
	{
		ID:          SQL,
		Label:       "SQL",
		Extension:   "sql",
		MIMEType:    "application/sql",
		Placeholder: "INSERT INTO people (id, name) VALUES\n  (1, 'Ada'),\n  (2, 'Linus');",
		Color:       "#336791",
	},
	{
		ID:          Markdown,
		Label:       "Markdown",
		Extension:   "md",
		MIMEType:    "text/markdown",
		Placeholder: "| id  | name  |\n| --- | ----- |\n| 1   | Ada   |\n| 2   | Linus |",
		Color:       "#083fa1",
		Aliases:     []string{"md", "markdown"},
	},
	{
		ID:          HTML,
		Label:       "HTML",
		Extension:   "html",
		MIMEType:    "text/html",
		Placeholder: "<table>\n  <tr><th>id</th><th>name</th></tr>\n  <tr><td>1</td><td>Ada</td></tr>\n</table>",
		Color:       "#e34c26",
		Aliases:     []string{"htm"},
	},
}

// All returns every supported format in canonical order.
// The returned slice is a copy and may be modified by the caller.
func All() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// IDs returns the identifiers of every supported format in canonical order.
func IDs() []ID {
	ids := make([]ID, len(descriptors))
	for i, d := range descriptors {
		ids[i] = d.ID
	}
	return ids
}

// Lookup finds a format by identifier, extension or alias.
// Matching is case-insensitive and ignores a leading dot.
func Lookup(name string) (Descriptor, bool) {
	name = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".")
	if name == "" {
		return Descriptor{}, false
	}
	for _, d := range descriptors {
		if string(d.ID) == name || d.Extension == name {
			return d, true
		}
		for _, alias := range d.Aliases {
			if alias == name {
				return d, true
			}
		}
	}
	return Descriptor{}, false
}

// MustLookup is like Lookup but panics for unknown identifiers.
// Use it only with the package constants.
func MustLookup(id ID) Descriptor {
	d, ok := Lookup(string(id))
	if !ok {
		panic(fmt.Sprintf("format not registered: %s", id))
	}
	return d
}

// IsKnown reports whether id is a registered format identifier.
// Unlike Lookup it does not accept extensions or aliases.
func IsKnown(id ID) bool {
	for _, d := range descriptors {
		if d.ID == id {
			return true
		}
	}
	return false
}

// IsValidConversion reports whether source can be converted into target.
// Identity pairs and unknown identifiers are rejected.
func IsValidConversion(source, target ID) bool {
	return source != target && IsKnown(source) && IsKnown(target)
}

// Pair is an ordered (source, target) conversion.
type Pair struct {
	Source ID `json:"source"`
	Target ID `json:"target"`
}

// Slug returns the URL slug for the pair.
func (p Pair) Slug() string {
	return Slug(p.Source, p.Target)
}

// Valid reports whether the pair is a supported conversion.
func (p Pair) Valid() bool {
	return IsValidConversion(p.Source, p.Target)
}

// Pairs returns every valid conversion pair in canonical order:
// grouped by source, then by target, identity pairs excluded.
func Pairs() []Pair {
	pairs := make([]Pair, 0, len(descriptors)*(len(descriptors)-1))
	for _, src := range descriptors {
		for _, dst := range descriptors {
			if src.ID == dst.ID {
				continue
			}
			pairs = append(pairs, Pair{Source: src.ID, Target: dst.ID})
		}
	}
	return pairs
}

// PairsFrom returns every valid pair with the given source.
func PairsFrom(source ID) []Pair {
	var pairs []Pair
	for _, p := range Pairs() {
		if p.Source == source {
			pairs = append(pairs, p)
		}
	}
	return pairs
}

// Slug builds the "source-to-target" slug for a conversion.
func Slug(source, target ID) string {
	return string(source) + slugSeparator + string(target)
}

// ParseSlug parses a "source-to-target" slug and validates the pair.
// It returns ErrMalformedSlug, ErrUnknownFormat or ErrIdentityPair on failure.
func ParseSlug(slug string) (Pair, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))

	src, dst, found := strings.Cut(slug, slugSeparator)
	if !found || src == "" || dst == "" {
		return Pair{}, fmt.Errorf("%w: %q", ErrMalformedSlug, slug)
	}

	p := Pair{Source: ID(src), Target: ID(dst)}
	if !IsKnown(p.Source) {
		return Pair{}, fmt.Errorf("%w: %q", ErrUnknownFormat, src)
	}
	if !IsKnown(p.Target) {
		return Pair{}, fmt.Errorf("%w: %q", ErrUnknownFormat, dst)
	}
	if p.Source == p.Target {
		return Pair{}, ErrIdentityPair
	}
	return p, nil
}

// ByExtension finds a format by file extension or alias, e.g. "yml" or ".md".
func ByExtension(ext string) (Descriptor, bool) {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	for _, d := range descriptors {
		if d.Extension == ext {
			return d, true
		}
		for _, alias := range d.Aliases {
			if alias == ext {
				return d, true
			}
		}
	}
	return Descriptor{}, false
}

// Label returns the display label of id for locale. Unknown ids are returned
// unchanged.
func Label(t Translator, locale string, id ID) string {
	d, ok := Lookup(string(id))
	if !ok {
		return string(id)
	}
	return d.LocalizedLabel(t, locale)
}

// Description returns the description of id for locale.
func Description(t Translator, locale string, id ID) string {
	d, ok := Lookup(string(id))
	if !ok {
		return string(id)
	}
	return d.LocalizedDescription(t, locale)
}
