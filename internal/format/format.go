// Package format defines the static set of supported document formats and
// the conversion pairs derived from them.
//
// The registry is fixed at compile time. Every format can be converted into
// every other format, so the pair list is the cartesian product of the
// registry minus identity pairs. Pairs are addressed in URLs by their slug,
// "source-to-target".
package format

import "strings"

// ID identifies a supported format. IDs are lowercase and stable; they appear
// in URLs, API payloads and translation keys.
type ID string

const (
	JSON     ID = "json"
	CSV      ID = "csv"
	XML      ID = "xml"
	YAML     ID = "yaml"
	SQL      ID = "sql"
	Markdown ID = "markdown"
	HTML     ID = "html"
)

// String returns the raw identifier.
func (id ID) String() string {
	return string(id)
}

// Descriptor is the static metadata record for one supported format.
type Descriptor struct {
	ID          ID     `json:"id"`
	Label       string `json:"label"`
	Extension   string `json:"extension"`
	MIMEType    string `json:"mime_type"`
	Placeholder string `json:"placeholder"`
	Color       string `json:"color"`

	// Aliases are alternative names accepted by Lookup (e.g. "yml", "md").
	Aliases []string `json:"-"`
}

// FileName returns base with this format's extension appended.
func (d Descriptor) FileName(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "converted"
	}
	return base + "." + d.Extension
}

// Translator resolves a translation key for a locale.
// The boolean result reports whether a translation exists.
type Translator interface {
	Translate(locale, key string) (string, bool)
}

// LabelKey is the translation key for a format's display label.
func LabelKey(id ID) string {
	return "format." + string(id) + ".label"
}

// DescriptionKey is the translation key for a format's description.
func DescriptionKey(id ID) string {
	return "format." + string(id) + ".description"
}

// LocalizedLabel returns the label for locale, falling back to the default
// label when no translation is available.
func (d Descriptor) LocalizedLabel(t Translator, locale string) string {
	if t != nil {
		if s, ok := t.Translate(locale, LabelKey(d.ID)); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return d.Label
}

// LocalizedDescription returns the description for locale. When no
// translation exists it falls back to a generic sentence built from the
// default label.
func (d Descriptor) LocalizedDescription(t Translator, locale string) string {
	if t != nil {
		if s, ok := t.Translate(locale, DescriptionKey(d.ID)); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return d.Label + " document"
}
