// Package i18n holds the translation catalogs and Accept-Language
// negotiation.
//
// Catalogs are YAML dictionaries, one file per locale, embedded at build
// time. Nested keys are flattened with dots, so
//
//	format:
//	  json:
//	    label: JSON
//
// is looked up as "format.json.label". A key missing from a locale falls back
// to the default locale.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when negotiation finds no supported locale and as
// the fallback catalog for missing keys.
const DefaultLocale = "en"

//go:embed locales/*.yaml
var embeddedLocales embed.FS

// Catalog maps locale -> flattened key -> message.
type Catalog struct {
	defaultLocale string
	messages      map[string]map[string]string
	locales       []string
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// Default returns the catalog built from the embedded locale files.
func Default() *Catalog {
	defaultCatalogOnce.Do(func() {
		sub, err := fs.Sub(embeddedLocales, "locales")
		if err != nil {
			panic(err)
		}
		c, err := Load(sub, DefaultLocale)
		if err != nil {
			// Embedded files are part of the binary; a parse failure is a
			// build defect.
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load reads every *.yaml file at the root of fsys. The file name without
// extension is the locale code.
func Load(fsys fs.FS, defaultLocale string) (*Catalog, error) {
	files, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list locale files: %w", err)
	}

	c := &Catalog{
		defaultLocale: defaultLocale,
		messages:      make(map[string]map[string]string, len(files)),
	}

	for _, name := range files {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}

		locale := strings.ToLower(strings.TrimSuffix(path.Base(name), path.Ext(name)))
		msgs := make(map[string]string)
		flattenMessages("", tree, msgs)
		c.messages[locale] = msgs
		c.locales = append(c.locales, locale)
	}

	if _, ok := c.messages[defaultLocale]; !ok {
		return nil, fmt.Errorf("default locale %q has no catalog", defaultLocale)
	}

	sort.Strings(c.locales)
	return c, nil
}

func flattenMessages(prefix string, v any, out map[string]string) {
	switch v := v.(type) {
	case map[string]any:
		for k, child := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			flattenMessages(key, child, out)
		}
	case nil:
	default:
		out[prefix] = fmt.Sprint(v)
	}
}

// Locales returns the locales that have a catalog, sorted.
func (c *Catalog) Locales() []string {
	out := make([]string, len(c.locales))
	copy(out, c.locales)
	return out
}

// DefaultLocale returns the fallback locale of the catalog.
func (c *Catalog) DefaultLocale() string {
	return c.defaultLocale
}

// Has reports whether locale has its own catalog.
func (c *Catalog) Has(locale string) bool {
	_, ok := c.messages[strings.ToLower(locale)]
	return ok
}

// Translate returns the message for key in locale, falling back to the
// default locale.
func (c *Catalog) Translate(locale, key string) (string, bool) {
	if msgs, ok := c.messages[strings.ToLower(locale)]; ok {
		if s, ok := msgs[key]; ok {
			return s, true
		}
	}
	s, ok := c.messages[c.defaultLocale][key]
	return s, ok
}

// T returns the message for key in locale, or fallback when neither the
// locale nor the default locale defines it.
func (c *Catalog) T(locale, key, fallback string) string {
	if s, ok := c.Translate(locale, key); ok && s != "" {
		return s
	}
	return fallback
}

// Format is T with {name} placeholders replaced from vars.
func (c *Catalog) Format(locale, key, fallback string, vars map[string]string) string {
	s := c.T(locale, key, fallback)
	if len(vars) == 0 {
		return s
	}
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// T looks key up in the default catalog.
func T(locale, key, fallback string) string {
	return Default().T(locale, key, fallback)
}
