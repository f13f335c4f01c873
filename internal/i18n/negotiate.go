package i18n

import (
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// SupportedLocales are the locales served by default, in display order.
var SupportedLocales = []string{"en", "es", "fr", "de", "pt", "it", "ja", "zh"}

// Negotiator picks a locale from an Accept-Language header.
type Negotiator struct {
	Supported []string
	Default   string

	matcher language.Matcher
}

// NewNegotiator returns a negotiator for the given locales. An empty list
// means SupportedLocales; an empty default means DefaultLocale.
func NewNegotiator(supported []string, def string) *Negotiator {
	if len(supported) == 0 {
		supported = SupportedLocales
	}
	if def == "" {
		def = DefaultLocale
	}
	norm := make([]string, 0, len(supported))
	tags := make([]language.Tag, 0, len(supported))
	for _, s := range supported {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			norm = append(norm, s)
			tags = append(tags, language.Make(s))
		}
	}
	return &Negotiator{
		Supported: norm,
		Default:   strings.ToLower(def),
		matcher:   language.NewMatcher(tags),
	}
}

// IsSupported reports whether locale is one of the negotiable locales.
func (n *Negotiator) IsSupported(locale string) bool {
	locale = strings.ToLower(locale)
	for _, s := range n.Supported {
		if s == locale {
			return true
		}
	}
	return false
}

// Negotiate returns the supported locale matching the highest-quality entry
// of the header. Regional tags match their language (fr-CA is fr). Entries
// with q=0, wildcards and malformed entries are ignored. Ties keep header
// order.
func (n *Negotiator) Negotiate(acceptLanguage string) string {
	// Each entry is matched on its own: Matcher.Match over the whole list
	// ranks by confidence, which would let a low-q exact match win.
	for _, tag := range acceptedTags(acceptLanguage) {
		if _, i, conf := n.matcher.Match(tag); conf != language.No {
			return n.Supported[i]
		}
	}
	return n.Default
}

// acceptedTags parses an Accept-Language header into tags ordered by
// quality. language.ParseAcceptLanguage rejects the whole header on one bad
// entry, so on failure the entries are parsed one by one and the bad ones
// dropped.
func acceptedTags(header string) []language.Tag {
	tags, _, err := language.ParseAcceptLanguage(header)
	if err == nil {
		return tags
	}

	type weighted struct {
		tag language.Tag
		q   float32
	}
	var entries []weighted
	for _, part := range strings.Split(header, ",") {
		t, q, err := language.ParseAcceptLanguage(part)
		if err != nil || len(t) == 0 {
			continue
		}
		entries = append(entries, weighted{tag: t[0], q: q[0]})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].q > entries[j].q })

	tags = make([]language.Tag, len(entries))
	for i, e := range entries {
		tags[i] = e.tag
	}
	return tags
}

var defaultNegotiator = NewNegotiator(nil, "")

// Negotiate picks one of SupportedLocales, defaulting to English.
func Negotiate(acceptLanguage string) string {
	return defaultNegotiator.Negotiate(acceptLanguage)
}
