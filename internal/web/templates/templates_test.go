package templates

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

type stubCatalog map[string]string

func (c stubCatalog) T(_, key, fallback string) string {
	if v, ok := c[key]; ok {
		return v
	}
	return fallback
}

func (c stubCatalog) Format(locale, key, fallback string, _ map[string]string) string {
	return c.T(locale, key, fallback)
}

func render(t *testing.T, p ErrorPage) string {
	t.Helper()
	var buf bytes.Buffer
	if err := Error(p).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return buf.String()
}

func TestLayout(t *testing.T) {
	got := render(t, ErrorPage{
		Page: Page{
			Locale: "fr",
			Title:  "Erreur & co",
			Languages: []Language{
				{Code: "en", Name: "English", Href: "/en/"},
				{Code: "fr", Name: "Français", Href: "/fr/", Current: true},
				{Code: "xx", Name: "Bad", Href: "javascript:alert(1)"},
			},
			Catalog: stubCatalog{"site.name": "FormatBridge", "page.error_title": "Oups"},
		},
		Status: 404,
		Alert:  Alert{Message: "Introuvable <b>", Code: "HTTP404"},
		Home:   "/fr/",
	})

	for _, want := range []string{
		`<!doctype html><html lang="fr">`,
		`<title>Erreur &amp; co · FormatBridge</title>`,
		`<a class="brand" href="/fr/">FormatBridge</a>`,
		`<a href="/en/" hreflang="en">English</a>`,
		`<a href="/fr/" hreflang="fr" aria-current="true">Français</a>`,
		`href="about:invalid#TemplFailedSanitizationURL"`,
		`<main>`,
		`<h1>Oups</h1>`,
		`Introuvable &lt;b&gt;`,
		`</main><footer class="site">`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output is missing %q\n%s", want, got)
		}
	}
	if strings.Contains(got, "javascript:") {
		t.Error("unsafe language link was rendered")
	}
}

func TestLayout_UntitledPage(t *testing.T) {
	got := render(t, ErrorPage{Page: Page{Locale: "en"}})
	if !strings.Contains(got, "<title>site.name</title>") {
		t.Errorf("title without page title or catalog:\n%s", got)
	}
}
