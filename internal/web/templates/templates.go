// Package templates renders the HTML pages of the web interface.
//
// The page shell is the templ component in layout.templ; run templ generate
// after editing it. Page bodies are html/template files embedded in the
// binary and rendered as the layout's children.
package templates

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
)

//go:embed *.html
var files embed.FS

var funcs = template.FuncMap{
	"bytes": humanBytes,
	"date": func(t time.Time) string {
		return t.UTC().Format("2006-01-02 15:04")
	},
	"join": strings.Join,
}

var pages = parsePages("index", "convert", "tool", "error")

// parsePages parses the "content" block of each page file.
func parsePages(names ...string) map[string]*template.Template {
	out := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t := template.Must(template.New(name + ".html").Funcs(funcs).ParseFS(files, name+".html"))
		content := t.Lookup("content")
		if content == nil {
			panic(fmt.Sprintf("templates: %s.html has no content block", name))
		}
		out[name] = content
	}
	return out
}

// page renders the named body inside the layout.
func page(name string, p Page, data any) templ.Component {
	body := templ.FromGoHTML(pages[name], data)
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return layout(p).Render(templ.WithChildren(ctx, body), w)
	})
}

// Index renders the list of conversions and tools.
func Index(p IndexPage) templ.Component { return page("index", p.Page, p) }

// Convert renders a conversion page.
func Convert(p ConvertPage) templ.Component { return page("convert", p.Page, p) }

// Tool renders a tool upload page.
func Tool(p ToolPage) templ.Component { return page("tool", p.Page, p) }

// Error renders a full error page.
func Error(p ErrorPage) templ.Component { return page("error", p.Page, p) }

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
