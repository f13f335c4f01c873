package web

// handlers_common.go holds helpers shared by the page and API handlers.

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/JonMunkholm/formatbridge/internal/codec"
	"github.com/JonMunkholm/formatbridge/internal/core"
	"github.com/JonMunkholm/formatbridge/internal/format"
	"github.com/JonMunkholm/formatbridge/internal/logging"
	"github.com/JonMunkholm/formatbridge/internal/web/templates"
	"github.com/a-h/templ"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// formOverhead is the allowance for form fields on top of the input limit.
const formOverhead = 64 << 10

// render writes an HTML page with the given status.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "path", r.URL.Path, "error", err)
	}
}

// basePage builds the data shared by every page.
func (s *Server) basePage(r *http.Request, locale, title string) templates.Page {
	return templates.Page{
		Locale:    locale,
		Title:     title,
		Languages: s.languages(r, locale),
		Catalog:   s.catalog,
	}
}

// languages links the current page in every supported locale.
func (s *Server) languages(r *http.Request, current string) []templates.Language {
	rest := strings.TrimPrefix(r.URL.Path, "/"+current)
	if !strings.HasPrefix(rest, "/") {
		rest = "/"
	}
	out := make([]templates.Language, 0, len(s.negotiator.Supported))
	for _, code := range s.negotiator.Supported {
		out = append(out, templates.Language{
			Code:    code,
			Name:    languageName(code),
			Href:    "/" + code + rest,
			Current: code == current,
		})
	}
	return out
}

// languageName returns the name of a language in that language, e.g.
// "Deutsch" for "de".
func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return code
}

// formatView returns the localized display data of a format.
func (s *Server) formatView(locale string, d format.Descriptor) templates.Format {
	return templates.Format{
		ID:          string(d.ID),
		Label:       d.LocalizedLabel(s.catalog, locale),
		Description: d.LocalizedDescription(s.catalog, locale),
		Extension:   d.Extension,
		Color:       d.Color,
	}
}

// parseOptions reads codec options from form or query values. Invalid
// numbers are ignored so the configured defaults apply.
func parseOptions(v url.Values) codec.Options {
	opts := codec.Options{
		TableName: strings.TrimSpace(v.Get("table_name")),
		Delimiter: v.Get("delimiter"),
		RootName:  strings.TrimSpace(v.Get("root_name")),
	}
	if raw := strings.TrimSpace(v.Get("indent")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			opts.Indent = codec.Indent(n)
		}
	}
	return opts
}

// parseForm parses urlencoded and multipart bodies up to limit bytes.
func parseForm(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(32 << 20)
	} else {
		err = r.ParseForm()
	}
	if err == nil {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: request body exceeds %d bytes", core.ErrInputTooLarge, tooLarge.Limit)
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

// sendFile writes a tool result as a download.
func sendFile(w http.ResponseWriter, out *core.ToolOutput) {
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	if len(out.Warnings) > 0 {
		w.Header().Set("X-Conversion-Warnings", strconv.Itoa(len(out.Warnings)))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(out.Data)
}

// warningMessages flattens warnings for display.
func warningMessages(ws []codec.Warning) []string {
	out := make([]string, len(ws))
	for i, w := range ws {
		out[i] = w.Message
	}
	return out
}
