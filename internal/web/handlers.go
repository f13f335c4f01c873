package web

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/formatbridge/internal/core"
	"github.com/JonMunkholm/formatbridge/internal/format"
	"github.com/JonMunkholm/formatbridge/internal/logging"
	"github.com/JonMunkholm/formatbridge/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// handleIndex renders the list of conversions, tools and recent files.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	locale := s.localeFor(r)

	var groups []templates.ConversionGroup
	for _, d := range format.All() {
		src := s.formatView(locale, d)
		group := templates.ConversionGroup{Source: src}
		for _, p := range format.PairsFrom(d.ID) {
			group.Links = append(group.Links, templates.Link{
				Href:  "/" + locale + "/" + p.Slug(),
				Label: src.Label + " → " + format.Label(s.catalog, locale, p.Target),
			})
		}
		groups = append(groups, group)
	}

	var tools []templates.ToolCard
	for _, t := range core.Tools() {
		tools = append(tools, templates.ToolCard{
			Href:        "/" + locale + "/tools/" + t.Slug,
			Name:        s.catalog.T(locale, t.NameKey(), t.Name),
			Description: s.catalog.T(locale, t.DescriptionKey(), ""),
		})
	}

	s.render(w, r, http.StatusOK, templates.Index(templates.IndexPage{
		Page:   s.basePage(r, locale, ""),
		Groups: groups,
		Tools:  tools,
		Recent: s.recentItems(r, locale),
	}))
}

// recentItems loads the client's recent list. Failures are logged and shown
// as an empty list.
func (s *Server) recentItems(r *http.Request, locale string) []templates.RecentItem {
	entries, err := s.service.Recent(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Warn("load recent list", "error", err)
		return nil
	}

	items := make([]templates.RecentItem, 0, len(entries))
	for _, e := range entries {
		item := templates.RecentItem{
			FileName:  e.FileName,
			Operation: e.Operation,
			Size:      e.Size,
			CreatedAt: e.CreatedAt,
		}
		if _, err := format.ParseSlug(e.Operation); err == nil {
			item.Href = "/" + locale + "/" + e.Operation
		} else if _, ok := core.GetTool(e.Operation); ok {
			item.Href = "/" + locale + "/tools/" + e.Operation
		}
		items = append(items, item)
	}
	return items
}

// handleConvertPage renders the empty form of a conversion.
func (s *Server) handleConvertPage(w http.ResponseWriter, r *http.Request) {
	pair, err := format.ParseSlug(chi.URLParam(r, "slug"))
	if err != nil {
		s.respondError(w, r, errNotFound, http.StatusNotFound)
		return
	}
	page := s.convertPage(r, pair)
	s.render(w, r, http.StatusOK, templates.Convert(page))
}

// handleConvertForm converts the posted input, from the textarea or an
// uploaded file, and renders the page with the result.
func (s *Server) handleConvertForm(w http.ResponseWriter, r *http.Request) {
	pair, err := format.ParseSlug(chi.URLParam(r, "slug"))
	if err != nil {
		s.respondError(w, r, errNotFound, http.StatusNotFound)
		return
	}
	page := s.convertPage(r, pair)

	if err := parseForm(w, r, s.cfg.Convert.MaxInputSize+formOverhead); err != nil {
		msg := s.userMessage(r, err)
		page.Error = &templates.Alert{Message: msg.Message, Action: msg.Action, Code: msg.Code}
		s.render(w, r, statusForCode(msg.Code), templates.Convert(page))
		return
	}

	input := r.FormValue("input")
	fileName := strings.TrimSpace(r.FormValue("file_name"))
	if file, header, err := r.FormFile("file"); err == nil {
		data, readErr := io.ReadAll(io.LimitReader(file, s.cfg.Convert.MaxInputSize+1))
		file.Close()
		if readErr == nil && len(data) > 0 {
			input = string(data)
			fileName = filepath.Base(header.Filename)
		}
	}

	opts := parseOptions(r.Form)
	page.Input = input
	page.FileName = fileName
	if opts.Indent != nil {
		page.Indent = *opts.Indent
	}
	if opts.TableName != "" {
		page.TableName = opts.TableName
	}
	page.Delimiter = opts.Delimiter
	page.RootName = opts.RootName

	res := s.service.Convert(r.Context(), fileName, core.Request{
		Input:   input,
		Source:  pair.Source,
		Target:  pair.Target,
		Options: opts,
	})
	if !res.OK {
		msg := core.LocalizedMessage(s.catalog, s.localeFor(r), core.UserMessage{
			Message: res.Error, Action: res.Action, Code: res.Code,
		})
		page.Error = &templates.Alert{Message: msg.Message, Action: msg.Action, Code: msg.Code}
		s.render(w, r, statusForCode(res.Code), templates.Convert(page))
		return
	}

	page.Output = res.Output
	page.Warnings = warningMessages(res.Warnings)
	base := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	page.Download = format.MustLookup(pair.Target).FileName(base)
	s.render(w, r, http.StatusOK, templates.Convert(page))
}

// convertPage fills the static parts of a conversion page.
func (s *Server) convertPage(r *http.Request, pair format.Pair) templates.ConvertPage {
	locale := s.localeFor(r)
	src := format.MustLookup(pair.Source)
	dst := format.MustLookup(pair.Target)
	srcView := s.formatView(locale, src)
	dstView := s.formatView(locale, dst)

	var related []templates.Link
	for _, p := range format.PairsFrom(pair.Source) {
		if p.Target == pair.Target {
			continue
		}
		related = append(related, templates.Link{
			Href:  "/" + locale + "/" + p.Slug(),
			Label: srcView.Label + " → " + format.Label(s.catalog, locale, p.Target),
		})
	}

	title := s.catalog.Format(locale, "page.convert_title", srcView.Label+" → "+dstView.Label,
		map[string]string{"source": srcView.Label, "target": dstView.Label})

	return templates.ConvertPage{
		Page:        s.basePage(r, locale, title),
		Action:      "/" + locale + "/" + pair.Slug(),
		Source:      srcView,
		Target:      dstView,
		SwapHref:    "/" + locale + "/" + format.Slug(pair.Target, pair.Source),
		Placeholder: src.Placeholder,
		Related:     related,
		Indent:      s.cfg.Convert.DefaultIndent,
		TableName:   s.cfg.Convert.DefaultTableName,
	}
}

// handleNotFound answers unknown routes.
func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.respondError(w, r, errNotFound, http.StatusNotFound)
}
