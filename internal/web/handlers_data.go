package web

import (
	"net/http"

	"github.com/JonMunkholm/formatbridge/internal/core"
	"github.com/JonMunkholm/formatbridge/internal/format"
	"github.com/JonMunkholm/formatbridge/internal/history"
)

type formatJSON struct {
	ID          format.ID `json:"id"`
	Label       string    `json:"label"`
	Description string    `json:"description"`
	Extension   string    `json:"extension"`
	MIMEType    string    `json:"mime_type"`
	Color       string    `json:"color"`
	Aliases     []string  `json:"aliases,omitempty"`
}

type conversionJSON struct {
	Source format.ID `json:"source"`
	Target format.ID `json:"target"`
	Slug   string    `json:"slug"`
}

type toolJSON struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Accept      []string `json:"accept"`
	OutputExt   string   `json:"output_ext,omitempty"`
}

// handleListFormats returns every format with labels in the request locale.
func (s *Server) handleListFormats(w http.ResponseWriter, r *http.Request) {
	locale := s.localeFor(r)
	all := format.All()
	out := make([]formatJSON, len(all))
	for i, d := range all {
		out[i] = formatJSON{
			ID:          d.ID,
			Label:       d.LocalizedLabel(s.catalog, locale),
			Description: d.LocalizedDescription(s.catalog, locale),
			Extension:   d.Extension,
			MIMEType:    d.MIMEType,
			Color:       d.Color,
			Aliases:     d.Aliases,
		}
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleListConversions returns the valid pairs, optionally only those from
// ?from=<format>.
func (s *Server) handleListConversions(w http.ResponseWriter, r *http.Request) {
	pairs := format.Pairs()
	if from := r.URL.Query().Get("from"); from != "" {
		d, ok := format.Lookup(from)
		if !ok {
			s.respondError(w, r, format.ErrUnknownFormat, http.StatusBadRequest)
			return
		}
		pairs = format.PairsFrom(d.ID)
	}

	out := make([]conversionJSON, len(pairs))
	for i, p := range pairs {
		out[i] = conversionJSON{Source: p.Source, Target: p.Target, Slug: p.Slug()}
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleListTools returns the registered tools.
func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	locale := s.localeFor(r)
	infos := core.Tools()
	out := make([]toolJSON, len(infos))
	for i, t := range infos {
		out[i] = toolJSON{
			Slug:        t.Slug,
			Name:        s.catalog.T(locale, t.NameKey(), t.Name),
			Description: s.catalog.T(locale, t.DescriptionKey(), ""),
			Accept:      t.Accept,
			OutputExt:   t.OutputExt,
		}
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleListRecent returns the caller's recent files, newest first.
func (s *Server) handleListRecent(w http.ResponseWriter, r *http.Request) {
	entries, err := s.service.Recent(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"entries": entries})
}

// handleClearRecent empties the caller's recent files.
func (s *Server) handleClearRecent(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ClearRecent(r.Context()); err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth reports liveness and the job slots in use.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]any{
		"status": "ok",
		"jobs":   s.service.Jobs(),
	})
}
