package web

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/formatbridge/internal/codec"
	"github.com/JonMunkholm/formatbridge/internal/core"
	"github.com/JonMunkholm/formatbridge/internal/format"
	"github.com/JonMunkholm/formatbridge/internal/logging"
	"github.com/JonMunkholm/formatbridge/internal/pdftool"
	"github.com/JonMunkholm/formatbridge/internal/web/templates"
	"github.com/go-chi/chi/v5"
)

// toolResponse is the JSON form of a tool result, for API clients that ask
// for application/json instead of the raw file.
type toolResponse struct {
	FileName    string          `json:"fileName"`
	ContentType string          `json:"contentType"`
	Size        int             `json:"size"`
	Data        []byte          `json:"data"`
	Warnings    []codec.Warning `json:"warnings,omitempty"`
	Summary     map[string]any  `json:"summary,omitempty"`
}

// handleToolPage renders the upload form of a tool.
func (s *Server) handleToolPage(w http.ResponseWriter, r *http.Request) {
	def, ok := core.GetTool(chi.URLParam(r, "tool"))
	if !ok {
		s.respondError(w, r, errNotFound, http.StatusNotFound)
		return
	}
	s.render(w, r, http.StatusOK, templates.Tool(s.toolPage(r, def)))
}

// handleRunToolPage runs a tool on the uploaded file and sends the result as
// a download. Failures re-render the form with the error.
func (s *Server) handleRunToolPage(w http.ResponseWriter, r *http.Request) {
	def, ok := core.GetTool(chi.URLParam(r, "tool"))
	if !ok {
		s.respondError(w, r, errNotFound, http.StatusNotFound)
		return
	}

	out, err := s.runTool(w, r, def.Info.Slug)
	if err != nil {
		msg := s.userMessage(r, err)
		page := s.toolPage(r, def)
		page.Error = &templates.Alert{Message: msg.Message, Action: msg.Action, Code: msg.Code}
		s.render(w, r, statusForCode(msg.Code), templates.Tool(page))
		return
	}
	sendFile(w, out)
}

// handleRunToolAPI runs a tool for API clients. The result is the raw file,
// or a JSON document with the file base64 encoded when the client accepts
// application/json.
func (s *Server) handleRunToolAPI(w http.ResponseWriter, r *http.Request) {
	out, err := s.runTool(w, r, chi.URLParam(r, "tool"))
	if err != nil {
		s.respondError(w, r, err, statusForCode(core.MapError(err).Code))
		return
	}

	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, r, http.StatusOK, toolResponse{
			FileName:    out.FileName,
			ContentType: out.ContentType,
			Size:        len(out.Data),
			Data:        out.Data,
			Warnings:    out.Warnings,
			Summary:     out.Summary,
		})
		return
	}
	sendFile(w, out)
}

// runTool reads the multipart upload and runs the tool.
func (s *Server) runTool(w http.ResponseWriter, r *http.Request, slug string) (*core.ToolOutput, error) {
	if _, ok := core.GetTool(slug); !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownTool, slug)
	}
	in, err := s.readToolUpload(w, r)
	if err != nil {
		return nil, err
	}
	return s.service.RunTool(r.Context(), slug, in, progressLogger(r))
}

// readToolUpload reads the "file" part and the tool parameters.
func (s *Server) readToolUpload(w http.ResponseWriter, r *http.Request) (core.ToolInput, error) {
	limit := s.cfg.Convert.MaxUploadSize
	if err := parseForm(w, r, limit+formOverhead); err != nil {
		return core.ToolInput{}, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return core.ToolInput{}, core.ErrNoFile
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return core.ToolInput{}, fmt.Errorf("read upload: %w", err)
	}

	params := core.ToolParams{
		Opacity: s.cfg.Convert.DarkOpacity,
		Sheet:   strings.TrimSpace(r.FormValue("sheet")),
		Target:  format.ID(strings.ToLower(strings.TrimSpace(r.FormValue("target")))),
		Options: parseOptions(r.Form),
	}
	if raw := strings.TrimSpace(r.FormValue("opacity")); raw != "" {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return core.ToolInput{}, fmt.Errorf("%w: opacity %q", errBadRequest, raw)
		}
		params.Opacity = f
	}
	if raw := r.FormValue("invert"); raw != "" {
		params.Invert, _ = strconv.ParseBool(raw)
	}

	return core.ToolInput{
		FileName: filepath.Base(header.Filename),
		Data:     data,
		Params:   params,
	}, nil
}

// progressLogger reports tool progress at debug level.
func progressLogger(r *http.Request) pdftool.Progress {
	logger := logging.FromContext(r.Context())
	return func(percent int) {
		logger.Debug("tool progress", "path", r.URL.Path, "percent", percent)
	}
}

// toolPage fills the form of a tool.
func (s *Server) toolPage(r *http.Request, def core.ToolDefinition) templates.ToolPage {
	locale := s.localeFor(r)
	info := def.Info
	name := s.catalog.T(locale, info.NameKey(), info.Name)

	page := templates.ToolPage{
		Page:        s.basePage(r, locale, name),
		Action:      "/" + locale + "/tools/" + info.Slug,
		Slug:        info.Slug,
		Name:        name,
		Description: s.catalog.T(locale, info.DescriptionKey(), ""),
		Accept:      info.Accept,
	}

	switch info.Slug {
	case core.ToolPDFDarkMode:
		page.DarkMode = true
		page.Opacity = s.cfg.Convert.DarkOpacity
	case core.ToolXLSXExport:
		page.Export = true
		for _, d := range format.All() {
			page.Targets = append(page.Targets, templates.Option{
				Value:    string(d.ID),
				Label:    d.LocalizedLabel(s.catalog, locale),
				Selected: d.ID == format.JSON,
			})
		}
	}
	return page
}
