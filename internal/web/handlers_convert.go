package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/formatbridge/internal/core"
	"github.com/JonMunkholm/formatbridge/internal/format"
	"github.com/go-chi/chi/v5"
)

// convertRequest is the body of POST /api/convert. FileName, when set, puts
// the conversion on the caller's recent list.
type convertRequest struct {
	core.Request
	FileName string `json:"fileName,omitempty"`
}

type detectResponse struct {
	Format format.ID `json:"format"`
	Label  string    `json:"label"`
}

// handleConvertJSON converts the input of a JSON request. The response is
// always a Result; failures carry the status of their code.
func (s *Server) handleConvertJSON(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err, statusForCode(core.MapError(err).Code))
		return
	}

	res := s.service.Convert(r.Context(), req.FileName, req.Request)
	s.writeResult(w, r, res)
}

// handleConvertRaw converts the request body along the pair in the URL.
// Options come from the query string. On success the body is the converted
// document in the target's MIME type.
func (s *Server) handleConvertRaw(w http.ResponseWriter, r *http.Request) {
	pair, err := format.ParseSlug(chi.URLParam(r, "slug"))
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	input, err := s.readBody(r)
	if err != nil {
		s.respondError(w, r, err, statusForCode(core.MapError(err).Code))
		return
	}

	res := s.service.Convert(r.Context(), r.URL.Query().Get("file_name"), core.Request{
		Input:   input,
		Source:  pair.Source,
		Target:  pair.Target,
		Options: parseOptions(r.URL.Query()),
	})
	if !res.OK {
		s.writeResult(w, r, res)
		return
	}

	w.Header().Set("Content-Type", format.MustLookup(res.Target).MIMEType+"; charset=utf-8")
	if len(res.Warnings) > 0 {
		w.Header().Set("X-Conversion-Warnings", strconv.Itoa(len(res.Warnings)))
	}
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, res.Output)
}

// handleDetect guesses the format of the input. It accepts {"input": ...}
// as JSON or the raw document.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var input string
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		var body struct {
			Input string `json:"input"`
		}
		if err := s.decodeJSON(w, r, &body); err != nil {
			s.respondError(w, r, err, statusForCode(core.MapError(err).Code))
			return
		}
		input = body.Input
	} else {
		raw, err := s.readBody(r)
		if err != nil {
			s.respondError(w, r, err, statusForCode(core.MapError(err).Code))
			return
		}
		input = raw
	}

	id, err := s.service.Detect(input)
	if err != nil {
		s.respondError(w, r, err, statusForCode(core.MapError(err).Code))
		return
	}
	writeJSON(w, r, http.StatusOK, detectResponse{
		Format: id,
		Label:  format.Label(s.catalog, s.localeFor(r), id),
	})
}

// writeResult writes a conversion Result with its message localized.
func (s *Server) writeResult(w http.ResponseWriter, r *http.Request, res core.Result) {
	if !res.OK {
		msg := core.LocalizedMessage(s.catalog, s.localeFor(r), core.UserMessage{
			Message: res.Error, Action: res.Action, Code: res.Code,
		})
		res.Error = msg.Message
	}
	writeJSON(w, r, statusForCode(res.Code), res)
}

// decodeJSON reads a JSON body of at most the input limit plus overhead.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, s.cfg.Convert.MaxInputSize+formOverhead)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: request body exceeds %d bytes", core.ErrInputTooLarge, tooLarge.Limit)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// readBody reads a raw document body. One byte over the input limit is
// read so the engine reports the size error.
func (s *Server) readBody(r *http.Request) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, s.cfg.Convert.MaxInputSize+1))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return string(data), nil
}
