package web

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/formatbridge/internal/core"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// clientCookie identifies a browser for its recent-files list.
const clientCookie = "fb_client"

const clientCookieMaxAge = 365 * 24 * time.Hour

type ctxKey int

const ctxKeyLocale ctxKey = iota

// clientID makes sure every request carries a client ID and the caller's IP
// address in its context. A missing or malformed cookie is replaced.
func (s *Server) clientID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(clientCookie); err == nil {
			if parsed, err := uuid.Parse(c.Value); err == nil {
				id = parsed.String()
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     clientCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(clientCookieMaxAge.Seconds()),
				HttpOnly: true,
				Secure:   s.cfg.Security.SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := core.ContextWithClientID(r.Context(), id)
		ctx = core.ContextWithIPAddress(ctx, clientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireLocale serves the request when the {locale} segment is supported
// and redirects to the negotiated locale otherwise.
func (s *Server) requireLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := strings.ToLower(chi.URLParam(r, "locale"))
		if !s.negotiator.IsSupported(locale) {
			s.redirectToLocale(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), ctxKeyLocale, locale)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// redirectToLocale sends the client to the same path under the locale
// negotiated from Accept-Language. A leading segment that looks like a
// locale code is replaced, anything else is kept.
func (s *Server) redirectToLocale(w http.ResponseWriter, r *http.Request) {
	locale := s.negotiator.Negotiate(r.Header.Get("Accept-Language"))

	rest := strings.TrimPrefix(r.URL.Path, "/")
	if first, tail, _ := strings.Cut(rest, "/"); looksLikeLocale(first) {
		rest = tail
	}

	target := "/" + locale + "/" + rest
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	w.Header().Add("Vary", "Accept-Language")
	http.Redirect(w, r, target, http.StatusFound)
}

// looksLikeLocale reports whether seg has the shape of a language tag such
// as "de" or "pt-BR".
func looksLikeLocale(seg string) bool {
	base, region, hasRegion := strings.Cut(seg, "-")
	if len(base) != 2 || !isLetters(base) {
		return false
	}
	if hasRegion {
		return len(region) == 2 && isLetters(region)
	}
	return true
}

func isLetters(s string) bool {
	for _, c := range s {
		if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}

// localeFor returns the locale of a request: the URL locale on localized
// pages, else a supported ?locale= parameter, else the Accept-Language
// negotiation.
func (s *Server) localeFor(r *http.Request) string {
	if l, ok := r.Context().Value(ctxKeyLocale).(string); ok {
		return l
	}
	if q := strings.ToLower(r.URL.Query().Get("locale")); q != "" && s.negotiator.IsSupported(q) {
		return q
	}
	return s.negotiator.Negotiate(r.Header.Get("Accept-Language"))
}
