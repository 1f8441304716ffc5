// Package security sets response security headers and flags suspicious
// requests.
package security

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Directive is one Content-Security-Policy entry, e.g. {"img-src", "'self' data:"}.
type Directive struct {
	Name   string
	Source string
}

// Policy describes the headers sent on every response.
type Policy struct {
	// CSP is joined in order into Content-Security-Policy.
	CSP []Directive
	// HSTS is the Strict-Transport-Security max-age, sent only on TLS
	// requests. Zero disables it.
	HSTS time.Duration
	// Fixed headers are copied verbatim.
	Fixed map[string]string
}

// DefaultPolicy serves the dashboard and the JSON API from one origin and
// never inside a frame. Category colors are inline styles, so style-src
// allows them.
func DefaultPolicy() Policy {
	return Policy{
		CSP: []Directive{
			{"default-src", "'self'"},
			{"script-src", "'self'"},
			{"style-src", "'self' 'unsafe-inline'"},
			{"img-src", "'self' data:"},
			{"connect-src", "'self'"},
			{"object-src", "'none'"},
			{"frame-ancestors", "'none'"},
			{"base-uri", "'self'"},
			{"form-action", "'self'"},
		},
		HSTS: 365 * 24 * time.Hour,
		Fixed: map[string]string{
			"X-Content-Type-Options":       "nosniff",
			"X-Frame-Options":              "DENY",
			"Referrer-Policy":              "same-origin",
			"Permissions-Policy":           "camera=(), microphone=(), geolocation=(), payment=()",
			"Cross-Origin-Opener-Policy":   "same-origin",
			"Cross-Origin-Resource-Policy": "same-origin",
		},
	}
}

// Headers is the compiled form of a Policy.
type Headers struct {
	fixed http.Header
	hsts  string
}

func NewHeaders(p Policy) *Headers {
	h := &Headers{fixed: make(http.Header, len(p.Fixed)+1)}
	for k, v := range p.Fixed {
		h.fixed.Set(k, v)
	}
	if len(p.CSP) > 0 {
		parts := make([]string, len(p.CSP))
		for i, d := range p.CSP {
			parts[i] = d.Name + " " + d.Source
		}
		h.fixed.Set("Content-Security-Policy", strings.Join(parts, "; "))
	}
	if secs := int64(p.HSTS / time.Second); secs > 0 {
		h.hsts = "max-age=" + strconv.FormatInt(secs, 10) + "; includeSubDomains"
	}
	return h
}

func (h *Headers) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dst := w.Header()
		for k, v := range h.fixed {
			dst[k] = v
		}
		if r.TLS != nil && h.hsts != "" {
			dst.Set("Strict-Transport-Security", h.hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// NoStore marks responses as uncacheable. Every route that returns a
// user's records or a session token goes through it.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// StaticAssets lets browsers cache embedded assets for maxAge.
func StaticAssets(maxAge time.Duration) func(http.Handler) http.Handler {
	value := "public, max-age=" + strconv.FormatInt(int64(maxAge/time.Second), 10)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}
