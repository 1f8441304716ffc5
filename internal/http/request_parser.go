// Package http serves the OrganizaPay JSON API and the dashboard page.
//
// This file holds the request decoding helpers shared by the handlers.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"organizapay/internal/core"
)

const (
	maxBodyBytes = 1 << 20

	defaultReportMonths = 6
	maxReportMonths     = 24
	defaultRecentLimit  = 10
	maxRecentLimit      = 100

	sessionCookie = "op_session"
)

// errBadRequest wraps every decoding failure so the handlers answer 400.
var errBadRequest = errors.New("bad request")

// DecodeJSON reads a single JSON object from the body into dst. Unknown
// fields and trailing data are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return fmt.Errorf("%w: empty body", errBadRequest)
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: body larger than %d bytes", errBadRequest, maxBodyBytes)
		default:
			return fmt.Errorf("%w: %v", errBadRequest, err)
		}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: unexpected data after JSON object", errBadRequest)
	}
	return nil
}

// ParseIntParam reads a positive integer query parameter clamped to
// [1, max]. Missing or malformed values give def.
func ParseIntParam(query url.Values, name string, def, max int) int {
	v := strings.TrimSpace(query.Get(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// ParseDayParam reads the "date" query parameter (YYYY-MM-DD), defaulting
// to the calendar day of now.
func ParseDayParam(query url.Values, now time.Time) (core.Date, error) {
	v := strings.TrimSpace(query.Get("date"))
	if v == "" {
		return core.DateOf(now), nil
	}
	d, err := core.ParseDate(v)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return d, nil
}

// SessionToken returns the bearer token, falling back to the session cookie
// the dashboard page uses.
func SessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func sanitizePtr(p *string) {
	if p != nil {
		*p = sanitizeInput(*p)
	}
}
