// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"net/http"
	"net/url"
	"slices"

	"go.astrophena.name/vcbot/internal/util/syncx"
)

// Health returns the [HealthHandler] serving /health on mux. The first call
// registers it; later calls return the same handler so that every part of the
// program can add its checks.
func Health(mux *http.ServeMux) *HealthHandler {
	h, pat := mux.Handler(&http.Request{URL: &url.URL{Path: "/health"}})
	if hh, ok := h.(*HealthHandler); ok && pat == "/health" {
		return hh
	}
	hh := &HealthHandler{checks: syncx.Protect(make(map[string]HealthFunc))}
	mux.Handle("/health", hh)
	return hh
}

// HealthHandler reports whether the bot is connected and what it is playing.
// It responds with 503 Service Unavailable while any check fails.
type HealthHandler struct {
	checks *syncx.Protected[map[string]HealthFunc]
}

// HealthFunc reports the state of one subsystem. It must be safe for
// concurrent use.
type HealthFunc func() (status string, ok bool)

// RegisterFunc adds the check called name. It panics if name is taken.
func (h *HealthHandler) RegisterFunc(name string, f HealthFunc) {
	h.checks.Access(func(checks map[string]HealthFunc) {
		if _, dup := checks[name]; dup {
			panic("health: duplicate check " + name)
		}
		checks[name] = f
	})
}

// HealthResponse is the body of a /health response.
type HealthResponse struct {
	OK     bool                     `json:"ok"`
	Checks map[string]CheckResponse `json:"checks"`
	// Failing lists the names of failed checks in order.
	Failing []string `json:"failing,omitempty"`
}

// CheckResponse is the result of one check.
type CheckResponse struct {
	Status string `json:"status"`
	OK     bool   `json:"ok"`
}

func (h *HealthHandler) check() *HealthResponse {
	hr := &HealthResponse{Checks: make(map[string]CheckResponse)}
	h.checks.RAccess(func(checks map[string]HealthFunc) {
		for name, f := range checks {
			status, ok := f()
			hr.Checks[name] = CheckResponse{Status: status, OK: ok}
			if !ok {
				hr.Failing = append(hr.Failing, name)
			}
		}
	})
	slices.Sort(hr.Failing)
	hr.OK = len(hr.Failing) == 0
	return hr
}

// ServeHTTP implements the [http.Handler] interface.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		RespondJSONError(nil, w, ErrMethodNotAllowed)
		return
	}

	hr := h.check()
	w.Header().Set("Content-Type", "application/json")
	if !hr.OK {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if r.Method == http.MethodHead {
		return
	}
	RespondJSON(w, hr)
}
