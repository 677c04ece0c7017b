// Copyright 2024-2026 Aiku AI

package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"maunium.net/go/mautrix/event"

	"github.com/aiku/chatmarkup/pkg/component"
	"github.com/aiku/chatmarkup/pkg/placeholder"
	"github.com/aiku/chatmarkup/pkg/render/matrixfmt"
	"github.com/aiku/chatmarkup/pkg/render/mattermostfmt"
)

// maxBodySize is the maximum allowed request body for reload and render (1 MB).
const maxBodySize = 1 << 20

// API is the admin HTTP API of an engine.
type API struct {
	engine   *Engine
	gatherer prometheus.Gatherer
}

// NewAPI returns the admin API for e. Metrics are served from gatherer when
// it is not nil.
func NewAPI(e *Engine, gatherer prometheus.Gatherer) *API {
	return &API{engine: e, gatherer: gatherer}
}

// Router returns the HTTP handler for the admin API.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/api/reload", a.reload)
	r.Get("/api/placeholders", a.listPlaceholders)
	r.Get("/api/placeholders/{name}", a.resolvePlaceholder)
	r.Post("/api/render", a.render)
	if a.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Serve listens on addr until ctx is done.
func (a *API) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      a.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	a.engine.Log.Info().Str("addr", addr).Msg("Starting admin API")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type errorResponse struct {
	Error string `json:"error"`
}

type reloadResponse struct {
	ReloadResult
	Errors []string `json:"errors,omitempty"`
}

// reload handles POST /api/reload. A non-empty body is used as the YAML
// configuration; otherwise the config file is read again.
func (a *API) reload(w http.ResponseWriter, r *http.Request) {
	log := a.engine.Log
	var body []byte
	if r.Body != nil && r.ContentLength != 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()
		var err error
		if body, err = io.ReadAll(r.Body); err != nil {
			a.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{"request body too large"})
			return
		}
	}
	source := "file"
	if len(body) > 0 {
		source = "body"
	}
	log.Info().
		Str("remote_addr", r.RemoteAddr).
		Str("source", source).
		Msg("Configuration reload requested")

	var (
		res ReloadResult
		err error
	)
	switch {
	case len(body) > 0:
		res, err = a.engine.ReloadBytes(body)
	case a.engine.ConfigPath != "":
		res, err = a.engine.ReloadFile(a.engine.ConfigPath)
	default:
		a.writeJSON(w, http.StatusBadRequest, errorResponse{"no config file configured, send the configuration in the body"})
		return
	}

	if errors.Is(err, ErrRejected) {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{err.Error()})
		return
	}
	resp := reloadResponse{ReloadResult: res}
	if err != nil {
		resp.Errors = errorLines(err)
	}
	a.writeJSON(w, http.StatusOK, resp)
}

type placeholderInfo struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Values       int    `json:"values"`
	Slots        []int  `json:"slots"`
	Requirements int    `json:"requirements"`
}

func (a *API) listPlaceholders(w http.ResponseWriter, _ *http.Request) {
	st := a.engine.State()
	if st == nil {
		a.writeJSON(w, http.StatusServiceUnavailable, errorResponse{ErrNotLoaded.Error()})
		return
	}
	infos := make([]placeholderInfo, 0, st.Placeholders.Len())
	for _, id := range st.Placeholders.IDs() {
		def, _ := st.Placeholders.Lookup(id)
		infos = append(infos, placeholderInfo{
			ID:           id,
			Type:         def.Kind.String(),
			Values:       len(def.Templates),
			Slots:        def.Slots(),
			Requirements: len(def.Requirements),
		})
	}
	a.writeJSON(w, http.StatusOK, infos)
}

type resolveResponse struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Result string `json:"result"`
}

// resolvePlaceholder handles GET /api/placeholders/{name}?sender=..&arg=..
func (a *API) resolvePlaceholder(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	q := r.URL.Query()
	res, err := a.engine.ResolveCommand(q.Get("sender"), name, q["arg"])
	switch {
	case errors.Is(err, ErrNotLoaded):
		a.writeJSON(w, http.StatusServiceUnavailable, errorResponse{err.Error()})
		return
	case errors.Is(err, placeholder.ErrUnknownPlaceholder):
		a.writeJSON(w, http.StatusNotFound, errorResponse{fmt.Sprintf("Placeholder %s not found", name)})
		return
	case err != nil:
		a.writeJSON(w, http.StatusInternalServerError, errorResponse{err.Error()})
		return
	}
	a.writeJSON(w, http.StatusOK, resolveResponse{ID: name, Text: res.Text, Result: res.State.String()})
}

type renderRequest struct {
	Recipient string          `json:"recipient"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Legacy    string          `json:"legacy,omitempty"`
}

type renderResponse struct {
	Handled    bool                       `json:"handled"`
	Markup     []string                   `json:"markup,omitempty"`
	Matrix     *event.MessageEventContent `json:"matrix,omitempty"`
	Mattermost string                     `json:"mattermost,omitempty"`
}

// render handles POST /api/render, running one payload through the
// dispatch pipeline.
func (a *API) render(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()
	var req renderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeJSON(w, http.StatusBadRequest, errorResponse{"invalid JSON"})
		return
	}

	d, err := a.engine.Handle(req.Recipient, Payload{JSON: req.Payload, Legacy: req.Legacy})
	if errors.Is(err, component.ErrMalformedPayload) {
		a.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{err.Error()})
		return
	} else if err != nil {
		a.writeJSON(w, http.StatusInternalServerError, errorResponse{err.Error()})
		return
	}

	resp := renderResponse{Handled: d.Handled}
	if d.Handled {
		for _, n := range d.Messages {
			resp.Markup = append(resp.Markup, component.ToMarkup(n))
		}
		resp.Matrix = matrixfmt.Render(d.Messages...)
		resp.Mattermost = mattermostfmt.Render(d.Messages...).Message
	}
	a.writeJSON(w, http.StatusOK, resp)
}

func (a *API) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.engine.Log.Warn().Err(err).Msg("Failed to write API response")
	}
}

// errorLines flattens a joined error into one string per entry.
func errorLines(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var lines []string
		for _, e := range joined.Unwrap() {
			lines = append(lines, e.Error())
		}
		return lines
	}
	return []string{err.Error()}
}
