// Package handler provides the HTTP handlers for the farm records server.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/stevemurr/farm-records/collection"
	"github.com/stevemurr/farm-records/schema"
)

// Handler holds the server dependencies and registers routes.
type Handler struct {
	acc      *collection.Accessor
	router   *mux.Router
	chain    http.Handler
	log      zerolog.Logger
	origins  []string
	gatherer prometheus.Gatherer
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request and error logger.
func WithLogger(l zerolog.Logger) Option {
	return func(h *Handler) { h.log = l }
}

// WithAllowedOrigins sets the CORS allow list. "*" allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) { h.origins = origins }
}

// WithMetrics exposes g on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(h *Handler) { h.gatherer = g }
}

// New creates a Handler and wires up all routes.
func New(acc *collection.Accessor, opts ...Option) *Handler {
	h := &Handler{
		acc:     acc,
		router:  mux.NewRouter(),
		log:     zerolog.Nop(),
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.routes()
	h.chain = Recovery(h.log)(RequestLogger(h.log)(CORS(h.origins)(h.router)))
	return h
}

// ServeHTTP makes Handler an http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.chain.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	r := h.router

	// Health / status
	r.HandleFunc("/", h.root).Methods(http.MethodGet)
	r.HandleFunc("/health", h.health).Methods(http.MethodGet)
	if h.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	// Whole-database and offline queue endpoints. Registered before the
	// {collection} routes so their names never reach collection lookup.
	r.HandleFunc("/api/collections", h.listCollections).Methods(http.MethodGet)
	r.HandleFunc("/api/get-all-data", h.getAllData).Methods(http.MethodGet)
	r.HandleFunc("/api/sync", h.sync).Methods(http.MethodPost)

	// Generic collection endpoints
	r.HandleFunc("/api/{collection}", h.listRecords).Methods(http.MethodGet)
	r.HandleFunc("/api/{collection}", h.createRecord).Methods(http.MethodPost)
	r.HandleFunc("/api/{collection}/{id}", h.getRecord).Methods(http.MethodGet)
	r.HandleFunc("/api/{collection}/{id}", h.updateRecord).Methods(http.MethodPut, http.MethodPatch)
	r.HandleFunc("/api/{collection}/{id}", h.deleteRecord).Methods(http.MethodDelete)
}

// ---------- helpers ----------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

// fail maps an accessor error to a response. Validation failures carry their
// field errors; anything else is a storage failure and is logged, not echoed.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, collection.ErrInvalid) {
		var fields schema.Errors
		errors.As(err, &fields)
		if fields == nil {
			fields = schema.Errors{}
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": "schema validation failed",
			"errors": fields,
		})
		return
	}
	h.log.Error().Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("storage failure")
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// collection resolves the {collection} path variable, writing a 404 when it
// is not recognized.
func (h *Handler) collection(w http.ResponseWriter, r *http.Request) (*collection.Collection, bool) {
	name := mux.Vars(r)["collection"]
	if !h.acc.Has(name) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown collection %q", name))
		return nil, false
	}
	return h.acc.Collection(name), true
}

// ---------- status endpoints ----------

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "Farm Records Server",
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ---------- whole database ----------

func (h *Handler) listCollections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.acc.Names())
}

func (h *Handler) getAllData(w http.ResponseWriter, r *http.Request) {
	db, err := h.acc.Snapshot(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, db)
}

// ---------- record CRUD ----------

func (h *Handler) listRecords(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	recs, err := c.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) getRecord(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	rec, found, err := c.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) createRecord(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	var fields map[string]any
	if err := readJSON(r, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	rec, err := c.Create(r.Context(), fields)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) updateRecord(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	var patch map[string]any
	if err := readJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	rec, found, err := c.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	c, ok := h.collection(w, r)
	if !ok {
		return
	}
	removed, err := c.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------- offline queue replay ----------

type syncRequest struct {
	Action  string         `json:"action"`
	Payload map[string]any `json:"payload"`
}

// sync applies one queued client action of the form "<verb>-<collection>",
// where verb is add, update or delete. Update and delete name their target
// with payload.id; a target that no longer exists is not an error.
func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	var req syncRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	verb, name, _ := strings.Cut(req.Action, "-")
	if !h.acc.Has(name) || (verb != "add" && verb != "update" && verb != "delete") {
		h.log.Warn().Str("action", req.Action).Msg("unknown sync action")
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"status":  "error",
			"message": "Unknown action",
		})
		return
	}
	c := h.acc.Collection(name)
	h.log.Debug().Str("action", req.Action).Msg("received sync action")

	resp := map[string]any{
		"status":  "success",
		"message": fmt.Sprintf("Action '%s' processed.", req.Action),
	}

	if verb == "add" {
		rec, err := c.Create(r.Context(), req.Payload)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		resp["record"] = rec
		writeJSON(w, http.StatusOK, resp)
		return
	}

	id, _ := req.Payload["id"].(string)
	if id == "" {
		writeError(w, http.StatusBadRequest, "payload.id is required")
		return
	}
	var (
		found bool
		err   error
	)
	if verb == "update" {
		_, found, err = c.Update(r.Context(), id, req.Payload)
	} else {
		found, err = c.Delete(r.Context(), id)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	resp["found"] = found
	writeJSON(w, http.StatusOK, resp)
}
