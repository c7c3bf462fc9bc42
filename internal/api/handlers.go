// Package api exposes the RSVP HTTP endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"wedding-rsvp/internal/dashboard"
	"wedding-rsvp/internal/handler"
	"wedding-rsvp/internal/models"
	"wedding-rsvp/internal/storage"
	"wedding-rsvp/internal/tally"
	"wedding-rsvp/web"
)

const maxBodyBytes = 64 << 10

// Submitter runs the submission workflow.
type Submitter interface {
	Submit(ctx context.Context, in handler.Input) (handler.Result, error)
}

// TestSender delivers a fixed notification.
type TestSender interface {
	SendTest(ctx context.Context) error
}

// Options tunes which routes are exposed and how long probes may run.
type Options struct {
	// DebugRoutes enables /api/test-email and /api/test-db.
	DebugRoutes bool
	// ProbeTimeout bounds the debug probes.
	ProbeTimeout time.Duration
}

// Handler coordinates HTTP requests with the workflow and the store.
type Handler struct {
	rsvp      Submitter
	store     storage.Store
	tester    TestSender
	dashboard *dashboard.Renderer
	opts      Options
	log       zerolog.Logger
}

// NewHandler builds a Handler. tester may be nil when no channel is configured.
func NewHandler(rsvp Submitter, store storage.Store, tester TestSender, renderer *dashboard.Renderer, opts Options, logger zerolog.Logger) *Handler {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 10 * time.Second
	}
	return &Handler{
		rsvp:      rsvp,
		store:     store,
		tester:    tester,
		dashboard: renderer,
		opts:      opts,
		log:       logger.With().Str("component", "api").Logger(),
	}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/rsvp", h.submit)
	mux.HandleFunc("GET /api/responses", h.responses)
	mux.HandleFunc("GET /api/tally", h.tallyCounts)
	if h.opts.DebugRoutes {
		mux.HandleFunc("GET /api/test-email", h.testEmail)
		mux.HandleFunc("GET /api/test-db", h.testDB)
	}
	mux.HandleFunc("GET /healthz", healthz)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /", http.FileServerFS(web.Static()))
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// SubmitRequest is the payload for POST /api/rsvp.
type SubmitRequest struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Attending string `json:"attending"`
}

// SubmitResponse is the guest-facing outcome.
type SubmitResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	EmailSent  *bool  `json:"emailSent,omitempty"`
	EmailError string `json:"emailError,omitempty"`
}

// ProbeResponse reports a debug probe outcome.
type ProbeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSubmit(w, r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, SubmitResponse{Message: handler.MessageMissing})
		return
	}

	res, err := h.rsvp.Submit(r.Context(), handler.Input{
		Name:      req.Name,
		Phone:     req.Phone,
		Attending: req.Attending,
	})
	if err != nil {
		var ve *handler.ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, SubmitResponse{Message: ve.GuestMessage()})
			return
		}
		h.log.Error().Err(err).Msg("RSVP submission failed")
		writeJSON(w, http.StatusInternalServerError, SubmitResponse{Message: handler.MessageRetry})
		return
	}

	writeJSON(w, http.StatusOK, SubmitResponse{
		Success:    true,
		Message:    res.Message,
		EmailSent:  res.EmailSent,
		EmailError: res.EmailError,
	})
}

// decodeSubmit accepts a JSON body or a classic form post.
func decodeSubmit(w http.ResponseWriter, r *http.Request) (SubmitRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		var err error
		if mediaType == "multipart/form-data" {
			err = r.ParseMultipartForm(maxBodyBytes)
		} else {
			err = r.ParseForm()
		}
		if err != nil {
			return SubmitRequest{}, err
		}
		return SubmitRequest{
			Name:      r.PostForm.Get("name"),
			Phone:     r.PostForm.Get("phone"),
			Attending: r.PostForm.Get("attending"),
		}, nil
	default:
		var req SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return SubmitRequest{}, err
		}
		return req, nil
	}
}

func (h *Handler) responses(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list responses")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error reading responses"})
		return
	}

	if wantsJSON(r) {
		if records == nil {
			records = []models.RSVP{}
		}
		writeJSON(w, http.StatusOK, records)
		return
	}

	var buf bytes.Buffer
	if err := h.dashboard.Render(&buf, records); err != nil {
		h.log.Error().Err(err).Msg("Failed to render dashboard")
		http.Error(w, "Error rendering responses", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) tallyCounts(w http.ResponseWriter, r *http.Request) {
	t, _, err := tally.Load(r.Context(), h.store)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute tally")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error reading responses"})
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handler) testEmail(w http.ResponseWriter, r *http.Request) {
	if h.tester == nil {
		writeJSON(w, http.StatusServiceUnavailable, ProbeResponse{Message: "no notification channels configured"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.ProbeTimeout)
	defer cancel()

	if err := h.tester.SendTest(ctx); err != nil {
		writeJSON(w, http.StatusBadGateway, ProbeResponse{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ProbeResponse{Success: true, Message: "Test notification sent"})
}

func (h *Handler) testDB(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.opts.ProbeTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		writeJSON(w, http.StatusInternalServerError, ProbeResponse{Message: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ProbeResponse{Success: true, Message: "Database connection OK"})
}

func wantsJSON(r *http.Request) bool {
	if r.URL.Query().Get("format") == "json" {
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
