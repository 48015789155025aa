// Package handler exposes the compliance engine over HTTP. Generation and
// completion are thin wrappers over the services; the manual sweep trigger
// exists for operators and is guarded by the service key.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"comply/internal/compliance/service"
	"comply/internal/compliance/store"
	"comply/pkg/domain"
	derrors "comply/pkg/domain-errors"
	"comply/pkg/platform/httputil"
)

type Handler struct {
	generator  *service.Generator
	recurrence *service.Recurrence
	tick       *service.Tick
	store      store.Store
	logger     *slog.Logger
}

func New(generator *service.Generator, recurrence *service.Recurrence, tick *service.Tick, st store.Store, logger *slog.Logger) *Handler {
	return &Handler{
		generator:  generator,
		recurrence: recurrence,
		tick:       tick,
		store:      st,
		logger:     logger,
	}
}

// Register mounts the event endpoints. The caller decides which middleware
// guards them.
func (h *Handler) Register(r chi.Router) {
	r.Post("/events", h.handleCreate)
	r.Post("/events/{eventID}/complete", h.handleComplete)
	r.Get("/entities/{entityID}/events", h.handleListByEntity)
}

// RegisterInternal mounts operator-only endpoints.
func (h *Handler) RegisterInternal(r chi.Router) {
	r.Post("/internal/sweep", h.handleSweep)
}

type createRequest struct {
	BusinessEntityID string `json:"business_entity_id"`
	ObligationType   string `json:"obligation_type,omitempty"`
	Period           string `json:"period,omitempty"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.Decode[createRequest](w, r, h.logger)
	if !ok {
		return
	}

	entityID, err := domain.ParseEntityID(req.BusinessEntityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	var period domain.Period
	if req.Period != "" {
		if period, err = domain.ParsePeriod(req.Period); err != nil {
			httputil.WriteError(w, err)
			return
		}
	}

	event, err := h.generator.Create(r.Context(), entityID, req.ObligationType, period, time.Now().UTC())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromEvent(event))
}

func (h *Handler) handleComplete(w http.ResponseWriter, r *http.Request) {
	eventID, err := domain.ParseEventID(chi.URLParam(r, "eventID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	completed, next, err := h.recurrence.Complete(r.Context(), eventID, time.Now().UTC())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := completeResponse{Completed: fromEvent(completed)}
	if next != nil {
		nextResp := fromEvent(next)
		resp.Next = &nextResp
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleListByEntity(w http.ResponseWriter, r *http.Request) {
	entityID, err := domain.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	events, err := h.store.ListByEntity(r.Context(), entityID)
	if err != nil {
		httputil.WriteError(w, derrors.Wrap(err, derrors.CodeInternal, "list events"))
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, event := range events {
		out = append(out, fromEvent(event))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": out})
}

// handleSweep runs sweep batches until the scan completes. It exists for
// operators and tests; production ticks come from the sweeper process.
func (h *Handler) handleSweep(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	var (
		cursor store.Cursor
		total  service.TickStats
	)
	for {
		next, stats, err := h.tick.Run(r.Context(), now, cursor)
		if err != nil {
			httputil.WriteError(w, derrors.Wrap(err, derrors.CodeInternal, "sweep failed"))
			return
		}
		total.Add(stats)
		if next.IsZero() {
			break
		}
		cursor = next
	}
	httputil.WriteJSON(w, http.StatusOK, total)
}
