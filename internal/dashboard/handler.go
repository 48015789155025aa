package dashboard

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"comply/pkg/platform/httputil"
)

// Handler wires dashboard endpoints to the aggregator.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Register mounts dashboard endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/dashboard/summary", h.handleSummary)
	r.Get("/dashboard/upcoming", h.handleUpcoming)
	r.Get("/dashboard/overdue", h.handleOverdue)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.Summary(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, counts)
}

func (h *Handler) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.Upcoming(r.Context(), time.Now().UTC(), queryLimit(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) handleOverdue(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.Overdue(r.Context(), time.Now().UTC(), queryLimit(r))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0
	}
	return n
}
