package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/internal/service/sync"
	"github.com/heartmarshall/lingocards-backend/pkg/ctxutil"
)

// syncService defines the minimal interface needed by SyncHandler.
type syncService interface {
	AppendBatch(ctx context.Context, userID uuid.UUID, events []domain.ReviewEvent) (created, skipped int, err error)
	EventsSince(ctx context.Context, userID uuid.UUID, since time.Time, limit int) (*sync.Feed, error)
	EventsForCard(ctx context.Context, userID, cardID uuid.UUID) ([]domain.ReviewEvent, error)
	Cursor(ctx context.Context, userID uuid.UUID) (*domain.SyncMetadata, error)
}

// SyncHandler serves the offline-sync REST endpoints.
type SyncHandler struct {
	svc syncService
	log *slog.Logger
}

// NewSyncHandler creates a SyncHandler.
func NewSyncHandler(svc syncService, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{svc: svc, log: logger.With("handler", "sync")}
}

type pushEventsRequest struct {
	Events []eventPayload `json:"events"`
}

type pushEventsResponse struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

type feedResponse struct {
	Events     []eventPayload `json:"events"`
	HasMore    bool           `json:"has_more"`
	ServerTime time.Time      `json:"server_time"`
}

type cursorResponse struct {
	LastEventAt time.Time `json:"last_event_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Push handles POST /reviews: a batch upload of client-minted events.
func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req pushEventsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	events := make([]domain.ReviewEvent, 0, len(req.Events))
	for _, p := range req.Events {
		events = append(events, p.toDomain(userID))
	}

	created, skipped, err := h.svc.AppendBatch(r.Context(), userID, events)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, pushEventsResponse{Created: created, Skipped: skipped})
}

// Feed handles GET /reviews?since=<RFC3339>&limit=<n>.
func (h *SyncHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var since time.Time
	if v := r.URL.Query().Get("since"); v != "" {
		parsed, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since: expected RFC 3339")
			return
		}
		since = parsed
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	feed, err := h.svc.EventsSince(r.Context(), userID, since, limit)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, feedResponse{
		Events:     toEventPayloads(feed.Events),
		HasMore:    feed.HasMore,
		ServerTime: feed.ServerTime,
	})
}

// CardEvents handles GET /cards/{cardID}/events.
func (h *SyncHandler) CardEvents(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	cardID, err := pathUUID(r, "cardID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid card id")
		return
	}

	events, err := h.svc.EventsForCard(r.Context(), userID, cardID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"events": toEventPayloads(events)})
}

// Cursor handles GET /sync/cursor.
func (h *SyncHandler) Cursor(w http.ResponseWriter, r *http.Request) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	meta, err := h.svc.Cursor(r.Context(), userID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, cursorResponse{
		LastEventAt: meta.LastEventAt,
		UpdatedAt:   meta.UpdatedAt,
	})
}
