package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/service/progress"
)

// progressService defines the minimal interface needed by ProgressHandler.
type progressService interface {
	ForRelationship(ctx context.Context, relationshipID uuid.UUID) (*progress.Output, error)
}

// ProgressHandler serves the tutor-facing progress view.
type ProgressHandler struct {
	svc progressService
	log *slog.Logger
}

// NewProgressHandler creates a ProgressHandler.
func NewProgressHandler(svc progressService, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{svc: svc, log: logger.With("handler", "progress")}
}

type deckSummaryResponse struct {
	DeckID string              `json:"deckId"`
	Name   string              `json:"name"`
	Counts queueCountsResponse `json:"counts"`
}

type progressResponse struct {
	StudentID        string                `json:"studentId"`
	StudentName      string                `json:"studentName"`
	Decks            []deckSummaryResponse `json:"decks"`
	ReviewsLast7Days int                   `json:"reviewsLast7Days"`
}

// ForRelationship handles GET /progress/{relationshipID}. Only the tutor
// side of an active relationship gets through.
func (h *ProgressHandler) ForRelationship(w http.ResponseWriter, r *http.Request) {
	relationshipID, err := pathUUID(r, "relationshipID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid relationship id")
		return
	}

	out, err := h.svc.ForRelationship(r.Context(), relationshipID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	resp := progressResponse{
		StudentID:        out.StudentID.String(),
		StudentName:      out.StudentName,
		Decks:            make([]deckSummaryResponse, 0, len(out.Decks)),
		ReviewsLast7Days: out.ReviewsLast7Days,
	}
	for _, d := range out.Decks {
		resp.Decks = append(resp.Decks, deckSummaryResponse{
			DeckID: d.DeckID.String(),
			Name:   d.Name,
			Counts: toQueueCountsResponse(d.Counts),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
