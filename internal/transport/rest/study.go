package rest

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/internal/service/study"
	"github.com/heartmarshall/lingocards-backend/pkg/ctxutil"
)

// studyService defines the minimal interface needed by StudyHandler.
type studyService interface {
	NextCard(ctx context.Context, input study.NextCardInput) (*study.NextCardOutput, error)
	Review(ctx context.Context, input study.ReviewInput) (*study.ReviewOutput, error)
	CardState(ctx context.Context, input study.CardStateInput) (domain.ComputedCardState, error)
	DeckCounts(ctx context.Context, userID, deckID uuid.UUID) (study.QueueCounts, error)
}

// StudyHandler serves the review-session REST endpoints.
type StudyHandler struct {
	svc studyService
	log *slog.Logger
}

// NewStudyHandler creates a StudyHandler.
func NewStudyHandler(svc studyService, logger *slog.Logger) *StudyHandler {
	return &StudyHandler{svc: svc, log: logger.With("handler", "study")}
}

type nextCardRequest struct {
	DeckID           uuid.UUID   `json:"deckId"`
	ExcludeNoteIDs   []uuid.UUID `json:"excludeNoteIds"`
	IgnoreDailyLimit bool        `json:"ignoreDailyLimit"`
}

type nextCardResponse struct {
	// Card is null when the session is done for today.
	Card             *cardResponse       `json:"card"`
	State            *cardStateResponse  `json:"state,omitempty"`
	Counts           queueCountsResponse `json:"counts"`
	IntervalPreviews []previewResponse   `json:"intervalPreviews,omitempty"`
	HasMoreNewCards  bool                `json:"hasMoreNewCards"`
}

type reviewRequest struct {
	CardID      uuid.UUID `json:"card_id"`
	Rating      int       `json:"rating"`
	TimeSpentMs *int      `json:"time_spent_ms"`
	UserAnswer  *string   `json:"user_answer"`
}

type reviewResponse struct {
	Event            eventPayload      `json:"event"`
	State            cardStateResponse `json:"state"`
	IntervalPreviews []previewResponse `json:"intervalPreviews"`
}

// NextCard handles POST /study/next-card.
func (h *StudyHandler) NextCard(w http.ResponseWriter, r *http.Request) {
	var req nextCardRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.nextCard(w, r, study.NextCardInput{
		DeckID:           req.DeckID,
		ExcludeNoteIDs:   req.ExcludeNoteIDs,
		IgnoreDailyLimit: req.IgnoreDailyLimit,
	})
}

// NextCardQuery handles GET /study/next-card?deck_id=<uuid>, the same
// operation keyed off query parameters. exclude_notes takes a
// comma-separated list of note ids.
func (h *StudyHandler) NextCardQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	deckID, err := uuid.Parse(q.Get("deck_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deck_id")
		return
	}

	var exclude []uuid.UUID
	if v := q.Get("exclude_notes"); v != "" {
		for _, raw := range strings.Split(v, ",") {
			id, err := uuid.Parse(strings.TrimSpace(raw))
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid exclude_notes")
				return
			}
			exclude = append(exclude, id)
		}
	}

	ignoreLimit := false
	if v := q.Get("ignore_daily_limit"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid ignore_daily_limit")
			return
		}
		ignoreLimit = parsed
	}

	h.nextCard(w, r, study.NextCardInput{
		DeckID:           deckID,
		ExcludeNoteIDs:   exclude,
		IgnoreDailyLimit: ignoreLimit,
	})
}

func (h *StudyHandler) nextCard(w http.ResponseWriter, r *http.Request, input study.NextCardInput) {
	out, err := h.svc.NextCard(r.Context(), input)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	resp := nextCardResponse{
		Counts:          toQueueCountsResponse(out.Counts),
		HasMoreNewCards: out.HasMoreNewCards,
	}
	if out.Card != nil {
		card := toCardResponse(out.Card)
		state := toCardStateResponse(out.State)
		resp.Card = &card
		resp.State = &state
		resp.IntervalPreviews = toPreviewResponses(out.Previews)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Review handles POST /study/review.
func (h *StudyHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.svc.Review(r.Context(), study.ReviewInput{
		CardID:      req.CardID,
		Rating:      domain.Rating(req.Rating),
		TimeSpentMs: req.TimeSpentMs,
		UserAnswer:  req.UserAnswer,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, reviewResponse{
		Event:            toEventPayload(out.Event),
		State:            toCardStateResponse(out.State),
		IntervalPreviews: toPreviewResponses(out.Previews),
	})
}

// CardState handles GET /cards/{cardID}/state.
func (h *StudyHandler) CardState(w http.ResponseWriter, r *http.Request) {
	cardID, err := pathUUID(r, "cardID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid card id")
		return
	}

	state, err := h.svc.CardState(r.Context(), study.CardStateInput{CardID: cardID})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toCardStateResponse(state))
}

// DeckCounts handles GET /decks/{deckID}/counts.
func (h *StudyHandler) DeckCounts(w http.ResponseWriter, r *http.Request) {
	deckID, err := pathUUID(r, "deckID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deck id")
		return
	}
	h.deckCounts(w, r, deckID)
}

// QueueCounts handles GET /cards/queue-counts?deck_id=<uuid>.
func (h *StudyHandler) QueueCounts(w http.ResponseWriter, r *http.Request) {
	deckID, err := uuid.Parse(r.URL.Query().Get("deck_id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deck_id")
		return
	}
	h.deckCounts(w, r, deckID)
}

func (h *StudyHandler) deckCounts(w http.ResponseWriter, r *http.Request, deckID uuid.UUID) {
	userID, ok := ctxutil.UserIDFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	counts, err := h.svc.DeckCounts(r.Context(), userID, deckID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toQueueCountsResponse(counts))
}
