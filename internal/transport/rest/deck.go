package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/internal/service/deck"
)

// deckService defines the minimal interface needed by DeckHandler.
type deckService interface {
	CreateDeck(ctx context.Context, input deck.CreateDeckInput) (*domain.Deck, error)
	GetDeck(ctx context.Context, deckID uuid.UUID) (*domain.Deck, error)
	ListDecks(ctx context.Context) ([]domain.Deck, error)
	UpdateDeck(ctx context.Context, input deck.UpdateDeckInput) (*domain.Deck, error)
	DeleteDeck(ctx context.Context, deckID uuid.UUID) error

	CreateNote(ctx context.Context, input deck.CreateNoteInput) (*deck.NoteOutput, error)
	GetNote(ctx context.Context, noteID uuid.UUID) (*domain.Note, error)
	ListNotes(ctx context.Context, deckID uuid.UUID) ([]domain.Note, error)
	AttachAudio(ctx context.Context, input deck.AttachAudioInput) (*domain.Note, error)
	DeleteNote(ctx context.Context, noteID uuid.UUID) error
}

// DeckHandler serves deck and note REST endpoints.
type DeckHandler struct {
	svc deckService
	log *slog.Logger
}

// NewDeckHandler creates a DeckHandler.
func NewDeckHandler(svc deckService, logger *slog.Logger) *DeckHandler {
	return &DeckHandler{svc: svc, log: logger.With("handler", "deck")}
}

type createDeckRequest struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Params      schedulingParamsPayload `json:"params"`
}

type updateDeckRequest struct {
	Name        *string                  `json:"name"`
	Description *string                  `json:"description"`
	Params      *schedulingParamsPayload `json:"params"`
}

type createNoteRequest struct {
	Form        string `json:"form"`
	Phonetic    string `json:"phonetic"`
	Gloss       string `json:"gloss"`
	Annotations string `json:"annotations"`
}

type attachAudioRequest struct {
	AudioKey string `json:"audioKey"`
}

type noteWithCardsResponse struct {
	Note  noteResponse   `json:"note"`
	Cards []cardResponse `json:"cards"`
}

// CreateDeck handles POST /decks.
func (h *DeckHandler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	var req createDeckRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.svc.CreateDeck(r.Context(), deck.CreateDeckInput{
		Name:        req.Name,
		Description: req.Description,
		Params:      req.Params.toDomain(),
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, toDeckResponse(created))
}

// GetDeck handles GET /decks/{deckID}.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	deckID, err := pathUUID(r, "deckID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deck id")
		return
	}

	d, err := h.svc.GetDeck(r.Context(), deckID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toDeckResponse(d))
}

// ListDecks handles GET /decks.
func (h *DeckHandler) ListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := h.svc.ListDecks(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	out := make([]deckResponse, 0, len(decks))
	for i := range decks {
		out = append(out, toDeckResponse(&decks[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"decks": out})
}

// UpdateDeck handles PATCH /decks/{deckID}. Absent fields keep their
// current value.
func (h *DeckHandler) UpdateDeck(w http.ResponseWriter, r *http.Request) {
	deckID, err := pathUUID(r, "deckID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deck id")
		return
	}

	var req updateDeckRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := deck.UpdateDeckInput{
		DeckID:      deckID,
		Name:        req.Name,
		Description: req.Description,
	}
	if req.Params != nil {
		params := req.Params.toDomain()
		input.Params = &params
	}

	updated, err := h.svc.UpdateDeck(r.Context(), input)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toDeckResponse(updated))
}

// DeleteDeck handles DELETE /decks/{deckID}.
func (h *DeckHandler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	deckID, err := pathUUID(r, "deckID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deck id")
		return
	}

	if err := h.svc.DeleteDeck(r.Context(), deckID); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CreateNote handles POST /decks/{deckID}/notes.
func (h *DeckHandler) CreateNote(w http.ResponseWriter, r *http.Request) {
	deckID, err := pathUUID(r, "deckID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deck id")
		return
	}

	var req createNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.svc.CreateNote(r.Context(), deck.CreateNoteInput{
		DeckID:      deckID,
		Form:        req.Form,
		Phonetic:    req.Phonetic,
		Gloss:       req.Gloss,
		Annotations: req.Annotations,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	resp := noteWithCardsResponse{Note: toNoteResponse(&out.Note)}
	for i := range out.Cards {
		resp.Cards = append(resp.Cards, toCardResponse(&out.Cards[i]))
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ListNotes handles GET /decks/{deckID}/notes.
func (h *DeckHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	deckID, err := pathUUID(r, "deckID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid deck id")
		return
	}

	notes, err := h.svc.ListNotes(r.Context(), deckID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	out := make([]noteResponse, 0, len(notes))
	for i := range notes {
		out = append(out, toNoteResponse(&notes[i]))
	}
	writeJSON(w, http.StatusOK, map[string]any{"notes": out})
}

// GetNote handles GET /notes/{noteID}.
func (h *DeckHandler) GetNote(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathUUID(r, "noteID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid note id")
		return
	}

	note, err := h.svc.GetNote(r.Context(), noteID)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toNoteResponse(note))
}

// AttachAudio handles PUT /notes/{noteID}/audio.
func (h *DeckHandler) AttachAudio(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathUUID(r, "noteID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid note id")
		return
	}

	var req attachAudioRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	note, err := h.svc.AttachAudio(r.Context(), deck.AttachAudioInput{
		NoteID:   noteID,
		AudioKey: req.AudioKey,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toNoteResponse(note))
}

// DeleteNote handles DELETE /notes/{noteID}.
func (h *DeckHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathUUID(r, "noteID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid note id")
		return
	}

	if err := h.svc.DeleteNote(r.Context(), noteID); err != nil {
		handleError(w, r, h.log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
