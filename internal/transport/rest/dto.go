package rest

import (
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/internal/service/scheduler"
	"github.com/heartmarshall/lingocards-backend/internal/service/study"
)

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID.String(), Email: u.Email, Name: u.Name}
}

type schedulingParamsPayload struct {
	Weights          []float64 `json:"weights,omitempty"`
	RequestRetention float64   `json:"requestRetention,omitempty"`
	NewCardsPerDay   int       `json:"newCardsPerDay,omitempty"`
}

func (p schedulingParamsPayload) toDomain() domain.SchedulingParams {
	return domain.SchedulingParams{
		Weights:          p.Weights,
		RequestRetention: p.RequestRetention,
		NewCardsPerDay:   p.NewCardsPerDay,
	}
}

type deckResponse struct {
	ID          string                  `json:"id"`
	Name        string                  `json:"name"`
	Description string                  `json:"description"`
	Params      schedulingParamsPayload `json:"params"`
	CreatedAt   time.Time               `json:"createdAt"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

func toDeckResponse(d *domain.Deck) deckResponse {
	return deckResponse{
		ID:          d.ID.String(),
		Name:        d.Name,
		Description: d.Description,
		Params: schedulingParamsPayload{
			Weights:          d.Params.Weights,
			RequestRetention: d.Params.RequestRetention,
			NewCardsPerDay:   d.Params.NewCardsPerDay,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type noteResponse struct {
	ID          string    `json:"id"`
	DeckID      string    `json:"deckId"`
	Form        string    `json:"form"`
	Phonetic    string    `json:"phonetic,omitempty"`
	Gloss       string    `json:"gloss"`
	Annotations string    `json:"annotations,omitempty"`
	AudioKey    string    `json:"audioKey,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toNoteResponse(n *domain.Note) noteResponse {
	return noteResponse{
		ID:          n.ID.String(),
		DeckID:      n.DeckID.String(),
		Form:        n.Form,
		Phonetic:    n.Phonetic,
		Gloss:       n.Gloss,
		Annotations: n.Annotations,
		AudioKey:    n.AudioKey,
		CreatedAt:   n.CreatedAt,
	}
}

type cardResponse struct {
	ID        string    `json:"id"`
	NoteID    string    `json:"noteId"`
	DeckID    string    `json:"deckId"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

func toCardResponse(c *domain.Card) cardResponse {
	return cardResponse{
		ID:        c.ID.String(),
		NoteID:    c.NoteID.String(),
		DeckID:    c.DeckID.String(),
		Type:      c.Type.String(),
		CreatedAt: c.CreatedAt,
	}
}

type cardStateResponse struct {
	CardID        string     `json:"cardId"`
	Queue         string     `json:"queue"`
	Step          int        `json:"step"`
	Stability     float64    `json:"stability"`
	Difficulty    float64    `json:"difficulty"`
	ScheduledDays int        `json:"scheduledDays"`
	Reps          int        `json:"reps"`
	Lapses        int        `json:"lapses"`
	LastReviewed  *time.Time `json:"lastReviewed,omitempty"`
	Due           time.Time  `json:"due"`
}

func toCardStateResponse(s domain.ComputedCardState) cardStateResponse {
	return cardStateResponse{
		CardID:        s.CardID.String(),
		Queue:         s.Queue.String(),
		Step:          s.Step,
		Stability:     s.Stability,
		Difficulty:    s.Difficulty,
		ScheduledDays: s.ScheduledDays,
		Reps:          s.Reps,
		Lapses:        s.Lapses,
		LastReviewed:  s.LastReviewed,
		Due:           s.Due,
	}
}

type previewResponse struct {
	Rating   int       `json:"rating"`
	Due      time.Time `json:"due"`
	Interval string    `json:"interval"`
}

func toPreviewResponses(previews [4]scheduler.IntervalPreview) []previewResponse {
	out := make([]previewResponse, 0, len(previews))
	for _, p := range previews {
		out = append(out, previewResponse{
			Rating:   int(p.Rating),
			Due:      p.Due,
			Interval: p.Interval,
		})
	}
	return out
}

type queueCountsResponse struct {
	New      int `json:"new"`
	Learning int `json:"learning"`
	Review   int `json:"review"`
}

func toQueueCountsResponse(c study.QueueCounts) queueCountsResponse {
	return queueCountsResponse{New: c.New, Learning: c.Learning, Review: c.Review}
}

// eventPayload is the wire form of a review event. The field names are
// snake_case and frozen; offline clients persist these objects locally
// and replay them verbatim.
type eventPayload struct {
	ID           uuid.UUID `json:"id"`
	CardID       uuid.UUID `json:"card_id"`
	Rating       int       `json:"rating"`
	ReviewedAt   time.Time `json:"reviewed_at"`
	TimeSpentMs  *int      `json:"time_spent_ms,omitempty"`
	UserAnswer   *string   `json:"user_answer,omitempty"`
	RecordingKey *string   `json:"recording_key,omitempty"`
}

func (p eventPayload) toDomain(userID uuid.UUID) domain.ReviewEvent {
	return domain.ReviewEvent{
		ID:           p.ID,
		CardID:       p.CardID,
		UserID:       userID,
		Rating:       domain.Rating(p.Rating),
		ReviewedAt:   p.ReviewedAt,
		TimeSpentMs:  p.TimeSpentMs,
		UserAnswer:   p.UserAnswer,
		RecordingKey: p.RecordingKey,
	}
}

func toEventPayload(e domain.ReviewEvent) eventPayload {
	return eventPayload{
		ID:           e.ID,
		CardID:       e.CardID,
		Rating:       int(e.Rating),
		ReviewedAt:   e.ReviewedAt,
		TimeSpentMs:  e.TimeSpentMs,
		UserAnswer:   e.UserAnswer,
		RecordingKey: e.RecordingKey,
	}
}

func toEventPayloads(events []domain.ReviewEvent) []eventPayload {
	out := make([]eventPayload, 0, len(events))
	for _, e := range events {
		out = append(out, toEventPayload(e))
	}
	return out
}

type relationshipResponse struct {
	ID            string     `json:"id"`
	RequesterID   string     `json:"requesterId"`
	RecipientID   string     `json:"recipientId"`
	RequesterRole string     `json:"requesterRole"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
	AcceptedAt    *time.Time `json:"acceptedAt,omitempty"`
	RemovedAt     *time.Time `json:"removedAt,omitempty"`
}

func toRelationshipResponse(rel *domain.Relationship) relationshipResponse {
	return relationshipResponse{
		ID:            rel.ID.String(),
		RequesterID:   rel.RequesterID.String(),
		RecipientID:   rel.RecipientID.String(),
		RequesterRole: rel.RequesterRole.String(),
		Status:        rel.Status.String(),
		CreatedAt:     rel.CreatedAt,
		AcceptedAt:    rel.AcceptedAt,
		RemovedAt:     rel.RemovedAt,
	}
}

func toRelationshipResponses(rels []domain.Relationship) []relationshipResponse {
	out := make([]relationshipResponse, 0, len(rels))
	for i := range rels {
		out = append(out, toRelationshipResponse(&rels[i]))
	}
	return out
}

type invitationResponse struct {
	ID             string    `json:"id"`
	RecipientEmail string    `json:"recipientEmail"`
	InviterRole    string    `json:"inviterRole"`
	Status         string    `json:"status"`
	ExpiresAt      time.Time `json:"expiresAt"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toInvitationResponse(inv *domain.PendingInvitation) invitationResponse {
	return invitationResponse{
		ID:             inv.ID.String(),
		RecipientEmail: inv.RecipientEmail,
		InviterRole:    inv.InviterRole.String(),
		Status:         inv.Status.String(),
		ExpiresAt:      inv.ExpiresAt,
		CreatedAt:      inv.CreatedAt,
	}
}

func toInvitationResponses(invs []domain.PendingInvitation) []invitationResponse {
	out := make([]invitationResponse, 0, len(invs))
	for i := range invs {
		out = append(out, toInvitationResponse(&invs[i]))
	}
	return out
}
