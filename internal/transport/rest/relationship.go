package rest

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/heartmarshall/lingocards-backend/internal/domain"
	"github.com/heartmarshall/lingocards-backend/internal/service/relationship"
)

// relationshipService defines the minimal interface needed by
// RelationshipHandler.
type relationshipService interface {
	Request(ctx context.Context, input relationship.RequestInput) (*relationship.RequestOutput, error)
	Accept(ctx context.Context, input relationship.AcceptInput) (*domain.Relationship, error)
	Remove(ctx context.Context, input relationship.RemoveInput) (*domain.Relationship, error)
	CancelInvitation(ctx context.Context, input relationship.CancelInvitationInput) (*domain.PendingInvitation, error)
	List(ctx context.Context) (*relationship.ListOutput, error)
}

// RelationshipHandler serves the tutor/student graph REST endpoints.
type RelationshipHandler struct {
	svc relationshipService
	log *slog.Logger
}

// NewRelationshipHandler creates a RelationshipHandler.
func NewRelationshipHandler(svc relationshipService, logger *slog.Logger) *RelationshipHandler {
	return &RelationshipHandler{svc: svc, log: logger.With("handler", "relationship")}
}

type requestRelationshipRequest struct {
	RecipientEmail string `json:"recipientEmail"`
	Role           string `json:"role"`
}

type requestRelationshipResponse struct {
	// Exactly one of the two fields is set.
	Relationship *relationshipResponse `json:"relationship,omitempty"`
	Invitation   *invitationResponse   `json:"invitation,omitempty"`
}

type relationshipListResponse struct {
	Tutors             []relationshipResponse `json:"tutors"`
	Students           []relationshipResponse `json:"students"`
	PendingIncoming    []relationshipResponse `json:"pending_in"`
	PendingOutgoing    []relationshipResponse `json:"pending_out"`
	PendingInvitations []invitationResponse   `json:"pending_invitations"`
}

// Request handles POST /relationships.
func (h *RelationshipHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req requestRelationshipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.svc.Request(r.Context(), relationship.RequestInput{
		RecipientEmail: req.RecipientEmail,
		Role:           domain.RelationshipRole(req.Role),
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	resp := requestRelationshipResponse{}
	if out.Relationship != nil {
		rel := toRelationshipResponse(out.Relationship)
		resp.Relationship = &rel
	}
	if out.Invitation != nil {
		inv := toInvitationResponse(out.Invitation)
		resp.Invitation = &inv
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Accept handles POST /relationships/{relationshipID}/accept.
func (h *RelationshipHandler) Accept(w http.ResponseWriter, r *http.Request) {
	relationshipID, err := pathUUID(r, "relationshipID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid relationship id")
		return
	}

	rel, err := h.svc.Accept(r.Context(), relationship.AcceptInput{RelationshipID: relationshipID})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toRelationshipResponse(rel))
}

// Remove handles DELETE /relationships/{relationshipID}.
func (h *RelationshipHandler) Remove(w http.ResponseWriter, r *http.Request) {
	relationshipID, err := pathUUID(r, "relationshipID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid relationship id")
		return
	}

	rel, err := h.svc.Remove(r.Context(), relationship.RemoveInput{RelationshipID: relationshipID})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toRelationshipResponse(rel))
}

// CancelInvitation handles DELETE /invitations/{invitationID}.
func (h *RelationshipHandler) CancelInvitation(w http.ResponseWriter, r *http.Request) {
	invitationID, err := pathUUID(r, "invitationID")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid invitation id")
		return
	}

	inv, err := h.svc.CancelInvitation(r.Context(), relationship.CancelInvitationInput{InvitationID: invitationID})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, toInvitationResponse(inv))
}

// List handles GET /relationships.
func (h *RelationshipHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.List(r.Context())
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, relationshipListResponse{
		Tutors:             toRelationshipResponses(out.Tutors),
		Students:           toRelationshipResponses(out.Students),
		PendingIncoming:    toRelationshipResponses(out.PendingIncoming),
		PendingOutgoing:    toRelationshipResponses(out.PendingOutgoing),
		PendingInvitations: toInvitationResponses(out.PendingInvitations),
	})
}
