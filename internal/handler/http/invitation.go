package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
	"github.com/ytchou/focus-squad-sub000/internal/service"
)

// InvitationHandler exposes private table creation and the invitation
// lifecycle over HTTP.
type InvitationHandler struct {
	invitationService *service.InvitationService
}

// NewInvitationHandler creates an InvitationHandler instance.
func NewInvitationHandler(invitationService *service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

// CreatePrivateRequest describes a private table and its initial invitees.
type CreatePrivateRequest struct {
	StartTime           time.Time `json:"start_time" binding:"required"`
	Mode                string    `json:"mode" binding:"omitempty,oneof=forced_audio quiet"`
	Topic               string    `json:"topic"`
	Language            string    `json:"language"`
	MaxSeats            int       `json:"max_seats"`
	RecurringScheduleID *uint     `json:"recurring_schedule_id"`
	InviteeIDs          []uint    `json:"invitee_ids"`
}

// CreatePrivate handles POST /api/sessions/private.
func (h *InvitationHandler) CreatePrivate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req CreatePrivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithField("user_id", userID).WithError(err).Warn("CreatePrivate: invalid input")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: start_time is required")
		return
	}

	result, invitations, err := h.invitationService.CreatePrivateSession(c.Request.Context(), userID, service.PrivateSessionRequest{
		StartTime:           req.StartTime,
		Mode:                domain.SessionMode(req.Mode),
		Topic:               req.Topic,
		Language:            req.Language,
		MaxSeats:            req.MaxSeats,
		RecurringScheduleID: req.RecurringScheduleID,
		InviteeIDs:          req.InviteeIDs,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, gin.H{
		"match":       result,
		"invitations": invitations,
	})
}

// InviteRequest adds invitees to an existing private table.
type InviteRequest struct {
	SessionID  uint   `json:"session_id" binding:"required"`
	InviteeIDs []uint `json:"invitee_ids" binding:"required,min=1"`
}

// Invite handles POST /api/invitations.
func (h *InvitationHandler) Invite(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: session_id and invitee_ids are required")
		return
	}
	invitations, err := h.invitationService.Invite(c.Request.Context(), userID, req.SessionID, req.InviteeIDs)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, gin.H{"invitations": invitations})
}

// RespondRequest accepts or declines one invitation.
type RespondRequest struct {
	InvitationID uint  `json:"invitation_id" binding:"required"`
	Accept       *bool `json:"accept" binding:"required"`
}

// Respond handles POST /api/invitations/respond.
func (h *InvitationHandler) Respond(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: invitation_id and accept are required")
		return
	}
	result, err := h.invitationService.Respond(c.Request.Context(), req.InvitationID, userID, *req.Accept)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	if result == nil {
		SuccessResponse(c, http.StatusOK, gin.H{"message": "Invitation declined"})
		return
	}
	SuccessResponse(c, http.StatusOK, result)
}

// ListPending handles GET /api/invitations/pending.
func (h *InvitationHandler) ListPending(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	invitations, err := h.invitationService.ListPending(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"invitations": invitations})
}
