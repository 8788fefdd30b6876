package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ytchou/focus-squad-sub000/internal/domain"
	"github.com/ytchou/focus-squad-sub000/internal/repository"
	"github.com/ytchou/focus-squad-sub000/internal/service"
)

// MatchHandler exposes quick match, leave, cancel, rejoin and token
// refresh over HTTP.
type MatchHandler struct {
	matchService *service.MatchService
}

// NewMatchHandler creates a MatchHandler instance.
func NewMatchHandler(matchService *service.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

// QuickMatchRequest carries optional filters and a target slot. All
// fields may be omitted for a pure "next table" match.
type QuickMatchRequest struct {
	Topic      string     `json:"topic"`
	Mode       string     `json:"mode" binding:"omitempty,oneof=forced_audio quiet"`
	Language   string     `json:"language"`
	TargetSlot *time.Time `json:"target_slot"`
}

// QuickMatch handles POST /api/match/quick.
func (h *MatchHandler) QuickMatch(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req QuickMatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logrus.WithField("user_id", userID).WithError(err).Warn("QuickMatch: invalid input")
		ErrorResponse(c, http.StatusBadRequest, "Invalid input")
		return
	}

	filters := repository.SessionFilters{
		Topic:    req.Topic,
		Mode:     domain.SessionMode(req.Mode),
		Language: req.Language,
	}
	result, err := h.matchService.QuickMatch(c.Request.Context(), userID, filters, req.TargetSlot)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, result)
}

// LeaveRequest names the session being left and an optional reason.
type LeaveRequest struct {
	SessionID uint   `json:"session_id" binding:"required"`
	Reason    string `json:"reason"`
}

// Leave handles POST /api/match/leave.
func (h *MatchHandler) Leave(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req LeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: session_id is required")
		return
	}
	if err := h.matchService.Leave(c.Request.Context(), req.SessionID, userID, req.Reason); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Left session"})
}

// Cancel handles POST /api/match/cancel — the pre-start full-refund leave.
func (h *MatchHandler) Cancel(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req LeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: session_id is required")
		return
	}
	if err := h.matchService.Cancel(c.Request.Context(), req.SessionID, userID); err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"message": "Session cancelled"})
}

// Rejoin handles POST /api/match/rejoin — seat reuse within the
// disconnect grace window. It also serves as the mid-session token
// refresh: the returned result carries a fresh 2h room credential.
func (h *MatchHandler) Rejoin(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req LeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "Invalid input: session_id is required")
		return
	}
	result, err := h.matchService.Rejoin(c.Request.Context(), req.SessionID, userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, result)
}
