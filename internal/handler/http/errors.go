package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ytchou/focus-squad-sub000/internal/service"
)

// HandleServiceError maps the business error taxonomy onto HTTP status
// codes. Anything unexpected is logged and collapsed into a 500.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAlreadyInSession):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSessionFull):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrInvitationNotFound):
		ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrSessionPhase):
		ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrInvitationExpired):
		ErrorResponse(c, http.StatusGone, err.Error())
	case errors.Is(err, service.ErrInsufficientCredits):
		ErrorResponse(c, http.StatusPaymentRequired, err.Error())
	case errors.Is(err, service.ErrRoomService):
		ErrorResponse(c, http.StatusBadGateway, "room provider unavailable")
	default:
		logrus.WithError(err).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// currentUserID pulls the authenticated user id set by the auth middleware.
func currentUserID(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get("user_id")
	if !exists {
		logrus.Warn("Handler: user id not found in context, middleware missing?")
		ErrorResponse(c, http.StatusUnauthorized, "User not authenticated")
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	if !ok {
		logrus.Error("Handler: user id in context is not uint")
		ErrorResponse(c, http.StatusInternalServerError, "Internal server error processing user ID")
		return 0, false
	}
	return userID, true
}
