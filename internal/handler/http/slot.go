package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ytchou/focus-squad-sub000/internal/service"
)

// SlotHandler serves the bookable slot listing.
type SlotHandler struct {
	slotService *service.SlotService
}

// NewSlotHandler creates a SlotHandler instance.
func NewSlotHandler(slotService *service.SlotService) *SlotHandler {
	return &SlotHandler{slotService: slotService}
}

// NextSlots handles GET /api/slots. The listing is advisory: queue
// depths and estimates may be stale, only the slot times are contract.
func (h *SlotHandler) NextSlots(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	slots, err := h.slotService.NextSlots(c.Request.Context(), userID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"slots": slots})
}
