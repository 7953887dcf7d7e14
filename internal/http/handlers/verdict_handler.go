package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/arbitration-backend/internal/http/handlers/common"
	"github.com/ignatzorin/arbitration-backend/internal/service"
)

// VerdictHandler предоставляет HTTP слой ворот автоматического вердикта.
type VerdictHandler struct {
	svc *service.VerdictService
}

func NewVerdictHandler(svc *service.VerdictService) *VerdictHandler {
	return &VerdictHandler{svc: svc}
}

// Submit POST /cases/:id/verdict
func (h *VerdictHandler) Submit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	caseID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req struct {
		Percent     *int64 `json:"percent" binding:"required"`
		Explanation string `json:"explanation"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.svc.SubmitVerdict(c.Request.Context(), caseID, userID, *req.Percent, req.Explanation)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Accept POST /cases/:id/verdict/accept
func (h *VerdictHandler) Accept(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	caseID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.svc.AcceptVerdict(c.Request.Context(), caseID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Reject POST /cases/:id/verdict/reject
func (h *VerdictHandler) Reject(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	caseID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.svc.RejectVerdict(c.Request.Context(), caseID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CheckDeadline POST /cases/:id/verdict/check-deadline
func (h *VerdictHandler) CheckDeadline(c *gin.Context) {
	caseID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	result, err := h.svc.CheckDeadline(c.Request.Context(), caseID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}
