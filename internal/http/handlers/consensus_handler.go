package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/arbitration-backend/internal/http/handlers/common"
	"github.com/ignatzorin/arbitration-backend/internal/service"
)

// ConsensusHandler предоставляет HTTP слой движка консенсуса.
type ConsensusHandler struct {
	svc *service.ConsensusService
}

func NewConsensusHandler(svc *service.ConsensusService) *ConsensusHandler {
	return &ConsensusHandler{svc: svc}
}

// StartSession POST /cases/:id/session
func (h *ConsensusHandler) StartSession(c *gin.Context) {
	caseID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	session, err := h.svc.StartSession(c.Request.Context(), caseID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// GetSession GET /cases/:id/session
func (h *ConsensusHandler) GetSession(c *gin.Context) {
	caseID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	session, err := h.svc.GetSession(c.Request.Context(), caseID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// CastVote POST /cases/:id/session/votes
func (h *ConsensusHandler) CastVote(c *gin.Context) {
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
		Percent *int64 `json:"percent" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	vote, err := h.svc.CastVote(c.Request.Context(), caseID, userID, *req.Percent)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, vote)
}

// ListVotes GET /cases/:id/session/votes
func (h *ConsensusHandler) ListVotes(c *gin.Context) {
	caseID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	votes, err := h.svc.ListVotes(c.Request.Context(), caseID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, votes)
}

// MyVote GET /cases/:id/session/votes/my
func (h *ConsensusHandler) MyVote(c *gin.Context) {
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

	vote, err := h.svc.GetVote(c.Request.Context(), caseID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, vote)
}

// Finalize POST /cases/:id/session/finalize
func (h *ConsensusHandler) Finalize(c *gin.Context) {
	caseID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	session, err := h.svc.Finalize(c.Request.Context(), caseID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, session)
}
