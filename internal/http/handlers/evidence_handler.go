package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/arbitration-backend/internal/http/handlers/common"
	"github.com/ignatzorin/arbitration-backend/internal/service"
)

// EvidenceHandler — загрузка и чтение доказательств по делу.
type EvidenceHandler struct {
	svc *service.EvidenceService
}

func NewEvidenceHandler(svc *service.EvidenceService) *EvidenceHandler {
	return &EvidenceHandler{svc: svc}
}

// Attach POST /cases/:id/evidence (multipart/form-data, поле file)
func (h *EvidenceHandler) Attach(c *gin.Context) {
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

	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondBadRequest(c, "поле file обязательно")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.RespondBadRequest(c, "не удалось прочитать файл")
		return
	}
	defer file.Close()

	ev, err := h.svc.Attach(c.Request.Context(), caseID, userID, fileHeader.Filename, file)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

// List GET /cases/:id/evidence
func (h *EvidenceHandler) List(c *gin.Context) {
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

	files, err := h.svc.List(c.Request.Context(), caseID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, files)
}

// Download GET /evidence/:id
func (h *EvidenceHandler) Download(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	evidenceID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	ev, rc, err := h.svc.Open(c.Request.Context(), evidenceID, userID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	defer rc.Close()

	c.Header("Content-Disposition", `attachment; filename="`+ev.FileName+`"`)
	c.Header("Content-Length", strconv.FormatInt(ev.SizeBytes, 10))
	c.DataFromReader(http.StatusOK, ev.SizeBytes, ev.MimeType, rc, nil)
}
