package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestVerdictHandler_Submit_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &VerdictHandler{svc: nil}
	r.POST("/cases/:id/verdict", handler.Submit)

	req, _ := http.NewRequest("POST", "/cases/00000000-0000-0000-0000-000000000001/verdict", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerdictHandler_Accept_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &VerdictHandler{svc: nil}
	r.POST("/cases/:id/verdict/accept", handler.Accept)

	req, _ := http.NewRequest("POST", "/cases/00000000-0000-0000-0000-000000000001/verdict/accept", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerdictHandler_CheckDeadline_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &VerdictHandler{svc: nil}
	r.POST("/cases/:id/verdict/check-deadline", handler.CheckDeadline)

	req, _ := http.NewRequest("POST", "/cases/invalid-uuid/verdict/check-deadline", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
