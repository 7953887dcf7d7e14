package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestVoterHandler_GetVoter_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &VoterHandler{svc: nil}
	r.GET("/voters/:id", handler.GetVoter)

	req, _ := http.NewRequest("GET", "/voters/invalid-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestVoterHandler_RegisterVoter_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &VoterHandler{svc: nil}
	r.POST("/voters/:id", handler.RegisterVoter)

	req, _ := http.NewRequest("POST", "/voters/00000000-0000-0000-0000-000000000001", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVoterHandler_BanVoter_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &VoterHandler{svc: nil}
	r.POST("/voters/:id/ban", handler.BanVoter)

	req, _ := http.NewRequest("POST", "/voters/00000000-0000-0000-0000-000000000001/ban", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLedgerHandler_GetBalance_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &LedgerHandler{svc: nil}
	r.GET("/wallet/balance", handler.GetBalance)

	req, _ := http.NewRequest("GET", "/wallet/balance", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEvidenceHandler_Attach_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &EvidenceHandler{svc: nil}
	r.POST("/cases/:id/evidence", handler.Attach)

	req, _ := http.NewRequest("POST", "/cases/00000000-0000-0000-0000-000000000001/evidence", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
