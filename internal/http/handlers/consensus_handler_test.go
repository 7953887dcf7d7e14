package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestConsensusHandler_StartSession_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ConsensusHandler{svc: nil}
	r.POST("/cases/:id/session", handler.StartSession)

	req, _ := http.NewRequest("POST", "/cases/invalid-uuid/session", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConsensusHandler_CastVote_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ConsensusHandler{svc: nil}
	r.POST("/cases/:id/session/votes", handler.CastVote)

	req, _ := http.NewRequest("POST", "/cases/00000000-0000-0000-0000-000000000001/session/votes", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConsensusHandler_MyVote_Unauthorized(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ConsensusHandler{svc: nil}
	r.GET("/cases/:id/session/votes/my", handler.MyVote)

	req, _ := http.NewRequest("GET", "/cases/00000000-0000-0000-0000-000000000001/session/votes/my", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestConsensusHandler_Finalize_InvalidID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := &ConsensusHandler{svc: nil}
	r.POST("/cases/:id/session/finalize", handler.Finalize)

	req, _ := http.NewRequest("POST", "/cases/not-a-uuid/session/finalize", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
