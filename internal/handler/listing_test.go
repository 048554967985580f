package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"propertyagent/internal/model"
	"propertyagent/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubListings map[int64]*model.Listing

func (s stubListings) GetListing(_ context.Context, id int64) (*model.Listing, error) {
	if id < 0 {
		return nil, errors.New("connection reset")
	}
	if l, ok := s[id]; ok {
		return l, nil
	}
	return nil, repository.ErrListingNotFound
}

func TestGetListing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/listings/:id", NewListingHandler(stubListings{
		1: {ID: 1, Title: "2BHK", Location: "Noida"},
	}).GetListing)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantBody string
	}{
		{"found", "/listings/1", http.StatusOK, `"location":"Noida"`},
		{"missing", "/listings/2", http.StatusNotFound, "Listing not found"},
		{"bad id", "/listings/abc", http.StatusBadRequest, "Invalid listing ID"},
		{"store error", "/listings/-1", http.StatusInternalServerError, "connection reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestSessionIDFallsBackToDefault(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewUploadHandler(nil, "session-id", "default-user")

	tests := []struct {
		header string
		want   string
	}{
		{"", "default-user"},
		{"   ", "default-user"},
		{"alice", "alice"},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			c.Request.Header.Set("session-id", tt.header)
		}
		assert.Equal(t, tt.want, h.sessionID(c))
	}
}
