package delivery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authdomain "medbs-backend/internal/auth/domain"
	"medbs-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type stubAuth struct {
	devices map[string]string
}

func (s *stubAuth) ValidateToken(_ context.Context, token string) (*authdomain.User, error) {
	if token != "good" {
		return nil, usecase.ErrInvalidToken
	}
	return &authdomain.User{ID: "u1"}, nil
}

func (s *stubAuth) RegisterDevice(_ context.Context, userID, token, _ string) error {
	s.devices[token] = userID
	return nil
}

func (s *stubAuth) UnregisterDevice(_ context.Context, userID, token string) error {
	if s.devices[token] == userID {
		delete(s.devices, token)
	}
	return nil
}

func newRouter(auth *stubAuth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewDeviceHandler(auth, zap.NewNop())
	tokens := r.Group("/api/notifications/tokens", AuthMiddleware(auth))
	tokens.POST("", h.RegisterDevice)
	tokens.DELETE("/:token", h.UnregisterDevice)
	return r
}

func request(r *gin.Engine, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddlewareRoutes(t *testing.T) {
	r := newRouter(&stubAuth{devices: map[string]string{}})

	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodPost, "/api/notifications/tokens", "", `{"token":"t"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodPost, "/api/notifications/tokens", "Token good", `{"token":"t"}`).Code)
	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodPost, "/api/notifications/tokens", "Bearer bad", `{"token":"t"}`).Code)
}

func TestDeviceRegistration(t *testing.T) {
	auth := &stubAuth{devices: map[string]string{}}
	r := newRouter(auth)

	w := request(r, http.MethodPost, "/api/notifications/tokens", "Bearer good", `{"token":"tok-a","device_info":"pixel"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", auth.devices["tok-a"])

	w = request(r, http.MethodPost, "/api/notifications/tokens", "Bearer good", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = request(r, http.MethodDelete, "/api/notifications/tokens/tok-a", "Bearer good", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, auth.devices)
}
