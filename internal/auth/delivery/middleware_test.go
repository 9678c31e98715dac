package delivery

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(&stubAuth{}), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("userID"))
	})

	tests := []struct {
		name   string
		header string
		want   int
		msg    string
	}{
		{"missing header", "", http.StatusUnauthorized, "authorization header required"},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, "invalid authorization header format"},
		{"empty bearer", "Bearer ", http.StatusUnauthorized, "invalid authorization header format"},
		{"rejected token", "Bearer stale", http.StatusUnauthorized, "invalid or expired token"},
		{"valid token", "Bearer good", http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := request(r, http.MethodGet, "/me", tt.header, "")
			assert.Equal(t, tt.want, w.Code)
			if tt.msg != "" {
				assert.JSONEq(t, `{"error":"`+tt.msg+`"}`, w.Body.String())
				return
			}
			assert.Equal(t, "u1", w.Body.String())
		})
	}
}
