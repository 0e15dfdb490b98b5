package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		status    int
		userID    string
		wantLevel zapcore.Level
	}{
		{"success logs at info", http.StatusOK, "auth0|a", zapcore.InfoLevel},
		{"client error logs at warn", http.StatusNotFound, "", zapcore.WarnLevel},
		{"server error logs at error", http.StatusInternalServerError, "", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)

			router := gin.New()
			router.Use(RequestLogger(zap.New(core)))
			router.GET("/products", func(c *gin.Context) {
				if tt.userID != "" {
					c.Set("user_id", tt.userID)
				}
				c.Status(tt.status)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products?search=tee", nil))

			entries := logs.All()
			require.Len(t, entries, 1)
			entry := entries[0]
			assert.Equal(t, tt.wantLevel, entry.Level)
			assert.Equal(t, "HTTP request", entry.Message)

			fields := entry.ContextMap()
			assert.Equal(t, "GET", fields["method"])
			assert.Equal(t, "/products", fields["path"])
			assert.Equal(t, "search=tee", fields["query"])
			assert.EqualValues(t, tt.status, fields["status"])
			if tt.userID != "" {
				assert.Equal(t, tt.userID, fields["user_id"])
			} else {
				assert.NotContains(t, fields, "user_id")
			}
		})
	}
}
