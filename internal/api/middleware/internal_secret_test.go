package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func internalSecretRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/internal/ping", InternalSecretMiddleware(secret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func TestInternalSecretMiddleware(t *testing.T) {
	cases := []struct {
		name     string
		secret   string
		header   string
		wantCode int
	}{
		{"matching secret", "s3cret", "s3cret", http.StatusOK},
		{"missing header", "s3cret", "", http.StatusUnauthorized},
		{"wrong secret", "s3cret", "other", http.StatusUnauthorized},
		{"unconfigured secret", "", "anything", http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := internalSecretRouter(tc.secret)
			req := httptest.NewRequest(http.MethodGet, "/internal/ping", nil)
			if tc.header != "" {
				req.Header.Set("X-Internal-Secret", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.wantCode {
				t.Fatalf("got %d want %d body=%s", w.Code, tc.wantCode, w.Body.String())
			}
		})
	}
}
