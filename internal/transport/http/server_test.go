package http

import (
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"IslandWar/internal/shared/security"
	"IslandWar/internal/transport/http/middleware"
)

func TestNewServer_Healthz(t *testing.T) {
	gin.SetMode(gin.TestMode)

	s := NewServer(":0", gin.New())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodGet, "/healthz", nil)
	s.Engine().ServeHTTP(w, req)

	if w.Code != nethttp.StatusOK {
		t.Fatalf("unexpected status code: got=%d want=%d", w.Code, nethttp.StatusOK)
	}
}

func TestAuth_RejectsMissingAndBadTokens(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

	s := NewServer(":0", gin.New())
	s.Group().GET("/me", middleware.Auth(), func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{"accountId": middleware.AccountID(c)})
	})

	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, httptest.NewRequest(nethttp.MethodGet, "/me", nil))
	if w.Code != nethttp.StatusUnauthorized {
		t.Fatalf("no token: got=%d", w.Code)
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(nethttp.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	s.Engine().ServeHTTP(w, req)
	if w.Code != nethttp.StatusUnauthorized {
		t.Fatalf("garbage token: got=%d", w.Code)
	}

	token, err := security.Award("acc-9")
	if err != nil {
		t.Fatal(err)
	}
	w = httptest.NewRecorder()
	req = httptest.NewRequest(nethttp.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	s.Engine().ServeHTTP(w, req)
	if w.Code != nethttp.StatusOK {
		t.Fatalf("valid token: got=%d body=%s", w.Code, w.Body.String())
	}
}
