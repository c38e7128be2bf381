package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tripsync/config"
	"tripsync/internal/auth"

	"github.com/gin-gonic/gin"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		AccessSecret:  "testsecret",
		RefreshSecret: "testrefresh",
		AccessExpiry:  time.Minute,
		RefreshExpiry: time.Hour,
		Issuer:        "test",
	}
}

func buildTestEngine(cfg *config.JWTConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", AuthRequired(cfg), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c)})
	})
	return r
}

func TestAuthRequiredMissingHeader(t *testing.T) {
	r := buildTestEngine(testJWTConfig())
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
}

func TestAuthRequiredBadToken(t *testing.T) {
	r := buildTestEngine(testJWTConfig())
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", resp.Code)
	}
}

func TestAuthRequiredWrongScheme(t *testing.T) {
	cfg := testJWTConfig()
	r := buildTestEngine(cfg)
	token, err := auth.GenerateAccessToken(cfg, 7, "a@b.c", "ada")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic "+token)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for non-bearer scheme, got %d", resp.Code)
	}
}

func TestAuthRequiredValidToken(t *testing.T) {
	cfg := testJWTConfig()
	r := buildTestEngine(cfg)
	token, err := auth.GenerateAccessToken(cfg, 7, "a@b.c", "ada")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with valid token, got %d (%s)", resp.Code, resp.Body.String())
	}
}

func TestAuthRequiredWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	other := testJWTConfig()
	other.AccessSecret = "different"
	r := buildTestEngine(cfg)
	token, err := auth.GenerateAccessToken(other, 7, "a@b.c", "ada")
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for token signed with wrong secret, got %d", resp.Code)
	}
}
