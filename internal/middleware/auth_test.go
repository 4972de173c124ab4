package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"order-service/pkg/config"
	"order-service/pkg/jwtutil"
	"order-service/prometheus"

	"github.com/labstack/echo/v4"
)

var setupOnce sync.Once

func setupAuth() {
	setupOnce.Do(func() {
		prometheus.InitMetrics(&config.Config{
			Metrics: config.MetricsConfig{Prefix: "middleware_test"},
		})
		jwtutil.Initialize(&config.JWTConfig{SigningKey: "test-signing-key", ExpirationHours: 1})
	})
}

func runAuth(t *testing.T, authorization string) (*httptest.ResponseRecorder, echo.Context, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	next := func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	}
	if err := AuthMiddleware(next)(c); err != nil {
		t.Fatalf("middleware: %v", err)
	}
	return rec, c, called
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	setupAuth()

	token, err := jwtutil.GenerateToken("op@example.com", 42, nil, "manager")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	rec, c, called := runAuth(t, "Bearer "+token)
	if !called {
		t.Fatalf("next handler not invoked: %d %s", rec.Code, rec.Body.String())
	}
	if c.Get("user_id").(uint) != 42 {
		t.Fatalf("expected user_id 42, got %v", c.Get("user_id"))
	}
	if c.Get("email").(string) != "op@example.com" {
		t.Fatalf("unexpected email %v", c.Get("email"))
	}
	if c.Get("role").(string) != "manager" {
		t.Fatalf("unexpected role %v", c.Get("role"))
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	setupAuth()

	rec, _, called := runAuth(t, "")
	if called {
		t.Fatalf("next handler must not run without a token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthMiddlewareRejectsGarbageToken(t *testing.T) {
	setupAuth()

	rec, _, called := runAuth(t, "Bearer not-a-token")
	if called {
		t.Fatalf("next handler must not run with an invalid token")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
