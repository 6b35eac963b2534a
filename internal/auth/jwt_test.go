package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	Init()

	token, err := GenerateToken("user-1", "test@example.com")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := validateToken(token)
	if err != nil {
		t.Fatalf("validateToken: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "test@example.com" {
		t.Errorf("claims = %+v, want user-1 / test@example.com", claims)
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	Init()

	if _, err := validateToken("not.a.token"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestJWTMiddleware(t *testing.T) {
	Init()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := GetClaimsFromContext(r.Context()); err != nil && r.URL.Path != "/health" {
			t.Errorf("no claims in context on %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	})
	protected := JWTMiddleware(next)

	t.Run("health is open", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest("GET", "/api/receipts", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid bearer token passes", func(t *testing.T) {
		token, err := GenerateToken("user-1", "test@example.com")
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		req := httptest.NewRequest("GET", "/api/receipts", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}
