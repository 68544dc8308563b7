package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crownshift/logistics-api/internal/core/domain"
)

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Hour).Unix()
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func bearer(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}

func TestTenantResolver_Bearer(t *testing.T) {
	r := NewTenantResolver("secret")
	tok := signToken(t, "secret", jwt.MapClaims{"sub": "u1", "email": "a@b.c", "role": "admin", "company_id": "co_A"})

	tenant, err := r.Resolve(context.Background(), bearer(tok), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tenant.CompanyID != "co_A" || tenant.Identity.UserID != "u1" || !tenant.IsAdmin() {
		t.Fatalf("unexpected tenant: %+v", tenant)
	}
}

func TestTenantResolver_CookieFallbacks(t *testing.T) {
	r := NewTenantResolver("secret")
	tok := signToken(t, "secret", jwt.MapClaims{"sub": "u1", "company_id": "co_A"})

	for _, name := range []string{"token", "session"} {
		h := http.Header{}
		h.Set("Cookie", "theme=dark; "+name+"="+tok)
		tenant, err := r.Resolve(context.Background(), h, "co_A")
		if err != nil {
			t.Fatalf("%s cookie: unexpected error: %v", name, err)
		}
		if tenant.CompanyID != "co_A" {
			t.Fatalf("%s cookie: unexpected company %s", name, tenant.CompanyID)
		}
	}
}

func TestTenantResolver_BearerWinsOverCookie(t *testing.T) {
	r := NewTenantResolver("secret")
	good := signToken(t, "secret", jwt.MapClaims{"company_id": "co_A"})
	other := signToken(t, "secret", jwt.MapClaims{"company_id": "co_B"})

	h := bearer(good)
	h.Set("Cookie", "token="+other)
	tenant, err := r.Resolve(context.Background(), h, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tenant.CompanyID != "co_A" {
		t.Fatalf("expected bearer company co_A, got %s", tenant.CompanyID)
	}
}

func TestTenantResolver_Failures(t *testing.T) {
	r := NewTenantResolver("secret")

	cases := []struct {
		name     string
		header   http.Header
		expected string
		want     error
	}{
		{"no credential", http.Header{}, "", domain.ErrUnauthenticated},
		{"non-bearer scheme", http.Header{"Authorization": {"Basic abc"}}, "", domain.ErrUnauthenticated},
		{"garbage token", bearer("not-a-jwt"), "", domain.ErrInvalidToken},
		{"wrong secret", bearer(signToken(t, "other", jwt.MapClaims{"company_id": "co_A"})), "", domain.ErrInvalidToken},
		{"expired", bearer(signToken(t, "secret", jwt.MapClaims{"company_id": "co_A", "exp": time.Now().Add(-time.Minute).Unix()})), "", domain.ErrInvalidToken},
		{"no company claim", bearer(signToken(t, "secret", jwt.MapClaims{"sub": "u1"})), "", domain.ErrMissingTenantClaim},
		{"company mismatch", bearer(signToken(t, "secret", jwt.MapClaims{"company_id": "co_A"})), "co_B", domain.ErrTenantMismatch},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tc.header, tc.expected)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestTenantResolver_RejectsOtherAlgorithms(t *testing.T) {
	r := NewTenantResolver("secret")
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"company_id": "co_A",
		"exp":        time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := r.Resolve(context.Background(), bearer(tok), ""); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
