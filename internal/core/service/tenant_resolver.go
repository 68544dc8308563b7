package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

// Cookie names checked, in order, when no bearer token is sent.
var credentialCookies = []string{"token", "session"}

type tenantResolver struct {
	secret []byte
}

// NewTenantResolver returns a resolver that verifies tokens signed with secret.
func NewTenantResolver(secret string) ports.TenantResolver {
	return &tenantResolver{secret: []byte(secret)}
}

func (r *tenantResolver) Resolve(_ context.Context, h http.Header, expectedCompanyID string) (*domain.Tenant, error) {
	raw := extractToken(h)
	if raw == "" {
		return nil, domain.ErrUnauthenticated
	}

	identity, err := parseIdentity(r.secret, raw)
	if err != nil {
		return nil, err
	}
	if identity.CompanyID == "" {
		return nil, domain.ErrMissingTenantClaim
	}
	if expectedCompanyID != "" && expectedCompanyID != identity.CompanyID {
		return nil, domain.ErrTenantMismatch
	}

	return &domain.Tenant{CompanyID: identity.CompanyID, Identity: identity}, nil
}

// extractToken returns the bearer token, or the first credential cookie.
func extractToken(h http.Header) string {
	if auth := h.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && strings.TrimSpace(parts[1]) != "" {
			return strings.TrimSpace(parts[1])
		}
	}

	req := http.Request{Header: h}
	for _, name := range credentialCookies {
		if ck, err := req.Cookie(name); err == nil && ck.Value != "" {
			return ck.Value
		}
	}
	return ""
}
