package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/crownshift/logistics-api/internal/core/domain"
)

// RBAC admits callers whose tenant identity holds one of roles. It must run
// after Tenant; a request without a resolved tenant is unauthenticated.
func RBAC(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			t, ok := TenantFrom(c)
			if !ok {
				return domain.ErrUnauthenticated
			}
			if _, ok := allowed[t.Identity.Role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}

// RequireAdmin restricts a route to company administrators.
func RequireAdmin() echo.MiddlewareFunc {
	return RBAC(domain.RoleAdmin)
}
