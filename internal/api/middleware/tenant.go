package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

const tenantKey = "tenant"

// Tenant resolves the caller's company from the request credentials and
// stores it on the context. Requests without a valid credential stop here.
func Tenant(resolver ports.TenantResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			t, err := resolver.Resolve(req.Context(), req.Header, "")
			if err != nil {
				return err
			}
			SetTenant(c, t)
			return next(c)
		}
	}
}

func SetTenant(c echo.Context, t *domain.Tenant) {
	c.Set(tenantKey, t)
}

// TenantFrom returns the tenant stored by Tenant, if any.
func TenantFrom(c echo.Context) (*domain.Tenant, bool) {
	t, ok := c.Get(tenantKey).(*domain.Tenant)
	return t, ok && t != nil
}
