package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"

	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

const HeaderAdminToken = "X-Admin-Token"

// SeedAdminConfig lists the credentials that may run the seeder.
type SeedAdminConfig struct {
	// Token is compared against the X-Admin-Token header.
	Token string
	// UID is a user id allowed regardless of role.
	UID string
}

// SeedAdmin authorises the seeder either with the shared admin token or with
// an identity token belonging to UID or to an admin. The tenant is stored
// when an identity token was presented.
func SeedAdmin(cfg SeedAdminConfig, resolver ports.TenantResolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			if header := req.Header.Get(HeaderAdminToken); header != "" {
				if cfg.Token == "" || subtle.ConstantTimeCompare([]byte(header), []byte(cfg.Token)) != 1 {
					return domain.ErrForbidden
				}
				if t, err := resolver.Resolve(req.Context(), req.Header, ""); err == nil {
					SetTenant(c, t)
				}
				return next(c)
			}

			t, err := resolver.Resolve(req.Context(), req.Header, "")
			if err != nil {
				return err
			}
			if !t.IsAdmin() && (cfg.UID == "" || t.Identity.UserID != cfg.UID) {
				return domain.ErrForbidden
			}
			SetTenant(c, t)
			return next(c)
		}
	}
}
