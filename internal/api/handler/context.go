package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crownshift/logistics-api/internal/api/middleware"
	"github.com/crownshift/logistics-api/internal/core/domain"
)

// tenantFor returns the resolved tenant and, when the request body names a
// company, checks that it is the caller's.
func tenantFor(c echo.Context, companyID string) (*domain.Tenant, error) {
	t, ok := middleware.TenantFrom(c)
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	if companyID != "" && companyID != t.CompanyID {
		return nil, domain.ErrTenantMismatch
	}
	return t, nil
}

// bindAndValidate decodes the body into req and runs the struct validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	return c.Validate(req)
}
