package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/crownshift/logistics-api/internal/api/middleware"
	"github.com/crownshift/logistics-api/internal/core/domain"
)

var (
	clientA = &domain.Tenant{CompanyID: "co_A", Identity: domain.Identity{UserID: "u_1", Role: domain.RoleClient, CompanyID: "co_A"}}
	adminA  = &domain.Tenant{CompanyID: "co_A", Identity: domain.Identity{UserID: "u_admin", Role: domain.RoleAdmin, CompanyID: "co_A"}}
)

// newContext builds an echo context for a JSON request, optionally carrying
// a resolved tenant.
func newContext(method, target, body string, tenant *domain.Tenant) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if tenant != nil {
		middleware.SetTenant(c, tenant)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return out
}

func httpStatus(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}
