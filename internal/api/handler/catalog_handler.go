package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/crownshift/logistics-api/internal/api/middleware"
	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

const headerAdminForce = "X-Admin-Force"

type CatalogHandler struct {
	service ports.CatalogService
}

func NewCatalogHandler(service ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

type seedRequest struct {
	CompanyID string `json:"companyId"`
}

type seedResponse struct {
	OK               bool   `json:"ok"`
	CompanyID        string `json:"companyId"`
	ServicesInserted int    `json:"servicesInserted"`
	FAQsInserted     int    `json:"faqsInserted"`
}

// Services handles GET /api/services.
//
// @Summary      List shipping services
// @Tags         reference
// @Produce      json
// @Success      200  {array}  domain.Service
// @Router       /api/services [get]
func (h *CatalogHandler) Services(c echo.Context) error {
	items, err := h.service.ListServices(c.Request().Context())
	if err != nil {
		return err
	}
	if items == nil {
		items = []*domain.Service{}
	}
	return c.JSON(http.StatusOK, items)
}

// FAQs handles GET /api/faqs.
//
// @Summary      List frequently asked questions
// @Tags         reference
// @Produce      json
// @Success      200  {array}  domain.FAQ
// @Router       /api/faqs [get]
func (h *CatalogHandler) FAQs(c echo.Context) error {
	items, err := h.service.ListFAQs(c.Request().Context())
	if err != nil {
		return err
	}
	if items == nil {
		items = []*domain.FAQ{}
	}
	return c.JSON(http.StatusOK, items)
}

// Seed handles POST /api/admin/seed. The company comes from the body or,
// failing that, from the caller's token.
//
// @Summary      Seed reference data
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        X-Admin-Token  header    string       false  "Shared admin token"
// @Param        X-Admin-Force  header    string       false  "Re-run even if already seeded (1|true)"
// @Param        body           body      seedRequest  false  "Company context"
// @Success      200            {object}  seedResponse
// @Failure      403            {object}  errorResponse
// @Failure      409            {object}  errorResponse
// @Router       /api/admin/seed [post]
func (h *CatalogHandler) Seed(c echo.Context) error {
	var req seedRequest
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
		}
	}

	// A JWT admin may only seed its own company; the admin token may name any.
	in := ports.SeedInput{CompanyID: req.CompanyID, RanBy: middleware.HeaderAdminToken}
	if _, ok := middleware.TenantFrom(c); ok {
		t, err := tenantFor(c, req.CompanyID)
		if err != nil {
			return err
		}
		in.CompanyID = t.CompanyID
		in.RanBy = t.Identity.UserID
	}
	in.Force, _ = strconv.ParseBool(c.Request().Header.Get(headerAdminForce))

	res, err := h.service.Seed(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, seedResponse{
		OK:               true,
		CompanyID:        res.CompanyID,
		ServicesInserted: res.ServicesInserted,
		FAQsInserted:     res.FAQsInserted,
	})
}
