package handler

import (
	"mime"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"

	"github.com/crownshift/logistics-api/internal/api/metrics"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

type InvoiceHandler struct {
	service ports.InvoiceService
}

func NewInvoiceHandler(service ports.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{service: service}
}

type invoiceResponse struct {
	URL string `json:"url"`
}

// Generate handles GET /api/invoices/generate/:shipmentId.
//
// @Summary      Render and store the invoice of a shipment
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        shipmentId  path      string  true  "Shipment id"
// @Success      200         {object}  invoiceResponse
// @Failure      403         {object}  errorResponse
// @Failure      404         {object}  errorResponse
// @Router       /api/invoices/generate/{shipmentId} [get]
func (h *InvoiceHandler) Generate(c echo.Context) error {
	tenant, err := tenantFor(c, "")
	if err != nil {
		return err
	}
	res, err := h.service.Generate(c.Request().Context(), tenant.CompanyID, c.Param("shipmentId"))
	if err != nil {
		return err
	}
	metrics.InvoicesGeneratedTotal.Inc()
	return c.JSON(http.StatusOK, invoiceResponse{URL: res.URL})
}

// Download handles GET /api/files/*. Access is granted by the signed token.
//
// @Summary      Download a stored document
// @Tags         invoices
// @Produce      application/pdf
// @Param        path   path      string  true  "Object path"
// @Param        token  query     string  true  "Signed download token"
// @Success      200
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Failure      404    {object}  errorResponse
// @Router       /api/files/{path} [get]
func (h *InvoiceHandler) Download(c echo.Context) error {
	objectPath := c.Param("*")
	rc, err := h.service.Open(c.Request().Context(), objectPath, c.QueryParam("token"))
	if err != nil {
		return err
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(objectPath))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `inline; filename="`+path.Base(objectPath)+`"`)
	return c.Stream(http.StatusOK, contentType, rc)
}
