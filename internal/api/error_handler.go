package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/crownshift/logistics-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type mappedError struct {
	target error
	status int
	code   string
}

// errorTable is matched in order; specific errors precede the families
// they wrap.
var errorTable = []mappedError{
	{domain.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{domain.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{domain.ErrMissingTenantClaim, http.StatusUnauthorized, "missing_tenant_claim"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{domain.ErrTenantMismatch, http.StatusForbidden, "tenant_mismatch"},
	{domain.ErrForbidden, http.StatusForbidden, "forbidden"},
	{domain.ErrCompanyInactive, http.StatusForbidden, "company_inactive"},
	{domain.ErrInventoryNotFound, http.StatusNotFound, "inventory_not_found"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrUserNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrCompanyNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrInsufficientStock, http.StatusConflict, "insufficient_stock"},
	{domain.ErrVehicleUnavailable, http.StatusConflict, "vehicle_unavailable"},
	{domain.ErrDriverUnavailable, http.StatusConflict, "driver_unavailable"},
	{domain.ErrPaymentFinalized, http.StatusConflict, "payment_finalized"},
	{domain.ErrSeedAlreadyRun, http.StatusConflict, "seed_already_run"},
	{domain.ErrUserExists, http.StatusConflict, "user_exists"},
	{domain.ErrAlreadyProcessed, http.StatusConflict, "already_processed"},
	{domain.ErrInvalidSignature, http.StatusBadRequest, "invalid_signature"},
	{domain.ErrValidation, http.StatusUnprocessableEntity, "validation_failed"},
	{domain.ErrInvalidTransition, http.StatusUnprocessableEntity, "invalid_transition"},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain errors
// to status codes and renders {"error": "<code>", "message": "<text>"}.
// Unexpected errors are logged and surface as internal_error only.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, errorResponse) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, errorResponse{Error: httpCode(he.Code), Message: fmt.Sprintf("%v", he.Message)}
	}

	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m.status, errorResponse{Error: m.code, Message: err.Error()}
		}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: "internal server error"}
}

// httpCode turns a status code into a snake_case error code.
func httpCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "http_error"
	}
	return strings.ReplaceAll(strings.ToLower(text), " ", "_")
}
