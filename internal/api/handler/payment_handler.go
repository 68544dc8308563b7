package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/crownshift/logistics-api/internal/api/metrics"
	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

const (
	headerStripeSignature = "Stripe-Signature"
	headerCallbackToken   = "X-Callback-Token"
	maxWebhookBody        = 1 << 20
)

type PaymentHandler struct {
	service ports.PaymentService
}

func NewPaymentHandler(service ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// StartStripe handles POST /api/payments/stripe.
//
// @Summary      Start a Stripe Checkout payment
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      stripePaymentRequest  true  "Payment"
// @Success      200   {object}  stripePaymentResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/payments/stripe [post]
func (h *PaymentHandler) StartStripe(c echo.Context) error {
	var req stripePaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	tenant, err := tenantFor(c, req.CompanyID)
	if err != nil {
		return err
	}

	sess, err := h.service.StartStripe(c.Request().Context(), ports.StripePaymentInput{
		CompanyID:  tenant.CompanyID,
		ShipmentID: req.ShipmentID,
		Amount:     req.Amount,
		Currency:   req.Currency,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		return err
	}
	metrics.PaymentsStartedTotal.WithLabelValues(string(domain.ProviderStripe)).Inc()
	return c.JSON(http.StatusOK, stripePaymentResponse{ID: sess.ID, URL: sess.URL})
}

// StartMpesa handles POST /api/payments/mpesa.
//
// @Summary      Start an M-Pesa STK push
// @Tags         payments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      mpesaPaymentRequest  true  "Payment"
// @Success      200   {object}  mpesaPaymentResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/payments/mpesa [post]
func (h *PaymentHandler) StartMpesa(c echo.Context) error {
	var req mpesaPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	tenant, err := tenantFor(c, req.CompanyID)
	if err != nil {
		return err
	}

	res, err := h.service.StartMpesa(c.Request().Context(), ports.MpesaPaymentInput{
		CompanyID:  tenant.CompanyID,
		ShipmentID: req.ShipmentID,
		Phone:      req.Phone,
		Amount:     req.Amount,
	})
	if err != nil {
		return err
	}
	metrics.PaymentsStartedTotal.WithLabelValues(string(domain.ProviderMpesa)).Inc()
	return c.JSON(http.StatusOK, mpesaPaymentResponse{
		Started:           true,
		CheckoutRequestID: res.CheckoutRequestID,
		CustomerMessage:   res.CustomerMessage,
	})
}

// StripeWebhook handles POST /api/payments/stripe/webhook.
//
// @Summary      Receive a Stripe event
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header    string  true  "Stripe signature"
// @Success      200               {object}  webhookResponse
// @Failure      400               {object}  errorResponse
// @Router       /api/payments/stripe/webhook [post]
func (h *PaymentHandler) StripeWebhook(c echo.Context) error {
	payload, err := readBody(c)
	if err != nil {
		return err
	}
	sig := c.Request().Header.Get(headerStripeSignature)
	return h.acknowledge(c, domain.ProviderStripe, func() (*ports.WebhookResult, error) {
		return h.service.HandleStripeWebhook(c.Request().Context(), payload, sig)
	})
}

// MpesaCallback handles POST /api/payments/mpesa/callback.
//
// @Summary      Receive an M-Pesa STK callback
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Callback-Token  header    string  false  "Shared callback secret"
// @Param        token             query     string  false  "Shared callback secret"
// @Success      200               {object}  webhookResponse
// @Failure      400               {object}  errorResponse
// @Router       /api/payments/mpesa/callback [post]
func (h *PaymentHandler) MpesaCallback(c echo.Context) error {
	payload, err := readBody(c)
	if err != nil {
		return err
	}
	token := c.Request().Header.Get(headerCallbackToken)
	if token == "" {
		token = c.QueryParam("token")
	}
	return h.acknowledge(c, domain.ProviderMpesa, func() (*ports.WebhookResult, error) {
		return h.service.HandleMpesaCallback(c.Request().Context(), payload, token)
	})
}

func (h *PaymentHandler) acknowledge(c echo.Context, provider domain.PaymentProvider, handle func() (*ports.WebhookResult, error)) error {
	start := time.Now()
	res, err := handle()
	metrics.WebhookDuration.WithLabelValues(string(provider)).Observe(time.Since(start).Seconds())

	switch {
	case errors.Is(err, domain.ErrInvalidSignature):
		metrics.WebhooksTotal.WithLabelValues(string(provider), "rejected").Inc()
		return err
	case err != nil:
		metrics.WebhooksTotal.WithLabelValues(string(provider), "error").Inc()
		return err
	case res.Duplicate:
		metrics.WebhooksTotal.WithLabelValues(string(provider), "duplicate").Inc()
	default:
		metrics.WebhooksTotal.WithLabelValues(string(provider), "processed").Inc()
	}
	return c.JSON(http.StatusOK, webhookResponse{Received: true, Duplicate: res.Duplicate})
}

// readBody returns the raw request body; signatures are computed over it.
func readBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	return body, nil
}
