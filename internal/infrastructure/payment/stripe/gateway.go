package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

const metadataShipmentID = "shipment_id"

var ErrProviderDown = errors.New("stripe unavailable")

type Config struct {
	SecretKey     string
	WebhookSecret string
}

// Gateway implements ports.CardGateway with Stripe Checkout.
type Gateway struct {
	api           *client.API
	webhookSecret string
}

func NewGateway(cfg Config) *Gateway {
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)
	return &Gateway{api: sc, webhookSecret: cfg.WebhookSecret}
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, in ports.CheckoutInput) (*ports.CheckoutSession, error) {
	meta := map[string]string{metadataShipmentID: in.ShipmentID}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(in.Currency),
				UnitAmount: stripe.Int64(in.Amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String("Shipment " + in.ShipmentID),
				},
			},
		}},
		SuccessURL:        stripe.String(in.SuccessURL),
		CancelURL:         stripe.String(in.CancelURL),
		ClientReferenceID: stripe.String(in.ShipmentID),
		Metadata:          meta,
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{Metadata: meta},
	}
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return &ports.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// ParseWebhook verifies the Stripe-Signature header and maps the event to a
// payment transition. Event types that do not move a payment come back with
// an empty Status so they are still recorded.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (*ports.ProviderEvent, error) {
	if g.webhookSecret == "" || signature == "" {
		return nil, domain.ErrInvalidSignature
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	out := &ports.ProviderEvent{
		Provider: domain.ProviderStripe,
		ID:       event.ID,
		Type:     string(event.Type),
	}
	if event.Data == nil {
		return out, nil
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted,
		stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded,
		stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Reference = sess.ID
		out.ShipmentID = sess.Metadata[metadataShipmentID]
		if out.ShipmentID == "" {
			out.ShipmentID = sess.ClientReferenceID
		}
		switch event.Type {
		case stripe.EventTypeCheckoutSessionAsyncPaymentFailed:
			out.Status = domain.PaymentFailed
		case stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
			out.Status = domain.PaymentPaid
		default:
			// Delayed methods complete the session unpaid; the async events settle it.
			if sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
				sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired {
				out.Status = domain.PaymentPaid
			}
		}
	case stripe.EventTypePaymentIntentPaymentFailed:
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.Reference = pi.ID
		out.ShipmentID = pi.Metadata[metadataShipmentID]
		out.Status = domain.PaymentFailed
	}
	return out, nil
}

func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: %s", ErrProviderDown, stripeErr.Msg)
	}
	return fmt.Errorf("stripe checkout: %w", err)
}
