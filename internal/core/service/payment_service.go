package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

const TopicPaymentStatusChanged = "payment.status_changed"

// DedupChecker abstracts the webhook idempotency cache (Redis). It is only a
// fast path; the transactional event ledger is authoritative.
type DedupChecker interface {
	IsDuplicate(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

type PaymentService struct {
	shipments ports.ShipmentRepository
	events    ports.WebhookEventRepository
	tx        ports.TxManager
	card      ports.CardGateway
	mobile    ports.MobileMoneyGateway
	dedup     DedupChecker
	pub       ports.Publisher
	log       zerolog.Logger
}

func NewPaymentService(
	shipments ports.ShipmentRepository,
	events ports.WebhookEventRepository,
	tx ports.TxManager,
	card ports.CardGateway,
	mobile ports.MobileMoneyGateway,
	dedup DedupChecker,
	pub ports.Publisher,
	log zerolog.Logger,
) *PaymentService {
	return &PaymentService{
		shipments: shipments,
		events:    events,
		tx:        tx,
		card:      card,
		mobile:    mobile,
		dedup:     dedup,
		pub:       pub,
		log:       log,
	}
}

// StartStripe opens a card checkout session for a shipment of the caller.
func (s *PaymentService) StartStripe(ctx context.Context, in ports.StripePaymentInput) (*ports.CheckoutSession, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	currency := strings.ToLower(in.Currency)
	if currency == "" {
		currency = "usd"
	}

	shipment, err := s.payable(ctx, in.CompanyID, in.ShipmentID)
	if err != nil {
		return nil, err
	}

	session, err := s.card.CreateCheckoutSession(ctx, ports.CheckoutInput{
		ShipmentID: shipment.ID,
		Amount:     in.Amount,
		Currency:   currency,
		SuccessURL: in.SuccessURL,
		CancelURL:  in.CancelURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	if err := s.shipments.SetPayment(ctx, shipment.ID, domain.Payment{
		Provider:  domain.ProviderStripe,
		Status:    domain.PaymentPending,
		Reference: session.ID,
		Amount:    in.Amount,
		Currency:  currency,
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	s.log.Info().Str("shipment_id", shipment.ID).Str("session_id", session.ID).Msg("stripe checkout started")
	return session, nil
}

// StartMpesa sends an STK push prompt to the payer's phone.
func (s *PaymentService) StartMpesa(ctx context.Context, in ports.MpesaPaymentInput) (*ports.STKPushResult, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	if in.Phone == "" {
		return nil, fmt.Errorf("%w: phone is required", domain.ErrValidation)
	}

	shipment, err := s.payable(ctx, in.CompanyID, in.ShipmentID)
	if err != nil {
		return nil, err
	}

	res, err := s.mobile.STKPush(ctx, ports.STKPushInput{ShipmentID: shipment.ID, Phone: in.Phone, Amount: in.Amount})
	if err != nil {
		return nil, fmt.Errorf("stk push: %w", err)
	}

	if err := s.shipments.SetPayment(ctx, shipment.ID, domain.Payment{
		Provider:  domain.ProviderMpesa,
		Status:    domain.PaymentPending,
		Reference: res.CheckoutRequestID,
		Amount:    in.Amount,
		Currency:  "KES",
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}

	s.log.Info().Str("shipment_id", shipment.ID).Str("checkout_request_id", res.CheckoutRequestID).Msg("mpesa stk push started")
	return res, nil
}

func (s *PaymentService) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) (*ports.WebhookResult, error) {
	ev, err := s.card.ParseWebhook(payload, signature)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, ev)
}

func (s *PaymentService) HandleMpesaCallback(ctx context.Context, payload []byte, token string) (*ports.WebhookResult, error) {
	ev, err := s.mobile.ParseCallback(payload, token)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, ev)
}

// apply records ev in the event ledger and performs the payment transition it
// carries, both in one transaction. A replayed event id is a no-op.
func (s *PaymentService) apply(ctx context.Context, ev *ports.ProviderEvent) (*ports.WebhookResult, error) {
	key := domain.WebhookEventID(ev.Provider, ev.ID)
	result := &ports.WebhookResult{EventID: ev.ID, Status: ev.Status}

	isDup, err := s.dedup.IsDuplicate(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("event", key).Msg("dedup check failed, using ledger")
	} else if isDup {
		s.log.Debug().Str("event", key).Msg("duplicate webhook skipped")
		result.Duplicate = true
		return result, nil
	}

	var transitioned bool
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		transitioned = false
		result.ShipmentID = ""

		var shipment *domain.Shipment
		if ev.Status != "" {
			found, err := s.findTarget(ctx, ev)
			switch {
			case errors.Is(err, domain.ErrNotFound):
				s.log.Warn().Str("event", key).Str("shipment_id", ev.ShipmentID).Msg("webhook references unknown shipment")
			case err != nil:
				return err
			default:
				shipment = found
				result.ShipmentID = found.ID
			}
		}

		if err := s.events.Insert(ctx, &domain.WebhookEvent{
			ID:         key,
			Provider:   ev.Provider,
			EventID:    ev.ID,
			Type:       ev.Type,
			ShipmentID: result.ShipmentID,
			ReceivedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}

		if shipment == nil {
			return nil
		}
		current := shipment.PaymentStatus()
		if !current.CanTransitionTo(ev.Status) {
			s.log.Info().
				Str("event", key).
				Str("shipment_id", shipment.ID).
				Str("current", string(current)).
				Str("requested", string(ev.Status)).
				Msg("payment already final, transition ignored")
			return nil
		}
		err := s.shipments.UpdatePaymentStatus(ctx, shipment.ID, domain.Payment{
			Provider:  ev.Provider,
			Status:    ev.Status,
			Reference: ev.Reference,
			UpdatedAt: time.Now().UTC(),
		})
		if errors.Is(err, domain.ErrPaymentFinalized) {
			return nil
		}
		if err != nil {
			return err
		}
		transitioned = true
		return nil
	})
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		s.markProcessed(ctx, key)
		result.Duplicate = true
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("apply webhook %s: %w", key, err)
	}

	s.markProcessed(ctx, key)

	if transitioned {
		s.log.Info().Str("event", key).Str("shipment_id", result.ShipmentID).Str("status", string(ev.Status)).Msg("payment status changed")
		if err := s.pub.Publish(ctx, TopicPaymentStatusChanged, result.ShipmentID, map[string]any{
			"shipmentId": result.ShipmentID,
			"provider":   ev.Provider,
			"status":     ev.Status,
			"eventId":    ev.ID,
		}); err != nil {
			s.log.Warn().Err(err).Msg("failed to publish payment event")
		}
	}
	return result, nil
}

// findTarget resolves the shipment an event refers to, by id first and then by
// the provider reference stored when the payment was started.
func (s *PaymentService) findTarget(ctx context.Context, ev *ports.ProviderEvent) (*domain.Shipment, error) {
	if ev.ShipmentID != "" {
		shipment, err := s.shipments.FindByID(ctx, ev.ShipmentID)
		if err == nil || !errors.Is(err, domain.ErrNotFound) || ev.Reference == "" {
			return shipment, err
		}
	}
	if ev.Reference == "" {
		return nil, domain.ErrShipmentNotFound
	}
	return s.shipments.FindByPaymentReference(ctx, ev.Provider, ev.Reference)
}

func (s *PaymentService) markProcessed(ctx context.Context, key string) {
	if err := s.dedup.Mark(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("event", key).Msg("failed to set dedup key")
	}
}

// payable loads a shipment of companyID that can still be charged.
func (s *PaymentService) payable(ctx context.Context, companyID, shipmentID string) (*domain.Shipment, error) {
	shipment, err := s.shipments.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.CompanyID != companyID {
		return nil, domain.ErrTenantMismatch
	}
	if shipment.PaymentStatus() == domain.PaymentPaid {
		return nil, domain.ErrPaymentFinalized
	}
	return shipment, nil
}
