package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ManuelReschke/tutorsite/app/models"
	"github.com/ManuelReschke/tutorsite/internal/pkg/metrics"
)

// ErrInvalidSignature is returned when the payload signature does not verify
// or no secret is configured.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Service ingests payment provider webhooks idempotently.
type Service struct {
	repo   Repository
	secret string
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository, webhookSecret string) *Service {
	return &Service{repo: repo, secret: webhookSecret}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, webhookSecret string) *Service {
	return NewService(NewRepository(db), webhookSecret)
}

// Ingest verifies, deduplicates and applies one webhook delivery. Nothing is
// written unless the signature verifies and the event carries what it needs.
func (s *Service) Ingest(ctx context.Context, payload []byte, signature string) (*Result, error) {
	if !VerifySignature(payload, signature, s.secret) {
		metrics.WebhookEventsTotal.WithLabelValues("unknown", "invalid_signature").Inc()
		return nil, ErrInvalidSignature
	}

	ev, err := ParseEvent(payload)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("unknown", "invalid_payload").Inc()
		return nil, err
	}

	res := &Result{EventName: ev.Name()}
	switch ev.Name() {
	case EventOrderCreated, EventOrderRefunded:
	default:
		// subscription_created, subscription_updated and everything else
		res.Ignored = true
		metrics.WebhookEventsTotal.WithLabelValues(ev.Name(), "ignored").Inc()
		return res, nil
	}

	if ev.OrderID() == "" {
		metrics.WebhookEventsTotal.WithLabelValues(ev.Name(), "invalid_payload").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, ErrMissingOrderID)
	}
	var userID uint
	if ev.Name() == EventOrderCreated {
		if userID, err = ev.UserID(); err != nil {
			metrics.WebhookEventsTotal.WithLabelValues(ev.Name(), "missing_user").Inc()
			return nil, err
		}
	}

	created, stored, err := s.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider:  models.PaymentProviderLemonSqueezy,
		EventKey:  ev.Key(),
		EventName: ev.Name(),
		Payload:   payload,
	})
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues(ev.Name(), "error").Inc()
		return nil, fmt.Errorf("record webhook event: %w", err)
	}
	if !created && stored.Completed() {
		res.Duplicate = true
		metrics.WebhookEventsTotal.WithLabelValues(ev.Name(), "duplicate").Inc()
		return res, nil
	}

	var procErr error
	switch ev.Name() {
	case EventOrderCreated:
		procErr = s.applyOrderCreated(ctx, ev, userID, res)
	case EventOrderRefunded:
		procErr = s.applyOrderRefunded(ctx, ev, res)
	}

	markErr := procErr
	if markErr == nil && res.Note != "" {
		markErr = errors.New(res.Note)
	}
	if err := s.MarkWebhookProcessed(ctx, stored.ID, markErr); err != nil {
		log.Errorf("billing: mark webhook event %d processed: %v", stored.ID, err)
	}

	if procErr != nil {
		metrics.WebhookEventsTotal.WithLabelValues(ev.Name(), "error").Inc()
		return nil, procErr
	}
	outcome := "processed"
	if res.Ignored {
		outcome = "ignored"
	}
	metrics.WebhookEventsTotal.WithLabelValues(ev.Name(), outcome).Inc()
	return res, nil
}

func (s *Service) applyOrderCreated(ctx context.Context, ev *Event, userID uint, res *Result) error {
	ids, skipped := ev.ProductIDs()
	if len(skipped) > 0 {
		log.Warnf("billing: order %s: ignoring malformed product ids %v", ev.OrderID(), skipped)
	}
	existing, err := s.repo.ExistingProductIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("lookup products: %w", err)
	}
	known := make(map[uint]struct{}, len(existing))
	for _, id := range existing {
		known[id] = struct{}{}
	}
	grant := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := known[id]; ok {
			grant = append(grant, id)
		} else {
			log.Warnf("billing: order %s: unknown product id %d", ev.OrderID(), id)
		}
	}

	status := models.ORDER_STATUS_PENDING
	if strings.EqualFold(ev.Data.Attributes.Status, models.ORDER_STATUS_PAID) {
		status = models.ORDER_STATUS_PAID
	}
	order := &models.Order{
		UserID:      userID,
		LSOrderID:   ev.OrderID(),
		TotalAmount: ev.Amount(),
		Currency:    strings.ToUpper(strings.TrimSpace(ev.Data.Attributes.Currency)),
		Status:      status,
	}
	n, err := s.repo.CreateOrderWithPurchases(ctx, order, grant)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	res.Order = order
	res.PurchasesCreated = n
	log.Infof("billing: order %s for user %d stored as #%d with %d purchases", order.LSOrderID, userID, order.ID, n)
	return nil
}

func (s *Service) applyOrderRefunded(ctx context.Context, ev *Event, res *Result) error {
	n, err := s.repo.UpdateOrderStatus(ctx, ev.OrderID(), models.ORDER_STATUS_REFUNDED)
	if err != nil {
		return fmt.Errorf("refund order: %w", err)
	}
	if n == 0 {
		// Refund seen before its order; a redelivery will be reprocessed.
		res.Ignored = true
		res.Note = "order not found"
		log.Warnf("billing: refund for unknown order %s", ev.OrderID())
		return nil
	}
	res.Refunded = true
	return nil
}

// RecordWebhookEvent persists webhook payloads idempotently.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.PaymentWebhookEvent, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	key := strings.TrimSpace(in.EventKey)
	if key == "" {
		return false, nil, errors.New("event key is required")
	}

	event := &models.PaymentWebhookEvent{
		Provider:  provider,
		EventKey:  key,
		EventName: strings.TrimSpace(in.EventName),
		Payload:   datatypes.JSON(in.Payload),
	}
	return s.repo.CreateWebhookEventIfNotExists(ctx, event)
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(ctx, webhookEventID, errMsg)
}
