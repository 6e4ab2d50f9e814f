package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/flipearn/flipearn-backend/pkg/enums"
	"github.com/flipearn/flipearn-backend/pkg/logger"
	"github.com/flipearn/flipearn-backend/pkg/mailer"
	"github.com/flipearn/flipearn-backend/pkg/outbox"
	"github.com/flipearn/flipearn-backend/pkg/outbox/idempotency"
	"github.com/flipearn/flipearn-backend/pkg/outbox/payloads"
	"github.com/flipearn/flipearn-backend/pkg/outbox/registry"
)

const notificationConsumer = "notifications-worker"

// payloadDecoders maps each event type and envelope version to its schema.
// A missing decoder means the payload cannot be interpreted, so the message
// is acked as poison instead of redelivered.
var payloadDecoders = newPayloadDecoders()

func newPayloadDecoders() *registry.DecoderRegistry {
	reg := registry.NewDecoderRegistry()
	reg.Register(enums.EventPurchaseCompleted, 1, func(data json.RawMessage) (interface{}, error) {
		var p payloads.PurchaseCompletedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return &p, nil
	})
	reg.Register(enums.EventListingDeleted, 1, func(data json.RawMessage) (interface{}, error) {
		var p payloads.ListingDeletedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return &p, nil
	})
	reg.Register(enums.EventWithdrawalRequested, 1, func(data json.RawMessage) (interface{}, error) {
		var p payloads.WithdrawalRequestedEvent
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return &p, nil
	})
	return reg
}

// Consumer delivers credential and payout emails from domain events.
type Consumer struct {
	repo         Repository
	sender       mailer.Sender
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	opsEmail     string
	logg         *logger.Logger
}

// NewConsumer builds the notification consumer. opsEmail receives withdrawal
// review alerts and may be empty to disable them.
func NewConsumer(repo Repository, sender mailer.Sender, subscription *pubsub.Subscriber, manager *idempotency.Manager, opsEmail string, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if sender == nil {
		return nil, fmt.Errorf("mail sender required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		sender:       sender,
		subscription: subscription,
		idempotency:  manager,
		opsEmail:     opsEmail,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	if !eventType.IsValid() {
		c.logg.Info(logCtx, "skipping unknown event type")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	payload, err := payloadDecoders.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode payload", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, notificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(ctx, payload, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, notificationConsumer, eventID)
		return processResult{nack: true}
	}

	return processResult{ack: true}
}

func (c *Consumer) handle(ctx context.Context, payload interface{}, logCtx context.Context) error {
	switch p := payload.(type) {
	case *payloads.PurchaseCompletedEvent:
		return c.handlePurchaseCompleted(ctx, *p, logCtx)
	case *payloads.ListingDeletedEvent:
		return c.handleListingDeleted(ctx, *p, logCtx)
	case *payloads.WithdrawalRequestedEvent:
		return c.handleWithdrawalRequested(ctx, *p, logCtx)
	default:
		c.logg.Info(logCtx, "event type not handled")
		return nil
	}
}

func (c *Consumer) handlePurchaseCompleted(ctx context.Context, payload payloads.PurchaseCompletedEvent, logCtx context.Context) error {
	logCtx = c.logg.WithListingID(logCtx, payload.ListingID.String())

	buyer, err := c.repo.FindUserByID(ctx, payload.BuyerID)
	if err != nil {
		return fmt.Errorf("load buyer: %w", err)
	}
	listing, err := c.repo.FindListingByID(ctx, payload.ListingID)
	if err != nil {
		return fmt.Errorf("load listing: %w", err)
	}

	credential, err := c.repo.FindCredentialByListing(ctx, payload.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// A sold listing should always carry a credential row. Ack so the
			// broker stops redelivering and leave a trail for support.
			c.logg.Warn(logCtx, "sold listing has no credential row")
			return nil
		}
		return fmt.Errorf("load credential: %w", err)
	}

	msg := purchaseEmail(buyer.Email, buyer.Name, listing.Title, listing.Username, listing.Platform, credential.UpdatedCredential)
	if err := c.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send purchase email: %w", err)
	}
	c.logg.Info(logCtx, "credential delivered to buyer")
	return nil
}

func (c *Consumer) handleListingDeleted(ctx context.Context, payload payloads.ListingDeletedEvent, logCtx context.Context) error {
	logCtx = c.logg.WithListingID(logCtx, payload.ListingID.String())

	credential, err := c.repo.FindCredentialByListing(ctx, payload.ListingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.logg.Info(logCtx, "deleted listing had no credential, nothing to return")
			return nil
		}
		return fmt.Errorf("load credential: %w", err)
	}

	owner, err := c.repo.FindUserByID(ctx, payload.OwnerID)
	if err != nil {
		return fmt.Errorf("load owner: %w", err)
	}

	msg := listingDeletedEmail(owner.Email, owner.Name, payload.Title, payload.Username, payload.Platform,
		credential.OriginalCredential, credential.UpdatedCredential)
	if err := c.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send listing deleted email: %w", err)
	}
	c.logg.Info(logCtx, "credentials returned to owner")
	return nil
}

func (c *Consumer) handleWithdrawalRequested(ctx context.Context, payload payloads.WithdrawalRequestedEvent, logCtx context.Context) error {
	if c.opsEmail == "" {
		c.logg.Info(logCtx, "no ops email configured, skipping withdrawal alert")
		return nil
	}

	user, err := c.repo.FindUserByID(ctx, payload.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	msg := withdrawalRequestedEmail(c.opsEmail, user.Email, payload.AmountCents, payload.WithdrawalID.String())
	if err := c.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send withdrawal alert: %w", err)
	}
	c.logg.Info(logCtx, "ops alerted of withdrawal request")
	return nil
}
