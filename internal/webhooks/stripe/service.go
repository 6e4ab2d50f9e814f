package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/flipearn/flipearn-backend/pkg/errors"
	"github.com/flipearn/flipearn-backend/pkg/logger"
	pkgstripe "github.com/flipearn/flipearn-backend/pkg/stripe"
)

type paymentRecorder interface {
	RecordPaymentSuccess(ctx context.Context, transactionID uuid.UUID) error
}

type sessionResolver interface {
	SessionForPaymentIntent(ctx context.Context, paymentIntentID string) (*stripe.CheckoutSession, error)
}

// ServiceParams collects the dependencies for the payment webhook service.
type ServiceParams struct {
	Transactions paymentRecorder
	Sessions     sessionResolver
	Logger       *logger.Logger
}

// Service translates Stripe events into ledger mutations.
type Service struct {
	transactions paymentRecorder
	sessions     sessionResolver
	logg         *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Transactions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transactions service required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "session resolver required")
	}
	return &Service{
		transactions: params.Transactions,
		sessions:     params.Sessions,
		logg:         params.Logger,
	}, nil
}

// HandleEvent processes one verified Stripe event. Event types other than
// payment_intent.succeeded are acknowledged and ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent")
		}
		return s.handlePaymentSucceeded(ctx, &intent)
	default:
		return nil
	}
}

func (s *Service) handlePaymentSucceeded(ctx context.Context, intent *stripe.PaymentIntent) error {
	if intent == nil || intent.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent required")
	}

	metadata := intent.Metadata
	if metadata["transaction_id"] == "" {
		session, err := s.sessions.SessionForPaymentIntent(ctx, intent.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve checkout session")
		}
		if session == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no checkout session for payment intent")
		}
		metadata = session.Metadata
	}

	if metadata["app_id"] != pkgstripe.AppID {
		// Another application's payment on a shared Stripe account.
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "payment_intent_id", intent.ID), "stripe.webhook.foreign_app")
		}
		return nil
	}

	transactionID, err := uuid.Parse(metadata["transaction_id"])
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid transaction id metadata")
	}

	if s.logg != nil {
		ctx = s.logg.WithTransactionID(ctx, transactionID.String())
	}
	return s.transactions.RecordPaymentSuccess(ctx, transactionID)
}
