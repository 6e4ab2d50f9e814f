package identitywebhook

import (
	"context"
	"strings"

	"github.com/flipearn/flipearn-backend/internal/users"
	pkgerrors "github.com/flipearn/flipearn-backend/pkg/errors"
	"github.com/flipearn/flipearn-backend/pkg/logger"
)

type ServiceParams struct {
	Users  users.Service
	Logger *logger.Logger
}

// Service applies identity provider events to the local user projection.
type Service struct {
	users users.Service
	logg  *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "users service required")
	}
	return &Service{users: params.Users, logg: params.Logger}, nil
}

type IdentityEvent struct {
	Type string            `json:"type"`
	Data IdentityEventData `json:"data"`
}

type IdentityEventData struct {
	ID       string  `json:"id"`
	Email    string  `json:"email"`
	Name     string  `json:"name"`
	ImageURL *string `json:"image_url"`
}

// HandleEvent dispatches one verified identity event. Unknown event types are
// acknowledged so the provider stops redelivering them.
func (s *Service) HandleEvent(ctx context.Context, event *IdentityEvent) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "identity event required")
	}

	switch strings.ToLower(event.Type) {
	case "user.created", "user.updated":
		return s.users.UpsertFromIdentity(ctx, users.ProjectionParams{
			ID:       event.Data.ID,
			Email:    event.Data.Email,
			Name:     event.Data.Name,
			ImageURL: event.Data.ImageURL,
		})
	case "user.deleted":
		if event.Data.ID == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "user id missing")
		}
		return s.users.DeleteFromIdentity(ctx, event.Data.ID)
	default:
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "event_type", event.Type), "identity.webhook.unknown_type")
		}
		return nil
	}
}
