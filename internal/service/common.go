package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/domain"
	"github.com/spec-kit/servicedesk/internal/events"
	"github.com/spec-kit/servicedesk/internal/repository"
	apperrors "github.com/spec-kit/servicedesk/pkg/util/errorutil"
)

func generateTicketKey() string {
	return "TCK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if err := dispatcher.Publish(ctx, event); err != nil {
		logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func userActor(userID string) events.Actor {
	return events.Actor{Type: domain.ActorTypeUser, ID: &userID}
}

func staffActor(agentID string) events.Actor {
	return events.Actor{Type: domain.ActorTypeStaff, ID: &agentID}
}

func systemActor() events.Actor {
	return events.Actor{Type: domain.ActorTypeSystem}
}

// writeError converts a failed write into the API error. Missing rows stay
// not-found; everything else means the store could not take the write.
func writeError(operation, resource string, err error) error {
	var domainErr *apperrors.DomainError
	switch {
	case errors.As(err, &domainErr):
		return err
	case repository.IsNotFound(err):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, errTicketChanged):
		return apperrors.NewConflict("ticket changed concurrently", nil)
	case errors.Is(err, repository.ErrStale):
		return apperrors.NewConflict(resource+" changed concurrently", nil)
	default:
		return apperrors.NewPersistenceUnavailable(operation, err)
	}
}

func categoryValue(c *domain.Category) any {
	if c == nil {
		return nil
	}
	return string(*c)
}

func stringValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func mergeTags(groups ...[]string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, group := range groups {
		for _, tag := range group {
			tag = strings.ToLower(strings.TrimSpace(tag))
			if tag == "" {
				continue
			}
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			out = append(out, tag)
		}
	}
	return out
}
