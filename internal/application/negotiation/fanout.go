package negotiation

import (
	"context"
	"errors"

	"github.com/google/uuid"

	appNotification "github.com/event-market/event-market/internal/application/notification"
	"github.com/event-market/event-market/internal/domain/notification"
)

// fanout is the notification and push side effect of one transition.
type fanout struct {
	typ         notification.Type
	title       string
	message     string
	action      string
	payload     map[string]interface{}
	notifyUsers []uuid.UUID
	notifyRole  string
	pushUsers   []uuid.UUID
}

// emit hands the side effects to the background runner. The transition is
// already persisted; failures here are logged and go no further.
func (s *Service) emit(ctx context.Context, f fanout) {
	task := func(ctx context.Context) error {
		var errs []error
		if s.notifier != nil {
			for _, userID := range f.notifyUsers {
				userID := userID
				if _, err := s.notifier.Create(ctx, appNotification.CreateInput{
					Type:         f.typ,
					Title:        f.title,
					Message:      f.message,
					TargetUserID: &userID,
					Metadata:     f.payload,
				}); err != nil {
					errs = append(errs, err)
				}
			}
			if f.notifyRole != "" {
				role := f.notifyRole
				if _, err := s.notifier.Create(ctx, appNotification.CreateInput{
					Type:       f.typ,
					Title:      f.title,
					Message:    f.message,
					TargetRole: &role,
					Metadata:   f.payload,
				}); err != nil {
					errs = append(errs, err)
				}
			}
		}
		if s.pusher != nil {
			for _, userID := range f.pushUsers {
				s.pusher.SendToUser(userID, notification.Push{
					Type:    "negotiation",
					Action:  f.action,
					Payload: f.payload,
				})
			}
		}
		return errors.Join(errs...)
	}

	if s.tasks == nil {
		if err := task(ctx); err != nil {
			s.logger.Warn().Err(err).Str("type", string(f.typ)).Msg("side effect failed")
		}
		return
	}
	s.tasks.Go(ctx, "negotiation."+f.action, task)
}
