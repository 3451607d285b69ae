package service

import (
	"context"
	"time"

	"github.com/RagOfJoes/bloom/account"
	"github.com/RagOfJoes/bloom/email"
	"github.com/RagOfJoes/bloom/internal"
	"github.com/RagOfJoes/bloom/internal/validate"
	"github.com/RagOfJoes/bloom/jobs/tasks"
	"github.com/RagOfJoes/bloom/notification"
	"github.com/RagOfJoes/bloom/persistence"
	"github.com/gofrs/uuid/v5"
)

type service struct {
	tx     persistence.Transactor
	as     account.Service
	emails *tasks.Emails
	nr     notification.Repository
	now    func() time.Time
}

func NewNotificationService(tx persistence.Transactor, as account.Service, emails *tasks.Emails, nr notification.Repository) notification.Service {
	return &service{
		tx:     tx,
		as:     as,
		emails: emails,
		nr:     nr,
		now:    time.Now,
	}
}

func (s *service) Notify(ctx context.Context, payload notification.Notify) (*notification.Notification, error) {
	if err := validate.Check(payload); err != nil {
		return nil, err
	}

	newNotification := notification.Notification{
		AccountTypeInfoID: payload.AccountTypeInfoID,
		Title:             payload.Title,
		Message:           payload.Message,
	}
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		info, err := s.as.GetInfo(ctx, payload.AccountTypeInfoID)
		if err != nil {
			return err
		}
		pref, err := s.preference(ctx, payload.AccountTypeInfoID)
		if err != nil {
			return err
		}
		if !pref.InApp {
			now := s.now().UTC()
			newNotification.IsRead = true
			newNotification.ReadAt = &now
		}
		if err := s.nr.Create(ctx, &newNotification); err != nil {
			return err
		}
		if !payload.Email || !pref.Email {
			return nil
		}
		acc, err := s.as.Find(ctx, info.AccountID.String())
		if err != nil {
			return err
		}
		template := payload.Template
		if template == "" {
			template = email.TemplateNotification
		}
		s.emails.Send(ctx, email.Request{
			Template:  template,
			To:        []string{acc.Email},
			Subject:   payload.Title,
			MessageID: newNotification.ID.String(),
			Context: map[string]interface{}{
				"Name":    acc.FullName(),
				"Title":   payload.Title,
				"Message": payload.Message,
			},
		})
		return nil
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to notify %s", payload.AccountTypeInfoID)
	}
	return &newNotification, nil
}

func (s *service) List(ctx context.Context, accountTypeInfoID uuid.UUID, unreadOnly bool, page internal.Page) ([]notification.Notification, error) {
	found, err := s.nr.List(ctx, accountTypeInfoID, unreadOnly, page)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to list notifications of %s", accountTypeInfoID)
	}
	return found, nil
}

func (s *service) MarkRead(ctx context.Context, accountTypeInfoID uuid.UUID, id uuid.UUID) (*notification.Notification, error) {
	found, err := s.nr.Get(ctx, id)
	if err != nil {
		return nil, persistence.Translate(err, "%v", notification.ErrNotificationDoesNotExist)
	}
	// Someone else's notification is reported as missing
	if found.AccountTypeInfoID != accountTypeInfoID {
		return nil, internal.NewErrorf(internal.ErrorCodeNotFound, "%v", notification.ErrNotificationDoesNotExist)
	}
	if found.IsRead {
		return found, nil
	}
	updated, err := s.nr.MarkRead(ctx, id, s.now().UTC())
	if err != nil {
		return nil, persistence.Translate(err, "Failed to mark notification %s as read", id)
	}
	return updated, nil
}

func (s *service) CountUnread(ctx context.Context, accountTypeInfoID uuid.UUID) (int64, error) {
	count, err := s.nr.CountUnread(ctx, accountTypeInfoID)
	if err != nil {
		return 0, persistence.Translate(err, "Failed to count notifications of %s", accountTypeInfoID)
	}
	return count, nil
}

// preference returns the stored preference of a profile or the default one
func (s *service) preference(ctx context.Context, accountTypeInfoID uuid.UUID) (*notification.Preference, error) {
	found, err := s.nr.GetPreference(ctx, accountTypeInfoID)
	if persistence.IsNotFound(err) {
		pref := notification.DefaultPreference(accountTypeInfoID)
		return &pref, nil
	}
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (s *service) Preference(ctx context.Context, accountTypeInfoID uuid.UUID) (*notification.Preference, error) {
	found, err := s.preference(ctx, accountTypeInfoID)
	if err != nil {
		return nil, persistence.Translate(err, "Failed to retrieve notification preference of %s", accountTypeInfoID)
	}
	return found, nil
}

func (s *service) UpdatePreference(ctx context.Context, accountTypeInfoID uuid.UUID, payload notification.UpdatePreference) (*notification.Preference, error) {
	var updated *notification.Preference
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.as.GetInfo(ctx, accountTypeInfoID); err != nil {
			return err
		}
		current, err := s.nr.FindOrCreatePreference(ctx, accountTypeInfoID)
		if err != nil {
			return err
		}
		changes := map[string]interface{}{}
		if payload.InApp != nil {
			changes["in_app"] = *payload.InApp
		}
		if payload.Email != nil {
			changes["email"] = *payload.Email
		}
		if len(changes) == 0 {
			updated = current
			return nil
		}
		updated, err = s.nr.UpdatePreference(ctx, current.ID, changes)
		return err
	})
	if err != nil {
		return nil, persistence.Translate(err, "Failed to update notification preference of %s", accountTypeInfoID)
	}
	return updated, nil
}
