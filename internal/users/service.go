// Package users implements the Users view and the send-alert action.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/celerix-dev/guardup-admin/pkg/docstore"
	"github.com/celerix-dev/guardup-admin/pkg/schema"
)

// ErrNotConfirmed is returned by Send for a zero Confirmation.
var ErrNotConfirmed = errors.New("users: notification not confirmed")

// Store is the subset of the document store the Users view needs.
type Store interface {
	docstore.Getter
	docstore.Lister
	docstore.Writer
}

// Recorder observes notification writes.
type Recorder interface {
	NotificationSent(err error)
}

type nopRecorder struct{}

func (nopRecorder) NotificationSent(error) {}

// Service lists users and writes notifications.
type Service struct {
	store    Store
	message  string
	now      func() time.Time
	logger   *slog.Logger
	recorder Recorder
}

// NewService creates a Service that sends message on every confirmed alert.
// recorder may be nil.
func NewService(store Store, message string, logger *slog.Logger, recorder Recorder) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		store:    store,
		message:  message,
		now:      time.Now,
		logger:   logger.With("service", "users"),
		recorder: recorder,
	}
}

// SetClock overrides the time source used for notification IDs.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Message returns the notification text.
func (s *Service) Message() string {
	return s.message
}

// List returns every user.
func (s *Service) List(ctx context.Context) ([]schema.User, error) {
	docs, err := s.store.All(ctx, schema.CollectionUsers)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]schema.User, 0, len(docs))
	for _, doc := range docs {
		u, err := schema.UserFromDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("decode user %s: %w", doc.ID, err)
		}
		out = append(out, u)
	}
	return out, nil
}

// Get returns one user. A missing user yields docstore.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (schema.User, error) {
	doc, err := s.store.Get(ctx, schema.UserPath(id))
	if err != nil {
		return schema.User{}, fmt.Errorf("get user %s: %w", id, err)
	}
	return schema.UserFromDocument(doc)
}

// Send writes one unread notification for the confirmed user. The document ID
// is the send time in Unix milliseconds; the stored timestamp is server-assigned.
// Failures are logged and returned; there is no retry.
func (s *Service) Send(ctx context.Context, c Confirmation) (schema.Notification, error) {
	if c.IsZero() {
		return schema.Notification{}, ErrNotConfirmed
	}

	u := c.User()
	sentAt := s.now()
	n := schema.Notification{
		ID:        strconv.FormatInt(sentAt.UnixMilli(), 10),
		UserID:    u.ID,
		Message:   s.message,
		Timestamp: sentAt,
		IsRead:    false,
	}

	err := s.store.Set(ctx, schema.NotificationPath(u.ID, n.ID), map[string]any{
		schema.FieldMessage:   n.Message,
		schema.FieldTimestamp: docstore.ServerTimestamp,
		schema.FieldIsRead:    n.IsRead,
	})
	s.recorder.NotificationSent(err)
	if err != nil {
		s.logger.Error("send notification", "user_id", u.ID, "error", err)
		return schema.Notification{}, fmt.Errorf("send notification to %s: %w", u.ID, err)
	}

	s.logger.Info("notification sent", "user_id", u.ID, "notification_id", n.ID)
	return n, nil
}
