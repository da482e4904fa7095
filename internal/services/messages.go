// Package services – Messages
//
// Chat message persistence shared by the REST handlers and the WebSocket
// hub. Listings are newest first and always bounded by a limit.
package services

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/tbourn/wolfoman-studio/internal/domain"
	"github.com/tbourn/wolfoman-studio/internal/repo"
)

// CreateMessage persists a chat message.
//
// Behavior:
//   - Type defaults to "user".
//   - UserID and ProjectID are optional; anonymous messages are allowed.
//   - CreatedAt is stamped from the store clock and never precedes an
//     earlier stamp.
func (s *Store) CreateMessage(ctx context.Context, in domain.NewMessage) (*domain.Message, error) {
	ctx, sp := span(ctx, "CreateMessage", attribute.String("message.type", in.Type))
	defer sp.End()

	if err := s.check(in); err != nil {
		return nil, err
	}
	m := &domain.Message{
		Content:   in.Content,
		Type:      in.Type,
		UserID:    in.UserID,
		ProjectID: in.ProjectID,
		Metadata:  in.Metadata,
	}
	if m.Type == "" {
		m.Type = domain.MessageUser
	}

	err := s.insert(ctx, func(tx *gorm.DB, id int64, now time.Time) error {
		m.ID, m.CreatedAt = id, now
		return repo.CreateMessage(ctx, tx, m)
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// GetMessage returns the message with id or ErrNotFound.
func (s *Store) GetMessage(ctx context.Context, id int64) (*domain.Message, error) {
	return repo.GetMessage(ctx, s.reader(ctx), id)
}

// DeleteMessage removes a message; missing ids are ignored.
func (s *Store) DeleteMessage(ctx context.Context, id int64) error {
	return s.mutate(ctx, func(tx *gorm.DB, _ time.Time) error {
		return repo.DeleteMessage(ctx, tx, id)
	})
}

// ListMessages returns the newest messages across all projects, newest
// first. A non-positive limit falls back to DefaultMessageLimit.
func (s *Store) ListMessages(ctx context.Context, limit int) ([]domain.Message, error) {
	return repo.ListMessages(ctx, s.reader(ctx), repo.MessageFilter{Limit: limitOr(limit, DefaultMessageLimit)})
}

// ListMessagesByProject returns a project's newest messages.
func (s *Store) ListMessagesByProject(ctx context.Context, projectID int64, limit int) ([]domain.Message, error) {
	return repo.ListMessages(ctx, s.reader(ctx), repo.MessageFilter{
		ProjectID: &projectID,
		Limit:     limitOr(limit, DefaultMessageLimit),
	})
}

// ListMessagesByUser returns the newest messages authored by userID.
func (s *Store) ListMessagesByUser(ctx context.Context, userID int64, limit int) ([]domain.Message, error) {
	return repo.ListMessages(ctx, s.reader(ctx), repo.MessageFilter{
		UserID: &userID,
		Limit:  limitOr(limit, DefaultMessageLimit),
	})
}

// CountMessages counts messages, optionally authored by one user.
func (s *Store) CountMessages(ctx context.Context, userID *int64) (int64, error) {
	return repo.CountMessages(ctx, s.reader(ctx), userID)
}
