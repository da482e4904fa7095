// Package services – Users
//
// User registration, lookup and the login/logout status flow. Emails are
// compared case-insensitively; usernames are matched exactly after
// trimming.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"
	"gorm.io/gorm"

	"github.com/tbourn/wolfoman-studio/internal/domain"
	"github.com/tbourn/wolfoman-studio/internal/repo"
)

var emailFold = cases.Fold()

// normalizeEmail trims and case-folds an address so lookups and the unique
// index ignore case.
func normalizeEmail(email string) string {
	return emailFold.String(strings.TrimSpace(email))
}

// hash bcrypt-hashes a password at the store's configured cost. Passwords
// bcrypt cannot accept are reported as ErrValidation.
func (s *Store) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", invalid("password: %v", err)
	}
	return string(b), nil
}

// CreateUser registers a user.
//
// Behavior:
//   - Username is trimmed and Email case-folded before validation.
//   - The password is stored as a bcrypt hash, never in clear.
//   - Role defaults to "user" and Status to "offline".
//   - A taken username or email yields ErrDuplicate and consumes no id.
func (s *Store) CreateUser(ctx context.Context, in domain.NewUser) (*domain.User, error) {
	ctx, sp := span(ctx, "CreateUser", attribute.String("user.username", in.Username))
	defer sp.End()

	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)
	if err := s.check(in); err != nil {
		return nil, err
	}
	hashed, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Username: in.Username,
		Email:    in.Email,
		Password: hashed,
		Role:     in.Role,
		Avatar:   in.Avatar,
		Status:   in.Status,
	}
	if u.Role == "" {
		u.Role = domain.DefaultUserRole
	}
	if u.Status == "" {
		u.Status = domain.StatusOffline
	}

	err = s.insert(ctx, func(tx *gorm.DB, id int64, now time.Time) error {
		u.ID, u.CreatedAt, u.UpdatedAt = id, now, now
		return repo.CreateUser(ctx, tx, u)
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUser returns the user with id or ErrNotFound.
func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return repo.GetUser(ctx, s.reader(ctx), id)
}

// GetUserByUsername returns the user with the exact username or ErrNotFound.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return repo.FindUserByUsername(ctx, s.reader(ctx), strings.TrimSpace(username))
}

// GetUserByEmail matches the address case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return repo.FindUserByEmail(ctx, s.reader(ctx), normalizeEmail(email))
}

// UpdateUser applies patch to the user with id and refreshes UpdatedAt.
//
// Behavior:
//   - A new password is hashed before the transaction starts.
//   - A new email is case-folded and must stay unique (ErrDuplicate).
//   - UpdatedAt never moves backwards.
//   - Returns ErrNotFound for an unknown id.
func (s *Store) UpdateUser(ctx context.Context, id int64, patch domain.UserPatch) (*domain.User, error) {
	ctx, sp := span(ctx, "UpdateUser", attribute.Int64("user.id", id))
	defer sp.End()

	if patch.Email != nil {
		e := normalizeEmail(*patch.Email)
		patch.Email = &e
	}
	if err := s.check(patch); err != nil {
		return nil, err
	}
	var hashed string
	if patch.Password != nil {
		h, err := s.hash(*patch.Password)
		if err != nil {
			return nil, err
		}
		hashed = h
	}

	var out *domain.User
	err := s.mutate(ctx, func(tx *gorm.DB, now time.Time) error {
		u, err := repo.GetUser(ctx, tx, id)
		if err != nil {
			return err
		}
		patch.Apply(u)
		if hashed != "" {
			u.Password = hashed
		}
		u.UpdatedAt = notBefore(now, u.UpdatedAt)
		if err := repo.SaveUser(ctx, tx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	return out, err
}

// DeleteUser removes a user. Projects, memberships and messages that
// reference the user are left in place.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.mutate(ctx, func(tx *gorm.DB, _ time.Time) error {
		return repo.DeleteUser(ctx, tx, id)
	})
}

// ListUsers returns every user in creation order.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	return repo.ListUsers(ctx, s.reader(ctx))
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	return repo.CountUsers(ctx, s.reader(ctx))
}

// Login checks the credentials and marks the user online.
//
// Behavior:
//   - Unknown usernames and wrong passwords both yield ErrInvalidCredentials.
//   - On success the returned user has Status "online" and a fresh
//     UpdatedAt.
func (s *Store) Login(ctx context.Context, username, password string) (*domain.User, error) {
	ctx, sp := span(ctx, "Login", attribute.String("user.username", username))
	defer sp.End()

	u, err := s.GetUserByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	online := domain.StatusOnline
	return s.UpdateUser(ctx, u.ID, domain.UserPatch{Status: &online})
}

// Logout marks the user offline.
func (s *Store) Logout(ctx context.Context, userID int64) error {
	offline := domain.StatusOffline
	_, err := s.UpdateUser(ctx, userID, domain.UserPatch{Status: &offline})
	return err
}
