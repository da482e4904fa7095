// Package repo – Users
//
// Queries over the users table. Username and email carry unique indexes;
// violations surface as ErrDuplicate.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/wolfoman-studio/internal/domain"
)

// CreateUser inserts u as given; the caller assigns the id and timestamps.
// A taken username or email yields ErrDuplicate.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return translate(db.WithContext(ctx).Create(u).Error)
}

// GetUser fetches a user by id or returns ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id int64) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// FindUserByUsername looks a user up by exact username.
func FindUserByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// FindUserByEmail looks a user up by (already normalized) email.
func FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

// SaveUser writes every column of an existing user.
func SaveUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	return translate(db.WithContext(ctx).Save(u).Error)
}

// DeleteUser removes a user. Deleting a missing id is not an error.
func DeleteUser(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.User{}).Error
}

// ListUsers returns every user in insertion order.
func ListUsers(ctx context.Context, db *gorm.DB) ([]domain.User, error) {
	out := []domain.User{}
	err := db.WithContext(ctx).Order("id ASC").Find(&out).Error
	return out, err
}

// CountUsers returns the number of users.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}
