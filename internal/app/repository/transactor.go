package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories groups the repositories bound to one database handle
type Repositories struct {
	Verifications VerificationRepository
	Users         UserDirectory
	Notifications NotificationRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Verifications: NewVerificationRepository(db),
		Users:         NewUserRepository(db),
		Notifications: NewNotificationRepository(db),
	}
}

// Transactor runs fn with repositories bound to a single transaction.
// Returning an error from fn rolls every write back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
