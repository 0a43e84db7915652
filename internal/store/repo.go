package store

import (
	"context"
	"errors"

	"github.com/GritsayMaxim/Birthday-Reminder-Bot/internal/domain"
)

var (
	// ErrNotFound is returned when no birthday matches the given key.
	ErrNotFound = errors.New("birthday not found")
	// ErrDuplicate is returned by Create when (owner, name) already exists.
	ErrDuplicate = errors.New("birthday already exists")
)

// Repo defines storage operations for birthday subscriptions.
type Repo interface {
	Create(ctx context.Context, b *domain.Birthday) error
	GetByOwner(ctx context.Context, ownerID int64, name string) (*domain.Birthday, error)
	GetByChat(ctx context.Context, chatID int64, name string) (*domain.Birthday, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Birthday, error)
	ListAll(ctx context.Context) ([]domain.Birthday, error)
	UpdateReminderTime(ctx context.Context, ownerID int64, name string, hour, minute int) error
	UpdateFlags(ctx context.Context, ownerID int64, name string, r3d, r1d, rd bool) error
	UpdateUsername(ctx context.Context, ownerID int64, name, username string) error
	Delete(ctx context.Context, ownerID int64, name string) error
	Close() error
}
