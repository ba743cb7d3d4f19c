package ports

import (
	"context"
	"time"

	"github.com/magmutual/users-api/internal/core/domain"
)

// ListUsersFilter carries the already-validated list parameters.
type ListUsersFilter struct {
	Offset     int
	Limit      int
	SortBy     string // one of domain.RecordFields
	Descending bool
	StartDate  time.Time // zero = unbounded
	EndDate    time.Time // zero = unbounded; inclusive
	Profession string    // exact match, empty = any
}

// UserWriter is the write side handed to WithinTx callbacks.
type UserWriter interface {
	// Save inserts u or replaces the record with the same ID.
	Save(ctx context.Context, u *domain.User) error
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// Create returns domain.ErrUserExists when the id is taken.
	Create(ctx context.Context, u *domain.User) error
	// Update replaces every field of an existing record.
	Update(ctx context.Context, u *domain.User) error
	Delete(ctx context.Context, id int64) error
	// WithinTx runs fn in a single transaction. Returning an error from fn
	// rolls back every write made through w.
	WithinTx(ctx context.Context, fn func(ctx context.Context, w UserWriter) error) error
	Ping(ctx context.Context) error
}
