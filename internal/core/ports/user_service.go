package ports

import (
	"context"
	"io"
	"time"

	"github.com/magmutual/users-api/internal/core/domain"
)

// ListUsersInput carries raw list parameters from the transport layer.
type ListUsersInput struct {
	Offset        int
	Limit         int
	SortBy        string
	SortDirection string
	StartDate     time.Time
	EndDate       time.Time
	Profession    string
}

// ListUsersResult is one page of users plus paging metadata.
type ListUsersResult struct {
	Items      []*domain.User
	Total      int64
	Offset     int
	Limit      int
	TotalPages int
}

// UserService defines use-case operations for users.
type UserService interface {
	ListUsers(ctx context.Context, input ListUsersInput) (*ListUsersResult, error)
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) (*domain.User, error)
	UpdateUser(ctx context.Context, id int64, u *domain.User) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// ImportResult summarizes a committed CSV import.
type ImportResult struct {
	Imported int
	// Replayed is true when the idempotency key matched an earlier import.
	Replayed bool
}

// ImportService ingests CSV files into the user store.
type ImportService interface {
	ImportCSV(ctx context.Context, r io.Reader, idempotencyKey string) (*ImportResult, error)
}

// ImportLedger remembers committed imports by idempotency key.
type ImportLedger interface {
	Lookup(ctx context.Context, key string) (imported int, found bool, err error)
	Remember(ctx context.Context, key string, imported int) error
}
