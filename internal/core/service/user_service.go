package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/magmutual/users-api/internal/core/domain"
	"github.com/magmutual/users-api/internal/core/ports"
)

const (
	defaultLimit = 10
	maxLimit     = 100
)

var sortableFields = func() map[string]struct{} {
	m := make(map[string]struct{}, len(domain.RecordFields))
	for _, f := range domain.RecordFields {
		m[f] = struct{}{}
	}
	return m
}()

type UserService struct {
	repo   ports.UserRepository
	logger zerolog.Logger
}

func NewUserService(repo ports.UserRepository, logger zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// ListUsers validates the query before touching the repository. A zero Limit
// means the default page size.
func (s *UserService) ListUsers(ctx context.Context, input ports.ListUsersInput) (*ports.ListUsersResult, error) {
	filter, err := buildFilter(input)
	if err != nil {
		return nil, err
	}

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))

	return &ports.ListUsersResult{
		Items:      users,
		Total:      total,
		Offset:     filter.Offset,
		Limit:      filter.Limit,
		TotalPages: totalPages,
	}, nil
}

func buildFilter(input ports.ListUsersInput) (ports.ListUsersFilter, error) {
	if !input.StartDate.IsZero() && !input.EndDate.IsZero() && input.EndDate.Before(input.StartDate) {
		return ports.ListUsersFilter{}, domain.ErrInvalidDateRange
	}

	limit := input.Limit
	switch {
	case limit == 0:
		limit = defaultLimit
	case limit < 0:
		return ports.ListUsersFilter{}, fmt.Errorf("%w: limit must be positive", domain.ErrInvalidQuery)
	case limit > maxLimit:
		limit = maxLimit
	}
	if input.Offset < 0 {
		return ports.ListUsersFilter{}, fmt.Errorf("%w: offset must not be negative", domain.ErrInvalidQuery)
	}

	sortBy := input.SortBy
	if sortBy == "" {
		sortBy = domain.FieldID
	}
	if _, ok := sortableFields[sortBy]; !ok {
		return ports.ListUsersFilter{}, fmt.Errorf("%w: cannot sort by %q", domain.ErrInvalidQuery, sortBy)
	}

	var desc bool
	switch strings.ToLower(input.SortDirection) {
	case "", "asc":
	case "desc":
		desc = true
	default:
		return ports.ListUsersFilter{}, fmt.Errorf("%w: sortDirection must be asc or desc", domain.ErrInvalidQuery)
	}

	return ports.ListUsersFilter{
		Offset:     input.Offset,
		Limit:      limit,
		SortBy:     sortBy,
		Descending: desc,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		Profession: input.Profession,
	}, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, withID(err, id)
	}
	return u, nil
}

// CreateUser rejects an id that is already taken with domain.ErrUserExists.
func (s *UserService) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, withID(err, u.ID)
	}
	s.logger.Info().Int64("user_id", u.ID).Msg("user created")
	return u, nil
}

// UpdateUser treats the path id as authoritative. A body id that disagrees is
// rejected rather than silently ignored.
func (s *UserService) UpdateUser(ctx context.Context, id int64, u *domain.User) (*domain.User, error) {
	if u.ID != 0 && u.ID != id {
		return nil, domain.ErrIDMismatch
	}
	u.ID = id

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, withID(err, id)
	}
	s.logger.Info().Int64("user_id", id).Msg("user updated")
	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return withID(err, id)
	}
	s.logger.Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

// withID names the offending id in not-found and conflict errors.
func withID(err error, id int64) error {
	switch {
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrUserExists):
		return fmt.Errorf("%w with id: %d", err, id)
	default:
		return err
	}
}
