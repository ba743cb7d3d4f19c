package handler

import (
	"time"

	"github.com/magmutual/users-api/internal/core/domain"
	"github.com/magmutual/users-api/internal/core/ports"
)

// --- Request → Service input ---

func toDomainUser(id int64, f userFields) (*domain.User, error) {
	created, err := domain.ParseDate(f.DateCreated)
	if err != nil {
		return nil, err
	}
	return &domain.User{
		ID:          id,
		Firstname:   f.Firstname,
		Lastname:    f.Lastname,
		Email:       f.Email,
		Profession:  f.Profession,
		DateCreated: created,
		Country:     f.Country,
		City:        f.City,
	}, nil
}

func toListInput(q listUsersQuery) (ports.ListUsersInput, error) {
	start, err := optionalDate(q.StartDate)
	if err != nil {
		return ports.ListUsersInput{}, err
	}
	end, err := optionalDate(q.EndDate)
	if err != nil {
		return ports.ListUsersInput{}, err
	}
	return ports.ListUsersInput{
		Offset:        q.Offset,
		Limit:         q.Limit,
		SortBy:        q.SortBy,
		SortDirection: q.SortDirection,
		StartDate:     start,
		EndDate:       end,
		Profession:    q.Profession,
	}, nil
}

func optionalDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return domain.ParseDate(s)
}

// --- Domain → Response ---

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Firstname:   u.Firstname,
		Lastname:    u.Lastname,
		Email:       u.Email,
		Profession:  u.Profession,
		DateCreated: domain.FormatDate(u.DateCreated),
		Country:     u.Country,
		City:        u.City,
	}
}

func toListResponse(res *ports.ListUsersResult) listUsersResponse {
	data := make([]userResponse, 0, len(res.Items))
	for _, u := range res.Items {
		data = append(data, toUserResponse(u))
	}
	return listUsersResponse{
		Data:       data,
		Total:      res.Total,
		Offset:     res.Offset,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
	}
}
