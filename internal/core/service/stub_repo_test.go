package service

import (
	"context"
	"sort"

	"github.com/magmutual/users-api/internal/core/domain"
	"github.com/magmutual/users-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub repository with staged transactions
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users      map[int64]*domain.User
	listCalls  int
	lastFilter ports.ListUsersFilter
	saveErr    error // if set, Save inside a transaction returns this error
	commits    int
}

func newStubUserRepo(seed ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[int64]*domain.User)}
	for _, u := range seed {
		clone := *u
		r.users[u.ID] = &clone
	}
	return r
}

func (r *stubUserRepo) List(_ context.Context, f ports.ListUsersFilter) ([]*domain.User, int64, error) {
	r.listCalls++
	r.lastFilter = f

	ids := make([]int64, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		clone := *r.users[id]
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) error {
	if _, ok := r.users[u.ID]; ok {
		return domain.ErrUserExists
	}
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func (r *stubUserRepo) Update(_ context.Context, u *domain.User) error {
	if _, ok := r.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *u
	r.users[u.ID] = &clone
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id int64) error {
	if _, ok := r.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *stubUserRepo) WithinTx(ctx context.Context, fn func(ctx context.Context, w ports.UserWriter) error) error {
	tx := &stagedWriter{repo: r, pending: make(map[int64]*domain.User)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	for id, u := range tx.pending {
		r.users[id] = u
	}
	r.commits++
	return nil
}

func (r *stubUserRepo) Ping(context.Context) error { return nil }

type stagedWriter struct {
	repo    *stubUserRepo
	pending map[int64]*domain.User
}

// Save fails once ctx is done, as a database driver would.
func (w *stagedWriter) Save(ctx context.Context, u *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.repo.saveErr != nil {
		return w.repo.saveErr
	}
	clone := *u
	w.pending[u.ID] = &clone
	return nil
}
