package repos

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"minimarket/internal/domain"
)

type UserRepo struct{ store *DocStore }

func NewUserRepo(store *DocStore) *UserRepo { return &UserRepo{store: store} }

type sessionDoc struct {
	UserID   string `json:"user_id"`
	LastSeen string `json:"last_seen"`
}

func decodeUser(d Document) (domain.User, error) {
	var u domain.User
	if err := d.Decode(&u); err != nil {
		return domain.User{}, err
	}
	u.ID = d.Key
	return u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	d, err := r.store.Get(ctx, CollUsers, id)
	if err != nil {
		return nil, err
	}
	u, err := decodeUser(d)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	docs, err := r.store.Query(ctx, CollUsers, nil)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		u, err := decodeUser(d)
		if err != nil {
			return nil, err
		}
		if strings.ToLower(u.Email) == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, domain.ErrNotFound)
}

// Create stores a new profile under a fresh id.
func (r *UserRepo) Create(ctx context.Context, u domain.User) (domain.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if err := r.store.Set(ctx, CollUsers, u.ID, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// List returns all users ordered by email.
func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	docs, err := r.store.Query(ctx, CollUsers, nil)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		u, err := decodeUser(d)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r *UserRepo) SetRole(ctx context.Context, id, role string) error {
	return r.store.Update(ctx, CollUsers, id, map[string]any{"role": role})
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, CollUsers, id)
}

func (r *UserRepo) BindSession(ctx context.Context, sid, userID string) error {
	return r.store.Set(ctx, CollSessions, sid, sessionDoc{UserID: userID, LastSeen: now()})
}

func (r *UserRepo) UnbindSession(ctx context.Context, sid string) error {
	return r.store.Delete(ctx, CollSessions, sid)
}

func (r *UserRepo) SessionUser(ctx context.Context, sid string) (*domain.User, error) {
	d, err := r.store.Get(ctx, CollSessions, sid)
	if err != nil {
		return nil, err
	}
	var s sessionDoc
	if err := d.Decode(&s); err != nil {
		return nil, err
	}
	return r.ByID(ctx, s.UserID)
}

// Sessions returns the ids of every session bound to userID.
func (r *UserRepo) Sessions(ctx context.Context, userID string) ([]string, error) {
	docs, err := r.store.Query(ctx, CollSessions, func(d Document) bool {
		var s sessionDoc
		return d.Decode(&s) == nil && s.UserID == userID
	})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.Key)
	}
	return ids, nil
}
