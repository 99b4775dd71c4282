package repos

import (
	"context"
	"errors"
	"time"

	"minimarket/internal/domain"
)

type CartRepo struct{ store *DocStore }

func NewCartRepo(store *DocStore) *CartRepo { return &CartRepo{store: store} }

type cartDoc struct {
	Items     []domain.CartLine `json:"items"`
	UpdatedAt string            `json:"updated_at"`
}

// Load returns the persisted cart for userID, or an empty cart if none exists.
func (r *CartRepo) Load(ctx context.Context, userID string) (domain.Cart, error) {
	d, err := r.store.Get(ctx, CollCarts, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Cart{Lines: []domain.CartLine{}}, nil
	}
	if err != nil {
		return domain.Cart{Lines: []domain.CartLine{}}, err
	}
	var doc cartDoc
	if err := d.Decode(&doc); err != nil {
		return domain.Cart{Lines: []domain.CartLine{}}, err
	}
	if doc.Items == nil {
		doc.Items = []domain.CartLine{}
	}
	return domain.Cart{Lines: doc.Items}, nil
}

// Save overwrites the whole cart; concurrent writers for the same user
// follow last-writer-wins.
func (r *CartRepo) Save(ctx context.Context, userID string, c domain.Cart) error {
	items := c.Lines
	if items == nil {
		items = []domain.CartLine{}
	}
	return r.store.Set(ctx, CollCarts, userID, cartDoc{Items: items, UpdatedAt: time.Now().UTC().Format(time.RFC3339)})
}

func (r *CartRepo) Delete(ctx context.Context, userID string) error {
	return r.store.Delete(ctx, CollCarts, userID)
}
