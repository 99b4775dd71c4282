package repos

import (
	"context"
	"time"

	"github.com/google/uuid"

	"minimarket/internal/domain"
)

type ProductRepo struct{ store *DocStore }

func NewProductRepo(store *DocStore) *ProductRepo { return &ProductRepo{store: store} }

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	d, err := r.store.Get(ctx, CollProducts, id)
	if err != nil {
		return domain.Product{}, err
	}
	var p domain.Product
	if err := d.Decode(&p); err != nil {
		return domain.Product{}, err
	}
	p.ID = d.Key
	return p, nil
}

// List returns every product in creation order.
func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	docs, err := r.store.Query(ctx, CollProducts, nil)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		var p domain.Product
		if err := d.Decode(&p); err != nil {
			return nil, err
		}
		p.ID = d.Key
		out = append(out, p)
	}
	return out, nil
}

// Create assigns an id when p has none.
func (r *ProductRepo) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := r.store.Set(ctx, CollProducts, p.ID, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *ProductRepo) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	cur, err := r.Get(ctx, p.ID)
	if err != nil {
		return domain.Product{}, err
	}
	p.CreatedAt = cur.CreatedAt
	p.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	if err := r.store.Set(ctx, CollProducts, p.ID, p); err != nil {
		return domain.Product{}, err
	}
	return p, nil
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.store.Get(ctx, CollProducts, id); err != nil {
		return err
	}
	return r.store.Delete(ctx, CollProducts, id)
}
