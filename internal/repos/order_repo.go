package repos

import (
	"context"
	"sort"
	"sync"

	"minimarket/internal/domain"
)

type OrderRepo struct{ store *DocStore }

func NewOrderRepo(store *DocStore) *OrderRepo { return &OrderRepo{store: store} }

func decodeOrder(d Document) (domain.Order, error) {
	var o domain.Order
	if err := d.Decode(&o); err != nil {
		return domain.Order{}, err
	}
	o.ID = d.Key
	return o, nil
}

func decodeOrders(docs []Document) ([]domain.Order, error) {
	out := make([]domain.Order, 0, len(docs))
	for _, d := range docs {
		o, err := decodeOrder(d)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	// newest first
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// Create stores a new order; the store assigns its id.
func (r *OrderRepo) Create(ctx context.Context, o domain.Order) (string, error) {
	o.ID = ""
	return r.store.Add(ctx, CollOrders, o)
}

func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	d, err := r.store.Get(ctx, CollOrders, id)
	if err != nil {
		return domain.Order{}, err
	}
	return decodeOrder(d)
}

// Query returns orders matching match, newest first. nil matches all.
func (r *OrderRepo) Query(ctx context.Context, match func(domain.Order) bool) ([]domain.Order, error) {
	docs, err := r.store.Query(ctx, CollOrders, nil)
	if err != nil {
		return nil, err
	}
	orders, err := decodeOrders(docs)
	if err != nil || match == nil {
		return orders, err
	}
	out := orders[:0]
	for _, o := range orders {
		if match(o) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.Query(ctx, func(o domain.Order) bool { return o.UserID == userID })
}

// Advance applies fn to the stored order and writes back only its status
// and history, atomically; line items stay frozen. An error from fn leaves the order untouched.
func (r *OrderRepo) Advance(ctx context.Context, id string, fn func(domain.Order) (domain.Order, error)) (domain.Order, error) {
	var out domain.Order
	err := r.store.Modify(ctx, CollOrders, id, func(d Document) (map[string]any, error) {
		cur, err := decodeOrder(d)
		if err != nil {
			return nil, err
		}
		if out, err = fn(cur); err != nil {
			return nil, err
		}
		return map[string]any{"estado": out.Status, "historial": out.History}, nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return out, nil
}

// OrderSubscription streams full snapshots of the watched orders.
type OrderSubscription struct {
	C    <-chan []domain.Order
	sub  *Subscription
	stop chan struct{}
	once sync.Once
}

func (s *OrderSubscription) Close() {
	s.once.Do(func() {
		close(s.stop)
		s.sub.Close()
	})
}

func (r *OrderRepo) Subscribe(ctx context.Context, match func(domain.Order) bool) (*OrderSubscription, error) {
	var pred Predicate
	if match != nil {
		pred = func(d Document) bool {
			o, err := decodeOrder(d)
			return err == nil && match(o)
		}
	}
	sub, err := r.store.Subscribe(ctx, CollOrders, pred)
	if err != nil {
		return nil, err
	}
	out := make(chan []domain.Order, 1)
	osub := &OrderSubscription{C: out, sub: sub, stop: make(chan struct{})}
	go func() {
		defer close(out)
		for docs := range sub.C {
			orders, err := decodeOrders(docs)
			if err != nil {
				continue
			}
			select {
			case out <- orders:
			case <-osub.stop:
				return
			}
		}
	}()
	return osub, nil
}
