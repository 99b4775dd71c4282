package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"minimarket/internal/domain"
	"minimarket/internal/repos"
)

type StatusService struct {
	Orders *repos.OrderRepo
	Now    func() time.Time
}

func NewStatusService(orders *repos.OrderRepo) *StatusService {
	return &StatusService{Orders: orders, Now: time.Now}
}

func (s *StatusService) Get(ctx context.Context, id string) (domain.Order, error) {
	return s.Orders.Get(ctx, id)
}

// History lists the orders owned by userID, newest first.
func (s *StatusService) History(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.Orders.ListByUser(ctx, userID)
}

// ListAll lists every order, optionally only those in status.
func (s *StatusService) ListAll(ctx context.Context, status domain.OrderStatus) ([]domain.Order, error) {
	if status == "" {
		return s.Orders.Query(ctx, nil)
	}
	return s.Orders.Query(ctx, func(o domain.Order) bool { return o.Status == status })
}

// SetStatus moves an order to next if the transition table allows it.
// The check and the write happen in one store transaction, so concurrent
// calls cannot both leave the same status. Authorisation is the caller's
// concern.
func (s *StatusService) SetStatus(ctx context.Context, orderID string, next domain.OrderStatus, actor string) (domain.Order, error) {
	next, err := domain.ParseStatus(string(next))
	if err != nil {
		return domain.Order{}, err
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}

	var from domain.OrderStatus
	o, err := s.Orders.Advance(ctx, orderID, func(o domain.Order) (domain.Order, error) {
		from = o.Status
		if !o.Status.CanTransition(next) {
			return o, fmt.Errorf("%w: %s -> %s", domain.ErrIllegalTransition, o.Status, next)
		}
		o.Status = next
		o.History = append(o.History, domain.StatusChange{Status: next, At: now().UTC(), By: actor})
		return o, nil
	})
	switch {
	case errors.Is(err, domain.ErrIllegalTransition):
		log.Warn().Str("order_id", orderID).Stringer("from", from).Stringer("to", next).Msg("status: illegal transition")
		return domain.Order{}, err
	case err != nil:
		return domain.Order{}, fmt.Errorf("set status: %w", err)
	}
	log.Info().Str("order_id", orderID).Stringer("from", from).Stringer("to", next).Str("by", actor).Msg("status: order updated")
	return o, nil
}

// Subscribe streams full snapshots of the orders matching match
// (nil for all). The caller must Close the subscription.
func (s *StatusService) Subscribe(ctx context.Context, match func(domain.Order) bool) (*repos.OrderSubscription, error) {
	return s.Orders.Subscribe(ctx, match)
}

// Ranking aggregates product sales per month over all stored orders.
func (s *StatusService) Ranking(ctx context.Context) ([]RankEntry, error) {
	orders, err := s.Orders.Query(ctx, nil)
	if err != nil {
		return nil, err
	}
	return RankProductsByMonth(orders), nil
}

type RankEntry struct {
	Month         string `json:"month"` // YYYY-MM
	ProductID     string `json:"product_id"`
	ProductName   string `json:"product_name"`
	TotalQuantity int    `json:"total_quantity"`
}

// RankProductsByMonth sums line quantities per calendar month of the order
// date and per product. Cancelled orders do not count. The result is
// ordered by month, then quantity descending, then name.
func RankProductsByMonth(orders []domain.Order) []RankEntry {
	type key struct{ month, product string }
	idx := map[key]int{}
	out := []RankEntry{}

	for _, o := range orders {
		if o.Status == domain.StatusCancelled {
			continue
		}
		month := o.Date.UTC().Format("2006-01")
		for _, l := range o.Lines {
			pk := l.ProductID
			if pk == "" {
				pk = l.Name
			}
			k := key{month, pk}
			if i, ok := idx[k]; ok {
				out[i].TotalQuantity += l.Quantity
				continue
			}
			idx[k] = len(out)
			out = append(out, RankEntry{Month: month, ProductID: l.ProductID, ProductName: l.Name, TotalQuantity: l.Quantity})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		if a.TotalQuantity != b.TotalQuantity {
			return a.TotalQuantity > b.TotalQuantity
		}
		return a.ProductName < b.ProductName
	})
	return out
}
