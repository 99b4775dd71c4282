package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"minimarket/internal/domain"
	"minimarket/internal/repos"
	"minimarket/internal/validate"
)

// BuildOrder freezes cart into a pending order for contact. The total is
// re-summed from the lines; stock is not touched.
func BuildOrder(cart domain.Cart, contact domain.ContactInfo, now time.Time) (domain.Order, error) {
	if cart.IsEmpty() {
		return domain.Order{}, domain.ErrEmptyCart
	}
	contact, err := validate.Contact(contact)
	if err != nil {
		return domain.Order{}, err
	}

	lines := make([]domain.OrderLine, 0, len(cart.Lines))
	total := decimal.Zero
	for _, l := range cart.Lines {
		if l.Quantity < 1 {
			return domain.Order{}, fmt.Errorf("%w: %s", domain.ErrInvalidQuantity, l.Name)
		}
		lines = append(lines, domain.OrderLine{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			Price:     l.Price,
			Image:     l.Image,
		})
		total = total.Add(domain.LineTotal(l.Price, l.Quantity))
	}

	return domain.Order{
		Customer: contact,
		Lines:    lines,
		Total:    domain.ToFloat(total),
		Date:     now.UTC(),
		Status:   domain.StatusPending,
	}, nil
}

type OrderService struct {
	Orders *repos.OrderRepo
	Carts  *CartService
	Users  *repos.UserRepo
	Now    func() time.Time
}

func NewOrderService(orders *repos.OrderRepo, carts *CartService, users *repos.UserRepo) *OrderService {
	return &OrderService{Orders: orders, Carts: carts, Users: users, Now: time.Now}
}

func (s *OrderService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// SubmitOrder stores o as owned by userID and returns the new order id.
func (s *OrderService) SubmitOrder(ctx context.Context, o domain.Order, userID string) (string, error) {
	o.UserID = userID
	if len(o.History) == 0 {
		o.History = []domain.StatusChange{{Status: o.Status, At: o.Date, By: userID}}
	}
	id, err := s.Orders.Create(ctx, o)
	if err != nil {
		return "", fmt.Errorf("submit order: %w", err)
	}
	return id, nil
}

// prefill fills blank contact fields from the customer's profile.
func (s *OrderService) prefill(ctx context.Context, userID string, c domain.ContactInfo) domain.ContactInfo {
	if s.Users == nil {
		return c
	}
	u, err := s.Users.ByID(ctx, userID)
	if err != nil {
		return c
	}
	if c.Name == "" {
		c.Name = u.Name
	}
	if c.Email == "" {
		c.Email = u.Email
	}
	if c.Phone == "" {
		c.Phone = u.Phone
	}
	if c.Address == "" {
		c.Address = u.Address
	}
	return c
}

// Place checks out the session's cart: build, submit, then clear the
// cart. A failure to clear after a successful submit is logged only.
func (s *OrderService) Place(ctx context.Context, sess Session, contact domain.ContactInfo) (domain.Order, error) {
	if !sess.Authenticated() {
		return domain.Order{}, domain.ErrForbidden
	}
	cart, err := s.Carts.Get(ctx, sess)
	if err != nil {
		return domain.Order{}, err
	}
	o, err := BuildOrder(cart, s.prefill(ctx, sess.UserID, contact), s.now())
	if err != nil {
		return domain.Order{}, err
	}
	id, err := s.SubmitOrder(ctx, o, sess.UserID)
	if err != nil {
		return domain.Order{}, err
	}
	o.ID = id
	o.UserID = sess.UserID

	if _, err := s.Carts.Clear(ctx, sess); err != nil {
		log.Error().Err(err).Str("order_id", id).Str("user_id", sess.UserID).Msg("checkout: order stored but cart not cleared")
	}
	log.Info().Str("order_id", id).Str("user_id", sess.UserID).Float64("total", o.Total).Msg("checkout: order placed")
	return o, nil
}
