package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"minimarket/internal/config"
	"minimarket/internal/domain"
)

// CartStore persists one cart per user id.
type CartStore interface {
	Load(ctx context.Context, userID string) (domain.Cart, error)
	Save(ctx context.Context, userID string, c domain.Cart) error
}

// ProductSource is the catalog read side the cart needs.
type ProductSource interface {
	GetProduct(ctx context.Context, id string) (domain.Product, error)
}

// Session identifies who owns a cart. UserID is empty for guests.
type Session struct {
	ID     string
	UserID string
}

func (s Session) Authenticated() bool { return s.UserID != "" }

// Guest cart retention defaults.
const (
	DefaultGuestTTL  = 2 * time.Hour
	DefaultMaxGuests = 10000
)

type guestEntry struct {
	cart    domain.Cart
	touched time.Time
}

// CartService keeps guest carts in memory per session and persisted carts
// per user. Authenticated carts are written back after every mutation.
// Guest carts idle for longer than GuestTTL are dropped, and at most
// MaxGuests are kept.
type CartService struct {
	Carts     CartStore
	Catalog   ProductSource
	Policy    string // config.GuestCartDiscard or config.GuestCartMerge
	GuestTTL  time.Duration
	MaxGuests int
	Now       func() time.Time

	mu        sync.Mutex // guards guests and lastSweep
	guests    map[string]guestEntry
	lastSweep time.Time

	userLocks sync.Map // user id -> *sync.Mutex
}

func NewCartService(carts CartStore, catalog ProductSource, policy string) *CartService {
	return &CartService{
		Carts:     carts,
		Catalog:   catalog,
		Policy:    policy,
		GuestTTL:  DefaultGuestTTL,
		MaxGuests: DefaultMaxGuests,
		Now:       time.Now,
		guests:    map[string]guestEntry{},
	}
}

func emptyCart() domain.Cart { return domain.Cart{Lines: []domain.CartLine{}} }

func (s *CartService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Load fetches the persisted cart for userID. A storage failure yields an
// empty cart together with the error so callers can fail soft.
func (s *CartService) Load(ctx context.Context, userID string) (domain.Cart, error) {
	c, err := s.Carts.Load(ctx, userID)
	if err != nil {
		return emptyCart(), fmt.Errorf("load cart: %w", err)
	}
	return c, nil
}

// Persist writes the whole cart for userID.
func (s *CartService) Persist(ctx context.Context, userID string, c domain.Cart) error {
	if err := s.Carts.Save(ctx, userID, c); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}

// Get returns the session's current cart.
func (s *CartService) Get(ctx context.Context, sess Session) (domain.Cart, error) {
	if sess.Authenticated() {
		return s.Load(ctx, sess.UserID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.guestCart(sess.ID), nil
}

// GuestCount reports how many guest carts are held in memory.
func (s *CartService) GuestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.guests)
}

// guestCart returns the cart for sid and marks it as used. s.mu must be held.
func (s *CartService) guestCart(sid string) domain.Cart {
	if s.guests == nil {
		s.guests = map[string]guestEntry{}
	}
	now := s.now()
	s.sweep(now)
	e, ok := s.guests[sid]
	if !ok {
		return emptyCart()
	}
	e.touched = now
	s.guests[sid] = e
	return e.cart
}

// putGuest stores c for sid, evicting the least recently used cart when
// the map is full. s.mu must be held.
func (s *CartService) putGuest(sid string, c domain.Cart) {
	if _, ok := s.guests[sid]; !ok && s.MaxGuests > 0 && len(s.guests) >= s.MaxGuests {
		oldest, at := "", time.Time{}
		for k, e := range s.guests {
			if oldest == "" || e.touched.Before(at) {
				oldest, at = k, e.touched
			}
		}
		delete(s.guests, oldest)
		log.Debug().Str("sid", oldest).Msg("cart: guest cart evicted, store full")
	}
	s.guests[sid] = guestEntry{cart: c, touched: s.now()}
}

// sweep drops idle guest carts, at most once per tenth of GuestTTL.
// s.mu must be held.
func (s *CartService) sweep(now time.Time) {
	if s.GuestTTL <= 0 || now.Sub(s.lastSweep) < s.GuestTTL/10 {
		return
	}
	s.lastSweep = now
	n := 0
	for k, e := range s.guests {
		if now.Sub(e.touched) > s.GuestTTL {
			delete(s.guests, k)
			n++
		}
	}
	if n > 0 {
		log.Debug().Int("evicted", n).Msg("cart: idle guest carts dropped")
	}
}

func (s *CartService) userLock(userID string) *sync.Mutex {
	l, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return l.(*sync.Mutex)
}

// mutate applies fn to the session cart and stores the result. A load
// failure aborts the mutation so a stored cart is never overwritten blindly.
// Persisted carts are serialised per user only.
func (s *CartService) mutate(ctx context.Context, sess Session, fn func(domain.Cart) (domain.Cart, error)) (domain.Cart, error) {
	if !sess.Authenticated() {
		s.mu.Lock()
		defer s.mu.Unlock()
		next, err := fn(s.guestCart(sess.ID))
		if err != nil {
			return domain.Cart{}, err
		}
		s.putGuest(sess.ID, next)
		return next, nil
	}

	l := s.userLock(sess.UserID)
	l.Lock()
	defer l.Unlock()

	cur, err := s.Load(ctx, sess.UserID)
	if err != nil {
		return domain.Cart{}, err
	}
	next, err := fn(cur)
	if err != nil {
		return domain.Cart{}, err
	}
	if err := s.Persist(ctx, sess.UserID, next); err != nil {
		return domain.Cart{}, err
	}
	return next, nil
}

// Add puts qty units of a catalog product in the cart, refusing to go
// beyond the product's stock.
func (s *CartService) Add(ctx context.Context, sess Session, productID string, qty int) (domain.Cart, error) {
	if qty < 1 {
		return domain.Cart{}, domain.ErrInvalidQuantity
	}
	p, err := s.Catalog.GetProduct(ctx, productID)
	if err != nil {
		return domain.Cart{}, err
	}
	return s.mutate(ctx, sess, func(c domain.Cart) (domain.Cart, error) {
		have := 0
		if l, ok := c.Line(p.ID); ok {
			have = l.Quantity
		}
		if qty > p.Stock-have {
			return c, fmt.Errorf("%w: %s has %d, cart would hold %d", domain.ErrStockExceeded, p.Name, p.Stock, have+qty)
		}
		return c.Add(p, qty)
	})
}

// Update sets the quantity of an existing line, bounded by the line's stock snapshot.
func (s *CartService) Update(ctx context.Context, sess Session, productID string, qty int) (domain.Cart, error) {
	return s.mutate(ctx, sess, func(c domain.Cart) (domain.Cart, error) {
		if l, ok := c.Line(productID); ok && qty > l.Stock {
			return c, fmt.Errorf("%w: %s has %d", domain.ErrStockExceeded, l.Name, l.Stock)
		}
		return c.UpdateQuantity(productID, qty)
	})
}

func (s *CartService) Remove(ctx context.Context, sess Session, productID string) (domain.Cart, error) {
	return s.mutate(ctx, sess, func(c domain.Cart) (domain.Cart, error) {
		return c.Remove(productID), nil
	})
}

func (s *CartService) Clear(ctx context.Context, sess Session) (domain.Cart, error) {
	return s.mutate(ctx, sess, func(c domain.Cart) (domain.Cart, error) {
		return c.Clear(), nil
	})
}

// HandleAuthChange follows sign-in and sign-out. On sign-in the guest cart
// is either dropped in favour of the persisted one or merged into it,
// depending on Policy. On sign-out the session starts over with an empty cart.
func (s *CartService) HandleAuthChange(ctx context.Context, ev AuthEvent) {
	s.mu.Lock()
	guest := emptyCart()
	if e, ok := s.guests[ev.SessionID]; ok {
		guest = e.cart
	}
	delete(s.guests, ev.SessionID)
	s.mu.Unlock()

	if ev.UserID == "" {
		return
	}
	if s.Policy != config.GuestCartMerge || guest.IsEmpty() {
		if !guest.IsEmpty() {
			log.Info().Str("user_id", ev.UserID).Int("lines", len(guest.Lines)).Msg("cart: guest cart discarded on sign-in")
		}
		return
	}

	l := s.userLock(ev.UserID)
	l.Lock()
	defer l.Unlock()
	persisted, err := s.Load(ctx, ev.UserID)
	if err != nil {
		log.Error().Err(err).Str("user_id", ev.UserID).Msg("cart: could not load cart to merge guest items")
		return
	}
	if err := s.Persist(ctx, ev.UserID, persisted.Merge(guest)); err != nil {
		log.Error().Err(err).Str("user_id", ev.UserID).Msg("cart: could not persist merged cart")
		return
	}
	log.Info().Str("user_id", ev.UserID).Int("lines", len(guest.Lines)).Msg("cart: guest cart merged on sign-in")
}
