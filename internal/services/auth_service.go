package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"minimarket/internal/domain"
	"minimarket/internal/repos"
)

var ErrEmailTaken = errors.New("email already registered")

// AuthEvent is delivered on every sign-in and sign-out. UserID is empty
// when the session signed out.
type AuthEvent struct {
	SessionID string
	UserID    string
}

type SignUpInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Address  string
}

type AuthService struct {
	Users *repos.UserRepo

	mu        sync.Mutex
	nextID    int
	listeners map[int]func(context.Context, AuthEvent)
}

func NewAuthService(users *repos.UserRepo) *AuthService {
	return &AuthService{Users: users, listeners: map[int]func(context.Context, AuthEvent){}}
}

// OnAuthStateChange registers fn for auth transitions and returns a
// function that removes it.
func (s *AuthService) OnAuthStateChange(fn func(context.Context, AuthEvent)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listeners == nil {
		s.listeners = map[int]func(context.Context, AuthEvent){}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *AuthService) emit(ctx context.Context, ev AuthEvent) {
	s.mu.Lock()
	fns := make([]func(context.Context, AuthEvent), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ctx, ev)
	}
}

// SignUp creates a customer account. Callers validate email and password
// format beforehand.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*domain.User, error) {
	_, err := s.Users.ByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u, err := s.Users.Create(ctx, domain.User{
		Email:   strings.ToLower(strings.TrimSpace(in.Email)),
		Name:    strings.TrimSpace(in.Name),
		Phone:   strings.TrimSpace(in.Phone),
		Address: strings.TrimSpace(in.Address),
		Role:    domain.RoleCustomer,
		Hash:    string(h),
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("user_id", u.ID).Msg("auth: user signed up")
	return &u, nil
}

func (s *AuthService) SignIn(ctx context.Context, sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrAuth
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, domain.ErrAuth
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	s.emit(ctx, AuthEvent{SessionID: sid, UserID: u.ID})
	return u, nil
}

func (s *AuthService) SignOut(ctx context.Context, sid string) error {
	if err := s.Users.UnbindSession(ctx, sid); err != nil {
		return err
	}
	s.emit(ctx, AuthEvent{SessionID: sid})
	return nil
}

// CurrentUser returns the user bound to sid, or nil for a guest session.
func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	if sid == "" {
		return nil, nil
	}
	u, err := s.Users.SessionUser(ctx, sid)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return u, err
}
