package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"minimarket/internal/domain"
	"minimarket/internal/repos"
)

// UserService backs the admin user management screens.
type UserService struct {
	Users  *repos.UserRepo
	Carts  *repos.CartRepo
	Status *StatusService
}

func NewUserService(users *repos.UserRepo, carts *repos.CartRepo, status *StatusService) *UserService {
	return &UserService{Users: users, Carts: carts, Status: status}
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.Users.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = users[i].Public()
	}
	return users, nil
}

func (s *UserService) SetRole(ctx context.Context, id, role string) error {
	if role != domain.RoleAdmin && role != domain.RoleCustomer {
		return fmt.Errorf("unknown role %q", role)
	}
	return s.Users.SetRole(ctx, id, role)
}

// Delete removes the user with their sessions and cart, and cancels their
// open orders. Orders are kept for the record.
func (s *UserService) Delete(ctx context.Context, id, actor string) error {
	if _, err := s.Users.ByID(ctx, id); err != nil {
		return err
	}

	orders, err := s.Status.History(ctx, id)
	if err != nil {
		return err
	}
	for _, o := range orders {
		if !o.Status.CanTransition(domain.StatusCancelled) {
			continue
		}
		if _, err := s.Status.SetStatus(ctx, o.ID, domain.StatusCancelled, actor); err != nil && !errors.Is(err, domain.ErrIllegalTransition) {
			return err
		}
	}

	sids, err := s.Users.Sessions(ctx, id)
	if err != nil {
		return err
	}
	for _, sid := range sids {
		if err := s.Users.UnbindSession(ctx, sid); err != nil {
			return err
		}
	}
	if err := s.Carts.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.Users.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Str("user_id", id).Int("orders", len(orders)).Str("by", actor).Msg("users: user deleted")
	return nil
}
