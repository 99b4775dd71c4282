package handlers

import (
	"minimarket/internal/config"
	"minimarket/internal/repos"
	"minimarket/internal/services"
)

type Deps struct {
	Auth    *services.AuthService
	Catalog *services.CatalogService
	Cart    *services.CartService
	Order   *services.OrderService
	Status  *services.StatusService
	Users   *services.UserService

	AuthHandler    *AuthHandler
	CatalogHandler *CatalogHandler
	CartHandler    *CartHandler
	OrderHandler   *OrderHandler
	AdminHandler   *AdminHandler
}

// NewDeps builds the services over store and subscribes the cart to auth
// transitions.
func NewDeps(store *repos.DocStore, cfg config.Config) *Deps {
	prodRepo := repos.NewProductRepo(store)
	cartRepo := repos.NewCartRepo(store)
	orderRepo := repos.NewOrderRepo(store)
	userRepo := repos.NewUserRepo(store)

	authSvc := services.NewAuthService(userRepo)
	catalogSvc := services.NewCatalogService(prodRepo)
	cartSvc := services.NewCartService(cartRepo, catalogSvc, cfg.GuestCartPolicy)
	if cfg.GuestCartTTL > 0 {
		cartSvc.GuestTTL = cfg.GuestCartTTL
	}
	authSvc.OnAuthStateChange(cartSvc.HandleAuthChange)
	orderSvc := services.NewOrderService(orderRepo, cartSvc, userRepo)
	statusSvc := services.NewStatusService(orderRepo)
	userSvc := services.NewUserService(userRepo, cartRepo, statusSvc)

	return &Deps{
		Auth:    authSvc,
		Catalog: catalogSvc,
		Cart:    cartSvc,
		Order:   orderSvc,
		Status:  statusSvc,
		Users:   userSvc,

		AuthHandler:    &AuthHandler{Auth: authSvc},
		CatalogHandler: &CatalogHandler{Catalog: catalogSvc},
		CartHandler:    &CartHandler{Cart: cartSvc},
		OrderHandler:   &OrderHandler{Order: orderSvc, Status: statusSvc},
		AdminHandler:   &AdminHandler{Catalog: catalogSvc, Status: statusSvc, Users: userSvc},
	}
}
