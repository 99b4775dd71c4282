package services_test

import (
	"context"
	"testing"

	"minimarket/internal/config"
	"minimarket/internal/domain"
	"minimarket/internal/repos"
	"minimarket/internal/services"
)

type fixture struct {
	store   *repos.DocStore
	carts   *repos.CartRepo
	orders  *repos.OrderRepo
	users   *repos.UserRepo
	auth    *services.AuthService
	catalog *services.CatalogService
	cart    *services.CartService
	order   *services.OrderService
	status  *services.StatusService
}

func newFixture(t *testing.T, policy string) *fixture {
	t.Helper()
	db, err := repos.OpenDB("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	store := repos.NewDocStore(db)
	t.Cleanup(func() {
		_ = store.Close()
		_ = db.Close()
	})

	f := &fixture{
		store:  store,
		carts:  repos.NewCartRepo(store),
		orders: repos.NewOrderRepo(store),
		users:  repos.NewUserRepo(store),
	}
	if policy == "" {
		policy = config.GuestCartDiscard
	}
	f.auth = services.NewAuthService(f.users)
	f.catalog = services.NewCatalogService(repos.NewProductRepo(store))
	f.cart = services.NewCartService(f.carts, f.catalog, policy)
	f.auth.OnAuthStateChange(f.cart.HandleAuthChange)
	f.order = services.NewOrderService(f.orders, f.cart, f.users)
	f.status = services.NewStatusService(f.orders)
	return f
}

// signIn logs the seeded customer in on sid.
func (f *fixture) signIn(t *testing.T, sid string) services.Session {
	t.Helper()
	u, err := f.auth.SignIn(context.Background(), sid, "ana@laeconomia.test", "Passw0rd!")
	if err != nil {
		t.Fatal(err)
	}
	return services.Session{ID: sid, UserID: u.ID}
}

func contactForm() domain.ContactInfo {
	return domain.ContactInfo{
		Name: "Ana", Phone: "3001234567", Email: "ana@laeconomia.test",
		Address: "Calle 10 # 5-20", Neighborhood: "Centro", PaymentMethod: domain.PaymentCash,
	}
}
