package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minimarket/internal/config"
	"minimarket/internal/domain"
	"minimarket/internal/services"
)

func TestCartGuestIsMemoryOnly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	guest := services.Session{ID: "sid-guest"}

	c, err := f.cart.Add(ctx, guest, "prod-leche", 2)
	require.NoError(t, err)
	assert.Equal(t, 4000.0, c.Total())

	docs, err := f.store.Query(ctx, "carritos", nil)
	require.NoError(t, err)
	assert.Empty(t, docs, "guest carts are never persisted")

	other, err := f.cart.Get(ctx, services.Session{ID: "sid-other"})
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())
}

func TestCartAuthenticatedPersistsEveryMutation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	sess := f.signIn(t, "sid-1")

	_, err := f.cart.Add(ctx, sess, "prod-pan", 1)
	require.NoError(t, err)
	_, err = f.cart.Update(ctx, sess, "prod-pan", 3)
	require.NoError(t, err)

	stored, err := f.carts.Load(ctx, sess.UserID)
	require.NoError(t, err)
	l, ok := stored.Line("prod-pan")
	require.True(t, ok)
	assert.Equal(t, 3, l.Quantity)
	assert.Equal(t, 4500.0, stored.Total())

	_, err = f.cart.Remove(ctx, sess, "prod-pan")
	require.NoError(t, err)
	stored, _ = f.carts.Load(ctx, sess.UserID)
	assert.True(t, stored.IsEmpty())
}

func TestCartStockCeiling(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	guest := services.Session{ID: "sid-guest"}

	// prod-cafe is seeded with stock 4
	_, err := f.cart.Add(ctx, guest, "prod-cafe", 3)
	require.NoError(t, err)
	_, err = f.cart.Add(ctx, guest, "prod-cafe", 2)
	assert.ErrorIs(t, err, domain.ErrStockExceeded)
	_, err = f.cart.Update(ctx, guest, "prod-cafe", 5)
	assert.ErrorIs(t, err, domain.ErrStockExceeded)
	_, err = f.cart.Update(ctx, guest, "prod-cafe", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.cart.Add(ctx, guest, "prod-jabon", 1)
	assert.ErrorIs(t, err, domain.ErrStockExceeded, "out of stock")
	_, err = f.cart.Add(ctx, guest, "prod-nada", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCartLoginDiscardsGuestCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.GuestCartDiscard)

	_, err := f.cart.Add(ctx, services.Session{ID: "sid-1"}, "prod-leche", 1)
	require.NoError(t, err)

	sess := f.signIn(t, "sid-1")
	c, err := f.cart.Get(ctx, sess)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty(), "persisted cart replaces the guest cart")
}

func TestCartLoginMergesGuestCart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, config.GuestCartMerge)

	sess := f.signIn(t, "sid-a")
	_, err := f.cart.Add(ctx, sess, "prod-pan", 2)
	require.NoError(t, err)
	require.NoError(t, f.auth.SignOut(ctx, "sid-a"))

	guest := services.Session{ID: "sid-b"}
	_, err = f.cart.Add(ctx, guest, "prod-pan", 1)
	require.NoError(t, err)
	_, err = f.cart.Add(ctx, guest, "prod-leche", 1)
	require.NoError(t, err)

	sess = f.signIn(t, "sid-b")
	c, err := f.cart.Get(ctx, sess)
	require.NoError(t, err)
	require.Len(t, c.Lines, 2)
	l, _ := c.Line("prod-pan")
	assert.Equal(t, 3, l.Quantity)

	g, _ := f.cart.Get(ctx, guest)
	assert.True(t, g.IsEmpty(), "guest entry is gone after sign-in")
}

func TestCartResetOnSignOut(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	sess := f.signIn(t, "sid-1")
	_, err := f.cart.Add(ctx, sess, "prod-arroz", 2)
	require.NoError(t, err)

	require.NoError(t, f.auth.SignOut(ctx, "sid-1"))
	c, err := f.cart.Get(ctx, services.Session{ID: "sid-1"})
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())

	// persisted cart survives for the next sign-in
	sess = f.signIn(t, "sid-2")
	c, err = f.cart.Get(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, c.Lines, 1)
}

type failingStore struct{ loadErr, saveErr error }

func (s failingStore) Load(context.Context, string) (domain.Cart, error) {
	return domain.Cart{}, s.loadErr
}
func (s failingStore) Save(context.Context, string, domain.Cart) error { return s.saveErr }

func TestCartStorageFailures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	sess := services.Session{ID: "sid", UserID: "u-ana"}
	down := errors.Join(domain.ErrStorageUnavailable, errors.New("disk full"))

	svc := services.NewCartService(failingStore{loadErr: down}, f.catalog, config.GuestCartDiscard)
	c, err := svc.Load(ctx, "u-ana")
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable)
	assert.True(t, c.IsEmpty(), "load fails soft with an empty cart")
	_, err = svc.Add(ctx, sess, "prod-pan", 1)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable, "mutations refuse to overwrite an unread cart")

	svc = services.NewCartService(failingStore{saveErr: down}, f.catalog, config.GuestCartDiscard)
	_, err = svc.Add(ctx, sess, "prod-pan", 1)
	assert.ErrorIs(t, err, domain.ErrStorageUnavailable, "a failed write is never reported as success")
}
