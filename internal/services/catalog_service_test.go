package services_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minimarket/internal/domain"
	"minimarket/internal/services"
)

func TestListProductsFilterAndPage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	page, err := f.catalog.ListProducts(ctx, services.ProductFilter{Category: "lácteos"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	for _, p := range page.Items {
		assert.Equal(t, "Lácteos", p.Category)
	}

	page, err = f.catalog.ListProducts(ctx, services.ProductFilter{Query: "ARROZ"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "prod-arroz", page.Items[0].ID)

	all, err := f.catalog.ListProducts(ctx, services.ProductFilter{})
	require.NoError(t, err)
	p2, err := f.catalog.ListProducts(ctx, services.ProductFilter{Page: 2, PageSize: 4})
	require.NoError(t, err)
	assert.Equal(t, all.Total, p2.Total)
	assert.Len(t, p2.Items, all.Total-4)

	far, err := f.catalog.ListProducts(ctx, services.ProductFilter{Page: 99})
	require.NoError(t, err)
	assert.Empty(t, far.Items)
}

func TestProductCRUD(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	_, err := f.catalog.CreateProduct(ctx, domain.Product{Name: "Panela", Price: -5})
	assert.ErrorIs(t, err, domain.ErrInvalidProduct)

	p, err := f.catalog.CreateProduct(ctx, domain.Product{Name: "Panela", Category: "Granos", Price: 2800, Stock: 3})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)

	p.Price = 2900
	_, err = f.catalog.UpdateProduct(ctx, p)
	require.NoError(t, err)
	got, err := f.catalog.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2900.0, got.Price)

	a, err := f.catalog.Availability(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Availability{Status: "LOW_STOCK", Qty: 3}, a)

	require.NoError(t, f.catalog.DeleteProduct(ctx, p.ID))
	_, err = f.catalog.GetProduct(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, f.catalog.DeleteProduct(ctx, p.ID), domain.ErrNotFound)

	_, err = f.catalog.UpdateProduct(ctx, domain.Product{ID: "prod-nada", Name: "X"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cats, err := f.catalog.ListCategories(ctx)
	require.NoError(t, err)
	assert.Contains(t, cats, "Granos")
}

func TestAvailability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	for id, want := range map[string]string{"prod-leche": "IN_STOCK", "prod-cafe": "LOW_STOCK", "prod-jabon": "OUT_OF_STOCK"} {
		a, err := f.catalog.Availability(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, a.Status, id)
	}
}

func TestListProductsExtremePaging(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")

	for _, pf := range []services.ProductFilter{
		{Page: 3, PageSize: math.MaxInt},
		{Page: math.MaxInt, PageSize: math.MaxInt},
		{Page: math.MaxInt, PageSize: 12},
		{Page: math.MinInt, PageSize: math.MinInt},
	} {
		var page services.ProductPage
		require.NotPanics(t, func() {
			var err error
			page, err = f.catalog.ListProducts(ctx, pf)
			require.NoError(t, err)
		}, "%+v", pf)
		assert.LessOrEqual(t, page.PageSize, services.MaxPageSize)
		assert.Equal(t, 6, page.Total)
	}

	page, err := f.catalog.ListProducts(ctx, services.ProductFilter{Page: 1, PageSize: math.MaxInt})
	require.NoError(t, err)
	assert.Len(t, page.Items, 6)
	assert.Equal(t, services.MaxPageSize, page.PageSize)
}
