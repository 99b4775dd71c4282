package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minimarket/internal/domain"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from, to domain.OrderStatus
		ok       bool
	}{
		{domain.StatusPending, domain.StatusShipped, true},
		{domain.StatusPending, domain.StatusCancelled, true},
		{domain.StatusPending, domain.StatusDelivered, false},
		{domain.StatusShipped, domain.StatusDelivered, true},
		{domain.StatusShipped, domain.StatusCancelled, true},
		{domain.StatusShipped, domain.StatusPending, false},
		{domain.StatusDelivered, domain.StatusCancelled, false},
		{domain.StatusDelivered, domain.StatusPending, false},
		{domain.StatusCancelled, domain.StatusPending, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
	assert.True(t, domain.StatusDelivered.Terminal())
	assert.True(t, domain.StatusCancelled.Terminal())
	assert.False(t, domain.StatusPending.Terminal())
}

func TestParseStatus(t *testing.T) {
	st, err := domain.ParseStatus(" Enviado ")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusShipped, st)

	_, err = domain.ParseStatus("perdido")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestProductValidate(t *testing.T) {
	assert.NoError(t, domain.Product{Name: "Arroz", Price: 3000, Stock: 4}.Validate())
	assert.ErrorIs(t, domain.Product{Name: "Arroz", Price: -1}.Validate(), domain.ErrInvalidProduct)
	assert.ErrorIs(t, domain.Product{Name: "Arroz", Stock: -1}.Validate(), domain.ErrInvalidProduct)
	assert.ErrorIs(t, domain.Product{Name: " "}.Validate(), domain.ErrInvalidProduct)
}
