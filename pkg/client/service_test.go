package client

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clientRepoStub = NewRepositoryStub()

func setupService(t *testing.T) *ServiceImpl {
	t.Cleanup(clientRepoStub.Cleanup)
	return NewService(clientRepoStub)
}

func TestService_Create(t *testing.T) {
	t.Run("should default status to active and round trip", func(t *testing.T) {
		service := setupService(t)
		ctx := context.Background()

		// when
		created, err := service.Create(ctx, Client{
			FirstName:     " Maria ",
			LastName:      "Rossi",
			Email:         "maria.rossi@example.it",
			MonthlyBudget: decimal.RequireFromString("1200.456"),
			TaxCode:       "rssmra80a01h501u",
		})
		require.NoError(t, err)

		// then
		fetched, err := service.Get(ctx, created.Id)
		require.NoError(t, err)
		assert.Equal(t, StatusActive, fetched.Status)
		assert.Equal(t, "Maria", fetched.FirstName)
		assert.Equal(t, "RSSMRA80A01H501U", fetched.TaxCode)
		assert.True(t, decimal.RequireFromString("1200.46").Equal(fetched.MonthlyBudget))
	})

	tests := []struct {
		name   string
		client Client
	}{
		{"missing last name", Client{FirstName: "Maria"}},
		{"bad status", Client{FirstName: "Maria", LastName: "Rossi", Status: "archived"}},
		{"bad email", Client{FirstName: "Maria", LastName: "Rossi", Email: "maria"}},
		{"negative budget", Client{FirstName: "Maria", LastName: "Rossi", MonthlyBudget: decimal.NewFromInt(-1)}},
	}
	for _, tt := range tests {
		t.Run("should reject "+tt.name, func(t *testing.T) {
			service := setupService(t)
			_, err := service.Create(context.Background(), tt.client)
			assert.ErrorIs(t, err, ErrClientDataInvalid)
		})
	}
}

func TestService_Update_KeepsStatusWhenOmitted(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()
	created, err := service.Create(ctx, Client{FirstName: "Paolo", LastName: "Verdi", Status: StatusPending})
	require.NoError(t, err)

	updated, err := service.Update(ctx, Client{Id: created.Id, FirstName: "Paolo", LastName: "Verdi", Notes: "moved"})

	require.NoError(t, err)
	assert.Equal(t, StatusPending, updated.Status)
	assert.Equal(t, "moved", updated.Notes)
}

func TestService_List(t *testing.T) {
	service := setupService(t)
	ctx := context.Background()
	_, _ = service.Create(ctx, Client{FirstName: "Anna", LastName: "Neri"})
	_, _ = service.Create(ctx, Client{FirstName: "Bruno", LastName: "Gialli", Status: StatusInactive})

	active, err := service.List(ctx, Filter{Status: StatusActive})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	searched, err := service.List(ctx, Filter{Search: "  gial "})
	require.NoError(t, err)
	require.Len(t, searched, 1)
	assert.Equal(t, "Bruno", searched[0].FirstName)

	_, err = service.List(ctx, Filter{Status: "bogus"})
	assert.ErrorIs(t, err, ErrClientDataInvalid)
}
