package database

import (
	"testing"

	"field-service-api/config"
	"field-service-api/internal/auth"
	"field-service-api/internal/models"
	"field-service-api/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSeed(t *testing.T) {
	stores := store.NewStores(store.NewMemoryBackend())
	cfg := config.Config{Auth: config.AuthConfig{Enabled: true, AdminEmail: "Admin@Example.com", AdminPassword: "s3nha"}}
	s := &Seeder{Stores: stores, Config: cfg, Log: zap.NewNop()}

	require.NoError(t, s.Seed(t.Context()))
	// a second run changes nothing
	require.NoError(t, s.Seed(t.Context()))

	users, err := stores.Users.Find(t.Context(), store.Filter{"email": "admin@example.com"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin", users[0].Role)
	assert.True(t, auth.CheckPasswordHash("s3nha", users[0].Password))

	types, err := stores.ServiceTypes.Find(t.Context(), nil)
	require.NoError(t, err)
	names := []string{}
	for _, st := range types {
		assert.True(t, st.IsActive)
		names = append(names, st.Name)
	}
	assert.Equal(t, DefaultServiceTypes, names)
}

func TestSeedKeepsExistingServiceTypes(t *testing.T) {
	stores := store.NewStores(store.NewMemoryBackend())
	st := models.ServiceType{ID: "st1", Name: "Vistoria", IsActive: true}
	require.NoError(t, stores.ServiceTypes.Insert(t.Context(), st.ID, &st))

	s := &Seeder{Stores: stores, Config: config.Config{}, Log: zap.NewNop()}
	require.NoError(t, s.Seed(t.Context()))

	n, err := stores.ServiceTypes.Count(t.Context(), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// auth disabled: no admin
	n, err = stores.Users.Count(t.Context(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}
