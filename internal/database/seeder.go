// internal/database/seeder.go
package database

import (
	"context"
	"fmt"
	"strings"

	"field-service-api/config"
	"field-service-api/internal/auth"
	"field-service-api/internal/models"
	"field-service-api/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultServiceTypes are created on an empty database.
var DefaultServiceTypes = []string{"Instalação", "Reparo", "Manutenção", "Retirada"}

type Seeder struct {
	Stores *store.Stores
	Config config.Config
	Log    *zap.Logger
}

// Seed creates the admin user when auth is enabled and the default service
// types when none exist. It is safe to run more than once.
func (s *Seeder) Seed(ctx context.Context) error {
	if s.Config.Auth.Enabled {
		if err := s.SeedAdmin(ctx); err != nil {
			return err
		}
	}
	return s.SeedServiceTypes(ctx)
}

func (s *Seeder) SeedAdmin(ctx context.Context) error {
	email := strings.ToLower(s.Config.Auth.AdminEmail)

	count, err := s.Stores.Users.Count(ctx, store.Filter{"email": email})
	if err != nil {
		return fmt.Errorf("count admin: %w", err)
	}
	if count > 0 {
		s.Log.Info("admin already exists, seeding skipped", zap.String("email", email))
		return nil
	}

	hashedPassword, err := auth.HashPassword(s.Config.Auth.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := models.User{
		ID:       uuid.New().String(),
		Email:    email,
		Name:     "Admin",
		Password: hashedPassword,
		Role:     auth.RoleAdmin,
		Status:   "active",
	}
	if err := s.Stores.Users.Insert(ctx, admin.ID, &admin); err != nil {
		return fmt.Errorf("insert admin: %w", err)
	}

	s.Log.Info("admin seeded", zap.String("email", email))
	return nil
}

func (s *Seeder) SeedServiceTypes(ctx context.Context) error {
	count, err := s.Stores.ServiceTypes.Count(ctx, store.Filter{})
	if err != nil {
		return fmt.Errorf("count service types: %w", err)
	}
	if count > 0 {
		return nil
	}

	for _, name := range DefaultServiceTypes {
		st := models.ServiceType{ID: uuid.New().String(), Name: name, IsActive: true}
		if err := s.Stores.ServiceTypes.Insert(ctx, st.ID, &st); err != nil {
			return fmt.Errorf("insert service type %q: %w", name, err)
		}
	}
	s.Log.Info("service types seeded", zap.Int("count", len(DefaultServiceTypes)))
	return nil
}
