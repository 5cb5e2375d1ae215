package repos

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"mobileplanet/internal/config"
	"mobileplanet/internal/docstore"
	"mobileplanet/internal/domain"
)

// OpenDB opens the configured document store, ensures its indexes and seeds baseline data.
func OpenDB(ctx context.Context, cfg config.Config) (docstore.Store, error) {
	var (
		s   docstore.Store
		err error
	)
	switch cfg.StoreDriver {
	case config.DriverMongo:
		s, err = docstore.OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	default:
		s, err = docstore.OpenSQLite(cfg.DBDSN)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open %s store", cfg.StoreDriver)
	}
	if err := Seed(ctx, s, cfg.AdminEmail); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

var defaultCategories = []string{"iPhone", "Samsung", "Google Pixel"}

// Seed is idempotent and safe to run on every start.
func Seed(ctx context.Context, s docstore.Store, adminEmail string) error {
	if err := s.EnsureUnique(ctx, UsersColl, "email"); err != nil {
		return errors.Wrap(err, "users.email index")
	}
	if err := s.EnsureUnique(ctx, CategoriesColl, "name"); err != nil {
		return errors.Wrap(err, "categories.name index")
	}
	if err := seedCategories(ctx, NewCategoryRepo(s)); err != nil {
		return err
	}
	if adminEmail != "" {
		return seedAdmin(ctx, NewUserRepo(s), adminEmail)
	}
	return nil
}

func seedCategories(ctx context.Context, cats *CategoryRepo) error {
	n, err := cats.Count(ctx)
	if err != nil {
		return errors.Wrap(err, "count categories")
	}
	if n > 0 {
		return nil
	}
	log.Println("[seed] inserting default categories")
	for _, name := range defaultCategories {
		err := cats.Create(ctx, &domain.Category{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()})
		if err != nil && !errors.Is(err, docstore.ErrDuplicate) {
			return errors.Wrapf(err, "seed category %s", name)
		}
	}
	return nil
}

// seedAdmin makes sure the bootstrap admin exists and holds the admin role.
func seedAdmin(ctx context.Context, users *UserRepo, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := users.ByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Role == domain.RoleAdmin {
			return nil
		}
		log.Printf("[seed] promoting %s to admin", email)
		_, err = users.SetRole(ctx, u.ID, domain.RoleAdmin)
		return errors.Wrap(err, "promote admin")
	case errors.Is(err, docstore.ErrNotFound):
		log.Printf("[seed] creating admin %s", email)
		err = users.Create(ctx, &domain.User{
			ID:        uuid.NewString(),
			Name:      "Admin",
			Email:     email,
			Role:      domain.RoleAdmin,
			Verified:  true,
			CreatedAt: time.Now().UTC(),
		})
		if errors.Is(err, docstore.ErrDuplicate) {
			return nil
		}
		return errors.Wrap(err, "create admin")
	default:
		return errors.Wrap(err, "lookup admin")
	}
}
