package repos

import (
	"context"

	"mobileplanet/internal/docstore"
	"mobileplanet/internal/domain"
)

type UserRepo struct{ c docstore.Collection }

func NewUserRepo(s docstore.Store) *UserRepo { return &UserRepo{c: s.Collection(UsersColl)} }

// ByEmail expects the canonical (lower-cased) email.
func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	return one[domain.User](ctx, r.c, docstore.Where(docstore.Eq("email", email)))
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	return one[domain.User](ctx, r.c, docstore.ByID(id))
}

// Create fails with docstore.ErrDuplicate when the email is taken.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	return r.c.Insert(ctx, u)
}

// ListNonAdmin returns every user whose role is not admin, optionally narrowed to one role.
func (r *UserRepo) ListNonAdmin(ctx context.Context, role string) ([]domain.User, error) {
	f := docstore.Where(docstore.Ne("role", domain.RoleAdmin))
	if role != "" {
		f = append(f, docstore.Eq("role", role))
	}
	return list[domain.User](ctx, r.c, f)
}

// SetVerified flips verified from cur to !cur; 0 means someone else got there first.
func (r *UserRepo) SetVerified(ctx context.Context, id string, cur bool) (int64, error) {
	return r.c.UpdateOne(ctx,
		docstore.Where(docstore.Eq("_id", id), docstore.Eq("verified", cur)),
		docstore.Fields{"verified": !cur})
}

func (r *UserRepo) SetRole(ctx context.Context, id, role string) (int64, error) {
	return r.c.UpdateOne(ctx, docstore.ByID(id), docstore.Fields{"role": role})
}

func (r *UserRepo) Delete(ctx context.Context, id string) (int64, error) {
	return r.c.DeleteOne(ctx, docstore.ByID(id))
}
