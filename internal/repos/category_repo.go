package repos

import (
	"context"

	"mobileplanet/internal/docstore"
	"mobileplanet/internal/domain"
)

type CategoryRepo struct{ c docstore.Collection }

func NewCategoryRepo(s docstore.Store) *CategoryRepo {
	return &CategoryRepo{c: s.Collection(CategoriesColl)}
}

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	return list[domain.Category](ctx, r.c, nil)
}

func (r *CategoryRepo) ByName(ctx context.Context, name string) (*domain.Category, error) {
	return one[domain.Category](ctx, r.c, docstore.Where(docstore.Eq("name", name)))
}

func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	return r.c.Insert(ctx, c)
}

func (r *CategoryRepo) Delete(ctx context.Context, id string) (int64, error) {
	return r.c.DeleteOne(ctx, docstore.ByID(id))
}

func (r *CategoryRepo) Count(ctx context.Context) (int64, error) {
	return r.c.Count(ctx, nil)
}
