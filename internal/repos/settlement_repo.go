package repos

import (
	"context"
	"time"

	"mobileplanet/internal/docstore"
	"mobileplanet/internal/domain"
)

type SettlementRepo struct{ c docstore.Collection }

func NewSettlementRepo(s docstore.Store) *SettlementRepo {
	return &SettlementRepo{c: s.Collection(SettlementsColl)}
}

// Insert returns docstore.ErrDuplicate when the idempotency key is already in use.
func (r *SettlementRepo) Insert(ctx context.Context, st *domain.Settlement) error {
	return r.c.Insert(ctx, st)
}

func (r *SettlementRepo) Get(ctx context.Context, id string) (*domain.Settlement, error) {
	return one[domain.Settlement](ctx, r.c, docstore.ByID(id))
}

// List returns settlements newest first; an empty state returns all of them.
func (r *SettlementRepo) List(ctx context.Context, state domain.SettlementState) ([]domain.Settlement, error) {
	var f docstore.Filter
	if state != "" {
		f = docstore.Where(docstore.Eq("state", string(state)))
	}
	return list[domain.Settlement](ctx, r.c, f)
}

// Claim moves a settlement from state to pending and bumps attempts. It only succeeds for the
// caller that saw the current attempts value, so two resumers cannot run the same settlement.
func (r *SettlementRepo) Claim(ctx context.Context, id string, state domain.SettlementState, attempts int) (int64, error) {
	return r.c.UpdateOne(ctx,
		docstore.Where(
			docstore.Eq("_id", id),
			docstore.Eq("state", string(state)),
			docstore.Eq("attempts", attempts)),
		docstore.Fields{
			"state":     string(domain.SettlementPending),
			"attempts":  attempts + 1,
			"updatedAt": time.Now().UTC(),
		})
}

func (r *SettlementRepo) Advance(ctx context.Context, id string, step domain.SettlementStep) error {
	_, err := r.c.UpdateOne(ctx, docstore.ByID(id), docstore.Fields{
		"step":      string(step),
		"updatedAt": time.Now().UTC(),
	})
	return err
}

// Finish records a terminal or failed state together with the last error message.
func (r *SettlementRepo) Finish(ctx context.Context, id string, state domain.SettlementState, msg string) error {
	_, err := r.c.UpdateOne(ctx, docstore.ByID(id), docstore.Fields{
		"state":     string(state),
		"error":     msg,
		"updatedAt": time.Now().UTC(),
	})
	return err
}

// Reject closes a settlement for good, keeping the error code later replays answer with.
func (r *SettlementRepo) Reject(ctx context.Context, id, code, msg string) error {
	_, err := r.c.UpdateOne(ctx, docstore.ByID(id), docstore.Fields{
		"state":     string(domain.SettlementRejected),
		"reason":    code,
		"error":     msg,
		"updatedAt": time.Now().UTC(),
	})
	return err
}
