package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mobileplanet/internal/docstore"
	"mobileplanet/internal/domain"
	"mobileplanet/internal/repos"
)

func openSeeded(t *testing.T, admin string) docstore.Store {
	t.Helper()
	s, err := docstore.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, repos.Seed(context.Background(), s, admin))
	return s
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openSeeded(t, "Root@Example.com")
	require.NoError(t, repos.Seed(ctx, s, "root@example.com"))

	cats, err := repos.NewCategoryRepo(s).List(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 3)

	u, err := repos.NewUserRepo(s).ByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
}

func TestSeedPromotesExistingAdminEmail(t *testing.T) {
	ctx := context.Background()
	s := openSeeded(t, "")
	users := repos.NewUserRepo(s)
	require.NoError(t, users.Create(ctx, &domain.User{ID: uuid.NewString(), Email: "ops@x.io", Role: domain.RoleBuyer}))

	require.NoError(t, repos.Seed(ctx, s, "ops@x.io"))
	u, err := users.ByEmail(ctx, "ops@x.io")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, u.Role)
}

func TestUserEmailIsUnique(t *testing.T) {
	ctx := context.Background()
	users := repos.NewUserRepo(openSeeded(t, ""))
	require.NoError(t, users.Create(ctx, &domain.User{ID: uuid.NewString(), Email: "a@x.io", Role: domain.RoleBuyer}))
	err := users.Create(ctx, &domain.User{ID: uuid.NewString(), Email: "a@x.io", Role: domain.RoleSeller})
	assert.ErrorIs(t, err, docstore.ErrDuplicate)
}

func TestListNonAdmin(t *testing.T) {
	ctx := context.Background()
	users := repos.NewUserRepo(openSeeded(t, "boss@x.io"))
	for _, u := range []domain.User{
		{ID: "u1", Email: "b@x.io", Role: domain.RoleBuyer},
		{ID: "u2", Email: "s@x.io", Role: domain.RoleSeller},
	} {
		u := u
		require.NoError(t, users.Create(ctx, &u))
	}

	all, err := users.ListNonAdmin(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "u2", all[0].ID)

	sellers, err := users.ListNonAdmin(ctx, domain.RoleSeller)
	require.NoError(t, err)
	require.Len(t, sellers, 1)

	admins, err := users.ListNonAdmin(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	assert.Empty(t, admins)
	assert.NotNil(t, admins)
}

func TestListedProductQueries(t *testing.T) {
	ctx := context.Background()
	prods := repos.NewProductRepo(openSeeded(t, ""))
	require.NoError(t, prods.Create(ctx, &domain.Product{ID: "p1", Category: "iPhone", DisplayListing: true, Advertise: domain.AdvertiseActive}))
	require.NoError(t, prods.Create(ctx, &domain.Product{ID: "p2", Category: "iPhone", DisplayListing: false, Advertise: domain.AdvertiseActive}))
	require.NoError(t, prods.Create(ctx, &domain.Product{ID: "p3", Category: "iPhone", DisplayListing: true, Advertise: domain.AdvertisePending}))

	byCat, err := prods.ListByCategory(ctx, "iPhone")
	require.NoError(t, err)
	assert.Len(t, byCat, 2)

	ads, err := prods.ListAdvertised(ctx)
	require.NoError(t, err)
	require.Len(t, ads, 1)
	assert.Equal(t, "p1", ads[0].ID)

	_, err = prods.GetListed(ctx, "p2")
	assert.ErrorIs(t, err, docstore.ErrNotFound)

	n, err := prods.SetAdvertise(ctx, "p3", domain.AdvertisePending, domain.AdvertiseActive)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	p, err := prods.Get(ctx, "p3")
	require.NoError(t, err)
	assert.Equal(t, domain.AdvertiseActive, p.Advertise)
}

func TestBookingMarkPaidOnce(t *testing.T) {
	ctx := context.Background()
	bookings := repos.NewBookingRepo(openSeeded(t, ""))
	require.NoError(t, bookings.Create(ctx, &domain.Booking{ID: "b1", BuyerEmail: "b@x.io", ProductID: "p1", CreatedAt: time.Now()}))

	n, err := bookings.MarkPaid(ctx, "b1", "k1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = bookings.MarkPaid(ctx, "b1", "k2")
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	b, err := bookings.Get(ctx, "b1")
	require.NoError(t, err)
	assert.True(t, b.Paid)
	assert.Equal(t, "k1", b.SettlementID)
}

func TestSettlementClaimIsExclusive(t *testing.T) {
	ctx := context.Background()
	sts := repos.NewSettlementRepo(openSeeded(t, ""))
	require.NoError(t, sts.Insert(ctx, &domain.Settlement{ID: "k1", State: domain.SettlementFailed, Attempts: 1}))

	n, err := sts.Claim(ctx, "k1", domain.SettlementFailed, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = sts.Claim(ctx, "k1", domain.SettlementFailed, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	st, err := sts.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, domain.SettlementPending, st.State)
	assert.Equal(t, 2, st.Attempts)

	failed, err := sts.List(ctx, domain.SettlementFailed)
	require.NoError(t, err)
	assert.Empty(t, failed)
}
