package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"mobileplanet/internal/auth"
	"mobileplanet/internal/docstore"
	"mobileplanet/internal/domain"
	"mobileplanet/internal/mq"
	"mobileplanet/internal/payment"
	"mobileplanet/internal/repos"
	"mobileplanet/internal/services"
)

var errStoreDown = errors.New("store unavailable")

// faultStore fails the next n calls of a given collection operation.
type faultStore struct {
	docstore.Store
	mu    sync.Mutex
	fails map[string]int
}

func (f *faultStore) failNext(coll, op string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails[coll+"."+op] = n
}

func (f *faultStore) check(coll, op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fails[coll+"."+op] > 0 {
		f.fails[coll+"."+op]--
		return errStoreDown
	}
	return nil
}

func (f *faultStore) Collection(name string) docstore.Collection {
	return &faultColl{Collection: f.Store.Collection(name), name: name, s: f}
}

type faultColl struct {
	docstore.Collection
	name string
	s    *faultStore
}

func (c *faultColl) Insert(ctx context.Context, doc any) error {
	if err := c.s.check(c.name, "Insert"); err != nil {
		return err
	}
	return c.Collection.Insert(ctx, doc)
}

func (c *faultColl) UpdateOne(ctx context.Context, f docstore.Filter, set docstore.Fields) (int64, error) {
	if err := c.s.check(c.name, "UpdateOne"); err != nil {
		return 0, err
	}
	return c.Collection.UpdateOne(ctx, f, set)
}

func (c *faultColl) UpdateMany(ctx context.Context, f docstore.Filter, set docstore.Fields) (int64, error) {
	if err := c.s.check(c.name, "UpdateMany"); err != nil {
		return 0, err
	}
	return c.Collection.UpdateMany(ctx, f, set)
}

func (c *faultColl) DeleteOne(ctx context.Context, f docstore.Filter) (int64, error) {
	if err := c.s.check(c.name, "DeleteOne"); err != nil {
		return 0, err
	}
	return c.Collection.DeleteOne(ctx, f)
}

type stubProcessor struct {
	mu    sync.Mutex
	calls []int64
	keys  []string
	err   error
}

func (p *stubProcessor) Name() string { return "stub" }

func (p *stubProcessor) CreateIntent(_ context.Context, amount int64, _ string, key string) (payment.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return payment.Intent{}, p.err
	}
	p.calls = append(p.calls, amount)
	p.keys = append(p.keys, key)
	return payment.Intent{ID: "pi_test", ClientSecret: "pi_test_secret"}, nil
}

const (
	adminEmail  = "admin@mp.io"
	sellerEmail = "seller@mp.io"
	buyerEmail  = "buyer@mp.io"
)

type fixture struct {
	store    *faultStore
	users    *services.UserService
	catalog  *services.CatalogService
	bookings *services.BookingService
	wish     *services.WishlistService
	settle   *services.SettlementService
	pub      *mq.Recorder
	proc     *stubProcessor

	seller *domain.User
	buyer  *domain.User
	admin  *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	base, err := docstore.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = base.Close() })
	require.NoError(t, repos.Seed(ctx, base, adminEmail))

	fs := &faultStore{Store: base, fails: map[string]int{}}
	userRepo := repos.NewUserRepo(fs)
	prodRepo := repos.NewProductRepo(fs)
	bookRepo := repos.NewBookingRepo(fs)
	wishRepo := repos.NewWishlistRepo(fs)
	pub := &mq.Recorder{}
	proc := &stubProcessor{}

	f := &fixture{
		store:    fs,
		users:    services.NewUserService(userRepo, prodRepo, auth.NewTokenService("test-secret", 0)),
		catalog:  services.NewCatalogService(repos.NewCategoryRepo(fs), prodRepo),
		bookings: services.NewBookingService(bookRepo, prodRepo, userRepo, pub),
		wish:     services.NewWishlistService(wishRepo),
		settle: &services.SettlementService{
			Bookings:    bookRepo,
			Prods:       prodRepo,
			Wish:        wishRepo,
			Payments:    repos.NewPaymentRepo(fs),
			Settlements: repos.NewSettlementRepo(fs),
			Processor:   proc,
			Pub:         pub,
			Currency:    "usd",
		},
		pub:  pub,
		proc: proc,
	}

	f.seller, _, err = f.users.Register(ctx, services.RegisterInput{Name: "Sam Seller", Email: sellerEmail, Role: domain.RoleSeller})
	require.NoError(t, err)
	f.buyer, _, err = f.users.Register(ctx, services.RegisterInput{Name: "Bea Buyer", Email: buyerEmail})
	require.NoError(t, err)
	f.admin, err = f.users.ByEmail(ctx, adminEmail)
	require.NoError(t, err)
	return f
}

// listedProduct creates a product for the fixture seller and approves it.
func (f *fixture) listedProduct(t *testing.T, price float64) *domain.Product {
	t.Helper()
	ctx := context.Background()
	p, err := f.catalog.CreateProduct(ctx, f.seller, services.ProductInput{
		Name: "Pixel 7", Category: "Google Pixel", ResellPrice: price, OriginalPrice: 599,
	})
	require.NoError(t, err)
	p, err = f.catalog.ToggleListing(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, p.DisplayListing)
	return p
}

func (f *fixture) booking(t *testing.T, p *domain.Product) *domain.Booking {
	t.Helper()
	b, err := f.bookings.Book(context.Background(), buyerEmail, services.BookingInput{
		ProductID: p.ID, Phone: "+1 555 0100", Location: "Dhaka",
	})
	require.NoError(t, err)
	return b
}
