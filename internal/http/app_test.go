package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"mobileplanet/internal/auth"
	"mobileplanet/internal/config"
	"mobileplanet/internal/docstore"
	"mobileplanet/internal/http/handlers"
	"mobileplanet/internal/mq"
	"mobileplanet/internal/payment"
	"mobileplanet/internal/repos"
)

const (
	adminEmail  = "admin@mp.io"
	sellerEmail = "seller@mp.io"
	buyerEmail  = "buyer@mp.io"
	testSecret  = "test-secret"
)

type stubProcessor struct {
	mu   sync.Mutex
	keys []string
}

func (p *stubProcessor) Name() string { return "stub" }

func (p *stubProcessor) CreateIntent(_ context.Context, amount int64, _ string, key string) (payment.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return payment.Intent{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil
}

type testEnv struct {
	app    *fiber.App
	deps   *handlers.Deps
	store  *docstore.SQLiteStore
	tokens *auth.TokenService
	proc   *stubProcessor
	pub    *mq.Recorder
}

func testConfig() config.Config {
	return config.Config{
		AdminEmail:      adminEmail,
		PaymentCurrency: "usd",
		CORSOrigins:     "*",
		BodyLimit:       64 << 10,
		RateLimit:       1000,
		RateWindow:      time.Minute,
		TokenRateLimit:  1000,
		TokenTTL:        time.Hour,
	}
}

// newTestApp wires the real app against an in-memory store, a stub processor and an event recorder.
func newTestApp(t *testing.T, tweaks ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testConfig()
	for _, tw := range tweaks {
		tw(&cfg)
	}
	store, err := docstore.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, repos.Seed(context.Background(), store, cfg.AdminEmail))

	env := &testEnv{
		store:  store,
		tokens: auth.NewTokenService(testSecret, cfg.TokenTTL),
		proc:   &stubProcessor{},
		pub:    &mq.Recorder{},
	}
	env.deps = handlers.NewDeps(store, cfg, env.tokens, env.proc, env.pub)
	env.app = handlers.NewApp(cfg, env.deps, io.Discard)
	return env
}

func (e *testEnv) token(t *testing.T, email string) string {
	t.Helper()
	tok, err := e.tokens.Issue(email)
	require.NoError(t, err)
	return tok
}

type reqOpt func(*http.Request)

func withHeader(k, v string) reqOpt {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

// do sends a JSON request. body may be nil, a string (sent raw) or any value to encode.
func (e *testEnv) do(t *testing.T, method, path, token string, body any, opts ...reqOpt) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if rd != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, o := range opts {
		o(req)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, out
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), "body: %s", raw)
	return v
}

type errBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func requireError(t *testing.T, resp *http.Response, raw []byte, status int, code string) {
	t.Helper()
	require.Equal(t, status, resp.StatusCode, "body: %s", raw)
	require.Equal(t, code, decode[errBody](t, raw).Code)
}

// register creates a user through the API and returns a token for it.
func (e *testEnv) register(t *testing.T, name, email, role string) string {
	t.Helper()
	resp, raw := e.do(t, http.MethodPost, "/users", "", map[string]string{"name": name, "email": email, "role": role})
	require.Contains(t, []int{http.StatusCreated, http.StatusOK}, resp.StatusCode, "body: %s", raw)
	return e.token(t, email)
}

type product struct {
	ID             string  `json:"_id"`
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	ResellPrice    float64 `json:"resellPrice"`
	SellerEmail    string  `json:"sellerEmail"`
	DisplayListing bool    `json:"displayListing"`
	VerifiedSeller bool    `json:"verifiedSeller"`
	Advertise      any     `json:"advertise"`
}

// listProduct has the seller create a product and the admin list it.
func (e *testEnv) listProduct(t *testing.T, sellerTok, name string, price float64) product {
	t.Helper()
	p := e.createProduct(t, sellerTok, name, price)
	resp, raw := e.do(t, http.MethodPut, "/product/"+p.ID, e.token(t, adminEmail), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", raw)
	listed := decode[product](t, raw)
	require.True(t, listed.DisplayListing)
	return listed
}

func (e *testEnv) createProduct(t *testing.T, sellerTok, name string, price float64) product {
	t.Helper()
	resp, raw := e.do(t, http.MethodPost, "/product", sellerTok, map[string]any{
		"name":          name,
		"category":      "Google Pixel",
		"resellPrice":   price,
		"originalPrice": price * 2,
		"condition":     "good",
		"location":      "Dhaka",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, "body: %s", raw)
	return decode[product](t, raw)
}
