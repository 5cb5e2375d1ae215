package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlistToggleFlipsBack(t *testing.T) {
	env := newTestApp(t)
	buyer := env.register(t, "Bea Buyer", buyerEmail, "buyer")
	other := env.register(t, "Olly Other", "other@mp.io", "buyer")
	path := "/addToWishlistProduct?id=prod-1&name=Pixel%207&img=https://img.example/p7.png&price=300"

	resp, raw := env.do(t, http.MethodGet, "/wishlistProduct?id=prod-1", buyer, nil)
	requireError(t, resp, raw, http.StatusNotFound, "NOT_FOUND")

	resp, raw = env.do(t, http.MethodPut, path, buyer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", raw)
	assert.True(t, decode[wishEntry](t, raw).Wishlist)

	resp, raw = env.do(t, http.MethodGet, "/wishlistedProducts", buyer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]wishEntry](t, raw), 1)

	// entries are per caller
	resp, raw = env.do(t, http.MethodGet, "/wishlistedProducts", other, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(raw))

	resp, raw = env.do(t, http.MethodPut, path, buyer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", raw)
	assert.False(t, decode[wishEntry](t, raw).Wishlist)

	resp, raw = env.do(t, http.MethodGet, "/wishlistedProducts", buyer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(raw))

	// the entry itself survives the toggle
	resp, raw = env.do(t, http.MethodGet, "/wishlistProduct?id=prod-1", buyer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, decode[wishEntry](t, raw).Wishlist)
}

func TestWishlistRemove(t *testing.T) {
	env := newTestApp(t)
	buyer := env.register(t, "Bea Buyer", buyerEmail, "buyer")

	resp, raw := env.do(t, http.MethodGet, "/removeWishlistProduct/prod-1", buyer, nil)
	requireError(t, resp, raw, http.StatusNotFound, "NOT_FOUND")

	resp, _ = env.do(t, http.MethodPut, "/addToWishlistProduct?id=prod-1&price=10", buyer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, raw = env.do(t, http.MethodGet, "/removeWishlistProduct/prod-1", buyer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, "body: %s", raw)

	resp, raw = env.do(t, http.MethodGet, "/wishlistedProducts", buyer, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(raw))
}
