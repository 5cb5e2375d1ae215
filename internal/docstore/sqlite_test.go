package docstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mobileplanet/internal/docstore"
)

type gadget struct {
	ID      string  `json:"_id"`
	Owner   string  `json:"owner"`
	Price   float64 `json:"price"`
	Listed  bool    `json:"listed"`
	Tagline string  `json:"tagline,omitempty"`
}

func memstore(t *testing.T) *docstore.SQLiteStore {
	t.Helper()
	s, err := docstore.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedGadgets(t *testing.T, c docstore.Collection) {
	t.Helper()
	ctx := context.Background()
	for _, g := range []gadget{
		{ID: "g1", Owner: "a@x.io", Price: 10, Listed: true},
		{ID: "g2", Owner: "a@x.io", Price: 20, Listed: false},
		{ID: "g3", Owner: "b@x.io", Price: 30, Listed: true},
	} {
		require.NoError(t, c.Insert(ctx, g))
	}
}

func TestFindFiltersByTypedValuesNewestFirst(t *testing.T) {
	ctx := context.Background()
	c := memstore(t).Collection("gadgets")
	seedGadgets(t, c)

	var listed []gadget
	require.NoError(t, c.Find(ctx, docstore.Where(docstore.Eq("listed", true)), &listed))
	require.Len(t, listed, 2)
	assert.Equal(t, "g3", listed[0].ID)
	assert.Equal(t, "g1", listed[1].ID)

	var mine []gadget
	require.NoError(t, c.Find(ctx, docstore.Where(docstore.Eq("owner", "a@x.io"), docstore.Eq("listed", false)), &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, "g2", mine[0].ID)

	var notA []gadget
	require.NoError(t, c.Find(ctx, docstore.Where(docstore.Ne("owner", "a@x.io")), &notA))
	require.Len(t, notA, 1)
	assert.Equal(t, "g3", notA[0].ID)

	var priced []gadget
	require.NoError(t, c.Find(ctx, docstore.Where(docstore.Eq("price", 20)), &priced))
	require.Len(t, priced, 1)

	var none []gadget
	require.NoError(t, c.Find(ctx, docstore.Where(docstore.Eq("owner", "nobody")), &none))
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestNeMatchesMissingField(t *testing.T) {
	ctx := context.Background()
	c := memstore(t).Collection("gadgets")
	seedGadgets(t, c)

	n, err := c.Count(ctx, docstore.Where(docstore.Ne("tagline", "x")))
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestCollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	s := memstore(t)
	seedGadgets(t, s.Collection("gadgets"))

	n, err := s.Collection("widgets").Count(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	// same _id in another collection is fine
	require.NoError(t, s.Collection("widgets").Insert(ctx, gadget{ID: "g1"}))
}

func TestFindOneAndNotFound(t *testing.T) {
	ctx := context.Background()
	c := memstore(t).Collection("gadgets")
	seedGadgets(t, c)

	var g gadget
	require.NoError(t, c.FindOne(ctx, docstore.ByID("g2"), &g))
	assert.Equal(t, 20.0, g.Price)

	err := c.FindOne(ctx, docstore.ByID("missing"), &g)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestInsertDuplicateAndMissingID(t *testing.T) {
	ctx := context.Background()
	c := memstore(t).Collection("gadgets")
	seedGadgets(t, c)

	err := c.Insert(ctx, gadget{ID: "g1"})
	assert.ErrorIs(t, err, docstore.ErrDuplicate)

	err = c.Insert(ctx, gadget{})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, docstore.ErrDuplicate)
}

func TestUpdateOneIsConditional(t *testing.T) {
	ctx := context.Background()
	c := memstore(t).Collection("gadgets")
	seedGadgets(t, c)

	n, err := c.UpdateOne(ctx, docstore.Where(docstore.Eq("_id", "g2"), docstore.Eq("listed", false)),
		docstore.Fields{"listed": true, "tagline": "fresh"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// second attempt no longer matches
	n, err = c.UpdateOne(ctx, docstore.Where(docstore.Eq("_id", "g2"), docstore.Eq("listed", false)),
		docstore.Fields{"listed": true})
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	var g gadget
	require.NoError(t, c.FindOne(ctx, docstore.ByID("g2"), &g))
	assert.True(t, g.Listed)
	assert.Equal(t, "fresh", g.Tagline)
	assert.Equal(t, "a@x.io", g.Owner)
}

func TestUpdateManyDeleteOneCount(t *testing.T) {
	ctx := context.Background()
	c := memstore(t).Collection("gadgets")
	seedGadgets(t, c)

	n, err := c.UpdateMany(ctx, docstore.Where(docstore.Eq("owner", "a@x.io")), docstore.Fields{"listed": false})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	listed, err := c.Count(ctx, docstore.Where(docstore.Eq("listed", true)))
	require.NoError(t, err)
	assert.EqualValues(t, 1, listed)

	n, err = c.DeleteOne(ctx, docstore.Where(docstore.Eq("owner", "a@x.io")))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	total, err := c.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestEnsureUnique(t *testing.T) {
	ctx := context.Background()
	s := memstore(t)
	require.NoError(t, s.EnsureUnique(ctx, "gadgets", "owner"))
	require.NoError(t, s.EnsureUnique(ctx, "gadgets", "owner"))

	c := s.Collection("gadgets")
	require.NoError(t, c.Insert(ctx, gadget{ID: "g1", Owner: "a@x.io"}))
	err := c.Insert(ctx, gadget{ID: "g2", Owner: "a@x.io"})
	assert.ErrorIs(t, err, docstore.ErrDuplicate)

	// uniqueness is scoped to the collection
	require.NoError(t, s.Collection("others").Insert(ctx, gadget{ID: "g2", Owner: "a@x.io"}))

	assert.Error(t, s.EnsureUnique(ctx, "gadgets", "owner'); DROP TABLE documents; --"))
}

func TestRejectsBadFieldNames(t *testing.T) {
	ctx := context.Background()
	c := memstore(t).Collection("gadgets")

	var out []gadget
	assert.Error(t, c.Find(ctx, docstore.Where(docstore.Eq("a.b", 1)), &out))
	_, err := c.UpdateOne(ctx, docstore.ByID("g1"), docstore.Fields{"_id": "other"})
	assert.Error(t, err)
	_, err = c.UpdateOne(ctx, docstore.ByID("g1"), docstore.Fields{})
	assert.Error(t, err)
}
