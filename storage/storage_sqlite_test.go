package storage

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:storage_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func startSQLite(t *testing.T) *Manager {
	t.Helper()
	m := NewManager()
	require.NoError(t, m.Start(openSQLite(t)))
	require.NoError(t, m.Build(context.Background()))
	return m
}

func bits(max, min float64) Bits { return Bits{Max: max, Min: min, Eps: 1e-10} }

func TestManager_ResolvesSQLite(t *testing.T) {
	m := startSQLite(t)
	assert.Equal(t, DialectSQLite, m.Dialect())
	require.NotNil(t, m.Driver())

	// second build is a no-op
	require.NoError(t, m.Build(context.Background()))
}

func TestManager_NilConn(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Start(nil))
	assert.Nil(t, m.Driver())
	assert.Equal(t, "", m.Dialect())
	assert.NoError(t, m.Build(context.Background()))
}

func TestRegistry_UnknownConn(t *testing.T) {
	err := NewManager().Start(42)
	assert.ErrorIs(t, err, ErrNoAdapter)
}

func TestAttributeRepo_FindOrCreate(t *testing.T) {
	ctx := context.Background()
	attrs := startSQLite(t).Driver().Attribute()

	a, created, err := attrs.FindOrCreate(ctx, "Novel → Chapter 1", bits(4.1, 1.5))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotZero(t, a.ID)
	assert.NotEmpty(t, a.UUID)

	b, created, err := attrs.FindOrCreate(ctx, "Novel → Chapter 1", bits(4.1+1e-12, 1.5))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, a.ID, b.ID)

	// same bits, different text is a different attribute
	c, created, err := attrs.FindOrCreate(ctx, "other", bits(4.1, 1.5))
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, a.ID, c.ID)

	matched, err := attrs.Match(ctx, bits(4.1, 1.5))
	require.NoError(t, err)
	assert.Len(t, matched, 2)

	byText, err := attrs.MatchText(ctx, "other")
	require.NoError(t, err)
	require.Len(t, byText, 1)
	assert.Equal(t, c.ID, byText[0].ID)

	n, err := attrs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAttributeRepo_Find(t *testing.T) {
	ctx := context.Background()
	attrs := startSQLite(t).Driver().Attribute()

	_, ok, err := attrs.Find(ctx, "Novel → Chapter 3", bits(4.1, 1.7))
	require.NoError(t, err)
	assert.False(t, ok)

	a, _, err := attrs.FindOrCreate(ctx, "Novel → Chapter 3", bits(4.1, 1.7))
	require.NoError(t, err)

	got, ok, err := attrs.Find(ctx, "Novel → Chapter 3", bits(4.1+1e-12, 1.7))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, a.ID, got.ID)

	// colliding bits under another path do not match
	_, ok, err = attrs.Find(ctx, "Novel → Chapter 4", bits(4.1, 1.7))
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := attrs.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecordRepo_Lifecycle(t *testing.T) {
	ctx := context.Background()
	d := startSQLite(t).Driver()
	attr, _, err := d.Attribute().FindOrCreate(ctx, "A → B", bits(1, 2))
	require.NoError(t, err)
	ids := []int64{attr.ID}
	recs := d.Record()

	first, err := recs.Create(ctx, RecordRow{AttributeID: attr.ID, Text: "one", BitMax: 3, BitMin: 4, CreatedMs: 1000})
	require.NoError(t, err)
	_, err = recs.Create(ctx, RecordRow{AttributeID: attr.ID, Text: "two", BitMax: 5, BitMin: 6, Metadata: `{"k":"v"}`, CreatedMs: 2000})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)

	ok, err := recs.Exists(ctx, ids, "one", bits(3, 4))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = recs.Exists(ctx, ids, "one!", bits(3, 4))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = recs.HasText(ctx, ids, "two")
	require.NoError(t, err)
	assert.True(t, ok)

	list, err := recs.List(ctx, ids, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "two", list[0].Text)
	assert.Equal(t, `{"k":"v"}`, list[0].Metadata)
	assert.Equal(t, int64(2000), list[0].Created().UnixMilli())

	limited, err := recs.List(ctx, ids, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	n, err := recs.DeleteMatching(ctx, ids, bits(3+1, 4))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	n, err = recs.DeleteMatching(ctx, ids, bits(3+1e-12, 4-1e-12))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	empty, err := d.Attribute().CountEmpty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, empty)

	n, err = recs.DeleteByAttribute(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	empty, err = d.Attribute().CountEmpty(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, empty)

	n, err = d.Attribute().Delete(ctx, ids)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecordRepo_EmptyIDs(t *testing.T) {
	ctx := context.Background()
	recs := startSQLite(t).Driver().Record()

	ok, err := recs.Exists(ctx, nil, "x", bits(0, 0))
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := recs.List(ctx, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, list)

	n, err := recs.DeleteMatching(ctx, nil, bits(0, 0))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRebind(t *testing.T) {
	q := "SELECT 1 WHERE a = ? AND b IN " + inList(2)
	assert.Equal(t, q, rebind(DialectSQLite, q))
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b IN ($2, $3)", rebind(DialectPostgres, q))
	assert.Equal(t, "(NULL)", inList(0))
}

func TestUnavailable(t *testing.T) {
	assert.Nil(t, Unavailable(nil))
	err := Unavailable(fmt.Errorf("dial tcp: refused"))
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Same(t, err, Unavailable(err))
}

func TestIsRetriable(t *testing.T) {
	assert.True(t, IsRetriable(fmt.Errorf("database is locked (5)")))
	assert.True(t, IsRetriable(fmt.Errorf("ERROR: restart transaction")))
	assert.False(t, IsRetriable(fmt.Errorf("syntax error")))
	assert.False(t, IsRetriable(nil))
}
