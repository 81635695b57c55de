package kv

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Get(ctx, "cart")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "cart", "[]"))
	v, ok, err := m.Get(ctx, "cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)

	require.NoError(t, m.Delete(ctx, "cart"))
	_, ok, _ = m.Get(ctx, "cart")
	assert.False(t, ok)
}

func TestMemoryProvider_IsolatesSessions(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryProvider()

	require.NoError(t, p.ForSession("a").Set(ctx, "cartItems", "3"))

	_, ok, _ := p.ForSession("b").Get(ctx, "cartItems")
	assert.False(t, ok)

	v, ok, _ := p.ForSession("a").Get(ctx, "cartItems")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
}

func TestPostgresStorage_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresProvider(db).ForSession("sess-1")
	query := regexp.QuoteMeta(`SELECT value FROM session_kv WHERE session_id = $1 AND key = $2`)

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(query).
			WithArgs("sess-1", "cart").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`[{"productId":"p1","size":"M","quantity":1}]`))

		v, ok, err := store.Get(context.Background(), "cart")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Contains(t, v, "p1")
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("sess-1", "cart").WillReturnError(sql.ErrNoRows)

		_, ok, err := store.Get(context.Background(), "cart")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("error", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("sess-1", "cart").WillReturnError(errors.New("conn reset"))

		_, _, err := store.Get(context.Background(), "cart")
		require.Error(t, err)
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_SetDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresProvider(db).ForSession("sess-1")

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO session_kv (session_id, key, value, updated_at)`)).
		WithArgs("sess-1", "cartItems", "2").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM session_kv WHERE session_id = $1 AND key = $2`)).
		WithArgs("sess-1", "cartItems").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Set(context.Background(), "cartItems", "2"))
	require.NoError(t, store.Delete(context.Background(), "cartItems"))
	require.NoError(t, mock.ExpectationsWereMet())
}
