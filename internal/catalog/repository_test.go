package catalog

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{"id", "title", "description", "price", "stock_quantity", "size_stock", "images", "image_url", "category", "is_preorder", "is_active", "created_at"}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestPostgresRepository_List(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("active only", func(t *testing.T) {
		mock := newMock(t)
		repo := NewPostgresRepository(mock)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE is_active ORDER BY created_at DESC`)).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow("p1", "T-shirt Signature Oslan Blanc", "", decimal.NewFromInt(45), 12,
					map[string]int{"M": 7, "L": 5}, []string{"a.jpg"}, "a.jpg", "Homme", false, true, now).
				AddRow("p2", "T-shirt Signature Oslan Noir", "coton", decimal.NewFromInt(45), 0,
					map[string]int{}, []string{}, "", "Femme", true, true, now))

		products, err := repo.List(ctx, true)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, CategoryHomme, products[0].Category)
		assert.Equal(t, 7, products[0].SizeStock["M"])
		assert.True(t, products[1].IsPreorder)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("all products", func(t *testing.T) {
		mock := newMock(t)
		repo := NewPostgresRepository(mock)

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC`)).
			WillReturnRows(pgxmock.NewRows(columns))

		products, err := repo.List(ctx, false)
		require.NoError(t, err)
		assert.NotNil(t, products)
		assert.Empty(t, products)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		mock := newMock(t)
		repo := NewPostgresRepository(mock)

		mock.ExpectQuery(`FROM products`).WillReturnError(errors.New("connection refused"))

		_, err := repo.List(ctx, false)
		require.Error(t, err)
	})
}

func TestPostgresRepository_Get(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE id=$1`)).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := NewPostgresRepository(mock)
	now := time.Now().UTC()

	p := &Product{
		Title:     "Hoodie",
		Price:     decimal.RequireFromString("69.90"),
		SizeStock: map[string]int{"S": 2, "M": 3},
		Images:    []string{"h1.jpg", "h2.jpg"},
		Category:  CategoryFemme,
		IsActive:  true,
	}
	require.NoError(t, p.Prepare())

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO products`)).
		WithArgs("Hoodie", "", p.Price, 5, p.SizeStock, p.Images, "h1.jpg", "Femme", false, true).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow("new-id", now))

	require.NoError(t, repo.Create(ctx, p))
	assert.Equal(t, "new-id", p.ID)
	assert.Equal(t, now, p.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_MutationsNotFound(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE products SET is_active=$2 WHERE id=$1`)).
		WithArgs("p9", false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM products WHERE id=$1`)).
		WithArgs("p9").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE products`)).
		WithArgs("p9", "x", "", pgxmock.AnyArg(), 0, pgxmock.AnyArg(), pgxmock.AnyArg(), "", "", false, false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	assert.ErrorIs(t, repo.SetActive(ctx, "p9", false), ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "p9"), ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, Product{ID: "p9", Title: "x"}), ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_Stock(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT stock_quantity FROM products WHERE id=$1`)).
		WithArgs("p1").
		WillReturnRows(pgxmock.NewRows([]string{"stock_quantity"}).AddRow(3))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE products SET stock_quantity=$2 WHERE id=$1`)).
		WithArgs("p1", 0).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	qty, err := repo.Stock(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, qty)

	require.NoError(t, repo.UpdateStock(ctx, "p1", -2))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_PermissionDenied(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	rls := &pgconn.PgError{Code: "42501", Message: "permission denied for table products"}
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM products WHERE id=$1`)).
		WithArgs("p1").
		WillReturnError(rls)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE products SET is_active=$2 WHERE id=$1`)).
		WithArgs("p1", true).
		WillReturnError(errors.New("conn reset"))

	err := repo.Delete(ctx, "p1")
	require.ErrorIs(t, err, ErrPermissionDenied)
	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)

	err = repo.SetActive(ctx, "p1", true)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPermissionDenied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepository_MalformedIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	mock := newMock(t)
	repo := NewPostgresRepository(mock)

	badUUID := &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "nope"`}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM products WHERE id=$1`)).
		WithArgs("nope").
		WillReturnError(badUUID)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE products SET is_active=$2 WHERE id=$1`)).
		WithArgs("nope", false).
		WillReturnError(badUUID)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT stock_quantity FROM products WHERE id=$1`)).
		WithArgs("nope").
		WillReturnError(badUUID)

	_, err := repo.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.SetActive(ctx, "nope", false), ErrNotFound)
	_, err = repo.Stock(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
