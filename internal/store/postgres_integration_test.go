//go:build integration

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agroland/agroland-sync/database"
)

func TestPostgresStore_Integration(t *testing.T) {
	t.Parallel()

	pool := database.SetupTestDB(t)
	s := NewPostgresStore(pool)
	ctx := context.Background()

	p := testProduct()

	outcome, err := s.UpsertProduct(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, outcome)

	p.Quantity = decimal.NewFromInt(7)
	outcome, err = s.UpsertProduct(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)

	// identical record: the store signals something other than inserted/updated
	outcome, err = s.UpsertProduct(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, OutcomeUntracked, outcome)

	noEAN := testProduct()
	noEAN.EAN = ""
	noEAN.Identity = "sup-77"
	outcome, err = s.UpsertProduct(ctx, noEAN)
	require.NoError(t, err)
	assert.Equal(t, OutcomeInserted, outcome)

	require.NoError(t, s.UpdateProductDescription(ctx, p.Identity, "<p>Opis</p>"))
	require.NoError(t, s.UpsertProductImage(ctx, p.Identity, "501.jpg", []byte{1, 2, 3}))
	require.NoError(t, s.UpsertProductImage(ctx, p.Identity, "501.jpg", []byte{4, 5}))

	assertRow(t, pool, p.Identity, "7", "147.6", "<p>Opis</p>")

	var ean *string
	require.NoError(t, pool.QueryRow(ctx, `SELECT ean FROM agroland_product WHERE identity = $1`, "sup-77").Scan(&ean))
	assert.Nil(t, ean)

	var data []byte
	var images int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT data, (SELECT count(*) FROM agroland_product_image WHERE identity = $1)
		   FROM agroland_product_image WHERE identity = $1 AND filename = $2`,
		p.Identity, "501.jpg").Scan(&data, &images))
	assert.Equal(t, []byte{4, 5}, data)
	assert.Equal(t, 1, images)

	// image for an unknown product violates the foreign key
	err = s.UpsertProductImage(ctx, "missing", "1.jpg", []byte{1})
	var persistErr *PersistenceError
	require.True(t, errors.As(err, &persistErr))
	assert.Equal(t, OpUpsertImage, persistErr.Op)
}

func assertRow(t *testing.T, pool *pgxpool.Pool, identity, wantQty, wantSaleGross, wantDescription string) {
	t.Helper()

	var qty, saleGross decimal.Decimal
	var description string
	err := pool.QueryRow(context.Background(),
		`SELECT quantity, sale_gross, description FROM agroland_product WHERE identity = $1`, identity,
	).Scan(&qty, &saleGross, &description)
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString(wantQty).Equal(qty), "quantity %s", qty)
	assert.True(t, decimal.RequireFromString(wantSaleGross).Equal(saleGross), "sale gross %s", saleGross)
	assert.Equal(t, wantDescription, description)
}

func TestConnect_DecimalCodec(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	pool, err := Connect(ctx, database.SetupTestDBContainer(t, ctx), PoolOptions{MaxConns: 2, MaxElapsed: 30 * time.Second})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	price := decimal.RequireFromString("1234567890.123456789")
	var echoed, sum decimal.Decimal
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT $1::numeric, 0.1::numeric + 0.2::numeric`, price,
	).Scan(&echoed, &sum))

	assert.True(t, price.Equal(echoed), "echoed %s", echoed)
	assert.True(t, decimal.RequireFromString("0.3").Equal(sum), "sum %s", sum)
}
