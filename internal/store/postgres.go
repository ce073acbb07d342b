package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	upsertProductSQL = `SELECT agroland_upsert_product(
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	updateDescriptionSQL = `SELECT agroland_update_product_description($1, $2)`
	upsertImageSQL       = `SELECT agroland_upsert_product_image($1, $2, $3)`
)

// DBTX is the subset of pgx used by PostgresStore. *pgxpool.Pool, *pgx.Conn and
// pgx.Tx all satisfy it.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements ProductStore on top of the shop database's stored functions
type PostgresStore struct {
	db DBTX
}

var _ ProductStore = (*PostgresStore)(nil)

// NewPostgresStore creates a store writing through db
func NewPostgresStore(db DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// UpsertProduct implements ProductStore
func (s *PostgresStore) UpsertProduct(ctx context.Context, p Product) (Outcome, error) {
	var result string
	err := s.db.QueryRow(ctx, upsertProductSQL,
		p.Identity,
		p.Name,
		p.Quantity,
		nullable(p.EAN),
		p.PurchaseNet,
		p.PurchaseGross,
		p.SaleNet,
		p.SaleGross,
		p.VATPurchase,
		p.VATSale,
		nullable(p.EAN), // barcode
		p.Weight,
		p.Brand,
		p.SupplierID,
		p.SourceTag,
		p.Unit,
	).Scan(&result)
	if err != nil {
		return "", &PersistenceError{Op: OpUpsertProduct, Identity: p.Identity, Err: err}
	}
	return ParseOutcome(result), nil
}

// UpdateProductDescription implements ProductStore
func (s *PostgresStore) UpdateProductDescription(ctx context.Context, identity, html string) error {
	if _, err := s.db.Exec(ctx, updateDescriptionSQL, identity, html); err != nil {
		return &PersistenceError{Op: OpUpdateDescription, Identity: identity, Err: err}
	}
	return nil
}

// UpsertProductImage implements ProductStore
func (s *PostgresStore) UpsertProductImage(ctx context.Context, identity, filename string, data []byte) error {
	if _, err := s.db.Exec(ctx, upsertImageSQL, identity, filename, data); err != nil {
		return &PersistenceError{Op: OpUpsertImage, Identity: identity, Err: err}
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
