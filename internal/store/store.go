// Package store is the persistence boundary of the sync pipeline. Products are
// written through three stored functions owned by the shop database; the
// pipeline never reads products back.
package store

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Outcome is what the store reports after upserting a product's core record
type Outcome string

const (
	// OutcomeInserted means the product did not exist and was created
	OutcomeInserted Outcome = "inserted"
	// OutcomeUpdated means an existing product was changed
	OutcomeUpdated Outcome = "updated"
	// OutcomeUntracked is any other signal; the write still happened but is not counted
	OutcomeUntracked Outcome = "other"
)

// ParseOutcome maps the store's textual result onto an Outcome
func ParseOutcome(s string) Outcome {
	switch Outcome(s) {
	case OutcomeInserted:
		return OutcomeInserted
	case OutcomeUpdated:
		return OutcomeUpdated
	default:
		return OutcomeUntracked
	}
}

// Product is the core record written for one feed product
type Product struct {
	// Identity is the reconciliation key: EAN, or the supplier id when EAN is absent
	Identity string
	Name     string
	Quantity decimal.Decimal
	// EAN is empty when the feed carries none; it is then written as NULL
	EAN           string
	PurchaseNet   decimal.Decimal
	PurchaseGross decimal.Decimal
	SaleNet       decimal.Decimal
	SaleGross     decimal.Decimal
	VATPurchase   decimal.Decimal
	VATSale       decimal.Decimal
	Weight        decimal.Decimal
	Brand         string
	SupplierID    string
	SourceTag     string
	Unit          string
}

// ProductStore writes products, descriptions and images
//
//go:generate mockgen -destination=mocks/mock_store.go -package=mocks -source=store.go ProductStore
type ProductStore interface {
	// UpsertProduct creates or updates the core record and reports which happened
	UpsertProduct(ctx context.Context, p Product) (Outcome, error)
	// UpdateProductDescription replaces the HTML description
	UpdateProductDescription(ctx context.Context, identity, html string) error
	// UpsertProductImage stores one image under identity and filename
	UpsertProductImage(ctx context.Context, identity, filename string, data []byte) error
}

// Operation names carried by PersistenceError
const (
	OpUpsertProduct     = "UpsertProduct"
	OpUpdateDescription = "UpdateProductDescription"
	OpUpsertImage       = "UpsertProductImage"
)

// PersistenceError reports a failed write operation
type PersistenceError struct {
	Op       string
	Identity string
	Err      error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed for product %s: %v", e.Op, e.Identity, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
