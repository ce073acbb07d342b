// Package pricing derives purchase and sale prices from a supplier net price.
//
// All arithmetic uses fixed-point decimals; values are never rounded here so
// the persistence layer decides the stored precision.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultVATRate is applied when the feed carries no usable VAT rate.
var DefaultVATRate = decimal.NewFromInt(23)

var hundred = decimal.NewFromInt(100)

// Derived holds the prices computed for one product in one run.
type Derived struct {
	PurchaseNet   decimal.Decimal
	PurchaseGross decimal.Decimal
	SaleNet       decimal.Decimal
	SaleGross     decimal.Decimal
	VATRate       decimal.Decimal
}

// Derive computes purchase and sale prices.
//
//	purchaseGross = net * (1 + vat/100)
//	saleNet       = net * (1 + margin/100)
//	saleGross     = purchaseGross * (1 + margin/100)
func Derive(netPrice, vatRate decimal.Decimal, marginPercent int) Derived {
	grossFactor := decimal.NewFromInt(1).Add(vatRate.Div(hundred))
	marginFactor := decimal.NewFromInt(1).Add(decimal.NewFromInt(int64(marginPercent)).Div(hundred))

	purchaseGross := netPrice.Mul(grossFactor)

	return Derived{
		PurchaseNet:   netPrice,
		PurchaseGross: purchaseGross,
		SaleNet:       netPrice.Mul(marginFactor),
		SaleGross:     purchaseGross.Mul(marginFactor),
		VATRate:       vatRate,
	}
}

// ParseVATRate reads the feed's VAT field, which may be a bare number ("23"),
// a percentage ("23%") or a decimal with a comma separator ("8,0").
// Anything empty or unparseable yields DefaultVATRate.
func ParseVATRate(raw string) decimal.Decimal {
	cleaned := strings.TrimSuffix(strings.TrimSpace(raw), "%")
	if cleaned == "" {
		return DefaultVATRate
	}
	rate, err := ParseAmount(cleaned)
	if err != nil || rate.IsNegative() {
		return DefaultVATRate
	}
	return rate
}

// ParseAmount parses a feed number. Both "." and "," are accepted as the
// decimal separator and embedded spaces (thousand separators) are ignored.
func ParseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\t':
			return -1
		case ',':
			return '.'
		}
		return r
	}, raw)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return amount, nil
}

// ParseOptionalAmount is ParseAmount for fields where absence means zero.
func ParseOptionalAmount(raw string) (decimal.Decimal, error) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, nil
	}
	return ParseAmount(raw)
}
