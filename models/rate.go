package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// RateStatus controls whether a rate can be used for new order items.
type RateStatus string

const (
	RateActive   RateStatus = "Active"
	RateDraft    RateStatus = "Draft"
	RateInactive RateStatus = "Inactive"
)

// Valid reports whether s is a known rate status.
func (s RateStatus) Valid() bool {
	return s == RateActive || s == RateDraft || s == RateInactive
}

// Rate is the price list entry for one cloth type.
type Rate struct {
	ID           string          `db:"id" json:"id" yaml:"id"`
	ClothType    string          `db:"cloth_type" json:"cloth_type" yaml:"cloth_type"`
	PricePerUnit decimal.Decimal `db:"price_per_unit" json:"price_per_unit" yaml:"price_per_unit"`
	MinQty       int             `db:"min_qty" json:"min_qty" yaml:"min_qty"`
	Status       RateStatus      `db:"status" json:"status" yaml:"status"`
}

// ClothKey is the comparison key for a cloth type: NFKC-normalised, trimmed and case-folded,
// so "T-Shirt", " t-shirt" and "ｔ-ｓｈｉｒｔ" collide.
func ClothKey(clothType string) string {
	return cases.Fold().String(norm.NFKC.String(strings.TrimSpace(clothType)))
}
