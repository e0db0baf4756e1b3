// Package discount owns the per-dish discount overlay. Discounts come only from
// the external table and are never persisted with the catalog; the overlay in
// the key-value store is their sole copy, so entries are written without expiry.
package discount

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/unkn0wn-root/menusync/cachekey"
	"github.com/unkn0wn-root/menusync/catalog"
	pr "github.com/unkn0wn-root/menusync/provider"
)

var (
	ErrEmpty      = errors.New("discount: empty value")
	ErrUnparsable = errors.New("discount: unparsable value")
	ErrOutOfRange = errors.New("discount: value outside [0, 1]")
)

var hundred = decimal.NewFromInt(100)

// Normalize turns a table cell into a fraction in [0, 1].
//
//	"15%"  -> 0.15    "15,5%" -> 0.155
//	"0.2"  -> 0.2     "20"    -> 0.2
//
// A bare number above 1 is read as a percentage; at or below 1 as a fraction.
// This departs from a strict fraction-only reading, which would reject "20",
// and from dividing every bare number by 100, which would turn the 0.2 a
// numeric spreadsheet cell delivers into 0.002. A result outside [0, 1] after
// that step is ErrOutOfRange: "150%" and "150" both are.
func Normalize(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, ",", "."))
	if s == "" {
		return decimal.Zero, ErrEmpty
	}
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparsable, raw)
	}
	if percent || d.GreaterThan(decimal.NewFromInt(1)) {
		d = d.Div(hundred)
	}
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrOutOfRange, raw)
	}
	return d, nil
}

// Format renders a fraction as a whole percentage, "0%" for zero.
func Format(d decimal.Decimal) string {
	return d.Mul(hundred).Round(0).String() + "%"
}

// Apply returns price reduced by fraction d, rounded to the price scale.
func Apply(p catalog.Price, d decimal.Decimal) catalog.Price {
	v := p.Decimal().Mul(decimal.NewFromInt(1).Sub(d)).Round(catalog.PriceScale)
	out, err := catalog.NewPrice(v)
	if err != nil {
		// d is validated to [0, 1], so v cannot go negative.
		return p
	}
	return out
}

// Overlay reads and writes discount fractions keyed by dish path.
type Overlay struct {
	p pr.Provider
}

func NewOverlay(p pr.Provider) *Overlay { return &Overlay{p: p} }

// Get returns the stored fraction; ok is false when no discount is set.
func (o *Overlay) Get(ctx context.Context, path catalog.Path) (decimal.Decimal, bool, error) {
	b, ok, err := o.p.Get(ctx, cachekey.Discount(path))
	if err != nil || !ok {
		return decimal.Zero, false, err
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("%w: stored %q", ErrUnparsable, b)
	}
	return d, true, nil
}

// Set stores d without expiry. d must already be normalized.
func (o *Overlay) Set(ctx context.Context, path catalog.Path, d decimal.Decimal) error {
	if d.IsNegative() || d.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: %s", ErrOutOfRange, d.String())
	}
	ok, err := o.p.Set(ctx, cachekey.Discount(path), []byte(d.String()), 0)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("discount: write of %s rejected by provider", path)
	}
	return nil
}

func (o *Overlay) Clear(ctx context.Context, path catalog.Path) error {
	return o.p.Del(ctx, cachekey.Discount(path))
}
