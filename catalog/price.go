package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PriceScale is the number of decimals a price is displayed with.
const PriceScale = 2

// Price is a non-negative amount. The zero value is 0.00.
type Price struct {
	d decimal.Decimal
}

// NewPrice rounds d half away from zero to PriceScale decimals, the
// precision every Store persists.
func NewPrice(d decimal.Decimal) (Price, error) {
	if d.IsNegative() {
		return Price{}, fmt.Errorf("%w: price %s is negative", ErrInvalid, d.String())
	}
	return Price{d: d.Round(PriceScale)}, nil
}

// MustPrice is NewPrice from a string that panics on error. Tests and constants only.
func MustPrice(s string) Price {
	p, err := ParsePrice(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePrice accepts "12", "12.5" and the comma form "12,50".
func ParsePrice(s string) (Price, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return Price{}, fmt.Errorf("%w: empty price", ErrInvalid)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, fmt.Errorf("%w: price %q: %v", ErrInvalid, s, err)
	}
	return NewPrice(d)
}

func (p Price) Decimal() decimal.Decimal { return p.d }

func (p Price) Equal(o Price) bool { return p.d.Equal(o.d) }

// String renders the price with two decimals.
func (p Price) String() string { return p.d.StringFixed(PriceScale) }
