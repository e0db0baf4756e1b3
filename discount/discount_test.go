package discount

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/unkn0wn-root/menusync/catalog"
	"github.com/unkn0wn-root/menusync/provider/ttlcache"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  error
	}{
		{"15%", "0.15", nil},
		{"15,5%", "0.155", nil},
		{" 20 % ", "0.2", nil},
		{"0.2", "0.2", nil},
		{"20", "0.2", nil},
		{"1", "1", nil},
		{"0", "0", nil},
		{"100%", "1", nil},
		{"", "", ErrEmpty},
		{"abc", "", ErrUnparsable},
		{"-5%", "", ErrOutOfRange},
		{"150%", "", ErrOutOfRange},
		{"150", "", ErrOutOfRange},
		{"1.5", "0.015", nil},
		{"-0.1", "", ErrOutOfRange},
	}
	for _, tc := range cases {
		d, err := Normalize(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("Normalize(%q): want %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Normalize(%q): %v", tc.in, err)
		}
		if !d.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("Normalize(%q) = %s, want %s", tc.in, d, tc.want)
		}
	}
}

func TestFormatAndApply(t *testing.T) {
	if got := Format(decimal.Zero); got != "0%" {
		t.Fatalf("Format(0) = %q", got)
	}
	if got := Format(decimal.RequireFromString("0.155")); got != "16%" {
		t.Fatalf("Format(0.155) = %q", got)
	}
	got := Apply(catalog.MustPrice("100.00"), decimal.RequireFromString("0.2"))
	if got.String() != "80.00" {
		t.Fatalf("Apply = %s, want 80.00", got)
	}
	got = Apply(catalog.MustPrice("10.99"), decimal.RequireFromString("0.15"))
	if got.String() != "9.34" {
		t.Fatalf("Apply = %s, want 9.34", got)
	}
}

func TestOverlayRoundTrip(t *testing.T) {
	ctx := context.Background()
	p := ttlcache.New(ttlcache.Config{})
	o := NewOverlay(p)
	path := catalog.DishPath("m", "s", "d")

	if _, ok, err := o.Get(ctx, path); ok || err != nil {
		t.Fatalf("empty overlay: ok=%v err=%v", ok, err)
	}
	if err := o.Set(ctx, path, decimal.RequireFromString("0.25")); err != nil {
		t.Fatal(err)
	}
	d, ok, err := o.Get(ctx, path)
	if err != nil || !ok || !d.Equal(decimal.RequireFromString("0.25")) {
		t.Fatalf("Get = %s ok=%v err=%v", d, ok, err)
	}
	if _, ok, _ := p.Get(ctx, "discount:m:s:d"); !ok {
		t.Fatalf("overlay not stored under the discount key")
	}
	if err := o.Set(ctx, path, decimal.NewFromInt(2)); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("out of range accepted: %v", err)
	}
	if err := o.Clear(ctx, path); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := o.Get(ctx, path); ok {
		t.Fatalf("Clear left the entry")
	}
}
