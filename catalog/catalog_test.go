package catalog

import (
	"errors"
	"strings"
	"testing"
)

func TestParsePrice(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  bool
	}{
		{"12", "12.00", false},
		{"12.5", "12.50", false},
		{"12,75", "12.75", false},
		{" 0 ", "0.00", false},
		{"12.555", "12.56", false},
		{"12,554", "12.55", false},
		{"-1", "", true},
		{"", "", true},
		{"abc", "", true},
	}
	for _, tc := range cases {
		p, err := ParsePrice(tc.in)
		if tc.err {
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("ParsePrice(%q): want ErrInvalid, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParsePrice(%q): %v", tc.in, err)
		}
		if p.String() != tc.want {
			t.Fatalf("ParsePrice(%q) = %s, want %s", tc.in, p, tc.want)
		}
	}
}

func TestPriceMatchesItsStoredForm(t *testing.T) {
	for _, in := range []string{"12.555", "0.004", "99.999", "7"} {
		p := MustPrice(in)
		stored := MustPrice(p.String())
		if !p.Equal(stored) {
			t.Fatalf("price %q: %s does not equal its stored form %s", in, p.Decimal(), stored.Decimal())
		}
	}
}

func TestPathKindAndParent(t *testing.T) {
	p := DishPath("m", "s", "d")
	if p.Kind() != KindDish || p.ID() != "d" {
		t.Fatalf("dish path kind/id = %v/%s", p.Kind(), p.ID())
	}
	if got := p.Parent(); got != SubmenuPath("m", "s") {
		t.Fatalf("parent = %+v", got)
	}
	if got := p.Parent().Parent(); got != MenuPath("m") {
		t.Fatalf("grandparent = %+v", got)
	}
	if got := MenuPath("m").Parent(); got.Kind() != 0 {
		t.Fatalf("menu parent should be global scope, got %+v", got)
	}
}

func TestValidateWrapsErrInvalid(t *testing.T) {
	err := Validate(MenuInput{Title: strings.Repeat("x", MenuTitleMaxLen+1)})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
	if err := Validate(MenuInput{Title: "ok"}); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	empty := ""
	if err := Validate(MenuPatch{Title: &empty}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("empty title patch accepted: %v", err)
	}
	if err := Validate(MenuPatch{}); err != nil {
		t.Fatalf("empty patch rejected: %v", err)
	}
}

func TestTableValidationDives(t *testing.T) {
	tm := TableMenu{
		Title:       "Menu",
		Description: "d",
		Submenus: []TableSubmenu{{
			Title:       "Sub",
			Description: "d",
			Dishes:      []TableDish{{Title: "", Description: "d"}},
		}},
	}
	if err := Validate(tm); !errors.Is(err, ErrInvalid) {
		t.Fatalf("nested dish without title accepted: %v", err)
	}
}
