package codec

import (
	"strings"
	"testing"
)

type view struct {
	ID    string
	Price string
	Count int
}

func TestByNameRoundTrip(t *testing.T) {
	in := view{ID: "a", Price: "10.00", Count: 3}
	for _, name := range []string{"", NameJSON, NameMsgpack, NameCBOR} {
		c, err := ByName[view](name)
		if err != nil {
			t.Fatalf("ByName(%q): %v", name, err)
		}
		b, err := c.Encode(in)
		if err != nil {
			t.Fatalf("%s encode: %v", name, err)
		}
		out, err := c.Decode(b)
		if err != nil {
			t.Fatalf("%s decode: %v", name, err)
		}
		if out != in {
			t.Fatalf("%s: got %+v want %+v", name, out, in)
		}
	}
	if _, err := ByName[view]("yaml"); err == nil {
		t.Fatalf("unknown codec accepted")
	}
}

func TestLimitRejectsOversized(t *testing.T) {
	c := Limit[view]{Inner: JSON[view]{}, MaxDecode: 16}
	_, err := c.Decode([]byte(`{"ID":"` + strings.Repeat("x", 32) + `"}`))
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Fatalf("want too large error, got %v", err)
	}
}
