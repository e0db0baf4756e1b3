package wire

import (
	"bytes"
	"math"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	cases := []struct {
		gen     uint64
		payload []byte
	}{
		{0, nil},
		{42, []byte(`{"id":"x"}`)},
		{math.MaxUint64, []byte{0, 1, 2, 3, 4}},
	}
	for _, tc := range cases {
		gen, p, err := Decode(Encode(tc.gen, tc.payload))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if gen != tc.gen {
			t.Fatalf("gen mismatch: got %d want %d", gen, tc.gen)
		}
		if !bytes.Equal(p, tc.payload) {
			t.Fatalf("payload mismatch: got %x want %x", p, tc.payload)
		}
	}
}

func TestDecodeRejectsCorrupt(t *testing.T) {
	good := Encode(7, []byte("abc"))

	trailing := append(append([]byte(nil), good...), 0xDE, 0xAD)
	badMagic := append([]byte(nil), good...)
	badMagic[0] = 'X'
	badVersion := append([]byte(nil), good...)
	badVersion[4] = 9
	short := good[:len(good)-1]

	for name, b := range map[string][]byte{
		"trailing": trailing,
		"magic":    badMagic,
		"version":  badVersion,
		"short":    short,
		"empty":    nil,
		"foreign":  []byte("0.15"),
	} {
		if _, _, err := Decode(b); err != ErrCorrupt {
			t.Fatalf("%s: want ErrCorrupt, got %v", name, err)
		}
	}
}
