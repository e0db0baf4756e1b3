package codec

import (
	"github.com/fxamacker/cbor/v2"
)

// CBOR serializes view DTOs with fxamacker/cbor. Build it with NewCBOR.
type CBOR[V any] struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

// NewCBOR uses the preferred unsorted encoding. Decoding rejects duplicate map
// keys and caps nesting, which a cached catalog view never comes close to.
func NewCBOR[V any]() (CBOR[V], error) {
	em, err := cbor.PreferredUnsortedEncOptions().EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	dm, err := cbor.DecOptions{
		DupMapKey:       cbor.DupMapKeyEnforcedAPF,
		MaxNestedLevels: 16,
	}.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{enc: em, dec: dm}, nil
}

func (c CBOR[V]) Encode(v V) ([]byte, error) { return c.enc.Marshal(v) }

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dec.Unmarshal(b, &v)
	return v, err
}
