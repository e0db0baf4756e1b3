// Package wire frames cached view payloads with the generation they were
// filled under, so a reader can reject entries that predate an invalidation.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version byte = 1
	hdrLen       = 4 + 1 + 8 + 4
)

var (
	ErrCorrupt = errors.New("menusync: corrupt cache entry")
	magic4     = [...]byte{'M', 'S', 'Y', 'N'}
)

// Encode frames payload: magic(4) | ver(1) | gen(u64 be) | vlen(u32 be) | payload(vlen)
func Encode(gen uint64, payload []byte) []byte {
	b := make([]byte, hdrLen+len(payload))
	copy(b, magic4[:])
	b[4] = version
	binary.BigEndian.PutUint64(b[5:13], gen)
	binary.BigEndian.PutUint32(b[13:17], uint32(len(payload)))
	copy(b[hdrLen:], payload)
	return b
}

// Decode returns the generation and payload of a framed entry. The payload
// aliases b. Any header mismatch, short buffer or trailing byte is ErrCorrupt.
func Decode(b []byte) (gen uint64, payload []byte, err error) {
	if len(b) < hdrLen || !bytes.Equal(b[:4], magic4[:]) || b[4] != version {
		return 0, nil, ErrCorrupt
	}
	gen = binary.BigEndian.Uint64(b[5:13])
	vlen := uint64(binary.BigEndian.Uint32(b[13:17]))
	if vlen != uint64(len(b)-hdrLen) {
		return 0, nil, ErrCorrupt
	}
	return gen, b[hdrLen:], nil
}
