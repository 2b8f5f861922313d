package binary

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
)

// IDSize is the byte length of an ID on the wire.
const IDSize = 20

// ID is an opaque 20 byte identity used for types, captures and resources.
type ID [IDSize]byte

// NewID returns the SHA-1 of the concatenated inputs.
func NewID(data ...[]byte) ID {
	h := sha1.New()
	for _, d := range data {
		h.Write(d)
	}
	var id ID
	copy(id[:], h.Sum(nil))
	return id
}

// ParseID parses the hex form produced by ID.String.
func ParseID(s string) (ID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ID{}, fmt.Errorf("binary: parse id %q: %w", s, err)
	}
	if len(b) != IDSize {
		return ID{}, fmt.Errorf("binary: parse id %q: want %d bytes, got %d", s, IDSize, len(b))
	}
	var id ID
	copy(id[:], b)
	return id, nil
}

// IsValid reports whether the id is non-zero.
func (id ID) IsValid() bool {
	return id != ID{}
}

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}
