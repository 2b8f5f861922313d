package schema

import (
	"fmt"

	"github.com/danmuck/gfxtrace/internal/binary"
)

// Box carries a single value together with its type.
type Box struct {
	Type  binary.Type
	Value any
}

var boxClass = &binary.Class{
	ID:  binary.NewID([]byte("schema.Box")),
	New: func() binary.Object { return &Box{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		b := o.(*Box)
		if b.Type == nil {
			return fmt.Errorf("%w: box without type", ErrTypeMismatch)
		}
		if err := e.Object(b.Type); err != nil {
			return err
		}
		return EncodeValue(e, b.Type, b.Value)
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		t, err := decodeType(d)
		if err != nil {
			return nil, err
		}
		v, err := DecodeValue(d, t)
		if err != nil {
			return nil, err
		}
		return &Box{Type: t, Value: v}, nil
	},
}

func (b *Box) Class() *binary.Class {
	return boxClass
}

func (b *Box) String() string {
	return fmt.Sprintf("%v(%v)", b.Type, b.Value)
}
