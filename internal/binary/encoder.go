package binary

import (
	byteorder "encoding/binary"
	"fmt"
	"math"
)

var order = byteorder.BigEndian

// Encoder appends the wire form of values to an in-memory buffer.
//
// Primitive writes cannot fail; the first structural error (oversized
// string, class without an identity) is kept and returned by Err, Variant
// and Object.
type Encoder struct {
	buf []byte
	err error
}

func NewEncoder() *Encoder {
	return &Encoder{buf: make([]byte, 0, 256)}
}

// Encode returns the variant encoding of o.
func Encode(o Object) ([]byte, error) {
	e := NewEncoder()
	if err := e.Variant(o); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// Bytes returns the encoded buffer. The slice aliases the encoder's storage.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

func (e *Encoder) Len() int {
	return len(e.buf)
}

func (e *Encoder) Err() error {
	return e.err
}

func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
	e.err = nil
}

func (e *Encoder) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *Encoder) Bool(v bool) {
	if v {
		e.buf = append(e.buf, 1)
		return
	}
	e.buf = append(e.buf, 0)
}

func (e *Encoder) Uint8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *Encoder) Int8(v int8) {
	e.buf = append(e.buf, uint8(v))
}

func (e *Encoder) Uint16(v uint16) {
	e.buf = order.AppendUint16(e.buf, v)
}

func (e *Encoder) Int16(v int16) {
	e.buf = order.AppendUint16(e.buf, uint16(v))
}

func (e *Encoder) Uint32(v uint32) {
	e.buf = order.AppendUint32(e.buf, v)
}

func (e *Encoder) Int32(v int32) {
	e.buf = order.AppendUint32(e.buf, uint32(v))
}

func (e *Encoder) Uint64(v uint64) {
	e.buf = order.AppendUint64(e.buf, v)
}

func (e *Encoder) Int64(v int64) {
	e.buf = order.AppendUint64(e.buf, uint64(v))
}

func (e *Encoder) Float32(v float32) {
	e.Uint32(math.Float32bits(v))
}

func (e *Encoder) Float64(v float64) {
	e.Uint64(math.Float64bits(v))
}

func (e *Encoder) String(v string) {
	if uint64(len(v)) > math.MaxUint32 {
		e.fail(fmt.Errorf("binary: string of %d bytes too large", len(v)))
		return
	}
	e.Uint32(uint32(len(v)))
	e.buf = append(e.buf, v...)
}

// Data writes a length-prefixed byte slice.
func (e *Encoder) Data(v []byte) {
	if uint64(len(v)) > math.MaxUint32 {
		e.fail(fmt.Errorf("binary: data of %d bytes too large", len(v)))
		return
	}
	e.Uint32(uint32(len(v)))
	e.buf = append(e.buf, v...)
}

func (e *Encoder) ID(id ID) {
	e.buf = append(e.buf, id[:]...)
}

// Variant writes the type discriminator, the payload length and the class's
// own encoding of o.
func (e *Encoder) Variant(o Object) error {
	if o == nil {
		e.fail(fmt.Errorf("%w: nil variant", ErrInvalidClass))
		return e.err
	}
	c := o.Class()
	if err := c.validate(); err != nil {
		e.fail(fmt.Errorf("binary: encode %T: %w", o, err))
		return e.err
	}
	e.ID(c.Identity())
	lenAt := len(e.buf)
	e.Uint32(0)
	if err := c.Encode(e, o); err != nil {
		e.fail(fmt.Errorf("binary: encode %s: %w", c.Name(), err))
		return e.err
	}
	size := len(e.buf) - lenAt - 4
	if uint64(size) > math.MaxUint32 {
		e.fail(fmt.Errorf("binary: encode %s: payload of %d bytes too large", c.Name(), size))
		return e.err
	}
	order.PutUint32(e.buf[lenAt:], uint32(size))
	return e.err
}

// Object writes a presence marker followed by the variant encoding of o.
func (e *Encoder) Object(o Object) error {
	if o == nil {
		e.Uint8(0)
		return e.err
	}
	e.Uint8(1)
	return e.Variant(o)
}
