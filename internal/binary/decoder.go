package binary

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
)

// Limits constrains decode memory use.
type Limits struct {
	MaxStringBytes uint32
	MaxSliceLen    uint32
}

func DefaultLimits() Limits {
	return Limits{
		MaxStringBytes: 16 * 1024 * 1024,
		MaxSliceLen:    1 << 20,
	}
}

// Decoder reads values from a byte slice. Every read either consumes the
// whole value or fails with ErrMalformedWireData and leaves the offset where
// the read started.
type Decoder struct {
	ns          *Namespace
	data        []byte
	off         int
	end         int
	limits      Limits
	dropUnknown bool
}

type DecoderOption func(*Decoder)

func WithLimits(l Limits) DecoderOption {
	return func(d *Decoder) {
		d.limits = l
	}
}

// WithDropUnknown makes Variant skip payloads of unregistered types and
// return a nil object instead of an UnknownTypeError.
func WithDropUnknown(drop bool) DecoderOption {
	return func(d *Decoder) {
		d.dropUnknown = drop
	}
}

func NewDecoder(ns *Namespace, data []byte, opts ...DecoderOption) *Decoder {
	d := &Decoder{
		ns:     ns,
		data:   data,
		end:    len(data),
		limits: DefaultLimits(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode reads a single variant from data and requires that all bytes are consumed.
func Decode(ns *Namespace, data []byte, opts ...DecoderOption) (Object, error) {
	d := NewDecoder(ns, data, opts...)
	o, err := d.Variant()
	if err != nil {
		return nil, err
	}
	if err := d.Finish(); err != nil {
		return nil, err
	}
	return o, nil
}

func (d *Decoder) Namespace() *Namespace {
	return d.ns
}

func (d *Decoder) Offset() int {
	return d.off
}

func (d *Decoder) Remaining() int {
	return d.end - d.off
}

// Finish fails if unread bytes remain.
func (d *Decoder) Finish() error {
	if n := d.Remaining(); n != 0 {
		return malformed("%d trailing bytes", n)
	}
	return nil
}

func (d *Decoder) take(n int, what string) ([]byte, error) {
	if n < 0 || n > d.Remaining() {
		return nil, malformed("short read of %s: need %d bytes, have %d", what, n, d.Remaining())
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b, nil
}

func (d *Decoder) Bool() (bool, error) {
	b, err := d.take(1, "bool")
	if err != nil {
		return false, err
	}
	switch b[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		d.off--
		return false, malformed("invalid bool value %d", b[0])
	}
}

func (d *Decoder) Uint8() (uint8, error) {
	b, err := d.take(1, "uint8")
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) Int8() (int8, error) {
	v, err := d.Uint8()
	return int8(v), err
}

func (d *Decoder) Uint16() (uint16, error) {
	b, err := d.take(2, "uint16")
	if err != nil {
		return 0, err
	}
	return order.Uint16(b), nil
}

func (d *Decoder) Int16() (int16, error) {
	v, err := d.Uint16()
	return int16(v), err
}

func (d *Decoder) Uint32() (uint32, error) {
	b, err := d.take(4, "uint32")
	if err != nil {
		return 0, err
	}
	return order.Uint32(b), nil
}

func (d *Decoder) Int32() (int32, error) {
	v, err := d.Uint32()
	return int32(v), err
}

func (d *Decoder) Uint64() (uint64, error) {
	b, err := d.take(8, "uint64")
	if err != nil {
		return 0, err
	}
	return order.Uint64(b), nil
}

func (d *Decoder) Int64() (int64, error) {
	v, err := d.Uint64()
	return int64(v), err
}

func (d *Decoder) Float32() (float32, error) {
	v, err := d.Uint32()
	return math.Float32frombits(v), err
}

func (d *Decoder) Float64() (float64, error) {
	v, err := d.Uint64()
	return math.Float64frombits(v), err
}

func (d *Decoder) String() (string, error) {
	b, err := d.lengthPrefixed("string", d.limits.MaxStringBytes)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Data reads a length-prefixed byte slice. The result is a copy.
func (d *Decoder) Data() ([]byte, error) {
	b, err := d.lengthPrefixed("data", d.limits.MaxStringBytes)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (d *Decoder) lengthPrefixed(what string, limit uint32) ([]byte, error) {
	start := d.off
	n, err := d.Uint32()
	if err != nil {
		return nil, err
	}
	if limit > 0 && n > limit {
		d.off = start
		return nil, malformed("%s length %d exceeds limit %d", what, n, limit)
	}
	b, err := d.take(int(n), what)
	if err != nil {
		d.off = start
		return nil, err
	}
	return b, nil
}

// Count reads an element count and checks it against the slice limit.
func (d *Decoder) Count() (uint32, error) {
	n, err := d.Uint32()
	if err != nil {
		return 0, err
	}
	if err := d.CheckCount(n); err != nil {
		d.off -= 4
		return 0, err
	}
	return n, nil
}

// CheckCount rejects an element count read from elsewhere, such as a fixed
// array size carried by a type, that exceeds the slice limit.
func (d *Decoder) CheckCount(n uint32) error {
	if d.limits.MaxSliceLen > 0 && n > d.limits.MaxSliceLen {
		return malformed("count %d exceeds limit %d", n, d.limits.MaxSliceLen)
	}
	return nil
}

func (d *Decoder) ID() (ID, error) {
	b, err := d.take(IDSize, "id")
	if err != nil {
		return ID{}, err
	}
	var id ID
	copy(id[:], b)
	return id, nil
}

// Variant reads a type discriminator and dispatches to the registered class.
//
// An unregistered discriminator returns UnknownTypeError after skipping the
// payload, so the stream stays aligned for the caller.
func (d *Decoder) Variant() (Object, error) {
	start := d.off
	id, err := d.ID()
	if err != nil {
		return nil, err
	}
	size, err := d.Uint32()
	if err != nil {
		d.off = start
		return nil, err
	}
	if uint64(size) > uint64(d.Remaining()) {
		d.off = start
		return nil, malformed("variant %s payload of %d bytes exceeds remaining %d", id, size, d.Remaining())
	}
	end := d.off + int(size)

	class, err := d.ns.Lookup(id)
	if err != nil {
		d.off = end
		if d.dropUnknown {
			log.Debug().Str("type", id.String()).Uint32("bytes", size).Msg("binary: dropped unknown variant")
			return nil, nil
		}
		return nil, err
	}

	outer := d.end
	d.end = end
	o, err := class.Decode(d)
	consumed := d.off
	d.end = outer
	if err != nil {
		d.off = start
		return nil, fmt.Errorf("binary: decode %s: %w", class.Name(), err)
	}
	if consumed != end {
		d.off = start
		return nil, malformed("variant %s consumed %d of %d payload bytes", class.Name(), consumed-(end-int(size)), size)
	}
	return o, nil
}

// Object reads a presence marker followed by an optional variant.
func (d *Decoder) Object() (Object, error) {
	start := d.off
	present, err := d.Uint8()
	if err != nil {
		return nil, err
	}
	switch present {
	case 0:
		return nil, nil
	case 1:
	default:
		d.off = start
		return nil, malformed("invalid object marker %d", present)
	}
	o, err := d.Variant()
	if err != nil {
		if d.off == start+1 {
			d.off = start
		}
		return nil, err
	}
	return o, nil
}
