package schema

import (
	"fmt"

	"github.com/danmuck/gfxtrace/internal/binary"
)

// EncodeValue writes v as a value of type t.
//
// Sequences are []any, optional pointers are nil or the pointee value, and
// struct/interface/variant values are binary.Object.
func EncodeValue(e *binary.Encoder, t binary.Type, v any) error {
	switch t := t.(type) {
	case *Primitive:
		return encodePrimitive(e, t, v)
	case *Array:
		items, ok := v.([]any)
		if !ok {
			return mismatch(t, v)
		}
		if uint32(len(items)) != t.Size {
			return fmt.Errorf("%w: %v holds %d items", ErrTypeMismatch, t, len(items))
		}
		for _, item := range items {
			if err := EncodeValue(e, t.ValueType, item); err != nil {
				return err
			}
		}
		return nil
	case *Slice:
		var items []any
		if v != nil {
			var ok bool
			if items, ok = v.([]any); !ok {
				return mismatch(t, v)
			}
		}
		e.Uint32(uint32(len(items)))
		for _, item := range items {
			if err := EncodeValue(e, t.ValueType, item); err != nil {
				return err
			}
		}
		return nil
	case *Pointer:
		if v == nil {
			e.Bool(false)
			return nil
		}
		e.Bool(true)
		return EncodeValue(e, t.Type, v)
	case *Struct:
		o, ok := v.(binary.Object)
		if !ok || o == nil {
			return mismatch(t, v)
		}
		c := o.Class()
		if c.Identity() != t.ID {
			return fmt.Errorf("%w: %v given %s", ErrTypeMismatch, t, c.Name())
		}
		return c.Encode(e, o)
	case *Interface:
		if v == nil {
			return e.Object(nil)
		}
		o, ok := v.(binary.Object)
		if !ok {
			return mismatch(t, v)
		}
		return e.Object(o)
	case *Variant:
		o, ok := v.(binary.Object)
		if !ok || o == nil {
			return mismatch(t, v)
		}
		return e.Variant(o)
	default:
		return fmt.Errorf("%w: unsupported type %T", ErrTypeMismatch, t)
	}
}

// DecodeValue reads a value of type t.
func DecodeValue(d *binary.Decoder, t binary.Type) (any, error) {
	switch t := t.(type) {
	case *Primitive:
		return decodePrimitive(d, t)
	case *Array:
		if err := d.CheckCount(t.Size); err != nil {
			return nil, err
		}
		return decodeItems(d, t.ValueType, t.Size)
	case *Slice:
		n, err := d.Count()
		if err != nil {
			return nil, err
		}
		return decodeItems(d, t.ValueType, n)
	case *Pointer:
		present, err := d.Bool()
		if err != nil || !present {
			return nil, err
		}
		return DecodeValue(d, t.Type)
	case *Struct:
		c, err := d.Namespace().Lookup(t.ID)
		if err != nil {
			return nil, err
		}
		return c.Decode(d)
	case *Interface:
		o, err := d.Object()
		if err != nil || o == nil {
			return nil, err
		}
		return o, nil
	case *Variant:
		return d.Variant()
	default:
		return nil, fmt.Errorf("%w: unsupported type %T", binary.ErrMalformedWireData, t)
	}
}

func encodePrimitive(e *binary.Encoder, t *Primitive, v any) error {
	switch t.Method {
	case Bool:
		x, ok := v.(bool)
		if !ok {
			return mismatch(t, v)
		}
		e.Bool(x)
	case Int8:
		x, ok := v.(int8)
		if !ok {
			return mismatch(t, v)
		}
		e.Int8(x)
	case Uint8:
		x, ok := v.(uint8)
		if !ok {
			return mismatch(t, v)
		}
		e.Uint8(x)
	case Int16:
		x, ok := v.(int16)
		if !ok {
			return mismatch(t, v)
		}
		e.Int16(x)
	case Uint16:
		x, ok := v.(uint16)
		if !ok {
			return mismatch(t, v)
		}
		e.Uint16(x)
	case Int32:
		x, ok := v.(int32)
		if !ok {
			return mismatch(t, v)
		}
		e.Int32(x)
	case Uint32:
		x, ok := v.(uint32)
		if !ok {
			return mismatch(t, v)
		}
		e.Uint32(x)
	case Int64:
		x, ok := v.(int64)
		if !ok {
			return mismatch(t, v)
		}
		e.Int64(x)
	case Uint64:
		x, ok := v.(uint64)
		if !ok {
			return mismatch(t, v)
		}
		e.Uint64(x)
	case Float32:
		x, ok := v.(float32)
		if !ok {
			return mismatch(t, v)
		}
		e.Float32(x)
	case Float64:
		x, ok := v.(float64)
		if !ok {
			return mismatch(t, v)
		}
		e.Float64(x)
	case String:
		x, ok := v.(string)
		if !ok {
			return mismatch(t, v)
		}
		e.String(x)
	case ID:
		x, ok := v.(binary.ID)
		if !ok {
			return mismatch(t, v)
		}
		e.ID(x)
	default:
		return fmt.Errorf("%w: primitive %q has unknown method %v", ErrTypeMismatch, t.Name, t.Method)
	}
	return e.Err()
}

func decodePrimitive(d *binary.Decoder, t *Primitive) (any, error) {
	switch t.Method {
	case Bool:
		return d.Bool()
	case Int8:
		return d.Int8()
	case Uint8:
		return d.Uint8()
	case Int16:
		return d.Int16()
	case Uint16:
		return d.Uint16()
	case Int32:
		return d.Int32()
	case Uint32:
		return d.Uint32()
	case Int64:
		return d.Int64()
	case Uint64:
		return d.Uint64()
	case Float32:
		return d.Float32()
	case Float64:
		return d.Float64()
	case String:
		return d.String()
	case ID:
		return d.ID()
	default:
		return nil, fmt.Errorf("%w: primitive %q has unknown method %v", binary.ErrMalformedWireData, t.Name, t.Method)
	}
}

func mismatch(t binary.Type, v any) error {
	return fmt.Errorf("%w: %v given %T", ErrTypeMismatch, t, v)
}

// decodeItems reads n values of type t. Capacity is bounded by the bytes
// left so a large count on a short buffer fails before it allocates.
func decodeItems(d *binary.Decoder, t binary.Type, n uint32) ([]any, error) {
	items := make([]any, 0, min(int(n), d.Remaining()))
	for i := uint32(0); i < n; i++ {
		v, err := DecodeValue(d, t)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}
