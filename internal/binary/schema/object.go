package schema

import (
	"fmt"

	"github.com/danmuck/gfxtrace/internal/binary"
)

// Object is a value of a type known only through its entity.
type Object struct {
	Klass  *binary.Class
	Fields []any
}

func (o *Object) Class() *binary.Class {
	return o.Klass
}

// Type returns the entity describing the object's fields.
func (o *Object) Type() *binary.Entity {
	return o.Klass.Entity
}

// Field returns the value of the field declared as name.
func (o *Object) Field(name string) (any, bool) {
	i := o.Type().FieldIndex(name)
	if i < 0 || i >= len(o.Fields) {
		return nil, false
	}
	return o.Fields[i], true
}

func (o *Object) String() string {
	return fmt.Sprintf("%s%v", o.Type().Name(), o.Fields)
}

// NewClass builds a class that encodes and decodes *Object values by walking
// the entity's field types.
func NewClass(entity *binary.Entity) (*binary.Class, error) {
	if entity == nil {
		return nil, fmt.Errorf("%w: nil entity", binary.ErrInvalidClass)
	}
	for _, f := range entity.Fields {
		if f.Type == nil {
			return nil, fmt.Errorf("%w: %s field %q has no type", binary.ErrInvalidClass, entity.Name(), f.Declared)
		}
	}
	c := &binary.Class{Entity: entity}
	c.New = func() binary.Object {
		return &Object{Klass: c, Fields: make([]any, len(entity.Fields))}
	}
	c.Encode = func(e *binary.Encoder, o binary.Object) error {
		obj, ok := o.(*Object)
		if !ok {
			return fmt.Errorf("%w: %s given %T", ErrTypeMismatch, entity.Name(), o)
		}
		if len(obj.Fields) != len(entity.Fields) {
			return fmt.Errorf("%w: %s has %d values for %d fields", ErrTypeMismatch, entity.Name(), len(obj.Fields), len(entity.Fields))
		}
		for i, f := range entity.Fields {
			if err := EncodeValue(e, f.Type, obj.Fields[i]); err != nil {
				return fmt.Errorf("field %s: %w", f.Declared, err)
			}
		}
		return nil
	}
	c.Decode = func(d *binary.Decoder) (binary.Object, error) {
		obj := &Object{Klass: c, Fields: make([]any, len(entity.Fields))}
		for i, f := range entity.Fields {
			v, err := DecodeValue(d, f.Type)
			if err != nil {
				return nil, fmt.Errorf("field %s: %w", f.Declared, err)
			}
			obj.Fields[i] = v
		}
		return obj, nil
	}
	return c, nil
}
