package binary

import (
	"fmt"
	"strings"
	"sync"
)

// Entity describes the declared shape of a registered type.
//
// Entities are built once at start-up and treated as read-only afterwards.
// The derived ID is computed on first use and memoized.
type Entity struct {
	Package  string
	Identity string
	Version  string
	Display  string
	Fields   []Field
	Metadata []Object

	idOnce sync.Once
	id     ID
}

// EntityClass encodes entities, so a schema can travel over the wire.
var EntityClass = &Class{
	ID:     NewID([]byte("binary.Entity")),
	New:    func() Object { return &Entity{} },
	Encode: encodeEntity,
	Decode: decodeEntity,
}

func (e *Entity) Class() *Class {
	return EntityClass
}

// Name returns package.Identity.
func (e *Entity) Name() string {
	if e.Package == "" {
		return e.Identity
	}
	return e.Package + "." + e.Identity
}

// Signature is the canonical text the derived ID is computed from.
func (e *Entity) Signature() string {
	var b strings.Builder
	b.WriteString(e.Name())
	if e.Version != "" {
		b.WriteByte('@')
		b.WriteString(e.Version)
	}
	b.WriteByte('{')
	for i, f := range e.Fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(f.Declared)
		b.WriteByte(':')
		if f.Type != nil {
			b.WriteString(f.Type.String())
		}
	}
	b.WriteByte('}')
	return b.String()
}

// ID returns the identity derived from Signature.
func (e *Entity) ID() ID {
	e.idOnce.Do(func() {
		e.id = NewID([]byte(e.Signature()))
	})
	return e.id
}

// FieldIndex returns the index of the field declared as name, or -1.
func (e *Entity) FieldIndex(name string) int {
	for i, f := range e.Fields {
		if f.Declared == name {
			return i
		}
	}
	return -1
}

func (e *Entity) String() string {
	return e.Signature()
}

func encodeEntity(enc *Encoder, o Object) error {
	e, ok := o.(*Entity)
	if !ok {
		return fmt.Errorf("%w: entity class given %T", ErrInvalidClass, o)
	}
	enc.String(e.Package)
	enc.String(e.Identity)
	enc.String(e.Version)
	enc.String(e.Display)
	enc.Uint32(uint32(len(e.Fields)))
	for _, f := range e.Fields {
		enc.String(f.Declared)
		if err := enc.Object(f.Type); err != nil {
			return err
		}
	}
	enc.Uint32(uint32(len(e.Metadata)))
	for _, m := range e.Metadata {
		if err := enc.Object(m); err != nil {
			return err
		}
	}
	return enc.Err()
}

func decodeEntity(d *Decoder) (Object, error) {
	e := &Entity{}
	var err error
	if e.Package, err = d.String(); err != nil {
		return nil, err
	}
	if e.Identity, err = d.String(); err != nil {
		return nil, err
	}
	if e.Version, err = d.String(); err != nil {
		return nil, err
	}
	if e.Display, err = d.String(); err != nil {
		return nil, err
	}
	count, err := d.Count()
	if err != nil {
		return nil, err
	}
	e.Fields = make([]Field, count)
	for i := range e.Fields {
		if e.Fields[i].Declared, err = d.String(); err != nil {
			return nil, err
		}
		o, err := d.Object()
		if err != nil {
			return nil, err
		}
		if o == nil {
			continue
		}
		t, ok := o.(Type)
		if !ok {
			return nil, malformed("entity %s field %q has non-type %T", e.Name(), e.Fields[i].Declared, o)
		}
		e.Fields[i].Type = t
	}
	count, err = d.Count()
	if err != nil {
		return nil, err
	}
	for i := uint32(0); i < count; i++ {
		o, err := d.Object()
		if err != nil {
			return nil, err
		}
		if o != nil {
			e.Metadata = append(e.Metadata, o)
		}
	}
	return e, nil
}
