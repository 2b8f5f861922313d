package binary

// Object is any value that can be round-tripped over the wire.
type Object interface {
	Class() *Class
}

// Type is a schema type description. Concrete types live in package schema.
type Type interface {
	Object
	String() string
}

// Field is one declared field of an Entity.
type Field struct {
	Declared string
	Type     Type
}

// Class is the dispatch record for one wire type.
//
// A class is identified either by an explicit ID or, when ID is zero, by the
// identity derived from its Entity.
type Class struct {
	ID     ID
	Entity *Entity
	New    func() Object
	Encode func(e *Encoder, o Object) error
	Decode func(d *Decoder) (Object, error)
}

// Identity returns the id written on the wire for this class.
func (c *Class) Identity() ID {
	if c.ID.IsValid() {
		return c.ID
	}
	if c.Entity != nil {
		return c.Entity.ID()
	}
	return ID{}
}

// Name is a human readable class name for logs and errors.
func (c *Class) Name() string {
	if c.Entity != nil {
		return c.Entity.Name()
	}
	return c.Identity().String()
}

func (c *Class) validate() error {
	switch {
	case c == nil:
		return ErrInvalidClass
	case c.New == nil || c.Encode == nil || c.Decode == nil:
		return &classError{name: c.Name(), reason: "missing create/encode/decode"}
	case !c.Identity().IsValid():
		return &classError{name: c.Name(), reason: "no explicit id and no entity"}
	}
	return nil
}

type classError struct {
	name   string
	reason string
}

func (e *classError) Error() string {
	return "binary: invalid class " + e.name + ": " + e.reason
}

func (e *classError) Is(target error) bool {
	return target == ErrInvalidClass
}

// sameClass reports whether two registrations describe the same type. Entity
// derived classes with identical signatures are interchangeable.
func sameClass(a, b *Class) bool {
	if a == b {
		return true
	}
	if a.ID.IsValid() || b.ID.IsValid() {
		return false
	}
	if a.Entity == nil || b.Entity == nil {
		return false
	}
	return a.Entity.Signature() == b.Entity.Signature()
}
