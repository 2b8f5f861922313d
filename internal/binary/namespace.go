package binary

import (
	"bytes"
	"fmt"
	"sort"
)

// Builder collects class registrations before the namespace is published.
type Builder struct {
	classes map[ID]*Class
}

func NewBuilder() *Builder {
	return &Builder{classes: make(map[ID]*Class)}
}

// Register binds the class identity to the class. Registering the same class
// twice is a no-op; a different class under a taken identity is a
// DuplicateTypeIdentityError.
func (b *Builder) Register(c *Class) error {
	if err := c.validate(); err != nil {
		return err
	}
	id := c.Identity()
	if existing, ok := b.classes[id]; ok {
		if sameClass(existing, c) {
			return nil
		}
		return DuplicateTypeIdentityError{ID: id, Existing: existing.Name(), Incoming: c.Name()}
	}
	b.classes[id] = c
	return nil
}

// RegisterAll registers classes in order and stops at the first error.
func (b *Builder) RegisterAll(classes ...*Class) error {
	for _, c := range classes {
		if err := b.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Build publishes an immutable snapshot of the registrations. The builder may
// keep being used; later registrations do not affect returned namespaces.
func (b *Builder) Build() *Namespace {
	classes := make(map[ID]*Class, len(b.classes))
	for id, c := range b.classes {
		classes[id] = c
	}
	return &Namespace{classes: classes}
}

// Namespace maps type identities to classes. It is never mutated after
// Build, so concurrent lookups need no locking.
type Namespace struct {
	classes map[ID]*Class
}

func (n *Namespace) Lookup(id ID) (*Class, error) {
	if n != nil {
		if c, ok := n.classes[id]; ok {
			return c, nil
		}
	}
	return nil, UnknownTypeError{ID: id}
}

func (n *Namespace) Len() int {
	if n == nil {
		return 0
	}
	return len(n.classes)
}

// Classes returns the registered classes ordered by identity.
func (n *Namespace) Classes() []*Class {
	if n == nil {
		return nil
	}
	out := make([]*Class, 0, len(n.classes))
	for _, c := range n.classes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Identity(), out[j].Identity()
		return bytes.Compare(a[:], b[:]) < 0
	})
	return out
}

// Entities returns the entities of all classes that carry one, in Classes order.
func (n *Namespace) Entities() []*Entity {
	var out []*Entity
	for _, c := range n.Classes() {
		if c.Entity != nil {
			out = append(out, c.Entity)
		}
	}
	return out
}

func (n *Namespace) String() string {
	return fmt.Sprintf("binary.Namespace{classes=%d}", n.Len())
}
