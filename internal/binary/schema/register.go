package schema

import "github.com/danmuck/gfxtrace/internal/binary"

// Register adds the entity class, every type class and Box to b.
func Register(b *binary.Builder) error {
	return b.RegisterAll(
		binary.EntityClass,
		primitiveClass,
		arrayClass,
		sliceClass,
		pointerClass,
		structClass,
		interfaceClass,
		variantClass,
		boxClass,
	)
}

// RegisterEntities registers a dynamic class per entity. Entities whose
// identity is already bound to an identical class are left as they are.
func RegisterEntities(b *binary.Builder, entities ...*binary.Entity) error {
	for _, entity := range entities {
		c, err := NewClass(entity)
		if err != nil {
			return err
		}
		if err := b.Register(c); err != nil {
			return err
		}
	}
	return nil
}
