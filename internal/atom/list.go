package atom

import (
	"github.com/danmuck/gfxtrace/internal/binary"
)

// List is a decoded window of a capture's command stream.
type List struct {
	Atoms []Atom
}

var listClass = &binary.Class{
	ID:  binary.NewID([]byte("atom.List")),
	New: func() binary.Object { return &List{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		l := o.(*List)
		e.Uint32(uint32(len(l.Atoms)))
		for _, a := range l.Atoms {
			if err := e.Variant(Unwrap(a)); err != nil {
				return err
			}
		}
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		n, err := d.Count()
		if err != nil {
			return nil, err
		}
		l := &List{Atoms: make([]Atom, 0, n)}
		for i := uint32(0); i < n; i++ {
			o, err := d.Variant()
			if err != nil {
				return nil, err
			}
			if o == nil {
				continue
			}
			a, err := Wrap(o)
			if err != nil {
				return nil, err
			}
			l.Atoms = append(l.Atoms, a)
		}
		return l, nil
	},
}

func (l *List) Class() *binary.Class {
	return listClass
}

func (l *List) Len() int {
	return len(l.Atoms)
}

// Get returns the atom at index i.
func (l *List) Get(i int) (Atom, error) {
	if i < 0 || i >= len(l.Atoms) {
		return nil, IndexOutOfRangeError{Index: i, Len: len(l.Atoms)}
	}
	return l.Atoms[i], nil
}

// FrameEnds returns the indices of the atoms that end a frame.
func (l *List) FrameEnds() []int {
	var ends []int
	for i, a := range l.Atoms {
		if a.IsEndOfFrame() {
			ends = append(ends, i)
		}
	}
	return ends
}

// Register adds the list, metadata and observation classes to b.
func Register(b *binary.Builder) error {
	return b.RegisterAll(listClass, metadataClass, observationsClass)
}
