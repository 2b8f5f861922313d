package path

import (
	"errors"
	"fmt"

	"github.com/danmuck/gfxtrace/internal/binary"
)

// ErrMissingParent is returned when encoding a field or index path whose
// parent was never set.
var ErrMissingParent = errors.New("path: missing parent")

func (Capture) Class() *binary.Class         { return captureClass }
func (Atoms) Class() *binary.Class           { return atomsClass }
func (Atom) Class() *binary.Class            { return atomClass }
func (State) Class() *binary.Class           { return stateClass }
func (MemoryRange) Class() *binary.Class     { return memoryRangeClass }
func (Resource) Class() *binary.Class        { return resourceClass }
func (Field) Class() *binary.Class           { return fieldClass }
func (ArrayIndex) Class() *binary.Class      { return arrayIndexClass }
func (ResourceBundles) Class() *binary.Class { return resourceBundlesClass }
func (Device) Class() *binary.Class          { return deviceClass }
func (ImageInfo) Class() *binary.Class       { return imageInfoClass }
func (TimingInfo) Class() *binary.Class      { return timingInfoClass }

// Register adds every path class to b.
func Register(b *binary.Builder) error {
	return b.RegisterAll(
		captureClass,
		atomsClass,
		atomClass,
		stateClass,
		memoryRangeClass,
		resourceClass,
		fieldClass,
		arrayIndexClass,
		resourceBundlesClass,
		deviceClass,
		imageInfoClass,
		timingInfoClass,
	)
}

func classID(name string) binary.ID {
	return binary.NewID([]byte("path." + name))
}

var captureClass = &binary.Class{
	ID:  classID("Capture"),
	New: func() binary.Object { return Capture{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		encodeCapture(e, o.(Capture))
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		return decodeCapture(d)
	},
}

var atomsClass = &binary.Class{
	ID:  classID("Atoms"),
	New: func() binary.Object { return Atoms{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		encodeCapture(e, o.(Atoms).Capture)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		return decodeAtoms(d)
	},
}

var atomClass = &binary.Class{
	ID:  classID("Atom"),
	New: func() binary.Object { return Atom{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		encodeAtom(e, o.(Atom))
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		return decodeAtom(d)
	},
}

var stateClass = &binary.Class{
	ID:  classID("State"),
	New: func() binary.Object { return State{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		encodeAtom(e, o.(State).After)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		a, err := decodeAtom(d)
		if err != nil {
			return nil, err
		}
		return State{After: a}, nil
	},
}

var memoryRangeClass = &binary.Class{
	ID:  classID("MemoryRange"),
	New: func() binary.Object { return MemoryRange{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		m := o.(MemoryRange)
		encodeAtom(e, m.After)
		e.Uint32(m.Pool)
		e.Uint64(m.Address)
		e.Uint64(m.Size)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		m := MemoryRange{}
		var err error
		if m.After, err = decodeAtom(d); err != nil {
			return nil, err
		}
		if m.Pool, err = d.Uint32(); err != nil {
			return nil, err
		}
		if m.Address, err = d.Uint64(); err != nil {
			return nil, err
		}
		if m.Size, err = d.Uint64(); err != nil {
			return nil, err
		}
		return m, nil
	},
}

var resourceClass = &binary.Class{
	ID:  classID("Resource"),
	New: func() binary.Object { return Resource{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		r := o.(Resource)
		encodeAtom(e, r.After)
		e.ID(r.ID)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		r := Resource{}
		var err error
		if r.After, err = decodeAtom(d); err != nil {
			return nil, err
		}
		if r.ID, err = d.ID(); err != nil {
			return nil, err
		}
		return r, nil
	},
}

var fieldClass = &binary.Class{
	ID:  classID("Field"),
	New: func() binary.Object { return Field{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		f := o.(Field)
		parent := Value(f.Struct)
		if parent == nil {
			return fmt.Errorf("%w: field %q", ErrMissingParent, f.Name)
		}
		if err := e.Object(parent); err != nil {
			return err
		}
		e.String(f.Name)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		parent, err := decodeParent(d, "field")
		if err != nil {
			return nil, err
		}
		name, err := d.String()
		if err != nil {
			return nil, err
		}
		return Field{Struct: parent, Name: name}, nil
	},
}

var arrayIndexClass = &binary.Class{
	ID:  classID("ArrayIndex"),
	New: func() binary.Object { return ArrayIndex{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		a := o.(ArrayIndex)
		parent := Value(a.Array)
		if parent == nil {
			return fmt.Errorf("%w: index %d", ErrMissingParent, a.Index)
		}
		if err := e.Object(parent); err != nil {
			return err
		}
		e.Uint64(a.Index)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		parent, err := decodeParent(d, "array index")
		if err != nil {
			return nil, err
		}
		i, err := d.Uint64()
		if err != nil {
			return nil, err
		}
		return ArrayIndex{Array: parent, Index: i}, nil
	},
}

var resourceBundlesClass = &binary.Class{
	ID:  classID("ResourceBundles"),
	New: func() binary.Object { return ResourceBundles{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		encodeCapture(e, o.(ResourceBundles).Capture)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		c, err := decodeCapture(d)
		if err != nil {
			return nil, err
		}
		return ResourceBundles{Capture: c}, nil
	},
}

var deviceClass = idRootClass("Device", func(id binary.ID) binary.Object { return Device{ID: id} })

var imageInfoClass = idRootClass("ImageInfo", func(id binary.ID) binary.Object { return ImageInfo{ID: id} })

var timingInfoClass = idRootClass("TimingInfo", func(id binary.ID) binary.Object { return TimingInfo{ID: id} })

// idRootClass builds the class of a root path that carries only an ID.
func idRootClass(name string, build func(binary.ID) binary.Object) *binary.Class {
	return &binary.Class{
		ID:  classID(name),
		New: func() binary.Object { return build(binary.ID{}) },
		Encode: func(e *binary.Encoder, o binary.Object) error {
			switch p := o.(type) {
			case Device:
				e.ID(p.ID)
			case ImageInfo:
				e.ID(p.ID)
			case TimingInfo:
				e.ID(p.ID)
			default:
				return fmt.Errorf("%w: %s class given %T", binary.ErrInvalidClass, name, o)
			}
			return nil
		},
		Decode: func(d *binary.Decoder) (binary.Object, error) {
			id, err := d.ID()
			if err != nil {
				return nil, err
			}
			return build(id), nil
		},
	}
}

func encodeCapture(e *binary.Encoder, c Capture) {
	e.ID(c.ID)
}

func decodeCapture(d *binary.Decoder) (Capture, error) {
	id, err := d.ID()
	if err != nil {
		return Capture{}, err
	}
	return Capture{ID: id}, nil
}

func decodeAtoms(d *binary.Decoder) (Atoms, error) {
	c, err := decodeCapture(d)
	if err != nil {
		return Atoms{}, err
	}
	return Atoms{Capture: c}, nil
}

func encodeAtom(e *binary.Encoder, a Atom) {
	encodeCapture(e, a.Atoms.Capture)
	e.Uint64(a.Index)
}

func decodeAtom(d *binary.Decoder) (Atom, error) {
	atoms, err := decodeAtoms(d)
	if err != nil {
		return Atom{}, err
	}
	i, err := d.Uint64()
	if err != nil {
		return Atom{}, err
	}
	return Atom{Atoms: atoms, Index: i}, nil
}

func decodeParent(d *binary.Decoder, what string) (Path, error) {
	o, err := d.Object()
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("%w: %s path without parent", binary.ErrMalformedWireData, what)
	}
	p, ok := o.(Path)
	if !ok {
		return nil, fmt.Errorf("%w: %s parent is %T, not a path", binary.ErrMalformedWireData, what, o)
	}
	return p, nil
}
