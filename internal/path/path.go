package path

import (
	"github.com/danmuck/gfxtrace/internal/binary"
)

// Path is a reference to a remote object. The set of implementations is
// closed to this package.
type Path interface {
	binary.Object
	// Parent returns the enclosing path, or nil for a root.
	Parent() Path
	String() string
	isPath()
}

// Capture is the root of everything recorded in one trace.
type Capture struct {
	ID binary.ID
}

// Atoms is the full command stream of a capture.
type Atoms struct {
	Capture Capture
}

// Atom is one command of a capture's stream.
type Atom struct {
	Atoms Atoms
	Index uint64
}

// State is the driver state after an atom has executed.
type State struct {
	After Atom
}

// MemoryRange is Size bytes of pool Pool starting at Address, observed after
// an atom.
type MemoryRange struct {
	After   Atom
	Pool    uint32
	Address uint64
	Size    uint64
}

// Resource is a GPU resource as it exists after an atom.
type Resource struct {
	After Atom
	ID    binary.ID
}

// Field selects a named field of the value at Struct.
type Field struct {
	Struct Path
	Name   string
}

// ArrayIndex selects one element of the sequence at Array.
type ArrayIndex struct {
	Array Path
	Index uint64
}

// ResourceBundles lists the resources referenced by a capture.
type ResourceBundles struct {
	Capture Capture
}

// Device identifies a replay device.
type Device struct {
	ID binary.ID
}

// ImageInfo identifies a rendered image stored by the service.
type ImageInfo struct {
	ID binary.ID
}

// TimingInfo identifies a timing report stored by the service.
type TimingInfo struct {
	ID binary.ID
}

func NewCapture(id binary.ID) Capture { return Capture{ID: id} }

func (c Capture) Atoms() Atoms { return Atoms{Capture: c} }

func (c Capture) ResourceBundles() ResourceBundles { return ResourceBundles{Capture: c} }

func (a Atoms) Index(i uint64) Atom { return Atom{Atoms: a, Index: i} }

func (a Atom) StateAfter() State { return State{After: a} }

func (a Atom) ResourceAfter(id binary.ID) Resource { return Resource{After: a, ID: id} }

func (a Atom) MemoryAfter(pool uint32, address, size uint64) MemoryRange {
	return MemoryRange{After: a, Pool: pool, Address: address, Size: size}
}

func (a Atom) Field(name string) Field { return Field{Struct: a, Name: name} }

func (s State) Field(name string) Field { return Field{Struct: s, Name: name} }

func (f Field) Field(name string) Field { return Field{Struct: f, Name: name} }

func (f Field) Index(i uint64) ArrayIndex { return ArrayIndex{Array: f, Index: i} }

func (a ArrayIndex) Field(name string) Field { return Field{Struct: a, Name: name} }

// Elem selects element i of the sequence at a.
func (a ArrayIndex) Elem(i uint64) ArrayIndex { return ArrayIndex{Array: a, Index: i} }

// End returns the first address past the range.
func (m MemoryRange) End() uint64 { return m.Address + m.Size }

func (Capture) Parent() Path           { return nil }
func (Device) Parent() Path            { return nil }
func (ImageInfo) Parent() Path         { return nil }
func (TimingInfo) Parent() Path        { return nil }
func (p Atoms) Parent() Path           { return p.Capture }
func (p Atom) Parent() Path            { return p.Atoms }
func (p State) Parent() Path           { return p.After }
func (p MemoryRange) Parent() Path     { return p.After }
func (p Resource) Parent() Path        { return p.After }
func (p Field) Parent() Path           { return p.Struct }
func (p ArrayIndex) Parent() Path      { return p.Array }
func (p ResourceBundles) Parent() Path { return p.Capture }

func (Capture) isPath()         {}
func (Atoms) isPath()           {}
func (Atom) isPath()            {}
func (State) isPath()           {}
func (MemoryRange) isPath()     {}
func (Resource) isPath()        {}
func (Field) isPath()           {}
func (ArrayIndex) isPath()      {}
func (ResourceBundles) isPath() {}
func (Device) isPath()          {}
func (ImageInfo) isPath()       {}
func (TimingInfo) isPath()      {}

// StateAfter returns the state after a, or nil when a is nil.
func StateAfter(a *Atom) Path {
	if a == nil {
		return nil
	}
	return a.StateAfter()
}

// ResourceAfter returns resource id after a, or nil when a is nil.
func ResourceAfter(a *Atom, id binary.ID) Path {
	if a == nil {
		return nil
	}
	return a.ResourceAfter(id)
}

// MemoryAfter returns the memory range after a, or nil when a is nil.
func MemoryAfter(a *Atom, pool uint32, address, size uint64) Path {
	if a == nil {
		return nil
	}
	return a.MemoryAfter(pool, address, size)
}

// FieldOf returns the named field of p, or nil when p is nil.
func FieldOf(p Path, name string) Path {
	if p = Value(p); p == nil {
		return nil
	}
	return Field{Struct: p, Name: name}
}

// IndexOf returns element i of p, or nil when p is nil.
func IndexOf(p Path, i uint64) Path {
	if p = Value(p); p == nil {
		return nil
	}
	return ArrayIndex{Array: p, Index: i}
}

// Value returns p with any pointer to a path kind replaced by the value it
// points to. A nil pointer becomes a nil Path.
func Value(p Path) Path {
	switch v := p.(type) {
	case *Capture:
		return deref(v)
	case *Atoms:
		return deref(v)
	case *Atom:
		return deref(v)
	case *State:
		return deref(v)
	case *MemoryRange:
		return deref(v)
	case *Resource:
		return deref(v)
	case *Field:
		return deref(v)
	case *ArrayIndex:
		return deref(v)
	case *ResourceBundles:
		return deref(v)
	case *Device:
		return deref(v)
	case *ImageInfo:
		return deref(v)
	case *TimingInfo:
		return deref(v)
	}
	return p
}

func deref[T Path](p *T) Path {
	if p == nil {
		return nil
	}
	return *p
}

// Rebase returns p with its capture replaced by c. Paths that are not rooted
// at a capture come back unchanged.
func Rebase(p Path, c Capture) Path {
	switch v := Value(p).(type) {
	case Capture:
		return c
	case Atoms:
		return c.Atoms()
	case Atom:
		return c.Atoms().Index(v.Index)
	case State:
		return c.Atoms().Index(v.After.Index).StateAfter()
	case MemoryRange:
		v.After = c.Atoms().Index(v.After.Index)
		return v
	case Resource:
		v.After = c.Atoms().Index(v.After.Index)
		return v
	case ResourceBundles:
		return c.ResourceBundles()
	case Field:
		if v.Struct != nil {
			v.Struct = Rebase(v.Struct, c)
		}
		return v
	case ArrayIndex:
		if v.Array != nil {
			v.Array = Rebase(v.Array, c)
		}
		return v
	default:
		return v
	}
}

// CaptureOf ascends from p to its capture. Paths rooted elsewhere report
// false.
func CaptureOf(p Path) (Capture, bool) {
	for p = Value(p); p != nil; p = Value(p) {
		if c, ok := p.(Capture); ok {
			return c, true
		}
		p = p.Parent()
	}
	return Capture{}, false
}

// AtomOf returns the nearest enclosing atom path of p.
func AtomOf(p Path) (Atom, bool) {
	for p = Value(p); p != nil; p = Value(p) {
		if a, ok := p.(Atom); ok {
			return a, true
		}
		p = p.Parent()
	}
	return Atom{}, false
}
