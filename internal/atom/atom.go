package atom

import (
	"errors"
	"fmt"

	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/binary/schema"
)

var (
	ErrIndexOutOfRange = errors.New("atom: index out of range")
	ErrNotAnAtom       = errors.New("atom: object is not an atom")
)

// Atom is one recorded command.
type Atom interface {
	binary.Object
	Name() string
	FieldCount() int
	FieldInfo(i int) binary.Field
	FieldValue(i int) any
	// Observations returns the memory observations attached to the atom, or
	// nil when it has none.
	Observations() *Observations
	IsEndOfFrame() bool
}

// IndexOutOfRangeError reports a List access outside [0, Len).
type IndexOutOfRangeError struct {
	Index int
	Len   int
}

func (e IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("atom: index %d out of range [0:%d)", e.Index, e.Len)
}

func (e IndexOutOfRangeError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

// Wrap presents a decoded object as an atom.
func Wrap(o binary.Object) (Atom, error) {
	switch o := o.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil", ErrNotAnAtom)
	case Atom:
		return o, nil
	case *schema.Object:
		return NewDynamic(o), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotAnAtom, o)
	}
}

// Unwrap returns the object that carries a's wire encoding.
func Unwrap(a Atom) binary.Object {
	if d, ok := a.(*Dynamic); ok {
		return d.Object
	}
	return a
}
