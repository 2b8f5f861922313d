package atom

import (
	"fmt"

	"github.com/danmuck/gfxtrace/internal/binary"
)

// Extra is additional data recorded alongside an atom.
type Extra interface {
	binary.Object
}

// Extras is the extras field of a generated atom.
type Extras []Extra

// Observations returns the first observation set among the extras.
func (e Extras) Observations() *Observations {
	for _, x := range e {
		if o, ok := x.(*Observations); ok {
			return o
		}
	}
	return nil
}

// MemoryRange is Size bytes starting at Base.
type MemoryRange struct {
	Base uint64
	Size uint64
}

func (r MemoryRange) End() uint64 {
	return r.Base + r.Size
}

func (r MemoryRange) Overlaps(o MemoryRange) bool {
	return r.Base < o.End() && o.Base < r.End()
}

func (r MemoryRange) String() string {
	return fmt.Sprintf("[0x%x:0x%x]", r.Base, r.End())
}

// Observation is a range of application memory and the ID of the blob holding
// its content.
type Observation struct {
	Range MemoryRange
	ID    binary.ID
}

// Observations are the reads an atom made before executing and the writes it
// made after.
type Observations struct {
	Reads  []Observation
	Writes []Observation
}

var observationsClass = &binary.Class{
	ID:  binary.NewID([]byte("atom.Observations")),
	New: func() binary.Object { return &Observations{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		obs := o.(*Observations)
		encodeObservations(e, obs.Reads)
		encodeObservations(e, obs.Writes)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		obs := &Observations{}
		var err error
		if obs.Reads, err = decodeObservations(d); err != nil {
			return nil, err
		}
		if obs.Writes, err = decodeObservations(d); err != nil {
			return nil, err
		}
		return obs, nil
	},
}

func (o *Observations) Class() *binary.Class {
	return observationsClass
}

func encodeObservations(e *binary.Encoder, list []Observation) {
	e.Uint32(uint32(len(list)))
	for _, o := range list {
		e.Uint64(o.Range.Base)
		e.Uint64(o.Range.Size)
		e.ID(o.ID)
	}
}

func decodeObservations(d *binary.Decoder) ([]Observation, error) {
	n, err := d.Count()
	if err != nil || n == 0 {
		return nil, err
	}
	list := make([]Observation, n)
	for i := range list {
		if list[i].Range.Base, err = d.Uint64(); err != nil {
			return nil, err
		}
		if list[i].Range.Size, err = d.Uint64(); err != nil {
			return nil, err
		}
		if list[i].ID, err = d.ID(); err != nil {
			return nil, err
		}
	}
	return list, nil
}
