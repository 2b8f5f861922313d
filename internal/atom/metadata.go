package atom

import (
	"sync"
	"sync/atomic"

	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/binary/schema"
)

// ExtraTypeName is the interface name of the extras slice element type.
const ExtraTypeName = "atom.Extra"

// Metadata annotates an atom entity. It travels in Entity.Metadata.
//
// The field indices are resolved from the entity the first time Find sees the
// metadata and never change afterwards. -1 means the entity has no such
// field.
type Metadata struct {
	DisplayName      string
	EndOfFrame       bool
	DrawCall         bool
	DocumentationURL string

	once        sync.Once
	prepared    atomic.Bool
	resultIndex int
	extrasIndex int
	scans       int
}

// NoMetadata is returned by Find for entities that carry no annotation.
var NoMetadata = &Metadata{}

var metadataEntity = &binary.Entity{
	Package:  "atom",
	Identity: "Metadata",
	Fields: []binary.Field{
		{Declared: "DisplayName", Type: schema.StringType},
		{Declared: "EndOfFrame", Type: schema.BoolType},
		{Declared: "DrawCall", Type: schema.BoolType},
		{Declared: "DocumentationURL", Type: schema.StringType},
	},
}

var metadataClass = &binary.Class{
	Entity: metadataEntity,
	New:    func() binary.Object { return &Metadata{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		m := o.(*Metadata)
		e.String(m.DisplayName)
		e.Bool(m.EndOfFrame)
		e.Bool(m.DrawCall)
		e.String(m.DocumentationURL)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		m := &Metadata{}
		var err error
		if m.DisplayName, err = d.String(); err != nil {
			return nil, err
		}
		if m.EndOfFrame, err = d.Bool(); err != nil {
			return nil, err
		}
		if m.DrawCall, err = d.Bool(); err != nil {
			return nil, err
		}
		if m.DocumentationURL, err = d.String(); err != nil {
			return nil, err
		}
		return m, nil
	},
}

func (m *Metadata) Class() *binary.Class {
	return metadataClass
}

// ResultIndex is the index of the field declared "Result", or -1.
func (m *Metadata) ResultIndex() int {
	if !m.prepared.Load() {
		return -1
	}
	return m.resultIndex
}

// ExtrasIndex is the index of the []atom.Extra field, or -1.
func (m *Metadata) ExtrasIndex() int {
	if !m.prepared.Load() {
		return -1
	}
	return m.extrasIndex
}

// Find returns the metadata attached to entity, resolved against its fields,
// or NoMetadata.
func Find(entity *binary.Entity) *Metadata {
	if entity == nil {
		return NoMetadata
	}
	for _, o := range entity.Metadata {
		if m, ok := o.(*Metadata); ok {
			m.prepare(entity)
			return m
		}
	}
	return NoMetadata
}

func (m *Metadata) prepare(entity *binary.Entity) {
	m.once.Do(func() {
		m.scans++
		m.resultIndex = -1
		m.extrasIndex = -1
		for i, f := range entity.Fields {
			if f.Declared == "Result" && m.resultIndex < 0 {
				m.resultIndex = i
			}
			if isExtrasType(f.Type) && m.extrasIndex < 0 {
				m.extrasIndex = i
			}
		}
		m.prepared.Store(true)
	})
}

func isExtrasType(t binary.Type) bool {
	s, ok := t.(*schema.Slice)
	if !ok {
		return false
	}
	elem, ok := s.ValueType.(*schema.Interface)
	return ok && elem.Name == ExtraTypeName
}
