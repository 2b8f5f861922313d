package gles

import (
	"fmt"

	"github.com/danmuck/gfxtrace/internal/atom"
	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/binary/schema"
)

// GlClear clears the buffers selected by Mask.
type GlClear struct {
	Mask uint32
}

var glClearEntity = &binary.Entity{
	Package:  "gles",
	Identity: "GlClear",
	Display:  "glClear",
	Fields: []binary.Field{
		{Declared: "Mask", Type: glbitfieldType},
	},
	Metadata: []binary.Object{&atom.Metadata{
		DisplayName:      "glClear",
		DocumentationURL: docBase + "glClear.xhtml",
	}},
}

var glClearClass = &binary.Class{
	Entity: glClearEntity,
	New:    func() binary.Object { return &GlClear{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		e.Uint32(o.(*GlClear).Mask)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		mask, err := d.Uint32()
		if err != nil {
			return nil, err
		}
		return &GlClear{Mask: mask}, nil
	},
}

func (a *GlClear) Class() *binary.Class             { return glClearClass }
func (a *GlClear) Name() string                     { return atom.Find(glClearEntity).DisplayName }
func (a *GlClear) FieldCount() int                  { return len(glClearEntity.Fields) }
func (a *GlClear) FieldInfo(i int) binary.Field     { return glClearEntity.Fields[i] }
func (a *GlClear) Observations() *atom.Observations { return nil }
func (a *GlClear) IsEndOfFrame() bool               { return atom.Find(glClearEntity).EndOfFrame }
func (a *GlClear) String() string                   { return fmt.Sprintf("glClear(0x%x)", a.Mask) }

func (a *GlClear) FieldValue(i int) any {
	switch i {
	case 0:
		return a.Mask
	}
	return nil
}

// GlDrawArrays draws IndexCount vertices starting at FirstIndex.
type GlDrawArrays struct {
	DrawMode   uint32
	FirstIndex int32
	IndexCount int32
}

var glDrawArraysEntity = &binary.Entity{
	Package:  "gles",
	Identity: "GlDrawArrays",
	Display:  "glDrawArrays",
	Fields: []binary.Field{
		{Declared: "DrawMode", Type: glenumType},
		{Declared: "FirstIndex", Type: glintType},
		{Declared: "IndexCount", Type: glsizeiType},
	},
	Metadata: []binary.Object{&atom.Metadata{
		DisplayName:      "glDrawArrays",
		DrawCall:         true,
		DocumentationURL: docBase + "glDrawArrays.xhtml",
	}},
}

var glDrawArraysClass = &binary.Class{
	Entity: glDrawArraysEntity,
	New:    func() binary.Object { return &GlDrawArrays{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		a := o.(*GlDrawArrays)
		e.Uint32(a.DrawMode)
		e.Int32(a.FirstIndex)
		e.Int32(a.IndexCount)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		a := &GlDrawArrays{}
		var err error
		if a.DrawMode, err = d.Uint32(); err != nil {
			return nil, err
		}
		if a.FirstIndex, err = d.Int32(); err != nil {
			return nil, err
		}
		if a.IndexCount, err = d.Int32(); err != nil {
			return nil, err
		}
		return a, nil
	},
}

func (a *GlDrawArrays) Class() *binary.Class             { return glDrawArraysClass }
func (a *GlDrawArrays) Name() string                     { return atom.Find(glDrawArraysEntity).DisplayName }
func (a *GlDrawArrays) FieldCount() int                  { return len(glDrawArraysEntity.Fields) }
func (a *GlDrawArrays) FieldInfo(i int) binary.Field     { return glDrawArraysEntity.Fields[i] }
func (a *GlDrawArrays) Observations() *atom.Observations { return nil }
func (a *GlDrawArrays) IsEndOfFrame() bool               { return atom.Find(glDrawArraysEntity).EndOfFrame }

func (a *GlDrawArrays) FieldValue(i int) any {
	switch i {
	case 0:
		return a.DrawMode
	case 1:
		return a.FirstIndex
	case 2:
		return a.IndexCount
	}
	return nil
}

// GlBufferData uploads Size bytes of the blob Data to the buffer bound to
// Target. The uploaded memory is recorded as a read observation.
type GlBufferData struct {
	Target uint32
	Result uint32
	Extras atom.Extras
	Size   int64
	Data   binary.ID
	Usage  uint32
}

var glBufferDataEntity = &binary.Entity{
	Package:  "gles",
	Identity: "GlBufferData",
	Display:  "glBufferData",
	Fields: []binary.Field{
		{Declared: "Target", Type: glenumType},
		{Declared: "Result", Type: glenumType},
		{Declared: "Extras", Type: extrasType},
		{Declared: "Size", Type: glsizeiptrType},
		{Declared: "Data", Type: schema.IDType},
		{Declared: "Usage", Type: glenumType},
	},
	Metadata: []binary.Object{&atom.Metadata{
		DisplayName:      "glBufferData",
		DocumentationURL: docBase + "glBufferData.xhtml",
	}},
}

var glBufferDataClass = &binary.Class{
	Entity: glBufferDataEntity,
	New:    func() binary.Object { return &GlBufferData{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		a := o.(*GlBufferData)
		e.Uint32(a.Target)
		e.Uint32(a.Result)
		if err := encodeExtras(e, a.Extras); err != nil {
			return err
		}
		e.Int64(a.Size)
		e.ID(a.Data)
		e.Uint32(a.Usage)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		a := &GlBufferData{}
		var err error
		if a.Target, err = d.Uint32(); err != nil {
			return nil, err
		}
		if a.Result, err = d.Uint32(); err != nil {
			return nil, err
		}
		if a.Extras, err = decodeExtras(d); err != nil {
			return nil, err
		}
		if a.Size, err = d.Int64(); err != nil {
			return nil, err
		}
		if a.Data, err = d.ID(); err != nil {
			return nil, err
		}
		if a.Usage, err = d.Uint32(); err != nil {
			return nil, err
		}
		return a, nil
	},
}

func (a *GlBufferData) Class() *binary.Class             { return glBufferDataClass }
func (a *GlBufferData) Name() string                     { return atom.Find(glBufferDataEntity).DisplayName }
func (a *GlBufferData) FieldCount() int                  { return len(glBufferDataEntity.Fields) }
func (a *GlBufferData) FieldInfo(i int) binary.Field     { return glBufferDataEntity.Fields[i] }
func (a *GlBufferData) Observations() *atom.Observations { return a.Extras.Observations() }
func (a *GlBufferData) IsEndOfFrame() bool               { return atom.Find(glBufferDataEntity).EndOfFrame }

func (a *GlBufferData) FieldValue(i int) any {
	switch i {
	case 0:
		return a.Target
	case 1:
		return a.Result
	case 2:
		return a.Extras
	case 3:
		return a.Size
	case 4:
		return a.Data
	case 5:
		return a.Usage
	}
	return nil
}

// EglSwapBuffers posts the surface's color buffer and ends the frame.
type EglSwapBuffers struct {
	Display uint64
	Surface uint64
	Result  uint32
}

var eglSwapBuffersEntity = &binary.Entity{
	Package:  "gles",
	Identity: "EglSwapBuffers",
	Display:  "eglSwapBuffers",
	Fields: []binary.Field{
		{Declared: "Display", Type: schema.Uint64Type},
		{Declared: "Surface", Type: schema.Uint64Type},
		{Declared: "Result", Type: eglbooleanType},
	},
	Metadata: []binary.Object{&atom.Metadata{
		DisplayName:      "eglSwapBuffers",
		EndOfFrame:       true,
		DocumentationURL: "https://www.khronos.org/registry/EGL/sdk/docs/man/html/eglSwapBuffers.xhtml",
	}},
}

var eglSwapBuffersClass = &binary.Class{
	Entity: eglSwapBuffersEntity,
	New:    func() binary.Object { return &EglSwapBuffers{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		a := o.(*EglSwapBuffers)
		e.Uint64(a.Display)
		e.Uint64(a.Surface)
		e.Uint32(a.Result)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		a := &EglSwapBuffers{}
		var err error
		if a.Display, err = d.Uint64(); err != nil {
			return nil, err
		}
		if a.Surface, err = d.Uint64(); err != nil {
			return nil, err
		}
		if a.Result, err = d.Uint32(); err != nil {
			return nil, err
		}
		return a, nil
	},
}

func (a *EglSwapBuffers) Class() *binary.Class             { return eglSwapBuffersClass }
func (a *EglSwapBuffers) Name() string                     { return atom.Find(eglSwapBuffersEntity).DisplayName }
func (a *EglSwapBuffers) FieldCount() int                  { return len(eglSwapBuffersEntity.Fields) }
func (a *EglSwapBuffers) FieldInfo(i int) binary.Field     { return eglSwapBuffersEntity.Fields[i] }
func (a *EglSwapBuffers) Observations() *atom.Observations { return nil }
func (a *EglSwapBuffers) IsEndOfFrame() bool               { return atom.Find(eglSwapBuffersEntity).EndOfFrame }

func (a *EglSwapBuffers) FieldValue(i int) any {
	switch i {
	case 0:
		return a.Display
	case 1:
		return a.Surface
	case 2:
		return a.Result
	}
	return nil
}
