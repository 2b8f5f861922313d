package gles

import (
	"github.com/danmuck/gfxtrace/internal/atom"
	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/binary/schema"
)

const docBase = "https://www.khronos.org/registry/OpenGL-Refpages/es3.0/html/"

var (
	glenumType     = &schema.Primitive{Name: "GLenum", Method: schema.Uint32}
	glbitfieldType = &schema.Primitive{Name: "GLbitfield", Method: schema.Uint32}
	glintType      = &schema.Primitive{Name: "GLint", Method: schema.Int32}
	glsizeiType    = &schema.Primitive{Name: "GLsizei", Method: schema.Int32}
	glsizeiptrType = &schema.Primitive{Name: "GLsizeiptr", Method: schema.Int64}
	eglbooleanType = &schema.Primitive{Name: "EGLBoolean", Method: schema.Uint32}
	extrasType     = &schema.Slice{Alias: "atom.Extras", ValueType: &schema.Interface{Name: atom.ExtraTypeName}}
)

// Entities lists the entities of every atom in this package.
func Entities() []*binary.Entity {
	return []*binary.Entity{
		glClearEntity,
		glDrawArraysEntity,
		glBufferDataEntity,
		eglSwapBuffersEntity,
	}
}

// Register adds the class of every atom in this package to b.
func Register(b *binary.Builder) error {
	return b.RegisterAll(
		glClearClass,
		glDrawArraysClass,
		glBufferDataClass,
		eglSwapBuffersClass,
	)
}

func encodeExtras(e *binary.Encoder, extras atom.Extras) error {
	e.Uint32(uint32(len(extras)))
	for _, x := range extras {
		if err := e.Object(x); err != nil {
			return err
		}
	}
	return nil
}

func decodeExtras(d *binary.Decoder) (atom.Extras, error) {
	n, err := d.Count()
	if err != nil || n == 0 {
		return nil, err
	}
	extras := make(atom.Extras, 0, n)
	for i := uint32(0); i < n; i++ {
		o, err := d.Object()
		if err != nil {
			return nil, err
		}
		extras = append(extras, o)
	}
	return extras, nil
}
