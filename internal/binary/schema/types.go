package schema

import (
	"errors"
	"fmt"

	"github.com/danmuck/gfxtrace/internal/binary"
)

var ErrTypeMismatch = errors.New("schema: value does not match type")

// Method selects the wire primitive used for a Primitive type.
type Method uint8

const (
	Bool Method = iota + 1
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
	String
	ID
)

var methodNames = map[Method]string{
	Bool:    "Bool",
	Int8:    "Int8",
	Uint8:   "Uint8",
	Int16:   "Int16",
	Uint16:  "Uint16",
	Int32:   "Int32",
	Uint32:  "Uint32",
	Int64:   "Int64",
	Uint64:  "Uint64",
	Float32: "Float32",
	Float64: "Float64",
	String:  "String",
	ID:      "ID",
}

func (m Method) String() string {
	if name, ok := methodNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Method(%d)", uint8(m))
}

// Primitive is a named scalar encoded with Method.
type Primitive struct {
	Name   string
	Method Method
}

// Array is a fixed-size sequence.
type Array struct {
	Alias     string
	ValueType binary.Type
	Size      uint32
}

// Slice is a length-prefixed sequence.
type Slice struct {
	Alias     string
	ValueType binary.Type
}

// Pointer is an optional value of Type.
type Pointer struct {
	Type binary.Type
}

// Struct is a value of a registered class encoded inline, without a
// discriminator.
type Struct struct {
	Name string
	ID   binary.ID
}

// Interface is a nullable polymorphic value encoded as an object.
type Interface struct {
	Name string
}

// Variant is a non-null polymorphic value.
type Variant struct {
	Name string
}

var (
	BoolType    = &Primitive{Name: "bool", Method: Bool}
	Int8Type    = &Primitive{Name: "int8", Method: Int8}
	Uint8Type   = &Primitive{Name: "uint8", Method: Uint8}
	Int16Type   = &Primitive{Name: "int16", Method: Int16}
	Uint16Type  = &Primitive{Name: "uint16", Method: Uint16}
	Int32Type   = &Primitive{Name: "int32", Method: Int32}
	Uint32Type  = &Primitive{Name: "uint32", Method: Uint32}
	Int64Type   = &Primitive{Name: "int64", Method: Int64}
	Uint64Type  = &Primitive{Name: "uint64", Method: Uint64}
	Float32Type = &Primitive{Name: "float32", Method: Float32}
	Float64Type = &Primitive{Name: "float64", Method: Float64}
	StringType  = &Primitive{Name: "string", Method: String}
	IDType      = &Primitive{Name: "binary.ID", Method: ID}
)

// StructOf returns the Struct type referring to entity.
func StructOf(entity *binary.Entity) *Struct {
	return &Struct{Name: entity.Name(), ID: entity.ID()}
}

func (t *Primitive) String() string { return t.Name }

func (t *Array) String() string {
	if t.Alias != "" {
		return t.Alias
	}
	return fmt.Sprintf("[%d]%v", t.Size, t.ValueType)
}

func (t *Slice) String() string {
	if t.Alias != "" {
		return t.Alias
	}
	return fmt.Sprintf("[]%v", t.ValueType)
}

func (t *Pointer) String() string { return fmt.Sprintf("*%v", t.Type) }

func (t *Struct) String() string { return t.Name }

func (t *Interface) String() string { return t.Name }

func (t *Variant) String() string { return "variant " + t.Name }

func (t *Primitive) Class() *binary.Class { return primitiveClass }
func (t *Array) Class() *binary.Class     { return arrayClass }
func (t *Slice) Class() *binary.Class     { return sliceClass }
func (t *Pointer) Class() *binary.Class   { return pointerClass }
func (t *Struct) Class() *binary.Class    { return structClass }
func (t *Interface) Class() *binary.Class { return interfaceClass }
func (t *Variant) Class() *binary.Class   { return variantClass }

var primitiveClass = &binary.Class{
	ID:  binary.NewID([]byte("schema.Primitive")),
	New: func() binary.Object { return &Primitive{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		t := o.(*Primitive)
		e.String(t.Name)
		e.Uint8(uint8(t.Method))
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		name, err := d.String()
		if err != nil {
			return nil, err
		}
		m, err := d.Uint8()
		if err != nil {
			return nil, err
		}
		if _, ok := methodNames[Method(m)]; !ok {
			return nil, fmt.Errorf("%w: primitive %q has unknown method %d", binary.ErrMalformedWireData, name, m)
		}
		return &Primitive{Name: name, Method: Method(m)}, nil
	},
}

var arrayClass = &binary.Class{
	ID:  binary.NewID([]byte("schema.Array")),
	New: func() binary.Object { return &Array{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		t := o.(*Array)
		e.String(t.Alias)
		if err := e.Object(t.ValueType); err != nil {
			return err
		}
		e.Uint32(t.Size)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		t := &Array{}
		var err error
		if t.Alias, err = d.String(); err != nil {
			return nil, err
		}
		if t.ValueType, err = decodeType(d); err != nil {
			return nil, err
		}
		if t.Size, err = d.Uint32(); err != nil {
			return nil, err
		}
		if err := d.CheckCount(t.Size); err != nil {
			return nil, err
		}
		return t, nil
	},
}

var sliceClass = &binary.Class{
	ID:  binary.NewID([]byte("schema.Slice")),
	New: func() binary.Object { return &Slice{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		t := o.(*Slice)
		e.String(t.Alias)
		return e.Object(t.ValueType)
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		t := &Slice{}
		var err error
		if t.Alias, err = d.String(); err != nil {
			return nil, err
		}
		if t.ValueType, err = decodeType(d); err != nil {
			return nil, err
		}
		return t, nil
	},
}

var pointerClass = &binary.Class{
	ID:  binary.NewID([]byte("schema.Pointer")),
	New: func() binary.Object { return &Pointer{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		return e.Object(o.(*Pointer).Type)
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		t, err := decodeType(d)
		if err != nil {
			return nil, err
		}
		return &Pointer{Type: t}, nil
	},
}

var structClass = &binary.Class{
	ID:  binary.NewID([]byte("schema.Struct")),
	New: func() binary.Object { return &Struct{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		t := o.(*Struct)
		e.String(t.Name)
		e.ID(t.ID)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		t := &Struct{}
		var err error
		if t.Name, err = d.String(); err != nil {
			return nil, err
		}
		if t.ID, err = d.ID(); err != nil {
			return nil, err
		}
		return t, nil
	},
}

var interfaceClass = &binary.Class{
	ID:  binary.NewID([]byte("schema.Interface")),
	New: func() binary.Object { return &Interface{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		e.String(o.(*Interface).Name)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		name, err := d.String()
		if err != nil {
			return nil, err
		}
		return &Interface{Name: name}, nil
	},
}

var variantClass = &binary.Class{
	ID:  binary.NewID([]byte("schema.Variant")),
	New: func() binary.Object { return &Variant{} },
	Encode: func(e *binary.Encoder, o binary.Object) error {
		e.String(o.(*Variant).Name)
		return nil
	},
	Decode: func(d *binary.Decoder) (binary.Object, error) {
		name, err := d.String()
		if err != nil {
			return nil, err
		}
		return &Variant{Name: name}, nil
	},
}

func decodeType(d *binary.Decoder) (binary.Type, error) {
	o, err := d.Object()
	if err != nil {
		return nil, err
	}
	t, ok := o.(binary.Type)
	if !ok || t == nil {
		return nil, fmt.Errorf("%w: expected a type, got %T", binary.ErrMalformedWireData, o)
	}
	return t, nil
}
