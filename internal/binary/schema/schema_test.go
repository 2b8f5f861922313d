package schema

import (
	"errors"
	"reflect"
	"runtime"
	"testing"

	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/testutil/testlog"
)

func buildNamespace(t *testing.T, entities ...*binary.Entity) *binary.Namespace {
	t.Helper()
	b := binary.NewBuilder()
	if err := Register(b); err != nil {
		t.Fatalf("register schema: %v", err)
	}
	if err := RegisterEntities(b, entities...); err != nil {
		t.Fatalf("register entities: %v", err)
	}
	return b.Build()
}

func vertexEntity() *binary.Entity {
	return &binary.Entity{
		Package:  "test",
		Identity: "Vertex",
		Fields: []binary.Field{
			{Declared: "X", Type: Float32Type},
			{Declared: "Y", Type: Float32Type},
		},
	}
}

func meshEntity(vertex *binary.Entity) *binary.Entity {
	return &binary.Entity{
		Package:  "test",
		Identity: "Mesh",
		Version:  "2",
		Fields: []binary.Field{
			{Declared: "Name", Type: StringType},
			{Declared: "Origin", Type: StructOf(vertex)},
			{Declared: "Points", Type: &Slice{ValueType: StructOf(vertex)}},
			{Declared: "Bounds", Type: &Array{ValueType: Int32Type, Size: 2}},
			{Declared: "Parent", Type: &Pointer{Type: IDType}},
			{Declared: "Tag", Type: &Interface{Name: "test.Tag"}},
			{Declared: "Shape", Type: &Variant{Name: "test.Shape"}},
		},
	}
}

func TestEntityRoundTrip(t *testing.T) {
	testlog.Start(t)
	vertex := vertexEntity()
	mesh := meshEntity(vertex)
	ns := buildNamespace(t)

	data, err := binary.Encode(mesh)
	if err != nil {
		t.Fatalf("encode entity: %v", err)
	}
	o, err := binary.Decode(ns, data)
	if err != nil {
		t.Fatalf("decode entity: %v", err)
	}
	got := o.(*binary.Entity)
	if got.Signature() != mesh.Signature() {
		t.Fatalf("signature mismatch\n got=%s\nwant=%s", got.Signature(), mesh.Signature())
	}
	if got.ID() != mesh.ID() {
		t.Fatalf("derived id mismatch after round trip")
	}
}

func TestDynamicObjectRoundTrip(t *testing.T) {
	testlog.Start(t)
	vertex := vertexEntity()
	mesh := meshEntity(vertex)
	ns := buildNamespace(t, vertex, mesh)

	vertexClass, err := ns.Lookup(vertex.ID())
	if err != nil {
		t.Fatalf("lookup vertex: %v", err)
	}
	meshClass, err := ns.Lookup(mesh.ID())
	if err != nil {
		t.Fatalf("lookup mesh: %v", err)
	}
	point := func(x, y float32) *Object {
		return &Object{Klass: vertexClass, Fields: []any{x, y}}
	}
	parent := binary.NewID([]byte("parent"))
	in := &Object{Klass: meshClass, Fields: []any{
		"quad",
		point(0, 0),
		[]any{point(1, 0), point(1, 1)},
		[]any{int32(-1), int32(7)},
		parent,
		nil,
		point(9, 9),
	}}

	data, err := binary.Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	o, err := binary.Decode(ns, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out := o.(*Object)
	if out.Type() != mesh {
		t.Fatalf("decoded with wrong entity %s", out.Type().Name())
	}
	if !reflect.DeepEqual(in.Fields, out.Fields) {
		t.Fatalf("fields mismatch\n got=%v\nwant=%v", out.Fields, in.Fields)
	}
	if name, ok := out.Field("Name"); !ok || name != "quad" {
		t.Fatalf("field lookup got=%v ok=%v", name, ok)
	}
}

func TestEncodeValueTypeMismatch(t *testing.T) {
	testlog.Start(t)
	e := binary.NewEncoder()
	if err := EncodeValue(e, Uint32Type, int32(1)); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	if err := EncodeValue(e, &Array{ValueType: BoolType, Size: 2}, []any{true}); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch for short array, got %v", err)
	}
	if err := EncodeValue(e, &Variant{Name: "x"}, nil); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch for nil variant, got %v", err)
	}
}

func TestBoxRoundTrip(t *testing.T) {
	testlog.Start(t)
	ns := buildNamespace(t)
	in := &Box{Type: &Slice{ValueType: Uint16Type}, Value: []any{uint16(1), uint16(2)}}
	data, err := binary.Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	o, err := binary.Decode(ns, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out := o.(*Box)
	if out.Type.String() != "[]uint16" {
		t.Fatalf("unexpected type %v", out.Type)
	}
	if !reflect.DeepEqual(out.Value, in.Value) {
		t.Fatalf("value got=%v want=%v", out.Value, in.Value)
	}
}

func TestArraySizeIsBounded(t *testing.T) {
	testlog.Start(t)
	ns := buildNamespace(t)
	huge := &Array{ValueType: Uint8Type, Size: 1 << 26}

	data, err := binary.Encode(huge)
	if err != nil {
		t.Fatalf("encode type: %v", err)
	}
	if _, err := binary.Decode(ns, data); !errors.Is(err, binary.ErrMalformedWireData) {
		t.Fatalf("oversized array type: expected malformed, got %v", err)
	}

	d := binary.NewDecoder(ns, []byte{1, 2, 3})
	if _, err := DecodeValue(d, huge); !errors.Is(err, binary.ErrMalformedWireData) {
		t.Fatalf("oversized array value: expected malformed, got %v", err)
	}
	if d.Offset() != 0 {
		t.Fatalf("rejected count consumed %d bytes", d.Offset())
	}

	// Within a raised limit, a short buffer still fails without sizing the
	// result from the declared count.
	lenient := binary.WithLimits(binary.Limits{MaxStringBytes: 16, MaxSliceLen: 1 << 30})
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	_, err = DecodeValue(binary.NewDecoder(ns, []byte{1, 2, 3}, lenient), huge)
	runtime.ReadMemStats(&after)
	if !errors.Is(err, binary.ErrMalformedWireData) {
		t.Fatalf("short array: expected malformed, got %v", err)
	}
	if grown := after.TotalAlloc - before.TotalAlloc; grown > 1<<20 {
		t.Fatalf("short array allocated %d bytes", grown)
	}
}

func TestNewClassRejectsUntypedField(t *testing.T) {
	testlog.Start(t)
	_, err := NewClass(&binary.Entity{Identity: "Broken", Fields: []binary.Field{{Declared: "A"}}})
	if !errors.Is(err, binary.ErrInvalidClass) {
		t.Fatalf("expected ErrInvalidClass, got %v", err)
	}
}

func TestTypeStrings(t *testing.T) {
	testlog.Start(t)
	cases := map[binary.Type]string{
		&Slice{ValueType: &Interface{Name: "atom.Extra"}}: "[]atom.Extra",
		&Array{ValueType: Uint8Type, Size: 4}:             "[4]uint8",
		&Array{Alias: "Mat4", ValueType: Float32Type}:     "Mat4",
		&Pointer{Type: StringType}:                        "*string",
		&Variant{Name: "atom.Atom"}:                       "variant atom.Atom",
	}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Fatalf("got=%q want=%q", got, want)
		}
	}
}
