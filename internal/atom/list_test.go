package atom_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/gfxtrace/internal/atom"
	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/binary/schema"
	"github.com/danmuck/gfxtrace/internal/gles"
	"github.com/danmuck/gfxtrace/internal/testutil/testlog"
)

func namespace(t *testing.T, entities ...*binary.Entity) *binary.Namespace {
	t.Helper()
	b := binary.NewBuilder()
	for _, register := range []func(*binary.Builder) error{schema.Register, atom.Register, gles.Register} {
		if err := register(b); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	if err := schema.RegisterEntities(b, entities...); err != nil {
		t.Fatalf("register entities: %v", err)
	}
	return b.Build()
}

func sampleList() *atom.List {
	blob := binary.NewID([]byte("vertices"))
	return &atom.List{Atoms: []atom.Atom{
		&gles.GlClear{Mask: 0x4100},
		&gles.GlBufferData{
			Target: 0x8892,
			Size:   64,
			Data:   blob,
			Usage:  0x88e4,
			Extras: atom.Extras{&atom.Observations{
				Reads: []atom.Observation{{Range: atom.MemoryRange{Base: 0x1000, Size: 64}, ID: blob}},
			}},
		},
		&gles.GlDrawArrays{DrawMode: 4, FirstIndex: 0, IndexCount: 3},
		&gles.EglSwapBuffers{Display: 1, Surface: 2, Result: 1},
	}}
}

func TestHeterogeneousListRoundTrip(t *testing.T) {
	testlog.Start(t)
	ns := namespace(t)
	in := sampleList()

	data, err := binary.Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	o, err := binary.Decode(ns, data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out := o.(*atom.List)
	if out.Len() != in.Len() {
		t.Fatalf("len got=%d want=%d", out.Len(), in.Len())
	}
	for i := range in.Atoms {
		if reflect.TypeOf(out.Atoms[i]) != reflect.TypeOf(in.Atoms[i]) {
			t.Fatalf("atom %d type got=%T want=%T", i, out.Atoms[i], in.Atoms[i])
		}
		if !reflect.DeepEqual(out.Atoms[i], in.Atoms[i]) {
			t.Fatalf("atom %d got=%+v want=%+v", i, out.Atoms[i], in.Atoms[i])
		}
	}

	obs := out.Atoms[1].Observations()
	if obs == nil || len(obs.Reads) != 1 || obs.Reads[0].Range.Size != 64 {
		t.Fatalf("observations lost: %+v", obs)
	}
	if ends := out.FrameEnds(); len(ends) != 1 || ends[0] != 3 {
		t.Fatalf("frame ends got=%v", ends)
	}
}

func TestGetOutOfRange(t *testing.T) {
	testlog.Start(t)
	l := sampleList()
	if a, err := l.Get(2); err != nil || a.Name() != "glDrawArrays" {
		t.Fatalf("get 2: %v %v", a, err)
	}
	for _, i := range []int{-1, 4, 100} {
		_, err := l.Get(i)
		if !errors.Is(err, atom.ErrIndexOutOfRange) {
			t.Fatalf("get %d: expected ErrIndexOutOfRange, got %v", i, err)
		}
		var oor atom.IndexOutOfRangeError
		if !errors.As(err, &oor) || oor.Len != 4 {
			t.Fatalf("get %d: unexpected error %v", i, err)
		}
	}
}

func TestUnknownAtomTypes(t *testing.T) {
	testlog.Start(t)
	data, err := binary.Encode(sampleList())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// A client built without the gles package.
	b := binary.NewBuilder()
	if err := atom.Register(b); err != nil {
		t.Fatalf("register: %v", err)
	}
	ns := b.Build()

	if _, err := binary.Decode(ns, data); !errors.Is(err, binary.ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
	o, err := binary.Decode(ns, data, binary.WithDropUnknown(true))
	if err != nil {
		t.Fatalf("decode dropping unknown: %v", err)
	}
	if n := o.(*atom.List).Len(); n != 0 {
		t.Fatalf("expected every atom dropped, got %d", n)
	}
}

func TestDynamicAtomsFromServerSchema(t *testing.T) {
	testlog.Start(t)
	data, err := binary.Encode(sampleList())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	// The entities as a server would publish them, decoded from the wire.
	var entities []*binary.Entity
	schemaNS := namespace(t)
	for _, e := range gles.Entities() {
		raw, err := binary.Encode(e)
		if err != nil {
			t.Fatalf("encode entity: %v", err)
		}
		o, err := binary.Decode(schemaNS, raw)
		if err != nil {
			t.Fatalf("decode entity: %v", err)
		}
		entities = append(entities, o.(*binary.Entity))
	}

	b := binary.NewBuilder()
	if err := schema.Register(b); err != nil {
		t.Fatalf("register schema: %v", err)
	}
	if err := atom.Register(b); err != nil {
		t.Fatalf("register atom: %v", err)
	}
	if err := schema.RegisterEntities(b, entities...); err != nil {
		t.Fatalf("register entities: %v", err)
	}

	o, err := binary.Decode(b.Build(), data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	list := o.(*atom.List)
	if list.Len() != 4 {
		t.Fatalf("len got=%d", list.Len())
	}
	buffer, ok := list.Atoms[1].(*atom.Dynamic)
	if !ok {
		t.Fatalf("expected dynamic atom, got %T", list.Atoms[1])
	}
	if a, err := atom.Wrap(buffer); err != nil || a != atom.Atom(buffer) {
		t.Fatalf("wrap dynamic atom: %v %v", a, err)
	}
	if buffer.Name() != "glBufferData" {
		t.Fatalf("name got=%q", buffer.Name())
	}
	if obs := buffer.Observations(); obs == nil || len(obs.Reads) != 1 {
		t.Fatalf("dynamic observations lost: %+v", obs)
	}
	if res, ok := buffer.Result(); !ok || res != uint32(0) {
		t.Fatalf("result got=%v ok=%v", res, ok)
	}
	if !list.Atoms[3].IsEndOfFrame() {
		t.Fatalf("swap buffers must end the frame")
	}

	again, err := binary.Encode(list)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if string(again) != string(data) {
		t.Fatalf("dynamic re-encoding differs from the generated encoding")
	}
}

func TestWrap(t *testing.T) {
	testlog.Start(t)
	c := &gles.GlClear{}
	if a, err := atom.Wrap(c); err != nil || a != atom.Atom(c) {
		t.Fatalf("wrap generated atom: %v %v", a, err)
	}
	if _, err := atom.Wrap(&atom.Observations{}); !errors.Is(err, atom.ErrNotAnAtom) {
		t.Fatalf("expected ErrNotAnAtom, got %v", err)
	}
	if _, err := atom.Wrap(nil); !errors.Is(err, atom.ErrNotAnAtom) {
		t.Fatalf("expected ErrNotAnAtom for nil, got %v", err)
	}
}
