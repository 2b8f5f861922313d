package path

import (
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/testutil/testlog"
)

var (
	captureID  = binary.NewID([]byte("capture"))
	resourceID = binary.NewID([]byte("texture"))
)

func testNamespace(t *testing.T) *binary.Namespace {
	t.Helper()
	b := binary.NewBuilder()
	if err := Register(b); err != nil {
		t.Fatalf("register paths: %v", err)
	}
	return b.Build()
}

func TestEqualityIsStructural(t *testing.T) {
	testlog.Start(t)
	a := NewCapture(captureID).Atoms().Index(3)
	b := Capture{ID: captureID}.Atoms().Index(3)
	if a != b {
		t.Fatalf("independently built paths differ: %v vs %v", a, b)
	}
	if Hash(a) != Hash(b) {
		t.Fatalf("hash differs for equal paths")
	}
	if a == NewCapture(captureID).Atoms().Index(4) {
		t.Fatalf("different index compared equal")
	}

	var pa, pb Path = a.Field("Buffer").Index(2), b.Field("Buffer").Index(2)
	if pa != pb {
		t.Fatalf("interface parents compare by value: %v vs %v", pa, pb)
	}

	seen := map[Path]int{pa: 1}
	seen[pb]++
	if len(seen) != 1 || seen[pa] != 2 {
		t.Fatalf("paths are not usable as map keys: %v", seen)
	}
}

func TestStringIsDeterministic(t *testing.T) {
	testlog.Start(t)
	state := NewCapture(captureID).Atoms().Index(5).StateAfter()
	want := "Capture(" + captureID.String() + ").Atoms[5].State"
	for i := 0; i < 3; i++ {
		if got := state.String(); got != want {
			t.Fatalf("render %d: got=%q want=%q", i, got, want)
		}
	}

	atom := NewCapture(captureID).Atoms().Index(7)
	cases := []struct {
		path Path
		want string
	}{
		{atom.MemoryAfter(1, 0x1000, 0x20), ".Atoms[7].Memory(1)[0x1000:0x1020]"},
		{atom.ResourceAfter(resourceID), ".Atoms[7].Resource(" + resourceID.String() + ")"},
		{atom.Field("Data").Index(2).Field("X"), ".Atoms[7].Data[2].X"},
		{atom.StateAfter().Field("Buffers"), ".Atoms[7].State.Buffers"},
		{NewCapture(captureID).ResourceBundles(), ".ResourceBundles"},
	}
	for _, tc := range cases {
		got := tc.path.String()
		if !strings.HasSuffix(got, tc.want) || !strings.HasPrefix(got, "Capture(") {
			t.Fatalf("got=%q want suffix %q", got, tc.want)
		}
	}
	if got := (Device{ID: captureID}).String(); got != "Device("+captureID.String()+")" {
		t.Fatalf("device render got=%q", got)
	}
}

func TestNullPropagatingHelpers(t *testing.T) {
	testlog.Start(t)
	if StateAfter(nil) != nil {
		t.Fatalf("expected nil state for nil atom")
	}
	if ResourceAfter(nil, resourceID) != nil {
		t.Fatalf("expected nil resource for nil atom")
	}
	if MemoryAfter(nil, 0, 0, 0) != nil {
		t.Fatalf("expected nil memory for nil atom")
	}
	if FieldOf(nil, "X") != nil || IndexOf(nil, 1) != nil {
		t.Fatalf("expected nil field/index for nil parent")
	}
	if p := IndexOf(FieldOf(StateAfter(nil), "Buffers"), 2); p != nil {
		t.Fatalf("nil atom should propagate through the chain, got %v", p)
	}
	if p := FieldOf(ResourceAfter(nil, resourceID), "Size"); p != nil {
		t.Fatalf("nil atom should propagate through resource, got %v", p)
	}
	var missing *State
	if FieldOf(missing, "X") != nil || Value(missing) != nil {
		t.Fatalf("nil state pointer should act as nil")
	}
}

func TestHelperChainsMatchBuilders(t *testing.T) {
	testlog.Start(t)
	ns := testNamespace(t)
	atom := NewCapture(captureID).Atoms().Index(1)
	again := NewCapture(captureID).Atoms().Index(1)

	chained := IndexOf(FieldOf(StateAfter(&atom), "Buffers"), 2)
	built := atom.StateAfter().Field("Buffers").Index(2)
	if chained != Path(built) {
		t.Fatalf("chain got=%v want=%v", chained, built)
	}
	if IndexOf(FieldOf(StateAfter(&again), "Buffers"), 2) != chained {
		t.Fatalf("identically built chains differ")
	}
	want := "Capture(" + captureID.String() + ").Atoms[1].State.Buffers[2]"
	if got := chained.String(); got != want {
		t.Fatalf("render got=%q want=%q", got, want)
	}

	data, err := binary.Encode(chained)
	if err != nil {
		t.Fatalf("encode chain: %v", err)
	}
	o, err := binary.Decode(ns, data)
	if err != nil {
		t.Fatalf("decode chain: %v", err)
	}
	if o.(Path) != chained {
		t.Fatalf("round trip got=%v want=%v", o, chained)
	}

	// A pointer parent set by hand encodes and renders like its value.
	s := atom.StateAfter()
	byPointer := Field{Struct: &s, Name: "Buffers"}
	if byPointer.String() != s.Field("Buffers").String() {
		t.Fatalf("pointer parent render got=%q", byPointer.String())
	}
	if _, err := binary.Encode(byPointer); err != nil {
		t.Fatalf("encode pointer parent: %v", err)
	}
	if got := MemoryAfter(&atom, 1, 0x10, 4); got != Path(atom.MemoryAfter(1, 0x10, 4)) {
		t.Fatalf("memory helper got=%v", got)
	}
}

func TestNestedElements(t *testing.T) {
	testlog.Start(t)
	atom := NewCapture(captureID).Atoms().Index(0)
	p := atom.Field("A").Index(1).Elem(2)
	if p.Index != 2 || p.Array != Path(atom.Field("A").Index(1)) {
		t.Fatalf("unexpected element path %#v", p)
	}
	if got := p.String(); !strings.HasSuffix(got, ".Atoms[0].A[1][2]") {
		t.Fatalf("render got=%q", got)
	}
	if q := IndexOf(IndexOf(FieldOf(atom, "A"), 1), 2); q != Path(p) {
		t.Fatalf("helper chain got=%v want=%v", q, p)
	}
}

func TestKeySeparatesLookalikePaths(t *testing.T) {
	testlog.Start(t)
	capture := NewCapture(captureID)
	atoms := capture.Atoms()
	pairs := [][2]Path{
		{atoms, Field{Struct: capture, Name: "Atoms"}},
		{atoms.Index(3), ArrayIndex{Array: atoms, Index: 3}},
	}
	for _, pair := range pairs {
		a, b := pair[0], pair[1]
		if a.String() != b.String() {
			t.Fatalf("pair renders differently: %q vs %q", a, b)
		}
		ka, err := Key(a)
		if err != nil {
			t.Fatalf("key %v: %v", a, err)
		}
		kb, err := Key(b)
		if err != nil {
			t.Fatalf("key %v: %v", b, err)
		}
		if ka == kb {
			t.Fatalf("%T and %T share a key", a, b)
		}
		if Hash(a) == Hash(b) {
			t.Fatalf("%T and %T share a hash", a, b)
		}
	}
	if _, err := Key(nil); !errors.Is(err, ErrMissingParent) {
		t.Fatalf("expected ErrMissingParent for nil, got %v", err)
	}
}

func TestAscent(t *testing.T) {
	testlog.Start(t)
	atom := NewCapture(captureID).Atoms().Index(9)
	p := atom.Field("A").Index(1).Field("B")
	c, ok := CaptureOf(p)
	if !ok || c.ID != captureID {
		t.Fatalf("capture of %v: got=%v ok=%v", p, c, ok)
	}
	a, ok := AtomOf(p)
	if !ok || a != atom {
		t.Fatalf("atom of %v: got=%v ok=%v", p, a, ok)
	}
	if _, ok := CaptureOf(ImageInfo{ID: captureID}); ok {
		t.Fatalf("image info is not rooted at a capture")
	}
	if (Capture{}).Parent() != nil {
		t.Fatalf("capture must be a root")
	}
}

func TestWireRoundTrip(t *testing.T) {
	testlog.Start(t)
	ns := testNamespace(t)
	atom := NewCapture(captureID).Atoms().Index(42)
	paths := []Path{
		NewCapture(captureID),
		atom.Atoms,
		atom,
		atom.StateAfter(),
		atom.MemoryAfter(3, 0xdead, 16),
		atom.ResourceAfter(resourceID),
		atom.Field("Extras").Index(0).Field("Reads"),
		NewCapture(captureID).ResourceBundles(),
		Device{ID: resourceID},
		ImageInfo{ID: resourceID},
		TimingInfo{ID: resourceID},
	}
	for _, p := range paths {
		data, err := binary.Encode(p)
		if err != nil {
			t.Fatalf("encode %v: %v", p, err)
		}
		o, err := binary.Decode(ns, data)
		if err != nil {
			t.Fatalf("decode %v: %v", p, err)
		}
		if o.(Path) != p {
			t.Fatalf("round trip got=%v want=%v", o, p)
		}
	}
}

func TestMissingParent(t *testing.T) {
	testlog.Start(t)
	if _, err := binary.Encode(Field{Name: "X"}); !errors.Is(err, ErrMissingParent) {
		t.Fatalf("expected ErrMissingParent, got %v", err)
	}

	// A field path whose parent marker says nil.
	e := binary.NewEncoder()
	e.ID(fieldClass.ID)
	e.Uint32(1 + 4 + 1)
	e.Uint8(0)
	e.String("X")
	_, err := binary.Decode(testNamespace(t), e.Bytes())
	if !errors.Is(err, binary.ErrMalformedWireData) {
		t.Fatalf("expected malformed for nil parent, got %v", err)
	}
}
