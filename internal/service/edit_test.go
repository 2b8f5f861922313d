package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/binary/schema"
	"github.com/danmuck/gfxtrace/internal/gles"
	"github.com/danmuck/gfxtrace/internal/path"
	"github.com/danmuck/gfxtrace/internal/store"
	"github.com/danmuck/gfxtrace/internal/testutil/testlog"
)

func TestSetFieldCreatesEditedCapture(t *testing.T) {
	testlog.Start(t)
	f := newFixture(t)
	c := f.client(t, nil)
	ctx := context.Background()
	mask := f.capture.Atoms().Index(0).Field("Mask")

	v, err := c.Get(ctx, mask)
	if err != nil {
		t.Fatalf("get mask: %v", err)
	}
	box := v.(*schema.Box)

	edited, err := c.Set(ctx, mask, &schema.Box{Type: box.Type, Value: uint32(0x4000)})
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	capture, ok := path.CaptureOf(edited)
	if !ok || capture == f.capture {
		t.Fatalf("edit should land in a new capture, got %v", edited)
	}
	if edited != path.Rebase(mask, capture) {
		t.Fatalf("edited path got=%v want=%v", edited, path.Rebase(mask, capture))
	}

	v, err = c.Get(ctx, edited)
	if err != nil {
		t.Fatalf("get edited mask: %v", err)
	}
	if got := v.(*schema.Box).Value; got != uint32(0x4000) {
		t.Fatalf("edited mask got=%v", got)
	}
	v, err = c.Get(ctx, mask)
	if err != nil || v.(*schema.Box).Value != uint32(0x4100) {
		t.Fatalf("source capture changed: %v err=%v", v, err)
	}

	list, err := c.Atoms(ctx, capture)
	if err != nil {
		t.Fatalf("edited atoms: %v", err)
	}
	if list.Len() != 4 {
		t.Fatalf("edited capture has %d atoms", list.Len())
	}
	if clear, ok := list.Atoms[0].(*gles.GlClear); !ok || clear.Mask != 0x4000 {
		t.Fatalf("edited atom decoded as %T %v", list.Atoms[0], list.Atoms[0])
	}
	if obs := list.Atoms[1].Observations(); obs == nil || len(obs.Reads) != 1 {
		t.Fatalf("untouched atom lost its observations: %v", obs)
	}
	info, err := c.Info(ctx, capture)
	if err != nil || info.Name != "triangle" {
		t.Fatalf("edited info %+v err=%v", info, err)
	}
}

func TestSetReplacesAtom(t *testing.T) {
	testlog.Start(t)
	f := newFixture(t)
	c := f.client(t, nil)
	ctx := context.Background()

	edited, err := c.Set(ctx, f.capture.Atoms().Index(2), &gles.GlDrawArrays{DrawMode: 5, IndexCount: 6})
	if err != nil {
		t.Fatalf("set atom: %v", err)
	}
	v, err := c.Get(ctx, edited)
	if err != nil {
		t.Fatalf("get edited atom: %v", err)
	}
	draw, ok := v.(*gles.GlDrawArrays)
	if !ok || draw.DrawMode != 5 || draw.IndexCount != 6 {
		t.Fatalf("edited atom got=%v", v)
	}
}

func TestSetFailures(t *testing.T) {
	testlog.Start(t)
	f := newFixture(t)
	c := f.client(t, nil)
	ctx := context.Background()
	atoms := f.capture.Atoms()
	mask := atoms.Index(0).Field("Mask")
	wide := &schema.Box{Type: schema.Uint64Type, Value: uint64(1)}

	cases := []struct {
		name  string
		path  path.Path
		value binary.Object
		want  error
	}{
		{"wrong box type", mask, wide, ErrInvalidArgument},
		{"field without box", mask, &gles.GlClear{}, ErrInvalidArgument},
		{"atom from box", atoms.Index(0), wide, ErrInvalidArgument},
		{"unknown field", atoms.Index(0).Field("Depth"), wide, ErrNotFound},
		{"atom out of range", atoms.Index(9).Field("Mask"), wide, ErrNotFound},
		{"index into scalar", mask.Index(0), wide, ErrNotResolvable},
		{"state needs replay", atoms.Index(0).StateAfter().Field("Clear"), wide, ErrNotResolvable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := c.Set(ctx, tc.path, tc.value); !errors.Is(err, tc.want) {
				t.Fatalf("set %v: expected %v, got %v", tc.path, tc.want, err)
			}
		})
	}

	captures, err := c.Captures(ctx)
	if err != nil {
		t.Fatalf("captures: %v", err)
	}
	if len(captures) != 1 {
		t.Fatalf("failed edits stored captures: %v", captures)
	}
}

func TestLoadCapture(t *testing.T) {
	testlog.Start(t)
	tmp := t.TempDir()
	dir := filepath.Join(tmp, "captures")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data := sampleCapture(t)
	if err := os.WriteFile(filepath.Join(dir, "frame.gfxtrace"), data, 0o644); err != nil {
		t.Fatalf("write capture: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmp, "outside.gfxtrace"), data, 0o644); err != nil {
		t.Fatalf("write outside capture: %v", err)
	}

	cfg := DefaultServerConfig()
	cfg.CaptureDir = dir
	server, err := NewServer(fullNamespace(t), store.NewMemoryStore(), cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	c, err := NewClient(fullNamespace(t), Local(server), DefaultClientConfig())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	ctx := context.Background()

	capture, err := c.LoadCapture(ctx, "frame.gfxtrace")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if capture.ID != store.CaptureID(data) {
		t.Fatalf("loaded capture id %v", capture.ID)
	}
	info, err := c.Info(ctx, capture)
	if err != nil || info.Name != "frame" || info.Atoms != 4 {
		t.Fatalf("loaded info %+v err=%v", info, err)
	}

	if _, err := c.LoadCapture(ctx, "missing.gfxtrace"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing file: expected ErrNotFound, got %v", err)
	}
	if _, err := c.LoadCapture(ctx, "../outside.gfxtrace"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("escaping name: expected ErrInvalidArgument, got %v", err)
	}

	features, err := c.Features(ctx)
	if err != nil {
		t.Fatalf("features: %v", err)
	}
	if !slices.Contains(features, FeatureLoadCapture) || !slices.Contains(features, FeatureSet) {
		t.Fatalf("features got=%v", features)
	}
}

func TestFeaturesAndDevicesWithoutCaptureDir(t *testing.T) {
	testlog.Start(t)
	f := newFixture(t)
	c := f.client(t, nil)
	ctx := context.Background()

	if _, err := c.LoadCapture(ctx, "frame.gfxtrace"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	features, err := c.Features(ctx)
	if err != nil {
		t.Fatalf("features: %v", err)
	}
	if slices.Contains(features, FeatureLoadCapture) {
		t.Fatalf("load_capture advertised without a directory: %v", features)
	}
	devices, err := c.Devices(ctx)
	if err != nil {
		t.Fatalf("devices: %v", err)
	}
	if len(devices) != 0 {
		t.Fatalf("expected no replay devices, got %v", devices)
	}
}
