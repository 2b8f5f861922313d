package service

import (
	"context"
	"testing"

	"github.com/danmuck/gfxtrace/internal/atom"
	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/binary/schema"
	"github.com/danmuck/gfxtrace/internal/gles"
	"github.com/danmuck/gfxtrace/internal/path"
	"github.com/danmuck/gfxtrace/internal/store"
)

var blobID = binary.NewID([]byte("vertex blob"))

func fullNamespace(t *testing.T) *binary.Namespace {
	t.Helper()
	return buildNamespace(t, schema.Register, path.Register, atom.Register, gles.Register, Register)
}

func buildNamespace(t *testing.T, registers ...func(*binary.Builder) error) *binary.Namespace {
	t.Helper()
	b := binary.NewBuilder()
	for _, register := range registers {
		if err := register(b); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	return b.Build()
}

func sampleCapture(t *testing.T) []byte {
	t.Helper()
	list := &atom.List{Atoms: []atom.Atom{
		&gles.GlClear{Mask: 0x4100},
		&gles.GlBufferData{
			Target: 0x8892,
			Size:   12,
			Data:   blobID,
			Usage:  0x88e4,
			Extras: atom.Extras{&atom.Observations{
				Reads: []atom.Observation{{Range: atom.MemoryRange{Base: 0x2000, Size: 12}, ID: blobID}},
			}},
		},
		&gles.GlDrawArrays{DrawMode: 4, IndexCount: 3},
		&gles.EglSwapBuffers{Result: 1},
	}}
	data, err := binary.Encode(list)
	if err != nil {
		t.Fatalf("encode capture: %v", err)
	}
	return data
}

type fixture struct {
	ns      *binary.Namespace
	server  *Server
	capture path.Capture
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ns := fullNamespace(t)
	cfg := DefaultServerConfig()
	cfg.Entities = gles.Entities()
	server, err := NewServer(ns, store.NewMemoryStore(), cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	capture, err := server.Import(context.Background(), "triangle", sampleCapture(t))
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	return &fixture{ns: ns, server: server, capture: capture}
}

func (f *fixture) client(t *testing.T, transport Transport) *Client {
	t.Helper()
	if transport == nil {
		transport = Local(f.server)
	}
	c, err := NewClient(f.ns, transport, DefaultClientConfig())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}
