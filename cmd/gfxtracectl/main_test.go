package main

import (
	"bytes"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/gfxtrace/internal/atom"
	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/catalog"
	"github.com/danmuck/gfxtrace/internal/config"
	"github.com/danmuck/gfxtrace/internal/gles"
	"github.com/danmuck/gfxtrace/internal/service"
	"github.com/danmuck/gfxtrace/internal/store"
)

// run executes the root command with args and returns what it printed.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configPath, httpURL, useStream = "", "", false
	t.Cleanup(func() { configPath, httpURL, useStream = "", "", false })

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeCapture(t *testing.T, dir string) string {
	t.Helper()
	data, err := binary.Encode(&atom.List{Atoms: []atom.Atom{
		&gles.GlClear{Mask: 0x4100},
		&gles.GlDrawArrays{DrawMode: 4, IndexCount: 3},
		&gles.EglSwapBuffers{Result: 1},
	}})
	if err != nil {
		t.Fatalf("encode capture: %v", err)
	}
	file := filepath.Join(dir, "triangle.gfxtrace")
	if err := os.WriteFile(file, data, 0o644); err != nil {
		t.Fatalf("write capture: %v", err)
	}
	return file
}

func TestLoadConfigDefaultsAndFile(t *testing.T) {
	configPath = ""
	t.Cleanup(func() { configPath = "" })

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if cfg.Name != config.Default().Name {
		t.Fatalf("unexpected default name: %q", cfg.Name)
	}

	configPath = filepath.Join(t.TempDir(), "gfxtrace.toml")
	if err := os.WriteFile(configPath, []byte("name = \"bench\"\n[store]\ncapture_dir = \"/tmp/captures\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err = loadConfig()
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if cfg.Name != "bench" || cfg.CaptureDir != "/tmp/captures" {
		t.Fatalf("unexpected config: name=%q dir=%q", cfg.Name, cfg.CaptureDir)
	}

	configPath = filepath.Join(t.TempDir(), "missing.toml")
	if _, err := loadConfig(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()
	want := []string{"serve", "dump", "captures", "import", "load", "atoms", "features", "config"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Fatalf("command %q not wired: %v", name, err)
		}
	}
	for _, name := range []string{"captures", "load", "features"} {
		cmd, _, _ := root.Find([]string{name})
		if cmd.Flags().Lookup("url") == nil || cmd.Flags().Lookup("stream") == nil {
			t.Fatalf("%s is missing connection flags", name)
		}
	}
	if root.PersistentFlags().ShorthandLookup("c") == nil {
		t.Fatalf("missing -c shorthand for --config")
	}
}

func TestDumpCommand(t *testing.T) {
	file := writeCapture(t, t.TempDir())
	out, err := run(t, "dump", file)
	if err != nil {
		t.Fatalf("dump: %v\n%s", err, out)
	}
	for _, want := range []string{"glClear(0x4100)", "end of frame 0", "3 atoms, 1 frames"} {
		if !strings.Contains(out, want) {
			t.Fatalf("dump output missing %q:\n%s", want, out)
		}
	}

	if _, err := run(t, "dump", filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatalf("expected error for missing capture file")
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	file := filepath.Join(t.TempDir(), "gfxtrace.toml")
	out, err := run(t, "config", "init", file)
	if err != nil {
		t.Fatalf("config init: %v\n%s", err, out)
	}
	out, err = run(t, "config", "validate", file)
	if err != nil {
		t.Fatalf("config validate: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ok (store=memory") {
		t.Fatalf("unexpected validate output: %q", out)
	}
	if _, err := run(t, "config", "init", file); err == nil {
		t.Fatalf("expected init to refuse overwriting without --force")
	}
}

func TestClientCommandsOverHTTP(t *testing.T) {
	dir := t.TempDir()
	file := writeCapture(t, dir)

	cfg := service.DefaultServerConfig()
	cfg.Entities = catalog.Entities()
	cfg.CaptureDir = dir
	server, err := service.NewServer(catalog.MustBuild(), store.NewMemoryStore(), cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv := httptest.NewServer(service.NewRouter(server, service.DefaultHTTPConfig()))
	t.Cleanup(srv.Close)

	imported, err := run(t, "import", "--url", srv.URL, "triangle", file)
	if err != nil {
		t.Fatalf("import: %v\n%s", err, imported)
	}
	if !strings.HasPrefix(imported, "Capture(") {
		t.Fatalf("unexpected import output: %q", imported)
	}

	out, err := run(t, "captures", "--url", srv.URL)
	if err != nil {
		t.Fatalf("captures: %v\n%s", err, out)
	}
	if !strings.Contains(out, "triangle") || !strings.Contains(out, "3 atoms") {
		t.Fatalf("unexpected captures output: %q", out)
	}

	loaded, err := run(t, "load", "--url", srv.URL, filepath.Base(file))
	if err != nil {
		t.Fatalf("load: %v\n%s", err, loaded)
	}
	if loaded != imported {
		t.Fatalf("loading the same bytes should name the same capture: %q vs %q", loaded, imported)
	}

	out, err = run(t, "features", "--url", srv.URL)
	if err != nil {
		t.Fatalf("features: %v\n%s", err, out)
	}
	if !strings.Contains(out, service.FeatureLoadCapture) {
		t.Fatalf("unexpected features output: %q", out)
	}
}
