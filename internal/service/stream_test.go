package service

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/danmuck/gfxtrace/internal/gles"
	"github.com/danmuck/gfxtrace/internal/testutil/testlog"
	"github.com/danmuck/gfxtrace/internal/testutil/tlstest"
)

func pipeTransport(t *testing.T, f *fixture, server, client StreamConfig) *StreamTransport {
	t.Helper()
	serverConn, clientConn := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() {
		served <- ServeStream(ctx, serverConn, f.server, server)
	}()
	transport := NewStreamTransport(clientConn, client)
	t.Cleanup(func() {
		cancel()
		transport.Close()
		serverConn.Close()
		select {
		case <-served:
		case <-time.After(2 * time.Second):
			t.Errorf("stream server did not stop")
		}
	})
	return transport
}

func TestStreamTransportRoundTrip(t *testing.T) {
	testlog.Start(t)
	f := newFixture(t)
	transport := pipeTransport(t, f, DefaultStreamConfig(), DefaultStreamConfig())
	c := f.client(t, transport)
	ctx := context.Background()

	info, err := c.Info(ctx, f.capture)
	if err != nil {
		t.Fatalf("info: %v", err)
	}
	if info.Atoms != 4 {
		t.Fatalf("atoms got=%d want=4", info.Atoms)
	}
	v, err := c.Get(ctx, f.capture.Atoms().Index(3))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if _, ok := v.(*gles.EglSwapBuffers); !ok {
		t.Fatalf("unexpected atom %T", v)
	}
	if _, err := c.Get(ctx, f.capture.Atoms().Index(7)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound over stream, got %v", err)
	}
	if n := transport.Pending(); n != 0 {
		t.Fatalf("expected no pending calls, got %d", n)
	}
}

func TestStreamTransportConcurrentCalls(t *testing.T) {
	testlog.Start(t)
	f := newFixture(t)
	transport := pipeTransport(t, f, DefaultStreamConfig(), DefaultStreamConfig())
	c := f.client(t, transport)
	ctx := context.Background()

	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func(i int) {
			_, err := c.Get(ctx, f.capture.Atoms().Index(uint64(i)))
			errs <- err
		}(i)
	}
	for i := 0; i < 4; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("get: %v", err)
		}
	}
}

func TestStreamTransportAuth(t *testing.T) {
	testlog.Start(t)
	f := newFixture(t)
	server := DefaultStreamConfig()
	server.AuthToken = "secret"

	good := DefaultStreamConfig()
	good.AuthToken = "secret"
	c := f.client(t, pipeTransport(t, f, server, good))
	if _, err := c.Captures(context.Background()); err != nil {
		t.Fatalf("captures with token: %v", err)
	}

	bad := DefaultStreamConfig()
	bad.AuthToken = "guess"
	c = f.client(t, pipeTransport(t, f, server, bad))
	_, err := c.Captures(context.Background())
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestStreamTransportFailsPendingOnClose(t *testing.T) {
	testlog.Start(t)
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	transport := NewStreamTransport(clientConn, DefaultStreamConfig())

	// Drain the call without answering it.
	go func() {
		buf := make([]byte, 4096)
		for {
			if _, err := serverConn.Read(buf); err != nil {
				return
			}
		}
	}()

	errs := make(chan error, 1)
	go func() {
		_, err := transport.Send(context.Background(), []byte("call"))
		errs <- err
	}()
	deadline := time.Now().Add(2 * time.Second)
	for transport.Pending() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	serverConn.Close()

	select {
	case err := <-errs:
		if !errors.Is(err, ErrTransportClosed) {
			t.Fatalf("expected ErrTransportClosed, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("send did not fail after close")
	}
	transport.Close()
	if _, err := transport.Send(context.Background(), []byte("late")); !errors.Is(err, ErrTransportClosed) {
		t.Fatalf("expected ErrTransportClosed after close, got %v", err)
	}
}

func TestStreamTransportMutualTLS(t *testing.T) {
	testlog.Start(t)
	f := newFixture(t)
	bundle := tlstest.NewBundle(t, t.TempDir())

	server := DefaultStreamConfig()
	server.Security = SecurityModeProduction
	server.TLS = TLSConfig{
		Enabled:  true,
		Mutual:   true,
		CertFile: bundle.ServerCertFile,
		KeyFile:  bundle.ServerKeyFile,
		CAFile:   bundle.CAFile,
	}
	ln, err := ListenStream("127.0.0.1:0", server)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() {
		served <- ServeListener(ctx, ln, f.server, server)
	}()

	client := DefaultStreamConfig()
	client.Security = SecurityModeProduction
	client.TLS = TLSConfig{
		Enabled:  true,
		Mutual:   true,
		CertFile: bundle.ClientCertFile,
		KeyFile:  bundle.ClientKeyFile,
		CAFile:   bundle.CAFile,
	}
	transport, err := DialStream(ctx, ln.Addr().String(), client)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	c := f.client(t, transport)
	captures, err := c.Captures(ctx)
	if err != nil {
		t.Fatalf("captures over tls: %v", err)
	}
	if len(captures) != 1 {
		t.Fatalf("captures got=%d want=1", len(captures))
	}

	transport.Close()
	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("listener did not stop")
	}
}

func TestValidateStreamConfig(t *testing.T) {
	production := StreamConfig{Security: SecurityModeProduction}
	if err := production.ValidateClient(); !errors.Is(err, ErrTLSRequired) {
		t.Fatalf("expected ErrTLSRequired, got %v", err)
	}
	production.TLS.Enabled = true
	if err := production.ValidateServer(); !errors.Is(err, ErrMTLSRequired) {
		t.Fatalf("expected ErrMTLSRequired, got %v", err)
	}
	production.TLS.Mutual = true
	production.TLS.InsecureSkipVerify = true
	if err := production.ValidateClient(); !errors.Is(err, ErrTLSInsecureSkipNotAllow) {
		t.Fatalf("expected ErrTLSInsecureSkipNotAllow, got %v", err)
	}

	dev := StreamConfig{TLS: TLSConfig{Enabled: true}}
	if err := dev.ValidateClient(); !errors.Is(err, ErrTLSCAFileRequired) {
		t.Fatalf("expected ErrTLSCAFileRequired, got %v", err)
	}
	if err := dev.ValidateServer(); !errors.Is(err, ErrTLSCertFileRequired) {
		t.Fatalf("expected ErrTLSCertFileRequired, got %v", err)
	}
	if err := (StreamConfig{Security: "staging"}).ValidateServer(); !errors.Is(err, ErrInvalidSecurityMode) {
		t.Fatalf("expected ErrInvalidSecurityMode, got %v", err)
	}
	if err := (StreamConfig{}).ValidateClient(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if got := NormalizeSecurityMode("  Production "); got != SecurityModeProduction {
		t.Fatalf("normalize got=%q", got)
	}
}
