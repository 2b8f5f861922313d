package service

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/gfxtrace/internal/auth"
	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/observability"
	"github.com/danmuck/gfxtrace/internal/protocol/frame"
	"github.com/rs/zerolog"
)

// StreamConfig configures both ends of a framed stream.
type StreamConfig struct {
	Limits frame.Limits
	// AuthToken is sent with every call and, when set on the server, required
	// on every call.
	AuthToken string
	TLS       TLSConfig
	Security  SecurityMode
}

func DefaultStreamConfig() StreamConfig {
	return StreamConfig{Limits: frame.DefaultLimits(), Security: SecurityModeDevelopment}
}

// StreamTransport multiplexes calls over one connection. Results are matched
// to calls by frame message id, so calls may complete out of order.
type StreamTransport struct {
	conn    io.ReadWriteCloser
	limits  frame.Limits
	auth    []byte
	writeMu sync.Mutex
	nextID  atomic.Uint64
	pending *pendingCalls
	done    chan struct{}
	closeMu sync.Mutex
	err     error
	logger  zerolog.Logger
}

// NewStreamTransport starts reading results from conn.
func NewStreamTransport(conn io.ReadWriteCloser, cfg StreamConfig) *StreamTransport {
	if cfg.Limits == (frame.Limits{}) {
		cfg.Limits = frame.DefaultLimits()
	}
	t := &StreamTransport{
		conn:    conn,
		limits:  cfg.Limits,
		pending: newPendingCalls(),
		done:    make(chan struct{}),
		logger:  observability.Component("service.stream"),
	}
	if cfg.AuthToken != "" {
		t.auth = []byte(cfg.AuthToken)
	}
	go t.readLoop()
	return t
}

// DialStream connects to addr, over TLS when cfg.TLS is enabled.
func DialStream(ctx context.Context, addr string, cfg StreamConfig) (*StreamTransport, error) {
	if err := cfg.ValidateClient(); err != nil {
		return nil, err
	}
	var (
		conn net.Conn
		err  error
	)
	if cfg.TLS.Enabled {
		tlsCfg, terr := cfg.TLS.ClientTLS()
		if terr != nil {
			return nil, terr
		}
		d := &tls.Dialer{Config: tlsCfg}
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("service: dial %s: %w", addr, err)
	}
	return NewStreamTransport(conn, cfg), nil
}

func (t *StreamTransport) Send(ctx context.Context, request []byte) ([]byte, error) {
	select {
	case <-t.done:
		return nil, t.closedErr()
	default:
	}

	id := t.nextID.Add(1)
	reply := t.pending.Add(id, time.Now())

	t.writeMu.Lock()
	err := frame.WriteFrame(t.conn, frame.NewCall(id, t.auth, request), t.limits)
	t.writeMu.Unlock()
	if err != nil {
		t.pending.Remove(id)
		return nil, fmt.Errorf("service: write call %d: %w", id, err)
	}

	select {
	case r := <-reply:
		return r.payload, r.err
	case <-t.done:
		select {
		case r := <-reply:
			return r.payload, r.err
		default:
		}
		t.pending.Remove(id)
		return nil, t.closedErr()
	case <-ctx.Done():
		t.pending.Remove(id)
		return nil, ctx.Err()
	}
}

// Pending returns the number of calls awaiting a result.
func (t *StreamTransport) Pending() int {
	return len(t.pending.List())
}

func (t *StreamTransport) Close() error {
	err := t.conn.Close()
	<-t.done
	return err
}

func (t *StreamTransport) closedErr() error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	return t.err
}

func (t *StreamTransport) readLoop() {
	defer close(t.done)
	for {
		f, err := frame.ReadFrame(t.conn, t.limits)
		if err != nil {
			err = fmt.Errorf("%w: %v", ErrTransportClosed, err)
			t.closeMu.Lock()
			t.err = err
			t.closeMu.Unlock()
			t.pending.FailAll(err)
			return
		}
		if !f.Header.IsResponse() {
			t.logger.Warn().Uint64("id", f.Header.MessageID).Msg("dropping non-response frame")
			continue
		}
		reply := streamReply{payload: f.Payload}
		if f.Header.IsError() {
			reply = streamReply{err: fmt.Errorf("service: stream peer: %s", f.Payload)}
		}
		if !t.pending.Resolve(f.Header.MessageID, reply) {
			t.logger.Debug().Uint64("id", f.Header.MessageID).Msg("result for abandoned call")
		}
	}
}

// ServeStream answers calls read from conn until it is closed or ctx ends.
// Calls are handled concurrently; results are written as they complete.
func ServeStream(ctx context.Context, conn io.ReadWriter, h Handler, cfg StreamConfig) error {
	if cfg.Limits == (frame.Limits{}) {
		cfg.Limits = frame.DefaultLimits()
	}
	logger := observability.Component("service.stream")
	var (
		writeMu sync.Mutex
		wg      sync.WaitGroup
	)
	defer wg.Wait()

	validator := auth.ForToken(cfg.AuthToken)
	for {
		f, err := frame.ReadFrame(conn, cfg.Limits)
		if err != nil {
			if errors.Is(err, frame.ErrShortHeader) || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("service: read call: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if f.Header.MessageType != frame.TypeCall {
			logger.Warn().Uint32("type", f.Header.MessageType).Msg("ignoring non-call frame")
			continue
		}

		wg.Add(1)
		go func(f frame.Frame) {
			defer wg.Done()
			var (
				payload []byte
				failure error
			)
			if err := validator.Validate(string(f.Auth)); err != nil {
				logger.Warn().Uint64("id", f.Header.MessageID).Msg("rejecting call with bad auth token")
				payload, failure = binary.Encode(&errorResult{Code: CodeUnauthorized, Message: "auth token mismatch"})
			} else {
				payload, failure = h.Handle(ctx, f.Payload)
			}
			writeMu.Lock()
			defer writeMu.Unlock()
			if err := frame.WriteFrame(conn, frame.NewResult(f.Header.MessageID, payload, failure), cfg.Limits); err != nil {
				logger.Warn().Err(err).Uint64("id", f.Header.MessageID).Msg("write result failed")
			}
		}(f)
	}
}

// ListenAndServeStream accepts stream connections on addr until ctx ends.
func ListenAndServeStream(ctx context.Context, addr string, h Handler, cfg StreamConfig) error {
	ln, err := ListenStream(addr, cfg)
	if err != nil {
		return err
	}
	return ServeListener(ctx, ln, h, cfg)
}

// ListenStream opens the stream listener, wrapping it in TLS when enabled.
func ListenStream(addr string, cfg StreamConfig) (net.Listener, error) {
	if err := cfg.ValidateServer(); err != nil {
		return nil, err
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("service: listen %s: %w", addr, err)
	}
	if !cfg.TLS.Enabled {
		return ln, nil
	}
	tlsCfg, err := cfg.TLS.ServerTLS()
	if err != nil {
		ln.Close()
		return nil, err
	}
	return tls.NewListener(ln, tlsCfg), nil
}

// ServeListener serves every connection accepted from ln until ctx ends.
func ServeListener(ctx context.Context, ln net.Listener, h Handler, cfg StreamConfig) error {
	logger := observability.Component("service.stream")
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("service: accept: %w", err)
		}
		logger.Debug().Str("remote", conn.RemoteAddr().String()).Msg("stream connected")
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Close()
			stop := context.AfterFunc(ctx, func() { conn.Close() })
			defer stop()
			if err := ServeStream(ctx, conn, h, cfg); err != nil && ctx.Err() == nil {
				logger.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("stream ended")
			}
		}()
	}
}
