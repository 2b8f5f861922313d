package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/gfxtrace/internal/atom"
	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/observability"
	"github.com/danmuck/gfxtrace/internal/path"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ClientConfig configures a Client.
type ClientConfig struct {
	// CacheSize bounds the number of path results kept.
	CacheSize int
	// Timeout applies to each call when the caller's context has no
	// deadline. Zero disables it.
	Timeout time.Duration
	Limits  binary.Limits
	// DropUnknown decodes values of unregistered types as nil instead of
	// failing.
	DropUnknown bool
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		CacheSize: 1024,
		Timeout:   30 * time.Second,
		Limits:    binary.DefaultLimits(),
	}
}

// Client fetches the objects named by paths.
//
// Results of Get are cached per path, keyed by the path's encoding.
// Identical concurrent Get calls share a single request.
type Client struct {
	ns        *binary.Namespace
	transport Transport
	cfg       ClientConfig
	cache     *lru.Cache
	inflight  singleflight.Group
	logger    zerolog.Logger
}

func NewClient(ns *binary.Namespace, transport Transport, cfg ClientConfig) (*Client, error) {
	if ns == nil || transport == nil {
		return nil, fmt.Errorf("%w: client needs a namespace and a transport", ErrInvalidArgument)
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultClientConfig().CacheSize
	}
	if cfg.Limits == (binary.Limits{}) {
		cfg.Limits = binary.DefaultLimits()
	}
	cache, err := lru.New(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("service: client cache: %w", err)
	}
	return &Client{
		ns:        ns,
		transport: transport,
		cfg:       cfg,
		cache:     cache,
		logger:    observability.Component("service.client"),
	}, nil
}

// Namespace returns the namespace results are decoded with.
func (c *Client) Namespace() *binary.Namespace {
	return c.ns
}

// Get returns the object p names.
func (c *Client) Get(ctx context.Context, p path.Path) (binary.Object, error) {
	if p = path.Value(p); p == nil {
		return nil, fmt.Errorf("%w: nil path", ErrInvalidPath)
	}
	key, err := path.Key(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	if v, ok := c.cache.Get(key); ok {
		observability.RecordClientCache("hit")
		return v.(cached).value, nil
	}

	v, err, shared := c.inflight.Do(key, func() (any, error) {
		result, err := c.call(ctx, &callGet{Path: p})
		if err != nil {
			return nil, err
		}
		r, ok := result.(*resultGet)
		if !ok {
			return nil, unexpected("get", result)
		}
		c.cache.Add(key, cached{value: r.Value})
		return cached{value: r.Value}, nil
	})
	if shared {
		observability.RecordClientCache("shared")
	} else {
		observability.RecordClientCache("miss")
	}
	if err != nil {
		return nil, err
	}
	return v.(cached).value, nil
}

// cached wraps results so a nil object is still a cache entry.
type cached struct {
	value binary.Object
}

// Purge drops every cached result.
func (c *Client) Purge() {
	c.cache.Purge()
}

// Follow returns the path referred to by the value at p.
func (c *Client) Follow(ctx context.Context, p path.Path) (path.Path, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil path", ErrInvalidPath)
	}
	result, err := c.call(ctx, &callFollow{Path: p})
	if err != nil {
		return nil, err
	}
	r, ok := result.(*resultFollow)
	if !ok {
		return nil, unexpected("follow", result)
	}
	return r.Path, nil
}

// Captures lists the captures held by the service.
func (c *Client) Captures(ctx context.Context) ([]path.Capture, error) {
	result, err := c.call(ctx, &callGetCaptures{})
	if err != nil {
		return nil, err
	}
	r, ok := result.(*resultGetCaptures)
	if !ok {
		return nil, unexpected("get captures", result)
	}
	return r.Captures, nil
}

// Schema returns the entities the service knows.
func (c *Client) Schema(ctx context.Context) ([]*binary.Entity, error) {
	result, err := c.call(ctx, &callGetSchema{})
	if err != nil {
		return nil, err
	}
	r, ok := result.(*resultGetSchema)
	if !ok {
		return nil, unexpected("get schema", result)
	}
	return r.Entities, nil
}

// ImportCapture uploads an encoded atom list and returns its capture path.
func (c *Client) ImportCapture(ctx context.Context, name string, data []byte) (path.Capture, error) {
	result, err := c.call(ctx, &callImportCapture{Name: name, Data: data})
	if err != nil {
		return path.Capture{}, err
	}
	r, ok := result.(*resultImportCapture)
	if !ok {
		return path.Capture{}, unexpected("import capture", result)
	}
	return r.Capture, nil
}

// Set writes value at p. The service stores the edit as a new capture and
// returns p rebased onto it.
func (c *Client) Set(ctx context.Context, p path.Path, value binary.Object) (path.Path, error) {
	if p = path.Value(p); p == nil {
		return nil, fmt.Errorf("%w: nil path", ErrInvalidPath)
	}
	result, err := c.call(ctx, &callSet{Path: p, Value: value})
	if err != nil {
		return nil, err
	}
	r, ok := result.(*resultSet)
	if !ok {
		return nil, unexpected("set", result)
	}
	return r.Path, nil
}

// LoadCapture asks the service to import a file from its capture directory.
func (c *Client) LoadCapture(ctx context.Context, name string) (path.Capture, error) {
	result, err := c.call(ctx, &callLoadCapture{Path: name})
	if err != nil {
		return path.Capture{}, err
	}
	r, ok := result.(*resultImportCapture)
	if !ok {
		return path.Capture{}, unexpected("load capture", result)
	}
	return r.Capture, nil
}

// Devices lists the replay devices attached to the service.
func (c *Client) Devices(ctx context.Context) ([]path.Device, error) {
	result, err := c.call(ctx, &callGetDevices{})
	if err != nil {
		return nil, err
	}
	r, ok := result.(*resultGetDevices)
	if !ok {
		return nil, unexpected("get devices", result)
	}
	return r.Devices, nil
}

// Features lists the optional calls the service answers.
func (c *Client) Features(ctx context.Context) ([]string, error) {
	result, err := c.call(ctx, &callGetFeatures{})
	if err != nil {
		return nil, err
	}
	r, ok := result.(*resultGetFeatures)
	if !ok {
		return nil, unexpected("get features", result)
	}
	return r.Features, nil
}

// Atoms returns the atom list of capture.
func (c *Client) Atoms(ctx context.Context, capture path.Capture) (*atom.List, error) {
	v, err := c.Get(ctx, capture.Atoms())
	if err != nil {
		return nil, err
	}
	list, ok := v.(*atom.List)
	if !ok {
		return nil, unexpected("atoms", v)
	}
	return list, nil
}

// Info returns the description of capture.
func (c *Client) Info(ctx context.Context, capture path.Capture) (*CaptureInfo, error) {
	v, err := c.Get(ctx, capture)
	if err != nil {
		return nil, err
	}
	info, ok := v.(*CaptureInfo)
	if !ok {
		return nil, unexpected("capture", v)
	}
	return info, nil
}

func (c *Client) call(ctx context.Context, msg binary.Object) (binary.Object, error) {
	request, err := binary.Encode(msg)
	if err != nil {
		return nil, err
	}
	if _, ok := ctx.Deadline(); !ok && c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	response, err := c.transport.Send(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("service: send: %w", err)
	}

	opts := []binary.DecoderOption{
		binary.WithLimits(c.cfg.Limits),
		binary.WithDropUnknown(c.cfg.DropUnknown),
	}
	result, err := binary.Decode(c.ns, response, opts...)
	if err != nil {
		reason := CodeMalformed
		if errors.Is(err, binary.ErrUnknownType) {
			reason = CodeUnknownType
		}
		observability.RecordDecodeFailure(reason)
		c.logger.Warn().Err(err).Int("bytes", len(response)).Msg("undecodable response")
		return nil, fmt.Errorf("service: decode response: %w", err)
	}
	if r, ok := result.(*errorResult); ok {
		return nil, &RemoteError{Code: r.Code, Message: r.Message}
	}
	return result, nil
}

func unexpected(call string, got binary.Object) error {
	return fmt.Errorf("%w: %s returned %T", ErrUnexpectedResult, call, got)
}
