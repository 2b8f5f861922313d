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
	"github.com/danmuck/gfxtrace/internal/store"
	lru "github.com/hashicorp/golang-lru"
	"github.com/rs/zerolog"
)

// Feature names reported by GetFeatures.
const (
	FeatureFollow      = "follow"
	FeatureSchema      = "schema"
	FeatureImport      = "import"
	FeatureSet         = "set"
	FeatureLoadCapture = "load_capture"
)

// ServerConfig configures request handling.
type ServerConfig struct {
	// Entities is the schema published by GetSchema.
	Entities []*binary.Entity
	// ListCacheSize bounds how many decoded atom lists stay in memory.
	ListCacheSize int
	Limits        binary.Limits
	// CaptureDir is the directory LoadCapture reads from. Empty disables
	// LoadCapture.
	CaptureDir string
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListCacheSize: 16,
		Limits:        binary.DefaultLimits(),
	}
}

// Server resolves paths against the captures in a store.
type Server struct {
	ns       *binary.Namespace
	store    store.Store
	entities []*binary.Entity
	limits   binary.Limits
	lists    *lru.Cache
	dir      string
	logger   zerolog.Logger
}

func NewServer(ns *binary.Namespace, st store.Store, cfg ServerConfig) (*Server, error) {
	if ns == nil || st == nil {
		return nil, fmt.Errorf("%w: server needs a namespace and a store", ErrInvalidArgument)
	}
	if cfg.ListCacheSize <= 0 {
		cfg.ListCacheSize = DefaultServerConfig().ListCacheSize
	}
	if cfg.Limits == (binary.Limits{}) {
		cfg.Limits = binary.DefaultLimits()
	}
	lists, err := lru.New(cfg.ListCacheSize)
	if err != nil {
		return nil, fmt.Errorf("service: list cache: %w", err)
	}
	return &Server{
		ns:       ns,
		store:    st,
		entities: cfg.Entities,
		limits:   cfg.Limits,
		lists:    lists,
		dir:      cfg.CaptureDir,
		logger:   observability.Component("service.server"),
	}, nil
}

// Handle decodes one call, runs it and encodes the result. Failures to
// resolve are returned to the caller as error results; the returned error is
// reserved for results that cannot be encoded.
func (s *Server) Handle(ctx context.Context, request []byte) ([]byte, error) {
	start := time.Now()
	call, err := binary.Decode(s.ns, request, binary.WithLimits(s.limits))
	if err != nil {
		observability.RecordDecodeFailure(codeFor(err))
		s.logger.Warn().Err(err).Int("bytes", len(request)).Msg("undecodable request")
		return s.reply("invalid", &errorResult{Code: codeFor(err), Message: err.Error()}, start)
	}

	name, result, err := s.dispatch(ctx, call)
	if err != nil {
		code := codeFor(err)
		event := s.logger.Debug()
		if code == CodeInternal {
			event = s.logger.Error()
		}
		event.Err(err).Str("call", name).Str("code", code).Msg("call failed")
		return s.reply(name, &errorResult{Code: code, Message: err.Error()}, start)
	}
	return s.reply(name, result, start)
}

func (s *Server) reply(call string, result binary.Object, start time.Time) ([]byte, error) {
	code := "ok"
	if r, ok := result.(*errorResult); ok {
		code = r.Code
	}
	observability.RecordRPC(call, code, time.Since(start))
	out, err := binary.Encode(result)
	if err != nil {
		return nil, fmt.Errorf("service: encode %s result: %w", call, err)
	}
	return out, nil
}

func (s *Server) dispatch(ctx context.Context, call binary.Object) (string, binary.Object, error) {
	switch c := call.(type) {
	case *callGet:
		v, err := s.Get(ctx, c.Path)
		if err != nil {
			return "get", nil, err
		}
		return "get", &resultGet{Value: v}, nil
	case *callFollow:
		p, err := s.Follow(ctx, c.Path)
		if err != nil {
			return "follow", nil, err
		}
		return "follow", &resultFollow{Path: p}, nil
	case *callGetCaptures:
		infos, err := s.store.Captures(ctx)
		if err != nil {
			return "get_captures", nil, err
		}
		r := &resultGetCaptures{}
		for _, info := range infos {
			r.Captures = append(r.Captures, path.NewCapture(info.ID))
		}
		return "get_captures", r, nil
	case *callGetSchema:
		return "get_schema", &resultGetSchema{Entities: s.entities}, nil
	case *callImportCapture:
		capture, err := s.Import(ctx, c.Name, c.Data)
		if err != nil {
			return "import_capture", nil, err
		}
		return "import_capture", &resultImportCapture{Capture: capture}, nil
	case *callSet:
		p, err := s.Set(ctx, c.Path, c.Value)
		if err != nil {
			return "set", nil, err
		}
		return "set", &resultSet{Path: p}, nil
	case *callLoadCapture:
		capture, err := s.LoadCapture(ctx, c.Path)
		if err != nil {
			return "load_capture", nil, err
		}
		return "load_capture", &resultImportCapture{Capture: capture}, nil
	case *callGetDevices:
		return "get_devices", &resultGetDevices{}, nil
	case *callGetFeatures:
		return "get_features", &resultGetFeatures{Features: s.Features()}, nil
	default:
		return "unknown", &errorResult{Code: CodeUnknownCall, Message: fmt.Sprintf("no handler for %T", call)}, nil
	}
}

// atoms returns the decoded atom list of a capture, decoding it at most once
// while it stays cached.
func (s *Server) atoms(ctx context.Context, id binary.ID) (*atom.List, *store.Capture, error) {
	c, err := s.store.Capture(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if cached, ok := s.lists.Get(id); ok {
		return cached.(*atom.List), c, nil
	}
	list, err := decodeList(s.ns, c.Data, s.limits)
	if err != nil {
		return nil, nil, fmt.Errorf("service: capture %s: %w", id, err)
	}
	s.lists.Add(id, list)
	return list, c, nil
}

func decodeList(ns *binary.Namespace, data []byte, limits binary.Limits) (*atom.List, error) {
	o, err := binary.Decode(ns, data, binary.WithLimits(limits))
	if err != nil {
		return nil, err
	}
	list, ok := o.(*atom.List)
	if !ok {
		return nil, fmt.Errorf("%w: capture holds %T, not an atom list", ErrInvalidArgument, o)
	}
	return list, nil
}

// Features names the optional calls this server answers.
func (s *Server) Features() []string {
	features := []string{FeatureFollow, FeatureSchema, FeatureImport, FeatureSet}
	if s.dir != "" {
		features = append(features, FeatureLoadCapture)
	}
	return features
}

// Import validates data as an atom list before storing it.
func (s *Server) Import(ctx context.Context, name string, data []byte) (path.Capture, error) {
	list, err := decodeList(s.ns, data, s.limits)
	if err != nil {
		if !errors.Is(err, ErrInvalidArgument) {
			err = fmt.Errorf("%w: %v", ErrInvalidArgument, err)
		}
		return path.Capture{}, err
	}
	info, err := s.store.Import(ctx, name, data)
	if err != nil {
		return path.Capture{}, err
	}
	s.lists.Add(info.ID, list)
	s.logger.Info().Str("capture", info.ID.String()).Str("name", info.Name).Int("atoms", list.Len()).Msg("capture imported")
	return path.NewCapture(info.ID), nil
}
