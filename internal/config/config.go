// Package config loads gfxtrace.toml into the settings of the service,
// client and store layers.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/gfxtrace/internal/binary"
	"github.com/danmuck/gfxtrace/internal/service"
)

// Config is the resolved process configuration.
type Config struct {
	Name string

	HTTPAddr        string
	HTTPAuthToken   string
	CORSOrigins     []string
	MaxPayloadBytes int64

	StreamAddr string
	Stream     service.StreamConfig

	StoreDriver   string
	StorePath     string
	ListCacheSize int
	CaptureDir    string

	Client service.ClientConfig
	Retry  service.RetryConfig
	Limits binary.Limits
}

func Default() Config {
	return Config{
		Name:            "gfxtrace",
		HTTPAddr:        "127.0.0.1:7070",
		MaxPayloadBytes: service.DefaultHTTPConfig().MaxPayloadBytes,
		StreamAddr:      "127.0.0.1:7071",
		Stream:          service.DefaultStreamConfig(),
		StoreDriver:     "memory",
		ListCacheSize:   service.DefaultServerConfig().ListCacheSize,
		Client:          service.DefaultClientConfig(),
		Retry:           service.DefaultRetryConfig(),
		Limits:          binary.DefaultLimits(),
	}
}

type fileConfig struct {
	Name   string     `toml:"name"`
	HTTP   httpFile   `toml:"http"`
	Stream streamFile `toml:"stream"`
	Store  storeFile  `toml:"store"`
	Client clientFile `toml:"client"`
	Codec  codecFile  `toml:"codec"`
}

type httpFile struct {
	Addr            string   `toml:"addr"`
	AuthToken       string   `toml:"auth_token"`
	CORSOrigins     []string `toml:"cors_origins"`
	MaxPayloadBytes int64    `toml:"max_payload_bytes"`
}

type streamFile struct {
	Addr          string `toml:"addr"`
	AuthToken     string `toml:"auth_token"`
	SecurityMode  string `toml:"security_mode"`
	TLSEnabled    bool   `toml:"tls_enabled"`
	TLSMutual     bool   `toml:"tls_mutual"`
	TLSCertFile   string `toml:"tls_cert_file"`
	TLSKeyFile    string `toml:"tls_key_file"`
	TLSCAFile     string `toml:"tls_ca_file"`
	TLSServerName string `toml:"tls_server_name"`
}

type storeFile struct {
	Driver        string `toml:"driver"`
	Path          string `toml:"path"`
	ListCacheSize int    `toml:"list_cache_size"`
	CaptureDir    string `toml:"capture_dir"`
}

type clientFile struct {
	CacheSize     int     `toml:"cache_size"`
	Timeout       string  `toml:"timeout"`
	DropUnknown   bool    `toml:"drop_unknown"`
	RetryAttempts int     `toml:"retry_attempts"`
	RetryInitial  string  `toml:"retry_initial_delay"`
	RetryMax      string  `toml:"retry_max_delay"`
	RetryFactor   float64 `toml:"retry_multiplier"`
	RetryJitter   bool    `toml:"retry_jitter"`
}

type codecFile struct {
	MaxStringBytes uint32 `toml:"max_string_bytes"`
	MaxSliceLen    uint32 `toml:"max_slice_len"`
}

// Load overlays the keys defined in the TOML file at path onto Default and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}

	if meta.IsDefined("http", "addr") {
		cfg.HTTPAddr = strings.TrimSpace(raw.HTTP.Addr)
	}
	if meta.IsDefined("http", "auth_token") {
		cfg.HTTPAuthToken = strings.TrimSpace(raw.HTTP.AuthToken)
	}
	if meta.IsDefined("http", "cors_origins") {
		cfg.CORSOrigins = normalizeList(raw.HTTP.CORSOrigins)
	}
	if meta.IsDefined("http", "max_payload_bytes") {
		cfg.MaxPayloadBytes = raw.HTTP.MaxPayloadBytes
	}

	if meta.IsDefined("stream", "addr") {
		cfg.StreamAddr = strings.TrimSpace(raw.Stream.Addr)
	}
	if meta.IsDefined("stream", "auth_token") {
		cfg.Stream.AuthToken = strings.TrimSpace(raw.Stream.AuthToken)
	}
	if meta.IsDefined("stream", "security_mode") {
		cfg.Stream.Security = service.SecurityMode(strings.TrimSpace(raw.Stream.SecurityMode))
	}
	if meta.IsDefined("stream", "tls_enabled") {
		cfg.Stream.TLS.Enabled = raw.Stream.TLSEnabled
	}
	if meta.IsDefined("stream", "tls_mutual") {
		cfg.Stream.TLS.Mutual = raw.Stream.TLSMutual
	}
	if meta.IsDefined("stream", "tls_cert_file") {
		cfg.Stream.TLS.CertFile = strings.TrimSpace(raw.Stream.TLSCertFile)
	}
	if meta.IsDefined("stream", "tls_key_file") {
		cfg.Stream.TLS.KeyFile = strings.TrimSpace(raw.Stream.TLSKeyFile)
	}
	if meta.IsDefined("stream", "tls_ca_file") {
		cfg.Stream.TLS.CAFile = strings.TrimSpace(raw.Stream.TLSCAFile)
	}
	if meta.IsDefined("stream", "tls_server_name") {
		cfg.Stream.TLS.ServerName = strings.TrimSpace(raw.Stream.TLSServerName)
	}

	if meta.IsDefined("store", "driver") {
		cfg.StoreDriver = strings.ToLower(strings.TrimSpace(raw.Store.Driver))
	}
	if meta.IsDefined("store", "path") {
		cfg.StorePath = strings.TrimSpace(raw.Store.Path)
	}
	if meta.IsDefined("store", "list_cache_size") {
		cfg.ListCacheSize = raw.Store.ListCacheSize
	}
	if meta.IsDefined("store", "capture_dir") {
		cfg.CaptureDir = strings.TrimSpace(raw.Store.CaptureDir)
	}

	if meta.IsDefined("client", "cache_size") {
		cfg.Client.CacheSize = raw.Client.CacheSize
	}
	if meta.IsDefined("client", "timeout") {
		d, err := parseDuration("client.timeout", raw.Client.Timeout)
		if err != nil {
			return Config{}, err
		}
		cfg.Client.Timeout = d
	}
	if meta.IsDefined("client", "drop_unknown") {
		cfg.Client.DropUnknown = raw.Client.DropUnknown
	}
	if meta.IsDefined("client", "retry_attempts") {
		cfg.Retry.Attempts = raw.Client.RetryAttempts
	}
	if meta.IsDefined("client", "retry_initial_delay") {
		d, err := parseDuration("client.retry_initial_delay", raw.Client.RetryInitial)
		if err != nil {
			return Config{}, err
		}
		cfg.Retry.Backoff.InitialDelay = d
	}
	if meta.IsDefined("client", "retry_max_delay") {
		d, err := parseDuration("client.retry_max_delay", raw.Client.RetryMax)
		if err != nil {
			return Config{}, err
		}
		cfg.Retry.Backoff.MaxDelay = d
	}
	if meta.IsDefined("client", "retry_multiplier") {
		cfg.Retry.Backoff.Multiplier = raw.Client.RetryFactor
	}
	if meta.IsDefined("client", "retry_jitter") {
		cfg.Retry.Backoff.Jitter = raw.Client.RetryJitter
	}

	if meta.IsDefined("codec", "max_string_bytes") {
		cfg.Limits.MaxStringBytes = raw.Codec.MaxStringBytes
	}
	if meta.IsDefined("codec", "max_slice_len") {
		cfg.Limits.MaxSliceLen = raw.Codec.MaxSliceLen
	}
	cfg.Client.Limits = cfg.Limits

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Validate reports the first setting that cannot work.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("config missing name")
	}
	switch cfg.StoreDriver {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(cfg.StorePath) == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("store.driver %q is not memory or sqlite", cfg.StoreDriver)
	}
	if cfg.ListCacheSize < 0 || cfg.Client.CacheSize < 0 {
		return fmt.Errorf("cache sizes must not be negative")
	}
	if cfg.Retry.Attempts < 1 {
		return fmt.Errorf("client.retry_attempts must be at least 1")
	}
	if cfg.Retry.Backoff.Multiplier < 1 {
		return fmt.Errorf("client.retry_multiplier must be at least 1")
	}
	if cfg.Limits.MaxStringBytes == 0 || cfg.Limits.MaxSliceLen == 0 {
		return fmt.Errorf("codec limits must be positive")
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" && strings.TrimSpace(cfg.StreamAddr) == "" {
		return fmt.Errorf("one of http.addr or stream.addr is required")
	}
	if cfg.Stream.TLS.Enabled || service.NormalizeSecurityMode(cfg.Stream.Security) == service.SecurityModeProduction {
		if err := cfg.Stream.ValidateServer(); err != nil {
			return fmt.Errorf("stream: %w", err)
		}
	}
	return nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("parse %s: negative duration %s", key, d)
	}
	return d, nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
