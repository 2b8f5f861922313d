package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/gfxtrace/internal/service"
	"github.com/pelletier/go-toml/v2"
)

type clientTemplate struct {
	Name   string     `toml:"name"`
	Stream streamFile `toml:"stream"`
	Client clientFile `toml:"client"`
	Codec  codecFile  `toml:"codec"`
}

// Template renders the defaults for kind ("server" or "client") as TOML.
func Template(kind string) (string, error) {
	file := toFile(Default())
	var v any
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		v = file
	case "client":
		v = clientTemplate{Name: file.Name, Stream: file.Stream, Client: file.Client, Codec: file.Codec}
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
	out, err := toml.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("render %s template: %w", kind, err)
	}
	return string(out), nil
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

func toFile(cfg Config) fileConfig {
	return fileConfig{
		Name: cfg.Name,
		HTTP: httpFile{
			Addr:            cfg.HTTPAddr,
			AuthToken:       cfg.HTTPAuthToken,
			CORSOrigins:     cfg.CORSOrigins,
			MaxPayloadBytes: cfg.MaxPayloadBytes,
		},
		Stream: streamFile{
			Addr:          cfg.StreamAddr,
			AuthToken:     cfg.Stream.AuthToken,
			SecurityMode:  string(service.NormalizeSecurityMode(cfg.Stream.Security)),
			TLSEnabled:    cfg.Stream.TLS.Enabled,
			TLSMutual:     cfg.Stream.TLS.Mutual,
			TLSCertFile:   cfg.Stream.TLS.CertFile,
			TLSKeyFile:    cfg.Stream.TLS.KeyFile,
			TLSCAFile:     cfg.Stream.TLS.CAFile,
			TLSServerName: cfg.Stream.TLS.ServerName,
		},
		Store: storeFile{
			Driver:        cfg.StoreDriver,
			Path:          cfg.StorePath,
			ListCacheSize: cfg.ListCacheSize,
			CaptureDir:    cfg.CaptureDir,
		},
		Client: clientFile{
			CacheSize:     cfg.Client.CacheSize,
			Timeout:       cfg.Client.Timeout.String(),
			DropUnknown:   cfg.Client.DropUnknown,
			RetryAttempts: cfg.Retry.Attempts,
			RetryInitial:  cfg.Retry.Backoff.InitialDelay.String(),
			RetryMax:      cfg.Retry.Backoff.MaxDelay.String(),
			RetryFactor:   cfg.Retry.Backoff.Multiplier,
			RetryJitter:   cfg.Retry.Backoff.Jitter,
		},
		Codec: codecFile{
			MaxStringBytes: cfg.Limits.MaxStringBytes,
			MaxSliceLen:    cfg.Limits.MaxSliceLen,
		},
	}
}
