package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/danmuck/gfxtrace/internal/auth"
	"github.com/danmuck/gfxtrace/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	RPCPath     = "/rpc"
	contentType = "application/octet-stream"
)

// HTTPConfig configures the HTTP front of a Server.
type HTTPConfig struct {
	Name            string
	CORSOrigins     []string
	MaxPayloadBytes int64
	// AuthToken, when set, is required as a bearer token on RPC calls.
	AuthToken string
}

func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Name:            "gfxtrace",
		MaxPayloadBytes: 64 << 20,
	}
}

// NewRouter exposes s over HTTP: POST /rpc takes an encoded call and answers
// with the encoded result.
func NewRouter(s *Server, cfg HTTPConfig) *gin.Engine {
	if cfg.Name == "" {
		cfg.Name = DefaultHTTPConfig().Name
	}
	if cfg.MaxPayloadBytes <= 0 {
		cfg.MaxPayloadBytes = DefaultHTTPConfig().MaxPayloadBytes
	}
	observability.RegisterMetrics()
	started := time.Now()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestID())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.Name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CORSOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", observability.RequestIDHeader},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(started).String(),
			"service": cfg.Name,
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/captures", func(c *gin.Context) {
		infos, err := s.store.Captures(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		list := make([]gin.H, 0, len(infos))
		for _, info := range infos {
			list = append(list, gin.H{
				"id":         info.ID.String(),
				"name":       info.Name,
				"size":       info.Size,
				"created_at": info.CreatedAt,
			})
		}
		c.JSON(http.StatusOK, gin.H{"captures": list})
	})

	r.POST(RPCPath, requireToken(auth.ForToken(cfg.AuthToken)), func(c *gin.Context) {
		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, cfg.MaxPayloadBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.String(http.StatusRequestEntityTooLarge, "request exceeds %d bytes", cfg.MaxPayloadBytes)
				return
			}
			c.String(http.StatusBadRequest, "read request: %v", err)
			return
		}
		out, err := s.Handle(c.Request.Context(), body)
		if err != nil {
			c.String(http.StatusInternalServerError, "handle: %v", err)
			return
		}
		c.Data(http.StatusOK, contentType, out)
	})
	return r
}

func requireToken(v auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := auth.BearerToken(c.GetHeader("Authorization"))
		if err := v.Validate(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Next()
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}

// HTTPTransport posts calls to a server's /rpc endpoint. Network failures and
// 502/503/504 responses are retried with backoff.
type HTTPTransport struct {
	url    string
	client *http.Client
	retry  RetryConfig
	token  string
	rng    *rand.Rand
	sleep  func(context.Context, time.Duration) error
}

func NewHTTPTransport(baseURL string, client *http.Client, retry RetryConfig) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	if retry.Attempts <= 0 {
		retry.Attempts = 1
	}
	return &HTTPTransport{
		url:    strings.TrimRight(baseURL, "/") + RPCPath,
		client: client,
		retry:  retry,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:  sleepContext,
	}
}

// WithAuthToken sends token as a bearer credential on every call.
func (t *HTTPTransport) WithAuthToken(token string) *HTTPTransport {
	t.token = strings.TrimSpace(token)
	return t
}

func (t *HTTPTransport) Send(ctx context.Context, request []byte) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= t.retry.Attempts; attempt++ {
		if attempt > 1 {
			delay := NextBackoffDelay(t.retry.Backoff, attempt-1, t.rng)
			log.Debug().Int("attempt", attempt).Dur("delay", delay).Err(lastErr).Msg("service: retrying rpc")
			if err := t.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
		out, retry, err := t.post(ctx, request)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retry {
			break
		}
	}
	return nil, lastErr
}

func (t *HTTPTransport) post(ctx context.Context, request []byte) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(request))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", contentType)
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, ctx.Err() == nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return body, false, nil
	case http.StatusUnauthorized:
		return nil, false, fmt.Errorf("%w: http %d", ErrUnauthorized, resp.StatusCode)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, true, fmt.Errorf("service: http %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	default:
		return nil, false, fmt.Errorf("service: http %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
