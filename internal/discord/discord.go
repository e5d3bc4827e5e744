// Package discord provides a minimal Discord REST API client, that knows just
// enough to find and delete messages of the current user.
package discord

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/mattn/go-colorable"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the Discord API endpoint.
const DefaultBaseURL = "https://discord.com/api/v9"

const (
	defBatchSize  = 100
	defCacheEvict = 10 * time.Minute
	defCacheSz    = 20
	defRPS        = 40 // global limit is 50 requests per second.
	defTimeout    = 30 * time.Second

	userAgent = "DiscordBot (https://github.com/rusq/wipemychannel, 1.0)"
)

// ErrNoToken is returned by New if the token is empty.
var ErrNoToken = errors.New("no token provided")

type Client struct {
	cl      *http.Client
	baseURL string
	token   string

	cache   gcache.Cache
	limiter *rate.Limiter
	log     *zap.Logger
}

type cacheKey uint64

type Option func(c *Client)

// WithBaseURL allows to override the API endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u == "" {
			return
		}
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient allows to specify a custom http client.
func WithHTTPClient(cl *http.Client) Option {
	return func(c *Client) {
		if cl == nil {
			return
		}
		c.cl = cl
	}
}

// WithLimiter sets the limiter that every API call waits on.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		if l == nil {
			return
		}
		c.limiter = l
	}
}

// WithDebug enables logging of API calls to stdout.
func WithDebug(enable bool) Option {
	return func(c *Client) {
		if !enable {
			c.log = zap.NewNop()
			return
		}
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		c.log = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(cfg),
			zapcore.AddSync(colorable.NewColorableStdout()),
			zapcore.DebugLevel,
		))
	}
}

// New creates a new client authorised with token.
func New(token string, opts ...Option) (*Client, error) {
	if token == "" {
		return nil, ErrNoToken
	}
	var c = Client{
		cl:      &http.Client{Timeout: defTimeout},
		baseURL: DefaultBaseURL,
		token:   token,

		cache:   gcache.New(defCacheSz).LFU().Expiration(defCacheEvict).Build(),
		limiter: rate.NewLimiter(rate.Limit(defRPS), 1),
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return &c, nil
}

// do executes the API call and decodes the response body into v, if v is
// not nil.  It returns the HTTP status code.  Non-2xx responses are
// returned as *APIError.
func (c *Client) do(ctx context.Context, method string, path string, q url.Values, v any) (int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	uri := c.baseURL + path
	if len(q) > 0 {
		uri += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, uri, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.cl.Do(req)
	if err != nil {
		c.log.Debug("api error", zap.String("method", method), zap.String("uri", uri), zap.Error(err))
		return 0, err
	}
	defer resp.Body.Close()
	c.log.Debug("api call",
		zap.String("method", method),
		zap.String("uri", uri),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, newAPIError(resp)
	}
	if v == nil || resp.StatusCode == http.StatusNoContent {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return resp.StatusCode, fmt.Errorf("decoding %s: %w", path, err)
	}
	return resp.StatusCode, nil
}
