package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Client is one MediaWiki API session. It owns the cookie-carrying HTTP
// client, the token cache, and the name of the logged-in user.
//
// A Client may be shared between goroutines, but the API itself is meant to
// be used serially: continuation sequences and error recovery assume one
// logical caller at a time.
type Client struct {
	config      *Config
	http        *resty.Client
	logger      *slog.Logger
	tokens      *TokenCache
	limiter     *rate.Limiter
	credentials CredentialsFunc

	// sleep blocks for a server-requested backoff
	sleep func(ctx context.Context, d time.Duration) error

	errorHandlers map[string]errorHandler

	mu     sync.RWMutex
	user   string
	closed bool
}

// ClientOption configures the Client
type ClientOption func(*Client)

// WithHTTPClient sets the underlying *http.Client. A cookie jar is attached
// when the client has none, since login sessions are cookie based.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.http = newRestyClient(hc, c.config, c.logger)
		}
	}
}

// WithCredentials replaces the credentials source used by Login when no
// password is passed explicitly.
func WithCredentials(fn CredentialsFunc) ClientOption {
	return func(c *Client) {
		if fn != nil {
			c.credentials = fn
		}
	}
}

// WithRateLimit paces requests to at most rps per second with the given burst
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// NewClient creates a new MediaWiki API client
func NewClient(config *Config, logger *slog.Logger, opts ...ClientOption) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent()
	}

	c := &Client{
		config: config,
		logger: logger,
		sleep:  sleepContext,
	}
	c.http = newRestyClient(newHTTPClient(config.Timeout), config, logger)
	c.credentials = c.configCredentials
	c.tokens = newTokenCache(c.fetchToken)
	c.errorHandlers = c.defaultErrorHandlers()
	if config.RateLimit > 0 {
		WithRateLimit(config.RateLimit, 1)(c)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close releases idle connections and detaches the token cache. The Client
// must not be used afterwards. Close is safe to call more than once.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.tokens.detach()
	c.http.GetClient().CloseIdleConnections()
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// URL returns the API endpoint
func (c *Client) URL() string {
	return c.config.BaseURL
}

// User returns the logged-in user name, or "" when anonymous
func (c *Client) User() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Client) setUser(name string) {
	c.mu.Lock()
	c.user = name
	c.mu.Unlock()
}

// TokenCache returns the session's token cache
func (c *Client) TokenCache() *TokenCache {
	return c.tokens
}

func (c *Client) String() string {
	return fmt.Sprintf("Client(%q)", c.config.BaseURL)
}

// configCredentials prefers the credentials in Config and falls back to
// the credentials file.
func (c *Client) configCredentials(baseURL, username string) (string, string, error) {
	if c.config.HasCredentials() && (username == "" || username == c.config.Username) {
		return c.config.Username, c.config.Password, nil
	}
	if c.config.CredentialsFile == "" {
		return "", "", ErrNoCredentials
	}
	return LoadCredentials(c.config.CredentialsFile, baseURL, username)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled during maxlag wait: %w", ctx.Err())
	}
}

// newHTTPClient creates an HTTP client with a cookie jar and pooled transport
func newHTTPClient(timeout time.Duration) *http.Client {
	jar, _ := cookiejar.New(nil)

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 60 * time.Second,
		DisableCompression:    false,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Timeout:   timeout,
		Jar:       jar,
		Transport: transport,
	}
}

// newRestyClient wraps hc for form and multipart POSTs. resty's own retries
// stay disabled: only API-level errors are retried, by the dispatcher.
func newRestyClient(hc *http.Client, config *Config, logger *slog.Logger) *resty.Client {
	if hc.Jar == nil {
		hc.Jar, _ = cookiejar.New(nil)
	}
	r := resty.NewWithClient(hc)
	r.SetLogger(restyLogger{logger: logger})
	r.SetRetryCount(0)
	r.SetHeader("User-Agent", config.UserAgent)
	r.SetHeader("Accept", "application/json")
	return r
}
