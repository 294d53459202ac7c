package wiki

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/olgasafonova/mwapi/metrics"
	"github.com/olgasafonova/mwapi/tracing"
)

// defaultRetryAfter is used when a maxlag response lacks a usable Retry-After
const defaultRetryAfter = 5

// errorHandler attempts to recover from one server error. A nil result
// with a nil error means the error was not resolved.
type errorHandler func(ctx context.Context, call *apiCall, detail ErrorDetail) (map[string]any, error)

func (c *Client) defaultErrorHandlers() map[string]errorHandler {
	return map[string]errorHandler{
		"badtoken":       c.handleBadToken,
		"login-required": c.handleLoginRequired,
		"maxlag":         c.handleMaxlag,
		"notloggedin":    c.handleNotLoggedIn,
		"toomanyvalues":  c.handleTooManyValues,
	}
}

// dispatch runs the handlers for details in order. The first non-nil
// result wins and is counted as a recovery; a handler error ends dispatch
// immediately.
func (c *Client) dispatch(ctx context.Context, call *apiCall, details []ErrorDetail) (map[string]any, error) {
	span := trace.SpanFromContext(ctx)
	for _, d := range details {
		handler, ok := c.errorHandlers[d.Code]
		if !ok {
			continue
		}
		result, err := handler(ctx, call, d)
		if err != nil {
			return nil, err
		}
		if result != nil {
			tracing.AddRecoveryEvent(span, d.Code)
			metrics.RecordRecovery(d.Code)
			return result, nil
		}
	}
	return nil, &APIError{Errors: details}
}

// handleBadToken drops the stale token. It never resolves the error: the
// caller sees the APIError and the next request fetches a fresh token.
func (c *Client) handleBadToken(_ context.Context, _ *apiCall, d ErrorDetail) (map[string]any, error) {
	_, tokenType := TokenParam(d.Module)
	if tokenType == "" {
		return nil, nil
	}
	c.logger.Info("invalidating cached token", "type", tokenType, "module", d.Module)
	c.tokens.Invalidate(tokenType)
	return nil, nil
}

func (c *Client) handleLoginRequired(ctx context.Context, call *apiCall, _ ErrorDetail) (map[string]any, error) {
	c.logger.Warn("login-required error occurred; trying to login", "action", call.params.Get("action"))
	if _, err := c.Login(ctx, "", "", nil); err != nil {
		return nil, err
	}
	return c.resubmit(ctx, call)
}

// handleNotLoggedIn logs in and retries without the old token, which
// belonged to the anonymous session.
func (c *Client) handleNotLoggedIn(ctx context.Context, call *apiCall, _ ErrorDetail) (map[string]any, error) {
	action := call.params.Get("action")
	c.logger.Warn("notloggedin error occurred; trying to login", "action", action)
	if _, err := c.Login(ctx, "", "", nil); err != nil {
		return nil, err
	}
	if param, _ := TokenParam(action); param != "" {
		call.params.Del(param)
	}
	return c.resubmit(ctx, call)
}

func (c *Client) handleMaxlag(ctx context.Context, call *apiCall, d ErrorDetail) (map[string]any, error) {
	seconds, err := strconv.Atoi(strings.TrimSpace(call.header.Get("Retry-After")))
	if err != nil || seconds < 0 {
		c.logger.Warn("maxlag response without a valid Retry-After header",
			"retry_after", call.header.Get("Retry-After"),
			"default_seconds", defaultRetryAfter,
		)
		seconds = defaultRetryAfter
	}

	c.logger.Warn("maxlag error, retrying",
		"retry_after_seconds", seconds,
		"lag", getFloat64(d.Data["lag"]),
		"host", d.Data["host"],
	)
	metrics.MaxlagWaitSeconds.Observe(float64(seconds))

	if err := c.sleep(ctx, time.Duration(seconds)*time.Second); err != nil {
		return nil, err
	}
	return c.resubmit(ctx, call)
}

// handleTooManyValues converts the error for the continuation engine,
// which splits the offending parameter into chunks.
func (c *Client) handleTooManyValues(_ context.Context, _ *apiCall, d ErrorDetail) (map[string]any, error) {
	return nil, newTooManyValuesError(d)
}
