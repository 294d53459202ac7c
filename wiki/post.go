package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/olgasafonova/mwapi/metrics"
	"github.com/olgasafonova/mwapi/tracing"
)

// File is one multipart attachment of a POST
type File struct {
	// Field is the form field name ("file" or "chunk" for uploads)
	Field string
	// Name is the file name sent in the part header
	Name   string
	Reader io.Reader
}

// apiCall is one submitted request, kept so recovery handlers can resubmit it
type apiCall struct {
	params url.Values
	files  []File
	header http.Header
}

// Post sends params to the API and returns the decoded response.
//
// params is modified in place: the forced format parameters, the action's
// token, maxlag and assertuser are added to it. Server errors are routed
// through the recovery handlers; what they cannot resolve is returned as
// *APIError.
func (c *Client) Post(ctx context.Context, params url.Values) (map[string]any, error) {
	return c.post(ctx, params, nil)
}

// PostFiles is Post with multipart file attachments
func (c *Client) PostFiles(ctx context.Context, params url.Values, files []File) (map[string]any, error) {
	return c.post(ctx, params, files)
}

func (c *Client) post(ctx context.Context, params url.Values, files []File) (map[string]any, error) {
	if c.isClosed() {
		return nil, ErrClientClosed
	}
	if params == nil {
		params = url.Values{}
	}

	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("errorformat", "plaintext")
	params.Set("maxlag", strconv.Itoa(c.config.MaxLag))

	if err := c.prepareAction(ctx, params); err != nil {
		return nil, err
	}
	if user := c.User(); user != "" {
		params.Set("assertuser", user)
	}

	action := params.Get("action")
	ctx, span := tracing.StartSpan(ctx, "mediawiki.api.post")
	defer span.End()
	tracing.AddAPIAttributes(span, action, queryModule(params))

	c.logger.Debug("API request",
		"action", action,
		"params", redact(params).Encode(),
		"files", len(files),
	)

	start := time.Now()
	resp, err := c.send(ctx, params, files)
	if err != nil {
		metrics.RecordAPICall(action, time.Since(start).Seconds(), false)
		tracing.RecordError(span, err)
		return nil, err
	}
	duration := time.Since(start).Seconds()

	var body map[string]any
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		metrics.RecordAPICall(action, duration, false)
		err = fmt.Errorf("failed to parse response (HTTP %d): %w", resp.StatusCode(), err)
		tracing.RecordError(span, err)
		return nil, err
	}
	c.logger.Debug("API response",
		"action", action,
		"status", resp.StatusCode(),
		"body", truncate(string(resp.Body()), 2000),
	)

	if warnings, ok := body["warnings"]; ok {
		metrics.WikiAPIWarnings.WithLabelValues(action).Inc()
		c.logger.Warn("API warnings", "action", action, "warnings", warnings)
	}

	errs, ok := body["errors"]
	if !ok {
		metrics.RecordAPICall(action, duration, true)
		return body, nil
	}

	details := parseErrorDetails(errs)
	codes := make([]string, len(details))
	for i, d := range details {
		codes[i] = d.Code
	}
	metrics.RecordAPICall(action, duration, false, codes...)

	call := &apiCall{params: params, files: files, header: resp.Header()}
	result, err := c.dispatch(ctx, call, details)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return result, nil
}

// prepareAction logs in for actions that need a user and fills in the
// action's token parameter unless the caller supplied one.
func (c *Client) prepareAction(ctx context.Context, params url.Values) error {
	action := params.Get("action")
	if action == "" {
		return nil
	}

	if RequiresLogin(action) && c.User() == "" {
		if _, err := c.Login(ctx, "", "", nil); err != nil {
			return fmt.Errorf("login required for %s: %w", action, err)
		}
	}

	param, tokenType := TokenParam(action)
	if param == "" || params.Has(param) {
		return nil
	}
	token, err := c.tokens.Get(ctx, tokenType)
	if err != nil {
		return err
	}
	params.Set(param, token)
	return nil
}

// send performs the HTTP POST, urlencoded or multipart when files are given
func (c *Client) send(ctx context.Context, params url.Values, files []File) (*resty.Response, error) {
	if c.limiter != nil {
		if c.limiter.Tokens() < 1 {
			metrics.RateLimitWaits.Inc()
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req := c.http.R().
		SetContext(ctx).
		SetFormDataFromValues(params)
	for _, f := range files {
		req.SetFileReader(f.Field, f.Name, f.Reader)
	}

	resp, err := req.Post(c.config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// resubmit posts a recovered call again. Seekable file readers are rewound
// so the attachments are sent in full.
func (c *Client) resubmit(ctx context.Context, call *apiCall) (map[string]any, error) {
	for _, f := range call.files {
		if s, ok := f.Reader.(io.Seeker); ok {
			if _, err := s.Seek(0, io.SeekStart); err != nil {
				return nil, fmt.Errorf("rewind %s: %w", f.Name, err)
			}
		}
	}
	return c.post(ctx, call.params, call.files)
}

func parseErrorDetails(v any) []ErrorDetail {
	items := getSlice(v)
	details := make([]ErrorDetail, 0, len(items))
	for _, item := range items {
		m := getMap(item)
		details = append(details, ErrorDetail{
			Code:   getString(m["code"]),
			Module: getString(m["module"]),
			Text:   getString(m["text"]),
			Data:   getMap(m["data"]),
		})
	}
	return details
}

// queryModule names the submodule of an action=query request for tracing
func queryModule(params url.Values) string {
	for _, key := range []string{"list", "prop", "meta"} {
		if v := params.Get(key); v != "" {
			return v
		}
	}
	return ""
}

var secretParams = []string{"lgpassword", "password"}

// redact returns a copy of params safe for logging
func redact(params url.Values) url.Values {
	out := make(url.Values, len(params))
	for k, v := range params {
		out[k] = v
	}
	for _, k := range secretParams {
		if out.Has(k) {
			out[k] = []string{"<redacted>"}
		}
	}
	return out
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
