package wiki

import (
	"context"
	"errors"
	"iter"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/olgasafonova/mwapi/metrics"
)

// PostAndContinue posts params and follows the server's continuation
// protocol, yielding one decoded response per round.
//
// The sequence is lazy: each pull issues at most one request, and
// breaking out of the range loop stops further requests. It cannot be
// restarted, because params is rewritten with the continuation state of
// every round. An error is yielded at most once and ends the sequence.
//
// A toomanyvalues error splits the offending pipe-separated parameter into
// server-sized chunks; each chunk is continued in full, in order, and the
// sequence ends after the last chunk.
func (c *Client) PostAndContinue(ctx context.Context, params url.Values) iter.Seq2[map[string]any, error] {
	return func(yield func(map[string]any, error) bool) {
		c.postAndContinue(ctx, params, yield)
	}
}

// postAndContinue reports whether the consumer wants more values
func (c *Client) postAndContinue(ctx context.Context, params url.Values, yield func(map[string]any, error) bool) bool {
	if params.Has("rawcontinue") {
		yield(nil, ErrRawContinue)
		return false
	}

	action := params.Get("action")
	var prev map[string]any
	for {
		resp, err := c.Post(ctx, params)
		if err != nil {
			var tmv *TooManyValuesError
			if errors.As(err, &tmv) && tmv.Param != "" && tmv.Limit > 0 && params.Has(tmv.Param) {
				return c.continueInChunks(ctx, params, tmv, yield)
			}
			yield(nil, err)
			return false
		}
		metrics.ContinuationRounds.WithLabelValues(action).Inc()

		if !yield(resp, nil) {
			return false
		}

		cont, ok := resp["continue"].(map[string]any)
		if !ok {
			return true
		}
		// Keys present in the previous round but absent now belong to a
		// finished sub-sequence.
		for key := range prev {
			if _, ok := cont[key]; !ok {
				params.Del(key)
			}
		}
		for key, value := range cont {
			params.Set(key, formValue(value))
		}
		prev = cont
	}
}

func (c *Client) continueInChunks(ctx context.Context, params url.Values, tmv *TooManyValuesError, yield func(map[string]any, error) bool) bool {
	values := strings.Split(params.Get(tmv.Param), "|")
	c.logger.Warn("toomanyvalues error occurred; splitting into several API calls",
		"param", tmv.Param,
		"values", len(values),
		"limit", tmv.Limit,
	)

	for chunk := range slices.Chunk(values, tmv.Limit) {
		chunkParams := maps.Clone(params)
		chunkParams.Set(tmv.Param, strings.Join(chunk, "|"))
		if !c.postAndContinue(ctx, chunkParams, yield) {
			return false
		}
	}
	return true
}
