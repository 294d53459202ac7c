package wiki

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
)

// Query runs action=query with continuation
func (c *Client) Query(ctx context.Context, params url.Values) iter.Seq2[map[string]any, error] {
	params = ensureParams(params)
	params.Set("action", "query")
	return c.PostAndContinue(ctx, params)
}

// QueryList yields the items of list=<list> across all continuation rounds.
// Every round must carry batchcomplete; a round without it yields a
// *ProtocolError.
func (c *Client) QueryList(ctx context.Context, list string, params url.Values) iter.Seq2[map[string]any, error] {
	params = ensureParams(params)
	params.Set("list", list)
	rounds := c.Query(ctx, params)

	return func(yield func(map[string]any, error) bool) {
		for resp, err := range rounds {
			if err != nil {
				yield(nil, err)
				return
			}
			if !getBool(resp["batchcomplete"]) {
				yield(nil, &ProtocolError{
					Reason:   fmt.Sprintf("list=%s response without batchcomplete", list),
					Response: resp,
				})
				return
			}
			for _, item := range getSlice(getNestedMap(resp, "query")[list]) {
				if !yield(getMap(item), nil) {
					return
				}
			}
		}
	}
}

// QueryMeta runs meta=<meta> and returns its payload: the whole query
// object for siteinfo, query.repos for filerepoinfo, and query[meta]
// otherwise. Meta queries must finish in one round.
func (c *Client) QueryMeta(ctx context.Context, meta string, params url.Values) (any, error) {
	params = ensureParams(params)
	params.Set("meta", meta)

	for resp, err := range c.Query(ctx, params) {
		if err != nil {
			return nil, err
		}
		if _, ok := resp["continue"]; ok {
			return nil, &ProtocolError{
				Reason:   fmt.Sprintf("meta=%s response requested continuation", meta),
				Response: resp,
			}
		}

		query := getMap(resp["query"])
		switch meta {
		case "siteinfo":
			return query, nil
		case "filerepoinfo":
			return query["repos"], nil
		default:
			return query[meta], nil
		}
	}
	return nil, &ProtocolError{Reason: fmt.Sprintf("meta=%s produced no response", meta)}
}

// QueryProp yields the pages of prop=<prop> with their prop values merged
// across continuation rounds.
//
// Rounds without batchcomplete are accumulated. Pages are correlated by
// pageid, or by their position in the round when they have none. When the
// batch completes, its pages are yielded in the order of the completing
// round, followed by accumulated pages that round did not mention.
func (c *Client) QueryProp(ctx context.Context, prop string, params url.Values) iter.Seq2[map[string]any, error] {
	params = ensureParams(params)
	params.Set("prop", prop)
	rounds := c.Query(ctx, params)

	return func(yield func(map[string]any, error) bool) {
		var batch *propBatch
		for resp, err := range rounds {
			if err != nil {
				yield(nil, err)
				return
			}
			query := getMap(resp["query"])
			if query == nil {
				continue
			}
			pages := pageObjects(query["pages"])

			if _, complete := resp["batchcomplete"]; !complete {
				if batch == nil {
					batch = newPropBatch(prop)
				}
				batch.add(pages)
				continue
			}

			done := pages
			if batch != nil {
				done = batch.complete(pages)
				batch = nil
			}
			for _, page := range done {
				if !yield(page, nil) {
					return
				}
			}
		}

		// The server ended without completing the batch; hand out what we have.
		if batch != nil {
			c.logger.Warn("Prop batch ended without batchcomplete",
				"prop", prop,
				"pages", len(batch.pages),
			)
			for _, page := range batch.pages {
				if !yield(page, nil) {
					return
				}
			}
		}
	}
}

// propBatch accumulates the pages of one incomplete prop batch
type propBatch struct {
	prop  string
	pages []map[string]any
	index map[string]int
}

func newPropBatch(prop string) *propBatch {
	return &propBatch{prop: prop, index: make(map[string]int)}
}

func (b *propBatch) add(pages []map[string]any) {
	for i, page := range pages {
		key := pageKey(page, i)
		if j, ok := b.index[key]; ok {
			b.merge(b.pages[j], page)
			continue
		}
		b.index[key] = len(b.pages)
		b.pages = append(b.pages, page)
	}
}

// complete merges the final round and returns the finished pages
func (b *propBatch) complete(pages []map[string]any) []map[string]any {
	out := make([]map[string]any, 0, len(b.pages)+len(pages))
	emitted := make(map[int]bool, len(b.pages))
	for i, page := range pages {
		j, ok := b.index[pageKey(page, i)]
		if !ok || emitted[j] {
			out = append(out, page)
			continue
		}
		b.merge(b.pages[j], page)
		emitted[j] = true
		out = append(out, b.pages[j])
	}
	for j, page := range b.pages {
		if !emitted[j] {
			out = append(out, page)
		}
	}
	return out
}

// merge appends page's prop values to into. List values are concatenated,
// object values are merged key by key, and a scalar only fills a gap. A
// list or object whose accumulated value has another shape replaces it.
func (b *propBatch) merge(into, page map[string]any) {
	value, ok := page[b.prop]
	if !ok {
		return
	}
	existing, ok := into[b.prop]
	if !ok {
		into[b.prop] = value
		return
	}
	switch v := value.(type) {
	case []any:
		if list, ok := existing.([]any); ok {
			into[b.prop] = append(list, v...)
			return
		}
	case map[string]any:
		if obj, ok := existing.(map[string]any); ok {
			for k, item := range v {
				if _, seen := obj[k]; !seen {
					obj[k] = item
				}
			}
			return
		}
	default:
		return
	}
	into[b.prop] = value
}

// pageKey identifies a page within a batch
func pageKey(page map[string]any, position int) string {
	if id, ok := page["pageid"].(float64); ok {
		return "pageid:" + strconv.FormatFloat(id, 'f', -1, 64)
	}
	return "#" + strconv.Itoa(position)
}

func pageObjects(v any) []map[string]any {
	items := getSlice(v)
	pages := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if page := getMap(item); page != nil {
			pages = append(pages, page)
		}
	}
	return pages
}

func ensureParams(params url.Values) url.Values {
	if params == nil {
		return url.Values{}
	}
	return params
}
