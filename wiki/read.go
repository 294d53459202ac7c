package wiki

import (
	"context"
	"iter"
	"net/url"
	"strings"
)

// Tokens fetches tokens of the given types without touching the cache.
// Keys of the result are "<type>token".
func (c *Client) Tokens(ctx context.Context, types ...string) (map[string]any, error) {
	params := url.Values{}
	if len(types) > 0 {
		params.Set("type", strings.Join(types, "|"))
	}
	tokens, err := c.QueryMeta(ctx, "tokens", params)
	if err != nil {
		return nil, err
	}
	return getMap(tokens), nil
}

// SiteInfo returns the query object of meta=siteinfo
func (c *Client) SiteInfo(ctx context.Context, params url.Values) (map[string]any, error) {
	info, err := c.QueryMeta(ctx, "siteinfo", params)
	if err != nil {
		return nil, err
	}
	return getMap(info), nil
}

// UserInfo returns meta=userinfo for the session's user
func (c *Client) UserInfo(ctx context.Context, params url.Values) (map[string]any, error) {
	info, err := c.QueryMeta(ctx, "userinfo", params)
	if err != nil {
		return nil, err
	}
	return getMap(info), nil
}

// FileRepoInfo returns the wiki's file repositories
func (c *Client) FileRepoInfo(ctx context.Context, params url.Values) ([]any, error) {
	repos, err := c.QueryMeta(ctx, "filerepoinfo", params)
	if err != nil {
		return nil, err
	}
	return getSlice(repos), nil
}

// RecentChanges yields list=recentchanges entries
func (c *Client) RecentChanges(ctx context.Context, params url.Values) iter.Seq2[map[string]any, error] {
	return c.QueryList(ctx, "recentchanges", params)
}

// LogEvents yields list=logevents entries
func (c *Client) LogEvents(ctx context.Context, params url.Values) iter.Seq2[map[string]any, error] {
	return c.QueryList(ctx, "logevents", params)
}

// LangLinks yields pages with their interlanguage links, lllimit=max unless set
func (c *Client) LangLinks(ctx context.Context, params url.Values) iter.Seq2[map[string]any, error] {
	params = ensureParams(params)
	if !params.Has("lllimit") {
		params.Set("lllimit", "max")
	}
	return c.QueryProp(ctx, "langlinks", params)
}

// revisionEnumParams select the single-page enumeration mode of prop=revisions
var revisionEnumParams = []string{"rvstart", "rvend", "rvdir", "rvuser", "rvexcludeuser", "rvstartid", "rvendid"}

// Revisions yields pages with their revisions. When enumerating the history
// of a single page, rvlimit defaults to max.
func (c *Client) Revisions(ctx context.Context, params url.Values) iter.Seq2[map[string]any, error] {
	params = ensureParams(params)
	if !params.Has("rvlimit") {
		for _, key := range revisionEnumParams {
			if params.Has(key) {
				params.Set("rvlimit", "max")
				break
			}
		}
	}
	return c.QueryProp(ctx, "revisions", params)
}
