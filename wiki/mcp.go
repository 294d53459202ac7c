package wiki

import (
	"context"
	"errors"
	"iter"
	"net/url"
	"strconv"
	"strings"
)

// MCP Tool wrapper methods
// These methods wrap the client methods with Args/Result types for MCP integration.

// SiteInfoMCP is the MCP wrapper for SiteInfo
func (c *Client) SiteInfoMCP(ctx context.Context, args SiteInfoArgs) (SiteInfoResult, error) {
	props := args.Props
	if len(props) == 0 {
		props = []string{"general"}
	}
	info, err := c.SiteInfo(ctx, url.Values{"siprop": {strings.Join(props, "|")}})
	if err != nil {
		return SiteInfoResult{}, err
	}
	return SiteInfoResult{Info: info}, nil
}

// UserInfoMCP is the MCP wrapper for UserInfo
func (c *Client) UserInfoMCP(ctx context.Context, args UserInfoArgs) (UserInfoResult, error) {
	params := url.Values{}
	if len(args.Props) > 0 {
		params.Set("uiprop", strings.Join(args.Props, "|"))
	}
	info, err := c.UserInfo(ctx, params)
	if err != nil {
		return UserInfoResult{}, err
	}
	return UserInfoResult{User: info, Anonymous: getBool(info["anon"])}, nil
}

// QueryListMCP is the MCP wrapper for QueryList
func (c *Client) QueryListMCP(ctx context.Context, args QueryListArgs) (QueryListResult, error) {
	if args.List == "" {
		return QueryListResult{}, errors.New("list is required")
	}
	items, truncated, err := take(c.QueryList(ctx, args.List, toValues(args.Params)), args.Limit)
	if err != nil {
		return QueryListResult{}, err
	}
	return QueryListResult{List: args.List, Items: items, Count: len(items), Truncated: truncated}, nil
}

// QueryPropMCP is the MCP wrapper for QueryProp
func (c *Client) QueryPropMCP(ctx context.Context, args QueryPropArgs) (QueryPropResult, error) {
	if args.Prop == "" {
		return QueryPropResult{}, errors.New("prop is required")
	}
	if len(args.Titles) == 0 && len(args.PageIDs) == 0 {
		return QueryPropResult{}, errors.New("titles or pageids is required")
	}

	params := toValues(args.Params)
	if len(args.Titles) > 0 {
		params.Set("titles", strings.Join(args.Titles, "|"))
	}
	if len(args.PageIDs) > 0 {
		ids := make([]string, len(args.PageIDs))
		for i, id := range args.PageIDs {
			ids[i] = strconv.Itoa(id)
		}
		params.Set("pageids", strings.Join(ids, "|"))
	}

	pages, truncated, err := take(c.QueryProp(ctx, args.Prop, params), args.Limit)
	if err != nil {
		return QueryPropResult{}, err
	}
	return QueryPropResult{Prop: args.Prop, Pages: pages, Count: len(pages), Truncated: truncated}, nil
}

// QueryMetaMCP is the MCP wrapper for QueryMeta
func (c *Client) QueryMetaMCP(ctx context.Context, args QueryMetaArgs) (QueryMetaResult, error) {
	if args.Meta == "" {
		return QueryMetaResult{}, errors.New("meta is required")
	}
	result, err := c.QueryMeta(ctx, args.Meta, toValues(args.Params))
	if err != nil {
		return QueryMetaResult{}, err
	}
	return QueryMetaResult{Meta: args.Meta, Result: result}, nil
}

// RecentChangesMCP is the MCP wrapper for RecentChanges
func (c *Client) RecentChangesMCP(ctx context.Context, args RecentChangesArgs) (QueryListResult, error) {
	params := url.Values{"rclimit": {strconv.Itoa(clampLimit(args.Limit))}}
	if args.Namespace != nil {
		params.Set("rcnamespace", strconv.Itoa(*args.Namespace))
	}
	if args.Type != "" {
		params.Set("rctype", args.Type)
	}
	if args.Start != "" {
		params.Set("rcstart", args.Start)
	}

	items, truncated, err := take(c.RecentChanges(ctx, params), args.Limit)
	if err != nil {
		return QueryListResult{}, err
	}
	return QueryListResult{List: "recentchanges", Items: items, Count: len(items), Truncated: truncated}, nil
}

// LogEventsMCP is the MCP wrapper for LogEvents
func (c *Client) LogEventsMCP(ctx context.Context, args LogEventsArgs) (QueryListResult, error) {
	params := url.Values{"lelimit": {strconv.Itoa(clampLimit(args.Limit))}}
	if args.Type != "" {
		params.Set("letype", args.Type)
	}
	if args.User != "" {
		params.Set("leuser", args.User)
	}
	if args.Title != "" {
		params.Set("letitle", args.Title)
	}

	items, truncated, err := take(c.LogEvents(ctx, params), args.Limit)
	if err != nil {
		return QueryListResult{}, err
	}
	return QueryListResult{List: "logevents", Items: items, Count: len(items), Truncated: truncated}, nil
}

// RevisionsMCP is the MCP wrapper for Revisions on a single page
func (c *Client) RevisionsMCP(ctx context.Context, args RevisionsArgs) (RevisionsResult, error) {
	if args.Title == "" {
		return RevisionsResult{}, errors.New("title is required")
	}
	limit := clampLimit(args.Limit)
	params := url.Values{
		"titles": {args.Title},
		"rvprop": {"ids|timestamp|user|comment|size"},
		// history mode, so the limit applies per request
		"rvlimit": {strconv.Itoa(limit)},
	}
	if args.Start != "" {
		params.Set("rvstart", args.Start)
	}
	if args.User != "" {
		params.Set("rvuser", args.User)
	}

	result := RevisionsResult{Title: args.Title}
	for page, err := range c.Revisions(ctx, params) {
		if err != nil {
			return RevisionsResult{}, err
		}
		result.Title = getString(page["title"])
		result.Missing = getBool(page["missing"])
		result.Revisions = append(result.Revisions, getSlice(page["revisions"])...)
		if len(result.Revisions) >= limit {
			result.Revisions = result.Revisions[:limit]
			result.Truncated = true
			break
		}
	}
	result.Count = len(result.Revisions)
	return result, nil
}

// LangLinksMCP is the MCP wrapper for LangLinks
func (c *Client) LangLinksMCP(ctx context.Context, args LangLinksArgs) (QueryPropResult, error) {
	if len(args.Titles) == 0 {
		return QueryPropResult{}, errors.New("titles is required")
	}
	params := url.Values{"titles": {strings.Join(args.Titles, "|")}}
	if args.Lang != "" {
		params.Set("lllang", args.Lang)
	}

	pages, truncated, err := take(c.LangLinks(ctx, params), MaxItemLimit)
	if err != nil {
		return QueryPropResult{}, err
	}
	return QueryPropResult{Prop: "langlinks", Pages: pages, Count: len(pages), Truncated: truncated}, nil
}

// PatrolMCP is the MCP wrapper for Patrol
func (c *Client) PatrolMCP(ctx context.Context, args PatrolArgs) (PatrolResult, error) {
	params := url.Values{}
	switch {
	case args.RevID > 0:
		params.Set("revid", strconv.Itoa(args.RevID))
	case args.RCID > 0:
		params.Set("rcid", strconv.Itoa(args.RCID))
	default:
		return PatrolResult{}, errors.New("revid or rcid is required")
	}

	patrol, err := c.Patrol(ctx, params)
	if err != nil {
		return PatrolResult{}, err
	}
	return PatrolResult{
		RCID:  getInt(patrol["rcid"]),
		Title: getString(patrol["title"]),
		NS:    getInt(patrol["ns"]),
	}, nil
}

// take collects up to limit values and stops the sequence as soon as the
// limit is reached, so no further continuation requests are made. The
// second result reports that the limit cut the sequence short; more
// values may or may not have followed.
func take(seq iter.Seq2[map[string]any, error], limit int) ([]map[string]any, bool, error) {
	limit = clampLimit(limit)
	out := make([]map[string]any, 0, min(limit, DefaultItemLimit))
	for v, err := range seq {
		if err != nil {
			return nil, false, err
		}
		out = append(out, v)
		if len(out) == limit {
			return out, true, nil
		}
	}
	return out, false, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultItemLimit
	}
	return min(limit, MaxItemLimit)
}

func toValues(params map[string]string) url.Values {
	v := make(url.Values, len(params))
	for k, val := range params {
		v.Set(k, val)
	}
	return v
}
