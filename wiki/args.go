package wiki

// DefaultItemLimit caps items collected by a list or prop tool call
const DefaultItemLimit = 50

// MaxItemLimit is the largest limit a tool call may request
const MaxItemLimit = 500

// SiteInfoArgs contains parameters for meta=siteinfo
type SiteInfoArgs struct {
	Props []string `json:"props,omitempty" jsonschema_description:"siprop values (general, namespaces, statistics, ...). Default: general"`
}

// SiteInfoResult is the unwrapped siteinfo query object
type SiteInfoResult struct {
	Info map[string]any `json:"info"`
}

// UserInfoArgs contains parameters for meta=userinfo
type UserInfoArgs struct {
	Props []string `json:"props,omitempty" jsonschema_description:"uiprop values (groups, rights, editcount, ...)"`
}

// UserInfoResult describes the session's user
type UserInfoResult struct {
	User      map[string]any `json:"user"`
	Anonymous bool           `json:"anonymous"`
}

// QueryListArgs contains parameters for a generic list query
type QueryListArgs struct {
	List   string            `json:"list" jsonschema:"required" jsonschema_description:"List module (allpages, categorymembers, search, ...)"`
	Params map[string]string `json:"params,omitempty" jsonschema_description:"Additional API parameters, e.g. {\"apprefix\": \"Foo\"}"`
	Limit  int               `json:"limit,omitempty" jsonschema_description:"Max items to return across continuation (default 50, max 500)"`
}

// QueryListResult holds the collected list items
type QueryListResult struct {
	List      string           `json:"list"`
	Items     []map[string]any `json:"items"`
	Count     int              `json:"count"`
	Truncated bool             `json:"truncated,omitempty"`
}

// QueryPropArgs contains parameters for a generic prop query
type QueryPropArgs struct {
	Prop    string            `json:"prop" jsonschema:"required" jsonschema_description:"Prop module (revisions, categories, langlinks, info, ...)"`
	Titles  []string          `json:"titles,omitempty" jsonschema_description:"Page titles"`
	PageIDs []int             `json:"pageids,omitempty" jsonschema_description:"Page IDs"`
	Params  map[string]string `json:"params,omitempty" jsonschema_description:"Additional API parameters"`
	Limit   int               `json:"limit,omitempty" jsonschema_description:"Max pages to return (default 50, max 500)"`
}

// QueryPropResult holds pages with their merged prop values
type QueryPropResult struct {
	Prop      string           `json:"prop"`
	Pages     []map[string]any `json:"pages"`
	Count     int              `json:"count"`
	Truncated bool             `json:"truncated,omitempty"`
}

// QueryMetaArgs contains parameters for a generic meta query
type QueryMetaArgs struct {
	Meta   string            `json:"meta" jsonschema:"required" jsonschema_description:"Meta module (siteinfo, userinfo, filerepoinfo, allmessages, ...)"`
	Params map[string]string `json:"params,omitempty" jsonschema_description:"Additional API parameters"`
}

// QueryMetaResult holds the meta module's payload
type QueryMetaResult struct {
	Meta   string `json:"meta"`
	Result any    `json:"result"`
}

// RecentChangesArgs contains parameters for list=recentchanges
type RecentChangesArgs struct {
	Namespace *int   `json:"namespace,omitempty" jsonschema_description:"Only changes in this namespace"`
	Type      string `json:"type,omitempty" jsonschema_description:"Change types: edit, new, log, categorize (pipe-separated)"`
	Start     string `json:"start,omitempty" jsonschema_description:"Newest timestamp to list from (ISO 8601)"`
	Limit     int    `json:"limit,omitempty" jsonschema_description:"Max changes (default 50, max 500)"`
}

// LogEventsArgs contains parameters for list=logevents
type LogEventsArgs struct {
	Type  string `json:"type,omitempty" jsonschema_description:"Log type (block, delete, upload, ...)"`
	User  string `json:"user,omitempty" jsonschema_description:"Only events by this user"`
	Title string `json:"title,omitempty" jsonschema_description:"Only events for this page"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Max events (default 50, max 500)"`
}

// RevisionsArgs contains parameters for prop=revisions on one page
type RevisionsArgs struct {
	Title string `json:"title" jsonschema:"required" jsonschema_description:"Page title"`
	Start string `json:"start,omitempty" jsonschema_description:"Timestamp to start enumerating from (enables history mode)"`
	User  string `json:"user,omitempty" jsonschema_description:"Only revisions by this user"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Max revisions (default 50, max 500)"`
}

// RevisionsResult holds a page's revisions
type RevisionsResult struct {
	Title     string `json:"title"`
	Revisions []any  `json:"revisions"`
	Count     int    `json:"count"`
	Missing   bool   `json:"missing,omitempty"`
	Truncated bool   `json:"truncated,omitempty"`
}

// LangLinksArgs contains parameters for prop=langlinks
type LangLinksArgs struct {
	Titles []string `json:"titles" jsonschema:"required" jsonschema_description:"Page titles"`
	Lang   string   `json:"lang,omitempty" jsonschema_description:"Only links to this language code"`
}

// PatrolArgs contains parameters for action=patrol
type PatrolArgs struct {
	RevID int `json:"revid,omitempty" jsonschema_description:"Revision ID to patrol"`
	RCID  int `json:"rcid,omitempty" jsonschema_description:"Recent changes ID to patrol"`
}

// PatrolResult is the server's patrol confirmation
type PatrolResult struct {
	RCID  int    `json:"rcid"`
	Title string `json:"title"`
	NS    int    `json:"ns"`
}
