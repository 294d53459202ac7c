package tools

// AllTools contains all tool specifications for the MediaWiki MCP server.
// Tool descriptions follow a structured format for optimal LLM tool selection:
// - USE WHEN: Natural language triggers
// - NOT FOR: Disambiguation from similar tools
// - PARAMETERS: Key arguments with defaults
// - RETURNS: What the tool returns
var AllTools = []ToolSpec{
	// ==========================================================================
	// META TOOLS
	// ==========================================================================
	{
		Name:     "mediawiki_site_info",
		Method:   "SiteInfo",
		Title:    "Site Info",
		Category: "meta",
		Description: `Get information about the wiki itself.

USE WHEN: User asks "which MediaWiki version", "what namespaces exist", "how many articles does the wiki have".

NOT FOR: Information about a page (use mediawiki_query_prop).

PARAMETERS:
- props: siprop values such as general, namespaces, statistics (default: general)

RETURNS: The siteinfo object keyed by prop.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "mediawiki_user_info",
		Method:   "UserInfo",
		Title:    "Current User",
		Category: "meta",
		Description: `Show who the session is logged in as.

USE WHEN: User asks "am I logged in", "which rights does the bot have".

PARAMETERS:
- props: uiprop values such as groups, rights, editcount (optional)

RETURNS: User name, id, anonymous flag and requested props.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "mediawiki_query_meta",
		Method:   "QueryMeta",
		Title:    "Meta Query",
		Category: "meta",
		Description: `Run any meta=<module> query that answers in a single round.

USE WHEN: No dedicated tool exists for the meta module (allmessages, filerepoinfo, tokens, ...).

NOT FOR: siteinfo or userinfo (use the dedicated tools).

PARAMETERS:
- meta: Meta module name (required)
- params: Extra API parameters (optional)

RETURNS: The module's payload.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},

	// ==========================================================================
	// LIST TOOLS
	// ==========================================================================
	{
		Name:     "mediawiki_query_list",
		Method:   "QueryList",
		Title:    "List Query",
		Category: "list",
		Description: `Enumerate any list=<module>, following continuation until the limit.

USE WHEN: User wants all pages with a prefix, category members, search hits, backlinks, ...

NOT FOR: Recent changes or log events (use the dedicated tools).

PARAMETERS:
- list: List module name (required)
- params: Extra API parameters such as {"cmtitle": "Category:Foo"}
- limit: Max items (default 50, max 500)

RETURNS: Items in server order and whether the limit was reached.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "mediawiki_recent_changes",
		Method:   "RecentChanges",
		Title:    "Recent Changes",
		Category: "list",
		Description: `List recent changes on the wiki, newest first.

USE WHEN: User asks "what changed recently", "recent edits in namespace X".

PARAMETERS:
- namespace: Namespace number (optional)
- type: edit, new, log, categorize (optional)
- start: Newest timestamp to start from (optional)
- limit: Max changes (default 50, max 500)

RETURNS: Recent change entries.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "mediawiki_log_events",
		Method:   "LogEvents",
		Title:    "Log Events",
		Category: "list",
		Description: `List log entries (blocks, deletions, uploads, moves, ...).

USE WHEN: User asks "who deleted page X", "recent blocks", "uploads by user Y".

PARAMETERS:
- type: Log type (optional)
- user: Performing user (optional)
- title: Target page (optional)
- limit: Max events (default 50, max 500)

RETURNS: Log events.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},

	// ==========================================================================
	// PROP TOOLS
	// ==========================================================================
	{
		Name:     "mediawiki_query_prop",
		Method:   "QueryProp",
		Title:    "Page Properties",
		Category: "prop",
		Description: `Get prop=<module> values for pages, merged across continuation rounds.

USE WHEN: User wants categories, links, templates, info or any page property.

NOT FOR: Revision history (use mediawiki_revisions).

PARAMETERS:
- prop: Prop module name (required)
- titles or pageids: Pages to query (one is required)
- params: Extra API parameters (optional)
- limit: Max pages (default 50, max 500)

RETURNS: One object per page with the complete prop values.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "mediawiki_revisions",
		Method:   "Revisions",
		Title:    "Page History",
		Category: "prop",
		Description: `Get the revision history of one page.

USE WHEN: User asks "who edited page X", "history of X since date".

PARAMETERS:
- title: Page title (required)
- start: Timestamp to start from (optional)
- user: Only revisions by this user (optional)
- limit: Max revisions (default 50, max 500)

RETURNS: Revisions with ids, timestamp, user, comment and size.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "mediawiki_lang_links",
		Method:   "LangLinks",
		Title:    "Interlanguage Links",
		Category: "prop",
		Description: `Get the interlanguage links of pages.

USE WHEN: User asks "which languages have an article on X", "what is X called in German Wikipedia".

PARAMETERS:
- titles: Page titles (required)
- lang: Only this language code (optional)

RETURNS: Pages with their langlinks.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},

	// ==========================================================================
	// WRITE TOOLS
	// ==========================================================================
	{
		Name:     "mediawiki_patrol",
		Method:   "Patrol",
		Title:    "Patrol Revision",
		Category: "write",
		Description: `Mark a revision or recent change as patrolled. Logs in with the configured bot password when needed.

USE WHEN: User says "mark revision N as patrolled".

PARAMETERS:
- revid or rcid: What to patrol (one is required)

RETURNS: The patrolled change's rcid, title and namespace.`,
		ReadOnly:   false,
		Idempotent: true,
		OpenWorld:  true,
	},
}

// ToolsByCategory returns the tools in the given category
func ToolsByCategory(category string) []ToolSpec {
	var out []ToolSpec
	for _, spec := range AllTools {
		if spec.Category == category {
			out = append(out, spec)
		}
	}
	return out
}

// ReadOnlyTools returns the tools that never modify the wiki. A server
// started without credentials registers only these.
func ReadOnlyTools() []ToolSpec {
	var out []ToolSpec
	for _, spec := range AllTools {
		if spec.ReadOnly {
			out = append(out, spec)
		}
	}
	return out
}
