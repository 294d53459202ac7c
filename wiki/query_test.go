package wiki

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRecentChanges(t *testing.T) {
	fw := newFakeWiki(t,
		jsonResponse(`{"batchcomplete": true, "continue": {"rccontinue": "20190908072938|4484663", "continue": "-||"}, "query": {"recentchanges": [{"type": "log", "timestamp": "2019-09-08T07:30:00Z"}]}}`),
		jsonResponse(`{"batchcomplete": true, "query": {"recentchanges": [{"type": "categorize", "timestamp": "2019-09-08T07:29:38Z"}]}}`),
	)
	client, _ := createMockClient(t, fw)

	got, err := collect(t, client.RecentChanges(context.Background(), url.Values{"rclimit": {"1"}, "rcprop": {"timestamp"}}))
	if err != nil {
		t.Fatalf("RecentChanges() error = %v", err)
	}
	want := []map[string]any{
		{"type": "log", "timestamp": "2019-09-08T07:30:00Z"},
		{"type": "categorize", "timestamp": "2019-09-08T07:29:38Z"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RecentChanges() mismatch (-want +got):\n%s", diff)
	}

	first := wireForm("action", "query", "list", "recentchanges", "rclimit", "1", "rcprop", "timestamp")
	second := wireForm("action", "query", "list", "recentchanges", "rclimit", "1", "rcprop", "timestamp",
		"rccontinue", "20190908072938|4484663", "continue", "-||")
	assertForms(t, fw, first, second)
}

func TestQueryList_ConcatenatesPagesInOrder(t *testing.T) {
	tests := []struct {
		name  string
		pages []string
		want  []float64
	}{
		{
			name:  "single page",
			pages: []string{`{"batchcomplete": true, "query": {"allpages": [{"id": 1}, {"id": 2}]}}`},
			want:  []float64{1, 2},
		},
		{
			name: "three pages",
			pages: []string{
				`{"batchcomplete": true, "continue": {"apcontinue": "B", "continue": "-||"}, "query": {"allpages": [{"id": 1}]}}`,
				`{"batchcomplete": true, "continue": {"apcontinue": "C", "continue": "-||"}, "query": {"allpages": [{"id": 2}, {"id": 3}]}}`,
				`{"batchcomplete": true, "query": {"allpages": [{"id": 4}]}}`,
			},
			want: []float64{1, 2, 3, 4},
		},
		{
			name: "empty page in the middle",
			pages: []string{
				`{"batchcomplete": true, "continue": {"apcontinue": "B", "continue": "-||"}, "query": {"allpages": [{"id": 1}]}}`,
				`{"batchcomplete": true, "continue": {"apcontinue": "C", "continue": "-||"}, "query": {"allpages": []}}`,
				`{"batchcomplete": true, "query": {"allpages": [{"id": 2}]}}`,
			},
			want: []float64{1, 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responses := make([]fakeResponse, len(tt.pages))
			for i, p := range tt.pages {
				responses[i] = jsonResponse(p)
			}
			fw := newFakeWiki(t, responses...)
			client, _ := createMockClient(t, fw)

			items, err := collect(t, client.QueryList(context.Background(), "allpages", nil))
			if err != nil {
				t.Fatalf("QueryList() error = %v", err)
			}
			var ids []float64
			for _, item := range items {
				ids = append(ids, getFloat64(item["id"]))
			}
			if diff := cmp.Diff(tt.want, ids); diff != "" {
				t.Errorf("items mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestQueryList_MissingBatchComplete(t *testing.T) {
	fw := newFakeWiki(t, jsonResponse(`{"query": {"allpages": [{"id": 1}]}}`))
	client, _ := createMockClient(t, fw)

	items, err := collect(t, client.QueryList(context.Background(), "allpages", nil))
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Fatalf("QueryList() error = %v, want *ProtocolError", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %v, want none", items)
	}
}

func TestLogEvents(t *testing.T) {
	fw := newFakeWiki(t, jsonResponse(`{"batchcomplete": true, "query": {"logevents": [{"timestamp": "2004-12-23T18:41:10Z"}]}}`))
	client, _ := createMockClient(t, fw)

	events, err := collect(t, client.LogEvents(context.Background(), url.Values{
		"lelimit": {"1"}, "leprop": {"timestamp"}, "ledir": {"newer"}, "leend": {"2004-12-23T18:41:10Z"},
	}))
	if err != nil {
		t.Fatalf("LogEvents() error = %v", err)
	}
	if diff := cmp.Diff([]map[string]any{{"timestamp": "2004-12-23T18:41:10Z"}}, events); diff != "" {
		t.Errorf("LogEvents() mismatch (-want +got):\n%s", diff)
	}
	assertForms(t, fw, wireForm("action", "query", "list", "logevents",
		"lelimit", "1", "leprop", "timestamp", "ledir", "newer", "leend", "2004-12-23T18:41:10Z"))
}

func TestSiteInfo(t *testing.T) {
	fw := newFakeWiki(t, jsonResponse(`{"batchcomplete": true, "query": {"protocols": ["http://", "https://"]}}`))
	client, _ := createMockClient(t, fw)

	si, err := client.SiteInfo(context.Background(), url.Values{"siprop": {"protocols"}})
	if err != nil {
		t.Fatalf("SiteInfo() error = %v", err)
	}
	want := map[string]any{"protocols": []any{"http://", "https://"}}
	if diff := cmp.Diff(want, si); diff != "" {
		t.Errorf("SiteInfo() mismatch (-want +got):\n%s", diff)
	}
	assertForms(t, fw, wireForm("action", "query", "meta", "siteinfo", "siprop", "protocols"))
}

func TestUserInfo(t *testing.T) {
	fw := newFakeWiki(t, jsonResponse(`{"batchcomplete": true, "query": {"userinfo": {"id": 0, "name": "1.1.1.1", "anon": true}}}`))
	client, _ := createMockClient(t, fw)

	info, err := client.UserInfo(context.Background(), nil)
	if err != nil {
		t.Fatalf("UserInfo() error = %v", err)
	}
	want := map[string]any{"id": float64(0), "name": "1.1.1.1", "anon": true}
	if diff := cmp.Diff(want, info); diff != "" {
		t.Errorf("UserInfo() mismatch (-want +got):\n%s", diff)
	}
	assertForms(t, fw, wireForm("action", "query", "meta", "userinfo"))
}

func TestFileRepoInfo(t *testing.T) {
	fw := newFakeWiki(t, jsonResponse(`{"batchcomplete": true, "query": {"repos": [{"displayname": "Commons"}, {"displayname": "Wikipedia"}]}}`))
	client, _ := createMockClient(t, fw)

	repos, err := client.FileRepoInfo(context.Background(), url.Values{"friprop": {"displayname"}})
	if err != nil {
		t.Fatalf("FileRepoInfo() error = %v", err)
	}
	want := []any{map[string]any{"displayname": "Commons"}, map[string]any{"displayname": "Wikipedia"}}
	if diff := cmp.Diff(want, repos); diff != "" {
		t.Errorf("FileRepoInfo() mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryMeta_ContinuationIsProtocolError(t *testing.T) {
	fw := newFakeWiki(t, jsonResponse(`{"continue": {"x": "1"}, "query": {"userinfo": {}}}`))
	client, _ := createMockClient(t, fw)

	_, err := client.QueryMeta(context.Background(), "userinfo", nil)
	var perr *ProtocolError
	if !errors.As(err, &perr) {
		t.Errorf("QueryMeta() error = %v, want *ProtocolError", err)
	}
	if fw.requestCount() != 1 {
		t.Errorf("requests = %d, want 1", fw.requestCount())
	}
}

func TestLangLinks_MergesAcrossRounds(t *testing.T) {
	fw := newFakeWiki(t,
		jsonResponse(`{"continue": {"llcontinue": "15580374|bg", "continue": "||"}, "query": {"pages": [{"pageid": 15580374, "ns": 0, "title": "Main Page", "langlinks": [{"lang": "ar", "title": ""}]}]}}`),
		jsonResponse(`{"batchcomplete": true, "query": {"pages": [{"pageid": 15580374, "ns": 0, "title": "Main Page", "langlinks": [{"lang": "zh", "title": ""}]}]}}`),
	)
	client, _ := createMockClient(t, fw)

	pages, err := collect(t, client.LangLinks(context.Background(), url.Values{"titles": {"Main Page"}, "lllimit": {"1"}}))
	if err != nil {
		t.Fatalf("LangLinks() error = %v", err)
	}
	want := []map[string]any{{
		"pageid": float64(15580374), "ns": float64(0), "title": "Main Page",
		"langlinks": []any{
			map[string]any{"lang": "ar", "title": ""},
			map[string]any{"lang": "zh", "title": ""},
		},
	}}
	if diff := cmp.Diff(want, pages); diff != "" {
		t.Errorf("LangLinks() mismatch (-want +got):\n%s", diff)
	}
	assertForms(t, fw,
		wireForm("action", "query", "prop", "langlinks", "lllimit", "1", "titles", "Main Page"),
		wireForm("action", "query", "prop", "langlinks", "lllimit", "1", "titles", "Main Page",
			"llcontinue", "15580374|bg", "continue", "||"),
	)
}

func TestLangLinks_DefaultLimit(t *testing.T) {
	fw := newFakeWiki(t, jsonResponse(`{"batchcomplete": true, "query": {"pages": [{"pageid": 1182793, "ns": 0, "title": "Main Page"}]}, "limits": {"langlinks": 500}}`))
	client, _ := createMockClient(t, fw)

	pages, err := collect(t, client.LangLinks(context.Background(), url.Values{"titles": {"Main Page"}}))
	if err != nil {
		t.Fatalf("LangLinks() error = %v", err)
	}
	want := []map[string]any{{"pageid": float64(1182793), "ns": float64(0), "title": "Main Page"}}
	if diff := cmp.Diff(want, pages); diff != "" {
		t.Errorf("LangLinks() mismatch (-want +got):\n%s", diff)
	}
	assertForms(t, fw, wireForm("action", "query", "prop", "langlinks", "lllimit", "max", "titles", "Main Page"))
}

func TestRevisions_MultiplePagesOneRound(t *testing.T) {
	fw := newFakeWiki(t, jsonResponse(`{"batchcomplete": true, "query": {"normalized": [{"from": "a", "to": "A"}, {"from": "b", "to": "B"}], "pages": [
		{"pageid": 91945, "ns": 0, "title": "A", "revisions": [{"revid": 28594859, "comment": "c1"}]},
		{"pageid": 91946, "ns": 0, "title": "B", "revisions": [{"revid": 28199506, "comment": "c2"}]}
	]}}`))
	client, _ := createMockClient(t, fw)

	pages, err := collect(t, client.Revisions(context.Background(), url.Values{"titles": {"a|b"}}))
	if err != nil {
		t.Fatalf("Revisions() error = %v", err)
	}
	var titles []string
	for _, p := range pages {
		titles = append(titles, getString(p["title"]))
	}
	if diff := cmp.Diff([]string{"A", "B"}, titles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
	if _, ok := fw.forms()[0]["rvlimit"]; ok {
		t.Error("rvlimit must not be set for multi-page mode")
	}
}

func TestRevisions_SinglePageDefaultsLimit(t *testing.T) {
	fw := newFakeWiki(t, jsonResponse(`{"batchcomplete": true, "query": {"pages": [{"pageid": 112963, "ns": 0, "title": "DmazaTest", "revisions": [{"revid": 438026}, {"revid": 438023}, {"revid": 438022}]}]}, "limits": {"revisions": 500}}`))
	client, _ := createMockClient(t, fw)

	pages, err := collect(t, client.Revisions(context.Background(), url.Values{"titles": {"DmazaTest"}, "rvstart": {"now"}}))
	if err != nil {
		t.Fatalf("Revisions() error = %v", err)
	}
	if len(pages) != 1 || len(getSlice(pages[0]["revisions"])) != 3 {
		t.Errorf("Revisions() = %v", pages)
	}
	assertForms(t, fw, wireForm("action", "query", "prop", "revisions", "titles", "DmazaTest", "rvstart", "now", "rvlimit", "max"))
}

func TestQueryProp_BatchOrdering(t *testing.T) {
	fw := newFakeWiki(t,
		jsonResponse(`{"continue": {"clcontinue": "5|B", "continue": "||"}, "query": {"pages": [
			{"ns": 0, "title": "Missing", "missing": true},
			{"pageid": 5, "title": "Five", "categories": [{"title": "A"}]},
			{"pageid": 7, "title": "Seven", "categories": [{"title": "X"}]}
		]}}`),
		jsonResponse(`{"batchcomplete": true, "query": {"pages": [
			{"pageid": 7, "title": "Seven"},
			{"pageid": 5, "title": "Five", "categories": [{"title": "B"}]}
		]}}`),
	)
	client, _ := createMockClient(t, fw)

	pages, err := collect(t, client.QueryProp(context.Background(), "categories", url.Values{"titles": {"Missing|Five|Seven"}}))
	if err != nil {
		t.Fatalf("QueryProp() error = %v", err)
	}

	var titles []string
	for _, p := range pages {
		titles = append(titles, getString(p["title"]))
	}
	if diff := cmp.Diff([]string{"Seven", "Five", "Missing"}, titles); diff != "" {
		t.Errorf("page order mismatch (-want +got):\n%s", diff)
	}

	wantFive := []any{map[string]any{"title": "A"}, map[string]any{"title": "B"}}
	if diff := cmp.Diff(wantFive, pages[1]["categories"]); diff != "" {
		t.Errorf("merged categories mismatch (-want +got):\n%s", diff)
	}
	wantSeven := []any{map[string]any{"title": "X"}}
	if diff := cmp.Diff(wantSeven, pages[0]["categories"]); diff != "" {
		t.Errorf("page without new values lost its categories (-want +got):\n%s", diff)
	}
}

func TestQueryProp_PositionalCorrelation(t *testing.T) {
	fw := newFakeWiki(t,
		jsonResponse(`{"continue": {"x": "1", "continue": "||"}, "query": {"pages": [{"title": "Special:A", "special": true, "info": [1]}]}}`),
		jsonResponse(`{"batchcomplete": true, "query": {"pages": [{"title": "Special:A", "special": true, "info": [2]}]}}`),
	)
	client, _ := createMockClient(t, fw)

	pages, err := collect(t, client.QueryProp(context.Background(), "info", nil))
	if err != nil {
		t.Fatalf("QueryProp() error = %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(pages))
	}
	if diff := cmp.Diff([]any{float64(1), float64(2)}, pages[0]["info"]); diff != "" {
		t.Errorf("merged values mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryProp_BatchesAcrossRounds(t *testing.T) {
	rev := func(id string) map[string]any { return map[string]any{"revid": id} }

	tests := []struct {
		name   string
		rounds []string
		want   [][]any
	}{
		{
			name: "batch open for three rounds then a one-round batch",
			rounds: []string{
				`{"continue": {"rvcontinue": "2", "continue": "||"}, "query": {"pages": [{"pageid": 1, "revisions": [{"revid": "a"}]}]}}`,
				`{"continue": {"rvcontinue": "3", "continue": "||"}, "query": {"pages": [{"pageid": 1, "revisions": [{"revid": "b"}]}]}}`,
				`{"batchcomplete": true, "continue": {"rvcontinue": "4", "continue": "||"}, "query": {"pages": [{"pageid": 1, "revisions": [{"revid": "c"}]}]}}`,
				`{"batchcomplete": true, "query": {"pages": [{"pageid": 1, "revisions": [{"revid": "d"}]}]}}`,
			},
			want: [][]any{
				{rev("a"), rev("b"), rev("c")},
				{rev("d")},
			},
		},
		{
			name: "two consecutive two-round batches",
			rounds: []string{
				`{"continue": {"rvcontinue": "2", "continue": "||"}, "query": {"pages": [{"pageid": 1, "revisions": [{"revid": "a"}]}]}}`,
				`{"batchcomplete": true, "continue": {"rvcontinue": "3", "continue": "||"}, "query": {"pages": [{"pageid": 1, "revisions": [{"revid": "b"}]}]}}`,
				`{"continue": {"rvcontinue": "4", "continue": "||"}, "query": {"pages": [{"pageid": 1, "revisions": [{"revid": "c"}]}]}}`,
				`{"batchcomplete": true, "query": {"pages": [{"pageid": 1, "revisions": [{"revid": "d"}]}]}}`,
			},
			want: [][]any{
				{rev("a"), rev("b")},
				{rev("c"), rev("d")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			responses := make([]fakeResponse, len(tt.rounds))
			for i, body := range tt.rounds {
				responses[i] = jsonResponse(body)
			}
			fw := newFakeWiki(t, responses...)
			client, _ := createMockClient(t, fw)

			pages, err := collect(t, client.QueryProp(context.Background(), "revisions", url.Values{"pageids": {"1"}}))
			if err != nil {
				t.Fatalf("QueryProp() error = %v", err)
			}
			var got [][]any
			for _, p := range pages {
				got = append(got, getSlice(p["revisions"]))
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("revisions per yielded page mismatch (-want +got):\n%s", diff)
			}
			if fw.requestCount() != len(tt.rounds) {
				t.Errorf("requests = %d, want %d", fw.requestCount(), len(tt.rounds))
			}
		})
	}
}

func TestQueryProp_UnfinishedBatchIsFlushed(t *testing.T) {
	fw := newFakeWiki(t, jsonResponse(`{"query": {"pages": [{"pageid": 1, "title": "One"}]}}`))
	client, _ := createMockClient(t, fw)
	logs := captureLogs(client)

	pages, err := collect(t, client.QueryProp(context.Background(), "revisions", nil))
	if err != nil {
		t.Fatalf("QueryProp() error = %v", err)
	}
	if len(pages) != 1 || getString(pages[0]["title"]) != "One" {
		t.Errorf("QueryProp() = %v", pages)
	}
	if !strings.Contains(logs.String(), "Prop batch ended without batchcomplete") {
		t.Errorf("expected a warning about the unfinished batch, got:\n%s", logs.String())
	}
}

func TestPropBatch_MergeObjects(t *testing.T) {
	b := newPropBatch("pageprops")
	b.add([]map[string]any{{"pageid": float64(1), "pageprops": map[string]any{"a": "1"}}})
	done := b.complete([]map[string]any{{"pageid": float64(1), "pageprops": map[string]any{"b": "2", "a": "ignored"}}})

	want := map[string]any{"a": "1", "b": "2"}
	if diff := cmp.Diff(want, done[0]["pageprops"]); diff != "" {
		t.Errorf("merged pageprops mismatch (-want +got):\n%s", diff)
	}
}

func TestPropBatch_MergeMismatchedShapes(t *testing.T) {
	tests := []struct {
		name     string
		existing any
		incoming any
		want     any
	}{
		{"list replaces object", map[string]any{"a": "1"}, []any{"x"}, []any{"x"}},
		{"object replaces list", []any{"x"}, map[string]any{"a": "1"}, map[string]any{"a": "1"}},
		{"scalar keeps list", []any{"x"}, "y", []any{"x"}},
		{"scalar keeps first scalar", "x", "y", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newPropBatch("p")
			b.add([]map[string]any{{"pageid": float64(1), "p": tt.existing}})
			done := b.complete([]map[string]any{{"pageid": float64(1), "p": tt.incoming}})
			if diff := cmp.Diff(tt.want, done[0]["p"]); diff != "" {
				t.Errorf("merged value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
