package wiki

import (
	"context"
	"io"
	"net/url"
	"slices"
	"strings"
	"testing"
)

func TestPatrol(t *testing.T) {
	fw := newFakeWiki(t, jsonResponse(`{"patrol": {"rcid": 1, "ns": 4, "title": "T"}}`))
	client, _ := createMockClient(t, fw)
	client.setUser("U")
	client.tokens.Set("patrol", "+")

	result, err := client.Patrol(context.Background(), url.Values{"revid": {"1"}})
	if err != nil {
		t.Fatalf("Patrol() error = %v", err)
	}
	if getInt(result["rcid"]) != 1 {
		t.Errorf("Patrol() = %v", result)
	}
	assertForms(t, fw, wireForm("action", "patrol", "revid", "1", "token", "+", "assertuser", "U"))
}

func TestUploadFile(t *testing.T) {
	fw := newFakeWiki(t, jsonResponse(`{"upload": {"result": "Success", "filename": "Test.txt"}}`))
	client, _ := createMockClient(t, fw)
	client.setUser("U")
	client.tokens.Set("csrf", "C")

	upload, err := client.UploadFile(context.Background(), "Test.txt", strings.NewReader("payload"), url.Values{"comment": {"c"}})
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if getString(upload["result"]) != "Success" {
		t.Errorf("UploadFile() = %v", upload)
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()
	req := fw.requests[0]
	if req.files["file"] != "payload" {
		t.Errorf("file part = %q", req.files["file"])
	}
	if req.form.Get("filename") != "Test.txt" || req.form.Get("comment") != "c" || req.form.Get("action") != "upload" {
		t.Errorf("form = %v", req.form)
	}
}

func TestUpload_MissingUploadObject(t *testing.T) {
	fw := newFakeWiki(t, jsonResponse(`{}`))
	client, _ := createMockClient(t, fw)
	client.setUser("U")
	client.tokens.Set("csrf", "C")

	if _, err := client.Upload(context.Background(), nil); err == nil {
		t.Error("Upload() should fail without an upload object")
	}
}

func TestUploadChunks(t *testing.T) {
	fw := newFakeWiki(t,
		jsonResponse(`{"upload": {"result": "Continue", "offset": 3, "filekey": "k1"}}`),
		jsonResponse(`{"upload": {"result": "Continue", "offset": 6, "filekey": "k1"}}`),
		jsonResponse(`{"upload": {"result": "Success", "filekey": "k1"}}`),
		jsonResponse(`{"upload": {"result": "Success", "filename": "F.txt"}}`),
	)
	client, _ := createMockClient(t, fw)
	client.setUser("U")
	client.tokens.Set("csrf", "C")

	chunks := []io.Reader{strings.NewReader("abc"), strings.NewReader("def"), strings.NewReader("g")}
	upload, err := client.UploadChunks(context.Background(), "F.txt", 7, slices.Values(chunks), true, url.Values{"comment": {"c"}})
	if err != nil {
		t.Fatalf("UploadChunks() error = %v", err)
	}
	if getString(upload["filename"]) != "F.txt" {
		t.Errorf("UploadChunks() = %v", upload)
	}

	fw.mu.Lock()
	defer fw.mu.Unlock()
	if len(fw.requests) != 4 {
		t.Fatalf("requests = %d, want 4", len(fw.requests))
	}

	wantOffsets := []string{"0", "3", "6"}
	wantParts := []string{"abc", "def", "g"}
	for i := range 3 {
		req := fw.requests[i]
		if got := req.form.Get("offset"); got != wantOffsets[i] {
			t.Errorf("chunk %d offset = %q, want %q", i, got, wantOffsets[i])
		}
		if got := req.files["chunk"]; got != wantParts[i] {
			t.Errorf("chunk %d content = %q, want %q", i, got, wantParts[i])
		}
		if req.form.Get("stash") != "1" || req.form.Get("filesize") != "7" || req.form.Get("ignorewarnings") != "1" {
			t.Errorf("chunk %d form = %v", i, req.form)
		}
	}
	if fw.requests[0].form.Has("filekey") {
		t.Error("first chunk must not carry a filekey")
	}
	if fw.requests[1].form.Get("filekey") != "k1" {
		t.Errorf("second chunk filekey = %q", fw.requests[1].form.Get("filekey"))
	}

	final := flatten(fw.requests[3].form)
	want := wireForm("action", "upload", "filename", "F.txt", "filekey", "k1", "comment", "c",
		"ignorewarnings", "1", "token", "C", "assertuser", "U")
	for k, v := range want {
		if final[k] != v {
			t.Errorf("final request %s = %q, want %q", k, final[k], v)
		}
	}
	if _, ok := final["stash"]; ok {
		t.Error("final request must not stash")
	}
}

func TestUploadChunks_NoChunks(t *testing.T) {
	fw := newFakeWiki(t)
	client, _ := createMockClient(t, fw)

	if _, err := client.UploadChunks(context.Background(), "F.txt", 0, slices.Values([]io.Reader{}), false, nil); err == nil {
		t.Error("UploadChunks() without chunks should fail")
	}
}
