package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/depotctl/depotctl/internal/api"
	"github.com/depotctl/depotctl/internal/config"
	"github.com/depotctl/depotctl/internal/domain"
)

// depotServer is a minimal fake backend for browser tests
type depotServer struct {
	mu          sync.Mutex
	dirs        map[string][]string         // directory -> child dir names
	files       map[string][]map[string]any // directory -> file records
	search      []map[string]any            // canned /search response
	searchDelay time.Duration               // artificial /search latency
	requests    []string                    // method+path log
	failList    bool
}

func newDepotServer() *depotServer {
	return &depotServer{
		dirs:  make(map[string][]string),
		files: make(map[string][]map[string]any),
	}
}

func (d *depotServer) logRequest(r *http.Request) {
	d.mu.Lock()
	d.requests = append(d.requests, r.Method+" "+r.URL.Path)
	d.mu.Unlock()
}

func (d *depotServer) requestLog() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.requests))
	copy(out, d.requests)
	return out
}

func (d *depotServer) handler() http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(v)
	}

	mux.HandleFunc("/directory/list", func(w http.ResponseWriter, r *http.Request) {
		d.logRequest(r)
		d.mu.Lock()
		fail := d.failList
		names := d.dirs[r.URL.Query().Get("directory")]
		d.mu.Unlock()
		if fail {
			http.Error(w, `{"error":"listing unavailable"}`, http.StatusInternalServerError)
			return
		}
		records := make([]map[string]any, 0, len(names))
		for _, n := range names {
			records = append(records, map[string]any{"name": n})
		}
		writeJSON(w, records)
	})
	mux.HandleFunc("/files", func(w http.ResponseWriter, r *http.Request) {
		d.logRequest(r)
		d.mu.Lock()
		records := d.files[r.URL.Query().Get("directory")]
		d.mu.Unlock()
		if records == nil {
			records = []map[string]any{}
		}
		writeJSON(w, records)
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		d.logRequest(r)
		d.mu.Lock()
		result := d.search
		delay := d.searchDelay
		d.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}
		if result == nil {
			result = []map[string]any{}
		}
		writeJSON(w, result)
	})
	fallthroughOK := func(w http.ResponseWriter, r *http.Request) {
		d.logRequest(r)
		w.WriteHeader(http.StatusOK)
	}
	mux.HandleFunc("/upload", fallthroughOK)
	mux.HandleFunc("/bulk-upload", fallthroughOK)
	mux.HandleFunc("/delete-file", fallthroughOK)
	mux.HandleFunc("/file/rename", fallthroughOK)
	mux.HandleFunc("/copy-file", fallthroughOK)
	mux.HandleFunc("/move-file", fallthroughOK)
	mux.HandleFunc("/directory/create", fallthroughOK)
	mux.HandleFunc("/directory/delete", fallthroughOK)
	return mux
}

func testConfig(baseURL string) *config.Config {
	cfg := &config.Config{}
	cfg.Server.BaseURL = baseURL
	cfg.Server.Timeout = 5 * time.Second
	cfg.Poll.Interval = time.Hour
	cfg.Search.Debounce = 10 * time.Millisecond
	cfg.Search.CacheTTL = time.Minute
	return cfg
}

func newTestBrowser(t *testing.T, d *depotServer, container string, session domain.Session) (*Browser, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(d.handler())
	t.Cleanup(srv.Close)

	cfg := testConfig(srv.URL)
	client := api.New(cfg.Server.BaseURL, cfg.Server.Timeout)
	client.SetUsername(session.Username)

	b, err := NewBrowser(cfg, client, nil, session, container)
	if err != nil {
		t.Fatalf("NewBrowser failed: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b, srv
}

func TestNewBrowserRejectsUnknownContainer(t *testing.T) {
	cfg := testConfig("http://localhost")
	_, err := NewBrowser(cfg, api.New(cfg.Server.BaseURL, time.Second), nil, domain.Session{}, "Attic")
	if err == nil {
		t.Error("Expected error for unknown container")
	}
}

func TestBrowserNavigation(t *testing.T) {
	d := newDepotServer()
	d.dirs["Operation"] = []string{"2024"}
	d.dirs["Operation/2024"] = []string{"Q1"}
	d.files["Operation/2024/Q1"] = []map[string]any{
		{"name": "report.pdf", "size": 123, "uploader": "alice"},
	}

	b, _ := newTestBrowser(t, d, "Operation", domain.Session{Username: "alice"})
	ctx := context.Background()

	if err := b.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if err := b.Enter(ctx, "2024"); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	if err := b.Enter(ctx, "Q1"); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}

	if got := b.Path(); got != "Operation/2024/Q1" {
		t.Errorf("Path = %q, want Operation/2024/Q1", got)
	}
	crumbs := b.Breadcrumbs()
	if len(crumbs) != 2 || crumbs[0] != "2024" || crumbs[1] != "Q1" {
		t.Errorf("Breadcrumbs = %v", crumbs)
	}

	entries := b.Entries()
	if len(entries) != 1 || entries[0].Name != "report.pdf" {
		t.Errorf("Entries = %v", entries)
	}

	if err := b.Up(ctx); err != nil {
		t.Fatalf("Up failed: %v", err)
	}
	if got := b.Path(); got != "Operation/2024" {
		t.Errorf("Path after Up = %q", got)
	}

	// Up at the container root stays put
	if err := b.Up(ctx); err != nil {
		t.Fatalf("Up failed: %v", err)
	}
	if err := b.Up(ctx); err != nil {
		t.Fatalf("Up at root failed: %v", err)
	}
	if got := b.Path(); got != "Operation" {
		t.Errorf("Path after Up at root = %q", got)
	}
}

func TestDepotRootSynthesizesContainers(t *testing.T) {
	d := newDepotServer()
	// Backend root listing knows one container plus a stray file
	d.dirs[""] = []string{"Operation"}
	d.files[""] = []map[string]any{{"name": "readme.txt"}}

	b, _ := newTestBrowser(t, d, "", domain.Session{Username: "alice"})
	if err := b.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	byName := map[string]domain.Entry{}
	for _, e := range b.Entries() {
		byName[e.Name] = e
	}
	for _, c := range domain.Containers() {
		e, ok := byName[c]
		if !ok {
			t.Errorf("Root listing missing container %q", c)
			continue
		}
		if !e.IsDir() {
			t.Errorf("Container %q listed with type %q", c, e.Type)
		}
	}
	if _, ok := byName["readme.txt"]; !ok {
		t.Error("Backend root entries must survive container synthesis")
	}

	var operations int
	for _, e := range b.Entries() {
		if e.Name == domain.ContainerOperation {
			operations++
		}
	}
	if operations != 1 {
		t.Errorf("Container %q appears %d times, want 1", domain.ContainerOperation, operations)
	}
}

func TestBrowserEnterRejectsTraversal(t *testing.T) {
	d := newDepotServer()
	b, _ := newTestBrowser(t, d, "Operation", domain.Session{Username: "alice"})

	if err := b.Enter(context.Background(), ".."); !errors.Is(err, domain.ErrPathEscape) {
		t.Errorf("Expected ErrPathEscape, got %v", err)
	}
}

func TestBrowserGotoOutsideScope(t *testing.T) {
	d := newDepotServer()
	b, _ := newTestBrowser(t, d, "Operation", domain.Session{Username: "alice"})

	if err := b.Goto(context.Background(), "Training/2024"); !errors.Is(err, domain.ErrPathEscape) {
		t.Errorf("Expected ErrPathEscape, got %v", err)
	}
}

func TestPlanUploadDetectsConflicts(t *testing.T) {
	d := newDepotServer()
	d.files["Operation"] = []map[string]any{
		{"name": "a.txt"},
		{"name": "b.txt"},
	}

	b, _ := newTestBrowser(t, d, "Operation", domain.Session{Username: "alice"})
	plan := b.PlanUpload(context.Background(), []string{"a.txt", "c.txt"})

	if plan.Degraded {
		t.Error("Plan should not be degraded")
	}
	conflicts := plan.Conflicts()
	if len(conflicts) != 1 || conflicts[0] != "a.txt" {
		t.Errorf("Conflicts = %v", conflicts)
	}
}

func TestPlanUploadDegradedOnListFailure(t *testing.T) {
	d := newDepotServer()
	d.failList = true

	b, _ := newTestBrowser(t, d, "Operation", domain.Session{Username: "alice"})
	plan := b.PlanUpload(context.Background(), []string{"a.txt"})

	if !plan.Degraded {
		t.Error("Expected degraded plan when the existence check fails")
	}
	if plan.HasConflicts() {
		t.Error("Degraded plan must not report conflicts")
	}
	if err := plan.Ready(); err != nil {
		t.Errorf("Degraded plan should be ready: %v", err)
	}
}

func TestExecuteUploadGroupsByFlags(t *testing.T) {
	d := newDepotServer()
	d.files["Operation"] = []map[string]any{{"name": "a.txt"}}

	b, _ := newTestBrowser(t, d, "Operation", domain.Session{Username: "alice"})
	ctx := context.Background()

	plan := b.PlanUpload(ctx, []string{"a.txt", "b.txt", "c.txt"})
	plan.Apply(domain.ResolutionOverwrite)

	sources := map[string]io.Reader{}
	for _, n := range []string{"a.txt", "b.txt", "c.txt"} {
		sources[n] = strings.NewReader("content of " + n)
	}

	if err := b.ExecuteUpload(ctx, plan, sources, UploadOptions{}); err != nil {
		t.Fatalf("ExecuteUpload failed: %v", err)
	}

	var uploads, bulks int
	for _, req := range d.requestLog() {
		switch req {
		case "POST /upload":
			uploads++
		case "POST /bulk-upload":
			bulks++
		}
	}
	// 1 conflicting overwrite item travels alone, 2 clean items in bulk
	if uploads != 1 || bulks != 1 {
		t.Errorf("Expected 1 upload and 1 bulk-upload, got %d and %d", uploads, bulks)
	}
}

func TestExecuteUploadSkipsSkipped(t *testing.T) {
	d := newDepotServer()
	d.files["Operation"] = []map[string]any{{"name": "a.txt"}}

	b, _ := newTestBrowser(t, d, "Operation", domain.Session{Username: "alice"})
	ctx := context.Background()

	plan := b.PlanUpload(ctx, []string{"a.txt"})
	plan.Apply(domain.ResolutionSkip)

	if err := b.ExecuteUpload(ctx, plan, nil, UploadOptions{}); err != nil {
		t.Fatalf("ExecuteUpload failed: %v", err)
	}

	for _, req := range d.requestLog() {
		if req == "POST /upload" || req == "POST /bulk-upload" {
			t.Errorf("Skipped item must not produce a request: %s", req)
		}
	}
}

func TestExecuteUploadRequiresResolution(t *testing.T) {
	d := newDepotServer()
	d.files["Operation"] = []map[string]any{{"name": "a.txt"}}

	b, _ := newTestBrowser(t, d, "Operation", domain.Session{Username: "alice"})
	ctx := context.Background()

	plan := b.PlanUpload(ctx, []string{"a.txt"})
	err := b.ExecuteUpload(ctx, plan, nil, UploadOptions{})
	if !errors.Is(err, domain.ErrUnresolvedConflict) {
		t.Errorf("Expected ErrUnresolvedConflict, got %v", err)
	}
}

func TestDeleteEntryOwnership(t *testing.T) {
	d := newDepotServer()
	d.files["Operation"] = []map[string]any{
		{"name": "mine.txt", "uploader": "alice"},
		{"name": "theirs.txt", "uploader": "bob"},
	}

	b, _ := newTestBrowser(t, d, "Operation", domain.Session{Username: "alice", Role: domain.RoleUser})
	ctx := context.Background()
	if err := b.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if err := b.DeleteEntry(ctx, "theirs.txt"); !errors.Is(err, domain.ErrNotOwner) {
		t.Errorf("Expected ErrNotOwner, got %v", err)
	}
	if err := b.DeleteEntry(ctx, "mine.txt"); err != nil {
		t.Errorf("Owner delete failed: %v", err)
	}
	if err := b.DeleteEntry(ctx, "ghost.txt"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestDeleteEntryAdminBypassesOwnership(t *testing.T) {
	d := newDepotServer()
	d.files["Operation"] = []map[string]any{
		{"name": "theirs.txt", "uploader": "bob"},
	}

	b, _ := newTestBrowser(t, d, "Operation", domain.Session{Username: "root", Role: domain.RoleAdmin})
	ctx := context.Background()
	if err := b.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if err := b.DeleteEntry(ctx, "theirs.txt"); err != nil {
		t.Errorf("Admin delete failed: %v", err)
	}
}

func TestRenameEntryValidatesName(t *testing.T) {
	d := newDepotServer()
	d.files["Operation"] = []map[string]any{{"name": "a.txt", "uploader": "alice"}}

	b, _ := newTestBrowser(t, d, "Operation", domain.Session{Username: "alice"})
	ctx := context.Background()
	if err := b.Refresh(ctx); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	if err := b.RenameEntry(ctx, "a.txt", "  "); !errors.Is(err, domain.ErrEmptyName) {
		t.Errorf("Expected ErrEmptyName, got %v", err)
	}
	if err := b.RenameEntry(ctx, "a.txt", "x/y"); err == nil {
		t.Error("Expected error for name containing a slash")
	}
	if err := b.RenameEntry(ctx, "a.txt", "b.txt"); err != nil {
		t.Errorf("Rename failed: %v", err)
	}
}

func TestSuggestMergesLocalAndServer(t *testing.T) {
	d := newDepotServer()
	d.files["Operation"] = []map[string]any{
		{"name": "report.pdf", "directory": "Operation"},
	}
	d.search = []map[string]any{
		{"name": "report-2023.pdf", "directory": "Operation/archive", "type": "file"},
		{"name": "report.pdf", "directory": "Operation", "type": "file"},
	}

	b, _ := newTestBrowser(t, d, "Operation", domain.Session{Username: "alice"})

	got := make(chan []domain.Suggestion, 2)
	b.Suggest(context.Background(), "report", func(s []domain.Suggestion) {
		got <- s
	})

	deadline := time.After(2 * time.Second)
	for {
		select {
		case suggestions := <-got:
			// Local matches alone may land first; wait for the merge
			if len(suggestions) < 2 {
				continue
			}
			// The duplicate (report.pdf, Operation) is merged away
			if len(suggestions) != 2 {
				t.Fatalf("Expected 2 suggestions, got %d: %v", len(suggestions), suggestions)
			}
			names := map[string]bool{}
			for _, s := range suggestions {
				names[s.Name] = true
			}
			if !names["report.pdf"] || !names["report-2023.pdf"] {
				t.Errorf("Unexpected suggestion set: %v", suggestions)
			}
			return
		case <-deadline:
			t.Fatal("Timed out waiting for the merged suggestions")
		}
	}
}

func TestSuggestShowsLocalMatchesBeforeServerResponds(t *testing.T) {
	d := newDepotServer()
	d.files["Operation"] = []map[string]any{
		{"name": "report.pdf", "directory": "Operation"},
	}
	d.search = []map[string]any{
		{"name": "report-2023.pdf", "directory": "Operation/archive", "type": "file"},
	}
	d.searchDelay = 500 * time.Millisecond

	b, _ := newTestBrowser(t, d, "Operation", domain.Session{Username: "alice"})

	got := make(chan []domain.Suggestion, 2)
	start := time.Now()
	b.Suggest(context.Background(), "report", func(s []domain.Suggestion) {
		got <- s
	})

	select {
	case first := <-got:
		if elapsed := time.Since(start); elapsed >= d.searchDelay {
			t.Errorf("First delivery took %v, cached matches must not wait for the server", elapsed)
		}
		if len(first) != 1 || first[0].Name != "report.pdf" {
			t.Errorf("First delivery = %v, want the cached local match", first)
		}
	case <-time.After(300 * time.Millisecond):
		t.Fatal("No delivery before the server responded")
	}

	select {
	case merged := <-got:
		if len(merged) != 2 {
			t.Errorf("Merged delivery = %v, want local and server results", merged)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for the merged delivery")
	}
}

func TestSuggestDiscardsStaleResponses(t *testing.T) {
	d := newDepotServer()
	d.search = []map[string]any{
		{"name": "alpha.txt", "directory": "Operation", "type": "file"},
	}

	b, _ := newTestBrowser(t, d, "Operation", domain.Session{Username: "alice"})

	var mu sync.Mutex
	var delivered []string

	deliver := func(s []domain.Suggestion) {
		mu.Lock()
		for _, x := range s {
			delivered = append(delivered, x.Name)
		}
		mu.Unlock()
	}

	// Rapid keystrokes: only the last term's query should run at all,
	// the debounce timer resets on every trigger
	b.Suggest(context.Background(), "a", deliver)
	b.Suggest(context.Background(), "al", deliver)
	b.Suggest(context.Background(), "alpha", deliver)

	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(delivered) != 1 {
		t.Errorf("Expected exactly one delivery, got %v", delivered)
	}
}

func TestSuggestEmptyTermCancels(t *testing.T) {
	d := newDepotServer()
	b, _ := newTestBrowser(t, d, "Operation", domain.Session{Username: "alice"})

	called := false
	b.Suggest(context.Background(), "rep", func(s []domain.Suggestion) { called = true })
	b.Suggest(context.Background(), "", nil)

	time.Sleep(100 * time.Millisecond)
	if called {
		t.Error("Cleared term must cancel the pending query")
	}
}

func TestOpenSuggestionNavigatesToParentForFiles(t *testing.T) {
	d := newDepotServer()
	b, _ := newTestBrowser(t, d, "Operation", domain.Session{Username: "alice"})
	ctx := context.Background()

	s := domain.Suggestion{Name: "report.pdf", Directory: "Operation/2024", Type: domain.EntryTypeFile}
	if err := b.OpenSuggestion(ctx, s); err != nil {
		t.Fatalf("OpenSuggestion failed: %v", err)
	}
	if got := b.Path(); got != "Operation/2024" {
		t.Errorf("Path = %q, want Operation/2024", got)
	}

	dir := domain.Suggestion{Name: "archive", Directory: "Operation", Type: domain.EntryTypeDirectory}
	if err := b.OpenSuggestion(ctx, dir); err != nil {
		t.Fatalf("OpenSuggestion failed: %v", err)
	}
	if got := b.Path(); got != "Operation/archive" {
		t.Errorf("Path = %q, want Operation/archive", got)
	}
}

func TestPollingPausesDuringModal(t *testing.T) {
	d := newDepotServer()
	b, _ := newTestBrowser(t, d, "Operation", domain.Session{Username: "alice"})

	cfg := b.config
	cfg.Poll.Interval = 15 * time.Millisecond

	ctx := context.Background()
	if err := b.StartPolling(ctx); err != nil {
		t.Fatalf("StartPolling failed: %v", err)
	}
	defer b.StopPolling()

	time.Sleep(40 * time.Millisecond)
	b.BeginModal()
	// Let any in-flight refresh drain before sampling
	time.Sleep(20 * time.Millisecond)
	before := len(d.requestLog())

	time.Sleep(60 * time.Millisecond)
	after := len(d.requestLog())
	if after != before {
		t.Errorf("Expected no requests during modal, got %d extra", after-before)
	}

	b.EndModal()
	time.Sleep(40 * time.Millisecond)
	if len(d.requestLog()) == after {
		t.Error("Expected polling to resume after modal")
	}
}
