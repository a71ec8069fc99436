// Package service orchestrates the client workflows: browsing, upload
// conflict handling, search suggestions, and the watch daemon.
package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/depotctl/depotctl/internal/api"
	"github.com/depotctl/depotctl/internal/config"
	"github.com/depotctl/depotctl/internal/core/conflict"
	"github.com/depotctl/depotctl/internal/core/nav"
	"github.com/depotctl/depotctl/internal/core/search"
	"github.com/depotctl/depotctl/internal/domain"
	"github.com/depotctl/depotctl/internal/logger"
	"github.com/depotctl/depotctl/internal/scheduler"
	"github.com/depotctl/depotctl/internal/state"
)

// Browser is the view service behind every depot view. One instance is
// parametrized with a container root (Operation, Training, Research) or
// an empty root for the whole-depot view; all views share the same
// navigation, refresh, search and conflict behavior.
type Browser struct {
	config  *config.Config
	client  *api.Client
	state   *state.Manager
	session domain.Session
	scope   nav.Scope
	view    string

	mu      sync.RWMutex
	path    string
	entries []domain.Entry

	listings *gocache.Cache
	debounce *search.Debouncer
	seq      search.Sequencer
	poller   scheduler.Scheduler
}

// NewBrowser creates a browser rooted at the given container. An empty
// container roots the browser at the whole depot.
func NewBrowser(cfg *config.Config, client *api.Client, st *state.Manager, session domain.Session, container string) (*Browser, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if container != "" && !domain.IsContainer(container) {
		return nil, fmt.Errorf("unknown container %q", container)
	}

	view := container
	if view == "" {
		view = "depot"
	}

	return &Browser{
		config:   cfg,
		client:   client,
		state:    st,
		session:  session,
		scope:    nav.Scope{Root: container},
		view:     view,
		path:     container,
		listings: gocache.New(cfg.Search.CacheTTL, 2*cfg.Search.CacheTTL),
		debounce: search.NewDebouncer(cfg.Search.Debounce),
	}, nil
}

// Path returns the current directory
func (b *Browser) Path() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.path
}

// Entries returns the current listing
func (b *Browser) Entries() []domain.Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Breadcrumbs returns the crumb segments below the container root
func (b *Browser) Breadcrumbs() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return nav.Breadcrumbs(b.path, b.scope.Root)
}

// Refresh re-fetches the listing for the current directory
func (b *Browser) Refresh(ctx context.Context) error {
	b.mu.RLock()
	path := b.path
	b.mu.RUnlock()

	entries, err := b.client.List(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", path, err)
	}
	if b.scope.Root == "" && path == "" {
		entries = withContainers(entries)
	}

	b.mu.Lock()
	// A navigation may have landed while the fetch was in flight;
	// never apply a listing to a directory it was not fetched for.
	if b.path == path {
		b.entries = entries
	}
	b.mu.Unlock()

	b.listings.Set(listingKey(path), entries, gocache.DefaultExpiration)
	return nil
}

// Enter descends into the named child directory and refreshes
func (b *Browser) Enter(ctx context.Context, name string) error {
	b.mu.Lock()
	next, err := b.scope.Enter(b.path, name)
	if err != nil {
		b.mu.Unlock()
		return err
	}
	b.path = next
	b.entries = nil
	b.mu.Unlock()

	return b.Refresh(ctx)
}

// Up ascends one level; at the view root it stays put
func (b *Browser) Up(ctx context.Context) error {
	b.mu.Lock()
	next := b.scope.Up(b.path)
	if next == b.path {
		b.mu.Unlock()
		return nil
	}
	b.path = next
	b.entries = nil
	b.mu.Unlock()

	return b.Refresh(ctx)
}

// Goto jumps directly to a directory within the view's scope
func (b *Browser) Goto(ctx context.Context, path string) error {
	path = nav.Normalize(path)
	if b.scope.Root != "" && !nav.Within(path, b.scope.Root) {
		return domain.ErrPathEscape
	}

	b.mu.Lock()
	b.path = path
	b.entries = nil
	b.mu.Unlock()

	return b.Refresh(ctx)
}

// StartPolling begins background listing refresh at the configured
// interval. Ticks are suppressed while a modal interaction is open.
func (b *Browser) StartPolling(ctx context.Context) error {
	b.mu.Lock()
	if b.poller != nil {
		b.mu.Unlock()
		return fmt.Errorf("polling already started")
	}
	poller := scheduler.NewIntervalScheduler(
		scheduler.Config{Interval: b.config.Poll.Interval},
		scheduler.RefresherFunc(b.Refresh),
	)
	b.poller = poller
	b.mu.Unlock()

	return poller.Start(ctx)
}

// StopPolling stops the background refresh
func (b *Browser) StopPolling() error {
	b.mu.Lock()
	poller := b.poller
	b.poller = nil
	b.mu.Unlock()

	if poller == nil {
		return nil
	}
	return poller.Stop()
}

// BeginModal suppresses polling while a prompt or dialog is open
func (b *Browser) BeginModal() {
	b.mu.RLock()
	poller := b.poller
	b.mu.RUnlock()
	if poller != nil {
		poller.Pause()
	}
}

// EndModal re-enables polling after a prompt closes
func (b *Browser) EndModal() {
	b.mu.RLock()
	poller := b.poller
	b.mu.RUnlock()
	if poller != nil {
		poller.Resume()
	}
}

// PlanUpload checks the current directory for name collisions. If the
// existence check itself fails the plan proceeds best-effort with
// keep-both semantics and is marked degraded.
func (b *Browser) PlanUpload(ctx context.Context, names []string) *conflict.Plan {
	return b.planAgainst(ctx, domain.OpUpload, b.Path(), names)
}

// PlanTransfer checks a copy or move batch against the destination
func (b *Browser) PlanTransfer(ctx context.Context, op domain.FileOp, dstDir string, names []string) *conflict.Plan {
	return b.planAgainst(ctx, op, nav.Normalize(dstDir), names)
}

func (b *Browser) planAgainst(ctx context.Context, op domain.FileOp, dir string, names []string) *conflict.Plan {
	existing, err := b.client.List(ctx, dir)
	if err != nil {
		logger.Get().With("component", "browser").Warn(
			"existence check failed, proceeding with keep-both",
			"directory", dir, "error", err)
		return conflict.NewDegradedPlan(op, dir, names)
	}
	return conflict.NewPlan(op, dir, existing, names)
}

// UploadOptions carries the optional instruction fields of an upload
type UploadOptions struct {
	Message  string
	Receiver string
}

// ExecuteUpload sends a resolved plan's outgoing items. Items sharing
// the same collision flags travel in one bulk request, so a mixed plan
// needs at most two requests. Skipped items are never sent.
func (b *Browser) ExecuteUpload(ctx context.Context, plan *conflict.Plan, sources map[string]io.Reader, opts UploadOptions) error {
	if err := plan.Ready(); err != nil {
		return err
	}

	outgoing := plan.Outgoing()
	if len(outgoing) == 0 {
		return nil
	}

	container := nav.Container(plan.Directory)
	groups := make(map[[2]bool][]api.UploadItem)
	for _, it := range outgoing {
		body, ok := sources[it.Name]
		if !ok {
			return fmt.Errorf("no content source for %q", it.Name)
		}
		overwrite, skip := it.Flags()
		groups[[2]bool{overwrite, skip}] = append(groups[[2]bool{overwrite, skip}], api.UploadItem{
			Upload: domain.PendingUpload{
				Name:      it.Name,
				Directory: plan.Directory,
				Container: container,
				Overwrite: overwrite,
				Skip:      skip,
				Message:   opts.Message,
				Receiver:  opts.Receiver,
			},
			Body: body,
		})
	}

	for _, items := range groups {
		var err error
		if len(items) == 1 {
			err = b.client.Upload(ctx, items[0])
		} else {
			err = b.client.BulkUpload(ctx, items)
		}
		if err != nil {
			return err
		}
	}

	b.invalidate(plan.Directory)
	return b.Refresh(ctx)
}

// ExecuteTransfer performs a resolved copy or move plan item by item
func (b *Browser) ExecuteTransfer(ctx context.Context, plan *conflict.Plan, srcDir string) error {
	if err := plan.Ready(); err != nil {
		return err
	}
	if plan.Op != domain.OpCopy && plan.Op != domain.OpMove {
		return fmt.Errorf("plan op %q is not a transfer", plan.Op)
	}

	srcDir = nav.Normalize(srcDir)
	for _, it := range plan.Outgoing() {
		overwrite, skip := it.Flags()
		var err error
		if plan.Op == domain.OpCopy {
			err = b.client.CopyFile(ctx, srcDir, it.Name, plan.Directory, overwrite, skip)
		} else {
			err = b.client.MoveFile(ctx, srcDir, it.Name, plan.Directory, overwrite, skip)
		}
		if err != nil {
			return fmt.Errorf("%s %s failed: %w", plan.Op, it.Name, err)
		}
	}

	b.invalidate(srcDir)
	b.invalidate(plan.Directory)
	return b.Refresh(ctx)
}

// DeleteEntry removes a file or directory from the current listing.
// Only the owner or an admin may delete; the server enforces the same
// rule authoritatively.
func (b *Browser) DeleteEntry(ctx context.Context, name string) error {
	entry, err := b.find(name)
	if err != nil {
		return err
	}
	if err := b.canModify(entry); err != nil {
		return err
	}

	path := b.Path()
	if entry.IsDir() {
		err = b.client.DeleteDirectory(ctx, nav.Join(path, name))
	} else {
		err = b.client.DeleteFile(ctx, path, name)
	}
	if err != nil {
		return err
	}

	b.invalidate(path)
	return b.Refresh(ctx)
}

// RenameEntry renames a file or directory in the current listing
func (b *Browser) RenameEntry(ctx context.Context, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return domain.ErrEmptyName
	}
	if strings.Contains(newName, "/") {
		return fmt.Errorf("invalid name %q", newName)
	}

	entry, err := b.find(oldName)
	if err != nil {
		return err
	}
	if err := b.canModify(entry); err != nil {
		return err
	}

	path := b.Path()
	if entry.IsDir() {
		err = b.client.RenameDirectory(ctx, path, oldName, newName)
	} else {
		err = b.client.RenameFile(ctx, path, oldName, newName)
	}
	if err != nil {
		return err
	}

	b.invalidate(path)
	return b.Refresh(ctx)
}

// CreateFolder creates a subdirectory of the current directory
func (b *Browser) CreateFolder(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrEmptyName
	}

	path := b.Path()
	if err := b.client.CreateDirectory(ctx, path, name); err != nil {
		return err
	}

	b.invalidate(path)
	return b.Refresh(ctx)
}

// Suggest runs the debounced suggestion pipeline for the given term.
// Matches from the cached listing are delivered as soon as the debounce
// fires; the ranked merge with the server results follows when they
// arrive. Stale responses, superseded by a newer keystroke, are
// discarded without delivery. An empty term cancels any pending query
// and delivers nothing.
func (b *Browser) Suggest(ctx context.Context, term string, deliver func([]domain.Suggestion)) {
	term = strings.TrimSpace(term)
	if term == "" {
		b.debounce.Stop()
		b.seq.Issue()
		return
	}

	token := b.seq.Issue()
	b.debounce.Trigger(func() {
		scope := search.ScopeFor(b.scope.Root, b.Path())

		// Local matches go out right away; the server round trip only
		// ever widens them.
		local := b.localSuggestions(ctx, term)
		if len(local) > 0 && b.seq.Current(token) && deliver != nil {
			deliver(local)
		}

		server, err := b.client.Search(ctx, term, scope)
		if err != nil {
			logger.Get().With("component", "browser").Warn(
				"server search failed, using local matches only", "error", err)
			server = nil
		}

		if !b.seq.Current(token) {
			return
		}

		merged := search.Rank(search.Merge(local, server), term)
		if deliver != nil {
			deliver(merged)
		}
	})
}

// localSuggestions matches the term against the cached listing of the
// current directory, fetching it on a cache miss
func (b *Browser) localSuggestions(ctx context.Context, term string) []domain.Suggestion {
	path := b.Path()

	var entries []domain.Entry
	if cached, ok := b.listings.Get(listingKey(path)); ok {
		entries = cached.([]domain.Entry)
	} else {
		fetched, err := b.client.List(ctx, path)
		if err != nil {
			return nil
		}
		entries = fetched
		b.listings.Set(listingKey(path), entries, gocache.DefaultExpiration)
	}

	return search.Rank(search.FromEntries(entries), term)
}

// CommitSearch records a submitted search term in the per-view history
func (b *Browser) CommitSearch(term string) error {
	term = strings.TrimSpace(term)
	if term == "" || b.state == nil {
		return nil
	}
	return b.state.PushRecentSearch(b.view, term)
}

// RecentSearches returns the view's search history, most recent first
func (b *Browser) RecentSearches() ([]string, error) {
	if b.state == nil {
		return nil, nil
	}
	return b.state.RecentSearches(b.view)
}

// OpenSuggestion resolves a picked suggestion to the directory the view
// should navigate to: the directory itself, or the file's parent.
func (b *Browser) OpenSuggestion(ctx context.Context, s domain.Suggestion) error {
	target := s.Directory
	if s.Type == domain.EntryTypeDirectory {
		target = nav.Join(s.Directory, s.Name)
	}
	if target == "" {
		target = b.scope.Root
	}
	return b.Goto(ctx, target)
}

// Close releases background resources
func (b *Browser) Close() error {
	b.debounce.Stop()
	return b.StopPolling()
}

func (b *Browser) find(name string) (domain.Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, e := range b.entries {
		if e.Name == name {
			return e, nil
		}
	}
	return domain.Entry{}, fmt.Errorf("%q: %w", name, domain.ErrNotFound)
}

func (b *Browser) canModify(e domain.Entry) error {
	if b.session.IsAdmin() {
		return nil
	}
	if e.Owner != "" && !e.OwnedBy(b.session.Username) {
		return domain.ErrNotOwner
	}
	return nil
}

func (b *Browser) invalidate(path string) {
	b.listings.Delete(listingKey(path))
}

func listingKey(path string) string {
	return "listing:" + path
}

// withContainers guarantees the fixed containers appear in a depot root
// listing even when the backend omits them, synthesized ahead of
// whatever the backend did return.
func withContainers(entries []domain.Entry) []domain.Entry {
	present := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			present[e.Name] = true
		}
	}

	var synthesized []domain.Entry
	for _, name := range domain.Containers() {
		if !present[name] {
			synthesized = append(synthesized, domain.Entry{Name: name, Type: domain.EntryTypeDirectory})
		}
	}
	if len(synthesized) == 0 {
		return entries
	}
	return append(synthesized, entries...)
}
