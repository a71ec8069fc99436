// Package conflict implements the client side of the name-collision
// protocol: before an upload, copy or move fires, the destination listing
// is consulted and every colliding item must carry an explicit resolution.
package conflict

import (
	"sort"

	"github.com/depotctl/depotctl/internal/domain"
)

// Item is one file of a planned operation
type Item struct {
	// Name is the target filename at the destination
	Name string

	// Conflict is true when the destination already holds this name
	Conflict bool

	// Resolution is the chosen handling; empty until resolved.
	// Non-conflicting items keep the default (keep-both flags unset).
	Resolution domain.Resolution
}

// Plan is a conflict-checked batch for one destination directory.
// All items share the destination; conflicts are collected across the
// whole set and resolved with a single uniform decision.
type Plan struct {
	Op        domain.FileOp
	Directory string
	Items     []Item

	// Degraded is set when the existence check itself failed and the
	// plan proceeded best-effort with keep-both. Callers surface a
	// user-visible warning for degraded plans.
	Degraded bool
}

// Detect returns the subset of names already present at the destination,
// sorted for deterministic prompts. Matching is exact; the server owns
// any case-folding rules.
func Detect(existing []domain.Entry, names []string) []string {
	present := make(map[string]bool, len(existing))
	for _, e := range existing {
		present[e.Name] = true
	}

	var conflicts []string
	seen := make(map[string]bool)
	for _, n := range names {
		if present[n] && !seen[n] {
			conflicts = append(conflicts, n)
			seen[n] = true
		}
	}
	sort.Strings(conflicts)
	return conflicts
}

// NewPlan builds a plan for names against the destination listing
func NewPlan(op domain.FileOp, directory string, existing []domain.Entry, names []string) *Plan {
	present := make(map[string]bool, len(existing))
	for _, e := range existing {
		present[e.Name] = true
	}

	plan := &Plan{Op: op, Directory: directory}
	for _, n := range names {
		plan.Items = append(plan.Items, Item{Name: n, Conflict: present[n]})
	}
	return plan
}

// NewDegradedPlan builds a best-effort plan used when the existence
// check failed: nothing is marked conflicting, every item goes out with
// keep-both defaults, and the plan is flagged for a warning.
func NewDegradedPlan(op domain.FileOp, directory string, names []string) *Plan {
	plan := &Plan{Op: op, Directory: directory, Degraded: true}
	for _, n := range names {
		plan.Items = append(plan.Items, Item{Name: n})
	}
	return plan
}

// HasConflicts reports whether any item collides at the destination
func (p *Plan) HasConflicts() bool {
	for _, it := range p.Items {
		if it.Conflict {
			return true
		}
	}
	return false
}

// Conflicts returns the names of the colliding subset
func (p *Plan) Conflicts() []string {
	var names []string
	for _, it := range p.Items {
		if it.Conflict {
			names = append(names, it.Name)
		}
	}
	return names
}

// Apply records one uniform decision for the conflicting subset.
// Non-conflicting items are untouched and proceed with defaults
// regardless of the chosen resolution.
func (p *Plan) Apply(r domain.Resolution) {
	for i := range p.Items {
		if p.Items[i].Conflict {
			p.Items[i].Resolution = r
		}
	}
}

// Ready returns ErrUnresolvedConflict while any colliding item still
// lacks a resolution. A plan must be ready before requests fire.
func (p *Plan) Ready() error {
	for _, it := range p.Items {
		if it.Conflict && !it.Resolution.IsValid() {
			return domain.ErrUnresolvedConflict
		}
	}
	return nil
}

// Outgoing returns the items that produce a network request, i.e.
// everything except conflicting items resolved as Skip.
func (p *Plan) Outgoing() []Item {
	var out []Item
	for _, it := range p.Items {
		if it.Conflict && it.Resolution == domain.ResolutionSkip {
			continue
		}
		out = append(out, it)
	}
	return out
}

// Flags returns the overwrite/skip pair to put on the wire for an item.
// At most one of the two is ever true.
func (it Item) Flags() (overwrite, skip bool) {
	if !it.Conflict {
		return false, false
	}
	return it.Resolution.Flags()
}
