// Package search implements the suggestion pipeline: scope resolution,
// match ranking and the merge of locally cached entries with server
// results. Network pacing lives in debounce.go.
package search

import (
	"sort"
	"strings"

	"github.com/depotctl/depotctl/internal/domain"
)

// Match tiers, strongest first. Within a tier directories sort before
// files, then names alphabetically.
const (
	tierExact = iota
	tierPrefix
	tierSubstring
	tierNone
)

func tier(name, query string) int {
	n := strings.ToLower(name)
	q := strings.ToLower(query)
	switch {
	case n == q:
		return tierExact
	case strings.HasPrefix(n, q):
		return tierPrefix
	case strings.Contains(n, q):
		return tierSubstring
	default:
		return tierNone
	}
}

// Rank filters suggestions to those matching query (case-insensitive)
// and orders them: exact match first, then prefix matches, then
// substring matches; alphabetical within a tier; directories before
// files when both match in the same tier.
func Rank(candidates []domain.Suggestion, query string) []domain.Suggestion {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	var matched []domain.Suggestion
	for _, c := range candidates {
		if tier(c.Name, query) != tierNone {
			matched = append(matched, c)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		ti, tj := tier(matched[i].Name, query), tier(matched[j].Name, query)
		if ti != tj {
			return ti < tj
		}
		di, dj := matched[i].Type == domain.EntryTypeDirectory, matched[j].Type == domain.EntryTypeDirectory
		if di != dj {
			return di
		}
		ni, nj := strings.ToLower(matched[i].Name), strings.ToLower(matched[j].Name)
		if ni != nj {
			return ni < nj
		}
		return matched[i].Name < matched[j].Name
	})

	return matched
}

// Merge combines the immediate local matches with the authoritative
// server results, deduplicating by (name, directory). Local entries
// arrive first; a server duplicate does not displace them.
func Merge(local, server []domain.Suggestion) []domain.Suggestion {
	seen := make(map[string]bool, len(local)+len(server))
	merged := make([]domain.Suggestion, 0, len(local)+len(server))

	for _, s := range local {
		if !seen[s.Key()] {
			seen[s.Key()] = true
			merged = append(merged, s)
		}
	}
	for _, s := range server {
		if !seen[s.Key()] {
			seen[s.Key()] = true
			merged = append(merged, s)
		}
	}
	return merged
}

// FromEntries converts listing entries into suggestion candidates
func FromEntries(entries []domain.Entry) []domain.Suggestion {
	suggestions := make([]domain.Suggestion, 0, len(entries))
	for _, e := range entries {
		suggestions = append(suggestions, domain.Suggestion{
			Name:      e.Name,
			Directory: e.Directory,
			Type:      e.Type,
		})
	}
	return suggestions
}

// ScopeFor resolves the search scope for a view.
//
// Generic browser (container == ""): at the depot root the search spans
// the whole tree; inside a folder it is restricted to that subtree.
// Container view: the search never leaves the container; at the
// container root the scope is the whole container, deeper it narrows
// to the current subfolder.
func ScopeFor(container, currentPath string) domain.SearchScope {
	if container == "" {
		if currentPath == "" {
			return domain.SearchScope{}
		}
		return domain.SearchScope{Directory: currentPath}
	}
	if currentPath == "" || currentPath == container {
		return domain.SearchScope{Container: container}
	}
	return domain.SearchScope{Container: container, Directory: currentPath}
}
