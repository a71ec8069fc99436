package domain

// Suggestion is an ephemeral search suggestion, re-computed per keystroke
type Suggestion struct {
	// Name of the matching entry
	Name string `json:"name"`

	// Directory holding the match; empty for bare text suggestions
	Directory string `json:"directory,omitempty"`

	// Type of the matching entry
	Type EntryType `json:"type"`
}

// Key returns the deduplication key for merged suggestion lists
func (s Suggestion) Key() string {
	return s.Name + "\x00" + s.Directory
}

// SearchScope bounds a query to a subtree of the depot
type SearchScope struct {
	// Container restricts the search to one top-level container;
	// empty means the whole depot (generic browser at root)
	Container string

	// Directory narrows the search to a subfolder's subtree;
	// empty means the whole container (or whole depot)
	Directory string
}

// Whole reports whether the scope spans the entire depot
func (s SearchScope) Whole() bool {
	return s.Container == "" && s.Directory == ""
}
