// Package nav implements the path and navigation model shared by every
// depot view. A slash-delimited logical path is the single source of truth
// for "where am I"; all helpers operate on that string form.
package nav

import (
	"strings"

	"github.com/depotctl/depotctl/internal/domain"
)

// Normalize trims surrounding slashes and collapses empty segments.
// The empty string is the depot root.
func Normalize(path string) string {
	parts := Segments(path)
	return strings.Join(parts, "/")
}

// Segments splits a path on "/" and discards empty tokens
func Segments(path string) []string {
	raw := strings.Split(path, "/")
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Join appends name to base. The result is normalized; name must be a
// single segment and may not introduce traversal.
func Join(base, name string) string {
	name = strings.Trim(name, "/")
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return Normalize(base)
	}
	base = Normalize(base)
	if base == "" {
		return name
	}
	return base + "/" + name
}

// Up returns the parent path. A container root is a no-op: the view
// cannot navigate above Operation, Training or Research. The depot
// root is likewise a no-op.
func Up(path string) string {
	path = Normalize(path)
	if path == "" || domain.IsContainer(path) {
		return path
	}
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return ""
	}
	return path[:idx]
}

// Container returns the leading container token of a path, or ""
// when the path is not rooted at a fixed container.
func Container(path string) string {
	parts := Segments(path)
	if len(parts) == 0 || !domain.IsContainer(parts[0]) {
		return ""
	}
	return parts[0]
}

// Within reports whether path sits at or below root. An empty root
// means the whole depot.
func Within(path, root string) bool {
	path = Normalize(path)
	root = Normalize(root)
	if root == "" {
		return true
	}
	return path == root || strings.HasPrefix(path, root+"/")
}

// Breadcrumbs returns the segments rendered for a container-scoped view:
// the leading container token is dropped so only the meaningful sub-path
// remains. For the generic browser pass container == "".
func Breadcrumbs(path, container string) []string {
	parts := Segments(path)
	if container != "" && len(parts) > 0 && parts[0] == container {
		parts = parts[1:]
	}
	return parts
}

// Scope is the navigation boundary of one view. Root is a container name
// for the scoped dashboards or "" for the generic browser.
type Scope struct {
	Root string
}

// Enter navigates from base into name, rejecting any result that would
// escape the scope's root.
func (s Scope) Enter(base, name string) (string, error) {
	next := Join(base, name)
	if !Within(next, s.Root) {
		return "", domain.ErrPathEscape
	}
	return next, nil
}

// Up navigates one level toward the scope's root and never above it
func (s Scope) Up(path string) string {
	parent := Up(path)
	if !Within(parent, s.Root) {
		return Normalize(path)
	}
	return parent
}
