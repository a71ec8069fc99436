package domain

// EntryType represents the type of a depot entry
type EntryType string

const (
	EntryTypeFile      EntryType = "file"
	EntryTypeDirectory EntryType = "directory"
)

// IsValid checks if the entry type is a known value
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeFile, EntryTypeDirectory:
		return true
	}
	return false
}

// Container names are the fixed top-level folders of the depot.
// Every container-scoped view is rooted at one of these.
const (
	ContainerOperation = "Operation"
	ContainerTraining  = "Training"
	ContainerResearch  = "Research"
)

// Containers returns the fixed top-level containers in display order
func Containers() []string {
	return []string{ContainerOperation, ContainerResearch, ContainerTraining}
}

// IsContainer reports whether name is one of the fixed top-level containers
func IsContainer(name string) bool {
	switch name {
	case ContainerOperation, ContainerTraining, ContainerResearch:
		return true
	}
	return false
}

// Entry represents a file or directory as returned by the depot listing API
type Entry struct {
	// ID is the server-side identifier (empty for directories)
	ID string `json:"id,omitempty"`

	// Name is the entry name without any path component
	Name string `json:"name"`

	// Type indicates file or directory
	Type EntryType `json:"type"`

	// Size in bytes; nil when the server did not report one
	Size *int64 `json:"size,omitempty"`

	// Directory is the logical path holding this entry
	Directory string `json:"directory,omitempty"`

	// Owner is the uploader (files) or creator (directories)
	Owner string `json:"owner,omitempty"`

	// ContentType is the MIME type reported for files
	ContentType string `json:"content_type,omitempty"`

	// Message is an optional note attached at upload time
	Message string `json:"message,omitempty"`

	// Receiver is the user a message is addressed to
	Receiver string `json:"receiver,omitempty"`
}

// IsDir returns true if this is a directory entry
func (e Entry) IsDir() bool {
	return e.Type == EntryTypeDirectory
}

// IsFile returns true if this is a file entry
func (e Entry) IsFile() bool {
	return e.Type == EntryTypeFile
}

// SizeBytes returns the reported size, or 0 when unknown
func (e Entry) SizeBytes() int64 {
	if e.Size == nil {
		return 0
	}
	return *e.Size
}

// OwnedBy is the client-side ownership predicate used before rename, move
// and delete. It is a UX shortcut only; the server remains the authority
// and its rejection wins even when this check passed.
func (e Entry) OwnedBy(username string) bool {
	return e.Owner != "" && e.Owner == username
}
