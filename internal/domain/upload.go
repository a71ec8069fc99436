package domain

// Resolution defines how a name collision at the destination is handled
type Resolution string

const (
	// ResolutionOverwrite replaces the existing entry in place
	ResolutionOverwrite Resolution = "overwrite"

	// ResolutionKeepBoth submits the unchanged name; the server
	// auto-suffixes to avoid the collision (e.g. "name(1).ext")
	ResolutionKeepBoth Resolution = "keep_both"

	// ResolutionSkip aborts the colliding item without a request
	ResolutionSkip Resolution = "skip"
)

// IsValid checks if the resolution is a known value
func (r Resolution) IsValid() bool {
	switch r {
	case ResolutionOverwrite, ResolutionKeepBoth, ResolutionSkip:
		return true
	}
	return false
}

// Flags returns the overwrite/skip pair carried in a request payload.
// At most one of the two is ever true; both false means keep-both.
func (r Resolution) Flags() (overwrite, skip bool) {
	switch r {
	case ResolutionOverwrite:
		return true, false
	case ResolutionSkip:
		return false, true
	default:
		return false, false
	}
}

// PendingUpload describes a single file queued for upload.
// It is consumed exactly once by the upload request.
type PendingUpload struct {
	// LocalPath is the file on disk to read from
	LocalPath string

	// Name is the target filename at the destination
	Name string

	// Directory is the destination path within the depot
	Directory string

	// Container is the top-level container holding Directory
	Container string

	// ContentType is the MIME type to report (optional)
	ContentType string

	// Overwrite replaces an existing entry of the same name
	Overwrite bool

	// Skip marks this item as aborted; no request is sent for it
	Skip bool

	// Message is an optional note for the receiver
	Message string

	// Receiver is the user the message is addressed to
	Receiver string
}

// Resolve applies a conflict resolution to the upload flags,
// preserving the overwrite/skip mutual exclusion.
func (p *PendingUpload) Resolve(r Resolution) {
	p.Overwrite, p.Skip = r.Flags()
}

// FileOp identifies a conflict-checked file operation
type FileOp string

const (
	OpUpload FileOp = "upload"
	OpCopy   FileOp = "copy"
	OpMove   FileOp = "move"
)
