package domain

// EventType identifies a push notification from the depot socket
type EventType string

const (
	// EventNewInstruction signals a new instruction addressed to the user
	EventNewInstruction EventType = "new_instruction"

	// EventFileUploaded signals a file upload visible to the user
	EventFileUploaded EventType = "file_uploaded"
)

// IsValid checks if the event type is a known value
func (t EventType) IsValid() bool {
	switch t {
	case EventNewInstruction, EventFileUploaded:
		return true
	}
	return false
}

// Event is a push notification received over the websocket
type Event struct {
	Type      EventType `json:"type"`
	Filename  string    `json:"filename,omitempty"`
	Directory string    `json:"directory,omitempty"`
	Sender    string    `json:"sender,omitempty"`
	Message   string    `json:"message,omitempty"`
}
