package domain

// Role is the access level reported by the backend at login
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid checks if the role is a known value
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	}
	return false
}

// Session is the client-held identity established at login.
// The server is the actual authorization authority; the client only
// uses this for immediate feedback and request attribution.
type Session struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether the session carries the admin role
func (s Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// Valid reports whether a session is present
func (s Session) Valid() bool {
	return s.Username != ""
}

// Prefs are the user interface preferences persisted between runs
type Prefs struct {
	DarkMode      bool `json:"dark_mode"`
	Notifications bool `json:"notifications"`
}

// User is an account record from the user-management API
type User struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
	Email    string `json:"email,omitempty"`
}
