package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/depotctl/depotctl/internal/domain"
)

// errorBody is the JSON shape the backend uses for failures; some
// endpoints use "error", others "message".
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// serverMessage extracts the human-readable failure reason, if any
func serverMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Error != "" {
		return eb.Error
	}
	return eb.Message
}

// mapStatus converts an HTTP response into a domain error. 2xx is nil.
// 4xx carries the server's message; 5xx is reported generically since
// the body is not trustworthy there.
func mapStatus(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	// Bounded read; error bodies are small
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		return domain.ErrPermissionDenied
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return domain.ErrAlreadyExists
	case resp.StatusCode < 500:
		if msg := serverMessage(body); msg != "" {
			return fmt.Errorf("%w: %s", domain.ErrRejected, msg)
		}
		return fmt.Errorf("%w: status %d", domain.ErrRejected, resp.StatusCode)
	default:
		return domain.ErrServerFailure
	}
}
