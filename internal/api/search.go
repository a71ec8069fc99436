package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/depotctl/depotctl/internal/domain"
)

// Search queries the backend search index within the given scope.
// The scope's container travels as main_folder, the narrowing
// subfolder as directory; both empty means the whole depot.
func (c *Client) Search(ctx context.Context, query string, scope domain.SearchScope) ([]domain.Suggestion, error) {
	q := url.Values{"q": {query}}
	if scope.Container != "" {
		q.Set("main_folder", scope.Container)
	}
	if scope.Directory != "" {
		q.Set("directory", scope.Directory)
	}

	var records []fileRecord
	if err := c.doJSON(ctx, http.MethodGet, "/search", q, nil, &records); err != nil {
		return nil, err
	}

	suggestions := make([]domain.Suggestion, 0, len(records))
	for _, r := range records {
		e := r.toEntry()
		suggestions = append(suggestions, domain.Suggestion{
			Name:      e.Name,
			Directory: e.Directory,
			Type:      e.Type,
		})
	}
	return suggestions, nil
}
