package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/depotctl/depotctl/internal/domain"
)

// Directories lists the sub-directories directly under directory
func (c *Client) Directories(ctx context.Context, directory string) ([]domain.Entry, error) {
	var records []fileRecord
	q := url.Values{"directory": {directory}}
	if err := c.doJSON(ctx, http.MethodGet, "/directory/list", q, nil, &records); err != nil {
		return nil, err
	}
	entries := toEntries(records)
	for i := range entries {
		entries[i].Type = domain.EntryTypeDirectory
	}
	return entries, nil
}

// List returns the combined listing of directory: sub-directories
// followed by files, the order the views render them in.
func (c *Client) List(ctx context.Context, directory string) ([]domain.Entry, error) {
	dirs, err := c.Directories(ctx, directory)
	if err != nil {
		return nil, err
	}
	files, err := c.Files(ctx, directory)
	if err != nil {
		return nil, err
	}
	return append(dirs, files...), nil
}

// TreeNode is one node of the full directory tree
type TreeNode struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	Children []TreeNode `json:"children,omitempty"`
}

// Tree fetches the entire directory tree
func (c *Client) Tree(ctx context.Context) ([]TreeNode, error) {
	var nodes []TreeNode
	if err := c.doJSON(ctx, http.MethodGet, "/directory/tree", nil, nil, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

// CreateDirectory creates a directory under parent
func (c *Client) CreateDirectory(ctx context.Context, parent, name string) error {
	body := map[string]string{"directory": parent, "name": name}
	return c.doJSON(ctx, http.MethodPost, "/directory/create", nil, body, nil)
}

// DeleteDirectory removes a directory and its contents
func (c *Client) DeleteDirectory(ctx context.Context, directory string) error {
	body := map[string]string{"directory": directory}
	return c.doJSON(ctx, http.MethodDelete, "/directory/delete", nil, body, nil)
}

// RenameDirectory renames a directory in place
func (c *Client) RenameDirectory(ctx context.Context, parent, oldName, newName string) error {
	body := map[string]string{
		"directory": parent,
		"old_name":  oldName,
		"new_name":  newName,
	}
	return c.doJSON(ctx, http.MethodPut, "/directory/rename", nil, body, nil)
}

// directoryTransfer is the payload shared by directory copy and move
type directoryTransfer struct {
	SourceDirectory string `json:"source_directory"`
	TargetDirectory string `json:"target_directory"`
}

// CopyDirectory copies a directory subtree
func (c *Client) CopyDirectory(ctx context.Context, srcDir, dstDir string) error {
	body := directoryTransfer{SourceDirectory: srcDir, TargetDirectory: dstDir}
	return c.doJSON(ctx, http.MethodPost, "/directory/copy", nil, body, nil)
}

// MoveDirectory moves a directory subtree
func (c *Client) MoveDirectory(ctx context.Context, srcDir, dstDir string) error {
	body := directoryTransfer{SourceDirectory: srcDir, TargetDirectory: dstDir}
	return c.doJSON(ctx, http.MethodPost, "/directory/move", nil, body, nil)
}
