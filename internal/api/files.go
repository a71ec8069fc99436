package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/depotctl/depotctl/internal/domain"
)

// fileRecord is the wire shape of a file entry. Older endpoints report
// the owner as "uploader", directory listings as "created_by".
type fileRecord struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Size        json.Number `json:"size"`
	Uploader    string      `json:"uploader"`
	CreatedBy   string      `json:"created_by"`
	Directory   string      `json:"directory"`
	ContentType string      `json:"content_type"`
	Message     string      `json:"message"`
	Receiver    string      `json:"receiver"`
}

func (r fileRecord) toEntry() domain.Entry {
	e := domain.Entry{
		ID:          r.ID,
		Name:        r.Name,
		Type:        domain.EntryType(r.Type),
		Directory:   r.Directory,
		Owner:       r.Uploader,
		ContentType: r.ContentType,
		Message:     r.Message,
		Receiver:    r.Receiver,
	}
	if e.Owner == "" {
		e.Owner = r.CreatedBy
	}
	if !e.Type.IsValid() {
		e.Type = domain.EntryTypeFile
	}
	// Size normalizes to a non-negative integer or nil
	if n, err := r.Size.Int64(); err == nil && n >= 0 {
		e.Size = &n
	}
	return e
}

func toEntries(records []fileRecord) []domain.Entry {
	entries := make([]domain.Entry, 0, len(records))
	for _, r := range records {
		entries = append(entries, r.toEntry())
	}
	return entries
}

// Files lists the files directly under directory
func (c *Client) Files(ctx context.Context, directory string) ([]domain.Entry, error) {
	var records []fileRecord
	q := url.Values{"directory": {directory}}
	if err := c.doJSON(ctx, http.MethodGet, "/files", q, nil, &records); err != nil {
		return nil, err
	}
	return toEntries(records), nil
}

// AllFiles lists every file in the depot
func (c *Client) AllFiles(ctx context.Context) ([]domain.Entry, error) {
	var records []fileRecord
	if err := c.doJSON(ctx, http.MethodGet, "/files/all", nil, nil, &records); err != nil {
		return nil, err
	}
	return toEntries(records), nil
}

// FilesWithMessages lists files carrying an undelivered message
func (c *Client) FilesWithMessages(ctx context.Context) ([]domain.Entry, error) {
	var records []fileRecord
	if err := c.doJSON(ctx, http.MethodGet, "/files-with-messages", nil, nil, &records); err != nil {
		return nil, err
	}
	return toEntries(records), nil
}

// UploadItem pairs a pending upload with its content
type UploadItem struct {
	Upload domain.PendingUpload
	Body   io.Reader
}

// writeUploadFields writes the shared multipart form fields
func writeUploadFields(w *multipart.Writer, up domain.PendingUpload) error {
	fields := map[string]string{
		"directory": up.Directory,
		"container": up.Container,
		"overwrite": strconv.FormatBool(up.Overwrite),
		"skip":      strconv.FormatBool(up.Skip),
	}
	if up.Message != "" {
		fields["message"] = up.Message
	}
	if up.Receiver != "" {
		fields["receiver"] = up.Receiver
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Upload sends a single file as a multipart request. The body is
// streamed through an io.Pipe so large files never buffer in memory.
func (c *Client) Upload(ctx context.Context, item UploadItem) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := func() error {
			if err := writeUploadFields(mw, item.Upload); err != nil {
				return err
			}
			part, err := mw.CreateFormFile("file", item.Upload.Name)
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, item.Body); err != nil {
				return err
			}
			return mw.Close()
		}()
		pw.CloseWithError(err)
	}()

	return c.doMultipart(ctx, "/upload", mw.FormDataContentType(), pr)
}

// BulkUpload sends a set of files as one multipart batch request.
// All items in the batch must share the same flag pair; the caller
// groups a resolved plan accordingly.
func (c *Client) BulkUpload(ctx context.Context, items []UploadItem) error {
	if len(items) == 0 {
		return nil
	}
	for _, item := range items {
		if item.Upload.Overwrite != items[0].Upload.Overwrite || item.Upload.Skip != items[0].Upload.Skip {
			return fmt.Errorf("bulk upload items carry mixed flags")
		}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := func() error {
			if err := writeUploadFields(mw, items[0].Upload); err != nil {
				return err
			}
			for _, item := range items {
				part, err := mw.CreateFormFile("files[]", item.Upload.Name)
				if err != nil {
					return err
				}
				if _, err := io.Copy(part, item.Body); err != nil {
					return err
				}
			}
			return mw.Close()
		}()
		pw.CloseWithError(err)
	}()

	return c.doMultipart(ctx, "/bulk-upload", mw.FormDataContentType(), pr)
}

// doMultipart posts a prepared multipart stream
func (c *Client) doMultipart(ctx context.Context, path, contentType string, body io.Reader) error {
	req, err := c.newRequest(ctx, http.MethodPost, c.endpoint(path, nil), body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		return err
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

// DeleteFile removes a file
func (c *Client) DeleteFile(ctx context.Context, directory, name string) error {
	body := map[string]string{"directory": directory, "filename": name}
	return c.doJSON(ctx, http.MethodDelete, "/delete-file", nil, body, nil)
}

// RenameFile renames a file in place
func (c *Client) RenameFile(ctx context.Context, directory, oldName, newName string) error {
	body := map[string]string{
		"directory": directory,
		"old_name":  oldName,
		"new_name":  newName,
	}
	return c.doJSON(ctx, http.MethodPut, "/file/rename", nil, body, nil)
}

// fileTransfer is the payload shared by copy and move
type fileTransfer struct {
	SourceDirectory string `json:"source_directory"`
	Filename        string `json:"filename"`
	TargetDirectory string `json:"target_directory"`
	Overwrite       bool   `json:"overwrite"`
	Skip            bool   `json:"skip"`
}

// CopyFile copies a file to another directory
func (c *Client) CopyFile(ctx context.Context, srcDir, name, dstDir string, overwrite, skip bool) error {
	body := fileTransfer{
		SourceDirectory: srcDir,
		Filename:        name,
		TargetDirectory: dstDir,
		Overwrite:       overwrite,
		Skip:            skip,
	}
	return c.doJSON(ctx, http.MethodPost, "/copy-file", nil, body, nil)
}

// MoveFile moves a file to another directory
func (c *Client) MoveFile(ctx context.Context, srcDir, name, dstDir string, overwrite, skip bool) error {
	body := fileTransfer{
		SourceDirectory: srcDir,
		Filename:        name,
		TargetDirectory: dstDir,
		Overwrite:       overwrite,
		Skip:            skip,
	}
	return c.doJSON(ctx, http.MethodPost, "/move-file", nil, body, nil)
}

// Download streams a file's content; the caller closes the reader.
// Size is the reported content length, -1 when unknown.
func (c *Client) Download(ctx context.Context, directory, filename string) (io.ReadCloser, int64, error) {
	q := url.Values{"directory": {directory}, "filename": {filename}}
	return c.doStream(ctx, "/download", q)
}

// DownloadFolder streams a zip of the whole directory subtree
func (c *Client) DownloadFolder(ctx context.Context, directory string) (io.ReadCloser, int64, error) {
	q := url.Values{"directory": {directory}}
	return c.doStream(ctx, "/download-folder", q)
}

// Preview streams a server-rendered preview of a file
func (c *Client) Preview(ctx context.Context, directory, filename string) (io.ReadCloser, int64, error) {
	q := url.Values{"directory": {directory}, "filename": {filename}}
	return c.doStream(ctx, "/preview", q)
}

// MarkMessageDone acknowledges the message attached to a file
func (c *Client) MarkMessageDone(ctx context.Context, fileID string) error {
	return c.doJSON(ctx, http.MethodPatch, "/file/message/"+url.PathEscape(fileID)+"/done", nil, nil, nil)
}
