// Package progress tracks upload and download transfer progress and
// exposes human-readable formatting helpers for the CLI.
package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Reporter handles progress reporting for file transfers
type Reporter interface {
	// Begin starts tracking a new transfer
	Begin(name string, totalBytes int64)
	// Advance reports bytes moved on the current transfer
	Advance(bytesMoved int64)
	// Done marks the current transfer as complete
	Done()
	// Fail reports an error on the current transfer
	Fail(err error)
	// SetBatch sets the total number of items in this batch
	SetBatch(items int, totalBytes int64)
}

// Callback is a function that receives transfer updates
type Callback func(update Update)

// Update represents a transfer progress update
type Update struct {
	Type           UpdateType
	Name           string
	Bytes          int64
	Total          int64
	ItemsDone      int
	ItemsTotal     int
	BatchBytes     int64
	BatchTotal     int64
	BytesPerSecond float64
	Err            error
}

// UpdateType indicates the type of transfer update
type UpdateType int

const (
	UpdateBegin UpdateType = iota
	UpdateAdvance
	UpdateDone
	UpdateFail
)

// CallbackReporter implements Reporter with a callback function
type CallbackReporter struct {
	callback   Callback
	mu         sync.Mutex
	name       string
	total      int64
	bytes      int64
	itemsTotal int
	itemsDone  int
	batchTotal int64
	batchBytes int64
	startedAt  time.Time
}

// NewCallbackReporter creates a new CallbackReporter
func NewCallbackReporter(callback Callback) *CallbackReporter {
	return &CallbackReporter{
		callback: callback,
	}
}

// SetBatch sets the total number of items and bytes in this batch
func (r *CallbackReporter) SetBatch(items int, totalBytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.itemsTotal = items
	r.batchTotal = totalBytes
}

// Begin starts tracking a new transfer
func (r *CallbackReporter) Begin(name string, totalBytes int64) {
	r.mu.Lock()
	r.name = name
	r.total = totalBytes
	r.bytes = 0
	r.startedAt = time.Now()

	update := Update{
		Type:       UpdateBegin,
		Name:       name,
		Total:      totalBytes,
		ItemsDone:  r.itemsDone,
		ItemsTotal: r.itemsTotal,
		BatchBytes: r.batchBytes,
		BatchTotal: r.batchTotal,
	}
	callback := r.callback
	r.mu.Unlock()

	// Call outside the lock so a callback can query the reporter
	if callback != nil {
		callback(update)
	}
}

// Advance reports bytes moved on the current transfer
func (r *CallbackReporter) Advance(bytesMoved int64) {
	r.mu.Lock()
	r.bytes = bytesMoved

	var bytesPerSecond float64
	elapsed := time.Since(r.startedAt).Seconds()
	if elapsed > 0 {
		bytesPerSecond = float64(bytesMoved) / elapsed
	}

	update := Update{
		Type:           UpdateAdvance,
		Name:           r.name,
		Bytes:          bytesMoved,
		Total:          r.total,
		ItemsDone:      r.itemsDone,
		ItemsTotal:     r.itemsTotal,
		BatchBytes:     r.batchBytes + bytesMoved,
		BatchTotal:     r.batchTotal,
		BytesPerSecond: bytesPerSecond,
	}
	callback := r.callback
	r.mu.Unlock()

	if callback != nil {
		callback(update)
	}
}

// Done marks the current transfer as complete
func (r *CallbackReporter) Done() {
	r.mu.Lock()
	r.itemsDone++
	r.batchBytes += r.total

	update := Update{
		Type:       UpdateDone,
		Name:       r.name,
		Bytes:      r.total,
		Total:      r.total,
		ItemsDone:  r.itemsDone,
		ItemsTotal: r.itemsTotal,
		BatchBytes: r.batchBytes,
		BatchTotal: r.batchTotal,
	}
	callback := r.callback
	r.mu.Unlock()

	if callback != nil {
		callback(update)
	}
}

// Fail reports an error on the current transfer
func (r *CallbackReporter) Fail(err error) {
	r.mu.Lock()
	update := Update{
		Type:       UpdateFail,
		Name:       r.name,
		ItemsDone:  r.itemsDone,
		ItemsTotal: r.itemsTotal,
		BatchBytes: r.batchBytes,
		BatchTotal: r.batchTotal,
		Err:        err,
	}
	callback := r.callback
	r.mu.Unlock()

	if callback != nil {
		callback(update)
	}
}

// Reader wraps an io.Reader to report read progress; used for upload bodies
type Reader struct {
	reader   io.Reader
	reporter Reporter
	moved    int64
}

// NewReader creates a progress-tracking reader
func NewReader(r io.Reader, reporter Reporter) *Reader {
	return &Reader{
		reader:   r,
		reporter: reporter,
	}
}

// Read implements io.Reader
func (pr *Reader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 {
		pr.moved += int64(n)
		if pr.reporter != nil {
			pr.reporter.Advance(pr.moved)
		}
	}
	return n, err
}

// Writer wraps an io.Writer to report write progress; used for download sinks
type Writer struct {
	writer   io.Writer
	reporter Reporter
	moved    int64
}

// NewWriter creates a progress-tracking writer
func NewWriter(w io.Writer, reporter Reporter) *Writer {
	return &Writer{
		writer:   w,
		reporter: reporter,
	}
}

// Write implements io.Writer
func (pw *Writer) Write(p []byte) (n int, err error) {
	n, err = pw.writer.Write(p)
	if n > 0 {
		pw.moved += int64(n)
		if pw.reporter != nil {
			pw.reporter.Advance(pw.moved)
		}
	}
	return n, err
}

// NullReporter is a no-op reporter
type NullReporter struct{}

func (NullReporter) Begin(name string, totalBytes int64) {}
func (NullReporter) Advance(bytesMoved int64)            {}
func (NullReporter) Done()                               {}
func (NullReporter) Fail(err error)                      {}
func (NullReporter) SetBatch(items int, totalBytes int64) {}

// FormatBytes formats bytes into a human-readable string
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatSpeed formats bytes per second into a human-readable string
func FormatSpeed(bytesPerSecond float64) string {
	return FormatBytes(int64(bytesPerSecond)) + "/s"
}
