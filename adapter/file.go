package adapter

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/nixxel-company-limited/escpos-printkit/printerr"
)

// FileAdapter writes to a device node or file that already exists, such as
// /dev/usb/lp0. Failures are not retried.
type FileAdapter struct {
	path   string
	logger *zap.Logger

	mu   sync.Mutex
	file *os.File
}

// NewFileAdapter returns an unopened adapter for path.
func NewFileAdapter(path string, opts ...Option) *FileAdapter {
	o := buildOptions(opts)
	return &FileAdapter{path: path, logger: o.logger.Named("adapter.file")}
}

// Open opens path for appending. It does not create the file.
func (a *FileAdapter) Open(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &printerr.TransportError{Kind: printerr.ErrUnavailable, Op: "open", Target: a.path, Err: err}
	}

	f, err := os.OpenFile(a.path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return &printerr.TransportError{Kind: printerr.ErrUnavailable, Op: "open", Target: a.path, Err: err}
	}
	a.file = f
	a.logger.Debug("opened", zap.String("path", a.path))
	return nil
}

// Write appends data in a single call.
func (a *FileAdapter) Write(ctx context.Context, data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return 0, &printerr.TransportError{Kind: printerr.ErrUnavailable, Op: "write", Target: a.path, Err: errNotOpen}
	}

	n, err := a.file.Write(data)
	if err != nil {
		kind := printerr.ErrUnavailable
		if n > 0 {
			kind = printerr.ErrPartialWrite
		}
		return n, &printerr.TransportError{Kind: kind, Op: "write", Target: a.path, Err: err}
	}
	return n, nil
}

// Close closes the file.
func (a *FileAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil
	}
	err := a.file.Close()
	a.file = nil
	return err
}

// IsOpen returns whether the file is open
func (a *FileAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file != nil
}
