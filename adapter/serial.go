package adapter

import (
	"context"
	"sync"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"github.com/nixxel-company-limited/escpos-printkit/printerr"
)

// SerialAdapter writes to an RS-232 printer. Like the file transport it
// does not retry.
type SerialAdapter struct {
	name   string
	mode   *serial.Mode
	open   func(name string, mode *serial.Mode) (serial.Port, error)
	logger *zap.Logger

	mu   sync.Mutex
	port serial.Port
}

// NewSerialAdapter returns an unopened adapter for the named port. A zero
// baud rate selects DefaultBaud.
func NewSerialAdapter(name string, baud int, opts ...Option) *SerialAdapter {
	o := buildOptions(opts)
	if baud == 0 {
		baud = DefaultBaud
	}
	return &SerialAdapter{
		name: name,
		mode: &serial.Mode{
			BaudRate: baud,
			Parity:   serial.NoParity,
			DataBits: 8,
			StopBits: serial.OneStopBit,
		},
		open:   serial.Open,
		logger: o.logger.Named("adapter.serial"),
	}
}

// Open opens the port at the configured rate, 8N1.
func (a *SerialAdapter) Open(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.port != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return &printerr.TransportError{Kind: printerr.ErrUnavailable, Op: "open", Target: a.name, Err: err}
	}

	p, err := a.open(a.name, a.mode)
	if err != nil {
		return &printerr.TransportError{Kind: printerr.ErrUnavailable, Op: "open", Target: a.name, Err: err}
	}
	a.port = p
	a.logger.Debug("opened", zap.String("port", a.name), zap.Int("baud", a.mode.BaudRate))
	return nil
}

// Write sends data to the printer
func (a *SerialAdapter) Write(ctx context.Context, data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.port == nil {
		return 0, &printerr.TransportError{Kind: printerr.ErrUnavailable, Op: "write", Target: a.name, Err: errNotOpen}
	}

	n, err := a.port.Write(data)
	if err != nil {
		kind := printerr.ErrUnavailable
		if n > 0 {
			kind = printerr.ErrPartialWrite
		}
		return n, &printerr.TransportError{Kind: kind, Op: "write", Target: a.name, Err: err}
	}
	if n < len(data) {
		return n, &printerr.TransportError{Kind: printerr.ErrPartialWrite, Op: "write", Target: a.name}
	}
	return n, nil
}

// Close closes the port.
func (a *SerialAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.port == nil {
		return nil
	}
	err := a.port.Close()
	a.port = nil
	return err
}

// IsOpen returns whether the port is open
func (a *SerialAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.port != nil
}
