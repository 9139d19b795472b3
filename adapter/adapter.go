// Package adapter delivers encoded printer bytes over a physical transport.
package adapter

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

var errNotOpen = errors.New("device not open")

// Adapter defines the interface for printer communication adapters
type Adapter interface {
	// Open acquires the transport. A failed Open leaves the adapter closed.
	Open(ctx context.Context) error

	// Write delivers data and returns how many bytes the transport accepted.
	Write(ctx context.Context, data []byte) (int, error)

	// Close releases the transport. Closing a closed adapter is a no-op.
	Close() error

	// IsOpen returns whether the connection is open
	IsOpen() bool
}

// Factory builds an unopened adapter for a validated descriptor.
type Factory func(d Descriptor, opts ...Option) Adapter

var factories = map[Kind]Factory{
	KindFile: func(d Descriptor, opts ...Option) Adapter {
		return NewFileAdapter(d.Path, opts...)
	},
	KindNetwork: func(d Descriptor, opts ...Option) Adapter {
		return NewNetworkAdapter(d.Host, d.Port, opts...)
	},
	KindUSB: func(d Descriptor, opts ...Option) Adapter {
		return NewUSBAdapter(d.VendorID, d.ProductID, opts...)
	},
	KindSerial: func(d Descriptor, opts ...Option) Adapter {
		return NewSerialAdapter(d.Serial, d.Baud, opts...)
	},
}

// Factories returns a copy of the built-in factory per descriptor kind.
func Factories() map[Kind]Factory {
	out := make(map[Kind]Factory, len(factories))
	for k, f := range factories {
		out[k] = f
	}
	return out
}

// New validates d and returns the matching unopened adapter.
func New(d Descriptor, opts ...Option) (Adapter, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return factories[d.Kind](d, opts...), nil
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type options struct {
	logger         *zap.Logger
	dialer         Dialer
	backoff        Backoff
	sleep          SleepFunc
	connectTimeout time.Duration
	writeTimeout   time.Duration
}

// Option tunes an adapter. Options that do not apply to a transport are
// ignored by it.
type Option func(*options)

func buildOptions(opts []Option) options {
	o := options{
		logger:         zap.NewNop(),
		backoff:        DefaultBackoff(),
		sleep:          sleepContext,
		connectTimeout: 3 * time.Second,
		writeTimeout:   5 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for retries and device discovery.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDialer replaces the dialer used by network adapters.
func WithDialer(d Dialer) Option {
	return func(o *options) {
		o.dialer = d
	}
}

// WithBackoff sets the retry policy of network adapters.
func WithBackoff(b Backoff) Option {
	return func(o *options) {
		o.backoff = b
	}
}

// WithSleep replaces the wait between retries.
func WithSleep(fn SleepFunc) Option {
	return func(o *options) {
		o.sleep = fn
	}
}

// WithTimeouts bounds each connect and each write attempt. Zero leaves
// the current value.
func WithTimeouts(connect, write time.Duration) Option {
	return func(o *options) {
		if connect > 0 {
			o.connectTimeout = connect
		}
		if write > 0 {
			o.writeTimeout = write
		}
	}
}
