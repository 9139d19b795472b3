package adapter

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nixxel-company-limited/escpos-printkit/printerr"
)

// Dialer opens stream connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// NetworkAdapter sends raw bytes to a TCP print port, typically 9100.
// Failed connects and failed writes are retried with backoff; a write
// resumes from the first byte the peer did not accept.
type NetworkAdapter struct {
	addr           string
	dialer         Dialer
	backoff        Backoff
	sleep          SleepFunc
	connectTimeout time.Duration
	writeTimeout   time.Duration
	logger         *zap.Logger

	mu     sync.Mutex
	conn   net.Conn
	isOpen bool
}

// NewNetworkAdapter returns an unopened adapter for host:port.
func NewNetworkAdapter(host string, port int, opts ...Option) *NetworkAdapter {
	o := buildOptions(opts)
	if o.dialer == nil {
		o.dialer = &net.Dialer{}
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	return &NetworkAdapter{
		addr:           addr,
		dialer:         o.dialer,
		backoff:        o.backoff,
		sleep:          o.sleep,
		connectTimeout: o.connectTimeout,
		writeTimeout:   o.writeTimeout,
		logger:         o.logger.Named("adapter.network").With(zap.String("addr", addr)),
	}
}

// Open connects, retrying refused or timed out attempts.
func (a *NetworkAdapter) Open(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.isOpen {
		return nil
	}

	attempts := a.backoff.attempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := a.wait(ctx, attempt-1); err != nil {
				return a.unreachable("connect", attempt-1, err)
			}
		}

		conn, err := a.dial(ctx)
		if err == nil {
			a.conn = conn
			a.isOpen = true
			a.logger.Debug("connected", zap.Int("attempt", attempt))
			return nil
		}
		lastErr = err
		a.logger.Warn("connect failed", zap.Int("attempt", attempt), zap.Error(err))

		if ctx.Err() != nil {
			return a.unreachable("connect", attempt, ctx.Err())
		}
	}
	return a.unreachable("connect", attempts, lastErr)
}

// Write sends all of data. After a failed attempt the connection is
// re-established and only the unsent tail is written. The returned count
// is the number of bytes the peer accepted.
func (a *NetworkAdapter) Write(ctx context.Context, data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.isOpen {
		return 0, &printerr.TransportError{Kind: printerr.ErrUnavailable, Op: "write", Target: a.addr, Err: errNotOpen}
	}
	if len(data) == 0 {
		return 0, nil
	}

	attempts := a.backoff.attempts()
	written := 0
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := a.wait(ctx, attempt-1); err != nil {
				return written, a.unreachable("write", attempt-1, err)
			}
		}

		if a.conn == nil {
			conn, err := a.dial(ctx)
			if err != nil {
				lastErr = err
				a.logger.Warn("reconnect failed", zap.Int("attempt", attempt), zap.Error(err))
				continue
			}
			a.conn = conn
		}

		n, err := a.writeOnce(a.conn, data[written:])
		written += n
		if err == nil {
			return written, nil
		}
		lastErr = err
		a.logger.Warn("write failed",
			zap.Int("attempt", attempt),
			zap.Int("written", written),
			zap.Int("remaining", len(data)-written),
			zap.Error(err))

		a.conn.Close()
		a.conn = nil
	}
	return written, a.unreachable("write", attempts, lastErr)
}

func (a *NetworkAdapter) dial(ctx context.Context) (net.Conn, error) {
	if a.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.connectTimeout)
		defer cancel()
	}
	return a.dialer.DialContext(ctx, "tcp", a.addr)
}

func (a *NetworkAdapter) writeOnce(conn net.Conn, p []byte) (int, error) {
	if a.writeTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(a.writeTimeout)); err != nil {
			return 0, err
		}
	}
	return conn.Write(p)
}

func (a *NetworkAdapter) wait(ctx context.Context, retry int) error {
	d := a.backoff.Delay(retry)
	a.logger.Debug("backing off", zap.Int("retry", retry), zap.Duration("delay", d))
	return a.sleep(ctx, d)
}

func (a *NetworkAdapter) unreachable(op string, attempts int, err error) error {
	return &printerr.TransportError{
		Kind:     printerr.ErrUnreachable,
		Op:       op,
		Target:   a.addr,
		Attempts: attempts,
		Err:      err,
	}
}

// Close closes the connection.
func (a *NetworkAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.isOpen = false
	if a.conn == nil {
		return nil
	}
	err := a.conn.Close()
	a.conn = nil
	return err
}

// IsOpen returns whether Open succeeded and Close has not been called.
func (a *NetworkAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isOpen
}

// Addr returns host:port.
func (a *NetworkAdapter) Addr() string {
	return a.addr
}
