// Package dispatch runs print sessions: it validates the device descriptor,
// encodes the whole command sequence and streams the frames to the
// transport selected for the descriptor.
package dispatch

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/nixxel-company-limited/escpos-printkit/adapter"
	"github.com/nixxel-company-limited/escpos-printkit/command"
	"github.com/nixxel-company-limited/escpos-printkit/escpos"
	"github.com/nixxel-company-limited/escpos-printkit/printerr"
)

// Dispatcher is immutable after construction and may run sessions
// concurrently. Sessions to the same device must be serialized by the
// caller.
type Dispatcher struct {
	factories   map[adapter.Kind]adapter.Factory
	page        escpos.CodePage
	adapterOpts []adapter.Option
	logger      *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCodePage selects the single-byte table of every session.
func WithCodePage(page escpos.CodePage) Option {
	return func(d *Dispatcher) {
		d.page = page
	}
}

// WithAdapterOptions passes opts to every adapter the dispatcher builds.
func WithAdapterOptions(opts ...adapter.Option) Option {
	return func(d *Dispatcher) {
		d.adapterOpts = append(d.adapterOpts, opts...)
	}
}

// WithFactory replaces the transport used for descriptors of kind.
func WithFactory(kind adapter.Kind, f adapter.Factory) Option {
	return func(d *Dispatcher) {
		d.factories[kind] = f
	}
}

// New creates a dispatcher logging to the global zap logger.
func New(opts ...Option) *Dispatcher {
	return NewWithLogger(zap.L(), opts...)
}

// NewWithLogger creates a dispatcher with a custom logger
func NewWithLogger(logger *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		factories: adapter.Factories(),
		page:      escpos.DefaultCodePage,
		logger:    logger.Named("dispatch"),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.adapterOpts = append([]adapter.Option{adapter.WithLogger(logger)}, d.adapterOpts...)
	return d
}

// Encode validates and encodes cmds from the default printer state. The
// first failure is returned with the position of the offending command.
func (d *Dispatcher) Encode(cmds []command.Command) ([]escpos.Frame, error) {
	enc := escpos.NewEncoder(escpos.WithCodePage(d.page))

	frames := make([]escpos.Frame, 0, len(cmds)+1)
	if p := enc.Prologue(); len(p) > 0 {
		frames = append(frames, p)
	}
	for i, c := range cmds {
		f, err := enc.Encode(c)
		if err != nil {
			return nil, printerr.At(err, i, c.Name())
		}
		frames = append(frames, f)
	}
	return frames, nil
}

// RunJob is Run for a decoded job.
func (d *Dispatcher) RunJob(ctx context.Context, job Job) Result {
	return d.Run(ctx, job.Device, job.Commands)
}

// Run executes one session. Nothing is opened or sent unless the
// descriptor and every command are valid. Frames are written one command
// at a time; on a transport failure the result carries the bytes that
// were confirmed before it.
func (d *Dispatcher) Run(ctx context.Context, desc adapter.Descriptor, cmds []command.Command) Result {
	log := d.logger.With(zap.Stringer("device", desc), zap.Int("commands", len(cmds)))

	if err := desc.Validate(); err != nil {
		return d.finish(log, Result{Err: err})
	}
	frames, err := d.Encode(cmds)
	if err != nil {
		return d.finish(log, Result{Err: err})
	}

	factory, ok := d.factories[desc.Kind]
	if !ok {
		return d.finish(log, Result{Err: printerr.Invalid(printerr.ErrInvalidDevice, "no transport for %s devices", desc.Kind)})
	}
	a := factory(desc, d.adapterOpts...)

	if err := a.Open(ctx); err != nil {
		return d.finish(log, Result{Err: err})
	}
	log.Debug("transport open", zap.Int("frames", len(frames)))

	res := d.stream(ctx, a, frames)
	if err := a.Close(); err != nil {
		if res.Err == nil {
			res.Err = &printerr.TransportError{Kind: printerr.ErrUnavailable, Op: "close", Target: desc.String(), Err: err}
		} else {
			log.Warn("close failed", zap.Error(err))
		}
	}
	return d.finish(log, res)
}

func (d *Dispatcher) stream(ctx context.Context, a adapter.Adapter, frames []escpos.Frame) Result {
	var res Result
	for _, f := range frames {
		if len(f) == 0 {
			continue
		}
		n, err := a.Write(ctx, f)
		res.BytesSent += n
		if err != nil {
			res.Err = err
			return res
		}
	}
	return res
}

func (d *Dispatcher) finish(log *zap.Logger, res Result) Result {
	if res.Err == nil {
		log.Info("session delivered", zap.Int("bytes", res.BytesSent))
		return res
	}

	fields := []zap.Field{
		zap.Int("bytes", res.BytesSent),
		zap.String("error_kind", printerr.KindOf(res.Err)),
		zap.Error(res.Err),
	}
	var te *printerr.TransportError
	if errors.As(res.Err, &te) && te.Attempts > 0 {
		fields = append(fields, zap.Int("attempts", te.Attempts))
	}
	log.Warn("session failed", fields...)
	return res
}
