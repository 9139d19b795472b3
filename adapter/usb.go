package adapter

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"github.com/nixxel-company-limited/escpos-printkit/printerr"
)

// Interface class codes
// Reference: http://www.usb.org/developers/defined_class
const (
	IfaceClassAudio   = 0x01
	IfaceClassHID     = 0x03
	IfaceClassPrinter = 0x07
	IfaceClassHub     = 0x09
)

var errNoPrinter = errors.New("cannot find printer")

// USBAdapter manages USB printer communication
type USBAdapter struct {
	vid, pid uint16
	logger   *zap.Logger

	mu          sync.Mutex
	ctx         *gousb.Context
	device      *gousb.Device
	cfg         *gousb.Config
	iface       *gousb.Interface
	outEndpoint *gousb.OutEndpoint
}

// NewUSBAdapter returns an unopened adapter. A zero vid and pid selects
// the first printer-class device found on the bus.
func NewUSBAdapter(vid, pid uint16, opts ...Option) *USBAdapter {
	o := buildOptions(opts)
	return &USBAdapter{
		vid:    vid,
		pid:    pid,
		logger: o.logger.Named("adapter.usb"),
	}
}

func (a *USBAdapter) target() string {
	return fmt.Sprintf("usb:%04x:%04x", a.vid, a.pid)
}

func (a *USBAdapter) unavailable(op string, err error) error {
	return &printerr.TransportError{Kind: printerr.ErrUnavailable, Op: op, Target: a.target(), Err: err}
}

// IsPrinter checks if a device is a printer
func IsPrinter(dev *gousb.Device) bool {
	if dev == nil {
		return false
	}

	cfg, err := dev.ActiveConfigNum()
	if err != nil {
		return false
	}

	cfgDesc, err := dev.Config(cfg)
	if err != nil {
		return false
	}
	defer cfgDesc.Close()

	return printerInterface(cfgDesc.Desc) >= 0
}

// printerInterface returns the number of the first printer-class
// interface, or -1.
func printerInterface(desc gousb.ConfigDesc) int {
	for _, iface := range desc.Interfaces {
		for _, alt := range iface.AltSettings {
			if alt.Class == IfaceClassPrinter {
				return iface.Number
			}
		}
	}
	return -1
}

// FindPrinters returns all USB printer devices. Other devices are closed.
func FindPrinters(ctx *gousb.Context) []*gousb.Device {
	printers := []*gousb.Device{}

	devices, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return true // Check all devices
	})
	if err != nil && len(devices) == 0 {
		return printers
	}

	for _, dev := range devices {
		if IsPrinter(dev) {
			printers = append(printers, dev)
		} else {
			dev.Close()
		}
	}

	return printers
}

func (a *USBAdapter) findDevice(ctx *gousb.Context) (*gousb.Device, error) {
	if a.vid != 0 || a.pid != 0 {
		device, err := ctx.OpenDeviceWithVIDPID(gousb.ID(a.vid), gousb.ID(a.pid))
		if err != nil {
			return nil, err
		}
		if device == nil {
			return nil, errNoPrinter
		}
		return device, nil
	}

	printers := FindPrinters(ctx)
	if len(printers) == 0 {
		return nil, errNoPrinter
	}
	for _, p := range printers[1:] {
		p.Close()
	}
	a.logger.Debug("selected printer", zap.String("device", printers[0].Desc.String()), zap.Int("candidates", len(printers)))
	return printers[0], nil
}

// Open finds the device, claims its printer interface and the first
// bulk OUT endpoint.
func (a *USBAdapter) Open(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.outEndpoint != nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return a.unavailable("open", err)
	}

	a.ctx = gousb.NewContext()
	if err := a.claim(); err != nil {
		a.release()
		return a.unavailable("open", err)
	}
	a.logger.Debug("opened", zap.String("device", a.device.Desc.String()))
	return nil
}

func (a *USBAdapter) claim() error {
	device, err := a.findDevice(a.ctx)
	if err != nil {
		return err
	}
	a.device = device

	// Set auto-detach kernel driver on Linux
	if runtime.GOOS == "linux" {
		a.device.SetAutoDetach(true)
	}

	cfgNum, err := a.device.ActiveConfigNum()
	if err != nil {
		return fmt.Errorf("failed to get active config: %w", err)
	}

	a.cfg, err = a.device.Config(cfgNum)
	if err != nil {
		return fmt.Errorf("failed to get config: %w", err)
	}

	num := printerInterface(a.cfg.Desc)
	if num < 0 {
		return errors.New("no printer interface found")
	}

	a.iface, err = a.cfg.Interface(num, 0)
	if err != nil {
		return fmt.Errorf("failed to claim interface: %w", err)
	}

	for _, epDesc := range a.iface.Setting.Endpoints {
		if epDesc.Direction != gousb.EndpointDirectionOut {
			continue
		}
		if ep, err := a.iface.OutEndpoint(epDesc.Number); err == nil {
			a.outEndpoint = ep
			return nil
		}
	}
	return errors.New("cannot find output endpoint from printer")
}

// release closes whatever claim acquired, innermost first.
func (a *USBAdapter) release() error {
	var errs []error

	if a.iface != nil {
		a.iface.Close()
	}
	if a.cfg != nil {
		if err := a.cfg.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.device != nil {
		if err := a.device.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.ctx != nil {
		if err := a.ctx.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	a.outEndpoint, a.iface, a.cfg, a.device, a.ctx = nil, nil, nil, nil, nil
	return errors.Join(errs...)
}

// Write sends data to the printer
func (a *USBAdapter) Write(ctx context.Context, data []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.outEndpoint == nil {
		return 0, a.unavailable("write", errNotOpen)
	}

	n, err := a.outEndpoint.WriteContext(ctx, data)
	if err != nil {
		kind := printerr.ErrUnavailable
		if n > 0 {
			kind = printerr.ErrPartialWrite
		}
		return n, &printerr.TransportError{Kind: kind, Op: "write", Target: a.target(), Err: err}
	}
	return n, nil
}

// Close closes the USB device
func (a *USBAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.ctx == nil {
		return nil
	}
	if err := a.release(); err != nil {
		return fmt.Errorf("close errors: %w", err)
	}
	return nil
}

// IsOpen returns whether the device is open
func (a *USBAdapter) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.outEndpoint != nil
}

// GetDevice returns the underlying USB device, nil while closed.
func (a *USBAdapter) GetDevice() *gousb.Device {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.device
}
