package adapter

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nixxel-company-limited/escpos-printkit/printerr"
)

// Kind names a descriptor variant.
type Kind string

const (
	KindFile    Kind = "file"
	KindNetwork Kind = "network"
	KindUSB     Kind = "usb"
	KindSerial  Kind = "serial"
)

// DefaultBaud is used when a serial descriptor leaves the rate at zero.
const DefaultBaud = 9600

// Descriptor identifies the device of one session. Kind selects the
// variant; only that variant's fields may be set.
type Descriptor struct {
	Kind Kind

	// KindFile
	Path string

	// KindNetwork
	Host string
	Port int

	// KindUSB; 0/0 selects the first printer-class device.
	VendorID  uint16
	ProductID uint16

	// KindSerial
	Serial string
	Baud   int
}

func LocalFile(path string) Descriptor {
	return Descriptor{Kind: KindFile, Path: path}
}

func NetworkEndpoint(host string, port int) Descriptor {
	return Descriptor{Kind: KindNetwork, Host: host, Port: port}
}

func USBDevice(vendorID, productID uint16) Descriptor {
	return Descriptor{Kind: KindUSB, VendorID: vendorID, ProductID: productID}
}

func SerialPort(name string, baud int) Descriptor {
	return Descriptor{Kind: KindSerial, Serial: name, Baud: baud}
}

// populated lists the variants whose fields are non-zero.
func (d Descriptor) populated() []Kind {
	var kinds []Kind
	if d.Path != "" {
		kinds = append(kinds, KindFile)
	}
	if d.Host != "" || d.Port != 0 {
		kinds = append(kinds, KindNetwork)
	}
	if d.VendorID != 0 || d.ProductID != 0 {
		kinds = append(kinds, KindUSB)
	}
	if d.Serial != "" || d.Baud != 0 {
		kinds = append(kinds, KindSerial)
	}
	return kinds
}

// Validate reports ErrInvalidDevice unless exactly one variant is
// populated and its fields are usable.
func (d Descriptor) Validate() error {
	set := d.populated()
	if len(set) > 1 {
		return printerr.Invalid(printerr.ErrInvalidDevice, "descriptor names more than one device %v", set)
	}
	if strings.Contains(string(d.Kind), "+") {
		return printerr.Invalid(printerr.ErrInvalidDevice, "descriptor names more than one device (%s)", d.Kind)
	}
	for _, k := range set {
		if k != d.Kind {
			return printerr.Invalid(printerr.ErrInvalidDevice, "%s descriptor also sets %s fields", d.kindName(), k)
		}
	}

	switch d.Kind {
	case KindFile:
		if d.Path == "" {
			return printerr.Invalid(printerr.ErrInvalidDevice, "file descriptor needs a path")
		}
	case KindNetwork:
		if d.Host == "" {
			return printerr.Invalid(printerr.ErrInvalidDevice, "network descriptor needs a host")
		}
		if d.Port < 1 || d.Port > 65535 {
			return printerr.Invalid(printerr.ErrInvalidDevice, "port %d out of range 1..65535", d.Port)
		}
	case KindUSB:
	case KindSerial:
		if d.Serial == "" {
			return printerr.Invalid(printerr.ErrInvalidDevice, "serial descriptor needs a port name")
		}
		if d.Baud < 0 {
			return printerr.Invalid(printerr.ErrInvalidDevice, "baud rate %d is negative", d.Baud)
		}
	case "":
		return printerr.Invalid(printerr.ErrInvalidDevice, "descriptor names no device")
	default:
		return printerr.Invalid(printerr.ErrInvalidDevice, "unknown descriptor kind %q", string(d.Kind))
	}
	return nil
}

func (d Descriptor) kindName() string {
	if d.Kind == "" {
		return "empty"
	}
	return string(d.Kind)
}

// String returns the transport target, suitable for logs and errors.
func (d Descriptor) String() string {
	switch d.Kind {
	case KindFile:
		return d.Path
	case KindNetwork:
		return fmt.Sprintf("%s:%d", d.Host, d.Port)
	case KindUSB:
		return fmt.Sprintf("usb:%04x:%04x", d.VendorID, d.ProductID)
	case KindSerial:
		return fmt.Sprintf("%s@%d", d.Serial, d.baud())
	}
	return "<invalid device>"
}

func (d Descriptor) baud() int {
	if d.Baud == 0 {
		return DefaultBaud
	}
	return d.Baud
}

// wireDescriptor is the flat wire shape. Pointers record which keys were
// present so that {"vendor_id": 0, "product_id": 0} still selects USB.
type wireDescriptor struct {
	Path      *string `json:"path,omitempty" yaml:"path,omitempty"`
	Host      *string `json:"host,omitempty" yaml:"host,omitempty"`
	Port      *int    `json:"port,omitempty" yaml:"port,omitempty"`
	VendorID  *uint16 `json:"vendor_id,omitempty" yaml:"vendor_id,omitempty"`
	ProductID *uint16 `json:"product_id,omitempty" yaml:"product_id,omitempty"`
	Serial    *string `json:"serial,omitempty" yaml:"serial,omitempty"`
	Baud      *int    `json:"baud,omitempty" yaml:"baud,omitempty"`
}

func (w wireDescriptor) descriptor() Descriptor {
	var d Descriptor
	var kinds []string

	if w.Path != nil {
		d.Kind, d.Path = KindFile, *w.Path
		kinds = append(kinds, string(KindFile))
	}
	if w.Host != nil || w.Port != nil {
		d.Kind = KindNetwork
		if w.Host != nil {
			d.Host = *w.Host
		}
		if w.Port != nil {
			d.Port = *w.Port
		}
		kinds = append(kinds, string(KindNetwork))
	}
	if w.VendorID != nil || w.ProductID != nil {
		d.Kind = KindUSB
		if w.VendorID != nil {
			d.VendorID = *w.VendorID
		}
		if w.ProductID != nil {
			d.ProductID = *w.ProductID
		}
		kinds = append(kinds, string(KindUSB))
	}
	if w.Serial != nil || w.Baud != nil {
		d.Kind = KindSerial
		if w.Serial != nil {
			d.Serial = *w.Serial
		}
		if w.Baud != nil {
			d.Baud = *w.Baud
		}
		kinds = append(kinds, string(KindSerial))
	}

	// More than one variant yields a combined kind that Validate rejects.
	if len(kinds) > 1 {
		d.Kind = Kind(strings.Join(kinds, "+"))
	}
	return d
}

func (d Descriptor) wire() wireDescriptor {
	var w wireDescriptor
	switch d.Kind {
	case KindFile:
		w.Path = &d.Path
	case KindNetwork:
		w.Host, w.Port = &d.Host, &d.Port
	case KindUSB:
		w.VendorID, w.ProductID = &d.VendorID, &d.ProductID
	case KindSerial:
		w.Serial = &d.Serial
		if d.Baud != 0 {
			w.Baud = &d.Baud
		}
	}
	return w
}

func (d Descriptor) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.wire())
}

func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var w wireDescriptor
	if err := json.Unmarshal(data, &w); err != nil {
		return printerr.Invalid(printerr.ErrInvalidDevice, "%v", err)
	}
	*d = w.descriptor()
	return nil
}

func (d Descriptor) MarshalYAML() (any, error) {
	return d.wire(), nil
}

func (d *Descriptor) UnmarshalYAML(node *yaml.Node) error {
	var w wireDescriptor
	if err := node.Decode(&w); err != nil {
		return printerr.Invalid(printerr.ErrInvalidDevice, "%v", err)
	}
	*d = w.descriptor()
	return nil
}
