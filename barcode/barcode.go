// Package barcode validates barcode data per symbology and builds the
// length-prefixed payload of the ESC/POS "GS k" function B command.
//
// Checksum digits of the EAN/UPC family are always computed here: a short
// input gets the digit appended, a full-length input has its digit verified.
package barcode

import (
	"strings"

	"github.com/nixxel-company-limited/escpos-printkit/printerr"
)

// MaxDataLen is the largest payload GS k function B can carry.
const MaxDataLen = 255

// Symbology identifies a barcode standard.
type Symbology int

const (
	UPCA Symbology = iota
	UPCE
	EAN13
	EAN8
	Code39
	ITF
	Codabar
	Code93
	Code128
)

var symbologyNames = map[Symbology]string{
	UPCA:    "UPC-A",
	UPCE:    "UPC-E",
	EAN13:   "EAN13",
	EAN8:    "EAN8",
	Code39:  "CODE39",
	ITF:     "ITF",
	Codabar: "CODABAR",
	Code93:  "CODE93",
	Code128: "CODE128",
}

var symbologyTokens = map[string]Symbology{
	"UPCA":    UPCA,
	"UPCE":    UPCE,
	"EAN13":   EAN13,
	"JAN13":   EAN13,
	"EAN8":    EAN8,
	"JAN8":    EAN8,
	"CODE39":  Code39,
	"ITF":     ITF,
	"ITF14":   ITF,
	"CODABAR": Codabar,
	"NW7":     Codabar,
	"CODE93":  Code93,
	"CODE128": Code128,
}

// ParseSymbology maps a token such as "EAN8", "ean-13" or "UPC_A" to a
// Symbology. Unknown tokens fail with printerr.ErrUnsupportedSymbology.
func ParseSymbology(token string) (Symbology, error) {
	key := strings.ToUpper(strings.NewReplacer("-", "", "_", "", " ", "").Replace(token))
	if s, ok := symbologyTokens[key]; ok {
		return s, nil
	}
	return 0, printerr.Invalid(printerr.ErrUnsupportedSymbology, "%q", token)
}

func (s Symbology) String() string {
	if name, ok := symbologyNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// Function returns the m parameter of GS k function B for s.
func (s Symbology) Function() byte {
	return byte(65 + int(s))
}

// HRIPosition is where the human readable interpretation is printed.
type HRIPosition byte

const (
	HRINone HRIPosition = iota
	HRIAbove
	HRIBelow
	HRIBoth
)

// ParseHRIPosition accepts "", "blw", "below", "off", "none", "abv",
// "above", "bth" and "both". The empty token selects HRIBelow.
func ParseHRIPosition(token string) (HRIPosition, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "", "blw", "below":
		return HRIBelow, nil
	case "off", "none":
		return HRINone, nil
	case "abv", "above":
		return HRIAbove, nil
	case "bth", "both":
		return HRIBoth, nil
	}
	return 0, printerr.Invalid(printerr.ErrArgumentType, "unknown HRI position %q", token)
}

// HRIFont selects the font of the HRI characters.
type HRIFont byte

const (
	HRIFontA HRIFont = iota
	HRIFontB
)

// ParseHRIFont accepts "", "a" and "b".
func ParseHRIFont(token string) (HRIFont, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "", "a":
		return HRIFontA, nil
	case "b":
		return HRIFontB, nil
	}
	return 0, printerr.Invalid(printerr.ErrArgumentType, "unknown HRI font %q", token)
}

// Spec is a barcode as requested by a command. Zero ModuleWidth or Height
// leave the choice to the encoder.
type Spec struct {
	Data        string
	Symbology   Symbology
	HRI         HRIPosition
	Font        HRIFont
	ModuleWidth int
	Height      int
}

// Payload is validated barcode data ready to be wrapped by the encoder.
type Payload struct {
	Symbology Symbology
	Data      []byte
}

// Bytes returns m, n and the data bytes of GS k function B.
func (p Payload) Bytes() []byte {
	out := make([]byte, 0, len(p.Data)+2)
	out = append(out, p.Symbology.Function(), byte(len(p.Data)))
	return append(out, p.Data...)
}

// Codec validates data for one symbology.
type Codec interface {
	Encode(data string) ([]byte, error)
}

var codecs = map[Symbology]Codec{
	UPCA:    eanCodec{name: "UPC-A", length: 12},
	UPCE:    upceCodec{},
	EAN13:   eanCodec{name: "EAN13", length: 13},
	EAN8:    eanCodec{name: "EAN8", length: 8},
	Code39:  code39Codec{},
	ITF:     itfCodec{},
	Codabar: codabarCodec{},
	Code93:  code93Codec{},
	Code128: code128Codec{},
}

// CodecFor returns the codec registered for s.
func CodecFor(s Symbology) (Codec, error) {
	c, ok := codecs[s]
	if !ok {
		return nil, printerr.Invalid(printerr.ErrUnsupportedSymbology, "%d", int(s))
	}
	return c, nil
}

// Encode validates data for s and returns the payload.
func Encode(s Symbology, data string) (Payload, error) {
	c, err := CodecFor(s)
	if err != nil {
		return Payload{}, err
	}
	b, err := c.Encode(data)
	if err != nil {
		return Payload{}, err
	}
	if len(b) > MaxDataLen {
		return Payload{}, printerr.Invalid(printerr.ErrBarcodeData, "%s payload is %d bytes, limit %d", s, len(b), MaxDataLen)
	}
	return Payload{Symbology: s, Data: b}, nil
}
