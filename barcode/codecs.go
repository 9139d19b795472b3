package barcode

import (
	"strings"

	"github.com/nixxel-company-limited/escpos-printkit/printerr"
)

const (
	code39Alphabet  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ -.$/+%"
	codabarAlphabet = "0123456789-$:/.+"
	codabarGuards   = "ABCD"
)

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// CheckDigit returns the modulo-10 check digit of the EAN/UPC family for
// digits (which must not include the check digit). Weights alternate 3,1
// starting from the rightmost digit.
func CheckDigit(digits string) byte {
	sum, weight := 0, 3
	for i := len(digits) - 1; i >= 0; i-- {
		sum += int(digits[i]-'0') * weight
		weight = 4 - weight
	}
	return byte('0' + (10-sum%10)%10)
}

// withCheckDigit appends or verifies the check digit of a fixed length code.
func withCheckDigit(name, data string, length int) ([]byte, error) {
	if !isDigits(data) {
		return nil, printerr.Invalid(printerr.ErrBarcodeData, "%s accepts digits only, got %q", name, data)
	}
	switch len(data) {
	case length - 1:
		return append([]byte(data), CheckDigit(data)), nil
	case length:
		want := CheckDigit(data[:length-1])
		if data[length-1] != want {
			return nil, printerr.Invalid(printerr.ErrBarcodeChecksum, "%s %q: check digit %c, want %c", name, data, data[length-1], want)
		}
		return []byte(data), nil
	}
	return nil, printerr.Invalid(printerr.ErrBarcodeData, "%s needs %d or %d digits, got %d", name, length-1, length, len(data))
}

type eanCodec struct {
	name   string
	length int
}

func (c eanCodec) Encode(data string) ([]byte, error) {
	return withCheckDigit(c.name, data, c.length)
}

// upceCodec accepts 6 digits (number system 0), 7 digits (number system
// plus six) or 8 digits with a check digit. The check digit is that of the
// expanded UPC-A code.
type upceCodec struct{}

func (upceCodec) Encode(data string) ([]byte, error) {
	if !isDigits(data) {
		return nil, printerr.Invalid(printerr.ErrBarcodeData, "UPC-E accepts digits only, got %q", data)
	}
	if len(data) == 6 {
		data = "0" + data
	}
	if len(data) != 7 && len(data) != 8 {
		return nil, printerr.Invalid(printerr.ErrBarcodeData, "UPC-E needs 6, 7 or 8 digits, got %d", len(data))
	}
	if data[0] != '0' && data[0] != '1' {
		return nil, printerr.Invalid(printerr.ErrBarcodeData, "UPC-E number system must be 0 or 1, got %c", data[0])
	}

	want := CheckDigit(ExpandUPCE(data[:7]))
	if len(data) == 8 {
		if data[7] != want {
			return nil, printerr.Invalid(printerr.ErrBarcodeChecksum, "UPC-E %q: check digit %c, want %c", data, data[7], want)
		}
		return []byte(data), nil
	}
	return append([]byte(data), want), nil
}

// ExpandUPCE converts a number system digit plus six UPC-E digits to the
// eleven digit UPC-A body.
func ExpandUPCE(ns7 string) string {
	ns, d := ns7[:1], ns7[1:]
	switch d[5] {
	case '0', '1', '2':
		return ns + d[0:2] + d[5:6] + "0000" + d[2:5]
	case '3':
		return ns + d[0:3] + "00000" + d[3:5]
	case '4':
		return ns + d[0:4] + "00000" + d[4:5]
	default:
		return ns + d[0:5] + "0000" + d[5:6]
	}
}

// code39Codec allows '*' only as a paired start/stop guard.
type code39Codec struct{}

func (code39Codec) Encode(data string) ([]byte, error) {
	body := data
	if strings.HasPrefix(body, "*") || strings.HasSuffix(body, "*") {
		if len(body) < 3 || body[0] != '*' || body[len(body)-1] != '*' {
			return nil, printerr.Invalid(printerr.ErrBarcodeData, "CODE39 start/stop '*' must enclose the data")
		}
		body = body[1 : len(body)-1]
	}
	if body == "" {
		return nil, printerr.Invalid(printerr.ErrBarcodeData, "CODE39 data is empty")
	}
	for _, r := range body {
		if !strings.ContainsRune(code39Alphabet, r) {
			return nil, printerr.Invalid(printerr.ErrBarcodeData, "CODE39 cannot encode %q", r)
		}
	}
	return []byte(data), nil
}

type itfCodec struct{}

func (itfCodec) Encode(data string) ([]byte, error) {
	if !isDigits(data) {
		return nil, printerr.Invalid(printerr.ErrBarcodeData, "ITF accepts digits only, got %q", data)
	}
	if len(data)%2 != 0 {
		return nil, printerr.Invalid(printerr.ErrBarcodeData, "ITF needs an even number of digits, got %d", len(data))
	}
	return []byte(data), nil
}

type codabarCodec struct{}

func (codabarCodec) Encode(data string) ([]byte, error) {
	if len(data) < 3 {
		return nil, printerr.Invalid(printerr.ErrBarcodeData, "CODABAR needs start, data and stop characters")
	}
	upper := strings.ToUpper(data)
	if !strings.ContainsRune(codabarGuards, rune(upper[0])) || !strings.ContainsRune(codabarGuards, rune(upper[len(upper)-1])) {
		return nil, printerr.Invalid(printerr.ErrBarcodeData, "CODABAR must start and end with A-D, got %q", data)
	}
	for _, r := range data[1 : len(data)-1] {
		if !strings.ContainsRune(codabarAlphabet, r) {
			return nil, printerr.Invalid(printerr.ErrBarcodeData, "CODABAR cannot encode %q", r)
		}
	}
	return []byte(data), nil
}

type code93Codec struct{}

func (code93Codec) Encode(data string) ([]byte, error) {
	if data == "" {
		return nil, printerr.Invalid(printerr.ErrBarcodeData, "CODE93 data is empty")
	}
	for i := 0; i < len(data); i++ {
		if data[i] > 0x7f {
			return nil, printerr.Invalid(printerr.ErrBarcodeData, "CODE93 accepts ASCII only, got byte 0x%02x", data[i])
		}
	}
	return []byte(data), nil
}

// code128Codec picks code set C for even-length digit strings and code set
// B otherwise. Data that already starts with a "{A", "{B" or "{C" selector
// is passed through unchanged.
type code128Codec struct{}

func (code128Codec) Encode(data string) ([]byte, error) {
	if data == "" {
		return nil, printerr.Invalid(printerr.ErrBarcodeData, "CODE128 data is empty")
	}
	for i := 0; i < len(data); i++ {
		if data[i] > 0x7f {
			return nil, printerr.Invalid(printerr.ErrBarcodeData, "CODE128 accepts ASCII only, got byte 0x%02x", data[i])
		}
	}

	if len(data) >= 2 && data[0] == '{' && strings.ContainsRune("ABC", rune(data[1])) {
		return []byte(data), nil
	}

	if isDigits(data) && len(data)%2 == 0 {
		out := make([]byte, 0, 2+len(data)/2)
		out = append(out, '{', 'C')
		for i := 0; i < len(data); i += 2 {
			out = append(out, (data[i]-'0')*10+(data[i+1]-'0'))
		}
		return out, nil
	}

	out := make([]byte, 0, 2+len(data))
	out = append(out, '{', 'B')
	for i := 0; i < len(data); i++ {
		c := data[i]
		if c < 0x20 {
			return nil, printerr.Invalid(printerr.ErrBarcodeData, "CODE128 set B cannot encode control byte 0x%02x", c)
		}
		if c == '{' {
			out = append(out, '{')
		}
		out = append(out, c)
	}
	return out, nil
}
