package escpos

import (
	"github.com/nixxel-company-limited/escpos-printkit/barcode"
	"github.com/nixxel-company-limited/escpos-printkit/command"
)

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// encodeBarcode wraps the codec payload with dimension and HRI settings.
// A zero module width or height is derived from the character size in st.
func encodeBarcode(spec barcode.Spec, st State) ([]byte, error) {
	payload, err := barcode.Encode(spec.Symbology, spec.Data)
	if err != nil {
		return nil, err
	}

	width := spec.ModuleWidth
	if width == 0 {
		width = DefaultModuleWidth + st.Size.Width - 1
	}
	height := spec.Height
	if height == 0 {
		height = DefaultBarcodeHeight * st.Size.Height
	}

	out := seq(cmdBarcodeWidth, byte(clamp(width, MinModuleWidth, MaxModuleWidth)))
	out = append(out, seq(cmdBarcodeHeight, byte(clamp(height, 1, MaxBarcodeHeight)))...)
	out = append(out, seq(cmdBarcodeFont, byte(spec.Font))...)
	out = append(out, seq(cmdBarcodeHRI, byte(spec.HRI))...)
	out = append(out, seq(cmdBarcodePrint, payload.Bytes()...)...)
	return out, nil
}

// encodeQRCode emits the model 2 QR sequence of GS ( k: select model, set
// module size, set error correction, store data, print.
func encodeQRCode(op command.QRCodeOp) []byte {
	fn := func(params ...byte) []byte {
		n := len(params)
		return seq(cmd2D, append([]byte{byte(n), byte(n >> 8)}, params...)...)
	}

	out := fn('1', 'A', '2', 0)
	out = append(out, fn('1', 'C', byte(op.Module))...)
	out = append(out, fn('1', 'E', '0'+byte(op.Level))...)
	out = append(out, fn(append([]byte{'1', 'P', '0'}, op.Data...)...)...)
	out = append(out, fn('1', 'Q', '0')...)
	return out
}
