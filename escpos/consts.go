// Package escpos translates validated commands into ESC/POS control bytes
// while tracking the printer-resident mode state.
package escpos

// Control characters
const (
	HT  byte = 0x09
	LF  byte = 0x0a
	VT  byte = 0x0b
	FF  byte = 0x0c
	CR  byte = 0x0d
	ESC byte = 0x1b
	FS  byte = 0x1c
	GS  byte = 0x1d
)

// Command prefixes. Each is followed by its parameter bytes.
var (
	cmdInit          = []byte{ESC, '@'}     // ESC @
	cmdFont          = []byte{ESC, 'M'}     // ESC M n
	cmdAlign         = []byte{ESC, 'a'}     // ESC a n
	cmdBold          = []byte{ESC, 'E'}     // ESC E n
	cmdUnderline     = []byte{ESC, '-'}     // ESC - n
	cmdCharSize      = []byte{GS, '!'}      // GS ! n
	cmdCodeTable     = []byte{ESC, 't'}     // ESC t n
	cmdLineSpaceDef  = []byte{ESC, '2'}     // ESC 2
	cmdLineSpaceSet  = []byte{ESC, '3'}     // ESC 3 n
	cmdCashDraw      = []byte{ESC, 'p'}     // ESC p m t1 t2
	cmdCut           = []byte{GS, 'V'}      // GS V m
	cmdKanjiOn       = []byte{FS, '&'}      // FS &
	cmdKanjiOff      = []byte{FS, '.'}      // FS .
	cmdBarcodeWidth  = []byte{GS, 'w'}      // GS w n
	cmdBarcodeHeight = []byte{GS, 'h'}      // GS h n
	cmdBarcodeFont   = []byte{GS, 'f'}      // GS f n
	cmdBarcodeHRI    = []byte{GS, 'H'}      // GS H n
	cmdBarcodePrint  = []byte{GS, 'k'}      // GS k m n d1...dn
	cmd2D            = []byte{GS, '(', 'k'} // GS ( k pL pH cn fn ...
)

// Cut modes for GS V
const (
	cutFull    byte = 0x00
	cutPartial byte = 0x01
)

// Cash drawer pulse timing, in 2 ms units.
const (
	drawerOnTime  byte = 0x19
	drawerOffTime byte = 0xfa
)

// Barcode dimension defaults and bounds.
const (
	DefaultModuleWidth   = 3
	MinModuleWidth       = 2
	MaxModuleWidth       = 6
	DefaultBarcodeHeight = 162
	MaxBarcodeHeight     = 255
)
