package command

import (
	"strings"

	"github.com/nixxel-company-limited/escpos-printkit/barcode"
	"github.com/nixxel-company-limited/escpos-printkit/printerr"
)

// Font is a printer-resident character font.
type Font byte

const (
	FontA Font = iota
	FontB
	FontC
)

func (f Font) String() string {
	return string(rune('A' + f))
}

// Align is the printer-resident justification.
type Align byte

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// Style is a bitset of text emphasis flags.
type Style byte

const (
	StyleBold Style = 1 << iota
	StyleUnderline
)

func (s Style) Bold() bool      { return s&StyleBold != 0 }
func (s Style) Underline() bool { return s&StyleUnderline != 0 }

// Control is a single-byte format control.
type Control byte

const (
	ControlLF Control = 0x0a
	ControlFF Control = 0x0c
	ControlCR Control = 0x0d
	ControlHT Control = 0x09
	ControlVT Control = 0x0b
)

// QRLevel is a QR error correction level.
type QRLevel byte

const (
	QRLevelL QRLevel = iota
	QRLevelM
	QRLevelQ
	QRLevelH
)

// Limits
const (
	MaxSizeValue = 7
	MaxFeedLines = 255
	MaxQRData    = 7089
	MaxQRModule  = 16
)

// Op is a validated command. The set of implementations is closed.
type Op interface {
	Kind() Kind
}

type (
	FontOp      struct{ Font Font }
	AlignOp     struct{ Align Align }
	StyleOp     struct{ Style Style }
	SizeOp      struct{ Width, Height int }
	TextOp      struct{ Text string }
	BarcodeOp   struct{ Spec barcode.Spec }
	FeedOp      struct{ Lines int }
	CutOp       struct{ Partial bool }
	InitOp      struct{}
	ControlOp   struct{ Code Control }
	LineSpaceOp struct{ Dots int }
	CashDrawOp  struct{ Pin int }
	QRCodeOp    struct {
		Data   string
		Level  QRLevel
		Module int
	}
)

func (FontOp) Kind() Kind      { return KindFont }
func (AlignOp) Kind() Kind     { return KindAlign }
func (StyleOp) Kind() Kind     { return KindStyle }
func (SizeOp) Kind() Kind      { return KindSize }
func (TextOp) Kind() Kind      { return KindText }
func (BarcodeOp) Kind() Kind   { return KindBarcode }
func (FeedOp) Kind() Kind      { return KindFeed }
func (CutOp) Kind() Kind       { return KindCut }
func (InitOp) Kind() Kind      { return KindInit }
func (ControlOp) Kind() Kind   { return KindControl }
func (LineSpaceOp) Kind() Kind { return KindLineSpace }
func (CashDrawOp) Kind() Kind  { return KindCashDraw }
func (QRCodeOp) Kind() Kind    { return KindQRCode }

var schemas = map[Kind][]ArgType{
	KindFont:      {ArgEnum},
	KindAlign:     {ArgEnum},
	KindStyle:     {ArgEnum},
	KindSize:      {ArgInteger, ArgInteger},
	KindText:      {ArgText},
	KindBarcode:   {ArgText, ArgEnum, ArgText, ArgText, ArgInteger, ArgInteger},
	KindFeed:      {ArgInteger},
	KindCut:       {ArgBoolean},
	KindInit:      {},
	KindControl:   {ArgEnum},
	KindLineSpace: {ArgInteger},
	KindCashDraw:  {ArgInteger},
	KindQRCode:    {ArgText, ArgEnum, ArgInteger},
}

// Schema returns the argument types expected by kind.
func Schema(kind Kind) ([]ArgType, bool) {
	s, ok := schemas[kind]
	return s, ok
}

// Validate checks the shape and values of c without side effects.
func Validate(c Command) error {
	_, err := Decode(c)
	return err
}

// ValidateAll validates every command and reports the first failure with
// its position.
func ValidateAll(cmds []Command) error {
	for i, c := range cmds {
		if err := Validate(c); err != nil {
			return printerr.At(err, i, c.Name())
		}
	}
	return nil
}

// Decode validates c and returns its typed form.
func Decode(c Command) (Op, error) {
	schema, ok := schemas[c.Kind]
	if !ok {
		return nil, printerr.Invalid(printerr.ErrInvalidCommand, "unknown command %q", c.Name())
	}
	if len(c.Args) != len(schema) {
		return nil, printerr.Invalid(printerr.ErrArityMismatch, "%s takes %d arguments, got %d", c.Kind, len(schema), len(c.Args))
	}
	for i, want := range schema {
		if !compatible(want, c.Args[i]) {
			return nil, printerr.Invalid(printerr.ErrArgumentType, "argument %d of %s: want %s, got %s", i, c.Kind, want, c.Args[i].Type)
		}
	}

	a := c.Args
	switch c.Kind {
	case KindFont:
		f, err := ParseFont(a[0].Str)
		return FontOp{Font: f}, err
	case KindAlign:
		al, err := ParseAlign(a[0].Str)
		return AlignOp{Align: al}, err
	case KindStyle:
		s, err := ParseStyle(a[0].Str)
		return StyleOp{Style: s}, err
	case KindSize:
		w, h := a[0].Int, a[1].Int
		if w < 0 || w > MaxSizeValue || h < 0 || h > MaxSizeValue {
			return nil, printerr.Invalid(printerr.ErrArgumentType, "size %d,%d out of range 0..%d", w, h, MaxSizeValue)
		}
		return SizeOp{Width: int(w) + 1, Height: int(h) + 1}, nil
	case KindText:
		return TextOp{Text: a[0].Str}, nil
	case KindBarcode:
		return decodeBarcode(a)
	case KindFeed:
		if a[0].Int < 0 || a[0].Int > MaxFeedLines {
			return nil, printerr.Invalid(printerr.ErrArgumentType, "feed %d out of range 0..%d", a[0].Int, MaxFeedLines)
		}
		return FeedOp{Lines: int(a[0].Int)}, nil
	case KindCut:
		return CutOp{Partial: a[0].Bool}, nil
	case KindInit:
		return InitOp{}, nil
	case KindControl:
		ctl, err := ParseControl(a[0].Str)
		return ControlOp{Code: ctl}, err
	case KindLineSpace:
		n := a[0].Int
		if n > 255 {
			return nil, printerr.Invalid(printerr.ErrArgumentType, "line spacing %d above 255", n)
		}
		if n < 0 {
			n = -1
		}
		return LineSpaceOp{Dots: int(n)}, nil
	case KindCashDraw:
		pin := a[0].Int
		if pin != 2 && pin != 5 {
			return nil, printerr.Invalid(printerr.ErrArgumentType, "cash drawer pin must be 2 or 5, got %d", pin)
		}
		return CashDrawOp{Pin: int(pin)}, nil
	case KindQRCode:
		return decodeQRCode(a)
	}
	return nil, printerr.Invalid(printerr.ErrInvalidCommand, "unknown command %q", c.Name())
}

func compatible(want ArgType, got Argument) bool {
	switch want {
	case ArgText, ArgEnum:
		return got.isString()
	}
	return want == got.Type
}

func decodeBarcode(a []Argument) (Op, error) {
	sym, err := barcode.ParseSymbology(a[1].Str)
	if err != nil {
		return nil, err
	}
	hri, err := barcode.ParseHRIPosition(a[2].Str)
	if err != nil {
		return nil, err
	}
	font, err := barcode.ParseHRIFont(a[3].Str)
	if err != nil {
		return nil, err
	}
	width, height := a[4].Int, a[5].Int
	if width < 0 || height < 0 {
		return nil, printerr.Invalid(printerr.ErrArgumentType, "barcode dimensions must not be negative, got %d,%d", width, height)
	}
	return BarcodeOp{Spec: barcode.Spec{
		Data:        a[0].Str,
		Symbology:   sym,
		HRI:         hri,
		Font:        font,
		ModuleWidth: int(min(width, 255)),
		Height:      int(min(height, 255)),
	}}, nil
}

func decodeQRCode(a []Argument) (Op, error) {
	data := a[0].Str
	if data == "" || len(data) > MaxQRData {
		return nil, printerr.Invalid(printerr.ErrArgumentType, "qrcode data must be 1..%d bytes, got %d", MaxQRData, len(data))
	}
	var level QRLevel
	switch strings.ToLower(a[1].Str) {
	case "l", "":
		level = QRLevelL
	case "m":
		level = QRLevelM
	case "q":
		level = QRLevelQ
	case "h":
		level = QRLevelH
	default:
		return nil, printerr.Invalid(printerr.ErrArgumentType, "unknown qrcode level %q", a[1].Str)
	}
	module := a[2].Int
	if module == 0 {
		module = 3
	}
	if module < 1 || module > MaxQRModule {
		return nil, printerr.Invalid(printerr.ErrArgumentType, "qrcode module size %d out of range 1..%d", module, MaxQRModule)
	}
	return QRCodeOp{Data: data, Level: level, Module: int(module)}, nil
}

// ParseFont accepts "a", "b" or "c" in either case.
func ParseFont(token string) (Font, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "a":
		return FontA, nil
	case "b":
		return FontB, nil
	case "c":
		return FontC, nil
	}
	return 0, printerr.Invalid(printerr.ErrArgumentType, "unsupported font %q", token)
}

// ParseAlign accepts l/lt/left, c/ct/center/centre and r/rt/right.
func ParseAlign(token string) (Align, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "l", "lt", "left":
		return AlignLeft, nil
	case "c", "ct", "center", "centre":
		return AlignCenter, nil
	case "r", "rt", "right":
		return AlignRight, nil
	}
	return 0, printerr.Invalid(printerr.ErrArgumentType, "unsupported alignment %q", token)
}

// ParseStyle reads a combination of style letters: b for bold, u for
// underline. "", "n" and "normal" clear all flags.
func ParseStyle(token string) (Style, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	if t == "" || t == "n" || t == "normal" {
		return 0, nil
	}
	var s Style
	for _, r := range t {
		switch r {
		case 'b':
			s |= StyleBold
		case 'u':
			s |= StyleUnderline
		default:
			return 0, printerr.Invalid(printerr.ErrArgumentType, "unknown style letter %q in %q", r, token)
		}
	}
	return s, nil
}

// ParseControl accepts lf, ff, cr, ht and vt.
func ParseControl(token string) (Control, error) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "lf":
		return ControlLF, nil
	case "ff":
		return ControlFF, nil
	case "cr":
		return ControlCR, nil
	case "ht":
		return ControlHT, nil
	case "vt":
		return ControlVT, nil
	}
	return 0, printerr.Invalid(printerr.ErrArgumentType, "unknown control %q", token)
}
