package escpos

import "github.com/nixxel-company-limited/escpos-printkit/command"

// Frame is the byte sequence produced by one command.
type Frame []byte

func seq(prefix []byte, params ...byte) []byte {
	out := make([]byte, 0, len(prefix)+len(params))
	out = append(out, prefix...)
	return append(out, params...)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// Encode validates cmd and encodes it against st using the default code
// page. It returns the frame and the state after the command; st itself
// is not modified.
func Encode(cmd command.Command, st State) (Frame, State, error) {
	return EncodeWith(DefaultCodePage, cmd, st)
}

// EncodeWith is Encode with an explicit single-byte code page.
func EncodeWith(page CodePage, cmd command.Command, st State) (Frame, State, error) {
	op, err := command.Decode(cmd)
	if err != nil {
		return nil, st, err
	}
	return EncodeOp(page, op, st)
}

// EncodeOp encodes an already validated command. Mode-setting operations
// always emit their full control sequence, even when st already holds the
// requested mode.
func EncodeOp(page CodePage, op command.Op, st State) (Frame, State, error) {
	switch op := op.(type) {
	case command.FontOp:
		st.Font = op.Font
		return seq(cmdFont, byte(op.Font)), st, nil

	case command.AlignOp:
		st.Align = op.Align
		return seq(cmdAlign, byte(op.Align)), st, nil

	case command.StyleOp:
		st.Style = op.Style
		out := seq(cmdBold, boolByte(op.Style.Bold()))
		out = append(out, seq(cmdUnderline, boolByte(op.Style.Underline()))...)
		return out, st, nil

	case command.SizeOp:
		st.Size = Size{Width: op.Width, Height: op.Height}
		n := byte(op.Width-1)<<4 | byte(op.Height-1)
		return seq(cmdCharSize, n), st, nil

	case command.TextOp:
		out, err := encodeText(page, op.Text)
		if err != nil {
			return nil, st, err
		}
		return out, st, nil

	case command.BarcodeOp:
		out, err := encodeBarcode(op.Spec, st)
		if err != nil {
			return nil, st, err
		}
		return out, st, nil

	case command.FeedOp:
		out := make([]byte, op.Lines)
		for i := range out {
			out[i] = LF
		}
		return out, st, nil

	case command.CutOp:
		mode := cutFull
		if op.Partial {
			mode = cutPartial
		}
		return seq(cmdCut, mode), st, nil

	case command.InitOp:
		return append(seq(cmdInit), selectCodePage(page)...), DefaultState(), nil

	case command.ControlOp:
		return Frame{byte(op.Code)}, st, nil

	case command.LineSpaceOp:
		if op.Dots < 0 {
			return seq(cmdLineSpaceDef), st, nil
		}
		return seq(cmdLineSpaceSet, byte(op.Dots)), st, nil

	case command.CashDrawOp:
		var m byte
		if op.Pin == 5 {
			m = 1
		}
		return seq(cmdCashDraw, m, drawerOnTime, drawerOffTime), st, nil

	case command.QRCodeOp:
		return encodeQRCode(op), st, nil
	}
	panic("escpos: unhandled op " + op.Kind().String())
}

// selectCodePage returns ESC t n for tables other than the power-on default.
func selectCodePage(page CodePage) []byte {
	if page.Table == DefaultCodePage.Table {
		return nil
	}
	return seq(cmdCodeTable, page.Table)
}

// Encoder carries the state of one session across calls. It is not safe
// for concurrent use; each session owns its own Encoder.
type Encoder struct {
	page  CodePage
	state State
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithCodePage selects the single-byte table used for text.
func WithCodePage(page CodePage) Option {
	return func(e *Encoder) {
		e.page = page
	}
}

// NewEncoder returns an Encoder starting from DefaultState.
func NewEncoder(opts ...Option) *Encoder {
	e := &Encoder{page: DefaultCodePage, state: DefaultState()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Prologue returns the bytes a session sends before its first command:
// ESC t n when a non-default code page is configured, nothing otherwise.
func (e *Encoder) Prologue() Frame {
	return selectCodePage(e.page)
}

// Encode encodes cmd and advances the session state. On error the state
// is left unchanged.
func (e *Encoder) Encode(cmd command.Command) (Frame, error) {
	frame, next, err := EncodeWith(e.page, cmd, e.state)
	if err != nil {
		return nil, err
	}
	e.state = next
	return frame, nil
}

// State returns the current printer-resident mode.
func (e *Encoder) State() State {
	return e.state
}

// CodePage returns the configured single-byte table.
func (e *Encoder) CodePage() CodePage {
	return e.page
}
