package escpos

import "github.com/nixxel-company-limited/escpos-printkit/command"

// Size holds the character size multipliers, each 1..8.
type Size struct {
	Width  int
	Height int
}

// State is the mode the printer keeps between commands. A fresh State
// matches a printer right after ESC @.
type State struct {
	Font  command.Font
	Align command.Align
	Style command.Style
	Size  Size
}

// DefaultState returns font A, left aligned, no emphasis, size 1x1.
func DefaultState() State {
	return State{
		Font:  command.FontA,
		Align: command.AlignLeft,
		Size:  Size{Width: 1, Height: 1},
	}
}
