// Package command defines the closed set of print commands, their argument
// schema, and the wire shape {name, args} used by jobs.
package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nixxel-company-limited/escpos-printkit/printerr"
)

// Kind identifies a command. The zero value is not a valid kind.
type Kind int

const (
	KindInvalid Kind = iota
	KindFont
	KindAlign
	KindStyle
	KindSize
	KindText
	KindBarcode
	KindFeed
	KindCut
	KindInit
	KindControl
	KindLineSpace
	KindCashDraw
	KindQRCode
)

var kindNames = map[Kind]string{
	KindFont:      "font",
	KindAlign:     "align",
	KindStyle:     "style",
	KindSize:      "size",
	KindText:      "text",
	KindBarcode:   "barcode",
	KindFeed:      "feed",
	KindCut:       "cut",
	KindInit:      "hwinit",
	KindControl:   "control",
	KindLineSpace: "linespace",
	KindCashDraw:  "cashdraw",
	KindQRCode:    "qrcode",
}

var kindAliases = map[string]Kind{
	"init":       KindInit,
	"line_space": KindLineSpace,
	"cash_draw":  KindCashDraw,
	"qr":         KindQRCode,
}

// ParseKind maps a wire name to a Kind. Names are case-insensitive.
func ParseKind(name string) (Kind, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == key {
			return k, true
		}
	}
	k, ok := kindAliases[key]
	return k, ok
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "invalid"
}

// ArgType is the tag of an Argument.
type ArgType int

const (
	ArgText ArgType = iota
	ArgInteger
	ArgBoolean
	ArgEnum
)

func (t ArgType) String() string {
	switch t {
	case ArgText:
		return "text"
	case ArgInteger:
		return "integer"
	case ArgBoolean:
		return "boolean"
	case ArgEnum:
		return "token"
	}
	return "unknown"
}

// Argument is a tagged union of text, integer, boolean and enum token.
// Text and Enum share the string field.
type Argument struct {
	Type ArgType
	Str  string
	Int  int64
	Bool bool
}

func Text(s string) Argument { return Argument{Type: ArgText, Str: s} }
func Int(n int) Argument     { return Argument{Type: ArgInteger, Int: int64(n)} }
func Bool(b bool) Argument   { return Argument{Type: ArgBoolean, Bool: b} }
func Enum(s string) Argument { return Argument{Type: ArgEnum, Str: s} }

func (a Argument) isString() bool {
	return a.Type == ArgText || a.Type == ArgEnum
}

func (a Argument) String() string {
	switch a.Type {
	case ArgInteger:
		return fmt.Sprint(a.Int)
	case ArgBoolean:
		return fmt.Sprint(a.Bool)
	}
	return fmt.Sprintf("%q", a.Str)
}

// MarshalJSON writes the argument as a bare JSON string, number or bool.
func (a Argument) MarshalJSON() ([]byte, error) {
	switch a.Type {
	case ArgInteger:
		return json.Marshal(a.Int)
	case ArgBoolean:
		return json.Marshal(a.Bool)
	}
	return json.Marshal(a.Str)
}

// UnmarshalJSON accepts a string, an integral number or a bool. Strings
// decode as Text; the schema decides whether a string is read as a token.
func (a *Argument) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch v := v.(type) {
	case string:
		*a = Text(v)
	case bool:
		*a = Bool(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return printerr.Invalid(printerr.ErrArgumentType, "argument %s is not an integer", v)
		}
		*a = Argument{Type: ArgInteger, Int: n}
	default:
		return printerr.Invalid(printerr.ErrArgumentType, "argument %s is not a string, integer or boolean", strings.TrimSpace(string(data)))
	}
	return nil
}

// UnmarshalYAML accepts scalar !!str, !!int and !!bool nodes.
func (a *Argument) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return printerr.Invalid(printerr.ErrArgumentType, "line %d: argument must be a scalar", node.Line)
	}

	switch node.ShortTag() {
	case "!!str":
		*a = Text(node.Value)
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*a = Bool(b)
	case "!!int":
		var n int64
		if err := node.Decode(&n); err != nil {
			return err
		}
		*a = Argument{Type: ArgInteger, Int: n}
	default:
		return printerr.Invalid(printerr.ErrArgumentType, "line %d: argument %q is not a string, integer or boolean", node.Line, node.Value)
	}
	return nil
}

// Command is one abstract print command.
type Command struct {
	Kind Kind
	Args []Argument

	// name keeps the wire name of commands whose kind is unknown.
	name string
}

// New builds a command of a known kind.
func New(kind Kind, args ...Argument) Command {
	return Command{Kind: kind, Args: args}
}

// Named builds a command from its wire name. An unknown name yields a
// command of KindInvalid that fails validation.
func Named(name string, args ...Argument) Command {
	kind, ok := ParseKind(name)
	if !ok {
		return Command{Kind: KindInvalid, Args: args, name: name}
	}
	return Command{Kind: kind, Args: args}
}

// Name returns the wire name of c.
func (c Command) Name() string {
	if c.Kind == KindInvalid {
		return c.name
	}
	return c.Kind.String()
}

func (c Command) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Name(), strings.Join(parts, ", "))
}

type wireCommand struct {
	Name string     `json:"name" yaml:"name"`
	Args []Argument `json:"args" yaml:"args"`
}

func (c Command) MarshalJSON() ([]byte, error) {
	args := c.Args
	if args == nil {
		args = []Argument{}
	}
	return json.Marshal(wireCommand{Name: c.Name(), Args: args})
}

func (c *Command) UnmarshalJSON(data []byte) error {
	var w wireCommand
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Named(w.Name, w.Args...)
	return nil
}

func (c *Command) UnmarshalYAML(node *yaml.Node) error {
	var w wireCommand
	if err := node.Decode(&w); err != nil {
		return err
	}
	*c = Named(w.Name, w.Args...)
	return nil
}
