package escpos

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"

	"github.com/nixxel-company-limited/escpos-printkit/printerr"
)

// CodePage is a single-byte character table selected with ESC t n.
type CodePage struct {
	Name    string
	Table   byte
	Charmap *charmap.Charmap
}

// DefaultCodePage is the table a printer selects after ESC @.
var DefaultCodePage = CodePage{Name: "cp437", Table: 0, Charmap: charmap.CodePage437}

var codePages = map[string]CodePage{
	"cp437":   DefaultCodePage,
	"cp850":   {Name: "cp850", Table: 2, Charmap: charmap.CodePage850},
	"cp860":   {Name: "cp860", Table: 3, Charmap: charmap.CodePage860},
	"wpc1252": {Name: "wpc1252", Table: 16, Charmap: charmap.Windows1252},
	"cp866":   {Name: "cp866", Table: 17, Charmap: charmap.CodePage866},
	"cp852":   {Name: "cp852", Table: 18, Charmap: charmap.CodePage852},
	"cp858":   {Name: "cp858", Table: 19, Charmap: charmap.CodePage858},
}

var codePageAliases = map[string]string{
	"pc437":        "cp437",
	"pc850":        "cp850",
	"pc860":        "cp860",
	"pc866":        "cp866",
	"pc852":        "cp852",
	"pc858":        "cp858",
	"windows-1252": "wpc1252",
	"windows1252":  "wpc1252",
	"cp1252":       "wpc1252",
}

// LookupCodePage returns the table registered under name.
func LookupCodePage(name string) (CodePage, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := codePageAliases[key]; ok {
		key = alias
	}
	if cp, ok := codePages[key]; ok {
		return cp, nil
	}
	return CodePage{}, fmt.Errorf("unknown code page %q (known: %s)", name, strings.Join(CodePageNames(), ", "))
}

// CodePageNames lists the registered tables.
func CodePageNames() []string {
	names := make([]string, 0, len(codePages))
	for n := range codePages {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// wideEncoding is the double-byte set used while FS & is active.
var wideEncoding encoding.Encoding = simplifiedchinese.GBK

// encodeText splits s into runs the single-byte table can represent and
// runs it cannot. The latter are bracketed by FS & and FS . and emitted in
// GBK. A non-empty text ends with LF; the empty string emits nothing.
func encodeText(page CodePage, s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}

	out := make([]byte, 0, len(s)+1)
	wide := false
	enc := wideEncoding.NewEncoder()

	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size <= 1 {
				return nil, printerr.Invalid(printerr.ErrTextEncoding, "invalid UTF-8 at byte %d", i)
			}
		}

		if b, ok := page.Charmap.EncodeRune(r); ok {
			if wide {
				out = append(out, cmdKanjiOff...)
				wide = false
			}
			out = append(out, b)
			continue
		}

		mb, err := enc.Bytes([]byte(string(r)))
		if err != nil || len(mb) != 2 {
			return nil, printerr.Invalid(printerr.ErrTextEncoding, "%q at byte %d is not in %s or GBK", r, i, page.Name)
		}
		if !wide {
			out = append(out, cmdKanjiOn...)
			wide = true
		}
		out = append(out, mb...)
	}

	if wide {
		out = append(out, cmdKanjiOff...)
	}
	return append(out, LF), nil
}
