package keyboard

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	// CSI keycode[:shifted[:base]] [; modifiers[:event]] u
	kittyKeyRe = regexp.MustCompile(`^\x1b\[(\d+)(?::\d*)*(?:;(\d*)(?::(\d+))?)?u$`)

	// CSI ? flags u, the answer to a keyboard mode query
	kittyFlagsReplyRe = regexp.MustCompile(`^\x1b\[\?\d*u$`)
)

const kittyRelease = "3"

// Kitty protocol functional keys
var kittySpecialKeys = map[int]Key{
	9:   KeyTab,
	13:  KeyReturn,
	27:  KeyEscape,
	32:  KeySpace,
	127: KeyBackspace,

	57364: KeyF1,
	57365: KeyF2,
	57366: KeyF3,
	57367: KeyF4,
	57368: KeyF5,
	57369: KeyF6,
	57370: KeyF7,
	57371: KeyF8,
	57372: KeyF9,
	57373: KeyF10,
	57374: KeyF11,
	57375: KeyF12,

	57414: KeyEnter, // keypad enter
	57417: KeyUp,
	57418: KeyDown,
	57419: KeyLeft,
	57420: KeyRight,
	57421: KeyPageUp,
	57422: KeyPageDown,
	57423: KeyHome,
	57424: KeyEnd,
	57425: KeyInsert,
	57426: KeyDel,
}

// Left and right shift, ctrl, alt, super, hyper and meta.
const (
	kittyFirstModifierKey = 57441
	kittyLastModifierKey  = 57452
)

// isKittyReport reports whether run is kitty protocol traffic that is not a
// key press: the reply to a mode query, a key release, or a bare modifier key.
func isKittyReport(run string) bool {
	if kittyFlagsReplyRe.MatchString(run) {
		return true
	}
	m := kittyKeyRe.FindStringSubmatch(run)
	if m == nil {
		return false
	}
	if m[3] == kittyRelease {
		return true
	}
	code, _ := strconv.Atoi(m[1])
	return code >= kittyFirstModifierKey && code <= kittyLastModifierKey
}

// classifyKitty decodes a CSI u key press. The modifier parameter uses the
// same encoding as xterm's.
func (e *KeyEvent) classifyKitty() bool {
	m := kittyKeyRe.FindStringSubmatch(e.Sequence)
	if m == nil {
		return false
	}
	code, err := strconv.Atoi(m[1])
	if err != nil {
		return false
	}
	e.Code = "[" + m[1] + "u"

	mod := 1
	if n, err := strconv.Atoi(m[2]); err == nil && n > 0 {
		mod = n
	}
	e.decodeModifier(mod - 1)

	switch {
	case kittySpecialKeys[code] != "":
		e.Name = kittySpecialKeys[code]
	case code >= 'a' && code <= 'z', code >= '0' && code <= '9':
		e.Name = Key(string(rune(code)))
	case code >= 'A' && code <= 'Z':
		e.Name = Key(strings.ToLower(string(rune(code))))
		e.Shift = true
	}

	r := rune(code)
	if !e.Ctrl && !e.Meta && code <= unicode.MaxRune && unicode.IsPrint(r) {
		e.Char = r
		if e.Shift {
			e.Char = unicode.ToUpper(r)
		}
	}
	return true
}
