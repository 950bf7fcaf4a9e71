package keyboard

import (
	"fmt"
	"strings"
)

// Key is the symbolic name of a decoded key press. Besides the named
// constants below, a Key may be a single lowercase letter or a digit.
type Key string

// Named keys
const (
	KeyUp        Key = "up"
	KeyDown      Key = "down"
	KeyLeft      Key = "left"
	KeyRight     Key = "right"
	KeyClear     Key = "clear"
	KeyEnter     Key = "enter"
	KeyReturn    Key = "return"
	KeyEscape    Key = "escape"
	KeyTab       Key = "tab"
	KeyBackspace Key = "backspace"
	KeyTerminate Key = "terminate"
	KeyEnd       Key = "end"
	KeyHome      Key = "home"
	KeyDel       Key = "del"
	KeyInsert    Key = "insert"
	KeyPageUp    Key = "pageup"
	KeyPageDown  Key = "pagedown"
	KeySpace     Key = "space"
	KeyF1        Key = "f1"
	KeyF2        Key = "f2"
	KeyF3        Key = "f3"
	KeyF4        Key = "f4"
	KeyF5        Key = "f5"
	KeyF6        Key = "f6"
	KeyF7        Key = "f7"
	KeyF8        Key = "f8"
	KeyF9        Key = "f9"
	KeyF10       Key = "f10"
	KeyF11       Key = "f11"
	KeyF12       Key = "f12"
)

// Modifier is a set of modifier flags.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModMeta
)

// KeyEvent is one decoded key press.
type KeyEvent struct {
	Sequence string // Raw input consumed for this key press
	Char     rune   // The character, when Sequence is a single printable scalar; 0 otherwise
	Name     Key    // Symbolic name, empty for unnamed characters
	Code     string // Classified escape code used for the name lookup, if any

	Ctrl  bool
	Meta  bool
	Shift bool
}

// Modifiers returns the event's modifier flags as a set.
func (e KeyEvent) Modifiers() Modifier {
	var m Modifier
	if e.Shift {
		m |= ModShift
	}
	if e.Ctrl {
		m |= ModCtrl
	}
	if e.Meta {
		m |= ModMeta
	}
	return m
}

// Is reports whether the event has the given name and exactly the given
// modifiers.
func (e KeyEvent) Is(name Key, mods Modifier) bool {
	return e.Name == name && e.Modifiers() == mods
}

// Terminates reports whether the key press asks to end input. Terminals
// send ctrl+d (EOT) for that, which decodes as the letter d with ctrl held.
func (e KeyEvent) Terminates() bool {
	return e.Name == KeyTerminate || e.Is("d", ModCtrl)
}

// String renders the event as e.g. "ctrl+shift+up", "meta+x" or "é".
func (e KeyEvent) String() string {
	var b strings.Builder
	if e.Ctrl {
		b.WriteString("ctrl+")
	}
	if e.Meta {
		b.WriteString("meta+")
	}
	if e.Shift {
		b.WriteString("shift+")
	}
	switch {
	case e.Name != "":
		b.WriteString(string(e.Name))
	case e.Char != 0:
		b.WriteRune(e.Char)
	default:
		fmt.Fprintf(&b, "%q", e.Sequence)
	}
	return b.String()
}
