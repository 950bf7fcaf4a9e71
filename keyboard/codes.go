package keyboard

import (
	"iter"
	"maps"
	"slices"
)

type codeEntry struct {
	name Key
	mod  Modifier // Flag forced on regardless of the numeric modifier, if any
}

// codeTable maps classified escape codes to key names. Function-key codes
// are stored without their leading ESC bytes and without the numeric
// modifier parameter, e.g. "[1;5A" classifies as "[A". Codes for bare
// control input are stored as the raw sequence.
var codeTable = map[string]codeEntry{
	// xterm/gnome ESC O letter
	"OA": {name: KeyUp},
	"OB": {name: KeyDown},
	"OC": {name: KeyRight},
	"OD": {name: KeyLeft},
	"OE": {name: KeyClear},
	"OF": {name: KeyEnd},
	"OG": {name: KeyHome},
	"OH": {name: KeyHome},

	// xterm ESC [ letter
	"[A": {name: KeyUp},
	"[B": {name: KeyDown},
	"[C": {name: KeyRight},
	"[D": {name: KeyLeft},
	"[E": {name: KeyClear},
	"[F": {name: KeyEnd},
	"[G": {name: KeyHome},
	"[H": {name: KeyHome},

	// Function keys: SS3, vt/rxvt numeric, linux console
	"OP":   {name: KeyF1},
	"OQ":   {name: KeyF2},
	"OR":   {name: KeyF3},
	"OS":   {name: KeyF4},
	"[11~": {name: KeyF1},
	"[12~": {name: KeyF2},
	"[13~": {name: KeyF3},
	"[14~": {name: KeyF4},
	"[[A":  {name: KeyF1},
	"[[B":  {name: KeyF2},
	"[[C":  {name: KeyF3},
	"[[D":  {name: KeyF4},
	"[[E":  {name: KeyF5},
	"[15~": {name: KeyF5},
	"[17~": {name: KeyF6},
	"[18~": {name: KeyF7},
	"[19~": {name: KeyF8},
	"[20~": {name: KeyF9},
	"[21~": {name: KeyF10},
	"[23~": {name: KeyF11},
	"[24~": {name: KeyF12},

	// Editing keys
	"[1~":  {name: KeyHome},
	"[2~":  {name: KeyInsert},
	"[3~":  {name: KeyDel},
	"[4~":  {name: KeyEnd},
	"[5~":  {name: KeyPageUp},
	"[6~":  {name: KeyPageDown},
	"[[5~": {name: KeyPageUp},
	"[[6~": {name: KeyPageDown},
	"[7~":  {name: KeyHome},
	"[8~":  {name: KeyEnd},

	// rxvt shift
	"[a":  {name: KeyUp, mod: ModShift},
	"[b":  {name: KeyDown, mod: ModShift},
	"[c":  {name: KeyRight, mod: ModShift},
	"[d":  {name: KeyLeft, mod: ModShift},
	"[e":  {name: KeyClear, mod: ModShift},
	"[2$": {name: KeyInsert, mod: ModShift},
	"[3$": {name: KeyDel, mod: ModShift},
	"[5$": {name: KeyPageUp, mod: ModShift},
	"[6$": {name: KeyPageDown, mod: ModShift},
	"[7$": {name: KeyHome, mod: ModShift},
	"[8$": {name: KeyEnd, mod: ModShift},

	// rxvt ctrl
	"Oa":  {name: KeyUp, mod: ModCtrl},
	"Ob":  {name: KeyDown, mod: ModCtrl},
	"Oc":  {name: KeyRight, mod: ModCtrl},
	"Od":  {name: KeyLeft, mod: ModCtrl},
	"Oe":  {name: KeyClear, mod: ModCtrl},
	"[2^": {name: KeyInsert, mod: ModCtrl},
	"[3^": {name: KeyDel, mod: ModCtrl},
	"[5^": {name: KeyPageUp, mod: ModCtrl},
	"[6^": {name: KeyPageDown, mod: ModCtrl},
	"[7^": {name: KeyHome, mod: ModCtrl},
	"[8^": {name: KeyEnd, mod: ModCtrl},

	// Back tab
	"[Z": {name: KeyTab, mod: ModShift},

	// Bare control input
	"\x1b":     {name: KeyEscape},
	"\x1b\x1b": {name: KeyEscape, mod: ModMeta},
	"\r":       {name: KeyReturn},
	"\n":       {name: KeyEnter},
	"\t":       {name: KeyTab},
	" ":        {name: KeySpace},
	"\x7f":     {name: KeyBackspace},
	"\x1b\x7f": {name: KeyBackspace, mod: ModMeta},
	"\x1b\b":   {name: KeyBackspace, mod: ModMeta},
	"\x1b ":    {name: KeySpace, mod: ModMeta},
	"\x1b\r":   {name: KeyReturn, mod: ModMeta},
	"\x1b\n":   {name: KeyEnter, mod: ModMeta},
}

// LookupCode returns the key name registered for a classified code and the
// modifier the table forces for it.
func LookupCode(code string) (Key, Modifier, bool) {
	e, ok := codeTable[code]
	return e.name, e.mod, ok
}

// Codes iterates over the code table in sorted code order.
func Codes() iter.Seq2[string, Key] {
	return func(yield func(string, Key) bool) {
		for _, code := range slices.Sorted(maps.Keys(codeTable)) {
			if !yield(code, codeTable[code].name) {
				return
			}
		}
	}
}
