package keyboard

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLetters(t *testing.T) {
	for c := 'a'; c <= 'z'; c++ {
		ev := decodeOne(t, string(c))
		assert.True(t, ev.Is(Key(string(c)), 0), "%c decoded as %s", c, ev)
		assert.Equal(t, c, ev.Char)
	}
	for c := 'A'; c <= 'Z'; c++ {
		ev := decodeOne(t, string(c))
		lower := Key(strings.ToLower(string(c)))
		assert.True(t, ev.Is(lower, ModShift), "%c decoded as %s", c, ev)
		assert.Equal(t, c, ev.Char)
	}
}

func TestControlLetters(t *testing.T) {
	for b := byte(0x01); b <= 0x1a; b++ {
		switch b {
		case '\t', '\n', '\r':
			continue
		}
		ev := decodeOne(t, string([]byte{b}))
		want := Key(string(rune('a' + b - 1)))
		assert.True(t, ev.Is(want, ModCtrl), "0x%02x decoded as %s", b, ev)
		assert.Zero(t, ev.Char)
	}
}

func TestDecodeSequences(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		key  Key
		mods Modifier
		code string
	}{
		{name: "cursor up", seq: "\x1b[A", key: KeyUp, code: "[A"},
		{name: "ss3 up", seq: "\x1bOA", key: KeyUp, code: "OA"},
		{name: "f1", seq: "\x1bOP", key: KeyF1, code: "OP"},
		{name: "f5", seq: "\x1b[15~", key: KeyF5, code: "[15~"},
		{name: "linux console f3", seq: "\x1b[[C", key: KeyF3, code: "[[C"},
		{name: "delete", seq: "\x1b[3~", key: KeyDel, code: "[3~"},
		{name: "shift up", seq: "\x1b[1;2A", key: KeyUp, mods: ModShift, code: "[A"},
		{name: "alt up", seq: "\x1b[1;3A", key: KeyUp, mods: ModMeta, code: "[A"},
		{name: "ctrl right", seq: "\x1b[1;5C", key: KeyRight, mods: ModCtrl, code: "[C"},
		{name: "ctrl shift left", seq: "\x1b[1;6D", key: KeyLeft, mods: ModCtrl | ModShift, code: "[D"},
		{name: "meta bit down", seq: "\x1b[1;9B", key: KeyDown, mods: ModMeta, code: "[B"},
		{name: "ctrl f5", seq: "\x1b[15;5~", key: KeyF5, mods: ModCtrl, code: "[15~"},
		{name: "ctrl alt delete", seq: "\x1b[3;7~", key: KeyDel, mods: ModCtrl | ModMeta, code: "[3~"},
		{name: "double escape up", seq: "\x1b\x1b[A", key: KeyUp, mods: ModMeta, code: "[A"},
		{name: "rxvt shift home", seq: "\x1b[7$", key: KeyHome, mods: ModShift, code: "[7$"},
		{name: "rxvt ctrl right", seq: "\x1bOc", key: KeyRight, mods: ModCtrl, code: "Oc"},
		{name: "back tab", seq: "\x1b[Z", key: KeyTab, mods: ModShift, code: "[Z"},
		{name: "meta letter", seq: "\x1bx", key: "x", mods: ModMeta, code: "\x1bx"},
		{name: "meta uppercase", seq: "\x1bA", key: "a", mods: ModMeta | ModShift, code: "\x1bA"},
		{name: "meta digit", seq: "\x1b5", key: "5", mods: ModMeta, code: "\x1b5"},
		{name: "meta ctrl letter", seq: "\x1b\x01", key: "a", mods: ModMeta | ModCtrl, code: "\x1b\x01"},
		{name: "meta backspace", seq: "\x1b\x7f", key: KeyBackspace, mods: ModMeta, code: "\x1b\x7f"},
		{name: "ctrl a", seq: "\x01", key: "a", mods: ModCtrl, code: "\x01"},
		{name: "ctrl h", seq: "\b", key: "h", mods: ModCtrl, code: "\b"},
		{name: "ctrl space", seq: "\x00", key: KeySpace, mods: ModCtrl, code: "\x00"},
		{name: "return", seq: "\r", key: KeyReturn, code: "\r"},
		{name: "enter", seq: "\n", key: KeyEnter, code: "\n"},
		{name: "tab", seq: "\t", key: KeyTab, code: "\t"},
		{name: "space", seq: " ", key: KeySpace, code: " "},
		{name: "backspace", seq: "\x7f", key: KeyBackspace, code: "\x7f"},
		{name: "escape", seq: "\x1b", key: KeyEscape, code: "\x1b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := decodeOne(t, tt.seq)
			assert.Equal(t, tt.key, ev.Name)
			assert.Equal(t, tt.mods, ev.Modifiers())
			assert.Equal(t, tt.code, ev.Code)
			assert.Equal(t, tt.seq, ev.Sequence)
		})
	}
}

func TestUnnamedInput(t *testing.T) {
	tests := []struct {
		name string
		seq  string
		code string
		mods Modifier
		char rune
	}{
		{name: "unknown function key", seq: "\x1b[99~", code: "[99~"},
		{name: "unknown csi letter", seq: "\x1b[x", code: "[x"},
		{name: "unknown with modifier", seq: "\x1b[99;5~", code: "[99~", mods: ModCtrl},
		{name: "meta punctuation", seq: "\x1b.", mods: ModMeta},
		{name: "digit", seq: "7", char: '7'},
		{name: "punctuation", seq: "?", char: '?'},
		{name: "accented", seq: "é", char: 'é'},
		{name: "cjk", seq: "世", char: '世'},
		{name: "invalid byte", seq: "\xff", char: utf8.RuneError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := decodeOne(t, tt.seq)
			assert.Empty(t, ev.Name)
			assert.Equal(t, tt.code, ev.Code)
			assert.Equal(t, tt.mods, ev.Modifiers())
			assert.Equal(t, tt.char, ev.Char)
			assert.Equal(t, tt.seq, ev.Sequence)
		})
	}
}

func TestMalformedSequenceDegradesToCharacters(t *testing.T) {
	d, rec := feed(t, "\x1b[;!")
	assert.Zero(t, d.Pending())
	require.Len(t, rec.keys, 4)
	assert.Equal(t, KeyEscape, rec.keys[0].Name)
	assert.Equal(t, []rune{0, '[', ';', '!'}, rec.chars)
}

func TestSeveralKeysInOneChunk(t *testing.T) {
	d, rec := feed(t, "ab\x1b[Ac\x1b[1;5D\r")
	assert.Zero(t, d.Pending())

	var got []string
	for _, ev := range rec.keys {
		got = append(got, ev.String())
	}
	assert.Equal(t, []string{"a", "b", "up", "c", "ctrl+left", "return"}, got)
}

func TestCharacterArgument(t *testing.T) {
	_, rec := feed(t, "x\x1b[A€\r")
	assert.Equal(t, []rune{'x', 0, '€', 0}, rec.chars)
}

func TestTerminates(t *testing.T) {
	assert.True(t, decodeOne(t, "\x04").Terminates())
	assert.True(t, KeyEvent{Name: KeyTerminate}.Terminates())
	assert.False(t, decodeOne(t, "d").Terminates())
	assert.False(t, decodeOne(t, "\x1b\x04").Terminates())
}

func TestEventString(t *testing.T) {
	tests := []struct {
		ev   KeyEvent
		want string
	}{
		{KeyEvent{Name: KeyUp, Ctrl: true, Shift: true}, "ctrl+shift+up"},
		{KeyEvent{Name: "x", Meta: true}, "meta+x"},
		{KeyEvent{Char: 'é', Sequence: "é"}, "é"},
		{KeyEvent{Sequence: "\x1b[99~", Code: "[99~"}, `"\x1b[99~"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.ev.String())
	}
}
