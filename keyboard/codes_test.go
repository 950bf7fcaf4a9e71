package keyboard

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wireSequence turns a table code back into the bytes a terminal sends.
func wireSequence(code string) string {
	if strings.HasPrefix(code, "[") || strings.HasPrefix(code, "O") {
		return esc + code
	}
	return code
}

func TestEveryCodeDecodesToItsName(t *testing.T) {
	count := 0
	for code, name := range Codes() {
		count++
		seq := wireSequence(code)
		t.Run(strconv.Quote(seq), func(t *testing.T) {
			d, rec := feed(t, seq)
			if seq == esc || seq == esc+esc {
				// A lone or doubled ESC waits for the idle flush.
				require.Empty(t, rec.keys)
				d.Flush()
			}
			require.Len(t, rec.keys, 1)
			assert.Zero(t, d.Pending())

			ev := rec.keys[0]
			assert.Equal(t, name, ev.Name)
			assert.Equal(t, code, ev.Code)
			assert.Equal(t, seq, ev.Sequence)

			_, preset, ok := LookupCode(code)
			require.True(t, ok)
			assert.Equal(t, preset, ev.Modifiers()&preset)
		})
	}
	assert.Equal(t, len(codeTable), count)
}

func TestPresetModifiers(t *testing.T) {
	tests := []struct {
		seq  string
		name Key
		mods Modifier
	}{
		{"\x1b[a", KeyUp, ModShift},
		{"\x1b[e", KeyClear, ModShift},
		{"\x1b[2$", KeyInsert, ModShift},
		{"\x1b[8$", KeyEnd, ModShift},
		{"\x1bOa", KeyUp, ModCtrl},
		{"\x1bOd", KeyLeft, ModCtrl},
		{"\x1b[3^", KeyDel, ModCtrl},
		{"\x1b[6^", KeyPageDown, ModCtrl},
		{"\x1b[Z", KeyTab, ModShift},
		{"\x1b\x7f", KeyBackspace, ModMeta},
		{"\x1b ", KeySpace, ModMeta},
		{"\x1b\r", KeyReturn, ModMeta},
	}
	for _, tt := range tests {
		ev := decodeOne(t, tt.seq)
		assert.True(t, ev.Is(tt.name, tt.mods), "%q decoded as %s", tt.seq, ev)
	}
}

func TestLookupCodeMiss(t *testing.T) {
	_, _, ok := LookupCode("[99~")
	assert.False(t, ok)
}
