package keyboard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// recorder is a Listener that keeps everything it is told.
type recorder struct {
	keys   []KeyEvent
	chars  []rune
	mice   []MouseReport
	errs   []error
	ends   int
	closes int
}

func (r *recorder) HandleKeypress(ch rune, ev KeyEvent) {
	r.keys = append(r.keys, ev)
	r.chars = append(r.chars, ch)
}

func (r *recorder) HandleMouse(m MouseReport) { r.mice = append(r.mice, m) }
func (r *recorder) HandleEnd()                { r.ends++ }
func (r *recorder) HandleError(err error)     { r.errs = append(r.errs, err) }
func (r *recorder) HandleClose()              { r.closes++ }

// feed writes each chunk to a fresh decoder.
func feed(t *testing.T, chunks ...string) (*Decoder, *recorder) {
	t.Helper()
	d := NewDecoder(nil)
	rec := &recorder{}
	d.Subscribe(rec)
	for _, c := range chunks {
		n, err := d.Write([]byte(c))
		require.NoError(t, err)
		require.Equal(t, len(c), n)
	}
	return d, rec
}

// decodeOne feeds seq, flushes, and requires exactly one key event.
func decodeOne(t *testing.T, seq string) KeyEvent {
	t.Helper()
	d, rec := feed(t, seq)
	d.Flush()
	require.Len(t, rec.keys, 1, "sequence %q", seq)
	require.Zero(t, d.Pending())
	return rec.keys[0]
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
