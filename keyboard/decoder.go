package keyboard

import (
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// ErrClosed is returned when input is written to a closed Decoder.
var ErrClosed = errors.New("keyboard: decoder closed")

// State is the lifecycle state of a Decoder.
type State int

const (
	StateOpen   State = iota // Accepting input
	StateEnding              // Input ended; flushing before close
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateEnding:
		return "ending"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Listener receives decoded input and lifecycle notifications, in order.
type Listener interface {
	// HandleKeypress receives each decoded key press. ch is the typed
	// character, or 0 when the key press is not a printable character.
	HandleKeypress(ch rune, ev KeyEvent)
	// HandleEnd is called once when the input reaches end of stream.
	HandleEnd()
	// HandleError is called once with a transport error, before close.
	HandleError(err error)
	// HandleClose is called once when the decoder closes.
	HandleClose()
}

// MouseListener may be implemented by a Listener to observe the mouse
// reports the decoder filters out of the key stream.
type MouseListener interface {
	HandleMouse(r MouseReport)
}

// ListenerFuncs adapts optional callbacks to the Listener interface.
type ListenerFuncs struct {
	OnKeypress func(ch rune, ev KeyEvent)
	OnMouse    func(r MouseReport)
	OnEnd      func()
	OnError    func(err error)
	OnClose    func()
}

func (l ListenerFuncs) HandleKeypress(ch rune, ev KeyEvent) {
	if l.OnKeypress != nil {
		l.OnKeypress(ch, ev)
	}
}

func (l ListenerFuncs) HandleMouse(r MouseReport) {
	if l.OnMouse != nil {
		l.OnMouse(r)
	}
}

func (l ListenerFuncs) HandleEnd() {
	if l.OnEnd != nil {
		l.OnEnd()
	}
}

func (l ListenerFuncs) HandleError(err error) {
	if l.OnError != nil {
		l.OnError(err)
	}
}

func (l ListenerFuncs) HandleClose() {
	if l.OnClose != nil {
		l.OnClose()
	}
}

type subscription struct {
	l      Listener
	active bool
}

// Decoder turns a chunked terminal byte stream into key events.
//
// A Decoder is not safe for concurrent use: it is driven by one goroutine
// that writes chunks as they arrive and calls End, Fail or Close. Every
// call returns without blocking, and listeners are invoked synchronously
// from it, in input order. Bytes of an escape sequence that is still
// incomplete at the end of a chunk are held until the next chunk, so
// chunk boundaries never change the decoded events. A lone ESC is held as
// well; hosts call Flush after an idle delay to release it.
type Decoder struct {
	src   io.Closer
	log   *slog.Logger
	state State

	seg  Segmenter
	held []string // Segments of an escape run still waiting for input

	subs []*subscription
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) DecoderOption {
	return func(d *Decoder) {
		if l != nil {
			d.log = l
		}
	}
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// NewDecoder returns a Decoder bound to src. Closing the decoder closes
// src; src may be nil.
func NewDecoder(src io.Closer, opts ...DecoderOption) *Decoder {
	d := &Decoder{src: src, log: discardLogger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Subscribe registers l and returns a function that removes it.
func (d *Decoder) Subscribe(l Listener) (unsubscribe func()) {
	s := &subscription{l: l, active: true}
	d.subs = append(d.subs, s)
	return func() {
		s.active = false
		d.subs = slices.DeleteFunc(d.subs, func(x *subscription) bool { return x == s })
	}
}

// State returns the lifecycle state.
func (d *Decoder) State() State {
	return d.state
}

// Pending returns the number of input bytes held back, waiting for the
// rest of a UTF-8 character or escape sequence.
func (d *Decoder) Pending() int {
	n := d.seg.Pending()
	for _, s := range d.held {
		n += len(s)
	}
	return n
}

// Write decodes a chunk of input, emitting every key press it completes.
// It always consumes all of p.
func (d *Decoder) Write(p []byte) (int, error) {
	if d.state != StateOpen {
		return 0, ErrClosed
	}
	for seg := range d.seg.Segment(p) {
		d.held = append(d.held, seg)
	}
	d.drain(false)
	return len(p), nil
}

// Flush decodes whatever input is held back as best it can: a held ESC
// becomes the escape key, a truncated sequence its literal characters.
func (d *Decoder) Flush() {
	if d.state == StateClosed {
		return
	}
	if seg, ok := d.seg.Flush(); ok {
		d.held = append(d.held, seg)
	}
	if len(d.held) > 0 {
		d.log.Debug("flushing held input", "bytes", d.Pending())
	}
	d.drain(true)
}

// End signals end of stream: held input is flushed, listeners get the end
// notification, and the decoder closes.
func (d *Decoder) End() {
	if d.state != StateOpen {
		return
	}
	d.state = StateEnding
	d.Flush()
	if d.state == StateClosed {
		return
	}
	d.log.Debug("input ended")
	for _, s := range d.snapshot() {
		if s.active {
			s.l.HandleEnd()
		}
	}
	d.Close()
}

// Fail forwards a transport error to listeners and closes the decoder.
// Held input is discarded.
func (d *Decoder) Fail(err error) {
	if d.state == StateClosed {
		return
	}
	d.reset()
	d.log.Debug("input failed", "error", err)
	for _, s := range d.snapshot() {
		if s.active {
			s.l.HandleError(err)
		}
	}
	d.Close()
}

// Close closes the bound source and notifies listeners. Further calls are
// no-ops.
func (d *Decoder) Close() error {
	if d.state == StateClosed {
		return nil
	}
	d.state = StateClosed
	d.reset()

	var err error
	if d.src != nil {
		err = errors.Wrap(d.src.Close(), "close input")
	}
	subs := d.snapshot()
	d.subs = nil
	for _, s := range subs {
		s.active = false
	}
	for _, s := range subs {
		s.l.HandleClose()
	}
	d.log.Debug("decoder closed")
	return err
}

func (d *Decoder) reset() {
	d.seg.Reset()
	d.held = nil
}

func (d *Decoder) snapshot() []*subscription {
	return slices.Clone(d.subs)
}

// drain emits runs from the held segments until they are used up or the
// remainder needs more input.
func (d *Decoder) drain(final bool) {
	for len(d.held) > 0 {
		n := scanRun(d.held, final)
		if n == 0 {
			break
		}
		run := strings.Join(d.held[:n], "")
		run, d.held = cutX10(run, d.held[n:])
		d.dispatch(run)
		if d.state == StateClosed {
			return
		}
	}
	if len(d.held) == 0 {
		d.held = nil
	}
}

func (d *Decoder) dispatch(run string) {
	if r, ok := ParseMouse(run); ok {
		d.log.Debug("mouse report filtered", "format", r.Format, "sequence", run)
		for _, s := range d.snapshot() {
			if ml, ok := s.l.(MouseListener); ok && s.active {
				ml.HandleMouse(r)
			}
		}
		return
	}

	if isKittyReport(run) {
		d.log.Debug("kitty report dropped", "sequence", run)
		return
	}

	ev := buildEvent(run)
	for _, s := range d.snapshot() {
		if s.active {
			s.l.HandleKeypress(ev.Char, ev)
		}
	}
}
