// Package keyboard decodes raw terminal input into key events.
// It handles UTF-8 characters split across reads, xterm/rxvt/VT escape
// sequences with modifiers, filters mouse reports out of the key stream,
// and can assemble lines for simple prompts.
package keyboard

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/term"
)

// DefaultEscapeDelay is how long a held ESC waits for the rest of a
// sequence before it is reported as the escape key.
const DefaultEscapeDelay = 50 * time.Millisecond

// Handler reads raw terminal input, decodes it, and delivers key events
// and assembled lines.
type Handler struct {
	mu sync.Mutex

	// Input source
	inputReader io.Reader
	rawBytes    chan readResult
	stopChan    chan struct{}
	loopDone    chan struct{}
	done        chan struct{}

	decoder  *Decoder
	escDelay time.Duration

	// Output channels
	Keys   chan KeyEvent // Decoded key presses (outside line mode)
	Lines  chan []byte   // Assembled lines (line mode)
	Errors chan error    // Input errors; the handler stops after one

	// Callbacks (optional, called in addition to channel sends)
	OnKey   func(ev KeyEvent)
	OnLine  func(line []byte)
	OnMouse func(r MouseReport)

	// Terminal handling (only used if input is a terminal)
	terminalFd        int
	originalTermState *term.State
	managesTerminal   bool

	// State
	running        bool
	started        bool
	stopped        bool
	inLineReadMode bool
	err            error

	// Line assembly state
	currentLine     []byte
	charByteLengths []int // Byte length of each rune in currentLine, for backspace

	echoWriter io.Writer
	log        *slog.Logger
}

// Options configures the Handler
type Options struct {
	// InputReader is the source of raw bytes (required). It is closed when
	// the handler stops if it is an io.Closer other than os.Stdin.
	InputReader io.Reader

	// EchoWriter is where to echo typed characters during line mode (optional)
	EchoWriter io.Writer

	// KeyBufferSize is the size of the Keys channel buffer (default: 64)
	KeyBufferSize int

	// LineBufferSize is the size of the Lines channel buffer (default: 16)
	LineBufferSize int

	// EscapeDelay is how long to wait for the rest of an escape sequence
	// before reporting what has arrived (default: DefaultEscapeDelay)
	EscapeDelay time.Duration

	// Logger receives debug output (optional)
	Logger *slog.Logger

	// ManageTerminal controls whether to put the input in raw mode.
	// Only applies if InputReader is a terminal.
	// Default: true
	ManageTerminal *bool
}

type readResult struct {
	data []byte
	err  error
}

// New creates a new keyboard Handler.
func New(opts Options) *Handler {
	keyBufSize := opts.KeyBufferSize
	if keyBufSize <= 0 {
		keyBufSize = 64
	}
	lineBufSize := opts.LineBufferSize
	if lineBufSize <= 0 {
		lineBufSize = 16
	}
	escDelay := opts.EscapeDelay
	if escDelay <= 0 {
		escDelay = DefaultEscapeDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = discardLogger
	}

	manageTerminal := true
	if opts.ManageTerminal != nil {
		manageTerminal = *opts.ManageTerminal
	}

	h := &Handler{
		inputReader: opts.InputReader,
		rawBytes:    make(chan readResult, 64),
		stopChan:    make(chan struct{}),
		loopDone:    make(chan struct{}),
		done:        make(chan struct{}),
		escDelay:    escDelay,
		Keys:        make(chan KeyEvent, keyBufSize),
		Lines:       make(chan []byte, lineBufSize),
		Errors:      make(chan error, 1),
		echoWriter:  opts.EchoWriter,
		log:         logger,
		terminalFd:  -1,
	}

	if manageTerminal {
		if f, ok := opts.InputReader.(interface{ Fd() uintptr }); ok {
			fd := int(f.Fd())
			if term.IsTerminal(fd) {
				h.terminalFd = fd
				h.managesTerminal = true
			}
		}
	}

	h.decoder = NewDecoder(sourceCloser(opts.InputReader), WithLogger(logger))
	h.decoder.Subscribe(ListenerFuncs{
		OnKeypress: func(_ rune, ev KeyEvent) { h.emitKey(ev) },
		OnMouse:    h.emitMouse,
		OnError:    h.emitError,
		OnClose:    func() { close(h.done) },
	})

	return h
}

// sourceCloser returns the closer the decoder should close on shutdown.
// Stdin is left open for the rest of the process.
func sourceCloser(r io.Reader) io.Closer {
	if f, ok := r.(*os.File); ok && f == os.Stdin {
		return nil
	}
	c, _ := r.(io.Closer)
	return c
}

// Start begins reading from input and processing keys.
func (h *Handler) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.started {
		return errors.New("handler already started")
	}

	if h.managesTerminal {
		state, err := term.MakeRaw(h.terminalFd)
		if err != nil {
			return errors.Wrap(err, "enable raw mode")
		}
		h.originalTermState = state
		h.log.Debug("terminal set to raw mode")
	}

	h.started = true
	h.running = true

	go h.readLoop()
	go h.processLoop()

	h.log.Debug("handler started")
	return nil
}

// Stop stops reading, closes the input and restores terminal state.
func (h *Handler) Stop() error {
	h.mu.Lock()
	if !h.started || h.stopped {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	h.running = false
	close(h.stopChan)
	h.mu.Unlock()

	<-h.loopDone

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.managesTerminal && h.originalTermState != nil {
		if err := term.Restore(h.terminalFd, h.originalTermState); err != nil {
			return errors.Wrap(err, "restore terminal")
		}
		h.originalTermState = nil
		h.log.Debug("terminal restored to original mode")
	}

	h.log.Debug("handler stopped")
	return nil
}

// Done is closed once input has ended, failed, or the handler stopped.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// Err returns the input error that stopped the handler, if any.
func (h *Handler) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// SetLineMode enables or disables line assembly mode.
// When enabled, keys go to line assembly and completed lines are sent to Lines channel.
// When disabled, all keys go directly to Keys channel.
func (h *Handler) SetLineMode(enabled bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inLineReadMode = enabled
	if enabled {
		h.currentLine = nil
		h.charByteLengths = nil
	}
}

// IsLineMode returns true if line assembly mode is active.
func (h *Handler) IsLineMode() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inLineReadMode
}

// SetEchoWriter sets the writer for echoing typed characters.
func (h *Handler) SetEchoWriter(w io.Writer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.echoWriter = w
}

// IsRunning returns true while the handler is reading input. It turns false
// on Stop and when input ends or fails.
func (h *Handler) IsRunning() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.running
}

// ManagesTerminal returns true if this handler is managing terminal raw mode.
func (h *Handler) ManagesTerminal() bool {
	return h.managesTerminal
}

// readLoop continuously reads raw bytes from input
func (h *Handler) readLoop() {
	buf := make([]byte, 256)
	for {
		n, err := h.inputReader.Read(buf)
		var res readResult
		if n > 0 {
			res.data = make([]byte, n)
			copy(res.data, buf[:n])
		}
		res.err = err
		if n > 0 || err != nil {
			select {
			case h.rawBytes <- res:
			case <-h.stopChan:
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// processLoop owns the decoder: it feeds it chunks, releases held escape
// sequences after the escape delay, and closes it on the way out.
func (h *Handler) processLoop() {
	defer close(h.loopDone)
	defer func() {
		h.mu.Lock()
		h.running = false
		h.mu.Unlock()
	}()
	defer h.decoder.Close()

	escTimeout := time.NewTimer(h.escDelay)
	escTimeout.Stop()

	for {
		select {
		case <-h.stopChan:
			return

		case res := <-h.rawBytes:
			if len(res.data) > 0 {
				_, _ = h.decoder.Write(res.data)
			}
			if res.err != nil {
				if errors.Is(res.err, io.EOF) {
					h.decoder.End()
				} else {
					h.decoder.Fail(errors.Wrap(res.err, "read input"))
				}
			}
			if h.decoder.State() == StateClosed {
				return
			}
			if h.decoder.Pending() > 0 {
				escTimeout.Reset(h.escDelay)
			} else {
				escTimeout.Stop()
			}

		case <-escTimeout.C:
			h.decoder.Flush()
		}
	}
}

// emitKey sends a key event to either the Keys channel or line assembly
func (h *Handler) emitKey(ev KeyEvent) {
	h.log.Debug("key", "key", ev.String(), "sequence", ev.Sequence)

	if h.OnKey != nil {
		h.OnKey(ev)
	}

	if h.IsLineMode() {
		h.handleLineAssembly(ev)
		return
	}

	select {
	case h.Keys <- ev:
	default:
		// Buffer full - drop oldest key to make room
		select {
		case <-h.Keys:
		default:
		}
		select {
		case h.Keys <- ev:
		default:
		}
	}
}

func (h *Handler) emitMouse(r MouseReport) {
	if h.OnMouse != nil {
		h.OnMouse(r)
	}
}

func (h *Handler) emitError(err error) {
	h.log.Debug("input error", "error", err)
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
	select {
	case h.Errors <- err:
	default:
	}
}

// handleLineAssembly processes a key for line assembly
func (h *Handler) handleLineAssembly(ev KeyEvent) {
	h.mu.Lock()
	if !h.inLineReadMode {
		h.mu.Unlock()
		return
	}

	switch {
	case ev.Is(KeyReturn, 0), ev.Is(KeyEnter, 0):
		line := h.takeLineLocked()
		h.echoLocked("\r\n")
		h.mu.Unlock()
		h.sendLine(line)
		return

	case ev.Is(KeyBackspace, 0):
		if n := len(h.charByteLengths); n > 0 {
			last := h.charByteLengths[n-1]
			h.currentLine = h.currentLine[:len(h.currentLine)-last]
			h.charByteLengths = h.charByteLengths[:n-1]
			h.echoLocked("\b \b")
		}

	case ev.Is("u", ModCtrl):
		for range h.charByteLengths {
			h.echoLocked("\b \b")
		}
		h.currentLine = nil
		h.charByteLengths = nil

	case ev.Is("c", ModCtrl):
		// Interrupt - emit empty line
		h.echoLocked("^C\r\n")
		h.currentLine = nil
		h.charByteLengths = nil
		h.mu.Unlock()
		h.sendLine([]byte{})
		return

	case ev.Char != 0 && !ev.Ctrl && !ev.Meta, ev.Is(KeyTab, 0):
		r := ev.Char
		if r == 0 {
			r = '\t'
		}
		var buf [utf8.UTFMax]byte
		n := utf8.EncodeRune(buf[:], r)
		h.currentLine = append(h.currentLine, buf[:n]...)
		h.charByteLengths = append(h.charByteLengths, n)
		h.echoLocked(string(r))
	}
	h.mu.Unlock()
}

func (h *Handler) takeLineLocked() []byte {
	line := make([]byte, len(h.currentLine))
	copy(line, h.currentLine)
	h.currentLine = nil
	h.charByteLengths = nil
	return line
}

func (h *Handler) sendLine(line []byte) {
	select {
	case h.Lines <- line:
	default:
		select {
		case <-h.Lines:
		default:
		}
		select {
		case h.Lines <- line:
		default:
		}
	}

	if h.OnLine != nil {
		h.OnLine(line)
	}
}

// echoLocked writes to echo output - call only while holding h.mu
func (h *Handler) echoLocked(s string) {
	if h.echoWriter != nil {
		_, _ = io.WriteString(h.echoWriter, s)
	}
}
