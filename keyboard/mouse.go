package keyboard

import (
	"regexp"
	"strconv"
	"strings"
)

// MouseFormat identifies the report encoding a mouse sequence used.
type MouseFormat int

const (
	MouseX10 MouseFormat = iota + 1
	MouseURXVT
	MouseSGR
	MouseLocator      // DEC locator pixel report: ESC [ < a;b;c;d & w
	MouseVT300Locator // ESC [ 24n ~ [ x , y ] CR
	MouseFocus        // ESC [ I and ESC [ O
)

func (f MouseFormat) String() string {
	switch f {
	case MouseX10:
		return "x10"
	case MouseURXVT:
		return "urxvt"
	case MouseSGR:
		return "sgr"
	case MouseLocator:
		return "locator"
	case MouseVT300Locator:
		return "vt300"
	case MouseFocus:
		return "focus"
	default:
		return "unknown"
	}
}

// mouseGrammars is checked in order and the first match wins. Mouse
// reports share their CSI prefix with function keys, so this runs before
// key classification.
var mouseGrammars = []struct {
	format MouseFormat
	re     *regexp.Regexp
}{
	{MouseX10, regexp.MustCompile(`^(?s)\x1b\[M.{0,3}$`)},
	{MouseURXVT, regexp.MustCompile(`^\x1b\[(\d+;\d+;\d+)M$`)},
	{MouseSGR, regexp.MustCompile(`^\x1b\[<(\d+;\d+;\d+)([mM])$`)},
	{MouseLocator, regexp.MustCompile(`^\x1b\[<(\d+;\d+;\d+;\d+)&w$`)},
	{MouseVT300Locator, regexp.MustCompile(`^\x1b\[24([0135])~\[(\d+),(\d+)\]\r$`)},
	{MouseFocus, regexp.MustCompile(`^\x1b\[(O|I)$`)},
}

func mouseFormat(run string) (MouseFormat, bool) {
	for _, g := range mouseGrammars {
		if g.re.MatchString(run) {
			return g.format, true
		}
	}
	return 0, false
}

// MouseButton is the button a mouse report refers to.
type MouseButton int

const (
	MouseLeft MouseButton = iota
	MouseMiddle
	MouseRight
	MouseNone // X10 release, or motion with no button held
)

// MouseReport is a decoded mouse sequence. Mouse reports are never turned
// into key events; listeners that implement MouseListener receive them.
type MouseReport struct {
	Sequence string
	Format   MouseFormat
	Button   MouseButton
	X, Y     int // 1-based cell coordinates, 0 when the format carries none
	Release  bool
	Motion   bool
	Wheel    int // -1 wheel up, 1 wheel down
	FocusIn  bool

	Shift bool
	Meta  bool
	Ctrl  bool
}

// ParseMouse decodes a mouse report. It returns false when seq is not a
// mouse sequence.
func ParseMouse(seq string) (MouseReport, bool) {
	format, ok := mouseFormat(seq)
	if !ok {
		return MouseReport{}, false
	}
	r := MouseReport{Sequence: seq, Format: format}

	switch format {
	case MouseX10:
		// Button and coordinates are offset by 32
		if len(seq) != 6 {
			return r, true
		}
		cb := int(seq[3]) - 32
		r.decodeButton(cb, (cb&3) == 3)
		r.X = int(seq[4]) - 32
		r.Y = int(seq[5]) - 32

	case MouseURXVT:
		p := splitParams(seq[2 : len(seq)-1])
		cb := p[0] - 32
		r.decodeButton(cb, (cb&3) == 3)
		r.X, r.Y = p[1], p[2]

	case MouseSGR:
		p := splitParams(seq[3 : len(seq)-1])
		r.decodeButton(p[0], seq[len(seq)-1] == 'm')
		r.X, r.Y = p[1], p[2]

	case MouseLocator:
		p := splitParams(seq[3 : len(seq)-2])
		r.Y, r.X = p[2], p[3]

	case MouseVT300Locator:
		m := mouseGrammars[4].re.FindStringSubmatch(seq)
		r.X, _ = strconv.Atoi(m[2])
		r.Y, _ = strconv.Atoi(m[3])

	case MouseFocus:
		r.FocusIn = seq[2] == 'I'
	}
	return r, true
}

// decodeButton unpacks an xterm button byte (already minus 32 for X10
// style encodings).
func (r *MouseReport) decodeButton(cb int, release bool) {
	r.Shift = cb&4 != 0
	r.Meta = cb&8 != 0
	r.Ctrl = cb&16 != 0
	r.Motion = cb&32 != 0

	bits := cb & 3
	if cb&64 != 0 {
		r.Button = MouseNone
		if bits == 0 {
			r.Wheel = -1
		} else {
			r.Wheel = 1
		}
		return
	}
	r.Release = release
	if bits == 3 {
		r.Button = MouseNone
	} else {
		r.Button = MouseButton(bits)
	}
}

// splitParams splits a ;-separated parameter string into integers. The
// grammars guarantee every field is numeric.
func splitParams(params string) []int {
	fields := strings.Split(params, ";")
	out := make([]int, len(fields))
	for i, f := range fields {
		out[i], _ = strconv.Atoi(f)
	}
	return out
}
