package keyboard

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

const esc = "\x1b"

var (
	// ESC+ marker, then one of:
	//   num [; num] (~ ^ $)       vt/rxvt editing and function keys
	//   M b x y                   legacy mouse
	//   [1;] [num] letter         xterm cursor and SS3 keys
	functionKeyRe = regexp.MustCompile("(?s)^(\x1b+)(O|N|\\[|\\[\\[)" +
		"(?:(\\d+)(?:;(\\d+))?([~^$])|(?:M([@ #!a`])(.)(.))|(?:1;)?(\\d+)?([a-zA-Z]))$")

	metaKeyRe = regexp.MustCompile("^\x1b([a-zA-Z0-9])$")
)

// scanRun returns how many leading segments of segs make up one key press
// or mouse report. It returns 0 when segs ends inside a sequence that more
// input could still extend. With final set it never returns 0.
func scanRun(segs []string, final bool) int {
	if segs[0] != esc {
		return 1
	}
	i := 0
	for i < len(segs) && segs[i] == esc {
		i++
	}
	if i == len(segs) {
		if !final {
			return 0
		}
		return min(i, 2)
	}

	switch segs[i] {
	case "[", "O", "N":
		n, more := scanEscapeBody(segs, i, final)
		if n > 0 {
			return n
		}
		if more && !final {
			return 0
		}
	}

	// Not a complete sequence: a doubled escape, ESC plus one character
	// (meta), or a lone escape whose "[" is read again as text.
	if i >= 2 {
		return 2
	}
	if segs[1] == "[" {
		return 1
	}
	return 2
}

// scanEscapeBody scans what follows the introducer at segs[i]. It returns
// the end of the run, or 0 and whether more input could still complete it.
func scanEscapeBody(segs []string, i int, final bool) (int, bool) {
	marker := segs[i]
	j := i + 1
	if j == len(segs) {
		return 0, true
	}

	if marker == "[" {
		switch segs[j] {
		case "[":
			j++
		case "M":
			// The payload is three raw bytes, which need not be whole
			// UTF-8 segments; cutX10 splits a straddling segment.
			need := x10Payload
			for k := j + 1; k < len(segs); k++ {
				need -= len(segs[k])
				if need <= 0 {
					return k + 1, false
				}
			}
			if final {
				return len(segs), false
			}
			return 0, true
		case "<":
			return scanSGRBody(segs, j+1)
		case "?":
			// Private-mode reply, e.g. the kitty flags report
			j++
		}
	}

	start := j
	for j < len(segs) && (isDigit(segs[j]) || segs[j] == ";" || segs[j] == ":") {
		j++
	}
	if j == len(segs) {
		return 0, true
	}

	switch s := segs[j]; {
	case s == "~":
		j++
		if marker == "[" && segs[i+1] != "?" && isLocatorReport(strings.Join(segs[start:j-1], "")) {
			return scanLocatorTail(segs, j, final)
		}
		return j, false
	case s == "^" || s == "$" || isLetter(s):
		return j + 1, false
	}
	return 0, false
}

// scanSGRBody scans "b;x;y" up to an M/m terminator, or "&w" for locator
// reports.
func scanSGRBody(segs []string, j int) (int, bool) {
	for j < len(segs) && (isDigit(segs[j]) || segs[j] == ";") {
		j++
	}
	if j == len(segs) {
		return 0, true
	}
	switch segs[j] {
	case "M", "m":
		return j + 1, false
	case "&":
		if j+1 == len(segs) {
			return 0, true
		}
		if segs[j+1] == "w" {
			return j + 2, false
		}
	}
	return 0, false
}

const x10Payload = 3

// cutX10 trims a legacy mouse run to its three payload bytes. When the last
// payload byte began a multi-byte segment, the rest of that segment goes
// back in front of rest, one byte per segment.
func cutX10(run string, rest []string) (string, []string) {
	i := strings.IndexByte(run, '[')
	if i < 1 || strings.Trim(run[:i], esc) != "" || !strings.HasPrefix(run[i:], "[M") {
		return run, rest
	}
	end := i + len("[M") + x10Payload
	if len(run) <= end {
		return run, rest
	}
	tail := run[end:]
	segs := make([]string, 0, len(tail)+len(rest))
	for k := range len(tail) {
		segs = append(segs, tail[k:k+1])
	}
	return run[:end], append(segs, rest...)
}

func isLocatorReport(params string) bool {
	switch params {
	case "240", "241", "243", "245":
		return true
	}
	return false
}

// scanLocatorTail extends "ESC [ 24n ~" over a "[x,y]\r" position tail.
// The run ends at "~" when the tail is absent or malformed.
func scanLocatorTail(segs []string, end int, final bool) (int, bool) {
	incomplete := func() (int, bool) {
		if final {
			return end, false
		}
		return 0, true
	}

	j := end
	for _, part := range []string{"[", "#", ",", "#", "]", "\r"} {
		if part == "#" {
			n := j
			for j < len(segs) && isDigit(segs[j]) {
				j++
			}
			if j == len(segs) {
				return incomplete()
			}
			if j == n {
				return end, false
			}
			continue
		}
		if j == len(segs) {
			return incomplete()
		}
		if segs[j] != part {
			return end, false
		}
		j++
	}
	return j, false
}

func isDigit(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}

func isLetter(s string) bool {
	return len(s) == 1 && (s[0] >= 'a' && s[0] <= 'z' || s[0] >= 'A' && s[0] <= 'Z')
}

// buildEvent classifies one run that is not a mouse report.
func buildEvent(run string) KeyEvent {
	ev := KeyEvent{Sequence: run}
	if r, size := utf8.DecodeRuneInString(run); size == len(run) && unicode.IsPrint(r) {
		ev.Char = r
	}

	switch {
	case ev.classifyKitty():
	case ev.classifyFunctionKey():
	case ev.classifyMeta():
	case ev.classifyTable():
	default:
		ev.classifyLiteral()
	}
	return ev
}

func (e *KeyEvent) classifyFunctionKey() bool {
	m := functionKeyRe.FindStringSubmatch(e.Sequence)
	if m == nil {
		return false
	}
	e.Code = m[2] + m[3] + m[5] + m[10]

	mod := 1
	for _, p := range []string{m[4], m[9]} {
		if p == "" {
			continue
		}
		if n, err := strconv.Atoi(p); err == nil {
			mod = n
		}
		break
	}
	e.decodeModifier(mod - 1)

	// ESC ESC [ A and friends: the extra escape is alt.
	if len(m[1]) > 1 {
		e.Meta = true
	}

	if name, preset, ok := LookupCode(e.Code); ok {
		e.Name = name
		e.force(preset)
	}
	return true
}

// decodeModifier applies a zero-based xterm modifier parameter. The meta
// mask covers both the alt (2) and meta (8) bits.
func (e *KeyEvent) decodeModifier(m int) {
	e.Ctrl = m&4 != 0
	e.Meta = m&10 != 0
	e.Shift = m&1 != 0
}

func (e *KeyEvent) force(mod Modifier) {
	if mod&ModShift != 0 {
		e.Shift = true
	}
	if mod&ModCtrl != 0 {
		e.Ctrl = true
	}
	if mod&ModMeta != 0 {
		e.Meta = true
	}
}

func (e *KeyEvent) classifyMeta() bool {
	m := metaKeyRe.FindStringSubmatch(e.Sequence)
	if m == nil {
		return false
	}
	c := m[1]
	e.Code = e.Sequence
	e.Name = Key(strings.ToLower(c))
	e.Meta = true
	e.Shift = c[0] >= 'A' && c[0] <= 'Z'
	return true
}

func (e *KeyEvent) classifyTable() bool {
	name, preset, ok := LookupCode(e.Sequence)
	if !ok {
		return false
	}
	e.Code = e.Sequence
	e.Name = name
	e.force(preset)
	return true
}

func (e *KeyEvent) classifyLiteral() {
	s := e.Sequence
	if strings.HasPrefix(s, esc) {
		// ESC followed by one character no grammar names
		rest := s[len(esc):]
		r, size := utf8.DecodeRuneInString(rest)
		if size == 0 || size != len(rest) {
			return
		}
		e.Meta = true
		if r >= 0x01 && r <= 0x1a {
			e.Code = s
			e.Name = ctrlLetter(r)
			e.Ctrl = true
		}
		return
	}

	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) {
		return
	}
	switch {
	case r == 0:
		e.Code = s
		e.Name = KeySpace
		e.Ctrl = true
	case r <= 0x1a:
		e.Code = s
		e.Name = ctrlLetter(r)
		e.Ctrl = true
	case r >= 'a' && r <= 'z':
		e.Name = Key(s)
	case r >= 'A' && r <= 'Z':
		e.Name = Key(strings.ToLower(s))
		e.Shift = true
	}
}

// ctrlLetter maps 0x01..0x1a to "a".."z".
func ctrlLetter(r rune) Key {
	return Key(rune('a' + r - 1))
}
