package keyboard

import (
	"iter"
	"unicode/utf8"
)

// Segmenter reassembles a chunked byte stream into UTF-8 scalar values.
// Each segment is the raw encoding of one scalar; bytes that are not valid
// UTF-8 come out one per segment. A trailing incomplete encoding is held
// until the next chunk completes it.
type Segmenter struct {
	pending []byte
}

// Segment appends chunk to the stream and iterates over the complete
// segments now available. Segments left unread when the loop breaks early
// stay pending for the next call.
func (s *Segmenter) Segment(chunk []byte) iter.Seq[string] {
	s.pending = append(s.pending, chunk...)
	return func(yield func(string) bool) {
		for len(s.pending) > 0 && utf8.FullRune(s.pending) {
			_, size := utf8.DecodeRune(s.pending)
			seg := string(s.pending[:size])
			s.pending = s.pending[size:]
			if !yield(seg) {
				return
			}
		}
		if len(s.pending) == 0 {
			s.pending = nil
		}
	}
}

// Flush returns whatever incomplete encoding is still held, as a single
// segment.
func (s *Segmenter) Flush() (string, bool) {
	if len(s.pending) == 0 {
		return "", false
	}
	seg := string(s.pending)
	s.pending = nil
	return seg, true
}

// Pending returns the number of bytes held back.
func (s *Segmenter) Pending() int {
	return len(s.pending)
}

// Reset drops any held bytes.
func (s *Segmenter) Reset() {
	s.pending = nil
}
