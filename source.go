package regbridge

import (
	"sort"
	"unicode/utf16"
)

func isHighSurrogate(r rune) bool {
	return (r >> 10) == (0xd800 >> 10)
}
func isLowSurrogate(r rune) bool {
	return (r >> 10) == (0xdc00 >> 10)
}

// validateUTF16 returns 0 for well-formed input, otherwise the UTF-16
// error code and the offset of the offending code unit.
func validateUTF16(units []uint16) (int, int) {
	for i := 0; i < len(units); i++ {
		r := rune(units[i])
		switch {
		case isHighSurrogate(r):
			if i+1 == len(units) {
				return ErrUTF16MissingLow, i
			}
			if !isLowSurrogate(rune(units[i+1])) {
				return ErrUTF16InvalidLow, i
			}
			i++
		case isLowSurrogate(r):
			return ErrUTF16LoneLow, i
		}
	}
	return 0, 0
}

// source is a cursor over UTF-16 code units.
type source struct {
	units []uint16
	pos   int
}

func (s *source) atEnd() bool {
	return s.pos >= len(s.units)
}

// If source is ended, returns 0, true
func (s *source) peek(n int) (uint16, bool) {
	pos := s.pos + n
	if pos >= len(s.units) {
		return 0, true
	}
	return s.units[pos], false
}

func (s *source) consume(expected uint16) bool {
	if c, ended := s.peek(0); ended || c != expected {
		return false
	}
	s.pos++
	return true
}

// next decodes the code point at the cursor, joining surrogate pairs, and
// advances past it.
func (s *source) next() (rune, bool) {
	if s.pos >= len(s.units) {
		return 0, false
	}
	r := rune(s.units[s.pos])
	s.pos++
	if !isHighSurrogate(r) || s.pos == len(s.units) {
		return r, true
	}
	if lo := rune(s.units[s.pos]); isLowSurrogate(lo) {
		r = utf16.DecodeRune(r, lo)
		s.pos++
	}
	return r, true
}

func (s *source) text(start, end int) string {
	return string(utf16.Decode(s.units[start:end]))
}

// runeIndex is a subject decoded into the rune slice the engine matches
// against, with the code-unit offset of every rune.
type runeIndex struct {
	runes []rune
	// starts[i] is the code-unit offset of runes[i];
	// starts[len(runes)] is the subject length.
	starts []int
}

func newRuneIndex(units []uint16) *runeIndex {
	x := &runeIndex{
		runes:  make([]rune, 0, len(units)),
		starts: make([]int, 0, len(units)+1),
	}
	src := source{units: units}
	for !src.atEnd() {
		x.starts = append(x.starts, src.pos)
		r, _ := src.next()
		x.runes = append(x.runes, r)
	}
	x.starts = append(x.starts, len(units))
	return x
}

// runeAt converts a code-unit offset into a rune index. It reports false
// when the offset falls between the halves of a surrogate pair.
func (x *runeIndex) runeAt(unit int) (int, bool) {
	i := sort.SearchInts(x.starts, unit)
	if i == len(x.starts) || x.starts[i] != unit {
		return 0, false
	}
	return i, true
}

// unitAt converts a rune index into a code-unit offset.
func (x *runeIndex) unitAt(r int) int {
	return x.starts[r]
}
