package regbridge

// Unset marks an ovector slot whose group did not take part in the match.
const Unset = ^uint32(0)

// MatchData holds the ovector of the most recent match against one
// pattern. A MatchData must only be used with patterns of the same capture
// shape as the one it was created from, and must not be shared between
// concurrent matches.
type MatchData struct {
	ovector []uint32
	// result code of the last match
	rc int
}

// NewMatchData returns match data with room for the whole match and every
// capture group of c.
func (c *Code) NewMatchData() *MatchData {
	md := &MatchData{
		ovector: make([]uint32, 2*(c.CaptureCount()+1)),
	}
	md.reset()
	return md
}

func (md *MatchData) reset() {
	for i := range md.ovector {
		md.ovector[i] = Unset
	}
}

// OvectorCount returns the number of offset pairs.
func (md *MatchData) OvectorCount() int {
	return len(md.ovector) / 2
}

// Ovector returns the offset pairs as start, end code-unit offsets. The
// slice is owned by md and is overwritten by the next match.
func (md *MatchData) Ovector() []uint32 {
	return md.ovector
}

// Group returns the span of group i in the last match. ok is false when
// the group is out of range or did not participate.
func (md *MatchData) Group(i int) (start, end int, ok bool) {
	if i < 0 || i >= md.OvectorCount() || md.ovector[2*i] == Unset {
		return 0, 0, false
	}
	return int(md.ovector[2*i]), int(md.ovector[2*i+1]), true
}

// Result returns the result code of the last match, 0 before the first.
func (md *MatchData) Result() int {
	return md.rc
}
