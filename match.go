package regbridge

import "github.com/dlclark/regexp2"

// Match searches subject for the pattern, starting no earlier than offset
// (in code units), and stores the result in md.
//
// A positive result is one more than the highest-numbered group that was
// set; 0 means md was too small to hold every set group. Negative results
// are error codes: ErrNoMatch, ErrBadOffset, ErrBadUTFOffset, a UTF-16
// error for a malformed subject, ErrBadOption or ErrMatchLimit.
//
// Supported options are Anchored and NoUTFCheck. With NoUTFCheck a
// malformed subject is matched as is, lone surrogates standing for
// themselves.
func (c *Code) Match(subject []uint16, offset int, md *MatchData, options uint32) int {
	if options&^matchOptions != 0 {
		return ErrBadOption
	}
	idx, start, rc := prepareSubject(subject, offset, options)
	if rc != 0 {
		return rc
	}
	return c.exec(idx, start, md, options&Anchored != 0)
}

func prepareSubject(subject []uint16, offset int, options uint32) (*runeIndex, int, int) {
	if offset < 0 || offset > len(subject) {
		return nil, 0, ErrBadOffset
	}
	if options&NoUTFCheck == 0 {
		if code, _ := validateUTF16(subject); code != 0 {
			return nil, 0, code
		}
	}
	idx := newRuneIndex(subject)
	start, ok := idx.runeAt(offset)
	if !ok {
		return nil, 0, ErrBadUTFOffset
	}
	return idx, start, 0
}

// exec runs the engine from rune index start and fills md.
func (c *Code) exec(idx *runeIndex, start int, md *MatchData, anchored bool) int {
	return c.run(c.re, idx, start, md, anchored)
}

// execNotEmpty looks for a non-empty match starting exactly at start, the
// retry after an empty match.
func (c *Code) execNotEmpty(idx *runeIndex, start int, md *MatchData) int {
	re := c.notEmpty()
	if re == nil {
		md.rc = ErrNoMatch
		return md.rc
	}
	return c.run(re, idx, start, md, true)
}

func (c *Code) run(re *regexp2.Regexp, idx *runeIndex, start int, md *MatchData, anchored bool) int {
	m, err := re.FindRunesMatchStartingAt(idx.runes, start)
	switch {
	case err != nil:
		md.rc = ErrMatchLimit
		return md.rc
	case m == nil || anchored && m.Index != start:
		md.rc = ErrNoMatch
		return md.rc
	}

	md.reset()
	md.ovector[0] = uint32(idx.unitAt(m.Index))
	md.ovector[1] = uint32(idx.unitAt(m.Index + m.Length))
	rc := 1
	for i := 1; i <= c.CaptureCount(); i++ {
		g := m.GroupByNumber(i)
		if g == nil || len(g.Captures) == 0 {
			continue
		}
		if i >= md.OvectorCount() {
			rc = 0
			break
		}
		md.ovector[2*i] = uint32(idx.unitAt(g.Index))
		md.ovector[2*i+1] = uint32(idx.unitAt(g.Index + g.Length))
		rc = i + 1
	}
	md.rc = rc
	return rc
}
