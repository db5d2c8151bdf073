package regbridge

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf16"
)

// SubstituteResult reports the outcome of Substitute.
type SubstituteResult struct {
	// Length is the number of code units written to the output buffer,
	// excluding the terminating NUL. When Count is ErrNoMemory and
	// SubstituteOverflowLength was set, Length is the buffer size needed,
	// including the NUL.
	Length int
	// Count is the number of replacements made, or a negative error code.
	Count int
}

// Substitute matches the pattern against subject starting at offset and
// writes the subject with the match (or every match, with
// SubstituteGlobal) replaced into out. The output is NUL-terminated, so out
// needs one code unit more than the result.
//
// Replacement syntax: "$$" for a dollar sign; "$n", "${n}", "$name",
// "${name}" for group text; "$*MARK" and "${*MARK}" insert nothing. With
// SubstituteExtended, backslash escapes (\n, \t, \x{hh}, ...), case
// forcing (\u, \l, \U, \L, \E), "${n:-default}" and
// "${n:+if-set:if-unset}" are recognized as well. SubstituteLiteral copies
// the replacement as is.
//
// md receives the last match; it may be nil. With SubstituteMatched the
// first match is taken from md instead of being searched for.
func (c *Code) Substitute(subject []uint16, offset int, md *MatchData, options uint32, replacement, out []uint16) SubstituteResult {
	fail := func(code int) SubstituteResult {
		return SubstituteResult{Count: code}
	}
	if options&^substituteOptions != 0 ||
		options&SubstituteLiteral != 0 && options&SubstituteExtended != 0 {
		return fail(ErrBadOption)
	}
	if md == nil {
		md = c.NewMatchData()
	}
	idx, start, rc := prepareSubject(subject, offset, options)
	if rc != 0 {
		return fail(rc)
	}
	if options&NoUTFCheck == 0 {
		if code, _ := validateUTF16(replacement); code != 0 {
			return fail(code)
		}
	}

	var tmpl []repNode
	tmplErr := 0
	if options&SubstituteLiteral != 0 {
		tmpl = []repNode{{kind: repLiteral, text: replacement}}
	} else {
		p := repParser{
			src:      replacement,
			extended: options&SubstituteExtended != 0,
			code:     c,
		}
		tmpl, tmplErr = p.parse("")
		if tmplErr == 0 && p.pos < len(p.src) {
			tmplErr = ErrBadReplacement
		}
	}

	w := subWriter{
		out:      out,
		overflow: options&SubstituteOverflowLength != 0,
	}
	replacementOnly := options&SubstituteReplacementOnly != 0
	anchored := options&Anchored != 0
	copied, pos, count := 0, start, 0
	// set after an empty match: retry at the same place for a non-empty one
	retry := false
	for {
		switch {
		case count == 0 && options&SubstituteMatched != 0:
			rc = md.rc
			if rc >= 0 && md.ovector[0] == Unset {
				rc = ErrNoMatch
			}
		case retry:
			rc = c.execNotEmpty(idx, pos, md)
			if rc == ErrNoMatch {
				// step over one character
				at, next := idx.unitAt(pos), idx.unitAt(pos+1)
				if !replacementOnly {
					w.write(subject[at:next])
				}
				copied = next
				pos++
				rc = c.exec(idx, pos, md, anchored)
			}
		default:
			rc = c.exec(idx, pos, md, anchored)
		}
		retry = false
		if rc == ErrNoMatch {
			break
		}
		if rc < 0 {
			return fail(rc)
		}
		if tmplErr != 0 {
			return fail(tmplErr)
		}

		ms, me := int(md.ovector[0]), int(md.ovector[1])
		if !replacementOnly && ms > copied {
			w.write(subject[copied:ms])
		}
		w.resetCase()
		if code := w.expand(tmpl, subject, md, options); code != 0 {
			return fail(code)
		}
		count++
		copied = max(copied, me)
		if options&SubstituteGlobal == 0 {
			break
		}
		if ms == me {
			if me >= len(subject) {
				break
			}
			retry = true
		}
		pos, _ = idx.runeAt(me)
	}
	if !replacementOnly {
		w.write(subject[copied:])
	}

	if !w.full && w.n < len(out) {
		out[w.n] = 0
		return SubstituteResult{Length: w.n, Count: count}
	}
	if w.overflow {
		return SubstituteResult{Length: w.n + 1, Count: ErrNoMemory}
	}
	return fail(ErrNoMemory)
}

type caseMode uint8

const (
	caseNone caseMode = iota
	caseUpper
	caseLower
)

func (m caseMode) apply(r rune) rune {
	switch m {
	case caseUpper:
		return unicode.ToUpper(r)
	case caseLower:
		return unicode.ToLower(r)
	}
	return r
}

// subWriter accumulates output. Once the buffer is full nothing more is
// written, but n keeps counting so the needed size can be reported.
type subWriter struct {
	out      []uint16
	n        int
	overflow bool
	full     bool

	// \u or \l, for the next character only
	once caseMode
	// \U or \L, until \E
	until caseMode
}

func (w *subWriter) write(units []uint16) {
	if !w.full && w.n+len(units) > len(w.out) {
		w.full = true
	}
	if !w.full {
		copy(w.out[w.n:], units)
	}
	w.n += len(units)
}

func (w *subWriter) resetCase() {
	w.once, w.until = caseNone, caseNone
}

func (w *subWriter) setCase(op uint16) {
	switch op {
	case 'u':
		w.once = caseUpper
	case 'l':
		w.once = caseLower
	case 'U':
		w.until = caseUpper
	case 'L':
		w.until = caseLower
	case 'E':
		w.until = caseNone
	}
}

func (w *subWriter) writeCased(units []uint16) {
	if w.once == caseNone && w.until == caseNone {
		w.write(units)
		return
	}
	src := source{units: units}
	var buf []uint16
	for !src.atEnd() {
		at := src.pos
		r, _ := src.next()
		if src.pos-at == 1 && (isHighSurrogate(r) || isLowSurrogate(r)) {
			// lone surrogate, kept as is
			buf = append(buf, units[at])
			continue
		}
		if w.once != caseNone {
			r = w.once.apply(r)
			w.once = caseNone
		} else {
			r = w.until.apply(r)
		}
		buf = utf16.AppendRune(buf, r)
	}
	w.write(buf)
}

func (w *subWriter) expand(nodes []repNode, subject []uint16, md *MatchData, options uint32) int {
	for _, n := range nodes {
		switch n.kind {
		case repLiteral:
			w.writeCased(n.text)
		case repCase:
			w.setCase(n.caseOp)
		case repGroup:
			start, end, set, code := groupSpan(n.group, md, options)
			if code != 0 {
				return code
			}
			if !set {
				if options&SubstituteUnsetEmpty == 0 {
					return ErrUnset
				}
				continue
			}
			w.writeCased(subject[start:end])
		case repCondition:
			start, end, set, code := groupSpan(n.group, md, options)
			if code != 0 {
				return code
			}
			var branch []repNode
			switch {
			case set && n.cond == '-':
				w.writeCased(subject[start:end])
				continue
			case set:
				branch = n.set
			default:
				branch = n.unset
			}
			if code := w.expand(branch, subject, md, options); code != 0 {
				return code
			}
		}
	}
	return 0
}

// groupSpan looks up group i in md. An unknown group is an error unless
// SubstituteUnknownUnset treats it as unset.
func groupSpan(i int, md *MatchData, options uint32) (start, end int, set bool, code int) {
	if i < 0 || i >= md.OvectorCount() {
		if options&SubstituteUnknownUnset == 0 {
			return 0, 0, false, ErrNoSubstring
		}
		return 0, 0, false, 0
	}
	start, end, set = md.Group(i)
	return start, end, set, 0
}

type repKind uint8

const (
	repLiteral repKind = iota
	repGroup
	repCase
	repCondition
)

type repNode struct {
	kind repKind
	text []uint16
	// group number, -1 for a group the pattern does not have
	group  int
	caseOp uint16
	// '-' for ${n:-default}, '+' for ${n:+set:unset}
	cond       uint16
	set, unset []repNode
}

type repParser struct {
	src      []uint16
	pos      int
	extended bool
	code     *Code
}

// parse reads a replacement template up to the end of input or, for the
// nested parts of a conditional substitution, one of the stop characters.
func (p *repParser) parse(stops string) ([]repNode, int) {
	var nodes []repNode
	var lit []uint16
	flush := func() {
		if len(lit) > 0 {
			nodes = append(nodes, repNode{kind: repLiteral, text: lit})
			lit = nil
		}
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if stops != "" && strings.ContainsRune(stops, rune(c)) {
			break
		}
		switch {
		case c == '$':
			node, code := p.parseDollar()
			if code != 0 {
				return nil, code
			}
			if node != nil {
				flush()
				nodes = append(nodes, *node)
			}
		case c == '\\' && p.extended:
			p.pos++
			if p.pos == len(p.src) {
				return nil, ErrBadRepEscape
			}
			switch e := p.src[p.pos]; e {
			case 'u', 'l', 'U', 'L', 'E':
				flush()
				nodes = append(nodes, repNode{kind: repCase, caseOp: e})
				p.pos++
			default:
				var code int
				if lit, code = p.parseEscape(lit); code != 0 {
					return nil, code
				}
			}
		default:
			lit = append(lit, c)
			p.pos++
		}
	}
	flush()
	return nodes, 0
}

func isWordUnit(c uint16) bool {
	return c < 0x80 && (isDigit(c) || c == '_' || (c|0x20)-'a' <= 'z'-'a')
}

// parseDollar is entered on a "$". It returns nil for marks, which this
// engine never sets.
func (p *repParser) parseDollar() (*repNode, int) {
	p.pos++
	if p.pos == len(p.src) {
		return nil, ErrBadReplacement
	}
	c := p.src[p.pos]
	switch {
	case c == '$':
		p.pos++
		return &repNode{kind: repLiteral, text: []uint16{'$'}}, 0
	case c == '*':
		p.pos++
		p.skipWord()
		return nil, 0
	case c == '{':
		p.pos++
		return p.parseBraced()
	case isWordUnit(c):
		n := p.parseRef()
		return &repNode{kind: repGroup, group: n}, 0
	}
	return nil, ErrBadReplacement
}

func (p *repParser) skipWord() int {
	start := p.pos
	for p.pos < len(p.src) && isWordUnit(p.src[p.pos]) {
		p.pos++
	}
	return start
}

// parseRef reads a group number or name and resolves it to a group
// number, -1 when the pattern has no such group.
func (p *repParser) parseRef() int {
	start := p.skipWord()
	ref := string(utf16.Decode(p.src[start:p.pos]))
	if isDigit(p.src[start]) {
		n, err := strconv.Atoi(ref)
		if err != nil {
			// digits followed by letters, e.g. "$1a"
			p.pos = start
			for p.pos < len(p.src) && isDigit(p.src[p.pos]) {
				p.pos++
			}
			n, err = strconv.Atoi(string(utf16.Decode(p.src[start:p.pos])))
			if err != nil {
				return -1
			}
		}
		if n > p.code.CaptureCount() {
			return -1
		}
		return n
	}
	return p.code.GroupNumber(ref)
}

// parseBraced is entered after "${".
func (p *repParser) parseBraced() (*repNode, int) {
	if p.pos < len(p.src) && p.src[p.pos] == '*' {
		p.pos++
		p.skipWord()
		if p.pos == len(p.src) || p.src[p.pos] != '}' {
			return nil, ErrRepMissingBrace
		}
		p.pos++
		return nil, 0
	}
	if p.pos == len(p.src) || !isWordUnit(p.src[p.pos]) {
		return nil, ErrBadReplacement
	}
	n := p.parseRef()
	if p.pos == len(p.src) {
		return nil, ErrRepMissingBrace
	}
	switch p.src[p.pos] {
	case '}':
		p.pos++
		return &repNode{kind: repGroup, group: n}, 0
	case ':':
		if !p.extended || p.pos+1 == len(p.src) {
			return nil, ErrBadSubstitution
		}
	default:
		return nil, ErrRepMissingBrace
	}

	p.pos++
	node := &repNode{kind: repCondition, group: n, cond: p.src[p.pos]}
	p.pos++
	var code int
	switch node.cond {
	case '-':
		node.unset, code = p.parse("}")
	case '+':
		if node.set, code = p.parse(":}"); code == 0 && p.pos < len(p.src) && p.src[p.pos] == ':' {
			p.pos++
			node.unset, code = p.parse("}")
		}
	default:
		return nil, ErrBadSubstitution
	}
	if code != 0 {
		return nil, code
	}
	if p.pos == len(p.src) || p.src[p.pos] != '}' {
		return nil, ErrRepMissingBrace
	}
	p.pos++
	return node, 0
}

// parseEscape is entered on the character after a backslash in extended
// mode and appends the character it denotes to lit.
func (p *repParser) parseEscape(lit []uint16) ([]uint16, int) {
	c := p.src[p.pos]
	p.pos++
	switch c {
	case 'a':
		return append(lit, 7), 0
	case 'e':
		return append(lit, 27), 0
	case 'f':
		return append(lit, '\f'), 0
	case 'n':
		return append(lit, '\n'), 0
	case 'r':
		return append(lit, '\r'), 0
	case 't':
		return append(lit, '\t'), 0
	case 'x', 'o':
		base := 8
		if c == 'x' {
			base = 16
		}
		var digits string
		if p.pos < len(p.src) && p.src[p.pos] == '{' {
			end := p.pos + 1
			for end < len(p.src) && p.src[end] != '}' {
				end++
			}
			if end == len(p.src) {
				return nil, ErrBadRepEscape
			}
			digits = string(utf16.Decode(p.src[p.pos+1 : end]))
			p.pos = end + 1
		} else if c == 'x' {
			start := p.pos
			for p.pos < len(p.src) && p.pos-start < 2 && isHexDigit(p.src[p.pos]) {
				p.pos++
			}
			digits = string(utf16.Decode(p.src[start:p.pos]))
			if digits == "" {
				return append(lit, 0), 0
			}
		} else {
			return nil, ErrBadRepEscape
		}
		v, err := strconv.ParseUint(digits, base, 32)
		if err != nil || v > unicode.MaxRune || v >= 0xd800 && v <= 0xdfff {
			return nil, ErrBadRepEscape
		}
		return utf16.AppendRune(lit, rune(v)), 0
	case '0', '1', '2', '3', '4', '5', '6', '7':
		v := rune(c - '0')
		for i := 0; i < 2 && p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '7'; i++ {
			v = v*8 + rune(p.src[p.pos]-'0')
			p.pos++
		}
		return utf16.AppendRune(lit, v), 0
	}
	if isWordUnit(c) {
		return nil, ErrBadRepEscape
	}
	return append(lit, c), 0
}
