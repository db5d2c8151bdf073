package regbridge

import (
	"strconv"
	"strings"
	"unicode"
)

// PCRE2 limits names to 32 code units.
const maxNameLen = 32

type captureGroup struct {
	name string
	// offset of the opening parenthesis
	offset int
}

type refKind uint8

const (
	refBackslash refKind = iota
	refCondition
)

// reference is a back reference or condition whose group number is only
// known once the whole pattern has been scanned.
type reference struct {
	piece  int
	kind   refKind
	name   string
	number int
	// digits of a plain \NN reference; when no such group exists and
	// NN >= 10 they are read as an octal escape instead.
	digits string
	offset int
}

// outPos is a position in the rewritten expression: an offset into
// pieces[piece], or into the builder while piece == len(pieces).
type outPos struct {
	piece, off int
}

var noAtom = outPos{piece: -1}

// frame is an open group.
type frame struct {
	// extended state to restore at the closing parenthesis
	extended bool
	start    outPos
}

// scanner walks a UTF-16 pattern once. It numbers capture groups by their
// opening parenthesis, validates names and references, and rewrites the
// pattern into the engine's dialect. Named groups are emitted unnamed and
// named references are emitted by number, so the engine's own numbering
// equals the left-to-right numbering reported to callers.
type scanner struct {
	src      source
	extended bool
	frames   []frame
	// start of the most recent quantifiable item, noAtom if none
	atom   outPos
	groups []captureGroup
	names  map[string]int
	refs   []reference
	pieces []string
	b      strings.Builder
}

type scanResult struct {
	expr   string
	groups []captureGroup
}

func scanPattern(pattern []uint16, options Option) (*scanResult, error) {
	if code, offset := validateUTF16(pattern); code != 0 {
		return nil, newCompileError(code, offset)
	}
	s := scanner{
		src:      source{units: pattern},
		extended: options&Extended != 0,
		names:    map[string]int{},
		atom:     noAtom,
	}
	if err := s.scan(); err != nil {
		return nil, err
	}
	s.pieces = append(s.pieces, s.b.String())
	return &scanResult{
		expr:   strings.Join(s.pieces, ""),
		groups: s.groups,
	}, nil
}

func (s *scanner) emit(str string) {
	s.b.WriteString(str)
}

func (s *scanner) emitRune(r rune) {
	s.b.WriteRune(r)
}

func (s *scanner) emitRef(ref reference) {
	s.pieces = append(s.pieces, s.b.String())
	s.b.Reset()
	ref.piece = len(s.pieces)
	s.pieces = append(s.pieces, "")
	s.refs = append(s.refs, ref)
}

func (s *scanner) here() outPos {
	return outPos{piece: len(s.pieces), off: s.b.Len()}
}

// insertAt inserts str into the already emitted expression.
func (s *scanner) insertAt(at outPos, str string) {
	if at.piece == len(s.pieces) {
		cur := s.b.String()
		s.b.Reset()
		s.b.WriteString(cur[:at.off])
		s.b.WriteString(str)
		s.b.WriteString(cur[at.off:])
		return
	}
	p := s.pieces[at.piece]
	s.pieces[at.piece] = p[:at.off] + str + p[at.off:]
}

func (s *scanner) push() {
	s.frames = append(s.frames, frame{extended: s.extended, start: s.here()})
}

func (s *scanner) scan() error {
	for !s.src.atEnd() {
		start := s.src.pos
		c := s.src.units[start]
		var err error
		switch {
		case c == '\\':
			s.atom = s.here()
			err = s.scanEscape(false)
		case c == '[':
			s.atom = s.here()
			err = s.scanClass()
		case c == '(':
			err = s.scanGroup()
		case c == ')':
			if len(s.frames) == 0 {
				return newCompileError(ErrUnmatchedClosingParen, start)
			}
			f := s.frames[len(s.frames)-1]
			s.frames = s.frames[:len(s.frames)-1]
			s.extended = f.extended
			s.atom = f.start
			s.src.pos++
			s.emit(")")
		case c == '#' && s.extended:
			for !s.src.atEnd() && s.src.units[s.src.pos] != '\n' {
				s.src.pos++
			}
		case c == '|':
			s.atom = noAtom
			s.src.pos++
			s.emit("|")
		case c == '*' || c == '+' || c == '?':
			s.scanQuantifier(start + 1)
		case c == '{' && s.quantifierEnd() > 0:
			s.scanQuantifier(s.quantifierEnd())
		case s.extended && isPatternSpace(c):
			s.src.pos++
			s.emitRune(rune(c))
		default:
			s.atom = s.here()
			r, _ := s.src.next()
			s.emitRune(r)
		}
		if err != nil {
			return err
		}
	}
	if len(s.frames) > 0 {
		return newCompileError(ErrMissingClosingParen, len(s.src.units))
	}
	return s.resolve()
}

// quantifierEnd returns the offset just past a {n}, {n,} or {n,m} at the
// cursor, or 0 when the brace is a literal.
func (s *scanner) quantifierEnd() int {
	units := s.src.units
	i := s.src.pos + 1
	digits := func() int {
		n := 0
		for i < len(units) && isDigit(units[i]) {
			i++
			n++
		}
		return n
	}
	if digits() == 0 {
		return 0
	}
	if i < len(units) && units[i] == ',' {
		i++
		digits()
	}
	if i >= len(units) || units[i] != '}' {
		return 0
	}
	return i + 1
}

// scanQuantifier copies the quantifier ending at end with its lazy or
// possessive suffix. A possessive quantifier wraps its item in an atomic
// group, X*+ becoming (?>X*).
func (s *scanner) scanQuantifier(end int) {
	q := s.src.text(s.src.pos, end)
	s.src.pos = end
	atom := s.atom
	s.atom = noAtom
	switch {
	case atom != noAtom && s.src.consume('+'):
		s.insertAt(atom, "(?>")
		s.emit(q + ")")
	case s.src.consume('?'):
		s.emit(q + "?")
	default:
		s.emit(q)
	}
}

func isPatternSpace(c uint16) bool {
	return c == ' ' || c >= '\t' && c <= '\r'
}

func (s *scanner) resolve() error {
	for _, ref := range s.refs {
		n := ref.number
		if ref.name != "" {
			var ok bool
			if n, ok = s.names[ref.name]; !ok {
				return newCompileError(ErrBadSubpatternRef, ref.offset)
			}
		} else if n < 1 || n > len(s.groups) {
			if ref.kind == refBackslash && n >= 10 && ref.digits != "" {
				s.pieces[ref.piece] = octalFallback(ref.digits)
				continue
			}
			return newCompileError(ErrBadSubpatternRef, ref.offset)
		}
		num := strconv.Itoa(n)
		switch ref.kind {
		case refBackslash:
			s.pieces[ref.piece] = `(?:\` + num + `)`
		case refCondition:
			s.pieces[ref.piece] = `(?(` + num + `)`
		}
	}
	return nil
}

func unsupported(offset int, detail string) CompileError {
	return CompileError{Code: ErrEngine, Offset: offset, Detail: detail}
}

// scanGroup handles everything that starts with "(".
func (s *scanner) scanGroup() error {
	start := s.src.pos
	s.src.pos++
	c, _ := s.src.peek(0)
	switch c {
	case '*':
		return unsupported(start, "backtracking control verbs are not supported")
	case '?':
		s.src.pos++
		return s.scanQuestionGroup(start)
	}
	return s.capture(start, "")
}

func (s *scanner) capture(offset int, name string) error {
	if name != "" {
		if _, dup := s.names[name]; dup {
			return newCompileError(ErrDuplicateName, offset)
		}
		s.names[name] = len(s.groups) + 1
	}
	s.groups = append(s.groups, captureGroup{name: name, offset: offset})
	s.push()
	s.emit("(")
	return nil
}

func (s *scanner) namedCapture(closer uint16) error {
	nameStart := s.src.pos
	name, err := s.parseName(closer)
	if err != nil {
		return err
	}
	return s.capture(nameStart, name)
}

func (s *scanner) scanQuestionGroup(start int) error {
	c, ended := s.src.peek(0)
	if ended {
		return newCompileError(ErrUnrecognizedAfterQ, s.src.pos)
	}
	switch c {
	case '#':
		for {
			c, ended := s.src.peek(0)
			if ended {
				return newCompileError(ErrMissingCommentClose, len(s.src.units))
			}
			s.src.pos++
			if c == ')' {
				return nil
			}
		}
	case ':', '=', '!', '>':
		s.src.pos++
		s.push()
		s.emit("(?" + string(rune(c)))
		return nil
	case '|':
		return unsupported(start, "branch reset groups are not supported")
	case '<':
		if n, _ := s.src.peek(1); n == '=' || n == '!' {
			s.src.pos += 2
			s.push()
			s.emit("(?<" + string(rune(n)))
			return nil
		}
		s.src.pos++
		return s.namedCapture('>')
	case '\'':
		s.src.pos++
		return s.namedCapture('\'')
	case 'P':
		n, _ := s.src.peek(1)
		switch n {
		case '<':
			s.src.pos += 2
			return s.namedCapture('>')
		case '=':
			s.src.pos += 2
			name, err := s.parseName(')')
			if err != nil {
				return err
			}
			s.emitRef(reference{kind: refBackslash, name: name, offset: start})
			return nil
		case '>':
			return unsupported(start, "subroutine calls are not supported")
		}
		return newCompileError(ErrUnrecognizedAfterQ, s.src.pos+1)
	case '(':
		s.src.pos++
		return s.scanCondition(start)
	case 'R', '&', '+':
		return unsupported(start, "recursion and subroutine calls are not supported")
	case 'C':
		s.src.pos++
		return s.skipCallout()
	}
	if isDigit(c) {
		return unsupported(start, "recursion and subroutine calls are not supported")
	}
	if n, _ := s.src.peek(1); c == '-' && isDigit(n) {
		return unsupported(start, "recursion and subroutine calls are not supported")
	}
	return s.scanInlineOptions()
}

// skipCallout drops a callout, (?C), (?Cn) or (?C"text"). No callout
// function is ever registered, so callouts never run.
func (s *scanner) skipCallout() error {
	c, ended := s.src.peek(0)
	switch {
	case ended:
		return newCompileError(ErrCalloutNoClose, s.src.pos)
	case isDigit(c):
		n, _ := s.parseDecimalDigits()
		if n > 255 {
			return newCompileError(ErrCalloutNumberTooBig, s.src.pos)
		}
	case c == '{' || strings.ContainsRune("`'\"^%#$", rune(c)):
		closer := c
		if c == '{' {
			closer = '}'
		}
		s.src.pos++
		for {
			d, ended := s.src.peek(0)
			if ended {
				return newCompileError(ErrCalloutStringEnd, s.src.pos)
			}
			s.src.pos++
			if d != closer {
				continue
			}
			// a doubled delimiter stands for itself
			if n, _ := s.src.peek(0); n == closer && closer != '}' {
				s.src.pos++
				continue
			}
			break
		}
	case c != ')':
		return newCompileError(ErrCalloutBadDelimiter, s.src.pos)
	}
	if !s.src.consume(')') {
		return newCompileError(ErrCalloutNoClose, s.src.pos)
	}
	return nil
}

// scanInlineOptions handles (?imsx-imsx) and (?imsx-imsx: ...).
func (s *scanner) scanInlineOptions() error {
	ext := s.extended
	on := true
	optStart := s.src.pos
	for {
		c, ended := s.src.peek(0)
		if ended {
			return newCompileError(ErrMissingClosingParen, len(s.src.units))
		}
		switch c {
		case 'i', 'm', 's':
		case 'x':
			ext = on
		case '-':
			if !on {
				return newCompileError(ErrUnrecognizedAfterQ, s.src.pos)
			}
			on = false
		case ')':
			opts := s.src.text(optStart, s.src.pos)
			s.src.pos++
			s.extended = ext
			if opts != "" {
				s.emit("(?" + opts + ")")
			}
			return nil
		case ':':
			opts := s.src.text(optStart, s.src.pos)
			s.src.pos++
			s.push()
			s.extended = ext
			s.emit("(?" + opts + ":")
			return nil
		default:
			return newCompileError(ErrUnrecognizedAfterQ, s.src.pos)
		}
		s.src.pos++
	}
}

// scanCondition is entered after "(?(".
func (s *scanner) scanCondition(start int) error {
	s.push()
	c, ended := s.src.peek(0)
	if ended {
		return newCompileError(ErrMissingClosingParen, len(s.src.units))
	}
	switch {
	case c == '?' || c == '*':
		// assertion condition: the inner group is scanned on its own
		s.src.pos--
		s.emit("(?")
		return nil
	case c == '<' || c == '\'':
		closer := uint16('>')
		if c == '\'' {
			closer = '\''
		}
		s.src.pos++
		name, err := s.parseName(closer)
		if err != nil {
			return err
		}
		if !s.src.consume(')') {
			return newCompileError(ErrMissingConditionParen, s.src.pos)
		}
		s.emitRef(reference{kind: refCondition, name: name, offset: start})
		return nil
	case isDigit(c) || c == '+' || c == '-':
		n, err := s.parseGroupNumber(start)
		if err != nil {
			return err
		}
		if !s.src.consume(')') {
			return newCompileError(ErrMissingConditionParen, s.src.pos)
		}
		s.emitRef(reference{kind: refCondition, number: n, offset: start})
		return nil
	case c == 'R':
		return unsupported(start, "recursion conditions are not supported")
	}
	name, err := s.parseName(')')
	if err != nil {
		return err
	}
	if name == "DEFINE" {
		return unsupported(start, "DEFINE groups are not supported")
	}
	s.emitRef(reference{kind: refCondition, name: name, offset: start})
	return nil
}

// parseGroupNumber reads an absolute or signed relative group number.
// Relative numbers count from the most recently opened group.
func (s *scanner) parseGroupNumber(refStart int) (int, error) {
	sign, _ := s.src.peek(0)
	if sign == '+' || sign == '-' {
		s.src.pos++
	}
	k, ok := s.parseDecimalDigits()
	if !ok {
		return 0, newCompileError(ErrBackslashGSyntax, s.src.pos)
	}
	switch sign {
	case '-':
		n := len(s.groups) - k + 1
		if k == 0 || n < 1 {
			return 0, newCompileError(ErrBadSubpatternRef, refStart)
		}
		return n, nil
	case '+':
		if k == 0 {
			return 0, newCompileError(ErrBadSubpatternRef, refStart)
		}
		return len(s.groups) + k, nil
	}
	return k, nil
}

// If number is valid, returns n, true
func (s *scanner) parseDecimalDigits() (int, bool) {
	c, ended := s.src.peek(0)
	if ended || !isDigit(c) {
		return 0, false
	}
	n := 0
	for ; !ended && isDigit(c); c, ended = s.src.peek(0) {
		s.src.pos++
		if n < 1<<20 {
			n = n*10 + int(c-'0')
		}
	}
	return n, true
}

func isDigit(c uint16) bool {
	return (c - '0') <= 9
}

func isHexDigit(c uint16) bool {
	return isDigit(c) || (c|0x20)-'a' <= 'f'-'a'
}

func hexValue(c uint16) int {
	if isDigit(c) {
		return int(c - '0')
	}
	return int((c|0x20)-'a') + 10
}

func isNameChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// parseName reads a group name up to and including closer.
func (s *scanner) parseName(closer uint16) (string, error) {
	start := s.src.pos
	for {
		at := s.src.pos
		if s.src.consume(closer) {
			switch {
			case at == start:
				return "", newCompileError(ErrNameExpected, at)
			case at-start > maxNameLen:
				return "", newCompileError(ErrNameTooLong, start)
			}
			return s.src.text(start, at), nil
		}
		r, ok := s.src.next()
		switch {
		case !ok:
			return "", newCompileError(ErrSubpatternNameSyntax, at)
		case at == start && unicode.IsDigit(r):
			return "", newCompileError(ErrNameStartsWithDigit, at)
		case at == start && !isNameChar(r):
			return "", newCompileError(ErrNameExpected, at)
		case !isNameChar(r):
			return "", newCompileError(ErrSubpatternNameSyntax, at)
		}
	}
}

// PCRE horizontal and vertical white space.
const (
	hSpace = `\t\x20\xa0\u1680\u180e\u2000-\u200a\u202f\u205f\u3000`
	vSpace = `\n\x0b\f\r\x85\u2028\u2029`
)

// scanEscape is entered with the cursor on a backslash.
func (s *scanner) scanEscape(inClass bool) error {
	start := s.src.pos
	s.src.pos++
	c, ended := s.src.peek(0)
	if ended {
		return newCompileError(ErrEndBackslash, len(s.src.units))
	}
	switch c {
	case 'Q':
		s.src.pos++
		litStart := s.src.pos
		end := len(s.src.units)
		for i := litStart; i+1 < len(s.src.units); i++ {
			if s.src.units[i] == '\\' && s.src.units[i+1] == 'E' {
				end = i
				break
			}
		}
		text := []rune(s.src.text(litStart, end))
		s.src.pos = min(end+2, len(s.src.units))
		if inClass {
			s.emit(quoteLiteral(string(text)))
			return nil
		}
		// a following quantifier applies to the last quoted character
		s.atom = noAtom
		if len(text) > 0 {
			s.emit(quoteLiteral(string(text[:len(text)-1])))
			s.atom = s.here()
			s.emit(quoteRune(text[len(text)-1]))
		}
	case 'E':
		s.src.pos++
		if !inClass {
			s.atom = noAtom
		}
	case 'x', 'o':
		n, _ := s.src.peek(1)
		if c == 'x' && n != '{' {
			// \x with up to two hex digits
			s.src.pos++
			v := 0
			for i := 0; i < 2; i++ {
				d, ended := s.src.peek(0)
				if ended || !isHexDigit(d) {
					break
				}
				v = v*16 + hexValue(d)
				s.src.pos++
			}
			s.emit(quoteRune(rune(v)))
			return nil
		}
		if n != '{' {
			s.passEscape()
			return nil
		}
		r, err := s.parseBracedCodePoint(c == 'x')
		if err != nil {
			return err
		}
		s.emit(quoteRune(r))
	case '0':
		s.src.pos++
		v := 0
		for i := 0; i < 2; i++ {
			d, ended := s.src.peek(0)
			if ended || d < '0' || d > '7' {
				break
			}
			v = v*8 + int(d-'0')
			s.src.pos++
		}
		s.emit(quoteRune(rune(v)))
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		if inClass {
			digitsStart := s.src.pos
			for i := 0; i < 3; i++ {
				if d, ended := s.src.peek(0); ended || !isDigit(d) {
					break
				}
				s.src.pos++
			}
			s.emit(octalFallback(s.src.text(digitsStart, s.src.pos)))
			return nil
		}
		digitsStart := s.src.pos
		n, _ := s.parseDecimalDigits()
		s.emitRef(reference{
			kind:   refBackslash,
			number: n,
			digits: s.src.text(digitsStart, s.src.pos),
			offset: start,
		})
	case 'k':
		if inClass {
			return newCompileError(ErrEscapeInvalidInClass, start)
		}
		s.src.pos++
		open, _ := s.src.peek(0)
		var closer uint16
		switch open {
		case '<':
			closer = '>'
		case '\'':
			closer = '\''
		case '{':
			closer = '}'
		default:
			return newCompileError(ErrBackslashKSyntax, s.src.pos)
		}
		s.src.pos++
		name, err := s.parseName(closer)
		if err != nil {
			return err
		}
		s.emitRef(reference{kind: refBackslash, name: name, offset: start})
	case 'g':
		if inClass {
			return newCompileError(ErrEscapeInvalidInClass, start)
		}
		s.src.pos++
		return s.scanBackslashG(start)
	case 'c':
		if n, ended := s.src.peek(1); ended || n > 0x7f {
			return newCompileError(ErrEndBackslashC, len(s.src.units))
		}
		s.emit(`\c`)
		s.src.pos++
		r, _ := s.src.next()
		s.emitRune(r)
	case 'N':
		if inClass {
			return newCompileError(ErrEscapeInvalidInClass, start)
		}
		if n, _ := s.src.peek(1); n == '{' {
			return unsupported(start, `\N{...} is not supported`)
		}
		s.src.pos++
		s.emit(`[^\n]`)
	case 'h', 'v':
		s.src.pos++
		set := hSpace
		if c == 'v' {
			set = vSpace
		}
		if inClass {
			s.emit(set)
		} else {
			s.emit("[" + set + "]")
		}
	case 'H', 'V', 'R':
		if inClass {
			if c == 'R' {
				return newCompileError(ErrEscapeInvalidInClass, start)
			}
			return unsupported(start, `\H and \V are not supported inside a class`)
		}
		s.src.pos++
		switch c {
		case 'H':
			s.emit("[^" + hSpace + "]")
		case 'V':
			s.emit("[^" + vSpace + "]")
		default:
			s.emit(`(?:\r\n|[` + vSpace + `])`)
		}
	case 'd', 'D', 'w', 'W', 's', 'S':
		s.src.pos++
		set := map[uint16]runeRanges{'d': digitRanges, 'w': wordRanges, 's': spaceRanges}[c|0x20]
		if c < 'a' {
			set = set.complement()
		}
		if inClass {
			s.emit(set.classBody())
		} else {
			s.emit("[" + set.classBody() + "]")
		}
	case 'b', 'B':
		if inClass {
			// backspace
			s.passEscape()
			return nil
		}
		s.src.pos++
		s.atom = noAtom
		w := "[" + wordRanges.classBody() + "]"
		if c == 'b' {
			s.emit("(?:(?<=" + w + ")(?!" + w + ")|(?<!" + w + ")(?=" + w + "))")
		} else {
			s.emit("(?:(?<=" + w + ")(?=" + w + ")|(?<!" + w + ")(?!" + w + "))")
		}
	case 'K', 'X', 'C':
		return unsupported(start, `\`+string(rune(c))+` is not supported`)
	default:
		s.passEscape()
	}
	return nil
}

// passEscape copies a backslash and the letter or digit after it
// unchanged. Any other escaped character is a literal.
func (s *scanner) passEscape() {
	r, _ := s.src.next()
	if r < 0x80 && (r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
		s.emit(`\`)
		s.emitRune(r)
		return
	}
	s.emit(quoteRune(r))
}

// scanBackslashG is entered after "\g".
func (s *scanner) scanBackslashG(start int) error {
	c, ended := s.src.peek(0)
	if ended {
		return newCompileError(ErrBackslashGSyntax, s.src.pos)
	}
	switch {
	case c == '<' || c == '\'':
		return unsupported(start, "subroutine calls are not supported")
	case c == '{':
		s.src.pos++
		if n, _ := s.src.peek(0); isDigit(n) || n == '+' || n == '-' {
			num, err := s.parseGroupNumber(start)
			if err != nil {
				return err
			}
			if !s.src.consume('}') {
				return newCompileError(ErrBackslashGSyntax, s.src.pos)
			}
			s.emitRef(reference{kind: refBackslash, number: num, offset: start})
			return nil
		}
		name, err := s.parseName('}')
		if err != nil {
			return err
		}
		s.emitRef(reference{kind: refBackslash, name: name, offset: start})
		return nil
	case isDigit(c) || c == '+' || c == '-':
		num, err := s.parseGroupNumber(start)
		if err != nil {
			return err
		}
		s.emitRef(reference{kind: refBackslash, number: num, offset: start})
		return nil
	}
	return newCompileError(ErrBackslashGSyntax, s.src.pos)
}

// parseBracedCodePoint reads \x{hhh} or \o{ooo}; the cursor is on x or o.
func (s *scanner) parseBracedCodePoint(hex bool) (rune, error) {
	s.src.pos += 2
	base := 8
	if hex {
		base = 16
	}
	digitsStart := s.src.pos
	for {
		c, ended := s.src.peek(0)
		if ended {
			return 0, newCompileError(ErrMissingDigits, s.src.pos)
		}
		if c == '}' {
			break
		}
		s.src.pos++
	}
	digits := s.src.text(digitsStart, s.src.pos)
	s.src.pos++
	if digits == "" {
		return 0, newCompileError(ErrMissingDigits, digitsStart)
	}
	v, err := strconv.ParseUint(digits, base, 32)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, newCompileError(ErrCodePointTooBig, digitsStart)
		}
		return 0, newCompileError(ErrMissingDigits, digitsStart)
	}
	switch {
	case v > unicode.MaxRune:
		return 0, newCompileError(ErrCodePointTooBig, digitsStart)
	case v >= 0xd800 && v <= 0xdfff:
		return 0, newCompileError(ErrSurrogateCodePoint, digitsStart)
	}
	return rune(v), nil
}

func (s *scanner) scanClass() error {
	if n, _ := s.src.peek(1); n == ':' {
		if end := s.posixClassEnd(s.src.pos); end > 0 {
			return newCompileError(ErrPosixOutsideClass, s.src.pos)
		}
	}
	s.src.pos++
	s.emit("[")
	if s.src.consume('^') {
		s.emit("^")
	}
	if s.src.consume(']') {
		s.emit(`\]`)
	}
	for {
		c, ended := s.src.peek(0)
		if ended {
			return newCompileError(ErrMissingSquareBracket, len(s.src.units))
		}
		switch c {
		case ']':
			s.src.pos++
			s.emit("]")
			return nil
		case '\\':
			if err := s.scanEscape(true); err != nil {
				return err
			}
		case '[':
			n, _ := s.src.peek(1)
			if n == '.' || n == '=' {
				return newCompileError(ErrPosixCollating, s.src.pos)
			}
			if n == ':' {
				if end := s.posixClassEnd(s.src.pos); end > 0 {
					if err := s.emitPosixClass(end); err != nil {
						return err
					}
					continue
				}
			}
			// keep "[" literal, the engine would read "-[" as subtraction
			s.src.pos++
			s.emit(`\[`)
		default:
			r, _ := s.src.next()
			s.emitRune(r)
		}
	}
}

// posixClassEnd returns the offset of the ":" closing a "[:name:]" that
// starts at at, or 0 when there is none.
func (s *scanner) posixClassEnd(at int) int {
	units := s.src.units
	i := at + 2
	if i < len(units) && units[i] == '^' {
		i++
	}
	for i < len(units) && units[i] >= 'a' && units[i] <= 'z' {
		i++
	}
	if i+1 >= len(units) || units[i] != ':' || units[i+1] != ']' {
		return 0
	}
	return i
}

// runeRanges is a sorted list of inclusive code point ranges.
type runeRanges [][2]rune

// ASCII-only \d, \w and \s, as PCRE2 has them without UCP.
var (
	digitRanges = runeRanges{{'0', '9'}}
	wordRanges  = runeRanges{{'0', '9'}, {'A', 'Z'}, {'_', '_'}, {'a', 'z'}}
	spaceRanges = runeRanges{{'\t', '\r'}, {' ', ' '}}
)

var posixClasses = map[string]runeRanges{
	"alnum":  {{'0', '9'}, {'A', 'Z'}, {'a', 'z'}},
	"alpha":  {{'A', 'Z'}, {'a', 'z'}},
	"ascii":  {{0, 0x7f}},
	"blank":  {{'\t', '\t'}, {' ', ' '}},
	"cntrl":  {{0, 0x1f}, {0x7f, 0x7f}},
	"digit":  digitRanges,
	"graph":  {{0x21, 0x7e}},
	"lower":  {{'a', 'z'}},
	"print":  {{0x20, 0x7e}},
	"punct":  {{0x21, 0x2f}, {0x3a, 0x40}, {0x5b, 0x60}, {0x7b, 0x7e}},
	"space":  spaceRanges,
	"upper":  {{'A', 'Z'}},
	"word":   wordRanges,
	"xdigit": {{'0', '9'}, {'A', 'F'}, {'a', 'f'}},
}

func (rs runeRanges) complement() runeRanges {
	var res runeRanges
	next := rune(0)
	for _, r := range rs {
		if r[0] > next {
			res = append(res, [2]rune{next, r[0] - 1})
		}
		next = r[1] + 1
	}
	if next <= unicode.MaxRune {
		res = append(res, [2]rune{next, unicode.MaxRune})
	}
	return res
}

// classBody renders the ranges for use inside brackets.
func (rs runeRanges) classBody() string {
	var b strings.Builder
	for _, r := range rs {
		b.WriteString(quoteRune(r[0]))
		if r[1] != r[0] {
			b.WriteString("-")
			b.WriteString(quoteRune(r[1]))
		}
	}
	return b.String()
}

func (s *scanner) emitPosixClass(end int) error {
	at := s.src.pos
	name := s.src.text(at+2, end)
	negated := strings.HasPrefix(name, "^")
	name = strings.TrimPrefix(name, "^")
	set, ok := posixClasses[name]
	if !ok {
		return newCompileError(ErrUnknownPosixClass, at)
	}
	if negated {
		set = set.complement()
	}
	s.emit(set.classBody())
	s.src.pos = end + 2
	return nil
}

// quoteRune renders r so the engine reads it literally in any context,
// including inside a class and in extended mode.
func quoteRune(r rune) string {
	switch {
	case r < 0x80 && (r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_'):
		return string(r)
	case r > 0x20 && r < 0x7f:
		return `\` + string(r)
	case r <= 0xffff:
		h := strconv.FormatUint(uint64(r), 16)
		return `\u` + strings.Repeat("0", 4-len(h)) + h
	}
	return string(r)
}

func quoteLiteral(text string) string {
	var b strings.Builder
	for _, r := range text {
		b.WriteString(quoteRune(r))
	}
	return b.String()
}

// octalFallback reads up to three leading octal digits as a character and
// keeps the remaining digits literal.
func octalFallback(digits string) string {
	v, j := 0, 0
	for j < len(digits) && j < 3 && digits[j] <= '7' {
		v = v*8 + int(digits[j]-'0')
		j++
	}
	if j == 0 {
		return quoteLiteral(digits)
	}
	return quoteRune(rune(v)) + quoteLiteral(digits[j:])
}
