package regbridge

import (
	"slices"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/dlclark/regexp2"
)

// Code is a compiled pattern. It is immutable after Compile and holds the
// pattern's capture layout and name table.
type Code struct {
	re      *regexp2.Regexp
	options Option
	groups  []captureGroup
	// notEmpty matches only non-empty text starting exactly at the search
	// position. Built on first use.
	notEmpty func() *regexp2.Regexp

	nameCount     int
	nameEntrySize int
	nameTable     []uint16
}

// NameEntry is one decoded name-table entry.
type NameEntry struct {
	Group int
	Name  string
}

// Compile compiles a UTF-16 pattern with the given flag string (see
// ParseFlags). On failure the error is a CompileError carrying the error
// code and the code-unit offset into the pattern.
func Compile(pattern []uint16, flags []byte) (*Code, error) {
	options, err := ParseFlags(flags)
	if err != nil {
		return nil, err
	}
	return CompileOptions(pattern, options)
}

// CompileOptions is like Compile but takes already translated options.
func CompileOptions(pattern []uint16, options Option) (*Code, error) {
	scanned, err := scanPattern(pattern, options)
	if err != nil {
		return nil, err
	}
	re, err := regexp2.Compile(scanned.expr, options.engineOptions())
	if err != nil {
		return nil, CompileError{
			Code:   engineErrorCode(err.Error()),
			Offset: len(pattern),
			Detail: err.Error(),
		}
	}
	if n := len(re.GetGroupNumbers()) - 1; n != len(scanned.groups) {
		return nil, unsupported(len(pattern), "engine disagrees on the number of capture groups")
	}
	c := &Code{
		re:      re,
		options: options,
		groups:  scanned.groups,
	}
	c.notEmpty = sync.OnceValue(func() *regexp2.Regexp {
		// \G holds only at the search start, so (?!\G) rejects an empty match
		ne, err := regexp2.Compile(`\G(?:`+scanned.expr+`)(?!\G)`, options.engineOptions())
		if err != nil {
			return nil
		}
		return ne
	})
	c.buildNameTable()
	return c, nil
}

// MustCompile is like Compile but panics if the pattern cannot be
// compiled. It takes a Go string for convenience in tests and globals.
func MustCompile(pattern string, flags string) *Code {
	c, err := Compile(utf16.Encode([]rune(pattern)), []byte(flags))
	if err != nil {
		panic("regbridge: MustCompile(" + pattern + "): " + err.Error())
	}
	return c
}

var engineErrors = []struct {
	fragment string
	code     int
}{
	{"illegal \\ at end of pattern", ErrEndBackslash},
	{"missing control character", ErrEndBackslashC},
	{"unrecognized escape", ErrUnknownEscape},
	{"unrecognized control", ErrUnknownEscape},
	{"unterminated [] set", ErrMissingSquareBracket},
	{"range in reverse order", ErrClassRangeOrder},
	{"invalid repeat count", ErrQuantifierOutOfOrder},
	{"quantif", ErrQuantifierInvalid},
	{"repetition", ErrQuantifierInvalid},
	{"missing closing )", ErrMissingClosingParen},
	{"unexpected )", ErrUnmatchedClosingParen},
	{"too many )", ErrUnmatchedClosingParen},
	{"reference to undefined group", ErrBadSubpatternRef},
	{"unrecognized grouping construct", ErrUnrecognizedAfterQ},
	{"unknown unicode", ErrUnknownUnicodeProp},
	{"\\p{x}", ErrMalformedUnicodeProp},
}

// engineErrorCode maps the engine's error text onto the closest compile
// error code.
func engineErrorCode(text string) int {
	text = strings.ToLower(text)
	for _, e := range engineErrors {
		if strings.Contains(text, e.fragment) {
			return e.code
		}
	}
	return ErrEngine
}

// buildNameTable lays out named groups the way PCRE2's 16-bit library
// does: fixed-size entries sorted by name, each holding the group number,
// the name and a NUL, padded with NULs.
func (c *Code) buildNameTable() {
	type named struct {
		group int
		name  []uint16
	}
	var entries []named
	longest := 0
	for i, g := range c.groups {
		if g.name == "" {
			continue
		}
		name := utf16.Encode([]rune(g.name))
		longest = max(longest, len(name))
		entries = append(entries, named{group: i + 1, name: name})
	}
	if len(entries) == 0 {
		return
	}
	slices.SortFunc(entries, func(a, b named) int {
		return slices.Compare(a.name, b.name)
	})
	c.nameCount = len(entries)
	c.nameEntrySize = longest + 2
	c.nameTable = make([]uint16, c.nameCount*c.nameEntrySize)
	for i, e := range entries {
		entry := c.nameTable[i*c.nameEntrySize:]
		entry[0] = uint16(e.group)
		copy(entry[1:], e.name)
	}
}

// CaptureCount returns the number of explicit capture groups; the whole
// match (group 0) is not counted.
func (c *Code) CaptureCount() int {
	return len(c.groups)
}

// NameCount returns the number of named capture groups.
func (c *Code) NameCount() int {
	return c.nameCount
}

// NameEntrySize returns the size of one name-table entry in code units.
// It is 0 when the pattern has no named groups.
func (c *Code) NameEntrySize() int {
	return c.nameEntrySize
}

// NameTable returns the raw name table, NameCount entries of
// NameEntrySize code units each. The slice is owned by c and must not be
// modified.
func (c *Code) NameTable() []uint16 {
	return c.nameTable
}

// Names decodes the name table, in table order.
func (c *Code) Names() []NameEntry {
	return DecodeNameTable(c.nameTable, c.nameCount, c.nameEntrySize)
}

// GroupNumber returns the number of the group called name, or -1.
func (c *Code) GroupNumber(name string) int {
	for i, g := range c.groups {
		if g.name == name {
			return i + 1
		}
	}
	return -1
}

// Options returns the options the pattern was compiled with.
func (c *Code) Options() Option {
	return c.options
}

// DecodeNameTable decodes count entries of entrySize code units from a
// name table laid out as returned by NameTable.
func DecodeNameTable(table []uint16, count, entrySize int) []NameEntry {
	res := make([]NameEntry, 0, count)
	for i := 0; i < count; i++ {
		entry := table[i*entrySize : (i+1)*entrySize]
		name := entry[1:]
		if end := slices.Index(name, 0); end >= 0 {
			name = name[:end]
		}
		res = append(res, NameEntry{
			Group: int(entry[0]),
			Name:  string(utf16.Decode(name)),
		})
	}
	return res
}
