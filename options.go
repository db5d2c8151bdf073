package regbridge

import "github.com/dlclark/regexp2"

// Option is a bitmask of compile options. Bit values match PCRE2's.
type Option uint32

const (
	// Case-insensitive matching ("i" flag).
	Caseless Option = 0x00000008

	// "." matches line terminators ("s" flag).
	DotAll Option = 0x00000020

	// Whitespace and #-comments in the pattern are ignored ("x" flag).
	Extended Option = 0x00000080

	// "^" and "$" match at internal line breaks ("m" flag).
	Multiline Option = 0x00000400

	// Pattern and subject are UTF-16 and are checked for well-formedness.
	// Always set by ParseFlags.
	UTF Option = 0x00080000
)

// Match and substitution options, passed as a uint32 bitmask.
const (
	Anchored   uint32 = 0x80000000
	NoUTFCheck uint32 = 0x40000000

	SubstituteGlobal          uint32 = 0x00000100
	SubstituteExtended        uint32 = 0x00000200
	SubstituteUnsetEmpty      uint32 = 0x00000400
	SubstituteUnknownUnset    uint32 = 0x00000800
	SubstituteOverflowLength  uint32 = 0x00001000
	SubstituteLiteral         uint32 = 0x00008000
	SubstituteMatched         uint32 = 0x00010000
	SubstituteReplacementOnly uint32 = 0x00020000
)

const (
	matchOptions      = Anchored | NoUTFCheck
	substituteOptions = matchOptions |
		SubstituteGlobal |
		SubstituteExtended |
		SubstituteUnsetEmpty |
		SubstituteUnknownUnset |
		SubstituteOverflowLength |
		SubstituteLiteral |
		SubstituteMatched |
		SubstituteReplacementOnly
)

// ParseFlags translates a flag string into compile options. Reading stops
// at the first NUL byte, so C-style strings can be passed as they are.
//
// Recognized flags are m, s, i and x, in any order; repeats are allowed.
// Any other byte fails the whole translation with ErrBadOptions and no
// options are returned.
func ParseFlags(flags []byte) (Option, error) {
	options := UTF
	for _, f := range flags {
		if f == 0 {
			break
		}
		switch f {
		case 'm':
			options |= Multiline
		case 's':
			options |= DotAll
		case 'i':
			options |= Caseless
		case 'x':
			options |= Extended
		default:
			return 0, newCompileError(ErrBadOptions, 0)
		}
	}
	return options, nil
}

func (o Option) engineOptions() regexp2.RegexOptions {
	var opts regexp2.RegexOptions
	if o&Caseless != 0 {
		opts |= regexp2.IgnoreCase
	}
	if o&Multiline != 0 {
		opts |= regexp2.Multiline
	}
	if o&DotAll != 0 {
		opts |= regexp2.Singleline
	}
	if o&Extended != 0 {
		opts |= regexp2.IgnorePatternWhitespace
	}
	return opts
}

// String renders the options back as a flag string.
func (o Option) String() string {
	var b []byte
	for _, f := range [...]struct {
		opt  Option
		flag byte
	}{{Multiline, 'm'}, {DotAll, 's'}, {Caseless, 'i'}, {Extended, 'x'}} {
		if o&f.opt != 0 {
			b = append(b, f.flag)
		}
	}
	return string(b)
}
