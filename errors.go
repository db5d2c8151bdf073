package regbridge

import "strconv"

// Error codes share the PCRE2 numbering so that a host already decoding
// PCRE2 results needs no translation table. Compile errors are positive,
// match and substitution errors are negative.
const (
	ErrEndBackslash          = 101
	ErrEndBackslashC         = 102
	ErrUnknownEscape         = 103
	ErrQuantifierOutOfOrder  = 104
	ErrQuantifierTooBig      = 105
	ErrMissingSquareBracket  = 106
	ErrEscapeInvalidInClass  = 107
	ErrClassRangeOrder       = 108
	ErrQuantifierInvalid     = 109
	ErrUnrecognizedAfterQ    = 111
	ErrPosixOutsideClass     = 112
	ErrPosixCollating        = 113
	ErrMissingClosingParen   = 114
	ErrBadSubpatternRef      = 115
	ErrBadOptions            = 117
	ErrMissingCommentClose   = 118
	ErrUnmatchedClosingParen = 122
	ErrMissingConditionParen = 124
	ErrUnknownPosixClass     = 130
	ErrCodePointTooBig       = 134
	ErrCalloutNumberTooBig   = 138
	ErrCalloutNoClose        = 139
	ErrSubpatternNameSyntax  = 142
	ErrDuplicateName         = 143
	ErrNameStartsWithDigit   = 144
	ErrMalformedUnicodeProp  = 146
	ErrUnknownUnicodeProp    = 147
	ErrNameTooLong           = 148
	ErrBackslashGSyntax      = 157
	ErrNameExpected          = 162
	ErrBackslashKSyntax      = 169
	ErrSurrogateCodePoint    = 173
	ErrMissingDigits         = 178
	ErrCalloutStringEnd      = 181
	ErrCalloutBadDelimiter   = 182
	// ErrEngine reports a construct rejected by the underlying engine that
	// has no PCRE2 counterpart. CompileError.Detail carries the engine text.
	ErrEngine = 199

	ErrNoMatch         = -1
	ErrPartial         = -2
	ErrUTF16MissingLow = -24
	ErrUTF16InvalidLow = -25
	ErrUTF16LoneLow    = -26
	ErrBadData         = -29
	ErrBadOffset       = -33
	ErrBadOption       = -34
	ErrBadReplacement  = -35
	ErrBadUTFOffset    = -36
	ErrMatchLimit      = -47
	ErrNoMemory        = -48
	ErrNoSubstring     = -49
	ErrUnset           = -55
	ErrBadRepEscape    = -57
	ErrRepMissingBrace = -58
	ErrBadSubstitution = -59
)

// MaxErrorMessageLen is the longest message ErrorMessage can produce,
// excluding the terminating NUL. Buffers of this size plus one never
// truncate.
const MaxErrorMessageLen = 120

var errorMessages = map[int]string{
	ErrEndBackslash:          `\ at end of pattern`,
	ErrEndBackslashC:         `\c at end of pattern`,
	ErrUnknownEscape:         `unrecognized character follows \`,
	ErrQuantifierOutOfOrder:  `numbers out of order in {} quantifier`,
	ErrQuantifierTooBig:      `number too big in {} quantifier`,
	ErrMissingSquareBracket:  `missing terminating ] for character class`,
	ErrEscapeInvalidInClass:  `escape sequence is invalid in character class`,
	ErrClassRangeOrder:       `range out of order in character class`,
	ErrQuantifierInvalid:     `quantifier does not follow a repeatable item`,
	ErrUnrecognizedAfterQ:    `unrecognized character after (? or (?-`,
	ErrPosixOutsideClass:     `POSIX named classes are supported only within a class`,
	ErrPosixCollating:        `POSIX collating elements are not supported`,
	ErrMissingClosingParen:   `missing closing parenthesis`,
	ErrBadSubpatternRef:      `reference to non-existent subpattern`,
	ErrBadOptions:            `unrecognised compile-time option bit(s)`,
	ErrMissingCommentClose:   `missing ) after (?# comment`,
	ErrUnmatchedClosingParen: `unmatched closing parenthesis`,
	ErrMissingConditionParen: `missing closing parenthesis for condition`,
	ErrUnknownPosixClass:     `unknown POSIX class name`,
	ErrCodePointTooBig:       `character code point value in \x{} or \o{} is too large`,
	ErrCalloutNumberTooBig:   `number after (?C is greater than 255`,
	ErrCalloutNoClose:        `closing parenthesis for (?C expected`,
	ErrSubpatternNameSyntax:  `syntax error in subpattern name (missing terminator?)`,
	ErrDuplicateName:         `two named subpatterns have the same name (PCRE2_DUPNAMES not set)`,
	ErrNameStartsWithDigit:   `subpattern name must start with a non-digit`,
	ErrMalformedUnicodeProp:  `malformed \P or \p sequence`,
	ErrUnknownUnicodeProp:    `unknown property name after \P or \p`,
	ErrNameTooLong:           `subpattern name is too long (maximum 32 code units)`,
	ErrBackslashGSyntax:      `\g is not followed by a braced, angle-bracketed, or quoted name/number or by a plain number`,
	ErrNameExpected:          `subpattern name expected`,
	ErrBackslashKSyntax:      `\k is not followed by a braced, angle-bracketed, or quoted name`,
	ErrSurrogateCodePoint:    `disallowed Unicode code point (>= 0xd800 && <= 0xdfff)`,
	ErrMissingDigits:         `digits missing in \x{} or \o{} or \N{U+}`,
	ErrCalloutStringEnd:      `missing terminating delimiter for callout with string argument`,
	ErrCalloutBadDelimiter:   `unrecognized string delimiter follows (?C`,
	ErrEngine:                `construct not supported by the regex engine`,

	ErrNoMatch:         `no match`,
	ErrPartial:         `partial match`,
	ErrUTF16MissingLow: `UTF-16 error: missing low surrogate at end`,
	ErrUTF16InvalidLow: `UTF-16 error: invalid low surrogate`,
	ErrUTF16LoneLow:    `UTF-16 error: isolated low surrogate`,
	ErrBadData:         `bad data value`,
	ErrBadOffset:       `bad offset value`,
	ErrBadOption:       `bad option value`,
	ErrBadReplacement:  `invalid replacement string`,
	ErrBadUTFOffset:    `bad offset into UTF string`,
	ErrMatchLimit:      `match limit exceeded`,
	ErrNoMemory:        `no more memory`,
	ErrNoSubstring:     `unknown substring`,
	ErrUnset:           `requested value is not set`,
	ErrBadRepEscape:    `bad escape sequence in replacement string`,
	ErrRepMissingBrace: `expected closing curly bracket in replacement string`,
	ErrBadSubstitution: `bad substitution in replacement string`,
}

// ErrorText returns the message for code, or a generic text when code is
// not a known error code.
func ErrorText(code int) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "unknown error code " + strconv.Itoa(code)
}

// ErrorMessage writes the message for code into buf as UTF-16 code units
// followed by a NUL when there is room for it, and returns the number of
// code units written excluding the NUL.
//
// An unknown code yields ErrBadData and writes nothing. A buffer too short
// for the message receives a truncated, NUL-terminated message and the
// result is ErrNoMemory.
func ErrorMessage(code int, buf []uint16) int {
	msg, ok := errorMessages[code]
	if !ok {
		return ErrBadData
	}
	if len(buf) == 0 {
		return ErrNoMemory
	}
	n := 0
	for _, r := range msg {
		if n == len(buf)-1 {
			buf[n] = 0
			return ErrNoMemory
		}
		// messages are ASCII
		buf[n] = uint16(r)
		n++
	}
	buf[n] = 0
	return n
}

// CompileError describes why a pattern could not be compiled.
type CompileError struct {
	// Code is one of the positive compile error codes, ErrBadOptions, or
	// a negative UTF-16 error code for a malformed pattern.
	Code int
	// Offset is the code-unit offset into the pattern where the error was
	// detected. Errors raised by the engine rather than by the pattern
	// scanner carry no position of their own and report the pattern
	// length.
	Offset int
	// Detail is the engine's own description when Code is ErrEngine.
	Detail string
}

func (e CompileError) Error() string {
	msg := ErrorText(e.Code)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return "regbridge: " + msg + " at offset " + strconv.Itoa(e.Offset)
}

var _ error = CompileError{}

func newCompileError(code, offset int) CompileError {
	return CompileError{Code: code, Offset: offset}
}

// MatchError wraps a negative result code of Match or Substitute.
type MatchError struct {
	Code int
}

func (e MatchError) Error() string {
	return "regbridge: " + ErrorText(e.Code)
}

var _ error = MatchError{}
