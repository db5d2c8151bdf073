// Package regbridge drives a regular-expression engine over UTF-16 text
// using PCRE2 conventions: PCRE2 option bits and error codes, ovectors of
// code-unit offsets, a 16-bit name table and pcre2_substitute replacement
// syntax.
//
// There are two ways in. Compile returns a *Code whose methods match and
// substitute directly and report compile failures as a CompileError. A
// Bridge exposes the same operations through integer handles, caller-owned
// buffers and a last-error slot, the shape a host on the other side of a
// memory boundary (such as JavaScript calling into WebAssembly) needs.
package regbridge

import (
	"fmt"
	"unsafe"
)

// CodeHandle identifies a compiled pattern owned by a Bridge. 0 is the null
// handle.
type CodeHandle uint32

// MatchDataHandle identifies match data owned by a Bridge. 0 is the null
// handle.
type MatchDataHandle uint32

// Bridge owns compiled patterns and match data on behalf of a caller that
// refers to them by handle. Every handle returned by Compile or
// CreateMatchData must be passed exactly once to DestroyCode or
// DestroyMatchData; passing a destroyed or unknown handle panics.
//
// A Bridge keeps the outcome of the most recent Compile (code and offset)
// until the next Compile. Match and Substitute never touch it.
//
// A Bridge is not safe for concurrent use.
type Bridge struct {
	codes   map[CodeHandle]*Code
	matches map[MatchDataHandle]*MatchData
	next    uint32

	lastErrorCode   int
	lastErrorOffset uint32

	logger Logger
}

// Logger receives debug records about handle lifecycles and compile
// failures. *log.Logger from github.com/charmbracelet/log satisfies it.
type Logger interface {
	Debug(msg interface{}, keyvals ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(interface{}, ...interface{}) {}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithLogger sets the logger for debug records. By default nothing is
// logged.
func WithLogger(logger Logger) BridgeOption {
	return func(b *Bridge) {
		b.logger = logger
	}
}

func NewBridge(opts ...BridgeOption) *Bridge {
	b := &Bridge{
		codes:   map[CodeHandle]*Code{},
		matches: map[MatchDataHandle]*MatchData{},
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = nopLogger{}
	}
	return b
}

func (b *Bridge) handle() uint32 {
	b.next++
	return b.next
}

func (b *Bridge) code(h CodeHandle) *Code {
	c, ok := b.codes[h]
	if !ok {
		panic(fmt.Sprintf("regbridge: unknown code handle %d", h))
	}
	return c
}

func (b *Bridge) matchData(h MatchDataHandle) *MatchData {
	md, ok := b.matches[h]
	if !ok {
		panic(fmt.Sprintf("regbridge: unknown match data handle %d", h))
	}
	return md
}

func (b *Bridge) recordCompileError(code int, offset uint32) {
	b.lastErrorCode = code
	b.lastErrorOffset = offset
}

// Compile compiles pattern with the flag string flags (see ParseFlags) and
// returns a new handle, or 0 when compilation fails. The last error is
// reset on entry and describes this call afterwards.
func (b *Bridge) Compile(pattern []uint16, flags []byte) CodeHandle {
	b.recordCompileError(0, 0)
	c, err := Compile(pattern, flags)
	if err != nil {
		ce, ok := err.(CompileError)
		if !ok {
			ce = CompileError{Code: ErrEngine, Detail: err.Error()}
		}
		b.recordCompileError(ce.Code, uint32(ce.Offset))
		b.logger.Debug("compile failed", "code", ce.Code, "offset", ce.Offset, "error", ce)
		return 0
	}
	h := CodeHandle(b.handle())
	b.codes[h] = c
	b.logger.Debug("compiled pattern", "handle", h, "captures", c.CaptureCount(), "options", c.Options())
	return h
}

// DestroyCode releases a compiled pattern. Match data created from it
// stays valid until destroyed separately.
func (b *Bridge) DestroyCode(h CodeHandle) {
	b.code(h)
	delete(b.codes, h)
	b.logger.Debug("destroyed pattern", "handle", h)
}

// CreateMatchData allocates match data sized for the pattern behind h.
func (b *Bridge) CreateMatchData(h CodeHandle) MatchDataHandle {
	md := b.code(h).NewMatchData()
	mh := MatchDataHandle(b.handle())
	b.matches[mh] = md
	b.logger.Debug("created match data", "handle", mh, "code", h, "pairs", md.OvectorCount())
	return mh
}

func (b *Bridge) DestroyMatchData(h MatchDataHandle) {
	b.matchData(h)
	delete(b.matches, h)
	b.logger.Debug("destroyed match data", "handle", h)
}

// Match runs the pattern against subject from offset, storing the result in
// md. See Code.Match for the result codes.
func (b *Bridge) Match(h CodeHandle, subject []uint16, offset int, md MatchDataHandle) int {
	return b.code(h).Match(subject, offset, b.matchData(md), 0)
}

// Substitute replaces matches of the pattern in subject and writes the
// NUL-terminated result into out. It returns the number of code units
// written, excluding the NUL, or a negative error code; a short buffer
// yields ErrNoMemory. md may be 0. options is handed to Code.Substitute
// unchanged.
func (b *Bridge) Substitute(h CodeHandle, subject []uint16, offset int, md MatchDataHandle, options uint32, replacement, out []uint16) int {
	var data *MatchData
	if md != 0 {
		data = b.matchData(md)
	}
	res := b.code(h).Substitute(subject, offset, data, options, replacement, out)
	if res.Count < 0 {
		if res.Count == ErrNoMemory && res.Length > 0 {
			b.logger.Debug("substitute output too small", "have", len(out), "need", res.Length)
		}
		return res.Count
	}
	return res.Length
}

// LastErrorMessage writes the message of the last compile error into buf
// and returns its length, or 0 without writing when the last compile
// succeeded. buf must hold MaxErrorMessageLen+1 code units.
func (b *Bridge) LastErrorMessage(buf []uint16) int {
	if b.lastErrorCode == 0 {
		return 0
	}
	return ErrorMessage(b.lastErrorCode, buf)
}

// LastErrorCode returns the code of the last compile error, 0 if none.
func (b *Bridge) LastErrorCode() int {
	return b.lastErrorCode
}

// LastErrorOffset returns the pattern offset, in code units, of the last
// compile error, 0 if none.
func (b *Bridge) LastErrorOffset() uint32 {
	return b.lastErrorOffset
}

// Version writes the engine version; see the package-level Version.
func (b *Bridge) Version(buf []uint16) int {
	return Version(buf)
}

func (b *Bridge) GetCaptureCount(h CodeHandle) uint32 {
	return uint32(b.code(h).CaptureCount())
}

func (b *Bridge) GetMatchNameCount(h CodeHandle) uint32 {
	return uint32(b.code(h).NameCount())
}

// GetMatchNameTableEntrySize returns the entry size in code units.
func (b *Bridge) GetMatchNameTableEntrySize(h CodeHandle) uint32 {
	return uint32(b.code(h).NameEntrySize())
}

// GetMatchNameTable returns the address of the first name-table entry, as
// PCRE2_INFO_NAMETABLE does, or nil when the pattern has no named groups.
// The table lives as long as the pattern.
func (b *Bridge) GetMatchNameTable(h CodeHandle) unsafe.Pointer {
	table := b.code(h).NameTable()
	if len(table) == 0 {
		return nil
	}
	return unsafe.Pointer(&table[0])
}

// NameTable is the bounds-checked form of GetMatchNameTable.
func (b *Bridge) NameTable(h CodeHandle) []uint16 {
	return b.code(h).NameTable()
}

func (b *Bridge) GetOvectorCount(h MatchDataHandle) uint32 {
	return uint32(b.matchData(h).OvectorCount())
}

// GetOvectorPointer returns the address of the first ovector element. The
// ovector holds 2*GetOvectorCount uint32 values and is overwritten by each
// match using h.
func (b *Bridge) GetOvectorPointer(h MatchDataHandle) unsafe.Pointer {
	return unsafe.Pointer(&b.matchData(h).Ovector()[0])
}

// Ovector is the bounds-checked form of GetOvectorPointer.
func (b *Bridge) Ovector(h MatchDataHandle) []uint32 {
	return b.matchData(h).Ovector()
}

// Live returns the number of handles not yet destroyed.
func (b *Bridge) Live() (codes, matchData int) {
	return len(b.codes), len(b.matches)
}
