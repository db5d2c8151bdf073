//go:build wasip1

// Command regbridge-wasm is a WebAssembly reactor exporting the Bridge
// handle surface to a host that owns UTF-16 strings, typically JavaScript.
//
// Build with:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o regbridge.wasm ./cmd/regbridge-wasm
//
// All pointers are offsets into linear memory. Buffers the host passes in
// come from alloc and are released with free. Lengths are in code units
// unless noted otherwise; flags are a NUL-terminated byte string.
package main

import (
	"unsafe"

	"github.com/auvred/regbridge"
)

var bridge = regbridge.NewBridge()

// allocations keeps host buffers reachable until freed.
var allocations = map[uint32][]uint64{}

func main() {}

//go:wasmexport alloc
func alloc(size uint32) uint32 {
	if size == 0 {
		size = 1
	}
	// uint64 words keep every buffer 8-byte aligned
	buf := make([]uint64, (size+7)/8)
	ptr := uint32(uintptr(unsafe.Pointer(&buf[0])))
	allocations[ptr] = buf
	return ptr
}

//go:wasmexport free
func free(ptr uint32) {
	delete(allocations, ptr)
}

func units(ptr, length uint32) []uint16 {
	if length == 0 {
		return []uint16{}
	}
	return unsafe.Slice((*uint16)(unsafe.Pointer(uintptr(ptr))), length)
}

// cString reads a NUL-terminated byte string.
func cString(ptr uint32) []byte {
	if ptr == 0 {
		return nil
	}
	n := 0
	for *(*byte)(unsafe.Pointer(uintptr(ptr) + uintptr(n))) != 0 {
		n++
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(ptr))), n)
}

func address(p unsafe.Pointer) uint32 {
	return uint32(uintptr(p))
}

//go:wasmexport compile
func compile(pattern, length, flags uint32) uint32 {
	return uint32(bridge.Compile(units(pattern, length), cString(flags)))
}

//go:wasmexport destroyCode
func destroyCode(code uint32) {
	bridge.DestroyCode(regbridge.CodeHandle(code))
}

//go:wasmexport createMatchData
func createMatchData(code uint32) uint32 {
	return uint32(bridge.CreateMatchData(regbridge.CodeHandle(code)))
}

//go:wasmexport destroyMatchData
func destroyMatchData(md uint32) {
	bridge.DestroyMatchData(regbridge.MatchDataHandle(md))
}

//go:wasmexport match
func match(code, subject, length, offset, md uint32) int32 {
	return int32(bridge.Match(
		regbridge.CodeHandle(code),
		units(subject, length),
		int(offset),
		regbridge.MatchDataHandle(md),
	))
}

//go:wasmexport substitute
func substitute(code, subject, length, offset, md, options, replacement, replacementLength, out, outLength uint32) int32 {
	return int32(bridge.Substitute(
		regbridge.CodeHandle(code),
		units(subject, length),
		int(offset),
		regbridge.MatchDataHandle(md),
		options,
		units(replacement, replacementLength),
		units(out, outLength),
	))
}

//go:wasmexport lastErrorMessage
func lastErrorMessage(buf, length uint32) int32 {
	return int32(bridge.LastErrorMessage(units(buf, length)))
}

//go:wasmexport lastErrorOffset
func lastErrorOffset() uint32 {
	return bridge.LastErrorOffset()
}

// version expects a buffer of at least 32 code units.
//
//go:wasmexport version
func version(buf uint32) int32 {
	return int32(bridge.Version(units(buf, 32)))
}

//go:wasmexport getOvectorCount
func getOvectorCount(md uint32) uint32 {
	return bridge.GetOvectorCount(regbridge.MatchDataHandle(md))
}

//go:wasmexport getOvectorPointer
func getOvectorPointer(md uint32) uint32 {
	return address(bridge.GetOvectorPointer(regbridge.MatchDataHandle(md)))
}

//go:wasmexport getCaptureCount
func getCaptureCount(code uint32) uint32 {
	return bridge.GetCaptureCount(regbridge.CodeHandle(code))
}

//go:wasmexport getMatchNameCount
func getMatchNameCount(code uint32) uint32 {
	return bridge.GetMatchNameCount(regbridge.CodeHandle(code))
}

//go:wasmexport getMatchNameTableEntrySize
func getMatchNameTableEntrySize(code uint32) uint32 {
	return bridge.GetMatchNameTableEntrySize(regbridge.CodeHandle(code))
}

//go:wasmexport getMatchNameTable
func getMatchNameTable(code uint32) uint32 {
	return address(bridge.GetMatchNameTable(regbridge.CodeHandle(code)))
}
