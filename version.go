package regbridge

import (
	"runtime/debug"
	"sync"
	"unicode/utf16"
)

const enginePath = "github.com/dlclark/regexp2"

var engineVersion = sync.OnceValue(func() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, dep := range info.Deps {
			if dep.Path != enginePath {
				continue
			}
			if dep.Replace != nil {
				dep = dep.Replace
			}
			return "regexp2 " + dep.Version
		}
	}
	return "regexp2 (devel)"
})

// EngineVersion describes the regex engine behind the bridge, e.g.
// "regexp2 v1.11.0".
func EngineVersion() string {
	return engineVersion()
}

// Version writes EngineVersion as a NUL-terminated UTF-16 string into buf
// and returns the number of code units needed, NUL included. A nil buf
// only queries the length. When buf is too short it receives a truncated,
// NUL-terminated prefix and ErrNoMemory is returned.
func Version(buf []uint16) int {
	v := utf16.Encode([]rune(EngineVersion()))
	if buf == nil {
		return len(v) + 1
	}
	if len(buf) < len(v)+1 {
		if len(buf) > 0 {
			n := copy(buf[:len(buf)-1], v)
			buf[n] = 0
		}
		return ErrNoMemory
	}
	copy(buf, v)
	buf[len(v)] = 0
	return len(v) + 1
}
