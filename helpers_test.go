package regbridge

import (
	"testing"
	"unicode/utf16"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
)

const nilMatch = "!SPECIAL_NIL_MATCH!"

func u16e(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

func u16d(v []uint16) string {
	return string(utf16.Decode(v))
}

type runner struct {
	t     *testing.T
	flags string
}

func newRunner(t *testing.T) runner {
	return runner{t: t}
}

// With flags
func (r runner) f(flags string) runner {
	r.flags = flags
	return r
}

func (r runner) compile(t *testing.T, pattern []uint16) *Code {
	t.Helper()
	c, err := Compile(pattern, []byte(r.flags))
	assert.NilError(t, err, "pattern %q, flags %q", u16d(pattern), r.flags)
	return c
}

// Match. expectedGroups starts with the whole match; nilMatch stands for
// an unset group.
func (r runner) m(pattern, subject string, expectedGroups ...string) {
	r.m16(u16e(pattern), u16e(subject), expectedGroups...)
}
func (r runner) m16(pattern, subject []uint16, expectedGroups ...string) {
	r.t.Run("", func(t *testing.T) {
		t.Parallel()
		c := r.compile(t, pattern)
		md := c.NewMatchData()
		rc := c.Match(subject, 0, md, 0)
		assert.Assert(t, rc > 0, "pattern %q on %q: rc %d", u16d(pattern), u16d(subject), rc)

		actual := make([]string, md.OvectorCount())
		for i := range actual {
			start, end, ok := md.Group(i)
			if !ok {
				actual[i] = nilMatch
				continue
			}
			actual[i] = u16d(subject[start:end])
		}
		if diff := cmp.Diff(expectedGroups, actual); diff != "" {
			t.Fatalf("pattern %q on %q (-want +got):\n%s", u16d(pattern), u16d(subject), diff)
		}
	})
}

// Not Match
func (r runner) n(pattern, subject string) {
	r.t.Run("", func(t *testing.T) {
		t.Parallel()
		c := r.compile(t, u16e(pattern))
		rc := c.Match(u16e(subject), 0, c.NewMatchData(), 0)
		assert.Equal(t, rc, ErrNoMatch, "pattern %q on %q", pattern, subject)
	})
}

// Compile Error
func (r runner) ce(pattern string, code, offset int) {
	r.ce16(u16e(pattern), code, offset)
}
func (r runner) ce16(pattern []uint16, code, offset int) {
	r.t.Run("", func(t *testing.T) {
		t.Parallel()
		_, err := Compile(pattern, []byte(r.flags))
		assert.Assert(t, err != nil, "pattern %q compiled", u16d(pattern))
		ce, ok := err.(CompileError)
		assert.Assert(t, ok, "unexpected error type %T", err)
		assert.Equal(t, ce.Code, code, "pattern %q: %v", u16d(pattern), ce)
		assert.Equal(t, ce.Offset, offset, "pattern %q: %v", u16d(pattern), ce)
	})
}

// Substitute into a buffer large enough for any test.
func subst(t *testing.T, c *Code, subject string, options uint32, replacement string) (string, SubstituteResult) {
	t.Helper()
	out := make([]uint16, 256)
	res := c.Substitute(u16e(subject), 0, nil, options, u16e(replacement), out)
	if res.Count < 0 {
		return "", res
	}
	assert.Equal(t, out[res.Length], uint16(0))
	return u16d(out[:res.Length]), res
}
