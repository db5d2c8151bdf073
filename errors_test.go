package regbridge

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"
)

func TestErrorMessage(t *testing.T) {
	t.Run("Fits", func(t *testing.T) {
		buf := make([]uint16, MaxErrorMessageLen+1)
		n := ErrorMessage(ErrNoMatch, buf)
		assert.Equal(t, n, len("no match"))
		assert.DeepEqual(t, buf[:n+1], append(u16e("no match"), 0))
	})
	t.Run("ExactFit", func(t *testing.T) {
		buf := make([]uint16, len("no match")+1)
		assert.Equal(t, ErrorMessage(ErrNoMatch, buf), len("no match"))
		assert.Equal(t, buf[len(buf)-1], uint16(0))
	})
	t.Run("Truncated", func(t *testing.T) {
		buf := make([]uint16, 4)
		assert.Equal(t, ErrorMessage(ErrNoMatch, buf), ErrNoMemory)
		assert.DeepEqual(t, buf, []uint16{'n', 'o', ' ', 0})
	})
	t.Run("Empty", func(t *testing.T) {
		assert.Equal(t, ErrorMessage(ErrNoMatch, nil), ErrNoMemory)
	})
	t.Run("UnknownCode", func(t *testing.T) {
		buf := []uint16{'x'}
		assert.Equal(t, ErrorMessage(12345, buf), ErrBadData)
		assert.Equal(t, buf[0], uint16('x'))
	})
	t.Run("MaxLen", func(t *testing.T) {
		for code, msg := range errorMessages {
			assert.Assert(t, len(msg) <= MaxErrorMessageLen, "code %d", code)
			for _, r := range msg {
				assert.Assert(t, r < 0x80, "code %d has non-ASCII message", code)
			}
		}
	})
}

func TestCompileErrorValue(t *testing.T) {
	_, err := Compile(u16e("a)"), nil)
	var ce CompileError
	assert.Assert(t, errors.As(err, &ce))
	assert.Equal(t, ce.Code, ErrUnmatchedClosingParen)
	assert.Equal(t, ce.Offset, 1)
	assert.Equal(t, err.Error(), "regbridge: unmatched closing parenthesis at offset 1")

	assert.Equal(t, MatchError{Code: ErrNoMatch}.Error(), "regbridge: no match")
	assert.Equal(t, ErrorText(7), "unknown error code 7")
}
