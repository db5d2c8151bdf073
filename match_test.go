package regbridge

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestBasicMatch(t *testing.T) {
	r := newRunner(t)

	r.m("a(b)c", "abc", "abc", "b")
	r.m("a(b)?c", "ac", "ac", nilMatch)
	r.m("(a)|(b)", "b", "b", nilMatch, "b")
	r.m("((a)(b))", "ab", "ab", "ab", "a", "b")
	r.m("a+", "baaa", "aaa")
	r.m("a+?", "baaa", "a")
	r.m("(?:a|b)+", "abba", "abba")
	r.m("(?=b)", "ab", "")
	r.m("(?<=a)b", "ab", "b")
	r.m(`(a)\1`, "xaa", "aa", "a")
	r.n("abc", "abd")
	r.n("(?!a)a", "a")
}

func TestCaptureNumbering(t *testing.T) {
	r := newRunner(t)

	// groups are numbered by their opening parenthesis, named or not
	r.m("(?<x>a)(b)", "ab", "ab", "a", "b")
	r.m("(a)(?<y>b)(c)", "abc", "abc", "a", "b", "c")
	r.m("(?'q'a)(b)", "ab", "ab", "a", "b")
	r.m("(?P<q>a)(b)", "ab", "ab", "a", "b")
	r.m(`(a)(?<n>b)(c)\k<n>`, "abcb", "abcb", "a", "b", "c")
	r.m(`(?<n>b)\k'n'`, "bb", "bb", "b")
	r.m(`(?<n>b)\k{n}`, "bb", "bb", "b")
	r.m(`(?<n>b)\g{n}`, "bb", "bb", "b")
	r.m(`(?P<first>\w)(?P=first)`, "xaa", "aa", "a")
	r.m(`(a)(b)\g{-1}`, "abb", "abb", "a", "b")
	r.m(`(a)(b)\g-2`, "aba", "aba", "a", "b")
	r.m(`(a)\g1`, "aa", "aa", "a")
	r.m(`(a)\g{1}`, "aa", "aa", "a")
}

func TestConditions(t *testing.T) {
	r := newRunner(t)

	r.m("(<)?a(?(1)>)", "<a>", "<a>", "<")
	r.m("(<)?a(?(1)>)", "a", "a", nilMatch)
	r.m("(?<q><)?a(?(<q>)>)", "<a>", "<a>", "<")
	r.m("(?<q><)?a(?('q')>)", "<a>", "<a>", "<")
	r.m("(?<q><)?a(?(q)>)", "<a>", "<a>", "<")
	r.m("(x)?(?(-1)y|z)", "z", "z", nilMatch)
}

func TestEscapes(t *testing.T) {
	r := newRunner(t)

	r.m(`\Qa.b\E+`, "a.bb", "a.bb")
	r.n(`\Qa.b\E`, "axb")
	r.m(`\Q(x`, "(x", "(x")
	r.m(`\x{41}`, "A", "A")
	r.m(`\x{1F431}`, "🐱", "🐱")
	r.m(`\o{101}`, "A", "A")
	r.m(`\x41`, "A", "A")
	r.m(`\101`, "A", "A")
	r.m(`\0101`, "\x081", "\x081")
	r.m(`[\101]`, "A", "A")
	r.m(`\h+`, "a \tb", " \t")
	r.m(`\H+`, " ab ", "ab")
	r.m(`\v`, "a\fb", "\f")
	r.m(`\R`, "a\r\nb", "\r\n")
	r.m(`\N+`, "ab\nc", "ab")
	r.m(`[\h]+`, "x \ty", " \t")
	r.m(`\x4`, "\x04", "\x04")
	r.m(`\x4g`, "\x04g", "\x04g")
	r.m(`\x`, "a\x00", "\x00")
	r.m(`[\x41-\x43]+`, "xABCD", "ABC")
	// callouts never run
	r.m(`a(?C1)b(?C)c(?C"x""y")d(?C{z})`, "abcd", "abcd")
}

func TestASCIIClasses(t *testing.T) {
	r := newRunner(t)

	r.m(`\d+`, "ab123", "123")
	r.n(`\d`, "٣")
	r.m(`\D+`, "12ab3", "ab")
	r.m(`\w+`, " a_1 ", "a_1")
	r.n(`\w`, "é")
	r.m(`\W`, "aé", "é")
	r.m(`\s+`, "a \t\x0bb", " \t\x0b")
	r.m(`\S+`, "  ab ", "ab")
	r.m(`[\d.]+`, "x1.5y", "1.5")
	r.m(`[^\D]+`, "x42", "42")

	r.m("[[:digit:]]+", "ab123", "123")
	r.m("[[:^digit:]]+", "12ab3", "ab")
	r.m("[[:alpha:][:digit:]]+", "-a1-", "a1")
	r.m("[[:upper:]]+", "abCDe", "CD")
	r.m("[[:punct:]]+", "a!?b", "!?")
	r.m("[[:xdigit:]]+", "xx0fAg", "0fA")
	r.m("[[:^alpha:]]+", "ab12c", "12")
	r.m("[a[]+", "a[a", "a[a")

	// word boundaries agree with \w
	r.n(`\bé`, "aab A \x04é")
	r.m(`é\b`, "éa", "é")
	r.m(`\b\w+\b`, "é ab", "ab")
	r.m(`\Bb`, "ab", "b")
	r.n(`a\B`, "a é")
	r.m(`[\b]`, "a\bb", "\b")
}

func TestPossessiveQuantifiers(t *testing.T) {
	r := newRunner(t)

	r.m("a++b", "aaab", "aaab")
	r.n("a++a", "aaa")
	r.m("a*+b", "b", "b")
	r.n("a*+a", "aaa")
	r.m("a?+a", "aa", "aa")
	r.n("a?+a", "a")
	r.m("x{1,2}+y", "xxy", "xxy")
	r.n("x{1,2}+x", "xx")
	r.m("x{2}+", "xxx", "xx")
	r.m("(ab)++c", "ababc", "ababc", "ab")
	r.m("[ab]*+c", "abc", "abc")
	r.m(`\d++\.`, "12.", "12.")
	r.m(`(a)\1++`, "aaaa", "aaaa", "a")
	r.m(`\Qab\E++`, "abbb", "abbb")
	r.m("b|a++", "aa", "aa")
	r.m("a+?b", "aab", "aab")
	r.f("x").m("a ++ b", "aab", "aab")
}

func TestFlags(t *testing.T) {
	r := newRunner(t)

	r.f("i").m("ABC", "xabc", "abc")
	r.n("ABC", "abc")
	r.f("m").m("^b$", "a\nb\nc", "b")
	r.n("^b$", "a\nb\nc")
	r.f("s").m("a.b", "a\nb", "a\nb")
	r.n("a.b", "a\nb")
	r.f("x").m("a b # comment", "ab", "ab")
	r.f("x").m("a#c\nb", "ab", "ab")
	r.f("x").m(`a\ b`, "a b", "a b")
	r.f("x").m("[ ]a", " a", " a")
	r.m("(?x)a b", "ab", "ab")
	r.m("(?x: a b )c d", "abc d", "abc d")
	r.f("x").m("(?-x)a b", "a b", "a b")
	r.m("(?i)abc", "ABC", "ABC")
	r.m("a(?i:b)c", "aBc", "aBc")
	r.n("a(?i:b)c", "aBC")
	r.f("xi").m("A B", "ab", "ab")
}

func TestNonBMP(t *testing.T) {
	r := newRunner(t)

	r.m(".", "🐱", "🐱")
	r.m("(.)(.)", "🐱a", "🐱a", "🐱", "a")
	r.m("[🐱]+", "x🐱🐱", "🐱🐱")

	c := MustCompile("(b)", "")
	md := c.NewMatchData()
	assert.Equal(t, c.Match(u16e("🐱b"), 0, md, 0), 2)
	assert.DeepEqual(t, md.Ovector(), []uint32{2, 3, 2, 3})
}

func TestMatchApi(t *testing.T) {
	t.Run("Offset", func(t *testing.T) {
		c := MustCompile(".", "")
		md := c.NewMatchData()
		assert.Equal(t, c.Match(u16e("ab"), 1, md, 0), 1)
		assert.DeepEqual(t, md.Ovector(), []uint32{1, 2})
	})
	t.Run("OffsetAtEnd", func(t *testing.T) {
		c := MustCompile(".", "")
		assert.Equal(t, c.Match(u16e("ab"), 2, c.NewMatchData(), 0), ErrNoMatch)

		c = MustCompile("(?:)", "")
		md := c.NewMatchData()
		assert.Equal(t, c.Match(u16e("ab"), 2, md, 0), 1)
		assert.DeepEqual(t, md.Ovector(), []uint32{2, 2})
	})
	t.Run("OffsetBeyondEnd", func(t *testing.T) {
		c := MustCompile(".", "")
		assert.Equal(t, c.Match(u16e("ab"), 3, c.NewMatchData(), 0), ErrBadOffset)
		assert.Equal(t, c.Match(u16e("ab"), -1, c.NewMatchData(), 0), ErrBadOffset)
	})
	t.Run("OffsetMidSurrogatePair", func(t *testing.T) {
		c := MustCompile(".", "")
		assert.Equal(t, c.Match(u16e("🐱"), 1, c.NewMatchData(), 0), ErrBadUTFOffset)
	})
	t.Run("LookbehindBeforeOffset", func(t *testing.T) {
		c := MustCompile("(?<=a)b", "")
		md := c.NewMatchData()
		assert.Equal(t, c.Match(u16e("ab"), 1, md, 0), 1)
		assert.DeepEqual(t, md.Ovector(), []uint32{1, 2})
	})
	t.Run("MalformedSubject", func(t *testing.T) {
		c := MustCompile(".", "")
		md := c.NewMatchData()
		assert.Equal(t, c.Match([]uint16{'a', 0xd83d}, 0, md, 0), ErrUTF16MissingLow)
		assert.Equal(t, c.Match([]uint16{0xd83d, 'a'}, 0, md, 0), ErrUTF16InvalidLow)
		assert.Equal(t, c.Match([]uint16{0xdc31}, 0, md, 0), ErrUTF16LoneLow)
	})
	t.Run("NoUTFCheck", func(t *testing.T) {
		c := MustCompile("a", "")
		md := c.NewMatchData()
		assert.Equal(t, c.Match([]uint16{0xdc31, 'a'}, 0, md, NoUTFCheck), 1)
		assert.DeepEqual(t, md.Ovector(), []uint32{1, 2})
	})
	t.Run("Anchored", func(t *testing.T) {
		c := MustCompile("b", "")
		md := c.NewMatchData()
		assert.Equal(t, c.Match(u16e("ab"), 0, md, Anchored), ErrNoMatch)
		assert.Equal(t, c.Match(u16e("ab"), 1, md, Anchored), 1)
	})
	t.Run("BadOption", func(t *testing.T) {
		c := MustCompile("b", "")
		assert.Equal(t, c.Match(u16e("b"), 0, c.NewMatchData(), 1), ErrBadOption)
		assert.Equal(t, c.Match(u16e("b"), 0, c.NewMatchData(), SubstituteGlobal), ErrBadOption)
	})
	t.Run("ResultIsHighestSetGroup", func(t *testing.T) {
		c := MustCompile("(a)|(b)", "")
		md := c.NewMatchData()
		assert.Equal(t, c.Match(u16e("a"), 0, md, 0), 2)
		assert.DeepEqual(t, md.Ovector(), []uint32{0, 1, 0, 1, Unset, Unset})
		assert.Equal(t, c.Match(u16e("b"), 0, md, 0), 3)
		assert.DeepEqual(t, md.Ovector(), []uint32{0, 1, Unset, Unset, 0, 1})
		assert.Equal(t, md.Result(), 3)
	})
	t.Run("NoMatchKeepsResultCode", func(t *testing.T) {
		c := MustCompile("x", "")
		md := c.NewMatchData()
		assert.Equal(t, md.Result(), 0)
		assert.Equal(t, c.Match(u16e("a"), 0, md, 0), ErrNoMatch)
		assert.Equal(t, md.Result(), ErrNoMatch)
	})
	t.Run("OvectorTooSmall", func(t *testing.T) {
		md := MustCompile("a", "").NewMatchData()
		c := MustCompile("(a)", "")
		assert.Equal(t, c.Match(u16e("a"), 0, md, 0), 0)
		assert.DeepEqual(t, md.Ovector(), []uint32{0, 1})
	})
	t.Run("Group", func(t *testing.T) {
		c := MustCompile("(a)(x)?", "")
		md := c.NewMatchData()
		assert.Equal(t, c.Match(u16e("ba"), 0, md, 0), 2)
		start, end, ok := md.Group(1)
		assert.Assert(t, ok)
		assert.Equal(t, start, 1)
		assert.Equal(t, end, 2)
		_, _, ok = md.Group(2)
		assert.Assert(t, !ok)
		_, _, ok = md.Group(3)
		assert.Assert(t, !ok)
	})
}

func TestEscapedLiterals(t *testing.T) {
	r := newRunner(t)

	r.m(`\_+`, "a__", "__")
	r.m(`\é`, "é", "é")
	r.m(`\.\*`, "a.*", ".*")
	r.m(`[\_\-]+`, "a-_b", "-_")
}
