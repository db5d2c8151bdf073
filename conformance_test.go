package regbridge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v2"
	"gotest.tools/v3/assert"
)

type conformanceCase struct {
	Name    string  `yaml:"name"`
	Pattern string  `yaml:"pattern"`
	Flags   string  `yaml:"flags"`
	Subject string  `yaml:"subject"`
	Offset  int     `yaml:"offset"`
	Groups  [][]int `yaml:"groups"`
	NoMatch bool    `yaml:"nomatch"`
	Error   *struct {
		Code   int `yaml:"code"`
		Offset int `yaml:"offset"`
	} `yaml:"error"`
	Substitute *struct {
		Replacement string   `yaml:"replacement"`
		Options     []string `yaml:"options"`
		Want        string   `yaml:"want"`
		Code        int      `yaml:"code"`
	} `yaml:"substitute"`
}

var substituteOptionNames = map[string]uint32{
	"global":           SubstituteGlobal,
	"extended":         SubstituteExtended,
	"unset_empty":      SubstituteUnsetEmpty,
	"unknown_unset":    SubstituteUnknownUnset,
	"literal":          SubstituteLiteral,
	"replacement_only": SubstituteReplacementOnly,
	"anchored":         Anchored,
}

func loadConformanceCases(t *testing.T) []conformanceCase {
	content, err := os.ReadFile(filepath.Join("testdata", "cases.yaml"))
	assert.NilError(t, err)
	var cases []conformanceCase
	assert.NilError(t, yaml.Unmarshal(content, &cases))
	assert.Assert(t, len(cases) > 0)
	return cases
}

func TestConformance(t *testing.T) {
	for _, c := range loadConformanceCases(t) {
		c := c
		t.Run(c.Name, func(t *testing.T) {
			t.Parallel()
			b := NewBridge()
			h := b.Compile(u16e(c.Pattern), []byte(c.Flags))
			if c.Error != nil {
				assert.Equal(t, h, CodeHandle(0))
				assert.Equal(t, b.LastErrorCode(), c.Error.Code)
				assert.Equal(t, b.LastErrorOffset(), uint32(c.Error.Offset))
				return
			}
			assert.Assert(t, h != 0, "compile failed: %d at %d", b.LastErrorCode(), b.LastErrorOffset())
			defer b.DestroyCode(h)
			md := b.CreateMatchData(h)
			defer b.DestroyMatchData(md)

			subject := u16e(c.Subject)
			if s := c.Substitute; s != nil {
				var options uint32
				for _, name := range s.Options {
					opt, ok := substituteOptionNames[name]
					assert.Assert(t, ok, "unknown option %q", name)
					options |= opt
				}
				out := make([]uint16, 4*len(subject)+64)
				n := b.Substitute(h, subject, c.Offset, md, options, u16e(s.Replacement), out)
				if s.Code != 0 {
					assert.Equal(t, n, s.Code)
					return
				}
				assert.Assert(t, n >= 0, "substitute failed: %d", n)
				assert.Equal(t, u16d(out[:n]), s.Want)
				return
			}

			rc := b.Match(h, subject, c.Offset, md)
			if c.NoMatch {
				assert.Equal(t, rc, ErrNoMatch)
				return
			}
			assert.Assert(t, rc > 0, "match failed: %d", rc)
			ov := b.Ovector(md)
			actual := make([][]int, b.GetOvectorCount(md))
			for i := range actual {
				if ov[2*i] != Unset {
					actual[i] = []int{int(ov[2*i]), int(ov[2*i+1])}
				}
			}
			if diff := cmp.Diff(c.Groups, actual); diff != "" {
				t.Fatalf("ovector (-want +got):\n%s", diff)
			}
		})
	}
}
