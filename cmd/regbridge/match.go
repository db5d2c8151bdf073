package main

import (
	"fmt"
	"io"

	"github.com/auvred/regbridge"
	"github.com/spf13/cobra"
)

var (
	matchOffset int
	matchAll    bool
)

func init() {
	rootCmd.AddCommand(newMatchCmd())
}

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <pattern> [subject]",
		Short: "Match a pattern and print capture spans",
		Long: `The match command compiles the pattern, matches it against the subject
and prints every capture group with its code-unit span.

Example:
  regbridge match 'a(?<rest>b+)' abbbc
  regbridge match --all -f i 'x' XxX --json`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd.OutOrStdout(), args)
		},
	}
	cmd.Flags().IntVar(&matchOffset, "offset", 0, "Start offset in code units")
	cmd.Flags().BoolVar(&matchAll, "all", false, "Report every non-overlapping match")
	return cmd
}

type groupResult struct {
	Group int    `json:"group"`
	Name  string `json:"name,omitempty"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
}

type matchResult struct {
	Groups []groupResult `json:"groups"`
}

func runMatch(w io.Writer, args []string) error {
	text, err := subject(args, 1)
	if err != nil {
		return err
	}
	s, err := openSession(args[0])
	if err != nil {
		return err
	}
	defer s.close()

	names := map[int]string{}
	table := s.bridge.NameTable(s.code)
	count := int(s.bridge.GetMatchNameCount(s.code))
	size := int(s.bridge.GetMatchNameTableEntrySize(s.code))
	for _, e := range regbridge.DecodeNameTable(table, count, size) {
		names[e.Group] = e.Name
	}

	md := s.bridge.CreateMatchData(s.code)
	defer s.bridge.DestroyMatchData(md)

	var results []matchResult
	offset := matchOffset
	for offset <= len(text) {
		rc := s.bridge.Match(s.code, text, offset, md)
		if rc == regbridge.ErrNoMatch {
			break
		}
		if rc < 0 {
			return fmt.Errorf("match failed: %w", regbridge.MatchError{Code: rc})
		}
		ov := s.bridge.Ovector(md)
		var res matchResult
		for i := 0; i < int(s.bridge.GetOvectorCount(md)); i++ {
			start, end := ov[2*i], ov[2*i+1]
			if start == regbridge.Unset {
				continue
			}
			res.Groups = append(res.Groups, groupResult{
				Group: i,
				Name:  names[i],
				Start: int(start),
				End:   int(end),
				Text:  decode(text[start:end]),
			})
		}
		results = append(results, res)
		s.logger.Debug("matched", "offset", offset, "rc", rc)
		if !matchAll {
			break
		}
		offset = int(ov[1])
		if ov[0] == ov[1] {
			offset++
			if offset < len(text) && text[offset]&0xfc00 == 0xdc00 {
				offset++
			}
		}
	}

	if jsonOut {
		return printJSON(w, results)
	}
	if len(results) == 0 {
		fmt.Fprintln(w, "no match")
		return nil
	}
	for n, res := range results {
		if matchAll {
			fmt.Fprintf(w, "match %d:\n", n+1)
		}
		for _, g := range res.Groups {
			label := fmt.Sprint(g.Group)
			if g.Name != "" {
				label += " <" + g.Name + ">"
			}
			fmt.Fprintf(w, "  %s: [%d, %d) %q\n", label, g.Start, g.End, g.Text)
		}
	}
	return nil
}
