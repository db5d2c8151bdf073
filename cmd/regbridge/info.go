package main

import (
	"fmt"
	"io"

	"github.com/auvred/regbridge"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info <pattern>",
		Short: "Compile a pattern and report its capture layout",
		Long: `The info command compiles the pattern and displays its capture count
and name table, or the compile error with its offset.

Example:
  regbridge info '(?<year>\d{4})-(?<month>\d\d)'
  regbridge info -f x '( a ) # comment' --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.OutOrStdout(), args)
		},
	}
	return cmd
}

type patternInfo struct {
	Captures       int                   `json:"captures"`
	NameCount      int                   `json:"nameCount"`
	NameEntrySize  int                   `json:"nameEntrySize"`
	Names          []regbridge.NameEntry `json:"names"`
	CompileOptions string                `json:"options"`
}

func runInfo(w io.Writer, args []string) error {
	s, err := openSession(args[0])
	if err != nil {
		return err
	}
	defer s.close()

	count := int(s.bridge.GetMatchNameCount(s.code))
	size := int(s.bridge.GetMatchNameTableEntrySize(s.code))
	parsed, _ := regbridge.ParseFlags([]byte(flags))
	info := patternInfo{
		Captures:       int(s.bridge.GetCaptureCount(s.code)),
		NameCount:      count,
		NameEntrySize:  size,
		Names:          regbridge.DecodeNameTable(s.bridge.NameTable(s.code), count, size),
		CompileOptions: parsed.String(),
	}

	if jsonOut {
		return printJSON(w, info)
	}
	fmt.Fprintf(w, "Pattern Information:\n")
	fmt.Fprintf(w, "  Options: %s\n", info.CompileOptions)
	fmt.Fprintf(w, "  Capture groups: %d\n", info.Captures)
	fmt.Fprintf(w, "  Named groups: %d (entry size %d)\n", info.NameCount, info.NameEntrySize)
	for _, e := range info.Names {
		fmt.Fprintf(w, "    %d: %s\n", e.Group, e.Name)
	}
	return nil
}
