package main

import (
	"fmt"
	"io"

	"github.com/auvred/regbridge"
	"github.com/spf13/cobra"
)

var (
	substOffset     int
	substGlobal     bool
	substExtended   bool
	substLiteral    bool
	substUnsetEmpty bool
)

func init() {
	rootCmd.AddCommand(newSubstCmd())
}

func newSubstCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subst <pattern> <replacement> [subject]",
		Short: "Replace matches of a pattern",
		Long: `The subst command replaces the first match (every match with --global)
of the pattern in the subject and prints the result.

Example:
  regbridge subst '(\w+)@(\w+)' '$2 at $1' user@host
  regbridge subst --global --extended '\w+' '\u$0' 'hello world'`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubst(cmd.OutOrStdout(), args)
		},
	}
	cmd.Flags().IntVar(&substOffset, "offset", 0, "Start offset in code units")
	cmd.Flags().BoolVarP(&substGlobal, "global", "g", false, "Replace every match")
	cmd.Flags().BoolVarP(&substExtended, "extended", "e", false, "Extended replacement syntax")
	cmd.Flags().BoolVar(&substLiteral, "literal", false, "Insert the replacement verbatim")
	cmd.Flags().BoolVar(&substUnsetEmpty, "unset-empty", false, "Treat unset groups as empty")
	return cmd
}

func substituteOptions() uint32 {
	var options uint32
	if substGlobal {
		options |= regbridge.SubstituteGlobal
	}
	if substExtended {
		options |= regbridge.SubstituteExtended
	}
	if substLiteral {
		options |= regbridge.SubstituteLiteral
	}
	if substUnsetEmpty {
		options |= regbridge.SubstituteUnsetEmpty
	}
	return options
}

func runSubst(w io.Writer, args []string) error {
	text, err := subject(args, 2)
	if err != nil {
		return err
	}
	s, err := openSession(args[0])
	if err != nil {
		return err
	}
	defer s.close()

	replacement := encode(args[1])
	options := substituteOptions()
	out := make([]uint16, 2*len(text)+64)
	for {
		n := s.bridge.Substitute(s.code, text, substOffset, 0, options, replacement, out)
		if n == regbridge.ErrNoMemory {
			out = make([]uint16, 2*len(out))
			s.logger.Debug("growing output buffer", "size", len(out))
			continue
		}
		if n < 0 {
			return fmt.Errorf("substitution failed: %w", regbridge.MatchError{Code: n})
		}
		result := decode(out[:n])
		if jsonOut {
			return printJSON(w, map[string]interface{}{
				"result": result,
				"length": n,
			})
		}
		fmt.Fprintln(w, result)
		return nil
	}
}
