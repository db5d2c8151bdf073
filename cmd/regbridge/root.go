package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf16"

	"github.com/auvred/regbridge"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// Global flags
	verbose  bool
	jsonOut  bool
	flags    string
	encName  string
	inputArg string
)

var rootCmd = &cobra.Command{
	Use:   "regbridge",
	Short: "Drive the regbridge handle surface from the command line",
	Long: `regbridge compiles a pattern through the same handle interface the
WebAssembly build exports, runs it against a subject and prints offsets in
UTF-16 code units.

Subjects are taken from the last argument, or from --input ("-" for stdin)
decoded with --encoding.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log bridge activity to stderr")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVarP(&flags, "flags", "f", "", "Pattern flags (any of m, s, i, x)")
	rootCmd.PersistentFlags().
		StringVar(&encName, "encoding", "utf-8", "Encoding of --input: utf-8, utf-16le, utf-16be, windows-1252")
	rootCmd.PersistentFlags().StringVarP(&inputArg, "input", "i", "", "Read the subject from a file, - for stdin")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "regbridge",
		Level:  level,
	})
}

// session is one bridge plus the pattern compiled on it.
type session struct {
	bridge *regbridge.Bridge
	logger *log.Logger
	code   regbridge.CodeHandle
}

func openSession(pattern string) (*session, error) {
	logger := newLogger()
	s := &session{
		bridge: regbridge.NewBridge(regbridge.WithLogger(logger)),
		logger: logger,
	}
	s.code = s.bridge.Compile(encode(pattern), []byte(flags))
	if s.code == 0 {
		buf := make([]uint16, regbridge.MaxErrorMessageLen+1)
		n := s.bridge.LastErrorMessage(buf)
		return nil, fmt.Errorf("failed to compile pattern: %s at offset %d (code %d)",
			string(utf16.Decode(buf[:max(n, 0)])), s.bridge.LastErrorOffset(), s.bridge.LastErrorCode())
	}
	return s, nil
}

func (s *session) close() {
	s.bridge.DestroyCode(s.code)
	if codes, mds := s.bridge.Live(); codes+mds != 0 {
		s.logger.Warn("handles leaked", "codes", codes, "matchData", mds)
	}
}

func encode(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

func decode(units []uint16) string {
	return string(utf16.Decode(units))
}

func inputEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(name) {
	case "utf-8", "utf8":
		return unicode.UTF8, nil
	case "utf-16le", "utf16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "utf-16be", "utf16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	}
	return nil, fmt.Errorf("unknown encoding %q", name)
}

// subject returns the text to work on: the positional argument at index i
// if present, otherwise the decoded --input.
func subject(args []string, i int) ([]uint16, error) {
	if len(args) > i {
		if inputArg != "" {
			return nil, fmt.Errorf("subject given both as argument and --input")
		}
		return encode(args[i]), nil
	}
	if inputArg == "" {
		return nil, fmt.Errorf("no subject: pass it as an argument or use --input")
	}
	return readSubject(inputArg, encName)
}

func readSubject(path, encName string) ([]uint16, error) {
	enc, err := inputEncoding(encName)
	if err != nil {
		return nil, err
	}
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	text, err := io.ReadAll(transform.NewReader(r, enc.NewDecoder()))
	if err != nil {
		return nil, fmt.Errorf("failed to decode input as %s: %w", encName, err)
	}
	return encode(string(text)), nil
}

// printJSON outputs data as JSON
func printJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
