// internal/cli/shell.go
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dalemusser/dotmail/internal/export"
	"github.com/dalemusser/dotmail/internal/session"
	"github.com/dalemusser/dotmail/internal/text"
	"github.com/dalemusser/dotmail/internal/variant"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

const shellHelp = `Commands:
  email <address>        set the address (a bare address works too)
  example                use name@gmail.com
  count <n>              generate the first n variants
  all                    generate every variant
  generate               run the generator
  show [n]               print the last result (or its first n lines)
  save [file] [format]   save the last result (default emails.txt)
  help                   this text
  quit                   leave`

func shellCmd(root *rootOptions) *cobra.Command {
	var (
		strict       bool
		ceiling      int
		defaultCount int
	)

	c := &cobra.Command{
		Use:   "shell",
		Short: "Interactive session: enter an address, pick a count, generate, save",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := session.New(
				session.WithValidator(validator(strict)),
				session.WithCeiling(ceiling),
				session.WithDefaultCount(defaultCount),
			)
			sh := &shell{
				s:      s,
				in:     cmd.InOrStdin(),
				out:    cmd.OutOrStdout(),
				logger: root.logger(),
			}
			return sh.run()
		},
	}

	c.Flags().BoolVar(&strict, "strict", false, "Also require a dotted domain")
	c.Flags().IntVarP(&defaultCount, "count", "n", session.DefaultCount, "Count chosen for each new address (clamped to its total)")
	c.Flags().IntVar(&ceiling, "max", 1_000_000, "Refuse to generate more than this many variants (0 = no limit)")
	return c
}

type shell struct {
	s      *session.Session
	in     io.Reader
	out    io.Writer
	logger *zap.Logger
}

func (sh *shell) printf(format string, args ...any) {
	fmt.Fprintf(sh.out, format, args...)
}

func (sh *shell) run() error {
	sh.printf("dotmail: turn one address into thousands of variants. Type \"help\" for commands.\n")
	sc := bufio.NewScanner(sh.in)
	for {
		sh.printf("> ")
		if !sc.Scan() {
			sh.printf("\n")
			return sc.Err()
		}
		if quit := sh.exec(strings.TrimSpace(sc.Text())); quit {
			return nil
		}
	}
}

// exec runs one command line and reports whether the shell should exit.
func (sh *shell) exec(line string) bool {
	if line == "" {
		return false
	}
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		sh.printf("%s\n", shellHelp)
	case "email":
		sh.setInput(arg)
	case "example":
		sh.report(sh.s.PasteExample())
	case "count":
		sh.setCount(arg)
	case "all":
		sh.setAll()
	case "generate", "gen":
		sh.generate()
	case "show":
		sh.show(arg)
	case "save":
		sh.save(arg)
	default:
		if strings.Contains(line, "@") {
			sh.setInput(line)
			return false
		}
		sh.printf("Unknown command %q. Type \"help\" for commands.\n", name)
	}
	return false
}

func (sh *shell) setInput(in string) {
	sh.report(sh.s.SetInput(in))
}

// report prints the validation outcome of the current input.
func (sh *shell) report(err error) {
	switch {
	case errors.Is(err, session.ErrNoInput):
		sh.printf("Enter an address, e.g. %s\n", session.Example)
	case err != nil:
		sh.printf("Invalid format. Expected an address like %s (%s)\n", session.Example, variant.Reason(err))
	default:
		total, _ := sh.s.Total()
		sh.printf("Email is valid! Variants: %s\n", text.Total(language.English, total))
	}
}

func (sh *shell) setCount(arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		sh.printf("count needs a number\n")
		return
	}
	if err := sh.s.SetCount(n); err != nil {
		sh.printf("%v\n", err)
		return
	}
	// SetCount clamps to the total; report what was stored.
	sh.printf("Will generate %s addresses\n", text.Thousands(language.English, uint64(sh.s.Count())))
}

func (sh *shell) setAll() {
	total, ok := sh.s.Total()
	if !ok {
		sh.report(sh.s.Err())
		return
	}
	sh.s.SetAll()
	sh.printf("Will generate all %s addresses\n", text.Total(language.English, total))
}

func (sh *shell) generate() {
	res, err := sh.s.Generate()
	if err != nil {
		if errors.Is(err, session.ErrOverCeiling) {
			sh.printf("%v\n", err)
			return
		}
		sh.report(err)
		return
	}
	sh.logger.Debug("shell generated", zap.Int("count", res.Len()))
	sh.printf("Generated %d addresses\n", res.Len())
}

func (sh *shell) show(arg string) {
	res, ok := sh.s.Result()
	if !ok {
		sh.printf("%v\n", session.ErrNoResult)
		return
	}
	n := res.Len()
	if arg != "" {
		k, err := strconv.Atoi(arg)
		if err != nil || k < 0 {
			sh.printf("show needs a non-negative number\n")
			return
		}
		n = min(k, n)
	}
	sh.printf("Result (%d):\n", res.Len())
	for _, v := range res.Variants[:n] {
		sh.printf("%s\n", v)
	}
}

func (sh *shell) save(arg string) {
	fields := strings.Fields(arg)
	filename := export.DefaultFilename
	if len(fields) > 0 {
		filename = fields[0]
	}

	format, ok := export.FormatFromName(filename)
	if !ok {
		format = export.Text
	}
	if len(fields) > 1 {
		f, err := export.ParseFormat(fields[1])
		if err != nil {
			sh.printf("%v\n", err)
			return
		}
		format = f
	}

	if err := sh.s.Save(filename, format); err != nil {
		sh.printf("%v\n", err)
		return
	}
	sh.printf("Saved to %s\n", filename)
}
