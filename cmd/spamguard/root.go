package main

import (
	"errors"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/haukened/spamguard/internal/spamguard/common/log"
)

// errThreshold is returned when --fail-on matched at least one address.
var errThreshold = errors.New("risk threshold reached")

type rootOptions struct {
	logLevel string
	noColor  bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "spamguard",
		Short: "Score email addresses for disposability and bot-like patterns",
		Long: `spamguard scores email addresses against a curated list of disposable
domains, the community maintained remote list, and lexical heuristics on the
local part, then recommends allow, flag or block.

Examples:
  spamguard check user@example.com
  spamguard check --pretty a@tempmail.com b@gmail.com
  spamguard check -f signups.txt --concurrency 8 --progress`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.noColor {
				color.NoColor = true
			}
			return log.Configure("dev", opts.logLevel)
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "error", "Log level for diagnostics on stderr")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(newCheckCmd())
	return root
}

// exitCode maps command errors to process exit status.
func exitCode(err error) int {
	if errors.Is(err, errThreshold) {
		return 2
	}
	return 1
}
