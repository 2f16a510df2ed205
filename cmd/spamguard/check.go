package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/haukened/spamguard/internal/spamguard/common/log"
	"github.com/haukened/spamguard/internal/spamguard/config"
	"github.com/haukened/spamguard/internal/spamguard/domain"
	"github.com/haukened/spamguard/internal/spamguard/gateways/httpapi"
	"github.com/haukened/spamguard/internal/spamguard/gateways/remote"
	"github.com/haukened/spamguard/internal/spamguard/repos/blocklist"
	"github.com/haukened/spamguard/internal/spamguard/repos/blocklist/bloom"
	"github.com/haukened/spamguard/internal/spamguard/repos/blocklist/lru"
	"github.com/haukened/spamguard/internal/spamguard/repos/blocklist/parsers"
	"github.com/haukened/spamguard/internal/spamguard/services/scorer"
)

type checkOptions struct {
	file        string
	pretty      bool
	concurrency int
	noRemote    bool
	url         string
	format      string
	timeout     time.Duration
	cacheTTL    time.Duration
	progress    bool
	failOn      string
}

func newCheckCmd() *cobra.Command {
	defaults := config.DEFAULT_APP_CONFIG
	opts := &checkOptions{}

	cmd := &cobra.Command{
		Use:   "check [email...]",
		Short: "Score one or more email addresses",
		Long: `Score email addresses and print one JSON result per line, in input order.

Addresses come from the arguments and, with --file, from a file with one
address per line ("-" reads stdin). Blank lines and lines starting with # are
skipped.

Within one run the remote list is fetched once and reused for --cache-ttl.
Use --cache-ttl 0 to fetch it for every address.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "Read addresses from file, one per line")
	f.BoolVar(&opts.pretty, "pretty", false, "Print a colored one-line summary instead of JSON")
	f.IntVarP(&opts.concurrency, "concurrency", "c", 4, "Addresses scored at once")
	f.BoolVar(&opts.noRemote, "no-remote", false, "Skip the remote blocklist")
	f.StringVar(&opts.url, "url", defaults.BlocklistURL, "Remote blocklist URL")
	f.StringVar(&opts.format, "format", defaults.BlocklistFormat, `Remote list format, "plain" or "hosts"`)
	f.DurationVar(&opts.timeout, "timeout", defaults.BlocklistTimeout, "Remote fetch timeout (max 5s)")
	f.DurationVar(&opts.cacheTTL, "cache-ttl", 10*time.Minute, "Reuse a fetched remote list for this long")
	f.BoolVar(&opts.progress, "progress", false, "Show a progress bar on stderr")
	f.StringVar(&opts.failOn, "fail-on", "", `Exit with status 2 if any address reaches this action ("flag" or "block")`)
	return cmd
}

func runCheck(cmd *cobra.Command, opts *checkOptions, args []string) error {
	if opts.concurrency < 1 {
		return fmt.Errorf("--concurrency must be at least 1, got %d", opts.concurrency)
	}
	var failOn domain.Action
	if opts.failOn != "" {
		if err := failOn.UnmarshalText([]byte(opts.failOn)); err != nil {
			return fmt.Errorf("--fail-on: %w", err)
		}
		// every verdict is at least allow
		if failOn == domain.ActionAllow {
			return fmt.Errorf(`--fail-on: must be "flag" or "block", got %q`, opts.failOn)
		}
	}

	emails, err := collectEmails(args, opts.file, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if len(emails) == 0 {
		return fmt.Errorf("no email addresses given")
	}

	repo, err := newRepository(opts)
	if err != nil {
		return err
	}
	s := scorer.NewScorer(scorer.Options{
		Blocklist: repo,
		Logger:    log.GetLogger(),
	})

	var bar *progressbar.ProgressBar
	if opts.progress {
		bar = progressbar.NewOptions(len(emails),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionSetDescription("Scoring"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("emails"),
			progressbar.OptionClearOnFinish(),
		)
	}

	verdicts, err := scoreAll(cmd.Context(), s, emails, opts.concurrency, bar)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.pretty {
		printPretty(out, verdicts)
	} else if err := printJSON(out, verdicts); err != nil {
		return err
	}

	if opts.failOn != "" {
		n := 0
		for _, v := range verdicts {
			if v.Action >= failOn {
				n++
			}
		}
		if n > 0 {
			return fmt.Errorf("%d address(es) at or above %s: %w", n, failOn, errThreshold)
		}
	}
	return nil
}

// newRepository builds the blocklist for one CLI run.
func newRepository(opts *checkOptions) (blocklist.Repository, error) {
	logger := log.GetLogger()
	var fetcher blocklist.Fetcher
	if !opts.noRemote {
		parse, err := parsers.ForFormat(opts.format)
		if err != nil {
			return nil, fmt.Errorf("--format: %w", err)
		}
		fetcher = remote.NewFetcher(remote.Options{
			URL:     opts.url,
			Timeout: opts.timeout,
			Parser:  parse,
			Bloom:   bloom.NewFactory(),
			Logger:  logger,
		})
	}
	return blocklist.NewRepository(fetcher, lru.New(1, opts.cacheTTL), logger), nil
}

// scoreAll scores emails with at most limit in flight. Results keep input order.
func scoreAll(ctx context.Context, s *scorer.Scorer, emails []string, limit int, bar *progressbar.ProgressBar) ([]domain.Verdict, error) {
	verdicts := make([]domain.Verdict, len(emails))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, email := range emails {
		i, email := i, email
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			verdicts[i] = s.Score(ctx, strings.TrimSpace(strings.ToLower(email)))
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return verdicts, nil
}

// collectEmails merges positional arguments with the lines of file.
func collectEmails(args []string, file string, stdin io.Reader) ([]string, error) {
	emails := append([]string(nil), args...)
	if file == "" {
		return emails, nil
	}

	r := stdin
	if file != "-" {
		fh, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("open address file: %w", err)
		}
		defer fh.Close()
		r = fh
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		emails = append(emails, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read address file: %w", err)
	}
	return emails, nil
}

func printJSON(w io.Writer, verdicts []domain.Verdict) error {
	enc := json.NewEncoder(w)
	for _, v := range verdicts {
		if err := enc.Encode(httpapi.NewCheckResponse(v)); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	}
	return nil
}

func printPretty(w io.Writer, verdicts []domain.Verdict) {
	styles := map[domain.Action]*color.Color{
		domain.ActionAllow: color.New(color.FgGreen),
		domain.ActionFlag:  color.New(color.FgYellow),
		domain.ActionBlock: color.New(color.FgRed, color.Bold),
	}
	dim := color.New(color.Faint)
	for _, v := range verdicts {
		styles[v.Action].Fprintf(w, "%-5s", strings.ToUpper(v.Action.String()))
		fmt.Fprintf(w, " %3d  %s", v.RiskScore, v.Email)
		dim.Fprintf(w, "  %s", strings.Join(v.Flags, "; "))
		fmt.Fprintln(w)
	}
}
