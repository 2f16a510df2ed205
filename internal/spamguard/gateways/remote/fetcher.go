// Package remote fetches the externally maintained disposable-domain list.
// Every failure is absorbed here: callers only ever see "list unavailable".
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/haukened/spamguard/internal/spamguard/common/clock"
	"github.com/haukened/spamguard/internal/spamguard/common/log"
	"github.com/haukened/spamguard/internal/spamguard/repos/blocklist"
	"github.com/haukened/spamguard/internal/spamguard/repos/blocklist/parsers"
)

const (
	// DefaultURL is the versioned community list of disposable domains.
	DefaultURL = "https://raw.githubusercontent.com/disposable-email-domains/disposable-email-domains/master/disposable_email_blocklist.conf"

	// MaxTimeout is the hard ceiling on a single fetch.
	MaxTimeout = 5 * time.Second

	// DefaultMaxBodyBytes caps how much of the response is accepted.
	DefaultMaxBodyBytes = 16 << 20
)

// Fetch outcomes reported to the observer.
const (
	OutcomeOK          = "ok"
	OutcomeTimeout     = "timeout"
	OutcomeTransport   = "transport_error"
	OutcomeBadStatus   = "bad_status"
	OutcomeParseFailed = "parse_error"
)

// Error message constants for consistent logging
const (
	errBuildRequest = "build request: %w"
	errStatus       = "unexpected status %d"
)

// errBodyTooLarge fails a list that would otherwise be silently truncated.
var errBodyTooLarge = errors.New("response body exceeds limit")

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer receives one call per fetch attempt.
type Observer interface {
	ObserveFetch(outcome string, elapsed time.Duration)
}

// Options configures a Fetcher.
type Options struct {
	// URL of the newline-delimited list. Defaults to DefaultURL.
	URL string
	// Timeout per fetch; zero or anything above MaxTimeout becomes MaxTimeout.
	Timeout time.Duration
	// FPRate for the Bloom prefilter of the resulting set.
	FPRate float64
	// Parser for the body. Defaults to parsers.ParsePlainList.
	Parser parsers.Parser
	// MaxBodyBytes rejects larger bodies. Zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// options to inject for testing purposes
	Client   HTTPDoer
	Bloom    blocklist.BloomFactory
	Clock    clock.Clock
	Logger   log.Logger
	Observer Observer
}

// Fetcher performs a single GET per call and parses the body into a blocklist.Set.
type Fetcher struct {
	url      string
	timeout  time.Duration
	fpRate   float64
	parse    parsers.Parser
	maxBody  int64
	client   HTTPDoer
	bloom    blocklist.BloomFactory
	clock    clock.Clock
	logger   log.Logger
	observer Observer
}

// NewFetcher creates a Fetcher with defaults applied.
func NewFetcher(opts Options) *Fetcher {
	f := &Fetcher{
		url:      opts.URL,
		timeout:  opts.Timeout,
		fpRate:   opts.FPRate,
		parse:    opts.Parser,
		maxBody:  opts.MaxBodyBytes,
		client:   opts.Client,
		bloom:    opts.Bloom,
		clock:    opts.Clock,
		logger:   opts.Logger,
		observer: opts.Observer,
	}
	if f.url == "" {
		f.url = DefaultURL
	}
	if f.timeout <= 0 || f.timeout > MaxTimeout {
		f.timeout = MaxTimeout
	}
	if f.maxBody <= 0 {
		f.maxBody = DefaultMaxBodyBytes
	}
	if f.parse == nil {
		f.parse = parsers.ParsePlainList
	}
	if f.client == nil {
		// the per-fetch context carries the deadline
		f.client = &http.Client{}
	}
	if f.clock == nil {
		f.clock = clock.RealClock{}
	}
	if f.logger == nil {
		f.logger = log.NewNoopLogger()
	}
	return f
}

// Source returns the list URL.
func (f *Fetcher) Source() string { return f.url }

// Fetch retrieves and parses the list once. It never retries and never returns
// an error: ok is false on transport failure, non-2xx status, timeout, or an
// unreadable or oversized body.
func (f *Fetcher) Fetch(ctx context.Context) (*blocklist.Set, bool) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	set, outcome, err := f.fetch(ctx)
	elapsed := time.Since(start)
	if f.observer != nil {
		f.observer.ObserveFetch(outcome, elapsed)
	}
	if err != nil {
		f.logger.Warn(map[string]any{
			"url":     f.url,
			"outcome": outcome,
			"elapsed": elapsed.String(),
			"error":   err.Error(),
		}, "Remote blocklist fetch failed")
		return nil, false
	}

	f.logger.Debug(map[string]any{
		"url":     f.url,
		"domains": set.Len(),
		"elapsed": elapsed.String(),
	}, "Remote blocklist fetched")
	return set, true
}

func (f *Fetcher) fetch(ctx context.Context) (*blocklist.Set, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, OutcomeTransport, fmt.Errorf(errBuildRequest, err)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.classify(ctx, OutcomeTransport), err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, OutcomeBadStatus, fmt.Errorf(errStatus, resp.StatusCode)
	}

	body := &cappedReader{r: resp.Body, n: f.maxBody}
	rules, err := f.parse(body, f.url, f.logger, f.clock.Now())
	if err != nil {
		return nil, f.classify(ctx, OutcomeParseFailed), err
	}
	return blocklist.NewSet(rules, f.bloom, f.fpRate), OutcomeOK, nil
}

// classify reports a timeout when the deadline, rather than the peer, ended the fetch.
func (f *Fetcher) classify(ctx context.Context, fallback string) string {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return OutcomeTimeout
	}
	return fallback
}

// cappedReader yields at most n bytes and then errors if the source has more,
// so an oversized list fails to parse instead of ending mid-domain.
type cappedReader struct {
	r io.Reader
	n int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.n <= 0 {
		var one [1]byte
		k, err := io.ReadFull(c.r, one[:])
		if k > 0 {
			return 0, errBodyTooLarge
		}
		return 0, err
	}
	if int64(len(p)) > c.n {
		p = p[:c.n]
	}
	k, err := c.r.Read(p)
	c.n -= int64(k)
	return k, err
}

var _ blocklist.Fetcher = (*Fetcher)(nil)
