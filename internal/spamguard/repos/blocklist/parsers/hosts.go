package parsers

import (
	"bufio"
	"io"
	"strings"
	"time"

	logpkg "github.com/haukened/spamguard/internal/spamguard/common/log"
	"github.com/haukened/spamguard/internal/spamguard/common/utils"
	"github.com/haukened/spamguard/internal/spamguard/domain"
)

// ParseHostsList parses a hosts-style list ("0.0.0.0 mailinator.com") into
// BlockRule values. Some mirrors publish disposable domains this way for DNS
// sinkholes.
//
// Rules:
// - The address field is ignored; every following token is a domain
// - Whole-line and inline '#' comments are dropped
// - Wildcards and names starting with '.' are skipped
// - Names must have at least two labels of 1-63 bytes
// - De-duplicated by canonical name, first-seen order preserved
func ParseHostsList(r io.Reader, source string, logger logpkg.Logger, now time.Time) ([]domain.BlockRule, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	seen := make(map[string]struct{})
	out := make([]domain.BlockRule, 0, 4096)

	logger.Debug(map[string]any{"source": source}, "parse_hosts_start")

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(stripInlineComment(strings.TrimPrefix(scanner.Text(), "\uFEFF")))
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			logger.Debug(map[string]any{"line": lineNum}, "hosts_no_hostnames")
			continue
		}

		for _, raw := range fields[1:] {
			if strings.HasPrefix(raw, ".") || strings.Contains(raw, "*") {
				logger.Debug(map[string]any{"line": lineNum, "raw": raw}, "hosts_skip_invalid_token")
				continue
			}

			name := utils.CanonicalDomain(raw)
			if !isValidDomain(name) {
				logger.Debug(map[string]any{"line": lineNum, "name": name}, "hosts_skip_invalid_domain")
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}

			rule, err := domain.NewBlockRule(name, source, now)
			if err != nil {
				logger.Debug(map[string]any{"line": lineNum, "name": name, "error": err.Error()}, "hosts_skip_constructor_error")
				continue
			}
			out = append(out, rule)
			seen[name] = struct{}{}
		}
	}

	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"source": source, "error": err.Error()}, "parse_hosts_scan_error")
		return nil, err
	}

	logger.Debug(map[string]any{"source": source, "count": len(out)}, "parse_hosts_done")
	return out, nil
}
