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

// maxLineBytes bounds a single line; disposable lists are one short domain per line.
const maxLineBytes = 64 * 1024

// ParsePlainList parses a newline-delimited list of disposable domains into BlockRule values.
//
// Behavior:
// - Trims surrounding whitespace and a leading BOM
// - Skips empty lines and lines starting with '#'
// - Canonicalizes names (lowercase, no trailing dot)
// - De-duplicates by canonical name while preserving first-seen order
// - Each rule is attributed to the provided source and timestamped with now
func ParsePlainList(r io.Reader, source string, logger logpkg.Logger, now time.Time) ([]domain.BlockRule, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)

	seen := make(map[string]struct{})
	out := make([]domain.BlockRule, 0, 4096)
	logger.Debug(map[string]any{"source": source}, "parse_plain_list_start")
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\uFEFF"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name := utils.CanonicalDomain(line)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			logger.Debug(map[string]any{"line": lineNum, "name": name}, "skip_duplicate")
			continue
		}

		rule, err := domain.NewBlockRule(name, source, now)
		if err != nil {
			logger.Debug(map[string]any{"line": lineNum, "name": name, "error": err.Error()}, "skip_constructor_error")
			continue
		}
		out = append(out, rule)
		seen[name] = struct{}{}
	}

	if err := scanner.Err(); err != nil {
		logger.Debug(map[string]any{"source": source, "error": err.Error()}, "parse_plain_list_scan_error")
		return nil, err
	}
	logger.Debug(map[string]any{"source": source, "count": len(out)}, "parse_plain_list_done")
	return out, nil
}
