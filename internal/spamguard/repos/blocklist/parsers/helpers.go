package parsers

import (
	"fmt"
	"io"
	"strings"
	"time"

	logpkg "github.com/haukened/spamguard/internal/spamguard/common/log"
	"github.com/haukened/spamguard/internal/spamguard/domain"
)

// Supported list formats.
const (
	FormatPlain = "plain"
	FormatHosts = "hosts"
)

// Parser turns a list body into rules attributed to source.
type Parser func(r io.Reader, source string, logger logpkg.Logger, now time.Time) ([]domain.BlockRule, error)

// ForFormat returns the parser for format. The empty string means plain.
func ForFormat(format string) (Parser, error) {
	switch format {
	case "", FormatPlain:
		return ParsePlainList, nil
	case FormatHosts:
		return ParseHostsList, nil
	default:
		return nil, fmt.Errorf("unsupported list format: %q", format)
	}
}

// stripInlineComment drops everything from the first '#'.
func stripInlineComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		return line[:i]
	}
	return line
}

// isValidDomain requires at least two labels, each 1-63 bytes, and at most
// 253 bytes overall.
func isValidDomain(name string) bool {
	if name == "" || len(name) > 253 {
		return false
	}
	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if len(label) == 0 || len(label) > 63 {
			return false
		}
	}
	return true
}
