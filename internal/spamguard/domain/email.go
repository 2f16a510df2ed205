package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFormat is returned when an address does not split into exactly
// one non-empty local part and one non-empty domain.
var ErrInvalidFormat = errors.New("invalid email format")

// EmailAddress is a candidate address decomposed at its single '@'.
// Domain is kept as supplied; callers canonicalize before lookups.
type EmailAddress struct {
	LocalPart string
	Domain    string
}

// ParseEmailAddress splits s on '@'. Absence or multiplicity of the separator,
// or an empty side, is a format error rather than a risk signal.
func ParseEmailAddress(s string) (EmailAddress, error) {
	parts := strings.Split(s, "@")
	if len(parts) != 2 {
		return EmailAddress{}, fmt.Errorf("%w: expected one '@', found %d", ErrInvalidFormat, len(parts)-1)
	}
	if parts[0] == "" || parts[1] == "" {
		return EmailAddress{}, fmt.Errorf("%w: empty local part or domain", ErrInvalidFormat)
	}
	return EmailAddress{LocalPart: parts[0], Domain: parts[1]}, nil
}
