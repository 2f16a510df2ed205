package utils

import (
	"strings"

	"golang.org/x/net/idna"
)

// CanonicalDomain returns the lookup form of an email domain:
// trimmed, lowercased, without trailing dots, and in IDNA ASCII form when the
// name is valid IDNA. Names that fail IDNA validation keep their lowercase form.
func CanonicalDomain(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	if name == "" || isASCII(name) {
		return name
	}
	ascii, err := idna.Lookup.ToASCII(name)
	if err != nil {
		return name
	}
	return ascii
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
