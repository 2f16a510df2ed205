// Package lexical holds the pure string measurements used by the scorer.
// Every function is total: the empty string yields zero.
//
// Characters are counted by byte (UTF-8 code unit) with no normalization or
// case folding, so "aA" has one bit of entropy while "aa" has none.
package lexical

import (
	"math"

	"github.com/haukened/spamguard/internal/spamguard/domain"
)

// Entropy returns the Shannon entropy of s in bits: -Σ p·log2(p) over the
// empirical frequency of each distinct byte.
func Entropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	var freq [256]int
	for i := 0; i < len(s); i++ {
		freq[s[i]]++
	}
	n := float64(len(s))
	var h float64
	for _, c := range freq {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	// a single repeated symbol computes as -0
	if h <= 0 {
		return 0
	}
	return h
}

// DigitRatio returns the fraction of bytes in s that are ASCII digits.
func DigitRatio(s string) float64 {
	return ratio(s, isDigit)
}

// VowelRatio returns the fraction of bytes in s that are ASCII vowels, either case.
func VowelRatio(s string) float64 {
	return ratio(s, isVowel)
}

// Measure computes all three metrics over a local part.
func Measure(local string) domain.Metrics {
	return domain.Metrics{
		Entropy:    Entropy(local),
		DigitRatio: DigitRatio(local),
		VowelRatio: VowelRatio(local),
	}
}

func ratio(s string, match func(byte) bool) float64 {
	if len(s) == 0 {
		return 0
	}
	count := 0
	for i := 0; i < len(s); i++ {
		if match(s[i]) {
			count++
		}
	}
	return float64(count) / float64(len(s))
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isVowel(b byte) bool {
	switch b {
	case 'a', 'e', 'i', 'o', 'u', 'A', 'E', 'I', 'O', 'U':
		return true
	}
	return false
}
