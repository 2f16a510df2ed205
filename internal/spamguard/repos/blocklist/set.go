package blocklist

import (
	"github.com/haukened/spamguard/internal/spamguard/common/utils"
	"github.com/haukened/spamguard/internal/spamguard/domain"
)

// Set is an immutable DomainSet. Lookups consult the optional Bloom filter
// first and only touch the map on a maybe-positive; the filter never changes
// the answer, since it has no false negatives.
type Set struct {
	rules map[string]domain.BlockRule
	bloom BloomFilter
}

// NewSet builds a Set from rules. Rule names are canonicalized; the first
// rule seen for a name wins. A nil factory skips the Bloom prefilter.
func NewSet(rules []domain.BlockRule, factory BloomFactory, fpRate float64) *Set {
	s := &Set{rules: make(map[string]domain.BlockRule, len(rules))}
	for _, r := range rules {
		name := utils.CanonicalDomain(r.Name)
		if name == "" {
			continue
		}
		if _, dup := s.rules[name]; dup {
			continue
		}
		r.Name = name
		s.rules[name] = r
	}
	if factory != nil {
		bf := factory.New(uint64(len(s.rules)), fpRate)
		for name := range s.rules {
			bf.Add([]byte(name))
		}
		s.bloom = bf
	}
	return s
}

// Contains reports whether the canonical form of name is in the set.
func (s *Set) Contains(name string) bool {
	_, ok := s.Lookup(name)
	return ok
}

// Lookup returns the matching rule for name, if any.
func (s *Set) Lookup(name string) (domain.BlockRule, bool) {
	if s == nil {
		return domain.BlockRule{}, false
	}
	cn := utils.CanonicalDomain(name)
	if s.bloom != nil && !s.bloom.MightContain([]byte(cn)) {
		return domain.BlockRule{}, false
	}
	r, ok := s.rules[cn]
	return r, ok
}

// Len returns the number of distinct domains.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rules)
}

var _ DomainSet = (*Set)(nil)
