package domain

import (
	"fmt"
	"strings"
	"time"
)

// BlockRule is a single disposable domain sourced from a curated list or a feed.
//
// Name is expected to be canonical (see utils.CanonicalDomain).
// Source identifies where the rule came from (feed URL or "priority").
type BlockRule struct {
	Name    string
	Source  string
	AddedAt time.Time
}

// NewBlockRule constructs a BlockRule and validates its fields.
func NewBlockRule(name, source string, addedAt time.Time) (BlockRule, error) {
	r := BlockRule{
		Name:    strings.TrimSpace(name),
		Source:  strings.TrimSpace(source),
		AddedAt: addedAt,
	}
	if err := r.Validate(); err != nil {
		return BlockRule{}, err
	}
	return r, nil
}

// Validate checks the BlockRule for required fields.
func (r BlockRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name must not be empty")
	}
	if r.Source == "" {
		return fmt.Errorf("rule source must not be empty")
	}
	if r.AddedAt.IsZero() {
		return fmt.Errorf("rule addedAt must be set")
	}
	return nil
}
