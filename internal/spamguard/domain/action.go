package domain

import (
	"fmt"
	"strings"
)

// Action is the recommendation attached to a Verdict.
type Action uint8

const (
	ActionAllow Action = iota
	ActionFlag
	ActionBlock
)

// Score thresholds, evaluated high to low.
const (
	BlockThreshold = 70
	FlagThreshold  = 40
	MaxRiskScore   = 100
)

// ActionForScore maps a clamped risk score to its recommendation.
func ActionForScore(score int) Action {
	switch {
	case score >= BlockThreshold:
		return ActionBlock
	case score >= FlagThreshold:
		return ActionFlag
	default:
		return ActionAllow
	}
}

// String returns the wire name of the action.
func (a Action) String() string {
	switch a {
	case ActionAllow:
		return "allow"
	case ActionFlag:
		return "flag"
	case ActionBlock:
		return "block"
	default:
		return fmt.Sprintf("Action(%d)", a)
	}
}

// MarshalText encodes the action as its lowercase name.
func (a Action) MarshalText() ([]byte, error) {
	switch a {
	case ActionAllow, ActionFlag, ActionBlock:
		return []byte(a.String()), nil
	default:
		return nil, fmt.Errorf("unsupported Action: %d", a)
	}
}

// UnmarshalText accepts "allow", "flag" or "block" (case-insensitive).
func (a *Action) UnmarshalText(b []byte) error {
	parsed, err := ParseAction(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAction converts a string into an Action.
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allow":
		return ActionAllow, nil
	case "flag":
		return ActionFlag, nil
	case "block":
		return ActionBlock, nil
	default:
		return 0, fmt.Errorf("unsupported Action: %q", s)
	}
}
