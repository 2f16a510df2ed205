package domain

import "math"

// Metrics are the lexical measurements taken over a local part.
type Metrics struct {
	Entropy    float64
	DigitRatio float64
	VowelRatio float64
}

// Rounded returns a copy with every measurement rounded half-up to two decimals.
func (m Metrics) Rounded() Metrics {
	return Metrics{
		Entropy:    Round2(m.Entropy),
		DigitRatio: Round2(m.DigitRatio),
		VowelRatio: Round2(m.VowelRatio),
	}
}

// Round2 rounds half-up to two decimal places.
func Round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

// Percent converts a ratio to a whole percentage, rounding half-up.
func Percent(ratio float64) int {
	return int(math.Floor(ratio*100 + 0.5))
}

// Verdict is the outcome of scoring one address. It is built fresh per call
// and not mutated after it is returned.
type Verdict struct {
	Email         string
	IsValidFormat bool
	IsDisposable  bool
	RiskScore     int
	Action        Action
	Metrics       Metrics
	// Flags are human-readable reasons in the order they were raised.
	Flags []string
}

// NewVerdict returns the starting point for scoring email: valid format,
// not disposable, zero risk, allow, no flags.
func NewVerdict(email string) Verdict {
	return Verdict{
		Email:         email,
		IsValidFormat: true,
		Action:        ActionAllow,
		Flags:         []string{},
	}
}

// AddFlag appends a reason. Flags are never reordered or deduplicated.
func (v *Verdict) AddFlag(flag string) {
	v.Flags = append(v.Flags, flag)
}

// Block marks the verdict as a terminal block with a single reason.
func (v *Verdict) Block(flag string) {
	v.RiskScore = MaxRiskScore
	v.Action = ActionBlock
	v.AddFlag(flag)
}
