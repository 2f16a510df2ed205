package httpapi

import "github.com/haukened/spamguard/internal/spamguard/domain"

// CheckResponse is the wire shape of a verdict. The CLI prints the same shape.
type CheckResponse struct {
	Email             string        `json:"email"`
	IsValidFormat     bool          `json:"is_valid_format"`
	IsDisposable      bool          `json:"is_disposable"`
	RiskScore         int           `json:"risk_score"`
	RecommendedAction domain.Action `json:"recommended_action"`
	Details           CheckDetails  `json:"details"`
}

type CheckDetails struct {
	Entropy    float64  `json:"entropy"`
	DigitRatio float64  `json:"digit_ratio"`
	VowelRatio float64  `json:"vowel_ratio"`
	Flags      []string `json:"flags"`
}

// NewCheckResponse renders v for clients, rounding the measurements to two
// decimals.
func NewCheckResponse(v domain.Verdict) CheckResponse {
	m := v.Metrics.Rounded()
	flags := v.Flags
	if flags == nil {
		flags = []string{}
	}
	return CheckResponse{
		Email:             v.Email,
		IsValidFormat:     v.IsValidFormat,
		IsDisposable:      v.IsDisposable,
		RiskScore:         v.RiskScore,
		RecommendedAction: v.Action,
		Details: CheckDetails{
			Entropy:    m.Entropy,
			DigitRatio: m.DigitRatio,
			VowelRatio: m.VowelRatio,
			Flags:      flags,
		},
	}
}
