package scorer

import (
	"context"
	"fmt"

	"github.com/haukened/spamguard/internal/spamguard/common/log"
	"github.com/haukened/spamguard/internal/spamguard/common/utils"
	"github.com/haukened/spamguard/internal/spamguard/domain"
	"github.com/haukened/spamguard/internal/spamguard/services/lexical"
)

// Flags raised by the scorer. Parameterized ones are format strings.
const (
	FlagInvalidFormat     = "Invalid email format"
	FlagPriorityBlocklist = "Known disposable domain (hardcoded blocklist)"
	FlagRemoteBlocklist   = "Disposable domain (remote blocklist)"
	FlagHighEntropy       = "High entropy detected (likely random string)"
	FlagModerateEntropy   = "Moderate entropy (somewhat random pattern)"
	FlagHighDigits        = "High digit density (%d%%)"
	FlagLowVowels         = "Low vowel ratio (%d%% - possible keyboard smash)"
	FlagClean             = "No suspicious patterns detected"
)

// Heuristic thresholds and weights.
const (
	entropyMinLength    = 5
	highEntropy         = 3.8
	moderateEntropy     = 2.8
	highEntropyRisk     = 60
	moderateEntropyRisk = 10

	highDigitRatio = 0.3
	highDigitRisk  = 30

	vowelMinLength = 5
	lowVowelRatio  = 0.1
	lowVowelRisk   = 40
)

// Scorer runs the staged pipeline: format, priority blocklist, remote blocklist,
// then the lexical heuristics. It holds no per-call state and is safe for
// concurrent use.
type Scorer struct {
	blocklist Blocklist
	logger    log.Logger
	observer  Observer
}

type Options struct {
	Blocklist Blocklist
	Logger    log.Logger
	Observer  Observer
}

func NewScorer(opts Options) *Scorer {
	s := &Scorer{
		blocklist: opts.Blocklist,
		logger:    opts.Logger,
		observer:  opts.Observer,
	}
	if s.logger == nil {
		s.logger = log.NewNoopLogger()
	}
	return s
}

// Score evaluates email and returns a fresh Verdict. Malformed input yields a
// blocking verdict rather than an error.
func (s *Scorer) Score(ctx context.Context, email string) domain.Verdict {
	v := s.score(ctx, email)
	if s.observer != nil {
		s.observer.ObserveVerdict(v)
	}
	s.logger.Debug(map[string]any{
		"email":      email,
		"risk_score": v.RiskScore,
		"action":     v.Action.String(),
		"flags":      v.Flags,
	}, "Email scored")
	return v
}

func (s *Scorer) score(ctx context.Context, email string) domain.Verdict {
	v := domain.NewVerdict(email)

	addr, err := domain.ParseEmailAddress(email)
	if err != nil {
		v.IsValidFormat = false
		v.Block(FlagInvalidFormat)
		return v
	}
	host := utils.CanonicalDomain(addr.Domain)

	if s.blocklist != nil {
		if s.blocklist.IsPriorityDisposable(host) {
			v.IsDisposable = true
			v.Block(FlagPriorityBlocklist)
			return v
		}
		if remote, ok := s.blocklist.FetchExpanded(ctx); ok {
			if rule, hit := remote.Lookup(host); hit {
				s.logger.Debug(map[string]any{
					"domain":   host,
					"source":   rule.Source,
					"added_at": rule.AddedAt,
				}, "Remote blocklist match")
				v.IsDisposable = true
				v.Block(FlagRemoteBlocklist)
				return v
			}
		}
	}

	applyHeuristics(&v, addr.LocalPart)
	return v
}

// applyHeuristics runs the three lexical stages, all of them, then finalizes
// the score. Only the total is clamped.
func applyHeuristics(v *domain.Verdict, local string) {
	v.Metrics = lexical.Measure(local)
	m := v.Metrics
	risk := 0

	if len(local) >= entropyMinLength {
		switch {
		case m.Entropy > highEntropy:
			risk += highEntropyRisk
			v.AddFlag(FlagHighEntropy)
		case m.Entropy > moderateEntropy:
			risk += moderateEntropyRisk
			v.AddFlag(FlagModerateEntropy)
		}
	}

	if m.DigitRatio > highDigitRatio {
		risk += highDigitRisk
		v.AddFlag(fmt.Sprintf(FlagHighDigits, domain.Percent(m.DigitRatio)))
	}

	if len(local) >= vowelMinLength && m.VowelRatio < lowVowelRatio {
		risk += lowVowelRisk
		v.AddFlag(fmt.Sprintf(FlagLowVowels, domain.Percent(m.VowelRatio)))
	}

	if risk > domain.MaxRiskScore {
		risk = domain.MaxRiskScore
	}
	v.RiskScore = risk
	v.Action = domain.ActionForScore(risk)

	if len(v.Flags) == 0 {
		v.AddFlag(FlagClean)
	}
}
