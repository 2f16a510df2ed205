package scorer

import (
	"context"

	"github.com/haukened/spamguard/internal/spamguard/domain"
	"github.com/haukened/spamguard/internal/spamguard/repos/blocklist"
)

// Blocklist is what the scorer needs from the blocklist layer.
// FetchExpanded reports ok=false when the remote list is unavailable; that is
// never an error for the scorer.
type Blocklist interface {
	IsPriorityDisposable(domain string) bool
	FetchExpanded(ctx context.Context) (blocklist.DomainSet, bool)
}

// Observer is notified once per completed verdict.
type Observer interface {
	ObserveVerdict(v domain.Verdict)
}
