package blocklist

import (
	"time"

	"github.com/haukened/spamguard/internal/spamguard/domain"
)

// PrioritySource attributes rules from the curated list.
const PrioritySource = "priority"

// curatedAt is when the curated list was last reviewed.
var curatedAt = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// priorityDomains are the most common disposable providers. They are checked
// before any network access so the usual offenders never cost a fetch.
var priorityDomains = []string{
	"tempmail.com",
	"mailinator.com",
	"guerrillamail.com",
	"yopmail.com",
	"10minutemail.com",
	"throwaway.email",
	"maildrop.cc",
	"temp-mail.org",
	"getnada.com",
	"fakeinbox.com",
	"trashmail.com",
	"mohmal.com",
	"sharklasers.com",
	"guerrillamail.biz",
	"spam4.me",
	"mailnesia.com",
	"tempr.email",
	"dispostable.com",
	"getairmail.com",
	"temp-mail.io",
}

// prioritySet is built once and shared read-only.
var prioritySet = newPrioritySet()

func newPrioritySet() *Set {
	rules := make([]domain.BlockRule, 0, len(priorityDomains))
	for _, name := range priorityDomains {
		r, err := domain.NewBlockRule(name, PrioritySource, curatedAt)
		if err != nil {
			panic("blocklist: invalid curated domain " + name + ": " + err.Error())
		}
		rules = append(rules, r)
	}
	return NewSet(rules, nil, 0)
}

// IsPriorityDisposable reports whether domain is in the curated set, ignoring case.
func IsPriorityDisposable(domain string) bool {
	return prioritySet.Contains(domain)
}
