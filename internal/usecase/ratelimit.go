package usecase

import (
	"time"

	"github.com/mmuslimabdulj/meetup-signal/internal/domain"
)

// RateLimitResult is the outcome of one check
type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Limit     int
}

type rateKey struct {
	connectionID string
	action       string
}

type rateEntry struct {
	count    int
	resetAt  time.Time
	lastUsed time.Time
}

// ActionLimiter is a fixed-window counter per (connection, action).
// It is advisory flood protection and is owned by the hub event loop.
type ActionLimiter struct {
	budgets map[string]domain.RateBudget
	entries map[rateKey]*rateEntry
	idleTTL time.Duration
	now     func() time.Time
}

// NewActionLimiter creates a limiter. Actions without a budget are always allowed.
func NewActionLimiter(budgets map[string]domain.RateBudget, now func() time.Time) *ActionLimiter {
	if now == nil {
		now = time.Now
	}
	if budgets == nil {
		budgets = domain.DefaultRateBudgets
	}
	return &ActionLimiter{
		budgets: budgets,
		entries: make(map[rateKey]*rateEntry),
		idleTTL: domain.RateLimitEntryTTL,
		now:     now,
	}
}

// Allow counts one use of action by connectionID
func (l *ActionLimiter) Allow(connectionID, action string) RateLimitResult {
	budget, ok := l.budgets[action]
	if !ok {
		return RateLimitResult{Allowed: true, Remaining: -1}
	}

	now := l.now()
	key := rateKey{connectionID: connectionID, action: action}
	e, ok := l.entries[key]

	if !ok || l.expired(e, now) || !now.Before(e.resetAt) {
		l.entries[key] = &rateEntry{count: 1, resetAt: now.Add(budget.Window), lastUsed: now}
		return RateLimitResult{Allowed: true, Remaining: budget.Limit - 1, ResetAt: now.Add(budget.Window), Limit: budget.Limit}
	}

	e.lastUsed = now
	if e.count >= budget.Limit {
		return RateLimitResult{Allowed: false, Remaining: 0, ResetAt: e.resetAt, Limit: budget.Limit}
	}
	e.count++
	return RateLimitResult{Allowed: true, Remaining: budget.Limit - e.count, ResetAt: e.resetAt, Limit: budget.Limit}
}

// Check is Allow returning a RateLimitError when denied
func (l *ActionLimiter) Check(connectionID, action string) error {
	res := l.Allow(connectionID, action)
	if res.Allowed {
		return nil
	}
	return &domain.RateLimitError{Action: action, RetryAfter: res.ResetAt.Sub(l.now())}
}

func (l *ActionLimiter) expired(e *rateEntry, now time.Time) bool {
	return now.Sub(e.lastUsed) >= l.idleTTL
}

// Forget drops every counter held for a connection
func (l *ActionLimiter) Forget(connectionID string) {
	for k := range l.entries {
		if k.connectionID == connectionID {
			delete(l.entries, k)
		}
	}
}

// Prune removes entries unused for the idle TTL and returns how many were dropped
func (l *ActionLimiter) Prune() int {
	now := l.now()
	n := 0
	for k, e := range l.entries {
		if l.expired(e, now) {
			delete(l.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of live counters
func (l *ActionLimiter) Len() int {
	return len(l.entries)
}
