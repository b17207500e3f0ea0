// Package limits provides execution budgets for bounded per-frame work.
package limits

import "time"

// ExecutionLimit bounds a unit of work by operation count, wallclock time,
// or both. An axis the constructor does not set is unbounded; a budget of
// zero on a bounded axis is already exhausted.
type ExecutionLimit struct {
	opsRemaining int
	boundOps     bool
	deadline     time.Time
	boundTime    bool
}

// Unbounded returns a limit that never trips.
func Unbounded() *ExecutionLimit {
	return &ExecutionLimit{}
}

// WithMaxOps returns a limit bounded by an operation count only.
func WithMaxOps(ops int) *ExecutionLimit {
	return &ExecutionLimit{opsRemaining: ops, boundOps: true}
}

// WithMaxTime returns a limit bounded by wallclock time only.
func WithMaxTime(d time.Duration) *ExecutionLimit {
	return &ExecutionLimit{deadline: time.Now().Add(d), boundTime: true}
}

// WithMaxOpsAndTime returns a limit bounded by both an operation count and
// wallclock time. Whichever budget is exhausted first trips the limit.
func WithMaxOpsAndTime(ops int, d time.Duration) *ExecutionLimit {
	return &ExecutionLimit{
		opsRemaining: ops,
		boundOps:     true,
		deadline:     time.Now().Add(d),
		boundTime:    true,
	}
}

// DidOpsBreachLimit debits n operations from the budget and reports whether
// the limit has been reached. Once breached, it stays breached.
func (l *ExecutionLimit) DidOpsBreachLimit(n int) bool {
	if l.boundOps {
		l.opsRemaining -= n
		if l.opsRemaining <= 0 {
			l.opsRemaining = 0
			return true
		}
	}
	return l.timeBreached()
}

// Breached reports whether the limit has been reached without debiting ops.
func (l *ExecutionLimit) Breached() bool {
	if l.boundOps && l.opsRemaining <= 0 {
		return true
	}
	return l.timeBreached()
}

// OpsRemaining returns the remaining operation budget. It is only meaningful
// when the limit is op-bounded.
func (l *ExecutionLimit) OpsRemaining() int {
	return l.opsRemaining
}

func (l *ExecutionLimit) timeBreached() bool {
	return l.boundTime && !time.Now().Before(l.deadline)
}
