package service

import "github.com/noah-isme/campus-complaints-api/internal/models"

// DefaultSuspendThreshold is the flag count at which an account is suspended.
const DefaultSuspendThreshold = 3

// FlagPolicy decides how flag deltas change an account.
type FlagPolicy struct {
	Threshold int
}

// NewFlagPolicy returns a policy, falling back to DefaultSuspendThreshold.
func NewFlagPolicy(threshold int) FlagPolicy {
	if threshold <= 0 {
		threshold = DefaultSuspendThreshold
	}
	return FlagPolicy{Threshold: threshold}
}

// Apply returns the state after adding delta. Increments recompute the
// suspension from the threshold; decrements clamp at zero and always
// reinstate the account.
func (p FlagPolicy) Apply(state models.FlagState, delta int) models.FlagState {
	switch {
	case delta > 0:
		count := state.FlagCount + delta
		return models.FlagState{FlagCount: count, IsSuspended: count >= p.Threshold}
	case delta < 0:
		count := state.FlagCount + delta
		if count < 0 {
			count = 0
		}
		return models.FlagState{FlagCount: count, IsSuspended: false}
	default:
		return state
	}
}

// Penalty is the increment applied when a complaint is ruled false.
func (p FlagPolicy) Penalty(state models.FlagState) models.FlagState {
	return p.Apply(state, 1)
}
