package app

import "time"

// VotingState is the submission lifecycle shown under the bar.
type VotingState int

const (
	Idle VotingState = iota
	Submitting
	Succeeded
	Failed
)

// Revert delays after a vote settles.
const (
	SuccessRevertDelay = 3 * time.Second
	FailureRevertDelay = 5 * time.Second
)

func (s VotingState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Message is the feedback text for the state; empty when idle.
func (s VotingState) Message() string {
	switch s {
	case Submitting:
		return "Submitting vote..."
	case Succeeded:
		return "Vote recorded successfully!"
	case Failed:
		return "Failed to record vote. Please try again."
	default:
		return ""
	}
}

// Voting guards vote submission. Every Begin starts a new generation; settle
// and revert calls carrying an older generation are ignored, so a revert
// timer left over from an earlier vote cannot clear a newer message.
type Voting struct {
	state VotingState
	gen   uint64
}

// State returns the current state.
func (v *Voting) State() VotingState {
	return v.state
}

// Gen returns the generation of the latest submission.
func (v *Voting) Gen() uint64 {
	return v.gen
}

// Begin starts a submission. It returns false while one is in flight.
func (v *Voting) Begin() bool {
	if v.state == Submitting {
		return false
	}
	v.gen++
	v.state = Submitting
	return true
}

// Succeed settles submission gen as recorded and returns the revert delay.
func (v *Voting) Succeed(gen uint64) (time.Duration, bool) {
	return v.settle(gen, Succeeded, SuccessRevertDelay)
}

// Fail settles submission gen as failed and returns the revert delay.
func (v *Voting) Fail(gen uint64) (time.Duration, bool) {
	return v.settle(gen, Failed, FailureRevertDelay)
}

func (v *Voting) settle(gen uint64, to VotingState, delay time.Duration) (time.Duration, bool) {
	if gen != v.gen || v.state != Submitting {
		return 0, false
	}
	v.state = to
	return delay, true
}

// Revert returns to Idle if gen is still the latest settled submission.
func (v *Voting) Revert(gen uint64) bool {
	if gen != v.gen || (v.state != Succeeded && v.state != Failed) {
		return false
	}
	v.state = Idle
	return true
}
