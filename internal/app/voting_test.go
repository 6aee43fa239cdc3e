package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVoting_BeginGuardsInFlight(t *testing.T) {
	var v Voting
	assert.Equal(t, Idle, v.State())

	assert.True(t, v.Begin())
	assert.Equal(t, Submitting, v.State())
	assert.False(t, v.Begin(), "second Begin while submitting must be a no-op")
	assert.Equal(t, uint64(1), v.Gen())
}

func TestVoting_SucceedThenRevert(t *testing.T) {
	var v Voting
	v.Begin()

	delay, ok := v.Succeed(v.Gen())
	assert.True(t, ok)
	assert.Equal(t, SuccessRevertDelay, delay)
	assert.Equal(t, Succeeded, v.State())
	assert.Equal(t, "Vote recorded successfully!", v.State().Message())

	assert.True(t, v.Revert(v.Gen()))
	assert.Equal(t, Idle, v.State())
	assert.Empty(t, v.State().Message())
}

func TestVoting_FailThenRevert(t *testing.T) {
	var v Voting
	v.Begin()

	delay, ok := v.Fail(v.Gen())
	assert.True(t, ok)
	assert.Equal(t, FailureRevertDelay, delay)
	assert.Equal(t, Failed, v.State())
	assert.Equal(t, "Failed to record vote. Please try again.", v.State().Message())

	assert.True(t, v.Revert(v.Gen()))
	assert.Equal(t, Idle, v.State())
}

func TestVoting_CanVoteAgainAfterSettle(t *testing.T) {
	var v Voting
	v.Begin()
	v.Fail(v.Gen())
	assert.True(t, v.Begin(), "a failed vote can be retried before the message clears")
	v.Succeed(v.Gen())
	assert.True(t, v.Begin())
}

func TestVoting_StaleRevertIgnored(t *testing.T) {
	var v Voting
	v.Begin()
	first := v.Gen()
	v.Succeed(first)

	v.Begin()
	second := v.Gen()
	v.Fail(second)

	assert.False(t, v.Revert(first), "timer from the first vote must not clear the second message")
	assert.Equal(t, Failed, v.State())
	assert.True(t, v.Revert(second))
	assert.Equal(t, Idle, v.State())
}

func TestVoting_StaleSettleIgnored(t *testing.T) {
	var v Voting
	v.Begin()
	_, ok := v.Succeed(v.Gen() + 1)
	assert.False(t, ok)
	assert.Equal(t, Submitting, v.State())

	_, ok = v.Succeed(v.Gen())
	assert.True(t, ok)
	_, ok = v.Fail(v.Gen())
	assert.False(t, ok, "a settled vote cannot settle twice")
}

func TestVoting_RevertWhileSubmittingIgnored(t *testing.T) {
	var v Voting
	v.Begin()
	assert.False(t, v.Revert(v.Gen()))
	assert.Equal(t, Submitting, v.State())
}

func TestVotingState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "submitting", Submitting.String())
	assert.Equal(t, "succeeded", Succeeded.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", VotingState(99).String())
}
