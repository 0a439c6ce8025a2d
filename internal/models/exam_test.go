package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExamStatusEditLocks(t *testing.T) {
	cases := []struct {
		status       ExamStatus
		name         bool
		registration bool
		fees         bool
	}{
		{ExamStatusPending, true, true, true},
		{ExamStatusPreparatory, false, false, false},
		{ExamStatusOngoing, false, false, false},
		{ExamStatusCompleted, false, false, false},
		{ExamStatusCancelled, true, false, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.name, tc.status.CanEdit(ExamFieldGroupName), "name editable in %s", tc.status)
		assert.Equal(t, tc.registration, tc.status.CanEdit(ExamFieldGroupRegistrationInfo), "registration editable in %s", tc.status)
		assert.Equal(t, tc.fees, tc.status.CanEdit(ExamFieldGroupFeeSchedule), "fees editable in %s", tc.status)
	}
}

func TestExamStatusTransitions(t *testing.T) {
	assert.ElementsMatch(t, []ExamStatus{ExamStatusPreparatory, ExamStatusCancelled}, ExamStatusPending.AllowedTransitions())
	assert.ElementsMatch(t, []ExamStatus{ExamStatusOngoing, ExamStatusCancelled}, ExamStatusPreparatory.AllowedTransitions())
	assert.ElementsMatch(t, []ExamStatus{ExamStatusCompleted, ExamStatusCancelled}, ExamStatusOngoing.AllowedTransitions())
}

func TestExamStatusTerminalStates(t *testing.T) {
	assert.Equal(t, []ExamStatus{ExamStatusCompleted}, ExamStatusCompleted.AllowedTransitions())
	assert.Equal(t, []ExamStatus{ExamStatusCancelled}, ExamStatusCancelled.AllowedTransitions())
	assert.True(t, ExamStatusCompleted.CanTransition(ExamStatusCompleted))
	assert.True(t, ExamStatusCancelled.CanTransition(ExamStatusCancelled))
	assert.False(t, ExamStatusCompleted.CanTransition(ExamStatusPending))
	assert.False(t, ExamStatusCompleted.CanTransition(ExamStatusCancelled))
	assert.False(t, ExamStatusCancelled.CanTransition(ExamStatusOngoing))
}

func TestExamStatusCanTransition(t *testing.T) {
	assert.True(t, ExamStatusPending.CanTransition(ExamStatusPreparatory))
	assert.True(t, ExamStatusOngoing.CanTransition(ExamStatusCancelled))
	assert.False(t, ExamStatusPending.CanTransition(ExamStatusOngoing))
	assert.False(t, ExamStatusPreparatory.CanTransition(ExamStatusCompleted))
}

func TestExamStatusValid(t *testing.T) {
	assert.True(t, ExamStatusPending.Valid())
	assert.True(t, ExamStatusCancelled.Valid())
	assert.False(t, ExamStatus("archived").Valid())
}
