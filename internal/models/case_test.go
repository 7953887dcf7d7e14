package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCaseState_CanTransitionTo(t *testing.T) {
	allowed := []struct {
		from, to CaseState
	}{
		{CaseStateActive, CaseStateDisputeRaised},
		{CaseStateActive, CaseStateResolved},
		{CaseStateDisputeRaised, CaseStateVerdictIssued},
		{CaseStateVerdictIssued, CaseStateEscalated},
		{CaseStateVerdictIssued, CaseStateResolved},
		{CaseStateEscalated, CaseStateResolved},
	}
	for _, tr := range allowed {
		assert.True(t, tr.from.CanTransitionTo(tr.to), "%s -> %s", tr.from, tr.to)
	}

	// Переходы только вперёд, resolved терминально.
	forbidden := []struct {
		from, to CaseState
	}{
		{CaseStateDisputeRaised, CaseStateActive},
		{CaseStateVerdictIssued, CaseStateDisputeRaised},
		{CaseStateEscalated, CaseStateVerdictIssued},
		{CaseStateResolved, CaseStateActive},
		{CaseStateResolved, CaseStateDisputeRaised},
		{CaseStateActive, CaseStateEscalated},
		{CaseStateDisputeRaised, CaseStateResolved},
	}
	for _, tr := range forbidden {
		assert.False(t, tr.from.CanTransitionTo(tr.to), "%s -> %s", tr.from, tr.to)
	}
}

func TestCaseState_IsValid(t *testing.T) {
	for _, s := range []CaseState{CaseStateActive, CaseStateDisputeRaised, CaseStateVerdictIssued, CaseStateEscalated, CaseStateResolved} {
		assert.True(t, s.IsValid())
	}
	assert.False(t, CaseState("pending").IsValid())
	assert.False(t, CaseState("").IsValid())
}

func TestCase_IsParty(t *testing.T) {
	clientID := uuid.New()
	contractorID := uuid.New()
	c := &Case{ClientID: clientID, ContractorID: contractorID}

	assert.True(t, c.IsParty(clientID))
	assert.True(t, c.IsParty(contractorID))
	assert.False(t, c.IsParty(uuid.New()))
}

func TestVoterRecord_Eligible(t *testing.T) {
	assert.True(t, (&VoterRecord{Registered: true, Karma: 100}).Eligible(20))
	assert.True(t, (&VoterRecord{Registered: true, Karma: 20}).Eligible(20))
	assert.False(t, (&VoterRecord{Registered: true, Karma: 19}).Eligible(20))
	assert.False(t, (&VoterRecord{Registered: false, Karma: 100}).Eligible(20))
	assert.False(t, (&VoterRecord{Registered: true, Banned: true, Karma: 100}).Eligible(20))
}
