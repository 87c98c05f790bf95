package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionIDIsDeterministic(t *testing.T) {
	assert.Equal(t, "item-1_user-9", SessionID("item-1", "user-9"))
	assert.Equal(t, SessionID("item-1", "user-9"), SessionID("item-1", "user-9"))
	assert.NotEqual(t, SessionID("item-1", "user-9"), SessionID("item-1", "user-8"))
}

func TestOtherParticipant(t *testing.T) {
	s := &ChatSession{Participants: []string{"finder", "owner"}}

	assert.Equal(t, "owner", s.OtherParticipant("finder"))
	assert.Equal(t, "finder", s.OtherParticipant("owner"))
	assert.Empty(t, s.OtherParticipant("stranger"))
}

func TestOtherParticipantNameFallsBackToItemTitle(t *testing.T) {
	s := &ChatSession{
		Participants:     []string{"finder", "owner"},
		ParticipantNames: map[string]string{"owner": "Olive"},
		ItemTitle:        "Blue backpack",
	}

	assert.Equal(t, "Olive", s.OtherParticipantName("finder"))
	// No snapshot for the finder, so the owner sees the item title.
	assert.Equal(t, "Blue backpack", s.OtherParticipantName("owner"))

	s.ParticipantNames["finder"] = "   "
	assert.Equal(t, "Blue backpack", s.OtherParticipantName("owner"))
}
