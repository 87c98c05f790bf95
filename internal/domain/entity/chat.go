package entity

import (
	"strings"
	"time"
)

// ChatSession is a two-party conversation anchored to one item report. Its ID
// is a pure function of (itemID, initiatorID), so repeated contact attempts
// converge on the same document.
type ChatSession struct {
	ID               string            `json:"id" firestore:"id"`
	Participants     []string          `json:"participants" firestore:"participants"`
	ParticipantNames map[string]string `json:"participant_names" firestore:"participantNames"`
	ItemID           string            `json:"item_id" firestore:"itemId"`
	ItemTitle        string            `json:"item_title" firestore:"itemTitle"`
	LastMessage      string            `json:"last_message" firestore:"lastMessage"`
	CreatedAt        time.Time         `json:"created_at" firestore:"createdAt"`
	UpdatedAt        time.Time         `json:"updated_at" firestore:"updatedAt"`
}

// SessionID derives the deterministic session document id. Firestore never
// assigns ids containing "_", so the separator cannot collide with either key.
func SessionID(itemID, initiatorID string) string {
	return itemID + "_" + initiatorID
}

func (s *ChatSession) HasParticipant(userID string) bool {
	for _, p := range s.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the participant that is not userID. Empty when
// userID is not a participant.
func (s *ChatSession) OtherParticipant(userID string) string {
	if !s.HasParticipant(userID) {
		return ""
	}
	for _, p := range s.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// OtherParticipantName resolves the display label for the counterpart,
// falling back to the item title when no snapshot exists.
func (s *ChatSession) OtherParticipantName(userID string) string {
	otherID := s.OtherParticipant(userID)
	if name, ok := s.ParticipantNames[otherID]; ok && strings.TrimSpace(name) != "" {
		return name
	}
	return s.ItemTitle
}
