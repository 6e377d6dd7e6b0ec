package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Blind session statuses as they travel over the wire. "matched" only appears
// in the join-queue response; a stored session is active, extended or ended.
const (
	BlindStatusSearching = "searching"
	BlindStatusMatched   = "matched"
	BlindStatusActive    = "active"
	BlindStatusExtended  = "extended"
	BlindStatusEnded     = "ended"
)

// Post-timer choices. Each side sets one; reveal may later be upgraded to chat
// (the discounted path), every other second write is rejected.
const (
	ChoiceNone    = "none"
	ChoiceReveal  = "reveal"
	ChoiceChat    = "chat"
	ChoiceDecline = "decline"
)

// End reasons surfaced to the partner.
const (
	EndReasonUserLeft  = "user_left"
	EndReasonAbandoned = "abandoned"
	EndReasonExpired   = "expired"
	EndReasonResolved  = "resolved"
)

type BlindMessage struct {
	SenderID  string    `bson:"sender_id" json:"sender_id"`
	Text      string    `bson:"text" json:"text"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// BlindSession is the authoritative session document. The transcript is
// embedded; clients always receive and replace it wholesale.
type BlindSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4

	User1ID string `bson:"user1_id" json:"user1_id"`
	User2ID string `bson:"user2_id" json:"user2_id"`

	Status    string    `bson:"status" json:"status"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`

	Messages []BlindMessage `bson:"messages" json:"messages"`

	User1Choice string `bson:"user1_choice" json:"user1_choice"`
	User2Choice string `bson:"user2_choice" json:"user2_choice"`

	User1Revealed bool `bson:"user1_revealed" json:"-"`
	User2Revealed bool `bson:"user2_revealed" json:"-"`

	EndReason string     `bson:"end_reason,omitempty" json:"end_reason,omitempty"`
	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`
}

// Member reports whether userID occupies either slot.
func (s *BlindSession) Member(userID string) bool {
	return s.User1ID == userID || s.User2ID == userID
}

// PartnerOf returns the other slot's user id, or "" for a non-member.
func (s *BlindSession) PartnerOf(userID string) string {
	switch userID {
	case s.User1ID:
		return s.User2ID
	case s.User2ID:
		return s.User1ID
	}
	return ""
}

// ChoiceOf returns the stored choice for userID, defaulting to none.
func (s *BlindSession) ChoiceOf(userID string) string {
	var c string
	switch userID {
	case s.User1ID:
		c = s.User1Choice
	case s.User2ID:
		c = s.User2Choice
	}
	if c == "" {
		return ChoiceNone
	}
	return c
}

// RevealedBy reports whether userID has purchased a reveal in this session.
func (s *BlindSession) RevealedBy(userID string) bool {
	switch userID {
	case s.User1ID:
		return s.User1Revealed
	case s.User2ID:
		return s.User2Revealed
	}
	return false
}
