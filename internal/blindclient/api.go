// Package blindclient implements the client half of the blind-dating
// protocol: a session controller that mirrors the server's state machine,
// polls it for authoritative state, and reconciles a local countdown against
// server-issued expiry. The server is always the source of truth; the
// controller is a read-through cache whose only optimistic writes are the
// user's own pending actions.
package blindclient

import (
	"context"
	"time"
)

// Wire shapes of the blind endpoints. Field names match the server contract.

type Message struct {
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

type PartnerProfile struct {
	UserID      string   `json:"user_id"`
	DisplayName string   `json:"display_name"`
	Bio         string   `json:"bio"`
	Campus      string   `json:"campus"`
	Major       string   `json:"major"`
	Interests   []string `json:"interests"`
	PhotoURLs   []string `json:"photo_urls"`
}

type QueueState struct {
	Status    string    `json:"status"` // searching | matched
	SessionID string    `json:"session_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

type SessionState struct {
	Status      string     `json:"status"`
	SessionID   string     `json:"session_id,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Messages    []Message  `json:"messages,omitempty"`
	User1       string     `json:"user1,omitempty"`
	User2       string     `json:"user2,omitempty"`
	User1Choice string     `json:"user1_choice,omitempty"`
	User2Choice string     `json:"user2_choice,omitempty"`
	PartnerLeft bool       `json:"partner_left,omitempty"`
	EndReason   string     `json:"end_reason,omitempty"`
}

type ChoiceResult struct {
	Success        bool            `json:"success"`
	Coins          int64           `json:"coins"`
	PartnerProfile *PartnerProfile `json:"partner_profile,omitempty"`
	Status         string          `json:"status"`
}

// API is the transport boundary: the seven logical operations the controller
// consumes, one network call each.
type API interface {
	JoinQueue(ctx context.Context) (*QueueState, error)
	LeaveQueue(ctx context.Context) error
	SessionStatus(ctx context.Context) (*SessionState, error)
	SessionMessages(ctx context.Context, sessionID string) (*SessionState, error)
	SendMessage(ctx context.Context, sessionID, text string) (*SessionState, error)
	RecordChoice(ctx context.Context, sessionID, choice string) (*ChoiceResult, error)
	EndSession(ctx context.Context, sessionID string) error
}

// NoticeKind classifies user-facing notifications.
type NoticeKind string

const (
	NoticeError             NoticeKind = "error"
	NoticeInsufficientCoins NoticeKind = "insufficient_coins"
	NoticePartnerLeft       NoticeKind = "partner_left"
	NoticeTimedOut          NoticeKind = "timed_out"
	NoticeMutualMatch       NoticeKind = "mutual_match"
)

// Notifier is the UI boundary for alerts and toasts.
type Notifier interface {
	Notify(kind NoticeKind, message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(kind NoticeKind, message string)

func (f NotifierFunc) Notify(kind NoticeKind, message string) { f(kind, message) }
