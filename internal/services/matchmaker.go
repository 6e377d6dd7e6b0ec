package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/univeil/univeil/internal/models"
	mongorepo "github.com/univeil/univeil/internal/repositories/mongo"
	"github.com/univeil/univeil/internal/utils"
)

// BlindSessionTTL is the timed-chat window of a fresh pairing.
const BlindSessionTTL = 5 * time.Minute

// Matchmaker pairs waiting users into blind sessions. The queue is an
// in-memory map keyed by user id so leave and re-join are O(1); order is kept
// separately so the longest waiter is matched first.
type Matchmaker struct {
	mu    sync.Mutex
	queue map[string]time.Time
	order []string

	sessions mongorepo.BlindSessionRepository
	log      *logrus.Logger

	now func() time.Time
}

func NewMatchmaker(sessions mongorepo.BlindSessionRepository, log *logrus.Logger) *Matchmaker {
	return &Matchmaker{
		queue:    make(map[string]time.Time),
		sessions: sessions,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type JoinResult struct {
	Status  string // searching | matched
	Session *models.BlindSession
}

// Join enters matchmaking. When another user is already waiting the pairing
// happens inside the call and the result reports matched; otherwise the caller
// is queued and learns about a later match through the status poll.
// Joining is idempotent: a user who already holds a live session gets it back
// as matched, and a user already queued stays queued.
func (m *Matchmaker) Join(ctx context.Context, userID string) (*JoinResult, error) {
	const op = "Matchmaker.Join"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	if s, err := m.sessions.LatestForUser(ctx, userID); err == nil {
		if (s.Status == models.BlindStatusActive || s.Status == models.BlindStatusExtended) &&
			m.now().Before(s.ExpiresAt) {
			return &JoinResult{Status: models.BlindStatusMatched, Session: s}, nil
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, waiting := m.queue[userID]; waiting {
		return &JoinResult{Status: models.BlindStatusSearching}, nil
	}

	partnerID := m.popOldestLocked(userID)
	if partnerID == "" {
		m.queue[userID] = m.now()
		m.order = append(m.order, userID)
		m.log.WithField("user_id", userID).Debug("matchmaker: queued")
		return &JoinResult{Status: models.BlindStatusSearching}, nil
	}

	now := m.now()
	session := &models.BlindSession{
		SessionID: uuid.NewString(),
		User1ID:   partnerID, // longest waiter takes slot 1
		User2ID:   userID,
		Status:    models.BlindStatusActive,
		ExpiresAt: now.Add(BlindSessionTTL),
		Messages:  []models.BlindMessage{},
		CreatedAt: now,
	}
	if err := m.sessions.Create(ctx, session); err != nil {
		// put the partner back at the head so they keep their place
		m.queue[partnerID] = now
		m.order = append([]string{partnerID}, m.order...)
		return nil, utils.E(utils.CodeInternal, op, "failed to create session", err)
	}

	m.log.WithFields(logrus.Fields{
		"session_id": session.SessionID,
		"user1":      partnerID,
		"user2":      userID,
	}).Info("matchmaker: paired")

	return &JoinResult{Status: models.BlindStatusMatched, Session: session}, nil
}

// Leave removes the user from the queue. Unknown users are a no-op, so the
// client can fire and forget.
func (m *Matchmaker) Leave(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.queue[userID]; !ok {
		return
	}
	delete(m.queue, userID)
	for i, id := range m.order {
		if id == userID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *Matchmaker) InQueue(userID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.queue[userID]
	return ok
}

func (m *Matchmaker) QueueLen() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// popOldestLocked removes and returns the longest-waiting user other than
// exclude, or "" when nobody suitable is waiting. Caller holds m.mu.
func (m *Matchmaker) popOldestLocked(exclude string) string {
	for i, id := range m.order {
		if id == exclude {
			continue
		}
		if _, ok := m.queue[id]; !ok {
			continue
		}
		delete(m.queue, id)
		m.order = append(m.order[:i], m.order[i+1:]...)
		return id
	}
	return ""
}
