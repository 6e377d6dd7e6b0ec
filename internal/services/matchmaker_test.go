package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/univeil/univeil/internal/models"
	"github.com/univeil/univeil/internal/utils"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestMatchmaker(repo *MockBlindRepo) (*Matchmaker, time.Time) {
	m := NewMatchmaker(repo, testLogger())
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return base }
	return m, base
}

func TestJoinQueuesFirstUser(t *testing.T) {
	repo := new(MockBlindRepo)
	repo.On("LatestForUser", mock.Anything, "u1").Return(nil, utils.ErrNotFound)

	m, _ := newTestMatchmaker(repo)

	res, err := m.Join(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Equal(t, models.BlindStatusSearching, res.Status)
	assert.Nil(t, res.Session)
	assert.True(t, m.InQueue("u1"))
	assert.Equal(t, 1, m.QueueLen())
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestJoinPairsWaitingUsers(t *testing.T) {
	repo := new(MockBlindRepo)
	repo.On("LatestForUser", mock.Anything, mock.Anything).Return(nil, utils.ErrNotFound)

	var created *models.BlindSession
	repo.On("Create", mock.Anything, mock.AnythingOfType("*models.BlindSession")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*models.BlindSession) }).
		Return(nil)

	m, base := newTestMatchmaker(repo)

	first, err := m.Join(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Equal(t, models.BlindStatusSearching, first.Status)

	second, err := m.Join(context.Background(), "u2")
	assert.NoError(t, err)
	assert.Equal(t, models.BlindStatusMatched, second.Status)

	assert.NotNil(t, created)
	assert.Equal(t, "u1", created.User1ID, "longest waiter takes slot 1")
	assert.Equal(t, "u2", created.User2ID)
	assert.Equal(t, models.BlindStatusActive, created.Status)
	assert.Equal(t, base.Add(BlindSessionTTL), created.ExpiresAt)
	assert.NotEmpty(t, created.SessionID)

	assert.False(t, m.InQueue("u1"))
	assert.False(t, m.InQueue("u2"))
	assert.Equal(t, 0, m.QueueLen())
}

func TestJoinIdempotentWhileQueued(t *testing.T) {
	repo := new(MockBlindRepo)
	repo.On("LatestForUser", mock.Anything, "u1").Return(nil, utils.ErrNotFound)

	m, _ := newTestMatchmaker(repo)

	_, err := m.Join(context.Background(), "u1")
	assert.NoError(t, err)

	res, err := m.Join(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Equal(t, models.BlindStatusSearching, res.Status)
	assert.Equal(t, 1, m.QueueLen())
}

func TestJoinReturnsLiveSession(t *testing.T) {
	repo := new(MockBlindRepo)
	m, base := newTestMatchmaker(repo)

	live := &models.BlindSession{
		SessionID: "sess-1",
		User1ID:   "u1",
		User2ID:   "u2",
		Status:    models.BlindStatusActive,
		ExpiresAt: base.Add(time.Minute),
	}
	repo.On("LatestForUser", mock.Anything, "u1").Return(live, nil)

	res, err := m.Join(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Equal(t, models.BlindStatusMatched, res.Status)
	assert.Equal(t, "sess-1", res.Session.SessionID)
	assert.False(t, m.InQueue("u1"))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestJoinIgnoresEndedSession(t *testing.T) {
	repo := new(MockBlindRepo)
	m, base := newTestMatchmaker(repo)

	old := &models.BlindSession{
		SessionID: "sess-0",
		User1ID:   "u1",
		User2ID:   "u2",
		Status:    models.BlindStatusEnded,
		ExpiresAt: base.Add(-time.Hour),
	}
	repo.On("LatestForUser", mock.Anything, "u1").Return(old, nil)

	res, err := m.Join(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Equal(t, models.BlindStatusSearching, res.Status)
	assert.True(t, m.InQueue("u1"))
}

func TestLeave(t *testing.T) {
	repo := new(MockBlindRepo)
	repo.On("LatestForUser", mock.Anything, mock.Anything).Return(nil, utils.ErrNotFound)

	m, _ := newTestMatchmaker(repo)

	m.Leave("nobody") // unknown user is a no-op

	_, err := m.Join(context.Background(), "u1")
	assert.NoError(t, err)
	m.Leave("u1")
	assert.False(t, m.InQueue("u1"))
	assert.Equal(t, 0, m.QueueLen())
}

func TestJoinRequeuesPartnerOnCreateFailure(t *testing.T) {
	repo := new(MockBlindRepo)
	repo.On("LatestForUser", mock.Anything, mock.Anything).Return(nil, utils.ErrNotFound)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("mongo down"))

	m, _ := newTestMatchmaker(repo)

	_, err := m.Join(context.Background(), "u1")
	assert.NoError(t, err)

	_, err = m.Join(context.Background(), "u2")
	assert.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInternal))

	// the waiting partner keeps their place in line
	assert.True(t, m.InQueue("u1"))
	assert.False(t, m.InQueue("u2"))
}

func TestJoinRequiresUserID(t *testing.T) {
	m, _ := newTestMatchmaker(new(MockBlindRepo))
	_, err := m.Join(context.Background(), "")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}
