package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/univeil/univeil/internal/models"
	"github.com/univeil/univeil/internal/utils"
)

type blindFixture struct {
	repo     *MockBlindRepo
	wallet   *MockWalletService
	profiles *MockProfileService
	queue    *Matchmaker
	svc      *blindService
	base     time.Time
}

func newBlindFixture() *blindFixture {
	f := &blindFixture{
		repo:     new(MockBlindRepo),
		wallet:   new(MockWalletService),
		profiles: new(MockProfileService),
		base:     time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
	}
	f.queue = NewMatchmaker(f.repo, testLogger())
	f.queue.now = func() time.Time { return f.base }
	f.svc = NewBlindService(f.repo, f.queue, f.wallet, f.profiles, testLogger()).(*blindService)
	f.svc.now = func() time.Time { return f.base }
	return f
}

func (f *blindFixture) activeSession() *models.BlindSession {
	return &models.BlindSession{
		SessionID: "sess-1",
		User1ID:   "u1",
		User2ID:   "u2",
		Status:    models.BlindStatusActive,
		ExpiresAt: f.base.Add(3 * time.Minute),
		Messages:  []models.BlindMessage{},
		CreatedAt: f.base.Add(-2 * time.Minute),
	}
}

func TestStatusForSearching(t *testing.T) {
	f := newBlindFixture()
	f.repo.On("LatestForUser", mock.Anything, "u1").Return(nil, utils.ErrNotFound)

	_, err := f.queue.Join(context.Background(), "u1")
	assert.NoError(t, err)

	st, err := f.svc.StatusFor(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Equal(t, models.BlindStatusSearching, st.Status)
	assert.Empty(t, st.SessionID)
}

func TestStatusForNone(t *testing.T) {
	f := newBlindFixture()
	f.repo.On("LatestForUser", mock.Anything, "u1").Return(nil, utils.ErrNotFound)

	st, err := f.svc.StatusFor(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Equal(t, "none", st.Status)
}

func TestStatusForActiveSession(t *testing.T) {
	f := newBlindFixture()
	sess := f.activeSession()
	sess.User1Choice = models.ChoiceReveal
	f.repo.On("LatestForUser", mock.Anything, "u2").Return(sess, nil)

	st, err := f.svc.StatusFor(context.Background(), "u2")
	assert.NoError(t, err)
	assert.Equal(t, models.BlindStatusActive, st.Status)
	assert.Equal(t, "sess-1", st.SessionID)
	assert.Equal(t, "u1", st.User1)
	assert.Equal(t, "u2", st.User2)
	assert.Equal(t, models.ChoiceReveal, st.User1Choice)
	assert.Equal(t, models.ChoiceNone, st.User2Choice)
	assert.False(t, st.PartnerLeft)
}

func TestStatusForExpiresOverdueSession(t *testing.T) {
	f := newBlindFixture()
	sess := f.activeSession()
	sess.ExpiresAt = f.base.Add(-time.Second)
	f.repo.On("LatestForUser", mock.Anything, "u1").Return(sess, nil)
	f.repo.On("End", mock.Anything, "sess-1", models.EndReasonExpired, f.base).Return(nil)

	st, err := f.svc.StatusFor(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Equal(t, models.BlindStatusEnded, st.Status)
	assert.Equal(t, models.EndReasonExpired, st.EndReason)
	f.repo.AssertExpectations(t)
}

func TestStatusForPartnerLeft(t *testing.T) {
	f := newBlindFixture()
	sess := f.activeSession()
	sess.Status = models.BlindStatusEnded
	sess.EndReason = models.EndReasonUserLeft
	f.repo.On("LatestForUser", mock.Anything, "u2").Return(sess, nil)

	st, err := f.svc.StatusFor(context.Background(), "u2")
	assert.NoError(t, err)
	assert.Equal(t, models.BlindStatusEnded, st.Status)
	assert.True(t, st.PartnerLeft)
}

func TestSendAppendsMessage(t *testing.T) {
	f := newBlindFixture()
	sess := f.activeSession()
	f.repo.On("GetBySessionID", mock.Anything, "sess-1").Return(sess, nil)

	updated := f.activeSession()
	updated.Messages = []models.BlindMessage{{SenderID: "u1", Text: "hi", CreatedAt: f.base}}
	f.repo.On("AppendMessage", mock.Anything, "sess-1", models.BlindMessage{
		SenderID: "u1", Text: "hi", CreatedAt: f.base,
	}).Return(updated, nil)

	st, err := f.svc.Send(context.Background(), "u1", "sess-1", "  hi  ")
	assert.NoError(t, err)
	assert.Len(t, st.Messages, 1)
	assert.Equal(t, "hi", st.Messages[0].Text)
}

func TestSendAfterExpiry(t *testing.T) {
	f := newBlindFixture()
	sess := f.activeSession()
	sess.ExpiresAt = f.base.Add(-time.Second)
	f.repo.On("GetBySessionID", mock.Anything, "sess-1").Return(sess, nil)
	f.repo.On("End", mock.Anything, "sess-1", models.EndReasonExpired, f.base).Return(nil)

	_, err := f.svc.Send(context.Background(), "u1", "sess-1", "too late")
	assert.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeSessionExpired))
	f.repo.AssertNotCalled(t, "AppendMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendRejectsBlankText(t *testing.T) {
	f := newBlindFixture()
	_, err := f.svc.Send(context.Background(), "u1", "sess-1", "   ")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
	f.repo.AssertNotCalled(t, "GetBySessionID", mock.Anything, mock.Anything)
}

func TestSendForbiddenForNonMember(t *testing.T) {
	f := newBlindFixture()
	f.repo.On("GetBySessionID", mock.Anything, "sess-1").Return(f.activeSession(), nil)

	_, err := f.svc.Send(context.Background(), "intruder", "sess-1", "hello")
	assert.True(t, utils.IsCode(err, utils.CodeForbidden))
}

func TestRecordChoiceRevealDebitsAndReturnsProfile(t *testing.T) {
	f := newBlindFixture()
	f.repo.On("GetBySessionID", mock.Anything, "sess-1").Return(f.activeSession(), nil)
	f.wallet.On("Debit", mock.Anything, "u1", int64(70), "blind:reveal:sess-1").Return(int64(30), nil)
	f.repo.On("SetChoice", mock.Anything, "sess-1", 1, models.ChoiceReveal, true).Return(nil)
	f.profiles.On("GetPublic", mock.Anything, "u2").Return(&models.PublicProfile{UserID: "u2", DisplayName: "B"}, nil)

	res, err := f.svc.RecordChoice(context.Background(), "u1", "sess-1", models.ChoiceReveal)
	assert.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int64(30), res.Coins)
	assert.Equal(t, models.BlindStatusActive, res.Status)
	assert.NotNil(t, res.PartnerProfile)
	assert.Equal(t, "u2", res.PartnerProfile.UserID)
	f.repo.AssertNotCalled(t, "Extend", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordChoiceMutualChatExtends(t *testing.T) {
	f := newBlindFixture()
	sess := f.activeSession()
	sess.User1Choice = models.ChoiceChat
	f.repo.On("GetBySessionID", mock.Anything, "sess-1").Return(sess, nil)
	f.wallet.On("Debit", mock.Anything, "u2", int64(200), "blind:chat:sess-1").Return(int64(500), nil)
	f.repo.On("SetChoice", mock.Anything, "sess-1", 2, models.ChoiceChat, false).Return(nil)
	f.repo.On("Extend", mock.Anything, "sess-1", f.base.Add(ExtendedSessionTTL)).Return(nil)
	f.profiles.On("GetPublic", mock.Anything, "u1").Return(&models.PublicProfile{UserID: "u1"}, nil)

	res, err := f.svc.RecordChoice(context.Background(), "u2", "sess-1", models.ChoiceChat)
	assert.NoError(t, err)
	assert.Equal(t, models.BlindStatusExtended, res.Status)
	assert.NotNil(t, res.PartnerProfile)
	f.repo.AssertExpectations(t)
}

func TestRecordChoiceDeclineClosesFree(t *testing.T) {
	f := newBlindFixture()
	sess := f.activeSession()
	sess.User2Choice = models.ChoiceChat
	f.repo.On("GetBySessionID", mock.Anything, "sess-1").Return(sess, nil)
	f.wallet.On("Balance", mock.Anything, "u1").Return(int64(10), nil)
	f.repo.On("SetChoice", mock.Anything, "sess-1", 1, models.ChoiceDecline, false).Return(nil)
	f.repo.On("End", mock.Anything, "sess-1", models.EndReasonResolved, f.base).Return(nil)
	f.repo.On("SetEndReason", mock.Anything, "sess-1", models.EndReasonResolved).Return(nil)

	res, err := f.svc.RecordChoice(context.Background(), "u1", "sess-1", models.ChoiceDecline)
	assert.NoError(t, err)
	assert.Equal(t, models.BlindStatusEnded, res.Status)
	assert.Nil(t, res.PartnerProfile)
	f.wallet.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordChoiceInsufficientCoins(t *testing.T) {
	f := newBlindFixture()
	f.repo.On("GetBySessionID", mock.Anything, "sess-1").Return(f.activeSession(), nil)
	f.wallet.On("Debit", mock.Anything, "u1", int64(200), "blind:chat:sess-1").
		Return(int64(0), utils.E(utils.CodeInsufficientCoins, "WalletService.Debit", "not enough coins", nil))

	_, err := f.svc.RecordChoice(context.Background(), "u1", "sess-1", models.ChoiceChat)
	assert.True(t, utils.IsCode(err, utils.CodeInsufficientCoins))
	f.repo.AssertNotCalled(t, "SetChoice", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordChoiceSecondWriteRejected(t *testing.T) {
	f := newBlindFixture()
	sess := f.activeSession()
	sess.User1Choice = models.ChoiceChat
	f.repo.On("GetBySessionID", mock.Anything, "sess-1").Return(sess, nil)

	_, err := f.svc.RecordChoice(context.Background(), "u1", "sess-1", models.ChoiceDecline)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
	f.wallet.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordChoiceRevealToChatUpgrade(t *testing.T) {
	f := newBlindFixture()
	sess := f.activeSession()
	sess.User1Choice = models.ChoiceReveal
	sess.User1Revealed = true
	f.repo.On("GetBySessionID", mock.Anything, "sess-1").Return(sess, nil)
	f.wallet.On("Debit", mock.Anything, "u1", int64(100), "blind:chat:sess-1").Return(int64(50), nil)
	f.repo.On("SetChoice", mock.Anything, "sess-1", 1, models.ChoiceChat, false).Return(nil)

	res, err := f.svc.RecordChoice(context.Background(), "u1", "sess-1", models.ChoiceChat)
	assert.NoError(t, err)
	assert.Equal(t, int64(50), res.Coins)
	assert.Equal(t, models.BlindStatusActive, res.Status)
}

func TestRecordChoiceAllowedAfterTimerExpiry(t *testing.T) {
	f := newBlindFixture()
	sess := f.activeSession()
	sess.Status = models.BlindStatusEnded
	sess.EndReason = models.EndReasonExpired
	f.repo.On("GetBySessionID", mock.Anything, "sess-1").Return(sess, nil)
	f.wallet.On("Debit", mock.Anything, "u1", int64(70), "blind:reveal:sess-1").Return(int64(130), nil)
	f.repo.On("SetChoice", mock.Anything, "sess-1", 1, models.ChoiceReveal, true).Return(nil)
	f.profiles.On("GetPublic", mock.Anything, "u2").Return(&models.PublicProfile{UserID: "u2"}, nil)

	res, err := f.svc.RecordChoice(context.Background(), "u1", "sess-1", models.ChoiceReveal)
	assert.NoError(t, err)
	assert.True(t, res.Success)
}

func TestRecordChoiceRejectedOnClosedSession(t *testing.T) {
	f := newBlindFixture()
	sess := f.activeSession()
	sess.Status = models.BlindStatusEnded
	sess.EndReason = models.EndReasonUserLeft
	f.repo.On("GetBySessionID", mock.Anything, "sess-1").Return(sess, nil)

	_, err := f.svc.RecordChoice(context.Background(), "u1", "sess-1", models.ChoiceReveal)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
}

func TestRecordChoiceRejectedOnExtendedSession(t *testing.T) {
	f := newBlindFixture()
	sess := f.activeSession()
	sess.Status = models.BlindStatusExtended
	sess.ExpiresAt = f.base.Add(20 * time.Hour)
	f.repo.On("GetBySessionID", mock.Anything, "sess-1").Return(sess, nil)

	_, err := f.svc.RecordChoice(context.Background(), "u1", "sess-1", models.ChoiceChat)
	assert.True(t, utils.IsCode(err, utils.CodeConflict))
}

func TestRecordChoiceValidatesChoice(t *testing.T) {
	f := newBlindFixture()
	_, err := f.svc.RecordChoice(context.Background(), "u1", "sess-1", "ghost")
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestEndMarksUserLeft(t *testing.T) {
	f := newBlindFixture()
	f.repo.On("GetBySessionID", mock.Anything, "sess-1").Return(f.activeSession(), nil)
	f.repo.On("End", mock.Anything, "sess-1", models.EndReasonUserLeft, f.base).Return(nil)

	assert.NoError(t, f.svc.End(context.Background(), "u1", "sess-1"))
	f.repo.AssertExpectations(t)
}

func TestEndIdempotent(t *testing.T) {
	f := newBlindFixture()
	sess := f.activeSession()
	sess.Status = models.BlindStatusEnded
	sess.EndReason = models.EndReasonUserLeft
	f.repo.On("GetBySessionID", mock.Anything, "sess-1").Return(sess, nil)

	assert.NoError(t, f.svc.End(context.Background(), "u1", "sess-1"))
	f.repo.AssertNotCalled(t, "End", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSweepEndsOverdueAndAbandonsStale(t *testing.T) {
	f := newBlindFixture()

	overdue := *f.activeSession()
	overdue.SessionID = "sess-overdue"
	overdue.ExpiresAt = f.base.Add(-time.Minute)

	pending := *f.activeSession()
	pending.SessionID = "sess-pending"
	pending.Status = models.BlindStatusEnded
	pending.EndReason = models.EndReasonExpired

	resolvedByDecline := *f.activeSession()
	resolvedByDecline.SessionID = "sess-declined"
	resolvedByDecline.Status = models.BlindStatusEnded
	resolvedByDecline.EndReason = models.EndReasonExpired
	resolvedByDecline.User1Choice = models.ChoiceDecline

	f.repo.On("ListExpiredActive", mock.Anything, f.base).Return([]models.BlindSession{overdue}, nil)
	f.repo.On("End", mock.Anything, "sess-overdue", models.EndReasonExpired, f.base).Return(nil)
	f.repo.On("ListChoicePhaseOlderThan", mock.Anything, f.base.Add(-ChoiceWindow)).
		Return([]models.BlindSession{pending, resolvedByDecline}, nil)
	f.repo.On("SetEndReason", mock.Anything, "sess-pending", models.EndReasonAbandoned).Return(nil)

	f.svc.sweep(context.Background())

	f.repo.AssertExpectations(t)
	f.repo.AssertNotCalled(t, "SetEndReason", mock.Anything, "sess-declined", mock.Anything)
}
