package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/univeil/univeil/internal/models"
	mongorepo "github.com/univeil/univeil/internal/repositories/mongo"
	"github.com/univeil/univeil/internal/utils"
)

const (
	// ExtendedSessionTTL is how long a mutual extension keeps the identified
	// conversation open.
	ExtendedSessionTTL = 24 * time.Hour
	// ChoiceWindow is the maximum wait for the partner's post-timer choice;
	// sessions past it are swept as abandoned.
	ChoiceWindow = 24 * time.Hour
)

// SessionStatus is the wire shape of the status poll (and, trimmed, of the
// message poll). Clients derive "mine" vs "partner's" by comparing the user1
// and user2 ids against their own.
type SessionStatus struct {
	Status      string                `json:"status"`
	SessionID   string                `json:"session_id,omitempty"`
	ExpiresAt   *time.Time            `json:"expires_at,omitempty"`
	Messages    []models.BlindMessage `json:"messages,omitempty"`
	User1       string                `json:"user1,omitempty"`
	User2       string                `json:"user2,omitempty"`
	User1Choice string                `json:"user1_choice,omitempty"`
	User2Choice string                `json:"user2_choice,omitempty"`
	PartnerLeft bool                  `json:"partner_left,omitempty"`
	EndReason   string                `json:"end_reason,omitempty"`
}

type ChoiceResult struct {
	Success        bool                  `json:"success"`
	Coins          int64                 `json:"coins"`
	PartnerProfile *models.PublicProfile `json:"partner_profile,omitempty"`
	Status         string                `json:"status"`
}

type BlindService interface {
	StatusFor(ctx context.Context, userID string) (*SessionStatus, error)
	Messages(ctx context.Context, userID, sessionID string) (*SessionStatus, error)
	Send(ctx context.Context, userID, sessionID, text string) (*SessionStatus, error)
	RecordChoice(ctx context.Context, userID, sessionID, choice string) (*ChoiceResult, error)
	End(ctx context.Context, userID, sessionID string) error
	RunSweeper(ctx context.Context, interval time.Duration)
}

type blindService struct {
	sessions mongorepo.BlindSessionRepository
	queue    *Matchmaker
	wallet   WalletService
	profiles ProfileService
	log      *logrus.Logger

	now func() time.Time
}

func NewBlindService(sessions mongorepo.BlindSessionRepository, queue *Matchmaker, wallet WalletService, profiles ProfileService, log *logrus.Logger) BlindService {
	return &blindService{
		sessions: sessions,
		queue:    queue,
		wallet:   wallet,
		profiles: profiles,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// StatusFor answers the status poll: searching while queued, otherwise the
// user's most recent session, otherwise none.
func (s *blindService) StatusFor(ctx context.Context, userID string) (*SessionStatus, error) {
	const op = "BlindService.StatusFor"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	if s.queue.InQueue(userID) {
		return &SessionStatus{Status: models.BlindStatusSearching}, nil
	}

	sess, err := s.sessions.LatestForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return &SessionStatus{Status: "none"}, nil
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load session", err)
	}

	sess, err = s.expireIfDue(ctx, sess)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to expire session", err)
	}

	expires := sess.ExpiresAt
	return &SessionStatus{
		Status:      sess.Status,
		SessionID:   sess.SessionID,
		ExpiresAt:   &expires,
		Messages:    sess.Messages,
		User1:       sess.User1ID,
		User2:       sess.User2ID,
		User1Choice: sess.ChoiceOf(sess.User1ID),
		User2Choice: sess.ChoiceOf(sess.User2ID),
		PartnerLeft: sess.EndReason == models.EndReasonUserLeft,
		EndReason:   sess.EndReason,
	}, nil
}

// Messages answers the per-session transcript poll.
func (s *blindService) Messages(ctx context.Context, userID, sessionID string) (*SessionStatus, error) {
	const op = "BlindService.Messages"

	sess, err := s.member(ctx, op, userID, sessionID)
	if err != nil {
		return nil, err
	}

	sess, err = s.expireIfDue(ctx, sess)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to expire session", err)
	}

	expires := sess.ExpiresAt
	return &SessionStatus{
		Status:    sess.Status,
		SessionID: sess.SessionID,
		ExpiresAt: &expires,
		Messages:  sess.Messages,
	}, nil
}

// Send appends a chat message. A send at or past expiry flips the session to
// ended and fails with SESSION_EXPIRED so the client transitions instead of
// showing a generic error.
func (s *blindService) Send(ctx context.Context, userID, sessionID, text string) (*SessionStatus, error) {
	const op = "BlindService.Send"

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "text is required", nil)
	}

	sess, err := s.member(ctx, op, userID, sessionID)
	if err != nil {
		return nil, err
	}

	sess, err = s.expireIfDue(ctx, sess)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to expire session", err)
	}
	if sess.Status == models.BlindStatusEnded {
		return nil, utils.E(utils.CodeSessionExpired, op, "session time limit has passed", nil)
	}

	updated, err := s.sessions.AppendMessage(ctx, sessionID, models.BlindMessage{
		SenderID:  userID,
		Text:      text,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to append message", err)
	}

	expires := updated.ExpiresAt
	return &SessionStatus{
		Status:    updated.Status,
		SessionID: updated.SessionID,
		ExpiresAt: &expires,
		Messages:  updated.Messages,
	}, nil
}

// RecordChoice stores a post-timer choice, debits its price, and resolves the
// pair against the partner's stored choice. The only allowed second write is
// the discounted reveal-to-chat upgrade.
func (s *blindService) RecordChoice(ctx context.Context, userID, sessionID, choice string) (*ChoiceResult, error) {
	const op = "BlindService.RecordChoice"

	switch choice {
	case models.ChoiceReveal, models.ChoiceChat, models.ChoiceDecline:
	default:
		return nil, utils.E(utils.CodeInvalidArgument, op, "choice must be reveal, chat or decline", nil)
	}

	sess, err := s.member(ctx, op, userID, sessionID)
	if err != nil {
		return nil, err
	}
	sess, err = s.expireIfDue(ctx, sess)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to expire session", err)
	}

	switch sess.Status {
	case models.BlindStatusActive:
	case models.BlindStatusEnded:
		if sess.EndReason != "" && sess.EndReason != models.EndReasonExpired {
			return nil, utils.E(utils.CodeConflict, op, "session is closed", nil)
		}
	default:
		// extended sessions are already resolved
		return nil, utils.E(utils.CodeConflict, op, "session already resolved", nil)
	}

	existing := sess.ChoiceOf(userID)
	if existing != models.ChoiceNone && !(existing == models.ChoiceReveal && choice == models.ChoiceChat) {
		return nil, utils.E(utils.CodeConflict, op, "choice already recorded", nil)
	}

	price := ChoicePrice(choice, sess.RevealedBy(userID))
	var coins int64
	if price > 0 {
		coins, err = s.wallet.Debit(ctx, userID, price, "blind:"+choice+":"+sessionID)
		if err != nil {
			return nil, err // Debit already wraps, incl. INSUFFICIENT_COINS
		}
	} else {
		coins, err = s.wallet.Balance(ctx, userID)
		if err != nil {
			return nil, err
		}
	}

	slot := 1
	if sess.User2ID == userID {
		slot = 2
	}
	revealed := choice == models.ChoiceReveal
	if err := s.sessions.SetChoice(ctx, sessionID, slot, choice, revealed); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to record choice", err)
	}
	if slot == 1 {
		sess.User1Choice = choice
		sess.User1Revealed = sess.User1Revealed || revealed
	} else {
		sess.User2Choice = choice
		sess.User2Revealed = sess.User2Revealed || revealed
	}

	result := &ChoiceResult{Success: true, Coins: coins, Status: sess.Status}

	switch ResolveChoices(sess.User1Choice, sess.User2Choice) {
	case OutcomeExtended:
		if err := s.sessions.Extend(ctx, sessionID, s.now().Add(ExtendedSessionTTL)); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to extend session", err)
		}
		result.Status = models.BlindStatusExtended
		s.log.WithField("session_id", sessionID).Info("blind: mutual extension")
	case OutcomeClosed:
		if err := s.sessions.End(ctx, sessionID, models.EndReasonResolved, s.now()); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to close session", err)
		}
		if err := s.sessions.SetEndReason(ctx, sessionID, models.EndReasonResolved); err != nil {
			return nil, utils.E(utils.CodeInternal, op, "failed to close session", err)
		}
		result.Status = models.BlindStatusEnded
	}

	// identity is disclosed only on a paid reveal or a mutual extension
	if revealed || result.Status == models.BlindStatusExtended {
		partner, err := s.profiles.GetPublic(ctx, sess.PartnerOf(userID))
		if err != nil {
			return nil, err
		}
		result.PartnerProfile = partner
	}

	return result, nil
}

// End closes the session on behalf of userID. Ending an already-ended session
// is a no-op so client-side cleanup never fails.
func (s *blindService) End(ctx context.Context, userID, sessionID string) error {
	const op = "BlindService.End"

	sess, err := s.member(ctx, op, userID, sessionID)
	if err != nil {
		return err
	}
	if sess.Status == models.BlindStatusEnded {
		return nil
	}
	if err := s.sessions.End(ctx, sessionID, models.EndReasonUserLeft, s.now()); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to end session", err)
	}
	return nil
}

// RunSweeper periodically ends overdue sessions and abandons stale choice
// phases. Blocks until ctx is done.
func (s *blindService) RunSweeper(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweep(ctx)
		}
	}
}

func (s *blindService) sweep(ctx context.Context) {
	now := s.now()

	expired, err := s.sessions.ListExpiredActive(ctx, now)
	if err != nil {
		s.log.WithError(err).Warn("blind: sweep expired failed")
	}
	for _, sess := range expired {
		if err := s.sessions.End(ctx, sess.SessionID, models.EndReasonExpired, now); err != nil {
			s.log.WithError(err).WithField("session_id", sess.SessionID).Warn("blind: end expired failed")
		}
	}

	stale, err := s.sessions.ListChoicePhaseOlderThan(ctx, now.Add(-ChoiceWindow))
	if err != nil {
		s.log.WithError(err).Warn("blind: sweep abandoned failed")
	}
	for _, sess := range stale {
		if ResolveChoices(sess.User1Choice, sess.User2Choice) != OutcomePending {
			continue
		}
		if err := s.sessions.SetEndReason(ctx, sess.SessionID, models.EndReasonAbandoned); err != nil {
			s.log.WithError(err).WithField("session_id", sess.SessionID).Warn("blind: mark abandoned failed")
		}
	}
}

// member loads the session and authorizes userID against its slots.
func (s *blindService) member(ctx context.Context, op, userID, sessionID string) (*models.BlindSession, error) {
	if userID == "" || sessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and session_id are required", nil)
	}
	sess, err := s.sessions.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "session not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load session", err)
	}
	if !sess.Member(userID) {
		return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}
	return sess, nil
}

// expireIfDue flips a live session past its deadline to ended. The countdown
// on the client is advisory; this is where expiry actually takes effect.
func (s *blindService) expireIfDue(ctx context.Context, sess *models.BlindSession) (*models.BlindSession, error) {
	if sess.Status != models.BlindStatusActive && sess.Status != models.BlindStatusExtended {
		return sess, nil
	}
	if s.now().Before(sess.ExpiresAt) {
		return sess, nil
	}
	if err := s.sessions.End(ctx, sess.SessionID, models.EndReasonExpired, s.now()); err != nil {
		return nil, err
	}
	sess.Status = models.BlindStatusEnded
	sess.EndReason = models.EndReasonExpired
	return sess, nil
}
