package blindclient

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/univeil/univeil/internal/utils"
)

// Status is the controller's projection of the server's session state.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusSearching Status = "searching"
	StatusActive    Status = "active"
	StatusExtended  Status = "extended"
	StatusEnded     Status = "ended"
)

// Local copy of the server's price table. This gate is a UX short-circuit
// only; the server re-validates and is the authority on the debit.
const (
	priceReveal          int64 = 70
	priceChat            int64 = 200
	priceChatAfterReveal int64 = 100
)

const (
	defaultPollInterval = 2 * time.Second
	defaultTickInterval = 1 * time.Second
)

// State is a point-in-time snapshot of the controller, safe to hand to the UI.
type State struct {
	Status         Status
	SessionID      string
	ExpiresAt      time.Time
	Countdown      int // seconds remaining, derived from ExpiresAt
	Messages       []Message
	MyChoice       string
	PartnerChoice  string
	PartnerProfile *PartnerProfile
	Revealed       bool
	Coins          int64
	EndReason      string
}

// CountdownString renders the remaining time as mm:ss for display.
func (s State) CountdownString() string {
	cd := s.Countdown
	if cd < 0 {
		cd = 0
	}
	return fmt.Sprintf("%02d:%02d", cd/60, cd%60)
}

type Config struct {
	API      API
	UserID   string
	Coins    int64 // cached coin balance, refreshed from choice responses
	Notifier Notifier
	Logger   *logrus.Logger

	PollInterval time.Duration // default 2s
	TickInterval time.Duration // default 1s
}

// Controller owns the client-side blind session state machine:
//
//	idle -> searching -> active -> extended -> ended -> idle
//
// Two pollers (status, messages) and a countdown ticker run while their
// states apply and are torn down on every transition out of them and on
// Close. All mutation happens under one mutex; notifications are emitted
// after it is released.
type Controller struct {
	api      API
	notifier Notifier
	log      *logrus.Logger
	userID   string

	pollInterval time.Duration
	tickInterval time.Duration
	now          func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	st           State
	sending      bool
	localExpired bool // countdown fired; never revert to active until reset
	closed       bool

	// last-writer-wins guard for out-of-order poll responses
	dispatchSeq uint64
	appliedSeq  uint64

	statusStop chan struct{}
	msgStop    chan struct{}
	tickStop   chan struct{}
}

func NewController(cfg Config) *Controller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		api:          cfg.API,
		notifier:     cfg.Notifier,
		log:          cfg.Logger,
		userID:       cfg.UserID,
		pollInterval: cfg.PollInterval,
		tickInterval: cfg.TickInterval,
		now:          func() time.Time { return time.Now().UTC() },
		ctx:          ctx,
		cancel:       cancel,
		st:           State{Status: StatusIdle, Coins: cfg.Coins},
	}
}

// State returns a copy of the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.st
	out.Messages = append([]Message(nil), c.st.Messages...)
	return out
}

// SetCoinBalance refreshes the cached balance, e.g. after a wallet fetch.
func (c *Controller) SetCoinBalance(coins int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.Coins = coins
}

// JoinQueue optimistically enters searching, then confirms with the server.
// This is the only operation with a rollback contract: on failure the status
// returns to exactly idle.
func (c *Controller) JoinQueue(ctx context.Context) error {
	c.mu.Lock()
	if c.closed || c.st.Status != StatusIdle {
		c.mu.Unlock()
		return nil
	}
	c.st.Status = StatusSearching
	c.syncTimersLocked()
	c.mu.Unlock()

	qs, err := c.api.JoinQueue(ctx)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		if c.st.Status == StatusSearching {
			c.resetLocked()
		}
		c.mu.Unlock()
		c.notify(NoticeError, "Could not join the queue. Please try again.")
		return err
	}

	if qs.Status == "matched" && qs.SessionID != "" {
		c.st.Status = StatusActive
		c.st.SessionID = qs.SessionID
		if !qs.ExpiresAt.IsZero() {
			c.st.ExpiresAt = qs.ExpiresAt
			c.st.Countdown = c.remainingLocked()
		}
	}
	c.syncTimersLocked()
	c.mu.Unlock()
	return nil
}

// LeaveQueue is fire-and-forget: the server call is best-effort and local
// state resets to idle regardless.
func (c *Controller) LeaveQueue(ctx context.Context) {
	if err := c.api.LeaveQueue(ctx); err != nil {
		c.log.WithError(err).Debug("blindclient: leave queue failed")
	}

	c.mu.Lock()
	if !c.closed {
		c.resetLocked()
	}
	c.mu.Unlock()
}

// SendMessage appends a chat message. Blank input or a missing session is a
// no-op, and a sending guard suppresses duplicate submits. A structured
// SESSION_EXPIRED failure transitions to ended instead of surfacing an error.
func (c *Controller) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	if c.closed || c.sending || text == "" || c.st.SessionID == "" {
		c.mu.Unlock()
		return nil
	}
	c.sending = true
	sessionID := c.st.SessionID
	c.mu.Unlock()

	st, err := c.api.SendMessage(ctx, sessionID, text)

	c.mu.Lock()
	c.sending = false
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		if utils.IsCode(err, utils.CodeSessionExpired) {
			c.endLocked("expired")
			c.syncTimersLocked()
			c.mu.Unlock()
			return nil
		}
		c.mu.Unlock()
		c.notify(NoticeError, "Could not send your message.")
		return err
	}

	if st.Messages != nil {
		c.st.Messages = st.Messages
	}
	if st.ExpiresAt != nil {
		c.st.ExpiresAt = *st.ExpiresAt
	}
	if st.Status == "ended" {
		c.endLocked(st.EndReason)
	}
	c.syncTimersLocked()
	c.mu.Unlock()
	return nil
}

// RecordChoice submits a post-timer decision. Reveal and chat are gated on
// the cached coin balance before any network call; the server re-validates
// and returns the authoritative balance.
func (c *Controller) RecordChoice(ctx context.Context, choice string) error {
	c.mu.Lock()
	if c.closed || c.st.SessionID == "" {
		c.mu.Unlock()
		return nil
	}

	cost := choicePrice(choice, c.st.Revealed)
	if cost > 0 && c.st.Coins < cost {
		c.mu.Unlock()
		c.notify(NoticeInsufficientCoins, fmt.Sprintf("You need %d coins for this choice.", cost))
		return nil
	}
	sessionID := c.st.SessionID
	c.mu.Unlock()

	res, err := c.api.RecordChoice(ctx, sessionID, choice)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		if utils.IsCode(err, utils.CodeInsufficientCoins) {
			c.notify(NoticeInsufficientCoins, "Not enough coins.")
		} else {
			c.notify(NoticeError, "Could not record your choice.")
		}
		return err
	}

	c.st.MyChoice = choice
	c.st.Coins = res.Coins
	if res.PartnerProfile != nil {
		c.st.PartnerProfile = res.PartnerProfile
	}
	if choice == "reveal" {
		c.st.Revealed = true
	}

	extended := res.Status == "extended"
	if extended {
		c.st.Status = StatusExtended
		c.localExpired = false
	} else if res.Status == "ended" {
		c.st.Status = StatusEnded
	}
	c.syncTimersLocked()
	c.mu.Unlock()

	if extended {
		c.notify(NoticeMutualMatch, "It's mutual! Your conversation continues.")
	}
	return nil
}

// EndSession notifies the server best-effort and unconditionally resets to
// idle; cleanup never blocks on the network.
func (c *Controller) EndSession(ctx context.Context) {
	c.mu.Lock()
	sessionID := c.st.SessionID
	c.mu.Unlock()

	if sessionID != "" {
		if err := c.api.EndSession(ctx, sessionID); err != nil {
			c.log.WithError(err).Debug("blindclient: end session cleanup failed")
		}
	}

	c.mu.Lock()
	if !c.closed {
		c.resetLocked()
	}
	c.mu.Unlock()
}

// Close tears the controller down: leaves the queue if searching, stops every
// ticker, and drops any response that lands afterwards.
func (c *Controller) Close(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	searching := c.st.Status == StatusSearching
	c.mu.Unlock()

	if searching {
		if err := c.api.LeaveQueue(ctx); err != nil {
			c.log.WithError(err).Debug("blindclient: leave queue on close failed")
		}
	}

	c.mu.Lock()
	c.closed = true
	c.resetLocked()
	c.mu.Unlock()
	c.cancel()
}

// --- polling ---

func (c *Controller) runLoop(stop chan struct{}, every time.Duration, fn func()) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-c.ctx.Done():
			return
		case <-t.C:
			fn()
		}
	}
}

func (c *Controller) pollStatus() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.dispatchSeq++
	seq := c.dispatchSeq
	c.mu.Unlock()

	st, err := c.api.SessionStatus(c.ctx)
	if err != nil {
		c.log.WithError(err).Debug("blindclient: status poll failed")
		return
	}
	c.applyStatus(seq, st)
}

func (c *Controller) applyStatus(seq uint64, st *SessionState) {
	var notices []notice

	c.mu.Lock()
	// last-writer-wins: a response older than the newest applied one is stale
	if c.closed || seq < c.appliedSeq {
		c.mu.Unlock()
		return
	}
	c.appliedSeq = seq

	switch st.Status {
	case "matched", "active":
		if c.localExpired {
			break // a locally-expired session never reverts to active
		}
		c.adoptSessionLocked(st, StatusActive)

	case "extended":
		wasExtended := c.st.Status == StatusExtended
		if st.ExpiresAt != nil && c.now().Before(*st.ExpiresAt) {
			c.localExpired = false
		}
		if c.localExpired {
			break
		}
		c.adoptSessionLocked(st, StatusExtended)
		if !wasExtended {
			notices = append(notices, notice{NoticeMutualMatch, "It's mutual! Your conversation continues."})
		}

	case "ended":
		if c.st.Status != StatusEnded {
			c.endLocked(st.EndReason)
			switch st.EndReason {
			case "user_left":
				notices = append(notices, notice{NoticePartnerLeft, "Your partner left the conversation."})
			case "abandoned":
				notices = append(notices, notice{NoticeTimedOut, "The session timed out."})
			}
		}

	case "searching", "none":
		// still queued, or nothing known server-side; keep local state
	}

	c.syncTimersLocked()
	c.mu.Unlock()

	for _, n := range notices {
		c.notify(n.kind, n.msg)
	}
}

func (c *Controller) pollMessages() {
	c.mu.Lock()
	if c.closed || c.st.SessionID == "" {
		c.mu.Unlock()
		return
	}
	c.dispatchSeq++
	seq := c.dispatchSeq
	sessionID := c.st.SessionID
	c.mu.Unlock()

	st, err := c.api.SessionMessages(c.ctx, sessionID)
	if err != nil {
		c.log.WithError(err).Debug("blindclient: message poll failed")
		return
	}

	c.mu.Lock()
	if c.closed || seq < c.appliedSeq || c.st.SessionID != sessionID {
		c.mu.Unlock()
		return
	}
	c.appliedSeq = seq

	// the server's transcript replaces the local copy wholesale
	if st.Messages != nil {
		c.st.Messages = st.Messages
	}
	if st.ExpiresAt != nil {
		c.st.ExpiresAt = *st.ExpiresAt
	}
	if st.Status == "ended" && c.st.Status != StatusEnded {
		c.endLocked(st.EndReason)
	}
	c.syncTimersLocked()
	c.mu.Unlock()
}

func (c *Controller) tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.st.Status != StatusActive && c.st.Status != StatusExtended {
		return
	}

	rem := c.remainingLocked()
	c.st.Countdown = rem
	if rem <= 0 {
		// speculative local termination; the server confirms on next contact
		c.localExpired = true
		c.endLocked("expired")
		c.syncTimersLocked()
	}
}

// --- state helpers (callers hold c.mu) ---

func (c *Controller) adoptSessionLocked(st *SessionState, status Status) {
	c.st.Status = status
	if st.SessionID != "" {
		c.st.SessionID = st.SessionID
	}
	if st.ExpiresAt != nil {
		c.st.ExpiresAt = *st.ExpiresAt
		c.st.Countdown = c.remainingLocked()
	}
	if st.Messages != nil {
		c.st.Messages = st.Messages
	}

	// first-match-wins slot mapping: whichever slot equals the current user
	// is mine, the other is the partner's
	switch c.userID {
	case st.User1:
		c.setChoicesLocked(st.User1Choice, st.User2Choice)
	case st.User2:
		c.setChoicesLocked(st.User2Choice, st.User1Choice)
	}
}

func (c *Controller) setChoicesLocked(mine, partner string) {
	if mine != "" && mine != "none" {
		c.st.MyChoice = mine
	}
	if partner != "" && partner != "none" {
		c.st.PartnerChoice = partner
	}
}

func (c *Controller) endLocked(reason string) {
	c.st.Status = StatusEnded
	c.st.Countdown = 0
	if reason != "" {
		c.st.EndReason = reason
	}
}

func (c *Controller) resetLocked() {
	coins := c.st.Coins
	c.st = State{Status: StatusIdle, Coins: coins}
	c.sending = false
	c.localExpired = false
	c.syncTimersLocked()
}

func (c *Controller) remainingLocked() int {
	rem := int(c.st.ExpiresAt.Sub(c.now()).Seconds())
	if rem < 0 {
		rem = 0
	}
	return rem
}

// syncTimersLocked reconciles the three tickers with the current status so a
// transition out of a polling state always clears its interval.
func (c *Controller) syncTimersLocked() {
	wantStatus := !c.closed &&
		(c.st.Status == StatusSearching || c.st.Status == StatusActive || c.st.Status == StatusExtended)
	wantMsgs := !c.closed && c.st.SessionID != "" &&
		(c.st.Status == StatusActive || c.st.Status == StatusExtended)
	wantTick := !c.closed &&
		(c.st.Status == StatusActive || c.st.Status == StatusExtended)

	c.statusStop = c.syncLoopLocked(c.statusStop, wantStatus, c.pollInterval, c.pollStatus)
	c.msgStop = c.syncLoopLocked(c.msgStop, wantMsgs, c.pollInterval, c.pollMessages)
	c.tickStop = c.syncLoopLocked(c.tickStop, wantTick, c.tickInterval, c.tick)
}

func (c *Controller) syncLoopLocked(stop chan struct{}, want bool, every time.Duration, fn func()) chan struct{} {
	switch {
	case want && stop == nil:
		stop = make(chan struct{})
		go c.runLoop(stop, every, fn)
	case !want && stop != nil:
		close(stop)
		stop = nil
	}
	return stop
}

type notice struct {
	kind NoticeKind
	msg  string
}

func (c *Controller) notify(kind NoticeKind, msg string) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(kind, msg)
}

func choicePrice(choice string, alreadyRevealed bool) int64 {
	switch choice {
	case "reveal":
		return priceReveal
	case "chat":
		if alreadyRevealed {
			return priceChatAfterReveal
		}
		return priceChat
	}
	return 0
}
