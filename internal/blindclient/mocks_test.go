package blindclient

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockAPI is a testify mock of the API transport boundary.
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) JoinQueue(ctx context.Context) (*QueueState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*QueueState), args.Error(1)
}

func (m *MockAPI) LeaveQueue(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockAPI) SessionStatus(ctx context.Context) (*SessionState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SessionState), args.Error(1)
}

func (m *MockAPI) SessionMessages(ctx context.Context, sessionID string) (*SessionState, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SessionState), args.Error(1)
}

func (m *MockAPI) SendMessage(ctx context.Context, sessionID, text string) (*SessionState, error) {
	args := m.Called(ctx, sessionID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SessionState), args.Error(1)
}

func (m *MockAPI) RecordChoice(ctx context.Context, sessionID, choice string) (*ChoiceResult, error) {
	args := m.Called(ctx, sessionID, choice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ChoiceResult), args.Error(1)
}

func (m *MockAPI) EndSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// noticeRecorder collects notifications for assertions.
type noticeRecorder struct {
	mu  sync.Mutex
	got []NoticeKind
}

func (r *noticeRecorder) Notify(kind NoticeKind, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, kind)
}

func (r *noticeRecorder) has(kind NoticeKind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, k := range r.got {
		if k == kind {
			return true
		}
	}
	return false
}

func (r *noticeRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}
