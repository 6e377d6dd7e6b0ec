package services

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/univeil/univeil/internal/models"
)

// MockBlindRepo is a testify mock of mongo.BlindSessionRepository.
type MockBlindRepo struct {
	mock.Mock
}

func (m *MockBlindRepo) Create(ctx context.Context, s *models.BlindSession) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockBlindRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.BlindSession, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlindSession), args.Error(1)
}

func (m *MockBlindRepo) LatestForUser(ctx context.Context, userID string) (*models.BlindSession, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlindSession), args.Error(1)
}

func (m *MockBlindRepo) AppendMessage(ctx context.Context, sessionID string, msg models.BlindMessage) (*models.BlindSession, error) {
	args := m.Called(ctx, sessionID, msg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BlindSession), args.Error(1)
}

func (m *MockBlindRepo) End(ctx context.Context, sessionID, reason string, endedAt time.Time) error {
	args := m.Called(ctx, sessionID, reason, endedAt)
	return args.Error(0)
}

func (m *MockBlindRepo) SetChoice(ctx context.Context, sessionID string, slot int, choice string, revealed bool) error {
	args := m.Called(ctx, sessionID, slot, choice, revealed)
	return args.Error(0)
}

func (m *MockBlindRepo) Extend(ctx context.Context, sessionID string, expiresAt time.Time) error {
	args := m.Called(ctx, sessionID, expiresAt)
	return args.Error(0)
}

func (m *MockBlindRepo) ListExpiredActive(ctx context.Context, now time.Time) ([]models.BlindSession, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BlindSession), args.Error(1)
}

func (m *MockBlindRepo) ListChoicePhaseOlderThan(ctx context.Context, cutoff time.Time) ([]models.BlindSession, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.BlindSession), args.Error(1)
}

func (m *MockBlindRepo) SetEndReason(ctx context.Context, sessionID, reason string) error {
	args := m.Called(ctx, sessionID, reason)
	return args.Error(0)
}

// MockWalletService mocks WalletService for blind service tests.
type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) Balance(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWalletService) Credit(ctx context.Context, userID string, amount int64, ref string) (int64, error) {
	args := m.Called(ctx, userID, amount, ref)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWalletService) Debit(ctx context.Context, userID string, amount int64, ref string) (int64, error) {
	args := m.Called(ctx, userID, amount, ref)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWalletService) Ledger(ctx context.Context, userID string, limit int) ([]models.CoinLedger, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CoinLedger), args.Error(1)
}

// MockProfileService mocks ProfileService.
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) GetMe(ctx context.Context, userID string) (*models.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Profile), args.Error(1)
}

func (m *MockProfileService) GetPublic(ctx context.Context, userID string) (*models.PublicProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PublicProfile), args.Error(1)
}

func (m *MockProfileService) Upsert(ctx context.Context, p *models.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockWalletRepo mocks postgres.WalletRepository for wallet service tests.
type MockWalletRepo struct {
	mock.Mock
}

func (m *MockWalletRepo) EnsureWallet(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockWalletRepo) GetBalance(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWalletRepo) Credit(ctx context.Context, userID string, amount int64, ref string) (int64, error) {
	args := m.Called(ctx, userID, amount, ref)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWalletRepo) Debit(ctx context.Context, userID string, amount int64, ref string) (int64, error) {
	args := m.Called(ctx, userID, amount, ref)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWalletRepo) ListLedger(ctx context.Context, userID string, limit int) ([]models.CoinLedger, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CoinLedger), args.Error(1)
}

// fakeCache is a map-backed cache.Cache for tests.
type fakeCache struct {
	data map[string]any
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string]any{}} }

func (f *fakeCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := f.data[key]
	if !ok {
		return false, nil
	}
	if p, ok := dst.(*int64); ok {
		*p = v.(int64)
		return true, nil
	}
	return false, nil
}

func (f *fakeCache) SetJSON(ctx context.Context, key string, val any, ttl time.Duration) error {
	f.data[key] = val
	return nil
}

func (f *fakeCache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}
