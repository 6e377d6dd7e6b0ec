package services

import (
	"context"
	"errors"
	"time"

	"github.com/univeil/univeil/internal/cache"
	"github.com/univeil/univeil/internal/models"
	pgrepo "github.com/univeil/univeil/internal/repositories/postgres"
	"github.com/univeil/univeil/internal/utils"
)

const balanceCacheTTL = 5 * time.Minute

type WalletService interface {
	Balance(ctx context.Context, userID string) (int64, error)
	Credit(ctx context.Context, userID string, amount int64, ref string) (int64, error)
	Debit(ctx context.Context, userID string, amount int64, ref string) (int64, error)
	Ledger(ctx context.Context, userID string, limit int) ([]models.CoinLedger, error)
}

type walletService struct {
	wallets pgrepo.WalletRepository
	cache   cache.Cache
}

func NewWalletService(wallets pgrepo.WalletRepository, c cache.Cache) WalletService {
	return &walletService{wallets: wallets, cache: c}
}

func balanceKey(userID string) string { return "wallet:balance:" + userID }

func (s *walletService) Balance(ctx context.Context, userID string) (int64, error) {
	const op = "WalletService.Balance"

	if userID == "" {
		return 0, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	if s.cache != nil {
		var cached int64
		if hit, err := s.cache.GetJSON(ctx, balanceKey(userID), &cached); err == nil && hit {
			return cached, nil
		}
	}

	bal, err := s.wallets.GetBalance(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return 0, utils.E(utils.CodeNotFound, op, "wallet not found", err)
		}
		return 0, utils.E(utils.CodeInternal, op, "failed to get balance", err)
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, balanceKey(userID), bal, balanceCacheTTL)
	}
	return bal, nil
}

func (s *walletService) Credit(ctx context.Context, userID string, amount int64, ref string) (int64, error) {
	const op = "WalletService.Credit"

	if userID == "" || amount <= 0 {
		return 0, utils.E(utils.CodeInvalidArgument, op, "user_id and a positive amount are required", nil)
	}

	bal, err := s.wallets.Credit(ctx, userID, amount, ref)
	if err != nil {
		return 0, utils.E(utils.CodeInternal, op, "failed to credit wallet", err)
	}
	s.invalidate(ctx, userID, bal)
	return bal, nil
}

func (s *walletService) Debit(ctx context.Context, userID string, amount int64, ref string) (int64, error) {
	const op = "WalletService.Debit"

	if userID == "" || amount <= 0 {
		return 0, utils.E(utils.CodeInvalidArgument, op, "user_id and a positive amount are required", nil)
	}

	bal, err := s.wallets.Debit(ctx, userID, amount, ref)
	if err != nil {
		if errors.Is(err, pgrepo.ErrInsufficientBalance) {
			return 0, utils.E(utils.CodeInsufficientCoins, op, "not enough coins", err)
		}
		return 0, utils.E(utils.CodeInternal, op, "failed to debit wallet", err)
	}
	s.invalidate(ctx, userID, bal)
	return bal, nil
}

func (s *walletService) Ledger(ctx context.Context, userID string, limit int) ([]models.CoinLedger, error) {
	const op = "WalletService.Ledger"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	rows, err := s.wallets.ListLedger(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list ledger", err)
	}
	return rows, nil
}

func (s *walletService) invalidate(ctx context.Context, userID string, bal int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.SetJSON(ctx, balanceKey(userID), bal, balanceCacheTTL)
}
