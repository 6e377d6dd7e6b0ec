package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/univeil/univeil/internal/models"
	"github.com/univeil/univeil/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInsufficientBalance is returned by Debit when the wallet cannot cover the
// amount. The service layer maps it to CodeInsufficientCoins.
var ErrInsufficientBalance = errors.New("insufficient balance")

type WalletRepository interface {
	EnsureWallet(ctx context.Context, userID string) error
	GetBalance(ctx context.Context, userID string) (int64, error)
	Credit(ctx context.Context, userID string, amount int64, ref string) (int64, error)
	Debit(ctx context.Context, userID string, amount int64, ref string) (int64, error)
	ListLedger(ctx context.Context, userID string, limit int) ([]models.CoinLedger, error)
}

type walletRepo struct {
	db *gorm.DB
}

func NewWalletRepo(db *gorm.DB) WalletRepository {
	return &walletRepo{db: db}
}

func (r *walletRepo) EnsureWallet(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Wallet{UserID: userID, UpdatedAt: time.Now().UTC()}).Error
}

func (r *walletRepo) GetBalance(ctx context.Context, userID string) (int64, error) {
	var w models.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Take(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, utils.ErrNotFound
	}
	return w.Balance, err
}

func (r *walletRepo) Credit(ctx context.Context, userID string, amount int64, ref string) (int64, error) {
	return r.apply(ctx, userID, amount, models.LedgerCredit, ref)
}

// Debit atomically checks and decrements the balance; the guarded UPDATE is
// the concurrency control, no row lock needed.
func (r *walletRepo) Debit(ctx context.Context, userID string, amount int64, ref string) (int64, error) {
	return r.apply(ctx, userID, -amount, models.LedgerDebit, ref)
}

func (r *walletRepo) apply(ctx context.Context, userID string, delta int64, kind models.LedgerKind, ref string) (int64, error) {
	var balance int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&models.Wallet{}).Where("user_id = ?", userID)
		if delta < 0 {
			q = q.Where("balance >= ?", -delta)
		}
		res := q.Updates(map[string]any{
			"balance":    gorm.Expr("balance + ?", delta),
			"updated_at": time.Now().UTC(),
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			if delta < 0 {
				return ErrInsufficientBalance
			}
			return utils.ErrNotFound
		}

		var w models.Wallet
		if err := tx.Where("user_id = ?", userID).Take(&w).Error; err != nil {
			return err
		}
		balance = w.Balance

		return tx.Create(&models.CoinLedger{
			ID:        uuid.NewString(),
			UserID:    userID,
			Kind:      kind,
			Delta:     delta,
			Balance:   balance,
			Ref:       ref,
			CreatedAt: time.Now().UTC(),
		}).Error
	})
	return balance, err
}

func (r *walletRepo) ListLedger(ctx context.Context, userID string, limit int) ([]models.CoinLedger, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []models.CoinLedger
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
