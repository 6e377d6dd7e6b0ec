package models

import (
	"time"

	"gorm.io/datatypes"
)

type Wallet struct {
	UserID    string    `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Balance   int64     `gorm:"column:balance;default:0" json:"balance"`
	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Wallet) TableName() string { return "wallets" }

type LedgerKind string

const (
	LedgerCredit LedgerKind = "credit"
	LedgerDebit  LedgerKind = "debit"
)

// CoinLedger is append-only; Balance is the wallet balance after the entry.
type CoinLedger struct {
	ID        string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    string         `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	Kind      LedgerKind     `gorm:"column:kind;type:text" json:"kind"`
	Delta     int64          `gorm:"column:delta" json:"delta"`
	Balance   int64          `gorm:"column:balance" json:"balance"`
	Ref       string         `gorm:"column:ref;type:text" json:"ref"` // ex: "blind:reveal:<session_id>"
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt time.Time      `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (CoinLedger) TableName() string { return "coin_ledger" }
