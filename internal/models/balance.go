package models

import (
	"errors"
	"time"

	"flux/internal/uuid"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrImmutableSnapshot is returned when code tries to update a balance snapshot.
var ErrImmutableSnapshot = errors.New("balance snapshots are immutable")

// Balance is an immutable snapshot of a user's totals. New snapshots
// supersede old ones; rows are never updated.
type Balance struct {
	ID             string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         string          `gorm:"type:uuid;not null;index:idx_balances_user_calculated,priority:1" json:"userId"`
	TotalIncome    decimal.Decimal `gorm:"type:numeric(19,2);not null" json:"totalIncome"`
	TotalExpense   decimal.Decimal `gorm:"type:numeric(19,2);not null" json:"totalExpense"`
	CurrentBalance decimal.Decimal `gorm:"type:numeric(19,2);not null" json:"currentBalance"`
	CalculatedAt   time.Time       `gorm:"not null;index:idx_balances_user_calculated,priority:2,sort:desc" json:"calculatedAt"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// NewBalance builds a snapshot whose current balance is income minus expense.
func NewBalance(userID string, totalIncome, totalExpense decimal.Decimal, at time.Time) *Balance {
	return &Balance{
		UserID:         userID,
		TotalIncome:    totalIncome,
		TotalExpense:   totalExpense,
		CurrentBalance: totalIncome.Sub(totalExpense),
		CalculatedAt:   at,
	}
}

// BeforeCreate assigns a UUIDv7 id.
func (b *Balance) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
	}
	return nil
}

// BeforeUpdate rejects any attempt to rewrite a snapshot.
func (b *Balance) BeforeUpdate(tx *gorm.DB) error {
	return ErrImmutableSnapshot
}
