package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is money leaving a user's ledger.
type Expense struct {
	Base
	UserID          string          `gorm:"type:uuid;not null;index" json:"userId"`
	Title           string          `gorm:"size:50;not null" json:"title"`
	Description     string          `gorm:"size:255" json:"description,omitempty"`
	Category        ExpenseCategory `gorm:"size:32;not null" json:"category"`
	Amount          decimal.Decimal `gorm:"type:numeric(19,2);not null" json:"amount"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transactionDate"`
}

// Income is money entering a user's ledger.
type Income struct {
	Base
	UserID          string          `gorm:"type:uuid;not null;index" json:"userId"`
	Title           string          `gorm:"size:50;not null" json:"title"`
	Description     string          `gorm:"size:255" json:"description,omitempty"`
	Category        IncomeCategory  `gorm:"size:32;not null" json:"category"`
	Amount          decimal.Decimal `gorm:"type:numeric(19,2);not null" json:"amount"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transactionDate"`
}
