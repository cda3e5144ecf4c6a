package services

import (
	"testing"

	"gorm.io/gorm"

	"flux/internal/logger"
)

func init() {
	logger.Init("test")
}

// ledgerFixture wires the ledger services the way the API does, with inline
// balance recalculation.
type ledgerFixture struct {
	db       *gorm.DB
	balances BalanceServicer
	expenses ExpenseServicer
	incomes  IncomeServicer
}

func newLedgerFixture(t *testing.T, db *gorm.DB) *ledgerFixture {
	t.Helper()
	balances := NewBalanceService(db)
	trigger := NewInlineBalanceTrigger(balances)
	return &ledgerFixture{
		db:       db,
		balances: balances,
		expenses: NewExpenseService(db, trigger),
		incomes:  NewIncomeService(db, trigger),
	}
}
