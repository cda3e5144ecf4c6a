package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "flux/internal/errors"
	"flux/internal/logger"
	"flux/internal/models"
	"flux/internal/pagination"
)

// balanceOrder puts the newest snapshot first. UUIDv7 ids break timestamp ties.
const balanceOrder = "calculated_at DESC, id DESC"

// balanceService computes and stores balance snapshots.
type balanceService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewBalanceService creates a new BalanceServicer.
func NewBalanceService(db *gorm.DB) BalanceServicer {
	return &balanceService{db: db, now: time.Now}
}

// CurrentBalance returns the latest snapshot, computing the first one on demand.
func (s *balanceService) CurrentBalance(ctx context.Context, userID string) (*models.Balance, error) {
	if err := requireUser(ctx, s.db, userID); err != nil {
		return nil, err
	}

	var balance models.Balance
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order(balanceOrder).First(&balance).Error
	if err == nil {
		return &balance, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.recalculate(ctx, userID)
}

// Recalculate sums the user's whole ledger and appends a new snapshot.
func (s *balanceService) Recalculate(ctx context.Context, userID string) (*models.Balance, error) {
	if err := requireUser(ctx, s.db, userID); err != nil {
		return nil, err
	}
	return s.recalculate(ctx, userID)
}

// RecalculateQuietly is Recalculate for side-effect callers: failures are logged and dropped.
func (s *balanceService) RecalculateQuietly(ctx context.Context, userID string) {
	if _, err := s.Recalculate(ctx, userID); err != nil {
		logger.Named("balance").Errorw("balance recalculation failed", "user_id", userID, "error", err)
	}
}

func (s *balanceService) recalculate(ctx context.Context, userID string) (*models.Balance, error) {
	totalIncome, totalExpense, err := s.totals(ctx, userID)
	if err != nil {
		return nil, err
	}

	balance := models.NewBalance(userID, totalIncome, totalExpense, s.now().UTC())
	if err := s.db.WithContext(ctx).Create(balance).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Named("balance").Debugw("balance snapshot stored",
		"user_id", userID,
		"balance_id", balance.ID,
		"current_balance", balance.CurrentBalance.String(),
	)
	return balance, nil
}

// totals adds up the user's incomes and expenses. Amounts are summed as
// decimals in Go so the result is exact on every driver.
func (s *balanceService) totals(ctx context.Context, userID string) (decimal.Decimal, decimal.Decimal, error) {
	var incomes []models.Income
	if err := s.db.WithContext(ctx).Select("amount").Where("user_id = ?", userID).Find(&incomes).Error; err != nil {
		return decimal.Zero, decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	var expenses []models.Expense
	if err := s.db.WithContext(ctx).Select("amount").Where("user_id = ?", userID).Find(&expenses).Error; err != nil {
		return decimal.Zero, decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	totalIncome := decimal.Zero
	for _, income := range incomes {
		totalIncome = totalIncome.Add(income.Amount)
	}
	totalExpense := decimal.Zero
	for _, expense := range expenses {
		totalExpense = totalExpense.Add(expense.Amount)
	}
	return totalIncome, totalExpense, nil
}

// History returns the user's snapshots, newest first.
func (s *balanceService) History(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.Page[models.Balance], error) {
	if err := requireUser(ctx, s.db, userID); err != nil {
		return nil, err
	}
	return s.pageOfSnapshots(s.db.WithContext(ctx).Where("user_id = ?", userID), page)
}

// HistoryByPeriod returns snapshots calculated within [start, end], newest first.
func (s *balanceService) HistoryByPeriod(ctx context.Context, userID string, start, end time.Time, page pagination.PageRequest) (*pagination.Page[models.Balance], error) {
	if start.After(end) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "start date must not be after end date")
	}
	if err := requireUser(ctx, s.db, userID); err != nil {
		return nil, err
	}
	scope := s.db.WithContext(ctx).
		Where("user_id = ? AND calculated_at >= ? AND calculated_at <= ?", userID, start.UTC(), end.UTC())
	return s.pageOfSnapshots(scope, page)
}

func (s *balanceService) pageOfSnapshots(scope *gorm.DB, page pagination.PageRequest) (*pagination.Page[models.Balance], error) {
	page.Normalize()

	var total int64
	if err := scope.Session(&gorm.Session{}).Model(&models.Balance{}).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var balances []models.Balance
	if err := scope.Session(&gorm.Session{}).
		Order(balanceOrder).
		Scopes(pagination.Paginate(page)).
		Find(&balances).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPage(balances, page, total)
	return &result, nil
}

// Clear removes every snapshot belonging to the user.
func (s *balanceService) Clear(ctx context.Context, userID string) (int64, error) {
	if err := requireUser(ctx, s.db, userID); err != nil {
		return 0, err
	}
	deleted, err := clearOwned[models.Balance](ctx, s.db, userID)
	if err != nil {
		return 0, err
	}
	logger.Named("balance").Infow("balance history cleared", "user_id", userID, "count", deleted)
	return deleted, nil
}

// ExpensesAndIncomes returns the user's full ledger.
func (s *balanceService) ExpensesAndIncomes(ctx context.Context, userID string) (*Ledger, error) {
	if err := requireUser(ctx, s.db, userID); err != nil {
		return nil, err
	}
	expenses, err := allOwned[models.Expense](ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	incomes, err := allOwned[models.Income](ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	if expenses == nil {
		expenses = []models.Expense{}
	}
	if incomes == nil {
		incomes = []models.Income{}
	}
	return &Ledger{Expenses: expenses, Incomes: incomes}, nil
}

// InlineBalanceTrigger recomputes the balance synchronously after a mutation.
type InlineBalanceTrigger struct {
	balances BalanceServicer
}

// NewInlineBalanceTrigger creates a trigger backed by balances.
func NewInlineBalanceTrigger(balances BalanceServicer) *InlineBalanceTrigger {
	return &InlineBalanceTrigger{balances: balances}
}

// BalanceChanged recomputes the user's balance. The request context's
// cancellation is dropped since the mutation has already committed.
func (t *InlineBalanceTrigger) BalanceChanged(ctx context.Context, userID string) {
	t.balances.RecalculateQuietly(context.WithoutCancel(ctx), userID)
}
