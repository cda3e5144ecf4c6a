package services

import (
	"context"

	"gorm.io/gorm"

	apperrors "flux/internal/errors"
	"flux/internal/models"
	"flux/internal/pagination"
)

// expenseService handles the expense side of the ledger.
type expenseService struct {
	book *ledgerBook[models.Expense, models.ExpenseCategory]
}

// NewExpenseService creates a new ExpenseServicer. trigger is notified after
// every committed mutation.
func NewExpenseService(db *gorm.DB, trigger BalanceTrigger) ExpenseServicer {
	return &expenseService{book: &ledgerBook[models.Expense, models.ExpenseCategory]{
		db:      db,
		trigger: trigger,
		kind: ledgerKind[models.Expense, models.ExpenseCategory]{
			name:     "expense",
			notFound: apperrors.ErrExpenseNotFound,
			build: func(ownerID string, f entryFields, category models.ExpenseCategory) *models.Expense {
				return &models.Expense{
					UserID:          ownerID,
					Title:           f.title,
					Description:     f.description,
					Category:        category,
					Amount:          f.amount,
					TransactionDate: f.date,
				}
			},
			id:    func(e *models.Expense) string { return e.ID },
			owner: func(e *models.Expense) string { return e.UserID },
		},
	}}
}

// CreateExpense records a new expense for the acting user.
func (s *expenseService) CreateExpense(ctx context.Context, actorID string, input ExpenseInput) (*models.Expense, error) {
	return s.book.create(ctx, actorID, input)
}

// CreateExpenses records several expenses atomically.
func (s *expenseService) CreateExpenses(ctx context.Context, actorID string, inputs []ExpenseInput) ([]models.Expense, error) {
	return s.book.createMany(ctx, actorID, inputs)
}

// GetExpenseByID returns one of the acting user's expenses.
func (s *expenseService) GetExpenseByID(ctx context.Context, actorID, id string) (*models.Expense, error) {
	return s.book.get(ctx, actorID, id)
}

// ListExpenses returns a page of the acting user's expenses.
func (s *expenseService) ListExpenses(ctx context.Context, actorID string, page pagination.PageRequest) (*pagination.Page[models.Expense], error) {
	return s.book.list(ctx, actorID, page)
}

// UpdateExpense applies a partial update to one of the acting user's expenses.
func (s *expenseService) UpdateExpense(ctx context.Context, actorID, id string, update ExpenseUpdate) (*models.Expense, error) {
	return s.book.update(ctx, actorID, id, update)
}

// DeleteExpense removes one of the acting user's expenses.
func (s *expenseService) DeleteExpense(ctx context.Context, actorID, id string) error {
	return s.book.remove(ctx, actorID, id)
}

// ClearExpenses deletes all of the acting user's expenses.
func (s *expenseService) ClearExpenses(ctx context.Context, actorID string) (int64, error) {
	return s.book.clear(ctx, actorID)
}

// AllExpenses returns every expense for the user, newest first.
func (s *expenseService) AllExpenses(ctx context.Context, userID string) ([]models.Expense, error) {
	return allOwned[models.Expense](ctx, s.book.db, userID)
}
