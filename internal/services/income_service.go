package services

import (
	"context"

	"gorm.io/gorm"

	apperrors "flux/internal/errors"
	"flux/internal/models"
	"flux/internal/pagination"
)

// incomeService handles the income side of the ledger. Validation and
// persistence live in ledgerBook; this type only binds the income model.
type incomeService struct {
	book *ledgerBook[models.Income, models.IncomeCategory]
}

// NewIncomeService creates a new IncomeServicer.
func NewIncomeService(db *gorm.DB, trigger BalanceTrigger) IncomeServicer {
	kind := ledgerKind[models.Income, models.IncomeCategory]{
		name:     "income",
		notFound: apperrors.ErrIncomeNotFound,
		build: func(ownerID string, f entryFields, category models.IncomeCategory) *models.Income {
			return &models.Income{
				UserID:          ownerID,
				Title:           f.title,
				Description:     f.description,
				Category:        category,
				Amount:          f.amount,
				TransactionDate: f.date,
			}
		},
		id:    func(i *models.Income) string { return i.ID },
		owner: func(i *models.Income) string { return i.UserID },
	}
	return &incomeService{book: &ledgerBook[models.Income, models.IncomeCategory]{db: db, trigger: trigger, kind: kind}}
}

func (s *incomeService) CreateIncome(ctx context.Context, actorID string, input IncomeInput) (*models.Income, error) {
	return s.book.create(ctx, actorID, input)
}

func (s *incomeService) CreateIncomes(ctx context.Context, actorID string, inputs []IncomeInput) ([]models.Income, error) {
	return s.book.createMany(ctx, actorID, inputs)
}

func (s *incomeService) GetIncomeByID(ctx context.Context, actorID, id string) (*models.Income, error) {
	return s.book.get(ctx, actorID, id)
}

func (s *incomeService) ListIncomes(ctx context.Context, actorID string, page pagination.PageRequest) (*pagination.Page[models.Income], error) {
	return s.book.list(ctx, actorID, page)
}

func (s *incomeService) UpdateIncome(ctx context.Context, actorID, id string, update IncomeUpdate) (*models.Income, error) {
	return s.book.update(ctx, actorID, id, update)
}

func (s *incomeService) DeleteIncome(ctx context.Context, actorID, id string) error {
	return s.book.remove(ctx, actorID, id)
}

func (s *incomeService) ClearIncomes(ctx context.Context, actorID string) (int64, error) {
	return s.book.clear(ctx, actorID)
}

func (s *incomeService) AllIncomes(ctx context.Context, userID string) ([]models.Income, error) {
	return allOwned[models.Income](ctx, s.book.db, userID)
}
