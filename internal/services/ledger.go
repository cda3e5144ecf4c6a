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

const (
	maxTitleLength       = 50
	maxDescriptionLength = 255
)

// ledgerSort is the sort allow-list shared by expense and income listings.
var ledgerSort = pagination.SortSpec{
	Columns: map[string]string{
		"category":        "category",
		"amount":          "amount",
		"transactionDate": "transaction_date",
		"title":           "title",
	},
	DefaultField:     "transactionDate",
	DefaultDirection: pagination.Desc,
	Tiebreak:         "id DESC",
}

// requireUser fails with ErrUserNotFound unless the user exists.
func requireUser(ctx context.Context, db *gorm.DB, userID string) error {
	if userID == "" {
		return apperrors.ErrUserNotFound
	}
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// resolveOwner returns the owner for a new ledger entry. Callers may only
// create entries for themselves.
func resolveOwner(actorID, ownerID string) (string, error) {
	if ownerID == "" || ownerID == actorID {
		return actorID, nil
	}
	return "", apperrors.WithMessage(apperrors.ErrForbidden, "You can only create transactions for yourself")
}

// entryFields is the normalised, validated content of a ledger entry.
type entryFields struct {
	title       string
	description string
	amount      decimal.Decimal
	date        time.Time
}

// prepareEntry title-cases the title, rounds the amount to cents and checks the limits.
func prepareEntry(title, description string, amount decimal.Decimal, date time.Time) (entryFields, error) {
	f := entryFields{
		title:       titleCase(title),
		description: description,
		amount:      amount.Round(2),
		date:        date,
	}
	if f.title == "" {
		return f, apperrors.WithMessage(apperrors.ErrInvalidInput, "title is required")
	}
	if len([]rune(f.title)) > maxTitleLength {
		return f, apperrors.WithMessage(apperrors.ErrInvalidInput, "title must be at most 50 characters")
	}
	if len([]rune(f.description)) > maxDescriptionLength {
		return f, apperrors.WithMessage(apperrors.ErrInvalidInput, "description must be at most 255 characters")
	}
	if !f.amount.IsPositive() {
		return f, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if f.date.IsZero() {
		f.date = time.Now()
	}
	f.date = f.date.UTC()
	return f, nil
}

// entryCategory is implemented by models.ExpenseCategory and models.IncomeCategory.
type entryCategory interface {
	~string
	Valid() bool
}

// ledgerKind tells a ledgerBook how to name, build and inspect its rows.
type ledgerKind[T any, C entryCategory] struct {
	name     string
	notFound *apperrors.AppError
	build    func(ownerID string, f entryFields, category C) *T
	id       func(*T) string
	owner    func(*T) string
}

// ledgerBook implements the operations expenses and incomes share. Rows are
// always scoped to the acting user and every committed mutation notifies the
// balance trigger.
type ledgerBook[T any, C entryCategory] struct {
	db      *gorm.DB
	trigger BalanceTrigger
	kind    ledgerKind[T, C]
}

func (b *ledgerBook[T, C]) build(actorID string, input EntryInput[C]) (*T, error) {
	ownerID, err := resolveOwner(actorID, input.OwnerID)
	if err != nil {
		return nil, err
	}
	if !input.Category.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+b.kind.name+" category")
	}
	fields, err := prepareEntry(input.Title, input.Description, input.Amount, input.TransactionDate)
	if err != nil {
		return nil, err
	}
	return b.kind.build(ownerID, fields, input.Category), nil
}

func (b *ledgerBook[T, C]) create(ctx context.Context, actorID string, input EntryInput[C]) (*T, error) {
	row, err := b.build(actorID, input)
	if err != nil {
		return nil, err
	}
	ownerID := b.kind.owner(row)
	if err := requireUser(ctx, b.db, ownerID); err != nil {
		return nil, err
	}

	if err := b.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow(b.kind.name+" created", "user_id", ownerID, b.kind.name+"_id", b.kind.id(row))
	notify(ctx, b.trigger, ownerID)
	return row, nil
}

// createMany validates every input before writing any of them, then inserts
// them in one transaction.
func (b *ledgerBook[T, C]) createMany(ctx context.Context, actorID string, inputs []EntryInput[C]) ([]T, error) {
	if len(inputs) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "at least one "+b.kind.name+" is required")
	}

	rows := make([]T, 0, len(inputs))
	for _, input := range inputs {
		row, err := b.build(actorID, input)
		if err != nil {
			return nil, err
		}
		rows = append(rows, *row)
	}
	if err := requireUser(ctx, b.db, actorID); err != nil {
		return nil, err
	}

	err := b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow(b.kind.name+"s created", "user_id", actorID, "count", len(rows))
	notify(ctx, b.trigger, actorID)
	return rows, nil
}

// get loads a row by id and checks it belongs to actorID.
func (b *ledgerBook[T, C]) get(ctx context.Context, actorID, id string) (*T, error) {
	var row T
	if err := b.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, b.kind.notFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if b.kind.owner(&row) != actorID {
		return nil, apperrors.WithMessage(apperrors.ErrForbidden, "You can only access your own transactions")
	}
	return &row, nil
}

// list returns one sorted page of the acting user's rows.
func (b *ledgerBook[T, C]) list(ctx context.Context, actorID string, page pagination.PageRequest) (*pagination.Page[T], error) {
	if err := requireUser(ctx, b.db, actorID); err != nil {
		return nil, err
	}
	page.Normalize()

	var total int64
	if err := b.db.WithContext(ctx).Model(new(T)).Where("user_id = ?", actorID).Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var rows []T
	if err := b.db.WithContext(ctx).
		Where("user_id = ?", actorID).
		Order(page.OrderClause(ledgerSort)).
		Scopes(pagination.Paginate(page)).
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPage(rows, page, total)
	return &result, nil
}

// changes validates a partial update and returns the columns to write.
func (b *ledgerBook[T, C]) changes(update EntryUpdate[C]) (map[string]interface{}, error) {
	updates := map[string]interface{}{}
	if update.Title != "" {
		title := titleCase(update.Title)
		if title == "" || len([]rune(title)) > maxTitleLength {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "title must be between 1 and 50 characters")
		}
		updates["title"] = title
	}
	if update.Description != "" {
		if len([]rune(update.Description)) > maxDescriptionLength {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description must be at most 255 characters")
		}
		updates["description"] = update.Description
	}
	if update.Category != "" {
		if !update.Category.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+b.kind.name+" category")
		}
		updates["category"] = update.Category
	}
	if update.Amount != nil {
		amount := update.Amount.Round(2)
		if !amount.IsPositive() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		updates["amount"] = amount
	}
	if update.TransactionDate != nil && !update.TransactionDate.IsZero() {
		updates["transaction_date"] = update.TransactionDate.UTC()
	}
	return updates, nil
}

func (b *ledgerBook[T, C]) update(ctx context.Context, actorID, id string, update EntryUpdate[C]) (*T, error) {
	row, err := b.get(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	updates, err := b.changes(update)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return row, nil
	}

	if err := b.db.WithContext(ctx).Model(row).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	notify(ctx, b.trigger, actorID)
	return b.get(ctx, actorID, id)
}

func (b *ledgerBook[T, C]) remove(ctx context.Context, actorID, id string) error {
	row, err := b.get(ctx, actorID, id)
	if err != nil {
		return err
	}

	if err := b.db.WithContext(ctx).Delete(row).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	logger.Get().Infow(b.kind.name+" deleted", "user_id", actorID, b.kind.name+"_id", id)
	notify(ctx, b.trigger, actorID)
	return nil
}

func (b *ledgerBook[T, C]) clear(ctx context.Context, actorID string) (int64, error) {
	if err := requireUser(ctx, b.db, actorID); err != nil {
		return 0, err
	}
	deleted, err := clearOwned[T](ctx, b.db, actorID)
	if err != nil {
		return 0, err
	}
	logger.Get().Infow(b.kind.name+"s cleared", "user_id", actorID, "count", deleted)
	notify(ctx, b.trigger, actorID)
	return deleted, nil
}

// allOwned returns every row of type T for the user, newest first.
func allOwned[T any](ctx context.Context, db *gorm.DB, userID string) ([]T, error) {
	var rows []T
	if err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("transaction_date DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rows, nil
}

// clearOwned deletes every row of type T belonging to userID and nothing else.
func clearOwned[T any](ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	result := db.WithContext(ctx).Where("user_id = ?", userID).Delete(new(T))
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	return result.RowsAffected, nil
}

// notify tells the trigger that userID's ledger changed. A nil trigger is a no-op.
func notify(ctx context.Context, trigger BalanceTrigger, userID string) {
	if trigger != nil {
		trigger.BalanceChanged(ctx, userID)
	}
}
