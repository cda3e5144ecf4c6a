package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"flux/internal/calendar"
	"flux/internal/models"
	"flux/internal/pagination"
)

// RegisterInput carries the profile collected at sign-up.
type RegisterInput struct {
	Name            string
	LastName        string
	DateOfBirth     time.Time
	Email           string
	Password        string
	ProfileImageURL *string
}

// UserUpdate is a partial profile update. Blank strings and nil pointers are ignored.
type UserUpdate struct {
	Name            string
	LastName        string
	Email           string
	Password        string
	DateOfBirth     *time.Time
	ProfileImageURL *string
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetOwnProfile(ctx context.Context, actorID, id string) (*models.User, error)
	ListUsers(ctx context.Context, page pagination.PageRequest) (*pagination.Page[models.UserProfile], error)
	UpdateUser(ctx context.Context, actorID, id string, update UserUpdate) (*models.User, error)
	DeleteUser(ctx context.Context, actorID, id string) error
}

// EntryInput describes a new ledger entry. An empty OwnerID means the acting user.
type EntryInput[C any] struct {
	OwnerID         string
	Title           string
	Description     string
	Category        C
	Amount          decimal.Decimal
	TransactionDate time.Time
}

// EntryUpdate is a partial ledger entry update. Zero values are ignored.
type EntryUpdate[C any] struct {
	Title           string
	Description     string
	Category        C
	Amount          *decimal.Decimal
	TransactionDate *time.Time
}

// ExpenseInput describes a new expense.
type ExpenseInput = EntryInput[models.ExpenseCategory]

// ExpenseUpdate is a partial expense update.
type ExpenseUpdate = EntryUpdate[models.ExpenseCategory]

// ExpenseServicer defines the contract for the expense side of the ledger.
type ExpenseServicer interface {
	CreateExpense(ctx context.Context, actorID string, input ExpenseInput) (*models.Expense, error)
	CreateExpenses(ctx context.Context, actorID string, inputs []ExpenseInput) ([]models.Expense, error)
	GetExpenseByID(ctx context.Context, actorID, id string) (*models.Expense, error)
	ListExpenses(ctx context.Context, actorID string, page pagination.PageRequest) (*pagination.Page[models.Expense], error)
	UpdateExpense(ctx context.Context, actorID, id string, update ExpenseUpdate) (*models.Expense, error)
	DeleteExpense(ctx context.Context, actorID, id string) error
	ClearExpenses(ctx context.Context, actorID string) (int64, error)
	AllExpenses(ctx context.Context, userID string) ([]models.Expense, error)
}

// IncomeInput describes a new income.
type IncomeInput = EntryInput[models.IncomeCategory]

// IncomeUpdate is a partial income update.
type IncomeUpdate = EntryUpdate[models.IncomeCategory]

// IncomeServicer defines the contract for the income side of the ledger.
type IncomeServicer interface {
	CreateIncome(ctx context.Context, actorID string, input IncomeInput) (*models.Income, error)
	CreateIncomes(ctx context.Context, actorID string, inputs []IncomeInput) ([]models.Income, error)
	GetIncomeByID(ctx context.Context, actorID, id string) (*models.Income, error)
	ListIncomes(ctx context.Context, actorID string, page pagination.PageRequest) (*pagination.Page[models.Income], error)
	UpdateIncome(ctx context.Context, actorID, id string, update IncomeUpdate) (*models.Income, error)
	DeleteIncome(ctx context.Context, actorID, id string) error
	ClearIncomes(ctx context.Context, actorID string) (int64, error)
	AllIncomes(ctx context.Context, userID string) ([]models.Income, error)
}

// BalanceTrigger is notified after a ledger mutation commits. Implementations
// must not report failure to the caller.
type BalanceTrigger interface {
	BalanceChanged(ctx context.Context, userID string)
}

// Ledger bundles a user's complete expense and income history.
type Ledger struct {
	Expenses []models.Expense `json:"expenses"`
	Incomes  []models.Income  `json:"incomes"`
}

// BalanceServicer defines the contract for balance snapshots.
type BalanceServicer interface {
	CurrentBalance(ctx context.Context, userID string) (*models.Balance, error)
	Recalculate(ctx context.Context, userID string) (*models.Balance, error)
	RecalculateQuietly(ctx context.Context, userID string)
	History(ctx context.Context, userID string, page pagination.PageRequest) (*pagination.Page[models.Balance], error)
	HistoryByPeriod(ctx context.Context, userID string, start, end time.Time, page pagination.PageRequest) (*pagination.Page[models.Balance], error)
	Clear(ctx context.Context, userID string) (int64, error)
	ExpensesAndIncomes(ctx context.Context, userID string) (*Ledger, error)
}

// AssistantReply is the outcome of one assistant exchange.
type AssistantReply struct {
	Text     string
	Executed []CommandResult
}

// AssistantServicer defines the contract for the finance assistant.
type AssistantServicer interface {
	Ask(ctx context.Context, userID, prompt string) (*AssistantReply, error)
	History(ctx context.Context, userID string) (*models.Conversation, error)
	ClearHistory(ctx context.Context, userID string) error
}

// CalendarServicer defines the contract for the Google Calendar pass-through.
// token is the caller's Google OAuth access token.
type CalendarServicer interface {
	ListEvents(ctx context.Context, token string, query calendar.ListQuery) ([]calendar.Event, error)
	CreateEvent(ctx context.Context, token string, input calendar.EventInput) (*calendar.Event, error)
	UpdateEvent(ctx context.Context, token, eventID string, input calendar.EventInput) (*calendar.Event, error)
	DeleteEvent(ctx context.Context, token, eventID string) error
}
