package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"flux/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Name:        "Test",
		LastName:    fmt.Sprintf("User%d", nextID()),
		DateOfBirth: time.Date(1990, time.January, 15, 0, 0, 0, 0, time.UTC),
		Email:       email,
		Password:    string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestExpense inserts an expense directly, bypassing the service.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID string, amount string) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:          userID,
		Title:           fmt.Sprintf("Expense %d", nextID()),
		Category:        models.ExpenseGroceries,
		Amount:          decimal.RequireFromString(amount),
		TransactionDate: time.Now().UTC(),
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestIncome inserts an income directly, bypassing the service.
func CreateTestIncome(t *testing.T, db *gorm.DB, userID string, amount string) *models.Income {
	t.Helper()

	income := &models.Income{
		UserID:          userID,
		Title:           fmt.Sprintf("Income %d", nextID()),
		Category:        models.IncomeSalary,
		Amount:          decimal.RequireFromString(amount),
		TransactionDate: time.Now().UTC(),
	}
	if err := db.Create(income).Error; err != nil {
		t.Fatalf("failed to create test income: %v", err)
	}
	return income
}

// CreateTestBalance inserts a snapshot calculated at the given time.
func CreateTestBalance(t *testing.T, db *gorm.DB, userID string, income, expense string, at time.Time) *models.Balance {
	t.Helper()

	balance := models.NewBalance(userID, decimal.RequireFromString(income), decimal.RequireFromString(expense), at)
	if err := db.Create(balance).Error; err != nil {
		t.Fatalf("failed to create test balance: %v", err)
	}
	return balance
}
