package testutil_test

import (
	"testing"
	"time"

	"flux/internal/errors"
	"flux/internal/models"
	"flux/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	var count int64
	for _, table := range []string{"users", "expenses", "incomes", "balances", "conversations"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDBIsolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestUser(t, first)

	var count int64
	second.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("expected databases to be isolated, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have an id")
	}

	expense := testutil.CreateTestExpense(t, db, user.ID, "12.50")
	testutil.AssertDecimal(t, expense.Amount, "12.5")

	income := testutil.CreateTestIncome(t, db, user.ID, "100")
	if income.Category != models.IncomeSalary {
		t.Errorf("expected SALARY, got %s", income.Category)
	}

	balance := testutil.CreateTestBalance(t, db, user.ID, "100", "12.50", time.Now())
	testutil.AssertDecimal(t, balance.CurrentBalance, "87.5")

	var stored models.Expense
	if err := db.First(&stored, "id = ?", expense.ID).Error; err != nil {
		t.Fatalf("failed to reload expense: %v", err)
	}
	testutil.AssertDecimal(t, stored.Amount, "12.5")
}

func TestAssertAppError(t *testing.T) {
	testutil.AssertAppError(t, errors.ErrForbidden, "FORBIDDEN")
	testutil.AssertAppError(t, errors.Wrap(errors.ErrUpstream, nil), "UPSTREAM_ERROR")
}
