package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"flux/internal/models"
	"flux/internal/pagination"
	"flux/internal/testutil"
)

func validExpense() ExpenseInput {
	return ExpenseInput{
		Title:           "  morning   coffee ",
		Description:     "flat white",
		Category:        models.ExpenseFoodAndDining,
		Amount:          decimal.RequireFromString("4.50"),
		TransactionDate: time.Date(2024, time.March, 10, 8, 30, 0, 0, time.UTC),
	}
}

func TestCreateExpense(t *testing.T) {
	ctx := context.Background()

	t.Run("round_trip", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newLedgerFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		created, err := f.expenses.CreateExpense(ctx, user.ID, validExpense())
		testutil.AssertNoError(t, err)

		got, err := f.expenses.GetExpenseByID(ctx, user.ID, created.ID)
		testutil.AssertNoError(t, err)

		if got.Title != "Morning Coffee" {
			t.Errorf("expected title-cased title, got %q", got.Title)
		}
		if got.Category != models.ExpenseFoodAndDining {
			t.Errorf("expected FOOD_AND_DINING, got %s", got.Category)
		}
		testutil.AssertDecimal(t, got.Amount, "4.50")
		if !got.TransactionDate.Equal(validExpense().TransactionDate) {
			t.Errorf("expected date %v, got %v", validExpense().TransactionDate, got.TransactionDate)
		}
		if got.UserID != user.ID {
			t.Errorf("expected owner %s, got %s", user.ID, got.UserID)
		}
	})

	t.Run("recalculates_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newLedgerFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		_, err := f.expenses.CreateExpense(ctx, user.ID, validExpense())
		testutil.AssertNoError(t, err)

		balance, err := f.balances.CurrentBalance(ctx, user.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, balance.TotalExpense, "4.50")
		testutil.AssertDecimal(t, balance.CurrentBalance, "-4.50")
	})

	t.Run("for_another_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newLedgerFixture(t, db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)

		input := validExpense()
		input.OwnerID = other.ID
		_, err := f.expenses.CreateExpense(ctx, user.ID, input)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("explicit_self_owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newLedgerFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		input := validExpense()
		input.OwnerID = user.ID
		_, err := f.expenses.CreateExpense(ctx, user.ID, input)
		testutil.AssertNoError(t, err)
	})

	t.Run("invalid_input", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newLedgerFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		cases := map[string]func(*ExpenseInput){
			"zero_amount":     func(in *ExpenseInput) { in.Amount = decimal.Zero },
			"negative_amount": func(in *ExpenseInput) { in.Amount = decimal.RequireFromString("-1") },
			"sub_cent_amount": func(in *ExpenseInput) { in.Amount = decimal.RequireFromString("0.001") },
			"bad_category":    func(in *ExpenseInput) { in.Category = "SALARY" },
			"blank_title":     func(in *ExpenseInput) { in.Title = "   " },
			"long_title":      func(in *ExpenseInput) { in.Title = "this title is far too long to fit in fifty characters" },
		}
		for name, mutate := range cases {
			t.Run(name, func(t *testing.T) {
				input := validExpense()
				mutate(&input)
				_, err := f.expenses.CreateExpense(ctx, user.ID, input)
				testutil.AssertAppError(t, err, "INVALID_INPUT")
			})
		}
	})

	t.Run("missing_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newLedgerFixture(t, db)

		_, err := f.expenses.CreateExpense(ctx, "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b", validExpense())
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})

	t.Run("defaults_date_to_now", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newLedgerFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		input := validExpense()
		input.TransactionDate = time.Time{}
		before := time.Now().Add(-time.Second)
		created, err := f.expenses.CreateExpense(ctx, user.ID, input)
		testutil.AssertNoError(t, err)
		if created.TransactionDate.Before(before) {
			t.Errorf("expected transaction date to default to now, got %v", created.TransactionDate)
		}
	})
}

func TestCreateExpenses(t *testing.T) {
	ctx := context.Background()

	t.Run("all_or_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newLedgerFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		bad := validExpense()
		bad.Amount = decimal.Zero
		_, err := f.expenses.CreateExpenses(ctx, user.ID, []ExpenseInput{validExpense(), bad})
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		var count int64
		db.Model(&models.Expense{}).Where("user_id = ?", user.ID).Count(&count)
		if count != 0 {
			t.Errorf("expected no expenses after a rejected batch, got %d", count)
		}
	})

	t.Run("inserts_all", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newLedgerFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		second := validExpense()
		second.Amount = decimal.RequireFromString("10")
		created, err := f.expenses.CreateExpenses(ctx, user.ID, []ExpenseInput{validExpense(), second})
		testutil.AssertNoError(t, err)
		if len(created) != 2 {
			t.Fatalf("expected 2 expenses, got %d", len(created))
		}

		balance, err := f.balances.CurrentBalance(ctx, user.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, balance.TotalExpense, "14.50")
	})

	t.Run("empty", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newLedgerFixture(t, db)
		user := testutil.CreateTestUser(t, db)

		_, err := f.expenses.CreateExpenses(ctx, user.ID, nil)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestExpenseOwnership(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	f := newLedgerFixture(t, db)
	owner := testutil.CreateTestUser(t, db)
	intruder := testutil.CreateTestUser(t, db)

	expense, err := f.expenses.CreateExpense(ctx, owner.ID, validExpense())
	testutil.AssertNoError(t, err)

	t.Run("delete", func(t *testing.T) {
		err := f.expenses.DeleteExpense(ctx, intruder.ID, expense.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")

		still, err := f.expenses.GetExpenseByID(ctx, owner.ID, expense.ID)
		testutil.AssertNoError(t, err)
		if still.Title != expense.Title || !still.Amount.Equal(expense.Amount) {
			t.Errorf("expense changed after forbidden delete: %+v", still)
		}
	})

	t.Run("update", func(t *testing.T) {
		_, err := f.expenses.UpdateExpense(ctx, intruder.ID, expense.ID, ExpenseUpdate{Title: "mine now"})
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("get", func(t *testing.T) {
		_, err := f.expenses.GetExpenseByID(ctx, intruder.ID, expense.ID)
		testutil.AssertAppError(t, err, "FORBIDDEN")
	})

	t.Run("missing", func(t *testing.T) {
		_, err := f.expenses.GetExpenseByID(ctx, owner.ID, "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b")
		testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")
	})
}

func TestUpdateExpense(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	f := newLedgerFixture(t, db)
	user := testutil.CreateTestUser(t, db)

	expense, err := f.expenses.CreateExpense(ctx, user.ID, validExpense())
	testutil.AssertNoError(t, err)

	t.Run("partial", func(t *testing.T) {
		amount := decimal.RequireFromString("6")
		updated, err := f.expenses.UpdateExpense(ctx, user.ID, expense.ID, ExpenseUpdate{Title: "afternoon tea", Amount: &amount})
		testutil.AssertNoError(t, err)

		if updated.Title != "Afternoon Tea" {
			t.Errorf("expected title-cased title, got %q", updated.Title)
		}
		if updated.Description != "flat white" {
			t.Errorf("description should be untouched, got %q", updated.Description)
		}
		if updated.Category != models.ExpenseFoodAndDining {
			t.Errorf("category should be untouched, got %s", updated.Category)
		}
		testutil.AssertDecimal(t, updated.Amount, "6")

		balance, err := f.balances.CurrentBalance(ctx, user.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, balance.TotalExpense, "6")
	})

	t.Run("invalid_amount", func(t *testing.T) {
		amount := decimal.RequireFromString("-2")
		_, err := f.expenses.UpdateExpense(ctx, user.ID, expense.ID, ExpenseUpdate{Amount: &amount})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_category", func(t *testing.T) {
		_, err := f.expenses.UpdateExpense(ctx, user.ID, expense.ID, ExpenseUpdate{Category: "BONUSES"})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("category_only", func(t *testing.T) {
		updated, err := f.expenses.UpdateExpense(ctx, user.ID, expense.ID, ExpenseUpdate{Category: models.ExpenseLeisure})
		testutil.AssertNoError(t, err)
		if updated.Category != models.ExpenseLeisure {
			t.Errorf("expected LEISURE, got %s", updated.Category)
		}
		if updated.Description != "flat white" {
			t.Errorf("description should be untouched, got %q", updated.Description)
		}
	})
}

func TestListExpenses(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	f := newLedgerFixture(t, db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	for i := 1; i <= 25; i++ {
		testutil.CreateTestExpense(t, db, user.ID, decimal.NewFromInt(int64(i)).String())
	}
	testutil.CreateTestExpense(t, db, other.ID, "999")

	t.Run("first_page", func(t *testing.T) {
		page, err := f.expenses.ListExpenses(ctx, user.ID, pagination.PageRequest{Page: 0, Size: 10})
		testutil.AssertNoError(t, err)

		if len(page.Content) != 10 {
			t.Errorf("expected 10 items, got %d", len(page.Content))
		}
		if page.Pagination.TotalElements != 25 {
			t.Errorf("expected 25 total, got %d", page.Pagination.TotalElements)
		}
		if page.Pagination.TotalPages != 3 {
			t.Errorf("expected 3 pages, got %d", page.Pagination.TotalPages)
		}
		if !page.Pagination.HasNext || page.Pagination.HasPrevious {
			t.Errorf("unexpected navigation flags: %+v", page.Pagination)
		}
	})

	t.Run("sort_by_amount", func(t *testing.T) {
		page, err := f.expenses.ListExpenses(ctx, user.ID, pagination.PageRequest{Size: 5, SortBy: "amount", Direction: "asc"})
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, page.Content[0].Amount, "1")
		testutil.AssertDecimal(t, page.Content[4].Amount, "5")
	})

	t.Run("clamped", func(t *testing.T) {
		page, err := f.expenses.ListExpenses(ctx, user.ID, pagination.PageRequest{Page: -4, Size: 500})
		testutil.AssertNoError(t, err)
		if page.Pagination.CurrentPage != 0 || page.Pagination.PageSize != 100 {
			t.Errorf("expected page 0 size 100, got %+v", page.Pagination)
		}
		if len(page.Content) != 25 {
			t.Errorf("expected 25 items, got %d", len(page.Content))
		}
	})
}

func TestClearExpenses(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	f := newLedgerFixture(t, db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	testutil.CreateTestExpense(t, db, user.ID, "10")
	testutil.CreateTestExpense(t, db, user.ID, "20")
	testutil.CreateTestExpense(t, db, other.ID, "30")

	deleted, err := f.expenses.ClearExpenses(ctx, user.ID)
	testutil.AssertNoError(t, err)
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	remaining, err := f.expenses.AllExpenses(ctx, other.ID)
	testutil.AssertNoError(t, err)
	if len(remaining) != 1 {
		t.Errorf("other user's expenses must survive, got %d", len(remaining))
	}

	balance, err := f.balances.CurrentBalance(ctx, user.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, balance.TotalExpense, "0")
}

func TestDeleteExpenseRecalculates(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	f := newLedgerFixture(t, db)
	user := testutil.CreateTestUser(t, db)

	expense, err := f.expenses.CreateExpense(ctx, user.ID, validExpense())
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, f.expenses.DeleteExpense(ctx, user.ID, expense.ID))

	_, err = f.expenses.GetExpenseByID(ctx, user.ID, expense.ID)
	testutil.AssertAppError(t, err, "EXPENSE_NOT_FOUND")

	balance, err := f.balances.CurrentBalance(ctx, user.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, balance.CurrentBalance, "0")
}
