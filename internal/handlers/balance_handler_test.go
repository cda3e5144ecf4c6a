package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "flux/internal/errors"
	"flux/internal/models"
	"flux/internal/pagination"
	"flux/internal/services"
)

// --- mock balance service ---

type mockBalanceService struct {
	currentBalanceFn     func(userID string) (*models.Balance, error)
	recalculateFn        func(userID string) (*models.Balance, error)
	historyFn            func(userID string, page pagination.PageRequest) (*pagination.Page[models.Balance], error)
	historyByPeriodFn    func(userID string, start, end time.Time, page pagination.PageRequest) (*pagination.Page[models.Balance], error)
	clearFn              func(userID string) (int64, error)
	expensesAndIncomesFn func(userID string) (*services.Ledger, error)
}

func (m *mockBalanceService) CurrentBalance(_ context.Context, userID string) (*models.Balance, error) {
	if m.currentBalanceFn != nil {
		return m.currentBalanceFn(userID)
	}
	return &models.Balance{}, nil
}

func (m *mockBalanceService) Recalculate(_ context.Context, userID string) (*models.Balance, error) {
	if m.recalculateFn != nil {
		return m.recalculateFn(userID)
	}
	return &models.Balance{}, nil
}

func (m *mockBalanceService) RecalculateQuietly(_ context.Context, _ string) {}

func (m *mockBalanceService) History(_ context.Context, userID string, page pagination.PageRequest) (*pagination.Page[models.Balance], error) {
	if m.historyFn != nil {
		return m.historyFn(userID, page)
	}
	p := pagination.NewPage([]models.Balance{}, page, 0)
	return &p, nil
}

func (m *mockBalanceService) HistoryByPeriod(_ context.Context, userID string, start, end time.Time, page pagination.PageRequest) (*pagination.Page[models.Balance], error) {
	if m.historyByPeriodFn != nil {
		return m.historyByPeriodFn(userID, start, end, page)
	}
	p := pagination.NewPage([]models.Balance{}, page, 0)
	return &p, nil
}

func (m *mockBalanceService) Clear(_ context.Context, userID string) (int64, error) {
	if m.clearFn != nil {
		return m.clearFn(userID)
	}
	return 0, nil
}

func (m *mockBalanceService) ExpensesAndIncomes(_ context.Context, userID string) (*services.Ledger, error) {
	if m.expensesAndIncomesFn != nil {
		return m.expensesAndIncomesFn(userID)
	}
	return &services.Ledger{Expenses: []models.Expense{}, Incomes: []models.Income{}}, nil
}

func setupBalanceRouter(handler *BalanceHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("/balances", injectUserID(testUserID))
	g.GET("/current", handler.CurrentBalance)
	g.GET("/history", handler.History)
	g.GET("/history/period", handler.HistoryByPeriod)
	g.GET("/expenses-incomes", handler.ExpensesAndIncomes)
	g.POST("/calculate", handler.Calculate)
	g.DELETE("/clear", handler.Clear)
	return r
}

func sampleBalance() *models.Balance {
	return models.NewBalance(testUserID, decimal.NewFromInt(100), decimal.NewFromInt(40), time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
}

// --- tests ---

func TestBalanceHandler_CurrentBalance(t *testing.T) {
	t.Run("returns the snapshot", func(t *testing.T) {
		svc := &mockBalanceService{
			currentBalanceFn: func(userID string) (*models.Balance, error) { return sampleBalance(), nil },
		}
		r := setupBalanceRouter(NewBalanceHandler(svc))

		rec := doRequest(r, http.MethodGet, "/balances/current", "")
		assertStatus(t, rec, http.StatusOK)

		data := dataObject(t, parseJSON(t, rec))
		if data["currentBalance"] != "60" || data["totalIncome"] != "100" {
			t.Errorf("unexpected balance %v", data)
		}
	})

	t.Run("returns 404 for a missing user", func(t *testing.T) {
		svc := &mockBalanceService{
			currentBalanceFn: func(string) (*models.Balance, error) { return nil, apperrors.ErrUserNotFound },
		}
		r := setupBalanceRouter(NewBalanceHandler(svc))

		rec := doRequest(r, http.MethodGet, "/balances/current", "")
		assertStatus(t, rec, http.StatusNotFound)
	})
}

func TestBalanceHandler_History(t *testing.T) {
	svc := &mockBalanceService{
		historyFn: func(_ string, page pagination.PageRequest) (*pagination.Page[models.Balance], error) {
			if page.Page != 2 || page.Size != 5 {
				t.Errorf("unexpected page %+v", page)
			}
			p := pagination.NewPage([]models.Balance{*sampleBalance()}, page, 11)
			return &p, nil
		},
	}
	r := setupBalanceRouter(NewBalanceHandler(svc))

	rec := doRequest(r, http.MethodGet, "/balances/history?page=2&size=5", "")
	assertStatus(t, rec, http.StatusOK)

	meta := parseJSON(t, rec)["pagination"].(map[string]interface{})
	if meta["totalPages"] != float64(3) || meta["isLast"] != true {
		t.Errorf("unexpected pagination %v", meta)
	}
}

func TestBalanceHandler_HistoryByPeriod(t *testing.T) {
	t.Run("extends a date-only end to the end of the day", func(t *testing.T) {
		var gotStart, gotEnd time.Time
		svc := &mockBalanceService{
			historyByPeriodFn: func(_ string, start, end time.Time, page pagination.PageRequest) (*pagination.Page[models.Balance], error) {
				gotStart, gotEnd = start, end
				p := pagination.NewPage([]models.Balance{}, page, 0)
				return &p, nil
			},
		}
		r := setupBalanceRouter(NewBalanceHandler(svc))

		rec := doRequest(r, http.MethodGet, "/balances/history/period?startDate=2024-05-01&endDate=2024-05-31", "")
		assertStatus(t, rec, http.StatusOK)

		if !gotStart.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected start %v", gotStart)
		}
		if !gotEnd.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)) {
			t.Errorf("unexpected end %v", gotEnd)
		}
	})

	t.Run("keeps an exact end timestamp", func(t *testing.T) {
		var gotEnd time.Time
		svc := &mockBalanceService{
			historyByPeriodFn: func(_ string, _, end time.Time, page pagination.PageRequest) (*pagination.Page[models.Balance], error) {
				gotEnd = end
				p := pagination.NewPage([]models.Balance{}, page, 0)
				return &p, nil
			},
		}
		r := setupBalanceRouter(NewBalanceHandler(svc))

		rec := doRequest(r, http.MethodGet, "/balances/history/period?startDate=2024-05-01T00:00:00Z&endDate=2024-05-02T10:00:00Z", "")
		assertStatus(t, rec, http.StatusOK)
		if !gotEnd.Equal(time.Date(2024, 5, 2, 10, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected end %v", gotEnd)
		}
	})

	tests := []struct {
		name  string
		query string
	}{
		{"missing end", "?startDate=2024-05-01"},
		{"missing start", "?endDate=2024-05-01"},
		{"malformed start", "?startDate=May&endDate=2024-05-01"},
	}
	for _, tc := range tests {
		t.Run("returns 400 for "+tc.name, func(t *testing.T) {
			r := setupBalanceRouter(NewBalanceHandler(&mockBalanceService{}))

			rec := doRequest(r, http.MethodGet, "/balances/history/period"+tc.query, "")
			assertStatus(t, rec, http.StatusBadRequest)
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}

	t.Run("surfaces an inverted period from the service", func(t *testing.T) {
		svc := &mockBalanceService{
			historyByPeriodFn: func(string, time.Time, time.Time, pagination.PageRequest) (*pagination.Page[models.Balance], error) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "start must not be after end")
			},
		}
		r := setupBalanceRouter(NewBalanceHandler(svc))

		rec := doRequest(r, http.MethodGet, "/balances/history/period?startDate=2024-06-01&endDate=2024-05-01", "")
		assertStatus(t, rec, http.StatusBadRequest)
	})
}

func TestBalanceHandler_ExpensesAndIncomes(t *testing.T) {
	r := setupBalanceRouter(NewBalanceHandler(&mockBalanceService{}))

	rec := doRequest(r, http.MethodGet, "/balances/expenses-incomes", "")
	assertStatus(t, rec, http.StatusOK)

	data := dataObject(t, parseJSON(t, rec))
	if _, ok := data["expenses"].([]interface{}); !ok {
		t.Errorf("expected expenses array, got %v", data["expenses"])
	}
	if _, ok := data["incomes"].([]interface{}); !ok {
		t.Errorf("expected incomes array, got %v", data["incomes"])
	}
}

func TestBalanceHandler_CalculateAndClear(t *testing.T) {
	calculated := false
	svc := &mockBalanceService{
		recalculateFn: func(userID string) (*models.Balance, error) {
			calculated = true
			return sampleBalance(), nil
		},
		clearFn: func(string) (int64, error) { return 7, nil },
	}
	r := setupBalanceRouter(NewBalanceHandler(svc))

	rec := doRequest(r, http.MethodPost, "/balances/calculate", "")
	assertStatus(t, rec, http.StatusOK)
	if !calculated {
		t.Error("expected a recalculation")
	}

	rec = doRequest(r, http.MethodDelete, "/balances/clear", "")
	assertStatus(t, rec, http.StatusOK)
	if data := dataObject(t, parseJSON(t, rec)); data["deleted"] != float64(7) {
		t.Errorf("expected 7 deleted, got %v", data["deleted"])
	}
}
