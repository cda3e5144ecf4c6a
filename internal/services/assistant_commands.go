package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	apperrors "flux/internal/errors"
	"flux/internal/models"
)

// Function names the assistant may call.
const (
	FunctionCreateExpense = "create_expense"
	FunctionCreateIncome  = "create_income"
)

// Command is a ledger mutation requested by the model. It is one of
// CreateExpenseCommand or CreateIncomeCommand.
type Command interface {
	functionName() string
}

// CreateExpenseCommand asks for a new expense owned by the acting user.
type CreateExpenseCommand struct {
	Input ExpenseInput
}

// CreateIncomeCommand asks for a new income owned by the acting user.
type CreateIncomeCommand struct {
	Input IncomeInput
}

func (CreateExpenseCommand) functionName() string { return FunctionCreateExpense }
func (CreateIncomeCommand) functionName() string  { return FunctionCreateIncome }

// CommandResult is the outcome reported back to the model.
type CommandResult struct {
	Function string `json:"function"`
	Success  bool   `json:"success"`
	Result   string `json:"result"`
}

var errUnknownFunction = errors.New("unknown function")

// commandError is a parse failure whose message is shown to the model.
type commandError struct{ msg string }

func (e *commandError) Error() string { return e.msg }

// ParseCommand converts a model function call into a Command. Any user id the
// model supplies is ignored; commands always act for the caller.
func ParseCommand(call *genai.FunctionCall, now time.Time) (Command, error) {
	switch call.Name {
	case FunctionCreateExpense:
		fields, err := parseEntryArgs(call.Args, now)
		if err != nil {
			return nil, err
		}
		category := models.ExpenseCategory(strings.ToUpper(fields.category))
		if !category.Valid() {
			return nil, &commandError{"Invalid category. Please use one of: " + strings.Join(models.ExpenseCategoryNames(), ", ")}
		}
		return CreateExpenseCommand{Input: ExpenseInput{
			Title:           fields.title,
			Description:     fields.description,
			Category:        category,
			Amount:          fields.amount,
			TransactionDate: fields.date,
		}}, nil
	case FunctionCreateIncome:
		fields, err := parseEntryArgs(call.Args, now)
		if err != nil {
			return nil, err
		}
		category := models.IncomeCategory(strings.ToUpper(fields.category))
		if !category.Valid() {
			return nil, &commandError{"Invalid category. Please use one of: " + strings.Join(models.IncomeCategoryNames(), ", ")}
		}
		return CreateIncomeCommand{Input: IncomeInput{
			Title:           fields.title,
			Description:     fields.description,
			Category:        category,
			Amount:          fields.amount,
			TransactionDate: fields.date,
		}}, nil
	default:
		return nil, errUnknownFunction
	}
}

type entryArgs struct {
	title       string
	description string
	category    string
	amount      decimal.Decimal
	date        time.Time
}

func parseEntryArgs(args map[string]any, now time.Time) (entryArgs, error) {
	var out entryArgs
	out.title, _ = args["title"].(string)
	out.description, _ = args["description"].(string)
	out.category, _ = args["category"].(string)

	amount, ok := parseAmount(args["amount"])
	if strings.TrimSpace(out.title) == "" || out.category == "" || !ok {
		return out, &commandError{"Missing required fields (title, category, or amount)"}
	}
	out.amount = amount
	out.date = parseDate(args["transactionDate"], now)
	return out, nil
}

// parseAmount accepts JSON numbers and numeric strings, rounded to cents.
func parseAmount(v any) (decimal.Decimal, bool) {
	switch a := v.(type) {
	case float64:
		return decimal.NewFromFloat(a).Round(2), true
	case int:
		return decimal.NewFromInt(int64(a)), true
	case int64:
		return decimal.NewFromInt(a), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(a), "$")))
		if err != nil {
			return decimal.Zero, false
		}
		return d.Round(2), true
	}
	return decimal.Zero, false
}

// parseDate reads an RFC 3339 timestamp or a calendar date. Anything else
// falls back to now.
func parseDate(v any, now time.Time) time.Time {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return now
	}
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse(models.DateLayout, s); err == nil {
		return t
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil && unix > 0 {
		return time.Unix(unix, 0)
	}
	return now
}

// execute runs cmd through the ledger services on behalf of userID.
func (s *assistantService) execute(ctx context.Context, userID string, cmd Command) CommandResult {
	result := CommandResult{Function: cmd.functionName()}

	switch c := cmd.(type) {
	case CreateExpenseCommand:
		expense, err := s.expenses.CreateExpense(ctx, userID, c.Input)
		if err != nil {
			result.Result = "ERROR: Failed to create expense - " + clientMessage(err)
			return result
		}
		result.Success = true
		result.Result = fmt.Sprintf("SUCCESS: Expense '%s' of $%s in category %s was created successfully.",
			expense.Title, expense.Amount.StringFixed(2), expense.Category)
	case CreateIncomeCommand:
		income, err := s.incomes.CreateIncome(ctx, userID, c.Input)
		if err != nil {
			result.Result = "ERROR: Failed to create income - " + clientMessage(err)
			return result
		}
		result.Success = true
		result.Result = fmt.Sprintf("SUCCESS: Income '%s' of $%s in category %s was created successfully.",
			income.Title, income.Amount.StringFixed(2), income.Category)
	}
	return result
}

// runFunctionCall parses and executes one model function call. Failures are
// encoded in the result rather than returned.
func (s *assistantService) runFunctionCall(ctx context.Context, userID string, call *genai.FunctionCall) CommandResult {
	cmd, err := ParseCommand(call, s.now())
	if err != nil {
		var cmdErr *commandError
		switch {
		case errors.Is(err, errUnknownFunction):
			return CommandResult{Function: call.Name, Result: "ERROR: Unknown function " + call.Name}
		case errors.As(err, &cmdErr):
			return CommandResult{Function: call.Name, Result: "ERROR: " + cmdErr.msg}
		default:
			return CommandResult{Function: call.Name, Result: "ERROR: " + err.Error()}
		}
	}
	return s.execute(ctx, userID, cmd)
}

// clientMessage returns the safe message of an AppError.
func clientMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return apperrors.ErrInternalServer.Message
}
