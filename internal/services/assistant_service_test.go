package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/genai"
	"gorm.io/gorm"

	"flux/internal/llm"
	"flux/internal/models"
	"flux/internal/testutil"
)

// step is one scripted model answer. A nil response with a nil error blocks
// until the call's deadline passes. before, when set, runs first.
type step struct {
	resp   *genai.GenerateContentResponse
	err    error
	before func()
}

// modelCall is one recorded GenerateContent request.
type modelCall struct {
	contents []*genai.Content
	config   *genai.GenerateContentConfig
}

// scriptedClient replays steps in order and records every request.
type scriptedClient struct {
	mu       sync.Mutex
	steps    []step
	requests []modelCall
}

func (c *scriptedClient) GenerateContent(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	c.mu.Lock()
	c.requests = append(c.requests, modelCall{contents: contents, config: config})
	if len(c.steps) == 0 {
		c.mu.Unlock()
		return nil, errors.New("no scripted response left")
	}
	next := c.steps[0]
	c.steps = c.steps[1:]
	c.mu.Unlock()

	if next.before != nil {
		next.before()
	}
	if next.resp == nil && next.err == nil {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return next.resp, next.err
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: llm.TextContent(llm.RoleModel, text)}}}
}

func callResponse(text string, calls ...*genai.FunctionCall) *genai.GenerateContentResponse {
	content := &genai.Content{Role: llm.RoleModel}
	if text != "" {
		content.Parts = append(content.Parts, &genai.Part{Text: text})
	}
	for _, call := range calls {
		content.Parts = append(content.Parts, &genai.Part{FunctionCall: call})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}
}

var lunchCall = &genai.FunctionCall{
	Name: FunctionCreateExpense,
	Args: map[string]any{
		"title":           "lunch",
		"amount":          float64(20),
		"category":        "FOOD_AND_DINING",
		"transactionDate": "2024-05-01",
	},
}

type assistantFixture struct {
	*ledgerFixture
	client    *scriptedClient
	assistant AssistantServicer
	user      *models.User
}

func newAssistantFixture(t *testing.T, db *gorm.DB, steps ...step) *assistantFixture {
	t.Helper()
	ledger := newLedgerFixture(t, db)
	client := &scriptedClient{steps: steps}
	return &assistantFixture{
		ledgerFixture: ledger,
		client:        client,
		user:          testutil.CreateTestUser(t, db),
		assistant: NewAssistantService(AssistantDeps{
			DB:       db,
			Client:   client,
			Users:    NewUserService(db),
			Expenses: ledger.expenses,
			Incomes:  ledger.incomes,
			Balances: ledger.balances,
			Timeout:  50 * time.Millisecond,
		}),
	}
}

func promptText(call modelCall) string {
	if len(call.contents) == 0 || len(call.contents[0].Parts) == 0 {
		return ""
	}
	return call.contents[0].Parts[0].Text
}

func TestAskPlainAnswer(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	f := newAssistantFixture(t, db,
		step{resp: textResponse("You spent $40 on groceries.")},
		step{resp: textResponse("Your balance is $60.")},
	)
	testutil.CreateTestIncome(t, db, f.user.ID, "100")
	testutil.CreateTestExpense(t, db, f.user.ID, "40")

	reply, err := f.assistant.Ask(ctx, f.user.ID, "How much did I spend?")
	testutil.AssertNoError(t, err)
	if reply.Text != "You spent $40 on groceries." {
		t.Errorf("unexpected reply %q", reply.Text)
	}
	if len(reply.Executed) != 0 {
		t.Errorf("expected no function calls, got %d", len(reply.Executed))
	}

	first := promptText(f.client.requests[0])
	for _, want := range []string{f.user.FullName(), "Total expenses: $ 40.00", "GROCERIES", "How much did I spend?", "(no previous messages)"} {
		if !strings.Contains(first, want) {
			t.Errorf("expected prompt to contain %q", want)
		}
	}
	if len(f.client.requests[0].config.Tools) == 0 {
		t.Error("expected ledger tools on the first call")
	}

	_, err = f.assistant.Ask(ctx, f.user.ID, "And my balance?")
	testutil.AssertNoError(t, err)
	second := promptText(f.client.requests[1])
	if !strings.Contains(second, "User: How much did I spend?") {
		t.Error("expected the previous turn in the conversation context")
	}

	conv, err := f.assistant.History(ctx, f.user.ID)
	testutil.AssertNoError(t, err)
	if len(conv.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(conv.Turns))
	}
	if conv.Turns[1].AssistantReply != "Your balance is $60." {
		t.Errorf("unexpected stored reply %q", conv.Turns[1].AssistantReply)
	}
}

func TestAskCreatesExpense(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	f := newAssistantFixture(t, db,
		step{resp: callResponse("", lunchCall)},
		step{resp: textResponse("Logged your $20 lunch.")},
	)

	reply, err := f.assistant.Ask(ctx, f.user.ID, "I spent 20 on lunch")
	testutil.AssertNoError(t, err)

	if reply.Text != "Logged your $20 lunch." {
		t.Errorf("unexpected reply %q", reply.Text)
	}
	if len(reply.Executed) != 1 || !reply.Executed[0].Success {
		t.Fatalf("expected one successful function call, got %+v", reply.Executed)
	}
	if !strings.HasPrefix(reply.Executed[0].Result, "SUCCESS: Expense 'Lunch' of $20.00 in category FOOD_AND_DINING") {
		t.Errorf("unexpected result %q", reply.Executed[0].Result)
	}

	expenses, err := f.expenses.AllExpenses(ctx, f.user.ID)
	testutil.AssertNoError(t, err)
	if len(expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(expenses))
	}
	testutil.AssertDecimal(t, expenses[0].Amount, "20")
	if expenses[0].Category != models.ExpenseFoodAndDining {
		t.Errorf("unexpected category %s", expenses[0].Category)
	}

	balance, err := f.balances.CurrentBalance(ctx, f.user.ID)
	testutil.AssertNoError(t, err)
	testutil.AssertDecimal(t, balance.CurrentBalance, "-20")

	followUp := f.client.requests[1]
	if len(followUp.config.Tools) != 0 {
		t.Error("follow-up call must not offer tools")
	}
	last := followUp.contents[len(followUp.contents)-1]
	if last.Parts[0].FunctionResponse == nil || last.Parts[0].FunctionResponse.Name != FunctionCreateExpense {
		t.Errorf("expected the function response in the follow-up, got %+v", last)
	}
}

func TestAskIgnoresModelSuppliedOwner(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	victim := testutil.CreateTestUser(t, db)
	call := &genai.FunctionCall{Name: FunctionCreateIncome, Args: map[string]any{
		"userId":          victim.ID,
		"title":           "bonus",
		"amount":          "$150.50",
		"category":        "bonuses",
		"transactionDate": "2024-06-30",
	}}
	f := newAssistantFixture(t, db, step{resp: callResponse("", call)}, step{resp: textResponse("Added.")})

	_, err := f.assistant.Ask(ctx, f.user.ID, "add my bonus")
	testutil.AssertNoError(t, err)

	mine, _ := f.incomes.AllIncomes(ctx, f.user.ID)
	theirs, _ := f.incomes.AllIncomes(ctx, victim.ID)
	if len(mine) != 1 || len(theirs) != 0 {
		t.Fatalf("expected the income on the caller only, got mine=%d theirs=%d", len(mine), len(theirs))
	}
	testutil.AssertDecimal(t, mine[0].Amount, "150.50")
}

func TestAskUnknownFunction(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	f := newAssistantFixture(t, db,
		step{resp: callResponse("", &genai.FunctionCall{Name: "delete_everything"})},
		step{resp: textResponse("I can't do that.")},
	)

	reply, err := f.assistant.Ask(ctx, f.user.ID, "wipe my data")
	testutil.AssertNoError(t, err)
	if len(reply.Executed) != 1 || reply.Executed[0].Success {
		t.Fatalf("expected one failed function call, got %+v", reply.Executed)
	}
	if reply.Executed[0].Result != "ERROR: Unknown function delete_everything" {
		t.Errorf("unexpected result %q", reply.Executed[0].Result)
	}
}

func TestAskInvalidFunctionArguments(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	call := &genai.FunctionCall{Name: FunctionCreateExpense, Args: map[string]any{
		"title": "lunch", "amount": float64(12), "category": "SNACKS",
	}}
	f := newAssistantFixture(t, db, step{resp: callResponse("", call)}, step{resp: textResponse("Which category?")})

	reply, err := f.assistant.Ask(ctx, f.user.ID, "lunch 12")
	testutil.AssertNoError(t, err)
	if reply.Executed[0].Success || !strings.HasPrefix(reply.Executed[0].Result, "ERROR: Invalid category") {
		t.Errorf("unexpected result %q", reply.Executed[0].Result)
	}

	expenses, _ := f.expenses.AllExpenses(ctx, f.user.ID)
	if len(expenses) != 0 {
		t.Errorf("expected no expense, got %d", len(expenses))
	}
}

func TestAskInitialCallFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("timeout_persists_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newAssistantFixture(t, db, step{})

		_, err := f.assistant.Ask(ctx, f.user.ID, "hello")
		testutil.AssertAppError(t, err, "UPSTREAM_TIMEOUT")

		_, err = f.assistant.History(ctx, f.user.ID)
		testutil.AssertAppError(t, err, "CONVERSATION_NOT_FOUND")
	})

	t.Run("provider_error", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newAssistantFixture(t, db, step{err: &llm.StatusError{StatusCode: 500, Message: "boom"}})

		_, err := f.assistant.Ask(ctx, f.user.ID, "hello")
		testutil.AssertAppError(t, err, "UPSTREAM_ERROR")
	})
}

func TestAskFollowUpFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("timeout_keeps_partial_reply", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newAssistantFixture(t, db, step{resp: callResponse("Recording that.", lunchCall)}, step{})

		reply, err := f.assistant.Ask(ctx, f.user.ID, "I spent 20 on lunch")
		testutil.AssertAppError(t, err, "UPSTREAM_TIMEOUT")
		if reply == nil || reply.Text != "Recording that." {
			t.Fatalf("expected the partial reply, got %+v", reply)
		}

		conv, err := f.assistant.History(ctx, f.user.ID)
		testutil.AssertNoError(t, err)
		if len(conv.Turns) != 1 || conv.Turns[0].AssistantReply != "Recording that." {
			t.Errorf("expected the partial reply to be stored, got %+v", conv.Turns)
		}

		expenses, _ := f.expenses.AllExpenses(ctx, f.user.ID)
		if len(expenses) != 1 {
			t.Errorf("the executed command must stay committed, got %d expenses", len(expenses))
		}
	})

	t.Run("error_appends_fallback", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		f := newAssistantFixture(t, db,
			step{resp: callResponse("", lunchCall)},
			step{err: errors.New("connection reset")},
		)

		reply, err := f.assistant.Ask(ctx, f.user.ID, "I spent 20 on lunch")
		testutil.AssertNoError(t, err)
		if reply.Text != confirmationFallback {
			t.Errorf("expected fallback text, got %q", reply.Text)
		}
	})
}

func TestAskWhenConversationAppearsMidRequest(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	var f *assistantFixture
	concurrentFirstTurn := func() {
		conv := models.Conversation{UserID: f.user.ID, Context: map[string]any{}}
		conv.AppendTurn("first", "from another request", time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
		if err := db.Create(&conv).Error; err != nil {
			t.Errorf("seeding conversation: %v", err)
		}
	}
	f = newAssistantFixture(t, db, step{resp: textResponse("Hi again."), before: concurrentFirstTurn})

	reply, err := f.assistant.Ask(ctx, f.user.ID, "second")
	testutil.AssertNoError(t, err)
	if reply.Text != "Hi again." {
		t.Errorf("unexpected reply %q", reply.Text)
	}

	conv, err := f.assistant.History(ctx, f.user.ID)
	testutil.AssertNoError(t, err)
	if len(conv.Turns) != 2 {
		t.Fatalf("expected both turns in one conversation, got %d", len(conv.Turns))
	}
	if conv.Turns[0].UserMessage != "first" || conv.Turns[1].UserMessage != "second" {
		t.Errorf("unexpected turn order %+v", conv.Turns)
	}

	var count int64
	db.Model(&models.Conversation{}).Where("user_id = ?", f.user.ID).Count(&count)
	if count != 1 {
		t.Errorf("expected one conversation row, got %d", count)
	}
}

func TestAskValidation(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	f := newAssistantFixture(t, db)

	_, err := f.assistant.Ask(ctx, f.user.ID, "   ")
	testutil.AssertAppError(t, err, "INVALID_INPUT")

	_, err = f.assistant.Ask(ctx, f.user.ID, strings.Repeat("a", maxPromptLength+1))
	testutil.AssertAppError(t, err, "INVALID_INPUT")

	if len(f.client.requests) != 0 {
		t.Errorf("invalid prompts must not reach the model, got %d calls", len(f.client.requests))
	}
}

func TestClearHistory(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	f := newAssistantFixture(t, db, step{resp: textResponse("Hi!")})

	_, err := f.assistant.Ask(ctx, f.user.ID, "hello")
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, f.assistant.ClearHistory(ctx, f.user.ID))
	_, err = f.assistant.History(ctx, f.user.ID)
	testutil.AssertAppError(t, err, "CONVERSATION_NOT_FOUND")

	testutil.AssertNoError(t, f.assistant.ClearHistory(ctx, f.user.ID))
}

func TestParseCommand(t *testing.T) {
	now := time.Date(2024, time.July, 1, 9, 0, 0, 0, time.UTC)

	cmd, err := ParseCommand(&genai.FunctionCall{Name: FunctionCreateIncome, Args: map[string]any{
		"title": "rent", "amount": "1,000", "category": "RENTAL",
	}}, now)
	if err == nil {
		t.Errorf("expected an amount error, got %+v", cmd)
	}

	cmd, err = ParseCommand(lunchCall, now)
	testutil.AssertNoError(t, err)
	expense, ok := cmd.(CreateExpenseCommand)
	if !ok {
		t.Fatalf("expected CreateExpenseCommand, got %T", cmd)
	}
	want := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)
	if !expense.Input.TransactionDate.Equal(want) {
		t.Errorf("expected %v, got %v", want, expense.Input.TransactionDate)
	}

	cmd, err = ParseCommand(&genai.FunctionCall{Name: FunctionCreateExpense, Args: map[string]any{
		"title": "taxi", "amount": float64(8.5), "category": "transportation", "transactionDate": "yesterday",
	}}, now)
	testutil.AssertNoError(t, err)
	if !cmd.(CreateExpenseCommand).Input.TransactionDate.Equal(now) {
		t.Error("unparseable dates fall back to now")
	}
}
