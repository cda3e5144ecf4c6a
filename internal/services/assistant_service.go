package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/genai"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "flux/internal/errors"
	"flux/internal/llm"
	"flux/internal/logger"
	"flux/internal/models"
)

const maxPromptLength = 4000

// assistantService mediates between the ledger, the balance history and the model.
type assistantService struct {
	db       *gorm.DB
	client   llm.Client
	users    UserServicer
	expenses ExpenseServicer
	incomes  IncomeServicer
	balances BalanceServicer
	timeout  time.Duration
	now      func() time.Time
}

// AssistantDeps are the collaborators of the assistant.
type AssistantDeps struct {
	DB       *gorm.DB
	Client   llm.Client
	Users    UserServicer
	Expenses ExpenseServicer
	Incomes  IncomeServicer
	Balances BalanceServicer
	// Timeout bounds each model call. Zero means 30 seconds.
	Timeout time.Duration
}

// NewAssistantService creates a new AssistantServicer.
func NewAssistantService(deps AssistantDeps) AssistantServicer {
	timeout := deps.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &assistantService{
		db:       deps.DB,
		client:   deps.Client,
		users:    deps.Users,
		expenses: deps.Expenses,
		incomes:  deps.Incomes,
		balances: deps.Balances,
		timeout:  timeout,
		now:      time.Now,
	}
}

// Ask answers prompt for userID, running any ledger functions the model
// requests. The turn is stored only once a reply exists. When the follow-up
// call times out the partial reply is stored and returned alongside
// ErrUpstreamTimeout.
func (s *assistantService) Ask(ctx context.Context, userID, prompt string) (*AssistantReply, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "prompt is required")
	}
	if len([]rune(prompt)) > maxPromptLength {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "prompt is too long")
	}

	log := logger.Named("assistant").With("user_id", userID)

	conversation, err := s.loadConversation(ctx, userID)
	if err != nil {
		return nil, err
	}

	userName, financial, err := s.gatherContext(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	userTurn := llm.TextContent(llm.RoleUser, fullPrompt(userName, financial, conversationContext(conversation.Turns), prompt))

	resp, err := s.generate(ctx, []*genai.Content{userTurn}, &genai.GenerateContentConfig{
		SystemInstruction: llm.TextContent("", systemInstruction(now)),
		Tools:             ledgerTools(),
	})
	if err != nil {
		log.Warnw("initial model call failed", "error", err)
		return nil, upstreamError(err)
	}

	reply := &AssistantReply{}
	var text strings.Builder
	text.WriteString(llm.Text(resp))

	calls := llm.FunctionCalls(resp)
	var followUpErr error
	if len(calls) > 0 {
		responses := make([]*genai.FunctionResponse, 0, len(calls))
		for _, call := range calls {
			log.Infow("function call requested", "function", call.Name)
			result := s.runFunctionCall(ctx, userID, call)
			reply.Executed = append(reply.Executed, result)
			responses = append(responses, &genai.FunctionResponse{
				ID:       call.ID,
				Name:     call.Name,
				Response: map[string]any{"result": result.Result},
			})
		}

		followUp, err := s.generate(ctx,
			[]*genai.Content{userTurn, llm.Top(resp), llm.FunctionResponseContent(responses...)},
			&genai.GenerateContentConfig{SystemInstruction: llm.TextContent("", followUpInstruction)},
		)
		switch {
		case errors.Is(err, llm.ErrTimeout):
			log.Warnw("follow-up model call timed out")
			followUpErr = apperrors.Wrap(apperrors.ErrUpstreamTimeout, err)
		case err != nil:
			log.Warnw("follow-up model call failed", "error", err)
			appendParagraph(&text, confirmationFallback)
		default:
			appendParagraph(&text, llm.Text(followUp))
		}
	}

	reply.Text = strings.TrimSpace(text.String())
	if reply.Text == "" && followUpErr == nil {
		reply.Text = emptyReplyFallback
	}

	if err := s.persistTurn(ctx, userID, prompt, reply.Text, now); err != nil {
		return nil, err
	}

	if followUpErr != nil {
		return reply, followUpErr
	}
	log.Infow("assistant reply generated", "functions", len(reply.Executed))
	return reply, nil
}

// generate runs one model call under the per-call deadline.
func (s *assistantService) generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	resp, err := s.client.GenerateContent(callCtx, contents, config)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, llm.ErrTimeout
		}
		return nil, err
	}
	return resp, nil
}

// upstreamError maps a model failure onto the API taxonomy.
func upstreamError(err error) error {
	if errors.Is(err, llm.ErrTimeout) {
		return apperrors.Wrap(apperrors.ErrUpstreamTimeout, err)
	}
	return apperrors.Wrap(apperrors.ErrUpstream, err)
}

func appendParagraph(sb *strings.Builder, s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if sb.Len() > 0 {
		sb.WriteString("\n\n")
	}
	sb.WriteString(s)
}

// gatherContext loads the user's name and renders their financial state.
// The reads run concurrently. A missing user fails the request; any other
// failure only degrades the financial context.
func (s *assistantService) gatherContext(ctx context.Context, userID string) (string, string, error) {
	var (
		user                       *models.User
		snap                       financialSnapshot
		balanceErr, expErr, incErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.users.GetUserByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		snap.balance, balanceErr = s.balances.CurrentBalance(gctx, userID)
		return nil
	})
	g.Go(func() error {
		snap.expenses, expErr = s.expenses.AllExpenses(gctx, userID)
		return nil
	})
	g.Go(func() error {
		snap.incomes, incErr = s.incomes.AllIncomes(gctx, userID)
		return nil
	})
	if err := g.Wait(); err != nil {
		return "", "", err
	}

	if err := errors.Join(balanceErr, expErr, incErr); err != nil {
		logger.Named("assistant").Warnw("financial context unavailable", "user_id", userID, "error", err)
		return user.FullName(), unavailableContext, nil
	}
	return user.FullName(), financialContext(snap), nil
}

// loadConversation returns the stored conversation or an empty one.
func (s *assistantService) loadConversation(ctx context.Context, userID string) (*models.Conversation, error) {
	var conv models.Conversation
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.Conversation{UserID: userID}, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &conv, nil
}

// persistTurn appends one turn under a row lock so concurrent prompts from
// the same user do not drop each other's turns. The row is created first with
// ON CONFLICT DO NOTHING because a lock cannot be taken on a missing row.
func (s *assistantService) persistTurn(ctx context.Context, userID, prompt, reply string, at time.Time) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		empty := models.Conversation{UserID: userID, Turns: []models.Turn{}, Context: map[string]any{}}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&empty).Error; err != nil {
			return err
		}

		var conv models.Conversation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("user_id = ?", userID).First(&conv).Error; err != nil {
			return err
		}
		if conv.Context == nil {
			conv.Context = map[string]any{}
		}

		conv.AppendTurn(prompt, reply, at.UTC())
		conv.Context["lastInteractionAt"] = at.UTC().Format(time.RFC3339)
		conv.Context["turnCount"] = len(conv.Turns)
		return tx.Save(&conv).Error
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// History returns the user's stored conversation.
func (s *assistantService) History(ctx context.Context, userID string) (*models.Conversation, error) {
	if err := requireUser(ctx, s.db, userID); err != nil {
		return nil, err
	}
	var conv models.Conversation
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if conv.Turns == nil {
		conv.Turns = []models.Turn{}
	}
	return &conv, nil
}

// ClearHistory deletes the user's whole conversation. Individual turns are
// never removed.
func (s *assistantService) ClearHistory(ctx context.Context, userID string) error {
	if err := requireUser(ctx, s.db, userID); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Conversation{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	logger.Named("assistant").Infow("conversation cleared", "user_id", userID)
	return nil
}
