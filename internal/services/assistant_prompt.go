package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"flux/internal/models"
)

const (
	assistantName      = "LucAI"
	recentTransactions = 10
	contextDateLayout  = "01/02/2006 15:04"

	followUpInstruction  = "You are LucAI. Generate a friendly confirmation message based on the function result."
	confirmationFallback = "Transaction completed, but there was an error generating the confirmation message."
	emptyReplyFallback   = "Sorry, I could not generate a response right now."
	unavailableContext   = "Unable to retrieve financial data at this time."
)

// systemInstruction describes the assistant persona and the category vocabulary.
func systemInstruction(now time.Time) string {
	var sb strings.Builder
	sb.WriteString("You are " + assistantName + ", a friendly and helpful financial assistant. ")
	sb.WriteString("Your role is to help users manage their personal finances.\n\n")
	sb.WriteString("Today is: " + now.UTC().Format(time.RFC3339) + "\n\n")
	sb.WriteString("Conversational style rules:\n")
	sb.WriteString("- Do not greet the user unless it is clearly the first message of a new conversation.\n")
	sb.WriteString("- Continue ongoing conversations naturally, without introductory phrases.\n")
	sb.WriteString("- Keep a warm, conversational tone without sounding repetitive.\n\n")
	sb.WriteString("Available expense categories: " + strings.Join(models.ExpenseCategoryNames(), ", ") + "\n")
	sb.WriteString("Available income categories: " + strings.Join(models.IncomeCategoryNames(), ", ") + "\n\n")
	sb.WriteString("When users want to register a transaction:\n")
	sb.WriteString("1. Decide whether it is an expense or an income from the context.\n")
	sb.WriteString("2. Extract or ask for the title, category, transaction date and amount.\n")
	sb.WriteString("3. Always confirm the transaction date.\n")
	sb.WriteString("4. Ask whether they want to add a description. It is optional.\n")
	sb.WriteString("5. Once you have every required field, call the matching function.\n")
	sb.WriteString("6. Confirm the action with a short, friendly message.\n\n")
	sb.WriteString("Format amounts with two decimals. Always respond in the user's language.")
	return sb.String()
}

// ledgerTools declares create_expense and create_income. The category enums
// come from the same lists the API validates against.
func ledgerTools() []*genai.Tool {
	entry := func(kind string, categories []string, requireDate bool) *genai.Schema {
		required := []string{"title", "category", "amount"}
		if requireDate {
			required = append(required, "transactionDate")
		}
		return &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title": {
					Type:        genai.TypeString,
					Description: "Brief title for the " + kind + " (max 50 characters)",
				},
				"description": {
					Type:        genai.TypeString,
					Description: "Optional detailed description (max 255 characters). Empty string when the user gives none.",
				},
				"category": {
					Type:        genai.TypeString,
					Description: kind + " category",
					Enum:        categories,
				},
				"amount": {
					Type:        genai.TypeNumber,
					Description: "Positive amount",
				},
				"transactionDate": {
					Type:        genai.TypeString,
					Description: "Date of the transaction in RFC 3339 format, e.g. 2025-10-24T09:00:00Z",
				},
			},
			Required: required,
		}
	}

	return []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{
		{
			Name:        FunctionCreateExpense,
			Description: "Creates a new expense for the user. Use this when the user wants to register a spending or cost.",
			Parameters:  entry("expense", models.ExpenseCategoryNames(), false),
		},
		{
			Name:        FunctionCreateIncome,
			Description: "Creates a new income for the user. Use this when the user wants to register money received.",
			Parameters:  entry("income", models.IncomeCategoryNames(), true),
		},
	}}}
}

// financialSnapshot is the data the assistant is told about.
type financialSnapshot struct {
	balance  *models.Balance
	expenses []models.Expense
	incomes  []models.Income
}

// ledgerLine is the kind-agnostic view used for formatting.
type ledgerLine struct {
	title    string
	category string
	amount   decimal.Decimal
	date     time.Time
}

func expenseLines(expenses []models.Expense) []ledgerLine {
	lines := make([]ledgerLine, len(expenses))
	for i, e := range expenses {
		lines[i] = ledgerLine{title: e.Title, category: string(e.Category), amount: e.Amount, date: e.TransactionDate}
	}
	return lines
}

func incomeLines(incomes []models.Income) []ledgerLine {
	lines := make([]ledgerLine, len(incomes))
	for i, in := range incomes {
		lines[i] = ledgerLine{title: in.Title, category: string(in.Category), amount: in.Amount, date: in.TransactionDate}
	}
	return lines
}

// financialContext renders the balance, per-category totals and recent
// transactions as plain text.
func financialContext(snap financialSnapshot) string {
	var sb strings.Builder
	if snap.balance != nil {
		sb.WriteString("CURRENT BALANCE:\n")
		fmt.Fprintf(&sb, "Total income: $ %s\n", snap.balance.TotalIncome.StringFixed(2))
		fmt.Fprintf(&sb, "Total expense: $ %s\n", snap.balance.TotalExpense.StringFixed(2))
		fmt.Fprintf(&sb, "Current balance: $ %s\n\n", snap.balance.CurrentBalance.StringFixed(2))
	}
	sb.WriteString("EXPENSES:\n")
	writeLedgerSection(&sb, "expenses", expenseLines(snap.expenses))
	sb.WriteString("\nINCOMES:\n")
	writeLedgerSection(&sb, "incomes", incomeLines(snap.incomes))
	return sb.String()
}

func writeLedgerSection(sb *strings.Builder, kind string, lines []ledgerLine) {
	if len(lines) == 0 {
		fmt.Fprintf(sb, "No %s recorded.\n", kind)
		return
	}

	total := decimal.Zero
	byCategory := map[string]decimal.Decimal{}
	for _, l := range lines {
		total = total.Add(l.amount)
		byCategory[l.category] = byCategory[l.category].Add(l.amount)
	}
	fmt.Fprintf(sb, "Total %s: $ %s\n", kind, total.StringFixed(2))
	fmt.Fprintf(sb, "Number of transactions: %d\n", len(lines))

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		ci, cj := byCategory[categories[i]], byCategory[categories[j]]
		if !ci.Equal(cj) {
			return ci.GreaterThan(cj)
		}
		return categories[i] < categories[j]
	})
	fmt.Fprintf(sb, "\n%s by category:\n", strings.ToUpper(kind[:1])+kind[1:])
	for _, c := range categories {
		fmt.Fprintf(sb, "- %s: $ %s\n", c, byCategory[c].StringFixed(2))
	}

	recent := make([]ledgerLine, len(lines))
	copy(recent, lines)
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].date.After(recent[j].date) })
	if len(recent) > recentTransactions {
		recent = recent[:recentTransactions]
	}
	fmt.Fprintf(sb, "\nRecent transactions (last %d):\n", recentTransactions)
	for _, l := range recent {
		fmt.Fprintf(sb, "- %s: $ %s [%s] on %s\n", l.title, l.amount.StringFixed(2), l.category, l.date.UTC().Format(contextDateLayout))
	}
}

// conversationContext renders prior turns as alternating lines.
func conversationContext(turns []models.Turn) string {
	if len(turns) == 0 {
		return "(no previous messages)"
	}
	parts := make([]string, len(turns))
	for i, t := range turns {
		parts[i] = "User: " + t.UserMessage + "\n" + assistantName + ": " + t.AssistantReply
	}
	return strings.Join(parts, "\n\n")
}

// fullPrompt assembles the single user message sent on the first call.
func fullPrompt(userName, financial, conversation, prompt string) string {
	return fmt.Sprintf("System: Financial assistant for %s.\nFinancial Context:\n%s\n\nConversation History:\n%s\n\nNew User Input:\n%s\n",
		userName, financial, conversation, prompt)
}
