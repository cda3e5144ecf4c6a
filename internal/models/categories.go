package models

// ExpenseCategory is the closed vocabulary for expenses.
type ExpenseCategory string

// IncomeCategory is the closed vocabulary for incomes.
type IncomeCategory string

const (
	ExpenseHousing              ExpenseCategory = "HOUSING"
	ExpenseUtilities            ExpenseCategory = "UTILITIES"
	ExpenseTransportation       ExpenseCategory = "TRANSPORTATION"
	ExpenseGroceries            ExpenseCategory = "GROCERIES"
	ExpenseFoodAndDining        ExpenseCategory = "FOOD_AND_DINING"
	ExpenseHealthcare           ExpenseCategory = "HEALTHCARE"
	ExpenseWellness             ExpenseCategory = "WELLNESS"
	ExpensePersonalCare         ExpenseCategory = "PERSONAL_CARE"
	ExpenseFamily               ExpenseCategory = "FAMILY"
	ExpenseEducation            ExpenseCategory = "EDUCATION"
	ExpenseEntertainment        ExpenseCategory = "ENTERTAINMENT"
	ExpenseLeisure              ExpenseCategory = "LEISURE"
	ExpenseFinancialObligations ExpenseCategory = "FINANCIAL_OBLIGATIONS"
	ExpenseSavings              ExpenseCategory = "SAVINGS"
	ExpenseInvestments          ExpenseCategory = "INVESTMENTS"
	ExpenseDonations            ExpenseCategory = "DONATIONS"
	ExpenseMiscellaneous        ExpenseCategory = "MISCELLANEOUS"
	ExpenseOther                ExpenseCategory = "OTHER"
)

const (
	IncomeSalary             IncomeCategory = "SALARY"
	IncomeBonuses            IncomeCategory = "BONUSES"
	IncomeFreelance          IncomeCategory = "FREELANCE"
	IncomeCommissions        IncomeCategory = "COMMISSIONS"
	IncomeSales              IncomeCategory = "SALES"
	IncomeService            IncomeCategory = "SERVICE"
	IncomeRental             IncomeCategory = "RENTAL"
	IncomeDividends          IncomeCategory = "DIVIDENDS"
	IncomeInterest           IncomeCategory = "INTEREST"
	IncomeCapitalGains       IncomeCategory = "CAPITAL_GAINS"
	IncomeRoyalties          IncomeCategory = "ROYALTIES"
	IncomePensions           IncomeCategory = "PENSIONS"
	IncomeGovernmentBenefits IncomeCategory = "GOVERNMENT_BENEFITS"
	IncomeOther              IncomeCategory = "OTHER"
)

// ExpenseCategories lists every expense category in display order.
// Validation, the assistant prompt and the function-call schemas all read from here.
var ExpenseCategories = []ExpenseCategory{
	ExpenseHousing, ExpenseUtilities, ExpenseTransportation, ExpenseGroceries,
	ExpenseFoodAndDining, ExpenseHealthcare, ExpenseWellness, ExpensePersonalCare,
	ExpenseFamily, ExpenseEducation, ExpenseEntertainment, ExpenseLeisure,
	ExpenseFinancialObligations, ExpenseSavings, ExpenseInvestments,
	ExpenseDonations, ExpenseMiscellaneous, ExpenseOther,
}

// IncomeCategories lists every income category in display order.
var IncomeCategories = []IncomeCategory{
	IncomeSalary, IncomeBonuses, IncomeFreelance, IncomeCommissions, IncomeSales,
	IncomeService, IncomeRental, IncomeDividends, IncomeInterest,
	IncomeCapitalGains, IncomeRoyalties, IncomePensions,
	IncomeGovernmentBenefits, IncomeOther,
}

// Valid reports whether c is a known expense category.
func (c ExpenseCategory) Valid() bool {
	for _, known := range ExpenseCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Valid reports whether c is a known income category.
func (c IncomeCategory) Valid() bool {
	for _, known := range IncomeCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ExpenseCategoryNames returns the expense vocabulary as plain strings.
func ExpenseCategoryNames() []string {
	out := make([]string, len(ExpenseCategories))
	for i, c := range ExpenseCategories {
		out[i] = string(c)
	}
	return out
}

// IncomeCategoryNames returns the income vocabulary as plain strings.
func IncomeCategoryNames() []string {
	out := make([]string, len(IncomeCategories))
	for i, c := range IncomeCategories {
		out[i] = string(c)
	}
	return out
}
