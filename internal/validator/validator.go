// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"regexp"
	"strings"
	"time"

	"flux/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9_+&*-]+(?:\.[a-zA-Z0-9_+&*-]+)*@(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,7}$`)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("expense_category", validateExpenseCategory)
		_ = v.RegisterValidation("income_category", validateIncomeCategory)
		_ = v.RegisterValidation("sort_direction", validateSortDirection)
		_ = v.RegisterValidation("email_lite", validateEmail)
		_ = v.RegisterValidation("past_date", validatePastDate)
	}
}

// IsEmail reports whether s looks like an email address after trimming.
func IsEmail(s string) bool {
	return emailRegex.MatchString(strings.TrimSpace(s))
}

func validateExpenseCategory(fl validator.FieldLevel) bool {
	return models.ExpenseCategory(fl.Field().String()).Valid()
}

func validateIncomeCategory(fl validator.FieldLevel) bool {
	return models.IncomeCategory(fl.Field().String()).Valid()
}

func validateSortDirection(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "asc", "desc":
		return true
	}
	return false
}

func validateEmail(fl validator.FieldLevel) bool {
	return IsEmail(fl.Field().String())
}

// validatePastDate accepts a time.Time or a YYYY-MM-DD string strictly before today.
func validatePastDate(fl validator.FieldLevel) bool {
	var d time.Time
	switch v := fl.Field().Interface().(type) {
	case time.Time:
		d = v
	case string:
		parsed, err := time.Parse(models.DateLayout, v)
		if err != nil {
			return false
		}
		d = parsed
	default:
		return false
	}
	y, m, day := time.Now().Date()
	return d.Before(time.Date(y, m, day, 0, 0, 0, 0, d.Location()))
}
