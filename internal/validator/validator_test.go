package validator

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func init() {
	Register()
}

type sample struct {
	Expense   string `binding:"omitempty,expense_category"`
	Income    string `binding:"omitempty,income_category"`
	Direction string `binding:"omitempty,sort_direction"`
	Email     string `binding:"omitempty,email_lite"`
	Born      string `binding:"omitempty,past_date"`
}

func validate(s sample) error {
	return binding.Validator.ValidateStruct(s)
}

func TestCustomTags(t *testing.T) {
	assert.NoError(t, validate(sample{Expense: "GROCERIES", Income: "SALARY", Direction: "DESC", Email: "a.b@example.com", Born: "1990-01-31"}))

	assert.Error(t, validate(sample{Expense: "SALARY"}))
	assert.Error(t, validate(sample{Income: "GROCERIES"}))
	assert.Error(t, validate(sample{Direction: "up"}))
	assert.Error(t, validate(sample{Email: "not-an-email"}))
	assert.Error(t, validate(sample{Born: "31/01/1990"}))
	assert.Error(t, validate(sample{Born: time.Now().AddDate(0, 0, 1).Format("2006-01-02")}))
}

func TestTagsAreRegistered(t *testing.T) {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		t.Fatal("expected go-playground validator engine")
	}
	assert.NoError(t, v.Var("FOOD_AND_DINING", "expense_category"))
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("  USER@Example.org "))
	assert.False(t, IsEmail("user@localhost"))
	assert.False(t, IsEmail("@example.com"))
}
