// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"spendwise/internal/models"
)

var once sync.Once

// Register registers all custom validators with the Gin binding engine.
// Calling it more than once is harmless.
func Register() {
	once.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("expense_category", validateExpenseCategory)
			_ = v.RegisterValidation("notblank", validateNotBlank)
		}
	})
}

func validateExpenseCategory(fl validator.FieldLevel) bool {
	return models.Category(fl.Field().String()).IsValid()
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
