package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts are exchanged as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Field limits for expense records.
const (
	MaxDescriptionLength = 200
	MaxNotesLength       = 500
	AmountScale          = 2
)

// Expense is a single spending record owned by exactly one user.
type Expense struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index:idx_expenses_user_date,priority:1" json:"userId"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Description string          `gorm:"size:200;not null" json:"description"`
	Category    Category        `gorm:"size:32;not null" json:"category"`
	Date        time.Time       `gorm:"not null;index:idx_expenses_user_date,priority:2" json:"date"`
	Notes       string          `gorm:"size:500" json:"notes"`
}
