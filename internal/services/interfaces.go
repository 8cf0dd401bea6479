package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/models"
	"spendwise/internal/repository"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, email, password, name string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	AttemptLogin(ctx context.Context, email, password string) (*models.User, error)
}

// ExpenseInput carries the caller-supplied fields of an expense. The owner
// is never part of the input.
type ExpenseInput struct {
	Amount      decimal.Decimal
	Description string
	Category    models.Category
	Date        *time.Time
	Notes       string
}

// ExpenseList is a filtered list of expenses plus the total match count.
type ExpenseList struct {
	Expenses []models.Expense
	Total    int64
}

// ExpenseServicer defines the contract for owner-checked expense CRUD.
type ExpenseServicer interface {
	ListExpenses(ctx context.Context, userID string, filter repository.ExpenseFilter) (*ExpenseList, error)
	GetExpense(ctx context.Context, userID, expenseID string) (*models.Expense, error)
	CreateExpense(ctx context.Context, userID string, input ExpenseInput) (*models.Expense, error)
	UpdateExpense(ctx context.Context, userID, expenseID string, input ExpenseInput) (*models.Expense, error)
	DeleteExpense(ctx context.Context, userID, expenseID string) error
}

// DateRange is an optional, inclusive window on expense dates.
type DateRange struct {
	Start *time.Time
	End   *time.Time
}

// CategoryTotal is one row of the category breakdown.
type CategoryTotal struct {
	Category models.Category `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// MonthTotal is one row of the monthly breakdown.
type MonthTotal struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// DayTotal is one row of the daily breakdown. Day is formatted YYYY-MM-DD.
type DayTotal struct {
	Day   string          `json:"day"`
	Total decimal.Decimal `json:"total"`
}

// Summary is the aggregate view of a user's expenses. It is computed per
// request and never stored.
type Summary struct {
	TotalAmount       decimal.Decimal  `json:"totalAmount"`
	CategoryBreakdown []CategoryTotal  `json:"categoryBreakdown"`
	MonthlyBreakdown  []MonthTotal     `json:"monthlyBreakdown"`
	DailyBreakdown    []DayTotal       `json:"dailyBreakdown"`
	RecentExpenses    []models.Expense `json:"recentExpenses"`
}

// SummaryServicer defines the contract for the expense aggregation engine.
type SummaryServicer interface {
	GetSummary(ctx context.Context, userID string, window DateRange) (*Summary, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}
