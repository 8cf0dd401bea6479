package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"spendwise/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Name:     "Test User",
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestExpense creates an expense for userID with the given amount,
// category, and date. Amount is parsed as a decimal string.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID string, amount string, category models.Category, date time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:      userID,
		Amount:      decimal.RequireFromString(amount),
		Description: fmt.Sprintf("Test expense %d", nextID()),
		Category:    category,
		Date:        date.UTC(),
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}
