package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/logger"
	"spendwise/internal/models"
	"spendwise/internal/repository"
)

// maxAmount is the exclusive upper bound imposed by the numeric(14,2) column.
var maxAmount = decimal.New(1, 12)

// expenseService handles expense CRUD with ownership checks.
type expenseService struct {
	repo repository.ExpenseRepository
	now  func() time.Time
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(repo repository.ExpenseRepository) ExpenseServicer {
	return &expenseService{repo: repo, now: time.Now}
}

// ListExpenses returns the user's expenses matching filter along with the
// total match count. The category filter is an exact match; a value outside
// the category set simply matches nothing.
func (s *expenseService) ListExpenses(ctx context.Context, userID string, filter repository.ExpenseFilter) (*ExpenseList, error) {
	expenses, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total := int64(len(expenses))
	if filter.Page != nil && filter.Page.IsSet() {
		total, err = s.repo.Count(ctx, userID, filter)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return &ExpenseList{Expenses: expenses, Total: total}, nil
}

// GetExpense loads an expense and verifies that userID owns it. A record
// owned by someone else is reported as not authorized, not as missing.
func (s *expenseService) GetExpense(ctx context.Context, userID, expenseID string) (*models.Expense, error) {
	if _, err := uuid.Parse(expenseID); err != nil {
		return nil, apperrors.ErrExpenseNotFound
	}

	expense, err := s.repo.FindByID(ctx, expenseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if expense.UserID != userID {
		logger.Get().Warnw("expense access denied",
			"expense_id", expenseID,
			"user_id", userID,
		)
		return nil, apperrors.ErrExpenseNotAuthorized
	}

	return expense, nil
}

// CreateExpense validates input and stores a new expense owned by userID.
func (s *expenseService) CreateExpense(ctx context.Context, userID string, input ExpenseInput) (*models.Expense, error) {
	if userID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	fields, err := s.normalize(input)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{
		UserID:      userID,
		Amount:      fields.Amount,
		Description: fields.Description,
		Category:    fields.Category,
		Date:        *fields.Date,
		Notes:       fields.Notes,
	}

	if err := s.repo.Create(ctx, expense); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return expense, nil
}

// UpdateExpense replaces the mutable fields of an owned expense. An omitted
// date keeps the stored one.
func (s *expenseService) UpdateExpense(ctx context.Context, userID, expenseID string, input ExpenseInput) (*models.Expense, error) {
	expense, err := s.GetExpense(ctx, userID, expenseID)
	if err != nil {
		return nil, err
	}

	if input.Date == nil {
		current := expense.Date
		input.Date = &current
	}

	fields, err := s.normalize(input)
	if err != nil {
		return nil, err
	}

	expense.Amount = fields.Amount
	expense.Description = fields.Description
	expense.Category = fields.Category
	expense.Date = *fields.Date
	expense.Notes = fields.Notes

	if err := s.repo.Update(ctx, expense); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.GetExpense(ctx, userID, expenseID)
}

// DeleteExpense permanently removes an owned expense.
func (s *expenseService) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	expense, err := s.GetExpense(ctx, userID, expenseID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, expense); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.ErrExpenseNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// normalize trims text fields, applies the date default, and enforces the
// expense field constraints.
func (s *expenseService) normalize(input ExpenseInput) (ExpenseInput, error) {
	out := input
	out.Description = strings.TrimSpace(input.Description)
	out.Notes = strings.TrimSpace(input.Notes)

	switch {
	case out.Amount.IsNegative():
		return out, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be zero or positive")
	case out.Amount.Exponent() < -models.AmountScale && !out.Amount.Equal(out.Amount.Round(models.AmountScale)):
		return out, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount cannot have more than 2 decimal places")
	case out.Amount.GreaterThanOrEqual(maxAmount):
		return out, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount is too large")
	case out.Description == "":
		return out, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	case utf8.RuneCountInString(out.Description) > models.MaxDescriptionLength:
		return out, apperrors.WithMessage(apperrors.ErrInvalidInput, "description cannot be more than 200 characters")
	case !out.Category.IsValid():
		return out, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("unknown category %q", out.Category))
	case utf8.RuneCountInString(out.Notes) > models.MaxNotesLength:
		return out, apperrors.WithMessage(apperrors.ErrInvalidInput, "notes cannot be more than 500 characters")
	}

	if out.Date == nil || out.Date.IsZero() {
		now := s.now()
		out.Date = &now
	}

	return out, nil
}
