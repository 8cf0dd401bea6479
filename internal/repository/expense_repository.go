// Package repository provides owner-scoped access to persisted expense records.
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"spendwise/internal/models"
	"spendwise/internal/pagination"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("record not found")

// SortOrder selects the ordering of listed expenses.
type SortOrder string

const (
	SortNewest     SortOrder = "newest"
	SortOldest     SortOrder = "oldest"
	SortAmountHigh SortOrder = "amount-high"
	SortAmountLow  SortOrder = "amount-low"
)

// ParseSort maps a sort token to a SortOrder. Unknown or empty tokens fall
// back to SortNewest.
func ParseSort(token string) SortOrder {
	switch s := SortOrder(token); s {
	case SortNewest, SortOldest, SortAmountHigh, SortAmountLow:
		return s
	}
	return SortNewest
}

// ExpenseFilter holds optional predicates for listing expenses.
// Date bounds are inclusive.
type ExpenseFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Category  *models.Category
	Sort      SortOrder
	Limit     int
	Page      *pagination.PageRequest
}

// ExpenseRepository is the record store accessor for expenses.
type ExpenseRepository interface {
	List(ctx context.Context, userID string, filter ExpenseFilter) ([]models.Expense, error)
	Count(ctx context.Context, userID string, filter ExpenseFilter) (int64, error)
	FindByID(ctx context.Context, id string) (*models.Expense, error)
	Create(ctx context.Context, expense *models.Expense) error
	Update(ctx context.Context, expense *models.Expense) error
	Delete(ctx context.Context, expense *models.Expense) error
}

type expenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository creates a GORM-backed ExpenseRepository.
func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

// List returns the owner's expenses matching filter. No match yields an
// empty, non-nil slice.
func (r *expenseRepository) List(ctx context.Context, userID string, filter ExpenseFilter) ([]models.Expense, error) {
	q := r.scoped(ctx, userID, filter)
	q = applySort(q, filter.Sort)

	if filter.Page != nil && filter.Page.IsSet() {
		q = q.Scopes(pagination.Paginate(*filter.Page))
	} else if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	expenses := make([]models.Expense, 0)
	if err := q.Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

// Count returns how many of the owner's expenses match filter, ignoring
// sort, limit, and page.
func (r *expenseRepository) Count(ctx context.Context, userID string, filter ExpenseFilter) (int64, error) {
	var total int64
	if err := r.scoped(ctx, userID, filter).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

// FindByID loads an expense regardless of owner; callers check ownership.
func (r *expenseRepository) FindByID(ctx context.Context, id string) (*models.Expense, error) {
	var expense models.Expense
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &expense, nil
}

func (r *expenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	expense.Date = expense.Date.UTC()
	return r.db.WithContext(ctx).Create(expense).Error
}

// Update writes every mutable field of expense, matching on id and owner.
func (r *expenseRepository) Update(ctx context.Context, expense *models.Expense) error {
	expense.Date = expense.Date.UTC()
	res := r.db.WithContext(ctx).
		Model(&models.Expense{}).
		Where("id = ? AND user_id = ?", expense.ID, expense.UserID).
		Updates(map[string]interface{}{
			"amount":      expense.Amount,
			"description": expense.Description,
			"category":    expense.Category,
			"date":        expense.Date,
			"notes":       expense.Notes,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete hard-deletes expense, matching on id and owner.
func (r *expenseRepository) Delete(ctx context.Context, expense *models.Expense) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", expense.ID, expense.UserID).
		Delete(&models.Expense{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *expenseRepository) scoped(ctx context.Context, userID string, f ExpenseFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Expense{}).Where("user_id = ?", userID)
	if f.StartDate != nil {
		q = q.Where("date >= ?", f.StartDate.UTC())
	}
	if f.EndDate != nil {
		q = q.Where("date <= ?", f.EndDate.UTC())
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	return q
}

// applySort orders by the requested key. Equal keys fall back to creation
// order so that repeated reads are stable.
func applySort(q *gorm.DB, s SortOrder) *gorm.DB {
	switch s {
	case SortOldest:
		q = q.Order("date ASC")
	case SortAmountHigh:
		q = q.Order("amount DESC").Order("date DESC")
	case SortAmountLow:
		q = q.Order("amount ASC").Order("date DESC")
	default:
		q = q.Order("date DESC")
	}
	return q.Order("created_at ASC").Order("id ASC")
}
