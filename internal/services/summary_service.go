package services

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/logger"
	"spendwise/internal/models"
	"spendwise/internal/repository"
)

// dayLayout is the calendar-day key used by the daily breakdown.
const dayLayout = "2006-01-02"

// SummaryOptions configures the aggregation engine. Zero values take the
// defaults: UTC, a 30 day daily window, and 5 recent expenses.
type SummaryOptions struct {
	Location        *time.Location
	DailyWindowDays int
	RecentLimit     int
	Now             func() time.Time
}

func (o *SummaryOptions) defaults() {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.DailyWindowDays <= 0 {
		o.DailyWindowDays = 30
	}
	if o.RecentLimit <= 0 {
		o.RecentLimit = 5
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// summaryService builds the summary bundle from the expense repository.
type summaryService struct {
	repo repository.ExpenseRepository
	opts SummaryOptions
}

// NewSummaryService creates a new SummaryServicer.
func NewSummaryService(repo repository.ExpenseRepository, opts SummaryOptions) SummaryServicer {
	opts.defaults()
	return &summaryService{repo: repo, opts: opts}
}

// GetSummary computes the five sub-aggregates concurrently. The total,
// category, and monthly views honour window; the daily view covers the
// trailing DailyWindowDays; the recent list ignores any window. If any
// query fails the whole summary fails.
func (s *summaryService) GetSummary(ctx context.Context, userID string, window DateRange) (*Summary, error) {
	now := s.opts.Now().In(s.opts.Location)
	ranged := repository.ExpenseFilter{StartDate: window.Start, EndDate: window.End}

	dailyStart := now.AddDate(0, 0, -s.opts.DailyWindowDays)
	dailyEnd := endOfDay(now)
	trailing := repository.ExpenseFilter{StartDate: &dailyStart, EndDate: &dailyEnd}

	recent := repository.ExpenseFilter{Sort: repository.SortNewest, Limit: s.opts.RecentLimit}

	var summary Summary
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		expenses, err := s.repo.List(gctx, userID, ranged)
		if err != nil {
			return err
		}
		summary.TotalAmount = SumAmounts(expenses)
		return nil
	})

	g.Go(func() error {
		expenses, err := s.repo.List(gctx, userID, ranged)
		if err != nil {
			return err
		}
		summary.CategoryBreakdown = BreakdownByCategory(expenses)
		return nil
	})

	g.Go(func() error {
		expenses, err := s.repo.List(gctx, userID, ranged)
		if err != nil {
			return err
		}
		summary.MonthlyBreakdown = BreakdownByMonth(expenses, s.opts.Location)
		return nil
	})

	g.Go(func() error {
		expenses, err := s.repo.List(gctx, userID, trailing)
		if err != nil {
			return err
		}
		summary.DailyBreakdown = BreakdownByDay(expenses, s.opts.Location)
		return nil
	})

	g.Go(func() error {
		expenses, err := s.repo.List(gctx, userID, recent)
		if err != nil {
			return err
		}
		summary.RecentExpenses = expenses
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Get().Errorw("summary aggregation failed",
			"user_id", userID,
			"error", err,
		)
		return nil, apperrors.Wrap(apperrors.ErrSummaryUnavailable, err)
	}

	if summary.RecentExpenses == nil {
		summary.RecentExpenses = []models.Expense{}
	}
	return &summary, nil
}

// SumAmounts adds up expense amounts. An empty set sums to zero.
func SumAmounts(expenses []models.Expense) decimal.Decimal {
	total := decimal.Zero
	for i := range expenses {
		total = total.Add(expenses[i].Amount)
	}
	return total
}

// BreakdownByCategory groups expenses by category, ordered by total
// descending. Equal totals are ordered by category name under English
// collation.
func BreakdownByCategory(expenses []models.Expense) []CategoryTotal {
	index := make(map[models.Category]int)
	out := make([]CategoryTotal, 0)

	for i := range expenses {
		e := &expenses[i]
		pos, ok := index[e.Category]
		if !ok {
			pos = len(out)
			index[e.Category] = pos
			out = append(out, CategoryTotal{Category: e.Category, Total: decimal.Zero})
		}
		out[pos].Total = out[pos].Total.Add(e.Amount)
		out[pos].Count++
	}

	col := collate.New(language.English)
	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return col.CompareString(string(out[i].Category), string(out[j].Category)) < 0
	})
	return out
}

type monthKey struct {
	year  int
	month time.Month
}

// BreakdownByMonth groups expenses by calendar month in loc, most recent
// month first.
func BreakdownByMonth(expenses []models.Expense, loc *time.Location) []MonthTotal {
	index := make(map[monthKey]int)
	out := make([]MonthTotal, 0)

	for i := range expenses {
		d := expenses[i].Date.In(loc)
		key := monthKey{year: d.Year(), month: d.Month()}
		pos, ok := index[key]
		if !ok {
			pos = len(out)
			index[key] = pos
			out = append(out, MonthTotal{Year: key.year, Month: int(key.month), Total: decimal.Zero})
		}
		out[pos].Total = out[pos].Total.Add(expenses[i].Amount)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out
}

// BreakdownByDay groups expenses by calendar day in loc, oldest day first.
func BreakdownByDay(expenses []models.Expense, loc *time.Location) []DayTotal {
	index := make(map[string]int)
	out := make([]DayTotal, 0)

	for i := range expenses {
		key := expenses[i].Date.In(loc).Format(dayLayout)
		pos, ok := index[key]
		if !ok {
			pos = len(out)
			index[key] = pos
			out = append(out, DayTotal{Day: key, Total: decimal.Zero})
		}
		out[pos].Total = out[pos].Total.Add(expenses[i].Amount)
	}

	// YYYY-MM-DD keys sort chronologically as strings.
	sort.Slice(out, func(i, j int) bool {
		return out[i].Day < out[j].Day
	})
	return out
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
