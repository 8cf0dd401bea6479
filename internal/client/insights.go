package client

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CategoryShare is a category total with its share of the overall total.
type CategoryShare struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Percent  decimal.Decimal `json:"percent"`
}

// Insights are values a consumer derives from a summary bundle.
type Insights struct {
	Shares            []CategoryShare `json:"shares"`
	TopCategory       *CategoryTotal  `json:"topCategory,omitempty"`
	LatestMonth       *MonthTotal     `json:"latestMonth,omitempty"`
	CurrentMonthTotal decimal.Decimal `json:"currentMonthTotal"`
}

// ComputeInsights derives insights from s. Percentages are rounded to one
// decimal place and are zero when the total is zero. The current month is
// taken from now in its own location.
func ComputeInsights(s *Summary, now time.Time) Insights {
	out := Insights{Shares: make([]CategoryShare, 0, len(s.CategoryBreakdown))}

	for _, ct := range s.CategoryBreakdown {
		pct := decimal.Zero
		if !s.TotalAmount.IsZero() {
			pct = ct.Total.Mul(hundred).Div(s.TotalAmount).Round(1)
		}
		out.Shares = append(out.Shares, CategoryShare{Category: ct.Category, Total: ct.Total, Percent: pct})
	}

	// Breakdowns arrive largest category first and most recent month first.
	if len(s.CategoryBreakdown) > 0 {
		top := s.CategoryBreakdown[0]
		out.TopCategory = &top
	}
	if len(s.MonthlyBreakdown) > 0 {
		latest := s.MonthlyBreakdown[0]
		out.LatestMonth = &latest
	}

	for _, mt := range s.MonthlyBreakdown {
		if mt.Year == now.Year() && mt.Month == int(now.Month()) {
			out.CurrentMonthTotal = mt.Total
			break
		}
	}
	return out
}
