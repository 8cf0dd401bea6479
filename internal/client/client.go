// Package client provides an HTTP client for the Spendwise API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts are exchanged as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Expense is an expense as returned by the API.
type Expense struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        time.Time       `json:"date"`
	Notes       string          `json:"notes"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CategoryTotal is one row of the category breakdown.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int             `json:"count"`
}

// MonthTotal is one row of the monthly breakdown.
type MonthTotal struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Total decimal.Decimal `json:"total"`
}

// DayTotal is one row of the daily breakdown.
type DayTotal struct {
	Day   string          `json:"day"`
	Total decimal.Decimal `json:"total"`
}

// Summary is the aggregate bundle returned by the summary endpoint.
type Summary struct {
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	CategoryBreakdown []CategoryTotal `json:"categoryBreakdown"`
	MonthlyBreakdown  []MonthTotal    `json:"monthlyBreakdown"`
	DailyBreakdown    []DayTotal      `json:"dailyBreakdown"`
	RecentExpenses    []Expense       `json:"recentExpenses"`
}

// ExpenseList is one page (or all) of the caller's matching expenses.
type ExpenseList struct {
	Count    int64     `json:"count"`
	Expenses []Expense `json:"data"`
}

// Window restricts a query to an inclusive date range. Values are sent
// verbatim and may be YYYY-MM-DD or RFC3339.
type Window struct {
	StartDate string
	EndDate   string
}

// ListQuery holds the optional filters of the expense list.
type ListQuery struct {
	Window
	Category string
	Sort     string
	Page     int
	PageSize int
}

// APIError is a failure envelope returned by the API.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

type tokenKey struct{}

// WithToken returns a context whose requests carry token as a bearer
// credential.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Client communicates with the Spendwise API. It holds no credentials;
// each request takes its token from the context.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new Client. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var result struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", nil, body, &result); err != nil {
		return "", fmt.Errorf("logging in: %w", err)
	}
	return result.Token, nil
}

// Summary fetches the summary bundle for the given window.
func (c *Client) Summary(ctx context.Context, w Window) (*Summary, error) {
	var result struct {
		Data Summary `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/expenses/summary", w.values(), nil, &result); err != nil {
		return nil, fmt.Errorf("fetching summary: %w", err)
	}
	return &result.Data, nil
}

// ListExpenses fetches the caller's expenses matching q.
func (c *Client) ListExpenses(ctx context.Context, q ListQuery) (*ExpenseList, error) {
	params := q.values()
	if q.Category != "" {
		params.Set("category", q.Category)
	}
	if q.Sort != "" {
		params.Set("sort", q.Sort)
	}
	if q.Page > 0 {
		params.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		params.Set("pageSize", strconv.Itoa(q.PageSize))
	}

	var result ExpenseList
	if err := c.do(ctx, http.MethodGet, "/api/v1/expenses", params, nil, &result); err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	return &result, nil
}

// Categories fetches the fixed category set.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var result struct {
		Data []string `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/expenses/categories", nil, nil, &result); err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}
	return result.Data, nil
}

func (w Window) values() url.Values {
	params := url.Values{}
	if w.StartDate != "" {
		params.Set("startDate", w.StartDate)
	}
	if w.EndDate != "" {
		params.Set("endDate", w.EndDate)
	}
	return params
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out interface{}) error {
	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := tokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Code == "" {
			apiErr.Code = "UNEXPECTED_STATUS"
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
