package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"spendwise/internal/config"
	"spendwise/internal/logger"
	"spendwise/internal/testutil"
)

// testApp holds the full application stack for router tests.
type testApp struct {
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                "test",
		CORSAllowedOrigins: []string{"*"},
		JWTSecret:          "router-test-secret",
		JWTExpirationDur:   time.Hour,
		Location:           time.UTC,
		DailyWindowDays:    30,
		RecentLimit:        5,
	}
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return &testApp{Router: NewRouter(testConfig(), db)}
}

func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the token and user ID.
func (app *testApp) registerUser(t *testing.T, email string) (token, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":"password123","name":"Test"}`, email)
	rec := app.request(http.MethodPost, "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(string)
}

// createExpense posts an expense and returns its ID.
func (app *testApp) createExpense(t *testing.T, token, body string) string {
	t.Helper()
	rec := app.request(http.MethodPost, "/api/v1/expenses", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expense failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["data"].(map[string]interface{})["id"].(string)
}

func TestHealth(t *testing.T) {
	app := setupApp(t)
	rec := app.request(http.MethodGet, "/api/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestUnknownRoute(t *testing.T) {
	app := setupApp(t)
	rec := app.request(http.MethodGet, "/api/v1/nope", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if parseJSON(t, rec)["code"] != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND envelope, got %s", rec.Body.String())
	}
}

func TestAuthFlow(t *testing.T) {
	app := setupApp(t)
	_, userID := app.registerUser(t, "Flow@Test.com")

	rec := app.request(http.MethodPost, "/api/v1/auth/login",
		`{"email":"flow@test.com","password":"password123"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	token := parseJSON(t, rec)["token"].(string)

	rec = app.request(http.MethodGet, "/api/v1/auth/me", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := parseJSON(t, rec)["data"].(map[string]interface{})
	if data["id"] != userID || data["email"] != "flow@test.com" {
		t.Errorf("unexpected profile %v", data)
	}

	rec = app.request(http.MethodPost, "/api/v1/auth/register",
		`{"email":"flow@test.com","password":"password123"}`, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", rec.Code)
	}

	rec = app.request(http.MethodPost, "/api/v1/auth/login",
		`{"email":"flow@test.com","password":"wrong-password"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", rec.Code)
	}
}

func TestExpensesRequireAuth(t *testing.T) {
	app := setupApp(t)
	for _, path := range []string{"/api/v1/expenses", "/api/v1/expenses/summary", "/api/v1/expenses/categories"} {
		rec := app.request(http.MethodGet, path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
		}
	}
}

func TestExpenseCRUDFlow(t *testing.T) {
	app := setupApp(t)
	token, userID := app.registerUser(t, "crud@test.com")

	id := app.createExpense(t, token,
		`{"amount":12.5,"description":"Lunch","category":"Food","date":"2024-03-10"}`)

	rec := app.request(http.MethodGet, "/api/v1/expenses/"+id, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := parseJSON(t, rec)["data"].(map[string]interface{})
	if data["userId"] != userID || data["amount"].(float64) != 12.5 {
		t.Errorf("unexpected expense %v", data)
	}

	rec = app.request(http.MethodPut, "/api/v1/expenses/"+id,
		`{"amount":20,"description":"Dinner","category":"Dining Out"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data = parseJSON(t, rec)["data"].(map[string]interface{})
	if data["category"] != "Dining Out" || data["description"] != "Dinner" {
		t.Errorf("update not applied: %v", data)
	}
	if !strings.HasPrefix(data["date"].(string), "2024-03-10") {
		t.Errorf("expected date to be kept, got %v", data["date"])
	}

	rec = app.request(http.MethodGet, "/api/v1/expenses", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if parseJSON(t, rec)["count"].(float64) != 1 {
		t.Errorf("expected 1 expense, got %s", rec.Body.String())
	}

	rec = app.request(http.MethodDelete, "/api/v1/expenses/"+id, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request(http.MethodGet, "/api/v1/expenses/"+id, "", token)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after deletion, got %d", rec.Code)
	}
}

func TestExpenseValidation(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "valid@test.com")

	tests := []struct {
		name string
		body string
	}{
		{"negative amount", `{"amount":-1,"description":"x","category":"Food"}`},
		{"missing amount", `{"description":"x","category":"Food"}`},
		{"blank description", `{"amount":1,"description":"   ","category":"Food"}`},
		{"unknown category", `{"amount":1,"description":"x","category":"Rent"}`},
		{"bad date", `{"amount":1,"description":"x","category":"Food","date":"10/03/2024"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.request(http.MethodPost, "/api/v1/expenses", tt.body, token)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestExpenseTextTrimmedBeforeLimits(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "trim@test.com")

	desc := strings.Repeat("a", 199)
	body := fmt.Sprintf(`{"amount":3,"description":%q,"category":"Food","notes":%q}`,
		"   "+desc+"   ", " "+strings.Repeat("n", 500)+" ")
	rec := app.request(http.MethodPost, "/api/v1/expenses", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	data := parseJSON(t, rec)["data"].(map[string]interface{})
	if data["description"] != desc {
		t.Errorf("expected trimmed description, got %q", data["description"])
	}

	body = fmt.Sprintf(`{"amount":3,"description":%q,"category":"Food"}`, strings.Repeat("a", 201))
	rec = app.request(http.MethodPost, "/api/v1/expenses", body, token)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for 201 characters, got %d", rec.Code)
	}
}

func TestListExpensesUnknownCategory(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "nocat@test.com")
	app.createExpense(t, token, `{"amount":8,"description":"Pasta","category":"Food"}`)

	rec := app.request(http.MethodGet, "/api/v1/expenses?category=food", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["count"].(float64) != 0 {
		t.Errorf("expected count 0, got %v", result["count"])
	}
	data, ok := result["data"].([]interface{})
	if !ok || len(data) != 0 {
		t.Errorf("expected data [], got %v", result["data"])
	}
}

func TestExpenseOwnership(t *testing.T) {
	app := setupApp(t)
	ownerToken, _ := app.registerUser(t, "owner@test.com")
	otherToken, _ := app.registerUser(t, "other@test.com")

	id := app.createExpense(t, ownerToken, `{"amount":5,"description":"Bus","category":"Transportation"}`)

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		rec := app.request(method, "/api/v1/expenses/"+id, "", otherToken)
		if rec.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403, got %d", method, rec.Code)
		}
	}
	rec := app.request(http.MethodPut, "/api/v1/expenses/"+id,
		`{"amount":1,"description":"Hijack","category":"Other"}`, otherToken)
	if rec.Code != http.StatusForbidden {
		t.Errorf("PUT: expected 403, got %d", rec.Code)
	}

	rec = app.request(http.MethodGet, "/api/v1/expenses", "", otherToken)
	if parseJSON(t, rec)["count"].(float64) != 0 {
		t.Errorf("other user must not see foreign expenses: %s", rec.Body.String())
	}
}

func TestSummaryFlow(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "summary@test.com")

	app.createExpense(t, token, `{"amount":10,"description":"Groceries run","category":"Groceries"}`)
	app.createExpense(t, token, `{"amount":2.5,"description":"Coffee","category":"Food"}`)
	app.createExpense(t, token, `{"amount":7.5,"description":"Snacks","category":"Food"}`)

	rec := app.request(http.MethodGet, "/api/v1/expenses/summary", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := parseJSON(t, rec)["data"].(map[string]interface{})
	if data["totalAmount"].(float64) != 20 {
		t.Errorf("expected total 20, got %v", data["totalAmount"])
	}
	categories := data["categoryBreakdown"].([]interface{})
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}
	// Food and Groceries tie at 10; ascending name breaks the tie.
	if categories[0].(map[string]interface{})["category"] != "Food" {
		t.Errorf("expected Food first, got %v", categories[0])
	}
	if len(data["recentExpenses"].([]interface{})) != 3 {
		t.Errorf("expected 3 recent expenses, got %v", data["recentExpenses"])
	}
	if len(data["dailyBreakdown"].([]interface{})) != 1 {
		t.Errorf("expected a single day, got %v", data["dailyBreakdown"])
	}
}

func TestSummaryFutureWindow(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "future@test.com")
	app.createExpense(t, token, `{"amount":4,"description":"Ticket","category":"Entertainment"}`)

	tomorrow := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	rec := app.request(http.MethodGet, "/api/v1/expenses/summary?startDate="+tomorrow, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := parseJSON(t, rec)["data"].(map[string]interface{})
	if data["totalAmount"].(float64) != 0 {
		t.Errorf("expected total 0, got %v", data["totalAmount"])
	}
	if len(data["categoryBreakdown"].([]interface{})) != 0 || len(data["monthlyBreakdown"].([]interface{})) != 0 {
		t.Errorf("expected empty ranged views, got %v", data)
	}
	if len(data["dailyBreakdown"].([]interface{})) != 1 {
		t.Errorf("daily view ignores the window, got %v", data["dailyBreakdown"])
	}
	if len(data["recentExpenses"].([]interface{})) != 1 {
		t.Errorf("recent view ignores the window, got %v", data["recentExpenses"])
	}
}

func TestListExpensesPaged(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "paged@test.com")
	for i := 1; i <= 3; i++ {
		app.createExpense(t, token, fmt.Sprintf(`{"amount":%d,"description":"Item %d","category":"Shopping"}`, i, i))
	}

	rec := app.request(http.MethodGet, "/api/v1/expenses?page=1&pageSize=2&sort=amount-high", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["count"].(float64) != 3 {
		t.Errorf("expected count 3, got %v", result["count"])
	}
	items := result["data"].([]interface{})
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].(map[string]interface{})["amount"].(float64) != 3 {
		t.Errorf("expected highest amount first, got %v", items[0])
	}
	if result["page"] == nil {
		t.Error("expected page info")
	}
}

func TestCategories(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "cats@test.com")
	rec := app.request(http.MethodGet, "/api/v1/expenses/categories", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if n := len(parseJSON(t, rec)["data"].([]interface{})); n != 13 {
		t.Errorf("expected 13 categories, got %d", n)
	}
}
