package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "spendwise/internal/errors"
	"spendwise/internal/middleware"
	"spendwise/internal/models"
	"spendwise/internal/validator"
)

const (
	testSecret = "handler-test-secret"
	testUserID = "0190a8f4-0000-7000-8000-000000000001"
)

// --- mock services ---

type mockUserService struct {
	createUserFn   func(email, password, name string) (*models.User, error)
	getUserByIDFn  func(id string) (*models.User, error)
	attemptLoginFn func(email, password string) (*models.User, error)
}

func (m *mockUserService) CreateUser(_ context.Context, email, password, name string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(email, password, name)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(_ context.Context, id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) AttemptLogin(_ context.Context, email, password string) (*models.User, error) {
	if m.attemptLoginFn != nil {
		return m.attemptLoginFn(email, password)
	}
	return &models.User{}, nil
}

type auditEntry struct {
	userID, action, resourceID string
}

type mockAuditService struct {
	entries []auditEntry
}

func (m *mockAuditService) Log(userID, action, _ string, resourceID, _ string, _ map[string]interface{}) {
	m.entries = append(m.entries, auditEntry{userID: userID, action: action, resourceID: resourceID})
}

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.GET("/auth/me", injectUserID(testUserID), handler.Me)
	r.GET("/auth/anon", handler.Me)
	return r
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	if rec.Code != wantStatus {
		t.Fatalf("expected status %d, got %d: %s", wantStatus, rec.Code, rec.Body.String())
	}
	body := parseJSON(t, rec)
	if body["success"] != false {
		t.Errorf("expected success=false, got %v", body["success"])
	}
	if body["code"] != wantCode {
		t.Errorf("expected code %q, got %v", wantCode, body["code"])
	}
}

func newAuthHandler(svc *mockUserService) *AuthHandler {
	return NewAuthHandler(svc, testSecret, time.Hour)
}

// --- tests ---

func TestRegister(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mockUserService{
			createUserFn: func(email, _, name string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: testUserID}, Email: email, Name: name}, nil
			},
		}
		r := setupAuthRouter(newAuthHandler(svc))

		rec := doRequest(r, http.MethodPost, "/auth/register",
			`{"email":"new@example.com","password":"password123","name":"New"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		body := parseJSON(t, rec)
		token, _ := body["token"].(string)
		claims, err := middleware.ParseToken(testSecret, token)
		if err != nil {
			t.Fatalf("expected a valid token: %v", err)
		}
		if claims.UserID != testUserID {
			t.Errorf("expected token for %s, got %s", testUserID, claims.UserID)
		}
		user := body["user"].(map[string]interface{})
		if user["name"] != "New" {
			t.Errorf("expected name New, got %v", user["name"])
		}
	})

	t.Run("invalid_email", func(t *testing.T) {
		r := setupAuthRouter(newAuthHandler(&mockUserService{}))
		rec := doRequest(r, http.MethodPost, "/auth/register", `{"email":"nope","password":"password123"}`)
		assertErrorCode(t, rec, http.StatusBadRequest, "INVALID_INPUT")
	})

	t.Run("short_password", func(t *testing.T) {
		r := setupAuthRouter(newAuthHandler(&mockUserService{}))
		rec := doRequest(r, http.MethodPost, "/auth/register", `{"email":"a@b.co","password":"short"}`)
		assertErrorCode(t, rec, http.StatusBadRequest, "INVALID_INPUT")
	})

	t.Run("duplicate", func(t *testing.T) {
		svc := &mockUserService{
			createUserFn: func(_, _, _ string) (*models.User, error) {
				return nil, apperrors.ErrDuplicateEmail
			},
		}
		r := setupAuthRouter(newAuthHandler(svc))
		rec := doRequest(r, http.MethodPost, "/auth/register", `{"email":"a@b.co","password":"password123"}`)
		assertErrorCode(t, rec, http.StatusConflict, "DUPLICATE_EMAIL")
	})
}

func TestLogin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mockUserService{
			attemptLoginFn: func(email, _ string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: testUserID}, Email: email}, nil
			},
		}
		r := setupAuthRouter(newAuthHandler(svc))

		rec := doRequest(r, http.MethodPost, "/auth/login", `{"email":"a@b.co","password":"password123"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := parseJSON(t, rec)
		if body["success"] != true || body["token"] == "" {
			t.Errorf("unexpected body %v", body)
		}
	})

	t.Run("bad_credentials", func(t *testing.T) {
		svc := &mockUserService{
			attemptLoginFn: func(_, _ string) (*models.User, error) {
				return nil, apperrors.ErrInvalidCredentials
			},
		}
		r := setupAuthRouter(newAuthHandler(svc))
		rec := doRequest(r, http.MethodPost, "/auth/login", `{"email":"a@b.co","password":"wrong"}`)
		assertErrorCode(t, rec, http.StatusUnauthorized, "INVALID_CREDENTIALS")
	})

	t.Run("missing_fields", func(t *testing.T) {
		r := setupAuthRouter(newAuthHandler(&mockUserService{}))
		rec := doRequest(r, http.MethodPost, "/auth/login", `{}`)
		assertErrorCode(t, rec, http.StatusBadRequest, "INVALID_INPUT")
	})
}

func TestMe(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := &mockUserService{
			getUserByIDFn: func(id string) (*models.User, error) {
				return &models.User{Base: models.Base{ID: id}, Email: "me@example.com"}, nil
			},
		}
		r := setupAuthRouter(newAuthHandler(svc))

		rec := doRequest(r, http.MethodGet, "/auth/me", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		data := parseJSON(t, rec)["data"].(map[string]interface{})
		if data["id"] != testUserID || data["email"] != "me@example.com" {
			t.Errorf("unexpected profile %v", data)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		r := setupAuthRouter(newAuthHandler(&mockUserService{}))
		rec := doRequest(r, http.MethodGet, "/auth/anon", "")
		assertErrorCode(t, rec, http.StatusUnauthorized, "UNAUTHORIZED")
	})
}
