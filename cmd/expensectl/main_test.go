package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body["password"] != "secret-pass" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"success":false,"code":"INVALID_CREDENTIALS","message":"Invalid email or password"}`))
				return
			}
			_, _ = w.Write([]byte(`{"success":true,"token":"tok-cli"}`))
		case "/api/v1/expenses/summary":
			if r.Header.Get("Authorization") != "Bearer tok-cli" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"success":false,"code":"UNAUTHORIZED","message":"Authentication required"}`))
				return
			}
			_, _ = w.Write([]byte(`{"success":true,"data":{"totalAmount":13,
				"categoryBreakdown":[{"category":"Food","total":13,"count":2}],
				"monthlyBreakdown":[{"year":2024,"month":3,"total":9},{"year":2024,"month":2,"total":4}],
				"dailyBreakdown":[],"recentExpenses":[]}}`))
		case "/api/v1/expenses":
			assert.Equal(t, "oldest", r.URL.Query().Get("sort"))
			_, _ = w.Write([]byte(`{"success":true,"count":0,"data":[]}`))
		case "/api/v1/expenses/categories":
			_, _ = w.Write([]byte(`{"success":true,"data":["Food","Other"]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestRun_Login(t *testing.T) {
	srv := fakeAPI(t)
	defer srv.Close()

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	err := run(context.Background(), []string{"login", "-url", srv.URL, "-email", "a@b.co"},
		strings.NewReader("secret-pass\n"), stdout, stderr)
	require.NoError(t, err)
	assert.Equal(t, "tok-cli", strings.TrimSpace(stdout.String()))
}

func TestRun_LoginBadPassword(t *testing.T) {
	srv := fakeAPI(t)
	defer srv.Close()

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	err := run(context.Background(), []string{"login", "-url", srv.URL, "-email", "a@b.co"},
		strings.NewReader("wrong\n"), stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_CREDENTIALS")
}

func TestRun_Summary(t *testing.T) {
	srv := fakeAPI(t)
	defer srv.Close()

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	err := run(context.Background(), []string{"summary", "-url", srv.URL, "-token", "tok-cli"}, nil, stdout, stderr)
	require.NoError(t, err)
	assert.Contains(t, stdout.String(), `"totalAmount"`)
}

func TestRun_InsightsUsesTimeZone(t *testing.T) {
	srv := fakeAPI(t)
	defer srv.Close()

	// 2024-02-29 20:00 UTC is already March in Tokyo.
	defer func(orig func() time.Time) { now = orig }(now)
	now = func() time.Time { return time.Date(2024, 2, 29, 20, 0, 0, 0, time.UTC) }

	tests := []struct {
		tz   string
		want float64
	}{
		{"UTC", 4},
		{"Asia/Tokyo", 9},
	}
	for _, tt := range tests {
		t.Run(tt.tz, func(t *testing.T) {
			stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
			err := run(context.Background(),
				[]string{"insights", "-url", srv.URL, "-token", "tok-cli", "-tz", tt.tz}, nil, stdout, stderr)
			require.NoError(t, err)

			var out map[string]interface{}
			require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
			assert.Equal(t, tt.want, out["currentMonthTotal"])
			assert.NotNil(t, out["topCategory"])
		})
	}
}

func TestRun_InsightsBadTimeZone(t *testing.T) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	err := run(context.Background(), []string{"insights", "-tz", "Mars/Olympus"}, nil, stdout, stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid time zone")
}

func TestRun_ListAndCategories(t *testing.T) {
	srv := fakeAPI(t)
	defer srv.Close()

	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	require.NoError(t, run(context.Background(), []string{"list", "-url", srv.URL, "-sort", "oldest"}, nil, stdout, stderr))

	stdout.Reset()
	require.NoError(t, run(context.Background(), []string{"categories", "-url", srv.URL}, nil, stdout, stderr))
	assert.Contains(t, stdout.String(), "Food")
}

func TestRun_Usage(t *testing.T) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	assert.Error(t, run(context.Background(), nil, nil, stdout, stderr), "missing command")
	assert.Error(t, run(context.Background(), []string{"bogus"}, nil, stdout, stderr), "unknown command")
}
