package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/celerix-dev/guardup-admin/internal/engine"
	"github.com/celerix-dev/guardup-admin/internal/entries"
	"github.com/celerix-dev/guardup-admin/internal/reports"
	"github.com/celerix-dev/guardup-admin/internal/session"
	"github.com/celerix-dev/guardup-admin/internal/users"
	"github.com/celerix-dev/guardup-admin/internal/vault"
)

var (
	discard = slog.New(slog.NewTextHandler(io.Discard, nil))
	now     = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
)

type testEnv struct {
	router *gin.Engine
	store  *engine.MemStore
	cookie *http.Cookie
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func setupTestRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := engine.NewMemStore(map[string]map[string]map[string]any{
		"users": {
			"u1": {"name": "Ana", "email": "ana@example.com", "createdAt": now.AddDate(0, -1, 0)},
			"u2": {"name": "Jonas", "email": "jonas@example.com"},
		},
		"entries": {
			"e1": {"userEmail": "ana@example.com", "buildingCode": "A", "timestamp": now.Add(-time.Hour), "gate": "north"},
			"e2": {"userEmail": "jonas@example.com", "buildingCode": "B", "timestamp": now.Add(-2 * time.Hour)},
			"e3": {"userEmail": "ana@example.com", "buildingCode": "A", "timestamp": now.AddDate(0, 0, -20)},
		},
		"reports": {
			"r1": {"email": "ana@example.com", "exposureDate": "2026-10-10", "timestamp": now, "testedPositive": true},
			"r2": {"email": "jonas@example.com", "exposureDate": "2026-10-11"},
		},
	}, nil)

	entrySvc := entries.NewService(store, time.UTC, discard)
	entrySvc.SetClock(func() time.Time { return now })
	userSvc := users.NewService(store, "Please get tested.", discard, nil)

	key, err := vault.NewKey()
	require.NoError(t, err)
	codec, err := session.NewCodec(key)
	require.NoError(t, err)

	h := &Handler{
		Users:   userSvc,
		Reports: reports.NewService(store, discard),
		Entries: entrySvc,
		Sessions: session.NewRegistry(time.Hour, func() *entries.View {
			return entries.NewView(entrySvc, discard, nil)
		}, discard),
		Codec:    codec,
		Store:    store,
		Location: time.UTC,
		Version:  "test",
		Logger:   discard,
	}

	r, err := NewRouter(h, RouterOptions{})
	require.NoError(t, err)
	return &testEnv{router: r, store: store}
}

// do serves a request, carrying the session cookie between calls.
func (e *testEnv) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if e.cookie != nil {
		req.AddCookie(e.cookie)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			e.cookie = c
		}
	}
	return w
}

func (e *testEnv) notifications(t *testing.T, userID string) int {
	t.Helper()
	docs, err := e.store.All(context.Background(), "users/"+userID+"/notifications")
	require.NoError(t, err)
	return len(docs)
}

// --- Navigation ---

func TestRootRedirectsToUsers(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/users", w.Header().Get("Location"))
}

func TestUsersPage(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "Guard UP")
	assert.Contains(t, body, "Hello, Admin!")
	assert.Contains(t, body, "Ana")
	assert.Contains(t, body, "jonas@example.com")
	assert.Contains(t, body, `href="/users/u1/notify"`)
	assert.Contains(t, body, "September 16, 2026 at 12:00 PM")
	require.NotNil(t, env.cookie)
	assert.True(t, env.cookie.HttpOnly)
}

// --- Notification flow ---

func TestNotifyConfirmWritesOnce(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodGet, "/users/u1/notify", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Please get tested.")
	assert.Equal(t, 0, env.notifications(t, "u1"), "opening the prompt writes nothing")

	w = env.do(http.MethodPost, "/users/u1/notify/confirm", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, 1, env.notifications(t, "u1"))

	// A second confirm without a new prompt does not write again.
	env.do(http.MethodPost, "/users/u1/notify/confirm", url.Values{})
	assert.Equal(t, 1, env.notifications(t, "u1"))

	docs, err := env.store.All(context.Background(), "users/u1/notifications")
	require.NoError(t, err)
	assert.Equal(t, false, docs[0].Data["isRead"])
	assert.Equal(t, "Please get tested.", docs[0].Data["message"])
}

func TestNotifyFlashShownOnce(t *testing.T) {
	env := setupTestRouter(t)

	env.do(http.MethodGet, "/users/u1/notify", nil)
	env.do(http.MethodPost, "/users/u1/notify/confirm", url.Values{})

	w := env.do(http.MethodGet, "/users", nil)
	assert.Contains(t, w.Body.String(), "Alert sent to Ana.")

	w = env.do(http.MethodGet, "/users", nil)
	assert.NotContains(t, w.Body.String(), "Alert sent to Ana.")
}

func TestNotifyCancelWritesNothing(t *testing.T) {
	env := setupTestRouter(t)

	env.do(http.MethodGet, "/users/u1/notify", nil)
	w := env.do(http.MethodPost, "/users/u1/notify/cancel", url.Values{})
	assert.Equal(t, http.StatusSeeOther, w.Code)

	env.do(http.MethodPost, "/users/u1/notify/confirm", url.Values{})
	assert.Equal(t, 0, env.notifications(t, "u1"))
}

func TestNotifyConfirmRequiresMatchingTarget(t *testing.T) {
	env := setupTestRouter(t)

	env.do(http.MethodGet, "/users/u1/notify", nil)
	env.do(http.MethodPost, "/users/u2/notify/confirm", url.Values{})

	assert.Equal(t, 0, env.notifications(t, "u1"))
	assert.Equal(t, 0, env.notifications(t, "u2"))
}

func TestNotifyPromptUnknownUser(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodGet, "/users/ghost/notify", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Entries ---

func TestEntriesPage_MountAppliesRecencyWindow(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodGet, "/entries", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "October 16, 2026 at 11:00 AM")
	assert.Contains(t, body, "October 16, 2026 at 10:00 AM")
	assert.NotContains(t, body, "September 26, 2026")
	assert.Contains(t, body, `<option value="A">A</option>`)
	assert.Contains(t, body, `<option value="B">B</option>`)
}

func TestEntriesPage_FilterChange(t *testing.T) {
	env := setupTestRouter(t)
	env.do(http.MethodGet, "/entries", nil)

	w := env.do(http.MethodGet, "/entries?buildingCode=A&startDate=&endDate=&userEmail=", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "ana@example.com")
	assert.NotContains(t, body, "jonas@example.com")
	assert.Contains(t, body, `<option value="A" selected>A</option>`)
}

func TestEntriesPage_EndDateDisablesWindow(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodGet, "/entries?endDate=2026-10-16", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "September 26, 2026 at 12:00 PM")
}

func TestEntriesPage_InvalidDateKeepsResults(t *testing.T) {
	env := setupTestRouter(t)
	env.do(http.MethodGet, "/entries", nil)

	w := env.do(http.MethodGet, "/entries?startDate=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "startDate: must be a date in YYYY-MM-DD format")
	assert.Contains(t, body, "jonas@example.com")
}

func TestEntriesApply(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodPost, "/entries/apply", url.Values{"buildingCode": {"B"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "buildingCode=B")

	w = env.do(http.MethodGet, w.Header().Get("Location"), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "jonas@example.com")
	assert.NotContains(t, w.Body.String(), "ana@example.com")
}

func TestExportPDF_UsesViewState(t *testing.T) {
	env := setupTestRouter(t)
	env.do(http.MethodGet, "/entries?buildingCode=A", nil)

	w := env.do(http.MethodGet, "/entries/export.pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="entries.pdf"`, w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
}

func TestExportXLSX_UsesViewState(t *testing.T) {
	env := setupTestRouter(t)
	env.do(http.MethodGet, "/entries?buildingCode=A", nil)

	// Data added after the fetch must not appear: export never refetches.
	require.NoError(t, env.store.Set(context.Background(), "entries/e9", map[string]any{
		"userEmail": "late@example.com", "buildingCode": "A", "timestamp": now,
	}))

	w := env.do(http.MethodGet, "/entries/export.xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="entries.xlsx"`, w.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Entries")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"User Email", "Building Code", "Timestamp"},
		{"ana@example.com", "A", "October 16, 2026 at 11:00 AM"},
	}, rows)
}

// --- Reports ---

func TestReportsPage(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodGet, "/reports", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "2 reports found")
	assert.Contains(t, body, "Medical Assistance Needed")
	assert.Contains(t, body, "<td>Yes</td>")
	assert.Contains(t, body, "October 16, 2026 at 12:00 PM")
}

// --- JSON API ---

func TestAPIListUsers(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodGet, "/api/users", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "u1", list[0]["id"])
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPIListEntries(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodGet, "/api/entries?buildingCode=A&endDate=2026-10-16", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, "e1", list[0]["id"])
	assert.Equal(t, "north", list[0]["gate"])
	assert.Equal(t, "e3", list[1]["id"])
}

func TestAPIListEntries_Invalid(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodGet, "/api/entries?endDate=16.10.2026", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var res map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	fields := res["fields"].([]any)
	require.Len(t, fields, 1)
	assert.Equal(t, "endDate", fields[0].(map[string]any)["field"])
}

func TestAPIListReports(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodGet, "/api/reports", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}

func TestAPINotFound(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodGet, "/api/personas", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"API route not found"}`, w.Body.String())
}

// --- Probes and middleware ---

func TestHealth(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"test"`)

	w = env.do(http.MethodGet, "/readyz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{Store: downPinger{}, Logger: discard}
	r := gin.New()
	r.GET("/readyz", h.Ready)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"down"`)
}

func TestRequestID(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))
}

func TestRecovery(t *testing.T) {
	env := setupTestRouter(t)
	env.router.GET("/boom", func(*gin.Context) { panic("boom") })

	w := env.do(http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestStaticAssets(t *testing.T) {
	env := setupTestRouter(t)

	w := env.do(http.MethodGet, "/static/style.css", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), ".custom-table")
}

func TestExpiredCookieStartsNewSession(t *testing.T) {
	env := setupTestRouter(t)
	env.cookie = &http.Cookie{Name: session.CookieName, Value: "tampered"}

	w := env.do(http.MethodGet, "/users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, "tampered", env.cookie.Value)
}
