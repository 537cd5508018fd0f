package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community/internal/config"
	"github.com/ovaphlow/pitchfork/service-community/internal/token"
	tokenentity "github.com/ovaphlow/pitchfork/service-community/internal/token/entity"
	"github.com/ovaphlow/pitchfork/service-community/pkg/utilities"
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Auth.Secret = "router-test-secret"
	cfg.Auth.BcryptCost = 4
	return cfg
}

func newTestRouter(t *testing.T) (http.Handler, *sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	x := sqlx.NewDb(db, "postgres")
	return RegisterRoutes(testConfig(), zap.NewNop().Sugar(), x), x, mock
}

func TestHealth(t *testing.T) {
	h, _, mock := newTestRouter(t)

	mock.ExpectPing()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	mock.ExpectPing().WillReturnError(errors.New("down"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestIDIsEchoed(t *testing.T) {
	h, _, mock := newTestRouter(t)
	mock.ExpectPing()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRoutesRequireBearerToken(t *testing.T) {
	h, _, _ := newTestRouter(t)
	for _, target := range []string{"/api/users/me", "/api/projects", "/api/events", "/api/skills"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/users", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAuthenticatedProfile(t *testing.T) {
	h, x, mock := newTestRouter(t)
	tokens := token.NewService(x, testConfig().Auth)

	mock.ExpectExec(`INSERT INTO refresh_sessions`).WillReturnResult(sqlmock.NewResult(0, 1))
	pair, err := tokens.Issue(context.Background(), 7)
	require.NoError(t, err)

	mock.ExpectQuery(`FROM users WHERE id=\$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "phone", "age", "rating", "notifications",
			"corporation_id", "password_hash", "is_active", "is_staff", "date_joined", "last_login"}).
			AddRow(int64(7), "alice@example.com", "Alice", "", nil, 0, true, nil, "x", true, false, time.Now(), nil))
	mock.ExpectQuery(`SELECT s.id, s.title FROM skills s`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+pair.Access)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"alice@example.com"`)
	assert.Contains(t, rec.Body.String(), `"corporation":null`)

	require.NoError(t, mock.ExpectationsWereMet())
}

var userCols = []string{"id", "email", "name", "phone", "age", "rating", "notifications",
	"corporation_id", "password_hash", "is_active", "is_staff", "date_joined", "last_login"}

func TestRegisterTokenAndSkillFlow(t *testing.T) {
	h, _, mock := newTestRouter(t)
	call := func(method, target, bearer, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	mock.ExpectQuery(`SELECT 1 FROM users WHERE email=\$1`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))
	rec := call(http.MethodPost, "/api/users", "",
		`{"email":"a@x.com","name":"A","password1":"Pass1234","password2":"Pass1234"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	hash, err := utilities.BcryptHasher{Cost: testConfig().Auth.BcryptCost}.Hash("Pass1234")
	require.NoError(t, err)
	userRow := func() *sqlmock.Rows {
		return sqlmock.NewRows(userCols).
			AddRow(int64(11), "a@x.com", "A", "", nil, 0, true, nil, hash, true, false, time.Now(), nil)
	}

	mock.ExpectQuery(`FROM users WHERE email=\$1`).WithArgs("a@x.com").WillReturnRows(userRow())
	mock.ExpectExec(`UPDATE users SET last_login`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO refresh_sessions`).WillReturnResult(sqlmock.NewResult(0, 1))
	rec = call(http.MethodPost, "/api/users/token", "", `{"email":"a@x.com","password":"Pass1234"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pair tokenentity.Pair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	mock.ExpectQuery(`FROM users WHERE id=\$1`).WithArgs(int64(11)).WillReturnRows(userRow())
	mock.ExpectQuery(`SELECT id, title FROM skills WHERE title=\$1`).
		WithArgs("Python").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}))
	mock.ExpectExec(`INSERT INTO skills`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO skill_users`).WillReturnResult(sqlmock.NewResult(0, 1))
	rec = call(http.MethodPost, "/api/users/add-skill-by-title", pair.Access, `{"title":"python "}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"title":"Python"`)

	mock.ExpectQuery(`FROM users WHERE id=\$1`).WithArgs(int64(11)).WillReturnRows(userRow())
	mock.ExpectQuery(`SELECT id, title FROM skills WHERE title=\$1`).
		WithArgs("Python").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(int64(3), "Python"))
	mock.ExpectExec(`INSERT INTO skill_users`).WillReturnError(&pq.Error{Code: "23505"})
	rec = call(http.MethodPost, "/api/users/add-skill-by-title", pair.Access, `{"title":"python "}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "already added")

	rec = call(http.MethodPost, "/api/users/token", "", `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecoverMiddleware(t *testing.T) {
	h := RecoverMiddleware(zap.NewNop().Sugar())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "internal server error")
}
