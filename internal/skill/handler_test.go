package skill

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community/internal/access"
	userentity "github.com/ovaphlow/pitchfork/service-community/internal/user/entity"
)

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	svc, mock := newTestService(t)
	return NewHandler(svc, zap.NewNop().Sugar()), mock
}

func authed(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	caller := access.NewCaller(&userentity.User{ID: 1, IsActive: true}, nil)
	return req.WithContext(access.WithCaller(req.Context(), caller))
}

func TestAddByTitleHandler(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(`SELECT id, title FROM skills WHERE title=\$1`).
		WithArgs("Python").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO skills`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO skill_users`).WillReturnResult(sqlmock.NewResult(0, 1))

	rec := httptest.NewRecorder()
	h.AddByTitle(rec, authed(http.MethodPost, "/skills/add-by-title", `{"title":"python "}`))
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp AssignResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Python", resp.Skill.Title)

	mock.ExpectQuery(`SELECT id, title FROM skills WHERE title=\$1`).
		WithArgs("Python").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(resp.Skill.ID, "Python"))
	mock.ExpectExec(`INSERT INTO skill_users`).WillReturnError(&pq.Error{Code: "23505"})

	rec = httptest.NewRecorder()
	h.AddByTitle(rec, authed(http.MethodPost, "/skills/add-by-title", `{"title":"PYTHON"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "already added")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddByIDHandler(t *testing.T) {
	h, mock := newTestHandler(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing skill_id", `{}`, http.StatusBadRequest},
		{"null skill_id", `{"skill_id":null}`, http.StatusBadRequest},
		{"non-numeric skill_id", `{"skill_id":"abc"}`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.AddByID(rec, authed(http.MethodPost, "/skills/add-by-id", tt.body))
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	mock.ExpectQuery(`SELECT id, title FROM skills WHERE id=\$1`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)
	rec := httptest.NewRecorder()
	h.AddByID(rec, authed(http.MethodPost, "/skills/add-by-id", `{"skill_id":99}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	mock.ExpectQuery(`SELECT id, title FROM skills WHERE id=\$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title"}).AddRow(int64(5), "Go"))
	mock.ExpectExec(`INSERT INTO skill_users`).WillReturnError(&pq.Error{Code: "23505"})
	rec = httptest.NewRecorder()
	h.AddByID(rec, authed(http.MethodPost, "/skills/add-by-id", `{"skill_id":5}`))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandlersRequireCaller(t *testing.T) {
	h, _ := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.AddByTitle(rec, httptest.NewRequest(http.MethodPost, "/skills/add-by-title", strings.NewReader(`{"title":"go"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateHandlerRejectsUnknownFields(t *testing.T) {
	h, mock := newTestHandler(t)
	rec := httptest.NewRecorder()
	h.Create(rec, authed(http.MethodPost, "/skills", `{"title":"go","extra":1}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
