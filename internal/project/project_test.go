package project

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-community/internal/access"
	"github.com/ovaphlow/pitchfork/service-community/internal/project/entity"
	userentity "github.com/ovaphlow/pitchfork/service-community/internal/user/entity"
)

var projectCols = []string{"id", "title", "description", "date_proj", "url", "main_user_id"}

const selectProject = `SELECT id, title, description, date_proj, url, main_user_id FROM projects WHERE id = \$1`

func newTestHandler(t *testing.T) (*Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewHandler(NewService(sqlx.NewDb(db, "postgres")), zap.NewNop().Sugar()), mock
}

func projectRow(id, owner int64) *sqlmock.Rows {
	return sqlmock.NewRows(projectCols).
		AddRow(id, "Pitchfork", "Community app", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "https://example.com", owner)
}

func as(userID int64, req *http.Request) *http.Request {
	c := access.NewCaller(&userentity.User{ID: userID, IsActive: true}, nil)
	return req.WithContext(access.WithCaller(req.Context(), c))
}

func withID(req *http.Request, id string) *http.Request {
	req.SetPathValue("id", id)
	return req
}

func TestCreateProject(t *testing.T) {
	h, mock := newTestHandler(t)
	mock.ExpectExec(`INSERT INTO projects`).
		WithArgs(sqlmock.AnyArg(), "Pitchfork", "Community app", "2024-03-01", "https://example.com", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	body := `{"title":"Pitchfork","description":"Community app","date_proj":"2024-03-01","url":"https://example.com","main_user":999}`
	rec := httptest.NewRecorder()
	h.Create(rec, as(7, httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(body))))
	require.Equal(t, http.StatusCreated, rec.Code)

	var p entity.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, int64(7), p.MainUserID)
	assert.Equal(t, "2024-03-01", p.DateProj.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateProjectValidation(t *testing.T) {
	h, mock := newTestHandler(t)
	body := `{"title":"` + strings.Repeat("x", 31) + `","description":"","date_proj":"01.03.2024","url":"example.com"}`
	rec := httptest.NewRecorder()
	h.Create(rec, as(7, httptest.NewRequest(http.MethodPost, "/projects", strings.NewReader(body))))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var got struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Fields, 4)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRulesMatchCreateTags(t *testing.T) {
	typ := reflect.TypeOf(CreateInput{})
	require.Len(t, updateRules, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		assert.Equal(t, f.Tag.Get("validate"), updateRules[f.Tag.Get("json")], f.Name)
	}
	for _, name := range Updatable {
		assert.Contains(t, updateRules, name)
	}
}

func TestDetailProject(t *testing.T) {
	h, mock := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Detail(rec, as(7, withID(httptest.NewRequest(http.MethodGet, "/projects/abc", nil), "abc")))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	mock.ExpectQuery(selectProject).WithArgs(int64(5)).WillReturnRows(sqlmock.NewRows(projectCols))
	rec = httptest.NewRecorder()
	h.Detail(rec, as(7, withID(httptest.NewRequest(http.MethodGet, "/projects/5", nil), "5")))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	mock.ExpectQuery(selectProject).WithArgs(int64(5)).WillReturnRows(projectRow(5, 7))
	rec = httptest.NewRecorder()
	h.Detail(rec, as(8, withID(httptest.NewRequest(http.MethodGet, "/projects/5", nil), "5")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"main_user":7`)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProject(t *testing.T) {
	t.Run("owner updates present fields only", func(t *testing.T) {
		h, mock := newTestHandler(t)
		mock.ExpectQuery(selectProject).WithArgs(int64(5)).WillReturnRows(projectRow(5, 7))
		mock.ExpectQuery(`UPDATE projects SET title = \$1 WHERE id = \$2 RETURNING`).
			WithArgs("Renamed", int64(5)).
			WillReturnRows(sqlmock.NewRows(projectCols).
				AddRow(int64(5), "Renamed", "Community app", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), "https://example.com", int64(7)))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/projects/5", strings.NewReader(`{"title":"Renamed"}`))
		h.Update(rec, as(7, withID(req, "5")))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"title":"Renamed"`)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		h, mock := newTestHandler(t)
		mock.ExpectQuery(selectProject).WithArgs(int64(5)).WillReturnRows(projectRow(5, 7))

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/projects/5", strings.NewReader(`{"title":"Mine"}`))
		h.Update(rec, as(8, withID(req, "5")))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("main_user and unknown fields are rejected", func(t *testing.T) {
		h, mock := newTestHandler(t)
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/projects/5", strings.NewReader(`{"main_user":8,"color":"red"}`))
		h.Update(rec, as(7, withID(req, "5")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "main_user")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("present fields are validated", func(t *testing.T) {
		h, mock := newTestHandler(t)
		mock.ExpectQuery(selectProject).WithArgs(int64(5)).WillReturnRows(projectRow(5, 7))
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPatch, "/projects/5", strings.NewReader(`{"url":"ftp://x","date_proj":null}`))
		h.Update(rec, as(7, withID(req, "5")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "url")
		assert.Contains(t, rec.Body.String(), "date_proj")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteProject(t *testing.T) {
	h, mock := newTestHandler(t)

	mock.ExpectQuery(selectProject).WithArgs(int64(5)).WillReturnRows(projectRow(5, 7))
	rec := httptest.NewRecorder()
	h.Delete(rec, as(8, withID(httptest.NewRequest(http.MethodDelete, "/projects/5", nil), "5")))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	mock.ExpectQuery(selectProject).WithArgs(int64(5)).WillReturnRows(projectRow(5, 7))
	mock.ExpectExec(`DELETE FROM projects WHERE id=\$1`).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	rec = httptest.NewRecorder()
	h.Delete(rec, as(7, withID(httptest.NewRequest(http.MethodDelete, "/projects/5", nil), "5")))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinProject(t *testing.T) {
	h, mock := newTestHandler(t)
	join := func() int {
		rec := httptest.NewRecorder()
		h.Join(rec, as(8, withID(httptest.NewRequest(http.MethodPost, "/projects/5/participants", nil), "5")))
		return rec.Code
	}

	mock.ExpectExec(`INSERT INTO project_users`).
		WithArgs(sqlmock.AnyArg(), int64(8), int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.Equal(t, http.StatusCreated, join())

	mock.ExpectExec(`INSERT INTO project_users`).WillReturnError(&pq.Error{Code: "23505"})
	assert.Equal(t, http.StatusOK, join())

	mock.ExpectExec(`INSERT INTO project_users`).WillReturnError(&pq.Error{Code: "23503"})
	assert.Equal(t, http.StatusNotFound, join())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListProjects(t *testing.T) {
	h, mock := newTestHandler(t)
	mock.ExpectQuery(`SELECT id, title, description, date_proj, url, main_user_id FROM projects ORDER BY id DESC LIMIT 2 OFFSET 4`).
		WillReturnRows(projectRow(5, 7))

	rec := httptest.NewRecorder()
	h.List(rec, as(7, httptest.NewRequest(http.MethodGet, "/projects?limit=2&offset=4", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []entity.Project
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 1)

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/projects", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParticipants(t *testing.T) {
	h, mock := newTestHandler(t)
	mock.ExpectQuery(selectProject).WithArgs(int64(5)).WillReturnRows(projectRow(5, 7))
	mock.ExpectQuery(`SELECT u.id, u.email, u.name, u.phone, u.age FROM users u JOIN project_users pu`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "phone", "age"}).
			AddRow(int64(8), "bob@example.com", "Bob", "", nil))

	rec := httptest.NewRecorder()
	h.Participants(rec, as(7, withID(httptest.NewRequest(http.MethodGet, "/projects/5/participants", nil), "5")))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bob@example.com")
	require.NoError(t, mock.ExpectationsWereMet())
}
