package httptransport_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/ErlanBelekov/task-tracker/internal/apperr"
	"github.com/ErlanBelekov/task-tracker/internal/auth"
	"github.com/ErlanBelekov/task-tracker/internal/domain"
	"github.com/ErlanBelekov/task-tracker/internal/health"
	httptransport "github.com/ErlanBelekov/task-tracker/internal/transport/http"
	"github.com/ErlanBelekov/task-tracker/internal/transport/http/handler"
	"github.com/ErlanBelekov/task-tracker/internal/transport/http/response"
	"github.com/ErlanBelekov/task-tracker/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testKey = "router-test-secret-at-least-32-chars"

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Data json.RawMessage `json:"data"`
	Msg  string          `json:"msg"`
	Code int             `json:"code"`
}

func (e envelope) null() bool {
	return len(e.Data) == 0 || string(e.Data) == "null"
}

type taskBody struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	OwnerID     int64   `json:"owner_id"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	store  *memStore
	tokens *auth.Tokens
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := newMemStore()
	tokens := auth.NewTokens([]byte(testKey), time.Hour)

	errs := response.NewErrors(logger, false)
	pipeline := handler.NewPipeline(tokens, errs)
	authUC := usecase.NewAuthUsecase(memUsers{store}, auth.NewPasswords(bcrypt.MinCost), tokens)
	taskUC := usecase.NewTaskUsecase(memTasks{store}, memUsers{store})
	checker := health.NewChecker("postgres", store, logger, prometheus.NewRegistry())

	engine := httptransport.NewRouter(logger, errs, httptransport.Handlers{
		Auth:   handler.NewAuthHandler(authUC, pipeline),
		Tasks:  handler.NewTaskHandler(taskUC, pipeline),
		Health: handler.NewHealthHandler(checker, errs),
	})
	return &testServer{t: t, engine: engine, store: store, tokens: tokens}
}

// user inserts a user straight into the store and returns a bearer header for it.
func (s *testServer) user(name string, role domain.Role) (int64, string) {
	s.t.Helper()
	id, err := memUsers{s.store}.Create(context.Background(), &domain.User{Username: name, Role: role})
	require.NoError(s.t, err)
	tok, err := s.tokens.Issue(&domain.User{ID: id, Role: role})
	require.NoError(s.t, err)
	return id, "Bearer " + tok
}

func (s *testServer) do(method, path, authz, body string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	assertEnvelopeInvariant(s.t, method, w.Code, env)
	return w, env
}

// assertEnvelopeInvariant checks code == 0 exactly when data is present,
// except for delete which succeeds with null data.
func assertEnvelopeInvariant(t *testing.T, method string, status int, env envelope) {
	t.Helper()
	if env.Code == 0 {
		assert.Less(t, status, 400)
		if method != http.MethodDelete {
			assert.False(t, env.null(), "success without data")
		}
		return
	}
	assert.GreaterOrEqual(t, status, 400)
	assert.True(t, env.null(), "failure with data: %s", env.Data)
	assert.NotEqual(t, status, env.Code)
}

func (s *testServer) createTask(authz, body string) taskBody {
	s.t.Helper()
	w, env := s.do(http.MethodPost, "/tasks", authz, body)
	require.Equal(s.t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	var tb taskBody
	require.NoError(s.t, json.Unmarshal(env.Data, &tb))
	return tb
}

func taskPath(id int64) string { return "/tasks/" + strconv.FormatInt(id, 10) }

func TestProtectedRoutes_MissingAuthorization_401(t *testing.T) {
	s := newTestServer(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/tasks"},
		{http.MethodPost, "/tasks"},
		{http.MethodGet, "/tasks/1"},
		{http.MethodPut, "/tasks/1"},
		{http.MethodDelete, "/tasks/1"},
		{http.MethodGet, "/users/1/tasks"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			w, env := s.do(rt.method, rt.path, "", `{"title":"x"}`)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, apperr.KindUnauthenticated.Code(), env.Code)
		})
	}
}

func TestProtectedRoutes_InvalidToken_403(t *testing.T) {
	s := newTestServer(t)
	w, env := s.do(http.MethodGet, "/tasks", "Bearer not.a.token", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperr.KindInvalidCredential.Code(), env.Code)
}

func TestCreateThenGet_RoundTrip(t *testing.T) {
	s := newTestServer(t)
	aliceID, alice := s.user("alice", domain.RoleUser)

	created := s.createTask(alice, `{"title":"T"}`)

	w, env := s.do(http.MethodGet, taskPath(created.ID), alice, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got taskBody
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "T", got.Title)
	assert.Equal(t, "pending", got.Status)
	assert.Equal(t, aliceID, got.OwnerID)
	assert.Nil(t, got.Description)
}

func TestList_ScopedForUsers(t *testing.T) {
	s := newTestServer(t)
	aliceID, alice := s.user("alice", domain.RoleUser)
	_, bob := s.user("bob", domain.RoleUser)
	_, admin := s.user("root", domain.RoleAdmin)

	s.createTask(alice, `{"title":"a1"}`)
	s.createTask(alice, `{"title":"a2"}`)
	s.createTask(bob, `{"title":"b1"}`)

	_, env := s.do(http.MethodGet, "/tasks", alice, "")
	var mine []taskBody
	require.NoError(t, json.Unmarshal(env.Data, &mine))
	require.Len(t, mine, 2)
	for _, tb := range mine {
		assert.Equal(t, aliceID, tb.OwnerID)
	}

	_, env = s.do(http.MethodGet, "/tasks", admin, "")
	var all []taskBody
	require.NoError(t, json.Unmarshal(env.Data, &all))
	assert.Len(t, all, 3)
}

func TestList_EmptyIsArray(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.user("alice", domain.RoleUser)

	w, env := s.do(http.MethodGet, "/tasks", alice, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestForeignTask_Forbidden_NotNotFound(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.user("alice", domain.RoleUser)
	_, bob := s.user("bob", domain.RoleUser)
	task := s.createTask(alice, `{"title":"private"}`)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w, env := s.do(method, taskPath(task.ID), bob, `{"title":"hijack"}`)
		assert.Equal(t, http.StatusForbidden, w.Code, method)
		assert.Equal(t, apperr.KindForbidden.Code(), env.Code, method)
		assert.Equal(t, "forbidden", env.Msg, method)
	}

	// authorization runs before validation
	w, _ := s.do(http.MethodPut, taskPath(task.ID), bob, `{"status":"bogus"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodPut, taskPath(task.ID), bob, `{}`)
	assert.Equal(t, http.StatusForbidden, w.Code, "empty update is rejected after authorization")

	_, env := s.do(http.MethodGet, taskPath(task.ID), alice, "")
	var tb taskBody
	require.NoError(t, json.Unmarshal(env.Data, &tb))
	assert.Equal(t, "private", tb.Title, "non-owner must not have modified the task")
}

func TestAdmin_CanActOnAnyTask(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.user("alice", domain.RoleUser)
	_, admin := s.user("root", domain.RoleAdmin)
	task := s.createTask(alice, `{"title":"t"}`)

	w, _ := s.do(http.MethodPut, taskPath(task.ID), admin, `{"status":3}`)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(http.MethodDelete, taskPath(task.ID), admin, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNonexistentTask_NotFoundForEveryone(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.user("alice", domain.RoleUser)
	_, admin := s.user("root", domain.RoleAdmin)

	for _, authz := range []string{alice, admin} {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			w, env := s.do(method, "/tasks/9999", authz, `{"title":"x"}`)
			assert.Equal(t, http.StatusNotFound, w.Code, method)
			assert.Equal(t, apperr.KindNotFound.Code(), env.Code, method)
		}
	}
}

func TestDelete_EnvelopeThenRepeated404(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.user("alice", domain.RoleUser)
	task := s.createTask(alice, `{"title":"t"}`)

	w, env := s.do(http.MethodDelete, taskPath(task.ID), alice, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, env.Code)
	assert.True(t, env.null(), "delete success carries null data")
	assert.Equal(t, "task deleted", env.Msg)

	w, env = s.do(http.MethodDelete, taskPath(task.ID), alice, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperr.KindNotFound.Code(), env.Code)
}

func TestUpdate_StatusNormalization(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.user("alice", domain.RoleUser)
	task := s.createTask(alice, `{"title":"t"}`)

	tests := []struct {
		body   string
		status int
		want   string
	}{
		{`{"status":1}`, http.StatusOK, "pending"},
		{`{"status":2}`, http.StatusOK, "in_progress"},
		{`{"status":3}`, http.StatusOK, "completed"},
		{`{"status":"pending"}`, http.StatusOK, "pending"},
		{`{"status":"in_progress"}`, http.StatusOK, "in_progress"},
		{`{"status":"completed"}`, http.StatusOK, "completed"},
		{`{"status":4}`, http.StatusBadRequest, "4"},
		{`{"status":"bogus"}`, http.StatusBadRequest, "bogus"},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			w, env := s.do(http.MethodPut, taskPath(task.ID), alice, tt.body)
			require.Equal(t, tt.status, w.Code, "body: %s", w.Body.String())
			if tt.status != http.StatusOK {
				assert.Equal(t, apperr.KindValidation.Code(), env.Code)
				assert.Contains(t, env.Msg, tt.want)
				return
			}
			var tb taskBody
			require.NoError(t, json.Unmarshal(env.Data, &tb))
			assert.Equal(t, tt.want, tb.Status)
		})
	}
}

func TestValidationFailures_400(t *testing.T) {
	s := newTestServer(t)
	_, alice := s.user("alice", domain.RoleUser)
	task := s.createTask(alice, `{"title":"t"}`)

	cases := []struct{ name, method, path, body string }{
		{"malformed json", http.MethodPost, "/tasks", `{"title":`},
		{"array body", http.MethodPost, "/tasks", `[]`},
		{"missing title", http.MethodPost, "/tasks", `{"description":"d"}`},
		{"blank title", http.MethodPost, "/tasks", `{"title":"   "}`},
		{"empty update", http.MethodPut, taskPath(task.ID), `{}`},
		{"non numeric id", http.MethodGet, "/tasks/abc", ""},
		{"zero id", http.MethodDelete, "/tasks/0", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, env := s.do(tc.method, tc.path, alice, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, apperr.KindValidation.Code(), env.Code)
		})
	}

	_, env := s.do(http.MethodPut, taskPath(task.ID), alice, `{}`)
	assert.Equal(t, "no update data provided", env.Msg)
}

func TestListByOwner(t *testing.T) {
	s := newTestServer(t)
	aliceID, alice := s.user("alice", domain.RoleUser)
	_, admin := s.user("root", domain.RoleAdmin)
	s.createTask(alice, `{"title":"a1"}`)

	w, _ := s.do(http.MethodGet, "/users/"+strconv.FormatInt(aliceID, 10)+"/tasks", alice, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(http.MethodGet, "/users/999/tasks", admin, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env := s.do(http.MethodGet, "/users/"+strconv.FormatInt(aliceID, 10)+"/tasks", admin, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got []taskBody
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Len(t, got, 1)
	assert.Equal(t, aliceID, got[0].OwnerID)
}

func TestRegisterAndLogin(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodPost, "/auth/register", "", `{"username":"carol","password":"s3cret"}`)
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())
	assert.JSONEq(t, `{"id":1}`, string(env.Data))

	w, env = s.do(http.MethodPost, "/auth/register", "", `{"username":"carol","password":"other"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, apperr.KindConflict.Code(), env.Code)

	w, env = s.do(http.MethodPost, "/auth/register", "", `{"username":"dave","password":"pw","role":"root"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Msg, "role")

	longPassword := strings.Repeat("é", 40)
	w, env = s.do(http.MethodPost, "/auth/register", "", `{"username":"erin","password":"`+longPassword+`"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, apperr.KindValidation.Code(), env.Code)
	assert.Contains(t, env.Msg, "72 bytes")

	w, env = s.do(http.MethodPost, "/auth/login", "", `{"username":"carol","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperr.KindBadCredentials.Code(), env.Code)

	w, _ = s.do(http.MethodPost, "/auth/login", "", `{"username":"carol"`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.do(http.MethodPost, "/auth/login", "", `{"username":"carol","password":"s3cret"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)

	w, _ = s.do(http.MethodGet, "/tasks", "Bearer "+login.Token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFallbacks_UseEnvelope(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, apperr.KindNotFound.Code(), env.Code)

	w, env = s.do(http.MethodPatch, "/tasks/1", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, apperr.KindMethodNotAllowed.Code(), env.Code)

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		w, env = s.do(method, "/tasks/", "", "")
		assert.Equal(t, http.StatusNotFound, w.Code, method)
		assert.Equal(t, apperr.KindNotFound.Code(), env.Code, method)
		assert.Empty(t, w.Header().Get("Location"), method)
	}
}

func TestPanic_RecoveredAsInternal(t *testing.T) {
	s := newTestServer(t)
	s.engine.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w, env := s.do(http.MethodGet, "/boom", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperr.KindInternal.Code(), env.Code)
	assert.Equal(t, apperr.GenericMessage, env.Msg)
	assert.NotContains(t, w.Body.String(), "kaboom")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"postgres"`)

	s.store.pingErr = errors.New("connection refused")
	w, env = s.do(http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, apperr.KindUnavailable.Code(), env.Code)
}
