package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/opentally/tasklist/internal/tasklist/service"
	"github.com/opentally/tasklist/internal/tasklist/store/drivers/sqlite"
	"github.com/opentally/tasklist/pkg/jwtx"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)",
		filepath.Join(t.TempDir(), "test.db"),
	)
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	codec, err := jwtx.NewCodec([]byte("router-test-secret"))
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	router := NewRouter("test", st, logger)
	router.AuthService = &service.AuthService{Store: st, Codec: codec, BcryptCost: 4}
	router.TaskService = &service.TaskService{Store: st}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, token string, body any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(AuthHeader, token)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// signup registers a user and returns the session token from the X-Auth
// response header.
func signup(t *testing.T, srv *httptest.Server, email, password string) string {
	t.Helper()

	resp := doJSON(t, srv, http.MethodPost, "/v1/users", "",
		map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	token := resp.Header.Get(AuthHeader)
	require.NotEmpty(t, token)
	return token
}

func TestSignupEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/v1/users", "",
		map[string]string{"email": "a@b.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, resp.Header.Get(AuthHeader), "token travels in the header")
	require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	body := decodeBody(t, resp)
	require.Equal(t, "a@b.com", body["email"])
	require.NotEmpty(t, body["id"])
	require.NotContains(t, body, "password_hash")
	require.NotContains(t, body, "passwordHash")
}

func TestSignupEndpoint_Errors(t *testing.T) {
	srv := newTestServer(t)
	signup(t, srv, "a@b.com", "secret1")

	t.Run("duplicate email", func(t *testing.T) {
		resp := doJSON(t, srv, http.MethodPost, "/v1/users", "",
			map[string]string{"email": "a@b.com", "password": "different"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "duplicate_email", decodeBody(t, resp)["error"])
	})

	t.Run("invalid email", func(t *testing.T) {
		resp := doJSON(t, srv, http.MethodPost, "/v1/users", "",
			map[string]string{"email": "not-an-email", "password": "secret1"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "invalid_request", decodeBody(t, resp)["error"])
	})

	t.Run("short password", func(t *testing.T) {
		resp := doJSON(t, srv, http.MethodPost, "/v1/users", "",
			map[string]string{"email": "c@d.com", "password": "123"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "invalid_request", decodeBody(t, resp)["error"])
	})

	t.Run("malformed body", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/users",
			bytes.NewBufferString("{not json"))
		require.NoError(t, err)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLoginEndpoint(t *testing.T) {
	srv := newTestServer(t)
	signupToken := signup(t, srv, "a@b.com", "secret1")

	t.Run("correct credentials", func(t *testing.T) {
		resp := doJSON(t, srv, http.MethodPost, "/v1/users/login", "",
			map[string]string{"email": "a@b.com", "password": "secret1"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		token := resp.Header.Get(AuthHeader)
		require.NotEmpty(t, token)
		require.NotEqual(t, signupToken, token)
		require.Equal(t, "a@b.com", decodeBody(t, resp)["email"])
	})

	t.Run("wrong password", func(t *testing.T) {
		resp := doJSON(t, srv, http.MethodPost, "/v1/users/login", "",
			map[string]string{"email": "a@b.com", "password": "wrong"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "invalid_credentials", decodeBody(t, resp)["error"])
	})

	t.Run("unknown email looks identical", func(t *testing.T) {
		resp := doJSON(t, srv, http.MethodPost, "/v1/users/login", "",
			map[string]string{"email": "nobody@b.com", "password": "secret1"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "invalid_credentials", decodeBody(t, resp)["error"])
	})
}

func TestAuthnMiddleware_Rejections(t *testing.T) {
	srv := newTestServer(t)
	signup(t, srv, "a@b.com", "secret1")

	tests := []struct {
		name  string
		token string
	}{
		{"missing header", ""},
		{"garbage token", "garbage"},
		{"structurally plausible token", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0.bm9wZQ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, srv, http.MethodGet, "/v1/users/me", tt.token, nil)
			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			require.Empty(t, body, "401 carries no body")
		})
	}
}

func TestMeEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := signup(t, srv, "a@b.com", "secret1")

	resp := doJSON(t, srv, http.MethodGet, "/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, "a@b.com", body["email"])
	require.NotContains(t, body, "password_hash")
}

func TestLogoutEndpoint(t *testing.T) {
	srv := newTestServer(t)
	token := signup(t, srv, "a@b.com", "secret1")

	resp := doJSON(t, srv, http.MethodDelete, "/v1/users/me/token", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The revoked token no longer authenticates anything.
	resp = doJSON(t, srv, http.MethodGet, "/v1/users/me", token, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// And logging out with it again is itself a 401 now.
	resp = doJSON(t, srv, http.MethodDelete, "/v1/users/me/token", token, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTaskEndpoints(t *testing.T) {
	srv := newTestServer(t)
	token := signup(t, srv, "a@b.com", "secret1")

	var taskID string

	t.Run("create", func(t *testing.T) {
		resp := doJSON(t, srv, http.MethodPost, "/v1/tasks", token,
			map[string]string{"text": "buy milk"})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		body := decodeBody(t, resp)
		require.Equal(t, "buy milk", body["text"])
		require.Equal(t, false, body["completed"])
		taskID = body["id"].(string)
		require.NotEmpty(t, taskID)
	})

	t.Run("create without text", func(t *testing.T) {
		resp := doJSON(t, srv, http.MethodPost, "/v1/tasks", token,
			map[string]string{"text": "  "})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "invalid_request", decodeBody(t, resp)["error"])
	})

	t.Run("list", func(t *testing.T) {
		resp := doJSON(t, srv, http.MethodGet, "/v1/tasks", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		tasks := body["tasks"].([]any)
		require.Len(t, tasks, 1)
	})

	t.Run("get", func(t *testing.T) {
		resp := doJSON(t, srv, http.MethodGet, "/v1/tasks/"+taskID, token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "buy milk", decodeBody(t, resp)["text"])
	})

	t.Run("complete", func(t *testing.T) {
		resp := doJSON(t, srv, http.MethodPatch, "/v1/tasks/"+taskID, token,
			map[string]any{"completed": true})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		require.Equal(t, true, body["completed"])
		require.NotEmpty(t, body["completed_at"])
	})

	t.Run("uncomplete clears timestamp", func(t *testing.T) {
		resp := doJSON(t, srv, http.MethodPatch, "/v1/tasks/"+taskID, token,
			map[string]any{"completed": false})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		require.Equal(t, false, body["completed"])
		require.Nil(t, body["completed_at"])
	})

	t.Run("unknown id", func(t *testing.T) {
		resp := doJSON(t, srv, http.MethodGet, "/v1/tasks/does-not-exist", token, nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		require.Equal(t, "not_found", decodeBody(t, resp)["error"])
	})

	t.Run("delete", func(t *testing.T) {
		resp := doJSON(t, srv, http.MethodDelete, "/v1/tasks/"+taskID, token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = doJSON(t, srv, http.MethodGet, "/v1/tasks/"+taskID, token, nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestTaskEndpoints_ScopedToCaller(t *testing.T) {
	srv := newTestServer(t)
	alice := signup(t, srv, "alice@example.com", "secret1")
	bob := signup(t, srv, "bob@example.com", "secret1")

	resp := doJSON(t, srv, http.MethodPost, "/v1/tasks", alice,
		map[string]string{"text": "private"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	taskID := decodeBody(t, resp)["id"].(string)

	// Another user cannot see, modify, or delete it.
	resp = doJSON(t, srv, http.MethodGet, "/v1/tasks/"+taskID, bob, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodDelete, "/v1/tasks/"+taskID, bob, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodGet, "/v1/tasks", bob, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, decodeBody(t, resp)["tasks"])

	resp = doJSON(t, srv, http.MethodGet, "/v1/tasks", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decodeBody(t, resp)["tasks"], 1)
}

func TestTaskEndpoints_RequireAuth(t *testing.T) {
	srv := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/v1/tasks"},
		{http.MethodGet, "/v1/tasks"},
		{http.MethodGet, "/v1/tasks/some-id"},
		{http.MethodPatch, "/v1/tasks/some-id"},
		{http.MethodDelete, "/v1/tasks/some-id"},
	} {
		resp := doJSON(t, srv, tc.method, tc.path, "", nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "%s %s", tc.method, tc.path)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, srv, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", decodeBody(t, resp)["status"])

	resp = doJSON(t, srv, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", decodeBody(t, resp)["status"])
}
