package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"splitmate/internal/models"
)

// memorySessions is an in-memory session.Store for pipeline tests.
type memorySessions struct {
	mu     sync.Mutex
	token  string
	user   *models.User
	cookie *http.Cookie
}

func (m *memorySessions) Save(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = s.Token
	m.user = s.User
	m.cookie = &http.Cookie{Name: "token", Value: s.Token}
	return nil
}

func (m *memorySessions) SaveToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.cookie = &http.Cookie{Name: "token", Value: token}
	return nil
}

func (m *memorySessions) SaveUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = u
	return nil
}

func (m *memorySessions) Token(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *memorySessions) User(ctx context.Context) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

func (m *memorySessions) Current(ctx context.Context) *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" || m.user == nil {
		return nil
	}
	return &models.Session{Token: m.token, User: m.user}
}

func (m *memorySessions) TokenCookie(ctx context.Context) *http.Cookie {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cookie
}

func (m *memorySessions) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = nil
	m.cookie = nil
	return nil
}

func newTestClient(t *testing.T, handler http.Handler, opts Options) (*Client, *memorySessions) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sessions := &memorySessions{}
	opts.BaseURL = server.URL + "/api"
	opts.Sessions = sessions

	client, err := New(opts)
	if err != nil {
		t.Fatalf("failed to build client: %v", err)
	}
	return client, sessions
}

func TestRequestsCarryBearerToken(t *testing.T) {
	var gotAuth string
	var gotRequestID string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-Id")
		json.NewEncoder(w).Encode(map[string]any{"data": &models.Balance{}})
	})

	client, sessions := newTestClient(t, handler, Options{})
	sessions.SaveToken(context.Background(), "tok-123")

	if _, err := client.Balance(context.Background()); err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Error("expected a request ID header")
	}
}

func TestNoBearerWithoutSession(t *testing.T) {
	var gotAuth string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{"data": &models.Balance{}})
	})

	client, _ := newTestClient(t, handler, Options{})

	if _, err := client.Balance(context.Background()); err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if gotAuth != "" {
		t.Errorf("expected no Authorization header, got %q", gotAuth)
	}
}

func TestRequestsCarryTokenCookie(t *testing.T) {
	var gotCookie string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("token"); err == nil {
			gotCookie = c.Value
		}
		json.NewEncoder(w).Encode(map[string]any{"data": &models.Balance{}})
	})

	client, sessions := newTestClient(t, handler, Options{})
	sessions.SaveToken(context.Background(), "tok-cookie")

	if _, err := client.Balance(context.Background()); err != nil {
		t.Fatalf("balance failed: %v", err)
	}
	if gotCookie != "tok-cookie" {
		t.Errorf("expected token cookie on request, got %q", gotCookie)
	}
}

func TestUnauthorizedClearsSessionAndFiresHookOnce(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"message": "jwt expired"})
	})

	hookCalls := 0
	client, sessions := newTestClient(t, handler, Options{
		OnUnauthorized: func() { hookCalls++ },
	})
	sessions.Save(context.Background(), &models.Session{
		Token: "stale-token",
		User:  &models.User{ID: "u1", Username: "alice"},
	})

	_, err := client.Balance(context.Background())
	if err == nil {
		t.Fatal("expected an error from the 401 response")
	}
	if !IsUnauthorized(err) {
		t.Errorf("expected an unauthorized error, got %v", err)
	}
	if sessions.Token(context.Background()) != "" {
		t.Error("expected the session to be cleared after a 401")
	}
	if sessions.User(context.Background()) != nil {
		t.Error("expected the stored user to be cleared after a 401")
	}
	if hookCalls != 1 {
		t.Errorf("expected the relogin hook to fire once, fired %d times", hookCalls)
	}
}

func TestErrorMessageExtraction(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantError string
	}{
		{
			name:      "server message is surfaced",
			status:    http.StatusBadRequest,
			body:      `{"message":"amount must be positive"}`,
			wantError: "amount must be positive",
		},
		{
			name:      "non JSON body falls back to status text",
			status:    http.StatusInternalServerError,
			body:      "<html>oops</html>",
			wantError: "server returned Internal Server Error",
		},
		{
			name:      "empty message falls back to status text",
			status:    http.StatusNotFound,
			body:      `{"message":""}`,
			wantError: "server returned Not Found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			client, _ := newTestClient(t, handler, Options{})

			_, err := client.Balance(context.Background())
			if err == nil {
				t.Fatal("expected an error")
			}

			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected an api error, got %T: %v", err, err)
			}
			if apiErr.Status != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, apiErr.Status)
			}
			if apiErr.Error() != tt.wantError {
				t.Errorf("expected error %q, got %q", tt.wantError, apiErr.Error())
			}
		})
	}
}

func TestListOptionsBecomeQueryParams(t *testing.T) {
	var gotQuery string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{
			"data":       []models.Group{},
			"pagination": Pagination{Page: 2, Pages: 5},
		})
	})

	client, _ := newTestClient(t, handler, Options{})

	_, page, err := client.Groups(context.Background(), ListOptions{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("groups failed: %v", err)
	}
	if gotQuery != "limit=10&page=2" {
		t.Errorf("unexpected query string %q", gotQuery)
	}
	if page.Page != 2 || page.Pages != 5 {
		t.Errorf("unexpected pagination %+v", page)
	}
}

func TestRequestPathsIncludeBasePath(t *testing.T) {
	var gotPath string

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode(map[string]any{"data": &models.Group{}})
	})

	client, _ := newTestClient(t, handler, Options{})

	if _, err := client.Group(context.Background(), "g1"); err != nil {
		t.Fatalf("group failed: %v", err)
	}
	if gotPath != "/api/groups/g1" {
		t.Errorf("expected the base path to prefix the route, got %q", gotPath)
	}
}

func TestHealth(t *testing.T) {
	t.Run("healthy backend", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		client, _ := newTestClient(t, handler, Options{})

		if err := client.Health(context.Background()); err != nil {
			t.Fatalf("expected a healthy probe, got %v", err)
		}
	})

	t.Run("failing backend", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		client, _ := newTestClient(t, handler, Options{})

		if err := client.Health(context.Background()); err == nil {
			t.Fatal("expected the probe to fail")
		}
	})
}
