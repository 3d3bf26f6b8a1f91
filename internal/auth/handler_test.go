package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zheli/invoice-bun/internal/logging"
	"github.com/zheli/invoice-bun/internal/ratelimit"
	"github.com/zheli/invoice-bun/internal/user"
)

type stubProvider struct {
	profile *Profile
	err     error
}

func (s *stubProvider) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (s *stubProvider) FetchProfile(ctx context.Context, code string) (*Profile, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.profile, nil
}

// unreachableLimiter returns a limiter whose redis backend is down; the
// handlers log the failure and let the request through
func unreachableLimiter() *ratelimit.Limiter {
	return ratelimit.NewLimiter(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}))
}

func newTestHandler(t *testing.T, provider IdentityProvider) (*Handler, sqlmock.Sqlmock) {
	t.Helper()

	db, mock := newServiceTestDB(t)
	svc := newTestService(t, db)

	h := NewHandler(svc, provider, unreachableLimiter(), logging.NewLogger(true), false, "http://localhost:5173")
	return h, mock
}

func TestHandler_AccessToken(t *testing.T) {
	h, mock := newTestHandler(t, &stubProvider{})

	userID := uuid.New()
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT (.+) FROM "users"(.+)email = 'a@example.com'`).
		WillReturnRows(userRow(userID, "a@example.com", hash, true))

	form := url.Values{"username": {"a@example.com"}, "password": {"s3cret"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/access-token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	h.AccessToken(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"access_token"`)
	assert.Contains(t, rec.Body.String(), `"token_type":"bearer"`)
}

func TestHandler_AccessToken_BadCredentials(t *testing.T) {
	h, mock := newTestHandler(t, &stubProvider{})

	mock.ExpectQuery(`SELECT (.+) FROM "users"`).
		WillReturnRows(sqlmock.NewRows(userColumns))

	form := url.Values{"username": {"a@example.com"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/access-token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	h.AccessToken(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "incorrect email or password")
}

func TestHandler_GoogleLogin(t *testing.T) {
	h, _ := newTestHandler(t, &stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/auth/google/login", nil)
	rec := httptest.NewRecorder()
	h.GoogleLogin(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)

	var stateCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "oauth_state" {
			stateCookie = c
		}
	}
	require.NotNil(t, stateCookie)
	assert.NotEmpty(t, stateCookie.Value)
	assert.True(t, stateCookie.HttpOnly)

	location := rec.Header().Get("Location")
	assert.Contains(t, location, "state="+stateCookie.Value)
}

func TestHandler_GoogleCallback(t *testing.T) {
	h, mock := newTestHandler(t, &stubProvider{
		profile: &Profile{ID: "109876", Email: "a@example.com"},
	})

	userID := uuid.New()
	mock.ExpectQuery(`SELECT (.+) FROM "users"(.+)email = 'a@example.com'`).
		WillReturnRows(userRow(userID, "a@example.com", "hash", true))

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=abc123&code=thecode", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "abc123"})

	rec := httptest.NewRecorder()
	h.GoogleCallback(rec, req)

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "http://localhost:5173/auth/callback?token="))
}

func TestHandler_GoogleCallback_StateMismatch(t *testing.T) {
	h, _ := newTestHandler(t, &stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?state=abc123&code=thecode", nil)
	req.AddCookie(&http.Cookie{Name: "oauth_state", Value: "different"})

	rec := httptest.NewRecorder()
	h.GoogleCallback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid oauth state")
}

func TestHandler_GoogleCallback_ProviderError(t *testing.T) {
	h, _ := newTestHandler(t, &stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?error=access_denied", nil)
	rec := httptest.NewRecorder()
	h.GoogleCallback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "login was not completed")
}

func TestHandler_CreateUser(t *testing.T) {
	h, mock := newTestHandler(t, &stubProvider{})

	userID := uuid.New()
	now := time.Now()
	mock.ExpectQuery(`INSERT INTO "users"(.+)RETURNING \*`).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(userID.String(), "new@example.com", "hash", "New User", nil, nil, nil, true, false, now, now))

	body := `{"email": "new@example.com", "password": "s3cret", "full_name": "New User"}`
	req := httptest.NewRequest(http.MethodPost, "/users/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.CreateUser(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), userID.String())
	assert.NotContains(t, rec.Body.String(), "hashed_password")
}

func TestHandler_CreateUser_DuplicateEmail(t *testing.T) {
	h, mock := newTestHandler(t, &stubProvider{})

	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(errors.New(`pq: duplicate key value violates unique constraint "users_email_key"`))

	body := `{"email": "taken@example.com", "password": "s3cret"}`
	req := httptest.NewRequest(http.MethodPost, "/users/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	h.CreateUser(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
}

func TestHandler_Me(t *testing.T) {
	h, _ := newTestHandler(t, &stubProvider{})

	currentUser := &user.User{ID: uuid.New(), Email: "me@example.com", IsActive: true}
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req = req.WithContext(NewContextWithUser(req.Context(), currentUser))

	rec := httptest.NewRecorder()
	h.Me(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), currentUser.Email)
}

func TestHandler_Me_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t, &stubProvider{})

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	assert.Equal(t, "10.0.0.1", getClientIP(req))

	req.Header.Set("X-Real-IP", "192.168.1.2")
	assert.Equal(t, "192.168.1.2", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", getClientIP(req))
}
