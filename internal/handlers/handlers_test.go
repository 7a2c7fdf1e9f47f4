package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/services"
)

const (
	userID  = "6f1c2b0e-4f5e-4a3b-9c1d-2e3f4a5b6c7d"
	videoID = "0b7f8c1e-2d3a-4b5c-8d9e-0f1a2b3c4d5e"
)

type stubVerifier struct{}

func (stubVerifier) VerifyAccess(token string) (auth.Identity, error) {
	if token != "good" {
		return auth.Identity{}, apperr.Unauthenticated("invalid access token")
	}
	return auth.Identity{UserID: userID, UserName: "alice"}, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

// Embedded interfaces panic if a test reaches a method it did not stub.
type stubAccounts struct {
	AccountService
	register  func(in services.RegisterInput) (models.User, error)
	login     func(in services.LoginInput) (models.User, models.SessionTokens, error)
	refresh   func(token string) (models.SessionTokens, error)
	loggedOut string
	reset     map[string]string
}

func (s *stubAccounts) CheckResetToken(_ context.Context, tok auth.ActionToken) error {
	if tok.Token != "live" {
		return apperr.Expired("link expired")
	}
	return nil
}

func (s *stubAccounts) ResetPassword(_ context.Context, tok auth.ActionToken, newPassword string) error {
	if s.reset == nil {
		s.reset = map[string]string{}
	}
	s.reset[tok.Token] = newPassword
	return nil
}

func (s *stubAccounts) Register(_ context.Context, in services.RegisterInput) (models.User, error) {
	return s.register(in)
}

func (s *stubAccounts) Login(_ context.Context, in services.LoginInput) (models.User, models.SessionTokens, error) {
	return s.login(in)
}

func (s *stubAccounts) Refresh(_ context.Context, token string) (models.SessionTokens, error) {
	return s.refresh(token)
}

func (s *stubAccounts) Logout(_ context.Context, id string) error {
	s.loggedOut = id
	return nil
}

type stubVideos struct {
	VideoService
	lastQuery services.VideoQuery
}

func (s *stubVideos) ListPublished(_ context.Context, q services.VideoQuery) ([]models.Video, error) {
	s.lastQuery = q
	return []models.Video{{ID: videoID, Title: "Cats"}}, nil
}

type stubChannels struct {
	ChannelViews
	history []models.Video
}

func (s stubChannels) WatchHistory(context.Context, string) ([]models.Video, error) {
	return s.history, nil
}

type stubLikes struct {
	LikeService
	liked bool
}

func (s *stubLikes) Toggle(_ context.Context, _ string, _ models.LikeTarget, _ string) (bool, error) {
	s.liked = !s.liked
	return s.liked, nil
}

type stubPlaylists struct {
	PlaylistService
}

func (stubPlaylists) Delete(context.Context, string, string) error {
	return apperr.Forbidden("only the owner can delete this playlist")
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Errors     json.RawMessage `json:"errors"`
	Success    bool            `json:"success"`
}

func newTestRouter(deps Dependencies) http.Handler {
	deps.Verifier = stubVerifier{}
	deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	deps.CookieSecure = true
	return NewRouter(deps)
}

func serve(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec, env
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer good")
	return req
}

func TestHealthHandler(t *testing.T) {
	router := newTestRouter(Dependencies{DB: stubPinger{}})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected json content type got %s", got)
	}

	router = newTestRouter(Dependencies{DB: stubPinger{err: errors.New("connection refused")}})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(Dependencies{})

	rec, env := serve(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/stats", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if env.Success {
		t.Fatal("expected failure envelope")
	}
}

func TestLoginSetsSessionCookies(t *testing.T) {
	expires := time.Now().Add(time.Hour)
	accounts := &stubAccounts{login: func(in services.LoginInput) (models.User, models.SessionTokens, error) {
		if in.UserName != "alice" || in.Password != "password1" {
			t.Fatalf("unexpected login input %+v", in)
		}
		return models.User{ID: userID, UserName: "alice"}, models.SessionTokens{
			AccessToken: "access", AccessExpiresAt: expires, RefreshToken: "refresh", RefreshExpiresAt: expires,
		}, nil
	}}
	router := newTestRouter(Dependencies{Accounts: accounts})

	body := strings.NewReader(`{"userName":"alice","password":"password1"}`)
	rec, env := serve(t, router, httptest.NewRequest(http.MethodPost, "/api/v1/users/login", body))
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("expected successful login, got %d %+v", rec.Code, env)
	}

	cookies := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	for name, want := range map[string]string{"accessToken": "access", "refreshToken": "refresh"} {
		c, ok := cookies[name]
		if !ok {
			t.Fatalf("expected %s cookie", name)
		}
		if c.Value != want || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
			t.Fatalf("unexpected %s cookie %+v", name, c)
		}
	}

	var data sessionResponse
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.AccessToken != "access" || data.User.UserName != "alice" {
		t.Fatalf("unexpected session payload %+v", data)
	}
}

func TestLoginValidation(t *testing.T) {
	router := newTestRouter(Dependencies{Accounts: &stubAccounts{}})

	rec, env := serve(t, router, httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(`{"email":"alice@example.com"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	var fields map[string]string
	if err := json.Unmarshal(env.Errors, &fields); err != nil {
		t.Fatalf("decode errors: %v", err)
	}
	if fields["password"] == "" {
		t.Fatalf("expected password field error, got %v", fields)
	}

	rec, _ = serve(t, router, httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(`{not json`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body got %d", rec.Code)
	}
}

func TestLoginUnverifiedAccount(t *testing.T) {
	accounts := &stubAccounts{login: func(services.LoginInput) (models.User, models.SessionTokens, error) {
		return models.User{}, models.SessionTokens{}, apperr.Unauthenticated("verify your account before logging in")
	}}
	router := newTestRouter(Dependencies{Accounts: accounts})

	rec, env := serve(t, router, httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(`{"email":"a@example.com","password":"password1"}`)))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	if !strings.Contains(env.Message, "verify your account") {
		t.Fatalf("unexpected message %q", env.Message)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("expected no cookies on failed login")
	}
}

func TestRefreshReadsCookieThenBody(t *testing.T) {
	var seen []string
	accounts := &stubAccounts{refresh: func(token string) (models.SessionTokens, error) {
		seen = append(seen, token)
		return models.SessionTokens{AccessToken: "a2", RefreshToken: "r2"}, nil
	}}
	router := newTestRouter(Dependencies{Accounts: accounts})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", nil)
	req.AddCookie(&http.Cookie{Name: RefreshTokenCookie, Value: "from-cookie"})
	if rec, _ := serve(t, router, req); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", strings.NewReader(`{"refreshToken":"from-body"}`))
	if rec, _ := serve(t, router, req); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	if len(seen) != 2 || seen[0] != "from-cookie" || seen[1] != "from-body" {
		t.Fatalf("unexpected tokens %v", seen)
	}
}

func TestLogoutClearsCookies(t *testing.T) {
	accounts := &stubAccounts{}
	router := newTestRouter(Dependencies{Accounts: accounts})

	rec, _ := serve(t, router, authed(httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if accounts.loggedOut != userID {
		t.Fatalf("expected logout for %s got %q", userID, accounts.loggedOut)
	}
	cleared := 0
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 && c.Value == "" {
			cleared++
		}
	}
	if cleared != 2 {
		t.Fatalf("expected both cookies cleared, got %d", cleared)
	}
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.WriteString(fw, content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestRegisterStagesUploads(t *testing.T) {
	dir := t.TempDir()
	var staged services.RegisterInput
	accounts := &stubAccounts{register: func(in services.RegisterInput) (models.User, error) {
		staged = in
		data, err := os.ReadFile(in.AvatarPath)
		if err != nil {
			t.Fatalf("staged avatar unreadable: %v", err)
		}
		if string(data) != "avatar-bytes" {
			t.Fatalf("unexpected avatar content %q", data)
		}
		return models.User{ID: userID, UserName: in.UserName}, nil
	}}
	router := newTestRouter(Dependencies{Accounts: accounts, Uploads: Uploads{Dir: dir, MaxBytes: 1 << 20}})

	body, contentType := multipartBody(t,
		map[string]string{"fullName": "Alice", "userName": "alice", "email": "alice@example.com", "password": "password1"},
		map[string]string{"avatar": "avatar-bytes"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)

	rec, env := serve(t, router, req)
	if rec.Code != http.StatusCreated || !env.Success {
		t.Fatalf("expected 201 got %d %+v", rec.Code, env)
	}
	if staged.CoverPath != "" {
		t.Fatalf("expected no cover path, got %q", staged.CoverPath)
	}
	if !strings.HasPrefix(staged.AvatarPath, dir) || !strings.HasSuffix(staged.AvatarPath, ".png") {
		t.Fatalf("unexpected staged path %q", staged.AvatarPath)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected staged files removed, found %d", len(entries))
	}
}

func TestRegisterRequiresAvatar(t *testing.T) {
	router := newTestRouter(Dependencies{Accounts: &stubAccounts{}, Uploads: Uploads{Dir: t.TempDir()}})

	body, contentType := multipartBody(t,
		map[string]string{"fullName": "Alice", "userName": "alice", "email": "alice@example.com", "password": "password1"},
		nil,
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)

	rec, env := serve(t, router, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if env.Message != "avatar file is required" {
		t.Fatalf("unexpected message %q", env.Message)
	}
}

func TestListPublishedParsesQuery(t *testing.T) {
	videos := &stubVideos{}
	router := newTestRouter(Dependencies{Videos: videos})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/videos/all-video?page=2&limit=5&query=cats&sortBy=views&sortType=asc&userId="+userID, nil)
	rec, _ := serve(t, router, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	q := videos.lastQuery
	if q.Page.Page != 2 || q.Page.Limit != 5 || q.Query != "cats" || q.SortBy != "views" || q.SortType != "asc" || q.UserID != userID {
		t.Fatalf("unexpected query %+v", q)
	}

	rec, _ = serve(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/videos/all-video?userId=nope", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed userId got %d", rec.Code)
	}
	rec, _ = serve(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/videos/all-video?page=0", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for page 0 got %d", rec.Code)
	}
}

func TestToggleLikeMessages(t *testing.T) {
	router := newTestRouter(Dependencies{Likes: &stubLikes{}})

	for _, want := range []string{"Liked", "Disliked"} {
		rec, env := serve(t, router, authed(httptest.NewRequest(http.MethodPost, "/api/v1/likes/toggle/v/"+videoID, nil)))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 got %d", rec.Code)
		}
		if env.Message != want {
			t.Fatalf("expected message %q got %q", want, env.Message)
		}
	}

	rec, _ := serve(t, router, authed(httptest.NewRequest(http.MethodPost, "/api/v1/likes/toggle/v/not-a-uuid", nil)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id got %d", rec.Code)
	}
}

func TestForbiddenMapsTo403(t *testing.T) {
	router := newTestRouter(Dependencies{Playlists: stubPlaylists{}})

	rec, env := serve(t, router, authed(httptest.NewRequest(http.MethodDelete, "/api/v1/playlists/"+videoID, nil)))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
	if env.StatusCode != http.StatusForbidden || env.Success {
		t.Fatalf("unexpected envelope %+v", env)
	}
}

func TestWatchHistoryPaginates(t *testing.T) {
	history := make([]models.Video, 25)
	for i := range history {
		history[i] = models.Video{Title: fmt.Sprintf("video-%02d", i)}
	}
	router := newTestRouter(Dependencies{Channels: stubChannels{history: history}})

	rec, env := serve(t, router, authed(httptest.NewRequest(http.MethodGet, "/api/v1/users/watch-history?page=3&limit=10", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var got []models.Video
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(got) != 5 || got[0].Title != "video-20" || got[4].Title != "video-24" {
		t.Fatalf("unexpected page %+v", got)
	}
}

func TestResetLinkOpensThenAcceptsPassword(t *testing.T) {
	accounts := &stubAccounts{}
	router := newTestRouter(Dependencies{Accounts: accounts})

	rec, env := serve(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/users/reset-password/abc/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, env.Message)
	}
	var tok auth.ActionToken
	if err := json.Unmarshal(env.Data, &tok); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if tok.IV != "abc" || tok.Token != "live" {
		t.Fatalf("unexpected token echo %+v", tok)
	}

	rec, _ = serve(t, router, httptest.NewRequest(http.MethodGet, "/api/v1/users/reset-password/abc/stale", nil))
	if rec.Code != http.StatusGone {
		t.Fatalf("expected 410 for stale link got %d", rec.Code)
	}

	rec, _ = serve(t, router, httptest.NewRequest(http.MethodPost, "/api/v1/users/reset-password/abc/live", strings.NewReader(`{"newPassword":"brand-new-pass"}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if accounts.reset["live"] != "brand-new-pass" {
		t.Fatalf("password not forwarded: %v", accounts.reset)
	}
}
