package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/sholdev/music_school/internal/handlers"
	"github.com/sholdev/music_school/internal/hash"
	"github.com/sholdev/music_school/internal/models"
	"github.com/sholdev/music_school/internal/repo"
	"github.com/sholdev/music_school/internal/roles"
	"github.com/sholdev/music_school/internal/service"
	httpserver "github.com/sholdev/music_school/internal/transport/http"
)

type stubMailer struct {
	lastURL string
	fail    bool
}

func (m *stubMailer) SendResetEmail(_ context.Context, _ *models.User, resetURL string) error {
	if m.fail {
		return fmt.Errorf("smtp unreachable")
	}
	m.lastURL = resetURL
	return nil
}

type testEnv struct {
	T      *testing.T
	E      *echo.Echo
	DB     *gorm.DB
	Repo   *repo.UserRepo
	Svc    *service.AuthService
	Mailer *stubMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Department{}, &models.Instrument{}, &models.Note{}))

	userRepo := &repo.UserRepo{DB: db}
	mailer := &stubMailer{}
	svc := &service.AuthService{
		Repo:          userRepo,
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		Mailer:        mailer,
		BaseURL:       "http://localhost:3000",
	}

	tbl, err := roles.Resolve()
	require.NoError(t, err)

	e := echo.New()
	httpserver.Register(e, &httpserver.Deps{
		AccessSecret:      []byte("test-access-secret"),
		Roles:             tbl,
		AuthHandler:       &handlers.AuthHandler{Service: svc},
		UsersHandler:      &handlers.UsersHandler{Repo: userRepo},
		ProfileHandler:    &handlers.ProfileHandler{Repo: userRepo, UploadDir: t.TempDir()},
		DepartmentHandler: &handlers.DepartmentHandler{DB: db},
		InstrumentHandler: &handlers.InstrumentHandler{DB: db},
		NoteHandler:       &handlers.NoteHandler{DB: db, Index: "notes"},
	})

	return &testEnv{T: t, E: e, DB: db, Repo: userRepo, Svc: svc, Mailer: mailer}
}

func (env *testEnv) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	env.T.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRegister(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Shol",
		"email":    "test@test.com",
		"password": "123456qW!",
	}, nil)

	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "test@test.com", body["email"])
	assert.Equal(t, "Shol", body["name"])
	assert.Equal(t, "basic", body["role"])
	assert.NotEmpty(t, body["id"])

	// credentials never leave the service
	assert.NotContains(t, rec.Body.String(), "password")
	assert.NotContains(t, rec.Body.String(), "refresh_token")

	assert.NotEmpty(t, rec.Header().Get("x-access-token"))
	assert.NotEmpty(t, rec.Header().Get("x-refresh-token"))
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	tests := []struct {
		name      string
		payload   map[string]string
		wantField string
	}{
		{name: "empty body", payload: map[string]string{}, wantField: "name"},
		{name: "short name", payload: map[string]string{"name": "Sho", "email": "test@test.com", "password": "123456qW!"}, wantField: "name"},
		{name: "bad email", payload: map[string]string{"name": "Shol", "email": "not-an-email", "password": "123456qW!"}, wantField: "email"},
		{name: "password too short", payload: map[string]string{"name": "Shol", "email": "test@test.com", "password": "aA34567"}, wantField: "password"},
		{name: "password without digits", payload: map[string]string{"name": "Shol", "email": "test@test.com", "password": "abcdefgH"}, wantField: "password"},
		{name: "password without upper case", payload: map[string]string{"name": "Shol", "email": "test@test.com", "password": "abcdefg1"}, wantField: "password"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/auth/register", tt.payload, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantField)
		})
	}
}

func TestRegister_PasswordAtMinimumLength(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name":     "Shol",
		"email":    "test@test.com",
		"password": "aA345678",
	}, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	payload := map[string]string{"name": "Shol", "email": "test@test.com", "password": "123456qW!"}
	rec := env.do(http.MethodPost, "/api/auth/register", payload, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/register", payload, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already registered")
}

func TestLogin(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Shol", "email": "test@test.com", "password": "123456qW!",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "test@test.com", "password": "123456qW!",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "Shol", body["name"])
	assert.NotEmpty(t, rec.Header().Get("x-access-token"))
	assert.NotEmpty(t, rec.Header().Get("x-refresh-token"))
}

func TestLogin_GenericFailureMessage(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Shol", "email": "test@test.com", "password": "123456qW!",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	unknownEmail := env.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "nobody@test.com", "password": "123456qW!",
	}, nil)
	wrongPassword := env.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "test@test.com", "password": "123456qW!!!",
	}, nil)

	// identical response whichever field was wrong
	assert.Equal(t, http.StatusBadRequest, unknownEmail.Code)
	assert.Equal(t, http.StatusBadRequest, wrongPassword.Code)
	assert.Equal(t, unknownEmail.Body.String(), wrongPassword.Body.String())
	assert.Contains(t, unknownEmail.Body.String(), "Invalid email or password.")
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Shol", "email": "test@test.com", "password": "123456qW!",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	refresh := rec.Header().Get("x-refresh-token")

	rec = env.do(http.MethodPost, "/api/auth/refresh_token", map[string]string{"refreshToken": refresh}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["accessToken"])
	assert.NotEmpty(t, body["refreshToken"])
	assert.NotEqual(t, refresh, body["refreshToken"])
}

func TestRefreshToken_EmptyBody(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/refresh_token", map[string]string{}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRefreshToken_StolenToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Shol", "email": "test@test.com", "password": "123456qW!",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	oldRefresh := rec.Header().Get("x-refresh-token")

	rec = env.do(http.MethodPost, "/api/auth/refresh_token", map[string]string{"refreshToken": oldRefresh}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// replaying the rotated-out token terminates the session
	rec = env.do(http.MethodPost, "/api/auth/refresh_token", map[string]string{"refreshToken": oldRefresh}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	user, err := env.Repo.FindByEmail(context.Background(), "test@test.com")
	require.NoError(t, err)
	assert.Empty(t, user.RefreshToken)
}

func TestMe(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Shol", "email": "test@test.com", "password": "123456qW!",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	access := rec.Header().Get("x-access-token")

	rec = env.do(http.MethodGet, "/api/auth/me", nil, map[string]string{
		echo.HeaderAuthorization: "Bearer " + access,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "test@test.com", body["email"])

	rec = env.do(http.MethodGet, "/api/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Shol", "email": "test@test.com", "password": "123456qW!",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	refresh := rec.Header().Get("x-refresh-token")

	rec = env.do(http.MethodDelete, "/api/auth/logout", map[string]string{"refreshToken": refresh}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// idempotent: logging out an already-cleared session still succeeds
	rec = env.do(http.MethodDelete, "/api/auth/logout", map[string]string{"refreshToken": refresh}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	user, err := env.Repo.FindByEmail(context.Background(), "test@test.com")
	require.NoError(t, err)
	assert.Empty(t, user.RefreshToken)
}

func TestLogout_MissingToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(http.MethodDelete, "/api/auth/logout", map[string]string{}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForgotPassword(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Shol", "email": "test@test.com", "password": "123456qW!",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/forgot_password", map[string]string{"email": "test@test.com"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, env.Mailer.lastURL)

	rec = env.do(http.MethodPost, "/api/auth/forgot_password", map[string]string{"email": "nobody@test.com"}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/forgot_password", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func resetTokenFromURL(t *testing.T, url string) string {
	t.Helper()
	m := regexp.MustCompile(`/new_password/\d+/(\S+)$`).FindStringSubmatch(url)
	require.Len(t, m, 2)
	return m[1]
}

func TestResetPassword(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Shol", "email": "test@test.com", "password": "123456qW!",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	userID := decodeBody(t, rec)["id"].(float64)

	rec = env.do(http.MethodPost, "/api/auth/forgot_password", map[string]string{"email": "test@test.com"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	token := resetTokenFromURL(t, env.Mailer.lastURL)

	rec = env.do(http.MethodPost, "/api/auth/reset_password", map[string]interface{}{
		"userId": userID, "token": token, "newPassword": "newPass1!A",
	}, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password changed.")

	rec = env.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": "test@test.com", "password": "newPass1!A",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// derivation secret changed with the password, so the token is spent
	rec = env.do(http.MethodPost, "/api/auth/reset_password", map[string]interface{}{
		"userId": userID, "token": token, "newPassword": "otherPass1!A",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Wrong reset password token.")
}

func TestResetPassword_WrongSecretToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Shol", "email": "test@test.com", "password": "123456qW!",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	userID := decodeBody(t, rec)["id"].(float64)

	rec = env.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Other", "email": "other@test.com", "password": "123456qW!",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(http.MethodPost, "/api/auth/forgot_password", map[string]string{"email": "other@test.com"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	token := resetTokenFromURL(t, env.Mailer.lastURL)

	rec = env.do(http.MethodPost, "/api/auth/reset_password", map[string]interface{}{
		"userId": userID, "token": token, "newPassword": "newPass1!A",
	}, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Wrong reset password token.")
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.Svc.ResetTTL = -time.Minute

	rec := env.do(http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Shol", "email": "test@test.com", "password": "123456qW!",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	userID := decodeBody(t, rec)["id"].(float64)

	rec = env.do(http.MethodPost, "/api/auth/forgot_password", map[string]string{"email": "test@test.com"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	token := resetTokenFromURL(t, env.Mailer.lastURL)

	rec = env.do(http.MethodPost, "/api/auth/reset_password", map[string]interface{}{
		"userId": userID, "token": token, "newPassword": "newPass1!A",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Reset password token expired.")
}

// seedUser inserts a user with a fixed role directly through the repo,
// bypassing registration, and returns a logged-in access token.
func (env *testEnv) seedUser(role, email string) string {
	env.T.Helper()

	pwHash, err := hash.HashPassword("123456qW!")
	require.NoError(env.T, err)
	user := &models.User{Name: "Seeded", Email: email, PasswordHash: pwHash, Role: role}
	require.NoError(env.T, env.Repo.Create(context.Background(), user))

	rec := env.do(http.MethodPost, "/api/auth/login", map[string]string{
		"email": email, "password": "123456qW!",
	}, nil)
	require.Equal(env.T, http.StatusOK, rec.Code)
	return rec.Header().Get("x-access-token")
}
