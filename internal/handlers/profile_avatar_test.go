package handlers_test

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sholdev/music_school/internal/handlers"
)

func (env *testEnv) doMultipart(path, token, field, filename string, content []byte) *httptest.ResponseRecorder {
	env.T.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(env.T, err)
	_, err = part.Write(content)
	require.NoError(env.T, err)
	require.NoError(env.T, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func TestProfile_UploadAvatar(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	pupil := env.seedUser("pupil", "pupil@test.com")

	rec := env.do(http.MethodGet, "/api/auth/me", nil, bearer(pupil))
	require.Equal(t, http.StatusOK, rec.Code)
	id := uint(decodeBody(t, rec)["id"].(float64))

	path := fmt.Sprintf("/api/profile/%d/avatar", id)

	rec = env.doMultipart(path, pupil, "avatar", "me.png", []byte("png-bytes"))
	require.Equal(t, http.StatusOK, rec.Code)

	avatar, _ := decodeBody(t, rec)["avatar"].(string)
	assert.True(t, strings.HasPrefix(avatar, "avatar-"))
	assert.True(t, strings.HasSuffix(avatar, ".png"))

	// wrong form field name
	rec = env.doMultipart(path, pupil, "file", "me.png", []byte("png-bytes"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProfile_UploadAvatar_TooLarge(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	pupil := env.seedUser("pupil", "pupil@test.com")

	rec := env.do(http.MethodGet, "/api/auth/me", nil, bearer(pupil))
	require.Equal(t, http.StatusOK, rec.Code)
	id := uint(decodeBody(t, rec)["id"].(float64))

	oversized := make([]byte, handlers.MaxAvatarSize+1)
	rec = env.doMultipart(fmt.Sprintf("/api/profile/%d/avatar", id), pupil, "avatar", "big.png", oversized)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too large")
}
