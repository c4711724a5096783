package upload

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func multipartBody(t *testing.T, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile("file", "pic.png")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestHandler_UploadServeDelete(t *testing.T) {
	s, err := NewDiskStorage(t.TempDir(), "/uploads", 1024)
	require.NoError(t, err)
	h := NewHandler(s, zap.NewNop())

	app := fiber.New()
	h.RegisterPublicRoutes(app)
	h.RegisterAdminRoutes(app.Group("/api/v1/admin"))

	body, ct := multipartBody(t, pngHeader)
	req := httptest.NewRequest("POST", "/api/v1/admin/uploads", body)
	req.Header.Set("Content-Type", ct)
	res, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	var f File
	require.NoError(t, json.NewDecoder(res.Body).Decode(&f))
	require.NotEmpty(t, f.Key)

	res, err = app.Test(httptest.NewRequest("GET", f.URL, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)

	res, err = app.Test(httptest.NewRequest("DELETE", "/api/v1/admin/uploads/"+f.Key, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestHandler_RejectsText(t *testing.T) {
	s, err := NewDiskStorage(t.TempDir(), "/uploads", 1024)
	require.NoError(t, err)
	app := fiber.New()
	NewHandler(s, zap.NewNop()).RegisterAdminRoutes(app)

	body, ct := multipartBody(t, []byte("hello"))
	req := httptest.NewRequest("POST", "/uploads", body)
	req.Header.Set("Content-Type", ct)
	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnsupportedMediaType, res.StatusCode)
}
