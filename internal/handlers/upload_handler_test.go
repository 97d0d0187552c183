package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hospitalhub/profile-intake/pkg/imagehost"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCloudinary = imagehost.CloudinaryConfig{
	CloudName: "demo",
	APIKey:    "1234",
	APISecret: "abcd",
	Folder:    "hospitals",
}

// smallest valid PNG header that content sniffing recognizes
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

type fakeUploader struct {
	calls    int
	filename string
	err      error
}

func (f *fakeUploader) Upload(ctx context.Context, filename string, file io.Reader) (*imagehost.UploadResult, error) {
	f.calls++
	f.filename = filename
	if f.err != nil {
		return nil, f.err
	}
	return &imagehost.UploadResult{SecureURL: "https://res.cloudinary.com/demo/image/upload/v1/hospitals/" + filename}, nil
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if field != "" {
		part, err := writer.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func performUpload(t *testing.T, h *UploadHandler, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	router := newTestRouter(t)
	router.POST("/api/upload", h.Upload)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSignature(t *testing.T) {
	t.Run("Configured", func(t *testing.T) {
		h := NewUploadHandler(testCloudinary, &fakeUploader{}, 5<<20, nil, quietLogger())
		router := newTestRouter(t)
		router.GET("/api/cloudinary-signature", h.Signature)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cloudinary-signature", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var sig map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sig))
		assert.Equal(t, "demo", sig["cloud_name"])
		assert.Equal(t, "1234", sig["api_key"])
		assert.Equal(t, "hospitals", sig["folder"])
		assert.Len(t, sig["signature"], 40)
		assert.NotContains(t, w.Body.String(), "abcd")
	})

	t.Run("Not configured", func(t *testing.T) {
		h := NewUploadHandler(imagehost.CloudinaryConfig{}, &fakeUploader{}, 5<<20, nil, quietLogger())
		router := newTestRouter(t)
		router.GET("/api/cloudinary-signature", h.Signature)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cloudinary-signature", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Cloudinary not configured. Set CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET."}`, w.Body.String())
	})
}

func TestUpload(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		uploader := &fakeUploader{}
		h := NewUploadHandler(testCloudinary, uploader, 5<<20, nil, quietLogger())

		body, ct := multipartBody(t, "file", `C:\photos\front.png`, pngBytes)
		w := performUpload(t, h, body, ct)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, fmt.Sprintf(`{
			"success": true,
			"url": "https://res.cloudinary.com/demo/image/upload/v1/hospitals/front.png",
			"filename": "front.png",
			"size": %d
		}`, len(pngBytes)), w.Body.String())
		assert.Equal(t, 1, uploader.calls)
	})

	t.Run("No file", func(t *testing.T) {
		uploader := &fakeUploader{}
		h := NewUploadHandler(testCloudinary, uploader, 5<<20, nil, quietLogger())

		body, ct := multipartBody(t, "", "", nil)
		w := performUpload(t, h, body, ct)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"No file uploaded."}`, w.Body.String())
		assert.Zero(t, uploader.calls)
	})

	t.Run("Unsupported type", func(t *testing.T) {
		uploader := &fakeUploader{}
		h := NewUploadHandler(testCloudinary, uploader, 5<<20, nil, quietLogger())

		body, ct := multipartBody(t, "file", "notes.png", []byte("just some text, not an image"))
		w := performUpload(t, h, body, ct)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Invalid file type. Only JPEG, PNG and WEBP are allowed."}`, w.Body.String())
		assert.Zero(t, uploader.calls)
	})

	t.Run("Too large", func(t *testing.T) {
		uploader := &fakeUploader{}
		h := NewUploadHandler(testCloudinary, uploader, 1<<20, nil, quietLogger())

		big := append(append([]byte{}, pngBytes...), make([]byte, 1<<20)...)
		body, ct := multipartBody(t, "file", "big.png", big)
		w := performUpload(t, h, body, ct)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"File too large. Maximum size is 1 MB."}`, w.Body.String())
		assert.Zero(t, uploader.calls)
	})

	t.Run("Too large under 1 MB limit", func(t *testing.T) {
		uploader := &fakeUploader{}
		h := NewUploadHandler(testCloudinary, uploader, 512<<10, nil, quietLogger())

		big := append(append([]byte{}, pngBytes...), make([]byte, 512<<10)...)
		body, ct := multipartBody(t, "file", "big.png", big)
		w := performUpload(t, h, body, ct)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"File too large. Maximum size is 512 KB."}`, w.Body.String())
		assert.Zero(t, uploader.calls)
	})

	t.Run("Upstream failure", func(t *testing.T) {
		uploader := &fakeUploader{err: fmt.Errorf("cloudinary: 500")}
		h := NewUploadHandler(testCloudinary, uploader, 5<<20, nil, quietLogger())

		body, ct := multipartBody(t, "file", "front.png", pngBytes)
		w := performUpload(t, h, body, ct)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.JSONEq(t, `{"success":false,"error":"Upload failed. Please try again."}`, w.Body.String())
	})

	t.Run("Not configured", func(t *testing.T) {
		uploader := &fakeUploader{}
		h := NewUploadHandler(imagehost.CloudinaryConfig{CloudName: "demo"}, uploader, 5<<20, nil, quietLogger())

		body, ct := multipartBody(t, "file", "front.png", pngBytes)
		w := performUpload(t, h, body, ct)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), "CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET")
		assert.Zero(t, uploader.calls)
	})
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "5 MB", formatSize(5<<20))
	assert.Equal(t, "512 KB", formatSize(512<<10))
	assert.Equal(t, "1536 KB", formatSize(1536<<10))
	assert.Equal(t, "900 bytes", formatSize(900))
}
