package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hospitalhub/profile-intake/internal/config"
	"github.com/hospitalhub/profile-intake/pkg/imagehost"
	"github.com/hospitalhub/profile-intake/pkg/metrics"
	"github.com/sirupsen/logrus"
)

// ImageUploader proxies a file to the image host
type ImageUploader interface {
	Upload(ctx context.Context, filename string, file io.Reader) (*imagehost.UploadResult, error)
}

// UploadHandler serves upload signatures and the server-side upload proxy
type UploadHandler struct {
	cfg      imagehost.CloudinaryConfig
	signer   *imagehost.Signer
	uploader ImageUploader
	maxBytes int64
	metrics  *metrics.Metrics
	logger   *logrus.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(cfg imagehost.CloudinaryConfig, uploader ImageUploader, maxBytes int64, m *metrics.Metrics, logger *logrus.Logger) *UploadHandler {
	return &UploadHandler{
		cfg:      cfg,
		signer:   imagehost.NewSigner(cfg),
		uploader: uploader,
		maxBytes: maxBytes,
		metrics:  m,
		logger:   logger,
	}
}

// UploadResponse is returned by the upload proxy
type UploadResponse struct {
	Success  bool   `json:"success"`
	URL      string `json:"url,omitempty"`
	Filename string `json:"filename,omitempty"`
	Size     int64  `json:"size,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (h *UploadHandler) notConfigured() string {
	return (&config.ConfigurationError{Component: "Cloudinary", Missing: h.cfg.Missing()}).Error()
}

// Signature handles GET /api/cloudinary-signature
// @Summary Get signed upload parameters
// @Tags Uploads
// @Produce json
// @Success 200 {object} imagehost.Signature
// @Failure 500 {object} ErrorResponse
// @Router /cloudinary-signature [get]
func (h *UploadHandler) Signature(c *gin.Context) {
	sig, err := h.signer.Sign(time.Now())
	if err != nil {
		h.logger.WithField("missing", h.cfg.Missing()).Error("Upload signature requested without image host credentials")
		c.JSON(http.StatusInternalServerError, gin.H{"error": h.notConfigured()})
		return
	}

	c.JSON(http.StatusOK, sig)
}

// Upload handles POST /api/upload
// @Summary Upload an image through the server
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} UploadResponse
// @Failure 400 {object} UploadResponse
// @Failure 500 {object} UploadResponse
// @Router /upload [post]
func (h *UploadHandler) Upload(c *gin.Context) {
	if missing := h.cfg.Missing(); len(missing) > 0 {
		h.metrics.RecordUpload("not_configured")
		c.JSON(http.StatusInternalServerError, UploadResponse{Error: h.notConfigured()})
		return
	}

	// multipart overhead on top of the file itself
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.reject(c, http.StatusBadRequest, "invalid", "No file uploaded.")
		return
	}

	if fileHeader.Size > h.maxBytes {
		h.reject(c, http.StatusBadRequest, "too_large",
			"File too large. Maximum size is "+formatSize(h.maxBytes)+".")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.reject(c, http.StatusBadRequest, "invalid", "Could not read uploaded file.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		h.reject(c, http.StatusBadRequest, "invalid", "Could not read uploaded file.")
		return
	}
	if int64(len(data)) > h.maxBytes {
		h.reject(c, http.StatusBadRequest, "too_large",
			"File too large. Maximum size is "+formatSize(h.maxBytes)+".")
		return
	}

	if _, err := imagehost.DetectImage(bytes.NewReader(data)); err != nil {
		var unsupported *imagehost.ErrUnsupportedType
		if errors.As(err, &unsupported) {
			h.logger.WithField("detected", unsupported.Detected).Info("Rejected upload with unsupported type")
		}
		h.reject(c, http.StatusBadRequest, "unsupported_type", "Invalid file type. Only JPEG, PNG and WEBP are allowed.")
		return
	}

	filename := filepath.Base(strings.ReplaceAll(fileHeader.Filename, `\`, "/"))
	result, err := h.uploader.Upload(c.Request.Context(), filename, bytes.NewReader(data))
	if err != nil {
		h.metrics.RecordUpload("error")
		h.logger.WithError(err).WithField("filename", filename).Warn("Image upload failed")
		c.JSON(http.StatusBadGateway, UploadResponse{Error: "Upload failed. Please try again."})
		return
	}

	h.metrics.RecordUpload("success")
	c.JSON(http.StatusOK, UploadResponse{
		Success:  true,
		URL:      result.SecureURL,
		Filename: filename,
		Size:     int64(len(data)),
	})
}

func (h *UploadHandler) reject(c *gin.Context, status int, result, message string) {
	h.metrics.RecordUpload(result)
	c.JSON(status, UploadResponse{Error: message})
}

// formatSize renders n bytes as whole MB, KB or bytes, whichever fits exactly
func formatSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%d KB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}
