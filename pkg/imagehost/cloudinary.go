package imagehost

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

const defaultAPIBase = "https://api.cloudinary.com"

// ErrNotConfigured is returned when credentials are missing
var ErrNotConfigured = errors.New("image host not configured")

// CloudinaryConfig holds the account used for signed uploads
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Missing lists the environment variables that still need to be set
func (c CloudinaryConfig) Missing() []string {
	var missing []string
	if c.CloudName == "" {
		missing = append(missing, "CLOUDINARY_CLOUD_NAME")
	}
	if c.APIKey == "" {
		missing = append(missing, "CLOUDINARY_API_KEY")
	}
	if c.APISecret == "" {
		missing = append(missing, "CLOUDINARY_API_SECRET")
	}
	return missing
}

// Signature is what a browser needs to upload directly to the image host
type Signature struct {
	CloudName string `json:"cloud_name"`
	APIKey    string `json:"api_key"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"`
	UploadURL string `json:"upload_url"`
	Folder    string `json:"folder"`
}

// Signer produces upload signatures
type Signer struct {
	cfg     CloudinaryConfig
	apiBase string
}

// NewSigner creates a signer for cfg
func NewSigner(cfg CloudinaryConfig) *Signer {
	return &Signer{cfg: cfg, apiBase: defaultAPIBase}
}

// Sign returns upload credentials valid for the given time
func (s *Signer) Sign(now time.Time) (*Signature, error) {
	if len(s.cfg.Missing()) > 0 {
		return nil, ErrNotConfigured
	}

	ts := now.Unix()
	params := map[string]string{"timestamp": strconv.FormatInt(ts, 10)}
	if s.cfg.Folder != "" {
		params["folder"] = s.cfg.Folder
	}

	return &Signature{
		CloudName: s.cfg.CloudName,
		APIKey:    s.cfg.APIKey,
		Timestamp: ts,
		Signature: SignParams(params, s.cfg.APISecret),
		UploadURL: s.uploadURL(),
		Folder:    s.cfg.Folder,
	}, nil
}

func (s *Signer) uploadURL() string {
	return fmt.Sprintf("%s/v1_1/%s/image/upload", s.apiBase, s.cfg.CloudName)
}

// SignParams joins params as sorted key=value pairs with '&', appends the
// secret and returns the hex SHA-1 digest. Empty values are skipped.
func SignParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

// UploadResult is the part of the image host response the caller needs
type UploadResult struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Bytes     int64  `json:"bytes"`
	Format    string `json:"format"`
}

type uploadResponse struct {
	UploadResult
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Client uploads files on behalf of browsers that cannot reach the image host
type Client struct {
	signer *Signer
	client *http.Client
	now    func() time.Time
}

// NewClient creates an upload client
func NewClient(cfg CloudinaryConfig, timeout time.Duration) *Client {
	return &Client{
		signer: NewSigner(cfg),
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

// Upload sends one file as a signed multipart upload
func (c *Client) Upload(ctx context.Context, filename string, file io.Reader) (*UploadResult, error) {
	sig, err := c.signer.Sign(c.now())
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fields := map[string]string{
		"api_key":   sig.APIKey,
		"timestamp": strconv.FormatInt(sig.Timestamp, 10),
		"signature": sig.Signature,
	}
	if sig.Folder != "" {
		fields["folder"] = sig.Folder
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", k, err)
		}
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sig.UploadURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send upload request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse upload response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || parsed.Error != nil {
		msg := http.StatusText(resp.StatusCode)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return nil, fmt.Errorf("upload rejected (status %d): %s", resp.StatusCode, msg)
	}

	if parsed.SecureURL == "" {
		return nil, fmt.Errorf("upload response has no secure_url")
	}

	return &parsed.UploadResult, nil
}
