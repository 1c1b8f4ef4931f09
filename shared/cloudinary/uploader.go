package cloudinary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/dfryer1193/portfolio/blog/domain"
)

const (
	DefaultAPIBase = "https://api.cloudinary.com/v1_1"

	defaultFilename = "blob"
)

var _ domain.MediaUploader = (*Uploader)(nil)

type Config struct {
	CloudName    string
	UploadPreset string

	// APIBase overrides DefaultAPIBase
	APIBase string
}

// Uploader is an implementation of domain.MediaUploader that sends unsigned uploads to
// Cloudinary using a preconfigured upload preset.
type Uploader struct {
	client  *http.Client
	apiBase string
	cloud   string
	preset  string
}

// NewUploader creates a new Uploader. A nil client means http.DefaultClient; no timeout or
// retry policy is layered on top of whatever the client does.
func NewUploader(client *http.Client, cfg Config) *Uploader {
	if client == nil {
		client = http.DefaultClient
	}

	base := cfg.APIBase
	if base == "" {
		base = DefaultAPIBase
	}

	return &Uploader{
		client:  client,
		apiBase: strings.TrimRight(base, "/"),
		cloud:   cfg.CloudName,
		preset:  cfg.UploadPreset,
	}
}

type uploadResponse struct {
	SecureURL   string    `json:"secure_url"`
	PublicID    string    `json:"public_id"`
	DeleteToken string    `json:"delete_token"`
	Error       *apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
}

// Upload posts the image as multipart form data (file, upload_preset) and returns the
// secure_url Cloudinary assigns. The delete token is kept as the handle when the preset is set
// to return one.
func (u *Uploader) Upload(ctx context.Context, img *domain.Image) (*domain.UploadedImage, error) {
	op := "uploading image"
	if img == nil || len(img.Content) == 0 {
		return nil, fmt.Errorf("%w: cloudinary: %s: no image content", domain.ErrUploadFailed, op)
	}

	filename := img.Filename
	if filename == "" {
		filename = defaultFilename
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("%w: cloudinary: %s: %w", domain.ErrUploadFailed, op, err)
	}
	if _, err := part.Write(img.Content); err != nil {
		return nil, fmt.Errorf("%w: cloudinary: %s: %w", domain.ErrUploadFailed, op, err)
	}
	if err := form.WriteField("upload_preset", u.preset); err != nil {
		return nil, fmt.Errorf("%w: cloudinary: %s: %w", domain.ErrUploadFailed, op, err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("%w: cloudinary: %s: %w", domain.ErrUploadFailed, op, err)
	}

	var res uploadResponse
	if err := u.post(ctx, op, u.endpoint("image/upload"), form.FormDataContentType(), &body, &res); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUploadFailed, err)
	}

	if res.SecureURL == "" {
		return nil, fmt.Errorf("%w: cloudinary: %s returned no secure_url", domain.ErrUploadFailed, op)
	}

	return &domain.UploadedImage{
		URL:    res.SecureURL,
		Handle: res.DeleteToken,
	}, nil
}

// Discard deletes an upload by the delete token it was issued with.
// Cloudinary only honours delete tokens for a short while after the upload.
func (u *Uploader) Discard(ctx context.Context, img *domain.UploadedImage) error {
	if img == nil || img.Handle == "" {
		return fmt.Errorf("cloudinary: no delete token for upload")
	}

	op := fmt.Sprintf("deleting image %s", img.URL)
	form := url.Values{"token": {img.Handle}}

	var res struct {
		Result string    `json:"result"`
		Error  *apiError `json:"error"`
	}
	return u.post(ctx, op, u.endpoint("delete_by_token"), "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &res)
}

func (u *Uploader) endpoint(action string) string {
	return fmt.Sprintf("%s/%s/%s", u.apiBase, url.PathEscape(u.cloud), action)
}

// post sends a form to Cloudinary and decodes the JSON reply into out
func (u *Uploader) post(ctx context.Context, op string, endpoint string, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("cloudinary: %s: %w", op, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("cloudinary: %s failed: %w", op, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("cloudinary: %s: failed to read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return handleCloudinaryError(op, resp.StatusCode, payload)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("cloudinary: %s: failed to decode response: %w", op, err)
	}

	return nil
}

// handleCloudinaryError turns a non-2xx reply into an error carrying the API's own message
// when it sent one.
func handleCloudinaryError(op string, status int, payload []byte) error {
	var res struct {
		Error *apiError `json:"error"`
	}
	if err := json.Unmarshal(payload, &res); err == nil && res.Error != nil && res.Error.Message != "" {
		return fmt.Errorf("cloudinary: %s failed with status %d: %s", op, status, res.Error.Message)
	}

	return fmt.Errorf("cloudinary: %s failed with status %d", op, status)
}
