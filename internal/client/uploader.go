package client

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/style-studio/backend/internal/models"
)

// Uploader performs one submission exchange.
type Uploader interface {
	Upload(ctx context.Context, file *File, style string) (*Result, error)
}

// HTTPClient talks to a style studio server.
type HTTPClient struct {
	base *url.URL
	http *http.Client
}

// NewHTTPClient creates a client for the server at baseURL. A nil hc uses a
// client without timeout; cancel through the request context instead.
func NewHTTPClient(baseURL string, hc *http.Client) (*HTTPClient, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported server url %q", baseURL)
	}
	if hc == nil {
		hc = &http.Client{}
	}
	return &HTTPClient{base: base, http: hc}, nil
}

// Upload streams the file and style as multipart form data to /upload.
// Returned URLs are resolved against the server address.
func (c *HTTPClient) Upload(ctx context.Context, file *File, style string) (*Result, error) {
	if file == nil {
		return nil, ErrNoFile
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeForm(form, file, style))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.resolve("upload"), pr)
	if err != nil {
		pr.Close()
		return nil, &RequestError{Err: err}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Err: err}
	}

	// The status code is not consulted; the payload decides.
	var payload models.UploadResponse
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, &RequestError{Err: fmt.Errorf("invalid response (status %d): %w", resp.StatusCode, err)}
	}
	if !payload.Success {
		return nil, &RequestError{Message: payload.Error}
	}

	return &Result{
		ResultURL:   c.resolve(payload.ResultURL),
		DownloadURL: c.resolve(payload.DownloadURL),
		JobID:       payload.JobID,
		MediaType:   string(payload.MediaType),
	}, nil
}

type stylesPayload struct {
	Styles  []models.Style `json:"styles"`
	Default string         `json:"default"`
}

// Styles fetches the style catalogue and the default key.
func (c *HTTPClient) Styles(ctx context.Context) ([]models.Style, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolve("api/styles"), nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", &RequestError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &RequestError{Message: fmt.Sprintf("unexpected status %s", resp.Status)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", &RequestError{Err: err}
	}
	var payload stylesPayload
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, "", &RequestError{Err: err}
	}
	return payload.Styles, payload.Default, nil
}

func (c *HTTPClient) resolve(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(strings.TrimPrefix(ref, "/"))
	if err != nil || u.IsAbs() {
		return ref
	}
	return c.base.ResolveReference(u).String()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeForm(form *multipart.Writer, file *File, style string) error {
	src, err := file.Open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", file.Name, err)
	}
	defer src.Close()

	contentType := file.Type
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(file.Name)))
	h.Set("Content-Type", contentType)

	part, err := form.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("reading %s: %w", file.Name, err)
	}
	if err := form.WriteField("style", style); err != nil {
		return err
	}
	return form.Close()
}
