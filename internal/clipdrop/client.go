package clipdrop

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/imagify/imagify/internal/config"
)

// Client talks to the ClipDrop text-to-image API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// Image is a successfully rendered result.
type Image struct {
	Bytes []byte
	Mime  string
}

// Error is an upstream generation failure. The gateway surfaces it without
// billing and without retrying.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("clipdrop error: status=%d body=%s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("clipdrop error: %s", e.Body)
}

func NewClient(cfg config.Config, log *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}

	return &Client{
		apiKey:  cfg.ClipDropAPIKey,
		baseURL: strings.TrimRight(cfg.ClipDropBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Generate renders the prompt and returns the image bytes. Non-2xx and
// non-image responses are rejected as a *Error rather than passed through.
func (c *Client) Generate(ctx context.Context, prompt string) (*Image, error) {
	var form bytes.Buffer
	writer := multipart.NewWriter(&form)
	if err := writer.WriteField("prompt", prompt); err != nil {
		return nil, fmt.Errorf("write prompt field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/text-to-image/v1", &form)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode >= 300 {
		if c.log != nil {
			c.log.Error("clipdrop request failed", "status", resp.StatusCode, "body", truncateBody(body))
		}
		return nil, &Error{StatusCode: resp.StatusCode, Body: truncateBody(body)}
	}

	mime := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(mime, "image/") {
		return nil, &Error{StatusCode: resp.StatusCode, Body: "unexpected content type " + mime}
	}
	if len(body) == 0 {
		return nil, &Error{StatusCode: resp.StatusCode, Body: "empty image response"}
	}

	return &Image{Bytes: body, Mime: mime}, nil
}

func truncateBody(body []byte) string {
	const limit = 512
	s := strings.TrimSpace(string(body))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
