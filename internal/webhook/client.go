package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"mechat/internal/config"
	"mechat/internal/domain"
	"mechat/internal/domain/models"
)

const (
	// chatPath is appended to the configured base URL.
	chatPath = "/webhook/chat"
	// DefaultTimeout bounds a whole webhook round trip.
	DefaultTimeout = 120 * time.Second
)

// ChatRequest is the payload forwarded to the webhook backend.
type ChatRequest struct {
	UserID    string          `json:"userId"`
	SessionID string          `json:"sessionId"`
	ChatMode  models.ChatMode `json:"chatMode"`
	Message   string          `json:"message"`
}

// File is an attachment sent as the binaryData multipart field.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Client sends chat messages to the inference webhook.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a webhook client. An empty token sends no Authorization header.
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Send posts the message (as multipart when file is non-nil) and normalizes the reply.
// Network failures and non-2xx statuses return errors matching domain.ErrBackend.
func (c *Client) Send(ctx context.Context, req ChatRequest, file *File) (models.NormalizedAnswer, error) {
	body, contentType, err := encodeRequest(req, file)
	if err != nil {
		return models.NormalizedAnswer{}, fmt.Errorf("encode webhook request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, body)
	if err != nil {
		return models.NormalizedAnswer{}, fmt.Errorf("create webhook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("webhook request failed",
			"session_id", req.SessionID,
			"error", err,
		)
		return models.NormalizedAnswer{}, fmt.Errorf("%w: %v", domain.ErrBackend, err)
	}
	defer func() { _ = resp.Body.Close() }() // Error ignored: response consumed

	// One byte past the cap tells a full reply from a cut one
	raw, err := io.ReadAll(io.LimitReader(resp.Body, config.MaxWebhookResponseBytes+1))
	if err != nil {
		return models.NormalizedAnswer{}, fmt.Errorf("%w: read response: %v", domain.ErrBackend, err)
	}
	if len(raw) > config.MaxWebhookResponseBytes {
		c.logger.Warn("webhook reply exceeds size cap",
			"session_id", req.SessionID,
			"status", resp.StatusCode,
			"limit_bytes", config.MaxWebhookResponseBytes,
		)
		return models.NormalizedAnswer{}, fmt.Errorf("%w: reply larger than %d bytes", domain.ErrBackend, config.MaxWebhookResponseBytes)
	}

	c.logger.Debug("webhook raw response",
		"session_id", req.SessionID,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"body", logBody(raw),
	)

	answer, err := Normalize(resp.StatusCode, raw)
	if err != nil {
		c.logger.Warn("webhook returned error status",
			"session_id", req.SessionID,
			"status", resp.StatusCode,
		)
		return models.NormalizedAnswer{}, err
	}

	if answer.Shape == models.ShapeUnexpected {
		c.logger.Warn("webhook reply matched no known shape",
			"session_id", req.SessionID,
			"body", logBody(raw),
		)
	} else {
		c.logger.Debug("webhook reply normalized",
			"session_id", req.SessionID,
			"shape", answer.Shape,
			"sources", len(answer.Sources),
		)
	}

	return answer, nil
}

// encodeRequest returns the request body and its content type.
func encodeRequest(req ChatRequest, file *File) (io.Reader, string, error) {
	if file == nil {
		payload, err := json.Marshal(req)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(payload), "application/json", nil
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="binaryData"; filename="%s"`, escapeQuotes(file.Name)))
	fileType := file.ContentType
	if fileType == "" {
		fileType = "application/octet-stream"
	}
	header.Set("Content-Type", fileType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, "", err
	}

	fields := []struct{ name, value string }{
		{"userId", req.UserID},
		{"sessionId", req.SessionID},
		{"chatMode", string(req.ChatMode)},
		{"message", req.Message},
		{"fileAttached", "true"},
		{"fileType", fileType},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// logBody compacts JSON bodies onto one line for the log; other text is kept as is.
func logBody(raw []byte) string {
	if gjson.ValidBytes(raw) {
		return string(pretty.Ugly(raw))
	}
	return string(raw)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
