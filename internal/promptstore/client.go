// Package promptstore talks to the REST document database that holds the
// prompt library and per-user favorites.
package promptstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"mechat/internal/domain"
	"mechat/internal/domain/models"
	"mechat/internal/domain/repositories"
)

// DefaultTimeout bounds every call to the store.
const DefaultTimeout = 15 * time.Second

const maxResponseBytes = 8 << 20

// Client is a prompt store REST client.
type Client struct {
	baseURL    string
	auth       string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the store at baseURL. auth, when set, is
// appended to every request as the ?auth= query parameter.
func NewClient(baseURL, auth string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    auth,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger,
	}
}

// ListPrompts returns every stored prompt with its key filled in.
func (c *Client) ListPrompts(ctx context.Context) ([]models.Prompt, error) {
	var byID map[string]models.Prompt
	if err := c.do(ctx, http.MethodGet, "/prompts.json", nil, &byID); err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	prompts := make([]models.Prompt, 0, len(byID))
	for id, p := range byID {
		p.ID = id
		prompts = append(prompts, p)
	}
	return prompts, nil
}

// GetPrompt fetches a single prompt. A missing key is domain.ErrNotFound.
func (c *Client) GetPrompt(ctx context.Context, id string) (*models.Prompt, error) {
	var p *models.Prompt
	if err := c.do(ctx, http.MethodGet, "/prompts/"+url.PathEscape(id)+".json", nil, &p); err != nil {
		return nil, fmt.Errorf("get prompt %s: %w", id, err)
	}
	if p == nil {
		return nil, fmt.Errorf("prompt %s: %w", id, domain.ErrNotFound)
	}
	p.ID = id
	return p, nil
}

// CreatePrompt stores a new prompt and returns its generated key.
func (c *Client) CreatePrompt(ctx context.Context, p models.Prompt) (string, error) {
	p.ID = ""
	var created struct {
		Name string `json:"name"`
	}
	if err := c.do(ctx, http.MethodPost, "/prompts.json", p, &created); err != nil {
		return "", fmt.Errorf("create prompt: %w", err)
	}
	if created.Name == "" {
		return "", fmt.Errorf("create prompt: %w: empty key in response", domain.ErrUpstream)
	}
	return created.Name, nil
}

// UpdatePrompt replaces the prompt stored under id.
func (c *Client) UpdatePrompt(ctx context.Context, id string, p models.Prompt) error {
	p.ID = ""
	if err := c.do(ctx, http.MethodPut, "/prompts/"+url.PathEscape(id)+".json", p, nil); err != nil {
		return fmt.Errorf("update prompt %s: %w", id, err)
	}
	return nil
}

// ListFavorites returns the prompt ids the user has favorited.
func (c *Client) ListFavorites(ctx context.Context, userID string) (map[string]bool, error) {
	var favs map[string]bool
	if err := c.do(ctx, http.MethodGet, "/favorites/"+url.PathEscape(userID)+".json", nil, &favs); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	if favs == nil {
		favs = map[string]bool{}
	}
	return favs, nil
}

// AddFavorite marks promptID as a favorite of userID.
func (c *Client) AddFavorite(ctx context.Context, userID, promptID string) error {
	if err := c.do(ctx, http.MethodPut, favoritePath(userID, promptID), true, nil); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite clears the favorite mark. Removing an absent favorite is not an error.
func (c *Client) RemoveFavorite(ctx context.Context, userID, promptID string) error {
	if err := c.do(ctx, http.MethodDelete, favoritePath(userID, promptID), nil, nil); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// FavoriteCounts aggregates every user's favorites into promptID -> count.
func (c *Client) FavoriteCounts(ctx context.Context) (map[string]int, error) {
	var all map[string]map[string]bool
	if err := c.do(ctx, http.MethodGet, "/favorites.json", nil, &all); err != nil {
		return nil, fmt.Errorf("favorite counts: %w", err)
	}
	counts := make(map[string]int)
	for _, favs := range all {
		for promptID, on := range favs {
			if on {
				counts[promptID]++
			}
		}
	}
	return counts, nil
}

func favoritePath(userID, promptID string) string {
	return "/favorites/" + url.PathEscape(userID) + "/" + url.PathEscape(promptID) + ".json"
}

// do sends a JSON request and decodes the JSON reply into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	endpoint := c.baseURL + path
	if c.auth != "" {
		endpoint += "?auth=" + url.QueryEscape(c.auth)
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrUpstream, err)
	}

	c.logger.Debug("prompt store call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d: %s", domain.ErrUpstream, resp.StatusCode, truncate(string(raw), 200))
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrUpstream, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ repositories.PromptRepository = (*Client)(nil)
