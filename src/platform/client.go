package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"outreach-hq/src/lib"
	"outreach-hq/src/models"
	"outreach-hq/src/services"
)

// Client talks to the chat platform's REST API with bot-token auth. It
// implements services.PlatformClient; every call is bounded by the
// configured client timeout.
type Client struct {
	baseURL string
	token   string
	guildID string
	http    *http.Client
}

func NewClient(cfg lib.Config) *Client {
	return &Client{
		baseURL: cfg.PlatformAPIBase,
		token:   cfg.PlatformToken,
		guildID: cfg.PlatformGuildID,
		http:    &http.Client{Timeout: cfg.PlatformTimeout},
	}
}

type memberPayload struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
	Roles []string `json:"roles"`
}

func (c *Client) Member(ctx context.Context, userID string) (services.Member, error) {
	var payload memberPayload
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/guilds/%s/members/%s", c.guildID, userID), nil, &payload)
	if err != nil {
		return services.Member{}, err
	}
	return services.Member{ID: payload.User.ID, Username: payload.User.Username}, nil
}

func (c *Client) CreateRole(ctx context.Context, name string) (string, error) {
	var payload struct {
		ID string `json:"id"`
	}
	body := map[string]string{"name": name}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/guilds/%s/roles", c.guildID), body, &payload); err != nil {
		return "", err
	}
	if payload.ID == "" {
		return "", fmt.Errorf("platform returned role without id")
	}
	return payload.ID, nil
}

func (c *Client) GrantRole(ctx context.Context, userID, roleID string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s/roles/%s", c.guildID, userID, roleID)
	return c.do(ctx, http.MethodPut, path, nil, nil)
}

func (c *Client) HasRole(ctx context.Context, userID, roleID string) (bool, error) {
	var payload memberPayload
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/guilds/%s/members/%s", c.guildID, userID), nil, &payload); err != nil {
		return false, err
	}
	for _, held := range payload.Roles {
		if held == roleID {
			return true, nil
		}
	}
	return false, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("platform request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return models.ErrMemberNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("platform request %s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
