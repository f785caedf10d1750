package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"kosyak-bot/core/utils"
)

const defaultBaseURL = "https://api.telegram.org"

// Client is a thin wrapper over the Bot API. Only the handful of methods the
// bot actually uses are exposed; everything goes through call so error
// handling stays in one place.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
	logger  *utils.Logger
}

type ClientOption func(*Client)

// WithBaseURL points the client at a different API host, mainly for tests.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = url }
}

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

func NewClient(token string, logger *utils.Logger, opts ...ClientOption) *Client {
	c := &Client{
		token:   token,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 90 * time.Second},
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", method, err)
	}
	url := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", method, err)
	}
	var api apiResponse
	if err := json.Unmarshal(raw, &api); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if !api.OK {
		return nil, fmt.Errorf("%s failed: %d %s", method, api.ErrorCode, api.Description)
	}
	return api.Result, nil
}

func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) error {
	_, err := c.call(ctx, "sendMessage", req)
	return err
}

func (c *Client) EditMessageText(ctx context.Context, req EditMessageTextRequest) error {
	_, err := c.call(ctx, "editMessageText", req)
	return err
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, req AnswerCallbackQueryRequest) error {
	_, err := c.call(ctx, "answerCallbackQuery", req)
	return err
}

func (c *Client) GetUpdates(ctx context.Context, req GetUpdatesRequest) ([]Update, error) {
	raw, err := c.call(ctx, "getUpdates", req)
	if err != nil {
		return nil, err
	}
	var updates []Update
	if err := json.Unmarshal(raw, &updates); err != nil {
		return nil, fmt.Errorf("decode updates: %w", err)
	}
	return updates, nil
}

func (c *Client) SetWebhook(ctx context.Context, req SetWebhookRequest) error {
	_, err := c.call(ctx, "setWebhook", req)
	return err
}

func (c *Client) DeleteWebhook(ctx context.Context) error {
	_, err := c.call(ctx, "deleteWebhook", struct{}{})
	return err
}
