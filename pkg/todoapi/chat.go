package todoapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// GenerateTasks turns a natural-language prompt into suggested tasks via
// POST /api/chat/generate-tasks.
func (c *Client) GenerateTasks(ctx context.Context, req GenerateTasksRequest) (GenerateTasksResult, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/api/chat/generate-tasks", nil, req, "")
	if err != nil {
		return GenerateTasksResult{}, err
	}
	var result GenerateTasksResult
	if err := decodeData(data, &result, "generate-tasks result"); err != nil {
		return GenerateTasksResult{}, err
	}
	return result, nil
}

// ListMessages fetches one page of chat history via GET /api/chat/messages.
func (c *Client) ListMessages(ctx context.Context, page, size int) (MessagePage, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if size > 0 {
		query.Set("size", strconv.Itoa(size))
	}

	data, err := c.doRequest(ctx, http.MethodGet, "/api/chat/messages", query, nil, "")
	if err != nil {
		return MessagePage{}, err
	}
	var result MessagePage
	if err := decodeData(data, &result, "message page"); err != nil {
		return MessagePage{}, err
	}
	return result, nil
}

// ClearMessages wipes chat history via DELETE /api/chat/messages.
func (c *Client) ClearMessages(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodDelete, "/api/chat/messages", nil, nil, "")
	return err
}
