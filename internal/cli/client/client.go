// Package client is the HTTP client for the agent backend: session CRUD plus
// the streaming chat endpoint. Responses are normalized at this boundary so
// the rest of the program only ever sees the canonical message shape.
package client

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/Bluenyg/BuptManus/internal/message"
	"github.com/Bluenyg/BuptManus/internal/session"
	"github.com/Bluenyg/BuptManus/internal/workflow"
)

// Session is one persisted conversation as the backend reports it.
type Session struct {
	ID        string
	Title     string
	CreatedAt string
}

// APIClient wraps a Hertz client for HTTP communication with the backend.
type APIClient struct {
	client *client.Client
	server string
}

// NewAPIClient creates a client for the given base URL.
func NewAPIClient(server string, timeout time.Duration) (*APIClient, error) {
	normalizedServer, err := normalizeServerURL(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	// Standard library dialer for streaming support; netpoll does not
	// handle streaming response bodies well
	c, err := client.NewClient(
		client.WithDialTimeout(timeout),
		client.WithMaxIdleConnDuration(60*time.Second),
		client.WithResponseBodyStream(true),
		client.WithDialer(standard.NewDialer()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &APIClient{
		client: c,
		server: normalizedServer,
	}, nil
}

// normalizeServerURL ensures the base URL has a scheme and no trailing
// slash. A path prefix is kept, the backend may be mounted under one.
func normalizeServerURL(server string) (string, error) {
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}

	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid server URL")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// wireSession tolerates both snake_case and camelCase timestamps.
type wireSession struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	CreatedAt    string `json:"created_at"`
	CreatedAtAlt string `json:"createdAt"`
}

func (w wireSession) toSession() Session {
	createdAt := w.CreatedAt
	if createdAt == "" {
		createdAt = w.CreatedAtAlt
	}
	return Session{ID: w.ID, Title: w.Title, CreatedAt: createdAt}
}

// ListSessions lists all persisted sessions. Both a bare array body and a
// {"sessions": [...]} envelope are accepted.
func (c *APIClient) ListSessions(ctx context.Context) ([]Session, error) {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(c.server + endpointSessions)

	if err := c.client.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("failed to list sessions (HTTP %d)", resp.StatusCode())
	}

	body := resp.Body()
	var items []wireSession
	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) {
		if err := sonic.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
	} else {
		var envelope struct {
			Sessions []wireSession `json:"sessions"`
		}
		if err := sonic.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		items = envelope.Sessions
	}

	sessions := make([]Session, 0, len(items))
	for _, it := range items {
		sessions = append(sessions, it.toSession())
	}
	return sessions, nil
}

// CreateSession creates a new empty session and returns it.
func (c *APIClient) CreateSession(ctx context.Context) (Session, error) {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.server + endpointSessions)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.SetBody([]byte("{}"))

	if err := c.client.Do(ctx, req, resp); err != nil {
		return Session{}, fmt.Errorf("request failed: %w", err)
	}
	statusCode := resp.StatusCode()
	if statusCode < 200 || statusCode >= 300 {
		return Session{}, fmt.Errorf("create session failed with HTTP status: %d, body: %s", statusCode, string(resp.Body()))
	}

	var created wireSession
	if err := sonic.Unmarshal(resp.Body(), &created); err != nil {
		return Session{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if created.ID == "" {
		return Session{}, fmt.Errorf("create session response missing id")
	}
	return created.toSession(), nil
}

// DeleteSession deletes a session and its messages.
func (c *APIClient) DeleteSession(ctx context.Context, sessionID string) error {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodDelete)
	req.SetRequestURI(fmt.Sprintf("%s"+endpointSessionByID, c.server, sessionID))

	if err := c.client.Do(ctx, req, resp); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	statusCode := resp.StatusCode()
	if statusCode < 200 || statusCode >= 300 {
		return fmt.Errorf("delete failed with HTTP status: %d, body: %s", statusCode, string(resp.Body()))
	}
	return nil
}

// ListMessages loads a session's full history, normalized. Both a bare array
// body and a {"messages": [...]} envelope are accepted.
func (c *APIClient) ListMessages(ctx context.Context, sessionID string) ([]message.Message, error) {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(fmt.Sprintf("%s"+endpointSessionMessages, c.server, sessionID))

	if err := c.client.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("failed to list messages (HTTP %d)", resp.StatusCode())
	}

	body := resp.Body()
	var raws []message.Raw
	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) {
		if err := sonic.Unmarshal(body, &raws); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
	} else {
		var envelope struct {
			Messages []message.Raw `json:"messages"`
		}
		if err := sonic.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("failed to unmarshal response: %w", err)
		}
		raws = envelope.Messages
	}

	msgs := make([]message.Message, 0, len(raws))
	for _, raw := range raws {
		raw.SessionID = sessionID
		msgs = append(msgs, message.Normalize(raw))
	}
	return msgs, nil
}

// chatStreamRequest is the streaming chat request body.
type chatStreamRequest struct {
	Messages             []message.WireMessage `json:"messages"`
	DeepThinkingMode     bool                  `json:"deep_thinking_mode"`
	SearchBeforePlanning bool                  `json:"search_before_planning"`
	ConversationID       string                `json:"conversation_id,omitempty"`
	Debug                bool                  `json:"debug,omitempty"`
}

// ChatStream sends the conversation history and returns the decoded event
// stream. Events arrive on the first channel in wire order; a transport
// failure mid-stream arrives on the second. Both channels are closed when
// the stream ends for any reason.
func (c *APIClient) ChatStream(ctx context.Context, history []message.Message, sessionID string, opts session.Options) (<-chan workflow.Event, <-chan error, error) {
	if len(history) == 0 {
		return nil, nil, fmt.Errorf("chat request requires at least one message")
	}

	wireMessages := make([]message.WireMessage, 0, len(history))
	for _, m := range history {
		wireMessages = append(wireMessages, m.Wire())
	}

	reqBody := chatStreamRequest{
		Messages:             wireMessages,
		DeepThinkingMode:     opts.DeepThinking,
		SearchBeforePlanning: opts.SearchBeforePlanning,
		ConversationID:       sessionID,
		Debug:                opts.Debug,
	}
	bodyBytes, err := sonic.Marshal(reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.server + endpointChatStream)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.Header.Set("Accept", "text/event-stream")
	req.SetBody(bodyBytes)

	if err := c.client.Do(ctx, req, resp); err != nil {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		statusCode := resp.StatusCode()
		body := resp.Body()
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
		return nil, nil, fmt.Errorf("chat failed with HTTP status: %d, body: %s", statusCode, string(body))
	}

	evCh := make(chan workflow.Event, 32)
	errCh := make(chan error, 1)

	go func() {
		defer func() {
			close(evCh)
			close(errCh)
			protocol.ReleaseRequest(req)
			protocol.ReleaseResponse(resp)
		}()

		bodyStream := resp.BodyStream()
		if bodyStream == nil {
			errCh <- fmt.Errorf("body stream is nil")
			return
		}

		parseEventStream(ctx, bodyStream, evCh, errCh)
	}()

	return evCh, errCh, nil
}
