// Package onebot is the anti-corruption layer between the relay and the
// OneBot HTTP API (the chat provider). All outbound calls go through the
// Client, which wraps the HTTP transport in a circuit breaker and maps the
// provider's response envelope into the relay's DeliveryOutcome.
//
// Delivery is best effort by contract: Deliver never returns an error, it
// reports the outcome and logs the failure reason. The webhook caller's
// response must not depend on whether the chat provider was reachable.
package onebot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"

	"relaybot/internal/types"
)

// API paths, per the OneBot HTTP specification.
const (
	sendPrivateMsgPath = "/send_private_msg"
	sendGroupMsgPath   = "/send_group_msg"
	versionInfoPath    = "/get_version_info"
)

// maxResponseBodyRead limits how much of a provider response is read when
// decoding the envelope.
const maxResponseBodyRead = 4096

// Client talks to a single OneBot HTTP endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	logger     *slog.Logger
}

// NewClient creates a Client for the given OneBot API base URL (no trailing
// slash). The timeout bounds every outbound call so a slow provider cannot
// hold an inbound request open indefinitely.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger) *Client {
	return NewClientWithHTTPClient(baseURL, userAgent, &http.Client{Timeout: timeout}, logger)
}

// NewClientWithHTTPClient creates a Client with a caller-supplied HTTP
// client. This constructor exists for testing against httptest servers.
func NewClientWithHTTPClient(baseURL, userAgent string, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "onebot",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
		breaker:    cb,
		logger:     logger,
	}
}

// --- Wire types ---

// sendPrivateMessageRequest is the /send_private_msg payload. GroupID is
// always nil; the field is serialized as an explicit null to match the
// provider's contract.
type sendPrivateMessageRequest struct {
	UserID     int64  `json:"user_id"`
	GroupID    *int64 `json:"group_id"`
	Message    string `json:"message"`
	AutoEscape bool   `json:"auto_escape"`
}

// sendGroupMessageRequest is the /send_group_msg payload.
type sendGroupMessageRequest struct {
	GroupID    int64  `json:"group_id"`
	Message    string `json:"message"`
	AutoEscape bool   `json:"auto_escape"`
}

// messageData is the data object of a successful send response.
type messageData struct {
	MessageID int32 `json:"message_id"`
}

// messageResponse is the provider's response envelope for send calls.
// Data is a pointer because the provider sends null on failure envelopes.
type messageResponse struct {
	Data    *messageData `json:"data"`
	Retcode int32        `json:"retcode"`
	Status  string       `json:"status"`
}

// About describes the provider build reported by /get_version_info.
type About struct {
	AppName    string `json:"app_name"`
	AppVersion string `json:"app_version"`
	Protocol   int32  `json:"protocol"`
}

// aboutResponse is the envelope around About.
type aboutResponse struct {
	Data    *About `json:"data"`
	Retcode int32  `json:"retcode"`
	Status  string `json:"status"`
}

// Deliver sends one rendered message to its chat destination and reports
// the outcome. Transport failures, open-breaker short circuits, and
// non-deserializable responses all yield Success=false with the reason
// logged; no error crosses this boundary and nothing is retried.
func (c *Client) Deliver(ctx context.Context, msg types.OutboundMessage) types.DeliveryOutcome {
	// Correlates the request/outcome log pair for one delivery attempt.
	deliveryID := uuid.New().String()[:8]

	var (
		path    string
		payload any
	)
	switch msg.Target {
	case types.TargetPrivate:
		path = sendPrivateMsgPath
		payload = sendPrivateMessageRequest{UserID: msg.To, Message: msg.Body}
	case types.TargetGroup:
		path = sendGroupMsgPath
		payload = sendGroupMessageRequest{GroupID: msg.To, Message: msg.Body}
	default:
		c.logger.Error("refusing delivery to unknown target kind",
			"delivery_id", deliveryID,
			"target", string(msg.Target),
		)
		return types.DeliveryOutcome{}
	}

	c.logger.Info("delivering message",
		"delivery_id", deliveryID,
		"target", string(msg.Target),
		"to", msg.To,
		"body_size", len(msg.Body),
	)

	envelope, err := c.post(ctx, path, payload)
	if err != nil {
		c.logger.Warn("message delivery failed",
			"delivery_id", deliveryID,
			"target", string(msg.Target),
			"to", msg.To,
			"error", err,
		)
		return types.DeliveryOutcome{}
	}

	outcome := types.DeliveryOutcome{Success: true}
	if envelope.Data != nil {
		id := envelope.Data.MessageID
		outcome.MessageID = &id
	}

	c.logger.Info("message delivered",
		"delivery_id", deliveryID,
		"retcode", envelope.Retcode,
		"status", envelope.Status,
	)
	return outcome
}

// post executes one JSON POST through the circuit breaker and decodes the
// response envelope.
func (c *Client) post(ctx context.Context, path string, payload any) (*messageResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		r, doErr := c.httpClient.Do(req)
		if doErr != nil {
			return nil, doErr
		}
		// 5xx trips the breaker like a transport failure would.
		if r.StatusCode >= 500 {
			r.Body.Close()
			return nil, fmt.Errorf("provider returned %d", r.StatusCode)
		}
		return r, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyRead))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}

	var envelope messageResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", path, err)
	}
	return &envelope, nil
}

// Describe fetches the provider's version info. It is the startup probe:
// bootstrap aborts the process when this fails, so a misconfigured or
// unreachable chat backend is caught before the listener opens.
func (c *Client) Describe(ctx context.Context) (*About, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+versionInfoPath, nil)
	if err != nil {
		return nil, fmt.Errorf("building version info request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching version info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("version info endpoint returned %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyRead))
	if err != nil {
		return nil, fmt.Errorf("reading version info response: %w", err)
	}

	var envelope aboutResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decoding version info response: %w", err)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("version info response carried no data (status %q, retcode %d)",
			envelope.Status, envelope.Retcode)
	}
	return envelope.Data, nil
}

// Name implements the health probe identifier for the core chassis.
func (c *Client) Name() string { return "onebot" }

// Check implements the health probe by hitting the version info endpoint.
func (c *Client) Check(ctx context.Context) error {
	_, err := c.Describe(ctx)
	return err
}
