// Package remote is the JSON-over-HTTP client for the order/menu service.
// It owns network-level error classification: transport problems and
// timeouts surface as *port.NetworkError, business rejections come back as
// decoded responses.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cartsync/internal/core/domain"
	"cartsync/internal/port"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// FetchMenu returns the raw menu payload; the caller owns parsing so the
// same bytes can be cached verbatim.
func (c *Client) FetchMenu(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/menu", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &port.NetworkError{Op: "fetch menu", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &port.NetworkError{Op: "fetch menu", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &port.NetworkError{Op: "fetch menu", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}
	return body, nil
}

// SubmitOrder posts the order. A 2xx or 4xx answer with a decodable body is
// the service speaking (acceptance or business rejection); everything else
// is a network failure.
func (c *Client) SubmitOrder(ctx context.Context, order domain.Order) (*domain.CheckoutResponse, error) {
	payload, err := json.Marshal(order)
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &port.NetworkError{Op: "submit order", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &port.NetworkError{Op: "submit order", Err: err}
	}

	var out domain.CheckoutResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &port.NetworkError{Op: "submit order", Err: fmt.Errorf("undecodable response (status %d): %w", resp.StatusCode, err)}
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &port.NetworkError{Op: "submit order", Err: fmt.Errorf("server error %d", resp.StatusCode)}
	}
	return &out, nil
}

func (c *Client) OrderStatus(ctx context.Context, orderNumber string) (*domain.StatusResponse, error) {
	endpoint := fmt.Sprintf("%s/orders/%s/status", c.baseURL, url.PathEscape(orderNumber))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	body, status, err := c.do(req, "order status")
	if err != nil {
		return nil, err
	}
	return &domain.StatusResponse{
		Success: successOf(body, status),
		Payload: body,
	}, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderNumber, reason string) (*domain.CancelResponse, error) {
	payload, err := json.Marshal(map[string]string{"reason": reason})
	if err != nil {
		return nil, fmt.Errorf("encode cancel request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/orders/%s/cancel", c.baseURL, url.PathEscape(orderNumber))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, status, err := c.do(req, "cancel order")
	if err != nil {
		return nil, err
	}

	var probe struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(body, &probe)
	message := probe.Message
	if message == "" {
		message = probe.Error
	}
	return &domain.CancelResponse{
		Success: successOf(body, status),
		Message: message,
		Payload: body,
	}, nil
}

func (c *Client) do(req *http.Request, op string) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, &port.NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &port.NetworkError{Op: op, Err: err}
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, 0, &port.NetworkError{Op: op, Err: fmt.Errorf("server error %d", resp.StatusCode)}
	}
	return body, resp.StatusCode, nil
}

// successOf trusts an explicit success flag in the body and falls back to
// the HTTP status when the body has none.
func successOf(body []byte, status int) bool {
	var probe struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.Success != nil {
		return *probe.Success
	}
	return status >= 200 && status < 300
}
