// Package ollama implements the client side of the inference backend's
// streaming chat protocol.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "lumen-chat/backend/pkg/errors"
)

// Client talks to an Ollama server
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given base URL. The timeout bounds a
// whole streaming exchange, so it should be generous.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Chat runs one streaming chat exchange. Fragments are forwarded through
// onFragment in reassembly order; the returned transcript is exactly their
// concatenation, reasoning markers included. On a transport failure the
// partial transcript assembled so far is returned alongside the error so the
// caller can decide what to do with it; it is never persisted here.
func (c *Client) Chat(ctx context.Context, model string, messages []ChatMessage, onFragment func(string)) (string, *Metrics, error) {
	request := chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   true,
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return "", nil, fmt.Errorf("error marshaling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", nil, fmt.Errorf("error creating chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", nil, apperrors.NewBackendError("chat request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", nil, apperrors.NewBackendError(
			fmt.Sprintf("chat request failed with status %d", resp.StatusCode),
			errors.New(string(body)),
		)
	}

	assembler := NewAssembler(onFragment)
	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			assembler.Consume(buf[:n])
		}
		if assembler.Done() {
			break
		}
		if readErr == io.EOF {
			assembler.Flush()
			break
		}
		if readErr != nil {
			return assembler.Transcript(), nil, apperrors.NewBackendError("chat stream aborted", readErr)
		}
	}

	return assembler.Transcript(), assembler.Metrics(), nil
}

// ListModels returns the names of the models available on the backend
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("error creating model list request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewBackendError("model list request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, apperrors.NewBackendError(
			fmt.Sprintf("model list request failed with status %d", resp.StatusCode),
			errors.New(string(body)),
		)
	}

	var listResp modelListResponse
	if err := json.NewDecoder(resp.Body).Decode(&listResp); err != nil {
		return nil, apperrors.NewBackendError("error decoding model list response", err)
	}

	names := make([]string, 0, len(listResp.Models))
	for _, m := range listResp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}
