package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rikoadmin/pkg/errors"
	"rikoadmin/pkg/logger"
)

// BackendClient performs JSON calls against the restaurant REST API.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewBackendClient(baseURL string, timeout time.Duration) *BackendClient {
	return &BackendClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// backendError carries the status of a non-2xx backend reply.
type backendError struct {
	Status int
	Body   string
}

func (e *backendError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}

// do sends method+path with an optional JSON body and decodes a JSON reply into
// out when out is non-nil. token, when set, is sent as a bearer credential.
func (b *BackendClient) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Internal("Failed to encode backend request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return errors.Internal("Failed to create backend request", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return errors.Network("Backend unreachable", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Network("Failed to read backend response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Debug("Backend %s %s failed with %d", method, path, resp.StatusCode)
		return &backendError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return errors.Network("Unexpected backend response", err)
	}
	return nil
}

// backendMessage pulls the human readable message out of an error body.
func backendMessage(body string) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(body), &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return ""
}

// translate maps a transport or status failure to the service's error taxonomy.
func translate(err error, resource string) error {
	be, ok := err.(*backendError)
	if !ok {
		return err
	}
	msg := backendMessage(be.Body)
	switch be.Status {
	case http.StatusBadRequest:
		if msg == "" {
			msg = "Invalid request"
		}
		return errors.BadRequest(msg, be)
	case http.StatusUnauthorized, http.StatusForbidden:
		if msg == "" {
			msg = "Backend rejected the credentials"
		}
		return errors.Unauthorized(msg, be)
	case http.StatusNotFound:
		return errors.NotFound(resource, be)
	case http.StatusConflict:
		if msg == "" {
			msg = "Order was already moved to another state"
		}
		return errors.Conflict(msg)
	default:
		return errors.Network(fmt.Sprintf("Backend request for %s failed", resource), be)
	}
}
