package shared

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// Endpoint is a base URL plus the header that carries its API token.
type Endpoint struct {
	Service     string
	BaseURL     string
	TokenHeader string
	Token       string
	HTTPClient  *http.Client
}

// NewEndpoint trims the base URL and falls back to a client with the given timeout.
func NewEndpoint(service, baseURL, tokenHeader, token string, timeout time.Duration) *Endpoint {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Endpoint{
		Service:     service,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		TokenHeader: tokenHeader,
		Token:       token,
		HTTPClient:  &http.Client{Timeout: timeout},
	}
}

// Classifier maps a 4xx status code to an error class.
type Classifier func(status int) error

// Request describes one call against an Endpoint.
type Request struct {
	Method      string
	Path        string
	Body        []byte
	ContentType string
	JSONBody    interface{}
}

// Do performs the request and decodes a JSON reply into out (out may be nil).
// Transport failures become ErrServiceUnavailable; non-2xx replies become *APIError.
func (e *Endpoint) Do(ctx context.Context, r Request, classify Classifier, out interface{}) error {
	body := r.Body
	contentType := r.ContentType
	if r.JSONBody != nil {
		encoded, err := json.Marshal(r.JSONBody)
		if err != nil {
			return fmt.Errorf("failed to encode %s request body: %w", e.Service, err)
		}
		body = encoded
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, e.BaseURL+r.Path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: failed to create %s request: %v", ErrServiceUnavailable, e.Service, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if e.TokenHeader != "" {
		req.Header.Set(e.TokenHeader, e.Token)
	}

	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrServiceUnavailable, r.Method, e.Service, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read %s response: %v", ErrServiceUnavailable, e.Service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var kind error
		if classify != nil {
			kind = classify(resp.StatusCode)
		}
		return NewAPIError(e.Service, resp.StatusCode, errorMessage(payload), kind)
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: failed to decode %s response: %v", ErrServiceUnavailable, e.Service, err)
	}
	return nil
}

// errorMessage pulls the "message" field both services use for errors.
func errorMessage(payload []byte) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(payload, &body); err == nil && body.Message != "" {
		return body.Message
	}
	return strings.TrimSpace(string(payload))
}

// WriteJSON is the server-side counterpart used by the sandbox handlers.
func WriteJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// SendErrorResponse writes {"error":true,"message":...} with the given status.
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	WriteJSON(w, statusCode, map[string]interface{}{"error": true, "message": message})
}
