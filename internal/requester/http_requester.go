package requester

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/brizzai/popup-login/internal/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// HTTPRequester sends requests and reads their responses
type HTTPRequester struct {
	client *http.Client
}

type HTTPRequesterParams struct {
	fx.In

	Client *http.Client `optional:"true"`
}

// NewHTTPRequester creates a new HTTPRequester. Without a client a default
// one with a 30s timeout is used.
func NewHTTPRequester(params HTTPRequesterParams) *HTTPRequester {
	client := params.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &HTTPRequester{client: client}
}

// SetTimeout sets the timeout for the HTTP client
func (r *HTTPRequester) SetTimeout(timeout time.Duration) {
	r.client.Timeout = timeout
}

// Do sends the request and returns the response whatever its status
func (r *HTTPRequester) Do(ctx context.Context, req *Request, auth AuthManager) (*Response, error) {
	httpReq, err := BuildRequest(ctx, req, auth)
	if err != nil {
		return nil, err
	}
	logger.Debug("Sending request", zap.String("method", httpReq.Method), zap.String("url", httpReq.URL.String()))

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("Failed to close response body", zap.Error(err))
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Headers:    resp.Header,
	}, nil
}

// SendJSON sends the request and decodes a 2xx JSON body into out. Any
// other status yields a *StatusError.
func (r *HTTPRequester) SendJSON(ctx context.Context, req *Request, auth AuthManager, out any) error {
	resp, err := r.Do(ctx, req, auth)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return &StatusError{
			Method:     methodOrGet(req.Method),
			URL:        req.URL,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func methodOrGet(m string) string {
	if m == "" {
		return http.MethodGet
	}
	return m
}
