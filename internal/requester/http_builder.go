package requester

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// BuildRequest turns a Request into an *http.Request, applying headers and
// then authentication. Authentication wins over a header of the same name.
func BuildRequest(ctx context.Context, r *Request, auth AuthManager) (*http.Request, error) {
	if r == nil {
		return nil, fmt.Errorf("request is nil")
	}
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	u, err := url.Parse(r.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid request url: %w", err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("request url must be absolute: %s", r.URL)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	for key, value := range r.Headers {
		httpReq.Header.Set(key, value)
	}

	if auth != nil {
		if err := auth.ApplyAuth(httpReq); err != nil {
			return nil, fmt.Errorf("failed to apply authentication: %w", err)
		}
	}
	return httpReq, nil
}
