package requester

import (
	"fmt"
	"net/http"
	"strings"
)

// Request describes an outbound call: method, absolute URL and headers
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
}

// Response represents an HTTP response
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// maxErrorBody bounds how much of a failed response ends up in an error
const maxErrorBody = 512

// StatusError is returned when the server answers with a non-2xx status
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s %s failed with status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Method, e.URL, e.StatusCode, body)
}
