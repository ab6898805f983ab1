package hub

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// ErrNotFound matches any APIError with status 404
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response from the hub
type APIError struct {
	Method     string
	URL        string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsConflict reports whether err is an "already exists" response
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

// newAPIError builds an APIError from a failed response
func newAPIError(resp *resty.Response) *APIError {
	e := &APIError{
		Method:     resp.Request.Method,
		URL:        resp.Request.URL,
		StatusCode: resp.StatusCode(),
	}
	if raw := resp.Request.RawRequest; raw != nil && raw.URL != nil {
		e.URL = raw.URL.Redacted()
	}

	if msg := resp.Header().Get("X-Error-Message"); msg != "" {
		e.Message = msg
		return e
	}

	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		switch {
		case body.Error != "":
			e.Message = body.Error
		case body.Message != "":
			e.Message = body.Message
		}
		if e.Message != "" {
			return e
		}
	}

	msg := strings.TrimSpace(string(resp.Body()))
	if len(msg) > 200 {
		msg = msg[:200] + "..."
	}
	e.Message = msg
	return e
}
