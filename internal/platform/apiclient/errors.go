package apiclient

import (
	"errors"
	"strings"

	"github.com/goccy/go-json"
)

// DefaultErrorMessage is used when a failed response carries no readable reason.
const DefaultErrorMessage = "Request failed"

// Error is a non-2xx response from the remote service.
type Error struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// IsStatus reports whether err is an *Error with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// StatusCode returns the upstream status of err, or 0 when err did not come
// from a response.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// errorFromBody extracts detail, then error, then message from a JSON body.
// List values contribute their first element.
func errorFromBody(status int, body []byte) *Error {
	e := &Error{StatusCode: status, Message: DefaultErrorMessage}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return e
	}
	for _, key := range []string{"detail", "error", "message"} {
		if msg := stringValue(payload[key]); msg != "" {
			e.Message = msg
			return e
		}
	}
	return e
}

func stringValue(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		if len(t) > 0 {
			return stringValue(t[0])
		}
	case map[string]any:
		if msg, ok := t["message"]; ok {
			return stringValue(msg)
		}
	}
	return ""
}
