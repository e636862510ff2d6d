package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error is a server-reported failure. Message is shown to the user
// verbatim when the server provided one.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned %s", http.StatusText(e.Status))
}

// IsUnauthorized reports whether err is a 401 from the server. By the time
// a caller sees it the pipeline has already cleared the session and routed
// to login; callers only use this to pick their own message.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// maxErrorBody bounds how much of an error response is read for a message.
const maxErrorBody = 64 << 10

// parseError extracts the server's message from a non-2xx response.
func parseError(resp *http.Response) error {
	apiErr := &Error{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return apiErr
	}

	var payload struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Message
	}
	return apiErr
}
