package discord

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// JSON error codes, see
// https://discord.com/developers/docs/topics/opcodes-and-status-codes#json
const (
	CodeUnknownChannel = 10003
	CodeUnknownMessage = 10008
	CodeMissingAccess  = 50001
	CodeSystemMessage  = 50021 // Cannot execute action on a system message
)

const maxErrBody = 64 << 10

// APIError is returned for any non-2xx API response.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("api error: %d: %s (code %d)", e.StatusCode, e.Message, e.Code)
	}
	return fmt.Sprintf("api error: %d: %s", e.StatusCode, e.Message)
}

func newAPIError(resp *http.Response) *APIError {
	apiErr := APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrBody))
	if err == nil && len(body) > 0 {
		if err := json.Unmarshal(body, &apiErr); err != nil {
			apiErr.Message = strings.TrimSpace(string(body))
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return &apiErr
}

// IsSystemMessage returns true if the err indicates that the message is a
// system message and can't be deleted.
func IsSystemMessage(err error) bool {
	return hasCode(err, CodeSystemMessage)
}

// IsUnknownMessage returns true if the message does not exist (i.e. already
// deleted).
func IsUnknownMessage(err error) bool {
	return hasCode(err, CodeUnknownMessage)
}

func hasCode(err error, code int) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == code
}
