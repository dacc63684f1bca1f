package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	cterrors "github.com/jrsteele09/campaign-tracker/internal/errors"
	"github.com/jrsteele09/campaign-tracker/internal/utils"
)

// RequestError is returned for any non-2xx response that survives the single
// refresh-triggered retry.
type RequestError struct {
	Status  int
	Method  string
	Path    string
	Message string // server supplied "message", when the body carried one
}

func (e *RequestError) Error() string {
	msg := fmt.Sprintf("%s %s failed: %d", e.Method, e.Path, e.Status)
	if e.Message != "" {
		msg += " (" + e.Message + ")"
	}
	return msg
}

// Is lets callers match a RequestError against the shared sentinels:
// 400 is ErrInvalidRequest and 404 is ErrNotFound.
func (e *RequestError) Is(target error) bool {
	switch target {
	case cterrors.ErrInvalidRequest:
		return e.Status == http.StatusBadRequest
	case cterrors.ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// StatusCode returns the HTTP status carried by a *RequestError in err's
// chain, or 0 when there is none.
func StatusCode(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	return 0
}

// IsUnauthorized reports whether err is a 401 RequestError.
func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

// IsNotFound reports whether err is a 404 RequestError.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func errorMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	return strings.TrimSpace(utils.NonEmpty(eb.Message, eb.Error))
}
