package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/jtpk2168/deskly-mobile-app-sub000/pkg/errors"
)

// maxErrorBody bounds how much of a failure body is read.
const maxErrorBody = 64 << 10

// ParseResponseError turns a non-2xx response from a Deskly API into an
// error and closes its body. A {"error": {code, message}} body keeps its
// code; 4xx statuses map onto the matching apperrors kind. 5xx answers and
// bodies that are not an envelope become plain errors, so callers can tell a
// broken remote from a rejected request.
func ParseResponseError(resp *http.Response, remote string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s answered %d, body unreadable: %w", remote, resp.StatusCode, err)
	}

	var env struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &env) != nil || env.Error == nil {
		return fmt.Errorf("%s answered %d: %s", remote, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return remoteError(remote, resp.StatusCode, env.Error.Code, env.Error.Message)
}

func remoteError(remote string, status int, code, message string) error {
	msg := remote + ": " + message

	switch status {
	case http.StatusNotFound:
		return apperrors.NotFound(remote, message)
	case http.StatusBadRequest:
		return apperrors.InvalidInput(msg)
	case http.StatusUnauthorized:
		return apperrors.Unauthorized(msg)
	case http.StatusForbidden:
		return apperrors.Forbidden(msg)
	case http.StatusConflict:
		return apperrors.Conflict(msg)
	case http.StatusGone:
		return apperrors.Gone(msg)
	case http.StatusUnprocessableEntity:
		return apperrors.Unprocessable(msg)
	case http.StatusServiceUnavailable:
		return apperrors.Unavailable(msg, nil)
	}
	if status >= http.StatusInternalServerError {
		return fmt.Errorf("%s answered %d (%s): %s", remote, status, code, message)
	}
	return &apperrors.AppError{Code: code, Message: msg, Status: status}
}
