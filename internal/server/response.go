package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/aimentor/internal/blob"
	"github.com/abhisek/aimentor/internal/chat"
	"github.com/abhisek/aimentor/internal/command"
	"github.com/abhisek/aimentor/internal/edu"
	"github.com/abhisek/aimentor/internal/llm"
	"github.com/abhisek/aimentor/internal/store"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// respondServiceError maps a service error onto a status and error code.
// Unclassified errors are reported as a generic internal error.
func respondServiceError(c *gin.Context, err error) {
	status, code := classify(err)
	_ = c.Error(err)
	if status == http.StatusInternalServerError {
		RespondError(c, status, code, errors.New("internal error"))
		return
	}
	RespondError(c, status, code, err)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, command.ErrAccountNotFound):
		return http.StatusNotFound, "account_not_found"
	case errors.Is(err, command.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, store.ErrNotFound), errors.Is(err, blob.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, edu.ErrNoContent):
		return http.StatusNotFound, "no_content"
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "backend_timeout"
	}
	if status, ok := llm.HTTPStatus(err); ok {
		if status == http.StatusTooManyRequests {
			return status, "rate_limited"
		}
		return status, "backend_unavailable"
	}
	return http.StatusInternalServerError, "internal"
}
