package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spigell/jobmatch/internal/jobs"
)

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeUpstream        Code = "UPSTREAM_ERROR"
	CodeUnavailable     Code = "UNAVAILABLE"
	CodeTimeout         Code = "TIMEOUT"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// classify maps domain errors to an HTTP status and an error code.
func classify(err error) (int, Code) {
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, jobs.ErrInvalidResume),
		errors.Is(err, jobs.ErrInvalidStatus),
		errors.Is(err, jobs.ErrInvalidCriteria):
		return http.StatusBadRequest, CodeInvalidArgument
	case errors.Is(err, jobs.ErrSourceError):
		return http.StatusBadGateway, CodeUpstream
	case errors.Is(err, jobs.ErrSourceUnavailable):
		return http.StatusServiceUnavailable, CodeUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, CodeTimeout
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// writeError renders err as JSON. Internal errors are not echoed to the client.
func writeError(c *gin.Context, err error) {
	status, code := classify(err)
	_ = c.Error(err)

	msg := err.Error()
	if code == CodeInternal {
		msg = http.StatusText(status)
	}

	c.AbortWithStatusJSON(status, APIError{Code: code, Message: msg})
}

// userMessage is the text shown on the page for a failed action.
func userMessage(err error) string {
	_, code := classify(err)
	switch code {
	case CodeInternal:
		return "Something went wrong, see the server log for details."
	case CodeUnavailable:
		return "The job source could not be reached. Try again later."
	default:
		return err.Error()
	}
}
