// Package response writes the API's JSON envelope: a data field for
// successful responses and an error field for failures.
package response

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/EvTKi/Obrabotka-Jeka-remake/pkg/errors"
)

// Response is the envelope every endpoint returns.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error represents an API error with code, message, and optional details.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Success creates a successful response with data.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail creates an error response.
func Fail(code, message, details string) Response {
	return Response{
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes a successful response with 200 status.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// Created writes a successful response with 201 status.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Success(data))
}

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadRequest, Fail("BAD_REQUEST", message, details))
}

// Unauthorized writes a 401 error response.
func Unauthorized(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusUnauthorized, Fail("UNAUTHORIZED", message, details))
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail("NOT_FOUND", message, details))
}

// MethodNotAllowed writes a 405 error response.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	JSON(w, http.StatusMethodNotAllowed, Fail(
		"METHOD_NOT_ALLOWED",
		"Method not allowed",
		"Method "+method+" is not supported for this endpoint",
	))
}

// RateLimited writes a 429 error response.
func RateLimited(w http.ResponseWriter, message string) {
	JSON(w, http.StatusTooManyRequests, Fail(
		"RATE_LIMITED",
		"Rate limit exceeded",
		message,
	))
}

// InternalError writes a 500 error response without the cause.
func InternalError(w http.ResponseWriter, _ error) {
	// the cause is logged by the handler, never sent to the client
	JSON(w, http.StatusInternalServerError, Fail(
		"INTERNAL_ERROR",
		"Internal server error",
		"An unexpected error occurred",
	))
}

// Conflict writes a 409 error response.
func Conflict(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusConflict, Fail("CONFLICT", message, details))
}

// BadGateway writes a 502 error response for matching backend failures.
func BadGateway(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadGateway, Fail("BACKEND_ERROR", message, details))
}

// ServiceUnavailable writes a 503 error response.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	JSON(w, http.StatusServiceUnavailable, Fail(
		"SERVICE_UNAVAILABLE",
		"Service unavailable",
		message,
	))
}

// ErrorFromType maps typed errors to HTTP responses. Invalid input and
// choices are the caller's fault; busy sessions and illegal transitions
// conflict with the session state; backend and integrity failures come
// from the matching backend.
func ErrorFromType(w http.ResponseWriter, err error) {
	switch {
	case errors.IsNotFound(err):
		NotFound(w, err.Error(), "")
	case errors.IsInputValidation(err):
		var ve *errors.InputValidationError
		details := ""
		if errors.As(err, &ve) {
			details = strings.Join(ve.Fields, ",")
		}
		JSON(w, http.StatusBadRequest, Fail("INVALID_INPUT", err.Error(), details))
	case errors.IsInvalidChoice(err):
		JSON(w, http.StatusBadRequest, Fail("INVALID_CHOICE", err.Error(), ""))
	case errors.IsBusy(err):
		Conflict(w, err.Error(), "")
	case errors.IsInvalidTransition(err):
		JSON(w, http.StatusConflict, Fail("INVALID_TRANSITION", err.Error(), ""))
	case errors.IsStale(err):
		Conflict(w, "Request superseded", err.Error())
	case errors.IsIntegrity(err):
		JSON(w, http.StatusBadGateway, Fail("DATA_INTEGRITY", err.Error(), ""))
	case errors.IsTransport(err):
		var te *errors.TransportError
		details := ""
		if errors.As(err, &te) && te.StatusCode != 0 {
			details = "backend status " + strconv.Itoa(te.StatusCode)
		}
		BadGateway(w, err.Error(), details)
	default:
		InternalError(w, err)
	}
}
