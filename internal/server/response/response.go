// Package response writes the {data, error} envelope every API endpoint
// returns.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/ellisd4/tagsync/pkg/errors"
)

// Response is the API envelope. Exactly one of Data and Error is set.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error describes a failed request.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error codes.
const (
	CodeBadRequest              = "BAD_REQUEST"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeNotFound                = "NOT_FOUND"
	CodeMethodNotAllowed        = "METHOD_NOT_ALLOWED"
	CodeConfigurationIncomplete = "CONFIGURATION_INCOMPLETE"
	CodeRunInProgress           = "RUN_IN_PROGRESS"
	CodeUpstreamUnavailable     = "UPSTREAM_UNAVAILABLE"
	CodeCatalogUnavailable      = "CATALOG_UNAVAILABLE"
	CodeCanceled                = "CANCELED"
	CodeInternal                = "INTERNAL_ERROR"
)

// Success creates a successful response.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail creates an error response.
func Fail(code, message, details string) Response {
	return Response{Error: &Error{Code: code, Message: message, Details: details}}
}

// JSON writes resp with the given status code.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// headers are already sent
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes a 200 response.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// BadRequest writes a 400 response.
func BadRequest(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadRequest, Fail(CodeBadRequest, message, details))
}

// Unauthorized writes a 401 response.
func Unauthorized(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusUnauthorized, Fail(CodeUnauthorized, message, details))
}

// NotFound writes a 404 response.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail(CodeNotFound, message, details))
}

// MethodNotAllowed writes a 405 response.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	JSON(w, http.StatusMethodNotAllowed, Fail(
		CodeMethodNotAllowed,
		"Method not allowed",
		"Method "+method+" is not supported for this endpoint",
	))
}

// InternalError writes a 500 response without exposing err.
func InternalError(w http.ResponseWriter, _ error) {
	JSON(w, http.StatusInternalServerError, Fail(
		CodeInternal,
		"Internal server error",
		"An unexpected error occurred",
	))
}

// StatusFor returns the HTTP status and error code for err.
func StatusFor(err error) (int, string) {
	switch {
	case errors.Is(err, errors.ErrRunInProgress):
		return http.StatusConflict, CodeRunInProgress
	case errors.IsConfigurationIncomplete(err):
		return http.StatusBadRequest, CodeConfigurationIncomplete
	case errors.IsValidationError(err):
		return http.StatusBadRequest, CodeBadRequest
	case errors.IsUpstreamUnavailable(err):
		return http.StatusBadGateway, CodeUpstreamUnavailable
	case errors.IsCatalogUnavailable(err):
		return http.StatusServiceUnavailable, CodeCatalogUnavailable
	case errors.IsCanceled(err):
		return http.StatusServiceUnavailable, CodeCanceled
	case errors.IsNotFound(err):
		return http.StatusNotFound, CodeNotFound
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// ErrorFromType maps typed errors to HTTP responses. Unclassified errors
// become an opaque 500.
func ErrorFromType(w http.ResponseWriter, err error) {
	status, code := StatusFor(err)
	if status == http.StatusInternalServerError {
		InternalError(w, err)
		return
	}
	JSON(w, status, Fail(code, err.Error(), ""))
}

// ErrorWithData is ErrorFromType with a payload, for failures that still
// produced a partial result.
func ErrorWithData(w http.ResponseWriter, err error, data any) {
	status, code := StatusFor(err)
	resp := Fail(code, err.Error(), "")
	if status == http.StatusInternalServerError {
		resp = Fail(CodeInternal, "Internal server error", "An unexpected error occurred")
	}
	resp.Data = data
	JSON(w, status, resp)
}
