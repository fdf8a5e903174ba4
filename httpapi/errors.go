package httpapi

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the JSON body of a failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// HTTPError pairs an error response with its status code.
type HTTPError struct {
	StatusCode int
	Response   ErrorResponse
}

func (e *HTTPError) Error() string {
	return e.Response.Message
}

// NewInvalidRequestError creates a 400 error.
func NewInvalidRequestError(message string) *HTTPError {
	return &HTTPError{
		StatusCode: http.StatusBadRequest,
		Response:   ErrorResponse{Error: "invalid_request", Message: message},
	}
}

// NewNotFoundError creates a 404 error.
func NewNotFoundError(message string) *HTTPError {
	return &HTTPError{
		StatusCode: http.StatusNotFound,
		Response:   ErrorResponse{Error: "not_found", Message: message},
	}
}

// NewInternalError creates a 500 error.
func NewInternalError(message string) *HTTPError {
	return &HTTPError{
		StatusCode: http.StatusInternalServerError,
		Response:   ErrorResponse{Error: "internal_error", Message: message},
	}
}

// WriteError writes an error as a JSON response
func WriteError(w http.ResponseWriter, err error) {
	httpErr, ok := err.(*HTTPError)
	if !ok {
		httpErr = NewInternalError(err.Error())
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpErr.StatusCode)
	json.NewEncoder(w).Encode(httpErr.Response)
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}
