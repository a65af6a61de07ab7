// internal/common/errors/handler.go
package errors

import (
	"encoding/json"
	"net/http"
)

// ErrorHandler writes typed errors as JSON HTTP responses.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleHTTPError normalizes err, logs it and writes the mapped status.
func (h *ErrorHandler) HandleHTTPError(w http.ResponseWriter, err error, fields map[string]interface{}) *StandardError {
	stdErr := Normalize(err)
	status := HTTPStatus(stdErr.Code)

	h.logError(stdErr, status, fields)

	_ = WriteJSON(w, status, ErrorResponse{Error: stdErr.Message})
	return stdErr
}

// WriteJSON encodes body with the given status code. The body is marshalled
// before the header is written; if that fails the reply becomes a 500 with
// the encoding error and the error is returned.
func WriteJSON(w http.ResponseWriter, status int, body interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		data, _ = json.Marshal(ErrorResponse{Error: err.Error()})
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
	return err
}

func (h *ErrorHandler) logError(stdErr *StandardError, status int, fields map[string]interface{}) {
	if h.logger == nil {
		return
	}

	logFields := map[string]interface{}{
		"errorCode":     string(stdErr.Code),
		"errorCategory": GetErrorCategory(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"status":        status,
	}
	for k, v := range fields {
		logFields[k] = v
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", logFields)
		return
	}
	h.logger.Warn("Request rejected", logFields)
}
