package http

import (
	"encoding/json"
	"net/http"

	"receipts/internal/log"
	"receipts/internal/middleware/trace"
)

// JSONResponseBuilder assembles a JSON response with a fluent API.
type JSONResponseBuilder struct {
	statusCode int
	body       any
	headers    map[string]string
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write encodes the body and sends the response. Encoding happens before the
// status line so a marshal failure still becomes a clean 500.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter, r *http.Request) {
	var data []byte
	if b.body != nil {
		var err error
		data, err = json.Marshal(b.body)
		if err != nil {
			log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to encode response", log.FieldError, err.Error())
			InternalServerError("failed to encode response").Write(w, r)
			return
		}
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if len(data) > 0 {
		_, _ = w.Write(append(data, '\n'))
	}
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// APIError defers the request id lookup until Write.
type APIError struct {
	*JSONResponseBuilder
	body errorBody
}

func (e *APIError) Write(w http.ResponseWriter, r *http.Request) {
	e.body.RequestID = trace.GetRequestID(r.Context())
	e.JSONResponseBuilder.Body(e.body).Write(w, r)
}

// ErrorResponse creates a JSON error with a machine readable code.
func ErrorResponse(statusCode int, code, message string) *APIError {
	return &APIError{
		JSONResponseBuilder: NewJSONResponse().Status(statusCode),
		body:                errorBody{Error: code, Message: message},
	}
}

func BadRequestError(message string) *APIError {
	return ErrorResponse(http.StatusBadRequest, "bad_request", message)
}

func NotFoundError(message string) *APIError {
	return ErrorResponse(http.StatusNotFound, "not_found", message)
}

func InternalServerError(message string) *APIError {
	return ErrorResponse(http.StatusInternalServerError, "internal_error", message)
}

func ServiceUnavailableError(message string) *APIError {
	return ErrorResponse(http.StatusServiceUnavailable, "unavailable", message)
}
