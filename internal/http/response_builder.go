// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses.
// Every response is an envelope with an optional user-facing notification
// and an optional data payload.

package http

import (
	"encoding/json"
	"net/http"
)

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// Notification is the message a client shows next to the result of an action.
type Notification struct {
	Type    NotificationType `json:"type"`
	Message string           `json:"message"`
}

// Envelope is the body of every JSON response.
type Envelope struct {
	Notification *Notification `json:"notification,omitempty"`
	Data         any           `json:"data,omitempty"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	envelope   Envelope
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Notify attaches a notification. A later call replaces an earlier one.
func (b *JSONResponseBuilder) Notify(notifType NotificationType, message string) *JSONResponseBuilder {
	b.envelope.Notification = &Notification{Type: notifType, Message: message}
	return b
}

// Success is a convenience method for success notifications.
func (b *JSONResponseBuilder) Success(message string) *JSONResponseBuilder {
	return b.Notify(NotificationSuccess, message)
}

// Warning is a convenience method for warning notifications.
func (b *JSONResponseBuilder) Warning(message string) *JSONResponseBuilder {
	return b.Notify(NotificationWarning, message)
}

// Info is a convenience method for info notifications.
func (b *JSONResponseBuilder) Info(message string) *JSONResponseBuilder {
	return b.Notify(NotificationInfo, message)
}

// Data sets the payload.
func (b *JSONResponseBuilder) Data(v any) *JSONResponseBuilder {
	b.envelope.Data = v
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if b.statusCode == http.StatusNoContent {
		return
	}
	_ = json.NewEncoder(w).Encode(b.envelope)
}

// ErrorResponse creates a response carrying only an error notification.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Notify(NotificationError, message)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// ConflictWarning creates a 409 response for a refused action the user can
// fix, such as exporting an empty ledger.
func ConflictWarning(message string) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusConflict).
		Warning(message)
}
