// Package response provides the tagged success/error envelope returned by
// every action.
package response

// Code is a stable error identifier consumed by callers.
type Code string

// Response is either {success: true, data} or {success: false, code, message}.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Code    Code   `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// OK wraps data in a success response.
func OK[T any](data T) Response[T] {
	return Response[T]{Success: true, Data: data}
}

// Error builds a failure response with the given code and message.
func Error[T any](code Code, message string) Response[T] {
	return Response[T]{Code: code, Message: message}
}

// Err returns the failure as "CODE: message", or "" on success.
func (r Response[T]) Err() string {
	if r.Success {
		return ""
	}
	return string(r.Code) + ": " + r.Message
}
