// Package httputil carries the uniform JSON response envelope shared by
// every route.
package httputil

import "github.com/gin-gonic/gin"

// FieldError tags a validation failure with the offending field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Envelope is the shape of every response body.
type Envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
	Count   *int64       `json:"count,omitempty"`
}

// OK writes a success envelope with the given payload.
func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// OKMessage writes a success envelope with a message and payload.
func OKMessage(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// OKCount writes a success envelope for list responses with a total count.
func OKCount(c *gin.Context, status int, data any, count int64) {
	c.JSON(status, Envelope{Success: true, Data: data, Count: &count})
}

// Fail writes a failure envelope with a message.
func Fail(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: false, Message: message})
}

// FailFields writes a failure envelope carrying field-tagged errors.
func FailFields(c *gin.Context, status int, message string, errs []FieldError) {
	c.JSON(status, Envelope{Success: false, Message: message, Errors: errs})
}
