// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package so internal details
// (stack traces, SQL errors) never leak.
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation failed", Fields: fields}
}

// FieldError reports a single invalid field found past the binding layer.
type FieldError struct {
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

func NewField(field, msg string) *FieldError {
	return &FieldError{Detail: msg, Field: field}
}

// InsufficientStock is returned with 409 when a stock change would go below zero.
type InsufficientStock struct {
	Detail       string `json:"detail"`
	ItemID       string `json:"item_id"`
	CurrentStock int    `json:"current_stock"`
	Requested    int    `json:"requested"`
}

func NewInsufficientStock(msg, itemID string, current, requested int) *InsufficientStock {
	return &InsufficientStock{Detail: msg, ItemID: itemID, CurrentStock: current, Requested: requested}
}
