package models

// ErrorResponse is the common error body for all endpoints.
// swagger:model ErrorResponse
type ErrorResponse struct {
	// Error message
	// example: date must not be in the future
	Error string `json:"error"`
}
