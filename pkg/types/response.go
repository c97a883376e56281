// Package types holds the JSON envelopes shared by handlers and the tests
// that decode their output.
package types

// Envelope wraps every successful response body as {"data": ...}.
type Envelope[T any] struct {
	Data T `json:"data"`
}

// SuccessEnvelope is the untyped envelope written by handlers.
type SuccessEnvelope = Envelope[any]

// APIError is the body of every failed request. Details carries field
// errors for validation failures and accessLevel for permission denials.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
