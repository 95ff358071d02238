// Package types holds the wire envelopes shared by every API response.
package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape. Details are populated only for codes
// whose metadata allows it, so internal causes never leak to members.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
