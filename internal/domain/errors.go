package domain

import "errors"

var (
	// ErrEmptyMessage rejects inbound payloads without usable content.
	ErrEmptyMessage = errors.New("message content is empty")

	// ErrMalformedPayload rejects inbound payloads that are not valid JSON
	// of the expected shape.
	ErrMalformedPayload = errors.New("malformed payload")
)
