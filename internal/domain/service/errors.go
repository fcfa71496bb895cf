package service

import "errors"

var (
	// ErrInvalidInput is returned when an ABI document is not a list of items
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedDescriptor is returned when a matched ABI item cannot describe a call
	ErrMalformedDescriptor = errors.New("malformed abi descriptor")

	// ErrInvalidNumber is returned when a numeric value cannot be parsed
	ErrInvalidNumber = errors.New("invalid number")

	// ErrMissingTopic is returned when a log carries fewer topics than indexed inputs
	ErrMissingTopic = errors.New("missing log topic")
)
