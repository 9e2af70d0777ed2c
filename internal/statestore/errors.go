package statestore

import "errors"

var (
	errStoreRequired  = errors.New("state store is required")
	errLoggerRequired = errors.New("logger is required")
)
