package domain

import "errors"

// Common errors
var (
	ErrNotFound           = errors.New("record not found")
	ErrPaymentRequired    = errors.New("payment required to unlock the full report")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrInvalidToken       = errors.New("invalid or expired report token")
	ErrUnsupportedChannel = errors.New("unsupported delivery channel")
	ErrInvalidRecipient   = errors.New("invalid recipient")
	ErrAlreadyPaid        = errors.New("session is already paid")
	ErrAmountMismatch     = errors.New("paid amount does not match the invoice")
	ErrInvalidPayload     = errors.New("invalid payload")
)
