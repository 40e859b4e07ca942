package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyProcessed   = errors.New("already processed")
	ErrAlreadyPlaced      = errors.New("member already placed in binary tree")
	ErrIntegrityViolation = errors.New("integrity violation")
	ErrTransientStore     = errors.New("transient store failure")
	ErrValidation         = errors.New("validation failure")

	ErrCycleDetected    = errors.New("cycle detected in member tree")
	ErrLedgerMismatch   = errors.New("wallet balance does not match ledger sum")
	ErrPurchaseNotReady = errors.New("purchase is not completed")
)
