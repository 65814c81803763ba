package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds returned by the ledger. Callers match them with errors.Is and
// map them to transport codes.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("account not found")
	ErrInvalidParty      = errors.New("invalid sender or receiver")
	ErrBlocked           = errors.New("transaction blocked")
	ErrInsufficientFunds = errors.New("insufficient balance")
)

// ValidationError carries per-field failures and matches ErrValidation
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(names, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
