package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Error taxonomy shared by every engine. Handlers map these with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStoreUnavailable  = errors.New("store unavailable")
)

// ValidationError describes malformed or out-of-range input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientStockError is returned when a change would drive an item below zero.
type InsufficientStockError struct {
	ItemID       uuid.UUID
	ItemName     string
	CurrentStock int
	Requested    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: current %d, requested %d",
		e.ItemName, e.CurrentStock, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func notFound(what string, id uuid.UUID) error {
	return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
}

// classify passes domain errors through untouched and wraps everything else
// as ErrStoreUnavailable, keeping the cause (context errors included) in the chain.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrStoreUnavailable):
		return err
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		// the CHECK (current_stock >= 0) backstop fired
		return fmt.Errorf("%s: %w: %w", op, ErrInsufficientStock, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}

// lookupErr turns a repository read failure into NotFound or StoreUnavailable.
func lookupErr(op, what string, id uuid.UUID, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(what, id)
	}
	return classify(op, err)
}
