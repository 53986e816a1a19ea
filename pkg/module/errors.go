// SPDX-License-Identifier: MPL-2.0

package module

import (
	"errors"
	"fmt"
)

var (
	// ErrModuleNotFound is the sentinel wrapped by NotFoundError.
	ErrModuleNotFound = errors.New("module not found")

	// ErrInvalidAttribute is the sentinel wrapped by InvalidAttributeError.
	ErrInvalidAttribute = errors.New("invalid module attribute")
)

type (
	// NotFoundError is returned by strict lookups when no module has the given name.
	// It wraps ErrModuleNotFound for errors.Is() compatibility.
	NotFoundError struct {
		Name string
	}

	// InvalidAttributeError is returned when an attribute holds a value of the wrong type.
	// It wraps ErrInvalidAttribute for errors.Is() compatibility.
	InvalidAttributeError struct {
		Module string
		Key    string
		Value  any
		Want   string
	}
)

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("module [%s] does not exist", e.Name)
}

// Unwrap returns ErrModuleNotFound.
func (e *NotFoundError) Unwrap() error {
	return ErrModuleNotFound
}

// Error implements the error interface.
func (e *InvalidAttributeError) Error() string {
	return fmt.Sprintf("module [%s]: attribute %q: expected %s, got %T (%v)", e.Module, e.Key, e.Want, e.Value, e.Value)
}

// Unwrap returns ErrInvalidAttribute.
func (e *InvalidAttributeError) Unwrap() error {
	return ErrInvalidAttribute
}
