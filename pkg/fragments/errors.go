package fragments

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotFound is matched by every NotFoundError via errors.Is.
var ErrNotFound = errors.New("fragment not found")

// NotFoundError is returned when a named fragment does not exist in a category.
type NotFoundError struct {
	Category Category
	Name     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Category, e.Name)
}

// Is lets errors.Is(err, ErrNotFound) match any NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError builds the error for a missing (category, name) pair.
func NewNotFoundError(category Category, name string) error {
	return &NotFoundError{Category: category, Name: name}
}
