package allocator

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is returned (wrapped in *InvalidInputError) when the input cannot be allocated
var ErrInvalidInput = errors.New("invalid allocation input")

// InvalidInputError lists every problem found in the input
type InvalidInputError struct {
	Problems []string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidInput, strings.Join(e.Problems, "; "))
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// problemList collects validation problems and turns them into an error
type problemList []string

func (p *problemList) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p problemList) err() error {
	if len(p) == 0 {
		return nil
	}
	return &InvalidInputError{Problems: p}
}
