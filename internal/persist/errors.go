package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"syscall"
)

// Category groups persistence failures by how an operator would react to them.
type Category string

const (
	CategoryNetwork Category = "network"
	CategoryAuth    Category = "auth"
	CategorySchema  Category = "schema"
	CategoryUnknown Category = "unknown"
)

// Error is returned by adapters, the writer and the remote tables.
type Error struct {
	Op       string
	Key      string
	Category Category
	Err      error
}

func NewError(op, key string, category Category, err error) *Error {
	return &Error{Op: op, Key: key, Category: category, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("persist %s %s (%s): %v", e.Op, e.Key, e.Category, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether trying again later may succeed.
func (e *Error) Retryable() bool {
	return e.Category == CategoryNetwork
}

// Wrap turns err into an *Error, keeping the category of an existing one.
func Wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return NewError(op, key, Classify(err), err)
}

// Classify guesses the category of an error that did not come with one.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}

	var netErr net.Error
	switch {
	case errors.As(err, &netErr),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, net.ErrClosed):
		return CategoryNetwork
	case errors.Is(err, fs.ErrPermission):
		return CategoryAuth
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return CategorySchema
	}
	return CategoryUnknown
}

// CategoryOf returns the category carried by err, or unknown.
func CategoryOf(err error) Category {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryUnknown
}
