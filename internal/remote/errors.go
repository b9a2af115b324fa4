package remote

import (
	"errors"
	"strings"

	"github.com/lib/pq"

	"budgetrack/internal/persist"
)

// classify maps PostgreSQL error codes onto persistence categories.
func classify(op, table string, err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return persist.NewError(op, table, categoryOf(pqErr.Code), err)
	}
	if errors.Is(err, pq.ErrSSLNotSupported) {
		return persist.NewError(op, table, persist.CategoryNetwork, err)
	}
	return persist.Wrap(op, table, err)
}

func categoryOf(code pq.ErrorCode) persist.Category {
	switch code {
	case "42P01", "42703", "42704", "3F000", "42804", "22P02":
		return persist.CategorySchema
	case "57P01", "57P02", "57P03", "53300":
		return persist.CategoryNetwork
	}
	switch {
	case strings.HasPrefix(string(code), "28"), code == "42501":
		return persist.CategoryAuth
	case strings.HasPrefix(string(code), "08"):
		return persist.CategoryNetwork
	}
	return persist.CategoryUnknown
}
