package matrix

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Errors returned by this package carry one of three kinds:
//
//   errors.Invalid: bad arguments; the matrix was not modified.
//   errors.Integrity: the pixel list or an index broke an ordering invariant.
//   errors.Precondition: array lengths do not agree with each other.
//
// Use errors.Is(kind, err) from github.com/grailbio/base/errors to test them.

func invalidf(format string, args ...interface{}) error {
	return errors.E(errors.Invalid, fmt.Sprintf(format, args...))
}

func integrityf(format string, args ...interface{}) error {
	return errors.E(errors.Integrity, fmt.Sprintf(format, args...))
}

func mismatchf(format string, args ...interface{}) error {
	return errors.E(errors.Precondition, fmt.Sprintf(format, args...))
}
