// Package errcli maps domain errors to console messages and process exit codes.
// Add a case to classify for each new domain sentinel error.
package errcli

import (
	"errors"
	"fmt"
	"io"

	"github.com/ghuser/pharmacy/pkg/validator"
	"github.com/ghuser/pharmacy/services/pharmacy/domain"
)

// Exit codes returned by ExitCode.
const (
	ExitOK       = 0
	ExitInternal = 1
	ExitUsage    = 2
	ExitNotFound = 3
	ExitRejected = 4
)

// Kind is a short label for the class of an error.
type Kind string

const (
	KindInvalid  Kind = "invalid input"
	KindStock    Kind = "insufficient stock"
	KindPolicy   Kind = "not allowed"
	KindNotFound Kind = "not found"
	KindInternal Kind = "error"
)

// Classify returns the Kind and exit code for err.
// Uses errors.Is() so wrapped sentinel errors are matched correctly.
func Classify(err error) (Kind, int) {
	var ie *validator.InputError
	switch {
	case err == nil:
		return "", ExitOK
	case errors.Is(err, domain.ErrValidation), errors.As(err, &ie):
		return KindInvalid, ExitUsage
	case errors.Is(err, domain.ErrInvalidArgument):
		return KindInvalid, ExitUsage
	case errors.Is(err, domain.ErrInsufficientStock):
		return KindStock, ExitRejected
	case errors.Is(err, domain.ErrPolicy), errors.Is(err, domain.ErrCatalogClosed):
		return KindPolicy, ExitRejected
	case errors.Is(err, domain.ErrMedicineNotFound),
		errors.Is(err, domain.ErrSupplierNotFound),
		errors.Is(err, domain.ErrSnapshotNotFound):
		return KindNotFound, ExitNotFound
	default:
		return KindInternal, ExitInternal
	}
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	_, code := Classify(err)
	return code
}

// Message renders err as a single console line.
func Message(err error) string {
	if err == nil {
		return ""
	}
	kind, _ := Classify(err)
	return fmt.Sprintf("%s: %v", kind, err)
}

// WriteError prints Message(err) to w.
func WriteError(w io.Writer, err error) {
	if err == nil {
		return
	}
	_, _ = fmt.Fprintln(w, Message(err))
}
