// =============================================================================
// Shipment Report - Source Validation
// =============================================================================
//
// This module checks that a parsed source file can be fed to the engine at
// all. It runs once per file, on the header only; row values are never
// rejected (unparseable numbers read as zero further down the line).
//
// SEVERITIES:
//   - error:   the order-id column is missing. Without it no row can be
//              grouped, so the whole file is skipped.
//   - warning: another essential column is missing. Its values read as empty
//              strings, which the engine tolerates, but the numbers in the
//              report may be off and the user should know.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/ginjaninja78/shipment-report/internal/config"
)

// ErrMissingOrderColumn marks a source without the order-id column.
var ErrMissingOrderColumn = eris.New("validation: order id column missing")

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// Severity is the weight of an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError represents a single header problem.
type ValidationError struct {
	Severity Severity

	// Field is the column the issue is about.
	Field string

	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] column '%s': %s", strings.ToUpper(string(e.Severity)), e.Field, e.Message)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// Result contains the outcome of validating one source.
type Result struct {
	// IsValid is true if there are no errors (warnings allowed).
	IsValid bool

	// Errors contains every issue, errors first, then warnings.
	Errors []*ValidationError

	ErrorCount   int
	WarningCount int
}

// Err returns nil for a valid result, otherwise an error wrapping
// ErrMissingOrderColumn that lists every fatal issue.
func (r *Result) Err() error {
	if r.IsValid {
		return nil
	}
	var msgs []string
	for _, e := range r.Errors {
		if e.Severity == SeverityError {
			msgs = append(msgs, e.Error())
		}
	}
	return eris.Wrap(ErrMissingOrderColumn, strings.Join(msgs, "; "))
}

// Warnings returns the non-fatal issues.
func (r *Result) Warnings() []*ValidationError {
	var out []*ValidationError
	for _, e := range r.Errors {
		if e.Severity == SeverityWarning {
			out = append(out, e)
		}
	}
	return out
}

func (r *Result) add(severity Severity, field, message string) {
	r.Errors = append(r.Errors, &ValidationError{
		Severity: severity,
		Field:    field,
		Message:  message,
	})
	if severity == SeverityError {
		r.ErrorCount++
		r.IsValid = false
	} else {
		r.WarningCount++
	}
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// ValidateHeaders checks a source header against the configured fields.
//
// PARAMETERS:
//   - headers: The header row of the source file.
//   - fields: The configured column names.
//
// RETURNS:
//   - A Result; Result.Err() is non-nil when the file must be skipped.
func ValidateHeaders(headers []string, fields config.Fields) *Result {
	result := &Result{IsValid: true}

	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}

	if !present[fields.OrderID] {
		result.add(SeverityError, fields.OrderID, "required to group rows into orders")
	}

	for _, field := range fields.Essential() {
		if field == "" || field == fields.OrderID || present[field] {
			continue
		}
		result.add(SeverityWarning, field, "missing; values will be read as empty")
	}

	return result
}
