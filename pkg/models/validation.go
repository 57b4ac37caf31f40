package models

import "strings"

// ValidationResult is produced by input and output validation steps. Errors
// is non-empty exactly when Valid is false. Warnings may be present on a
// valid result; they are logged but do not stop execution.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// ValidResult returns a passing validation result.
func ValidResult() ValidationResult {
	return ValidationResult{Valid: true}
}

// InvalidResult returns a failing validation result with the given messages.
func InvalidResult(errs ...string) ValidationResult {
	return ValidationResult{Valid: false, Errors: errs}
}

// AddError appends an error message and marks the result invalid.
func (v *ValidationResult) AddError(message string) {
	v.Valid = false
	v.Errors = append(v.Errors, message)
}

// AddWarning appends a warning without affecting validity.
func (v *ValidationResult) AddWarning(message string) {
	v.Warnings = append(v.Warnings, message)
}

// ErrorMessage joins all error messages into the single string surfaced on a
// failed NodeExecutionResult.
func (v ValidationResult) ErrorMessage() string {
	return strings.Join(v.Errors, "; ")
}
