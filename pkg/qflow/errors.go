package qflow

import (
	"fmt"
	"sort"
	"strings"

	"github.com/qflowdev/qflow/internal/ansi"
	"github.com/qflowdev/qflow/internal/log"
)

// MultiError collects every error accumulated during one compilation or
// refresh cycle so the caller sees all of them at once instead of
// stopping at the first.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	s := []string{}
	for _, err := range e.Errors {
		s = append(s, fmt.Sprintf(" - %s\n", err))
	}
	sort.Strings(s)
	return ansi.Sprintf("@r{%d} error(s) detected:\n%s\n", len(e.Errors), strings.Join(s, ""))
}

// Count returns the number of accumulated errors.
func (e *MultiError) Count() int {
	return len(e.Errors)
}

// Append adds err, flattening a nested MultiError.
func (e *MultiError) Append(err error) {
	if err == nil {
		return
	}
	if mult, ok := err.(MultiError); ok {
		e.Errors = append(e.Errors, mult.Errors...)
	} else {
		e.Errors = append(e.Errors, err)
	}
}

// ErrorContext flags which compilation context a WarningError applies
// to; bitwise-or several together. Zero means "all contexts."
type ErrorContext uint

const (
	ContextAll ErrorContext = 0
	// ContextCompile marks warnings raised while compiling function nodes.
	ContextCompile ErrorContext = 1 << iota
	// ContextQuery marks warnings raised while refreshing the query-calc tree.
	ContextQuery
	// ContextMerge marks warnings raised by the merge indexer tables.
	ContextMerge
)

var dontPrintWarning bool

// WarningError is spec.md §7's "warned-once" error class: syntax/type
// errors, qualifier cycles, redundant/conflicting qualifiers, and
// unknown-node lookups are all reported this way — compilation continues
// with a best-effort node rather than aborting.
type WarningError struct {
	warning string
	context ErrorContext
}

// NewWarningError builds a WarningError scoped to the given context(s).
func NewWarningError(context ErrorContext, warning string, args ...interface{}) WarningError {
	return WarningError{warning: ansi.Sprintf(warning, args...), context: context}
}

// SilenceWarnings suppresses WarningError.Warn() output when should is true.
func SilenceWarnings(should bool) {
	dontPrintWarning = should
	log.SilenceWarnings(should)
}

func (e WarningError) Error() string {
	return e.warning
}

// HasContext reports whether e applies to the given context.
func (e WarningError) HasContext(context ErrorContext) bool {
	return e.context == ContextAll || (context&e.context) > 0
}

// Warn prints the warning to stderr exactly once per distinct key via
// the shared log.WarnOnce dedup table.
func (e WarningError) Warn() {
	if dontPrintWarning {
		return
	}
	log.WarnOnce(e.warning, ansi.Sprintf("@Y{warning:} %s\n", e.warning))
}

// QflowError is the typed error returned from compilation, query, and
// merge routines for recoverable user-level issues (spec.md §7).
type QflowError struct {
	Type    ErrorType
	Message string
	Path    string
	Cause   error
}

func (e *QflowError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s at %s: %s", e.Type, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *QflowError) Unwrap() error {
	return e.Cause
}

// ErrorType categorises a QflowError, mapping onto spec.md §7's error
// kinds (syntax error, type error, runtime assertion, cycle, redundant/
// conflicting qualifier, unknown node).
type ErrorType string

const (
	ParseError         ErrorType = "parse_error"
	CompileError       ErrorType = "compile_error"
	QueryError         ErrorType = "query_error"
	MergeError         ErrorType = "merge_error"
	IdentityError      ErrorType = "identity_error"
	ConfigurationError ErrorType = "configuration_error"
	ValidationError    ErrorType = "validation_error"
	ExternalError      ErrorType = "external_error"
)

func NewParseError(message string, cause error) *QflowError {
	return &QflowError{Type: ParseError, Message: message, Cause: cause}
}

func NewCompileError(path, message string, cause error) *QflowError {
	return &QflowError{Type: CompileError, Message: message, Path: path, Cause: cause}
}

func NewQueryError(path, message string, cause error) *QflowError {
	return &QflowError{Type: QueryError, Message: message, Path: path, Cause: cause}
}

func NewMergeError(message string, cause error) *QflowError {
	return &QflowError{Type: MergeError, Message: message, Cause: cause}
}

func NewIdentityError(message string, cause error) *QflowError {
	return &QflowError{Type: IdentityError, Message: message, Cause: cause}
}

func NewConfigurationError(message string) *QflowError {
	return &QflowError{Type: ConfigurationError, Message: message}
}

func NewValidationError(message string) *QflowError {
	return &QflowError{Type: ValidationError, Message: message}
}

func NewExternalError(service, message string, cause error) *QflowError {
	return &QflowError{Type: ExternalError, Message: fmt.Sprintf("%s: %s", service, message), Cause: cause}
}

// IsQflowError reports whether err is a *QflowError.
func IsQflowError(err error) bool {
	_, ok := err.(*QflowError)
	return ok
}

// GetErrorType returns err's ErrorType if it is a *QflowError, "" otherwise.
func GetErrorType(err error) ErrorType {
	if qe, ok := err.(*QflowError); ok {
		return qe.Type
	}
	return ""
}

// StructuralInvariantError is not an ordinary error value: structural
// invariants of the graph (cache corruption, a stub cycle count past the
// guard threshold) panic with this type instead of being returned,
// matching spec.md §7's "do throw and terminate the cycle."
type StructuralInvariantError struct {
	Path       string
	TemplateID int
	Detail     string
}

func (e StructuralInvariantError) Error() string {
	return fmt.Sprintf("structural invariant violated at path %q (template %d): %s", e.Path, e.TemplateID, e.Detail)
}
