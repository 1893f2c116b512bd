package sol

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

var (
	ErrSourceUnreadable = errors.New("contract source is unreadable")
	ErrCompilation      = errors.New("contract compilation failed")
	ErrContractNotFound = errors.New("contract not found in compiled sources")
)

// SourceError is returned when the .sol file cannot be read.
type SourceError struct {
	Path string
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrSourceUnreadable.Error(), e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func (e *SourceError) Is(target error) bool { return target == ErrSourceUnreadable }

// Diagnostic is a single entry of the compiler's error list.
type Diagnostic struct {
	Severity string
	Type     string
	Message  string
}

// CompilationError carries the compiler diagnostics exactly as solc reported them.
type CompilationError struct {
	Source      string
	Diagnostics []Diagnostic

	errs *multierror.Error
}

func newCompilationError(source string, diagnostics []Diagnostic) *CompilationError {
	e := &CompilationError{
		Source:      source,
		Diagnostics: diagnostics,
	}

	for _, d := range diagnostics {
		e.errs = multierror.Append(e.errs, errors.New(d.Message))
	}

	if e.errs != nil {
		e.errs.ErrorFormat = diagnosticsFormat
	}

	return e
}

func (e *CompilationError) Error() string {
	if e.errs == nil {
		return fmt.Sprintf("%s: %s", ErrCompilation.Error(), e.Source)
	}

	return fmt.Sprintf("%s: %s:\n%s", ErrCompilation.Error(), e.Source, e.errs.Error())
}

func (e *CompilationError) Unwrap() error {
	return e.errs.ErrorOrNil()
}

func (e *CompilationError) Is(target error) bool { return target == ErrCompilation }

// diagnosticsFormat keeps solc messages verbatim, one after another.
func diagnosticsFormat(errs []error) string {
	messages := make([]string, 0, len(errs))
	for _, err := range errs {
		messages = append(messages, strings.TrimRight(err.Error(), "\n"))
	}

	return strings.Join(messages, "\n")
}

// LookupContract picks the named contract out of a Compile result.
func LookupContract(contracts map[string]*Contract, contractName string) (*Contract, error) {
	if contract, ok := contracts[contractName]; ok {
		return contract, nil
	}

	found := make([]string, 0, len(contracts))
	for name := range contracts {
		found = append(found, name)
	}

	return nil, errors.Wrapf(ErrContractNotFound, "%s (found: %s)", contractName, strings.Join(sortedStrings(found), ", "))
}
