package deployer

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/core"
	"github.com/pkg/errors"

	"github.com/InjectiveLabs/contract-deployer/sol"
)

var (
	ErrNoAccount         = errors.New("no signing account available")
	ErrSubmission        = errors.New("contract creation rejected")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOutOfGas          = errors.New("gas limit exhausted")
	ErrNetwork           = errors.New("network failure")
	ErrUnexpected        = errors.New("unexpected failure")
)

// Error ties a failure Kind (one of the Err* sentinels above) to the
// collaborator error that caused it. The cause text is kept verbatim.
type Error struct {
	Kind error
	Err  error
}

func newError(kind, err error) error {
	return &Error{
		Kind: kind,
		Err:  err,
	}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.Error()
	}

	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Err.Error())
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind }

// classifyError maps a collaborator error onto the failure kinds. Errors that
// match nothing known get the fallback kind, e.g. a node rejecting a raw tx
// for any other reason is ErrSubmission.
func classifyError(err, fallback error) error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return err
	}

	switch {
	case isConnectivityError(err):
		return newError(ErrNetwork, err)
	case isInsufficientFunds(err):
		return newError(ErrInsufficientFunds, err)
	case isOutOfGas(err):
		return newError(ErrOutOfGas, err)
	}

	return newError(fallback, err)
}

// classifyCompileError keeps the compiler taxonomy intact, anything else is unexpected.
func classifyCompileError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sol.ErrSourceUnreadable),
		errors.Is(err, sol.ErrCompilation),
		errors.Is(err, sol.ErrContractNotFound):
		return err
	default:
		return newError(ErrUnexpected, err)
	}
}

func isConnectivityError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, ErrAwaitTimeout) ||
		errors.Is(err, ErrClientNotAvailable) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

func isInsufficientFunds(err error) bool {
	return errors.Is(err, core.ErrInsufficientFunds) ||
		errors.Is(err, core.ErrInsufficientFundsForTransfer) ||
		strings.Contains(err.Error(), "insufficient funds")
}

func isOutOfGas(err error) bool {
	msg := err.Error()
	return errors.Is(err, core.ErrIntrinsicGas) ||
		errors.Is(err, core.ErrGasLimitReached) ||
		strings.Contains(msg, core.ErrIntrinsicGas.Error()) ||
		strings.Contains(msg, "exceeds block gas limit") ||
		strings.Contains(msg, "out of gas")
}
