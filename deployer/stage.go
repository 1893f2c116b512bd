package deployer

import (
	"fmt"

	"github.com/pkg/errors"
	log "github.com/xlab/suplog"
)

// Stage is the position of a single build or deploy run in its pipeline.
type Stage string

const (
	StageIdle             Stage = "idle"
	StageCompiling        Stage = "compiling"
	StageCompiled         Stage = "compiled"
	StageAccountResolving Stage = "account_resolving"
	StageSubmitting       Stage = "submitting"
	StageConfirming       Stage = "confirming"
	StageDeployed         Stage = "deployed"
	StageFailed           Stage = "failed"
)

var ErrInvalidTransition = errors.New("invalid stage transition")

// IsTerminal reports whether no further stage can follow.
func (s Stage) IsTerminal() bool {
	return s == StageDeployed || s == StageFailed
}

func isAllowedTransition(from, to Stage) bool {
	if to == StageFailed {
		return !from.IsTerminal() && from != StageIdle
	}

	switch from {
	case StageIdle:
		return to == StageCompiling
	case StageCompiling:
		return to == StageCompiled
	case StageCompiled:
		return to == StageAccountResolving
	case StageAccountResolving:
		return to == StageSubmitting
	case StageSubmitting:
		return to == StageConfirming
	case StageConfirming:
		return to == StageDeployed
	default:
		return false
	}
}

// RunError is the terminal error of a failed run. Stage is the stage that was
// active when the failure happened, Err is the originating error.
type RunError struct {
	Stage Stage
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Stage, e.Err.Error())
}

func (e *RunError) Unwrap() error { return e.Err }

type run struct {
	stage    Stage
	observer func(stage Stage)
	logger   log.Logger
}

func (d *deployer) newRun(contractName string) *run {
	return &run{
		stage:    StageIdle,
		observer: d.options.StageObserver,
		logger:   log.WithField("contract", contractName),
	}
}

func (r *run) enter(to Stage) error {
	if !isAllowedTransition(r.stage, to) {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s", r.stage, to)
	}

	r.logger.WithField("from", r.stage).Debugln("entering stage", to)
	r.stage = to
	if r.observer != nil {
		r.observer(to)
	}

	return nil
}

// fail moves the run into the failed stage and returns the terminal error.
func (r *run) fail(err error) error {
	failedAt := r.stage
	if failedAt.IsTerminal() {
		return err
	}

	var runErr *RunError
	if errors.As(err, &runErr) {
		err = runErr.Err
	}

	if enterErr := r.enter(StageFailed); enterErr != nil {
		r.logger.WithError(enterErr).Warningln("failed to mark run as failed")
	}

	return &RunError{
		Stage: failedAt,
		Err:   err,
	}
}
