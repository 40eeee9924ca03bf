package rageval

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
)

type RunID struct{ uuid.UUID }

func NewRunID() RunID {
	return RunID{uuid.Must(uuid.NewV4())}
}

type RunKind string

const (
	RunKindGenerate RunKind = "GENERATE"
	RunKindAnswer   RunKind = "ANSWER"
	RunKindScore    RunKind = "SCORE"
	RunKindDownload RunKind = "DOWNLOAD"
)

type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// Run records one invocation of a pipeline stage.
type Run struct {
	ID       RunID
	Kind     RunKind
	Input    string
	Output   string
	Rows     int
	Summary  map[string]float64
	Status   RunStatus
	Message  string
	Created  time.Time
	Finished time.Time
}

type RunFilter struct {
	Kind   RunKind
	Status RunStatus
}

// Complete moves a running run to a final status.
func (r *Run) Complete(status RunStatus, message string, finishedAt time.Time) error {
	if r.Status != RunStatusRunning {
		return fmt.Errorf("cannot change status from %s to %s", r.Status, status)
	}

	r.Status = status
	r.Message = message
	r.Finished = finishedAt

	return nil
}

func (re *ragEval) ListRuns(ctx context.Context, filter RunFilter, limit int) ([]*Run, error) {
	if re.runs == nil {
		return nil, fmt.Errorf("run store: %w", ErrNotConfigured)
	}

	var runs []*Run
	if err := re.runs.Transactional(ctx, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context) error {
		var err error
		runs, err = re.runs.ListRuns(ctx, filter, limit)
		return err
	}); err != nil {
		return nil, err
	}

	return runs, nil
}

func (re *ragEval) FindRun(ctx context.Context, id RunID) (*Run, error) {
	if re.runs == nil {
		return nil, fmt.Errorf("run store: %w", ErrNotConfigured)
	}

	var aRun *Run
	if err := re.runs.Transactional(ctx, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context) error {
		var err error
		aRun, err = re.runs.FindRun(ctx, id)
		return err
	}); err != nil {
		return nil, err
	}

	return aRun, nil
}

// track runs fn as a recorded run. The run is saved before fn starts and again once it finishes.
func (re *ragEval) track(ctx context.Context, kind RunKind, input, output string, fn func(ctx context.Context, aRun *Run) error) (*Run, error) {
	aRun := &Run{
		ID:      NewRunID(),
		Kind:    kind,
		Input:   input,
		Output:  output,
		Summary: map[string]float64{},
		Status:  RunStatusRunning,
		Created: re.now(),
	}

	logger := re.logger.Sugar().With("run", aRun.ID.String(), "kind", kind)
	logger.Info("run started")

	if err := re.saveRun(ctx, aRun); err != nil {
		return nil, err
	}

	runErr := fn(ctx, aRun)

	status, message := RunStatusCompleted, ""
	if runErr != nil {
		status, message = RunStatusFailed, runErr.Error()
	}
	if err := aRun.Complete(status, message, re.now()); err != nil {
		return nil, err
	}

	// The run may have been cancelled, the final state is still worth keeping.
	if err := re.saveRun(context.WithoutCancel(ctx), aRun); err != nil {
		logger.Errorw("saving finished run failed", "error", err)
	}

	if runErr != nil {
		logger.Errorw("run failed", "error", runErr)
		return aRun, runErr
	}

	logger.Infow("run completed", "rows", aRun.Rows, "summary", aRun.Summary)

	return aRun, nil
}

func (re *ragEval) saveRun(ctx context.Context, aRun *Run) error {
	if re.runs == nil {
		return nil
	}
	return re.runs.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		if err := re.runs.SaveRun(ctx, aRun); err != nil {
			return fmt.Errorf("saving run: %w", err)
		}
		return nil
	})
}
