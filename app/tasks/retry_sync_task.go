package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/msavelyev/productscout/app/pipeline"
)

var _ TaskInterface = (*RetrySyncTask)(nil)

// RetrySyncTask re-reconciles approved records that missed the sink on their
// first approval, draining the backlog once the sink is reachable again.
type RetrySyncTask struct {
	Task
	runner *pipeline.Runner
}

func NewRetrySyncTask(runner *pipeline.Runner) *RetrySyncTask {
	return &RetrySyncTask{
		Task:   NewTask(TaskTypeRetrySync),
		runner: runner,
	}
}

func (t *RetrySyncTask) Execute(ctx context.Context) error {
	synced, errs := t.runner.RetrySync(ctx)

	if synced > 0 {
		slog.Info("Sink sync backlog drained", "synced", synced, "errors", len(errs))
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to sync %d records: %s", len(errs), errs[0])
	}
	return nil
}
