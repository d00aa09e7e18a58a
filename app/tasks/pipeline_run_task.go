package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/msavelyev/productscout/app/pipeline"
)

var _ TaskInterface = (*PipelineRunTask)(nil)

// PipelineRunTask triggers one gated pipeline run. The run gate and the
// runner's in-flight lock decide whether anything actually happens, so
// enqueueing this on every tick is safe.
type PipelineRunTask struct {
	Task
	job    string
	runner *pipeline.Runner
}

func NewPipelineRunTask(job string, runner *pipeline.Runner) *PipelineRunTask {
	return &PipelineRunTask{
		Task:   NewTask(TaskTypePipelineRun),
		job:    job,
		runner: runner,
	}
}

func (t *PipelineRunTask) Execute(ctx context.Context) error {
	summary, err := t.runner.Run(ctx, t.job)
	if err != nil {
		return fmt.Errorf("failed to run pipeline for job %s: %w", t.job, err)
	}

	if summary.Skipped {
		slog.Debug("Scheduled pipeline run skipped", "job", t.job, "reason", summary.Reason)
		return nil
	}

	slog.Info("Scheduled pipeline run completed", "job", t.job,
		"new", summary.NewRecords, "duplicates", summary.Duplicates, "errors", len(summary.Errors))
	return nil
}
