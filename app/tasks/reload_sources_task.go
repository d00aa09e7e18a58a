package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/msavelyev/productscout/app/feed"
)

var _ TaskInterface = (*ReloadSourcesTask)(nil)

// ReloadSourcesTask re-reads the source configuration directory, picking up
// edited or newly added source files without a restart.
type ReloadSourcesTask struct {
	Task
	sources *feed.ConfigCache
}

func NewReloadSourcesTask(sources *feed.ConfigCache) *ReloadSourcesTask {
	return &ReloadSourcesTask{
		Task:    NewTask(TaskTypeReloadSources),
		sources: sources,
	}
}

func (t *ReloadSourcesTask) Execute(ctx context.Context) error {
	if err := t.sources.Run(); err != nil {
		return fmt.Errorf("failed to reload source configurations: %w", err)
	}

	slog.Debug("Source configurations reloaded", "count", t.sources.GetConfigCount())
	return nil
}
