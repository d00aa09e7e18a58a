package tasks

// TaskSchedulerInterface is used by the main application to manage the
// background task loop.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
