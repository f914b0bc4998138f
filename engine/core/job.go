package core

// JobTask is a unit of work executed off the update thread.
type JobTask struct {
	// OnStart runs on a worker. Required.
	OnStart func() error
	// OnComplete runs on the worker after OnStart succeeded. Optional.
	OnComplete func()
	// OnFailure runs on the worker after OnStart failed. Optional.
	OnFailure func(err error)
}

// JobSubmitter queues jobs without blocking the caller.
type JobSubmitter interface {
	Submit(job JobTask)
}
