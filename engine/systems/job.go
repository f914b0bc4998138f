package systems

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/marmot/engine/core"
)

type JobSystem struct {
	log        *core.Logger
	numWorkers int
	jobQueue   chan core.JobTask
	wg         sync.WaitGroup
	// senders blocked on a full queue
	overflow sync.WaitGroup
	mutex    sync.RWMutex
	closed   bool
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")
var ErrJobSystemClosed = errors.New("job system is shut down")

func NewJobSystem(numWorkers int, channelSize int, log *core.Logger) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}
	if log == nil {
		log = core.NewDiscardLogger()
	}

	js := &JobSystem{
		log:        log,
		numWorkers: numWorkers,
		jobQueue:   make(chan core.JobTask, channelSize),
	}

	js.start()

	return js, nil
}

func (js *JobSystem) start() {
	for i := 0; i < js.numWorkers; i++ {
		js.wg.Add(1)
		go func() {
			defer js.wg.Done()
			for job := range js.jobQueue {
				js.run(job)
			}
		}()
	}
}

func (js *JobSystem) run(job core.JobTask) {
	if job.OnStart == nil {
		return
	}
	if err := job.OnStart(); err != nil {
		js.log.LogError("job failed: %s", err)
		if job.OnFailure != nil {
			job.OnFailure(err)
		}
		return
	}
	if job.OnComplete != nil {
		job.OnComplete()
	}
}

/**
 * @brief Shuts the job system down. Jobs already submitted still run.
 */
func (js *JobSystem) Shutdown() error {
	js.mutex.Lock()
	if js.closed {
		js.mutex.Unlock()
		return nil
	}
	js.closed = true
	js.mutex.Unlock()

	js.overflow.Wait()
	close(js.jobQueue)
	js.wg.Wait()
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution. Never blocks
 * and never runs a callback on the caller's goroutine. Jobs submitted after
 * Shutdown fail with ErrJobSystemClosed.
 * @param jt The description of the job to be executed.
 */
func (js *JobSystem) Submit(jt core.JobTask) {
	js.mutex.RLock()
	defer js.mutex.RUnlock()

	if js.closed {
		if jt.OnFailure != nil {
			go jt.OnFailure(ErrJobSystemClosed)
		}
		return
	}
	select {
	case js.jobQueue <- jt:
	default:
		js.overflow.Add(1)
		go func() {
			defer js.overflow.Done()
			js.jobQueue <- jt
		}()
	}
}
