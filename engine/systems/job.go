package systems

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/spaghettifunk/anima-packer/engine/core"
)

/**
 * @brief Describes a job to be run.
 */
type Job struct {
	/** @brief Used in logs and in the error of a panicking job. */
	Name string
	/** @brief Invoked on a worker. Required. */
	Run func() error
	/** @brief Invoked when Run returned nil. Optional. */
	OnComplete func()
	/** @brief Invoked with the error of Run, or of a panic inside Run. Optional. */
	OnFailure func(err error)
	/** @brief Invoked after OnComplete or OnFailure. Optional. */
	OnCompletionCallback func()
}

type JobSystem struct {
	numWorkers int
	jobQueue   chan Job
	wg         sync.WaitGroup
	shutdown   sync.Once
}

var ErrNoWorkers = fmt.Errorf("attempting to create worker pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create worker pool with a negative channel size")
var ErrJobPanic = fmt.Errorf("job panicked")

func NewJobSystem(numWorkers int, channelSize int) (*JobSystem, error) {
	if numWorkers <= 0 {
		return nil, ErrNoWorkers
	}
	if channelSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	js := &JobSystem{
		numWorkers: numWorkers,
		jobQueue:   make(chan Job, channelSize),
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
				if err := runJob(job); err != nil {
					core.LogError("job %s failed: %s", job.Name, err)
					if job.OnFailure != nil {
						job.OnFailure(err)
					}
				} else if job.OnComplete != nil {
					job.OnComplete()
				}

				if job.OnCompletionCallback != nil {
					job.OnCompletionCallback()
				}
			}
		}()
	}
}

func runJob(job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			core.LogDebug("job %s panic stack:\n%s", job.Name, debug.Stack())
			err = fmt.Errorf("%w: %v", ErrJobPanic, r)
		}
	}()
	return job.Run()
}

func (js *JobSystem) Workers() int {
	return js.numWorkers
}

/**
 * @brief Shuts the job system down. Queued jobs still run before it returns.
 */
func (js *JobSystem) Shutdown() error {
	js.shutdown.Do(func() {
		close(js.jobQueue)
	})
	js.wg.Wait()
	return nil
}

/**
 * @brief Submits the provided job to be queued for execution. Blocks while
 * the queue is full.
 */
func (js *JobSystem) Submit(job Job) {
	js.jobQueue <- job
}

// SubmitAll queues jobs and blocks until every one of them has finished.
// The caller must not be a job of the same system.
func (js *JobSystem) SubmitAll(jobs []Job) {
	var done sync.WaitGroup
	done.Add(len(jobs))
	for _, job := range jobs {
		callback := job.OnCompletionCallback
		job.OnCompletionCallback = func() {
			if callback != nil {
				callback()
			}
			done.Done()
		}
		js.Submit(job)
	}
	done.Wait()
}
