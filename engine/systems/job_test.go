package systems

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewJobSystemValidation(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	require.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	require.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobSystemRecoversPanics(t *testing.T) {
	js, err := NewJobSystem(2, 0)
	require.NoError(t, err)
	defer js.Shutdown()

	var completed, failed, callbacks atomic.Int32
	var panicErr, plainErr atomic.Value
	boom := errors.New("boom")

	jobs := []Job{
		{
			Name:       "panics",
			Run:        func() error { panic("kaboom") },
			OnComplete: func() { completed.Add(1) },
			OnFailure: func(err error) {
				failed.Add(1)
				panicErr.Store(err)
			},
			OnCompletionCallback: func() { callbacks.Add(1) },
		},
		{
			Name:                 "fails",
			Run:                  func() error { return boom },
			OnFailure:            func(err error) { plainErr.Store(err) },
			OnCompletionCallback: func() { callbacks.Add(1) },
		},
	}
	for i := 0; i < 8; i++ {
		jobs = append(jobs, Job{
			Name:                 "ok",
			Run:                  func() error { return nil },
			OnComplete:           func() { completed.Add(1) },
			OnCompletionCallback: func() { callbacks.Add(1) },
		})
	}
	js.SubmitAll(jobs)

	require.Equal(t, int32(8), completed.Load())
	require.Equal(t, int32(1), failed.Load())
	require.Equal(t, int32(10), callbacks.Load())
	require.ErrorIs(t, panicErr.Load().(error), ErrJobPanic)
	require.Contains(t, panicErr.Load().(error).Error(), "kaboom")
	require.ErrorIs(t, plainErr.Load().(error), boom)
}

func TestJobSystemShutdownDrainsQueue(t *testing.T) {
	js, err := NewJobSystem(1, 16)
	require.NoError(t, err)

	var ran atomic.Int32
	for i := 0; i < 16; i++ {
		js.Submit(Job{Run: func() error {
			ran.Add(1)
			return nil
		}})
	}
	require.NoError(t, js.Shutdown())
	require.NoError(t, js.Shutdown())
	require.Equal(t, int32(16), ran.Load())
}
