package systems

import (
	"github.com/spaghettifunk/anima-packer/engine/assets"
	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

// Result is the outcome of building one source file.
type Result struct {
	File   assets.SourceFile
	Status core.BuildStatus
	ID     uint64
	Kind   resources.AssetKind
	/** @brief The encoded pack record, nil for failed files. */
	Record   []byte
	Err      error
	Warnings []string
}

func (r *Result) Failed() bool {
	return r.Status == core.StatusFailed
}

func failedResult(file assets.SourceFile, err error) *Result {
	fe, ok := err.(*core.FileError)
	if !ok {
		fe = &core.FileError{Path: file.Path, Stage: file.Stage().String(), Err: err}
	}
	return &Result{File: file, Status: core.StatusFailed, Err: fe}
}

// Reporter observes a build. Stages overlap, so implementations must be safe
// for concurrent use.
type Reporter interface {
	BuildStarted(buildID string, sources int)
	StageStarted(stage resources.Stage, files int)
	FileFinished(res *Result)
	StageFinished(stage resources.Stage, timing core.StageTiming)
}

type NopReporter struct{}

func (NopReporter) BuildStarted(string, int) {}
func (NopReporter) StageStarted(resources.Stage, int) {}
func (NopReporter) FileFinished(*Result) {}
func (NopReporter) StageFinished(resources.Stage, core.StageTiming) {}

// Stage is one step of the pipeline. Build may only read the input it is
// handed, which keeps a stage from seeing tables that are not final yet.
type Stage[In any] struct {
	Kind  resources.Stage
	Files []assets.SourceFile
	Build func(file assets.SourceFile, in In) *Result
}

// runStage builds every file of st on the job system and returns the
// results in file order.
func runStage[In any](js *JobSystem, st Stage[In], in In, reporter Reporter, metrics *core.BuildMetrics) []*Result {
	clock := core.NewClock()
	clock.Start()
	reporter.StageStarted(st.Kind, len(st.Files))

	results := make([]*Result, len(st.Files))
	jobs := make([]Job, len(st.Files))
	for i, f := range st.Files {
		i, f := i, f
		jobs[i] = Job{
			Name: f.Rel,
			Run: func() error {
				results[i] = st.Build(f, in)
				return nil
			},
			OnFailure: func(err error) {
				results[i] = failedResult(f, err)
			},
			OnCompletionCallback: func() {
				res := results[i]
				metrics.Record(res.Status, res.Kind.String(), len(res.Record))
				reporter.FileFinished(res)
			},
		}
	}
	js.SubmitAll(jobs)

	clock.Stop()
	timing := core.StageTiming{Name: st.Kind.String(), Files: len(st.Files), Duration: clock.Elapsed()}
	metrics.RecordStage(timing.Name, timing.Files, timing.Duration)
	reporter.StageFinished(st.Kind, timing)
	return results
}
