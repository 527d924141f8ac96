package systems

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spaghettifunk/anima-packer/engine/assets"
	"github.com/spaghettifunk/anima-packer/engine/assets/loaders"
	"github.com/spaghettifunk/anima-packer/engine/codec"
	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/meta"
	"github.com/spaghettifunk/anima-packer/engine/pack"
	"github.com/spaghettifunk/anima-packer/engine/resources"
)

// Options are the knobs of one build.
type Options struct {
	/** @brief Content directory to scan. */
	Root string
	/** @brief Pack file to write. Its previous content seeds record reuse. */
	Output string
	/** @brief Rebuild every file, ignoring sidecar hashes. */
	Force bool
	/** @brief Always rebuild the stage whose payloads embed texture ids. */
	RebuildDependents bool
	HDRGamma          float64
	RotationOrder     string
	Workers           int
	QueueSize         int
}

/** @brief The configuration for the build planner */
type PlannerConfig struct {
	Options  Options
	Scanner  *assets.Scanner
	Store    *meta.Store
	Decoders loaders.Decoders
	/** @brief Optional. Seeded from the OS when nil. */
	IDs *core.IDGenerator
	/** @brief Optional. Defaults to answering every question with no. */
	Prompter core.Prompter
	/** @brief Optional. */
	Reporter Reporter
}

// Report is the outcome of a build.
type Report struct {
	BuildID string
	Pack    *pack.Writer
	/** @brief Every file result, in pack order followed by the rejected files. */
	Results  []*Result
	Failures []*core.FileError
	Metrics  *core.BuildMetrics
	Elapsed  time.Duration
}

func (r *Report) Warnings() []string {
	var out []string
	for _, res := range r.Results {
		for _, w := range res.Warnings {
			out = append(out, res.File.Rel+": "+w)
		}
	}
	return out
}

// Planner turns a content directory into a pack.
type Planner struct {
	config PlannerConfig
}

func NewPlanner(config PlannerConfig) (*Planner, error) {
	if config.Scanner == nil {
		return nil, errors.New("planner needs a scanner")
	}
	if config.Store == nil {
		return nil, errors.New("planner needs a sidecar store")
	}
	if !codec.ValidRotationOrder(config.Options.RotationOrder) {
		return nil, fmt.Errorf("rotation order %q is not a permutation of xyzw", config.Options.RotationOrder)
	}
	defaults := loaders.DefaultDecoders()
	if config.Decoders.Image == nil {
		config.Decoders.Image = defaults.Image
	}
	if config.Decoders.HDR == nil {
		config.Decoders.HDR = defaults.HDR
	}
	if config.Decoders.Scene == nil {
		config.Decoders.Scene = defaults.Scene
	}
	if config.IDs == nil {
		ids, err := core.NewIDGenerator()
		if err != nil {
			return nil, err
		}
		config.IDs = ids
	}
	if config.Prompter == nil {
		config.Prompter = core.StaticPrompter(false)
	}
	if config.Reporter == nil {
		config.Reporter = NopReporter{}
	}
	if config.Options.Workers <= 0 {
		config.Options.Workers = 1
	}
	return &Planner{config: config}, nil
}

// Run builds Options.Root into Options.Output while holding the output lock.
// A previous pack that cannot be parsed is put to the operator, who may
// continue with an empty index.
func (p *Planner) Run() (*Report, error) {
	lock, err := pack.AcquireLock(p.config.Options.Output)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			core.LogWarn("release %s: %s", lock.Path(), err)
		}
	}()

	index, err := pack.ReadIndexFile(p.config.Options.Output)
	if err != nil {
		if !errors.Is(err, core.ErrCorruptInput) {
			return nil, err
		}
		ok, perr := p.config.Prompter.Confirm(fmt.Sprintf("existing pack %s is unreadable (%s). Continue with an empty index?", p.config.Options.Output, err))
		if perr != nil {
			return nil, perr
		}
		if !ok {
			return nil, fmt.Errorf("%w: %v", core.ErrAborted, err)
		}
		index = pack.Index{}
	}

	report, err := p.Build(index)
	if err != nil {
		return report, err
	}
	if err := report.Pack.WriteFile(p.config.Options.Output); err != nil {
		return report, err
	}
	return report, nil
}

// Build runs the pipeline against a previous pack index without touching
// the output file.
func (p *Planner) Build(index pack.Index) (*Report, error) {
	opts := p.config.Options
	clock := core.NewClock()
	clock.Start()

	report := &Report{
		BuildID: uuid.NewString(),
		Pack:    pack.NewWriter(),
		Metrics: core.NewBuildMetrics(),
	}
	if index == nil {
		index = pack.Index{}
	}

	scan, err := p.config.Scanner.Scan(opts.Root)
	if err != nil {
		return nil, err
	}
	p.config.Reporter.BuildStarted(report.BuildID, len(scan.Files))
	core.LogInfo("build %s: %d sources, %d ignored", report.BuildID, len(scan.Files), scan.Ignored)

	js, err := NewJobSystem(opts.Workers, opts.QueueSize)
	if err != nil {
		return nil, err
	}
	defer js.Shutdown()

	b := &builder{
		opts:     opts,
		store:    p.config.Store,
		index:    index,
		ids:      p.config.IDs,
		decoders: p.config.Decoders,
		prompter: p.config.Prompter,
	}

	models := scan.ByStage(resources.StageModels)
	modelInput := NewSkeletonResolver(js, p.config.Decoders.Scene).Resolve(models)
	core.LogDebug("pre-pass registered %d skeletons", len(modelInput.Skeletons))

	textureStage := Stage[struct{}]{
		Kind:  resources.StageTextures,
		Files: scan.ByStage(resources.StageTextures),
		Build: func(f assets.SourceFile, _ struct{}) *Result {
			return b.build(f, opts.Force, b.encodeTexture)
		},
	}
	otherStage := Stage[TextureTable]{
		Kind:  resources.StageOthers,
		Files: scan.ByStage(resources.StageOthers),
		Build: func(f assets.SourceFile, textures TextureTable) *Result {
			return b.build(f, opts.Force || opts.RebuildDependents, func(f assets.SourceFile, _ *meta.Record) (*encoded, error) {
				return b.encodeOther(f, textures)
			})
		},
	}
	modelStage := Stage[ModelInput]{
		Kind:  resources.StageModels,
		Files: models,
		Build: func(f assets.SourceFile, in ModelInput) *Result {
			return b.build(f, opts.Force, func(f assets.SourceFile, rec *meta.Record) (*encoded, error) {
				return b.encodeModel(f, rec, in)
			})
		},
	}

	var modelResults []*Result
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		modelResults = runStage(js, modelStage, modelInput, p.config.Reporter, report.Metrics)
	}()
	textureResults := runStage(js, textureStage, struct{}{}, p.config.Reporter, report.Metrics)
	otherResults := runStage(js, otherStage, newTextureTable(textureResults), p.config.Reporter, report.Metrics)
	wg.Wait()

	claimed := map[uint64]string{}
	for _, results := range [][]*Result{textureResults, otherResults, modelResults} {
		for _, res := range results {
			if !res.Failed() {
				if owner, dup := claimed[res.ID]; dup {
					b.forget(res.File)
					report.Metrics.Reclassify(res.Status, res.Kind.String(), len(res.Record))
					*res = *failedResult(res.File, fmt.Errorf("%w: %d is already used by %s", core.ErrDuplicateID, res.ID, owner))
				} else {
					claimed[res.ID] = res.File.Rel
					report.Pack.Add(res.Record)
				}
			}
			report.Results = append(report.Results, res)
		}
	}
	for _, rejected := range scan.Rejected {
		res := failedResult(assets.SourceFile{Path: rejected.Path}, rejected)
		report.Metrics.Record(core.StatusFailed, "", 0)
		report.Results = append(report.Results, res)
	}
	for _, res := range report.Results {
		if res.Failed() {
			report.Failures = append(report.Failures, res.Err.(*core.FileError))
		}
	}

	clock.Stop()
	report.Elapsed = clock.Elapsed()

	for _, f := range report.Failures {
		if errors.Is(f, core.ErrAborted) {
			return report, f
		}
	}
	if report.Pack.Count() == 0 && len(scan.Files)+len(scan.Rejected) > 0 {
		return report, core.ErrNothingBuilt
	}
	return report, nil
}
