package cli

import (
	"fmt"
	"io"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/resources"
	"github.com/spaghettifunk/anima-packer/engine/systems"
)

// buildReporter prints one status line per source file. On a terminal a
// progress bar over all sources is drawn as well.
type buildReporter struct {
	mu     sync.Mutex
	out    io.Writer
	tty    bool
	bar    *progressbar.ProgressBar
	active map[resources.Stage]bool
}

func newBuildReporter(out io.Writer) *buildReporter {
	return &buildReporter{
		out:    out,
		tty:    isTerminal(out),
		active: map[resources.Stage]bool{},
	}
}

func (r *buildReporter) BuildStarted(buildID string, sources int) {
	core.LogSetPrefix(logPrefix(buildID))

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.tty || sources == 0 {
		return
	}
	r.bar = progressbar.NewOptions(sources,
		progressbar.OptionSetWriter(r.out),
		progressbar.OptionSetDescription("packing"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}

func (r *buildReporter) StageStarted(stage resources.Stage, files int) {
	if files == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[stage] = true
	r.describe()
}

func (r *buildReporter) FileFinished(res *systems.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bar != nil {
		_ = r.bar.Clear()
	}
	name := res.File.Rel
	if name == "" {
		name = res.File.Path
	}
	switch {
	case res.Failed():
		fmt.Fprintf(r.out, "%s %s: %v\n", statusTag(res.Status), name, res.Err)
	default:
		fmt.Fprintf(r.out, "%s %s %s\n", statusTag(res.Status), name, mutedStyle.Render(fmt.Sprintf("%s #%d", res.Kind, res.ID)))
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(r.out, "        %s\n", warningStyle.Render("warning: "+w))
	}
	if r.bar != nil {
		_ = r.bar.Add(1)
	}
}

func (r *buildReporter) StageFinished(stage resources.Stage, timing core.StageTiming) {
	core.LogDebug("stage %s: %d files in %s", timing.Name, timing.Files, timing.Duration)

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, stage)
	r.describe()
}

// Finish removes the bar and restores the default log prefix.
func (r *buildReporter) Finish() {
	r.mu.Lock()
	if r.bar != nil {
		_ = r.bar.Finish()
		r.bar = nil
	}
	r.mu.Unlock()
	core.LogSetPrefix(logPrefix(""))
}

func (r *buildReporter) describe() {
	if r.bar == nil {
		return
	}
	desc := ""
	for _, st := range []resources.Stage{resources.StageTextures, resources.StageOthers, resources.StageModels} {
		if !r.active[st] {
			continue
		}
		if desc != "" {
			desc += "+"
		}
		desc += st.String()
	}
	if desc == "" {
		desc = "packing"
	}
	r.bar.Describe(desc)
}

func logPrefix(buildID string) string {
	if len(buildID) > 8 {
		buildID = buildID[:8]
	}
	if buildID == "" {
		return "packer 📦"
	}
	return "packer 📦 " + buildID
}
