package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/anima-packer/engine/assets"
	"github.com/spaghettifunk/anima-packer/engine/config"
	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/meta"
	"github.com/spaghettifunk/anima-packer/engine/pack"
	"github.com/spaghettifunk/anima-packer/engine/systems"
)

// buildFlags are the per-invocation overrides shared by build and watch.
type buildFlags struct {
	dir     string
	output  string
	force   bool
	workers int
	yes     bool
}

func (f *buildFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.dir, "dir", "d", "", "Content directory to pack")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Pack file to write")
	cmd.Flags().BoolVar(&f.force, "force", false, "Rebuild every asset regardless of sidecar hashes")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Worker count (default from config, 0 means one per CPU)")
	cmd.Flags().BoolVarP(&f.yes, "yes", "y", false, "Continue past corrupt sidecars and packs without asking")
	_ = cmd.MarkFlagRequired("dir")
	_ = cmd.MarkFlagRequired("output")
}

// newPlanner resolves the build inputs against the configuration.
func newPlanner(cfg *config.Config, flags buildFlags, reporter systems.Reporter) (*systems.Planner, error) {
	root, err := filepath.Abs(strings.TrimSpace(flags.dir))
	if err != nil {
		return nil, fmt.Errorf("resolve content dir: %w", err)
	}
	output, err := filepath.Abs(strings.TrimSpace(flags.output))
	if err != nil {
		return nil, fmt.Errorf("resolve output: %w", err)
	}

	table, err := cfg.ExtensionTable()
	if err != nil {
		return nil, err
	}
	store := meta.NewStore(cfg.Meta.Extension, cfg.Meta.ReadAttempts, cfg.RetryDelay())

	workers := cfg.WorkerCount()
	if flags.workers > 0 {
		workers = flags.workers
	}

	return systems.NewPlanner(systems.PlannerConfig{
		Options: systems.Options{
			Root:              root,
			Output:            output,
			Force:             flags.force || cfg.Build.Force,
			RebuildDependents: cfg.Build.RebuildDependents,
			HDRGamma:          cfg.Texture.HDRGamma,
			RotationOrder:     cfg.Animation.RotationOrder,
			Workers:           workers,
			QueueSize:         cfg.Build.QueueSize,
		},
		Scanner:  assets.NewScanner(table, store, output, pack.LockPath(output)),
		Store:    store,
		Prompter: core.NewTerminalPrompter(flags.yes),
		Reporter: reporter,
	})
}

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var flags buildFlags
	var strict bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a pack from a content directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if flags.workers < 0 {
				return fmt.Errorf("--workers must be positive, got %d", flags.workers)
			}

			reporter := newBuildReporter(cmd.ErrOrStderr())
			planner, err := newPlanner(cfg, flags, reporter)
			if err != nil {
				return err
			}
			report, err := planner.Run()
			reporter.Finish()
			if report != nil {
				printSummary(cmd.OutOrStdout(), report)
			}
			if err != nil {
				return err
			}
			if strict && len(report.Failures) > 0 {
				return fmt.Errorf("%d file(s) failed to build", len(report.Failures))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any file fails to build")
	return cmd
}

func printSummary(out io.Writer, report *systems.Report) {
	m := report.Metrics
	rows := [][]string{
		{statusTag(core.StatusAdded), strconv.Itoa(m.Count(core.StatusAdded))},
		{statusTag(core.StatusUpdated), strconv.Itoa(m.Count(core.StatusUpdated))},
		{statusTag(core.StatusSkipped), strconv.Itoa(m.Count(core.StatusSkipped))},
		{statusTag(core.StatusFailed), strconv.Itoa(m.Count(core.StatusFailed))},
	}
	for _, kc := range m.Kinds() {
		rows = append(rows, []string{kc.Kind, strconv.Itoa(kc.Count)})
	}
	rows = append(rows, []string{"payload bytes", strconv.FormatInt(m.Bytes(), 10)})
	fmt.Fprintln(out, renderTable([]string{"Build " + report.BuildID, "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

	if len(report.Failures) > 0 {
		failures := make([][]string, 0, len(report.Failures))
		for _, f := range report.Failures {
			failures = append(failures, []string{f.Path, f.Stage, core.Kind(f).Error(), f.Err.Error()})
		}
		fmt.Fprintln(out, renderTable([]string{"Failed", "Stage", "Kind", "Reason"}, failures, nil))
	}
	fmt.Fprintf(out, "%d assets in %s\n", m.Produced(), report.Elapsed.Round(time.Millisecond))
}
