package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/anima-packer/engine/assets"
	"github.com/spaghettifunk/anima-packer/engine/config"
	"github.com/spaghettifunk/anima-packer/engine/core"
	"github.com/spaghettifunk/anima-packer/engine/meta"
	"github.com/spaghettifunk/anima-packer/engine/pack"
)

// watchIgnore filters out the files a build writes itself: sidecars, the
// output pack, its lock and the temporary files of atomic writes.
func watchIgnore(cfg *config.Config, output string) func(string) bool {
	store := meta.NewStore(cfg.Meta.Extension, 1, 0)
	output, _ = filepath.Abs(output)
	lock := pack.LockPath(output)
	return func(path string) bool {
		if store.IsSidecar(path) || strings.HasSuffix(path, ".tmp") {
			return true
		}
		abs, err := filepath.Abs(path)
		return err == nil && (abs == output || abs == lock)
	}
}

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the pack whenever the content directory changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			rebuild := func() error {
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
				return err
			}

			// The watcher goes up before the first build so edits made
			// during it are picked up by the next one.
			watcher, err := assets.NewWatcher(flags.dir, cfg.WatchDebounce(), watchIgnore(cfg, flags.output))
			if err != nil {
				return fmt.Errorf("watch %s: %w", flags.dir, err)
			}
			defer watcher.Close()

			if err := rebuild(); err != nil && !recoverable(err) {
				return err
			}
			core.LogInfo("watching %s for changes", flags.dir)

			for {
				select {
				case <-cmd.Context().Done():
					return nil
				case batch, ok := <-watcher.Changes():
					if !ok {
						return nil
					}
					core.LogInfo("%d change(s), first %s", len(batch), batch[0])
					if err := rebuild(); err != nil {
						if !recoverable(err) {
							return err
						}
						core.LogWarn("build: %s", err)
					}
				case err, ok := <-watcher.Errors():
					if !ok {
						return nil
					}
					core.LogWarn("watcher: %s", err)
				}
			}
		},
	}

	flags.register(cmd)
	return cmd
}

// recoverable reports whether watch mode can keep going after a failed build.
func recoverable(err error) bool {
	return errors.Is(err, core.ErrNothingBuilt) || errors.Is(err, pack.ErrLocked)
}
