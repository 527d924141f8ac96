package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/anima-packer/engine/config"
	"github.com/spaghettifunk/anima-packer/engine/core"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	config     *config.Config
	configPath string
	configSeen bool
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag, logLevelFlag: logLevelFlag}
}

// ensureConfig loads the configuration once and applies the log level.
// --log-level wins over the file.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	cfg, path, exists, err := config.Load(*c.configFlag)
	if err != nil {
		return nil, err
	}
	level := cfg.Logging.Level
	if *c.logLevelFlag != "" {
		level = *c.logLevelFlag
	}
	if err := core.LogConfigure(level, nil, level == "debug"); err != nil {
		return nil, err
	}
	if exists {
		core.LogDebug("using config %s", path)
	}
	c.config = cfg
	c.configPath = path
	c.configSeen = exists
	return cfg, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// NewRootCommand wires every packer subcommand.
func NewRootCommand() *cobra.Command {
	var configFlag string
	var logLevelFlag string

	ctx := newCommandContext(&configFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:           "packer",
		Short:         "Builds engine asset packs from a content directory",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (default ./"+config.DefaultFileName+" when present)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newBuildCommand(ctx))
	rootCmd.AddCommand(newPeekCommand())
	rootCmd.AddCommand(newWatchCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

// Execute runs the command line with args until ctx is cancelled.
func Execute(ctx context.Context, args []string, out io.Writer) error {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	if out == nil {
		out = os.Stdout
	}
	cmd.SetOut(out)
	return cmd.ExecuteContext(ctx)
}
