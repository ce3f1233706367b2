package cli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/dtxorg/internal/app"
	"github.com/xxxsen/dtxorg/internal/cli/common"
	"github.com/xxxsen/dtxorg/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "dtxorg",
	Short:         "Organize a DTXMania song library and repair broken file references",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupConfig(commandContext(cmd))
	},
}

// Execute runs the CLI.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Error("exec cmd failed", zap.Error(err))
		return err
	}
	return nil
}

func setupConfig(ctx context.Context) error {
	cfg, err := common.LoadConfig(configPath)
	if err != nil {
		return err
	}
	config.SetDefault(cfg)
	logger.Init(cfg.Log.File, cfg.Log.Level, 0, 0, 0, cfg.Log.Console)
	logutil.GetLogger(ctx).Debug("config loaded",
		zap.String("library_dir", cfg.LibraryDir),
		zap.String("journal_db", cfg.JournalDB),
	)
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, common.ConfigFlag, "", "config file path")
	for _, r := range app.RunnerList() {
		runner := app.MustResolveRunner(r)
		subcmd := &cobra.Command{
			Use:   runner.Name(),
			Short: runner.Desc(),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := commandContext(cmd)
				if err := runner.PreRun(ctx); err != nil {
					return err
				}
				if err := runner.Run(ctx); err != nil {
					return err
				}
				if err := runner.PostRun(ctx); err != nil {
					return err
				}
				return nil
			},
		}
		runner.Init(subcmd.Flags())
		rootCmd.AddCommand(subcmd)
	}
}
