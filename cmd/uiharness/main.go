package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/networkteam/uiharness/artifact"
	"github.com/networkteam/uiharness/config"
	"github.com/networkteam/uiharness/driver"
	"github.com/networkteam/uiharness/harness"
)

// Replaced in tests, installing downloads browsers.
var install = driver.Install

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	configFile string
	cfg        config.Config
	logger     *slog.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "uiharness",
		Short:         "Manage browsers and artifacts of the UI test harness",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configFile)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return err
			}
			level, _ := cfg.Level()
			a.cfg = cfg
			a.logger = harness.NewLogger(level, cmd.ErrOrStderr(), nil)
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file (default is ./uiharness.yaml)")

	rootCmd.AddCommand(
		a.installCommand(),
		a.artifactsCommand(),
		a.cleanCommand(),
	)
	return rootCmd
}

func (a *app) installCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install the playwright driver and the configured browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			a.logger.Info("Installing browser", slog.String("browser", string(a.cfg.Browser)))
			if err := install(a.cfg.Browser); err != nil {
				a.logger.Error("Install failed", slog.Any("error", err))
				return err
			}
			a.logger.Info("Installed browser", slog.String("browser", string(a.cfg.Browser)))
			return nil
		},
	}
}

func (a *app) artifactsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "artifacts",
		Short: "List traces and recordings retained for failed tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := artifact.NewStore(artifact.StoreOptions{Root: a.cfg.ResultsDir, Logger: a.logger})
			artifacts, err := store.List()
			if err != nil {
				a.logger.Error("Listing artifacts failed", slog.Any("error", err))
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TEST\tKIND\tSIZE\tPATH")
			for _, art := range artifacts {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", art.TestName, art.Kind, art.Size, art.Path)
			}
			return w.Flush()
		},
	}
}

func (a *app) cleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Reset the results directory to an empty layout",
		RunE: func(cmd *cobra.Command, args []string) error {
			store := artifact.NewStore(artifact.StoreOptions{Root: a.cfg.ResultsDir, Logger: a.logger})
			if err := store.Clean(); err != nil {
				a.logger.Error("Cleaning results failed", slog.Any("error", err))
				return err
			}
			a.logger.Info("Cleaned results", slog.String("dir", store.Root()))
			return nil
		},
	}
}
