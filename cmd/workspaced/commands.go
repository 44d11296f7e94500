package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pushchain/evm-workspace-demo/workspace/api"
	"github.com/pushchain/evm-workspace-demo/workspace/config"
	"github.com/pushchain/evm-workspace-demo/workspace/constant"
	"github.com/pushchain/evm-workspace-demo/workspace/cron"
	"github.com/pushchain/evm-workspace-demo/workspace/db"
	"github.com/pushchain/evm-workspace-demo/workspace/logger"
	"github.com/pushchain/evm-workspace-demo/workspace/metrics"
	"github.com/pushchain/evm-workspace-demo/workspace/runner"
	"github.com/pushchain/evm-workspace-demo/workspace/signer"
)

// Set via -ldflags at build time.
var (
	Version = "dev"
	Commit  = ""
)

const shutdownTimeout = 5 * time.Second

func InitRootCmd(rootCmd *cobra.Command) {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(buildTxCmd())
	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(pruneCmd())
	rootCmd.AddCommand(versionCmd())
}

func initCmd() *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration to the node home",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := homeDir(cmd)
			configFile := filepath.Join(home, constant.ConfigSubdir, constant.ConfigFileName)
			if _, err := os.Stat(configFile); err == nil && !overwrite {
				return fmt.Errorf("config already exists at %s (use --overwrite to replace it)", configFile)
			}

			cfg, err := config.LoadDefaultConfig()
			if err != nil {
				return err
			}
			cfg.NodeHome = home
			if err := config.Save(cfg, home); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Config written to %s\n", configFile)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing config file")
	return cmd
}

func runCmd() *cobra.Command {
	var (
		iterations int
		method     string
		serve      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Deploy the contract into a fresh sandbox and call it in a loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			home := homeDir(cmd)
			cfg, err := loadConfig(home)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("iterations") {
				cfg.Iterations = iterations
			}
			if method != "" {
				cfg.Method = method
			}
			if err := config.Validate(&cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			log, logCloser := newLogger(cfg, home)
			defer logCloser.Close()

			journal, err := openJournal(cfg, home)
			if err != nil {
				return err
			}
			defer journal.Close()

			s, err := signer.FromHex(cfg.PrivateKeyHex)
			if err != nil {
				return err
			}

			m := metrics.New()
			r := runner.New(runner.ConfigFromWorkspace(cfg), s, journal, m, cmd.OutOrStdout(), log)
			defer r.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if serve {
				server := api.NewServer(log, cfg.QueryServerPort, r, journal, m.Handler())
				if err := server.Start(); err != nil {
					return err
				}
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					if err := server.Stop(shutdownCtx); err != nil {
						log.Error().Err(err).Msg("failed to stop query server")
					}
				}()
			}

			result, err := r.Run(ctx)
			if err != nil {
				return err
			}
			log.Info().
				Str("run_id", result.RunID).
				Str("contract", result.ContractAddress.Hex()).
				Int("calls", len(result.Outputs)).
				Msg("run finished")

			if serve {
				pruneJob := cron.NewJournalPruneJob(journal,
					time.Duration(cfg.JournalRetentionHours)*time.Hour,
					time.Duration(cfg.JournalPruneIntervalMinutes)*time.Minute,
					log)
				if err := pruneJob.Start(ctx); err != nil {
					return err
				}
				defer pruneJob.Stop()

				log.Info().Int("port", cfg.QueryServerPort).Msg("serving query API, press Ctrl+C to exit")
				<-ctx.Done()
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&iterations, "iterations", 0, "Number of calls (overrides config)")
	cmd.Flags().StringVar(&method, "method", "", "Contract method to call (overrides config)")
	cmd.Flags().BoolVar(&serve, "serve", false, "Keep serving the query API after the run")
	return cmd
}

func pruneCmd() *cobra.Command {
	var olderThan time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete journal entries older than the given age",
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				return fmt.Errorf("--older-than must be positive")
			}
			home := homeDir(cmd)
			cfg, err := loadConfig(home)
			if err != nil {
				return err
			}
			if cfg.JournalInMemory {
				return fmt.Errorf("journal is in memory, nothing to prune")
			}

			journal, err := openJournal(cfg, home)
			if err != nil {
				return err
			}
			defer journal.Close()

			deleted, err := journal.DeleteOlderThan(time.Now().Add(-olderThan))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d journal entries\n", deleted)
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 7*24*time.Hour, "Minimum age of deleted entries")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print workspaced version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Name:       %s\n", "workspaced")
			fmt.Fprintf(cmd.OutOrStdout(), "Version:    %s\n", Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Commit:     %s\n", Commit)
		},
	}
}

// loadConfig reads the config from home, falling back to the embedded
// defaults when no config file was written yet.
func loadConfig(home string) (config.Config, error) {
	configFile := filepath.Join(home, constant.ConfigSubdir, constant.ConfigFileName)
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		cfg, err := config.LoadDefaultConfig()
		if err != nil {
			return config.Config{}, err
		}
		return *cfg, nil
	}
	return config.Load(home)
}

func newLogger(cfg config.Config, home string) (zerolog.Logger, io.Closer) {
	if !cfg.LogFileEnabled {
		return logger.New(cfg.LogLevel, cfg.LogFormat, cfg.LogSampler), nopCloser{}
	}
	return logger.NewWithFile(cfg.LogLevel, cfg.LogFormat, cfg.LogSampler, logger.FileConfig{
		Path:       filepath.Join(home, constant.LogsSubdir, constant.LogFileName),
		MaxSizeMB:  cfg.LogFileMaxSizeMB,
		MaxBackups: cfg.LogFileMaxBackups,
		MaxAgeDays: cfg.LogFileMaxAgeDays,
		Compress:   true,
	})
}

func openJournal(cfg config.Config, home string) (*db.DB, error) {
	if cfg.JournalInMemory {
		return db.OpenInMemoryDB(true)
	}
	return db.OpenFileDB(filepath.Join(home, constant.DatabasesSubdir), constant.JournalDBName, true)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
