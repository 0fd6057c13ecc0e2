package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	tap "github.com/MainspringEnergy/tap-quickbase-json"
	"github.com/MainspringEnergy/tap-quickbase-json/config"
	"github.com/MainspringEnergy/tap-quickbase-json/logger"
	"github.com/MainspringEnergy/tap-quickbase-json/state"
)

func NewRootCmd() *cobra.Command {
	var (
		configPath string
		statePath  string
		discover   bool
		logLevel   string
	)

	rootCmd := &cobra.Command{
		Use:   "tap-quickbase-json",
		Short: "Extract Quickbase tables as a stream of interchange messages",
		Long: `tap-quickbase-json reads rows from the tables of a Quickbase app and
writes SCHEMA, RECORD and STATE messages to stdout for a downstream loader.
With --discover it prints the catalog of available streams instead.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, configPath, statePath, discover, logLevel)
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "path to the JSON config file (required)")
	rootCmd.Flags().StringVar(&statePath, "state", "", "path to the previous run's STATE value")
	rootCmd.Flags().BoolVar(&discover, "discover", false, "print the stream catalog and exit")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	_ = rootCmd.MarkFlagRequired("config")

	return rootCmd
}

func run(cmd *cobra.Command, configPath, statePath string, discover bool, logLevel string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	cfg.Logger.LogLevel = level

	st, err := loadState(statePath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	connector, err := tap.NewConnector(*cfg, out, st)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	if discover {
		cat, err := connector.Discover(ctx)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cat)
	}

	return connector.Sync(ctx)
}

func loadConfig(path string) (*config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg, err := config.FromJSON(data)
	if err != nil {
		return nil, err
	}

	// The token usually lives outside the config file; the environment
	// (optionally a .env file) wins when set.
	if token := os.Getenv("QB_USER_TOKEN"); token != "" {
		cfg.UserToken = token
	}

	return cfg, nil
}

func loadState(path string) (*state.State, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("state file not found, starting from scratch", "path", path)
			return nil, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	st, err := state.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse state file: %w", err)
	}
	return st, nil
}
