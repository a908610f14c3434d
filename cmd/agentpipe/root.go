package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/backpack455/hack-mit-sub000/internal/config"
	"github.com/backpack455/hack-mit-sub000/internal/logging"
)

var (
	configFile string
	verbose    bool

	cfg    *config.Config
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "agentpipe",
	Short: "Context-driven task recommendations executed by specialised agents",
	Long: `agentpipe reads a context document, asks a model to propose follow-up tasks,
matches each task to the best agent in the catalog and runs the one you pick.

With no arguments, launches the interactive picker.

Typical flow:
  agentpipe init
  agentpipe generate
  agentpipe execute rec_1_find_research_papers`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logFile := cfg.Logging.File
		if logFile == "" && !verbose {
			if cwd, err := os.Getwd(); err == nil {
				logFile = logging.DefaultLogPath(cwd)
			}
		}
		l, err := logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			File:        logFile,
			Development: cfg.Logging.Development || verbose,
			Verbose:     verbose,
		})
		if err != nil {
			// Run without logs rather than fail the command.
			fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
			l = zap.NewNop()
		}
		logger = l
		logger.Debug("config loaded",
			zap.String("config_file", configFile),
			zap.String("runtime", cfg.Runtime.Mode),
			zap.String("model", cfg.Anthropic.Model))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd, args)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: "+config.ProjectConfigName+" in this or a parent directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level to stderr")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(resultCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(interactiveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// projectRoot returns the directory holding the project config, or cwd.
func projectRoot() string {
	if p := config.GetProjectConfigPath(); p != "" {
		return filepath.Dir(p)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}
