package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/kamusis/taskcap-cli/internal/config"
	"github.com/kamusis/taskcap-cli/internal/scanner"
	"github.com/kamusis/taskcap-cli/internal/search/index"
	"github.com/spf13/cobra"
)

var (
	flagDir     string
	flagVerbose bool

	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
)

var rootCmd = &cobra.Command{
	Use:          "taskcap",
	Short:        "taskcap — capture tasks with context from your task and project history",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `taskcap keeps a small similarity index of your tasks and project history
(git commits, markdown notes) at ~/.taskcap/vector_db/ and uses it to find
related work, suggest tags and enrich natural-language task capture.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		level := slog.LevelInfo
		if flagVerbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDir, "dir", "", "Index directory (overrides [index].dir)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// checkGitAvailable returns a clear error if git is not found on PATH.
func checkGitAvailable() error {
	if !scanner.GitAvailable() {
		return fmt.Errorf("git is not installed or not on PATH\n" +
			"  taskcap reads project history with git.\n" +
			"  Install git from https://git-scm.com and try again.")
	}
	return nil
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads the effective configuration and applies --dir.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("cannot load config: %w\nRun 'taskcap init' to write a default config.", err)
	}
	if flagDir != "" {
		dir, err := config.ExpandPath(flagDir)
		if err != nil {
			return nil, err
		}
		cfg.Index.Dir = dir
	}
	return cfg, nil
}

// openIndex opens the index directory of cfg with the command logger.
func openIndex(cfg *config.Config) (*index.Index, error) {
	idx, err := index.Open(cfg.Index.Dir, index.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("cannot open index %s: %w", cfg.Index.Dir, err)
	}
	return idx, nil
}

// withIndexLock opens the index under the directory lock and runs fn. Every command that
// writes to the index goes through here.
func withIndexLock(cfg *config.Config, fn func(*index.Index) error) error {
	unlock, err := acquireIndexLock(cfg.Index.Dir, lockTimeout)
	if err != nil {
		return err
	}
	defer unlock()

	idx, err := openIndex(cfg)
	if err != nil {
		return err
	}
	return fn(idx)
}
