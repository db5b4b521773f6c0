package cmd

import (
	"fmt"
	"os"

	"github.com/kamusis/taskcap-cli/internal/config"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config and create the index directory",
	Long: `Initialize taskcap at ~/.taskcap/.

Creates ~/.taskcap/config.toml and a ~/.taskcap/.env template for API keys if
they do not exist yet, then creates the tasks and projects index directories.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	// ── 1. Resolve ~/.taskcap directory ───────────────────────────────────────
	dir, err := config.Dir()
	if err != nil {
		return err
	}
	cfgPath, err := config.ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	printOK("", fmt.Sprintf("taskcap directory ready: %s", dir))

	// ── 2. Write config.toml if missing ───────────────────────────────────────
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		if err := config.Save(config.DefaultConfig()); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Config written: %s", cfgPath))
	} else {
		printSkip("", fmt.Sprintf("Config already exists: %s", cfgPath))
	}

	// ── 3. .env template for API keys ─────────────────────────────────────────
	envPath, err := config.DotEnvPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(envPath); err == nil {
		printSkip("", fmt.Sprintf("Secrets file already exists: %s", envPath))
	} else {
		if err := config.EnsureDotEnvTemplate(); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("Secrets template written: %s", envPath))
	}

	// ── 4. Index directories ──────────────────────────────────────────────────
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	idx, err := openIndex(cfg)
	if err != nil {
		return err
	}
	printOK("", fmt.Sprintf("Index ready: %s (%d tasks, %d project entries)",
		idx.Dir(), idx.Tasks().Len(), idx.Projects().Len()))

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  taskcap scan git <repo>         index recent commits of a repository")
	fmt.Println("  taskcap scan markdown <dir>     index checklists from markdown notes")
	fmt.Println("  taskcap add \"<task>\"            record a task")
	return nil
}
