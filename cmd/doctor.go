package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/kamusis/taskcap-cli/internal/config"
	"github.com/kamusis/taskcap-cli/internal/search/index"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run pre-flight environment checks",
	Long: `Check that taskcap's dependencies, configuration and index files are in order.
Run this command when something seems wrong, or before filing a bug report.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.AddCommand(doctorFixCmd)
	rootCmd.AddCommand(doctorCmd)
}

var doctorFixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Automatically fix detected issues",
	Long: `Fix detected issues in the taskcap index.

Currently fixes:
  - Stale or unreadable vocabulary, vector or manifest files: rebuilds them
    from records.json and saves every corpus

Run 'taskcap doctor' first to see what will be fixed.`,
	RunE: runDoctorFix,
}

func runDoctorFix(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	printSection("taskcap doctor fix")

	fmt.Println("\n[ Index files ]")
	return withIndexLock(cfg, func(idx *index.Index) error {
		var failed int
		for _, c := range idx.Corpora() {
			if problems := index.Diagnose(c.Dir()); len(problems) == 0 {
				printOK(c.Name(), "nothing to fix")
				continue
			}
			if err := c.Rebuild(); err != nil {
				printErr(c.Name(), fmt.Sprintf("rebuild failed: %v", err))
				failed++
				continue
			}
			if err := c.Save(); err != nil {
				printErr(c.Name(), err.Error())
				failed++
				continue
			}
			printOK(c.Name(), fmt.Sprintf("rebuilt %d record(s), vocabulary %d", c.Len(), c.Vocabulary().Len()))
		}
		if failed > 0 {
			return fmt.Errorf("%d corpus(es) could not be repaired", failed)
		}
		return nil
	})
}

func runDoctor(_ *cobra.Command, _ []string) error {
	allOK := true
	failD := func(format string, args ...any) {
		printErr("", fmt.Sprintf(format, args...))
		allOK = false
	}

	printSection("taskcap doctor")
	fmt.Println()

	// ── Check 1: git installed ────────────────────────────────────────────
	fmt.Println("[ git ]")
	if out, err := exec.Command("git", "--version").Output(); err != nil {
		printWarn("", "git not found — 'taskcap scan git' will not work: https://git-scm.com/downloads")
	} else {
		printOK("", strings.TrimSpace(string(out)))
	}
	fmt.Println()

	// ── Check 2: config.toml ─────────────────────────────────────────────────
	fmt.Println("[ config.toml ]")
	cfgPath, _ := config.ConfigPath()
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		printWarn("", "~/.taskcap/config.toml not found — using defaults (run 'taskcap init')")
	}
	cfg, loadErr := loadConfig()
	if loadErr != nil {
		failD("%v", loadErr)
	} else {
		printOK("", fmt.Sprintf("valid TOML — index at %s", cfg.Index.Dir))
		if cfg.Index.TopN <= 0 {
			printWarn("", fmt.Sprintf("[index].top_n is %d — queries fall back to %d", cfg.Index.TopN, index.DefaultTopN))
		}
	}
	fmt.Println()

	// ── Check 3: language model credentials ──────────────────────────────────
	fmt.Println("[ Language model ]")
	if loadErr == nil {
		pc, err := cfg.ProviderSettings(cfg.LLM.Provider)
		switch {
		case err != nil:
			failD("%v", err)
		case pc.APIKey == "":
			key := "TASKCAP_" + strings.ToUpper(cfg.LLM.Provider) + "_API_KEY"
			printWarn("", fmt.Sprintf("%s is not set — 'taskcap capture' will not work", key))
		default:
			printOK("", fmt.Sprintf("%s (%s) configured", cfg.LLM.Provider, pc.Model))
		}
	} else {
		printWarn("", "skipped (config.toml not loaded)")
	}
	fmt.Println()

	// ── Check 4: index files ─────────────────────────────────────────────────
	fmt.Println("[ Index files ]")
	if loadErr == nil {
		idx, err := openIndex(cfg)
		if err != nil {
			failD("%v", err)
		} else {
			for _, c := range idx.Corpora() {
				problems := index.Diagnose(c.Dir())
				if len(problems) == 0 {
					printOK(c.Name(), fmt.Sprintf("%d record(s), vocabulary %d", c.Len(), c.Vocabulary().Len()))
					continue
				}
				for _, p := range problems {
					failD("[%s] %s", c.Name(), p)
				}
			}
			if !allOK {
				fmt.Println("     Run 'taskcap doctor fix' to rebuild the derived files from records.json.")
			}
		}
	} else {
		printWarn("", "skipped (config.toml not loaded)")
	}
	fmt.Println()

	// ── Summary ──────────────────────────────────────────────────────────────────
	fmt.Println("===================")
	if allOK {
		fmt.Println("✓  All checks passed. taskcap is ready to use.")
	} else {
		fmt.Fprintln(os.Stderr, "✗  One or more checks failed. See details above.")
		return fmt.Errorf("doctor found issues")
	}
	return nil
}
