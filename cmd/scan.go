package cmd

import (
	"fmt"

	"github.com/kamusis/taskcap-cli/internal/scanner"
	"github.com/kamusis/taskcap-cli/internal/search/index"
	"github.com/spf13/cobra"
)

var flagScanMaxCommits int

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Index project history from git repositories or markdown notes",
}

var scanGitCmd = &cobra.Command{
	Use:   "git [repo...]",
	Short: "Index recent commits into the projects corpus",
	Long: `Read the most recent commits of each repository and add the ones not yet
indexed to the projects corpus. Without arguments, scans [scan].project_dirs.`,
	RunE: runScanGit,
}

var scanMarkdownCmd = &cobra.Command{
	Use:   "markdown [dir...]",
	Short: "Index markdown checklists as tasks and files as project context",
	Long: `Walk each directory for .md and .markdown files. Checklist items
("- [ ] ..." and "- [x] ...") become tasks; each file becomes a project
context entry. Without arguments, scans [scan].markdown_dirs.`,
	RunE: runScanMarkdown,
}

func init() {
	scanGitCmd.Flags().IntVar(&flagScanMaxCommits, "max-commits", 0, "Commits to read per repository (default: [scan].max_commits)")
	scanCmd.AddCommand(scanGitCmd, scanMarkdownCmd)
	rootCmd.AddCommand(scanCmd)
}

func runScanGit(cmd *cobra.Command, args []string) error {
	if err := checkGitAvailable(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repos, err := scanTargets(args, cfg.Scan.ProjectDirs, "project_dirs")
	if err != nil {
		return err
	}
	maxCommits := cfg.Scan.MaxCommits
	if cmd.Flags().Changed("max-commits") {
		maxCommits = flagScanMaxCommits
	}
	gs := scanner.NewGitScanner(maxCommits, logger)

	printSection("Scan git")
	var failed int
	err = withIndexLock(cfg, func(idx *index.Index) error {
		for _, repo := range repos {
			added, err := gs.Scan(cmd.Context(), idx.Projects(), repo)
			if err != nil {
				printErr(repo, err.Error())
				failed++
				continue
			}
			if added == 0 {
				printSkip(repo, "no new commits")
				continue
			}
			printOK(repo, fmt.Sprintf("%d commit(s) indexed", added))
		}
		printInfo("", fmt.Sprintf("projects corpus: %d entries, vocabulary %d",
			idx.Projects().Len(), idx.Projects().Vocabulary().Len()))
		return nil
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d repository scan(s) failed", failed)
	}
	return nil
}

func runScanMarkdown(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dirs, err := scanTargets(args, cfg.Scan.MarkdownDirs, "markdown_dirs")
	if err != nil {
		return err
	}
	ms := scanner.NewMarkdownScanner(logger)

	printSection("Scan markdown")
	var failed int
	err = withIndexLock(cfg, func(idx *index.Index) error {
		for _, dir := range dirs {
			if err := scanMarkdownDir(ms, idx, dir); err != nil {
				printErr(dir, err.Error())
				failed++
			}
		}
		printInfo("", fmt.Sprintf("tasks corpus: %d tasks, vocabulary %d",
			idx.Tasks().Len(), idx.Tasks().Vocabulary().Len()))
		return nil
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d directory scan(s) failed", failed)
	}
	return nil
}

func scanMarkdownDir(ms *scanner.MarkdownScanner, idx *index.Index, dir string) error {
	res, err := ms.Scan(idx, dir)
	if err != nil {
		return err
	}
	if res.Added == 0 {
		printSkip(dir, fmt.Sprintf("%d file(s), no new tasks", res.Files))
		return nil
	}
	printOK(dir, fmt.Sprintf("%d file(s), %d of %d task(s) added", res.Files, res.Added, res.Tasks))
	return nil
}

// scanTargets returns args, or the configured fallback when args is empty.
func scanTargets(args, configured []string, key string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	if len(configured) == 0 {
		return nil, fmt.Errorf("nothing to scan: pass a path or set [scan].%s in config.toml", key)
	}
	return configured, nil
}
