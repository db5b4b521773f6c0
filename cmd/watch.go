package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kamusis/taskcap-cli/internal/scanner"
	"github.com/kamusis/taskcap-cli/internal/search/index"
	"github.com/spf13/cobra"
)

var flagWatchDebounce int

var watchCmd = &cobra.Command{
	Use:   "watch [dir...]",
	Short: "Rescan markdown directories whenever their notes change",
	Long: `Scan each directory once, then watch it and rescan after markdown files are
created, changed or removed. Without arguments, watches [scan].markdown_dirs.
Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&flagWatchDebounce, "debounce", 2, "Seconds to wait after the last change before rescanning")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dirs, err := scanTargets(args, cfg.Scan.MarkdownDirs, "markdown_dirs")
	if err != nil {
		return err
	}
	ms := scanner.NewMarkdownScanner(logger)
	rescan := func(dir string) {
		err := withIndexLock(cfg, func(idx *index.Index) error {
			return scanMarkdownDir(ms, idx, dir)
		})
		if err != nil {
			printErr(dir, err.Error())
		}
	}

	printSection("Watch markdown")
	for _, dir := range dirs {
		rescan(dir)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	printInfo("", fmt.Sprintf("watching %d director(ies); press Ctrl-C to stop", len(dirs)))
	w := scanner.NewWatcher(time.Duration(flagWatchDebounce)*time.Second, logger)
	if err := w.Run(ctx, dirs, rescan); err != nil {
		return err
	}
	if ctx.Err() == context.Canceled {
		fmt.Println()
		printInfo("", "stopped")
	}
	return nil
}
