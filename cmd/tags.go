package cmd

import (
	"fmt"
	"strings"

	"github.com/kamusis/taskcap-cli/internal/search"
	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags <text>",
	Short: "Suggest tags for a task from similar tasks and commits",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTags,
}

func init() {
	rootCmd.AddCommand(tagsCmd)
}

func runTags(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	idx, err := openIndex(cfg)
	if err != nil {
		return err
	}
	tags, err := search.SuggestTags(idx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if len(tags) == 0 {
		printMiss("", "no tags suggested")
		return nil
	}
	for _, t := range tags {
		fmt.Println(t)
	}
	return nil
}
