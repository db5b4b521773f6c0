package cmd

import (
	"fmt"
	"strings"

	"github.com/kamusis/taskcap-cli/internal/search/index"
	"github.com/spf13/cobra"
)

var (
	flagAddTags      []string
	flagAddStatus    string
	flagAddPriority  string
	flagAddProject   string
	flagAddMilestone string
	flagAddID        int64
)

var addCmd = &cobra.Command{
	Use:   "add <task text>",
	Short: "Record a task in the tasks index",
	Example: `  taskcap add "Fix login redirect" --tag auth --priority high
  taskcap add Renew passport --project personal`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringSliceVarP(&flagAddTags, "tag", "t", nil, "Tag to attach (repeatable)")
	addCmd.Flags().StringVar(&flagAddStatus, "status", "pending", "Task status")
	addCmd.Flags().StringVar(&flagAddPriority, "priority", "", "Priority (high, medium, low)")
	addCmd.Flags().StringVar(&flagAddProject, "project", "Inbox", "Project name")
	addCmd.Flags().StringVar(&flagAddMilestone, "milestone", "", "Milestone name")
	addCmd.Flags().Int64Var(&flagAddID, "id", 0, "Record ID (default: next free ID)")
	rootCmd.AddCommand(addCmd)
}

func runAdd(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	text := strings.TrimSpace(strings.Join(args, " "))
	if text == "" {
		return fmt.Errorf("task text is empty")
	}

	md := map[string]any{
		"type":    "manual",
		"status":  flagAddStatus,
		"project": flagAddProject,
		"tags":    normalizeTags(flagAddTags),
	}
	if flagAddPriority != "" {
		md["priority"] = strings.ToLower(flagAddPriority)
	}
	if flagAddMilestone != "" {
		md["milestone"] = flagAddMilestone
	}

	return withIndexLock(cfg, func(idx *index.Index) error {
		id := flagAddID
		if id == 0 {
			id = idx.Tasks().NextID()
		} else if idx.Tasks().HasID(id) {
			printWarn("", fmt.Sprintf("a task with id %d already exists; adding another", id))
		}
		if err := idx.Tasks().Add(index.Record{ID: id, Content: text, Metadata: md}); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("task %d recorded (%d tasks, vocabulary %d)",
			id, idx.Tasks().Len(), idx.Tasks().Vocabulary().Len()))
		return nil
	})
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool)
	for _, t := range tags {
		t = strings.TrimPrefix(strings.TrimSpace(t), "#")
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
