package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kamusis/taskcap-cli/internal/llm"
	"github.com/kamusis/taskcap-cli/internal/nlp"
	"github.com/kamusis/taskcap-cli/internal/search/index"
	"github.com/spf13/cobra"
)

var (
	flagCaptureSave     bool
	flagCapturePrompt   bool
	flagCaptureProvider string
)

var captureCmd = &cobra.Command{
	Use:   "capture <description>",
	Short: "Turn a natural-language description into a structured task",
	Long: `Send the description to the configured language model together with the
most similar recorded tasks and suggested tags, and print the structured task
it returns. With --save the task is also added to the tasks corpus.`,
	Example: `  taskcap capture "Finish the auth migration by friday #backend @sam high priority"
  taskcap capture --save "Call the dentist tomorrow"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCapture,
}

func init() {
	captureCmd.Flags().BoolVar(&flagCaptureSave, "save", false, "Add the parsed task to the tasks corpus")
	captureCmd.Flags().BoolVar(&flagCapturePrompt, "prompt", false, "Print the prompt instead of calling the model")
	captureCmd.Flags().StringVar(&flagCaptureProvider, "provider", "", "Language model provider (overrides [llm].provider)")
	rootCmd.AddCommand(captureCmd)
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagCaptureProvider != "" {
		cfg.LLM.Provider = flagCaptureProvider
	}
	text := strings.TrimSpace(strings.Join(args, " "))

	idx, err := openIndex(cfg)
	if err != nil {
		return err
	}

	if flagCapturePrompt {
		prompt, err := nlp.NewProcessor(nil, idx, logger).Prompt(text)
		if err != nil {
			return err
		}
		fmt.Println(prompt)
		return nil
	}

	prov, err := llm.New(cfg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), llm.DefaultTimeout)
	defer cancel()

	task, err := nlp.NewProcessor(prov, idx, logger).Process(ctx, text)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(task, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode task: %w", err)
	}
	fmt.Println(string(out))

	if !flagCaptureSave {
		return nil
	}
	return withIndexLock(cfg, func(idx *index.Index) error {
		id := idx.Tasks().NextID()
		if err := idx.Tasks().Add(task.Record(id)); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("task %d recorded", id))
		return nil
	})
}
