package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/kamusis/taskcap-cli/internal/search"
	"github.com/spf13/cobra"
)

var flagSimilarK int

var similarCmd = &cobra.Command{
	Use:   "similar <query>",
	Short: "List recorded tasks most similar to a query",
	Example: `  taskcap similar fix the login timeout
  taskcap similar "renew passport" --k 10`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSimilar,
}

func init() {
	similarCmd.Flags().IntVar(&flagSimilarK, "k", 0, "Number of results to show (default: [index].top_n)")
	rootCmd.AddCommand(similarCmd)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	return runQuery(cmd, "tasks", strings.Join(args, " "), flagSimilarK)
}

// runQuery runs a read-only similarity query against one corpus and prints the hits.
func runQuery(cmd *cobra.Command, corpus, query string, k int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("k") {
		k = cfg.Index.TopN
	}
	idx, err := openIndex(cfg)
	if err != nil {
		return err
	}
	c, err := idx.Corpus(corpus)
	if err != nil {
		return err
	}
	results, err := search.Similar(c, query, k)
	if err != nil {
		return err
	}
	printResults(corpus, query, results)
	return nil
}

func printResults(corpus, query string, results []search.Result) {
	fmt.Printf("\ntaskcap %s %q\n\n", corpus, query)
	fmt.Printf("Results (%d found):\n", len(results))
	if len(results) == 0 {
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for i, r := range results {
		fmt.Fprintf(w, "  %d.\t[%.3f]\t#%d\t%s\n", i+1, r.Score, r.ID, strings.TrimSpace(r.Content))
		if detail := describe(r); detail != "" {
			fmt.Fprintf(w, "  - %s\n", detail)
		}
	}
	_ = w.Flush()
}

// describe summarizes the metadata worth showing next to a hit.
func describe(r search.Result) string {
	var parts []string
	for _, key := range []string{"project", "status", "priority", "repo", "date", "path"} {
		if v := search.String(r.Metadata, key); v != "" {
			parts = append(parts, key+"="+v)
		}
	}
	if tags := search.Strings(r.Metadata, "tags"); len(tags) > 0 {
		parts = append(parts, "tags="+strings.Join(tags, ","))
	}
	return strings.Join(parts, "  ")
}
