package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/kamusis/taskcap-cli/internal/search/index"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show record counts, vocabulary sizes and last save of each corpus",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	idx, err := openIndex(cfg)
	if err != nil {
		return err
	}

	fmt.Println("=== Index ===")
	fmt.Printf("  %s\n", idx.Dir())

	for _, c := range idx.Corpora() {
		printBullet(fmt.Sprintf("%s:", c.Name()))
		fmt.Printf("  records:     %d\n", c.Len())
		fmt.Printf("  vocabulary:  %d\n", c.Vocabulary().Len())
		fmt.Printf("  state:       %s\n", c.State())

		m, err := index.LoadManifest(filepath.Join(c.Dir(), index.ManifestFile))
		if err != nil {
			printMiss("", "never saved")
			continue
		}
		fmt.Printf("  updated at:  %s\n", m.UpdatedAt)
		if err := c.Check(); err != nil {
			printErr(c.Name(), err.Error())
		} else if m.Count != c.Len() {
			printWarn(c.Name(), "on-disk files are stale (run 'taskcap doctor fix')")
		}
	}
	return nil
}
