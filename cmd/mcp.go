package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/kamusis/taskcap-cli/internal/mcpserver"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve similarity queries to MCP clients over stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout exposing the tools
similar_tasks, project_context and suggest_tags, and the resource
taskcap://status. The index is opened once at startup and only read.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	idx, err := openIndex(cfg)
	if err != nil {
		return err
	}
	srv, err := mcpserver.New(idx, version, cfg.Index.TopN)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Debug("mcp server starting", "index", idx.Dir(), "tasks", idx.Tasks().Len(), "projects", idx.Projects().Len())
	return srv.Run(ctx)
}
