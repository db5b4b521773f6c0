// Package mcpserver exposes read-only index queries as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kamusis/taskcap-cli/internal/search"
	"github.com/kamusis/taskcap-cli/internal/search/index"
)

const statusURI = "taskcap://status"

// Server wraps an MCP server bound to one index. Handlers are serialized because the
// index is not safe for concurrent use.
type Server struct {
	mu     sync.Mutex
	idx    *index.Index
	topN   int
	server *mcp.Server
}

// New creates a server named taskcap at version. topN is the default result limit.
func New(idx *index.Index, version string, topN int) (*Server, error) {
	if idx == nil {
		return nil, fmt.Errorf("index is required")
	}
	if topN <= 0 {
		topN = index.DefaultTopN
	}
	s := &Server{
		idx:    idx,
		topN:   topN,
		server: mcp.NewServer(&mcp.Implementation{Name: "taskcap", Version: version}, nil),
	}
	s.registerTools()
	s.server.AddResource(&mcp.Resource{
		URI:         statusURI,
		Name:        "status",
		Description: "Record counts and vocabulary sizes of the tasks and projects corpora",
		MIMEType:    "application/json",
	}, s.handleStatus)
	return s, nil
}

// Run serves over stdio until ctx is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// QueryInput is the input of the similar_tasks and project_context tools.
type QueryInput struct {
	Query string `json:"query" jsonschema:"natural-language text to compare against indexed records"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default 5)"`
}

// QueryOutput lists matching records, best first.
type QueryOutput struct {
	Results []ResultOutput `json:"results"`
	Count   int            `json:"count"`
}

// ResultOutput is one matching record.
type ResultOutput struct {
	ID       int64          `json:"id"`
	Content  string         `json:"content"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// TagsInput is the input of the suggest_tags tool.
type TagsInput struct {
	Text string `json:"text" jsonschema:"task description to suggest tags for"`
}

// TagsOutput is the sorted tag set.
type TagsOutput struct {
	Tags []string `json:"tags"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "similar_tasks",
		Description: "Find previously captured tasks similar to the query",
	}, s.handleSimilarTasks)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "project_context",
		Description: "Find commits and notes from project history related to the query",
	}, s.handleProjectContext)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "suggest_tags",
		Description: "Suggest tags for a task from similar tasks and project history",
	}, s.handleSuggestTags)
}

func (s *Server) handleSimilarTasks(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	return s.query(s.idx.Tasks(), input)
}

func (s *Server) handleProjectContext(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input QueryInput,
) (*mcp.CallToolResult, QueryOutput, error) {
	return s.query(s.idx.Projects(), input)
}

func (s *Server) query(c *index.Corpus, input QueryInput) (*mcp.CallToolResult, QueryOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = s.topN
	}

	s.mu.Lock()
	results, err := search.Similar(c, input.Query, limit)
	s.mu.Unlock()
	if err != nil {
		return nil, QueryOutput{}, err
	}

	out := QueryOutput{Results: make([]ResultOutput, len(results)), Count: len(results)}
	for i, r := range results {
		out.Results[i] = ResultOutput{ID: r.ID, Content: r.Content, Score: r.Score, Metadata: r.Metadata}
	}
	return nil, out, nil
}

func (s *Server) handleSuggestTags(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input TagsInput,
) (*mcp.CallToolResult, TagsOutput, error) {
	s.mu.Lock()
	tags, err := search.SuggestTags(s.idx, input.Text)
	s.mu.Unlock()
	if err != nil {
		return nil, TagsOutput{}, err
	}
	return nil, TagsOutput{Tags: tags}, nil
}

type corpusStatus struct {
	Name       string `json:"name"`
	Records    int    `json:"records"`
	Vocabulary int    `json:"vocabulary"`
	State      string `json:"state"`
}

func (s *Server) handleStatus(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	s.mu.Lock()
	var out []corpusStatus
	for _, c := range s.idx.Corpora() {
		out = append(out, corpusStatus{
			Name:       c.Name(),
			Records:    c.Len(),
			Vocabulary: c.Vocabulary().Len(),
			State:      c.State().String(),
		})
	}
	s.mu.Unlock()

	b, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("cannot encode status: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(b),
		}},
	}, nil
}
