// Package nlp turns free-form task descriptions into structured tasks with a language
// model, using the similarity index as context. It reads the index but never writes it.
package nlp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kamusis/taskcap-cli/internal/llm"
	"github.com/kamusis/taskcap-cli/internal/search"
	"github.com/kamusis/taskcap-cli/internal/search/index"
)

// ContextTasks is the number of similar tasks quoted in the prompt.
const ContextTasks = 3

const systemPrompt = "You are a task management assistant that extracts structured information " +
	"from natural language task descriptions. Always respond with valid JSON."

// Processor parses task descriptions with a provider and an index for context.
type Processor struct {
	provider llm.Provider
	idx      *index.Index
	log      *slog.Logger
	now      func() time.Time
}

// NewProcessor returns a processor. log may be nil.
func NewProcessor(p llm.Provider, idx *index.Index, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Processor{provider: p, idx: idx, log: log, now: time.Now}
}

// Process extracts a task from text. Provider failures are wrapped with the provider name;
// responses that cannot be decoded are returned as *ParseError.
func (p *Processor) Process(ctx context.Context, text string) (*ParsedTask, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("task text is empty")
	}
	prompt, err := p.Prompt(text)
	if err != nil {
		return nil, err
	}

	start := p.now()
	raw, err := p.provider.Complete(ctx, llm.Request{System: systemPrompt, Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("%s completion failed: %w", p.provider.Name(), err)
	}
	p.log.Debug("completion", "provider", p.provider.Name(), "elapsed", p.now().Sub(start))

	return ParseResponse(raw, p.now())
}

// Prompt builds the extraction prompt for text, quoting up to ContextTasks similar tasks
// and the suggested tags.
func (p *Processor) Prompt(text string) (string, error) {
	var extra strings.Builder
	if p.idx != nil {
		similar, err := search.Similar(p.idx.Tasks(), text, index.DefaultTopN)
		if err != nil {
			return "", err
		}
		if len(similar) > ContextTasks {
			similar = similar[:ContextTasks]
		}
		if len(similar) > 0 {
			extra.WriteString("\nSimilar tasks in the system:")
			for _, r := range similar {
				extra.WriteString("\n- " + r.Content)
			}
		}
		tags, err := search.SuggestTags(p.idx, text)
		if err != nil {
			return "", err
		}
		if len(tags) > 0 {
			extra.WriteString("\nSuggested tags based on project context: " + strings.Join(tags, ", "))
		}
	}

	return fmt.Sprintf(`Analyze the following task description and extract key information.
Use the provided context to make better inferences about projects and tags.

Task: %s
%s

Please extract and format the following information in JSON:
- task_content: The main task description
- due_date: Any mentioned due date
- project: Project name if mentioned (infer from keywords like 'for project X', 'in X project', '#project-X', or similar patterns). If no project is explicitly mentioned, try to infer it from the task context.
- milestone: Any milestone information
- priority: High/Medium/Low if mentioned
- status: Current status if mentioned (default to 'pending')
- tags: List of relevant tags (combine mentioned tags and suggested tags)
- assigned_users: List of @mentioned users

Format dates in ISO format (YYYY-MM-DD).

Respond ONLY with the JSON object, no additional text.`, text, extra.String()), nil
}

// Record converts a parsed task into a task record with the given id.
func (t *ParsedTask) Record(id int64) index.Record {
	md := map[string]any{
		"type":           "captured",
		"project":        t.Project,
		"status":         t.Status,
		"tags":           t.Tags,
		"assigned_users": t.AssignedUsers,
	}
	if t.Priority != "" {
		md["priority"] = t.Priority
	}
	if t.Milestone != "" {
		md["milestone"] = t.Milestone
	}
	if t.DueDate != nil {
		md["due_date"] = t.DueDate.Format("2006-01-02")
	}
	return index.Record{ID: id, Content: t.TaskContent, Metadata: md}
}
