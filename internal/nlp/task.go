package nlp

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Defaults applied when the model leaves a field empty.
const (
	DefaultProject = "Inbox"
	DefaultStatus  = "pending"
)

// ParsedTask is the structured form of a natural-language task description.
type ParsedTask struct {
	TaskContent   string     `json:"task_content"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	Project       string     `json:"project"`
	Milestone     string     `json:"milestone,omitempty"`
	Priority      string     `json:"priority,omitempty"`
	Status        string     `json:"status"`
	Tags          []string   `json:"tags"`
	AssignedUsers []string   `json:"assigned_users"`
}

// ParseError reports a model response that could not be turned into a task.
type ParseError struct {
	Raw    string
	Reason string
}

func (e *ParseError) Error() string {
	return "cannot parse task: " + e.Reason
}

// rawTask mirrors the model's JSON loosely: lists may arrive as a single string and
// dates in several layouts.
type rawTask struct {
	TaskContent   string          `json:"task_content"`
	DueDate       *string         `json:"due_date"`
	Project       *string         `json:"project"`
	Milestone     *string         `json:"milestone"`
	Priority      *string         `json:"priority"`
	Status        *string         `json:"status"`
	Tags          json.RawMessage `json:"tags"`
	AssignedUsers json.RawMessage `json:"assigned_users"`
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// ParseResponse decodes a model response into a task, relative to now for dates like
// "tomorrow". The whole body is tried as JSON first, then the outermost {...} block.
func ParseResponse(raw string, now time.Time) (*ParsedTask, error) {
	body := strings.TrimSpace(raw)
	if body == "" {
		return nil, &ParseError{Raw: raw, Reason: "empty response"}
	}

	var rt rawTask
	if err := json.Unmarshal([]byte(body), &rt); err != nil {
		block := jsonObjectRe.FindString(body)
		if block == "" {
			return nil, &ParseError{Raw: raw, Reason: "no JSON object in response"}
		}
		rt = rawTask{}
		if err := json.Unmarshal([]byte(block), &rt); err != nil {
			return nil, &ParseError{Raw: raw, Reason: fmt.Sprintf("invalid JSON: %v", err)}
		}
	}

	t := &ParsedTask{
		TaskContent: strings.TrimSpace(rt.TaskContent),
		Project:     deref(rt.Project),
		Milestone:   deref(rt.Milestone),
		Priority:    strings.ToLower(deref(rt.Priority)),
		Status:      deref(rt.Status),
	}
	if t.Project == "" {
		t.Project = DefaultProject
	}
	if t.Status == "" {
		t.Status = DefaultStatus
	}

	var err error
	if t.Tags, err = stringList(rt.Tags); err != nil {
		return nil, &ParseError{Raw: raw, Reason: fmt.Sprintf("tags: %v", err)}
	}
	if t.AssignedUsers, err = stringList(rt.AssignedUsers); err != nil {
		return nil, &ParseError{Raw: raw, Reason: fmt.Sprintf("assigned_users: %v", err)}
	}
	for i, u := range t.AssignedUsers {
		t.AssignedUsers[i] = strings.TrimPrefix(u, "@")
	}

	if d := deref(rt.DueDate); d != "" {
		due, err := ParseDueDate(d, now)
		if err != nil {
			return nil, &ParseError{Raw: raw, Reason: err.Error()}
		}
		t.DueDate = &due
	}
	return t, nil
}

// Validate reports whether the task has the required fields.
func Validate(t *ParsedTask) error {
	if t == nil {
		return fmt.Errorf("task is nil")
	}
	if strings.TrimSpace(t.TaskContent) == "" {
		return fmt.Errorf("task_content is required")
	}
	return nil
}

var dueLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseDueDate accepts ISO dates and timestamps, MM/DD/YYYY, month names, and the
// words today and tomorrow relative to now.
func ParseDueDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	day := func(t time.Time) time.Time {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	}
	switch strings.ToLower(s) {
	case "today":
		return day(now), nil
	case "tomorrow":
		return day(now.AddDate(0, 0, 1)), nil
	}
	for _, layout := range dueLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized due date %q", s)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func stringList(raw json.RawMessage) ([]string, error) {
	out := []string{}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("expected a list of strings")
	}
	for _, s := range strings.Split(single, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
