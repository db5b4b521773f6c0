package search

import (
	"path"
	"sort"
	"strings"

	"github.com/kamusis/taskcap-cli/internal/search/index"
)

// Commit message markers whose following word is taken as a tag.
var commitTagPrefixes = []string{"feature/", "fix/", "docs/", "test/"}

// SuggestTags collects candidate tags for text from the most similar tasks (their
// metadata tags) and the most similar project-history entries (branch-style prefixes in
// commit messages and extensions of changed files). The result is a sorted set.
func SuggestTags(idx *index.Index, text string) ([]string, error) {
	set := make(map[string]struct{})

	tasks, err := Similar(idx.Tasks(), text, index.DefaultTopN)
	if err != nil {
		return nil, err
	}
	for _, r := range tasks {
		for _, tag := range Strings(r.Metadata, "tags") {
			if tag = strings.TrimSpace(tag); tag != "" {
				set[tag] = struct{}{}
			}
		}
	}

	projects, err := Similar(idx.Projects(), text, index.DefaultTopN)
	if err != nil {
		return nil, err
	}
	for _, r := range projects {
		for _, tag := range CommitTags(String(r.Metadata, "message"), Strings(r.Metadata, "files")) {
			set[tag] = struct{}{}
		}
	}

	out := make([]string, 0, len(set))
	for tag := range set {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out, nil
}

// CommitTags derives tags from one commit: the word after each known prefix in the
// lower-cased message, and the extension of every changed file.
func CommitTags(message string, files []string) []string {
	var out []string
	msg := strings.ToLower(message)
	for _, prefix := range commitTagPrefixes {
		i := strings.Index(msg, prefix)
		if i < 0 {
			continue
		}
		if words := strings.Fields(msg[i+len(prefix):]); len(words) > 0 {
			out = append(out, words[0])
		}
	}
	for _, f := range files {
		if ext := path.Ext(strings.ReplaceAll(f, "\\", "/")); len(ext) > 1 {
			out = append(out, ext[1:])
		}
	}
	return out
}
