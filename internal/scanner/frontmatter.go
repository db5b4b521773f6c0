package scanner

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// splitFrontmatter separates a leading YAML front matter block from the markdown body.
// Keys are lower-cased. Content without a valid block is returned unchanged as the body.
func splitFrontmatter(content string) (map[string]any, string) {
	s := strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(s, "---") {
		return map[string]any{}, content
	}

	parts := strings.SplitN(s, "---", 3)
	if len(parts) < 3 {
		return map[string]any{}, content
	}

	fmText := strings.TrimSpace(parts[1])
	body := strings.TrimPrefix(parts[2], "\n")

	var raw map[string]any
	if err := yaml.Unmarshal([]byte(fmText), &raw); err != nil {
		return map[string]any{}, content
	}

	out := make(map[string]any, len(raw))
	for k, v := range raw {
		out[strings.ToLower(k)] = v
	}
	return out, body
}

// frontmatterString returns a string-valued key, or "".
func frontmatterString(fm map[string]any, key string) string {
	s, _ := fm[key].(string)
	return strings.TrimSpace(s)
}

// frontmatterList returns a key holding a YAML list or a comma separated string.
func frontmatterList(fm map[string]any, key string) []string {
	var out []string
	switch v := fm[key].(type) {
	case []any:
		for _, x := range v {
			if s, ok := x.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
