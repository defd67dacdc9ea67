package quest

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

const (
	minTasks = 2
	maxTasks = 5
)

type wireSpec struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Tasks            []string `json:"tasks"`
	Reward           string   `json:"reward"`
	Category         string   `json:"category"`
	Difficulty       string   `json:"difficulty"`
	EstimatedMinutes int      `json:"estimated_minutes"`
}

// DecodeSpec parses a backend reply into a QuestSpec. The reply may be wrapped
// in a markdown code fence. Any schema violation yields ErrMalformedResponse;
// a partially valid reply is never returned.
func DecodeSpec(raw string) (QuestSpec, error) {
	text := stripFences(raw)
	if text == "" {
		return QuestSpec{}, fmt.Errorf("%w: empty payload", ErrMalformedResponse)
	}

	var w wireSpec
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return QuestSpec{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	spec := QuestSpec{
		Title:            strings.TrimSpace(w.Title),
		Description:      strings.TrimSpace(w.Description),
		Reward:           strings.TrimSpace(w.Reward),
		Category:         Category(strings.ToLower(strings.TrimSpace(w.Category))),
		Difficulty:       Difficulty(strings.ToLower(strings.TrimSpace(w.Difficulty))),
		EstimatedMinutes: w.EstimatedMinutes,
	}
	switch {
	case spec.Title == "":
		return QuestSpec{}, malformed("title is required")
	case spec.Description == "":
		return QuestSpec{}, malformed("description is required")
	case spec.Reward == "":
		return QuestSpec{}, malformed("reward is required")
	case len(w.Tasks) < minTasks || len(w.Tasks) > maxTasks:
		return QuestSpec{}, malformed(fmt.Sprintf("expected %d-%d tasks, got %d", minTasks, maxTasks, len(w.Tasks)))
	case !spec.Category.Valid():
		return QuestSpec{}, malformed(fmt.Sprintf("unknown category %q", w.Category))
	case !spec.Difficulty.Valid():
		return QuestSpec{}, malformed(fmt.Sprintf("unknown difficulty %q", w.Difficulty))
	case spec.EstimatedMinutes <= 0:
		return QuestSpec{}, malformed("estimated_minutes must be positive")
	}

	spec.Tasks = make([]string, 0, len(w.Tasks))
	for i, task := range w.Tasks {
		task = strings.TrimSpace(task)
		if task == "" {
			return QuestSpec{}, malformed(fmt.Sprintf("task %d is empty", i+1))
		}
		spec.Tasks = append(spec.Tasks, task)
	}
	return spec, nil
}

func malformed(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, reason)
}

// stripFences removes an enclosing ``` or ```json fence.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
