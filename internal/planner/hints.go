package planner

import (
	"regexp"
	"strings"

	"github.com/user/planstream/internal/metadata"
)

var priorityCuePattern = regexp.MustCompile(`(?i)\bp([0-3])\b`)

// Hints are derived from the prompt once per request.
type Hints struct {
	Priority int               `json:"priority,omitempty"`
	Project  *metadata.Project `json:"project,omitempty"`
	Labels   []string          `json:"labels,omitempty"`
}

func DeriveHints(prompt string, snap metadata.Snapshot) Hints {
	h := Hints{
		Priority: PriorityFromCue(prompt),
		Labels:   metadata.InferLabels(prompt, snap),
	}
	if p, ok := metadata.InferProject(prompt, snap); ok {
		h.Project = &p
	}
	return h
}

// PriorityFromCue maps P0/P1 to 4, P2 to 3 and P3 to 2. Anything else is 0.
func PriorityFromCue(text string) int {
	m := priorityCuePattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	switch strings.TrimSpace(m[1]) {
	case "0", "1":
		return 4
	case "2":
		return 3
	case "3":
		return 2
	}
	return 0
}
