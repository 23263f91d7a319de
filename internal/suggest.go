package internal

import "strings"

// Suggester decides whether a model reply contains a runnable command
// and extracts it. The heuristic is a strategy point: the default
// implementation is deliberately coarse and kept for compatibility.
type Suggester interface {
	ContainsSuggestion(text string) bool
	ExtractCommand(text string) string
}

// HeuristicSuggester detects commands via fenced code blocks, `$` line
// markers and imperative keywords
type HeuristicSuggester struct{}

// NewHeuristicSuggester returns the default suggestion strategy
func NewHeuristicSuggester() *HeuristicSuggester {
	return &HeuristicSuggester{}
}

var suggestionIndicators = []string{"```", "$", "run", "execute", "command"}

// ContainsSuggestion reports whether the reply looks like it proposes a
// command to execute
func (s *HeuristicSuggester) ContainsSuggestion(text string) bool {
	lower := strings.ToLower(text)
	for _, indicator := range suggestionIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// ExtractCommand pulls the suggested command out of the reply. The first
// fenced code block wins; its non-comment lines are joined with " && ".
// Otherwise the first line starting with "$" is used, minus the marker
// and any trailing comment. Empty string means nothing extractable.
func (s *HeuristicSuggester) ExtractCommand(text string) string {
	if strings.Contains(text, "```") {
		if command := extractFromCodeBlock(text); command != "" {
			return command
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "$") {
			command := strings.TrimSpace(strings.TrimPrefix(line, "$"))
			if idx := strings.Index(command, " #"); idx >= 0 {
				command = strings.TrimSpace(command[:idx])
			}
			return command
		}
	}
	return ""
}

func extractFromCodeBlock(text string) string {
	var commands []string
	inBlock := false
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			if inBlock {
				break
			}
			inBlock = true
			continue
		}
		if !inBlock {
			continue
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		commands = append(commands, trimmed)
	}
	return strings.Join(commands, " && ")
}
