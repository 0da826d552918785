package crew

import (
	"fmt"
	"strings"
)

const contextSeparator = "\n\n----------\n\n"

// Task is a unit of work executed by one agent
type Task struct {
	Name           string
	Description    string
	ExpectedOutput string
	Agent          *Agent
	// Context lists earlier tasks whose raw output is handed to this one
	Context []*Task
}

// TaskOutput is the result of a finished task
type TaskOutput struct {
	Name        string
	Description string
	Agent       string
	Raw         string
}

// prompt renders the user message for the task, embedding prior outputs
func (t *Task) prompt(prior []string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(t.Description))
	if t.ExpectedOutput != "" {
		fmt.Fprintf(&sb, "\n\nThis is the expected criteria for your final answer: %s\n", t.ExpectedOutput)
		sb.WriteString("You MUST return the actual complete content as the final answer, not a summary.")
	}
	if len(prior) > 0 {
		sb.WriteString("\n\nThis is the context you're working with:\n")
		sb.WriteString(strings.Join(prior, contextSeparator))
	}
	return sb.String()
}
