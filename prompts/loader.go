package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed agents.yaml
var agentsYAML []byte

//go:embed tasks.yaml
var tasksYAML []byte

//go:embed tool_search_internet.txt
var ToolSearchDesc string

//go:embed tool_send_email.txt
var ToolSendEmailDesc string

//go:embed tool_read_webpage.txt
var ToolReadWebpageDesc string

// Agent names defined in agents.yaml
const (
	AgentResearcher = "researcher"
	AgentSummarizer = "summarizer"
	AgentEmailer    = "emailer"
)

// Task names defined in tasks.yaml
const (
	TaskResearch  = "research"
	TaskSummarize = "summarize"
	TaskEmail     = "email"
)

// AgentPrompt is one agent definition after template rendering
type AgentPrompt struct {
	Role      string `yaml:"role"`
	Goal      string `yaml:"goal"`
	Backstory string `yaml:"backstory"`
	MaxIter   int    `yaml:"max_iter"`
}

// TaskPrompt is one task definition after template rendering
type TaskPrompt struct {
	Description    string `yaml:"description"`
	ExpectedOutput string `yaml:"expected_output"`
}

// Vars are the values substituted into agent and task templates
type Vars struct {
	Topic      string
	Recipient  string
	Format     string
	Subject    string
	NumResults int
}

var funcs = template.FuncMap{
	"lower": strings.ToLower,
}

// Agent renders the named agent definition
func Agent(name string, vars Vars) (AgentPrompt, error) {
	var defs map[string]AgentPrompt
	if err := yaml.Unmarshal(agentsYAML, &defs); err != nil {
		return AgentPrompt{}, fmt.Errorf("failed to parse agents.yaml: %w", err)
	}
	def, ok := defs[name]
	if !ok {
		return AgentPrompt{}, fmt.Errorf("unknown agent %q", name)
	}

	var err error
	if def.Goal, err = render(name+".goal", def.Goal, vars); err != nil {
		return AgentPrompt{}, err
	}
	if def.Backstory, err = render(name+".backstory", def.Backstory, vars); err != nil {
		return AgentPrompt{}, err
	}
	return def, nil
}

// Task renders the named task definition
func Task(name string, vars Vars) (TaskPrompt, error) {
	var defs map[string]TaskPrompt
	if err := yaml.Unmarshal(tasksYAML, &defs); err != nil {
		return TaskPrompt{}, fmt.Errorf("failed to parse tasks.yaml: %w", err)
	}
	def, ok := defs[name]
	if !ok {
		return TaskPrompt{}, fmt.Errorf("unknown task %q", name)
	}

	var err error
	if def.Description, err = render(name+".description", def.Description, vars); err != nil {
		return TaskPrompt{}, err
	}
	if def.ExpectedOutput, err = render(name+".expected_output", def.ExpectedOutput, vars); err != nil {
		return TaskPrompt{}, err
	}
	return def, nil
}

func render(name, text string, vars Vars) (string, error) {
	tmpl, err := template.New(name).Funcs(funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}
