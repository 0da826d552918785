package crew

import (
	"fmt"
	"strings"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/tool"
	"google.golang.org/genai"
)

// Agent is a role-playing LLM worker. Tasks assigned to it run with its
// persona as the system instruction and its tools available.
type Agent struct {
	Name      string
	Role      string
	Goal      string
	Backstory string
	Tools     []tool.Tool
	// MaxIter caps model calls per task; once reached, tools are disabled
	// so the next call must produce a final answer. Zero means no cap.
	MaxIter     int
	Model       model.LLM
	Temperature *float32
}

// Instruction renders the agent persona
func (a *Agent) Instruction() string {
	return fmt.Sprintf("You are %s. %s\nYour personal goal is: %s", a.Role, a.Backstory, a.Goal)
}

func (a *Agent) validate() error {
	if a.Name == "" {
		return fmt.Errorf("agent name is required")
	}
	if a.Model == nil {
		return fmt.Errorf("agent %s has no model", a.Name)
	}
	return nil
}

// build creates the ADK agent for a single task execution
func (a *Agent) build() (agent.Agent, error) {
	cfg := llmagent.Config{
		Name:        a.Name,
		Description: a.Role,
		Model:       newIterLimitedModel(a.Model, a.MaxIter),
		Instruction: escapePlaceholders(a.Instruction()),
		Tools:       a.Tools,
	}
	if a.Temperature != nil {
		cfg.GenerateContentConfig = &genai.GenerateContentConfig{
			Temperature: genai.Ptr(*a.Temperature),
		}
	}

	built, err := llmagent.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent %s: %w", a.Name, err)
	}
	return built, nil
}

// ADK treats {name} in instructions as a session state placeholder
var placeholderReplacer = strings.NewReplacer("{", "(", "}", ")")

func escapePlaceholders(s string) string {
	return placeholderReplacer.Replace(s)
}
