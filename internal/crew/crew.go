package crew

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const (
	appName = "ResearchCrew"
	userID  = "crew"
)

// ErrEmptyOutput is returned when an agent finishes a task without any text
var ErrEmptyOutput = errors.New("agent returned no output")

// EventKind identifies a progress notification
type EventKind string

const (
	TaskStarted   EventKind = "task_started"
	TaskCompleted EventKind = "task_completed"
)

// Event reports task progress during a kickoff
type Event struct {
	Kind   EventKind
	Task   string
	Agent  string
	Index  int
	Total  int
	Output string
}

// ProgressFunc receives kickoff events; it is called synchronously
type ProgressFunc func(Event)

// Crew runs its tasks sequentially, each by its assigned agent
type Crew struct {
	Agents []*Agent
	Tasks  []*Task
	// Memory hands every earlier task output to each task, not only the
	// ones listed in its Context.
	Memory bool
}

// CrewOutput holds every task output; Raw is the last one
type CrewOutput struct {
	TasksOutput []TaskOutput
	Raw         string
}

func (c *Crew) validate() error {
	if len(c.Tasks) == 0 {
		return fmt.Errorf("crew has no tasks")
	}
	members := make(map[*Agent]bool, len(c.Agents))
	for _, a := range c.Agents {
		members[a] = true
	}
	seen := make(map[*Task]bool, len(c.Tasks))
	for _, t := range c.Tasks {
		if t.Agent == nil {
			return fmt.Errorf("task %s has no agent", t.Name)
		}
		if len(members) > 0 && !members[t.Agent] {
			return fmt.Errorf("task %s is assigned to agent %s which is not in the crew", t.Name, t.Agent.Name)
		}
		if err := t.Agent.validate(); err != nil {
			return err
		}
		for _, dep := range t.Context {
			if !seen[dep] {
				return fmt.Errorf("task %s depends on a task that does not run before it", t.Name)
			}
		}
		seen[t] = true
	}
	return nil
}

// Kickoff executes all tasks in order and returns their outputs
func (c *Crew) Kickoff(ctx context.Context, onProgress ProgressFunc) (*CrewOutput, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if onProgress == nil {
		onProgress = func(Event) {}
	}

	out := &CrewOutput{}
	outputs := make(map[*Task]string, len(c.Tasks))
	total := len(c.Tasks)

	for i, task := range c.Tasks {
		log.Printf("[Crew] Task %d/%d: %s (agent %s)", i+1, total, task.Name, task.Agent.Name)
		onProgress(Event{Kind: TaskStarted, Task: task.Name, Agent: task.Agent.Name, Index: i, Total: total})

		raw, err := runTask(ctx, task, task.prompt(c.contextFor(task, i, outputs)))
		if err != nil {
			return nil, fmt.Errorf("task %s failed: %w", task.Name, err)
		}
		outputs[task] = raw

		out.TasksOutput = append(out.TasksOutput, TaskOutput{
			Name:        task.Name,
			Description: task.Description,
			Agent:       task.Agent.Role,
			Raw:         raw,
		})
		out.Raw = raw
		log.Printf("[Crew] Task %s completed, output length: %d", task.Name, len(raw))
		onProgress(Event{Kind: TaskCompleted, Task: task.Name, Agent: task.Agent.Name, Index: i, Total: total, Output: raw})
	}

	return out, nil
}

func (c *Crew) contextFor(task *Task, index int, outputs map[*Task]string) []string {
	var deps []*Task
	if c.Memory {
		deps = c.Tasks[:index]
	} else {
		deps = task.Context
	}

	prior := make([]string, 0, len(deps))
	for _, dep := range deps {
		if raw := outputs[dep]; raw != "" {
			prior = append(prior, raw)
		}
	}
	return prior
}

// runTask runs one task on a fresh runner and session and returns the
// agent's final text
func runTask(ctx context.Context, task *Task, prompt string) (string, error) {
	a, err := task.Agent.build()
	if err != nil {
		return "", err
	}

	sessionSvc := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          a,
		SessionService: sessionSvc,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create runner: %w", err)
	}

	sessionID := fmt.Sprintf("%s-%s", task.Name, uuid.NewString())
	if _, err := sessionSvc.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    userID,
		SessionID: sessionID,
	}); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	input := &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{genai.NewPartFromText(prompt)},
	}

	next, stop := iter.Pull2(r.Run(ctx, userID, sessionID, input, agent.RunConfig{}))
	defer stop()

	final, err := finalText(next, task.Agent.Name)
	if err != nil {
		return "", err
	}
	if final == "" {
		return "", ErrEmptyOutput
	}
	return final, nil
}

// finalText returns the last text the agent produced. Tool call and tool
// response events carry no text and are skipped.
func finalText(next func() (*session.Event, error, bool), author string) (string, error) {
	var final string
	for {
		event, err, ok := next()
		if !ok {
			break
		}
		if err != nil {
			log.Printf("[Crew] Error during run: %v", err)
			return "", err
		}
		if event == nil || event.Content == nil || event.Partial {
			continue
		}
		if event.Author != "" && event.Author != author {
			continue
		}

		var sb strings.Builder
		for _, p := range event.Content.Parts {
			if p != nil && p.Text != "" && !p.Thought {
				sb.WriteString(p.Text)
			}
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			final = text
		}
	}
	return final, nil
}
