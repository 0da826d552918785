package core

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/amityadav/researchcrew/internal/adk/tools"
	"github.com/amityadav/researchcrew/internal/crew"
	"github.com/amityadav/researchcrew/prompts"
	"google.golang.org/adk/model"
	"google.golang.org/adk/tool"
)

// ErrNoModel is returned when a run is started without a configured LLM
var ErrNoModel = errors.New("no LLM configured; set GEMINI_API_KEY or GROQ_API_KEY")

// Progress is a milestone reached while a research run executes
type Progress struct {
	Percent int    `json:"percent"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// ProgressFunc receives progress updates; it is called synchronously
type ProgressFunc func(Progress)

// Result holds the outputs of a finished run
type Result struct {
	Research     string `json:"research"`
	Summary      string `json:"summary"`
	EmailStatus  string `json:"email_status"`
	ResearchFile string `json:"research_file"`
	SummaryFile  string `json:"summary_file"`
}

// ResearchCore assembles and runs the research crew
type ResearchCore struct {
	model       model.LLM
	searcher    tools.Searcher
	reader      tools.PageReader
	mailer      tools.Mailer
	temperature float32
}

// NewResearchCore creates a new ResearchCore instance
func NewResearchCore(llm model.LLM, searcher tools.Searcher, reader tools.PageReader, mailer tools.Mailer, temperature float32) *ResearchCore {
	return &ResearchCore{
		model:       llm,
		searcher:    searcher,
		reader:      reader,
		mailer:      mailer,
		temperature: temperature,
	}
}

// Run validates the request, runs researcher, summarizer and emailer in
// sequence and returns their outputs.
func (c *ResearchCore) Run(ctx context.Context, req Request, onProgress ProgressFunc) (*Result, error) {
	if onProgress == nil {
		onProgress = func(Progress) {}
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	log.Printf("[Core.Research] Starting - Topic: %q, Recipient: %s, Results: %d, Format: %s", req.Topic, req.Recipient, req.NumResults, req.Format)

	// 1. LLM
	onProgress(Progress{Percent: 10, Stage: "llm", Message: "Setting up language model"})
	if c.model == nil {
		return nil, ErrNoModel
	}

	rc, err := c.buildCrew(req, onProgress)
	if err != nil {
		return nil, err
	}

	// 5. Kickoff
	onProgress(Progress{Percent: 70, Stage: "kickoff", Message: "Research crew at work"})
	out, err := rc.Kickoff(ctx, func(e crew.Event) {
		onProgress(taskProgress(e))
	})
	if err != nil {
		log.Printf("[Core.Research] Crew failed: %v", err)
		return nil, err
	}

	result := &Result{
		ResearchFile: ResearchFilename(req.Topic),
		SummaryFile:  SummaryFilename(req.Topic),
	}
	outputs := []*string{&result.Research, &result.Summary, &result.EmailStatus}
	for i, t := range out.TasksOutput {
		if i < len(outputs) {
			*outputs[i] = t.Raw
		}
	}

	onProgress(Progress{Percent: 100, Stage: "done", Message: "Research completed successfully!"})
	log.Printf("[Core.Research] Completed - Topic: %q", req.Topic)
	return result, nil
}

func (c *ResearchCore) buildCrew(req Request, onProgress ProgressFunc) (*crew.Crew, error) {
	vars := prompts.Vars{
		Topic:      req.Topic,
		Recipient:  req.Recipient,
		Format:     req.Format,
		Subject:    req.Subject(),
		NumResults: req.NumResults,
	}

	// 2. Tools
	onProgress(Progress{Percent: 20, Stage: "tools", Message: "Initializing tools"})
	searchTool, err := tools.NewSearchTool(c.searcher)
	if err != nil {
		return nil, err
	}
	webpageTool, err := tools.NewWebpageTool(c.reader)
	if err != nil {
		return nil, err
	}
	emailTool, err := tools.NewEmailTool(c.mailer)
	if err != nil {
		return nil, err
	}

	// 3. Agents
	onProgress(Progress{Percent: 30, Stage: "agents", Message: "Assembling research team"})
	researcher, err := c.newAgent(prompts.AgentResearcher, vars, searchTool, webpageTool)
	if err != nil {
		return nil, err
	}
	summarizer, err := c.newAgent(prompts.AgentSummarizer, vars)
	if err != nil {
		return nil, err
	}
	emailer, err := c.newAgent(prompts.AgentEmailer, vars, emailTool)
	if err != nil {
		return nil, err
	}

	// 4. Tasks
	onProgress(Progress{Percent: 50, Stage: "tasks", Message: "Defining tasks"})
	research, err := newTask(prompts.TaskResearch, vars, researcher)
	if err != nil {
		return nil, err
	}
	summarize, err := newTask(prompts.TaskSummarize, vars, summarizer, research)
	if err != nil {
		return nil, err
	}
	email, err := newTask(prompts.TaskEmail, vars, emailer, summarize)
	if err != nil {
		return nil, err
	}

	return &crew.Crew{
		Agents: []*crew.Agent{researcher, summarizer, emailer},
		Tasks:  []*crew.Task{research, summarize, email},
	}, nil
}

func (c *ResearchCore) newAgent(name string, vars prompts.Vars, agentTools ...tool.Tool) (*crew.Agent, error) {
	p, err := prompts.Agent(name, vars)
	if err != nil {
		return nil, err
	}
	temperature := c.temperature
	return &crew.Agent{
		Name:        name,
		Role:        p.Role,
		Goal:        p.Goal,
		Backstory:   p.Backstory,
		Tools:       agentTools,
		MaxIter:     p.MaxIter,
		Model:       c.model,
		Temperature: &temperature,
	}, nil
}

func newTask(name string, vars prompts.Vars, a *crew.Agent, deps ...*crew.Task) (*crew.Task, error) {
	p, err := prompts.Task(name, vars)
	if err != nil {
		return nil, err
	}
	return &crew.Task{
		Name:           name,
		Description:    p.Description,
		ExpectedOutput: p.ExpectedOutput,
		Agent:          a,
		Context:        deps,
	}, nil
}

// taskProgress maps crew events onto the 70-100 range
func taskProgress(e crew.Event) Progress {
	if e.Kind == crew.TaskStarted {
		return Progress{
			Percent: 70 + 25*e.Index/e.Total,
			Stage:   e.Task,
			Message: fmt.Sprintf("Task %d/%d: %s", e.Index+1, e.Total, e.Task),
		}
	}
	return Progress{
		Percent: 70 + 25*(e.Index+1)/e.Total,
		Stage:   e.Task,
		Message: fmt.Sprintf("Task %d/%d completed: %s", e.Index+1, e.Total, e.Task),
	}
}
