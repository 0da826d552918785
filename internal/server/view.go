package server

import (
	"log"

	"github.com/amityadav/researchcrew/internal/mail"
	"github.com/amityadav/researchcrew/internal/store"
)

// RunView is a run as the UI receives it: the stored fields plus the task
// outputs rendered from markdown to HTML. Raw HTML inside the markdown is
// dropped by the renderer.
type RunView struct {
	*store.Run
	ResearchHTML    string `json:"research_html,omitempty"`
	SummaryHTML     string `json:"summary_html,omitempty"`
	EmailStatusHTML string `json:"email_status_html,omitempty"`
}

func newRunView(run *store.Run) *RunView {
	return &RunView{
		Run:             run,
		ResearchHTML:    renderMarkdown(run.ID, run.Research),
		SummaryHTML:     renderMarkdown(run.ID, run.Summary),
		EmailStatusHTML: renderMarkdown(run.ID, run.EmailStatus),
	}
}

func renderMarkdown(runID, src string) string {
	if src == "" {
		return ""
	}
	html, err := mail.MarkdownToHTML(src)
	if err != nil {
		log.Printf("[REST] Failed to render output of run %s: %v", runID, err)
		return ""
	}
	return html
}
