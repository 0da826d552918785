package crew

import (
	"context"
	"iter"
	"log"
	"sync"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const finalAnswerNudge = "You have used all of your available tool calls. Do not call any more tools; give your best final answer now using the information you already have."

// iterLimitedModel counts model calls and turns function calling off once
// the agent's iteration budget is spent.
type iterLimitedModel struct {
	model.LLM
	maxIter int

	mu    sync.Mutex
	calls int
}

func newIterLimitedModel(llm model.LLM, maxIter int) *iterLimitedModel {
	return &iterLimitedModel{LLM: llm, maxIter: maxIter}
}

func (m *iterLimitedModel) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	m.mu.Lock()
	m.calls++
	exhausted := m.maxIter > 0 && m.calls > m.maxIter
	m.mu.Unlock()

	if exhausted {
		log.Printf("[Crew] Iteration limit %d reached, forcing final answer", m.maxIter)
		req = withoutFunctionCalling(req)
	}
	return m.LLM.GenerateContent(ctx, req, stream)
}

// withoutFunctionCalling copies req with calling mode NONE. Declarations stay
// so the history's earlier calls still resolve.
func withoutFunctionCalling(req *model.LLMRequest) *model.LLMRequest {
	out := *req
	cfg := genai.GenerateContentConfig{}
	if req.Config != nil {
		cfg = *req.Config
	}
	cfg.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode: genai.FunctionCallingConfigModeNone,
		},
	}

	sys := &genai.Content{Role: genai.RoleUser}
	if cfg.SystemInstruction != nil {
		sys.Role = cfg.SystemInstruction.Role
		sys.Parts = append(sys.Parts, cfg.SystemInstruction.Parts...)
	}
	sys.Parts = append(sys.Parts, genai.NewPartFromText(finalAnswerNudge))
	cfg.SystemInstruction = sys

	out.Config = &cfg
	return &out
}
