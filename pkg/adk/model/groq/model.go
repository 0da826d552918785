package groq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

const (
	DefaultBaseURL   = "https://api.groq.com/openai/v1"
	DefaultModelName = "openai/gpt-oss-120b"

	// Groq free tier: 8k tokens. Reserve ~2k for the response.
	DefaultMaxInputTokens = 6000
)

// ErrMissingAPIKey is returned when the adapter is built without a key
var ErrMissingAPIKey = errors.New("groq api key is required")

// Model implements the adk.model.LLM interface via Groq/OpenAI-compatible APIs
type Model struct {
	client         *openai.Client
	modelName      string
	maxInputTokens int
}

// Config for creating a new Groq Model
type Config struct {
	APIKey         string
	BaseURL        string // Defaults to Groq endpoint
	ModelName      string // Defaults to gpt-oss-120b
	MaxInputTokens int
	HTTPClient     *http.Client
}

// NewModel creates a new Groq model adapter from config
func NewModel(cfg Config) (*Model, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ModelName == "" {
		cfg.ModelName = DefaultModelName
	}
	if cfg.MaxInputTokens <= 0 {
		cfg.MaxInputTokens = DefaultMaxInputTokens
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 120 * time.Second}
	}

	openaiConfig := openai.DefaultConfig(cfg.APIKey)
	openaiConfig.BaseURL = cfg.BaseURL
	openaiConfig.HTTPClient = cfg.HTTPClient

	return &Model{
		client:         openai.NewClientWithConfig(openaiConfig),
		modelName:      cfg.ModelName,
		maxInputTokens: cfg.MaxInputTokens,
	}, nil
}

// Name returns the name of the model
func (m *Model) Name() string {
	return m.modelName
}

// GenerateContent generates content from the model. Streaming is not
// supported; a single complete response is always yielded.
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		chatReq, err := m.toChatRequest(req)
		if err != nil {
			yield(nil, err)
			return
		}

		log.Printf("[GroqAdapter] Sending %d messages (%d tools) with model %s...", len(chatReq.Messages), len(chatReq.Tools), m.modelName)
		resp, err := m.client.CreateChatCompletion(ctx, chatReq)
		if err != nil {
			yield(nil, fmt.Errorf("groq chat completion failed: %w", err))
			return
		}
		if len(resp.Choices) == 0 {
			yield(nil, fmt.Errorf("no choices returned"))
			return
		}

		llmResp, err := fromChoice(resp.Choices[0])
		if err != nil {
			yield(nil, err)
			return
		}
		log.Printf("[GroqAdapter] Success, finish reason: %s", resp.Choices[0].FinishReason)
		yield(llmResp, nil)
	}
}

func (m *Model) toChatRequest(req *model.LLMRequest) (openai.ChatCompletionRequest, error) {
	chatReq := openai.ChatCompletionRequest{
		Model: m.modelName,
	}

	if req.Config != nil {
		if req.Config.SystemInstruction != nil {
			if text := joinText(req.Config.SystemInstruction); text != "" {
				chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleSystem,
					Content: text,
				})
			}
		}
		if req.Config.Temperature != nil {
			chatReq.Temperature = *req.Config.Temperature
		}
		if tools := toTools(req.Config.Tools); len(tools) > 0 {
			chatReq.Tools = tools
			chatReq.ToolChoice = "auto"
			if tc := req.Config.ToolConfig; tc != nil && tc.FunctionCallingConfig != nil &&
				tc.FunctionCallingConfig.Mode == genai.FunctionCallingConfigModeNone {
				chatReq.ToolChoice = "none"
			}
		}
	}

	msgs, err := toMessages(req.Contents)
	if err != nil {
		return chatReq, err
	}
	chatReq.Messages = append(chatReq.Messages, msgs...)
	chatReq.Messages = fitToBudget(chatReq.Messages, m.modelName, m.maxInputTokens)
	return chatReq, nil
}

// toMessages converts ADK contents to chat messages. Function calls become
// assistant tool_calls and function responses become tool messages.
func toMessages(contents []*genai.Content) ([]openai.ChatCompletionMessage, error) {
	var msgs []openai.ChatCompletionMessage

	for _, content := range contents {
		if content == nil {
			continue
		}
		role := openai.ChatMessageRoleUser
		switch content.Role {
		case "model":
			role = openai.ChatMessageRoleAssistant
		case "system":
			role = openai.ChatMessageRoleSystem
		}

		var text strings.Builder
		var toolCalls []openai.ToolCall
		var toolResults []openai.ChatCompletionMessage

		for _, part := range content.Parts {
			switch {
			case part == nil:
			case part.FunctionCall != nil:
				args, err := json.Marshal(part.FunctionCall.Args)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal args for %s: %w", part.FunctionCall.Name, err)
				}
				toolCalls = append(toolCalls, openai.ToolCall{
					ID:   callID(part.FunctionCall.ID, part.FunctionCall.Name),
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      part.FunctionCall.Name,
						Arguments: string(args),
					},
				})
			case part.FunctionResponse != nil:
				result, err := json.Marshal(part.FunctionResponse.Response)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal result of %s: %w", part.FunctionResponse.Name, err)
				}
				toolResults = append(toolResults, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    string(result),
					Name:       part.FunctionResponse.Name,
					ToolCallID: callID(part.FunctionResponse.ID, part.FunctionResponse.Name),
				})
			case part.Text != "":
				text.WriteString(part.Text)
			}
		}

		if text.Len() > 0 || len(toolCalls) > 0 {
			msgs = append(msgs, openai.ChatCompletionMessage{
				Role:      role,
				Content:   text.String(),
				ToolCalls: toolCalls,
			})
		}
		msgs = append(msgs, toolResults...)
	}
	return msgs, nil
}

// callID pairs calls with responses when the caller did not assign IDs
func callID(id, name string) string {
	if id != "" {
		return id
	}
	return "call_" + name
}

func toTools(genaiTools []*genai.Tool) []openai.Tool {
	var tools []openai.Tool
	for _, t := range genaiTools {
		if t == nil {
			continue
		}
		for _, decl := range t.FunctionDeclarations {
			var params any = map[string]any{"type": "object", "properties": map[string]any{}}
			switch {
			case decl.ParametersJsonSchema != nil:
				params = decl.ParametersJsonSchema
			case decl.Parameters != nil:
				params = schemaToMap(decl.Parameters)
			}
			tools = append(tools, openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        decl.Name,
					Description: decl.Description,
					Parameters:  params,
				},
			})
		}
	}
	return tools
}

// schemaToMap renders a genai schema as lowercase JSON Schema
func schemaToMap(s *genai.Schema) map[string]any {
	out := map[string]any{}
	if s.Type != "" {
		out["type"] = strings.ToLower(string(s.Type))
	}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	if s.Items != nil {
		out["items"] = schemaToMap(s.Items)
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = schemaToMap(p)
		}
		out["properties"] = props
	}
	return out
}

func fromChoice(choice openai.ChatCompletionChoice) (*model.LLMResponse, error) {
	var parts []*genai.Part
	if text := strings.TrimSpace(choice.Message.Content); text != "" {
		parts = append(parts, genai.NewPartFromText(text))
	}
	for _, tc := range choice.Message.ToolCalls {
		args := map[string]any{}
		if strings.TrimSpace(tc.Function.Arguments) != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("invalid arguments for tool %s: %w", tc.Function.Name, err)
			}
		}
		parts = append(parts, &genai.Part{FunctionCall: &genai.FunctionCall{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		}})
	}

	finish := genai.FinishReasonStop
	if choice.FinishReason == openai.FinishReasonLength {
		finish = genai.FinishReasonMaxTokens
	}

	return &model.LLMResponse{
		Content: &genai.Content{
			Role:  "model",
			Parts: parts,
		},
		FinishReason: finish,
	}, nil
}

func joinText(c *genai.Content) string {
	var sb strings.Builder
	for _, p := range c.Parts {
		if p != nil && p.Text != "" {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}
