package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

func newTestModel(t *testing.T, handler http.HandlerFunc) *Model {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	m, err := NewModel(Config{APIKey: "test-key", BaseURL: srv.URL, ModelName: "test-model"})
	require.NoError(t, err)
	return m
}

func TestNewModelRequiresKey(t *testing.T) {
	_, err := NewModel(Config{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestGenerateContentText(t *testing.T) {
	var got openai.ChatCompletionRequest
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":" Final answer "},"finish_reason":"stop"}]}`)
	})

	req := &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText("Research Go", genai.RoleUser)},
		Config: &genai.GenerateContentConfig{
			Temperature:       genai.Ptr[float32](0.7),
			SystemInstruction: genai.NewContentFromText("You are a researcher.", genai.RoleUser),
		},
	}

	var resps []*model.LLMResponse
	for resp, err := range m.GenerateContent(context.Background(), req, false) {
		require.NoError(t, err)
		resps = append(resps, resp)
	}

	require.Len(t, resps, 1)
	assert.Equal(t, "Final answer", resps[0].Content.Parts[0].Text)
	assert.Equal(t, genai.FinishReasonStop, resps[0].FinishReason)

	assert.Equal(t, "test-model", got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 0.001)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, got.Messages[0].Role)
	assert.Equal(t, "You are a researcher.", got.Messages[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, got.Messages[1].Role)
	assert.Empty(t, got.Tools)
}

func TestGenerateContentToolCall(t *testing.T) {
	var got openai.ChatCompletionRequest
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"id":"2","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"","tool_calls":[{"id":"call_9","type":"function","function":{"name":"search_internet","arguments":"{\"search_query\":\"golang 1.24\"}"}}]},"finish_reason":"tool_calls"}]}`)
	})

	req := &model.LLMRequest{
		Contents: []*genai.Content{
			genai.NewContentFromText("Research Go", genai.RoleUser),
			{Role: "model", Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{ID: "call_1", Name: "search_internet", Args: map[string]any{"search_query": "go"}}}}},
			{Role: "user", Parts: []*genai.Part{{FunctionResponse: &genai.FunctionResponse{ID: "call_1", Name: "search_internet", Response: map[string]any{"results": "No results found"}}}}},
		},
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{{
				Name:        "search_internet",
				Description: "Search the internet",
				Parameters: &genai.Schema{
					Type:       genai.TypeObject,
					Properties: map[string]*genai.Schema{"search_query": {Type: genai.TypeString}},
					Required:   []string{"search_query"},
				},
			}}}},
		},
	}

	var resp *model.LLMResponse
	for r, err := range m.GenerateContent(context.Background(), req, false) {
		require.NoError(t, err)
		resp = r
	}

	require.NotNil(t, resp)
	require.Len(t, resp.Content.Parts, 1)
	call := resp.Content.Parts[0].FunctionCall
	require.NotNil(t, call)
	assert.Equal(t, "call_9", call.ID)
	assert.Equal(t, "search_internet", call.Name)
	assert.Equal(t, "golang 1.24", call.Args["search_query"])

	require.Len(t, got.Tools, 1)
	assert.Equal(t, "search_internet", got.Tools[0].Function.Name)
	params, err := json.Marshal(got.Tools[0].Function.Parameters)
	require.NoError(t, err)
	assert.Contains(t, string(params), `"type":"object"`)
	assert.Contains(t, string(params), `"search_query":{"type":"string"}`)

	require.Len(t, got.Messages, 3)
	assert.Equal(t, openai.ChatMessageRoleAssistant, got.Messages[1].Role)
	require.Len(t, got.Messages[1].ToolCalls, 1)
	assert.Equal(t, "call_1", got.Messages[1].ToolCalls[0].ID)
	assert.JSONEq(t, `{"search_query":"go"}`, got.Messages[1].ToolCalls[0].Function.Arguments)
	assert.Equal(t, openai.ChatMessageRoleTool, got.Messages[2].Role)
	assert.Equal(t, "call_1", got.Messages[2].ToolCallID)
	assert.JSONEq(t, `{"results":"No results found"}`, got.Messages[2].Content)
}

func TestGenerateContentAPIError(t *testing.T) {
	m := newTestModel(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"Rate limit reached","type":"tokens"}}`)
	})

	req := &model.LLMRequest{Contents: []*genai.Content{genai.NewContentFromText("hi", genai.RoleUser)}}
	for _, err := range m.GenerateContent(context.Background(), req, false) {
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	}
}

func TestFitToBudget(t *testing.T) {
	// Seed a nil encoder so the char estimate is used without fetching BPE ranks
	tokenizerCacheMu.Lock()
	tokenizerCache["offline-model"] = nil
	tokenizerCacheMu.Unlock()

	long := strings.Repeat("word ", 4000)
	msgs := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "short system prompt"},
		{Role: openai.ChatMessageRoleUser, Content: long},
	}

	out := fitToBudget(msgs, "offline-model", 500)
	assert.Equal(t, "short system prompt", out[0].Content)
	assert.Less(t, len(out[1].Content), len(long))
	assert.True(t, strings.HasSuffix(out[1].Content, truncatedSuffix))

	small := []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hello"}}
	assert.Equal(t, "hello", fitToBudget(small, "offline-model", 500)[0].Content)
}

func TestTruncateTokensWithoutEncoder(t *testing.T) {
	assert.Equal(t, "abcd", truncateTokens(nil, "abcd", 1))
	assert.Equal(t, "abcd"+truncatedSuffix, truncateTokens(nil, "abcdefgh", 1))
}

func TestToolChoiceNone(t *testing.T) {
	m, err := NewModel(Config{APIKey: "k"})
	require.NoError(t, err)

	req := &model.LLMRequest{
		Contents: []*genai.Content{genai.NewContentFromText("hi", genai.RoleUser)},
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{{FunctionDeclarations: []*genai.FunctionDeclaration{{Name: "send_email"}}}},
			ToolConfig: &genai.ToolConfig{FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeNone,
			}},
		},
	}
	chatReq, err := m.toChatRequest(req)
	require.NoError(t, err)
	assert.Equal(t, "none", chatReq.ToolChoice)
	require.Len(t, chatReq.Tools, 1)
}
