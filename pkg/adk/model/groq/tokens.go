package groq

import (
	"log"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"
)

// charsPerToken is the rough ratio used when no encoder is available
const (
	tokensPerMessage = 3
	charsPerToken    = 4
	truncatedSuffix  = "\n...[truncated due to token limit]"
)

var (
	tokenizerCache   = make(map[string]*tiktoken.Tiktoken)
	tokenizerCacheMu sync.Mutex
)

// getTokenizer returns a cached encoder, or nil when none can be loaded
// (tiktoken fetches its BPE ranks on first use).
func getTokenizer(modelName string) *tiktoken.Tiktoken {
	tokenizerCacheMu.Lock()
	defer tokenizerCacheMu.Unlock()

	if tkm, ok := tokenizerCache[modelName]; ok {
		return tkm
	}

	tkm, err := tiktoken.EncodingForModel(modelName)
	if err != nil {
		// Groq model names are unknown to tiktoken; cl100k_base is close enough
		tkm, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			log.Printf("[GroqAdapter] Tokenizer unavailable, estimating by chars: %v", err)
			tkm = nil
		}
	}
	tokenizerCache[modelName] = tkm
	return tkm
}

func countTokens(tkm *tiktoken.Tiktoken, text string) int {
	if tkm == nil {
		return (len(text) + charsPerToken - 1) / charsPerToken
	}
	return len(tkm.Encode(text, nil, nil))
}

// truncateTokens cuts text to at most limit tokens
func truncateTokens(tkm *tiktoken.Tiktoken, text string, limit int) string {
	if limit <= 0 {
		return truncatedSuffix
	}
	if tkm == nil {
		maxChars := limit * charsPerToken
		if len(text) <= maxChars {
			return text
		}
		for maxChars > 0 && !utf8.RuneStart(text[maxChars]) {
			maxChars--
		}
		return text[:maxChars] + truncatedSuffix
	}
	tokens := tkm.Encode(text, nil, nil)
	if len(tokens) <= limit {
		return text
	}
	return tkm.Decode(tokens[:limit]) + truncatedSuffix
}

// estimateTokens counts tokens for a list of chat messages
func estimateTokens(tkm *tiktoken.Tiktoken, messages []openai.ChatCompletionMessage) int {
	total := 0
	for _, msg := range messages {
		total += tokensPerMessage + countTokens(tkm, msg.Content)
		for _, tc := range msg.ToolCalls {
			total += countTokens(tkm, tc.Function.Arguments)
		}
	}
	return total
}

// fitToBudget shortens message contents until the request fits maxTokens.
// The budget is split evenly and only messages above their share are cut.
func fitToBudget(messages []openai.ChatCompletionMessage, modelName string, maxTokens int) []openai.ChatCompletionMessage {
	if len(messages) == 0 || maxTokens <= 0 {
		return messages
	}

	// A token is at least one byte, so small requests skip the tokenizer
	upperBound := 0
	for _, msg := range messages {
		upperBound += tokensPerMessage + len(msg.Content)
		for _, tc := range msg.ToolCalls {
			upperBound += len(tc.Function.Arguments)
		}
	}
	if upperBound <= maxTokens {
		return messages
	}

	tkm := getTokenizer(modelName)
	total := estimateTokens(tkm, messages)
	if total <= maxTokens {
		return messages
	}

	log.Printf("[GroqAdapter] WARNING: Input ~%d tokens exceeds %d limit. Truncating messages...", total, maxTokens)
	perMsg := maxTokens/len(messages) - tokensPerMessage
	for i := range messages {
		if countTokens(tkm, messages[i].Content) > perMsg {
			messages[i].Content = truncateTokens(tkm, messages[i].Content, perMsg)
		}
	}
	return messages
}
