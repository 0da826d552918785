package model

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/amityadav/researchcrew/pkg/adk/model/groq"
	adkmodel "google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/genai"
)

// Supported providers
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// ErrNoModelConfigured is returned when no provider has an API key
var ErrNoModelConfigured = errors.New("no LLM API key configured (set GEMINI_API_KEY or GROQ_API_KEY)")

// NewModel creates an ADK model adapter based on provider name.
//
// Example:
//
//	model, err := NewModel(ctx, "gemini", apiKey, "gemini-2.0-flash")
//	if err != nil {
//	    return err
//	}
func NewModel(ctx context.Context, providerName, apiKey, modelID string) (adkmodel.LLM, error) {
	switch providerName {
	case ProviderGemini:
		if apiKey == "" {
			return nil, fmt.Errorf("gemini api key is required")
		}
		model, err := gemini.NewModel(ctx, modelID, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini model: %w", err)
		}
		return model, nil
	case ProviderGroq:
		model, err := groq.NewModel(groq.Config{
			APIKey:    apiKey,
			ModelName: modelID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create groq model: %w", err)
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unsupported ADK model provider: %s (supported: gemini, groq)", providerName)
	}
}

// Options selects the models used by the crew
type Options struct {
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqModel    string
}

// NewCrewModel builds the crew's LLM: Gemini with Groq as rate-limit fallback
// when both keys are set, otherwise whichever single provider is configured.
func NewCrewModel(ctx context.Context, opts Options) (adkmodel.LLM, error) {
	var primary, fallback adkmodel.LLM

	if opts.GeminiAPIKey != "" {
		m, err := NewModel(ctx, ProviderGemini, opts.GeminiAPIKey, opts.GeminiModel)
		if err != nil {
			return nil, err
		}
		primary = m
	}
	if opts.GroqAPIKey != "" {
		m, err := NewModel(ctx, ProviderGroq, opts.GroqAPIKey, opts.GroqModel)
		if err != nil {
			return nil, err
		}
		if primary == nil {
			primary = m
		} else {
			fallback = m
		}
	}

	switch {
	case primary == nil:
		return nil, ErrNoModelConfigured
	case fallback == nil:
		log.Printf("[Model] Using %s (no fallback)", primary.Name())
		return primary, nil
	default:
		log.Printf("[Model] Using %s with fallback %s", primary.Name(), fallback.Name())
		return NewFallbackModel(primary, fallback), nil
	}
}
