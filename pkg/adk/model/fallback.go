package model

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
	adkmodel "google.golang.org/adk/model"
	"google.golang.org/genai"
)

// FallbackModel wraps two models and falls back to the second on rate limits
type FallbackModel struct {
	primary  adkmodel.LLM
	fallback adkmodel.LLM
}

// NewFallbackModel creates a model that tries primary first, then fallback on 429
func NewFallbackModel(primary, fallback adkmodel.LLM) *FallbackModel {
	return &FallbackModel{
		primary:  primary,
		fallback: fallback,
	}
}

// Name returns the model name
func (m *FallbackModel) Name() string {
	return fmt.Sprintf("fallback-%s", m.primary.Name())
}

// GenerateContent tries primary model first, falls back to secondary on rate limit.
// Responses already yielded by the primary are never replayed.
func (m *FallbackModel) GenerateContent(ctx context.Context, req *adkmodel.LLMRequest, stream bool) iter.Seq2[*adkmodel.LLMResponse, error] {
	return func(yield func(*adkmodel.LLMResponse, error) bool) {
		log.Printf("[FallbackModel] Trying primary model (%s)...", m.primary.Name())

		primaryFailed := false
		var primaryError error
		yielded := false

		for resp, err := range m.primary.GenerateContent(ctx, req, stream) {
			if err != nil {
				if !yielded && isRateLimitError(err) {
					log.Printf("[FallbackModel] Primary model rate limited: %v", err)
					primaryFailed = true
					primaryError = err
					break
				}
				yield(nil, err)
				return
			}
			yielded = true
			if !yield(resp, nil) {
				return
			}
		}

		if !primaryFailed {
			return
		}

		log.Printf("[FallbackModel] Switching to fallback model (%s)...", m.fallback.Name())

		for resp, err := range m.fallback.GenerateContent(ctx, req, stream) {
			if err != nil {
				yield(nil, fmt.Errorf("primary failed (%v), fallback failed (%w)", primaryError, err))
				return
			}
			if !yield(resp, nil) {
				return
			}
		}
	}
}

// isRateLimitError checks if an error is a rate limit error from either provider
func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) && genaiErr.Code == http.StatusTooManyRequests {
		return true
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "rate_limit") ||
		strings.Contains(errStr, "resource_exhausted")
}
