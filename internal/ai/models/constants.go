package models

const (
	// === Gemini Models ===
	ModelGemini2Flash     = "gemini-2.0-flash"
	ModelGemini2_5Flash   = "gemini-2.5-flash"
	ModelGemini2_5Pro     = "gemini-2.5-pro"
	ModelGemini2FlashLite = "gemini-2.0-flash-lite"

	// === Groq Models ===
	ModelGroqLlama3_1_8b  = "llama-3.1-8b-instant"
	ModelGroqLlama3_3_70b = "llama-3.3-70b-versatile"
	ModelGroqGptOss120b   = "openai/gpt-oss-120b"
	ModelGroqGptOss20b    = "openai/gpt-oss-20b"
	ModelGroqQwen_32b     = "qwen/qwen3-32b"
)

const (
	// === Task-Specific Default Models ===

	// TaskCrewModel: tool use across the research, summary and email agents.
	TaskCrewModel = ModelGemini2Flash

	// TaskCrewFallbackModel: used when Gemini is rate limited or not configured.
	//TaskCrewFallbackModel = ModelGroqLlama3_3_70b
	TaskCrewFallbackModel = ModelGroqGptOss120b

	// DefaultTemperature matches the sampling the crew prompts were tuned with.
	DefaultTemperature = 0.7
)
