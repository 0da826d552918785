package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/amityadav/researchcrew/internal/ai/models"
	"github.com/go-playground/validator/v10"
)

// Config holds all application configuration
type Config struct {
	HTTPAddr string `validate:"required"`

	GeminiAPIKey   string
	GeminiModel    string `validate:"required"`
	GroqAPIKey     string
	GroqModel      string  `validate:"required"`
	LLMTemperature float32 `validate:"min=0,max=2"`

	SerperAPIKey string
	SerpAPIKey   string
	TavilyAPIKey string

	EmailUser string `validate:"omitempty,email"`
	EmailPass string
	SMTPHost  string `validate:"required,hostname"`
	SMTPPort  int    `validate:"min=1,max=65535"`

	DatabaseURL string
	APIKey      string

	DailyRunLimit     int `validate:"min=0"`
	RunTimeoutMinutes int `validate:"min=1,max=240"`

	Report ReportConfig
}

// ReportConfig describes the optional cron-scheduled report
type ReportConfig struct {
	Schedule   string
	Topic      string `validate:"required_with=Schedule"`
	Recipient  string `validate:"required_with=Schedule,omitempty,email"`
	Format     string
	NumResults int `validate:"omitempty,min=3,max=10"`
}

// Enabled reports whether a scheduled report is configured
func (r ReportConfig) Enabled() bool {
	return r.Schedule != ""
}

// Load loads configuration from environment variables
func Load() Config {
	return Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY")),
		GeminiModel:       getEnv("GEMINI_MODEL", models.TaskCrewModel),
		GroqAPIKey:        os.Getenv("GROQ_API_KEY"),
		GroqModel:         getEnv("GROQ_MODEL", models.TaskCrewFallbackModel),
		LLMTemperature:    getEnvFloat("LLM_TEMPERATURE", models.DefaultTemperature),
		SerperAPIKey:      os.Getenv("SERPER_API_KEY"),
		SerpAPIKey:        os.Getenv("SERPAPI_API_KEY"),
		TavilyAPIKey:      os.Getenv("TAVILY_API_KEY"),
		EmailUser:         os.Getenv("EMAIL_USER"),
		EmailPass:         os.Getenv("EMAIL_PASS"),
		SMTPHost:          getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:          getEnvInt("SMTP_PORT", 587),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		APIKey:            os.Getenv("API_KEY"),
		DailyRunLimit:     getEnvInt("DAILY_RUN_LIMIT", 0),
		RunTimeoutMinutes: getEnvInt("RUN_TIMEOUT_MINUTES", 15),
		Report: ReportConfig{
			Schedule:   strings.TrimSpace(os.Getenv("REPORT_SCHEDULE")),
			Topic:      os.Getenv("REPORT_TOPIC"),
			Recipient:  os.Getenv("REPORT_RECIPIENT"),
			Format:     os.Getenv("REPORT_FORMAT"),
			NumResults: getEnvInt("REPORT_RESULTS", 0),
		},
	}
}

// Validate checks value ranges and formats
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// RunTimeout is the deadline applied to a single research run
func (c Config) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutMinutes) * time.Minute
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(f)
		}
	}
	return defaultValue
}
