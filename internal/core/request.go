package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Report formats offered to the user
const (
	FormatSummaryReport    = "Summary Report"
	FormatDetailedAnalysis = "Detailed Analysis"
	FormatExecutiveBrief   = "Executive Brief"
)

// Formats lists the report formats in display order
var Formats = []string{FormatSummaryReport, FormatDetailedAnalysis, FormatExecutiveBrief}

const (
	MinResults     = 3
	MaxResults     = 10
	DefaultResults = 5
)

// MissingFieldsMessage is shown when topic or recipient is empty
const MissingFieldsMessage = "Please fill in all required fields!"

// ErrInvalidRequest wraps every request validation failure
var ErrInvalidRequest = errors.New("invalid research request")

// Request is a single research job submitted by a user
type Request struct {
	Topic      string `json:"topic" validate:"required"`
	Recipient  string `json:"recipient" validate:"required,email"`
	NumResults int    `json:"num_results" validate:"min=3,max=10"`
	Format     string `json:"format" validate:"report_format"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("report_format", func(fl validator.FieldLevel) bool {
		return isFormat(fl.Field().String())
	})
	return v
}

func isFormat(s string) bool {
	for _, f := range Formats {
		if f == s {
			return true
		}
	}
	return false
}

// Normalize trims input and fills defaults for optional fields
func (r *Request) Normalize() {
	r.Topic = strings.TrimSpace(r.Topic)
	r.Recipient = strings.TrimSpace(r.Recipient)
	r.Format = strings.TrimSpace(r.Format)
	if r.NumResults == 0 {
		r.NumResults = DefaultResults
	}
	if r.Format == "" {
		r.Format = FormatSummaryReport
	}
}

// Validate normalizes the request and checks it
func (r *Request) Validate() error {
	r.Normalize()

	if r.Topic == "" || r.Recipient == "" {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, MissingFieldsMessage)
	}

	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrInvalidRequest, describe(verrs[0]))
		}
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.Field() {
	case "Recipient":
		return "recipient must be a valid email address"
	case "NumResults":
		return fmt.Sprintf("number of search results must be between %d and %d", MinResults, MaxResults)
	case "Format":
		return fmt.Sprintf("report format must be one of: %s", strings.Join(Formats, ", "))
	default:
		return fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field()))
	}
}

// Subject is the email subject line for the request
func (r Request) Subject() string {
	return fmt.Sprintf("Research Report: %s - %s", r.Topic, r.Format)
}

// ResearchFilename is the download name of the research report
func ResearchFilename(topic string) string {
	return fmt.Sprintf("research_report_%s.md", strings.ReplaceAll(topic, " ", "_"))
}

// SummaryFilename is the download name of the summary
func SummaryFilename(topic string) string {
	return fmt.Sprintf("summary_%s.md", strings.ReplaceAll(topic, " ", "_"))
}
