package tools

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/amityadav/researchcrew/internal/mail"
	"github.com/amityadav/researchcrew/prompts"
	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

// EmailToolName is the name the email agent calls the email tool by
const EmailToolName = "send_email"

// Mailer sends a markdown report; *mail.Sender satisfies it
type Mailer interface {
	SendMarkdown(ctx context.Context, to, subject, body string) error
}

// EmailArgs is the model-facing input of the email tool
type EmailArgs struct {
	ToEmail string `json:"to_email" jsonschema:"Recipient email address"`
	Subject string `json:"subject" jsonschema:"Email subject"`
	Body    string `json:"body" jsonschema:"Email body content in Markdown format"`
}

// EmailResult is the model-facing output of the email tool
type EmailResult struct {
	Status string `json:"status"`
}

// NewEmailTool creates the email sending tool
func NewEmailTool(m Mailer) (tool.Tool, error) {
	handler := func(ctx tool.Context, args EmailArgs) (EmailResult, error) {
		return EmailResult{Status: sendEmail(ctx, m, args)}, nil
	}

	t, err := functiontool.New(functiontool.Config{
		Name:        EmailToolName,
		Description: prompts.ToolSendEmailDesc,
	}, handler)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s tool: %w", EmailToolName, err)
	}
	return t, nil
}

// sendEmail reports the outcome as a human-readable status line
func sendEmail(ctx context.Context, m Mailer, args EmailArgs) string {
	log.Printf("[EmailTool] Sending %q to %s", args.Subject, args.ToEmail)

	err := m.SendMarkdown(ctx, args.ToEmail, args.Subject, args.Body)
	switch {
	case errors.Is(err, mail.ErrMissingCredentials):
		log.Printf("[EmailTool] Credentials missing")
		return "❌ Email credentials not found in environment variables"
	case err != nil:
		log.Printf("[EmailTool] Failed: %v", err)
		return fmt.Sprintf("❌ Failed to send email: %v", err)
	}
	return fmt.Sprintf("✅ Email sent successfully to %s", args.ToEmail)
}
