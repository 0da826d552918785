package core

import (
	"testing"

	"github.com/amityadav/researchcrew/internal/crew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func crewEvent(started bool, index, total int) crew.Event {
	kind := crew.TaskCompleted
	if started {
		kind = crew.TaskStarted
	}
	return crew.Event{Kind: kind, Index: index, Total: total}
}

func TestRequestDefaults(t *testing.T) {
	req := Request{Topic: " AI agents ", Recipient: "ada@example.com"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "AI agents", req.Topic)
	assert.Equal(t, DefaultResults, req.NumResults)
	assert.Equal(t, FormatSummaryReport, req.Format)
	assert.Equal(t, "Research Report: AI agents - Summary Report", req.Subject())
}

func TestRequestValidation(t *testing.T) {
	cases := []struct {
		name string
		req  Request
		want string
	}{
		{"missing topic", Request{Recipient: "ada@example.com"}, MissingFieldsMessage},
		{"missing recipient", Request{Topic: "Go"}, MissingFieldsMessage},
		{"bad email", Request{Topic: "Go", Recipient: "not-an-email"}, "valid email"},
		{"too few results", Request{Topic: "Go", Recipient: "ada@example.com", NumResults: 2}, "between 3 and 10"},
		{"too many results", Request{Topic: "Go", Recipient: "ada@example.com", NumResults: 11}, "between 3 and 10"},
		{"unknown format", Request{Topic: "Go", Recipient: "ada@example.com", Format: "Haiku"}, "report format"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.req.Validate()
			require.ErrorIs(t, err, ErrInvalidRequest)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	for _, format := range Formats {
		req := Request{Topic: "Go", Recipient: "ada@example.com", NumResults: 10, Format: format}
		assert.NoError(t, req.Validate(), format)
	}
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "research_report_Latest_AI_developments_in_2025.md", ResearchFilename("Latest AI developments in 2025"))
	assert.Equal(t, "summary_Go.md", SummaryFilename("Go"))
}
