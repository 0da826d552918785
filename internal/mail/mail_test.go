package mail

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func TestMarkdownToHTMLFormatting(t *testing.T) {
	got, err := MarkdownToHTML("Some **bold** words\n\n- first\n- second\n")
	require.NoError(t, err)

	assert.Contains(t, got, "<strong>bold</strong>")
	assert.Contains(t, got, "<ul>")
	assert.Contains(t, got, "<li>first</li>")
	assert.Contains(t, got, "<li>second</li>")
	assert.Contains(t, got, "</ul>")

	_, err = html.Parse(strings.NewReader(got))
	assert.NoError(t, err)
}

func TestMarkdownToHTMLHeadingsAndLinks(t *testing.T) {
	got, err := MarkdownToHTML("# Key Findings\n\nSee [Go](https://go.dev).")
	require.NoError(t, err)
	assert.Contains(t, got, "<h1>Key Findings</h1>")
	assert.Contains(t, got, `<a href="https://go.dev">Go</a>`)
}

func TestRenderReportWrapsTemplate(t *testing.T) {
	got, err := RenderReport("*hi*")
	require.NoError(t, err)
	assert.Contains(t, got, `<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">`)
	assert.Contains(t, got, "<em>hi</em>")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(got), "</html>"))
}

func countingDialer(calls *int) func(ctx context.Context, network, address string) (net.Conn, error) {
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		*calls++
		return nil, errors.New("dial refused in test")
	}
}

func TestSendWithoutCredentialsMakesNoConnection(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no user no pass", Config{}},
		{"no pass", Config{Username: "bot@example.com"}},
		{"no user", Config{Password: "secret"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			s := NewSender(tt.cfg).WithDialer(countingDialer(&calls))

			err := s.SendMarkdown(context.Background(), "to@example.com", "subject", "**body**")
			assert.ErrorIs(t, err, ErrMissingCredentials)

			err = s.SendPlain(context.Background(), "to@example.com", "subject", "body")
			assert.ErrorIs(t, err, ErrMissingCredentials)

			assert.Zero(t, calls)
		})
	}
}

func TestSendDialsConfiguredServer(t *testing.T) {
	calls := 0
	var dialed string
	s := NewSender(Config{Username: "bot@example.com", Password: "secret", Host: "smtp.example.com", Port: 2525}).
		WithDialer(func(ctx context.Context, network, address string) (net.Conn, error) {
			calls++
			dialed = address
			return nil, errors.New("dial refused in test")
		})

	err := s.SendMarkdown(context.Background(), "to@example.com", "subject", "body")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "smtp.example.com:2525", dialed)
}

func TestSendRejectsInvalidRecipient(t *testing.T) {
	calls := 0
	s := NewSender(Config{Username: "bot@example.com", Password: "secret"}).WithDialer(countingDialer(&calls))

	err := s.SendMarkdown(context.Background(), "not an address", "subject", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid recipient")
	assert.Zero(t, calls)
}

func TestNewSenderDefaults(t *testing.T) {
	s := NewSender(Config{})
	assert.Equal(t, "smtp.gmail.com", s.cfg.Host)
	assert.Equal(t, 587, s.cfg.Port)
	assert.False(t, s.Configured())
}
