package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/amityadav/researchcrew/internal/config"
	"github.com/amityadav/researchcrew/internal/core"
	"github.com/amityadav/researchcrew/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	got core.Request
	err error
}

func (f *fakeRunner) RunSync(ctx context.Context, req core.Request) (*store.Run, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &store.Run{ID: "run-1", Topic: req.Topic, Status: store.StatusCompleted}, nil
}

func TestRunReport(t *testing.T) {
	runner := &fakeRunner{}
	w := NewWorker(runner, config.ReportConfig{
		Schedule:   "0 7 * * *",
		Topic:      "AI agents",
		Recipient:  "ada@example.com",
		Format:     core.FormatExecutiveBrief,
		NumResults: 4,
	})

	run, err := w.RunReport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.StatusCompleted, run.Status)
	assert.Equal(t, core.Request{Topic: "AI agents", Recipient: "ada@example.com", Format: core.FormatExecutiveBrief, NumResults: 4}, runner.got)
}

func TestRunReportError(t *testing.T) {
	w := NewWorker(&fakeRunner{err: core.ErrInvalidRequest}, config.ReportConfig{Schedule: "@daily"})

	_, err := w.RunReport(context.Background())
	assert.True(t, errors.Is(err, core.ErrInvalidRequest))
}

func TestStart(t *testing.T) {
	disabled := NewWorker(&fakeRunner{}, config.ReportConfig{})
	require.NoError(t, disabled.Start())

	bad := NewWorker(&fakeRunner{}, config.ReportConfig{Schedule: "every tuesday"})
	assert.Error(t, bad.Start())

	good := NewWorker(&fakeRunner{}, config.ReportConfig{Schedule: "@every 1h", Topic: "Go", Recipient: "ada@example.com"})
	require.NoError(t, good.Start())
	assert.Len(t, good.cron.Entries(), 1)
	good.Stop()
}
