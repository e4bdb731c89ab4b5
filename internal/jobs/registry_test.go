package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/janzheng/mailcheck/internal/core"
	"github.com/janzheng/mailcheck/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedChat serves compound/browser/judge calls with canned verdicts, or
// blocks until cancellation when block is set.
type scriptedChat struct {
	block bool
}

func (s *scriptedChat) Complete(ctx context.Context, _ string, req core.ChatRequest) (*core.ChatResponse, error) {
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if req.WebSearch || req.JSONObject {
		return &core.ChatResponse{Content: `{"status":"person_low","message":"ok"}`}, nil
	}
	return &core.ChatResponse{Content: `<json>{"status":"person_low","message":"ok"}</json>`}, nil
}

type noAcademic struct{}

func (noAcademic) Lookup(context.Context, string) (core.AcademicInfo, error) {
	return core.AcademicInfo{}, nil
}

func newRegistryUnderTest(chat core.ChatClient) *Registry {
	logger := zap.NewNop()
	pipeline := core.NewPipeline(
		rules.NewMatcher(logger),
		noAcademic{},
		core.NewCompoundAssessor(chat, "compound-beta", 0.2, logger),
		core.NewBrowserAssessor(chat, "openai/gpt-oss-20b", "openai/gpt-oss-20b", 0.2, logger),
		core.NewFinalJudge(chat, "openai/gpt-oss-120b", 0.2, logger),
		logger,
	)
	checker := core.NewCheckerService(pipeline, nil, logger, false, 0)
	return NewRegistry(checker, 2, logger)
}

func waitForJobDone(t *testing.T, r *Registry, id string) *Summary {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		summary, ok := r.Get(id)
		require.True(t, ok)
		if !summary.Running && summary.Completed == summary.Total {
			return summary
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return nil
}

func TestRegistryCreateRejectsEmpty(t *testing.T) {
	r := newRegistryUnderTest(&scriptedChat{})

	_, err := r.Create(CreateRequest{Emails: []string{"", "   "}})
	assert.True(t, errors.Is(err, ErrNoItems))
}

func TestRegistrySnapshotAfterCreate(t *testing.T) {
	// With a blocked backend no item can finish, so the first snapshot must
	// already show a running job with full totals.
	r := newRegistryUnderTest(&scriptedChat{block: true})

	summary, err := r.Create(CreateRequest{
		APIKey: "key",
		Emails: []string{"a@example.com", "b@example.com"},
	})
	require.NoError(t, err)
	assert.True(t, summary.Running)
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 0, summary.Completed)
	assert.False(t, summary.Cancelled)

	snapshot, ok := r.Get(summary.ID)
	require.True(t, ok)
	assert.True(t, snapshot.Running)
	assert.Equal(t, 2, snapshot.Total)

	_, ok = r.Cancel(summary.ID)
	require.True(t, ok)
}

func TestRegistryRunsAllItems(t *testing.T) {
	r := newRegistryUnderTest(&scriptedChat{})

	summary, err := r.Create(CreateRequest{
		APIKey: "key",
		Emails: []string{"a@example.com", "b@example.com", "c@example.com"},
	})
	require.NoError(t, err)
	require.Len(t, summary.Items, 3)
	assert.NotEmpty(t, summary.ID)

	done := waitForJobDone(t, r, summary.ID)
	assert.Equal(t, 3, done.Total)
	assert.Equal(t, 3, done.Completed)
	assert.False(t, done.Cancelled)
	for _, item := range done.Items {
		assert.Equal(t, StatusDone, item.Status)
		require.NotNil(t, item.Result)
		assert.Equal(t, core.StatusPersonLow, item.Result.Status)
	}
}

func TestRegistryPrefiltersNeedNoBackend(t *testing.T) {
	// A blocking chat client proves allowlisted items never reach the backend.
	r := newRegistryUnderTest(&scriptedChat{block: true})

	summary, err := r.Create(CreateRequest{
		Emails:    []string{"a@trusted.org", "b@trusted.org"},
		Allowlist: []string{"@trusted.org"},
	})
	require.NoError(t, err)

	done := waitForJobDone(t, r, summary.ID)
	for _, item := range done.Items {
		assert.Equal(t, StatusDone, item.Status)
		assert.Equal(t, core.StatusWhitelist, item.Result.Status)
	}
}

func TestRegistryCancel(t *testing.T) {
	r := newRegistryUnderTest(&scriptedChat{block: true})

	summary, err := r.Create(CreateRequest{
		APIKey: "key",
		Emails: []string{"a@example.com", "b@example.com"},
	})
	require.NoError(t, err)

	cancelled, ok := r.Cancel(summary.ID)
	require.True(t, ok)
	assert.True(t, cancelled.Cancelled)

	// Workers unblock once the job context is cancelled, and every item,
	// including the ones never scheduled, counts toward completion.
	settled := waitForJobDone(t, r, summary.ID)
	assert.True(t, settled.Cancelled)
	assert.Equal(t, settled.Total, settled.Completed)
	for _, item := range settled.Items {
		assert.Equal(t, StatusError, item.Status)
		assert.Equal(t, "cancelled", item.Error)
		assert.Nil(t, item.Result)
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	r := newRegistryUnderTest(&scriptedChat{})

	_, ok := r.Get("missing")
	assert.False(t, ok)
	_, ok = r.Cancel("missing")
	assert.False(t, ok)
}

func TestRegistryListNewestFirst(t *testing.T) {
	r := newRegistryUnderTest(&scriptedChat{})

	first, err := r.Create(CreateRequest{Emails: []string{"a@trusted.org"}, Allowlist: []string{"@trusted.org"}})
	require.NoError(t, err)
	waitForJobDone(t, r, first.ID)

	second, err := r.Create(CreateRequest{Emails: []string{"b@trusted.org"}, Allowlist: []string{"@trusted.org"}})
	require.NoError(t, err)
	waitForJobDone(t, r, second.ID)

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}
