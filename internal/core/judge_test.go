package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFinalJudgeParsesVerdict(t *testing.T) {
	chat := &fakeChat{respond: func(req ChatRequest) (*ChatResponse, error) {
		return &ChatResponse{Content: `{"status":"spam","message":"Flagged on StopForumSpam","explanation_short":"Address appears in anti-abuse databases. No identity signals.","evidence":["Flagged on StopForumSpam"]}`}, nil
	}}
	j := NewFinalJudge(chat, testJudgeModel, 0.2, zap.NewNop())

	res, err := j.Judge(context.Background(), "key", "x@y.com", "", EvidenceBundle{})
	require.NoError(t, err)

	assert.Equal(t, StatusSpam, res.Status)
	assert.Equal(t, "Flagged on StopForumSpam", res.Message)
	assert.Equal(t, testJudgeModel, res.Fields.Str("bg_final_model"))
	assert.Equal(t, "spam", res.Fields.Str("bg_final_label"))
	assert.Equal(t, []string{"Flagged on StopForumSpam"}, res.Fields.Strs("bg_final_evidence"))
	assert.Equal(t, "Address appears in anti-abuse databases.", res.Fields.Str("bg_final_short"))

	// Judge calls always force the JSON object response format.
	require.Equal(t, 1, chat.callCount())
	assert.True(t, chat.calls[0].JSONObject)
}

func TestFinalJudgeSerializesBundle(t *testing.T) {
	chat := &fakeChat{respond: func(req ChatRequest) (*ChatResponse, error) {
		return &ChatResponse{Content: `{"status":"person_low","message":"ok"}`}, nil
	}}
	j := NewFinalJudge(chat, testJudgeModel, 0.2, zap.NewNop())

	bundle := EvidenceBundle{
		Academic: AcademicEvidence{Academic: true, Institution: "State University"},
		Role:     RoleEvidence{Status: "suspected_spam", Message: "Role-based address"},
		Domain:   DomainEvidence{Domain: "university.edu", GenericProvider: false},
		Compound: AssessorEvidence{Status: "person_low", Evidence: []string{"e1"}},
		Browser:  AssessorEvidence{Evidence: []string{}},
	}
	_, err := j.Judge(context.Background(), "key", "prof@university.edu", "", bundle)
	require.NoError(t, err)

	require.Equal(t, 1, chat.callCount())
	user := chat.calls[0].Messages[1].Content
	assert.Contains(t, user, "prof@university.edu")

	// The evidence JSON in the user turn round-trips to the same bundle.
	start := strings.Index(user, "{")
	require.GreaterOrEqual(t, start, 0)
	var decoded EvidenceBundle
	require.NoError(t, json.Unmarshal([]byte(user[start:]), &decoded))
	assert.Equal(t, bundle, decoded)
}

func TestFinalJudgeUnparseableYieldsEmptyResult(t *testing.T) {
	chat := &fakeChat{respond: func(req ChatRequest) (*ChatResponse, error) {
		return &ChatResponse{Content: "I think this is probably fine."}, nil
	}}
	j := NewFinalJudge(chat, testJudgeModel, 0.2, zap.NewNop())

	res, err := j.Judge(context.Background(), "key", "x@y.com", "", EvidenceBundle{})
	require.NoError(t, err)

	assert.Empty(t, res.Status)
	assert.Empty(t, res.Message)
	assert.Empty(t, res.Fields)
}

func TestFinalJudgeTransportErrorSurfaces(t *testing.T) {
	chat := &fakeChat{respond: func(req ChatRequest) (*ChatResponse, error) {
		return nil, errors.New("backend unavailable")
	}}
	j := NewFinalJudge(chat, testJudgeModel, 0.2, zap.NewNop())

	_, err := j.Judge(context.Background(), "key", "x@y.com", "", EvidenceBundle{})
	assert.Error(t, err)
}
