package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBrowserUnderTest(chat ChatClient) *BrowserAssessor {
	return NewBrowserAssessor(chat, testBrowserModel, testBrowserModel, 0.2, zap.NewNop())
}

func TestBrowserAssessorConvertsAnalysis(t *testing.T) {
	chat := &fakeChat{}
	chat.respond = func(req ChatRequest) (*ChatResponse, error) {
		if req.WebSearch {
			return &ChatResponse{Content: "Status: person_high\nMessage: Linked to Jane Doe — Reporter, Daily News\nExplanation: Author page found."}, nil
		}
		// Conversion call.
		return &ChatResponse{Content: `{"status":"person_high","message":"Linked to Jane Doe — Reporter, Daily News","explanation_short":"Author page found. Byline matches.","evidence":["Jane Doe — Reporter, Daily News"]}`}, nil
	}
	a := newBrowserUnderTest(chat)

	res, err := a.Assess(context.Background(), "key", "jane@daily.news", "")
	require.NoError(t, err)

	assert.Equal(t, StatusPersonHigh, res.Status)
	assert.Equal(t, "Linked to Jane Doe — Reporter, Daily News", res.Message)
	assert.Equal(t, testBrowserModel, res.Fields.Str("bg_browser_model"))
	assert.Equal(t, "likely real person", res.Fields.Str("bg_browser_label"))
	assert.Equal(t, []string{"Jane Doe — Reporter, Daily News"}, res.Fields.Strs("bg_browser_evidence"))
	assert.Equal(t, 2, chat.callCount())

	// Search call carries the tool, conversion call forbids tools.
	assert.True(t, chat.calls[0].WebSearch)
	assert.True(t, chat.calls[1].NoTools)
	assert.True(t, chat.calls[1].JSONObject)
	assert.Zero(t, chat.calls[1].Temperature)
}

func TestBrowserAssessorCoercesWhenConversionFails(t *testing.T) {
	chat := &fakeChat{}
	chat.respond = func(req ChatRequest) (*ChatResponse, error) {
		if req.WebSearch {
			return &ChatResponse{Content: `analysis: {"status":"person_low","message":"weak match"} end`}, nil
		}
		return nil, errors.New("conversion backend down")
	}
	a := newBrowserUnderTest(chat)

	res, err := a.Assess(context.Background(), "key", "x@y.com", "")
	require.NoError(t, err)

	assert.Equal(t, StatusPersonLow, res.Status)
	assert.Equal(t, "weak match", res.Message)
}

func TestBrowserAssessorDebugWhenNothingParses(t *testing.T) {
	chat := &fakeChat{}
	chat.respond = func(req ChatRequest) (*ChatResponse, error) {
		if req.WebSearch {
			return &ChatResponse{Content: "prose with no extractable verdict"}, nil
		}
		return &ChatResponse{Content: "also not json"}, nil
	}
	a := newBrowserUnderTest(chat)

	res, err := a.Assess(context.Background(), "key", "x@y.com", "")
	require.NoError(t, err)

	assert.Empty(t, res.Status)
	assert.Equal(t, "browser_search produced non-JSON analysis and conversion failed.", res.Fields.Str("bg_browser_debug"))
}

func TestBrowserAssessorSearchErrorSurfaces(t *testing.T) {
	chat := &fakeChat{respond: func(req ChatRequest) (*ChatResponse, error) {
		return nil, errors.New("search unavailable")
	}}
	a := newBrowserUnderTest(chat)

	_, err := a.Assess(context.Background(), "key", "x@y.com", "")
	assert.Error(t, err)
}
