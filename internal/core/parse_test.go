package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTaggedJSON(t *testing.T) {
	t.Run("parses wrapped verdict", func(t *testing.T) {
		v := extractTaggedJSON(`thinking... <json>{"status":"person_high","message":"Linked to Jane"}</json> done`)
		if assert.NotNil(t, v) {
			assert.Equal(t, "person_high", v.Status)
			assert.Equal(t, "Linked to Jane", v.Message)
		}
	})

	t.Run("no tags", func(t *testing.T) {
		assert.Nil(t, extractTaggedJSON(`{"status":"spam"}`))
	})

	t.Run("invalid JSON inside tags", func(t *testing.T) {
		assert.Nil(t, extractTaggedJSON(`<json>{not json}</json>`))
	})

	t.Run("case insensitive tags", func(t *testing.T) {
		v := extractTaggedJSON(`<JSON>{"status":"spam"}</JSON>`)
		if assert.NotNil(t, v) {
			assert.Equal(t, "spam", v.Status)
		}
	})
}

func TestParseVerdictJSON(t *testing.T) {
	v := parseVerdictJSON(`{"status":"person_low","explanation_short":"Some signal."}`)
	if assert.NotNil(t, v) {
		assert.Equal(t, "person_low", v.Status)
		assert.Equal(t, "Some signal.", v.ExplanationShort)
	}

	assert.Nil(t, parseVerdictJSON(""))
	assert.Nil(t, parseVerdictJSON("plain text"))
}

func TestCoerceVerdictFromText(t *testing.T) {
	t.Run("brace scan over surrounding prose", func(t *testing.T) {
		v := coerceVerdictFromText(`Here you go: {"status":"person_none","message":"No signal"} hope that helps`)
		if assert.NotNil(t, v) {
			assert.Equal(t, "person_none", v.Status)
			assert.Equal(t, "No signal", v.Message)
		}
	})

	t.Run("regex key extraction", func(t *testing.T) {
		v := coerceVerdictFromText(`status: "spam" and message: "Flagged on StopForumSpam"`)
		if assert.NotNil(t, v) {
			assert.Equal(t, "spam", v.Status)
			assert.Equal(t, "Flagged on StopForumSpam", v.Message)
		}
	})

	t.Run("nothing usable", func(t *testing.T) {
		assert.Nil(t, coerceVerdictFromText("completely unrelated prose"))
		assert.Nil(t, coerceVerdictFromText(""))
	})
}

func TestNormalizeEvidence(t *testing.T) {
	t.Run("list capped at five", func(t *testing.T) {
		raw := json.RawMessage(`["a","b","c","d","e","f"]`)
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, normalizeEvidence(raw))
	})

	t.Run("blank and non-string entries dropped", func(t *testing.T) {
		raw := json.RawMessage(`[" a ", "", 42, "b"]`)
		assert.Equal(t, []string{"a", "b"}, normalizeEvidence(raw))
	})

	t.Run("plain string becomes single bullet", func(t *testing.T) {
		raw := json.RawMessage(`"one bullet"`)
		assert.Equal(t, []string{"one bullet"}, normalizeEvidence(raw))
	})

	t.Run("object becomes nil", func(t *testing.T) {
		raw := json.RawMessage(`{"k":"v"}`)
		assert.Nil(t, normalizeEvidence(raw))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Nil(t, normalizeEvidence(nil))
	})
}
