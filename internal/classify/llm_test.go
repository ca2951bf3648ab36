package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPromptTruncates(t *testing.T) {
	long := strings.Repeat("a", maxPromptText*2)
	prompt := BuildPrompt(long)
	assert.LessOrEqual(t, len(prompt), maxPromptText+len(promptTemplate))
	assert.Contains(t, prompt, "invoice, order, contract")
}

func TestParseAnswerPlainObject(t *testing.T) {
	result := ParseAnswer(`{"tags": ["billing", "urgent"], "category": "invoice", "confidence": 0.92}`)
	require.NotNil(t, result)
	assert.Equal(t, []string{"billing", "urgent"}, result.Tags)
	assert.Equal(t, "invoice", result.Category)
	assert.InDelta(t, 0.92, result.Confidence, 0.001)
}

func TestParseAnswerWrappedInProse(t *testing.T) {
	answer := "Sure, here is the classification:\n```json\n" +
		`{"tags": ["receipt"], "category": "receipt", "confidence": 0.8}` +
		"\n```\nLet me know if you need more."
	result := ParseAnswer(answer)
	assert.Equal(t, "receipt", result.Category)
	assert.Equal(t, []string{"receipt"}, result.Tags)
}

func TestParseAnswerGarbageFallsBack(t *testing.T) {
	for _, answer := range []string{"", "no json here", "{broken"} {
		result := ParseAnswer(answer)
		assert.Equal(t, "other", result.Category, "answer %q", answer)
		assert.Equal(t, []string{"other"}, result.Tags)
		assert.Equal(t, 0.5, result.Confidence)
	}
}

func TestParseAnswerFillsMissingFields(t *testing.T) {
	result := ParseAnswer(`{"confidence": 1.7}`)
	assert.Equal(t, "other", result.Category)
	assert.Equal(t, []string{"other"}, result.Tags)
	assert.Equal(t, 0.5, result.Confidence)
}
