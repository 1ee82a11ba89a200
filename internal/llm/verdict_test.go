package llm

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestParseVerdict(t *testing.T) {
	v, err := ParseVerdict("```json\n{\"confidence\":0.9,\"row_number\":1,\"date\":\"2024-01-05\",\"description\":\"acme corp\"}\n```")
	require.NoError(t, err)
	assert.InDelta(t, 0.9, v.Confidence, 1e-9)
	require.NotNil(t, v.RowNumber)
	assert.Equal(t, 1, *v.RowNumber)
	assert.Equal(t, "2024-01-05", v.Date)
	assert.Equal(t, "acme corp", v.Description)
}

func TestParseVerdictNullRow(t *testing.T) {
	v, err := ParseVerdict(`{"confidence":0.2,"row_number":null,"date":"","description":""}`)
	require.NoError(t, err)
	assert.Nil(t, v.RowNumber)
}

func TestParseVerdictRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not json", input: "I could not find a match, sorry."},
		{name: "missing confidence", input: `{"row_number":1}`},
		{name: "confidence out of range", input: `{"confidence":1.7,"row_number":1}`},
		{name: "confidence wrong type", input: `{"confidence":"high","row_number":1}`},
		{name: "row_number wrong type", input: `{"confidence":0.9,"row_number":"first"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVerdict(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestVerdictAccepted(t *testing.T) {
	tests := []struct {
		name    string
		verdict Verdict
		want    bool
	}{
		{name: "above threshold with row", verdict: Verdict{Confidence: 0.9, RowNumber: intPtr(1)}, want: true},
		{name: "at threshold with row", verdict: Verdict{Confidence: 0.6, RowNumber: intPtr(3)}, want: true},
		{name: "below threshold", verdict: Verdict{Confidence: 0.59, RowNumber: intPtr(1)}, want: false},
		{name: "nil row reference", verdict: Verdict{Confidence: 0.95}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.verdict.Accepted(0.6))
		})
	}
}

func TestMarshalPrettyPreservesExtraKeysAndUTF8(t *testing.T) {
	v, err := ParseVerdict(`{"confidence":0.8,"row_number":2,"date":"2024-01-05","description":"café münchen","reasoning":"matched on amount & date"}`)
	require.NoError(t, err)

	out, err := v.MarshalPretty()
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "café münchen")
	assert.Contains(t, s, "reasoning")
	assert.Contains(t, s, "&")
	assert.NotContains(t, s, `\u`)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Len(t, decoded, 5)
	assert.True(t, strings.Contains(s, "\n"), "expected indented output")
}
