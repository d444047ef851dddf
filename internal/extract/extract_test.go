package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   string
	}{
		{
			name:   "strict json",
			input:  `{"primaryContext":"playground"}`,
			wantOK: true,
			want:   `{"primaryContext":"playground"}`,
		},
		{
			name:   "fenced block with language tag",
			input:  "Here you go:\n```json\n{\"a\": 1}\n```\nanything else?",
			wantOK: true,
			want:   `{"a": 1}`,
		},
		{
			name:   "fenced block without language tag",
			input:  "```\n{\"a\": 1}\n```",
			wantOK: true,
			want:   `{"a": 1}`,
		},
		{
			name:   "object embedded in prose",
			input:  `I can see a playground. {"primaryContext": "playground", "confidenceScore": 0.9} Let me know!`,
			wantOK: true,
			want:   `{"primaryContext": "playground", "confidenceScore": 0.9}`,
		},
		{
			name:   "braces inside string values",
			input:  `Result: {"note": "use {braces} carefully", "n": 1} done`,
			wantOK: true,
			want:   `{"note": "use {braces} carefully", "n": 1}`,
		},
		{
			name:   "escaped quotes inside strings",
			input:  `{"say": "she said \"hi\" {loudly}"}`,
			wantOK: true,
			want:   `{"say": "she said \"hi\" {loudly}"}`,
		},
		{
			name:   "nested objects",
			input:  `prefix {"outer": {"inner": 2}} suffix`,
			wantOK: true,
			want:   `{"outer": {"inner": 2}}`,
		},
		{
			name:   "plain prose",
			input:  "I can see a sunny playground with two children.",
			wantOK: false,
		},
		{
			name:   "empty input",
			input:  "",
			wantOK: false,
		},
		{
			name:   "unbalanced braces",
			input:  `{"a": 1`,
			wantOK: false,
		},
		{
			name:   "json array is not an object",
			input:  `[1, 2, 3]`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, ok := Object(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.JSONEq(t, tt.want, string(raw))
			}
		})
	}
}

func TestUnmarshal(t *testing.T) {
	var out struct {
		Primary    string  `json:"primaryContext"`
		Confidence float64 `json:"confidenceScore"`
	}

	ok := Unmarshal("Sure! ```json\n{\"primaryContext\": \"home_kitchen\", \"confidenceScore\": 0.72}\n``` Hope that helps.", &out)
	require.True(t, ok)
	assert.Equal(t, "home_kitchen", out.Primary)
	assert.InDelta(t, 0.72, out.Confidence, 1e-9)
}

func TestUnmarshalMismatchedShape(t *testing.T) {
	var out struct {
		N int `json:"n"`
	}
	ok := Unmarshal(`{"n": "not a number"}`, &out)
	assert.False(t, ok)
}
