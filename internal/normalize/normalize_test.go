package normalize

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBullets(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Summary
	}{
		{"three sentences without final period", "A. B. C", Summary{"- A", "- B", "- C"}},
		{"final period is kept verbatim", "Water damage claim. Filed on time.", Summary{"- Water damage claim", "- Filed on time."}},
		{"trailing boundary yields no empty bullet", "A. B. ", Summary{"- A", "- B"}},
		{"consecutive boundaries are dropped", "A. . B", Summary{"- A", "- B"}},
		{"no boundary", "Single line", Summary{"- Single line"}},
		{"empty text", "", Summary{}},
		{"abbreviation without space is not a boundary", "Claim no.42 approved", Summary{"- Claim no.42 approved"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Bullets(tt.text))
		})
	}
}

func TestSummaryMarkdown(t *testing.T) {
	s := Summary{"- Water damage claim", "- Filed on time."}
	assert.Equal(t, "- Water damage claim\n- Filed on time.", s.Markdown())
	assert.Equal(t, "", Summary(nil).Markdown())
}

func TestNormalizeSummary(t *testing.T) {
	got, err := NormalizeSummary([]byte(`[{"summary_text":"Water damage claim. Filed on time."}]`))
	require.NoError(t, err)
	assert.Equal(t, Summary{"- Water damage claim", "- Filed on time."}, got)

	// Only the first element is used.
	got, err = NormalizeSummary([]byte(`[{"summary_text":"First."},{"summary_text":"Second."}]`))
	require.NoError(t, err)
	assert.Equal(t, Summary{"- First."}, got)
}

func TestNormalizeSummaryMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty body", ``},
		{"invalid json", `[{"summary_text":`},
		{"object instead of array", `{"summary_text":"A. B"}`},
		{"empty array", `[]`},
		{"missing field", `[{"generated_text":"A. B"}]`},
		{"non-string field", `[{"summary_text":42}]`},
		{"remote error payload", `{"error":"Model slauw87/bart_summarisation is currently loading","estimated_time":20}`},
		{"array of strings", `["A. B"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeSummary([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedResponse))
			assert.Nil(t, got)
		})
	}
}

func TestNormalizeSummaryIncludesRemoteError(t *testing.T) {
	_, err := NormalizeSummary([]byte(`{"error":"Model is currently loading"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Model is currently loading")
}

func TestNormalizeAnswer(t *testing.T) {
	got, err := NormalizeAnswer([]byte(`{"answer":"water damage","score":0.93,"start":20,"end":32}`))
	require.NoError(t, err)
	assert.Equal(t, Answer{Text: "water damage", Score: 0.93}, got)

	got, err = NormalizeAnswer([]byte(`{"answer":"water damage"}`))
	require.NoError(t, err)
	assert.Equal(t, "water damage", got.Text)
	assert.Zero(t, got.Score)
}

func TestNormalizeAnswerMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty body", ``},
		{"invalid json", `{"answer":`},
		{"missing field", `{"score":0.5}`},
		{"array", `[{"answer":"water damage"}]`},
		{"null answer", `{"answer":null}`},
		{"remote error payload", `{"error":"Model rsvp-ai/bertserini-bert-base-squad is currently loading"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NormalizeAnswer([]byte(tt.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedResponse))
		})
	}
}
