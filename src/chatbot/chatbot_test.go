package chatbot

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-sync/src/helpers"
	"market-sync/src/models"
)

func TestTrendThresholds(t *testing.T) {
	cases := map[float64]string{
		1:     "Strong Bullish",
		0.6:   "Strong Bullish",
		0.59:  "Bullish",
		0.2:   "Bullish",
		0.19:  "Neutral / Market Noise",
		0:     "Neutral / Market Noise",
		-0.19: "Neutral / Market Noise",
		-0.2:  "Bearish",
		-0.59: "Bearish",
		-0.6:  "Strong Bearish",
		-1:    "Strong Bearish",
	}
	for score, want := range cases {
		got, advice := Trend(score)
		assert.Equal(t, want, got, "score %v", score)
		assert.NotEmpty(t, advice)
	}
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "positive", Label(0.2))
	assert.Equal(t, "neutral", Label(0.1))
	assert.Equal(t, "neutral", Label(-0.1))
	assert.Equal(t, "negative", Label(-0.2))
}

func TestKeywordScorer(t *testing.T) {
	s := NewKeywordScorer()

	a := s.Score("Bitcoin ETF approval sparks rally, prices SURGE")
	assert.GreaterOrEqual(t, a.Score, 0.6)
	assert.Contains(t, a.Reason, "approval")

	a = s.Score("Exchange hacked; fraud fears trigger crash")
	assert.Equal(t, -1.0, a.Score)
	assert.Contains(t, a.Reason, "Negative")

	a = s.Score("What is the weather like?")
	assert.Zero(t, a.Score)
}

func TestRespond(t *testing.T) {
	r := NewKeywordResponder(nil)
	r.Now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }

	resp, err := r.Respond(context.Background(), models.MChatRequest{Message: "ETH rally continues"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Message, "Bullish"), resp.Message)
	assert.Contains(t, resp.Message, "Action advice:")
	assert.Equal(t, "2025-01-01T00:00:00.000Z", resp.Timestamp)

	_, err = r.Respond(context.Background(), models.MChatRequest{Message: "   "})
	assert.True(t, helpers.IsValidationError(err))
}
