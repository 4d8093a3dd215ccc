// Package chatbot answers dashboard chat messages with a sentiment read of the
// text. The scoring engine is pluggable; the default is a keyword lexicon.
package chatbot

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"market-sync/src/helpers"
	"market-sync/src/models"
	"market-sync/src/utils"
)

// Analysis is a sentiment score in [-1, 1] with a one-line rationale.
type Analysis struct {
	Score  float64
	Reason string
}

type Scorer interface {
	Score(text string) Analysis
}

type Responder interface {
	Respond(ctx context.Context, req models.MChatRequest) (models.MChatResponse, error)
}

// -----------------------------------------------------------------------------
// Keyword scorer
// -----------------------------------------------------------------------------

var defaultLexicon = map[string]float64{
	"surge": 0.4, "soar": 0.4, "rally": 0.35, "bullish": 0.4, "breakout": 0.3,
	"adoption": 0.25, "approval": 0.35, "approved": 0.35, "etf": 0.2, "record": 0.2,
	"gain": 0.2, "gains": 0.2, "upgrade": 0.25, "inflow": 0.25, "inflows": 0.25,
	"buy": 0.15, "partnership": 0.2, "halving": 0.15, "high": 0.1,
	"crash": -0.45, "plunge": -0.4, "dump": -0.35, "bearish": -0.4, "hack": -0.5,
	"hacked": -0.5, "exploit": -0.45, "ban": -0.4, "lawsuit": -0.35, "sec": -0.1,
	"fraud": -0.5, "selloff": -0.35, "liquidation": -0.3, "liquidations": -0.3,
	"outflow": -0.25, "outflows": -0.25, "sell": -0.15, "fear": -0.25, "low": -0.1,
}

type KeywordScorer struct {
	Lexicon map[string]float64
}

func NewKeywordScorer() *KeywordScorer {
	return &KeywordScorer{Lexicon: defaultLexicon}
}

// -----------------------------------------------------------------------------

func (s *KeywordScorer) Score(text string) Analysis {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	var total float64
	var bullish, bearish []string
	seen := make(map[string]struct{})
	for _, w := range words {
		weight, ok := s.Lexicon[w]
		if !ok {
			continue
		}
		total += weight
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if weight > 0 {
			bullish = append(bullish, w)
		} else {
			bearish = append(bearish, w)
		}
	}

	score := math.Max(-1, math.Min(1, total))
	return Analysis{Score: math.Round(score*100) / 100, Reason: reason(bullish, bearish)}
}

func reason(bullish, bearish []string) string {
	sort.Strings(bullish)
	sort.Strings(bearish)
	switch {
	case len(bullish) == 0 && len(bearish) == 0:
		return "No strong market-moving cues were found in the text."
	case len(bearish) == 0:
		return fmt.Sprintf("Positive cues dominate (%s).", strings.Join(bullish, ", "))
	case len(bullish) == 0:
		return fmt.Sprintf("Negative cues dominate (%s).", strings.Join(bearish, ", "))
	}
	return fmt.Sprintf("Mixed cues: positive (%s), negative (%s).", strings.Join(bullish, ", "), strings.Join(bearish, ", "))
}

// -----------------------------------------------------------------------------
// Score interpretation
// -----------------------------------------------------------------------------

// Trend renders a score as a headline and an action hint.
func Trend(score float64) (trend, advice string) {
	switch {
	case score >= 0.6:
		return "Strong Bullish", "market shows strong positive sentiment, consider buying opportunities."
	case score >= 0.2:
		return "Bullish", "market shows positive sentiment, short-term price may rise."
	case score <= -0.6:
		return "Strong Bearish", "market shows extreme fear, exercise caution."
	case score <= -0.2:
		return "Bearish", "market shows negative sentiment, consider caution."
	}
	return "Neutral / Market Noise", "market impact is limited, consider observing."
}

// Label buckets a score into the news sentiment labels.
func Label(score float64) string {
	switch {
	case score >= 0.2:
		return "positive"
	case score <= -0.2:
		return "negative"
	}
	return "neutral"
}

// -----------------------------------------------------------------------------
// Responder
// -----------------------------------------------------------------------------

type KeywordResponder struct {
	Scorer Scorer
	Now    func() time.Time
}

func NewKeywordResponder(scorer Scorer) *KeywordResponder {
	if scorer == nil {
		scorer = NewKeywordScorer()
	}
	return &KeywordResponder{Scorer: scorer, Now: time.Now}
}

// -----------------------------------------------------------------------------

func (r *KeywordResponder) Respond(ctx context.Context, req models.MChatRequest) (models.MChatResponse, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return models.MChatResponse{}, helpers.NewValidationError("message is required")
	}
	if err := ctx.Err(); err != nil {
		return models.MChatResponse{}, err
	}

	a := r.Scorer.Score(msg)
	trend, advice := Trend(a.Score)

	return models.MChatResponse{
		Message:   fmt.Sprintf("%s\n\nAI sentiment analysis:\n%s\n\nAction advice: %s", trend, a.Reason, advice),
		Timestamp: utils.FormatISO(r.Now()),
	}, nil
}
