// Package news serves the simulated headline feed used when the news endpoint
// is not relayed.
package news

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"market-sync/src/chatbot"
	"market-sync/src/models"
	"market-sync/src/utils"
)

const (
	// MaxItems caps every news answer.
	MaxItems = 10

	abstractLimit = 200
	spacing       = 45 * time.Minute
)

type headline struct {
	title    string
	abstract string
}

var headlines = []headline{
	{"Spot Bitcoin ETF inflows hit record as institutions pile in", "Net inflows into US spot bitcoin funds reached a new daily record, with analysts pointing to growing adoption among pension funds and advisors."},
	{"Ethereum developers schedule next network upgrade", "Core developers agreed on a tentative date for the upgrade, which targets lower fees for rollups and improved validator withdrawals."},
	{"Major exchange hacked, withdrawals paused", "An exchange confirmed an exploit on one of its hot wallets and paused withdrawals while it investigates the incident."},
	{"Solana rally extends as DEX volumes climb", "SOL gained for a fifth straight session as decentralized exchange volume on the network climbed to a multi-month high."},
	{"Regulators open lawsuit against token issuer", "The complaint alleges the issuer sold unregistered securities and misled investors about the project's reserves."},
	{"Bitcoin trades sideways ahead of macro data", "Traders held positions steady before inflation figures due later this week, keeping volatility near yearly lows."},
	{"Stablecoin supply grows for third consecutive month", "Aggregate stablecoin market cap continued to expand, a sign of fresh capital waiting on the sidelines."},
	{"Liquidations spike as leveraged longs unwind", "More than half a billion dollars in leveraged long positions were liquidated during a sharp intraday selloff."},
	{"Payments firm announces crypto partnership", "The partnership will let merchants settle in stablecoins, expanding adoption among small businesses."},
	{"Miners brace for post-halving revenue squeeze", "Publicly listed miners are consolidating operations as block rewards fall and hash price stays subdued."},
	{"Dogecoin volume jumps on social media buzz", "Trading activity in DOGE rose sharply after a wave of posts, though price action remained muted."},
	{"Analysts split on altcoin outlook for the quarter", "Some desks expect rotation into large-cap altcoins while others warn liquidity remains thin outside majors."},
}

// -----------------------------------------------------------------------------

type Feed struct {
	Scorer chatbot.Scorer
	Now    func() time.Time
	NewID  func() string
}

func NewFeed(scorer chatbot.Scorer) *Feed {
	if scorer == nil {
		scorer = chatbot.NewKeywordScorer()
	}
	return &Feed{
		Scorer: scorer,
		Now:    time.Now,
		NewID:  func() string { return uuid.NewString() },
	}
}

// -----------------------------------------------------------------------------

// Latest returns up to limit scored headlines, newest first. Non-positive limits
// fall back to MaxItems.
func (f *Feed) Latest(limit int) []models.MNewsItem {
	limit = ClampLimit(limit)
	if limit > len(headlines) {
		limit = len(headlines)
	}

	now := f.Now().UTC()
	items := make([]models.MNewsItem, 0, limit)
	for idx := 0; idx < limit; idx++ {
		h := headlines[idx]
		analysis := f.Scorer.Score(h.title + ". " + h.abstract)
		items = append(items, models.MNewsItem{
			ID:        fmt.Sprintf("news-%d-%s", idx, shortID(f.NewID())),
			Title:     h.title,
			Abstract:  abstract(h.abstract),
			Timestamp: utils.FormatISO(now.Add(-time.Duration(idx) * spacing)),
			Sentiment: chatbot.Label(analysis.Score),
		})
	}
	return items
}

// -----------------------------------------------------------------------------

// ClampLimit applies the default and the cap to a requested item count.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxItems {
		return MaxItems
	}
	return limit
}

func shortID(id string) string {
	hex := make([]rune, 0, 8)
	for _, r := range id {
		if r == '-' {
			continue
		}
		hex = append(hex, r)
		if len(hex) == 8 {
			break
		}
	}
	return string(hex)
}

func abstract(s string) string {
	runes := []rune(s)
	if len(runes) <= abstractLimit {
		return s
	}
	return string(runes[:abstractLimit]) + "..."
}
