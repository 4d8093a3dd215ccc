package models

// MNewsItem is a scored headline as produced by the sentiment service.
type MNewsItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Abstract  string `json:"abstract"`
	Timestamp string `json:"timestamp"`
	Sentiment string `json:"sentiment"` // "positive", "negative", "neutral"
}
