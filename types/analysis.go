package types

import "time"

// Sentiment is the overall sentiment block of an analysis.
type Sentiment struct {
	Score        float64            `json:"score"`
	Label        string             `json:"sentiment"` // positive, negative, neutral
	Distribution map[string]float64 `json:"distribution,omitempty"`
}

// FeatureSentiment scores a single named feature (e.g. "battery life").
type FeatureSentiment struct {
	Sentiment string   `json:"sentiment"`
	Score     float64  `json:"score"`
	Mentions  int      `json:"mentions"`
	Quotes    []string `json:"quotes,omitempty"`
}

// Aspect is a recurring praised or complained-about theme.
type Aspect struct {
	Aspect     string   `json:"aspect"`
	Frequency  int      `json:"frequency"`
	Percentage float64  `json:"percentage"`
	Score      float64  `json:"score"`
	Quotes     []string `json:"quotes,omitempty"`
}

// UserSegment describes satisfaction within one reviewer group.
type UserSegment struct {
	Segment      string  `json:"segment"`
	Satisfaction float64 `json:"satisfaction"` // 0-100
	Count        int     `json:"count"`
}

// QualityIssue is a recurring defect reported in reviews.
type QualityIssue struct {
	Issue     string   `json:"issue"`
	Frequency int      `json:"frequency"`
	Severity  string   `json:"severity"` // high, medium, low
	Quotes    []string `json:"quotes,omitempty"`
}

// PriceInfo is a price observed on a shopping platform.
type PriceInfo struct {
	Source   string `json:"source"`
	URL      string `json:"url,omitempty"`
	Price    string `json:"price,omitempty"`
	Currency string `json:"currency,omitempty"`
}

// ValueAnalysis is the value-for-money block.
type ValueAnalysis struct {
	Score                float64  `json:"score"`
	Sentiment            string   `json:"sentiment,omitempty"`
	PercentSayingWorthIt float64  `json:"percentage_saying_worth_it,omitempty"`
	BetterAlternatives   []string `json:"better_alternatives,omitempty"`
}

// CompetitorMention aggregates how a rival product comes up in reviews.
type CompetitorMention struct {
	Mentions  int      `json:"mentions"`
	Sentiment string   `json:"sentiment,omitempty"` // better, worse, similar
	Quotes    []string `json:"quotes,omitempty"`
}

// AnalysisSummary is the narrative summary block.
type AnalysisSummary struct {
	OneLiner          string   `json:"one_liner,omitempty"`
	BestFor           []string `json:"best_for,omitempty"`
	NotRecommendedFor []string `json:"not_recommended_for,omitempty"`
	Strengths         []string `json:"strengths,omitempty"`
	Weaknesses        []string `json:"weaknesses,omitempty"`
	Verdict           string   `json:"verdict,omitempty"`
}

// AnalysisResult is the structured opinion report for one product.
// Sentiment, Pros and Cons are required; everything else is best-effort and
// may be absent depending on what the synthesis model extracted.
type AnalysisResult struct {
	ProductID  string    `json:"product_id"`
	AnalyzedAt time.Time `json:"analyzed_at"`

	Sentiment Sentiment                   `json:"sentiment"`
	Features  map[string]FeatureSentiment `json:"features,omitempty"`

	TopPraises    []Aspect `json:"top_praises,omitempty"`
	TopComplaints []Aspect `json:"top_complaints,omitempty"`

	Pros []string `json:"pros"`
	Cons []string `json:"cons"`

	Summary          *AnalysisSummary             `json:"summary,omitempty"`
	ValueAnalysis    *ValueAnalysis               `json:"value_analysis,omitempty"`
	UserSegments     []UserSegment                `json:"user_segments,omitempty"`
	QualityIssues    []QualityIssue               `json:"quality_issues,omitempty"`
	Competitors      map[string]CompetitorMention `json:"competitor_mentions,omitempty"`
	Prices           []PriceInfo                  `json:"prices,omitempty"`
	GeneralSentiment string                       `json:"general_sentiment,omitempty"`
	Description      string                       `json:"description,omitempty"` // markdown
}
