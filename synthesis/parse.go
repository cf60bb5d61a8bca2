package synthesis

import (
	"encoding/json"
	"regexp"
	"strings"

	"reviewlens/types"
)

var codeFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*\\})\\s*```")

// extractJSON pulls the JSON object out of a model response, tolerating
// markdown code fences and surrounding prose.
func extractJSON(response string) string {
	if m := codeFenceRe.FindStringSubmatch(response); m != nil {
		return strings.TrimSpace(m[1])
	}
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start >= 0 && end > start {
		return strings.TrimSpace(response[start : end+1])
	}
	return strings.TrimSpace(response)
}

// rawQuote accepts both "..." and {"quote": "..."} forms; models flip
// between the two.
type rawQuote struct {
	Quote string
}

func (q *rawQuote) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		q.Quote = s
		return nil
	}
	var obj struct {
		Quote string `json:"quote"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	q.Quote = obj.Quote
	return nil
}

func quoteStrings(quotes []rawQuote) []string {
	if len(quotes) == 0 {
		return nil
	}
	out := make([]string, 0, len(quotes))
	for _, q := range quotes {
		if q.Quote != "" {
			out = append(out, q.Quote)
		}
	}
	return out
}

// rawAnalysis mirrors the model's JSON with lenient quote handling.
type rawAnalysis struct {
	Sentiment *types.Sentiment `json:"sentiment"`
	Features  map[string]struct {
		Sentiment string     `json:"sentiment"`
		Score     float64    `json:"score"`
		Mentions  int        `json:"mentions"`
		Quotes    []rawQuote `json:"quotes"`
	} `json:"features"`
	TopPraises    []rawAspect         `json:"top_praises"`
	TopComplaints []rawAspect         `json:"top_complaints"`
	UserSegments  []types.UserSegment `json:"user_segments"`
	QualityIssues []struct {
		Issue     string     `json:"issue"`
		Frequency int        `json:"frequency"`
		Severity  string     `json:"severity"`
		Quotes    []rawQuote `json:"quotes"`
	} `json:"quality_issues"`
	Prices      []types.PriceInfo `json:"prices"`
	Competitors map[string]struct {
		Mentions  int        `json:"mentions"`
		Sentiment string     `json:"sentiment"`
		Quotes    []rawQuote `json:"quotes"`
	} `json:"competitor_mentions"`
	ValueAnalysis    *types.ValueAnalysis   `json:"value_analysis"`
	Summary          *types.AnalysisSummary `json:"summary"`
	GeneralSentiment string                 `json:"general_sentiment"`
	Pros             []string               `json:"pros"`
	Cons             []string               `json:"cons"`
	Description      string                 `json:"description"`
}

type rawAspect struct {
	Aspect     string     `json:"aspect"`
	Frequency  int        `json:"frequency"`
	Percentage float64    `json:"percentage"`
	Score      float64    `json:"score"`
	Quotes     []rawQuote `json:"quotes"`
}

func aspects(in []rawAspect) []types.Aspect {
	if len(in) == 0 {
		return nil
	}
	out := make([]types.Aspect, 0, len(in))
	for _, a := range in {
		out = append(out, types.Aspect{
			Aspect:     a.Aspect,
			Frequency:  a.Frequency,
			Percentage: a.Percentage,
			Score:      a.Score,
			Quotes:     quoteStrings(a.Quotes),
		})
	}
	return out
}

// ParseAnalysis decodes and validates a model response into an
// AnalysisResult. Missing optional sections are tolerated; a response
// missing the required fields (sentiment score, pros, cons) fails with
// types.KindUpstreamMalformed.
func ParseAnalysis(response string) (*types.AnalysisResult, error) {
	var raw rawAnalysis
	if err := json.Unmarshal([]byte(extractJSON(response)), &raw); err != nil {
		return nil, types.Wrap(types.KindUpstreamMalformed, err, "model response is not valid JSON")
	}

	if raw.Sentiment == nil {
		return nil, types.E(types.KindUpstreamMalformed, "model response missing sentiment")
	}
	if raw.Sentiment.Score < 0 || raw.Sentiment.Score > 10 {
		return nil, types.E(types.KindUpstreamMalformed, "sentiment score %.1f out of range", raw.Sentiment.Score)
	}
	if len(raw.Pros) == 0 || len(raw.Cons) == 0 {
		return nil, types.E(types.KindUpstreamMalformed, "model response missing pros or cons")
	}

	res := &types.AnalysisResult{
		Sentiment:        *raw.Sentiment,
		TopPraises:       aspects(raw.TopPraises),
		TopComplaints:    aspects(raw.TopComplaints),
		UserSegments:     raw.UserSegments,
		Prices:           raw.Prices,
		ValueAnalysis:    raw.ValueAnalysis,
		Summary:          raw.Summary,
		GeneralSentiment: raw.GeneralSentiment,
		Pros:             raw.Pros,
		Cons:             raw.Cons,
		Description:      raw.Description,
	}

	if len(raw.Features) > 0 {
		res.Features = make(map[string]types.FeatureSentiment, len(raw.Features))
		for name, f := range raw.Features {
			res.Features[name] = types.FeatureSentiment{
				Sentiment: f.Sentiment,
				Score:     f.Score,
				Mentions:  f.Mentions,
				Quotes:    quoteStrings(f.Quotes),
			}
		}
	}
	if len(raw.QualityIssues) > 0 {
		res.QualityIssues = make([]types.QualityIssue, 0, len(raw.QualityIssues))
		for _, q := range raw.QualityIssues {
			res.QualityIssues = append(res.QualityIssues, types.QualityIssue{
				Issue:     q.Issue,
				Frequency: q.Frequency,
				Severity:  q.Severity,
				Quotes:    quoteStrings(q.Quotes),
			})
		}
	}
	if len(raw.Competitors) > 0 {
		res.Competitors = make(map[string]types.CompetitorMention, len(raw.Competitors))
		for name, c := range raw.Competitors {
			res.Competitors[name] = types.CompetitorMention{
				Mentions:  c.Mentions,
				Sentiment: c.Sentiment,
				Quotes:    quoteStrings(c.Quotes),
			}
		}
	}

	return res, nil
}
