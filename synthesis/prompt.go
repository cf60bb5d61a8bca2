package synthesis

import "fmt"

// maxCorpusChars caps the review text sent to the model. Anything beyond is
// truncated with a marker, matching the model's context budget.
const maxCorpusChars = 200000

const analysisPromptTemplate = `You are an expert product analyst. Analyze the following product reviews and respond with a single JSON object, no prose.

Reviews Data:
%s

Respond with exactly this JSON structure:

{
    "sentiment": {
        "score": <float 0-10>,
        "sentiment": "<positive/negative/neutral>",
        "distribution": {"positive": <percentage>, "negative": <percentage>, "neutral": <percentage>}
    },
    "features": {
        "<feature_name>": {
            "sentiment": "<positive/negative/neutral>",
            "score": <float 0-10>,
            "mentions": <integer>,
            "quotes": [<array of short quotes>]
        }
    },
    "top_praises": [
        {"aspect": "<what people praise>", "frequency": <integer>, "percentage": <float>, "score": <float 0-10>, "quotes": [<quotes>]}
    ],
    "top_complaints": [
        {"aspect": "<what people complain about>", "frequency": <integer>, "percentage": <float>, "score": <float 0-10>, "quotes": [<quotes>]}
    ],
    "user_segments": [
        {"segment": "<user type>", "satisfaction": <float 0-100>, "count": <integer>}
    ],
    "quality_issues": [
        {"issue": "<issue description>", "frequency": <integer>, "severity": "<high/medium/low>", "quotes": [<quotes>]}
    ],
    "prices": [
        {"source": "<platform name>", "url": "<source URL>", "price": "<price string>", "currency": "<currency code>"}
    ],
    "competitor_mentions": {
        "<competitor_name>": {"mentions": <integer>, "sentiment": "<better/worse/similar>", "quotes": [<quotes>]}
    },
    "value_analysis": {
        "score": <float 0-10>,
        "sentiment": "<value for money assessment>",
        "percentage_saying_worth_it": <float>,
        "better_alternatives": [<alternatives if mentioned>]
    },
    "summary": {
        "one_liner": "<one sentence summary>",
        "best_for": [<use cases>],
        "not_recommended_for": [<use cases>],
        "strengths": [<key strengths>],
        "weaknesses": [<key weaknesses>],
        "verdict": "<detailed paragraph verdict>"
    },
    "general_sentiment": "<overall sentiment text>",
    "pros": [<array of pros>],
    "cons": [<array of cons>],
    "description": "<comprehensive product description in markdown>"
}

Important:
- sentiment, pros and cons are mandatory; omit optional sections you cannot support from the reviews
- include actual quotes from the reviews in quote arrays
- distribution percentages must sum to 100
- output valid JSON only`

// analysisPrompt renders the analysis prompt for the given corpus,
// truncating oversized input.
func analysisPrompt(corpus string) string {
	if len(corpus) > maxCorpusChars {
		corpus = corpus[:maxCorpusChars] + "\n\n[Content truncated due to length...]"
	}
	return fmt.Sprintf(analysisPromptTemplate, corpus)
}
