// Package compare merges completed analyses into a head-to-head comparison.
// All derivations are deterministic: same inputs, same Comparison (modulo id
// and timestamp), so results are reproducible and testable offline.
package compare

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"reviewlens/store"
	"reviewlens/types"
)

// keyDifferenceThreshold is the minimum score spread (on the 0-10 scale)
// for a feature to count as a key difference.
const keyDifferenceThreshold = 2.0

// useCaseLabels is the fixed set of verdict labels matched against each
// product's user segments and summary.best_for entries.
var useCaseLabels = []string{
	"gaming",
	"photography",
	"battery life",
	"travel",
	"work",
	"value",
	"all rounder",
}

// Engine builds and persists comparisons.
type Engine struct {
	store store.Store
}

// NewEngine returns a comparison engine over the given store.
func NewEngine(s store.Store) *Engine {
	return &Engine{store: s}
}

// Compare builds a comparison of 2-4 completed products, persists it and
// returns it. Nothing is stored when any validation or load step fails.
func (e *Engine) Compare(ctx context.Context, productIDs []string) (*types.Comparison, error) {
	if len(productIDs) < 2 || len(productIDs) > 4 {
		return nil, types.E(types.KindValidation, "select between 2 and 4 products to compare, got %d", len(productIDs))
	}
	seen := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		if _, dup := seen[id]; dup {
			return nil, types.E(types.KindValidation, "duplicate product id %q", id)
		}
		seen[id] = struct{}{}
	}

	inputs, err := e.loadInputs(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	matrix := buildMatrix(inputs)
	winner := pickWinner(inputs)

	c := &types.Comparison{
		ID:               uuid.NewString(),
		CreatedAt:        time.Now().UTC(),
		ComparedProducts: append([]string(nil), productIDs...),
		OverallWinner:    winner.product.ID,
		WinnerReasoning:  winnerReasoning(winner, inputs, matrix),
		Matrix:           matrix,
		ProsCons:         prosCons(inputs),
		VerdictByUseCase: useCaseVerdicts(inputs),
		KeyDifferences:   keyDifferences(inputs, matrix),
		Summary:          comparisonSummary(winner, inputs),
	}

	if err := e.store.PutComparison(ctx, c); err != nil {
		return nil, err
	}
	log.Printf("[compare] stored comparison %s (winner %s)", c.ID, c.OverallWinner)
	return c, nil
}

// GetComparison is a pure lookup of a stored comparison.
func (e *Engine) GetComparison(ctx context.Context, id string) (*types.Comparison, error) {
	return e.store.GetComparison(ctx, id)
}

// input pairs a product with its analysis and precomputed aggregate score.
type input struct {
	product   *types.Product
	analysis  *types.AnalysisResult
	aggregate float64
}

func (e *Engine) loadInputs(ctx context.Context, productIDs []string) ([]input, error) {
	inputs := make([]input, 0, len(productIDs))
	var notReady []string

	for _, id := range productIDs {
		p, err := e.store.GetProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if p.Status != types.StatusCompleted {
			notReady = append(notReady, id)
			continue
		}
		analysis, err := e.store.GetAnalysis(ctx, id)
		if types.IsKind(err, types.KindNotFound) {
			notReady = append(notReady, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, input{
			product:   p,
			analysis:  analysis,
			aggregate: aggregateScore(analysis),
		})
	}

	if len(notReady) > 0 {
		return nil, types.E(types.KindProductNotReady,
			"products not analyzed yet: %s", strings.Join(notReady, ", "))
	}
	return inputs, nil
}

// aggregateScore is the mean of the sentiment score and all feature scores.
// Used only to rank candidates for the overall winner.
func aggregateScore(a *types.AnalysisResult) float64 {
	sum := a.Sentiment.Score
	n := 1
	for _, f := range a.Features {
		sum += f.Score
		n++
	}
	return sum / float64(n)
}

// pickWinner ranks by aggregate score, breaking ties by the
// lexicographically smallest product id. Documented behavior, not an
// accident of map ordering.
func pickWinner(inputs []input) input {
	winner := inputs[0]
	for _, in := range inputs[1:] {
		if in.aggregate > winner.aggregate ||
			(in.aggregate == winner.aggregate && in.product.ID < winner.product.ID) {
			winner = in
		}
	}
	return winner
}

// buildMatrix unions feature keys across all inputs. Products without a
// score for a feature are omitted from that feature's row, never zero-filled.
func buildMatrix(inputs []input) map[string]map[string]float64 {
	matrix := make(map[string]map[string]float64)
	for _, in := range inputs {
		for feature, f := range in.analysis.Features {
			row, ok := matrix[feature]
			if !ok {
				row = make(map[string]float64, len(inputs))
				matrix[feature] = row
			}
			row[in.product.ID] = f.Score
		}
	}
	return matrix
}

func prosCons(inputs []input) map[string]types.ProsCons {
	out := make(map[string]types.ProsCons, len(inputs))
	for _, in := range inputs {
		out[in.product.ID] = types.ProsCons{
			Pros: in.analysis.Pros,
			Cons: in.analysis.Cons,
		}
	}
	return out
}

// useCaseVerdicts matches each product's user segments and best_for entries
// against the fixed label set. The strongest match per label wins; labels no
// product matches are omitted.
func useCaseVerdicts(inputs []input) map[string]string {
	verdicts := make(map[string]string)
	for _, label := range useCaseLabels {
		var best *input
		var bestStrength float64
		for i := range inputs {
			in := &inputs[i]
			strength := matchStrength(in.analysis, label)
			if strength == 0 {
				continue
			}
			// Weight by sentiment so a well-liked product wins a label both match.
			strength *= in.analysis.Sentiment.Score
			if best == nil || strength > bestStrength ||
				(strength == bestStrength && in.product.ID < best.product.ID) {
				best = in
				bestStrength = strength
			}
		}
		if best != nil {
			verdicts[strings.ReplaceAll(label, " ", "_")] = best.product.ID
		}
	}
	return verdicts
}

// matchStrength counts how often a use-case label shows up in the analysis's
// best_for list and user segments.
func matchStrength(a *types.AnalysisResult, label string) float64 {
	var strength float64
	if a.Summary != nil {
		for _, use := range a.Summary.BestFor {
			if labelMatches(use, label) {
				strength += 1
			}
		}
	}
	for _, seg := range a.UserSegments {
		if labelMatches(seg.Segment, label) {
			strength += seg.Satisfaction / 100
		}
	}
	return strength
}

func labelMatches(text, label string) bool {
	text = strings.ToLower(text)
	if strings.Contains(text, label) {
		return true
	}
	// "battery life" should also match "battery"; "all rounder" matches
	// "all-rounder" and "everyday use".
	head := strings.SplitN(label, " ", 2)[0]
	if head != label && strings.Contains(text, head) {
		return true
	}
	if label == "all rounder" {
		return strings.Contains(text, "all-rounder") || strings.Contains(text, "everyday")
	}
	return false
}

// keyDifferences lists features whose score spread across products meets the
// threshold, one statement per feature, ordered by spread descending.
func keyDifferences(inputs []input, matrix map[string]map[string]float64) []string {
	names := make(map[string]string, len(inputs))
	for _, in := range inputs {
		names[in.product.ID] = in.product.Name
	}

	type diff struct {
		feature          string
		spread           float64
		highID, lowID    string
		highVal, lowVal  float64
	}

	var diffs []diff
	for feature, row := range matrix {
		if len(row) < 2 {
			continue
		}
		var highID, lowID string
		for id, score := range row {
			if highID == "" || score > row[highID] || (score == row[highID] && id < highID) {
				highID = id
			}
			if lowID == "" || score < row[lowID] || (score == row[lowID] && id < lowID) {
				lowID = id
			}
		}
		spread := row[highID] - row[lowID]
		if spread < keyDifferenceThreshold {
			continue
		}
		diffs = append(diffs, diff{
			feature: feature,
			spread:  spread,
			highID:  highID, lowID: lowID,
			highVal: row[highID], lowVal: row[lowID],
		})
	}

	sort.Slice(diffs, func(i, j int) bool {
		if diffs[i].spread != diffs[j].spread {
			return diffs[i].spread > diffs[j].spread
		}
		return diffs[i].feature < diffs[j].feature
	})

	out := make([]string, 0, len(diffs))
	for _, d := range diffs {
		out = append(out, fmt.Sprintf("%s: %s scores %.1f while %s trails at %.1f",
			d.feature, names[d.highID], d.highVal, names[d.lowID], d.lowVal))
	}
	return out
}

// winnerReasoning renders a deterministic explanation referencing the
// features where the winner leads the field.
func winnerReasoning(winner input, inputs []input, matrix map[string]map[string]float64) string {
	var leads []string
	for feature, row := range matrix {
		winnerScore, ok := row[winner.product.ID]
		if !ok {
			continue
		}
		leading := true
		for id, score := range row {
			if id != winner.product.ID && score >= winnerScore {
				leading = false
				break
			}
		}
		if leading && len(row) > 1 {
			leads = append(leads, fmt.Sprintf("%s (%.1f)", feature, winnerScore))
		}
	}
	sort.Strings(leads)

	reasoning := fmt.Sprintf("%s wins with the highest aggregate score (%.1f/10) across sentiment and rated features",
		winner.product.Name, winner.aggregate)
	if len(leads) > 0 {
		if len(leads) > 3 {
			leads = leads[:3]
		}
		reasoning += ", leading on " + strings.Join(leads, ", ")
	}
	return reasoning + "."
}

func comparisonSummary(winner input, inputs []input) types.ComparisonSummary {
	names := make([]string, 0, len(inputs))
	for _, in := range inputs {
		names = append(names, in.product.Name)
	}
	rec := fmt.Sprintf("Among %s, %s comes out ahead overall.",
		strings.Join(names, ", "), winner.product.Name)

	verdict := rec
	if winner.analysis.Summary != nil && winner.analysis.Summary.OneLiner != "" {
		verdict = fmt.Sprintf("%s %s", rec, winner.analysis.Summary.OneLiner)
	}
	return types.ComparisonSummary{
		Recommendation: rec,
		FinalVerdict:   verdict,
	}
}
