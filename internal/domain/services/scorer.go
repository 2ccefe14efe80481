package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kabs31/outfit-planner/internal/config"
	"github.com/kabs31/outfit-planner/internal/domain/entities"
)

const (
	// Uniform mode takes the top N tops x top N bottoms.
	uniformPickCount = 3
	// Source-diverse mode: per-source caps for cross-source and
	// same-source pairs.
	crossPickCount = 2
	samePickCount  = 1

	styleReasonLimit = 120
)

// candidatePair is a pre-score pairing with its non-oracle bonus already
// decided by the candidate-set builder.
type candidatePair struct {
	top       entities.Garment
	bottom    entities.Garment
	bonus     float64
	styleTags []string
}

// CombinationScorer ranks top+bottom pairs by a blend of oracle
// compatibility, price similarity and positional/source bonuses.
type CombinationScorer struct {
	oracle  *CompatibilityOracle
	weights config.ScoringWeights
	log     zerolog.Logger
}

func NewCombinationScorer(oracle *CompatibilityOracle, weights config.ScoringWeights, log zerolog.Logger) *CombinationScorer {
	return &CombinationScorer{
		oracle:  oracle,
		weights: weights,
		log:     log,
	}
}

// ScoreAndRank builds the candidate set, scores every pair and returns the
// top maxResults by descending match score. Ties keep candidate-set order.
// Empty tops or bottoms yield an empty list, never an error.
func (s *CombinationScorer) ScoreAndRank(ctx context.Context, tops, bottoms []entities.Garment, maxResults int, contextText string) []entities.OutfitCandidate {
	if len(tops) == 0 || len(bottoms) == 0 || maxResults <= 0 {
		return nil
	}

	var pairs []candidatePair
	if hasProvenance(tops) || hasProvenance(bottoms) {
		pairs = s.buildSourceDiversePairs(tops, bottoms)
	} else {
		pairs = s.buildUniformPairs(tops, bottoms)
	}
	if len(pairs) == 0 {
		return nil
	}

	verdicts := s.evaluateConcurrently(ctx, pairs, contextText)

	candidates := make([]entities.OutfitCandidate, 0, len(pairs))
	for i, pair := range pairs {
		verdict := verdicts[i]

		// Drop only confidently-incompatible pairs; borderline ones
		// stay in the ranking.
		if !verdict.Compatible && verdict.Score < s.weights.CompatibilityCutoff {
			continue
		}

		score := verdict.Score*s.weights.Compatibility +
			priceSimilarity(pair.top.Price, pair.bottom.Price)*s.weights.Price +
			pair.bonus

		tags := pair.styleTags
		if verdict.Reason != "" {
			tags = append(tags, truncate(verdict.Reason, styleReasonLimit))
		}

		candidates = append(candidates, entities.NewOutfitCandidate(pair.top, pair.bottom, score, tags))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MatchScore > candidates[j].MatchScore
	})

	if len(candidates) > maxResults {
		candidates = candidates[:maxResults]
	}

	s.log.Info().Int("candidates", len(pairs)).Int("ranked", len(candidates)).Msg("created outfit combinations")
	return candidates
}

// buildUniformPairs crosses the top 3 of each list. The positional bonus
// decays linearly so earlier-ranked raw inputs score higher.
func (s *CombinationScorer) buildUniformPairs(tops, bottoms []entities.Garment) []candidatePair {
	tops = head(tops, uniformPickCount)
	bottoms = head(bottoms, uniformPickCount)

	// Bonus decays over twice the pick count, so even the last 3x3 pair
	// keeps a third of the position weight.
	scale := float64(uniformPickCount * 2)
	var pairs []candidatePair
	for i, top := range tops {
		for j, bottom := range bottoms {
			bonus := (scale - float64(i+j)) / scale * s.weights.Position
			pairs = append(pairs, candidatePair{top: top, bottom: bottom, bonus: bonus})
		}
	}
	return pairs
}

// buildSourceDiversePairs prioritizes cross-provenance pairs (capped 2x2
// per source pairing), then adds 1x1 same-provenance fallback pairs. Cross
// pairs receive the cross-source bonus.
func (s *CombinationScorer) buildSourceDiversePairs(tops, bottoms []entities.Garment) []candidatePair {
	sources := sourceOrder(tops, bottoms)
	topsBySource := groupBySource(tops)
	bottomsBySource := groupBySource(bottoms)

	var pairs []candidatePair

	for _, topSrc := range sources {
		for _, bottomSrc := range sources {
			if topSrc == bottomSrc {
				continue
			}
			for _, top := range head(topsBySource[topSrc], crossPickCount) {
				for _, bottom := range head(bottomsBySource[bottomSrc], crossPickCount) {
					pairs = append(pairs, candidatePair{
						top:       top,
						bottom:    bottom,
						bonus:     s.weights.CrossSourceBonus,
						styleTags: []string{"mixed"},
					})
				}
			}
		}
	}

	for _, src := range sources {
		for _, top := range head(topsBySource[src], samePickCount) {
			for _, bottom := range head(bottomsBySource[src], samePickCount) {
				pairs = append(pairs, candidatePair{
					top:       top,
					bottom:    bottom,
					styleTags: []string{"single-source"},
				})
			}
		}
	}

	return pairs
}

// evaluateConcurrently fans the candidate pairs out to the oracle in
// batch-capped chunks and awaits all verdicts. The output slice is indexed
// like pairs, so ranking stays deterministic regardless of completion
// order.
func (s *CombinationScorer) evaluateConcurrently(ctx context.Context, pairs []candidatePair, contextText string) []entities.CompatibilityVerdict {
	descriptors := make([]entities.DescriptorPair, len(pairs))
	for i, p := range pairs {
		descriptors[i] = entities.DescriptorPair{Top: p.top.Descriptor(), Bottom: p.bottom.Descriptor()}
	}

	batchSize := s.oracle.batchSize
	verdicts := make([]entities.CompatibilityVerdict, len(pairs))

	var wg sync.WaitGroup
	for start := 0; start < len(descriptors); start += batchSize {
		end := start + batchSize
		if end > len(descriptors) {
			end = len(descriptors)
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			batch := s.oracle.EvaluateBatch(ctx, descriptors[start:end], contextText)
			copy(verdicts[start:end], batch)
		}(start, end)
	}
	wg.Wait()

	return verdicts
}

// priceSimilarity is 1 - |a-b|/max(a,b), or 0.5 when both prices are zero.
func priceSimilarity(a, b float64) float64 {
	maxPrice := a
	if b > maxPrice {
		maxPrice = b
	}
	if maxPrice <= 0 {
		return 0.5
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return 1 - diff/maxPrice
}

func hasProvenance(garments []entities.Garment) bool {
	for _, g := range garments {
		if g.Source != "" {
			return true
		}
	}
	return false
}

// sourceOrder lists distinct provenance tags in first-seen input order.
func sourceOrder(tops, bottoms []entities.Garment) []string {
	seen := make(map[string]bool)
	var order []string
	for _, g := range append(append([]entities.Garment{}, tops...), bottoms...) {
		src := g.Source
		if src == "" {
			src = "unknown"
		}
		if !seen[src] {
			seen[src] = true
			order = append(order, src)
		}
	}
	return order
}

func groupBySource(garments []entities.Garment) map[string][]entities.Garment {
	grouped := make(map[string][]entities.Garment)
	for _, g := range garments {
		src := g.Source
		if src == "" {
			src = "unknown"
		}
		grouped[src] = append(grouped[src], g)
	}
	return grouped
}

func head(garments []entities.Garment, n int) []entities.Garment {
	if len(garments) <= n {
		return garments
	}
	return garments[:n]
}

func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	return fmt.Sprintf("%s...", text[:limit])
}
