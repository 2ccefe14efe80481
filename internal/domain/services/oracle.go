package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/kabs31/outfit-planner/internal/domain/entities"
	"github.com/kabs31/outfit-planner/internal/domain/repositories"
)

// Style classes used by the heuristic fallback. A garment that matches none
// of the lists is "unknown".
var styleKeywords = []struct {
	class    string
	keywords []string
}{
	{"casual", []string{"casual", "everyday", "relaxed", "comfortable", "t-shirt", "jeans"}},
	{"formal", []string{"formal", "dress", "suit", "elegant", "business", "professional"}},
	{"sporty", []string{"sport", "athletic", "gym", "workout", "active"}},
}

// CompatibilityOracle judges whether two garments go well together. It
// never fails: any remote judge error falls back to keyword matching, so
// callers always get a verdict.
type CompatibilityOracle struct {
	judge     repositories.CompatibilityJudge // nil when no judge configured
	batchSize int
	log       zerolog.Logger
}

func NewCompatibilityOracle(judge repositories.CompatibilityJudge, batchSize int, log zerolog.Logger) *CompatibilityOracle {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &CompatibilityOracle{
		judge:     judge,
		batchSize: batchSize,
		log:       log,
	}
}

// Evaluate judges a single pair.
func (o *CompatibilityOracle) Evaluate(ctx context.Context, top, bottom entities.GarmentDescriptor, contextText string) entities.CompatibilityVerdict {
	verdicts := o.EvaluateBatch(ctx, []entities.DescriptorPair{{Top: top, Bottom: bottom}}, contextText)
	return verdicts[0]
}

// EvaluateBatch judges many pairs, capping remote requests at the batch
// size. A failed remote batch degrades to the heuristic for that batch
// only.
func (o *CompatibilityOracle) EvaluateBatch(ctx context.Context, pairs []entities.DescriptorPair, contextText string) []entities.CompatibilityVerdict {
	verdicts := make([]entities.CompatibilityVerdict, len(pairs))

	for start := 0; start < len(pairs); start += o.batchSize {
		end := start + o.batchSize
		if end > len(pairs) {
			end = len(pairs)
		}
		batch := pairs[start:end]

		if o.judge != nil {
			judged, err := o.judge.JudgeBatch(ctx, batch, contextText)
			if err == nil && len(judged) == len(batch) {
				for i, v := range judged {
					verdicts[start+i] = clampVerdict(v)
				}
				continue
			}
			o.log.Warn().Err(err).Int("pairs", len(batch)).Msg("remote judge failed, using heuristic for batch")
		}

		for i, pair := range batch {
			verdicts[start+i] = HeuristicVerdict(pair.Top, pair.Bottom)
		}
	}

	return verdicts
}

// HeuristicVerdict is the deterministic keyword fallback. Same known class
// scores 0.7, differing known classes 0.4, and an unknown class on either
// side defaults to compatible at 0.5.
func HeuristicVerdict(top, bottom entities.GarmentDescriptor) entities.CompatibilityVerdict {
	topClass := classify(top)
	bottomClass := classify(bottom)

	if topClass != "" && bottomClass != "" {
		compatible := topClass == bottomClass
		score := 0.4
		if compatible {
			score = 0.7
		}
		return entities.CompatibilityVerdict{
			Compatible: compatible,
			Score:      score,
			Reason:     fmt.Sprintf("Fallback check: %s top with %s bottom", topClass, bottomClass),
		}
	}

	return entities.CompatibilityVerdict{
		Compatible: true,
		Score:      0.5,
		Reason:     fmt.Sprintf("Fallback check: %s top with %s bottom", orUnknown(topClass), orUnknown(bottomClass)),
	}
}

func classify(d entities.GarmentDescriptor) string {
	text := strings.ToLower(d.Name + " " + d.Description)
	for _, class := range styleKeywords {
		for _, kw := range class.keywords {
			if strings.Contains(text, kw) {
				return class.class
			}
		}
	}
	return ""
}

func orUnknown(class string) string {
	if class == "" {
		return "unknown"
	}
	return class
}

func clampVerdict(v entities.CompatibilityVerdict) entities.CompatibilityVerdict {
	if v.Score < 0 {
		v.Score = 0
	}
	if v.Score > 1 {
		v.Score = 1
	}
	return v
}
