package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabs31/outfit-planner/internal/domain/entities"
)

type stubJudge struct {
	verdicts []entities.CompatibilityVerdict
	err      error
	calls    [][]entities.DescriptorPair
}

func (s *stubJudge) JudgeBatch(ctx context.Context, pairs []entities.DescriptorPair, contextText string) ([]entities.CompatibilityVerdict, error) {
	s.calls = append(s.calls, pairs)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]entities.CompatibilityVerdict, len(pairs))
	for i := range pairs {
		out[i] = s.verdicts[i%len(s.verdicts)]
	}
	return out, nil
}

func desc(name, description string) entities.GarmentDescriptor {
	return entities.GarmentDescriptor{Name: name, Description: description}
}

func TestHeuristicVerdict(t *testing.T) {
	tests := []struct {
		name       string
		top        entities.GarmentDescriptor
		bottom     entities.GarmentDescriptor
		compatible bool
		score      float64
	}{
		{
			name:       "same casual class",
			top:        desc("Basic Tee", "casual cotton t-shirt"),
			bottom:     desc("Blue Jeans", "relaxed everyday jeans"),
			compatible: true,
			score:      0.7,
		},
		{
			name:       "casual top with sporty bottom",
			top:        desc("Basic Tee", "casual cotton t-shirt"),
			bottom:     desc("Gym Shorts", "athletic gym shorts"),
			compatible: false,
			score:      0.4,
		},
		{
			name:       "formal with formal",
			top:        desc("Oxford Shirt", "business professional shirt"),
			bottom:     desc("Suit Trousers", "formal suit trousers"),
			compatible: true,
			score:      0.7,
		},
		{
			name:       "unknown class defaults compatible",
			top:        desc("Mystery Top", "avant-garde silhouette"),
			bottom:     desc("Gym Shorts", "athletic gym shorts"),
			compatible: true,
			score:      0.5,
		},
		{
			name:       "both unknown",
			top:        desc("Thing", ""),
			bottom:     desc("Other Thing", ""),
			compatible: true,
			score:      0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := HeuristicVerdict(tt.top, tt.bottom)
			assert.Equal(t, tt.compatible, v.Compatible)
			assert.InDelta(t, tt.score, v.Score, 1e-9)
			assert.NotEmpty(t, v.Reason)
		})
	}
}

func TestCompatibilityOracle_NoJudgeNeverFails(t *testing.T) {
	oracle := NewCompatibilityOracle(nil, 10, zerolog.Nop())

	v := oracle.Evaluate(context.Background(), desc("Tee", "casual tee"), desc("Jeans", "jeans"), "")
	assert.True(t, v.Compatible)
	assert.GreaterOrEqual(t, v.Score, 0.0)
	assert.LessOrEqual(t, v.Score, 1.0)
}

func TestCompatibilityOracle_BatchCap(t *testing.T) {
	judge := &stubJudge{verdicts: []entities.CompatibilityVerdict{{Compatible: true, Score: 0.9, Reason: "stylish"}}}
	oracle := NewCompatibilityOracle(judge, 10, zerolog.Nop())

	pairs := make([]entities.DescriptorPair, 23)
	for i := range pairs {
		pairs[i] = entities.DescriptorPair{Top: desc("Tee", "tee"), Bottom: desc("Jeans", "jeans")}
	}

	verdicts := oracle.EvaluateBatch(context.Background(), pairs, "")
	require.Len(t, verdicts, 23)
	require.Len(t, judge.calls, 3)
	assert.Len(t, judge.calls[0], 10)
	assert.Len(t, judge.calls[1], 10)
	assert.Len(t, judge.calls[2], 3)
	for _, v := range verdicts {
		assert.InDelta(t, 0.9, v.Score, 1e-9)
	}
}

func TestCompatibilityOracle_BatchFailureFallsBackPerBatch(t *testing.T) {
	judge := &stubJudge{err: errors.New("judge unavailable")}
	oracle := NewCompatibilityOracle(judge, 10, zerolog.Nop())

	pairs := []entities.DescriptorPair{
		{Top: desc("Tee", "casual tee"), Bottom: desc("Jeans", "everyday jeans")},
	}
	verdicts := oracle.EvaluateBatch(context.Background(), pairs, "")
	require.Len(t, verdicts, 1)
	// Heuristic result, not an error
	assert.True(t, verdicts[0].Compatible)
	assert.InDelta(t, 0.7, verdicts[0].Score, 1e-9)
}

func TestCompatibilityOracle_ClampsRemoteScores(t *testing.T) {
	judge := &stubJudge{verdicts: []entities.CompatibilityVerdict{{Compatible: true, Score: 1.7}}}
	oracle := NewCompatibilityOracle(judge, 10, zerolog.Nop())

	v := oracle.Evaluate(context.Background(), desc("Tee", ""), desc("Jeans", ""), "")
	assert.Equal(t, 1.0, v.Score)
}
