package entities

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OutfitCandidate is a scored top+bottom pair. Immutable once created;
// many candidates are generated and discarded during ranking.
type OutfitCandidate struct {
	ID         string
	Top        Garment
	Bottom     Garment
	TotalPrice float64
	MatchScore float64
	StyleTags  []string
	CreatedAt  time.Time
}

// NewOutfitCandidate builds a candidate with the derived-field invariants:
// TotalPrice is always the exact sum and MatchScore is clamped to [0,1].
func NewOutfitCandidate(top, bottom Garment, matchScore float64, styleTags []string) OutfitCandidate {
	if matchScore < 0 {
		matchScore = 0
	}
	if matchScore > 1 {
		matchScore = 1
	}

	return OutfitCandidate{
		ID:         fmt.Sprintf("outfit_%s", uuid.New().String()[:8]),
		Top:        top,
		Bottom:     bottom,
		TotalPrice: top.Price + bottom.Price,
		MatchScore: matchScore,
		StyleTags:  styleTags,
		CreatedAt:  time.Now(),
	}
}

// CrossSource reports whether top and bottom came from different catalogs.
func (o OutfitCandidate) CrossSource() bool {
	return o.Top.Source != "" && o.Bottom.Source != "" && o.Top.Source != o.Bottom.Source
}

// ParsedPrompt is the structured attribute record produced by the prompt
// parsing collaborator. The core consumes it only to build ranking context
// and search queries.
type ParsedPrompt struct {
	OriginalPrompt string
	Mood           string
	Location       string
	Occasion       string
	Style          string
	Colors         []string
	Season         string
	Formality      string
	Keywords       []string
}
