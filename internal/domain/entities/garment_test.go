package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGarmentTypeRegion(t *testing.T) {
	assert.Equal(t, UpperBody, GarmentTypeTop.Region())
	assert.Equal(t, LowerBody, GarmentTypeBottom.Region())
	assert.Equal(t, UpperBody, GarmentType("unknown").Region())
}

func TestGarmentTypeSegmentationHint(t *testing.T) {
	assert.Equal(t, "topwear", GarmentTypeTop.SegmentationHint())
	assert.Equal(t, "bottomwear", GarmentTypeBottom.SegmentationHint())
}
