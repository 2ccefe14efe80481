package entities

import "github.com/kabs31/outfit-planner/internal/domain/valueobjects"

type GarmentType string

const (
	GarmentTypeTop    GarmentType = "top"
	GarmentTypeBottom GarmentType = "bottom"
)

// BodyRegion is the hint passed to segmentation and render backends.
type BodyRegion string

const (
	UpperBody BodyRegion = "upper_body"
	LowerBody BodyRegion = "lower_body"
)

// Region maps a garment type to the body region it covers.
func (t GarmentType) Region() BodyRegion {
	if t == GarmentTypeBottom {
		return LowerBody
	}
	return UpperBody
}

// SegmentationHint maps a garment type to the segmentation model's
// clothing-type vocabulary.
func (t GarmentType) SegmentationHint() string {
	if t == GarmentTypeBottom {
		return "bottomwear"
	}
	return "topwear"
}

// Garment is a single catalog product. Created by a catalog adapter and
// read-only within the core.
type Garment struct {
	ID          string
	Name        string
	Category    GarmentType
	Price       float64
	Currency    string
	ImageURL    string
	BuyURL      string
	Brand       string
	Description string
	Colors      []string
	Sizes       []string

	// Source tags which upstream catalog the garment came from ("asos",
	// "amazon", ...). Empty when provenance is unknown.
	Source string
}

// GarmentDescriptor is the minimal text view of a garment passed to the
// compatibility oracle.
type GarmentDescriptor struct {
	Name        string
	Description string
	Category    string
	Brand       string
}

// Descriptor projects a garment into its oracle view.
func (g Garment) Descriptor() GarmentDescriptor {
	return GarmentDescriptor{
		Name:        g.Name,
		Description: g.Description,
		Category:    string(g.Category),
		Brand:       g.Brand,
	}
}

// CompatibilityVerdict is the oracle's judgement of one top/bottom pair.
type CompatibilityVerdict struct {
	Compatible bool
	Score      float64
	Reason     string
}

// DescriptorPair is one top/bottom pair submitted to the oracle.
type DescriptorPair struct {
	Top    GarmentDescriptor
	Bottom GarmentDescriptor
}

// PreparedGarment is a garment image after foreground extraction. It is
// owned by the render invocation that requested it and not persisted.
type PreparedGarment struct {
	Type      GarmentType
	Image     *valueobjects.ImageData
	Extracted bool   // false when the raw source image is used unmodified
	StoredURL string // durable copy, set when an upload was required
}
