package annotate

import "github.com/inodb/vibe-mutsim/internal/genome"

// Intergenic labels positions outside every annotated feature.
const Intergenic = "intergenic"

// Classification describes the feature a position falls into.
type Classification struct {
	Feature  string `json:"feature"`
	Type     string `json:"featureType"`
	IsCoding bool   `json:"isCoding"`
}

// Classifier maps a 0-based sequence position to a Classification.
type Classifier interface {
	Classify(pos int) Classification
}

var intergenic = Classification{Feature: Intergenic, Type: Intergenic}

// IsCodingType reports whether a feature type counts as coding.
func IsCodingType(featureType string) bool {
	return featureType == "CDS" || featureType == "gene"
}

func classificationOf(f *genome.Feature) Classification {
	return Classification{
		Feature:  f.Name,
		Type:     f.Type,
		IsCoding: IsCodingType(f.Type),
	}
}

// Classify returns the classification of the first feature in list order that
// contains pos, or the intergenic classification if none does.
func Classify(pos int, features []genome.Feature) Classification {
	for i := range features {
		if features[i].Contains(pos) {
			return classificationOf(&features[i])
		}
	}
	return intergenic
}

// FeatureList classifies by linear scan.
type FeatureList []genome.Feature

// Classify implements Classifier.
func (l FeatureList) Classify(pos int) Classification {
	return Classify(pos, l)
}

// IndexedClassifier classifies through a FeatureIndex; results are identical to
// FeatureList for the same features.
type IndexedClassifier struct {
	index *genome.FeatureIndex
}

// NewClassifier builds an indexed classifier over features.
func NewClassifier(features []genome.Feature) *IndexedClassifier {
	return &IndexedClassifier{index: genome.BuildFeatureIndex(features)}
}

// Classify implements Classifier.
func (c *IndexedClassifier) Classify(pos int) Classification {
	if f, ok := c.index.First(pos); ok {
		return classificationOf(f)
	}
	return intergenic
}
