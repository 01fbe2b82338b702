package hdbscan

import (
	"fmt"
	"math"

	"github.com/densekit/densekit/distance"
	"github.com/densekit/densekit/la"
)

// Model is a trained HDBSCAN* clustering. All fields are plain data so
// external serializers can round-trip a model through NewModel.
//
// Predict approximates cluster labels for unseen points from the
// stored exemplars; the model itself is never updated. See G. Stewart,
// M. Al-Khassaweneh, "An Implementation of the HDBSCAN* Clustering
// Algorithm", Applied Sciences 12(5):2405, 2022.
type Model struct {
	// Labels holds the cluster label of every training point, in input
	// order: 0..C-1, or NoiseLabel for noise points.
	Labels []int

	// OutlierScores holds the GLOSH outlier score of every training
	// point, in input order. Scores lie in [0, 1]; higher means more
	// outlier-like. Noise points carry NoiseOutlierScore.
	OutlierScores []float64

	// NoiseOutlierScore is the score assigned to noise, both in
	// OutlierScores and by Predict. When zero (legacy models), Predict
	// skips the noise gate and always assigns the nearest exemplar.
	NoiseOutlierScore float64

	// DistanceName identifies the distance the model was trained with,
	// resolvable via distance.ByName.
	DistanceName string

	// Exemplars are the representative points used by Predict.
	Exemplars []Exemplar

	dist distance.Distance
}

// NewModel reassembles a model from its plain data fields, typically
// after deserialization. The distance name must resolve via
// distance.ByName, and labels and scores must be index-aligned.
func NewModel(labels []int, outlierScores []float64, noiseOutlierScore float64, distanceName string, exemplars []Exemplar) (*Model, error) {
	if len(labels) != len(outlierScores) {
		return nil, fmt.Errorf("hdbscan: %d labels but %d outlier scores", len(labels), len(outlierScores))
	}
	dist, err := distance.ByName(distanceName)
	if err != nil {
		return nil, err
	}
	return &Model{
		Labels:            labels,
		OutlierScores:     outlierScores,
		NoiseOutlierScore: noiseOutlierScore,
		DistanceName:      distanceName,
		Exemplars:         exemplars,
		dist:              dist,
	}, nil
}

// Predict assigns point to the cluster of its nearest exemplar and
// returns that exemplar's outlier score. When the model carries a
// positive NoiseOutlierScore, a point farther than MaxDistToEdge from
// every exemplar is classified as noise instead.
func (m *Model) Predict(point la.Vector) (label int, outlierScore float64, err error) {
	if len(m.Exemplars) == 0 {
		return NoiseLabel, m.NoiseOutlierScore, nil
	}
	if dims := m.Exemplars[0].Features.Dims(); point.Dims() != dims {
		return 0, 0, fmt.Errorf("%w: point has %d dims, model expects %d", la.ErrDimensionMismatch, point.Dims(), dims)
	}
	if m.dist == nil {
		m.dist, err = distance.ByName(m.DistanceName)
		if err != nil {
			return 0, 0, err
		}
	}

	minDistance := math.Inf(1)
	label = NoiseLabel
	if m.NoiseOutlierScore > 0 {
		isNoise := true
		for _, e := range m.Exemplars {
			d := m.dist.Distance(e.Features, point)
			if isNoise && d <= e.MaxDistToEdge {
				isNoise = false
			}
			if d < minDistance {
				minDistance = d
				label = e.Label
				outlierScore = e.OutlierScore
			}
		}
		if isNoise {
			label = NoiseLabel
			outlierScore = m.NoiseOutlierScore
		}
	} else {
		for _, e := range m.Exemplars {
			d := m.dist.Distance(e.Features, point)
			if d < minDistance {
				minDistance = d
				label = e.Label
				outlierScore = e.OutlierScore
			}
		}
	}
	return label, outlierScore, nil
}
