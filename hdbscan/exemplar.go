package hdbscan

import (
	"math"
	"sort"

	"github.com/densekit/densekit/distance"
	"github.com/densekit/densekit/la"
)

// Exemplar is a representative point of a cluster (or of the noise
// group), used by Model.Predict to assign labels to unseen points.
type Exemplar struct {
	// Label is the external cluster label, NoiseLabel for the noise group.
	Label int

	// OutlierScore is the exemplar's own outlier score.
	OutlierScore float64

	// Features is the exemplar's vector.
	Features la.Vector

	// MaxDistToEdge is the distance from the exemplar to the furthest
	// point assigned to the same cluster. A query point farther than
	// this from every exemplar is treated as noise.
	MaxDistToEdge float64
}

// computeExemplars selects representative points per cluster. The
// total exemplar budget is sqrt(n/2) plus one per group, split across
// groups proportionally to their size. Cluster groups contribute their
// lowest-outlier-score members, the noise group its highest; members
// tied on score collapse to a single candidate.
func computeExemplars(points []la.Vector, labels []int, outlierScores []float64, dist distance.Distance) []Exemplar {
	n := len(points)

	groups := make(map[int][]int)
	for i, label := range labels {
		groups[label] = append(groups[label], i)
	}
	groupLabels := make([]int, 0, len(groups))
	for label := range groups {
		groupLabels = append(groupLabels, label)
	}
	sort.Ints(groupLabels)

	numExemplars := int(math.Sqrt(float64(n)/2.0)) + len(groups)

	var exemplars []Exemplar
	for _, label := range groupLabels {
		members := groups[label]

		// Deduplicate members by score; the highest index wins a tie.
		byScore := make(map[float64]int)
		for _, idx := range members {
			byScore[outlierScores[idx]] = idx
		}
		scores := make([]float64, 0, len(byScore))
		for score := range byScore {
			scores = append(scores, score)
		}
		sort.Float64s(scores)

		count := len(members) * numExemplars / n
		if count > len(scores) {
			count = len(scores)
		}

		if label != NoiseLabel {
			// The least outlier-like members represent a cluster best.
			for _, score := range scores[:count] {
				exemplars = append(exemplars, Exemplar{
					Label:        label,
					OutlierScore: score,
					Features:     points[byScore[score]],
				})
			}
		} else {
			// The noise group is represented by its strongest outliers.
			for i := 0; i < count; i++ {
				score := scores[len(scores)-1-i]
				exemplars = append(exemplars, Exemplar{
					Label:        label,
					OutlierScore: score,
					Features:     points[byScore[score]],
				})
			}
		}
	}

	// Each exemplar reaches as far as the furthest member of its group.
	for i := range exemplars {
		e := &exemplars[i]
		maxInnerDist := math.Inf(-1)
		for _, idx := range groups[e.Label] {
			d := dist.Distance(e.Features, points[idx])
			if d > maxInnerDist {
				maxInnerDist = d
			}
		}
		e.MaxDistToEdge = maxInnerDist
	}
	return exemplars
}
