package hdbscan

// outlierScores computes the GLOSH score of every point: one minus the
// ratio of the lowest level at which the point's last cluster (or any
// of its descendants) still existed to the level at which the point
// fell out. A point that held on until its cluster's very end scores
// near 0; a point shed early, while the cluster structure persisted far
// below it, scores near 1. Points that are noise in the flat clustering
// are reported with the configured noise score instead.
func (h *hierarchy) outlierScores(flatLabels []int, noiseScore float64) []float64 {
	scores := make([]float64, h.numPoints)
	for i := 0; i < h.numPoints; i++ {
		if flatLabels[i] == noiseClusterLabel {
			scores[i] = noiseScore
			continue
		}
		epsMax := h.clusters[h.pointLastClusters[i]].propagatedLowestChildSplitLevel
		eps := h.pointNoiseLevels[i]
		if eps != 0 {
			scores[i] = 1 - epsMax/eps
		}
	}
	return scores
}
