package hdbscan

import (
	"math"
	"sort"
)

// noiseClusterLabel is the internal label for noise while the
// hierarchy is under construction. It is mapped to NoiseLabel on the
// way out.
const noiseClusterLabel = 0

// cluster is one node of the cluster tree. Nodes live in the hierarchy
// arena and reference their parent by arena index, which doubles as
// the cluster's internal label.
type cluster struct {
	parent     int // arena index; 0 marks the root
	birthLevel float64
	splitLevel float64
	numPoints  int

	stability           float64
	propagatedStability float64

	// propagatedLowestChildSplitLevel is the lowest level at which any
	// descendant fully dissolved, MaxFloat64 until propagation.
	propagatedLowestChildSplitLevel float64

	hasChildren           bool
	propagatedDescendants []int

	// hierarchyLevel is the significant level at which this cluster
	// appeared, keyed into the hierarchy's label snapshots.
	hierarchyLevel int
}

// hierarchy is the HDBSCAN* cluster tree plus the per-point bookkeeping
// needed for flat labels and outlier scores. clusters[0] is an unused
// sentinel so that arena indices coincide with internal labels;
// clusters[1] is the root holding all points.
type hierarchy struct {
	clusters  []cluster
	numPoints int

	// levelLabels[level] is the snapshot of internal point labels at a
	// significant hierarchy level.
	levelLabels map[int][]int

	// pointNoiseLevels[i] is the edge weight at which point i became
	// noise; pointLastClusters[i] the label it held just before.
	pointNoiseLevels  []float64
	pointLastClusters []int
}

// computeHierarchy removes EMST edges from the heaviest down, tracking
// how the single root component splits into clusters. A component
// keeps its parent's label while it holds at least minClusterSize
// points and at most one sibling of that size exists; smaller
// fragments fall out as noise at the current level.
func computeHierarchy(t *extendedMinSpanningTree, minClusterSize int) *hierarchy {
	n := t.numVertices
	h := &hierarchy{
		clusters:          make([]cluster, 2),
		numPoints:         n,
		levelLabels:       make(map[int][]int),
		pointNoiseLevels:  make([]float64, n),
		pointLastClusters: make([]int, n),
	}
	h.clusters[1] = cluster{
		parent:                          0,
		birthLevel:                      math.NaN(),
		numPoints:                       n,
		propagatedLowestChildSplitLevel: math.MaxFloat64,
	}

	currentClusterLabels := make([]int, n)
	for i := range currentClusterLabels {
		currentClusterLabels[i] = 1
	}

	lineCount := 0
	currentEdgeIndex := t.numEdges() - 1
	nextClusterLabel := 2
	nextLevelSignificant := true

	affectedClusterLabels := make(map[int]struct{})
	affectedVertices := make(map[int]struct{})

	for currentEdgeIndex >= 0 {
		currentEdgeWeight := t.weights[currentEdgeIndex]
		var newClusters []int

		// Remove all edges tied at the current weight, remembering the
		// clusters and vertices they touched.
		for currentEdgeIndex >= 0 && t.weights[currentEdgeIndex] == currentEdgeWeight {
			firstVertex := t.firstVertices[currentEdgeIndex]
			secondVertex := t.secondVertices[currentEdgeIndex]
			t.removeEdge(firstVertex, secondVertex)

			if currentClusterLabels[firstVertex] != noiseClusterLabel {
				affectedVertices[firstVertex] = struct{}{}
				affectedVertices[secondVertex] = struct{}{}
				affectedClusterLabels[currentClusterLabels[firstVertex]] = struct{}{}
			}
			currentEdgeIndex--
		}

		if len(affectedClusterLabels) == 0 {
			continue
		}

		for len(affectedClusterLabels) > 0 {
			examinedClusterLabel := maxKey(affectedClusterLabels)
			delete(affectedClusterLabels, examinedClusterLabel)

			examinedVertices := make(map[int]struct{})
			for vertex := range affectedVertices {
				if currentClusterLabels[vertex] == examinedClusterLabel {
					examinedVertices[vertex] = struct{}{}
					delete(affectedVertices, vertex)
				}
			}

			var firstChild map[int]struct{}
			var firstChildQueue []int
			firstChildRep := -1
			numChildClusters := 0

			// Explore the graph from each affected vertex to find the
			// surviving components. The first valid child is only
			// partially explored unless the cluster really splits;
			// spurious fragments are fully explored so they can be
			// labelled noise.
			for len(examinedVertices) > 0 {
				constructing := make(map[int]struct{})
				var queue []int
				head := 0
				anyEdges := false
				countedChild := false

				rootVertex := maxKey(examinedVertices)
				constructing[rootVertex] = struct{}{}
				queue = append(queue, rootVertex)
				delete(examinedVertices, rootVertex)

				for head < len(queue) {
					vertexToExplore := queue[head]
					head++

					for _, nb := range t.neighbors(vertexToExplore) {
						anyEdges = true
						if _, seen := constructing[nb]; !seen {
							constructing[nb] = struct{}{}
							queue = append(queue, nb)
							delete(examinedVertices, nb)
						}
					}

					if !countedChild && len(constructing) >= minClusterSize && anyEdges {
						countedChild = true
						numChildClusters++

						// The first valid child is left unexplored for
						// now; it is finished below only on a real split.
						if firstChild == nil {
							firstChild = constructing
							firstChildQueue = append([]int(nil), queue[head:]...)
							firstChildRep = rootVertex
							break
						}
					}
				}

				if numChildClusters >= 2 && len(constructing) >= minClusterSize && anyEdges {
					// A component equal to the partially explored first
					// child is not a second split.
					if _, same := constructing[firstChildRep]; same {
						numChildClusters--
					} else {
						label := h.createCluster(examinedClusterLabel, constructing, currentClusterLabels, nextClusterLabel, currentEdgeWeight)
						newClusters = append(newClusters, label)
						nextClusterLabel++
					}
				} else if len(constructing) < minClusterSize || !anyEdges {
					h.createCluster(examinedClusterLabel, constructing, currentClusterLabels, noiseClusterLabel, currentEdgeWeight)
					for point := range constructing {
						h.pointNoiseLevels[point] = currentEdgeWeight
						h.pointLastClusters[point] = examinedClusterLabel
					}
				}
			}

			// On a split, finish exploring the first child and cluster
			// it too, unless a duplicate component already did.
			if numChildClusters >= 2 && currentClusterLabels[firstChildRep] == examinedClusterLabel {
				head := 0
				for head < len(firstChildQueue) {
					vertexToExplore := firstChildQueue[head]
					head++
					for _, nb := range t.neighbors(vertexToExplore) {
						if _, seen := firstChild[nb]; !seen {
							firstChild[nb] = struct{}{}
							firstChildQueue = append(firstChildQueue, nb)
						}
					}
				}
				label := h.createCluster(examinedClusterLabel, firstChild, currentClusterLabels, nextClusterLabel, currentEdgeWeight)
				newClusters = append(newClusters, label)
				nextClusterLabel++
			}
		}

		if nextLevelSignificant || len(newClusters) > 0 {
			lineCount++
		}
		if len(newClusters) > 0 {
			snapshot := append([]int(nil), currentClusterLabels...)
			h.levelLabels[lineCount] = snapshot
			for _, label := range newClusters {
				h.clusters[label].hierarchyLevel = lineCount
			}
		}
		nextLevelSignificant = len(newClusters) > 0
	}
	return h
}

// createCluster relabels the given points, detaches them from their
// parent at the current level, and, for a non-noise label, appends the
// new cluster node to the arena. The arena index of the new node equals
// newLabel because labels are handed out in creation order.
func (h *hierarchy) createCluster(parentLabel int, points map[int]struct{}, currentClusterLabels []int, newLabel int, edgeWeight float64) int {
	for point := range points {
		currentClusterLabels[point] = newLabel
	}
	h.detachPoints(parentLabel, len(points), edgeWeight)

	if newLabel == noiseClusterLabel {
		return noiseClusterLabel
	}
	h.clusters = append(h.clusters, cluster{
		parent:                          parentLabel,
		birthLevel:                      edgeWeight,
		numPoints:                       len(points),
		propagatedLowestChildSplitLevel: math.MaxFloat64,
	})
	h.clusters[parentLabel].hasChildren = true
	return len(h.clusters) - 1
}

// detachPoints removes num points from the cluster at the given edge
// level, accruing stability. Zero levels (duplicate points) and the
// root's undefined birth level contribute nothing rather than
// producing infinities.
func (h *hierarchy) detachPoints(label, num int, level float64) {
	c := &h.clusters[label]
	c.numPoints -= num
	if level > 0 && c.birthLevel > 0 { // NaN birth fails the comparison
		c.stability += float64(num) * (1/level - 1/c.birthLevel)
	}
	if c.numPoints == 0 {
		c.splitLevel = level
	}
}

// propagate performs the excess-of-mass selection sweep. Child labels
// are always greater than their parent's, so walking the arena in
// descending order visits every child before its parent. A cluster
// forwards either itself or its propagated descendants to its parent,
// whichever carries more stability, preferring itself on ties. The
// lowest split level of any descendant travels upward alongside.
func (h *hierarchy) propagate() {
	for label := len(h.clusters) - 1; label >= 1; label-- {
		c := &h.clusters[label]
		if c.propagatedLowestChildSplitLevel == math.MaxFloat64 {
			c.propagatedLowestChildSplitLevel = c.splitLevel
		}
		if c.parent == 0 {
			continue
		}
		parent := &h.clusters[c.parent]
		if c.propagatedLowestChildSplitLevel < parent.propagatedLowestChildSplitLevel {
			parent.propagatedLowestChildSplitLevel = c.propagatedLowestChildSplitLevel
		}
		if !c.hasChildren || c.stability >= c.propagatedStability {
			parent.propagatedStability += c.stability
			parent.propagatedDescendants = append(parent.propagatedDescendants, label)
		} else {
			parent.propagatedStability += c.propagatedStability
			parent.propagatedDescendants = append(parent.propagatedDescendants, c.propagatedDescendants...)
		}
	}
}

// prominentLabels produces the flat clustering: for each selected
// cluster, the point labels recorded at the level where it appeared,
// applied from the shallowest level down so deeper selections win.
func (h *hierarchy) prominentLabels() []int {
	solution := h.clusters[1].propagatedDescendants

	flat := make([]int, h.numPoints) // noiseClusterLabel by default

	byLevel := make(map[int][]int)
	var levels []int
	for _, label := range solution {
		level := h.clusters[label].hierarchyLevel
		if _, ok := byLevel[level]; !ok {
			levels = append(levels, level)
		}
		byLevel[level] = append(byLevel[level], label)
	}
	sort.Ints(levels)

	for _, level := range levels {
		snapshot := h.levelLabels[level]
		selected := byLevel[level]
		for i, label := range snapshot {
			if containsInt(selected, label) {
				flat[i] = label
			}
		}
	}
	return flat
}

func maxKey(set map[int]struct{}) int {
	max := math.MinInt
	for k := range set {
		if k > max {
			max = k
		}
	}
	return max
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}
