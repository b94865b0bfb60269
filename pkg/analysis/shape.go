// Package analysis derives structural statistics from an outline tree:
// how deep it runs, how wide it fans out, and where its weight sits.
// The UI's stats overlay and the export snapshots both render from
// ShapeStats.
package analysis

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/vanderheijden86/treeline/pkg/metrics"
	"github.com/vanderheijden86/treeline/pkg/tree"
)

// ShapeStats summarizes the topology of an outline.
type ShapeStats struct {
	NodeCount   int `json:"node_count"`
	BranchCount int `json:"branch_count"`
	LeafCount   int `json:"leaf_count"`
	RootCount   int `json:"root_count"`

	// Depth is 0-based: top-level nodes sit at depth 0.
	MaxDepth    int     `json:"max_depth"`
	MeanDepth   float64 `json:"mean_depth"`
	DepthStdDev float64 `json:"depth_std_dev"`

	// Branching counts children per branch. A declared branch whose
	// children are not loaded yet counts as 0.
	MeanBranching   float64 `json:"mean_branching"`
	BranchingStdDev float64 `json:"branching_std_dev"`
	MaxBranching    int     `json:"max_branching"`

	// Subtree sizes are taken over branches and include the branch
	// itself.
	MedianSubtreeSize  float64 `json:"median_subtree_size"`
	P90SubtreeSize     float64 `json:"p90_subtree_size"`
	LargestSubtree     string  `json:"largest_subtree"`
	LargestSubtreeSize int     `json:"largest_subtree_size"`

	// DepthHistogram[d] is the number of nodes at depth d.
	DepthHistogram []int `json:"depth_histogram"`

	// WidestDepth is the level holding the most nodes.
	WidestDepth int `json:"widest_depth"`
	WidestWidth int `json:"widest_width"`

	// Imbalance is the share of all nodes under the heaviest top-level
	// node, 0..1. An outline where everything hangs off one root scores
	// 1.
	Imbalance float64 `json:"imbalance"`
}

// AnalyzeShape computes ShapeStats for a built tree. A nil or empty
// tree yields the zero value.
func AnalyzeShape(t *tree.Tree) ShapeStats {
	defer metrics.Timer(metrics.ShapeAnalysis)()

	var s ShapeStats
	if t == nil || t.Len() == 0 {
		return s
	}

	ids := t.IDs()
	s.NodeCount = len(ids)
	s.RootCount = len(t.Roots())

	depths := make([]float64, 0, len(ids))
	var branching []float64

	for _, id := range ids {
		d := t.Depth(id)
		depths = append(depths, float64(d))
		if d > s.MaxDepth {
			s.MaxDepth = d
		}
		for len(s.DepthHistogram) <= d {
			s.DepthHistogram = append(s.DepthHistogram, 0)
		}
		s.DepthHistogram[d]++

		if t.IsBranch(id) {
			s.BranchCount++
			kids := len(t.ChildIDs(id))
			branching = append(branching, float64(kids))
			if kids > s.MaxBranching {
				s.MaxBranching = kids
			}
		} else {
			s.LeafCount++
		}
	}

	s.MeanDepth = stat.Mean(depths, nil)
	s.DepthStdDev = sampleStdDev(depths)

	if len(branching) > 0 {
		s.MeanBranching = stat.Mean(branching, nil)
		s.BranchingStdDev = sampleStdDev(branching)
	}

	for d, width := range s.DepthHistogram {
		if width > s.WidestWidth {
			s.WidestWidth = width
			s.WidestDepth = d
		}
	}

	sizes := SubtreeSizes(t)
	var branchSizes []float64
	for _, id := range ids {
		if !t.IsBranch(id) {
			continue
		}
		size := sizes[id]
		branchSizes = append(branchSizes, float64(size))
		if size > s.LargestSubtreeSize {
			s.LargestSubtreeSize = size
			s.LargestSubtree = id
		}
	}
	if len(branchSizes) > 0 {
		sort.Float64s(branchSizes)
		s.MedianSubtreeSize = stat.Quantile(0.5, stat.Empirical, branchSizes, nil)
		s.P90SubtreeSize = stat.Quantile(0.9, stat.Empirical, branchSizes, nil)
	}

	heaviest := 0
	for _, root := range t.Roots() {
		if size := sizes[root]; size > heaviest {
			heaviest = size
		}
	}
	s.Imbalance = float64(heaviest) / float64(s.NodeCount)

	return s
}

// sampleStdDev wraps stat.StdDev, which is NaN below two samples.
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// SubtreeSizes returns the node count of every subtree, keyed by id. A
// leaf's subtree size is 1. Relies on IDs() being preorder: iterating
// it backwards visits children before their parents.
func SubtreeSizes(t *tree.Tree) map[string]int {
	ids := t.IDs()
	sizes := make(map[string]int, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		size := 1
		for _, child := range t.ChildIDs(id) {
			size += sizes[child]
		}
		sizes[id] = size
	}
	return sizes
}

// DeepestPath returns a root-to-leaf path of maximal depth, the
// leftmost one when several tie. Empty trees return nil.
func DeepestPath(t *tree.Tree) []string {
	if t == nil || t.Len() == 0 {
		return nil
	}

	deepest := ""
	best := -1
	for _, id := range t.IDs() {
		if d := t.Depth(id); d > best {
			best = d
			deepest = id
		}
	}

	ancestors := t.AncestorIDs(deepest)
	path := make([]string, 0, len(ancestors)+1)
	for i := len(ancestors) - 1; i >= 0; i-- {
		path = append(path, ancestors[i])
	}
	return append(path, deepest)
}

// Summary renders the stats as a short human-readable block for robot
// mode and the stats overlay.
func (s ShapeStats) Summary() string {
	if s.NodeCount == 0 {
		return "Empty outline\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d nodes (%d branches, %d leaves) across %d top-level entries\n",
		s.NodeCount, s.BranchCount, s.LeafCount, s.RootCount)
	fmt.Fprintf(&b, "Depth: max %d, mean %.1f; widest level holds %d nodes at depth %d\n",
		s.MaxDepth, s.MeanDepth, s.WidestWidth, s.WidestDepth)
	if s.BranchCount > 0 {
		fmt.Fprintf(&b, "Branching: mean %.1f, max %d; median subtree %.0f nodes\n",
			s.MeanBranching, s.MaxBranching, s.MedianSubtreeSize)
	}
	if s.LargestSubtree != "" {
		fmt.Fprintf(&b, "Largest subtree: %s (%d nodes, %.0f%% of the outline)\n",
			s.LargestSubtree, s.LargestSubtreeSize,
			100*float64(s.LargestSubtreeSize)/float64(s.NodeCount))
	}
	return b.String()
}
