package datasource

import (
	"fmt"

	"github.com/vanderheijden86/treeline/pkg/tree"
)

// SourceDiff describes how two outline sources disagree.
type SourceDiff struct {
	// SourceA is the path of the first source.
	SourceA string
	// SourceB is the path of the second source.
	SourceB string
	// MissingInA lists node ids present in B but not in A.
	MissingInA []string
	// MissingInB lists node ids present in A but not in B.
	MissingInB []string
	// Renamed lists nodes whose display name differs between sources.
	Renamed []NameDifference
	// Moved lists nodes whose parent differs between sources.
	Moved []ParentDifference
	// CountA is the number of nodes in source A.
	CountA int
	// CountB is the number of nodes in source B.
	CountB int
}

// NameDifference is a display-name mismatch for a single node.
type NameDifference struct {
	ID    string `json:"id"`
	NameA string `json:"name_a"`
	NameB string `json:"name_b"`
}

// ParentDifference is a parent mismatch for a single node. An empty
// parent means top level.
type ParentDifference struct {
	ID      string `json:"id"`
	ParentA string `json:"parent_a"`
	ParentB string `json:"parent_b"`
}

// HasInconsistencies reports whether the sources differ at all.
func (d SourceDiff) HasInconsistencies() bool {
	return len(d.MissingInA) > 0 || len(d.MissingInB) > 0 ||
		len(d.Renamed) > 0 || len(d.Moved) > 0
}

// Summary returns a human-readable description of the differences.
func (d SourceDiff) Summary() string {
	if !d.HasInconsistencies() {
		return fmt.Sprintf("Sources match (%d nodes each)", d.CountA)
	}

	summary := fmt.Sprintf("Inconsistencies found between %s and %s:\n", d.SourceA, d.SourceB)

	if d.CountA != d.CountB {
		summary += fmt.Sprintf("  - Count mismatch: %d vs %d\n", d.CountA, d.CountB)
	}
	if len(d.MissingInA) > 0 {
		summary += fmt.Sprintf("  - %d nodes in %s but not %s\n", len(d.MissingInA), d.SourceB, d.SourceA)
		if len(d.MissingInA) <= 5 {
			for _, id := range d.MissingInA {
				summary += fmt.Sprintf("    - %s\n", id)
			}
		}
	}
	if len(d.MissingInB) > 0 {
		summary += fmt.Sprintf("  - %d nodes in %s but not %s\n", len(d.MissingInB), d.SourceA, d.SourceB)
		if len(d.MissingInB) <= 5 {
			for _, id := range d.MissingInB {
				summary += fmt.Sprintf("    - %s\n", id)
			}
		}
	}
	if len(d.Renamed) > 0 {
		summary += fmt.Sprintf("  - %d nodes renamed\n", len(d.Renamed))
		if len(d.Renamed) <= 5 {
			for _, m := range d.Renamed {
				summary += fmt.Sprintf("    - %s: %q vs %q\n", m.ID, m.NameA, m.NameB)
			}
		}
	}
	if len(d.Moved) > 0 {
		summary += fmt.Sprintf("  - %d nodes moved\n", len(d.Moved))
		if len(d.Moved) <= 5 {
			for _, m := range d.Moved {
				summary += fmt.Sprintf("    - %s: under %q vs %q\n", m.ID, orTopLevel(m.ParentA), orTopLevel(m.ParentB))
			}
		}
	}
	return summary
}

func orTopLevel(parent string) string {
	if parent == "" {
		return "top level"
	}
	return parent
}

// DiffOptions configures the diff operation.
type DiffOptions struct {
	// MaxDifferences caps the number of differences tracked per category
	// (0 = unlimited).
	MaxDifferences int
}

// DefaultDiffOptions returns the defaults used by the sources command.
func DefaultDiffOptions() DiffOptions {
	return DiffOptions{MaxDifferences: 100}
}

// DetectInconsistencies compares two node lists and returns their
// differences. Parent relations are derived the same way the tree index
// derives them, so a child listed by a vanished branch counts as moved,
// not missing.
func DetectInconsistencies(nodesA, nodesB []tree.Node, sourceA, sourceB string, opts DiffOptions) SourceDiff {
	diff := SourceDiff{SourceA: sourceA, SourceB: sourceB}

	mapA, parentA := indexNodes(nodesA)
	mapB, parentB := indexNodes(nodesB)
	diff.CountA = len(mapA)
	diff.CountB = len(mapB)

	room := func(n int) bool { return opts.MaxDifferences == 0 || n < opts.MaxDifferences }

	for id := range mapA {
		if _, exists := mapB[id]; !exists && room(len(diff.MissingInB)) {
			diff.MissingInB = append(diff.MissingInB, id)
		}
	}
	for id, nodeB := range mapB {
		nodeA, exists := mapA[id]
		if !exists {
			if room(len(diff.MissingInA)) {
				diff.MissingInA = append(diff.MissingInA, id)
			}
			continue
		}
		if nodeA.Name != nodeB.Name && room(len(diff.Renamed)) {
			diff.Renamed = append(diff.Renamed, NameDifference{
				ID:    id,
				NameA: nodeA.Name,
				NameB: nodeB.Name,
			})
		}
		if parentA[id] != parentB[id] && room(len(diff.Moved)) {
			diff.Moved = append(diff.Moved, ParentDifference{
				ID:      id,
				ParentA: parentA[id],
				ParentB: parentB[id],
			})
		}
	}
	return diff
}

// indexNodes builds id and parent lookups from a flat node list.
func indexNodes(nodes []tree.Node) (map[string]tree.Node, map[string]string) {
	byID := make(map[string]tree.Node, len(nodes))
	parent := make(map[string]string)
	for _, n := range nodes {
		byID[n.ID] = n
	}
	for _, n := range nodes {
		for _, child := range n.Children {
			if _, known := byID[child]; known {
				parent[child] = n.ID
			}
		}
	}
	return byID, parent
}

// CompareSources loads both sources and diffs their node lists.
func CompareSources(sourceA, sourceB DataSource, opts DiffOptions) (*SourceDiff, error) {
	nodesA, err := loadNodesFromSource(sourceA)
	if err != nil {
		return nil, fmt.Errorf("failed to load source A (%s): %w", sourceA.Path, err)
	}
	nodesB, err := loadNodesFromSource(sourceB)
	if err != nil {
		return nil, fmt.Errorf("failed to load source B (%s): %w", sourceB.Path, err)
	}

	diff := DetectInconsistencies(nodesA, nodesB, sourceA.Path, sourceB.Path, opts)
	return &diff, nil
}

// CheckAllSourcesConsistent diffs every valid source pair and returns the
// pairs that disagree. Individual load failures skip the pair rather than
// aborting the sweep.
func CheckAllSourcesConsistent(sources []DataSource, opts DiffOptions) ([]SourceDiff, error) {
	var diffs []SourceDiff
	for i := 0; i < len(sources); i++ {
		if !sources[i].Valid {
			continue
		}
		for j := i + 1; j < len(sources); j++ {
			if !sources[j].Valid {
				continue
			}
			diff, err := CompareSources(sources[i], sources[j], opts)
			if err != nil {
				continue
			}
			if diff.HasInconsistencies() {
				diffs = append(diffs, *diff)
			}
		}
	}
	return diffs, nil
}
