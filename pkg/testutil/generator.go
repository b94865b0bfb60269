// Package testutil provides outline fixture generators for various tree
// topologies. All generators produce deterministic output for reproducible
// tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/vanderheijden86/treeline/pkg/tree"
)

// OutlineFixture represents a generated outline for testing tree behavior.
type OutlineFixture struct {
	Description string      `json:"description"`
	Nodes       []tree.Node `json:"nodes"`
	Properties  Properties  `json:"properties,omitempty"`
}

// Properties holds expectations about the fixture's shape.
type Properties struct {
	MaxDepth int `json:"max_depth"`
	Roots    int `json:"roots"`
	Leaves   int `json:"leaves"`
}

// GeneratorConfig controls outline generation.
type GeneratorConfig struct {
	Seed         int64  // Random seed for determinism (0 = use current time)
	IDPrefix     string // Prefix prepended to every node id (default: none)
	IncludeNotes bool   // Attach notes to every third node
	IncludeMeta  bool   // Attach a kind meta entry to every node
}

// DefaultConfig returns a config suitable for most tests.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Seed: 42, // Deterministic
	}
}

// Generator creates outline fixtures with various topologies.
type Generator struct {
	cfg GeneratorConfig
	rng *rand.Rand
}

// New creates a Generator with the given config.
func New(cfg GeneratorConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// NewDefault creates a Generator with default config.
func NewDefault() *Generator {
	return New(DefaultConfig())
}

// ============================================================================
// Outline Topology Generators
// ============================================================================

// Chain creates a single path: n0 > n1 > ... > n{size-1}, each node the only
// child of the previous one.
// Properties: one root, one leaf, depth = size-1
func (g *Generator) Chain(size int) OutlineFixture {
	if size < 1 {
		size = 1
	}

	nodes := make([]tree.Node, size)
	for i := 0; i < size; i++ {
		id := g.id(fmt.Sprintf("n%d", i))
		nodes[i] = tree.Node{ID: id, Name: displayName(id)}
		if i > 0 {
			nodes[i-1].Children = []string{id}
		}
	}

	return OutlineFixture{
		Description: fmt.Sprintf("Chain of %d nodes: n0 > n1 > ... > n%d", size, size-1),
		Nodes:       g.decorate(nodes),
		Properties: Properties{
			MaxDepth: size - 1,
			Roots:    1,
			Leaves:   1,
		},
	}
}

// Star creates one hub with `spokes` leaf children.
// Properties: one root, depth 1 (0 when the hub stands alone)
func (g *Generator) Star(spokes int) OutlineFixture {
	if spokes < 0 {
		spokes = 0
	}

	hub := tree.Node{ID: g.id("hub"), Name: "Hub"}
	nodes := make([]tree.Node, 0, spokes+1)
	for i := 1; i <= spokes; i++ {
		id := g.id(fmt.Sprintf("spoke%d", i))
		hub.Children = append(hub.Children, id)
		nodes = append(nodes, tree.Node{ID: id, Name: displayName(id)})
	}
	nodes = append([]tree.Node{hub}, nodes...)

	depth := 1
	leaves := spokes
	if spokes == 0 {
		depth = 0
		leaves = 1
	}

	return OutlineFixture{
		Description: fmt.Sprintf("Star with hub and %d spokes", spokes),
		Nodes:       g.decorate(nodes),
		Properties: Properties{
			MaxDepth: depth,
			Roots:    1,
			Leaves:   leaves,
		},
	}
}

// KAry creates a full tree with the given depth and branching factor.
// Each non-leaf node has `breadth` children.
func (g *Generator) KAry(depth, breadth int) OutlineFixture {
	if depth < 1 {
		depth = 1
	}
	if breadth < 1 {
		breadth = 1
	}

	var nodes []tree.Node
	nodeID := 0
	newNode := func() int {
		id := g.id(fmt.Sprintf("n%d", nodeID))
		nodes = append(nodes, tree.Node{ID: id, Name: displayName(id)})
		nodeID++
		return nodeID - 1
	}

	currentLevel := []int{newNode()}
	for d := 0; d < depth; d++ {
		var nextLevel []int
		for _, parent := range currentLevel {
			for b := 0; b < breadth; b++ {
				child := newNode()
				nodes[parent].Children = append(nodes[parent].Children, nodes[child].ID)
				nextLevel = append(nextLevel, child)
			}
		}
		currentLevel = nextLevel
	}

	return OutlineFixture{
		Description: fmt.Sprintf("Full tree with depth=%d, breadth=%d (%d nodes)", depth, breadth, len(nodes)),
		Nodes:       g.decorate(nodes),
		Properties: Properties{
			MaxDepth: depth,
			Roots:    1,
			Leaves:   len(currentLevel),
		},
	}
}

// Comb creates a spine chain where every spine node also carries one leaf
// tooth: s0 > (t0, s1 > (t1, s2 > ...)).
// Properties: one root, `length` leaf teeth, depth = length
func (g *Generator) Comb(length int) OutlineFixture {
	if length < 1 {
		length = 1
	}

	nodes := make([]tree.Node, 0, length*2)
	for i := 0; i < length; i++ {
		spineID := g.id(fmt.Sprintf("s%d", i))
		toothID := g.id(fmt.Sprintf("t%d", i))
		spine := tree.Node{ID: spineID, Name: displayName(spineID), Children: []string{toothID}}
		if i < length-1 {
			spine.Children = append(spine.Children, g.id(fmt.Sprintf("s%d", i+1)))
		}
		nodes = append(nodes, spine, tree.Node{ID: toothID, Name: displayName(toothID)})
	}

	return OutlineFixture{
		Description: fmt.Sprintf("Comb with %d spine nodes, one tooth each", length),
		Nodes:       g.decorate(nodes),
		Properties: Properties{
			MaxDepth: length,
			Roots:    1,
			Leaves:   length,
		},
	}
}

// Forest creates `roots` disjoint chains of `chainLen` nodes each. Outlines
// allow multiple top-level nodes, so this needs no synthetic root.
func (g *Generator) Forest(roots, chainLen int) OutlineFixture {
	if roots < 1 {
		roots = 1
	}
	if chainLen < 1 {
		chainLen = 1
	}

	nodes := make([]tree.Node, 0, roots*chainLen)
	for r := 0; r < roots; r++ {
		for i := 0; i < chainLen; i++ {
			id := g.id(fmt.Sprintf("c%d_n%d", r, i))
			nodes = append(nodes, tree.Node{ID: id, Name: displayName(id)})
			if i > 0 {
				prev := len(nodes) - 2
				nodes[prev].Children = []string{id}
			}
		}
	}

	return OutlineFixture{
		Description: fmt.Sprintf("%d root chains of %d nodes each", roots, chainLen),
		Nodes:       g.decorate(nodes),
		Properties: Properties{
			MaxDepth: chainLen - 1,
			Roots:    roots,
			Leaves:   roots,
		},
	}
}

// Random creates a random tree: every node after the first attaches to a
// uniformly chosen earlier node, which keeps the result a valid single-parent
// outline. Shape depends only on the seed.
func (g *Generator) Random(size int) OutlineFixture {
	if size < 1 {
		size = 1
	}

	parents := make([]int, size)
	depths := make([]int, size)
	children := make(map[int][]int, size)
	maxDepth := 0
	for i := 1; i < size; i++ {
		p := g.rng.Intn(i)
		parents[i] = p
		depths[i] = depths[p] + 1
		children[p] = append(children[p], i)
		if depths[i] > maxDepth {
			maxDepth = depths[i]
		}
	}

	nodes := make([]tree.Node, size)
	leaves := 0
	for i := 0; i < size; i++ {
		id := g.id(fmt.Sprintf("n%d", i))
		nodes[i] = tree.Node{ID: id, Name: displayName(id)}
		for _, c := range children[i] {
			nodes[i].Children = append(nodes[i].Children, g.id(fmt.Sprintf("n%d", c)))
		}
		if len(children[i]) == 0 {
			leaves++
		}
	}

	return OutlineFixture{
		Description: fmt.Sprintf("Random tree with %d nodes (seeded)", size),
		Nodes:       g.decorate(nodes),
		Properties: Properties{
			MaxDepth: maxDepth,
			Roots:    1,
			Leaves:   leaves,
		},
	}
}

// LazyBranches creates a hub with `loaded` leaf children plus `declared`
// children flagged as branches with no children yet, the shape an
// async-loading outline has before expansion fetches grandchildren.
func (g *Generator) LazyBranches(loaded, declared int) OutlineFixture {
	if loaded < 0 {
		loaded = 0
	}
	if declared < 0 {
		declared = 0
	}

	hub := tree.Node{ID: g.id("hub"), Name: "Hub"}
	nodes := make([]tree.Node, 0, loaded+declared+1)
	for i := 1; i <= loaded; i++ {
		id := g.id(fmt.Sprintf("leaf%d", i))
		hub.Children = append(hub.Children, id)
		nodes = append(nodes, tree.Node{ID: id, Name: displayName(id)})
	}
	for i := 1; i <= declared; i++ {
		id := g.id(fmt.Sprintf("branch%d", i))
		hub.Children = append(hub.Children, id)
		nodes = append(nodes, tree.Node{ID: id, Name: displayName(id), IsBranch: true})
	}
	nodes = append([]tree.Node{hub}, nodes...)

	return OutlineFixture{
		Description: fmt.Sprintf("Hub with %d loaded leaves and %d declared branches", loaded, declared),
		Nodes:       g.decorate(nodes),
		Properties: Properties{
			MaxDepth: 1,
			Roots:    1,
			Leaves:   loaded,
		},
	}
}

// ============================================================================
// Decoration and serialization
// ============================================================================

var sampleNotes = []string{
	"needs a second pass",
	"double-check before the trip",
	"moved here from the inbox",
	"see the shared doc for details",
	"optional, skip when short on time",
}

var sampleKinds = []string{"chapter", "section", "task", "topic", "reference"}

// decorate attaches notes and meta per the generator config. Every third
// node gets a note; the note text and meta kind vary with the seed.
func (g *Generator) decorate(nodes []tree.Node) []tree.Node {
	if !g.cfg.IncludeNotes && !g.cfg.IncludeMeta {
		return nodes
	}
	for i := range nodes {
		if g.cfg.IncludeNotes && i%3 == 0 {
			nodes[i].Notes = sampleNotes[g.rng.Intn(len(sampleNotes))]
		}
		if g.cfg.IncludeMeta {
			nodes[i].Meta = map[string]string{
				"kind": sampleKinds[g.rng.Intn(len(sampleKinds))],
			}
		}
	}
	return nodes
}

func (g *Generator) id(base string) string {
	return g.cfg.IDPrefix + base
}

func displayName(id string) string {
	if id == "" {
		return id
	}
	return strings.ToUpper(id[:1]) + id[1:]
}

// ToJSONL converts nodes to JSONL format (one JSON object per line), the
// flat form the data sources read.
func ToJSONL(nodes []tree.Node) string {
	var sb strings.Builder
	for _, node := range nodes {
		data, err := json.Marshal(node)
		if err != nil {
			continue
		}
		sb.Write(data)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ============================================================================
// Convenience Functions
// ============================================================================

// QuickChain creates a chain fixture with default settings.
func QuickChain(size int) []tree.Node {
	return NewDefault().Chain(size).Nodes
}

// QuickStar creates a star fixture with default settings.
func QuickStar(spokes int) []tree.Node {
	return NewDefault().Star(spokes).Nodes
}

// QuickKAry creates a full-tree fixture with default settings.
func QuickKAry(depth, breadth int) []tree.Node {
	return NewDefault().KAry(depth, breadth).Nodes
}

// QuickComb creates a comb fixture with default settings.
func QuickComb(length int) []tree.Node {
	return NewDefault().Comb(length).Nodes
}

// QuickForest creates a multi-root fixture with default settings.
func QuickForest(roots, chainLen int) []tree.Node {
	return NewDefault().Forest(roots, chainLen).Nodes
}

// QuickRandom creates a seeded random tree with default settings.
func QuickRandom(size int) []tree.Node {
	return NewDefault().Random(size).Nodes
}

// Empty returns an empty node slice for edge case testing.
func Empty() []tree.Node {
	return []tree.Node{}
}

// Single returns a lone root node.
func Single() []tree.Node {
	return []tree.Node{{ID: "single", Name: "Single"}}
}
