package schema

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/studyforge/studyforge-backend/internal/platform/logger"
)

// TopicBlock is one entry of the schema-derived ordering: a titled node
// group with a level, lower meaning more basic.
type TopicBlock struct {
	Title    string
	NodeIDs  []string
	Level    int
	Evidence map[string]any
}

// Relation attribute keys checked in order, and the normalized values that
// mark an edge as an is-a/type relation. Different exports label the
// relation field differently.
var (
	relationKeys = []string{"relation", "rel", "type", "predicate", "label"}
	isaValues    = map[string]struct{}{
		"is_a":        {},
		"isa":         {},
		"instance_of": {},
		"type_of":     {},
		"subclass_of": {},
	}
)

const (
	DefaultCycleBreakCap = 1000
	DefaultCentralityCap = 200
)

type Options struct {
	CycleBreakCap int
	CentralityCap int
}

// BuildOrder derives a basic-to-advanced ordering from the newest graph
// export under dir. Is-a edges are inverted so the more general concept is
// the source, then topologically sorted with bounded cycle-breaking. With
// no is-a edges at all, degree centrality on the undirected projection
// ranks nodes instead, most central first.
func BuildOrder(log *logger.Logger, dir string, opts Options) ([]TopicBlock, error) {
	path, err := FindGraphML(dir)
	if err != nil {
		return nil, err
	}
	g, err := LoadGraphML(path)
	if err != nil {
		return nil, err
	}
	return OrderGraph(log, g, opts)
}

// OrderGraph runs the ordering over an already-loaded graph.
func OrderGraph(log *logger.Logger, g *Graph, opts Options) ([]TopicBlock, error) {
	if opts.CycleBreakCap <= 0 {
		opts.CycleBreakCap = DefaultCycleBreakCap
	}
	if opts.CentralityCap <= 0 {
		opts.CentralityCap = DefaultCentralityCap
	}

	isaEdges := collectISAEdges(g)
	if len(isaEdges) > 0 {
		return orderByToposort(log, g, isaEdges, opts)
	}
	log.Info("no is-a edges in schema graph, falling back to degree centrality",
		"graphml", g.Path, "edges", len(g.Edges))
	return orderByCentrality(g, opts), nil
}

// collectISAEdges finds is-a edges and inverts them: "u is_a v" becomes
// v -> u so edges point from basic toward advanced.
func collectISAEdges(g *Graph) [][2]string {
	var out [][2]string
	for _, e := range g.Edges {
		var rel string
		found := false
		for _, k := range relationKeys {
			if v, ok := e.Attrs[k]; ok {
				rel = v
				found = true
				break
			}
		}
		if !found {
			continue
		}
		norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(rel), " ", "_"))
		if _, ok := isaValues[norm]; ok {
			out = append(out, [2]string{e.Target, e.Source})
		}
	}
	return out
}

func orderByToposort(log *logger.Logger, g *Graph, isaEdges [][2]string, opts Options) ([]TopicBlock, error) {
	idOf := make(map[string]int64)
	nameOf := make(map[int64]string)
	next := int64(0)
	intern := func(s string) int64 {
		if id, ok := idOf[s]; ok {
			return id
		}
		id := next
		next++
		idOf[s] = id
		nameOf[id] = s
		return id
	}

	dg := simple.NewDirectedGraph()
	for _, e := range isaEdges {
		from := intern(e[0])
		to := intern(e[1])
		if from == to {
			continue
		}
		dg.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}

	sorted, removed := sortBreakingCycles(dg, opts.CycleBreakCap)
	if removed > 0 {
		log.Warn("schema graph contained cycles, dropped edges to recover an order",
			"graphml", g.Path, "edges_removed", removed)
	}

	// Level per node: 1 + max level of predecessors, 0 for roots. Walking in
	// topological order guarantees predecessors are already leveled.
	level := make(map[int64]int, len(sorted))
	for _, n := range sorted {
		preds := dg.To(n.ID())
		max := -1
		for preds.Next() {
			if l := level[preds.Node().ID()]; l > max {
				max = l
			}
		}
		level[n.ID()] = max + 1
	}

	blocks := make([]TopicBlock, 0, len(sorted))
	for _, n := range sorted {
		name := nameOf[n.ID()]
		blocks = append(blocks, TopicBlock{
			Title:   name,
			NodeIDs: []string{name},
			Level:   level[n.ID()],
			Evidence: map[string]any{
				"graphml": g.Path,
				"method":  "schema_toposort",
			},
		})
	}
	return blocks, nil
}

// sortBreakingCycles attempts Kahn ordering; while the graph is unorderable
// it removes one edge from one detected cycle and retries, bounded by cap.
// The result is always a complete order, possibly one that no longer
// respects every original edge. On cap exhaustion the remaining cyclic
// nodes are appended after the orderable prefix.
func sortBreakingCycles(dg *simple.DirectedGraph, maxIter int) ([]graph.Node, int) {
	removed := 0
	for i := 0; i < maxIter; i++ {
		sorted, err := topo.Sort(dg)
		if err == nil {
			return sorted, removed
		}
		unorderable, ok := err.(topo.Unorderable)
		if !ok || len(unorderable) == 0 || len(unorderable[0]) == 0 {
			return compactOrder(dg, sorted), removed
		}
		if !removeCycleEdge(dg, unorderable[0]) {
			return compactOrder(dg, sorted), removed
		}
		removed++
	}
	sorted, _ := topo.Sort(dg)
	return compactOrder(dg, sorted), removed
}

// removeCycleEdge drops one edge internal to the given cyclic component.
func removeCycleEdge(dg *simple.DirectedGraph, component []graph.Node) bool {
	inComp := make(map[int64]struct{}, len(component))
	for _, n := range component {
		inComp[n.ID()] = struct{}{}
	}
	for _, u := range component {
		to := dg.From(u.ID())
		for to.Next() {
			v := to.Node()
			if _, ok := inComp[v.ID()]; ok {
				dg.RemoveEdge(u.ID(), v.ID())
				return true
			}
		}
	}
	return false
}

// compactOrder fills the nil slots a failed topo.Sort leaves for cyclic
// components with those components' nodes, keeping the order complete.
func compactOrder(dg *simple.DirectedGraph, sorted []graph.Node) []graph.Node {
	seen := make(map[int64]struct{}, len(sorted))
	out := make([]graph.Node, 0, len(sorted))
	for _, n := range sorted {
		if n == nil {
			continue
		}
		seen[n.ID()] = struct{}{}
		out = append(out, n)
	}
	rest := make([]graph.Node, 0)
	all := dg.Nodes()
	for all.Next() {
		n := all.Node()
		if _, ok := seen[n.ID()]; !ok {
			rest = append(rest, n)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].ID() < rest[j].ID() })
	return append(out, rest...)
}

// orderByCentrality ranks nodes by degree centrality on the undirected
// projection, most central (presumed most foundational) first, capped for
// output size. Ties break by node ID so the order is deterministic.
func orderByCentrality(g *Graph, opts Options) []TopicBlock {
	neighbors := make(map[string]map[string]struct{}, len(g.NodeIDs))
	for _, id := range g.NodeIDs {
		neighbors[id] = make(map[string]struct{})
	}
	for _, e := range g.Edges {
		if e.Source == e.Target {
			continue
		}
		if neighbors[e.Source] == nil {
			neighbors[e.Source] = make(map[string]struct{})
		}
		if neighbors[e.Target] == nil {
			neighbors[e.Target] = make(map[string]struct{})
		}
		neighbors[e.Source][e.Target] = struct{}{}
		neighbors[e.Target][e.Source] = struct{}{}
	}

	n := len(neighbors)
	type ranked struct {
		id    string
		score float64
	}
	items := make([]ranked, 0, n)
	for id, ns := range neighbors {
		score := 0.0
		if n > 1 {
			score = float64(len(ns)) / float64(n-1)
		}
		items = append(items, ranked{id: id, score: score})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].id < items[j].id
	})

	if len(items) > opts.CentralityCap {
		items = items[:opts.CentralityCap]
	}
	blocks := make([]TopicBlock, 0, len(items))
	for i, it := range items {
		blocks = append(blocks, TopicBlock{
			Title:   it.id,
			NodeIDs: []string{it.id},
			Level:   i,
			Evidence: map[string]any{
				"graphml": g.Path,
				"method":  "degree_centrality",
				"score":   it.score,
			},
		})
	}
	return blocks
}
