package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/studyforge/studyforge-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

const sampleGraphML = `<?xml version="1.0" encoding="UTF-8"?>
<graphml xmlns="http://graphml.graphdrawing.org/xmlns">
  <key id="d0" for="edge" attr.name="relation" attr.type="string"/>
  <graph edgedefault="directed">
    <node id="animal"/>
    <node id="dog"/>
    <node id="cat"/>
    <node id="stray"/>
    <edge source="dog" target="animal"><data key="d0">is_a</data></edge>
    <edge source="cat" target="animal"><data key="d0">Is A</data></edge>
  </graph>
</graphml>`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFindGraphML_NewestWins(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "export_old.graphml")
	newer := filepath.Join(dir, "nested", "export_new.graphml")
	writeFile(t, older, sampleGraphML)
	writeFile(t, newer, sampleGraphML)

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	got, err := FindGraphML(dir)
	if err != nil {
		t.Fatalf("FindGraphML: %v", err)
	}
	if got != newer {
		t.Fatalf("expected newest file %s, got %s", newer, got)
	}
}

func TestFindGraphML_NotFound(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "notes.txt"), "not a graph")

	_, err := FindGraphML(dir)
	if !errors.Is(err, ErrSchemaNotFound) {
		t.Fatalf("expected ErrSchemaNotFound, got %v", err)
	}
}

func TestLoadGraphML_ResolvesKeyTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.graphml")
	writeFile(t, path, sampleGraphML)

	g, err := LoadGraphML(path)
	if err != nil {
		t.Fatalf("LoadGraphML: %v", err)
	}
	if len(g.NodeIDs) != 4 {
		t.Fatalf("expected 4 nodes, got %d: %v", len(g.NodeIDs), g.NodeIDs)
	}
	if len(g.Edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(g.Edges))
	}
	if g.Edges[0].Attrs["relation"] != "is_a" {
		t.Fatalf("key table not resolved: %#v", g.Edges[0].Attrs)
	}
}

func TestLoadGraphML_RawKeyFallback(t *testing.T) {
	const noKeyTable = `<graphml>
  <graph edgedefault="directed">
    <edge source="a" target="b"><data key="rel">is_a</data></edge>
  </graph>
</graphml>`
	dir := t.TempDir()
	path := filepath.Join(dir, "bare.graphml")
	writeFile(t, path, noKeyTable)

	g, err := LoadGraphML(path)
	if err != nil {
		t.Fatalf("LoadGraphML: %v", err)
	}
	if len(g.Edges) != 1 || g.Edges[0].Attrs["rel"] != "is_a" {
		t.Fatalf("raw key fallback broken: %#v", g.Edges)
	}
}

func position(t *testing.T, blocks []TopicBlock, title string) int {
	t.Helper()
	for i, b := range blocks {
		if b.Title == title {
			return i
		}
	}
	t.Fatalf("block %q not in order: %#v", title, blocks)
	return -1
}

func TestOrderGraph_ToposortInvertsISA(t *testing.T) {
	g := &Graph{
		Path:    "sample.graphml",
		NodeIDs: []string{"animal", "dog", "cat", "puppy"},
		Edges: []LabeledEdge{
			{Source: "dog", Target: "animal", Attrs: map[string]string{"relation": "is_a"}},
			{Source: "cat", Target: "animal", Attrs: map[string]string{"label": "Is A"}},
			{Source: "puppy", Target: "dog", Attrs: map[string]string{"rel": "subclass_of"}},
			{Source: "dog", Target: "cat", Attrs: map[string]string{"relation": "related_to"}},
		},
	}

	blocks, err := OrderGraph(testLogger(t), g, Options{})
	if err != nil {
		t.Fatalf("OrderGraph: %v", err)
	}
	if len(blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(blocks))
	}

	// General concepts come before their specializations.
	if position(t, blocks, "animal") > position(t, blocks, "dog") {
		t.Fatalf("animal must precede dog")
	}
	if position(t, blocks, "dog") > position(t, blocks, "puppy") {
		t.Fatalf("dog must precede puppy")
	}

	levels := map[string]int{}
	for _, b := range blocks {
		levels[b.Title] = b.Level
	}
	if levels["animal"] != 0 || levels["dog"] != 1 || levels["cat"] != 1 || levels["puppy"] != 2 {
		t.Fatalf("unexpected levels: %#v", levels)
	}
	if blocks[0].Evidence["method"] != "schema_toposort" {
		t.Fatalf("unexpected evidence: %#v", blocks[0].Evidence)
	}
}

func TestOrderGraph_CycleBreakTerminates(t *testing.T) {
	g := &Graph{
		Path:    "cyclic.graphml",
		NodeIDs: []string{"a", "b", "c"},
		Edges: []LabeledEdge{
			{Source: "a", Target: "b", Attrs: map[string]string{"relation": "is_a"}},
			{Source: "b", Target: "c", Attrs: map[string]string{"relation": "is_a"}},
			{Source: "c", Target: "a", Attrs: map[string]string{"relation": "is_a"}},
		},
	}

	blocks, err := OrderGraph(testLogger(t), g, Options{CycleBreakCap: 10})
	if err != nil {
		t.Fatalf("OrderGraph: %v", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("cycle breaking must keep every node: got %d blocks", len(blocks))
	}
	seen := map[string]bool{}
	for _, b := range blocks {
		seen[b.Title] = true
	}
	if !seen["a"] || !seen["b"] || !seen["c"] {
		t.Fatalf("node lost during cycle break: %#v", seen)
	}
}

func TestOrderGraph_CentralityFallback(t *testing.T) {
	g := &Graph{
		Path:    "flat.graphml",
		NodeIDs: []string{"hub", "s1", "s2", "s3", "lonely"},
		Edges: []LabeledEdge{
			{Source: "hub", Target: "s1", Attrs: map[string]string{"relation": "related_to"}},
			{Source: "s2", Target: "hub", Attrs: map[string]string{"relation": "related_to"}},
			{Source: "hub", Target: "s3"},
		},
	}

	blocks, err := OrderGraph(testLogger(t), g, Options{})
	if err != nil {
		t.Fatalf("OrderGraph: %v", err)
	}
	if len(blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(blocks))
	}
	if blocks[0].Title != "hub" {
		t.Fatalf("most connected node must rank first, got %q", blocks[0].Title)
	}
	if blocks[0].Evidence["method"] != "degree_centrality" {
		t.Fatalf("unexpected evidence: %#v", blocks[0].Evidence)
	}
	// Ties (s1, s2, s3 all degree 1) break by ID.
	if blocks[1].Title != "s1" || blocks[2].Title != "s2" || blocks[3].Title != "s3" {
		t.Fatalf("tie break by id broken: %v, %v, %v", blocks[1].Title, blocks[2].Title, blocks[3].Title)
	}
	if blocks[4].Title != "lonely" {
		t.Fatalf("isolated node must rank last, got %q", blocks[4].Title)
	}
	for i, b := range blocks {
		if b.Level != i {
			t.Fatalf("centrality levels must be positional: block %d has level %d", i, b.Level)
		}
	}
}

func TestOrderGraph_CentralityCap(t *testing.T) {
	g := &Graph{
		Path:    "flat.graphml",
		NodeIDs: []string{"a", "b", "c", "d"},
		Edges: []LabeledEdge{
			{Source: "a", Target: "b"},
			{Source: "a", Target: "c"},
		},
	}
	blocks, err := OrderGraph(testLogger(t), g, Options{CentralityCap: 2})
	if err != nil {
		t.Fatalf("OrderGraph: %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("cap ignored: got %d blocks", len(blocks))
	}
}
