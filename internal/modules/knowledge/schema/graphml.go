package schema

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrSchemaNotFound reports that no graph-exchange artifact exists under the
// schema directory. Fatal to the schema ordering path; never retried.
var ErrSchemaNotFound = errors.New("schema: no graphml artifact found")

type graphmlKey struct {
	ID       string `xml:"id,attr"`
	For      string `xml:"for,attr"`
	AttrName string `xml:"attr.name,attr"`
}

type graphmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

type graphmlNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphmlData `xml:"data"`
}

type graphmlEdge struct {
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphmlData `xml:"data"`
}

type graphmlGraph struct {
	EdgeDefault string        `xml:"edgedefault,attr"`
	Nodes       []graphmlNode `xml:"node"`
	Edges       []graphmlEdge `xml:"edge"`
}

type graphmlDoc struct {
	XMLName xml.Name       `xml:"graphml"`
	Keys    []graphmlKey   `xml:"key"`
	Graphs  []graphmlGraph `xml:"graph"`
}

// Graph is the parsed graph-exchange file: node IDs plus labeled directed
// edges with their attribute maps keyed by attr.name.
type Graph struct {
	Path    string
	NodeIDs []string
	Edges   []LabeledEdge
}

type LabeledEdge struct {
	Source string
	Target string
	Attrs  map[string]string
}

// FindGraphML locates the most recently modified *.graphml file under dir,
// searching recursively. Multiple exports can accumulate; the newest wins.
func FindGraphML(dir string) (string, error) {
	var newest string
	var newestMod int64 = -1
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".graphml") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if mod := info.ModTime().UnixNano(); mod > newestMod {
			newestMod = mod
			newest = path
		}
		return nil
	})
	if err != nil && newest == "" {
		return "", fmt.Errorf("%w: %s", ErrSchemaNotFound, dir)
	}
	if newest == "" {
		return "", fmt.Errorf("%w: %s", ErrSchemaNotFound, dir)
	}
	return newest, nil
}

// LoadGraphML parses a GraphML export. Edge data entries are resolved
// through the key table so attributes are addressable by attr.name; exports
// that omit the key table fall back to the raw key id.
func LoadGraphML(path string) (*Graph, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: read %s: %w", path, err)
	}
	var doc graphmlDoc
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("schema: parse %s: %w", path, err)
	}

	keyNames := make(map[string]string, len(doc.Keys))
	for _, k := range doc.Keys {
		name := k.AttrName
		if name == "" {
			name = k.ID
		}
		keyNames[k.ID] = name
	}

	g := &Graph{Path: path}
	seen := make(map[string]struct{})
	addNode := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		g.NodeIDs = append(g.NodeIDs, id)
	}

	for _, graph := range doc.Graphs {
		for _, n := range graph.Nodes {
			addNode(n.ID)
		}
		for _, e := range graph.Edges {
			if e.Source == "" || e.Target == "" {
				continue
			}
			addNode(e.Source)
			addNode(e.Target)
			attrs := make(map[string]string, len(e.Data))
			for _, d := range e.Data {
				name := keyNames[d.Key]
				if name == "" {
					name = d.Key
				}
				attrs[name] = strings.TrimSpace(d.Value)
			}
			g.Edges = append(g.Edges, LabeledEdge{Source: e.Source, Target: e.Target, Attrs: attrs})
		}
	}
	return g, nil
}
