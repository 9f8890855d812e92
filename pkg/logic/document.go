package logic

import (
	"encoding/json"
	"fmt"
	"os"
)

// documentVersion is bumped when the on-disk envelope changes shape.
const documentVersion = 1

// document is the JSON envelope the editor saves graphs in.
type document struct {
	Format        string `json:"format"`
	FormatVersion int    `json:"format_version"`
	Graph         *Graph `json:"graph"`
}

// SaveDocument writes the graph to path as an indented JSON document.
func SaveDocument(g *Graph, path string) error {
	doc := document{
		Format:        "fabula/graph",
		FormatVersion: documentVersion,
		Graph:         g,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("document marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("document write: %w", err)
	}
	return nil
}

// LoadDocument reads a graph document from path.
func LoadDocument(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("document read: %w", err)
	}
	return DecodeDocument(data)
}

// DecodeDocument parses a graph document from raw JSON.
func DecodeDocument(data []byte) (*Graph, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("document unmarshal: %w", err)
	}
	if doc.Graph == nil {
		return nil, fmt.Errorf("document has no graph")
	}
	if doc.FormatVersion > documentVersion {
		return nil, fmt.Errorf("document format version %d is newer than supported %d",
			doc.FormatVersion, documentVersion)
	}
	g := doc.Graph
	if g.Nodes == nil {
		g.Nodes = make(map[string]*Node)
	}
	if g.Connections == nil {
		g.Connections = make(map[string]*Connection)
	}
	if g.VariableRefs == nil {
		g.refreshVariableRefs()
	}
	return g, nil
}
