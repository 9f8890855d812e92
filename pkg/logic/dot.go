package logic

import (
	"fmt"
	"sort"
	"strings"

	gographviz "github.com/awalterschulze/gographviz"
)

// ParseDOT imports a graph sketched as a Graphviz digraph. Node attributes:
// type (node type, default custom), label, x/y (canvas position), and the
// condition triple variable/operator/value. An edge label selects the
// source output port by name ("True"/"False" on condition nodes); without
// one the first output port is used.
func ParseDOT(src string, f *Factory) (*Graph, error) {
	graphAst, err := gographviz.ParseString(src)
	if err != nil {
		return nil, fmt.Errorf("dot parse error: %w", err)
	}

	// Permissive collector: accepts any attribute name without the strict
	// validation gographviz.Graph performs.
	collector := newDOTCollector()
	if err := gographviz.Analyse(graphAst, collector); err != nil {
		return nil, fmt.Errorf("dot analyse error: %w", err)
	}

	g := NewGraph(collector.name)

	// Nodes first, in declaration-independent sorted order so generated
	// positions are stable.
	names := make([]string, 0, len(collector.nodes))
	for name := range collector.nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	byName := make(map[string]*Node, len(names))
	for i, name := range names {
		attrs := collector.nodes[name]
		typ := NodeType(attrs["type"])
		if typ == "" {
			typ = NodeTypeCustom
		}
		pos := Position{X: parseFloat(attrs["x"], float64(100+220*i)), Y: parseFloat(attrs["y"], 100)}

		config := map[string]any{}
		if v := attrs["variable"]; v != "" {
			config["variableId"] = v
		}
		if v := attrs["operator"]; v != "" {
			config["operator"] = v
		}
		if v := attrs["value"]; v != "" {
			config["value"] = v
		}

		n := f.NewNode(typ, pos, config)
		if lbl := attrs["label"]; lbl != "" {
			n.Label = lbl
		}
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
		byName[name] = n
	}

	for _, e := range collector.edges {
		src, ok := byName[e.from]
		if !ok {
			return nil, fmt.Errorf("dot: edge references unknown source node %q", e.from)
		}
		dst, ok := byName[e.to]
		if !ok {
			return nil, fmt.Errorf("dot: edge references unknown target node %q", e.to)
		}
		srcPort, err := pickOutputPort(src, e.label)
		if err != nil {
			return nil, err
		}
		dstPort, err := pickInputPort(dst)
		if err != nil {
			return nil, err
		}
		if _, err := g.Connect(src.ID, srcPort, dst.ID, dstPort); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func pickOutputPort(n *Node, label string) (string, error) {
	if len(n.Outputs) == 0 {
		return "", fmt.Errorf("dot: node %q has no output ports", n.Label)
	}
	if label != "" {
		for _, p := range n.Outputs {
			if strings.EqualFold(p.Name, label) {
				return p.ID, nil
			}
		}
	}
	return n.Outputs[0].ID, nil
}

func pickInputPort(n *Node) (string, error) {
	if len(n.Inputs) == 0 {
		return "", fmt.Errorf("dot: node %q has no input ports", n.Label)
	}
	return n.Inputs[0].ID, nil
}

func parseFloat(s string, fallback float64) float64 {
	if s == "" {
		return fallback
	}
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
		return fallback
	}
	return v
}

// RenderDOT produces a canonical DOT digraph for preview tooling.
func RenderDOT(g *Graph) string {
	var sb strings.Builder

	name := g.Name
	if name == "" {
		name = "graph"
	}
	fmt.Fprintf(&sb, "digraph %s {\n", dotQuote(name))

	for _, id := range g.sortedNodeIDs() {
		n := g.Nodes[id]
		parts := []string{
			"type=" + dotQuote(string(n.Type)),
			"label=" + dotQuote(n.Label),
		}
		if n.Condition != nil {
			parts = append(parts,
				"variable="+dotQuote(n.Condition.VariableID),
				"operator="+dotQuote(string(n.Condition.Operator)),
				"value="+dotQuote(fmt.Sprintf("%v", n.Condition.Value)))
		}
		fmt.Fprintf(&sb, "    %s [%s]\n", dotQuote(id), strings.Join(parts, " "))
	}

	for _, id := range sortedConnectionIDs(g) {
		c := g.Connections[id]
		label := ""
		if src, ok := g.Nodes[c.SourceNode]; ok {
			if p := src.OutputPort(c.SourcePort); p != nil && len(src.Outputs) > 1 {
				label = p.Name
			}
		}
		if label != "" {
			fmt.Fprintf(&sb, "    %s -> %s [label=%s]\n",
				dotQuote(c.SourceNode), dotQuote(c.TargetNode), dotQuote(label))
		} else {
			fmt.Fprintf(&sb, "    %s -> %s\n", dotQuote(c.SourceNode), dotQuote(c.TargetNode))
		}
	}

	sb.WriteString("}\n")
	return sb.String()
}

// dotQuote returns the value as a DOT-safe string, quoting if necessary.
func dotQuote(s string) string {
	needsQuote := s == "" || strings.ContainsAny(s, " \t\n\\\"{}[]<>=;,-")
	if needsQuote {
		escaped := strings.ReplaceAll(s, `\`, `\\`)
		escaped = strings.ReplaceAll(escaped, `"`, `\"`)
		return `"` + escaped + `"`
	}
	return s
}

// ─── permissive DOT collector ─────────────────────────────────────────────────

type rawDOTEdge struct {
	from, to string
	label    string
}

// dotCollector implements gographviz.Interface without attribute validation.
type dotCollector struct {
	name             string
	nodes            map[string]map[string]string
	edges            []rawDOTEdge
	graphAttrs       map[string]string
	defaultNodeAttrs map[string]string
}

func newDOTCollector() *dotCollector {
	return &dotCollector{
		nodes:            make(map[string]map[string]string),
		graphAttrs:       make(map[string]string),
		defaultNodeAttrs: make(map[string]string),
	}
}

func (c *dotCollector) SetStrict(_ bool) error { return nil }
func (c *dotCollector) SetDir(_ bool) error    { return nil }
func (c *dotCollector) SetName(n string) error { c.name = unquote(n); return nil }
func (c *dotCollector) String() string         { return c.name }

func (c *dotCollector) AddNode(_ string, name string, attrs map[string]string) error {
	id := unquote(name)
	if _, ok := c.nodes[id]; !ok {
		c.nodes[id] = make(map[string]string, len(c.defaultNodeAttrs))
		for k, v := range c.defaultNodeAttrs {
			c.nodes[id][k] = v
		}
	}
	for k, v := range attrs {
		c.nodes[id][k] = unquote(v)
	}
	return nil
}

func (c *dotCollector) AddEdge(src, dst string, _ bool, attrs map[string]string) error {
	label := ""
	if lbl, ok := attrs["label"]; ok {
		label = unquote(lbl)
	}
	// Endpoints mentioned only in edge statements still become nodes.
	for _, name := range []string{unquote(src), unquote(dst)} {
		if _, ok := c.nodes[name]; !ok {
			c.nodes[name] = map[string]string{}
		}
	}
	c.edges = append(c.edges, rawDOTEdge{from: unquote(src), to: unquote(dst), label: label})
	return nil
}

func (c *dotCollector) AddPortEdge(src, _, dst, _ string, directed bool, attrs map[string]string) error {
	return c.AddEdge(src, dst, directed, attrs)
}

func (c *dotCollector) AddAttr(_ string, field, value string) error {
	c.graphAttrs[field] = unquote(value)
	return nil
}

func (c *dotCollector) AddSubGraph(_, _ string, _ map[string]string) error { return nil }

// unquote strips surrounding double-quotes from a DOT attribute value.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
