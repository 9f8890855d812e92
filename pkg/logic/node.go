// Package logic implements the visual-logic graph behind the authoring
// tool's node editor: the node/connection document model, the factory that
// builds typed nodes, validation at escalating levels, cycle detection, and
// the condition exporter consumed by the story engine.
package logic

import (
	"time"

	"github.com/fabula-vn/fabula/pkg/story"
)

// NodeType identifies the kind of behavior a node contributes to the graph.
type NodeType string

const (
	NodeTypeCondition     NodeType = "condition"
	NodeTypeVariableCheck NodeType = "variable-check"
	NodeTypeVariableSet   NodeType = "variable-set"
	NodeTypeMathOperation NodeType = "math-operation"
	NodeTypeRandom        NodeType = "random"
	NodeTypeTimer         NodeType = "timer"
	NodeTypeInput         NodeType = "input"
	NodeTypeOutput        NodeType = "output"
	NodeTypeAndGate       NodeType = "and-gate"
	NodeTypeOrGate        NodeType = "or-gate"
	NodeTypeNotGate       NodeType = "not-gate"
	NodeTypeSwitch        NodeType = "switch"
	NodeTypeLoop          NodeType = "loop"
	NodeTypeComment       NodeType = "comment"
	NodeTypeStart         NodeType = "start"
	NodeTypeEnd           NodeType = "end"
	NodeTypeCustom        NodeType = "custom"
)

// PortType constrains which ports may be connected to each other.
type PortType string

const (
	PortBoolean   PortType = "boolean"
	PortNumber    PortType = "number"
	PortString    PortType = "string"
	PortVariable  PortType = "variable"
	PortCondition PortType = "condition"
	PortTrigger   PortType = "trigger"
	PortAny       PortType = "any"
)

// Port is a named, typed attachment point on a node.
type Port struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     PortType `json:"type"`
	Required bool     `json:"required,omitempty"`
	Default  any      `json:"default,omitempty"`
}

// Position is a node's location on the editor canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a node's rendered extent on the canvas.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Viewport is the canvas pan/zoom state saved with the graph.
type Viewport struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

// Node is a typed unit of behavior in the logic graph. Nodes are owned
// exclusively by their graph; the factory allocates them but never
// registers them anywhere.
type Node struct {
	ID       string   `json:"id"`
	Type     NodeType `json:"type"`
	Label    string   `json:"label"`
	Position Position `json:"position"`
	Size     Size     `json:"size"`
	Color    string   `json:"color,omitempty"`
	Icon     string   `json:"icon,omitempty"`

	Inputs  []Port `json:"inputs"`
	Outputs []Port `json:"outputs"`

	Config    map[string]any   `json:"config,omitempty"`
	Condition *story.Condition `json:"condition,omitempty"`

	Enabled bool `json:"enabled"`

	// Validation state, overwritten by the most recent validator run.
	Valid         bool      `json:"valid"`
	Errors        []string  `json:"errors,omitempty"`
	Warnings      []string  `json:"warnings,omitempty"`
	LastValidated time.Time `json:"last_validated,omitzero"`
}

// InputPort returns the input port with the given id, or nil.
func (n *Node) InputPort(id string) *Port {
	for i := range n.Inputs {
		if n.Inputs[i].ID == id {
			return &n.Inputs[i]
		}
	}
	return nil
}

// OutputPort returns the output port with the given id, or nil.
func (n *Node) OutputPort(id string) *Port {
	for i := range n.Outputs {
		if n.Outputs[i].ID == id {
			return &n.Outputs[i]
		}
	}
	return nil
}

// clone returns a deep copy of the node.
func (n *Node) clone() *Node {
	cp := *n
	cp.Inputs = append([]Port(nil), n.Inputs...)
	cp.Outputs = append([]Port(nil), n.Outputs...)
	cp.Errors = append([]string(nil), n.Errors...)
	cp.Warnings = append([]string(nil), n.Warnings...)
	if n.Config != nil {
		cp.Config = make(map[string]any, len(n.Config))
		for k, v := range n.Config {
			cp.Config[k] = v
		}
	}
	if n.Condition != nil {
		cond := *n.Condition
		cp.Condition = &cond
	}
	return &cp
}
