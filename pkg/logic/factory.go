package logic

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fabula-vn/fabula/pkg/story"
)

// Default node extent on the canvas; comment nodes are wider.
var (
	defaultNodeSize    = Size{Width: 160, Height: 80}
	defaultCommentSize = Size{Width: 240, Height: 120}
)

// portSpec describes one default port in the per-type table.
type portSpec struct {
	name     string
	typ      PortType
	required bool
}

// nodeSpec is the static construction table entry for a node type.
type nodeSpec struct {
	label   string
	color   string
	icon    string
	inputs  []portSpec
	outputs []portSpec
}

var nodeSpecs = map[NodeType]nodeSpec{
	NodeTypeStart: {
		label: "Start", color: "#4caf50", icon: "play",
		outputs: []portSpec{{"Out", PortTrigger, false}},
	},
	NodeTypeEnd: {
		label: "End", color: "#f44336", icon: "stop",
		inputs: []portSpec{{"In", PortTrigger, true}},
	},
	NodeTypeCondition: {
		label: "Condition", color: "#ff9800", icon: "help",
		inputs:  []portSpec{{"In", PortTrigger, true}},
		outputs: []portSpec{{"True", PortTrigger, false}, {"False", PortTrigger, false}},
	},
	NodeTypeVariableCheck: {
		label: "Check Variable", color: "#ff9800", icon: "search",
		inputs:  []portSpec{{"In", PortTrigger, true}, {"Variable", PortVariable, false}},
		outputs: []portSpec{{"True", PortTrigger, false}, {"False", PortTrigger, false}},
	},
	NodeTypeVariableSet: {
		label: "Set Variable", color: "#2196f3", icon: "edit",
		inputs:  []portSpec{{"In", PortTrigger, true}, {"Value", PortAny, false}},
		outputs: []portSpec{{"Out", PortTrigger, false}},
	},
	NodeTypeMathOperation: {
		label: "Math", color: "#9c27b0", icon: "calculator",
		inputs:  []portSpec{{"A", PortNumber, true}, {"B", PortNumber, true}},
		outputs: []portSpec{{"Result", PortNumber, false}},
	},
	NodeTypeRandom: {
		label: "Random", color: "#9c27b0", icon: "dice",
		inputs:  []portSpec{{"In", PortTrigger, false}},
		outputs: []portSpec{{"Value", PortNumber, false}},
	},
	NodeTypeTimer: {
		label: "Timer", color: "#607d8b", icon: "clock",
		inputs:  []portSpec{{"Start", PortTrigger, true}},
		outputs: []portSpec{{"Elapsed", PortTrigger, false}},
	},
	NodeTypeInput: {
		label: "Input", color: "#00bcd4", icon: "login",
		outputs: []portSpec{{"Value", PortAny, false}},
	},
	NodeTypeOutput: {
		label: "Output", color: "#00bcd4", icon: "logout",
		inputs: []portSpec{{"Value", PortAny, true}},
	},
	NodeTypeAndGate: {
		label: "AND", color: "#795548", icon: "gate",
		inputs:  []portSpec{{"A", PortBoolean, true}, {"B", PortBoolean, true}},
		outputs: []portSpec{{"Out", PortBoolean, false}},
	},
	NodeTypeOrGate: {
		label: "OR", color: "#795548", icon: "gate",
		inputs:  []portSpec{{"A", PortBoolean, true}, {"B", PortBoolean, true}},
		outputs: []portSpec{{"Out", PortBoolean, false}},
	},
	NodeTypeNotGate: {
		label: "NOT", color: "#795548", icon: "gate",
		inputs:  []portSpec{{"In", PortBoolean, true}},
		outputs: []portSpec{{"Out", PortBoolean, false}},
	},
	NodeTypeSwitch: {
		label: "Switch", color: "#3f51b5", icon: "fork",
		inputs:  []portSpec{{"Value", PortAny, true}},
		outputs: []portSpec{{"Case 1", PortTrigger, false}, {"Case 2", PortTrigger, false}, {"Default", PortTrigger, false}},
	},
	NodeTypeLoop: {
		label: "Loop", color: "#3f51b5", icon: "repeat",
		inputs:  []portSpec{{"In", PortTrigger, true}},
		outputs: []portSpec{{"Body", PortTrigger, false}, {"Done", PortTrigger, false}},
	},
	NodeTypeComment: {
		label: "Comment", color: "#9e9e9e", icon: "note",
	},
	NodeTypeCustom: {
		label: "Custom", color: "#9e9e9e", icon: "puzzle",
		inputs:  []portSpec{{"In", PortAny, false}},
		outputs: []portSpec{{"Out", PortAny, false}},
	},
}

// Factory constructs fully-formed nodes. One factory is built per
// application or test context and passed where needed.
type Factory struct {
	templates map[string]ConditionTemplate
}

// NewFactory creates a factory with the built-in condition templates.
func NewFactory() *Factory {
	f := &Factory{templates: make(map[string]ConditionTemplate)}
	for _, t := range builtinTemplates {
		f.templates[t.ID] = t
	}
	return f
}

// RegisterTemplate adds or replaces a condition template.
func (f *Factory) RegisterTemplate(t ConditionTemplate) {
	f.templates[t.ID] = t
}

// NewNode builds a node of the given type at a canvas position. Unknown
// types get the custom node's shape. The node is allocated only; the caller
// inserts it into a graph.
func (f *Factory) NewNode(typ NodeType, pos Position, config map[string]any) *Node {
	spec, ok := nodeSpecs[typ]
	if !ok {
		spec = nodeSpecs[NodeTypeCustom]
	}

	size := defaultNodeSize
	if typ == NodeTypeComment {
		size = defaultCommentSize
	}

	n := &Node{
		ID:       uuid.NewString(),
		Type:     typ,
		Label:    spec.label,
		Position: pos,
		Size:     size,
		Color:    spec.color,
		Icon:     spec.icon,
		Inputs:   buildPorts("in", spec.inputs),
		Outputs:  buildPorts("out", spec.outputs),
		Enabled:  true,
		Valid:    true,
	}
	if len(config) > 0 {
		n.Config = make(map[string]any, len(config))
		for k, v := range config {
			n.Config[k] = v
		}
		n.Condition = conditionFromConfig(config)
	}
	return n
}

// NewFromTemplate expands a named condition template into one or more
// nodes. An unknown template id is not an error: it falls back to a single
// generic node.
func (f *Factory) NewFromTemplate(templateID string, pos Position, config map[string]any) []*Node {
	t, ok := f.templates[templateID]
	if !ok {
		return []*Node{f.NewNode(NodeTypeCustom, pos, config)}
	}

	nodes := make([]*Node, 0, len(t.Nodes))
	for _, tn := range t.Nodes {
		merged := make(map[string]any, len(tn.Config)+len(config))
		for k, v := range tn.Config {
			merged[k] = v
		}
		for k, v := range config {
			merged[k] = v
		}
		n := f.NewNode(tn.Type, Position{X: pos.X + tn.OffsetX, Y: pos.Y + tn.OffsetY}, merged)
		if tn.Label != "" {
			n.Label = tn.Label
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// ValidateNodeConfig performs the shallow per-type config check: condition
// nodes must carry an operator. Full schema validation is intentionally not
// done here.
func (f *Factory) ValidateNodeConfig(typ NodeType, config map[string]any) []Issue {
	var issues []Issue
	if typ == NodeTypeCondition {
		op, _ := config["operator"].(string)
		if op == "" {
			issues = append(issues, Issue{
				Code:     CodeMissingOperator,
				Message:  "condition node config requires an \"operator\" key",
				Severity: SeverityError,
			})
		}
	}
	return issues
}

func buildPorts(prefix string, specs []portSpec) []Port {
	ports := make([]Port, 0, len(specs))
	for i, s := range specs {
		ports = append(ports, Port{
			ID:       fmt.Sprintf("%s-%d", prefix, i+1),
			Name:     s.name,
			Type:     s.typ,
			Required: s.required,
		})
	}
	return ports
}

// conditionFromConfig lifts the editor's {variableId, operator, value}
// config keys into an embedded condition, when present.
func conditionFromConfig(config map[string]any) *story.Condition {
	varID, _ := config["variableId"].(string)
	op, _ := config["operator"].(string)
	if varID == "" || op == "" {
		return nil
	}
	return &story.Condition{
		VariableID: varID,
		Operator:   story.Operator(op),
		Value:      config["value"],
	}
}
