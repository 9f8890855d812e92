package logic

// TemplateNode is one node produced by a condition template, placed
// relative to the insertion position.
type TemplateNode struct {
	Type    NodeType
	Label   string
	Config  map[string]any
	OffsetX float64
	OffsetY float64
}

// ConditionTemplate is a named recipe the editor's template picker offers
// for common branching patterns.
type ConditionTemplate struct {
	ID          string
	Name        string
	Description string
	Nodes       []TemplateNode
}

// builtinTemplates are the stock patterns shipped with the editor. Projects
// may register more through Factory.RegisterTemplate.
var builtinTemplates = []ConditionTemplate{
	{
		ID:          "variable-at-least",
		Name:        "Variable at least",
		Description: "Branch when a numeric variable meets a threshold",
		Nodes: []TemplateNode{
			{Type: NodeTypeCondition, Config: map[string]any{"operator": ">="}},
		},
	},
	{
		ID:          "flag-enabled",
		Name:        "Flag enabled",
		Description: "Branch when a boolean flag is set",
		Nodes: []TemplateNode{
			{Type: NodeTypeCondition, Config: map[string]any{"operator": "==", "value": true}},
		},
	},
	{
		ID:          "stat-range",
		Name:        "Stat within range",
		Description: "Two threshold checks joined by an AND gate",
		Nodes: []TemplateNode{
			{Type: NodeTypeCondition, Label: "Lower bound", Config: map[string]any{"operator": ">="}},
			{Type: NodeTypeCondition, Label: "Upper bound", Config: map[string]any{"operator": "<="}, OffsetY: 120},
			{Type: NodeTypeAndGate, OffsetX: 220, OffsetY: 60},
		},
	},
}
