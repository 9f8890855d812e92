// Package story holds the condition and variable types shared between the
// logic-graph editor and the story engine that consumes its exports.
package story

import (
	"fmt"
	"strconv"
)

// VariableType identifies the kind of value a story variable holds.
type VariableType string

const (
	VariableNumber  VariableType = "number"
	VariableString  VariableType = "string"
	VariableBoolean VariableType = "boolean"
)

// Variable is a project-level story variable declaration.
type Variable struct {
	ID   string       `json:"id"`
	Type VariableType `json:"type"`
}

// Operator compares a variable's current value against a comparand.
type Operator string

const (
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
)

// Condition is a (variable, operator, value) triple evaluated against the
// current story-variable state.
type Condition struct {
	VariableID string   `json:"variable_id"`
	Operator   Operator `json:"operator"`
	Value      any      `json:"value"`
}

// Evaluate applies the condition to a snapshot of story-variable values.
// Ordering operators require both sides to be numeric; equality falls back
// to string comparison of the rendered values, which matches how the editor
// previews conditions.
func (c Condition) Evaluate(vars map[string]any) (bool, error) {
	current, ok := vars[c.VariableID]
	if !ok {
		return false, fmt.Errorf("condition: variable %q not set", c.VariableID)
	}

	switch c.Operator {
	case OpEqual:
		return render(current) == render(c.Value), nil
	case OpNotEqual:
		return render(current) != render(c.Value), nil
	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
		lhs, err := toNumber(current)
		if err != nil {
			return false, fmt.Errorf("condition: variable %q: %w", c.VariableID, err)
		}
		rhs, err := toNumber(c.Value)
		if err != nil {
			return false, fmt.Errorf("condition: comparand: %w", err)
		}
		switch c.Operator {
		case OpGreater:
			return lhs > rhs, nil
		case OpGreaterEqual:
			return lhs >= rhs, nil
		case OpLess:
			return lhs < rhs, nil
		default:
			return lhs <= rhs, nil
		}
	default:
		return false, fmt.Errorf("condition: unknown operator %q", c.Operator)
	}
}

func render(v any) string {
	return fmt.Sprintf("%v", v)
}

func toNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("value %v (%T) is not numeric", v, v)
	}
}
