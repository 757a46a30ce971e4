package qflow

import (
	"fmt"

	"github.com/geofffranks/simpleyaml"
	"github.com/geofffranks/yaml"
)

// ParseExpressionYAML decodes data (the "Expression input" of spec.md
// §6, authored as YAML in qflow's CLI and test fixtures, SPEC_FULL.md
// §5.5) with the teacher's own geofffranks/yaml fork — chosen there to
// fix map key ordering bugs in upstream go-yaml — into the Expression
// tagged tree.
func ParseExpressionYAML(data []byte) (*Expression, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("qflow: parse expression YAML: %w", err)
	}
	return exprFromYAML(raw)
}

func exprFromYAML(v interface{}) (*Expression, error) {
	switch t := v.(type) {
	case nil:
		return &Expression{Kind: ExprNull}, nil
	case bool:
		return &Expression{Kind: ExprBoolean, Bool: t}, nil
	case int:
		return &Expression{Kind: ExprNumber, Num: float64(t)}, nil
	case int64:
		return &Expression{Kind: ExprNumber, Num: float64(t)}, nil
	case float64:
		return &Expression{Kind: ExprNumber, Num: t}, nil
	case string:
		return stringExprFromYAML(t), nil
	case []interface{}:
		elems := make([]*Expression, 0, len(t))
		for _, item := range t {
			e, err := exprFromYAML(item)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return &Expression{Kind: ExprOrderedSet, Elements: elems}, nil
	case map[interface{}]interface{}:
		return attrsExprFromYAML(t)
	case map[string]interface{}:
		converted := make(map[interface{}]interface{}, len(t))
		for k, val := range t {
			converted[k] = val
		}
		return attrsExprFromYAML(converted)
	default:
		return nil, fmt.Errorf("qflow: unsupported YAML value of type %T in expression input", v)
	}
}

// stringExprFromYAML recognizes a bare "_" as the projector, falling
// back to a plain string leaf. Negation is not decoded from strings;
// attrsExprFromYAML decodes it from a single-key "!" map.
func stringExprFromYAML(s string) *Expression {
	if s == "_" {
		return &Expression{Kind: ExprProjector}
	}
	return &Expression{Kind: ExprString, Str: s}
}

func attrsExprFromYAML(m map[interface{}]interface{}) (*Expression, error) {
	// A single-key map headed by a recognized builtin tag encodes a
	// function application or negation instead of a plain attribute-value
	// node, e.g. {"!": {...}} for negation and {"fn:eq": [...]} for a
	// built-in function application.
	if len(m) == 1 {
		for k, v := range m {
			key, ok := k.(string)
			if !ok {
				break
			}
			switch {
			case key == "!":
				operand, err := exprFromYAML(v)
				if err != nil {
					return nil, err
				}
				return &Expression{Kind: ExprNegation, Operand: operand}, nil
			case key == "range":
				bounds, ok := v.(map[interface{}]interface{})
				if !ok {
					return nil, fmt.Errorf("qflow: range expects a {low, high} map")
				}
				low, err := exprFromYAML(bounds["low"])
				if err != nil {
					return nil, err
				}
				high, err := exprFromYAML(bounds["high"])
				if err != nil {
					return nil, err
				}
				return &Expression{Kind: ExprRange, RangeLow: low, RangeHigh: high}, nil
			case len(key) > 3 && key[:3] == "fn:":
				args, ok := v.([]interface{})
				if !ok {
					return nil, fmt.Errorf("qflow: %s expects an argument list", key)
				}
				exprArgs := make([]*Expression, 0, len(args))
				for _, a := range args {
					ae, err := exprFromYAML(a)
					if err != nil {
						return nil, err
					}
					exprArgs = append(exprArgs, ae)
				}
				return &Expression{Kind: ExprFunctionApplication, Builtin: key[3:], Args: exprArgs}, nil
			}
		}
	}

	attrs := make(map[string]*Expression, len(m))
	for k, v := range m {
		key, ok := k.(string)
		if !ok {
			return nil, fmt.Errorf("qflow: expression attribute keys must be strings, got %T", k)
		}
		sub, err := exprFromYAML(v)
		if err != nil {
			return nil, err
		}
		attrs[key] = sub
	}
	return &Expression{Kind: ExprAttributeValue, Attrs: attrs}, nil
}

// AreaTemplateHeader is the subset of an area template's YAML
// definition read by ParseAreaTemplateHeader: its name and the raw
// "attr=value" qualifier atoms gating it.
type AreaTemplateHeader struct {
	Name       string
	Qualifiers []string
}

// ParseAreaTemplateHeader reads an area template's name and qualifier
// list from data using simpleyaml's convenience accessors (SPEC_FULL.md
// §5.5: "simpleyaml backs convenience accessors ... used while decoding
// area-template YAML").
func ParseAreaTemplateHeader(data []byte) (AreaTemplateHeader, error) {
	y, err := simpleyaml.NewYaml(data)
	if err != nil {
		return AreaTemplateHeader{}, fmt.Errorf("qflow: parse area template YAML: %w", err)
	}

	name, err := y.Get("name").String()
	if err != nil {
		return AreaTemplateHeader{}, fmt.Errorf("qflow: area template missing a 'name' field: %w", err)
	}

	header := AreaTemplateHeader{Name: name}

	items, err := y.Get("qualifiers").Array()
	if err != nil {
		// No qualifiers list: an unconditional area template.
		return header, nil
	}
	for i, item := range items {
		atom, ok := item.(string)
		if !ok {
			return AreaTemplateHeader{}, fmt.Errorf("qflow: area template %q has a non-string qualifier at index %d", name, i)
		}
		header.Qualifiers = append(header.Qualifiers, atom)
	}

	return header, nil
}
