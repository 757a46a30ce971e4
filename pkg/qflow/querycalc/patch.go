package querycalc

import (
	"fmt"

	"github.com/cppforlife/go-patch/patch"
	"gopkg.in/yaml.v2"
)

// EncodeMatchDelta encodes one add/remove batch emitted by a root
// query-calc node's AddMatches/RemoveMatches as a go-patch OpDefinition
// sequence (spec.md §6 "Output signals"; SPEC_FULL.md §5.4): one
// "replace" op per added id (path "/<id>", value true) and one "remove"
// op per removed id, reusing the teacher's own go-patch dependency
// instead of inventing a bespoke diff format for the CLI's --watch mode.
func EncodeMatchDelta(added, removed []int64) []patch.OpDefinition {
	ops := make([]patch.OpDefinition, 0, len(added)+len(removed))
	for _, id := range added {
		path := fmt.Sprintf("/%d", id)
		present := interface{}(true)
		ops = append(ops, patch.OpDefinition{
			Type:  "replace",
			Path:  &path,
			Value: &present,
		})
	}
	for _, id := range removed {
		path := fmt.Sprintf("/%d", id)
		ops = append(ops, patch.OpDefinition{
			Type: "remove",
			Path: &path,
		})
	}
	return ops
}

// ParseMatchDelta validates a go-patch OpDefinition sequence and builds
// the executable patch.Ops, so a delta go-patch cannot build (an
// unsupported op type, an unparseable path) is rejected before the CLI
// tries to render it. Paths are not checked to be a bare "/<id>".
func ParseMatchDelta(defs []patch.OpDefinition) (patch.Ops, error) {
	ops, err := patch.NewOpsFromDefinitions(defs)
	if err != nil {
		return nil, fmt.Errorf("querycalc: invalid match delta: %w", err)
	}
	return ops, nil
}

// RenderMatchDelta renders added/removed as human-readable YAML go-patch
// operations for the CLI's --watch mode.
func RenderMatchDelta(added, removed []int64) (string, error) {
	defs := EncodeMatchDelta(added, removed)
	if _, err := ParseMatchDelta(defs); err != nil {
		return "", err
	}
	out, err := yaml.Marshal(defs)
	if err != nil {
		return "", fmt.Errorf("querycalc: render match delta: %w", err)
	}
	return string(out), nil
}
