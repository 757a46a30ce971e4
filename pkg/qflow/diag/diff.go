// Package diag renders human-readable diffs between two snapshots of a
// query's dominated match set, reusing the teacher's own diffing stack
// (gonvenience/ytbx + homeport/dyff) instead of hand-rolling a match-set
// diff. This is the engine's --explain / test-assertion path for "what
// changed in this query between cycle N and N+1" (cmd/graft/main.go's
// diffFiles is the same CompareInputFiles + HumanReport shape, just fed
// from two YAML files instead of two in-memory snapshots).
package diag

import (
	"bufio"
	"bytes"
	"fmt"

	"github.com/gonvenience/ytbx"
	"github.com/homeport/dyff"
	"gopkg.in/yaml.v3"
)

// Snapshot is a query's dominated match set at a point in cycle time:
// element id to its current value, as FilterDominatedMatchesAsObj
// would return.
type Snapshot map[int64]interface{}

// toInputFile converts snapshot into a ytbx.InputFile dyff can compare,
// round-tripping through yaml.Node the same way a loaded YAML document
// would arrive from ytbx.LoadFile.
func toInputFile(location string, snapshot Snapshot) (ytbx.InputFile, error) {
	plain := make(map[string]interface{}, len(snapshot))
	for id, v := range snapshot {
		plain[fmt.Sprintf("%d", id)] = v
	}

	raw, err := yaml.Marshal(plain)
	if err != nil {
		return ytbx.InputFile{}, fmt.Errorf("diag: marshal snapshot for %s: %w", location, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return ytbx.InputFile{}, fmt.Errorf("diag: unmarshal snapshot for %s: %w", location, err)
	}

	return ytbx.InputFile{
		Location:  location,
		Documents: []*yaml.Node{&doc},
	}, nil
}

// Diff renders a dyff human report describing what changed between
// before and after, and whether any differences were found.
func Diff(queryLabel string, before, after Snapshot) (report string, changed bool, err error) {
	from, err := toInputFile(queryLabel+" (before)", before)
	if err != nil {
		return "", false, err
	}
	to, err := toInputFile(queryLabel+" (after)", after)
	if err != nil {
		return "", false, err
	}

	result, err := dyff.CompareInputFiles(from, to)
	if err != nil {
		return "", false, fmt.Errorf("diag: compare snapshots for %s: %w", queryLabel, err)
	}

	writer := &dyff.HumanReport{
		Report:       result,
		OmitHeader:   true,
		NoTableStyle: false,
	}

	var buf bytes.Buffer
	out := bufio.NewWriter(&buf)
	if err := writer.WriteReport(out); err != nil {
		return "", false, fmt.Errorf("diag: render report for %s: %w", queryLabel, err)
	}
	out.Flush()

	return buf.String(), len(result.Diffs) > 0, nil
}
