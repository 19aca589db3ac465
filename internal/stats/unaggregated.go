package stats

import (
	"fmt"
	"sort"

	"github.com/anovio/tubuin/internal/table"
)

// DetailedCommandLog returns the commands_log aspect table sorted by
// frame, the one detailed stream that needs more than a bare
// pass-through (grounded on get_detailed_command_log).
func DetailedCommandLog(in Tables) (*table.Table, error) {
	src, ok := in["commands_log"]
	if !ok || src.NumRows == 0 {
		return nil, nil
	}

	frameCol, ok := src.Column("frame")
	if !ok {
		return nil, fmt.Errorf("commands_log has no frame column to sort by")
	}

	idx := make([]int, src.NumRows)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		fa, _ := frameCol.Values[idx[a]].(int64)
		fb, _ := frameCol.Values[idx[b]].(int64)
		return fa < fb
	})

	out := table.New("command_log")
	for _, col := range src.Columns() {
		sorted := make([]interface{}, src.NumRows)
		for i, sourceRow := range idx {
			sorted[i] = col.Values[sourceRow]
		}
		out.AddColumn(&table.Column{
			Name:         col.Name,
			Dtype:        col.Dtype,
			Nullable:     col.Nullable,
			EnumKind:     col.EnumKind,
			Inner:        col.Inner,
			StructFields: col.StructFields,
			Values:       sorted,
		})
	}
	return out, nil
}
