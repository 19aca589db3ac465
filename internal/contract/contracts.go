package contract

import (
	"github.com/anovio/tubuin/internal/schema"
	"github.com/anovio/tubuin/internal/table"
)

// Contracts is the compiled-in map of stream name (aspect or stat) to
// its output contract -- the single source of truth the orchestrator
// consults before invoking an encoder, grounded on
// output_contracts.py's OUTPUT_CONTRACTS. A stream with no entry gets
// an empty contract: every column passes through untouched in
// columnar layout.
type Contracts map[string]*Contract

// DefaultContracts returns the contract set this implementation ships
// with. Callers may add or override entries before running the
// pipeline.
func DefaultContracts() Contracts {
	return Contracts{
		"army_value_timeline": {
			Columns: map[string]ColumnRule{
				"frame":      Cast(table.UInt32),
				"team_id":    Cast(table.UInt32),
				"army_value": QuantizeStaticRule(0.1, table.UInt32),
			},
			TableOptions: TableOptions{Layout: LayoutRowMajorMixed},
		},
		"command_log": {
			Columns:      map[string]ColumnRule{},
			TableOptions: TableOptions{Layout: LayoutRowMajorMixed},
		},
		"unit_events": {
			Columns: map[string]ColumnRule{
				"frame":               Cast(table.UInt32),
				"unit_id":             Cast(table.UInt32),
				"unitDefID":           Cast(table.UInt32),
				"unit_team_id":        Cast(table.UInt32),
				"x":                   Cast(table.UInt32),
				"y":                   Cast(table.UInt32),
				"z":                   Cast(table.UInt32),
				"attacker_unit_id":    Cast(table.UInt32),
				"attacker_unit_def_id": Cast(table.UInt32),
				"attacker_team_id":    Cast(table.UInt32),
				"event_type":          EnumToInt(schema.KindUnitEvents, table.UInt32),
				"old_team_id":         Cast(table.UInt32),
				"new_team_id":         Cast(table.UInt32),
				"builder_id":          Cast(table.UInt32),
				"factory_queue_len":   Cast(table.UInt32),
			},
			TableOptions: TableOptions{
				Layout:       LayoutRowMajorMixed,
				NullEncoding: int64Ptr(0),
			},
		},
	}
}

func int64Ptr(v int64) *int64 { return &v }

// For returns the contract for name, or an empty pass-through
// contract if none is registered.
func (c Contracts) For(name string) *Contract {
	if ct, ok := c[name]; ok {
		return ct
	}
	return &Contract{Columns: map[string]ColumnRule{}, TableOptions: TableOptions{Layout: LayoutColumnar}}
}
