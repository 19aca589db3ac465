package schema

// Concrete raw aspect schemas, grounded on the reference implementation's
// schemas/aspects_raw.py. Field order is positional and authoritative:
// it is the order in which the streaming decoder binds decoded values
// to field names (spec §4.2).

func req(name string, t ScalarType) RawField { return RawField{Name: name, Type: t} }

func opt(name string, t ScalarType) RawField { return RawField{Name: name, Type: t, Optional: true} }

func reqDQ(name string, divisor float64) RawField {
	return RawField{Name: name, Type: ScalarInt64, Meta: FieldMeta{Dequantize: &DequantizeRule{Divisor: divisor}}}
}

func reqEnum(name, cleanField, kind string) RawField {
	return RawField{Name: name, Type: ScalarInt64, Meta: FieldMeta{EnumMap: &EnumMapRule{CleanField: cleanField, EnumKind: kind}}}
}

const (
	AspectCommandsLog          = "commands_log"
	AspectConstructionLog      = "construction_log"
	AspectDamageLog            = "damage_log"
	AspectMapEnvirEcon         = "map_envir_econ"
	AspectStartPos             = "start_pos"
	AspectTeamStats            = "team_stats"
	AspectUnitEconomy          = "unit_economy"
	AspectUnitEvents           = "unit_events"
	AspectUnitPositions        = "unit_positions"
	AspectUnitStateSnapshots   = "unit_state_snapshots"
)

func rawSchemas() map[string]RawSchema {
	return map[string]RawSchema{
		AspectCommandsLog: {
			Aspect: AspectCommandsLog,
			Fields: []RawField{
				req("frame", ScalarInt64), req("teamId", ScalarInt64), req("unitId", ScalarInt64),
				reqEnum("cmd_id", "cmd_name", KindCommands),
				req("cmd_tag", ScalarInt64), opt("target_unit_id", ScalarInt64),
				req("x", ScalarInt64), req("y", ScalarInt64), req("z", ScalarInt64),
			},
		},
		AspectConstructionLog: {
			Aspect: AspectConstructionLog,
			Fields: []RawField{
				req("frame", ScalarInt64),
				reqEnum("event", "event", KindConstructionAction),
				req("builder_unit_id", ScalarInt64), req("builder_unit_def_id", ScalarInt64),
				req("builder_player_id", ScalarInt64), req("target_unit_id", ScalarInt64),
				req("target_unit_def_id", ScalarInt64), opt("target_player_id", ScalarInt64),
				reqDQ("buildpower", 1000.0),
			},
		},
		AspectTeamStats: {
			Aspect: AspectTeamStats,
			Fields: []RawField{
				req("frame", ScalarInt64), req("team_id", ScalarInt64),
				reqDQ("metal_used", 10.0), reqDQ("metal_produced", 10.0), reqDQ("metal_excess", 10.0),
				reqDQ("metal_received", 10.0), reqDQ("metal_sent", 10.0),
				reqDQ("energy_used", 10.0), reqDQ("energy_produced", 10.0), reqDQ("energy_excess", 10.0),
				reqDQ("energy_received", 10.0), reqDQ("energy_sent", 10.0),
				reqDQ("damage_dealt", 10.0), reqDQ("damage_received", 10.0),
				req("units_killed", ScalarInt64), req("units_died", ScalarInt64), req("units_captured", ScalarInt64),
				req("units_out_captured", ScalarInt64), req("units_received", ScalarInt64), req("units_sent", ScalarInt64),
				req("max_units", ScalarInt64), req("current_unit_count", ScalarInt64),
				reqDQ("metal_current", 10.0), reqDQ("metal_storage", 10.0), reqDQ("metal_pull", 10.0),
				reqDQ("metal_income", 10.0), reqDQ("metal_expense", 10.0), reqDQ("metal_share", 10.0),
				reqDQ("metal_Rsent", 10.0), reqDQ("metal_Rreceived", 10.0), reqDQ("metal_Rexcess", 10.0),
				reqDQ("energy_current", 10.0), reqDQ("energy_storage", 10.0), reqDQ("energy_pull", 10.0),
				reqDQ("energy_income", 10.0), reqDQ("energy_expense", 10.0), reqDQ("energy_share", 10.0),
				reqDQ("energy_Rsent", 10.0), reqDQ("energy_Rreceived", 10.0), reqDQ("energy_Rexcess", 10.0),
			},
		},
		AspectUnitEconomy: {
			Aspect: AspectUnitEconomy,
			Fields: []RawField{
				req("frame", ScalarInt64), req("unit_id", ScalarInt64), req("unit_def_id", ScalarInt64), req("team_id", ScalarInt64),
				reqEnum("event_type", "event_type", KindUnitEconomyEvents),
				reqDQ("metal_make", 10.0), reqDQ("metal_use", 10.0),
				reqDQ("energy_make", 10.0), reqDQ("energy_use", 10.0),
			},
		},
		AspectUnitEvents: {
			Aspect: AspectUnitEvents,
			Fields: []RawField{
				req("frame", ScalarInt64), req("unit_id", ScalarInt64), opt("unitDefID", ScalarInt64),
				req("unit_team_id", ScalarInt64), req("x", ScalarInt64), req("y", ScalarInt64), opt("z", ScalarInt64),
				opt("attacker_unit_id", ScalarInt64), opt("attacker_unit_def_id", ScalarInt64), opt("attacker_team_id", ScalarInt64),
				reqEnum("event_type", "event_type", KindUnitEvents),
				opt("old_team_id", ScalarInt64), opt("new_team_id", ScalarInt64),
				opt("builder_id", ScalarInt64), opt("factory_queue_len", ScalarInt64),
			},
		},
		AspectUnitPositions: {
			Aspect: AspectUnitPositions,
			Fields: []RawField{
				req("frame", ScalarInt64), req("unit_id", ScalarInt64), req("unit_def_id", ScalarInt64), req("team_id", ScalarInt64),
				req("x", ScalarInt64), req("y", ScalarInt64), req("z", ScalarInt64),
				reqDQ("vx", 1000.0), reqDQ("vy", 1000.0), reqDQ("vz", 1000.0),
				req("heading", ScalarInt64),
			},
		},
		AspectUnitStateSnapshots: {
			Aspect: AspectUnitStateSnapshots,
			Fields: []RawField{
				req("frame", ScalarInt64), req("unit_id", ScalarInt64), req("team_id", ScalarInt64),
				req("currentHealth", ScalarInt64), req("currentMaxHealth", ScalarInt64),
				reqDQ("experience", 1000.0),
				req("is_being_built", ScalarBool), req("is_stunned", ScalarBool), req("is_cloaked", ScalarBool),
				req("is_transporting_count", ScalarInt64), req("current_max_range", ScalarInt64), req("is_firing", ScalarBool),
			},
		},
		AspectDamageLog: {
			Aspect: AspectDamageLog,
			Fields: []RawField{
				req("frame", ScalarInt64), req("victim_team_id", ScalarInt64), opt("attacker_team_id", ScalarInt64),
				req("victim_unit_id", ScalarInt64), req("victim_def_id", ScalarInt64),
				opt("attacker_unit_id", ScalarInt64), opt("attacker_def_id", ScalarInt64),
				req("weapon_def_id", ScalarInt64), req("projectile_id", ScalarInt64), req("damage", ScalarInt64),
				req("is_paralyzer", ScalarBool),
				req("victim_pos_x", ScalarInt64), req("victim_pos_y", ScalarInt64), req("victim_pos_z", ScalarInt64),
			},
		},
		AspectMapEnvirEcon: {
			Aspect: AspectMapEnvirEcon,
			Fields: []RawField{
				req("frame", ScalarInt64), req("wind_strength", ScalarInt64), req("tidal_strength", ScalarInt64),
			},
		},
		AspectStartPos: {
			Aspect: AspectStartPos,
			Fields: []RawField{
				req("player_id", ScalarInt64), req("player_name", ScalarString), req("commander_def_name", ScalarString),
				req("unit_def_id", ScalarInt64), req("x", ScalarInt64), req("y", ScalarInt64), req("z", ScalarInt64),
			},
		},
	}
}
