package schema

// Concrete clean aspect schemas, grounded on the reference
// implementation's schemas/aspects.py, with one deliberate departure:
// the reference's clean models retain both the raw enum-coded field
// and the interned symbolic field for the same concept (e.g. both
// cmd_id and cmd_name), which only happens because that draft's
// enum-substitution step does not always remove the raw field it
// replaces. spec §4.3 step 3 is unambiguous ("remove the entry at
// raw_field... insert it under clean_field"), so here every
// enum-mapped raw field is replaced by exactly one clean field:
// the symbolic one. Where raw_field == clean_field (e.g. "event_type")
// this is invisible; where they differ (cmd_id -> cmd_name) the raw
// integer field does not reappear in the clean schema.

func ci(name string) CleanField  { return CleanField{Name: name, Type: CleanInt64} }
func cio(name string) CleanField { return CleanField{Name: name, Type: CleanInt64, Optional: true} }
func cf(name string) CleanField  { return CleanField{Name: name, Type: CleanFloat64} }
func cb(name string) CleanField  { return CleanField{Name: name, Type: CleanBool} }
func cs(name string) CleanField  { return CleanField{Name: name, Type: CleanString} }
func ce(name, kind string) CleanField {
	return CleanField{Name: name, Type: CleanEnum, Optional: true, EnumKind: kind}
}

func cleanSchemas() map[string]CleanSchema {
	return map[string]CleanSchema{
		AspectCommandsLog: {
			Aspect: AspectCommandsLog,
			Fields: []CleanField{
				ci("frame"), ci("teamId"), ci("unitId"),
				ce("cmd_name", KindCommands),
				ci("cmd_tag"), cio("target_unit_id"),
				ci("x"), ci("y"), ci("z"),
			},
		},
		AspectConstructionLog: {
			Aspect: AspectConstructionLog,
			Fields: []CleanField{
				ci("frame"),
				ce("event", KindConstructionAction),
				ci("builder_unit_id"), ci("builder_unit_def_id"), ci("builder_player_id"),
				ci("target_unit_id"), ci("target_unit_def_id"), cio("target_player_id"),
				cf("buildpower"),
			},
		},
		AspectTeamStats: {
			Aspect: AspectTeamStats,
			Fields: []CleanField{
				ci("frame"), ci("team_id"),
				cf("metal_used"), cf("metal_produced"), cf("metal_excess"), cf("metal_received"), cf("metal_sent"),
				cf("energy_used"), cf("energy_produced"), cf("energy_excess"), cf("energy_received"), cf("energy_sent"),
				cf("damage_dealt"), cf("damage_received"),
				ci("units_killed"), ci("units_died"), ci("units_captured"), ci("units_out_captured"),
				ci("units_received"), ci("units_sent"), ci("max_units"), ci("current_unit_count"),
				cf("metal_current"), cf("metal_storage"), cf("metal_pull"), cf("metal_income"), cf("metal_expense"),
				cf("metal_share"), cf("metal_Rsent"), cf("metal_Rreceived"), cf("metal_Rexcess"),
				cf("energy_current"), cf("energy_storage"), cf("energy_pull"), cf("energy_income"), cf("energy_expense"),
				cf("energy_share"), cf("energy_Rsent"), cf("energy_Rreceived"), cf("energy_Rexcess"),
			},
		},
		AspectUnitEconomy: {
			Aspect: AspectUnitEconomy,
			Fields: []CleanField{
				ci("frame"), ci("unit_id"), ci("unit_def_id"), ci("team_id"),
				ce("event_type", KindUnitEconomyEvents),
				cf("metal_make"), cf("metal_use"), cf("energy_make"), cf("energy_use"),
			},
		},
		AspectUnitEvents: {
			Aspect: AspectUnitEvents,
			Fields: []CleanField{
				ci("frame"), ci("unit_id"), cio("unitDefID"), ci("unit_team_id"),
				ci("x"), ci("y"), cio("z"),
				cio("attacker_unit_id"), cio("attacker_unit_def_id"), cio("attacker_team_id"),
				ce("event_type", KindUnitEvents),
				cio("old_team_id"), cio("new_team_id"), cio("builder_id"), cio("factory_queue_len"),
			},
		},
		AspectUnitPositions: {
			Aspect: AspectUnitPositions,
			Fields: []CleanField{
				ci("frame"), ci("unit_id"), ci("unit_def_id"), ci("team_id"),
				ci("x"), ci("y"), ci("z"),
				cf("vx"), cf("vy"), cf("vz"),
				ci("heading"),
			},
		},
		AspectUnitStateSnapshots: {
			Aspect: AspectUnitStateSnapshots,
			Fields: []CleanField{
				ci("frame"), ci("unit_id"), ci("team_id"),
				ci("currentHealth"), ci("currentMaxHealth"),
				cf("experience"),
				cb("is_being_built"), cb("is_stunned"), cb("is_cloaked"),
				ci("is_transporting_count"), ci("current_max_range"), cb("is_firing"),
			},
		},
		AspectDamageLog: {
			Aspect: AspectDamageLog,
			Fields: []CleanField{
				ci("frame"), ci("victim_team_id"), cio("attacker_team_id"),
				ci("victim_unit_id"), ci("victim_def_id"),
				cio("attacker_unit_id"), cio("attacker_def_id"),
				ci("weapon_def_id"), ci("projectile_id"), ci("damage"),
				cb("is_paralyzer"),
				ci("victim_pos_x"), ci("victim_pos_y"), ci("victim_pos_z"),
			},
		},
		AspectMapEnvirEcon: {
			Aspect: AspectMapEnvirEcon,
			Fields: []CleanField{ci("frame"), ci("wind_strength"), ci("tidal_strength")},
		},
		AspectStartPos: {
			Aspect: AspectStartPos,
			Fields: []CleanField{
				ci("player_id"), cs("player_name"), cs("commander_def_name"),
				ci("unit_def_id"), ci("x"), ci("y"), ci("z"),
			},
		},
	}
}
