package schema

// Concrete enum kinds for this replay format, grounded on the reference
// implementation's config/enums.py. Kind strings are the keys by which
// output contracts reference an enum (spec §3, §4.5).
const (
	KindCommands           = "CommandsEnum"
	KindConstructionAction = "ConstructionActionsEnum"
	KindUnitEconomyEvents  = "UnitEconomyEventsEnum"
	KindUnitEvents         = "UnitEventsEnum"
)

var commandsEnum = NewEnumKind(KindCommands, []EnumMember{
	{"BUILD", 1}, {"ATTACK", 2}, {"CAPTURE", 3}, {"FIGHT", 4}, {"GUARD", 5},
	{"LOAD_UNITS", 6}, {"MANUAL_FIRE", 7}, {"MOVE", 8}, {"PATROL", 9},
	{"RECLAIM", 10}, {"REPAIR", 11}, {"RESURRECT", 12}, {"STOP", 13},
	{"UNLOAD_UNITS", 14}, {"WAIT", 15},
})

var constructionActionsEnum = NewEnumKind(KindConstructionAction, []EnumMember{
	{"CONSTRUCTION_START", 1}, {"CONSTRUCTION_SNAPSHOT", 2}, {"CONSTRUCTION_END", 3},
	{"ASSIST_START", 4}, {"ASSIST_SNAPSHOT", 5}, {"ASSIST_END", 6},
})

var unitEconomyEventsEnum = NewEnumKind(KindUnitEconomyEvents, []EnumMember{
	{"PRODUCTION_STARTED", 1}, {"SNAPSHOT", 2}, {"DESTROYED", 3},
})

var unitEventsEnum = NewEnumKind(KindUnitEvents, []EnumMember{
	{"CREATED", 1}, {"FINISHED", 2}, {"DESTROYED", 3}, {"GIVEN", 4}, {"TAKEN", 5},
})

// defaultEnumRegistry is the process-wide set of enum kinds known at
// startup, keyed by the string key output contracts and raw field
// metadata reference.
func defaultEnumRegistry() map[string]*EnumKind {
	return map[string]*EnumKind{
		KindCommands:           commandsEnum,
		KindConstructionAction: constructionActionsEnum,
		KindUnitEconomyEvents:  unitEconomyEventsEnum,
		KindUnitEvents:         unitEventsEnum,
	}
}
